package source

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/retailx/theft-monitor/pkg/types"
)

// MJPEGSource reads frames from an MJPEG-over-HTTP camera stream.
type MJPEGSource struct {
	url      string
	resp     *http.Response
	parts    *multipart.Reader
	cancel   context.CancelFunc
	frameNum uint64
}

// OpenMJPEG connects to an MJPEG stream. The connection is tied to ctx,
// so cancelling it unblocks a pending Read.
func OpenMJPEG(ctx context.Context, url string) (*MJPEGSource, error) {
	ctx, cancel := context.WithCancel(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("build stream request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("connect stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("stream returned status %d", resp.StatusCode)
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") || params["boundary"] == "" {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("not an MJPEG stream: content-type %q", resp.Header.Get("Content-Type"))
	}

	return &MJPEGSource{
		url:    url,
		resp:   resp,
		parts:  multipart.NewReader(resp.Body, params["boundary"]),
		cancel: cancel,
	}, nil
}

// Read returns the next frame from the stream.
func (s *MJPEGSource) Read(ctx context.Context) (*types.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	part, err := s.parts.NextPart()
	if err != nil {
		if err == io.EOF {
			return nil, ErrEndOfStream
		}
		// A cancelled connection surfaces as a read error on the body.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("read stream part: %w", err)
	}
	defer part.Close()

	img, _, err := image.Decode(part)
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	s.frameNum++
	return &types.Frame{
		Image:     img,
		Timestamp: time.Now(),
		Number:    s.frameNum,
		Source:    s.url,
	}, nil
}

// Close releases the stream connection.
func (s *MJPEGSource) Close() error {
	s.cancel()
	return s.resp.Body.Close()
}

// ID returns the stream URL.
func (s *MJPEGSource) ID() string {
	return s.url
}
