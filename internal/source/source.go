// Package source provides frame acquisition for the theft monitor.
//
// Two source kinds are supported: an MJPEG-over-HTTP camera stream
// (multipart/x-mixed-replace, the common IP camera format) and a
// directory of still images replayed in filename order.
package source

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/retailx/theft-monitor/pkg/types"
)

// ErrEndOfStream is returned by Read when the source has no more frames.
var ErrEndOfStream = errors.New("source: end of stream")

// FrameSource yields frames from a camera or recorded sequence.
// Read blocks until a frame is available, the source ends, or ctx is
// cancelled. Implementations are not safe for concurrent Read calls;
// the loop driver is the sole reader.
type FrameSource interface {
	Read(ctx context.Context) (*types.Frame, error)
	Close() error
	ID() string
}

// Open acquires the frame source named by url. HTTP URLs open an MJPEG
// stream; anything else is treated as an image directory. The interval
// paces directory replay and is ignored for live streams.
func Open(ctx context.Context, url string, interval time.Duration) (FrameSource, error) {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return OpenMJPEG(ctx, url)
	}
	return OpenDir(url, interval)
}
