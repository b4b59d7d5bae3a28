package source

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/retailx/theft-monitor/pkg/types"
)

// DirSource replays still images from a directory in filename order.
// Useful for offline runs against recorded footage and for tests.
type DirSource struct {
	dir      string
	files    []string
	interval time.Duration
	index    int
	frameNum uint64
}

// OpenDir scans dir for images. An interval > 0 paces Read calls to
// simulate a live frame rate.
func OpenDir(dir string, interval time.Duration) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("open image directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	if len(files) == 0 {
		return nil, fmt.Errorf("no images in %s", dir)
	}

	return &DirSource{dir: dir, files: files, interval: interval}, nil
}

// Read returns the next image as a frame, or ErrEndOfStream after the
// last one.
func (s *DirSource) Read(ctx context.Context) (*types.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.index >= len(s.files) {
		return nil, ErrEndOfStream
	}

	if s.interval > 0 && s.frameNum > 0 {
		timer := time.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	path := s.files[s.index]
	s.index++

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frame file: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}

	s.frameNum++
	return &types.Frame{
		Image:     img,
		Timestamp: time.Now(),
		Number:    s.frameNum,
		Source:    s.dir,
	}, nil
}

// Close is a no-op; files are opened per Read.
func (s *DirSource) Close() error {
	return nil
}

// ID returns the directory path.
func (s *DirSource) ID() string {
	return s.dir
}
