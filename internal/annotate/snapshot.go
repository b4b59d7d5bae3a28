package annotate

import (
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"time"
)

// SnapshotTimeFormat keys snapshot filenames; sortable so files list in
// chronological order.
const SnapshotTimeFormat = "20060102_150405"

// Writer persists alert snapshots under a configured directory.
type Writer struct {
	dir     string
	quality int
}

// NewWriter creates a snapshot writer, creating the directory if absent.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	return &Writer{dir: dir, quality: 90}, nil
}

// Save writes img as theft_<timestamp>.jpg and returns the file path
// and size.
func (w *Writer) Save(img image.Image, ts time.Time) (string, int64, error) {
	filename := fmt.Sprintf("theft_%s.jpg", ts.Format(SnapshotTimeFormat))
	path := filepath.Join(w.dir, filename)

	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create snapshot: %w", err)
	}

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: w.quality}); err != nil {
		f.Close()
		os.Remove(path)
		return "", 0, fmt.Errorf("encode snapshot: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return "", 0, fmt.Errorf("stat snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", 0, fmt.Errorf("close snapshot: %w", err)
	}

	return path, info.Size(), nil
}

// Dir returns the snapshot directory.
func (w *Writer) Dir() string {
	return w.dir
}
