package source

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
)

func writeJPEG(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, image.NewRGBA(image.Rect(0, 0, 8, 8)), nil); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func imageDir(t *testing.T, n int) string {
	t.Helper()
	dir := t.TempDir()
	for i := 0; i < n; i++ {
		writeJPEG(t, filepath.Join(dir, fmt.Sprintf("frame_%03d.jpg", i)))
	}
	return dir
}

func TestDirSourceReadsInOrder(t *testing.T) {
	dir := imageDir(t, 3)
	src, err := OpenDir(dir, 0)
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	defer src.Close()

	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		frame, err := src.Read(ctx)
		if err != nil {
			t.Fatalf("Read %d: %v", i, err)
		}
		if frame.Number != uint64(i) {
			t.Errorf("frame number = %d, want %d", frame.Number, i)
		}
		if frame.Image == nil {
			t.Fatal("frame image is nil")
		}
	}

	if _, err := src.Read(ctx); !errors.Is(err, ErrEndOfStream) {
		t.Errorf("after last frame: err = %v, want ErrEndOfStream", err)
	}
}

func TestDirSourceEmptyDirectory(t *testing.T) {
	if _, err := OpenDir(t.TempDir(), 0); err == nil {
		t.Fatal("expected error for directory without images")
	}
}

func TestDirSourceMissingDirectory(t *testing.T) {
	if _, err := OpenDir(filepath.Join(t.TempDir(), "nope"), 0); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestDirSourceCancellation(t *testing.T) {
	src, err := OpenDir(imageDir(t, 2), 0)
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Read(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func mjpegServer(t *testing.T, frames int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mw := multipart.NewWriter(w)
		w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+mw.Boundary())
		w.WriteHeader(http.StatusOK)

		for i := 0; i < frames; i++ {
			part, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"image/jpeg"}})
			if err != nil {
				return
			}
			if err := jpeg.Encode(part, image.NewRGBA(image.Rect(0, 0, 8, 8)), nil); err != nil {
				return
			}
		}
		mw.Close()
	}))
}

func TestMJPEGSourceReadsStream(t *testing.T) {
	srv := mjpegServer(t, 2)
	defer srv.Close()

	ctx := context.Background()
	src, err := OpenMJPEG(ctx, srv.URL)
	if err != nil {
		t.Fatalf("OpenMJPEG: %v", err)
	}
	defer src.Close()

	for i := 1; i <= 2; i++ {
		frame, err := src.Read(ctx)
		if err != nil {
			t.Fatalf("Read %d: %v", i, err)
		}
		if frame.Number != uint64(i) {
			t.Errorf("frame number = %d, want %d", frame.Number, i)
		}
	}

	if _, err := src.Read(ctx); !errors.Is(err, ErrEndOfStream) {
		t.Errorf("after stream close: err = %v, want ErrEndOfStream", err)
	}
}

func TestOpenMJPEGRejectsNonStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	if _, err := OpenMJPEG(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for non-multipart response")
	}
}

func TestOpenMJPEGRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := OpenMJPEG(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestOpenSelectsByScheme(t *testing.T) {
	dir := imageDir(t, 1)
	src, err := Open(context.Background(), dir, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	if _, ok := src.(*DirSource); !ok {
		t.Errorf("source type = %T, want *DirSource", src)
	}
	if src.ID() != dir {
		t.Errorf("ID = %s, want %s", src.ID(), dir)
	}
}
