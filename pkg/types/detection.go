package types

import (
	"image"
	"time"
)

// ClassLabel identifies one of the detector's fixed output classes.
type ClassLabel string

const (
	ClassPerson           ClassLabel = "person"
	ClassHand             ClassLabel = "hand"
	ClassProductVisible   ClassLabel = "product_visible"
	ClassProductConcealed ClassLabel = "product_concealed"
)

// KnownClass reports whether name belongs to the detector vocabulary.
func KnownClass(name string) bool {
	switch ClassLabel(name) {
	case ClassPerson, ClassHand, ClassProductVisible, ClassProductConcealed:
		return true
	}
	return false
}

// BoundingBox is an axis-aligned box in pixel coordinates.
// A valid box has X1 < X2 and Y1 < Y2.
type BoundingBox struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Valid reports whether the box has positive width and height.
func (b BoundingBox) Valid() bool {
	return b.X1 < b.X2 && b.Y1 < b.Y2
}

// Detection is one detected object within a single frame.
type Detection struct {
	Class      ClassLabel  `json:"class_name"`
	Confidence float64     `json:"confidence"`
	BBox       BoundingBox `json:"bbox"`
}

// Frame represents one captured video frame with metadata.
// A frame is owned by a single loop iteration and discarded after
// processing unless it is persisted as an alert snapshot.
type Frame struct {
	Image     image.Image // Decoded raster data
	Timestamp time.Time   // Frame capture timestamp
	Number    uint64      // Sequential frame number
	Source    string      // Source identifier (stream URL or path)
}
