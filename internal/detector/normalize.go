package detector

import "github.com/retailx/theft-monitor/pkg/types"

// rawDetection mirrors the inference service response shape.
type rawDetection struct {
	ClassName  string            `json:"class_name"`
	Confidence float64           `json:"confidence"`
	BBox       types.BoundingBox `json:"bbox"`
}

// Normalize converts raw inference output into the fixed detection
// vocabulary. Records below the confidence threshold, with unknown
// class names, or with degenerate boxes are dropped. Emission order is
// preserved.
func Normalize(raw []rawDetection, threshold float64) []types.Detection {
	detections := make([]types.Detection, 0, len(raw))
	for _, r := range raw {
		if r.Confidence < threshold {
			continue
		}
		if !types.KnownClass(r.ClassName) {
			continue
		}
		if !r.BBox.Valid() {
			continue
		}
		detections = append(detections, types.Detection{
			Class:      types.ClassLabel(r.ClassName),
			Confidence: r.Confidence,
			BBox:       r.BBox,
		})
	}
	return detections
}
