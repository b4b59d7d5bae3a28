// Package detector wraps the external object detection capability.
package detector

import (
	"context"

	"github.com/retailx/theft-monitor/pkg/types"
)

// Detector produces per-frame detections. The monitor treats this as a
// black box: an error means the frame is processed with zero detections.
type Detector interface {
	Detect(ctx context.Context, frame *types.Frame) ([]types.Detection, error)
}
