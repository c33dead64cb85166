package sim

import "raydar-sim/internal/telemetry"

// DetectionWriter handles sweep detection events.
type DetectionWriter interface {
	WriteDetection(telemetry.DetectionRow) error
}

// Optional: Detection writers may support batch mode.
type batchDetectionWriter interface {
	WriteDetections([]telemetry.DetectionRow) error
}
