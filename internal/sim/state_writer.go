package sim

import "raydar-sim/internal/telemetry"

// StateWriter handles scanner state rows.
type StateWriter interface {
	WriteState(telemetry.ScannerStateRow) error
}

// Optional: writers may support batch mode for state rows.
type batchStateWriter interface {
	WriteStates([]telemetry.ScannerStateRow) error
}
