package sim

import (
	"raydar-sim/internal/telemetry"
	"raydar-sim/internal/tracker"
)

// MultiWriter fan-outs blip, detection and state rows to multiple writers.
type MultiWriter struct {
	telewriters  []TelemetryWriter
	detwriters   []DetectionWriter
	statewriters []StateWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(tws []TelemetryWriter, dws []DetectionWriter, sws []StateWriter) *MultiWriter {
	return &MultiWriter{telewriters: tws, detwriters: dws, statewriters: sws}
}

// Write sends a blip row to all writers.
func (mw *MultiWriter) Write(row telemetry.BlipRow) error {
	for _, w := range mw.telewriters {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteBatch sends multiple blip rows to all writers, using batch if supported.
func (mw *MultiWriter) WriteBatch(rows []telemetry.BlipRow) error {
	for _, w := range mw.telewriters {
		if bw, ok := w.(batchWriter); ok {
			if err := bw.WriteBatch(rows); err != nil {
				return err
			}
			continue
		}
		for _, r := range rows {
			if err := w.Write(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteDetection sends a detection row to all detection writers.
func (mw *MultiWriter) WriteDetection(row telemetry.DetectionRow) error {
	for _, w := range mw.detwriters {
		if err := w.WriteDetection(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteDetections sends multiple detections to all detection writers, using batch if supported.
func (mw *MultiWriter) WriteDetections(rows []telemetry.DetectionRow) error {
	for _, w := range mw.detwriters {
		if bw, ok := w.(batchDetectionWriter); ok {
			if err := bw.WriteDetections(rows); err != nil {
				return err
			}
			continue
		}
		for _, r := range rows {
			if err := w.WriteDetection(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteState sends a scanner state row to all state writers.
func (mw *MultiWriter) WriteState(row telemetry.ScannerStateRow) error {
	for _, w := range mw.statewriters {
		if err := w.WriteState(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteStates sends multiple state rows to all state writers, using batch if supported.
func (mw *MultiWriter) WriteStates(rows []telemetry.ScannerStateRow) error {
	for _, w := range mw.statewriters {
		if bw, ok := w.(batchStateWriter); ok {
			if err := bw.WriteStates(rows); err != nil {
				return err
			}
			continue
		}
		for _, r := range rows {
			if err := w.WriteState(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// each calls fn once for every distinct underlying writer.
func (mw *MultiWriter) each(fn func(any)) {
	seen := make(map[any]bool)
	visit := func(w any) {
		if !seen[w] {
			seen[w] = true
			fn(w)
		}
	}
	for _, w := range mw.telewriters {
		visit(w)
	}
	for _, w := range mw.detwriters {
		visit(w)
	}
	for _, w := range mw.statewriters {
		visit(w)
	}
}

// SetSpawner forwards the spawn callback to writers that accept it.
func (mw *MultiWriter) SetSpawner(fn func(tracker.Spec) (string, error)) {
	mw.each(func(w any) {
		if sp, ok := w.(TargetSpawner); ok {
			sp.SetSpawner(fn)
		}
	})
}

// SetRemover forwards the remove callback to writers that accept it.
func (mw *MultiWriter) SetRemover(fn func(string) bool) {
	mw.each(func(w any) {
		if sp, ok := w.(TargetSpawner); ok {
			sp.SetRemover(fn)
		}
	})
}

// SetSnapshot forwards the snapshot source to writers that poll it.
func (mw *MultiWriter) SetSnapshot(fn func() Snapshot) {
	mw.each(func(w any) {
		if src, ok := w.(SnapshotSource); ok {
			src.SetSnapshot(fn)
		}
	})
}

// SetAdminStatus forwards the admin UI status to writers that display it.
func (mw *MultiWriter) SetAdminStatus(listening bool) {
	mw.each(func(w any) {
		if aw, ok := w.(AdminStatusWriter); ok {
			aw.SetAdminStatus(listening)
		}
	})
}
