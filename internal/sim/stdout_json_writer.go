package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"raydar-sim/internal/telemetry"
)

// JSONStdoutWriter prints blips, detections and scanner state as JSON to STDOUT.
type JSONStdoutWriter struct {
	out io.Writer
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return &JSONStdoutWriter{out: os.Stdout}
}

func (w *JSONStdoutWriter) emit(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}

// Write outputs a blip row in JSON format.
func (w *JSONStdoutWriter) Write(row telemetry.BlipRow) error { return w.emit(row) }

// WriteBatch outputs multiple blip rows in JSON format.
func (w *JSONStdoutWriter) WriteBatch(rows []telemetry.BlipRow) error {
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteDetection outputs a detection event in JSON format.
func (w *JSONStdoutWriter) WriteDetection(d telemetry.DetectionRow) error { return w.emit(d) }

// WriteDetections outputs multiple detections in JSON format.
func (w *JSONStdoutWriter) WriteDetections(rows []telemetry.DetectionRow) error {
	for _, d := range rows {
		if err := w.WriteDetection(d); err != nil {
			return err
		}
	}
	return nil
}

// WriteState outputs a scanner state row in JSON format.
func (w *JSONStdoutWriter) WriteState(row telemetry.ScannerStateRow) error { return w.emit(row) }
