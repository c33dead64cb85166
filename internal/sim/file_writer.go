package sim

import (
	"encoding/json"
	"errors"
	"io"

	"raydar-sim/internal/telemetry"
)

// FileWriter writes blip, detection and scanner state rows to JSONL files.
// Paths ending in .zst are zstd-compressed.
type FileWriter struct {
	blipFile  io.WriteCloser
	detFile   io.WriteCloser
	stateFile io.WriteCloser
	blipEnc   *json.Encoder
	detEnc    *json.Encoder
	stateEnc  *json.Encoder
}

// NewFileWriter creates a FileWriter. detectionPath or statePath may be empty to skip those logs.
func NewFileWriter(blipPath, detectionPath, statePath string) (*FileWriter, error) {
	bf, err := CreateLog(blipPath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{blipFile: bf, blipEnc: json.NewEncoder(bf)}
	if detectionPath != "" {
		df, err := CreateLog(detectionPath)
		if err != nil {
			fw.Close()
			return nil, err
		}
		fw.detFile = df
		fw.detEnc = json.NewEncoder(df)
	}
	if statePath != "" {
		sf, err := CreateLog(statePath)
		if err != nil {
			fw.Close()
			return nil, err
		}
		fw.stateFile = sf
		fw.stateEnc = json.NewEncoder(sf)
	}
	return fw, nil
}

// Write logs a single blip row.
func (f *FileWriter) Write(row telemetry.BlipRow) error {
	return f.blipEnc.Encode(row)
}

// WriteBatch logs multiple blip rows.
func (f *FileWriter) WriteBatch(rows []telemetry.BlipRow) error {
	for _, r := range rows {
		if err := f.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteDetection logs a single detection row, if enabled.
func (f *FileWriter) WriteDetection(d telemetry.DetectionRow) error {
	if f.detEnc == nil {
		return nil
	}
	return f.detEnc.Encode(d)
}

// WriteDetections logs multiple detection rows.
func (f *FileWriter) WriteDetections(rows []telemetry.DetectionRow) error {
	for _, d := range rows {
		if err := f.WriteDetection(d); err != nil {
			return err
		}
	}
	return nil
}

// WriteState logs a scanner state row, if enabled.
func (f *FileWriter) WriteState(row telemetry.ScannerStateRow) error {
	if f.stateEnc == nil {
		return nil
	}
	return f.stateEnc.Encode(row)
}

// WriteStates logs multiple scanner state rows.
func (f *FileWriter) WriteStates(rows []telemetry.ScannerStateRow) error {
	for _, r := range rows {
		if err := f.WriteState(r); err != nil {
			return err
		}
	}
	return nil
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var errs []error
	for _, file := range []io.WriteCloser{f.blipFile, f.detFile, f.stateFile} {
		if file != nil {
			errs = append(errs, file.Close())
		}
	}
	return errors.Join(errs...)
}
