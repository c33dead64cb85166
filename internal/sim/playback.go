package sim

import (
	"encoding/json"
	"errors"
	"io"
	"time"

	"raydar-sim/internal/telemetry"
)

// ReplayLog replays blip rows from r to writer. A speed >0 accelerates playback.
// If speed <= 0, no artificial delay is inserted. Rows sharing a timestamp
// belong to one report tick and are written as a batch when supported.
func ReplayLog(r io.Reader, writer TelemetryWriter, speed float64) error {
	dec := json.NewDecoder(r)
	var (
		prev  time.Time
		batch []telemetry.BlipRow
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		defer func() { batch = nil }()
		if bw, ok := writer.(batchWriter); ok {
			return bw.WriteBatch(batch)
		}
		for _, row := range batch {
			if err := writer.Write(row); err != nil {
				return err
			}
		}
		return nil
	}
	for {
		var row telemetry.BlipRow
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				return flush()
			}
			return err
		}
		if !prev.IsZero() && !row.Timestamp.Equal(prev) {
			if err := flush(); err != nil {
				return err
			}
			if speed > 0 {
				diff := row.Timestamp.Sub(prev)
				if speed != 1 {
					diff = time.Duration(float64(diff) / speed)
				}
				if diff > 0 {
					time.Sleep(diff)
				}
			}
		}
		batch = append(batch, row)
		prev = row.Timestamp
	}
}

// ReplayLogFile opens a file and replays its blip rows.
func ReplayLogFile(path string, writer TelemetryWriter, speed float64) error {
	f, err := OpenLog(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ReplayLog(f, writer, speed)
}

// ReadDetections decodes every detection row of a JSONL log.
func ReadDetections(r io.Reader) ([]telemetry.DetectionRow, error) {
	dec := json.NewDecoder(r)
	var rows []telemetry.DetectionRow
	for {
		var row telemetry.DetectionRow
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				return rows, nil
			}
			return nil, err
		}
		rows = append(rows, row)
	}
}
