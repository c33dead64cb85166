package sim

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"raydar-sim/internal/telemetry"
)

type collectWriter struct{ rows []telemetry.BlipRow }

func (c *collectWriter) Write(r telemetry.BlipRow) error {
	c.rows = append(c.rows, r)
	return nil
}

type batchCollectWriter struct{ batches [][]telemetry.BlipRow }

func (c *batchCollectWriter) Write(r telemetry.BlipRow) error {
	return c.WriteBatch([]telemetry.BlipRow{r})
}

func (c *batchCollectWriter) WriteBatch(rows []telemetry.BlipRow) error {
	c.batches = append(c.batches, rows)
	return nil
}

func encodeRows(t *testing.T, rows []telemetry.BlipRow) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	return &buf
}

func TestReplayLog(t *testing.T) {
	rows := []telemetry.BlipRow{
		{SiteID: "s1", TargetID: "t1", Timestamp: time.Unix(0, 0)},
		{SiteID: "s1", TargetID: "t2", Timestamp: time.Unix(1, 0)},
	}
	cw := &collectWriter{}
	if err := ReplayLog(encodeRows(t, rows), cw, 0); err != nil {
		t.Fatalf("ReplayLog: %v", err)
	}
	if len(cw.rows) != len(rows) {
		t.Fatalf("expected %d rows, got %d", len(rows), len(cw.rows))
	}
	for i, r := range rows {
		if cw.rows[i].TargetID != r.TargetID {
			t.Fatalf("row %d mismatch: %+v vs %+v", i, cw.rows[i], r)
		}
	}
}

func TestReplayLogGroupsReportTicks(t *testing.T) {
	t0, t1 := time.Unix(0, 0), time.Unix(1, 0)
	rows := []telemetry.BlipRow{
		{TargetID: "a", Timestamp: t0},
		{TargetID: "b", Timestamp: t0},
		{TargetID: "a", Timestamp: t1},
	}
	bw := &batchCollectWriter{}
	if err := ReplayLog(encodeRows(t, rows), bw, 0); err != nil {
		t.Fatalf("ReplayLog: %v", err)
	}
	if len(bw.batches) != 2 || len(bw.batches[0]) != 2 || len(bw.batches[1]) != 1 {
		t.Fatalf("unexpected batches: %+v", bw.batches)
	}
	if bw.batches[0][1].TargetID != "b" {
		t.Fatalf("first batch clobbered: %+v", bw.batches[0])
	}
}

func TestReplayLogRejectsGarbage(t *testing.T) {
	if err := ReplayLog(strings.NewReader("{not json"), &collectWriter{}, 0); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestReadDetections(t *testing.T) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, id := range []string{"a", "b", "c"} {
		if err := enc.Encode(telemetry.DetectionRow{TargetID: id}); err != nil {
			t.Fatal(err)
		}
	}
	rows, err := ReadDetections(&buf)
	if err != nil {
		t.Fatalf("ReadDetections: %v", err)
	}
	if len(rows) != 3 || rows[2].TargetID != "c" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}
