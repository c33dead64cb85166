package sim

import (
	"context"
	"testing"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"

	"raydar-sim/internal/telemetry"
)

type mockGreptimeClient struct {
	table *table.Table
	calls int
}

func (m *mockGreptimeClient) Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error) {
	m.calls++
	if len(tables) > 0 {
		m.table = tables[0]
	}
	return &gpb.GreptimeResponse{}, nil
}

func TestGreptimeWriterBlips(t *testing.T) {
	ts := time.Unix(0, 0).UTC()
	rows := []telemetry.BlipRow{
		{SiteID: "s1", TargetID: "t1", Callsign: "ABC", X: 1, Y: 2, Opacity: 0.75, State: "fading", Detected: true, Timestamp: ts},
		{SiteID: "s1", TargetID: "t2", Callsign: "DEF", Timestamp: ts},
	}
	m := &mockGreptimeClient{}
	w := &GreptimeDBWriter{client: m, table: "radar_blips"}

	if err := w.WriteBatch(rows); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	if m.table == nil {
		t.Fatalf("expected table to be captured")
	}
	got := m.table.GetRows()
	if len(got.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got.Rows))
	}
	schema := got.Schema
	if schema[0].ColumnName != "site_id" || schema[0].SemanticType != gpb.SemanticType_TAG {
		t.Fatalf("unexpected first column: %+v", schema[0])
	}
	last := schema[len(schema)-1]
	if last.ColumnName != "ts" || last.SemanticType != gpb.SemanticType_TIMESTAMP {
		t.Fatalf("unexpected time index: %+v", last)
	}
	if v := got.Rows[0].Values[2].GetStringValue(); v != "ABC" {
		t.Fatalf("callsign = %s, want ABC", v)
	}
	if v := got.Rows[0].Values[9].GetF64Value(); v != 0.75 {
		t.Fatalf("opacity = %v, want 0.75", v)
	}
	if v := got.Rows[0].Values[11].GetBoolValue(); !v {
		t.Fatal("detected = false, want true")
	}
}

func TestGreptimeWriterDetections(t *testing.T) {
	m := &mockGreptimeClient{}
	w := &GreptimeDBWriter{client: m, detectionTable: "radar_detections"}
	if err := w.WriteDetection(telemetry.DetectionRow{SiteID: "s1", TargetID: "t1", Range: 120, Timestamp: time.Unix(0, 0)}); err != nil {
		t.Fatalf("WriteDetection: %v", err)
	}
	if v := m.table.GetRows().Rows[0].Values[5].GetF64Value(); v != 120 {
		t.Fatalf("range = %v, want 120", v)
	}
}

func TestGreptimeWriterStates(t *testing.T) {
	m := &mockGreptimeClient{}
	w := &GreptimeDBWriter{client: m, stateTable: "radar_scanner_state"}
	if err := w.WriteState(telemetry.ScannerStateRow{SiteID: "s1", Targets: 7, Timestamp: time.Unix(0, 0)}); err != nil {
		t.Fatalf("WriteState: %v", err)
	}
	if v := m.table.GetRows().Rows[0].Values[6].GetI64Value(); v != 7 {
		t.Fatalf("targets = %v, want 7", v)
	}
}

func TestGreptimeWriterSkipsEmptyBatches(t *testing.T) {
	m := &mockGreptimeClient{}
	w := &GreptimeDBWriter{client: m}
	if err := w.WriteBatch(nil); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteDetections(nil); err != nil {
		t.Fatal(err)
	}
	if m.calls != 0 {
		t.Fatalf("expected no writes, got %d", m.calls)
	}
}

func TestSplitEndpoint(t *testing.T) {
	host, port, err := splitEndpoint("db.local:4101")
	if err != nil || host != "db.local" || port != 4101 {
		t.Fatalf("splitEndpoint = %s, %d, %v", host, port, err)
	}
	host, port, err = splitEndpoint("db.local")
	if err != nil || host != "db.local" || port != defaultGreptimePort {
		t.Fatalf("splitEndpoint without port = %s, %d, %v", host, port, err)
	}
}
