package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"raydar-sim/internal/config"
	"raydar-sim/internal/sim"
	"raydar-sim/internal/store"
	"raydar-sim/internal/telemetry"
)

func TestNewWritersPrintOnly(t *testing.T) {
	tw, dw, cleanup, err := newWriters(config.Default(), writerOptions{PrintOnly: true})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	cleanup()
	if _, ok := tw.(*sim.JSONStdoutWriter); !ok {
		t.Fatalf("expected *sim.JSONStdoutWriter, got %T", tw)
	}
	if _, ok := dw.(*sim.JSONStdoutWriter); !ok {
		t.Fatalf("expected *sim.JSONStdoutWriter, got %T", dw)
	}
}

func TestNewWritersGreptimeFallback(t *testing.T) {
	t.Setenv("GREPTIMEDB_ENDPOINT", "")
	tw, _, cleanup, err := newWriters(config.Default(), writerOptions{})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	cleanup()
	if _, ok := tw.(*sim.JSONStdoutWriter); !ok {
		t.Fatalf("expected *sim.JSONStdoutWriter, got %T", tw)
	}
}

func TestNewWritersLogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blips.log")
	tw, dw, cleanup, err := newWriters(config.Default(), writerOptions{PrintOnly: true, LogFile: path})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	defer cleanup()
	if _, ok := tw.(*sim.MultiWriter); !ok {
		t.Fatalf("expected *sim.MultiWriter, got %T", tw)
	}
	row := telemetry.BlipRow{SiteID: "s1", TargetID: "t1", Timestamp: time.Now()}
	if err := tw.Write(row); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := dw.WriteDetection(telemetry.DetectionRow{SiteID: "s1", TargetID: "t1"}); err != nil {
		t.Fatalf("write detection failed: %v", err)
	}
	sw, ok := tw.(sim.StateWriter)
	if !ok {
		t.Fatalf("writer does not implement StateWriter")
	}
	if err := sw.WriteState(telemetry.ScannerStateRow{SiteID: "s1", Targets: 1, Timestamp: time.Now()}); err != nil {
		t.Fatalf("write state failed: %v", err)
	}
	for _, p := range []string{path, path + ".detections", path + ".state"} {
		info, err := os.Stat(p)
		if err != nil {
			t.Fatalf("stat %s failed: %v", p, err)
		}
		if info.Size() == 0 {
			t.Fatalf("expected %s to be non-empty", p)
		}
	}
}

func TestNewWritersDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "raydar.db")
	_, dw, cleanup, err := newWriters(config.Default(), writerOptions{PrintOnly: true, DBPath: dbPath})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	if err := dw.WriteDetection(telemetry.DetectionRow{SiteID: "s1", TargetID: "t1", Callsign: "A"}); err != nil {
		t.Fatalf("write detection failed: %v", err)
	}
	cleanup()

	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer st.Close()
	rows, err := st.Detections(context.Background(), "A", 0)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(rows) != 1 || rows[0].TargetID != "t1" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := config.Default()
	t.Setenv("SITE_ID", "north-ridge")
	t.Setenv("TICK_INTERVAL", "40ms")
	if err := applyEnv(cfg); err != nil {
		t.Fatalf("applyEnv: %v", err)
	}
	if cfg.SiteID != "north-ridge" || cfg.TickInterval != 40*time.Millisecond {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	t.Setenv("TICK_INTERVAL", "soon")
	if err := applyEnv(cfg); err == nil {
		t.Fatal("expected error for invalid TICK_INTERVAL")
	}
}

func TestResolveScenario(t *testing.T) {
	simScenario = ""
	cfg := config.Default()
	sc, err := resolveScenario(cfg)
	if err != nil || sc != nil {
		t.Fatalf("expected no scenario, got %v, %v", sc, err)
	}
	cfg.Scenario = "crossing"
	sc, err = resolveScenario(cfg)
	if err != nil || sc == nil || sc.Name != "crossing" {
		t.Fatalf("expected crossing scenario, got %v, %v", sc, err)
	}
	simScenario = "single-pass"
	defer func() { simScenario = "" }()
	sc, err = resolveScenario(cfg)
	if err != nil || sc.Name != "single-pass" {
		t.Fatalf("flag should win over config, got %v, %v", sc, err)
	}
}
