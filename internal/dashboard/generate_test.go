package dashboard

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"raydar-sim/internal/telemetry"
)

func TestRenderMissingEnv(t *testing.T) {
	t.Setenv("GREPTIMEDB_DATASOURCE_UID", "")
	if err := Render(t.TempDir()); err == nil {
		t.Fatalf("expected error for missing env vars")
	}
}

func TestRenderSuccess(t *testing.T) {
	t.Setenv("GREPTIMEDB_DATASOURCE_UID", "uid1")
	t.Setenv("GREPTIMEDB_DETECTION_TABLE", "custom_hits")

	dir := t.TempDir()
	if err := Render(dir); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(dir, "grafana-radar.json"))
	if err != nil {
		t.Fatalf("read dashboard: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("rendered dashboard is not valid JSON: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, "uid1") {
		t.Fatalf("greptime uid not rendered")
	}
	if !strings.Contains(s, "FROM custom_hits") || !strings.Contains(s, "FROM "+DefaultStateTable) {
		t.Fatalf("table names not rendered")
	}
}

func TestPolarPoints(t *testing.T) {
	rows := []telemetry.DetectionRow{
		{Callsign: "A", Range: 10, Bearing: 0},
		{Callsign: "A", Range: 10, Bearing: 90},
		{Callsign: "B", Range: 5, Bearing: 180},
	}
	pts := PolarPoints(rows)
	if len(pts["A"]) != 2 || len(pts["B"]) != 1 {
		t.Fatalf("unexpected grouping: %v", pts)
	}
	near := func(a, b float64) bool { return a-b < 1e-9 && b-a < 1e-9 }
	if p := pts["A"][1]; !near(p.X, 0) || !near(p.Y, 10) {
		t.Errorf("bearing 90 should point north, got %+v", p)
	}
	if p := pts["B"][0]; !near(p.X, -5) || !near(p.Y, 0) {
		t.Errorf("bearing 180 should point west, got %+v", p)
	}
}

func TestPlotDetections(t *testing.T) {
	if err := PlotDetections(nil, filepath.Join(t.TempDir(), "none.png")); err == nil {
		t.Fatal("expected error for empty input")
	}
	out := filepath.Join(t.TempDir(), "detections.png")
	rows := []telemetry.DetectionRow{
		{SiteID: "s1", Callsign: "A", Range: 100, Bearing: 45},
		{SiteID: "s1", Callsign: "A", Range: 90, Bearing: 47},
		{SiteID: "s1", Callsign: "B", Range: 200, Bearing: 210},
	}
	if err := PlotDetections(rows, out); err != nil {
		t.Fatalf("plot: %v", err)
	}
	info, err := os.Stat(out)
	if err != nil || info.Size() == 0 {
		t.Fatalf("plot not written: %v", err)
	}
}
