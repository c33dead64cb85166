package telemetry

import "time"

// ScannerStateRow captures the scanner and tracker state at a report tick.
type ScannerStateRow struct {
	SiteID     string    `json:"site_id"`
	AngleDeg   float64   `json:"angle_deg"`
	Radius     float64   `json:"radius"`
	CenterX    float64   `json:"center_x"`
	CenterY    float64   `json:"center_y"`
	RPM        float64   `json:"rpm"`
	Targets    int       `json:"targets"`
	Visible    int       `json:"visible"`
	Detections int       `json:"detections"`
	SimTime    float64   `json:"sim_time_s"`
	Timestamp  time.Time `json:"ts"`
}
