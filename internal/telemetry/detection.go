package telemetry

import "time"

// DetectionRow describes one sweep hit on a target.
type DetectionRow struct {
	SiteID    string    `json:"site_id"`
	TargetID  string    `json:"target_id"`
	Callsign  string    `json:"callsign"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Range     float64   `json:"range"`
	Bearing   float64   `json:"bearing_deg"`
	Heading   float64   `json:"heading_deg"`
	Speed     float64   `json:"speed"`
	SimTime   float64   `json:"sim_time_s"`
	Timestamp time.Time `json:"ts"`
}
