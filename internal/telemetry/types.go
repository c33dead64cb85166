// Row types emitted by the simulator to writers
package telemetry

import (
	"os"
	"time"
)

// BlipRow is one target's blip as seen on the scope at a report tick.
// X and Y hold the displayed (last detected) position, TrueX and TrueY the
// actual one. SiteID and TargetID are GreptimeDB tags, Timestamp the time index.
type BlipRow struct {
	SiteID    string    `json:"site_id"`
	TargetID  string    `json:"target_id"`
	Callsign  string    `json:"callsign"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	TrueX     float64   `json:"true_x"`
	TrueY     float64   `json:"true_y"`
	Heading   float64   `json:"heading_deg"`
	Speed     float64   `json:"speed"`
	Opacity   float64   `json:"opacity"`
	State     string    `json:"state"`
	Detected  bool      `json:"detected"`
	Timestamp time.Time `json:"ts"`
}

// BlipTableName holds the table name used when writing blips to GreptimeDB.
// It defaults to "radar_blips" but can be overridden via the
// GREPTIMEDB_TABLE environment variable.
var BlipTableName = func() string {
	if env := os.Getenv("GREPTIMEDB_TABLE"); env != "" {
		return env
	}
	return "radar_blips"
}()

func (BlipRow) TableName() string {
	return BlipTableName
}
