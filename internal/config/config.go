// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Radar defines the scanner geometry and the detection/fade model.
type Radar struct {
	RPM              float64 `yaml:"rpm"`
	Radius           float64 `yaml:"radius"`
	CenterX          float64 `yaml:"center_x"`
	CenterY          float64 `yaml:"center_y"`
	DetectionRadius  float64 `yaml:"detection_radius"`
	FadeRate         float64 `yaml:"fade_rate"`
	DebounceFraction float64 `yaml:"debounce_fraction"`
	RangeRings       int     `yaml:"range_rings"`
}

// TargetSeed places one target at simulation start.
type TargetSeed struct {
	Callsign string  `yaml:"callsign"`
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Heading  float64 `yaml:"heading"`
	Speed    float64 `yaml:"speed"`
}

// Targets defines the tracked population.
type Targets struct {
	Capacity    int          `yaml:"capacity"`
	RandomCount int          `yaml:"random_count"`
	SpeedMin    float64      `yaml:"speed_min"`
	SpeedMax    float64      `yaml:"speed_max"`
	SpeedJitter bool         `yaml:"speed_jitter"`
	Seed        int64        `yaml:"seed"`
	Initial     []TargetSeed `yaml:"initial"`
}

// SimulationConfig is the root configuration for the scanner and its targets
type SimulationConfig struct {
	SiteID         string        `yaml:"site_id"`
	TickInterval   time.Duration `yaml:"tick_interval"`
	ReportInterval time.Duration `yaml:"report_interval"`
	Radar          Radar         `yaml:"radar"`
	Targets        Targets       `yaml:"targets"`
	Scenario       string        `yaml:"scenario"`
}

// Defaults reproduce a 500x500 scope with a 12.5 RPM air surveillance radar.
const (
	DefaultSiteID           = "raydar-01"
	DefaultTickInterval     = 16 * time.Millisecond
	DefaultReportInterval   = time.Second
	DefaultRPM              = 12.5
	DefaultRadius           = 250.0
	DefaultDetectionRadius  = 15.0
	DefaultFadeRate         = 0.2
	DefaultDebounceFraction = 0.25
	DefaultRangeRings       = 4
	DefaultCapacity         = 64
	DefaultSpeedMin         = 10.0
	DefaultSpeedMax         = 40.0
)

// Load loads YAML config, validates it against a CUE schema and decodes it
// over Default, so fields the file sets explicitly keep their value even
// when it is zero. An unset center follows the configured radius. An empty
// cueSchemaPath skips schema validation.
func Load(configPath, cueSchemaPath string) (*SimulationConfig, error) {
	if cueSchemaPath != "" {
		if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	var center struct {
		Radar struct {
			CenterX *float64 `yaml:"center_x"`
			CenterY *float64 `yaml:"center_y"`
		} `yaml:"radar"`
	}
	if err := yaml.Unmarshal(data, &center); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if center.Radar.CenterX == nil {
		cfg.Radar.CenterX = cfg.Radar.Radius
	}
	if center.Radar.CenterY == nil {
		cfg.Radar.CenterY = cfg.Radar.Radius
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *SimulationConfig {
	cfg := &SimulationConfig{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero-valued fields of a configuration built in code.
// Files go through Load, which tells an explicit zero from an absent key.
func (c *SimulationConfig) ApplyDefaults() {
	if c.SiteID == "" {
		c.SiteID = DefaultSiteID
	}
	if c.TickInterval == 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.ReportInterval == 0 {
		c.ReportInterval = DefaultReportInterval
	}
	r := &c.Radar
	if r.RPM == 0 {
		r.RPM = DefaultRPM
	}
	if r.Radius == 0 {
		r.Radius = DefaultRadius
	}
	if r.CenterX == 0 && r.CenterY == 0 {
		r.CenterX, r.CenterY = r.Radius, r.Radius
	}
	if r.DetectionRadius == 0 {
		r.DetectionRadius = DefaultDetectionRadius
	}
	if r.FadeRate == 0 {
		r.FadeRate = DefaultFadeRate
	}
	if r.DebounceFraction == 0 {
		r.DebounceFraction = DefaultDebounceFraction
	}
	if r.RangeRings == 0 {
		r.RangeRings = DefaultRangeRings
	}
	t := &c.Targets
	if t.Capacity == 0 {
		t.Capacity = DefaultCapacity
	}
	if t.SpeedMin == 0 && t.SpeedMax == 0 {
		t.SpeedMin, t.SpeedMax = DefaultSpeedMin, DefaultSpeedMax
	}
}
