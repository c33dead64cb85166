// CUE schema validation code
package config

import (
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/yaml"
)

// SchemaDefinition is the CUE definition configs are checked against.
const SchemaDefinition = "#Simulation"

// ValidateWithCue validates a YAML configuration file using a CUE schema file.
func ValidateWithCue(configFile, cueFile string) error {
	ctx := cuecontext.New()

	// Read CUE schema
	schemaBytes, err := os.ReadFile(cueFile)
	if err != nil {
		return fmt.Errorf("cannot read CUE schema: %w", err)
	}
	schemaVal := ctx.CompileBytes(schemaBytes, cue.Filename(cueFile))
	if schemaVal.Err() != nil {
		return fmt.Errorf("cannot compile CUE schema: %w", schemaVal.Err())
	}
	def := schemaVal.LookupPath(cue.ParsePath(SchemaDefinition))
	if !def.Exists() {
		return fmt.Errorf("CUE schema %s has no %s definition", cueFile, SchemaDefinition)
	}

	// Read YAML config
	yamlBytes, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("cannot read YAML config: %w", err)
	}
	file, err := yaml.Extract(configFile, yamlBytes)
	if err != nil {
		return fmt.Errorf("cannot parse YAML config: %w", err)
	}
	configVal := ctx.BuildFile(file)
	if configVal.Err() != nil {
		return fmt.Errorf("cannot build YAML config: %w", configVal.Err())
	}

	// Merge values with schema
	final := def.Unify(configVal)
	if err := final.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// Validate checks cross-field constraints the schema cannot express.
func (c *SimulationConfig) Validate() error {
	var errs []error
	if c.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval))
	}
	if c.ReportInterval <= 0 {
		errs = append(errs, fmt.Errorf("report_interval must be positive, got %s", c.ReportInterval))
	}
	r := c.Radar
	if r.RPM <= 0 {
		errs = append(errs, fmt.Errorf("radar.rpm must be positive, got %v", r.RPM))
	}
	if r.Radius <= 0 {
		errs = append(errs, fmt.Errorf("radar.radius must be positive, got %v", r.Radius))
	}
	if r.DetectionRadius < 0 {
		errs = append(errs, fmt.Errorf("radar.detection_radius must not be negative, got %v", r.DetectionRadius))
	}
	if r.FadeRate < 0 {
		errs = append(errs, fmt.Errorf("radar.fade_rate must not be negative, got %v", r.FadeRate))
	}
	if r.DebounceFraction <= 0 || r.DebounceFraction > 1 {
		errs = append(errs, fmt.Errorf("radar.debounce_fraction must be in (0, 1], got %v", r.DebounceFraction))
	}
	t := c.Targets
	if t.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("targets.capacity must be positive, got %d", t.Capacity))
	}
	if t.RandomCount < 0 {
		errs = append(errs, fmt.Errorf("targets.random_count must not be negative, got %d", t.RandomCount))
	}
	if n := t.RandomCount + len(t.Initial); n > t.Capacity {
		errs = append(errs, fmt.Errorf("targets: %d initial targets exceed capacity %d", n, t.Capacity))
	}
	if t.SpeedMin < 0 || t.SpeedMax < t.SpeedMin {
		errs = append(errs, fmt.Errorf("targets: invalid speed range [%v, %v]", t.SpeedMin, t.SpeedMax))
	}
	for i, s := range t.Initial {
		if s.Speed < 0 {
			errs = append(errs, fmt.Errorf("targets.initial[%d]: speed must not be negative", i))
		}
	}
	return errors.Join(errs...)
}
