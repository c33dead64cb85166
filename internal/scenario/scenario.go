package scenario

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"

	"raydar-sim/internal/radar"
)

// Scenario is a timed sequence of spawn waves.
type Scenario struct {
	Name        string `yaml:"name,omitempty"`
	Description string `yaml:"description,omitempty"`
	Waves       []Wave `yaml:"waves"`
}

// Wave spawns a group of targets once the simulation clock reaches At.
type Wave struct {
	Name    string        `yaml:"name,omitempty"`
	At      time.Duration `yaml:"at"`
	Targets []Target      `yaml:"targets,omitempty"`
	// Random adds this many targets placed by the simulator's random spawner.
	Random int `yaml:"random,omitempty"`
}

// Target places one aircraft relative to the scope so that scenarios work for
// any scan radius. Bearing uses the heading convention (0 east, 90 up the
// screen) and Range is a fraction of the scan radius.
type Target struct {
	Callsign string  `yaml:"callsign,omitempty"`
	Bearing  float64 `yaml:"bearing"`
	Range    float64 `yaml:"range"`
	Heading  float64 `yaml:"heading"`
	Speed    float64 `yaml:"speed"`
}

// Position resolves the target's start point on a scope.
func (t Target) Position(center r2.Vec, radius float64) r2.Vec {
	return r2.Add(center, r2.Scale(t.Range*radius, radar.HeadingVector(t.Bearing)))
}

// Load reads a YAML scenario definition from disk.
func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &s, nil
}

// Resolve returns the built-in scenario called name, or loads name as a file.
func Resolve(name string) (*Scenario, error) {
	if s, ok := BuiltIn()[name]; ok {
		return &s, nil
	}
	return Load(name)
}

// Validate checks wave timing and target placement.
func (s *Scenario) Validate() error {
	var errs []error
	for i, w := range s.Waves {
		if w.At < 0 {
			errs = append(errs, fmt.Errorf("wave %d: negative start time %s", i, w.At))
		}
		if w.Random < 0 {
			errs = append(errs, fmt.Errorf("wave %d: negative random count", i))
		}
		for j, t := range w.Targets {
			if t.Range < 0 || t.Range > 1 {
				errs = append(errs, fmt.Errorf("wave %d target %d: range %v outside [0, 1]", i, j, t.Range))
			}
			if t.Speed < 0 {
				errs = append(errs, fmt.Errorf("wave %d target %d: negative speed", i, j))
			}
		}
	}
	return errors.Join(errs...)
}

// Size returns the number of targets the scenario spawns in total.
func (s *Scenario) Size() int {
	n := 0
	for _, w := range s.Waves {
		n += len(w.Targets) + w.Random
	}
	return n
}

// Schedule releases a scenario's waves in time order.
type Schedule struct {
	waves []Wave
	next  int
}

// NewSchedule orders the waves of s by start time. Waves sharing a start
// time keep their file order.
func NewSchedule(s *Scenario) *Schedule {
	waves := append([]Wave(nil), s.Waves...)
	sort.SliceStable(waves, func(i, j int) bool { return waves[i].At < waves[j].At })
	return &Schedule{waves: waves}
}

// Due returns the waves that became due at or before now and marks them fired.
func (s *Schedule) Due(now time.Duration) []Wave {
	start := s.next
	for s.next < len(s.waves) && s.waves[s.next].At <= now {
		s.next++
	}
	return s.waves[start:s.next]
}

// Remaining returns the number of waves not yet released.
func (s *Schedule) Remaining() int { return len(s.waves) - s.next }
