// Simulator orchestrating the radar sweep, tracked targets and writers
package sim

import (
	"math/rand"
	"sync"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"raydar-sim/internal/config"
	"raydar-sim/internal/radar"
	"raydar-sim/internal/scenario"
	"raydar-sim/internal/telemetry"
	"raydar-sim/internal/tracker"
)

// TelemetryWriter is an interface to support different output writers.
type TelemetryWriter interface {
	Write(telemetry.BlipRow) error
}

// Optional: Writers can also support batch mode
type batchWriter interface {
	WriteBatch([]telemetry.BlipRow) error
}

// ScannerView is a read-only snapshot of the sweep.
type ScannerView struct {
	Angle      float64       `json:"angle"`
	Degrees    float64       `json:"degrees"`
	Ray        radar.Segment `json:"-"`
	RayEndX    float64       `json:"ray_end_x"`
	RayEndY    float64       `json:"ray_end_y"`
	Radius     float64       `json:"radius"`
	CenterX    float64       `json:"center_x"`
	CenterY    float64       `json:"center_y"`
	RPM        float64       `json:"rpm"`
	Period     time.Duration `json:"period_ns"`
	Elapsed    time.Duration `json:"elapsed_ns"`
	RangeRings int           `json:"range_rings"`
}

// Health summarizes the tracked population.
type Health struct {
	Targets        int     `json:"targets"`
	Capacity       int     `json:"capacity"`
	Dark           int     `json:"dark"`
	Detected       int     `json:"detected"`
	Fading         int     `json:"fading"`
	Detections     int     `json:"detections"`
	PendingWaves   int     `json:"pending_waves"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

// Simulator owns one sweep and one tracker and advances them together.
type Simulator struct {
	siteID          string
	cfg             *config.SimulationConfig
	sweep           *radar.Sweep
	tracker         *tracker.Tracker
	writer          TelemetryWriter
	detectionWriter DetectionWriter
	stateWriter     StateWriter
	tickInterval    time.Duration
	reportInterval  time.Duration
	schedule        *scenario.Schedule
	rand            *rand.Rand
	now             func() time.Time

	elapsed    time.Duration
	lastReport time.Duration
	reported   bool
	detections int
	mu         sync.Mutex
}

// NewSimulator builds the sweep and tracker from cfg and places the initial
// targets. A nil rng is seeded from cfg.Targets.Seed, or from the clock when
// the seed is zero. A nil now defaults to time.Now. If writer also implements
// StateWriter it receives scanner state rows.
func NewSimulator(cfg *config.SimulationConfig, writer TelemetryWriter, dWriter DetectionWriter, rng *rand.Rand, now func() time.Time) (*Simulator, error) {
	if now == nil {
		now = time.Now
	}
	if rng == nil {
		seed := cfg.Targets.Seed
		if seed == 0 {
			seed = now().UnixNano()
		}
		rng = rand.New(rand.NewSource(seed))
	}
	sweep, err := radar.NewSweep(cfg.Radar.RPM, cfg.Radar.Radius, r2.Vec{X: cfg.Radar.CenterX, Y: cfg.Radar.CenterY})
	if err != nil {
		return nil, err
	}
	trk := tracker.New(tracker.Config{
		Capacity:         cfg.Targets.Capacity,
		DetectionRadius:  cfg.Radar.DetectionRadius,
		FadeRate:         cfg.Radar.FadeRate,
		DebounceFraction: cfg.Radar.DebounceFraction,
		SpeedMin:         cfg.Targets.SpeedMin,
		SpeedMax:         cfg.Targets.SpeedMax,
		SpeedJitter:      cfg.Targets.SpeedJitter,
	}, sweep.RevolutionPeriod(), rng)

	s := &Simulator{
		siteID:          cfg.SiteID,
		cfg:             cfg,
		sweep:           sweep,
		tracker:         trk,
		writer:          writer,
		detectionWriter: dWriter,
		tickInterval:    cfg.TickInterval,
		reportInterval:  cfg.ReportInterval,
		rand:            rng,
		now:             now,
	}
	if sw, ok := writer.(StateWriter); ok {
		s.stateWriter = sw
	}

	for _, seed := range cfg.Targets.Initial {
		spec := tracker.Spec{
			Callsign: seed.Callsign,
			Position: r2.Vec{X: seed.X, Y: seed.Y},
			Heading:  seed.Heading,
			Speed:    seed.Speed,
		}
		if _, err := trk.Add(spec, 0); err != nil {
			return nil, err
		}
	}
	for i := 0; i < cfg.Targets.RandomCount; i++ {
		if _, err := trk.Add(s.randomSpec(), 0); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// SetScenario schedules the waves of sc relative to the current clock.
func (s *Simulator) SetScenario(sc *scenario.Scenario) {
	s.mu.Lock()
	defer s.mu.Unlock()
	shifted := *sc
	shifted.Waves = make([]scenario.Wave, len(sc.Waves))
	for i, w := range sc.Waves {
		w.At += s.elapsed
		shifted.Waves[i] = w
	}
	s.schedule = scenario.NewSchedule(&shifted)
}

// SiteID returns the radar site identifier stamped on every row.
func (s *Simulator) SiteID() string { return s.siteID }

// GetConfig returns a copy of the configuration the simulator was built
// from. Geometry changed by Resize is reported by Scanner, not here.
func (s *Simulator) GetConfig() config.SimulationConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.cfg
}

// Elapsed returns the simulation clock.
func (s *Simulator) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

// Resize changes the scan radius and center. The sweep angle and every
// target's opacity and display position are left untouched.
func (s *Simulator) Resize(radius float64, center r2.Vec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweep.Resize(radius, center)
}

// Scanner returns the current sweep geometry.
func (s *Simulator) Scanner() ScannerView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scannerLocked()
}

func (s *Simulator) scannerLocked() ScannerView {
	ray := s.sweep.Ray()
	c := s.sweep.Center()
	return ScannerView{
		Angle:      s.sweep.Angle(),
		Degrees:    s.sweep.Degrees(),
		Ray:        ray,
		RayEndX:    ray.End.X,
		RayEndY:    ray.End.Y,
		Radius:     s.sweep.Radius(),
		CenterX:    c.X,
		CenterY:    c.Y,
		RPM:        s.cfg.Radar.RPM,
		Period:     s.sweep.RevolutionPeriod(),
		Elapsed:    s.elapsed,
		RangeRings: s.cfg.Radar.RangeRings,
	}
}

// Blips returns read-only copies of every target's display state.
func (s *Simulator) Blips() []tracker.Blip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Blips()
}

// Targets returns copies of the full target state including true positions.
func (s *Simulator) Targets() []tracker.Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Targets()
}

// Spawn adds a target at the current simulation time.
func (s *Simulator) Spawn(spec tracker.Spec) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Add(spec, s.elapsed)
}

// SpawnRandom adds n targets placed by the random spawner. It stops at the
// first capacity error and returns the IDs spawned so far.
func (s *Simulator) SpawnRandom(n int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spawnRandomLocked(n)
}

func (s *Simulator) spawnRandomLocked(n int) ([]string, error) {
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id, err := s.tracker.Add(s.randomSpec(), s.elapsed)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Remove drops a target by ID.
func (s *Simulator) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Remove(id)
}

// Health returns counts of targets per blip state.
func (s *Simulator) Health() Health {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := Health{
		Targets:        s.tracker.Len(),
		Capacity:       s.tracker.Cap(),
		Detections:     s.detections,
		ElapsedSeconds: s.elapsed.Seconds(),
	}
	if s.schedule != nil {
		h.PendingWaves = s.schedule.Remaining()
	}
	for _, b := range s.tracker.Blips() {
		switch b.State {
		case tracker.StateDark:
			h.Dark++
		case tracker.StateDetected:
			h.Detected++
		case tracker.StateFading:
			h.Fading++
		}
	}
	return h
}
