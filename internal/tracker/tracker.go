package tracker

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"

	"raydar-sim/internal/radar"
)

// ErrCapacityExceeded is returned when spawning into a full tracker.
var ErrCapacityExceeded = errors.New("tracker: capacity exceeded")

const (
	DefaultCapacity         = 64
	DefaultDebounceFraction = 0.25
)

// Config holds the tunables of the detection and fade model.
type Config struct {
	Capacity        int
	DetectionRadius float64
	// FadeRate is the opacity lost per second since the last detection.
	FadeRate float64
	// DebounceFraction is the minimum spacing between two detections of the
	// same target, as a fraction of the revolution period.
	DebounceFraction float64
	SpeedMin         float64
	SpeedMax         float64
	// SpeedJitter re-samples each target's speed in [SpeedMin, SpeedMax]
	// every tick.
	SpeedJitter bool
}

// Tracker owns the bounded set of targets and is the only writer of their
// display snapshots.
type Tracker struct {
	cfg              Config
	revolutionPeriod time.Duration
	targets          []*Target
	rand             *rand.Rand
}

// New creates a tracker for a sweep with the given revolution period.
// A nil rng is replaced by a time-seeded source.
func New(cfg Config, revolutionPeriod time.Duration, rng *rand.Rand) *Tracker {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.DebounceFraction <= 0 {
		cfg.DebounceFraction = DefaultDebounceFraction
	}
	cfg.DetectionRadius = math.Max(0, cfg.DetectionRadius)
	cfg.FadeRate = math.Max(0, cfg.FadeRate)
	if cfg.SpeedMax < cfg.SpeedMin {
		cfg.SpeedMin, cfg.SpeedMax = cfg.SpeedMax, cfg.SpeedMin
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Tracker{
		cfg:              cfg,
		revolutionPeriod: revolutionPeriod,
		targets:          make([]*Target, 0, cfg.Capacity),
		rand:             rng,
	}
}

// Config returns the effective configuration.
func (t *Tracker) Config() Config { return t.cfg }

// DebounceWindow returns the minimum time between two detections of one target.
func (t *Tracker) DebounceWindow() time.Duration {
	return time.Duration(float64(t.revolutionPeriod) * t.cfg.DebounceFraction)
}

// Len returns the number of tracked targets.
func (t *Tracker) Len() int { return len(t.targets) }

// Cap returns the maximum number of targets.
func (t *Tracker) Cap() int { return t.cfg.Capacity }

// Add spawns a new target at now. The target starts visible and undetected.
func (t *Tracker) Add(spec Spec, now time.Duration) (string, error) {
	if len(t.targets) >= t.cfg.Capacity {
		return "", fmt.Errorf("spawn %q: %w (%d targets)", spec.Callsign, ErrCapacityExceeded, t.cfg.Capacity)
	}
	id := uuid.New().String()
	callsign := spec.Callsign
	if callsign == "" {
		callsign = "TGT" + strings.ToUpper(id[:4])
	}
	t.targets = append(t.targets, &Target{
		ID:              id,
		Callsign:        callsign,
		TruePosition:    spec.Position,
		Heading:         spec.Heading,
		Speed:           spec.Speed,
		DisplayPosition: spec.Position,
		Opacity:         1,
		SpawnedAt:       now,
	})
	return id, nil
}

// Remove drops the target with the given ID, preserving the order of the rest.
func (t *Tracker) Remove(id string) bool {
	for i, tg := range t.targets {
		if tg.ID == id {
			t.targets = append(t.targets[:i], t.targets[i+1:]...)
			return true
		}
	}
	return false
}

// Tick integrates motion, decays opacity and runs sweep detection for every
// target. The ray must belong to the sweep position of this tick. A negative
// dt is treated as zero.
func (t *Tracker) Tick(now, dt time.Duration, ray radar.Segment) []Detection {
	if dt < 0 {
		dt = 0
	}
	secs := dt.Seconds()
	var detections []Detection
	for _, tg := range t.targets {
		t.move(tg, secs)
		tg.Opacity = math.Max(0, tg.Opacity-t.cfg.FadeRate*secs)

		if !radar.SegmentIntersectsDisk(ray, tg.TruePosition, t.cfg.DetectionRadius) {
			continue
		}
		if !t.debounced(tg, now) {
			continue
		}
		tg.DisplayPosition = tg.TruePosition
		tg.Opacity = 1
		tg.LastDetectedAt = now
		tg.Detected = true
		detections = append(detections, Detection{
			TargetID: tg.ID,
			Callsign: tg.Callsign,
			Position: tg.TruePosition,
			Heading:  tg.Heading,
			Speed:    tg.Speed,
			At:       now,
		})
	}
	return detections
}

func (t *Tracker) move(tg *Target, secs float64) {
	if t.cfg.SpeedJitter && t.cfg.SpeedMax > 0 {
		tg.Speed = t.cfg.SpeedMin + t.rand.Float64()*(t.cfg.SpeedMax-t.cfg.SpeedMin)
	}
	step := r2.Scale(tg.Speed*secs, radar.HeadingVector(tg.Heading))
	tg.TruePosition = r2.Add(tg.TruePosition, step)
}

// debounced reports whether enough time has passed since the last detection.
func (t *Tracker) debounced(tg *Target, now time.Duration) bool {
	if !tg.Detected {
		return true
	}
	return now-tg.LastDetectedAt > t.DebounceWindow()
}

// Blips returns the renderable view of every target in spawn order.
func (t *Tracker) Blips() []Blip {
	blips := make([]Blip, len(t.targets))
	for i, tg := range t.targets {
		blips[i] = Blip{
			ID:             tg.ID,
			Callsign:       tg.Callsign,
			Position:       tg.DisplayPosition,
			Heading:        tg.Heading,
			Opacity:        tg.Opacity,
			State:          tg.State(),
			LastDetectedAt: tg.LastDetectedAt,
			Detected:       tg.Detected,
		}
	}
	return blips
}

// Targets returns copies of the full target state, including true positions.
func (t *Tracker) Targets() []Target {
	out := make([]Target, len(t.targets))
	for i, tg := range t.targets {
		out[i] = *tg
	}
	return out
}

// Target returns a copy of the target with the given ID.
func (t *Tracker) Target(id string) (Target, bool) {
	for _, tg := range t.targets {
		if tg.ID == id {
			return *tg, true
		}
	}
	return Target{}, false
}
