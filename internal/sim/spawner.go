package sim

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"raydar-sim/internal/tracker"
)

// TargetSpawner lets interactive writers create and drop targets.
type TargetSpawner interface {
	SetSpawner(func(tracker.Spec) (string, error))
	SetRemover(func(id string) bool)
}

// AttachControls hands the simulator's spawn and remove operations and its
// snapshot source to w if it accepts them.
func (s *Simulator) AttachControls(w any) {
	if sp, ok := w.(TargetSpawner); ok {
		sp.SetSpawner(s.Spawn)
		sp.SetRemover(s.Remove)
	}
	if src, ok := w.(SnapshotSource); ok {
		src.SetSnapshot(s.Snapshot)
	}
}

// randomSpec places a target uniformly inside the scan disk with a random
// heading and a speed within the configured range. The caller holds s.mu.
func (s *Simulator) randomSpec() tracker.Spec {
	radius := s.sweep.Radius()
	r := radius * math.Sqrt(s.rand.Float64())
	theta := s.rand.Float64() * 2 * math.Pi
	pos := r2.Add(s.sweep.Center(), r2.Vec{X: r * math.Cos(theta), Y: r * math.Sin(theta)})

	lo, hi := s.cfg.Targets.SpeedMin, s.cfg.Targets.SpeedMax
	return tracker.Spec{
		Position: pos,
		Heading:  s.rand.Float64() * 360,
		Speed:    lo + s.rand.Float64()*(hi-lo),
	}
}
