package tracker

import (
	"time"

	"gonum.org/v1/gonum/spatial/r2"
)

// State describes the visibility of a target's blip.
type State string

const (
	StateDark     State = "dark"
	StateDetected State = "detected"
	StateFading   State = "fading"
)

// StateOf maps an opacity onto the blip state machine.
func StateOf(opacity float64) State {
	switch {
	case opacity <= 0:
		return StateDark
	case opacity >= 1:
		return StateDetected
	default:
		return StateFading
	}
}

// Target holds the runtime state of one tracked aircraft.
//
// TruePosition advances every tick. DisplayPosition is a snapshot of
// TruePosition taken at the last detection and is what renderers draw.
type Target struct {
	ID              string
	Callsign        string
	TruePosition    r2.Vec
	Heading         float64 // degrees, fixed for the target's lifetime
	Speed           float64 // display units per second
	DisplayPosition r2.Vec
	Opacity         float64
	LastDetectedAt  time.Duration // simulation time, valid when Detected
	Detected        bool
	SpawnedAt       time.Duration
}

// State returns the target's current blip state.
func (t *Target) State() State { return StateOf(t.Opacity) }

// Spec describes a target to spawn.
type Spec struct {
	Callsign string
	Position r2.Vec
	Heading  float64
	Speed    float64
}

// Blip is the read-only view handed to renderers.
type Blip struct {
	ID             string
	Callsign       string
	Position       r2.Vec // last detected position
	Heading        float64
	Opacity        float64
	State          State
	LastDetectedAt time.Duration
	Detected       bool
}

// Detection records one successful sweep hit.
type Detection struct {
	TargetID string
	Callsign string
	Position r2.Vec
	Heading  float64
	Speed    float64
	At       time.Duration
}
