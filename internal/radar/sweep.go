package radar

import (
	"errors"
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r2"
)

// ErrInvalidGeometry is returned when a sweep would have a non-positive or
// non-finite radius or rotation speed, or a non-finite center.
var ErrInvalidGeometry = errors.New("radar: invalid sweep geometry")

// Sweep manages the rotating sweep line state.
//
// The angle decreases over time and is kept in [0, 2π). The ray is drawn at
// -angle, which turns clockwise on a y-down display.
type Sweep struct {
	angle        float64 // radians [0, 2π)
	angularSpeed float64 // radians per second
	radius       float64
	center       r2.Vec
}

// NewSweep creates a sweep at angle 0 rotating at rpm revolutions per minute.
func NewSweep(rpm, radius float64, center r2.Vec) (*Sweep, error) {
	if !positive(rpm) || !validDisk(radius, center) {
		return nil, ErrInvalidGeometry
	}
	return &Sweep{
		angularSpeed: rpm * 2 * math.Pi / 60,
		radius:       radius,
		center:       center,
	}, nil
}

// Advance moves the sweep by the angular distance covered in dt.
// A negative dt is treated as zero.
func (s *Sweep) Advance(dt time.Duration) {
	if dt <= 0 {
		return
	}
	s.angle = NormalizeAngle(s.angle - s.angularSpeed*dt.Seconds())
}

// Ray returns the sweep line from the center to the edge of the range.
func (s *Sweep) Ray() Segment {
	return Segment{
		Start: s.center,
		End: r2.Vec{
			X: s.center.X + s.radius*math.Cos(-s.angle),
			Y: s.center.Y + s.radius*math.Sin(-s.angle),
		},
	}
}

// Resize updates the scan disk geometry. The angle is left untouched.
func (s *Sweep) Resize(radius float64, center r2.Vec) error {
	if !validDisk(radius, center) {
		return ErrInvalidGeometry
	}
	s.radius = radius
	s.center = center
	return nil
}

// Angle returns the current sweep angle in radians.
func (s *Sweep) Angle() float64 { return s.angle }

// Degrees returns the current sweep angle in degrees.
func (s *Sweep) Degrees() float64 {
	return s.angle * 180 / math.Pi
}

// AngularSpeed returns the rotation speed in radians per second.
func (s *Sweep) AngularSpeed() float64 { return s.angularSpeed }

// RevolutionPeriod returns the time of one full rotation.
func (s *Sweep) RevolutionPeriod() time.Duration {
	return time.Duration(2 * math.Pi / s.angularSpeed * float64(time.Second))
}

// Radius returns the scan disk radius.
func (s *Sweep) Radius() float64 { return s.radius }

// Center returns the scan disk center.
func (s *Sweep) Center() r2.Vec { return s.center }

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func positive(v float64) bool { return finite(v) && v > 0 }

func validDisk(radius float64, center r2.Vec) bool {
	return positive(radius) && finite(center.X) && finite(center.Y)
}
