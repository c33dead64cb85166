package radar

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Segment is a directed line segment in display space.
type Segment struct {
	Start r2.Vec
	End   r2.Vec
}

// Length returns the segment length.
func (s Segment) Length() float64 {
	return r2.Norm(r2.Sub(s.End, s.Start))
}

// ClosestPointOnSegment returns the point of s closest to p. The projection
// parameter is clamped to [0, 1] so the result never leaves the segment.
func ClosestPointOnSegment(s Segment, p r2.Vec) r2.Vec {
	d := r2.Sub(s.End, s.Start)
	l2 := r2.Dot(d, d)
	if l2 == 0 {
		return s.Start
	}
	t := r2.Dot(r2.Sub(p, s.Start), d) / l2
	t = math.Max(0, math.Min(1, t))
	return r2.Add(s.Start, r2.Scale(t, d))
}

// SegmentIntersectsDisk reports whether s passes within radius of center.
func SegmentIntersectsDisk(s Segment, center r2.Vec, radius float64) bool {
	closest := ClosestPointOnSegment(s, center)
	return r2.Norm(r2.Sub(center, closest)) <= radius
}

// HeadingVector returns the unit direction for a heading in degrees using
// screen coordinates, where y grows downwards.
func HeadingVector(headingDeg float64) r2.Vec {
	h := headingDeg * math.Pi / 180
	return r2.Vec{X: math.Cos(h), Y: -math.Sin(h)}
}

// NormalizeAngle wraps an angle to [0, 2π).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	// math.Mod of a tiny negative value can round up to exactly 2π.
	if a >= 2*math.Pi {
		a = 0
	}
	return a
}

// AngleDiff returns the shortest angular distance between two angles.
// Result is in [0, π].
func AngleDiff(a, b float64) float64 {
	d := math.Abs(NormalizeAngle(a) - NormalizeAngle(b))
	if d > math.Pi {
		d = 2*math.Pi - d
	}
	return d
}
