package core

import (
	"errors"
	"fmt"
)

const (
	// DefaultRouteSamples is the number of points each route line is drawn with.
	DefaultRouteSamples = 50

	// apexClearance is the minimum height of a route's apex above the
	// surface, as a fraction of the sphere radius.
	apexClearance = 0.05
)

var (
	// ErrArcRadius is returned when a route's arc would not clear the sphere.
	ErrArcRadius = errors.New("arc radius must exceed sphere radius")
	// ErrSampleCount is returned when fewer than two samples are requested.
	ErrSampleCount = errors.New("route needs at least two samples")
)

// RouteCurve is a quadratic Bézier arc between two points on the sphere.
type RouteCurve struct {
	Start   CartesianPoint
	Control CartesianPoint
	End     CartesianPoint
}

// CurveSample is a point on a route tagged with its progress t ∈ [0,1].
type CurveSample struct {
	Position CartesianPoint
	Progress float64
}

// NewRouteCurve builds the arc from start to end, both on the sphere of
// sphereRadius. The control point is the normalised midpoint of the endpoints
// pushed out to arcRadius, which must be larger than sphereRadius so the arc
// bulges away from the surface. For widely separated endpoints the control
// point is pushed further out until the apex clears the sphere.
func NewRouteCurve(start, end CartesianPoint, sphereRadius, arcRadius float64) (RouteCurve, error) {
	if !(arcRadius > sphereRadius) {
		return RouteCurve{}, fmt.Errorf("arc radius %v, sphere radius %v: %w", arcRadius, sphereRadius, ErrArcRadius)
	}

	dir := start.Add(end).Mul(0.5)

	// The apex (t = 0.5) sits halfway between the chord midpoint and the
	// control point.
	controlRadius := arcRadius
	if need := 2*sphereRadius*(1+apexClearance) - dir.Norm(); need > controlRadius {
		controlRadius = need
	}

	if dir.Norm() < 1e-9*sphereRadius {
		// Antipodal endpoints: the midpoint is the centre. Arc over the pole
		// unless the endpoints are the poles themselves.
		dir = CartesianPoint{Y: 1}
		if axis := start.Normalize(); axis.Cross(dir).Norm() < 1e-9 {
			dir = CartesianPoint{X: 1}
		}
	}

	return RouteCurve{
		Start:   start,
		Control: dir.Normalize().Mul(controlRadius),
		End:     end,
	}, nil
}

// At evaluates the curve at t ∈ [0,1].
func (c RouteCurve) At(t float64) CartesianPoint {
	mt := 1 - t
	return c.Start.Mul(mt * mt).
		Add(c.Control.Mul(2 * mt * t)).
		Add(c.End.Mul(t * t))
}

// Sample returns n points evenly spaced in curve-parameter space. The first
// sample is exactly Start and the last exactly End.
func (c RouteCurve) Sample(n int) ([]CurveSample, error) {
	if n < 2 {
		return nil, fmt.Errorf("sample %d points: %w", n, ErrSampleCount)
	}
	samples := make([]CurveSample, n)
	last := float64(n - 1)
	for i := range samples {
		t := float64(i) / last
		samples[i] = CurveSample{Position: c.At(t), Progress: t}
	}
	samples[0].Position = c.Start
	samples[n-1].Position = c.End
	return samples, nil
}

// Midpoint returns the curve's apex at t = 0.5.
func (c RouteCurve) Midpoint() CartesianPoint {
	return c.At(0.5)
}
