package core

import (
	"errors"
	"math"
	"testing"
)

func mustCurve(t *testing.T, start, end CartesianPoint) RouteCurve {
	t.Helper()
	c, err := NewRouteCurve(start, end, GlobeRadius, DefaultArcRadius)
	if err != nil {
		t.Fatalf("NewRouteCurve error: %v", err)
	}
	return c
}

func TestRouteCurveEndpointsAndProgress(t *testing.T) {
	origin := DefaultLocations()[0]
	start := ProjectGeoPoint(origin.GeoPoint, GlobeRadius)
	for _, dest := range DefaultLocations()[1:] {
		end := ProjectGeoPoint(dest.GeoPoint, GlobeRadius)
		samples, err := mustCurve(t, start, end).Sample(DefaultRouteSamples)
		if err != nil {
			t.Fatalf("Sample error: %v", err)
		}
		if len(samples) != DefaultRouteSamples {
			t.Fatalf("len(samples) = %d, want %d", len(samples), DefaultRouteSamples)
		}
		if samples[0].Position != start {
			t.Fatalf("%s: first sample = %v, want %v", dest.Name, samples[0].Position, start)
		}
		if samples[len(samples)-1].Position != end {
			t.Fatalf("%s: last sample = %v, want %v", dest.Name, samples[len(samples)-1].Position, end)
		}
		for i, s := range samples {
			want := float64(i) / float64(DefaultRouteSamples-1)
			if s.Progress != want {
				t.Fatalf("sample %d progress = %v, want %v", i, s.Progress, want)
			}
		}
	}
}

func TestRouteCurveBulgesOutward(t *testing.T) {
	pairs := [][4]float64{
		{35.8617, 104.1954, 37.0902, -95.7129},
		{35.8617, 104.1954, -30.5595, 22.9375},
		{35.8617, 104.1954, -14.2350, -51.9253},
		{0, 0, 0, 1},
		{89, 0, -89, 0},
	}
	for _, p := range pairs {
		c := mustCurve(t, Project(p[0], p[1], GlobeRadius), Project(p[2], p[3], GlobeRadius))
		if got := c.Midpoint().Norm(); !(got > GlobeRadius) {
			t.Fatalf("midpoint of %v lies at %v, want > %v", p, got, GlobeRadius)
		}
		if got := c.Control.Norm(); got < DefaultArcRadius-1e-9 {
			t.Fatalf("control radius = %v, want >= %v", got, DefaultArcRadius)
		}
	}
}

func TestRouteCurveAntipodal(t *testing.T) {
	c := mustCurve(t, Project(0, 0, GlobeRadius), Project(0, 180, GlobeRadius))
	mid := c.Midpoint()
	if math.IsNaN(mid.X) || math.IsNaN(mid.Y) || math.IsNaN(mid.Z) {
		t.Fatalf("antipodal midpoint is NaN: %v", mid)
	}
	if !(mid.Norm() > GlobeRadius) {
		t.Fatalf("antipodal midpoint norm = %v, want > %v", mid.Norm(), GlobeRadius)
	}

	poles := mustCurve(t, Project(90, 0, GlobeRadius), Project(-90, 0, GlobeRadius))
	if !(poles.Midpoint().Norm() > GlobeRadius) {
		t.Fatalf("pole-to-pole midpoint norm = %v", poles.Midpoint().Norm())
	}
}

func TestRouteCurveNearbyKeepsArcRadius(t *testing.T) {
	c := mustCurve(t, Project(35.8617, 104.1954, GlobeRadius), Project(22.3, 114.2, GlobeRadius))
	if got := c.Control.Norm(); math.Abs(got-DefaultArcRadius) > 1e-9 {
		t.Fatalf("control radius = %v, want %v", got, DefaultArcRadius)
	}
}

func TestRouteCurveDeterministic(t *testing.T) {
	start, end := Project(10, 20, GlobeRadius), Project(-40, 150, GlobeRadius)
	a, _ := mustCurve(t, start, end).Sample(50)
	b, _ := mustCurve(t, start, end).Sample(50)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestRouteCurveErrors(t *testing.T) {
	start, end := Project(10, 20, GlobeRadius), Project(-40, 150, GlobeRadius)
	if _, err := NewRouteCurve(start, end, GlobeRadius, GlobeRadius); !errors.Is(err, ErrArcRadius) {
		t.Fatalf("arc == radius err = %v, want ErrArcRadius", err)
	}
	if _, err := NewRouteCurve(start, end, GlobeRadius, math.NaN()); !errors.Is(err, ErrArcRadius) {
		t.Fatalf("NaN arc err = %v, want ErrArcRadius", err)
	}
	if _, err := mustCurve(t, start, end).Sample(1); !errors.Is(err, ErrSampleCount) {
		t.Fatalf("Sample(1) err = %v, want ErrSampleCount", err)
	}
}

// China → USA at radius 2.5, sampled with 50 points.
func TestChinaToUSARoute(t *testing.T) {
	start := Project(35.86, 104.20, 2.5)
	end := Project(37.09, -95.71, 2.5)
	for _, p := range []CartesianPoint{start, end} {
		if math.Abs(p.Norm()-2.5) > 1e-6 {
			t.Fatalf("endpoint norm = %v, want 2.5", p.Norm())
		}
	}

	samples, err := mustCurve(t, start, end).Sample(50)
	if err != nil {
		t.Fatalf("Sample error: %v", err)
	}
	if len(samples) != 50 {
		t.Fatalf("len(samples) = %d, want 50", len(samples))
	}
	if d := samples[0].Position.Distance(start); d > 1e-9 {
		t.Fatalf("sample 0 is %v from origin", d)
	}
	if d := samples[49].Position.Distance(end); d > 1e-9 {
		t.Fatalf("sample 49 is %v from destination", d)
	}
}

// Only the wide routes need a higher control point; Brazil's apex would sit
// inside the sphere at the default arc radius.
func TestDefaultRoutesControlRadius(t *testing.T) {
	locs := DefaultLocations()
	start := ProjectGeoPoint(locs[0].GeoPoint, GlobeRadius)
	keep := map[string]bool{"UK": true, "Australia": true}

	for _, dest := range locs[1:] {
		c := mustCurve(t, start, ProjectGeoPoint(dest.GeoPoint, GlobeRadius))
		radius := c.Control.Norm()
		if keep[dest.Name] {
			if math.Abs(radius-DefaultArcRadius) > 1e-9 {
				t.Fatalf("%s control radius = %v, want %v", dest.Name, radius, DefaultArcRadius)
			}
		} else if radius <= DefaultArcRadius {
			t.Fatalf("%s control radius = %v, want above %v", dest.Name, radius, DefaultArcRadius)
		}
		if apex := c.Midpoint().Norm(); apex < GlobeRadius*(1+apexClearance)-1e-9 {
			t.Fatalf("%s apex radius = %v, want at least %v", dest.Name, apex, GlobeRadius*(1+apexClearance))
		}
	}

	brazil := locs[0]
	for _, l := range locs {
		if l.Name == "Brazil" {
			brazil = l
		}
	}
	end := ProjectGeoPoint(brazil.GeoPoint, GlobeRadius)
	fixed := RouteCurve{Start: start, Control: start.Add(end).Normalize().Mul(DefaultArcRadius), End: end}
	if apex := fixed.Midpoint().Norm(); apex >= GlobeRadius {
		t.Fatalf("Brazil apex at fixed arc radius = %v, want inside the sphere", apex)
	}
}
