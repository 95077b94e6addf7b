package core

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"github.com/signalsfoundry/logistics-globe/model"
)

const (
	// GlobeRadius is the sphere radius used by the site's globe, in scene units.
	GlobeRadius = 2.5
	// DefaultArcRadius is the distance from the centre at which route control
	// points are placed. It must stay above GlobeRadius.
	DefaultArcRadius = 3.5

	// textureLongitudeOffset aligns longitude 0 with the texture's horizontal
	// origin. Calibrated against the land-mask texture, not derived.
	textureLongitudeOffset = 90.0
)

// ErrInvalidCoordinate is returned for coordinates that are not finite.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// CartesianPoint is a point in scene space: Y up, sphere centred on the origin.
type CartesianPoint = r3.Vector

// Project maps a latitude/longitude pair (degrees) to a point on a sphere of
// the given radius.
//
// φ is measured from the north pole, θ is the longitude rotated by the
// texture offset; x is mirrored so that east runs the same way as the
// texture's u axis.
func Project(lat, lon, radius float64) CartesianPoint {
	phi := (s1.Angle(90-lat) * s1.Degree).Radians()
	theta := (s1.Angle(lon+textureLongitudeOffset) * s1.Degree).Radians()

	sinPhi := math.Sin(phi)
	return CartesianPoint{
		X: -(radius * sinPhi * math.Cos(theta)),
		Y: radius * math.Cos(phi),
		Z: radius * sinPhi * math.Sin(theta),
	}
}

// ProjectGeoPoint is Project for a model.GeoPoint.
func ProjectGeoPoint(p model.GeoPoint, radius float64) CartesianPoint {
	return Project(p.Latitude, p.Longitude, radius)
}

// Unproject is the inverse of Project. The radius is taken from the point's
// distance to the centre. Longitude is returned in (-180, 180]; at the poles,
// where longitude is undefined, it is 0.
func Unproject(p CartesianPoint) (lat, lon float64) {
	r := p.Norm()
	if r == 0 {
		return 0, 0
	}
	cosPhi := clamp(p.Y/r, -1, 1)
	phi := s1.Angle(math.Acos(cosPhi))
	lat = 90 - phi.Degrees()

	if math.Abs(p.X) < 1e-12 && math.Abs(p.Z) < 1e-12 {
		return lat, 0
	}
	theta := s1.Angle(math.Atan2(p.Z, -p.X))
	return lat, wrapLongitude(theta.Degrees() - textureLongitudeOffset)
}

// NormalizeGeoPoint clamps latitude into [-90, 90] and wraps longitude into
// (-180, 180]. Non-finite values are rejected.
func NormalizeGeoPoint(p model.GeoPoint) (model.GeoPoint, error) {
	for _, v := range []float64{p.Latitude, p.Longitude} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return p, fmt.Errorf("%q (%v, %v): %w", p.Name, p.Latitude, p.Longitude, ErrInvalidCoordinate)
		}
	}

	ll := s2.LatLngFromDegrees(p.Latitude, p.Longitude)
	if ll.IsValid() && p.Longitude != -180 {
		return p, nil
	}
	p.Latitude = clamp(p.Latitude, -90, 90)
	p.Longitude = wrapLongitude(p.Longitude)
	return p, nil
}

// wrapLongitude maps any longitude into (-180, 180].
func wrapLongitude(lon float64) float64 {
	lon = math.Mod(lon, 360)
	if lon > 180 {
		lon -= 360
	} else if lon <= -180 {
		lon += 360
	}
	return lon
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
