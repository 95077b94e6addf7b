package model

// LocationRole indicates how a location takes part in the route network.
type LocationRole int

const (
	RoleDestination LocationRole = iota
	RoleOrigin                   // every route starts here
)

// String returns the lower-case role name used in scene files and payloads.
func (r LocationRole) String() string {
	switch r {
	case RoleOrigin:
		return "origin"
	default:
		return "destination"
	}
}

// GeoPoint is a named geographic coordinate in degrees.
type GeoPoint struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// Location is a GeoPoint placed on the globe. Locations are defined once at
// startup and never mutated by the animation.
type Location struct {
	GeoPoint

	Role  LocationRole
	Color string // optional hex colour, e.g. "#2dd4bf"; empty uses the scene default
}

// RouteDefinition names an origin→destination pair.
type RouteDefinition struct {
	ID   string
	From string // origin location name
	To   string // destination location name
}

// RouteID builds the canonical identifier for a route between two locations.
func RouteID(from, to string) string {
	return from + "->" + to
}
