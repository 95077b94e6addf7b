package core

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/logistics-globe/kb"
	"github.com/signalsfoundry/logistics-globe/model"
)

// ErrInvalidScene wraps every structural problem found in a scene file.
var ErrInvalidScene = errors.New("invalid scene")

// SceneColors are the hex colours the front end draws with.
type SceneColors struct {
	Route   string `yaml:"route" json:"route"`
	Origin  string `yaml:"origin" json:"origin"`
	Surface string `yaml:"surface" json:"surface"`
}

// DefaultSceneColors returns the site palette.
func DefaultSceneColors() SceneColors {
	return SceneColors{
		Route:   "#2dd4bf",
		Origin:  "#4fd1c5",
		Surface: "#16BC9C",
	}
}

// LoadedScene summarises what LoadScene put into the store.
type LoadedScene struct {
	Config    GlobeConfig
	Colors    SceneColors
	Locations []string
	// Normalized lists locations whose coordinates were clamped or wrapped.
	Normalized []string
}

// DefaultLocations returns the locations shown on the home page globe.
func DefaultLocations() []model.Location {
	return []model.Location{
		{GeoPoint: model.GeoPoint{Name: "China", Latitude: 35.8617, Longitude: 104.1954}, Role: model.RoleOrigin},
		{GeoPoint: model.GeoPoint{Name: "USA", Latitude: 37.0902, Longitude: -95.7129}},
		{GeoPoint: model.GeoPoint{Name: "UK", Latitude: 55.3781, Longitude: -3.4360}},
		{GeoPoint: model.GeoPoint{Name: "Australia", Latitude: -25.2744, Longitude: 133.7751}},
		{GeoPoint: model.GeoPoint{Name: "Brazil", Latitude: -14.2350, Longitude: -51.9253}},
		{GeoPoint: model.GeoPoint{Name: "South Africa", Latitude: -30.5595, Longitude: 22.9375}},
	}
}

// LoadDefaultScene fills store with DefaultLocations.
func LoadDefaultScene(store *kb.LocationStore) (*LoadedScene, error) {
	if store == nil {
		return nil, fmt.Errorf("LoadDefaultScene: store is nil")
	}
	res := &LoadedScene{Config: DefaultGlobeConfig(), Colors: DefaultSceneColors()}
	for _, loc := range DefaultLocations() {
		if err := store.AddLocation(loc); err != nil {
			return nil, err
		}
		res.Locations = append(res.Locations, loc.Name)
	}
	return res, nil
}

// scene file shapes, unexported so the format can evolve.
type sceneYAML struct {
	Radius        float64         `yaml:"radius"`
	ArcRadius     float64         `yaml:"arc_radius"`
	Samples       int             `yaml:"samples"`
	RotationSpeed *float64        `yaml:"rotation_speed"`
	Seed          uint64          `yaml:"seed"`
	Surface       surfaceYAML     `yaml:"surface"`
	Origin        string          `yaml:"origin"`
	Colors        SceneColors     `yaml:"colors"`
	Animation     AnimationConfig `yaml:"animation"`
	Locations     []locationYAML  `yaml:"locations"`
}

type surfaceYAML struct {
	Columns int `yaml:"columns"`
	Rows    int `yaml:"rows"`
}

type locationYAML struct {
	Name  string   `yaml:"name"`
	Lat   *float64 `yaml:"lat"`
	Lon   *float64 `yaml:"lon"`
	Color string   `yaml:"color"`
}

// LoadScene reads a YAML scene from r, registers its locations in store and
// returns the globe configuration it describes. Unset values fall back to
// DefaultGlobeConfig and DefaultSceneColors.
func LoadScene(store *kb.LocationStore, r io.Reader) (*LoadedScene, error) {
	if store == nil {
		return nil, fmt.Errorf("LoadScene: store is nil")
	}

	var payload sceneYAML
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrInvalidScene, err)
	}

	cfg := DefaultGlobeConfig()
	if payload.Radius != 0 {
		cfg.Radius = payload.Radius
	}
	if payload.ArcRadius != 0 {
		cfg.ArcRadius = payload.ArcRadius
	}
	if payload.Samples != 0 {
		cfg.Samples = payload.Samples
	}
	if payload.RotationSpeed != nil {
		cfg.RotationSpeed = *payload.RotationSpeed
	}
	if payload.Surface.Columns != 0 {
		cfg.SurfaceColumns = payload.Surface.Columns
	}
	if payload.Surface.Rows != 0 {
		cfg.SurfaceRows = payload.Surface.Rows
	}
	cfg.Seed = payload.Seed
	cfg.Animation = payload.Animation.ApplyDefaults()

	switch {
	case !(cfg.Radius > 0):
		return nil, fmt.Errorf("%w: radius %v must be positive", ErrInvalidScene, cfg.Radius)
	case !(cfg.ArcRadius > cfg.Radius):
		return nil, fmt.Errorf("%w: arc_radius %v: %w", ErrInvalidScene, cfg.ArcRadius, ErrArcRadius)
	case cfg.Samples < 2:
		return nil, fmt.Errorf("%w: samples %d: %w", ErrInvalidScene, cfg.Samples, ErrSampleCount)
	case cfg.SurfaceColumns < 1 || cfg.SurfaceRows < 1:
		return nil, fmt.Errorf("%w: surface grid %dx%d", ErrInvalidScene, cfg.SurfaceColumns, cfg.SurfaceRows)
	}
	if err := cfg.Animation.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScene, err)
	}

	if len(payload.Locations) == 0 {
		return nil, fmt.Errorf("%w: no locations", ErrInvalidScene)
	}
	originName := strings.TrimSpace(payload.Origin)
	if originName == "" {
		originName = strings.TrimSpace(payload.Locations[0].Name)
	}

	colors := DefaultSceneColors()
	if payload.Colors.Route != "" {
		colors.Route = payload.Colors.Route
	}
	if payload.Colors.Origin != "" {
		colors.Origin = payload.Colors.Origin
	}
	if payload.Colors.Surface != "" {
		colors.Surface = payload.Colors.Surface
	}

	locs := make([]model.Location, 0, len(payload.Locations))
	res := &LoadedScene{Config: cfg, Colors: colors}
	foundOrigin := false
	seen := make(map[string]struct{}, len(payload.Locations))
	for i, l := range payload.Locations {
		name := strings.TrimSpace(l.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: location %d has no name", ErrInvalidScene, i)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: location %q listed twice", ErrInvalidScene, name)
		}
		seen[name] = struct{}{}
		if l.Lat == nil || l.Lon == nil {
			return nil, fmt.Errorf("%w: location %q needs lat and lon", ErrInvalidScene, name)
		}

		raw := model.GeoPoint{Name: name, Latitude: *l.Lat, Longitude: *l.Lon}
		p, err := NormalizeGeoPoint(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidScene, err)
		}
		if p != raw {
			res.Normalized = append(res.Normalized, name)
		}

		loc := model.Location{GeoPoint: p, Color: l.Color}
		if name == originName {
			loc.Role = model.RoleOrigin
			foundOrigin = true
		}
		locs = append(locs, loc)
	}
	if !foundOrigin {
		return nil, fmt.Errorf("%w: origin %q is not a listed location", ErrInvalidScene, originName)
	}

	for _, loc := range locs {
		if err := store.AddLocation(loc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidScene, err)
		}
		res.Locations = append(res.Locations, loc.Name)
	}
	return res, nil
}
