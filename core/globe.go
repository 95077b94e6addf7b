package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/signalsfoundry/logistics-globe/internal/logging"
	"github.com/signalsfoundry/logistics-globe/kb"
	"github.com/signalsfoundry/logistics-globe/model"
)

// DefaultRotationSpeed is the idle spin of the globe in radians per second.
const DefaultRotationSpeed = 0.05

// ErrNoOrigin is returned when the location store has no origin location.
var ErrNoOrigin = errors.New("scene has no origin location")

// GlobeConfig controls geometry and animation of a Globe.
type GlobeConfig struct {
	Radius         float64
	ArcRadius      float64
	Samples        int
	SurfaceColumns int
	SurfaceRows    int
	RotationSpeed  float64
	Animation      AnimationConfig

	// Seed drives per-route speed and delay. Zero picks a random seed, which
	// is reported back through Scene.Seed.
	Seed uint64
}

// DefaultGlobeConfig returns the site's globe settings.
func DefaultGlobeConfig() GlobeConfig {
	return GlobeConfig{
		Radius:         GlobeRadius,
		ArcRadius:      DefaultArcRadius,
		Samples:        DefaultRouteSamples,
		SurfaceColumns: DefaultSurfaceColumns,
		SurfaceRows:    DefaultSurfaceRows,
		RotationSpeed:  DefaultRotationSpeed,
		Animation:      DefaultAnimationConfig(),
	}
}

// FrameRecorder receives per-frame statistics. The observability collector
// implements it.
type FrameRecorder interface {
	ObserveFrame(took time.Duration, routes int)
	RecordArrival(routeID string)
}

// Marker is a location placed on the sphere.
type Marker struct {
	Location model.Location
	Position CartesianPoint
}

// Route is the static geometry of one origin→destination flight path.
// Samples must be treated as read-only by callers.
type Route struct {
	Definition model.RouteDefinition
	Curve      RouteCurve
	Samples    []CurveSample
}

// Scene is the static part of the globe: everything that does not change
// from frame to frame.
type Scene struct {
	Radius    float64
	ArcRadius float64
	Seed      uint64
	Origin    Marker
	Markers   []Marker
	Routes    []Route
	Animation AnimationConfig
}

// RouteFrame is the per-frame state of one route.
type RouteFrame struct {
	ID            string
	Head          float64
	Phase         RoutePhase
	Speed         float64
	CycleLength   float64
	MarkerOpacity float64
	HaloScale     float64
	HaloOpacity   float64
}

// FrameSnapshot is an immutable copy of the animation state after a frame.
type FrameSnapshot struct {
	Frame    uint64
	Elapsed  time.Duration
	Rotation float64 // radians about Y, in [0, 2π)
	Pulse    float64 // surface brightness multiplier
	Routes   []RouteFrame
}

// Globe owns the scene geometry and the animation state of every route.
// Frame is the only writer; Snapshot and Scene may be called concurrently.
type Globe struct {
	mu sync.RWMutex

	cfg      GlobeConfig
	store    *kb.LocationStore
	recorder FrameRecorder
	log      logging.Logger
	unsub    func()

	rng     *rand.Rand
	scene   Scene
	surface []SurfacePoint
	states  []RouteAnimationState

	frame    uint64
	elapsed  time.Duration
	rotation float64
}

// GlobeOption customises a Globe.
type GlobeOption func(*Globe)

// WithFrameRecorder attaches a metrics recorder.
func WithFrameRecorder(r FrameRecorder) GlobeOption {
	return func(g *Globe) { g.recorder = r }
}

// WithLogger reports failed store-driven rebuilds to log.
func WithLogger(log logging.Logger) GlobeOption {
	return func(g *Globe) {
		if log != nil {
			g.log = log
		}
	}
}

// WithLandMask builds the surface point cloud from the given mask.
func WithLandMask(m *LandMask) GlobeOption {
	return func(g *Globe) {
		g.surface = BuildSurface(g.cfg.SurfaceColumns, g.cfg.SurfaceRows, g.cfg.Radius, m)
	}
}

// NewGlobe builds the scene from the locations in store. The globe follows
// later store updates, rebuilding routes and restarting their animation.
func NewGlobe(store *kb.LocationStore, cfg GlobeConfig, opts ...GlobeOption) (*Globe, error) {
	cfg.Animation = cfg.Animation.ApplyDefaults()
	if err := cfg.Animation.Validate(); err != nil {
		return nil, err
	}
	if cfg.Radius == 0 {
		cfg.Radius = GlobeRadius
	}
	if cfg.ArcRadius == 0 {
		cfg.ArcRadius = DefaultArcRadius
	}
	if cfg.Samples == 0 {
		cfg.Samples = DefaultRouteSamples
	}
	if cfg.SurfaceColumns == 0 || cfg.SurfaceRows == 0 {
		cfg.SurfaceColumns, cfg.SurfaceRows = DefaultSurfaceColumns, DefaultSurfaceRows
	}
	if cfg.Seed == 0 {
		cfg.Seed = rand.Uint64()
	}

	g := &Globe{
		cfg:   cfg,
		store: store,
		rng:   rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		log:   logging.Noop(),
	}
	g.surface = BuildSurface(cfg.SurfaceColumns, cfg.SurfaceRows, cfg.Radius, nil)
	for _, opt := range opts {
		opt(g)
	}

	if err := g.rebuild(); err != nil {
		return nil, err
	}
	g.unsub = store.Subscribe(func(e kb.Event) {
		// A failed rebuild keeps the previous scene.
		if err := g.Rebuild(); err != nil {
			g.log.Warn(context.Background(), "scene rebuild failed, keeping previous scene",
				logging.String("location", e.Location.Name),
				logging.Err(err),
			)
		}
	})
	return g, nil
}

// Close detaches the globe from its location store.
func (g *Globe) Close() {
	if g.unsub != nil {
		g.unsub()
	}
}

// Rebuild recomputes the scene from the location store and resets the
// animation.
func (g *Globe) Rebuild() error {
	return g.rebuild()
}

func (g *Globe) rebuild() error {
	origin, err := g.store.Origin()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoOrigin, err)
	}

	scene := Scene{
		Radius:    g.cfg.Radius,
		ArcRadius: g.cfg.ArcRadius,
		Seed:      g.cfg.Seed,
		Origin:    Marker{Location: origin, Position: ProjectGeoPoint(origin.GeoPoint, g.cfg.Radius)},
		Animation: g.cfg.Animation,
	}
	for _, loc := range g.store.ListLocations() {
		scene.Markers = append(scene.Markers, Marker{
			Location: loc,
			Position: ProjectGeoPoint(loc.GeoPoint, g.cfg.Radius),
		})
	}

	for _, dest := range g.store.Destinations() {
		end := ProjectGeoPoint(dest.GeoPoint, g.cfg.Radius)
		curve, err := NewRouteCurve(scene.Origin.Position, end, g.cfg.Radius, g.cfg.ArcRadius)
		if err != nil {
			return fmt.Errorf("route to %q: %w", dest.Name, err)
		}
		samples, err := curve.Sample(g.cfg.Samples)
		if err != nil {
			return fmt.Errorf("route to %q: %w", dest.Name, err)
		}
		scene.Routes = append(scene.Routes, Route{
			Definition: model.RouteDefinition{
				ID:   model.RouteID(origin.Name, dest.Name),
				From: origin.Name,
				To:   dest.Name,
			},
			Curve:   curve,
			Samples: samples,
		})
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.scene = scene
	g.resetLocked()
	return nil
}

// Reset restarts every route's animation with freshly drawn speed and delay,
// as when the visualization is mounted again.
func (g *Globe) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetLocked()
}

func (g *Globe) resetLocked() {
	g.states = make([]RouteAnimationState, len(g.scene.Routes))
	for i := range g.states {
		g.states[i] = NewRouteAnimationState(g.rng, g.cfg.Animation)
	}
	g.frame = 0
	g.elapsed = 0
	g.rotation = 0
}

// Frame advances the whole globe by delta and returns the resulting state.
func (g *Globe) Frame(delta time.Duration) FrameSnapshot {
	start := time.Now()
	dt := delta.Seconds()

	g.mu.Lock()
	var arrivals []string
	for i := range g.states {
		if g.states[i].Advance(dt, g.cfg.Animation) {
			arrivals = append(arrivals, g.scene.Routes[i].Definition.ID)
		}
	}
	if dt > 0 {
		g.elapsed += delta
		g.rotation = math.Mod(g.rotation+dt*g.cfg.RotationSpeed, 2*math.Pi)
	}
	g.frame++
	snap := g.snapshotLocked()
	g.mu.Unlock()

	if g.recorder != nil {
		for _, id := range arrivals {
			g.recorder.RecordArrival(id)
		}
		g.recorder.ObserveFrame(time.Since(start), len(snap.Routes))
	}
	return snap
}

// Snapshot returns the state after the most recent frame.
func (g *Globe) Snapshot() FrameSnapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.snapshotLocked()
}

func (g *Globe) snapshotLocked() FrameSnapshot {
	snap := FrameSnapshot{
		Frame:    g.frame,
		Elapsed:  g.elapsed,
		Rotation: g.rotation,
		Pulse:    SurfacePulse(g.elapsed.Seconds()),
		Routes:   make([]RouteFrame, len(g.states)),
	}
	for i := range g.states {
		s := &g.states[i]
		scale, haloOpacity := s.MarkerHalo()
		snap.Routes[i] = RouteFrame{
			ID:            g.scene.Routes[i].Definition.ID,
			Head:          s.Head,
			Phase:         s.Phase(),
			Speed:         s.Speed,
			CycleLength:   s.CycleLength(),
			MarkerOpacity: s.MarkerOpacity,
			HaloScale:     scale,
			HaloOpacity:   haloOpacity,
		}
	}
	return snap
}

// Scene returns the static scene geometry.
func (g *Globe) Scene() Scene {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.scene
}

// Surface returns the visible surface points. The slice is shared.
func (g *Globe) Surface() []SurfacePoint {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.surface
}

// Route returns the geometry of the route with the given ID.
func (g *Globe) Route(id string) (Route, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, r := range g.scene.Routes {
		if r.Definition.ID == id {
			return r, true
		}
	}
	return Route{}, false
}
