package render

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"

	"github.com/signalsfoundry/logistics-globe/core"
	"github.com/signalsfoundry/logistics-globe/kb"
)

func newGlobe(t *testing.T) *core.Globe {
	t.Helper()
	store := kb.NewLocationStore()
	if _, err := core.LoadDefaultScene(store); err != nil {
		t.Fatalf("LoadDefaultScene: %v", err)
	}
	cfg := core.DefaultGlobeConfig()
	cfg.Seed = 17
	g, err := core.NewGlobe(store, cfg)
	if err != nil {
		t.Fatalf("NewGlobe: %v", err)
	}
	t.Cleanup(g.Close)
	return g
}

func TestScenePayloadBuffers(t *testing.T) {
	g := newGlobe(t)
	scene := g.Scene()

	p, err := NewScenePayload(scene, core.DefaultSceneColors(), core.DefaultRotationSpeed)
	if err != nil {
		t.Fatalf("NewScenePayload: %v", err)
	}
	if len(p.Markers) != 6 || len(p.Routes) != 5 {
		t.Fatalf("markers=%d routes=%d, want 6 and 5", len(p.Markers), len(p.Routes))
	}
	for _, r := range p.Routes {
		if len(r.Positions) != 3*core.DefaultRouteSamples || len(r.Progress) != core.DefaultRouteSamples {
			t.Fatalf("route %s buffers: %d positions, %d progress", r.ID, len(r.Positions), len(r.Progress))
		}
		if r.Progress[0] != 0 || r.Progress[len(r.Progress)-1] != 1 {
			t.Fatalf("route %s progress runs %v..%v", r.ID, r.Progress[0], r.Progress[len(r.Progress)-1])
		}
	}

	origin := p.Markers[0]
	if origin.Role != "origin" || origin.ColorHex != "#4fd1c5" {
		t.Fatalf("origin marker = %+v", origin)
	}
	if p.Markers[1].ColorHex != "#2dd4bf" {
		t.Fatalf("destination colour = %s, want route colour", p.Markers[1].ColorHex)
	}
	first := p.Routes[0]
	require.InDelta(t, origin.Position[0], first.Positions[0], 1e-6)
	require.InDelta(t, origin.Position[1], first.Positions[1], 1e-6)
	require.InDelta(t, origin.Position[2], first.Positions[2], 1e-6)
}

func TestScenePayloadRejectsBadColour(t *testing.T) {
	g := newGlobe(t)
	colors := core.DefaultSceneColors()
	colors.Route = "teal"
	if _, err := NewScenePayload(g.Scene(), colors, 0); err == nil {
		t.Fatalf("NewScenePayload accepted a non-hex colour")
	}
}

func TestMarkerColourOverride(t *testing.T) {
	palette, err := NewPalette(core.DefaultSceneColors())
	if err != nil {
		t.Fatalf("NewPalette: %v", err)
	}
	m := core.Marker{}
	m.Location.Color = "#ff0000"
	if got := palette.Marker(m).Hex(); got != "#ff0000" {
		t.Fatalf("Marker colour = %s, want override", got)
	}
	m.Location.Color = "not-a-colour"
	if got := palette.Marker(m).Hex(); got != "#2dd4bf" {
		t.Fatalf("Marker colour = %s, want route colour fallback", got)
	}
}

func TestFramePayloadTrails(t *testing.T) {
	g := newGlobe(t)
	snap := g.Frame(500 * time.Millisecond)
	scene := g.Scene()
	palette, _ := NewPalette(core.DefaultSceneColors())

	plain := NewFramePayload(snap, scene, FrameOptions{})
	if plain.Routes[0].Alpha != nil {
		t.Fatalf("trail alpha present without request")
	}
	if plain.Frame != 1 || plain.ElapsedSeconds != 0.5 {
		t.Fatalf("frame=%d elapsed=%v", plain.Frame, plain.ElapsedSeconds)
	}

	withTrail := NewFramePayload(snap, scene, FrameOptions{Trails: true, RouteColor: palette.Route})
	for i, r := range withTrail.Routes {
		if len(r.Alpha) != core.DefaultRouteSamples || len(r.Colors) != 3*core.DefaultRouteSamples {
			t.Fatalf("route %s trail buffers %d/%d", r.ID, len(r.Alpha), len(r.Colors))
		}
		head := snap.Routes[i].Head
		for j, s := range scene.Routes[i].Samples {
			if s.Progress > head && r.Alpha[j] != 0 {
				t.Fatalf("route %s alpha %v ahead of head at t=%v", r.ID, r.Alpha[j], s.Progress)
			}
		}
	}

	if _, err := json.Marshal(withTrail); err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
}

func TestTrailColor(t *testing.T) {
	route, _ := colorful.Hex("#2dd4bf")
	if TrailColor(route, 0) != route {
		t.Fatalf("zero intensity should keep the route colour")
	}
	head := TrailColor(route, 1)
	if !(head.R > route.R && head.G >= route.G-1e-9) {
		t.Fatalf("head colour %v not brighter than %v", head, route)
	}
	if TrailColor(route, 5) != head {
		t.Fatalf("intensity above 1 should clamp")
	}
}

func TestSurfacePayload(t *testing.T) {
	g := newGlobe(t)
	p, err := NewSurfacePayload(g.Surface(), core.DefaultSceneColors())
	if err != nil {
		t.Fatalf("NewSurfacePayload: %v", err)
	}
	want := (core.DefaultSurfaceColumns + 1) * (core.DefaultSurfaceRows + 1)
	if p.Count != want || len(p.Positions) != 3*want || len(p.UVs) != 2*want || len(p.Intensity) != want {
		t.Fatalf("surface payload sizes: count=%d positions=%d uvs=%d", p.Count, len(p.Positions), len(p.UVs))
	}
}

func TestGeoJSON(t *testing.T) {
	g := newGlobe(t)
	fc := GeoJSON(g.Scene())
	if len(fc.Features) != 11 {
		t.Fatalf("features = %d, want 6 points + 5 routes", len(fc.Features))
	}

	china := fc.Features[0]
	pt, ok := china.Geometry.(orb.Point)
	if !ok || china.Properties["role"] != "origin" {
		t.Fatalf("first feature = %+v", china)
	}
	require.InDelta(t, 104.1954, pt.Lon(), 1e-9)

	route := fc.Features[6]
	line, ok := route.Geometry.(orb.LineString)
	if !ok || len(line) != core.DefaultRouteSamples {
		t.Fatalf("route feature geometry = %T with %d points", route.Geometry, len(line))
	}
	require.InDelta(t, 35.8617, line[0].Lat(), 1e-6)
	require.InDelta(t, 104.1954, line[0].Lon(), 1e-6)
	if alt, _ := route.Properties["apexAltitude"].(float64); !(alt > 0) || math.IsNaN(alt) {
		t.Fatalf("apexAltitude = %v, want positive", route.Properties["apexAltitude"])
	}

	raw, err := fc.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if !json.Valid(raw) {
		t.Fatalf("invalid GeoJSON output")
	}
}
