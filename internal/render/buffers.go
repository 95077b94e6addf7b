// Package render turns globe state into the flat payloads a WebGL front end
// uploads as buffer attributes and uniforms.
package render

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/signalsfoundry/logistics-globe/core"
)

// Vec3 is a position in scene space.
type Vec3 [3]float32

func toVec3(p core.CartesianPoint) Vec3 {
	return Vec3{float32(p.X), float32(p.Y), float32(p.Z)}
}

// MarkerPayload is one location marker.
type MarkerPayload struct {
	Name      string  `json:"name"`
	Role      string  `json:"role"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Position  Vec3    `json:"position"`
	Color     RGBA    `json:"color"`
	ColorHex  string  `json:"colorHex"`
}

// RouteBuffers is the static geometry of one route: interleaved xyz
// positions and one progress value per vertex.
type RouteBuffers struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Positions []float32 `json:"positions"`
	Progress  []float32 `json:"progress"`
	Control   Vec3      `json:"control"`
	Color     RGBA      `json:"color"`
}

// ScenePayload is everything a renderer needs once per scene.
type ScenePayload struct {
	Radius        float64              `json:"radius"`
	ArcRadius     float64              `json:"arcRadius"`
	Seed          uint64               `json:"seed"`
	RotationSpeed float64              `json:"rotationSpeed"`
	Animation     core.AnimationConfig `json:"animation"`
	Colors        core.SceneColors     `json:"colors"`
	Markers       []MarkerPayload      `json:"markers"`
	Routes        []RouteBuffers       `json:"routes"`
}

// NewScenePayload flattens the scene into render buffers.
func NewScenePayload(scene core.Scene, colors core.SceneColors, rotationSpeed float64) (ScenePayload, error) {
	palette, err := NewPalette(colors)
	if err != nil {
		return ScenePayload{}, err
	}

	out := ScenePayload{
		Radius:        scene.Radius,
		ArcRadius:     scene.ArcRadius,
		Seed:          scene.Seed,
		RotationSpeed: rotationSpeed,
		Animation:     scene.Animation,
		Colors:        colors,
		Markers:       make([]MarkerPayload, 0, len(scene.Markers)),
		Routes:        make([]RouteBuffers, 0, len(scene.Routes)),
	}
	for _, m := range scene.Markers {
		c := palette.Marker(m)
		out.Markers = append(out.Markers, MarkerPayload{
			Name:      m.Location.Name,
			Role:      m.Location.Role.String(),
			Latitude:  m.Location.Latitude,
			Longitude: m.Location.Longitude,
			Position:  toVec3(m.Position),
			Color:     ToRGBA(c, 1),
			ColorHex:  c.Hex(),
		})
	}
	for _, r := range scene.Routes {
		out.Routes = append(out.Routes, NewRouteBuffers(r, palette.Route))
	}
	return out, nil
}

// NewRouteBuffers flattens one route's samples.
func NewRouteBuffers(r core.Route, color colorful.Color) RouteBuffers {
	b := RouteBuffers{
		ID:        r.Definition.ID,
		From:      r.Definition.From,
		To:        r.Definition.To,
		Positions: make([]float32, 0, 3*len(r.Samples)),
		Progress:  make([]float32, 0, len(r.Samples)),
		Control:   toVec3(r.Curve.Control),
		Color:     ToRGBA(color, 1),
	}
	for _, s := range r.Samples {
		b.Positions = append(b.Positions, float32(s.Position.X), float32(s.Position.Y), float32(s.Position.Z))
		b.Progress = append(b.Progress, float32(s.Progress))
	}
	return b
}

// SurfacePayload is the visible surface point cloud.
type SurfacePayload struct {
	Count     int       `json:"count"`
	Positions []float32 `json:"positions"`
	UVs       []float32 `json:"uvs"`
	Intensity []float32 `json:"intensity"`
	Color     RGBA      `json:"color"`
}

// NewSurfacePayload flattens surface points.
func NewSurfacePayload(points []core.SurfacePoint, colors core.SceneColors) (SurfacePayload, error) {
	palette, err := NewPalette(colors)
	if err != nil {
		return SurfacePayload{}, err
	}
	out := SurfacePayload{
		Count:     len(points),
		Positions: make([]float32, 0, 3*len(points)),
		UVs:       make([]float32, 0, 2*len(points)),
		Intensity: make([]float32, 0, len(points)),
		Color:     ToRGBA(palette.Surface, 1),
	}
	for _, p := range points {
		out.Positions = append(out.Positions, float32(p.Position.X), float32(p.Position.Y), float32(p.Position.Z))
		out.UVs = append(out.UVs, float32(p.U), float32(p.V))
		out.Intensity = append(out.Intensity, float32(p.Intensity))
	}
	return out, nil
}
