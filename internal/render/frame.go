package render

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/signalsfoundry/logistics-globe/core"
)

// RouteFramePayload is the per-frame state of one route.
type RouteFramePayload struct {
	ID            string  `json:"id"`
	Head          float64 `json:"head"`
	Phase         string  `json:"phase"`
	CycleLength   float64 `json:"cycleLength"`
	MarkerOpacity float64 `json:"markerOpacity"`
	HaloScale     float64 `json:"haloScale"`
	HaloOpacity   float64 `json:"haloOpacity"`

	// Alpha and Colors are only filled when trails are requested. Colors is
	// interleaved RGB per vertex.
	Alpha  []float32 `json:"alpha,omitempty"`
	Colors []float32 `json:"colors,omitempty"`
}

// FramePayload is one animation frame.
type FramePayload struct {
	Frame          uint64              `json:"frame"`
	ElapsedSeconds float64             `json:"elapsedSeconds"`
	Rotation       float64             `json:"rotation"`
	Pulse          float64             `json:"pulse"`
	Routes         []RouteFramePayload `json:"routes"`
}

// FrameOptions selects optional per-vertex data.
type FrameOptions struct {
	Trails     bool
	RouteColor colorful.Color
}

// NewFramePayload converts a snapshot. scene supplies route samples when
// trail buffers are requested; routes are matched by position, which Globe
// keeps stable between Scene and Snapshot.
func NewFramePayload(snap core.FrameSnapshot, scene core.Scene, opts FrameOptions) FramePayload {
	out := FramePayload{
		Frame:          snap.Frame,
		ElapsedSeconds: snap.Elapsed.Seconds(),
		Rotation:       snap.Rotation,
		Pulse:          snap.Pulse,
		Routes:         make([]RouteFramePayload, 0, len(snap.Routes)),
	}
	for i, r := range snap.Routes {
		rp := RouteFramePayload{
			ID:            r.ID,
			Head:          r.Head,
			Phase:         r.Phase.String(),
			CycleLength:   r.CycleLength,
			MarkerOpacity: r.MarkerOpacity,
			HaloScale:     r.HaloScale,
			HaloOpacity:   r.HaloOpacity,
		}
		if opts.Trails && i < len(scene.Routes) && scene.Routes[i].Definition.ID == r.ID {
			samples := scene.Routes[i].Samples
			rp.Alpha = TrailAlpha(samples, r.Head, scene.Animation.TrailLength)
			rp.Colors = TrailColors(rp.Alpha, opts.RouteColor)
		}
		out.Routes = append(out.Routes, rp)
	}
	return out
}

// TrailAlpha evaluates the comet trail at every sample.
func TrailAlpha(samples []core.CurveSample, head, trail float64) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(core.TrailIntensity(s.Progress, head, trail))
	}
	return out
}

// TrailColors returns interleaved RGB for each alpha value.
func TrailColors(alpha []float32, route colorful.Color) []float32 {
	out := make([]float32, 0, 3*len(alpha))
	for _, a := range alpha {
		c := TrailColor(route, float64(a))
		out = append(out, float32(c.R), float32(c.G), float32(c.B))
	}
	return out
}
