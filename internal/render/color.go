package render

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/signalsfoundry/logistics-globe/core"
	"github.com/signalsfoundry/logistics-globe/model"
)

// RGBA is a colour as four floats in [0, 1], the layout WebGL uniforms take.
type RGBA [4]float32

// Palette is the resolved scene palette.
type Palette struct {
	Route   colorful.Color
	Origin  colorful.Color
	Surface colorful.Color
}

// NewPalette parses the scene's hex colours.
func NewPalette(c core.SceneColors) (Palette, error) {
	var p Palette
	var err error
	if p.Route, err = colorful.Hex(c.Route); err != nil {
		return Palette{}, fmt.Errorf("route colour %q: %w", c.Route, err)
	}
	if p.Origin, err = colorful.Hex(c.Origin); err != nil {
		return Palette{}, fmt.Errorf("origin colour %q: %w", c.Origin, err)
	}
	if p.Surface, err = colorful.Hex(c.Surface); err != nil {
		return Palette{}, fmt.Errorf("surface colour %q: %w", c.Surface, err)
	}
	return p, nil
}

// Marker returns the colour of a location marker. A per-location override
// wins; otherwise destinations use the route colour and the origin its own.
func (p Palette) Marker(loc core.Marker) colorful.Color {
	if loc.Location.Color != "" {
		if c, err := colorful.Hex(loc.Location.Color); err == nil {
			return c
		}
	}
	if loc.Location.Role == model.RoleOrigin {
		return p.Origin
	}
	return p.Route
}

// ToRGBA converts c to float RGBA with the given alpha.
func ToRGBA(c colorful.Color, alpha float64) RGBA {
	c = c.Clamped()
	return RGBA{float32(c.R), float32(c.G), float32(c.B), float32(alpha)}
}

// TrailColor is the colour of a trail vertex at the given intensity: the
// route colour brightened toward white at the comet's head.
func TrailColor(route colorful.Color, intensity float64) colorful.Color {
	const headGlow = 0.35
	if intensity <= 0 {
		return route
	}
	if intensity > 1 {
		intensity = 1
	}
	return route.BlendLab(colorful.Color{R: 1, G: 1, B: 1}, headGlow*intensity*intensity).Clamped()
}
