package render

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/signalsfoundry/logistics-globe/core"
)

// GeoJSON exports locations as points and routes as line strings. Route
// vertices are the curve samples projected back onto the globe, so each line
// follows the ground track of the drawn arc.
func GeoJSON(scene core.Scene) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, m := range scene.Markers {
		f := geojson.NewFeature(orb.Point{m.Location.Longitude, m.Location.Latitude})
		f.ID = m.Location.Name
		f.Properties["name"] = m.Location.Name
		f.Properties["role"] = m.Location.Role.String()
		if m.Location.Color != "" {
			f.Properties["color"] = m.Location.Color
		}
		fc.Append(f)
	}

	for _, r := range scene.Routes {
		line := make(orb.LineString, 0, len(r.Samples))
		for _, s := range r.Samples {
			lat, lon := core.Unproject(s.Position)
			line = append(line, orb.Point{lon, lat})
		}
		f := geojson.NewFeature(line)
		f.ID = r.Definition.ID
		f.Properties["from"] = r.Definition.From
		f.Properties["to"] = r.Definition.To
		f.Properties["apexAltitude"] = r.Curve.Midpoint().Norm() - scene.Radius
		fc.Append(f)
	}
	return fc
}
