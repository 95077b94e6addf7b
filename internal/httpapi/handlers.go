package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/signalsfoundry/logistics-globe/internal/logging"
	"github.com/signalsfoundry/logistics-globe/internal/render"
	"github.com/signalsfoundry/logistics-globe/kb"
	"github.com/signalsfoundry/logistics-globe/model"
)

// LocationResponse is one entry of GET /api/globe/locations.
type LocationResponse struct {
	Name      string  `json:"name"`
	Role      string  `json:"role"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Color     string  `json:"color,omitempty"`
}

// ListLocationsResponse is the body of GET /api/globe/locations.
type ListLocationsResponse struct {
	Locations []LocationResponse `json:"locations"`
	Count     int                `json:"count"`
}

// getScene handles GET /api/globe/scene.
func (s *Server) getScene(w http.ResponseWriter, r *http.Request) {
	payload, err := render.NewScenePayload(s.globe.Scene(), s.opts.Colors, s.opts.RotationSpeed)
	if err != nil {
		s.internalError(w, r, "build scene payload", err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// getFrame handles GET /api/globe/frame. ?trail=1 adds per-vertex trail
// buffers.
func (s *Server) getFrame(w http.ResponseWriter, r *http.Request) {
	trails := false
	if v := r.URL.Query().Get("trail"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, "invalid trail parameter", map[string]any{"trail": v})
			return
		}
		trails = b
	}

	// Scene first: a rebuild between the two calls only leaves trails off.
	scene := s.globe.Scene()
	snap := s.globe.Snapshot()
	writeJSON(w, http.StatusOK, render.NewFramePayload(snap, scene, render.FrameOptions{
		Trails:     trails,
		RouteColor: s.palette.Route,
	}))
}

// getSurface handles GET /api/globe/surface.
func (s *Server) getSurface(w http.ResponseWriter, r *http.Request) {
	payload, err := render.NewSurfacePayload(s.globe.Surface(), s.opts.Colors)
	if err != nil {
		s.internalError(w, r, "build surface payload", err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// getGeoJSON handles GET /api/globe/routes.geojson.
func (s *Server) getGeoJSON(w http.ResponseWriter, r *http.Request) {
	writeJSONType(w, http.StatusOK, "application/geo+json", render.GeoJSON(s.globe.Scene()))
}

// getRoute handles GET /api/globe/routes/{id}.
func (s *Server) getRoute(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	route, ok := s.globe.Route(id)
	if !ok {
		s.writeError(w, r, http.StatusNotFound, "route not found", map[string]any{"id": id})
		return
	}
	writeJSON(w, http.StatusOK, render.NewRouteBuffers(route, s.palette.Route))
}

// listLocations handles GET /api/globe/locations.
func (s *Server) listLocations(w http.ResponseWriter, r *http.Request) {
	locs := s.store.ListLocations()
	resp := ListLocationsResponse{Locations: make([]LocationResponse, 0, len(locs)), Count: len(locs)}
	for _, l := range locs {
		resp.Locations = append(resp.Locations, toLocationResponse(l))
	}
	writeJSON(w, http.StatusOK, resp)
}

// getLocation handles GET /api/globe/locations/{name}.
func (s *Server) getLocation(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	loc, err := s.store.GetLocation(name)
	switch {
	case errors.Is(err, kb.ErrLocationNotFound):
		s.writeError(w, r, http.StatusNotFound, "location not found", map[string]any{"name": name})
		return
	case err != nil:
		s.internalError(w, r, "get location", err)
		return
	}
	writeJSON(w, http.StatusOK, toLocationResponse(loc))
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	log := logging.LoggerFromContext(r.Context())
	if log == nil {
		log = s.log
	}
	log.Error(r.Context(), op+" failed", logging.Err(err))
	s.writeError(w, r, http.StatusInternalServerError, op+" failed", nil)
}

func toLocationResponse(l model.Location) LocationResponse {
	return LocationResponse{
		Name:      l.Name,
		Role:      l.Role.String(),
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
		Color:     l.Color,
	}
}
