// Package httpapi serves the globe scene, frames and exports over HTTP/JSON.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/signalsfoundry/logistics-globe/core"
	"github.com/signalsfoundry/logistics-globe/internal/logging"
	"github.com/signalsfoundry/logistics-globe/internal/observability"
	"github.com/signalsfoundry/logistics-globe/internal/render"
	"github.com/signalsfoundry/logistics-globe/kb"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// Options configures a Server.
type Options struct {
	Colors        core.SceneColors
	RotationSpeed float64
	CORSOrigins   []string
	Metrics       *observability.GlobeCollector
	Logger        logging.Logger
}

// Server exposes a Globe over HTTP.
type Server struct {
	globe   *core.Globe
	store   *kb.LocationStore
	opts    Options
	palette render.Palette
	log     logging.Logger
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error     string         `json:"error"`
	RequestID string         `json:"requestId,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// New validates the palette and returns a Server.
func New(globe *core.Globe, store *kb.LocationStore, opts Options) (*Server, error) {
	if globe == nil || store == nil {
		return nil, errors.New("httpapi: globe and store are required")
	}
	if opts.Colors == (core.SceneColors{}) {
		opts.Colors = core.DefaultSceneColors()
	}
	palette, err := render.NewPalette(opts.Colors)
	if err != nil {
		return nil, err
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	log := opts.Logger
	if log == nil {
		log = logging.Noop()
	}
	return &Server{globe: globe, store: store, opts: opts, palette: palette, log: log}, nil
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(middleware.Recoverer)
	if s.opts.Metrics != nil {
		r.Use(s.opts.Metrics.HTTPMiddleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.health)
	r.Route("/api/globe", func(r chi.Router) {
		r.Get("/scene", s.getScene)
		r.Get("/frame", s.getFrame)
		r.Get("/surface", s.getSurface)
		r.Get("/routes.geojson", s.getGeoJSON)
		r.Get("/routes/{id}", s.getRoute)
		r.Get("/locations", s.listLocations)
		r.Get("/locations/{name}", s.getLocation)
	})
	if s.opts.Metrics != nil {
		r.Handle("/metrics", s.opts.Metrics.Handler())
	}
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusNotFound, "not found", nil)
	})
	return r
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := r.Header.Get(RequestIDHeader); id != "" {
			ctx = logging.ContextWithRequestID(ctx, id)
		}
		ctx, log := logging.WithRequestLogger(ctx, s.log)
		ctx = logging.ContextWithLogger(ctx, log)
		w.Header().Set(RequestIDHeader, logging.RequestIDFromContext(ctx))

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		log.Debug(ctx, "http request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Duration("took", time.Since(start)),
		)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	snap := s.globe.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"frame":     snap.Frame,
		"routes":    len(snap.Routes),
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, code int, msg string, details map[string]any) {
	writeJSON(w, code, ErrorResponse{
		Error:     msg,
		RequestID: logging.RequestIDFromContext(r.Context()),
		Details:   details,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	writeJSONType(w, code, "application/json", v)
}

func writeJSONType(w http.ResponseWriter, code int, contentType string, v any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
