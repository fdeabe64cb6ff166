// Package server exposes the extraction pipeline and the lookup services
// over HTTP.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/celerya/visura-cli/internal/ateco"
	"github.com/celerya/visura-cli/internal/config"
	"github.com/celerya/visura-cli/internal/pipeline"
	"github.com/celerya/visura-cli/internal/seismic"
	"github.com/celerya/visura-cli/internal/store"
)

// Server wires the HTTP handlers to their collaborators. Store, lookup table
// and seismic DB are optional: endpoints that need a missing one answer 503.
type Server struct {
	pipeline *pipeline.Pipeline
	store    store.Store
	lookup   *ateco.Table
	seismic  *seismic.DB
	cfg      config.ServerConfig
	limiter  *rate.Limiter
}

// New creates a Server.
func New(p *pipeline.Pipeline, st store.Store, lookup *ateco.Table, sz *seismic.DB, cfg config.ServerConfig) *Server {
	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 10
	}
	return &Server{
		pipeline: p,
		store:    st,
		lookup:   lookup,
		seismic:  sz,
		cfg:      cfg,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Router builds the chi router with CORS and rate limiting.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins(),
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(s.rateLimit)

	r.Get("/health", s.handleHealth)
	r.Get("/visura/test", s.handleVisuraTest)
	r.Post("/visura/extract", s.handleVisuraExtract)
	r.Get("/lookup", s.handleLookup)
	r.Get("/seismic/zone", s.handleSeismicZone)
	r.Get("/runs", s.handleListRuns)
	r.Get("/runs/{id}", s.handleGetRun)

	return r
}

func (s *Server) corsOrigins() []string {
	if len(s.cfg.CORSOrigins) == 0 {
		return []string{"*"}
	}
	return s.cfg.CORSOrigins
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}
