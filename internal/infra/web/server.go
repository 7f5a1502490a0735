// Package web serves the plan catalog admin API.
package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	ucport "plan-catalog/internal/domain/ports/usecase"
)

// Pinger reports backend readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	plans     ucport.PlanManager
	auth      *AuthManager
	ready     Pinger
	limiter   WriteLimiter
	writeRate int
	log       *zerolog.Logger
}

type Option func(*Server)

// WithReadiness makes /ready ping p.
func WithReadiness(p Pinger) Option { return func(s *Server) { s.ready = p } }

// WithWriteLimit caps mutating calls at perMinute per caller.
func WithWriteLimit(l WriteLimiter, perMinute int) Option {
	return func(s *Server) { s.limiter, s.writeRate = l, perMinute }
}

func NewServer(plans ucport.PlanManager, auth *AuthManager, logger *zerolog.Logger, opts ...Option) *Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	s := &Server{plans: plans, auth: auth, log: logger}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Routes builds the admin router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(traceMiddleware, s.recoverer, s.requestLogger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/ready", s.readiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/admin/auth/login", s.adminLogin)
		r.Post("/admin/auth/logout", s.adminLogout)

		r.Route("/plans", func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/", s.plansList)
			r.Get("/by-name/{name}", s.plansGetByName)
			r.Get("/{id}", s.plansGet)

			r.Group(func(r chi.Router) {
				r.Use(s.writeLimit)
				r.Post("/", s.plansCreate)
				r.Put("/{id}", s.plansUpdate)
				r.Delete("/{id}", s.plansDelete)
			})
		})
	})
	return r
}

func (s *Server) readiness(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready.Ping(r.Context()); err != nil {
			s.log.Warn().Err(err).Msg("readiness check failed")
			writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "storage unavailable"})
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("READY"))
}
