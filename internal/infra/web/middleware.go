package web

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/oklog/ulid/v2"

	"plan-catalog/internal/infra/logging"
	red "plan-catalog/internal/infra/redis"
)

const traceHeader = "X-Trace-Id"

// WriteLimiter throttles mutating admin calls.
type WriteLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// traceMiddleware reuses a caller supplied X-Trace-Id or mints a ULID.
func traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(traceHeader)
		if id == "" || len(id) > 64 {
			id = ulid.Make().String()
		}
		w.Header().Set(traceHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.WithTraceID(r.Context(), id)))
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		l := logging.With(r.Context(), s.log)
		ev := l.Debug()
		if ww.Status() >= http.StatusInternalServerError {
			ev = l.Warn()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logging.With(r.Context(), s.log).Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Msg("handler panicked")
				writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authMiddleware admits the configured API key or a JWT carrying the admin scope.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.auth.Configured() {
			s.log.Error().Msg("admin credentials are not configured")
			writeJSON(w, http.StatusForbidden, errorBody{Error: "admin API is disabled"})
			return
		}
		actor, err := s.auth.Authenticate(r)
		if err != nil {
			status := http.StatusUnauthorized
			if errors.Is(err, errNoScope) {
				status = http.StatusForbidden
			}
			writeJSON(w, status, errorBody{Error: err.Error()})
			return
		}
		next.ServeHTTP(w, r.WithContext(logging.WithActor(r.Context(), actor)))
	})
}

// writeLimit applies the per-caller write budget. Limiter failures let the request through.
func (s *Server) writeLimit(next http.Handler) http.Handler {
	if s.limiter == nil || s.writeRate <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := logging.Actor(r.Context())
		ok, err := s.limiter.Allow(r.Context(), red.AdminWriteKey(actor), s.writeRate, time.Minute)
		if err != nil {
			logging.With(r.Context(), s.log).Warn().Err(err).Msg("rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}
		if !ok {
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "too many write requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
