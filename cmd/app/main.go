// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"plan-catalog/internal/app"
	"plan-catalog/internal/config"
	pg "plan-catalog/internal/infra/db/postgres"
	"plan-catalog/internal/infra/logging"
	"plan-catalog/internal/infra/metrics"
	red "plan-catalog/internal/infra/redis"
	"plan-catalog/internal/infra/web"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

const sessionTTL = 12 * time.Hour

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, insecure cookies)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	// ---- Logging & metrics ----
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()
	if cfg.Runtime.Dev {
		logger.Warn().Msg("dev mode enabled")
	}

	// ---- Store, cache, breaker, events ----
	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("bootstrap failed")
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error().Err(err).Msg("close resources")
		}
	}()
	metrics.SetBuildInfo(version, commit, string(a.Store.Driver))

	if a.Store.Pool != nil {
		go pg.ReportPoolStats(ctx, a.Store.Pool, 15*time.Second)
	}

	// ---- HTTP ----
	auth := web.NewAuthManager(cfg.Admin.APIKey, cfg.Admin.JWTSecret, !cfg.Runtime.Dev, "", sessionTTL)
	if !auth.Configured() {
		logger.Warn().Msg("admin credentials not set; plan endpoints will refuse every request")
	}
	opts := []web.Option{web.WithReadiness(a.Store)}
	if a.Redis != nil && cfg.HTTP.WriteRateLimit > 0 {
		opts = append(opts, web.WithWriteLimit(red.NewRateLimiter(a.Redis), cfg.HTTP.WriteRateLimit))
	}
	srv := web.NewServer(a.Plans, auth, logger, opts...)

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           srv.Routes(),
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Str("version", version).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	// ---- Graceful shutdown ----
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown requested")
	case err := <-errc:
		logger.Error().Err(err).Msg("http server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
