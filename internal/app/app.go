// Package app assembles the plan catalog from configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"plan-catalog/internal/config"
	"plan-catalog/internal/domain/ports/repository"
	"plan-catalog/internal/infra/cache"
	"plan-catalog/internal/infra/db"
	"plan-catalog/internal/infra/events"
	"plan-catalog/internal/infra/logging"
	red "plan-catalog/internal/infra/redis"
	"plan-catalog/internal/infra/resilience"
	"plan-catalog/internal/usecase"
)

// App owns every connection opened for the catalog.
type App struct {
	Store     *db.Store
	Plans     *usecase.PlanUseCase
	Repo      repository.PlanRepository
	Redis     red.RedisClient // nil when caching is off
	Publisher events.Publisher
}

// Build opens the store and wraps it as: cache -> breaker -> backend.
// Redis is optional: a failed connection disables caching with a warning.
func Build(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	defer logging.TraceDuration(logger, "app.Build")()

	store, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a := &App{Store: store, Repo: store.Plans}
	logger.Info().Str("driver", string(store.Driver)).Msg("plan store opened")

	if cfg.Breaker.Enabled {
		a.Repo = resilience.NewBreakerRepo(a.Repo, resilience.BreakerConfig{
			Name:             "plan_store_" + string(store.Driver),
			FailureThreshold: cfg.Breaker.FailureThreshold,
			OpenTimeout:      cfg.Breaker.OpenTimeout,
			Interval:         cfg.Breaker.Interval,
		}, logger)
	}

	if cfg.Redis.Enabled() {
		rc, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Str("redis", logging.Redact(cfg.Redis.URL, cfg.Runtime.Dev)).
				Msg("redis unavailable, plan cache disabled")
		} else {
			a.Redis = rc
			a.Repo = cache.NewPlanRepoCache(a.Repo, rc, cfg.Redis.TTL, logger)
		}
	}

	if cfg.AMQP.URL == "" {
		a.Publisher = events.NewNoopPublisher(logger)
	} else {
		pub, err := events.NewRabbitMQPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		logger.Info().Str("amqp", logging.Redact(cfg.AMQP.URL, cfg.Runtime.Dev)).Str("exchange", cfg.AMQP.Exchange).
			Msg("plan events enabled")
		a.Publisher = pub
		if cfg.AMQP.Workers > 0 {
			a.Publisher = events.NewAsyncPublisher(ctx, pub, cfg.AMQP.Workers, cfg.AMQP.PublishTimeout, logger)
		}
	}

	a.Plans = usecase.NewPlanUseCase(a.Repo, a.Publisher, logger)
	return a, nil
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	if a.Publisher != nil {
		errs = append(errs, a.Publisher.Close())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}
