// Package resilience guards a PlanRepository with a circuit breaker.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"plan-catalog/internal/domain"
	"plan-catalog/internal/domain/model"
	"plan-catalog/internal/domain/ports/repository"
	"plan-catalog/internal/infra/metrics"
)

// BreakerConfig configures when the breaker trips.
type BreakerConfig struct {
	Name             string
	FailureThreshold uint32
	OpenTimeout      time.Duration
	Interval         time.Duration
}

var _ repository.PlanRepository = (*BreakerRepo)(nil)

// BreakerRepo fails fast with an UnavailableError while the storage breaker
// is open. Only storage-unavailable errors count as failures; validation,
// conflict and not-found outcomes are healthy round trips.
type BreakerRepo struct {
	inner repository.PlanRepository
	cb    *gobreaker.CircuitBreaker[any]
}

func NewBreakerRepo(inner repository.PlanRepository, cfg BreakerConfig, logger *zerolog.Logger) *BreakerRepo {
	if cfg.Name == "" {
		cfg.Name = "plan_store"
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			var gone *callerGoneError
			if errors.As(err, &gone) {
				return true
			}
			return err == nil || !errors.Is(err, domain.ErrStorageUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("storage circuit breaker state changed")
			metrics.SetBreakerState(name, int(to))
		},
	}
	metrics.SetBreakerState(cfg.Name, int(gobreaker.StateClosed))
	return &BreakerRepo{inner: inner, cb: gobreaker.NewCircuitBreaker[any](settings)}
}

// State reports the breaker state, e.g. for /health.
func (b *BreakerRepo) State() gobreaker.State { return b.cb.State() }

// callerGoneError marks a failure caused by the caller's own context ending.
type callerGoneError struct{ err error }

func (e *callerGoneError) Error() string { return e.err.Error() }

func (b *BreakerRepo) execute(ctx context.Context, op string, fn func() (any, error)) (any, error) {
	res, err := b.cb.Execute(func() (any, error) {
		res, err := fn()
		if err != nil && ctx.Err() != nil {
			return res, &callerGoneError{err: err}
		}
		return res, err
	})
	var gone *callerGoneError
	if errors.As(err, &gone) {
		return nil, gone.err
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &domain.UnavailableError{Op: op, Err: err}
	}
	return res, err
}

func (b *BreakerRepo) plan(ctx context.Context, op string, fn func() (*model.Plan, error)) (*model.Plan, error) {
	res, err := b.execute(ctx, op, func() (any, error) { return fn() })
	if err != nil {
		return nil, err
	}
	return res.(*model.Plan), nil
}

func (b *BreakerRepo) Create(ctx context.Context, plan *model.Plan) (*model.Plan, error) {
	return b.plan(ctx, "Create plan", func() (*model.Plan, error) { return b.inner.Create(ctx, plan) })
}

func (b *BreakerRepo) GetByID(ctx context.Context, id string) (*model.Plan, error) {
	return b.plan(ctx, "GetByID plan", func() (*model.Plan, error) { return b.inner.GetByID(ctx, id) })
}

func (b *BreakerRepo) GetByName(ctx context.Context, name string) (*model.Plan, error) {
	return b.plan(ctx, "GetByName plan", func() (*model.Plan, error) { return b.inner.GetByName(ctx, name) })
}

func (b *BreakerRepo) Update(ctx context.Context, id string, plan *model.Plan) (*model.Plan, error) {
	return b.plan(ctx, "Update plan", func() (*model.Plan, error) { return b.inner.Update(ctx, id, plan) })
}

func (b *BreakerRepo) Delete(ctx context.Context, id string) error {
	_, err := b.execute(ctx, "Delete plan", func() (any, error) { return nil, b.inner.Delete(ctx, id) })
	return err
}

func (b *BreakerRepo) List(ctx context.Context) ([]*model.Plan, error) {
	res, err := b.execute(ctx, "List plans", func() (any, error) { return b.inner.List(ctx) })
	if err != nil {
		return nil, err
	}
	return res.([]*model.Plan), nil
}
