package events

import (
	"bytes"
	"context"
	"time"

	"github.com/rs/zerolog"

	"plan-catalog/internal/infra/metrics"
	"plan-catalog/internal/infra/worker"
)

var _ Publisher = (*AsyncPublisher)(nil)

// AsyncPublisher hands events to a worker pool so a slow broker never holds
// up the write path. Submit failures (queue full, stopped) are returned to
// the caller; broker failures are logged and counted by the worker.
type AsyncPublisher struct {
	inner   Publisher
	pool    *worker.Pool
	timeout time.Duration
	logger  *zerolog.Logger
}

func NewAsyncPublisher(ctx context.Context, inner Publisher, workers int, timeout time.Duration, logger *zerolog.Logger) *AsyncPublisher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	pool := worker.NewPool(workers, workers*64, logger)
	pool.Start(ctx)
	return &AsyncPublisher{inner: inner, pool: pool, timeout: timeout, logger: logger}
}

func (p *AsyncPublisher) Publish(_ context.Context, routingKey string, payload []byte) error {
	body := bytes.Clone(payload)
	return p.pool.Submit(func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
		defer cancel()
		if err := p.inner.Publish(ctx, routingKey, body); err != nil {
			metrics.IncPlanEvent(routingKey, metrics.EventFailed)
			return err
		}
		metrics.IncPlanEvent(routingKey, metrics.EventDelivered)
		return nil
	})
}

// Close drains queued events, then closes the broker connection.
func (p *AsyncPublisher) Close() error {
	p.pool.Stop()
	return p.inner.Close()
}
