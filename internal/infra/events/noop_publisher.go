package events

import (
	"context"

	"github.com/rs/zerolog"
)

var _ Publisher = (*NoopPublisher)(nil)

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct {
	logger *zerolog.Logger
}

func NewNoopPublisher(logger *zerolog.Logger) *NoopPublisher {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &NoopPublisher{logger: logger}
}

func (p *NoopPublisher) Publish(_ context.Context, routingKey string, payload []byte) error {
	p.logger.Trace().Str("routing_key", routingKey).Int("size", len(payload)).Msg("event dropped (no broker)")
	return nil
}

func (p *NoopPublisher) Close() error { return nil }
