package usecase

import (
	"context"
	"errors"
	"sync"
)

type published struct {
	key     string
	payload []byte
}

// mockPublisher records every event; setting err makes Publish fail.
type mockPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (m *mockPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, published{key: routingKey, payload: payload})
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func (m *mockPublisher) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.key)
	}
	return out
}

var errBrokerDown = errors.New("broker down")
