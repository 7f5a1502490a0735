//go:build !integration

package web

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"plan-catalog/internal/domain/model"
)

// newTestLogger creates a silent logger for tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

// mockPlanManager answers every call with err, or panics when panicMsg is set.
type mockPlanManager struct {
	err      error
	panicMsg string
}

func (m *mockPlanManager) fail() error {
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	return m.err
}

func (m *mockPlanManager) Create(ctx context.Context, params model.PlanParams) (*model.Plan, error) {
	return nil, m.fail()
}
func (m *mockPlanManager) Get(ctx context.Context, id string) (*model.Plan, error) {
	return nil, m.fail()
}
func (m *mockPlanManager) GetByName(ctx context.Context, name string) (*model.Plan, error) {
	return nil, m.fail()
}
func (m *mockPlanManager) Update(ctx context.Context, id string, params model.PlanParams) (*model.Plan, error) {
	return nil, m.fail()
}
func (m *mockPlanManager) Delete(ctx context.Context, id string) error { return m.fail() }
func (m *mockPlanManager) List(ctx context.Context) ([]*model.Plan, error) {
	return nil, m.fail()
}

// mockLimiter allows the first n calls per key.
type mockLimiter struct {
	mu    sync.Mutex
	n     int
	seen  map[string]int
	err   error
	calls int
}

func (m *mockLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return false, m.err
	}
	if m.seen == nil {
		m.seen = map[string]int{}
	}
	m.seen[key]++
	return m.seen[key] <= limit, nil
}

type mockPinger struct{ err error }

func (m mockPinger) Ping(context.Context) error { return m.err }
