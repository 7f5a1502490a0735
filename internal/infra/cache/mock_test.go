package cache

import (
	"context"
	"sync"
	"time"

	"plan-catalog/internal/domain/model"
	"plan-catalog/internal/domain/ports/repository"
	red "plan-catalog/internal/infra/redis"
)

// mockInnerPlanRepo mocks the store the decorator wraps.
type mockInnerPlanRepo struct {
	CreateFunc    func(ctx context.Context, plan *model.Plan) (*model.Plan, error)
	GetByIDFunc   func(ctx context.Context, id string) (*model.Plan, error)
	GetByNameFunc func(ctx context.Context, name string) (*model.Plan, error)
	UpdateFunc    func(ctx context.Context, id string, plan *model.Plan) (*model.Plan, error)
	DeleteFunc    func(ctx context.Context, id string) error
	ListFunc      func(ctx context.Context) ([]*model.Plan, error)
}

var _ repository.PlanRepository = (*mockInnerPlanRepo)(nil)

func (m *mockInnerPlanRepo) Create(ctx context.Context, plan *model.Plan) (*model.Plan, error) {
	return m.CreateFunc(ctx, plan)
}
func (m *mockInnerPlanRepo) GetByID(ctx context.Context, id string) (*model.Plan, error) {
	return m.GetByIDFunc(ctx, id)
}
func (m *mockInnerPlanRepo) GetByName(ctx context.Context, name string) (*model.Plan, error) {
	return m.GetByNameFunc(ctx, name)
}
func (m *mockInnerPlanRepo) Update(ctx context.Context, id string, plan *model.Plan) (*model.Plan, error) {
	return m.UpdateFunc(ctx, id, plan)
}
func (m *mockInnerPlanRepo) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}
func (m *mockInnerPlanRepo) List(ctx context.Context) ([]*model.Plan, error) {
	return m.ListFunc(ctx)
}

// fakeRedis is an in-process key/value store; setting err makes every call fail.
type fakeRedis struct {
	mu      sync.Mutex
	data    map[string]string
	deleted []string
	err     error
}

var _ red.RedisClient = (*fakeRedis)(nil)

func newFakeRedis() *fakeRedis { return &fakeRedis{data: map[string]string{}} }

func (f *fakeRedis) Ping(ctx context.Context) error { return f.err }

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	return nil
}

func (f *fakeRedis) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.data[key]
	if !ok {
		return "", red.Nil
	}
	return v, nil
}

func (f *fakeRedis) Incr(ctx context.Context, key string) (int64, error) { return 0, f.err }

func (f *fakeRedis) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return f.err
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, k := range keys {
		delete(f.data, k)
		f.deleted = append(f.deleted, k)
	}
	return nil
}

func (f *fakeRedis) Close() error { return nil }
