// Package memory keeps plans in process memory. It has no native unique
// constraint, so every write runs under one mutex.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"plan-catalog/internal/domain"
	"plan-catalog/internal/domain/model"
	"plan-catalog/internal/domain/ports/repository"
)

var _ repository.PlanRepository = (*PlanRepo)(nil)

type PlanRepo struct {
	mu     sync.RWMutex
	byID   map[string]*model.Plan
	byName map[string]string // name -> id
	order  []string
	now    func() time.Time
	newID  func() string
}

func NewPlanRepo() *PlanRepo {
	return &PlanRepo{
		byID:   make(map[string]*model.Plan),
		byName: make(map[string]string),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func (m *PlanRepo) Create(ctx context.Context, plan *model.Plan) (*model.Plan, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, &domain.UnavailableError{Op: "Create plan", Err: err}
	}
	p, _ := model.NewPlan(plan.Params())

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.byName[p.Name]; taken {
		return nil, &domain.ConflictError{Name: p.Name}
	}
	p.ID = m.newID()
	p.CreatedAt = model.StoreTime(m.now())
	p.UpdatedAt = p.CreatedAt

	m.byID[p.ID] = p
	m.byName[p.Name] = p.ID
	m.order = append(m.order, p.ID)
	return p.Clone(), nil
}

func (m *PlanRepo) GetByID(ctx context.Context, id string) (*model.Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.UnavailableError{Op: "GetByID plan", Err: err}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, domain.NotFound("plan", id)
	}
	return p.Clone(), nil
}

func (m *PlanRepo) GetByName(ctx context.Context, name string) (*model.Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.UnavailableError{Op: "GetByName plan", Err: err}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byName[name]
	if !ok {
		return nil, domain.NotFound("plan", name)
	}
	return m.byID[id].Clone(), nil
}

func (m *PlanRepo) Update(ctx context.Context, id string, plan *model.Plan) (*model.Plan, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, &domain.UnavailableError{Op: "Update plan", Err: err}
	}
	next, _ := model.NewPlan(plan.Params())

	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byID[id]
	if !ok {
		return nil, domain.NotFound("plan", id)
	}
	if holder, taken := m.byName[next.Name]; taken && holder != id {
		return nil, &domain.ConflictError{Name: next.Name}
	}
	next.ID = cur.ID
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = model.StoreTime(m.now())

	delete(m.byName, cur.Name)
	m.byName[next.Name] = id
	m.byID[id] = next
	return next.Clone(), nil
}

func (m *PlanRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return &domain.UnavailableError{Op: "Delete plan", Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return domain.NotFound("plan", id)
	}
	delete(m.byID, id)
	delete(m.byName, p.Name)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *PlanRepo) List(ctx context.Context) ([]*model.Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.UnavailableError{Op: "List plans", Err: err}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Plan, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.byID[id].Clone())
	}
	return out, nil
}
