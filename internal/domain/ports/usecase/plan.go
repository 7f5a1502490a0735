package usecase

import (
	"context"

	"plan-catalog/internal/domain/model"
)

// PlanManager is the plan catalog surface the HTTP API and CLI depend on.
type PlanManager interface {
	Create(ctx context.Context, params model.PlanParams) (*model.Plan, error)
	Get(ctx context.Context, id string) (*model.Plan, error)
	GetByName(ctx context.Context, name string) (*model.Plan, error)
	Update(ctx context.Context, id string, params model.PlanParams) (*model.Plan, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*model.Plan, error)
}
