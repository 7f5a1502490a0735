package repository

import (
	"context"

	"plan-catalog/internal/domain/model"
)

// PlanRepository is the port for plan persistence and the single place where
// identity is assigned and name uniqueness is enforced.
//
// Errors: *domain.ValidationError, *domain.ConflictError, domain.ErrNotFound (wrapped),
// *domain.UnavailableError. Implementations never retry.
type PlanRepository interface {
	// Create validates plan, assigns a fresh ID and timestamps, and stores it.
	// A caller-set plan.ID is ignored.
	Create(ctx context.Context, plan *model.Plan) (*model.Plan, error)
	GetByID(ctx context.Context, id string) (*model.Plan, error)
	GetByName(ctx context.Context, name string) (*model.Plan, error)
	// Update replaces every mutable field of the record with the given id.
	// plan.ID and plan.CreatedAt are ignored.
	Update(ctx context.Context, id string, plan *model.Plan) (*model.Plan, error)
	Delete(ctx context.Context, id string) error
	// List returns every plan in insertion order, never nil.
	List(ctx context.Context) ([]*model.Plan, error)
}
