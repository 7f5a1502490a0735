package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"plan-catalog/internal/domain"
	"plan-catalog/internal/domain/model"
	"plan-catalog/internal/domain/ports/repository"
	ucport "plan-catalog/internal/domain/ports/usecase"
	"plan-catalog/internal/infra/events"
	"plan-catalog/internal/infra/logging"
	"plan-catalog/internal/infra/metrics"
)

var _ ucport.PlanManager = (*PlanUseCase)(nil)

// PlanUseCase manages the plan catalog: it builds entities, delegates to the
// store and announces committed changes.
type PlanUseCase struct {
	repo      repository.PlanRepository
	publisher events.Publisher
	logger    *zerolog.Logger
	now       func() time.Time
}

// NewPlanUseCase constructs a PlanUseCase. A nil publisher drops events.
func NewPlanUseCase(repo repository.PlanRepository, publisher events.Publisher, logger *zerolog.Logger) *PlanUseCase {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if publisher == nil {
		publisher = events.NewNoopPublisher(logger)
	}
	l := logger.With().Str("component", "PlanUseCase").Logger()
	return &PlanUseCase{repo: repo, publisher: publisher, logger: &l, now: time.Now}
}

// Create validates params and stores a new plan.
func (uc *PlanUseCase) Create(ctx context.Context, params model.PlanParams) (p *model.Plan, err error) {
	defer uc.observe(ctx, "create", time.Now(), &err)

	plan, err := model.NewPlan(params)
	if err != nil {
		return nil, err
	}
	p, err = uc.repo.Create(ctx, plan)
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, events.PlanCreated, p)
	return p, nil
}

// Get retrieves a plan by ID.
func (uc *PlanUseCase) Get(ctx context.Context, id string) (p *model.Plan, err error) {
	defer uc.observe(ctx, "get", time.Now(), &err)
	return uc.repo.GetByID(ctx, id)
}

// GetByName retrieves a plan by its exact name.
func (uc *PlanUseCase) GetByName(ctx context.Context, name string) (p *model.Plan, err error) {
	defer uc.observe(ctx, "get_by_name", time.Now(), &err)
	return uc.repo.GetByName(ctx, name)
}

// Update replaces every mutable field of plan id.
func (uc *PlanUseCase) Update(ctx context.Context, id string, params model.PlanParams) (p *model.Plan, err error) {
	ctx = logging.WithPlanID(ctx, id)
	defer uc.observe(ctx, "update", time.Now(), &err)

	plan, err := model.NewPlan(params)
	if err != nil {
		return nil, err
	}
	p, err = uc.repo.Update(ctx, id, plan)
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, events.PlanUpdated, p)
	return p, nil
}

// Delete removes plan id. The plan is read first so the event can name it.
func (uc *PlanUseCase) Delete(ctx context.Context, id string) (err error) {
	ctx = logging.WithPlanID(ctx, id)
	defer uc.observe(ctx, "delete", time.Now(), &err)

	p, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err = uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.publish(ctx, events.PlanDeleted, p)
	return nil
}

// List returns all plans in insertion order.
func (uc *PlanUseCase) List(ctx context.Context) (plans []*model.Plan, err error) {
	defer uc.observe(ctx, "list", time.Now(), &err)
	return uc.repo.List(ctx)
}

// SeedResult reports what Seed did per plan name.
type SeedResult struct {
	Created []*model.Plan `json:"created"`
	Skipped []string      `json:"skipped"`
}

// Seed creates each plan whose name is not taken yet. Existing plans are left alone.
func (uc *PlanUseCase) Seed(ctx context.Context, catalog []model.PlanParams) (*SeedResult, error) {
	res := &SeedResult{}
	for _, params := range catalog {
		p, err := uc.Create(ctx, params)
		switch {
		case err == nil:
			res.Created = append(res.Created, p)
		case errors.Is(err, domain.ErrAlreadyExists):
			res.Skipped = append(res.Skipped, params.Name)
		default:
			return res, err
		}
	}
	return res, nil
}

// DefaultCatalog is the starter set installed by `planctl seed`.
func DefaultCatalog() []model.PlanParams {
	return []model.PlanParams{
		{Name: "Starter", Description: "Try the service for a week", Price: decimal.RequireFromString("0"), Duration: 7, DurationUnit: "DAY"},
		{Name: "Pro", Description: "Pro tier", Price: decimal.RequireFromString("29.99"), Duration: 1, DurationUnit: "MONTH"},
		{Name: "Pro Annual", Description: "Pro tier billed yearly", Price: decimal.RequireFromString("299.00"), Duration: 1, DurationUnit: "YEAR"},
		{Name: "Team", Description: "Shared workspace for small teams", Price: decimal.RequireFromString("99.00"), Duration: 1, DurationUnit: "MONTH"},
	}
}

func (uc *PlanUseCase) publish(ctx context.Context, eventType string, p *model.Plan) {
	payload, err := events.NewPlanEvent(eventType, p, uc.now()).Marshal()
	if err == nil {
		err = uc.publisher.Publish(ctx, eventType, payload)
	}
	if err != nil {
		metrics.IncPlanEvent(eventType, metrics.EventFailed)
		logging.With(ctx, uc.logger).Warn().Err(err).Str("event", eventType).Str("plan_id", p.ID).
			Msg("plan change committed but event was not published")
		return
	}
	metrics.IncPlanEvent(eventType, metrics.EventAccepted)
}

func (uc *PlanUseCase) observe(ctx context.Context, op string, start time.Time, errp *error) {
	err := *errp
	metrics.ObservePlanOp(op, start, err)
	l := logging.With(ctx, uc.logger)
	switch {
	case err == nil:
		l.Debug().Str("op", op).Dur("duration", time.Since(start)).Msg("plan op ok")
	case errors.Is(err, domain.ErrStorageUnavailable):
		l.Warn().Err(err).Str("op", op).Msg("plan store unavailable")
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrNotFound):
		l.Debug().Err(err).Str("op", op).Msg("plan op rejected")
	default:
		l.Error().Err(err).Str("op", op).Msg("plan op failed")
	}
}
