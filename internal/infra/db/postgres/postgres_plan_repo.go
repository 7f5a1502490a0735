package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"plan-catalog/internal/domain"
	"plan-catalog/internal/domain/model"
	"plan-catalog/internal/domain/ports/repository"
	"plan-catalog/internal/infra/db/dbutil"
)

// Ensure interface compliance
var _ repository.PlanRepository = (*PostgresPlanRepo)(nil)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
	planNameKey       = "plans_name_key"
)

const planColumns = `id, name, description, price::text, duration, duration_unit, created_at, updated_at`

// PostgresPlanRepo stores plans in the plans table. Name uniqueness is the
// plans_name_key constraint, so no application lock guards writes.
type PostgresPlanRepo struct {
	pool    *pgxpool.Pool
	timeout time.Duration
	now     func() time.Time
	newID   func() string
}

func NewPostgresPlanRepo(pool *pgxpool.Pool, opTimeout time.Duration) *PostgresPlanRepo {
	return &PostgresPlanRepo{
		pool:    pool,
		timeout: opTimeout,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

func (r *PostgresPlanRepo) Create(ctx context.Context, plan *model.Plan) (*model.Plan, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	p, _ := model.NewPlan(plan.Params())
	p.ID = r.newID()
	p.CreatedAt = model.StoreTime(r.now())
	p.UpdatedAt = p.CreatedAt

	ctx, cancel := dbutil.WithTimeout(ctx, r.timeout)
	defer cancel()

	const sql = `
INSERT INTO plans (id, name, description, price, duration, duration_unit, created_at, updated_at)
VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8);
`
	_, err := r.pool.Exec(ctx, sql,
		p.ID, p.Name, p.Description, p.Price.String(), p.Duration, string(p.DurationUnit), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return nil, classify("Create plan", p.Name, err)
	}
	return p, nil
}

func (r *PostgresPlanRepo) GetByID(ctx context.Context, id string) (*model.Plan, error) {
	ctx, cancel := dbutil.WithTimeout(ctx, r.timeout)
	defer cancel()

	sql := `SELECT ` + planColumns + ` FROM plans WHERE id = $1;`
	p, err := scanPlan(r.pool.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("plan", id)
		}
		return nil, classify("GetByID plan", "", err)
	}
	return p, nil
}

func (r *PostgresPlanRepo) GetByName(ctx context.Context, name string) (*model.Plan, error) {
	ctx, cancel := dbutil.WithTimeout(ctx, r.timeout)
	defer cancel()

	sql := `SELECT ` + planColumns + ` FROM plans WHERE name = $1;`
	p, err := scanPlan(r.pool.QueryRow(ctx, sql, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("plan", name)
		}
		return nil, classify("GetByName plan", "", err)
	}
	return p, nil
}

func (r *PostgresPlanRepo) Update(ctx context.Context, id string, plan *model.Plan) (*model.Plan, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	p, _ := model.NewPlan(plan.Params())
	updatedAt := model.StoreTime(r.now())

	ctx, cancel := dbutil.WithTimeout(ctx, r.timeout)
	defer cancel()

	sql := `
UPDATE plans
   SET name          = $2,
       description   = $3,
       price         = $4::numeric,
       duration      = $5,
       duration_unit = $6,
       updated_at    = $7
 WHERE id = $1
RETURNING ` + planColumns + `;`
	out, err := scanPlan(r.pool.QueryRow(ctx, sql,
		id, p.Name, p.Description, p.Price.String(), p.Duration, string(p.DurationUnit), updatedAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("plan", id)
		}
		return nil, classify("Update plan", p.Name, err)
	}
	return out, nil
}

func (r *PostgresPlanRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := dbutil.WithTimeout(ctx, r.timeout)
	defer cancel()

	const sql = `DELETE FROM plans WHERE id = $1;`
	ct, err := r.pool.Exec(ctx, sql, id)
	if err != nil {
		return classify("Delete plan", "", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.NotFound("plan", id)
	}
	return nil
}

func (r *PostgresPlanRepo) List(ctx context.Context) ([]*model.Plan, error) {
	ctx, cancel := dbutil.WithTimeout(ctx, r.timeout)
	defer cancel()

	sql := `SELECT ` + planColumns + ` FROM plans ORDER BY seq;`
	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return nil, classify("List plans", "", err)
	}
	defer rows.Close()

	out := make([]*model.Plan, 0)
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, classify("List plans", "", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("List plans", "", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanPlan maps a row in planColumns order back onto the entity via the rehydration constructor.
func scanPlan(row rowScanner) (*model.Plan, error) {
	var (
		id, name, desc, price, unit string
		duration                    int
		createdAt, updatedAt        time.Time
	)
	if err := row.Scan(&id, &name, &desc, &price, &duration, &unit, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(price)
	if err != nil {
		return nil, &corruptRowError{id: id, err: err}
	}
	p, err := model.RestorePlan(id, model.PlanParams{
		Name:         name,
		Description:  desc,
		Price:        amount,
		Duration:     duration,
		DurationUnit: unit,
	}, createdAt.UTC(), updatedAt.UTC())
	if err != nil {
		return nil, &corruptRowError{id: id, err: err}
	}
	return p, nil
}

// classify maps pgx failures onto the domain taxonomy. Server-side constraint
// errors are client-correctable; everything below the protocol is transient.
func classify(op, name string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == planNameKey:
			return &domain.ConflictError{Name: name}
		case pgErr.Code == pgUniqueViolation:
			return fmt.Errorf("%s: %w", op, domain.ErrAlreadyExists)
		case pgErr.Code == pgCheckViolation:
			verr := &domain.ValidationError{}
			verr.Add(pgErr.ConstraintName, "violates storage constraint")
			return verr
		case isTransientClass(pgErr.Code):
			return dbutil.Unavailable(op, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	var bad *corruptRowError
	if errors.As(err, &bad) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return dbutil.Unavailable(op, err)
}

// corruptRowError marks a stored row that no longer satisfies the entity rules.
// The cause is not exposed to errors.Is.
type corruptRowError struct {
	id  string
	err error
}

func (e *corruptRowError) Error() string {
	return fmt.Sprintf("stored plan %s is invalid: %v", e.id, e.err)
}

// isTransientClass covers connection exceptions, resource exhaustion,
// operator intervention and serialization failures.
func isTransientClass(code string) bool {
	if len(code) < 2 {
		return false
	}
	switch code[:2] {
	case "08", "53", "57", "58", "40":
		return true
	}
	return false
}
