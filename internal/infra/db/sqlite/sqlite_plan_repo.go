package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"plan-catalog/internal/domain"
	"plan-catalog/internal/domain/model"
	"plan-catalog/internal/domain/ports/repository"
	"plan-catalog/internal/infra/db/dbutil"
)

var _ repository.PlanRepository = (*SQLitePlanRepo)(nil)

const planColumns = `id, name, description, price, duration, duration_unit, created_at, updated_at`

// SQLitePlanRepo implements PlanRepository for the local single-file mode.
// Name uniqueness is the plans_name_key constraint.
type SQLitePlanRepo struct {
	db      *sql.DB
	timeout time.Duration
	now     func() time.Time
	newID   func() string
}

// NewSQLitePlanRepo creates a new repository over an opened and migrated db.
func NewSQLitePlanRepo(db *sql.DB, opTimeout time.Duration) *SQLitePlanRepo {
	return &SQLitePlanRepo{
		db:      db,
		timeout: opTimeout,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

func (r *SQLitePlanRepo) Create(ctx context.Context, plan *model.Plan) (*model.Plan, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	p, _ := model.NewPlan(plan.Params())
	p.ID = r.newID()
	p.CreatedAt = model.StoreTime(r.now())
	p.UpdatedAt = p.CreatedAt

	ctx, cancel := dbutil.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO plans (id, name, description, price, duration, duration_unit, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Description, p.Price.String(), p.Duration, string(p.DurationUnit),
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		return nil, classify("Create plan", p.Name, err)
	}
	return p, nil
}

func (r *SQLitePlanRepo) GetByID(ctx context.Context, id string) (*model.Plan, error) {
	return r.getOne(ctx, "GetByID plan", `SELECT `+planColumns+` FROM plans WHERE id = ?`, id)
}

func (r *SQLitePlanRepo) GetByName(ctx context.Context, name string) (*model.Plan, error) {
	return r.getOne(ctx, "GetByName plan", `SELECT `+planColumns+` FROM plans WHERE name = ?`, name)
}

func (r *SQLitePlanRepo) getOne(ctx context.Context, op, query, key string) (*model.Plan, error) {
	ctx, cancel := dbutil.WithTimeout(ctx, r.timeout)
	defer cancel()

	p, err := scanPlan(r.db.QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("plan", key)
		}
		return nil, classify(op, "", err)
	}
	return p, nil
}

// Update rewrites the row in place; the unique constraint rejects a name held by another row.
func (r *SQLitePlanRepo) Update(ctx context.Context, id string, plan *model.Plan) (*model.Plan, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	p, _ := model.NewPlan(plan.Params())
	updatedAt := model.StoreTime(r.now())

	ctx, cancel := dbutil.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		UPDATE plans
		SET name = ?, description = ?, price = ?, duration = ?, duration_unit = ?, updated_at = ?
		WHERE id = ?
		RETURNING ` + planColumns
	out, err := scanPlan(r.db.QueryRowContext(ctx, query,
		p.Name, p.Description, p.Price.String(), p.Duration, string(p.DurationUnit), formatTime(updatedAt), id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("plan", id)
		}
		return nil, classify("Update plan", p.Name, err)
	}
	return out, nil
}

func (r *SQLitePlanRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := dbutil.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM plans WHERE id = ?`, id)
	if err != nil {
		return classify("Delete plan", "", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify("Delete plan", "", err)
	}
	if n == 0 {
		return domain.NotFound("plan", id)
	}
	return nil
}

func (r *SQLitePlanRepo) List(ctx context.Context) ([]*model.Plan, error) {
	ctx, cancel := dbutil.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT `+planColumns+` FROM plans ORDER BY rowid`)
	if err != nil {
		return nil, classify("List plans", "", err)
	}
	defer rows.Close()

	plans := make([]*model.Plan, 0)
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, classify("List plans", "", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("List plans", "", err)
	}
	return plans, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*model.Plan, error) {
	var (
		id, name, desc, price, unit string
		duration                    int
		createdAt, updatedAt        string
	)
	if err := row.Scan(&id, &name, &desc, &price, &duration, &unit, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(price)
	if err != nil {
		return nil, &corruptRowError{id: id, err: err}
	}
	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, &corruptRowError{id: id, err: err}
	}
	updated, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, &corruptRowError{id: id, err: err}
	}
	p, err := model.RestorePlan(id, model.PlanParams{
		Name:         name,
		Description:  desc,
		Price:        amount,
		Duration:     duration,
		DurationUnit: unit,
	}, created.UTC(), updated.UTC())
	if err != nil {
		return nil, &corruptRowError{id: id, err: err}
	}
	return p, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// classify maps driver failures onto the domain taxonomy.
func classify(op, name string, err error) error {
	var bad *corruptRowError
	if errors.As(err, &bad) {
		return fmt.Errorf("%s: %w", op, err)
	}
	var sqlErr *sqlite.Error
	if errors.As(err, &sqlErr) {
		code := sqlErr.Code()
		switch {
		case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE && strings.Contains(sqlErr.Error(), "plans.name"):
			return &domain.ConflictError{Name: name}
		case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%s: %w", op, domain.ErrAlreadyExists)
		case code == sqlite3.SQLITE_CONSTRAINT_CHECK:
			verr := &domain.ValidationError{}
			verr.Add("plan", "violates storage constraint")
			return verr
		}
		switch code & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_IOERR, sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_FULL:
			return dbutil.Unavailable(op, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return dbutil.Unavailable(op, err)
}

// corruptRowError marks a stored row that no longer satisfies the entity rules.
type corruptRowError struct {
	id  string
	err error
}

func (e *corruptRowError) Error() string {
	return fmt.Sprintf("stored plan %s is invalid: %v", e.id, e.err)
}
