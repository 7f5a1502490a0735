package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plan-catalog/internal/domain"
	"plan-catalog/internal/domain/ports/repository"
	"plan-catalog/internal/infra/db/dbtest"
)

func setupPlanTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(context.Background(), MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(context.Background(), db))
	return db
}

func TestSQLitePlanRepo_Contract(t *testing.T) {
	dbtest.RunPlanRepositoryContract(t, func(t *testing.T) repository.PlanRepository {
		return NewSQLitePlanRepo(setupPlanTestDB(t), 0)
	})
}

func TestSQLitePlanRepo_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "plans.db")

	db, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, Migrate(ctx, db))
	created, err := NewSQLitePlanRepo(db, 0).Create(ctx, dbtest.ProPlan(t))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, Migrate(ctx, db), "migration must be repeatable")

	fetched, err := NewSQLitePlanRepo(db, 0).GetByName(ctx, "Pro")
	require.NoError(t, err)
	assert.True(t, created.Equal(fetched))
}

func TestSQLitePlanRepo_ExactPriceRoundTrip(t *testing.T) {
	repo := NewSQLitePlanRepo(setupPlanTestDB(t), 0)
	ctx := context.Background()

	created, err := repo.Create(ctx, dbtest.MustPlan(t, "Enterprise", "Enterprise tier", "1234567.1234567", 1, "YEAR"))
	require.NoError(t, err)

	fetched, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "1234567.1234567", fetched.Price.String())
}

func TestSQLitePlanRepo_CorruptRowIsNotAValidationError(t *testing.T) {
	db := setupPlanTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `
		INSERT INTO plans (id, name, description, price, duration, duration_unit, created_at, updated_at)
		VALUES ('bad-1', 'Broken', '   ', '1', 1, 'DAY', '2024-01-01T00:00:00Z', '2024-01-01T00:00:00Z')
	`)
	require.NoError(t, err)

	_, err = NewSQLitePlanRepo(db, 0).GetByID(ctx, "bad-1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrInvalidArgument))
	assert.False(t, errors.Is(err, domain.ErrStorageUnavailable))
}

func TestSQLitePlanRepo_ClosedDBIsUnavailable(t *testing.T) {
	db := setupPlanTestDB(t)
	repo := NewSQLitePlanRepo(db, 0)
	require.NoError(t, db.Close())

	_, err := repo.List(context.Background())
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	assert.True(t, domain.IsRetryable(err))
}
