// Package dbtest holds the behaviour every PlanRepository backend must share.
// Backend test files call RunPlanRepositoryContract with a constructor for an
// empty store.
package dbtest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plan-catalog/internal/domain"
	"plan-catalog/internal/domain/model"
	"plan-catalog/internal/domain/ports/repository"
)

// NewRepoFunc returns an empty store; it registers its own cleanup on t.
type NewRepoFunc func(t *testing.T) repository.PlanRepository

// ProPlan is the reference plan used across backends.
func ProPlan(t *testing.T) *model.Plan {
	t.Helper()
	return MustPlan(t, "Pro", "Pro tier", "29.99", 1, "MONTH")
}

// MustPlan builds a valid entity or fails the test.
func MustPlan(t *testing.T, name, desc, price string, duration int, unit string) *model.Plan {
	t.Helper()
	p, err := model.NewPlan(model.PlanParams{
		Name:         name,
		Description:  desc,
		Price:        decimal.RequireFromString(price),
		Duration:     duration,
		DurationUnit: unit,
	})
	require.NoError(t, err)
	return p
}

func RunPlanRepositoryContract(t *testing.T, newRepo NewRepoFunc) {
	t.Run("create assigns id and echoes fields", func(t *testing.T) {
		repo := newRepo(t)
		in := ProPlan(t)

		got, err := repo.Create(context.Background(), in)
		require.NoError(t, err)
		assert.NotEmpty(t, got.ID)
		assert.Equal(t, "Pro", got.Name)
		assert.Equal(t, "Pro tier", got.Description)
		assert.True(t, got.Price.Equal(decimal.RequireFromString("29.99")), "price %s", got.Price)
		assert.Equal(t, 1, got.Duration)
		assert.Equal(t, model.DurationMonth, got.DurationUnit)
		assert.False(t, got.CreatedAt.IsZero())
		assert.Equal(t, got.CreatedAt, got.UpdatedAt)
		assert.Empty(t, in.ID, "input must not be mutated")
	})

	t.Run("create ignores caller supplied id", func(t *testing.T) {
		repo := newRepo(t)
		in := ProPlan(t)
		in.ID = "caller-chosen"

		got, err := repo.Create(context.Background(), in)
		require.NoError(t, err)
		assert.NotEqual(t, "caller-chosen", got.ID)

		_, err = repo.GetByID(context.Background(), "caller-chosen")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("create then get by id is identical", func(t *testing.T) {
		repo := newRepo(t)
		created, err := repo.Create(context.Background(), ProPlan(t))
		require.NoError(t, err)

		fetched, err := repo.GetByID(context.Background(), created.ID)
		require.NoError(t, err)
		assert.True(t, created.Equal(fetched), "created %+v fetched %+v", created, fetched)
	})

	t.Run("duplicate name conflicts and keeps the first record", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		first, err := repo.Create(ctx, ProPlan(t))
		require.NoError(t, err)

		_, err = repo.Create(ctx, MustPlan(t, "Pro", "Another", "5", 1, "YEAR"))
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrAlreadyExists)
		var conflict *domain.ConflictError
		require.True(t, errors.As(err, &conflict))
		assert.Equal(t, "Pro", conflict.Name)

		byName, err := repo.GetByName(ctx, "Pro")
		require.NoError(t, err)
		assert.True(t, first.Equal(byName))

		all, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("concurrent creates with one name admit exactly one", func(t *testing.T) {
		repo := newRepo(t)
		team := MustPlan(t, "Team", "Team tier", "99", 1, "MONTH")
		const workers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			ok        int
			conflicts int
			others    []error
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.Create(context.Background(), team)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					ok++
				case errors.Is(err, domain.ErrAlreadyExists):
					conflicts++
				default:
					others = append(others, err)
				}
			}()
		}
		wg.Wait()
		assert.Empty(t, others)
		assert.Equal(t, 1, ok)
		assert.Equal(t, workers-1, conflicts)
	})

	t.Run("update price keeps id and name", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		created, err := repo.Create(ctx, ProPlan(t))
		require.NoError(t, err)

		change := created.Clone()
		change.Price = decimal.RequireFromString("39.99")
		updated, err := repo.Update(ctx, created.ID, change)
		require.NoError(t, err)
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, created.Name, updated.Name)
		assert.True(t, updated.Price.Equal(decimal.RequireFromString("39.99")))
		assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
		assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

		fetched, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, updated.Equal(fetched))
	})

	t.Run("update ignores a different id on the payload", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		created, err := repo.Create(ctx, ProPlan(t))
		require.NoError(t, err)

		change := created.Clone()
		change.ID = "some-other-id"
		change.Description = "Renamed tier"
		updated, err := repo.Update(ctx, created.ID, change)
		require.NoError(t, err)
		assert.Equal(t, created.ID, updated.ID)

		_, err = repo.GetByID(ctx, "some-other-id")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("update rejects a name held by another plan", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		pro, err := repo.Create(ctx, ProPlan(t))
		require.NoError(t, err)
		basic, err := repo.Create(ctx, MustPlan(t, "Basic", "Basic tier", "9.99", 1, "MONTH"))
		require.NoError(t, err)

		change := basic.Clone()
		change.Name = "Pro"
		_, err = repo.Update(ctx, basic.ID, change)
		assert.ErrorIs(t, err, domain.ErrAlreadyExists)

		same := pro.Clone()
		same.Duration = 12
		_, err = repo.Update(ctx, pro.ID, same)
		assert.NoError(t, err, "keeping its own name is not a conflict")

		stillBasic, err := repo.GetByID(ctx, basic.ID)
		require.NoError(t, err)
		assert.Equal(t, "Basic", stillBasic.Name)
	})

	t.Run("rename frees the old name", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		pro, err := repo.Create(ctx, ProPlan(t))
		require.NoError(t, err)

		change := pro.Clone()
		change.Name = "Pro Legacy"
		_, err = repo.Update(ctx, pro.ID, change)
		require.NoError(t, err)

		_, err = repo.Create(ctx, ProPlan(t))
		assert.NoError(t, err)
	})

	t.Run("update of missing id is not found", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Update(context.Background(), "missing", ProPlan(t))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("update re-validates fields", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		created, err := repo.Create(ctx, ProPlan(t))
		require.NoError(t, err)

		bad := created.Clone()
		bad.Duration = 0
		_, err = repo.Update(ctx, created.ID, bad)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)

		fetched, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, fetched.Duration)
	})

	t.Run("delete then get is not found and repeat delete is not found", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		created, err := repo.Create(ctx, ProPlan(t))
		require.NoError(t, err)

		require.NoError(t, repo.Delete(ctx, created.ID))
		_, err = repo.GetByID(ctx, created.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = repo.GetByName(ctx, "Pro")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, created.ID), domain.ErrNotFound)
	})

	t.Run("invalid plans are rejected and nothing is stored", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		cases := map[string]func(p *model.Plan){
			"zero duration":  func(p *model.Plan) { p.Duration = 0 },
			"negative price": func(p *model.Plan) { p.Price = decimal.NewFromInt(-1) },
			"unknown unit":   func(p *model.Plan) { p.DurationUnit = "FORTNIGHT" },
			"blank name":     func(p *model.Plan) { p.Name = "   " },
		}
		for name, mutate := range cases {
			p := ProPlan(t)
			mutate(p)
			_, err := repo.Create(ctx, p)
			var verr *domain.ValidationError
			assert.True(t, errors.As(err, &verr), "%s: expected ValidationError, got %v", name, err)
		}

		all, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("list keeps insertion order and is repeatable", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		empty, err := repo.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)

		names := []string{"Starter", "Pro", "Ultra"}
		ids := map[string]string{}
		for _, n := range names {
			p, err := repo.Create(ctx, MustPlan(t, n, n+" tier", "1", 7, "DAY"))
			require.NoError(t, err)
			ids[n] = p.ID
		}
		require.NoError(t, repo.Delete(ctx, ids["Pro"]))
		_, err = repo.Create(ctx, MustPlan(t, "Team", "Team tier", "1", 1, "WEEK"))
		require.NoError(t, err)

		for i := 0; i < 2; i++ {
			all, err := repo.List(ctx)
			require.NoError(t, err)
			got := make([]string, 0, len(all))
			for _, p := range all {
				got = append(got, p.Name)
			}
			assert.Equal(t, []string{"Starter", "Ultra", "Team"}, got)
		}
	})

	t.Run("get by name is exact", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		_, err := repo.Create(ctx, ProPlan(t))
		require.NoError(t, err)

		_, err = repo.GetByName(ctx, "pro")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = repo.GetByName(ctx, "Pro")
		assert.NoError(t, err)
	})

	t.Run("cancelled context is storage unavailable", func(t *testing.T) {
		repo := newRepo(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := repo.List(ctx)
		assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	})
}
