package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plan-catalog/internal/config"
	"plan-catalog/internal/domain"
	"plan-catalog/internal/domain/model"
	"plan-catalog/internal/infra/db"
	"plan-catalog/internal/infra/events"
	"plan-catalog/internal/infra/resilience"
)

func nopLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

func TestBuild_SQLiteWithBreaker(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		Database: config.DatabaseConfig{URL: filepath.Join(t.TempDir(), "plans.db")},
		Breaker:  config.BreakerConfig{Enabled: true, FailureThreshold: 3},
	}

	a, err := Build(ctx, cfg, nopLogger())
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, db.DriverSQLite, a.Store.Driver)
	assert.IsType(t, &resilience.BreakerRepo{}, a.Repo)
	assert.IsType(t, &events.NoopPublisher{}, a.Publisher)
	assert.Nil(t, a.Redis)

	p, err := a.Plans.Create(ctx, model.PlanParams{
		Name: "Pro", Description: "Pro tier", Price: decimal.RequireFromString("29.99"),
		Duration: 1, DurationUnit: "MONTH",
	})
	require.NoError(t, err)
	_, err = a.Plans.Create(ctx, p.Params())
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestBuild_RedisDownDisablesCache(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{URL: "memory://"},
		Redis:    config.RedisConfig{URL: "127.0.0.1:1"},
	}
	a, err := Build(context.Background(), cfg, nopLogger())
	require.NoError(t, err)
	defer a.Close()
	assert.Nil(t, a.Redis)
	assert.Same(t, a.Store.Plans, a.Repo)
}

func TestBuild_BadDatabaseURL(t *testing.T) {
	_, err := Build(context.Background(), &config.Config{Database: config.DatabaseConfig{URL: "mysql://x"}}, nopLogger())
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrStorageUnavailable))
}
