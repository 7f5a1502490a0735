package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plan-catalog/internal/config"
	"plan-catalog/internal/infra/db/dbtest"
)

func TestDetectDriver(t *testing.T) {
	tests := []struct {
		url    string
		driver Driver
		dsn    string
	}{
		{"", DriverSQLite, config.DefaultSQLitePath},
		{"postgres://u:p@localhost:5432/plans", DriverPostgres, "postgres://u:p@localhost:5432/plans"},
		{"postgresql://localhost/plans", DriverPostgres, "postgresql://localhost/plans"},
		{"memory://", DriverMemory, ""},
		{"sqlite:///var/lib/plans.db", DriverSQLite, "/var/lib/plans.db"},
		{"sqlite://", DriverSQLite, config.DefaultSQLitePath},
		{"file:plans.db?cache=shared", DriverSQLite, "file:plans.db?cache=shared"},
		{":memory:", DriverSQLite, ":memory:"},
		{"data/plans.sqlite3", DriverSQLite, "data/plans.sqlite3"},
		{"plans.SQLITE", DriverSQLite, "plans.SQLITE"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			driver, dsn, err := DetectDriver(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.driver, driver)
			assert.Equal(t, tt.dsn, dsn)
		})
	}

	_, _, err := DetectDriver("mysql://localhost/plans")
	assert.Error(t, err)
}

func TestOpen_SQLiteFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "plans.db")

	store, err := Open(ctx, config.DatabaseConfig{URL: path})
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, store.Driver)
	assert.Nil(t, store.Pool)
	require.NoError(t, store.Ping(ctx))

	created, err := store.Plans.Create(ctx, dbtest.ProPlan(t))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := Open(ctx, config.DatabaseConfig{URL: "sqlite://" + path})
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.Plans.GetByName(ctx, "Pro")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestOpen_Memory(t *testing.T) {
	store, err := Open(context.Background(), config.DatabaseConfig{URL: "memory://"})
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, store.Driver)
	assert.NoError(t, store.Ping(context.Background()))
	assert.NoError(t, store.Close())
}
