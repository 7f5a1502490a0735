// Package db selects and opens the plan store backend named by a database URL.
package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4/pgxpool"

	"plan-catalog/internal/config"
	"plan-catalog/internal/domain/ports/repository"
	"plan-catalog/internal/infra/db/memory"
	"plan-catalog/internal/infra/db/postgres"
	"plan-catalog/internal/infra/db/sqlite"
)

type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
	DriverMemory   Driver = "memory"
)

// DetectDriver maps a database URL onto a backend and the DSN that backend expects.
//
//	postgres://, postgresql://        -> Postgres (url unchanged)
//	memory://                         -> in-process map
//	sqlite://path, file:..., *.db ... -> SQLite
//	""                                -> SQLite at config.DefaultSQLitePath
func DetectDriver(url string) (Driver, string, error) {
	u := strings.TrimSpace(url)
	lower := strings.ToLower(u)
	switch {
	case u == "":
		return DriverSQLite, config.DefaultSQLitePath, nil
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return DriverPostgres, u, nil
	case strings.HasPrefix(lower, "memory://"):
		return DriverMemory, "", nil
	case strings.HasPrefix(lower, "sqlite://"):
		path := u[len("sqlite://"):]
		if path == "" {
			path = config.DefaultSQLitePath
		}
		return DriverSQLite, path, nil
	case strings.HasPrefix(lower, "file:"), u == sqlite.MemoryPath:
		return DriverSQLite, u, nil
	case strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"), strings.HasSuffix(lower, ".sqlite3"):
		return DriverSQLite, u, nil
	}
	return "", "", fmt.Errorf("db: unsupported database url %q", url)
}

// Store is an opened backend. Pool is set only for Postgres.
type Store struct {
	Plans  repository.PlanRepository
	Driver Driver
	Pool   *pgxpool.Pool

	ping  func(ctx context.Context) error
	close func() error
}

// Open connects the backend, applies its schema and builds the plan repository.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	driver, dsn, err := DetectDriver(cfg.URL)
	if err != nil {
		return nil, err
	}

	switch driver {
	case DriverPostgres:
		pool, err := postgres.NewPgxPool(ctx, dsn, cfg.MaxConns)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &Store{
			Plans:  postgres.NewPostgresPlanRepo(pool, cfg.OpTimeout),
			Driver: driver,
			Pool:   pool,
			ping:   pool.Ping,
			close:  func() error { pool.Close(); return nil },
		}, nil

	case DriverSQLite:
		sqlDB, err := sqlite.Open(ctx, dsn)
		if err != nil {
			return nil, err
		}
		if err := sqlite.Migrate(ctx, sqlDB); err != nil {
			sqlDB.Close()
			return nil, err
		}
		return &Store{
			Plans:  sqlite.NewSQLitePlanRepo(sqlDB, cfg.OpTimeout),
			Driver: driver,
			ping:   sqlDB.PingContext,
			close:  sqlDB.Close,
		}, nil

	default:
		return &Store{
			Plans:  memory.NewPlanRepo(),
			Driver: driver,
			ping:   func(context.Context) error { return nil },
			close:  func() error { return nil },
		}, nil
	}
}

func (s *Store) Ping(ctx context.Context) error { return s.ping(ctx) }

func (s *Store) Close() error { return s.close() }
