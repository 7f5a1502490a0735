//go:build integration

package postgres

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
)

var testPool *pgxpool.Pool

// Set PLANS_TEST_DATABASE_URL to run against an existing server instead of docker.
const externalDSNEnv = "PLANS_TEST_DATABASE_URL"

func TestMain(m *testing.M) {
	ctx := context.Background()

	dsn, stop, err := testDatabase()
	if err != nil {
		log.Fatalf("postgres for tests: %v", err)
	}

	testPool, err = waitForPool(ctx, dsn, 15, 2*time.Second)
	if err == nil {
		err = Migrate(ctx, testPool)
	}
	if err != nil {
		stop()
		log.Fatalf("prepare test database: %v", err)
	}

	code := m.Run()

	testPool.Close()
	stop()
	os.Exit(code)
}

// testDatabase returns a DSN and a func that tears the server down.
func testDatabase() (string, func(), error) {
	if dsn := os.Getenv(externalDSNEnv); dsn != "" {
		return dsn, func() {}, nil
	}

	const (
		name = "plans-test"
		user = "plans"
		pass = "plans"
	)
	cmd := exec.Command("docker", "run", "-d", "--rm", "--network", "host",
		"-e", "POSTGRES_DB="+name,
		"-e", "POSTGRES_USER="+user,
		"-e", "POSTGRES_PASSWORD="+pass,
		"postgres:16",
	)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", nil, fmt.Errorf("docker run (is Docker running?): %w", err)
	}
	id := strings.TrimSpace(out.String())
	stop := func() {
		if err := exec.Command("docker", "stop", id).Run(); err != nil {
			log.Printf("docker stop %s: %v", id, err)
		}
	}
	return fmt.Sprintf("postgres://%s:%s@localhost:5432/%s?sslmode=disable", user, pass, name), stop, nil
}

func waitForPool(ctx context.Context, dsn string, attempts int, every time.Duration) (*pgxpool.Pool, error) {
	var err error
	for i := 1; i <= attempts; i++ {
		var pool *pgxpool.Pool
		if pool, err = NewPgxPool(ctx, dsn, 10); err == nil {
			return pool, nil
		}
		log.Printf("waiting for postgres (%d/%d): %v", i, attempts, err)
		time.Sleep(every)
	}
	return nil, err
}

func cleanup(t *testing.T) {
	t.Helper()
	if _, err := testPool.Exec(context.Background(), `TRUNCATE plans RESTART IDENTITY`); err != nil {
		t.Fatalf("truncate plans: %v", err)
	}
}
