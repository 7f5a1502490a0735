// File: cmd/planctl/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"plan-catalog/internal/app"
	"plan-catalog/internal/cli"
	"plan-catalog/internal/config"
	"plan-catalog/internal/infra/logging"
	"plan-catalog/internal/infra/web"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCmd(open)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// open builds the same store stack the server runs, logging warnings to stderr.
func open(ctx context.Context, cfgPath string) (*cli.Env, error) {
	cfg, err := config.LoadConfig(cfgPath, false)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger := logging.NewWithWriter(os.Stderr, config.LogConfig{Level: "warn", Format: "console"}, false)

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &cli.Env{
		Plans:  a.Plans,
		Tokens: web.NewAuthManager(cfg.Admin.APIKey, cfg.Admin.JWTSecret, true, "", 12*time.Hour),
		Close:  a.Close,
	}, nil
}
