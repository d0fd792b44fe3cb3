package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/openhire/jobboard-api/internal/adapters/expirer"
)

// ExpirerConfig contains configuration for the expirer service.
type ExpirerConfig struct {
	DB       *sql.DB
	Logger   *slog.Logger
	Interval time.Duration
}

// RunExpirer starts the background sweep that expires overdue postings.
func RunExpirer(ctx context.Context, cfg ExpirerConfig) error {
	runner, err := expirer.NewRunner(expirer.RunnerOptions{
		DB:       cfg.DB,
		Interval: cfg.Interval,
		Logger:   cfg.Logger,
	})
	if err != nil {
		return fmt.Errorf("create expirer runner: %w", err)
	}

	return runner.Run(ctx)
}
