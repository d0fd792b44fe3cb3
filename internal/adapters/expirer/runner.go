// Package expirer provides the background loop that sweeps published jobs
// past their expiry date.
package expirer

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/openhire/jobboard-api/internal/data"
	"github.com/openhire/jobboard-api/internal/service"
)

// DefaultInterval is how often the sweep runs when no interval is configured.
const DefaultInterval = 1 * time.Minute

// jobExpirer is the slice of the job service the runner needs.
type jobExpirer interface {
	ExpireJobs(ctx context.Context) (int64, error)
}

// Runner periodically expires due jobs until its context is cancelled.
type Runner struct {
	expirer  jobExpirer
	interval time.Duration
	logger   *slog.Logger
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	DB       *sql.DB
	Interval time.Duration
	Logger   *slog.Logger

	// Optional service injection for testing/decoupling. When nil, a
	// JobService is wired from DB.
	Expirer jobExpirer
}

// NewRunner creates a new expirer runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Expirer == nil && opts.DB == nil {
		return nil, errors.New("database connection is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	expirer := opts.Expirer
	if expirer == nil {
		svc, err := service.NewJobService(service.JobServiceOptions{
			Repo:   data.NewJobRepo(opts.DB, data.RepoConfig{}),
			Config: service.JobServiceConfig{Logger: opts.Logger},
		})
		if err != nil {
			return nil, err
		}
		expirer = svc
	}

	return &Runner{
		expirer:  expirer,
		interval: opts.Interval,
		logger:   opts.Logger,
	}, nil
}

// Run starts the sweep loop and runs until the context is cancelled.
// Sweep errors are logged and the loop keeps going.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("starting job expirer", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("job expirer stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			count, err := r.expirer.ExpireJobs(ctx)
			if err != nil {
				r.logger.Error("expire sweep failed", "error", err)
				continue
			}
			if count > 0 {
				r.logger.Info("expired jobs", "count", count)
			}
		}
	}
}
