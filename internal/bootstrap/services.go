package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/openhire/jobboard-api/config"
	oidcadapter "github.com/openhire/jobboard-api/internal/adapters/oidc"
	redisadapter "github.com/openhire/jobboard-api/internal/adapters/redis"
	"github.com/openhire/jobboard-api/internal/core"
	"github.com/openhire/jobboard-api/internal/data"
	"github.com/openhire/jobboard-api/internal/ports"
	"github.com/openhire/jobboard-api/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Jobs     *service.JobService
	Search   *service.JobSearchService
	Verifier ports.TokenVerifier
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	JobRepo   *data.JobRepo
	UserRepo  *data.UserRepo
	CacheRepo *data.RedisCacheRepo
	Notifier  core.Notifier
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB, redisClient redis.UniversalClient) *serviceRepositories {
	repos := &serviceRepositories{
		JobRepo:  data.NewJobRepo(db, data.RepoConfig{}),
		UserRepo: data.NewUserRepo(db),
	}
	if redisClient != nil {
		repos.CacheRepo = data.NewRedisCacheRepo(redisClient)
		repos.Notifier = redisadapter.NewNotifier(redisClient)
	}
	return repos
}

// NewServices wires domain services onto their repositories. The token
// verifier is built only when the HTTP service is enabled, since it performs
// a discovery fetch against the identity provider.
func NewServices(ctx context.Context, deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil {
		return ServiceContainer{}, errors.New("service deps are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := deps.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	repos := buildRepositories(deps.DB, deps.RedisClient)

	jobs, err := service.NewJobService(service.JobServiceOptions{
		Repo:     repos.JobRepo,
		Notifier: repos.Notifier,
		Config:   service.JobServiceConfig{Logger: logger},
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build job service: %w", err)
	}

	searchOpts := service.JobSearchServiceOptions{
		Repo: repos.JobRepo,
		Deps: service.JobSearchServiceDeps{
			Users: repos.UserRepo,
		},
		Config: service.JobSearchServiceConfig{
			Logger:   logger,
			CacheTTL: appCfg.Cache.AggregateTTL,
		},
	}
	if repos.CacheRepo != nil {
		searchOpts.Deps.Cache = repos.CacheRepo
	}
	search, err := service.NewJobSearchService(searchOpts)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build job search service: %w", err)
	}

	container := ServiceContainer{
		Jobs:   jobs,
		Search: search,
	}

	if appCfg.IsHTTPServerEnabled() {
		verifier, verr := oidcadapter.NewVerifier(ctx, oidcadapter.VerifierConfig{
			ClientID:     appCfg.Auth.OIDC.ClientID,
			DiscoveryURL: appCfg.Auth.OIDC.DiscoveryURL,
		})
		if verr != nil {
			return ServiceContainer{}, fmt.Errorf("build token verifier: %w", verr)
		}
		container.Verifier = verifier
	}

	return container, nil
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabled, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	var httpServer *http.Server
	if enabled[config.ServiceModeHTTP] {
		httpServer = StartHTTPServer(&HTTPServerConfig{
			Addr:     cfg.Config.HTTP.Addr,
			Services: cfg.Services,
			Logger:   logger,
		})
	}

	if enabled[config.ServiceModeExpirer] {
		logger.Info("background service started", "service", "expirer")
		g.Go(func() error {
			if runErr := RunExpirer(gctx, ExpirerConfig{
				DB:       cfg.DB,
				Logger:   logger,
				Interval: cfg.Config.Expirer.Interval,
			}); runErr != nil {
				return fmt.Errorf("expirer failed: %w", runErr)
			}
			return nil
		})
	}

	// Block until a signal arrives or a background service fails, then stop
	// the HTTP listener so in-flight requests can drain.
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down services...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWaitTimeout)
		defer cancel()

		return ShutdownHTTPServer(ShutdownConfig{
			Context: shutdownCtx,
			Server:  httpServer,
			Logger:  logger,
		})
	})

	if waitErr := g.Wait(); waitErr != nil {
		logger.Error("service error", "error", waitErr)
		return waitErr
	}
	return nil
}
