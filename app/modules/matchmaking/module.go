package matchmaking

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	matchmakingservice "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/application"
	matchmakingdomain "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/domain"
	matchmakinghandlers "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/infrastructure/handlers"
	matchmakinghttp "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/infrastructure/httpapi"
	matchmakingmetrics "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/infrastructure/metrics"
	matchmakingnotify "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/infrastructure/notify"
	matchmakingqueue "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/infrastructure/queue"
	matchmakingdb "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/infrastructure/repositories"
	matchmakingrouter "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/infrastructure/router"
	"github.com/Black-And-White-Club/bout-league/config"
	"github.com/Black-And-White-Club/bout-league/pkg/eventbus"
	leaguejwt "github.com/Black-And-White-Club/bout-league/pkg/jwt"
	"github.com/Black-And-White-Club/bout-league/pkg/observability"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
)

// Dependencies are the shared handles the module is built from.
type Dependencies struct {
	Config        *config.Config
	Observability observability.Observability
	DB            *bun.DB
	EventBus      eventbus.EventBus
	// Router receives the inbound command handlers. Nil skips event routing.
	Router *message.Router
	// HTTPRouter receives the admin API. Nil skips it.
	HTTPRouter chi.Router
	// RunQueue starts River workers and the periodic rotation.
	RunQueue bool
}

// Module represents the matchmaking module.
type Module struct {
	Service  *matchmakingservice.MatchmakingService
	Router   *matchmakingrouter.MatchmakingRouter
	Queue    *matchmakingqueue.Service
	Metrics  *matchmakingmetrics.PrometheusMetrics
	logger   *slog.Logger
	cancelFn context.CancelFunc
}

// ServiceConfig maps file and environment settings onto the service knobs.
func ServiceConfig(cfg config.MatchmakingConfig) matchmakingservice.Config {
	p := cfg.Policy
	return matchmakingservice.Config{
		Policy: matchmakingdomain.Policy{
			MaxRankDiff:               p.MaxRankDiff,
			MaxPointsDiff:             p.MaxPointsDiff,
			RequireSameTier:           p.RequireSameTier,
			RequireSameWeightClass:    p.RequireSameWeightClass,
			RequireTimezoneOverlap:    p.RequireTimezoneOverlap,
			TimezoneOverlapHours:      p.TimezoneOverlapHours,
			PointsGapConsentThreshold: p.PointsGapConsentThreshold,
		},
		RecentOpponentWindow: cfg.RecentOpponentWindow,
		DemotionWindow:       cfg.DemotionWindow,
		ScheduleLead:         cfg.ScheduleLead,
		MaxScheduleOffset:    cfg.MaxScheduleOffset,
		RotationAge:          cfg.RotationAge,
		PendingExpiry:        cfg.PendingExpiry,
		RematchExpiry:        cfg.RematchExpiry,
		SparringWindow:       cfg.SparringWindow,
		SparringCap:          cfg.SparringCap,
		UpcomingBoutWindow:   cfg.UpcomingBoutWindow,
	}
}

// NewMatchmakingModule creates the matchmaking module.
func NewMatchmakingModule(ctx context.Context, deps Dependencies) (*Module, error) {
	logger := deps.Observability.Logger
	tracer := deps.Observability.Tracer
	cfg := deps.Config

	logger.InfoContext(ctx, "Initializing matchmaking module")

	metrics, err := matchmakingmetrics.NewPrometheusMetrics(deps.Observability.Registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register matchmaking metrics: %w", err)
	}

	var queue *matchmakingqueue.Service
	var jobs matchmakingservice.JobScheduler
	if deps.RunQueue {
		queue, err = matchmakingqueue.NewService(ctx, deps.DB, logger, cfg.Postgres.DSN, metrics, matchmakingqueue.Config{
			MaxWorkers:         cfg.Queue.MaxWorkers,
			RotationInterval:   cfg.Queue.RotationInterval,
			RunRotationOnStart: cfg.Queue.RunRotationOnStart,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create matchmaking queue: %w", err)
		}
		jobs = queue
	}

	service := matchmakingservice.NewMatchmakingService(
		matchmakingdb.NewRepository(deps.DB),
		logger,
		metrics,
		tracer,
		deps.DB,
		matchmakingnotify.NewEventNotifier(deps.EventBus),
		matchmakingnotify.NewEventBracketAdvancer(deps.EventBus),
		jobs,
		ServiceConfig(cfg.Matchmaking),
	)
	if queue != nil {
		queue.SetRunner(service)
	}

	module := &Module{
		Service: service,
		Queue:   queue,
		Metrics: metrics,
		logger:  logger,
	}

	if deps.Router != nil {
		router := matchmakingrouter.NewMatchmakingRouter(logger, deps.Router, deps.EventBus, deps.EventBus, tracer, metrics, deps.Observability.Registry)
		if err := router.Configure(ctx, matchmakinghandlers.NewMatchmakingHandlers(service, logger, tracer)); err != nil {
			return nil, fmt.Errorf("failed to configure matchmaking router: %w", err)
		}
		module.Router = router
	}

	if deps.HTTPRouter != nil {
		module.mountHTTP(deps, service, queue)
	}

	return module, nil
}

func (m *Module) mountHTTP(deps Dependencies, service matchmakingservice.Service, queue *matchmakingqueue.Service) {
	cfg := deps.Config
	health := []matchmakinghttp.HealthCheck{
		{Name: "postgres", Check: func(ctx context.Context) error { return deps.DB.PingContext(ctx) }},
	}

	var inspector matchmakinghttp.JobInspector
	if queue != nil {
		inspector = queue
		health = append(health, matchmakinghttp.HealthCheck{Name: "queue", Check: queue.HealthCheck})
	}

	handlers := matchmakinghttp.NewAdminHandlers(service, inspector, health, m.logger, deps.Observability.Tracer)
	if cfg.JWT.Secret == "" {
		m.logger.Warn("JWT secret not set; admin API disabled")
		deps.HTTPRouter.Get("/healthz", handlers.HandleHealth)
		return
	}

	matchmakinghttp.Mount(deps.HTTPRouter, handlers, leaguejwt.NewProvider(cfg.JWT.Secret, cfg.JWT.Issuer), m.logger, matchmakinghttp.RouteConfig{
		RequestsPerSecond: cfg.HTTP.RequestsPerSecond,
		Burst:             cfg.HTTP.Burst,
	})
}

// Run starts the queue workers and blocks until ctx ends.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	m.logger.InfoContext(ctx, "Starting matchmaking module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFn = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if m.Queue != nil {
		if err := m.Queue.Start(ctx); err != nil {
			m.logger.ErrorContext(ctx, "Failed to start matchmaking queue", "error", err)
			return
		}
	}

	<-ctx.Done()
	m.logger.Info("Matchmaking module goroutine stopped")
}

// Close stops the queue and the router.
func (m *Module) Close() error {
	m.logger.Info("Stopping matchmaking module")

	if m.cancelFn != nil {
		m.cancelFn()
	}

	var firstErr error
	if m.Queue != nil {
		if err := m.Queue.Stop(context.Background()); err != nil {
			m.logger.Error("Error stopping matchmaking queue", "error", err)
			firstErr = err
		}
	}
	if m.Router != nil {
		if err := m.Router.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("error stopping router: %w", err)
		}
	}

	m.logger.Info("Matchmaking module stopped")
	return firstErr
}
