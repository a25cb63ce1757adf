package matchmakingrouter

import (
	"context"
	"log/slog"
	"time"

	matchmakinghandlers "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/infrastructure/handlers"
	"github.com/Black-And-White-Club/bout-league/pkg/eventbus"
	matchmakingevents "github.com/Black-And-White-Club/bout-league/pkg/events/matchmaking"
	"github.com/Black-And-White-Club/bout-league/pkg/handlerwrapper"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

// MatchmakingRouter handles Watermill handler registration for matchmaking events.
type MatchmakingRouter struct {
	logger         *slog.Logger
	Router         *message.Router
	subscriber     eventbus.EventBus
	publisher      eventbus.EventBus
	tracer         trace.Tracer
	metrics        handlerwrapper.Metrics
	metricsBuilder *metrics.PrometheusMetricsBuilder
}

// NewMatchmakingRouter creates a new MatchmakingRouter. A nil registry disables
// router-level Prometheus metrics.
func NewMatchmakingRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber eventbus.EventBus,
	publisher eventbus.EventBus,
	tracer trace.Tracer,
	handlerMetrics handlerwrapper.Metrics,
	registry *prometheus.Registry,
) *MatchmakingRouter {
	var metricsBuilder *metrics.PrometheusMetricsBuilder
	if registry != nil {
		builder := metrics.NewPrometheusMetricsBuilder(registry, "bout_league", "matchmaking")
		metricsBuilder = &builder
	}
	return &MatchmakingRouter{
		logger:         logger,
		Router:         router,
		subscriber:     subscriber,
		publisher:      publisher,
		tracer:         tracer,
		metrics:        handlerMetrics,
		metricsBuilder: metricsBuilder,
	}
}

// Configure adds middleware and registers the handlers.
func (r *MatchmakingRouter) Configure(_ context.Context, handlers matchmakinghandlers.Handlers) error {
	if r.metricsBuilder != nil {
		r.logger.Info("Adding Prometheus router metrics middleware")
		r.metricsBuilder.AddPrometheusRouterMetrics(r.Router)
	}

	r.Router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
		}.Middleware,
	)

	r.registerHandlers(handlers)
	return nil
}

// handlerDeps bundles dependencies for handler registration.
type handlerDeps struct {
	router     *message.Router
	subscriber eventbus.EventBus
	publisher  eventbus.EventBus
	logger     *slog.Logger
	tracer     trace.Tracer
	metrics    handlerwrapper.Metrics
}

// registerHandlers wires NATS topics to handler methods.
func (r *MatchmakingRouter) registerHandlers(handlers matchmakinghandlers.Handlers) {
	deps := handlerDeps{
		router:     r.Router,
		subscriber: r.subscriber,
		publisher:  r.publisher,
		logger:     r.logger,
		tracer:     r.tracer,
		metrics:    r.metrics,
	}

	registerHandler(deps, matchmakingevents.PairingRequestedV1, handlers.HandlePairingRequested)
	registerHandler(deps, matchmakingevents.PairingAcceptRequestedV1, handlers.HandlePairingAcceptRequested)
	registerHandler(deps, matchmakingevents.PairingDeclineRequestedV1, handlers.HandlePairingDeclineRequested)
	registerHandler(deps, matchmakingevents.PairingCancelRequestedV1, handlers.HandlePairingCancelRequested)
	registerHandler(deps, matchmakingevents.ResultSubmittedV1, handlers.HandleResultSubmitted)

	registerHandler(deps, matchmakingevents.RematchRequestedV1, handlers.HandleRematchRequested)
	registerHandler(deps, matchmakingevents.RematchResponseSubmittedV1, handlers.HandleRematchResponse)
	registerHandler(deps, matchmakingevents.SparringInviteRequestedV1, handlers.HandleSparringInviteRequested)
	registerHandler(deps, matchmakingevents.SparringResponseSubmittedV1, handlers.HandleSparringResponse)
	registerHandler(deps, matchmakingevents.SparringCompleteRequestedV1, handlers.HandleSparringCompleteRequested)

	registerHandler(deps, matchmakingevents.SweepRequestedV1, handlers.HandleSweepRequested)
	registerHandler(deps, matchmakingevents.RotationRequestedV1, handlers.HandleRotationRequested)

	r.logger.Info("Matchmaking module handlers registered successfully")
}

// registerHandler is a generic function for type-safe Watermill handler registration.
func registerHandler[T any](
	deps handlerDeps,
	topic string,
	handler func(context.Context, *T) ([]handlerwrapper.Result, error),
) {
	handlerName := "matchmaking." + topic

	deps.router.AddHandler(
		handlerName,
		topic,
		deps.subscriber,
		"",
		deps.publisher,
		handlerwrapper.WrapTransformingTyped(
			handlerName,
			deps.logger,
			deps.tracer,
			deps.metrics,
			handler,
		),
	)
}

// Close shuts down the router.
func (r *MatchmakingRouter) Close() error {
	return r.Router.Close()
}
