package matchmakinghandlers

import (
	"context"
	"errors"
	"log/slog"

	matchmakingservice "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/application"
	matchmakingevents "github.com/Black-And-White-Club/bout-league/pkg/events/matchmaking"
	"github.com/Black-And-White-Club/bout-league/pkg/handlerwrapper"
	"github.com/Black-And-White-Club/bout-league/pkg/observability/attr"
	"go.opentelemetry.io/otel/trace"
)

// MatchmakingHandlers implements the Handlers interface.
type MatchmakingHandlers struct {
	service matchmakingservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewMatchmakingHandlers creates a new MatchmakingHandlers instance.
func NewMatchmakingHandlers(
	service matchmakingservice.Service,
	logger *slog.Logger,
	tracer trace.Tracer,
) Handlers {
	return &MatchmakingHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

// failed turns a domain failure into a failure event. Policy rejections and
// other expected refusals are logged at info; they are outcomes, not faults.
func (h *MatchmakingHandlers) failed(ctx context.Context, topic, operation, subject string, err error) []handlerwrapper.Result {
	kind := matchmakingservice.KindOf(err)
	payload := &matchmakingevents.OperationFailedPayloadV1{
		Operation: operation,
		Kind:      kind.String(),
		Reason:    err.Error(),
		Subject:   subject,
	}
	var rejection *matchmakingservice.PolicyRejection
	if errors.As(err, &rejection) {
		payload.Check = string(rejection.Check)
		payload.Reasons = rejection.Reasons
	}

	h.logger.InfoContext(ctx, operation+" refused",
		attr.ExtractCorrelationID(ctx),
		attr.String("subject", subject),
		attr.String("kind", kind.String()),
		attr.Error(err),
	)
	return []handlerwrapper.Result{{Topic: topic, Payload: payload}}
}
