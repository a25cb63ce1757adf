package matchmakinghandlers

import (
	"context"
	"fmt"

	matchmakingevents "github.com/Black-And-White-Club/bout-league/pkg/events/matchmaking"
	"github.com/Black-And-White-Club/bout-league/pkg/handlerwrapper"
	"github.com/Black-And-White-Club/bout-league/pkg/observability/attr"
)

// HandleSweepRequested runs an on-demand matchmaking sweep.
func (h *MatchmakingHandlers) HandleSweepRequested(ctx context.Context, payload *matchmakingevents.JobRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "MatchmakingHandlers.HandleSweepRequested")
	defer span.End()

	h.logger.InfoContext(ctx, "Sweep requested",
		attr.ExtractCorrelationID(ctx),
		attr.String("requested_by", payload.RequestedBy),
	)

	result, err := h.service.RunMatchmakingSweep(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run matchmaking sweep: %w", err)
	}
	if result.IsFailure() {
		return h.failed(ctx, matchmakingevents.JobFailedV1, "RunMatchmakingSweep", payload.RequestedBy, *result.Failure), nil
	}
	return []handlerwrapper.Result{{
		Topic:   matchmakingevents.SweepCompletedV1,
		Payload: SweepToV1(*result.Success),
	}}, nil
}

// HandleRotationRequested runs the weekly rotation on demand.
func (h *MatchmakingHandlers) HandleRotationRequested(ctx context.Context, payload *matchmakingevents.JobRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "MatchmakingHandlers.HandleRotationRequested")
	defer span.End()

	h.logger.InfoContext(ctx, "Rotation requested",
		attr.ExtractCorrelationID(ctx),
		attr.String("requested_by", payload.RequestedBy),
	)

	result, err := h.service.RunWeeklyRotation(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run weekly rotation: %w", err)
	}
	if result.IsFailure() {
		return h.failed(ctx, matchmakingevents.JobFailedV1, "RunWeeklyRotation", payload.RequestedBy, *result.Failure), nil
	}

	return []handlerwrapper.Result{{
		Topic:   matchmakingevents.RotationCompletedV1,
		Payload: RotationToV1(*result.Success),
	}}, nil
}
