package matchmakinghandlers

import (
	"context"
	"fmt"

	matchmakingdb "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/infrastructure/repositories"
	matchmakingevents "github.com/Black-And-White-Club/bout-league/pkg/events/matchmaking"
	"github.com/Black-And-White-Club/bout-league/pkg/handlerwrapper"
	"github.com/Black-And-White-Club/bout-league/pkg/observability/attr"
	"github.com/Black-And-White-Club/bout-league/pkg/results"
)

// HandleRematchRequested validates a callout and stores the request.
func (h *MatchmakingHandlers) HandleRematchRequested(ctx context.Context, payload *matchmakingevents.RematchRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "MatchmakingHandlers.HandleRematchRequested")
	defer span.End()

	h.logger.InfoContext(ctx, "Rematch callout received",
		attr.ExtractCorrelationID(ctx),
		attr.String("caller_id", payload.CallerID),
		attr.String("target_id", payload.TargetID),
	)

	result, err := h.service.RequestRematch(ctx, payload.CallerID, payload.TargetID)
	if err != nil {
		return nil, fmt.Errorf("failed to request rematch: %w", err)
	}
	if result.IsFailure() {
		return h.failed(ctx, matchmakingevents.RematchFailedV1, "RequestRematch", payload.CallerID, *result.Failure), nil
	}
	return []handlerwrapper.Result{{
		Topic:   matchmakingevents.RematchCreatedV1,
		Payload: &matchmakingevents.RematchEventPayloadV1{Request: RematchToV1(*result.Success)},
	}}, nil
}

// HandleRematchResponse applies the target's answer to a callout.
func (h *MatchmakingHandlers) HandleRematchResponse(ctx context.Context, payload *matchmakingevents.RematchResponsePayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "MatchmakingHandlers.HandleRematchResponse")
	defer span.End()

	result, err := h.service.RespondToRematch(ctx, payload.RequestID, payload.ResponderID, payload.Accept)
	if err != nil {
		return nil, fmt.Errorf("failed to respond to rematch: %w", err)
	}
	if result.IsFailure() {
		return h.failed(ctx, matchmakingevents.RematchFailedV1, "RespondToRematch", payload.RequestID.String(), *result.Failure), nil
	}

	decision := *result.Success
	out := &matchmakingevents.RematchEventPayloadV1{Request: RematchToV1(decision.Request)}
	if decision.Pairing != nil {
		p := PairingToV1(decision.Pairing)
		out.Pairing = &p
	}
	return []handlerwrapper.Result{{Topic: matchmakingevents.RematchDecidedV1, Payload: out}}, nil
}

// HandleSparringInviteRequested sends a sparring invitation.
func (h *MatchmakingHandlers) HandleSparringInviteRequested(ctx context.Context, payload *matchmakingevents.SparringInviteRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "MatchmakingHandlers.HandleSparringInviteRequested")
	defer span.End()

	result, err := h.service.InviteSparring(ctx, payload.InviterID, payload.InviteeID)
	return h.sparringResults(ctx, "InviteSparring", payload.InviterID, result, err)
}

// HandleSparringResponse applies the invitee's answer.
func (h *MatchmakingHandlers) HandleSparringResponse(ctx context.Context, payload *matchmakingevents.SparringResponsePayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "MatchmakingHandlers.HandleSparringResponse")
	defer span.End()

	result, err := h.service.RespondToSparring(ctx, payload.InvitationID, payload.ResponderID, payload.Accept)
	return h.sparringResults(ctx, "RespondToSparring", payload.InvitationID.String(), result, err)
}

// HandleSparringCompleteRequested closes an accepted session.
func (h *MatchmakingHandlers) HandleSparringCompleteRequested(ctx context.Context, payload *matchmakingevents.SparringCompletePayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "MatchmakingHandlers.HandleSparringCompleteRequested")
	defer span.End()

	result, err := h.service.CompleteSparring(ctx, payload.InvitationID, payload.CompetitorID)
	return h.sparringResults(ctx, "CompleteSparring", payload.InvitationID.String(), result, err)
}

func (h *MatchmakingHandlers) sparringResults(
	ctx context.Context,
	operation, subject string,
	result results.OperationResult[*matchmakingdb.SparringInvitation, error],
	err error,
) ([]handlerwrapper.Result, error) {
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	if result.IsFailure() {
		return h.failed(ctx, matchmakingevents.SparringFailedV1, operation, subject, *result.Failure), nil
	}
	return []handlerwrapper.Result{{
		Topic:   matchmakingevents.SparringUpdatedV1,
		Payload: &matchmakingevents.SparringEventPayloadV1{Invitation: SparringToV1(*result.Success)},
	}}, nil
}
