package matchmakinghandlers

import (
	"context"
	"fmt"

	matchmakingservice "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/application"
	matchmakingevents "github.com/Black-And-White-Club/bout-league/pkg/events/matchmaking"
	"github.com/Black-And-White-Club/bout-league/pkg/handlerwrapper"
	"github.com/Black-And-White-Club/bout-league/pkg/observability/attr"
)

// HandlePairingRequested creates a manual pairing between two competitors.
func (h *MatchmakingHandlers) HandlePairingRequested(ctx context.Context, payload *matchmakingevents.PairingRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "MatchmakingHandlers.HandlePairingRequested")
	defer span.End()

	h.logger.InfoContext(ctx, "Pairing request received",
		attr.ExtractCorrelationID(ctx),
		attr.String("requester_id", payload.RequesterID),
		attr.String("opponent_id", payload.OpponentID),
	)

	result, err := h.service.RequestPairing(ctx, matchmakingservice.PairingRequest{
		RequesterID:  payload.RequesterID,
		OpponentID:   payload.OpponentID,
		ScheduledFor: payload.ScheduledFor,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request pairing: %w", err)
	}
	if result.IsFailure() {
		return h.failed(ctx, matchmakingevents.PairingFailedV1, "RequestPairing", payload.RequesterID, *result.Failure), nil
	}

	created := *result.Success
	return []handlerwrapper.Result{{
		Topic: matchmakingevents.PairingCreatedV1,
		Payload: &matchmakingevents.PairingEventPayloadV1{
			Pairing:         PairingToV1(created.Pairing),
			ConsentRequired: created.Verdict.RequiresConsent,
		},
	}}, nil
}

// HandlePairingAcceptRequested moves a pending pairing to scheduled.
func (h *MatchmakingHandlers) HandlePairingAcceptRequested(ctx context.Context, payload *matchmakingevents.PairingResponsePayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "MatchmakingHandlers.HandlePairingAcceptRequested")
	defer span.End()

	result, err := h.service.AcceptPairing(ctx, payload.PairingID, payload.CompetitorID)
	if err != nil {
		return nil, fmt.Errorf("failed to accept pairing: %w", err)
	}
	if result.IsFailure() {
		return h.failed(ctx, matchmakingevents.PairingFailedV1, "AcceptPairing", payload.PairingID.String(), *result.Failure), nil
	}
	return []handlerwrapper.Result{{
		Topic:   matchmakingevents.PairingScheduledV1,
		Payload: &matchmakingevents.PairingEventPayloadV1{Pairing: PairingToV1(*result.Success)},
	}}, nil
}

// HandlePairingDeclineRequested cancels a pending pairing on the opponent's refusal.
func (h *MatchmakingHandlers) HandlePairingDeclineRequested(ctx context.Context, payload *matchmakingevents.PairingResponsePayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "MatchmakingHandlers.HandlePairingDeclineRequested")
	defer span.End()

	result, err := h.service.DeclinePairing(ctx, payload.PairingID, payload.CompetitorID)
	if err != nil {
		return nil, fmt.Errorf("failed to decline pairing: %w", err)
	}
	if result.IsFailure() {
		return h.failed(ctx, matchmakingevents.PairingFailedV1, "DeclinePairing", payload.PairingID.String(), *result.Failure), nil
	}
	return []handlerwrapper.Result{{
		Topic:   matchmakingevents.PairingCancelledV1,
		Payload: &matchmakingevents.PairingEventPayloadV1{Pairing: PairingToV1(*result.Success)},
	}}, nil
}

// HandlePairingCancelRequested cancels a pairing.
func (h *MatchmakingHandlers) HandlePairingCancelRequested(ctx context.Context, payload *matchmakingevents.PairingCancelRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "MatchmakingHandlers.HandlePairingCancelRequested")
	defer span.End()

	result, err := h.service.CancelPairing(ctx, matchmakingservice.CancelPairingRequest{
		PairingID:      payload.PairingID,
		ActorID:        payload.ActorID,
		Reason:         payload.Reason,
		Administrative: payload.Administrative,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to cancel pairing: %w", err)
	}
	if result.IsFailure() {
		return h.failed(ctx, matchmakingevents.PairingFailedV1, "CancelPairing", payload.PairingID.String(), *result.Failure), nil
	}
	return []handlerwrapper.Result{{
		Topic:   matchmakingevents.PairingCancelledV1,
		Payload: &matchmakingevents.PairingEventPayloadV1{Pairing: PairingToV1(*result.Success)},
	}}, nil
}

// HandleResultSubmitted records a declaration and publishes where reconciliation landed.
func (h *MatchmakingHandlers) HandleResultSubmitted(ctx context.Context, payload *matchmakingevents.ResultSubmittedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "MatchmakingHandlers.HandleResultSubmitted")
	defer span.End()

	h.logger.InfoContext(ctx, "Result submission received",
		attr.ExtractCorrelationID(ctx),
		attr.PairingID(payload.PairingID),
		attr.String("competitor_id", payload.CompetitorID),
		attr.String("outcome", payload.Outcome),
	)

	result, err := h.service.SubmitResult(ctx, matchmakingservice.SubmitResultRequest{
		PairingID:    payload.PairingID,
		CompetitorID: payload.CompetitorID,
		Outcome:      payload.Outcome,
		Method:       payload.Method,
		Round:        payload.Round,
		EvidenceRef:  payload.EvidenceRef,
		FightDate:    payload.FightDate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to submit result: %w", err)
	}
	if result.IsFailure() {
		return h.failed(ctx, matchmakingevents.ResultSubmitFailedV1, "SubmitResult", payload.PairingID.String(), *result.Failure), nil
	}

	sub := *result.Success
	switch sub.State {
	case matchmakingservice.SubmissionCompleted:
		return []handlerwrapper.Result{{
			Topic:   matchmakingevents.PairingCompletedV1,
			Payload: CompletionToV1(sub.Pairing, sub.Completion),
		}}, nil
	case matchmakingservice.SubmissionDisputed:
		out := &matchmakingevents.PairingDisputedPayloadV1{Pairing: PairingToV1(sub.Pairing)}
		if sub.Dispute != nil {
			out.DisputeID = sub.Dispute.ID
			out.Reason = sub.Dispute.Reason
		}
		return []handlerwrapper.Result{{Topic: matchmakingevents.PairingDisputedV1, Payload: out}}, nil
	default:
		return []handlerwrapper.Result{{
			Topic: matchmakingevents.ResultRecordedV1,
			Payload: &matchmakingevents.ResultRecordedPayloadV1{
				PairingID:    payload.PairingID,
				CompetitorID: payload.CompetitorID,
			},
		}}, nil
	}
}
