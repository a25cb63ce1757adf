package matchmakinghandlers

import (
	"context"

	matchmakingevents "github.com/Black-And-White-Club/bout-league/pkg/events/matchmaking"
	"github.com/Black-And-White-Club/bout-league/pkg/handlerwrapper"
)

// Handlers defines the interface for matchmaking event handlers.
type Handlers interface {
	// --- PAIRINGS ---

	HandlePairingRequested(ctx context.Context, payload *matchmakingevents.PairingRequestedPayloadV1) ([]handlerwrapper.Result, error)
	HandlePairingAcceptRequested(ctx context.Context, payload *matchmakingevents.PairingResponsePayloadV1) ([]handlerwrapper.Result, error)
	HandlePairingDeclineRequested(ctx context.Context, payload *matchmakingevents.PairingResponsePayloadV1) ([]handlerwrapper.Result, error)
	HandlePairingCancelRequested(ctx context.Context, payload *matchmakingevents.PairingCancelRequestedPayloadV1) ([]handlerwrapper.Result, error)

	// HandleResultSubmitted reconciles a declared result and reports whether the
	// pairing completed, went to dispute or waits for the opponent.
	HandleResultSubmitted(ctx context.Context, payload *matchmakingevents.ResultSubmittedPayloadV1) ([]handlerwrapper.Result, error)

	// --- CALLOUTS AND SPARRING ---

	HandleRematchRequested(ctx context.Context, payload *matchmakingevents.RematchRequestedPayloadV1) ([]handlerwrapper.Result, error)
	HandleRematchResponse(ctx context.Context, payload *matchmakingevents.RematchResponsePayloadV1) ([]handlerwrapper.Result, error)
	HandleSparringInviteRequested(ctx context.Context, payload *matchmakingevents.SparringInviteRequestedPayloadV1) ([]handlerwrapper.Result, error)
	HandleSparringResponse(ctx context.Context, payload *matchmakingevents.SparringResponsePayloadV1) ([]handlerwrapper.Result, error)
	HandleSparringCompleteRequested(ctx context.Context, payload *matchmakingevents.SparringCompletePayloadV1) ([]handlerwrapper.Result, error)

	// --- LEAGUE JOBS ---

	HandleSweepRequested(ctx context.Context, payload *matchmakingevents.JobRequestedPayloadV1) ([]handlerwrapper.Result, error)
	HandleRotationRequested(ctx context.Context, payload *matchmakingevents.JobRequestedPayloadV1) ([]handlerwrapper.Result, error)
}
