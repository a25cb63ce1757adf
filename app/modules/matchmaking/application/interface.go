package matchmakingservice

import (
	"context"

	matchmakingdb "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/infrastructure/repositories"
	"github.com/Black-And-White-Club/bout-league/pkg/results"
	"github.com/google/uuid"
)

// Service defines the contract for matchmaking operations.
// Domain failures are returned in the result's Failure; the error return is
// reserved for infrastructure problems.
type Service interface {
	// --- PAIRING LIFECYCLE ---

	RequestPairing(ctx context.Context, req PairingRequest) (results.OperationResult[*PairingCreated, error], error)
	CreateForcedPairing(ctx context.Context, req ForcedPairingRequest) (results.OperationResult[*PairingCreated, error], error)
	AcceptPairing(ctx context.Context, pairingID uuid.UUID, competitorID string) (results.OperationResult[*matchmakingdb.Pairing, error], error)
	DeclinePairing(ctx context.Context, pairingID uuid.UUID, competitorID string) (results.OperationResult[*matchmakingdb.Pairing, error], error)
	CancelPairing(ctx context.Context, req CancelPairingRequest) (results.OperationResult[*matchmakingdb.Pairing, error], error)

	// SubmitResult records one side's declaration and reconciles it against the other side's.
	SubmitResult(ctx context.Context, req SubmitResultRequest) (results.OperationResult[*SubmissionResult, error], error)
	ResolveDispute(ctx context.Context, req ResolveDisputeRequest) (results.OperationResult[*DisputeResolution, error], error)

	// --- LEAGUE JOBS ---

	RunMatchmakingSweep(ctx context.Context) (results.OperationResult[*SweepResult, error], error)
	RunWeeklyRotation(ctx context.Context) (results.OperationResult[*RotationResult, error], error)
	ExpirePendingPairing(ctx context.Context, pairingID uuid.UUID) (results.OperationResult[ExpiryResult, error], error)
	ExpireRematchRequest(ctx context.Context, requestID uuid.UUID) (results.OperationResult[ExpiryResult, error], error)
	ExpireSparringInvitation(ctx context.Context, invitationID uuid.UUID) (results.OperationResult[ExpiryResult, error], error)

	// --- CALLOUTS ---

	RequestRematch(ctx context.Context, callerID, targetID string) (results.OperationResult[*matchmakingdb.RematchRequest, error], error)
	RespondToRematch(ctx context.Context, requestID uuid.UUID, responderID string, accept bool) (results.OperationResult[*RematchDecision, error], error)

	// --- SPARRING ---

	CheckSparringEligibility(ctx context.Context, competitorID string) (results.OperationResult[*Eligibility, error], error)
	InviteSparring(ctx context.Context, inviterID, inviteeID string) (results.OperationResult[*matchmakingdb.SparringInvitation, error], error)
	RespondToSparring(ctx context.Context, invitationID uuid.UUID, responderID string, accept bool) (results.OperationResult[*matchmakingdb.SparringInvitation, error], error)
	CompleteSparring(ctx context.Context, invitationID uuid.UUID, competitorID string) (results.OperationResult[*matchmakingdb.SparringInvitation, error], error)

	// --- READS ---

	GetPairing(ctx context.Context, pairingID uuid.UUID) (results.OperationResult[*matchmakingdb.Pairing, error], error)
	ListActivePairings(ctx context.Context) (results.OperationResult[[]matchmakingdb.Pairing, error], error)
	ListOpenDisputes(ctx context.Context) (results.OperationResult[[]matchmakingdb.Dispute, error], error)
}

var _ Service = (*MatchmakingService)(nil)
