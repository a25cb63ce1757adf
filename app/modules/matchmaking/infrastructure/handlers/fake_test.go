package matchmakinghandlers

import (
	"context"
	"sync"

	matchmakingservice "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/application"
	matchmakingdb "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/infrastructure/repositories"
	"github.com/Black-And-White-Club/bout-league/pkg/results"
	"github.com/google/uuid"
)

// ------------------------
// Fake Matchmaking Service
// ------------------------

type FakeService struct {
	mu    sync.Mutex
	trace []string

	RequestPairingFunc           func(ctx context.Context, req matchmakingservice.PairingRequest) (results.OperationResult[*matchmakingservice.PairingCreated, error], error)
	CreateForcedPairingFunc      func(ctx context.Context, req matchmakingservice.ForcedPairingRequest) (results.OperationResult[*matchmakingservice.PairingCreated, error], error)
	AcceptPairingFunc            func(ctx context.Context, pairingID uuid.UUID, competitorID string) (results.OperationResult[*matchmakingdb.Pairing, error], error)
	DeclinePairingFunc           func(ctx context.Context, pairingID uuid.UUID, competitorID string) (results.OperationResult[*matchmakingdb.Pairing, error], error)
	CancelPairingFunc            func(ctx context.Context, req matchmakingservice.CancelPairingRequest) (results.OperationResult[*matchmakingdb.Pairing, error], error)
	SubmitResultFunc             func(ctx context.Context, req matchmakingservice.SubmitResultRequest) (results.OperationResult[*matchmakingservice.SubmissionResult, error], error)
	ResolveDisputeFunc           func(ctx context.Context, req matchmakingservice.ResolveDisputeRequest) (results.OperationResult[*matchmakingservice.DisputeResolution, error], error)
	RunMatchmakingSweepFunc      func(ctx context.Context) (results.OperationResult[*matchmakingservice.SweepResult, error], error)
	RunWeeklyRotationFunc        func(ctx context.Context) (results.OperationResult[*matchmakingservice.RotationResult, error], error)
	ExpirePendingPairingFunc     func(ctx context.Context, pairingID uuid.UUID) (results.OperationResult[matchmakingservice.ExpiryResult, error], error)
	ExpireRematchRequestFunc     func(ctx context.Context, requestID uuid.UUID) (results.OperationResult[matchmakingservice.ExpiryResult, error], error)
	ExpireSparringInvitationFunc func(ctx context.Context, invitationID uuid.UUID) (results.OperationResult[matchmakingservice.ExpiryResult, error], error)
	RequestRematchFunc           func(ctx context.Context, callerID, targetID string) (results.OperationResult[*matchmakingdb.RematchRequest, error], error)
	RespondToRematchFunc         func(ctx context.Context, requestID uuid.UUID, responderID string, accept bool) (results.OperationResult[*matchmakingservice.RematchDecision, error], error)
	CheckSparringEligibilityFunc func(ctx context.Context, competitorID string) (results.OperationResult[*matchmakingservice.Eligibility, error], error)
	InviteSparringFunc           func(ctx context.Context, inviterID, inviteeID string) (results.OperationResult[*matchmakingdb.SparringInvitation, error], error)
	RespondToSparringFunc        func(ctx context.Context, invitationID uuid.UUID, responderID string, accept bool) (results.OperationResult[*matchmakingdb.SparringInvitation, error], error)
	CompleteSparringFunc         func(ctx context.Context, invitationID uuid.UUID, competitorID string) (results.OperationResult[*matchmakingdb.SparringInvitation, error], error)
	GetPairingFunc               func(ctx context.Context, pairingID uuid.UUID) (results.OperationResult[*matchmakingdb.Pairing, error], error)
	ListActivePairingsFunc       func(ctx context.Context) (results.OperationResult[[]matchmakingdb.Pairing, error], error)
	ListOpenDisputesFunc         func(ctx context.Context) (results.OperationResult[[]matchmakingdb.Dispute, error], error)
}

func NewFakeService() *FakeService {
	return &FakeService{trace: []string{}}
}

func (f *FakeService) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

// --- Service Interface Implementation ---

func (f *FakeService) RequestPairing(ctx context.Context, req matchmakingservice.PairingRequest) (results.OperationResult[*matchmakingservice.PairingCreated, error], error) {
	f.record("RequestPairing")
	if f.RequestPairingFunc != nil {
		return f.RequestPairingFunc(ctx, req)
	}
	return results.OperationResult[*matchmakingservice.PairingCreated, error]{}, nil
}

func (f *FakeService) CreateForcedPairing(ctx context.Context, req matchmakingservice.ForcedPairingRequest) (results.OperationResult[*matchmakingservice.PairingCreated, error], error) {
	f.record("CreateForcedPairing")
	if f.CreateForcedPairingFunc != nil {
		return f.CreateForcedPairingFunc(ctx, req)
	}
	return results.OperationResult[*matchmakingservice.PairingCreated, error]{}, nil
}

func (f *FakeService) AcceptPairing(ctx context.Context, pairingID uuid.UUID, competitorID string) (results.OperationResult[*matchmakingdb.Pairing, error], error) {
	f.record("AcceptPairing")
	if f.AcceptPairingFunc != nil {
		return f.AcceptPairingFunc(ctx, pairingID, competitorID)
	}
	return results.OperationResult[*matchmakingdb.Pairing, error]{}, nil
}

func (f *FakeService) DeclinePairing(ctx context.Context, pairingID uuid.UUID, competitorID string) (results.OperationResult[*matchmakingdb.Pairing, error], error) {
	f.record("DeclinePairing")
	if f.DeclinePairingFunc != nil {
		return f.DeclinePairingFunc(ctx, pairingID, competitorID)
	}
	return results.OperationResult[*matchmakingdb.Pairing, error]{}, nil
}

func (f *FakeService) CancelPairing(ctx context.Context, req matchmakingservice.CancelPairingRequest) (results.OperationResult[*matchmakingdb.Pairing, error], error) {
	f.record("CancelPairing")
	if f.CancelPairingFunc != nil {
		return f.CancelPairingFunc(ctx, req)
	}
	return results.OperationResult[*matchmakingdb.Pairing, error]{}, nil
}

func (f *FakeService) SubmitResult(ctx context.Context, req matchmakingservice.SubmitResultRequest) (results.OperationResult[*matchmakingservice.SubmissionResult, error], error) {
	f.record("SubmitResult")
	if f.SubmitResultFunc != nil {
		return f.SubmitResultFunc(ctx, req)
	}
	return results.OperationResult[*matchmakingservice.SubmissionResult, error]{}, nil
}

func (f *FakeService) ResolveDispute(ctx context.Context, req matchmakingservice.ResolveDisputeRequest) (results.OperationResult[*matchmakingservice.DisputeResolution, error], error) {
	f.record("ResolveDispute")
	if f.ResolveDisputeFunc != nil {
		return f.ResolveDisputeFunc(ctx, req)
	}
	return results.OperationResult[*matchmakingservice.DisputeResolution, error]{}, nil
}

func (f *FakeService) RunMatchmakingSweep(ctx context.Context) (results.OperationResult[*matchmakingservice.SweepResult, error], error) {
	f.record("RunMatchmakingSweep")
	if f.RunMatchmakingSweepFunc != nil {
		return f.RunMatchmakingSweepFunc(ctx)
	}
	return results.OperationResult[*matchmakingservice.SweepResult, error]{}, nil
}

func (f *FakeService) RunWeeklyRotation(ctx context.Context) (results.OperationResult[*matchmakingservice.RotationResult, error], error) {
	f.record("RunWeeklyRotation")
	if f.RunWeeklyRotationFunc != nil {
		return f.RunWeeklyRotationFunc(ctx)
	}
	return results.OperationResult[*matchmakingservice.RotationResult, error]{}, nil
}

func (f *FakeService) ExpirePendingPairing(ctx context.Context, pairingID uuid.UUID) (results.OperationResult[matchmakingservice.ExpiryResult, error], error) {
	f.record("ExpirePendingPairing")
	if f.ExpirePendingPairingFunc != nil {
		return f.ExpirePendingPairingFunc(ctx, pairingID)
	}
	return results.OperationResult[matchmakingservice.ExpiryResult, error]{}, nil
}

func (f *FakeService) ExpireRematchRequest(ctx context.Context, requestID uuid.UUID) (results.OperationResult[matchmakingservice.ExpiryResult, error], error) {
	f.record("ExpireRematchRequest")
	if f.ExpireRematchRequestFunc != nil {
		return f.ExpireRematchRequestFunc(ctx, requestID)
	}
	return results.OperationResult[matchmakingservice.ExpiryResult, error]{}, nil
}

func (f *FakeService) ExpireSparringInvitation(ctx context.Context, invitationID uuid.UUID) (results.OperationResult[matchmakingservice.ExpiryResult, error], error) {
	f.record("ExpireSparringInvitation")
	if f.ExpireSparringInvitationFunc != nil {
		return f.ExpireSparringInvitationFunc(ctx, invitationID)
	}
	return results.OperationResult[matchmakingservice.ExpiryResult, error]{}, nil
}

func (f *FakeService) RequestRematch(ctx context.Context, callerID, targetID string) (results.OperationResult[*matchmakingdb.RematchRequest, error], error) {
	f.record("RequestRematch")
	if f.RequestRematchFunc != nil {
		return f.RequestRematchFunc(ctx, callerID, targetID)
	}
	return results.OperationResult[*matchmakingdb.RematchRequest, error]{}, nil
}

func (f *FakeService) RespondToRematch(ctx context.Context, requestID uuid.UUID, responderID string, accept bool) (results.OperationResult[*matchmakingservice.RematchDecision, error], error) {
	f.record("RespondToRematch")
	if f.RespondToRematchFunc != nil {
		return f.RespondToRematchFunc(ctx, requestID, responderID, accept)
	}
	return results.OperationResult[*matchmakingservice.RematchDecision, error]{}, nil
}

func (f *FakeService) CheckSparringEligibility(ctx context.Context, competitorID string) (results.OperationResult[*matchmakingservice.Eligibility, error], error) {
	f.record("CheckSparringEligibility")
	if f.CheckSparringEligibilityFunc != nil {
		return f.CheckSparringEligibilityFunc(ctx, competitorID)
	}
	return results.OperationResult[*matchmakingservice.Eligibility, error]{}, nil
}

func (f *FakeService) InviteSparring(ctx context.Context, inviterID, inviteeID string) (results.OperationResult[*matchmakingdb.SparringInvitation, error], error) {
	f.record("InviteSparring")
	if f.InviteSparringFunc != nil {
		return f.InviteSparringFunc(ctx, inviterID, inviteeID)
	}
	return results.OperationResult[*matchmakingdb.SparringInvitation, error]{}, nil
}

func (f *FakeService) RespondToSparring(ctx context.Context, invitationID uuid.UUID, responderID string, accept bool) (results.OperationResult[*matchmakingdb.SparringInvitation, error], error) {
	f.record("RespondToSparring")
	if f.RespondToSparringFunc != nil {
		return f.RespondToSparringFunc(ctx, invitationID, responderID, accept)
	}
	return results.OperationResult[*matchmakingdb.SparringInvitation, error]{}, nil
}

func (f *FakeService) CompleteSparring(ctx context.Context, invitationID uuid.UUID, competitorID string) (results.OperationResult[*matchmakingdb.SparringInvitation, error], error) {
	f.record("CompleteSparring")
	if f.CompleteSparringFunc != nil {
		return f.CompleteSparringFunc(ctx, invitationID, competitorID)
	}
	return results.OperationResult[*matchmakingdb.SparringInvitation, error]{}, nil
}

func (f *FakeService) GetPairing(ctx context.Context, pairingID uuid.UUID) (results.OperationResult[*matchmakingdb.Pairing, error], error) {
	f.record("GetPairing")
	if f.GetPairingFunc != nil {
		return f.GetPairingFunc(ctx, pairingID)
	}
	return results.OperationResult[*matchmakingdb.Pairing, error]{}, nil
}

func (f *FakeService) ListActivePairings(ctx context.Context) (results.OperationResult[[]matchmakingdb.Pairing, error], error) {
	f.record("ListActivePairings")
	if f.ListActivePairingsFunc != nil {
		return f.ListActivePairingsFunc(ctx)
	}
	return results.OperationResult[[]matchmakingdb.Pairing, error]{}, nil
}

func (f *FakeService) ListOpenDisputes(ctx context.Context) (results.OperationResult[[]matchmakingdb.Dispute, error], error) {
	f.record("ListOpenDisputes")
	if f.ListOpenDisputesFunc != nil {
		return f.ListOpenDisputesFunc(ctx)
	}
	return results.OperationResult[[]matchmakingdb.Dispute, error]{}, nil
}

// --- Accessors for assertions ---

func (f *FakeService) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// Ensure the fake actually satisfies the interface
var _ matchmakingservice.Service = (*FakeService)(nil)
