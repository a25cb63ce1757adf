package matchmakingservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	matchmakingdomain "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/domain"
	matchmakingdb "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/infrastructure/repositories"
	"github.com/Black-And-White-Club/bout-league/pkg/results"
	"github.com/uptrace/bun"
)

type resolutionResult = results.OperationResult[*DisputeResolution, error]

// ResolveDispute settles a disputed pairing administratively, either by
// declaring the result or by voiding the bout.
func (s *MatchmakingService) ResolveDispute(ctx context.Context, req ResolveDisputeRequest) (resolutionResult, error) {
	result, err := withTelemetry(s, ctx, "ResolveDispute", req.PairingID.String(), func(ctx context.Context) (resolutionResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (resolutionResult, error) {
			return s.resolveDisputeLogic(ctx, db, req)
		})
	})
	if err != nil || !result.IsSuccess() {
		return result, err
	}

	out := *result.Success
	if out.Completion != nil {
		s.afterCompletion(ctx, out.Pairing, out.Completion)
	} else {
		s.notify(ctx, pairingNotes(out.Pairing, CategoryDisputeResolved, "Dispute resolved", cancelMessage(out.Pairing))...)
	}
	return result, nil
}

func (s *MatchmakingService) resolveDisputeLogic(ctx context.Context, db bun.IDB, req ResolveDisputeRequest) (resolutionResult, error) {
	p, err := s.repo.GetPairingForUpdate(ctx, db, req.PairingID)
	if err != nil {
		if errors.Is(err, matchmakingdb.ErrNotFound) {
			return failure[*DisputeResolution](ErrPairingNotFound), nil
		}
		return resolutionResult{}, fmt.Errorf("failed to get pairing: %w", err)
	}
	if p.Status != matchmakingdomain.StatusDisputed {
		return failure[*DisputeResolution](fmt.Errorf("%w: pairing is %s", ErrInvalidTransition, p.Status)), nil
	}

	d, err := s.repo.GetOpenDispute(ctx, db, p.ID)
	if err != nil {
		if errors.Is(err, matchmakingdb.ErrNotFound) {
			return failure[*DisputeResolution](ErrDisputeNotFound), nil
		}
		return resolutionResult{}, fmt.Errorf("failed to get dispute: %w", err)
	}

	now := s.now()
	note := strings.TrimSpace(req.Note)

	if req.Void {
		reason := "dispute voided"
		if note != "" {
			reason = "dispute voided: " + note
		}
		err := s.transition(ctx, db, p, []matchmakingdomain.PairingStatus{matchmakingdomain.StatusDisputed}, matchmakingdb.PairingStatusUpdate{
			Status:       matchmakingdomain.StatusCancelled,
			CancelReason: &reason,
			UpdatedAt:    now,
		})
		if err != nil {
			return resolutionResult{}, err
		}
		if err := s.closeDispute(ctx, db, d, req.ResolvedBy, reason); err != nil {
			return resolutionResult{}, err
		}
		return success(&DisputeResolution{Pairing: p, Dispute: d}), nil
	}

	if !req.Draw && !p.Involves(req.WinnerID) {
		return failure[*DisputeResolution](fmt.Errorf("%w: winner %q", ErrNotParticipant, req.WinnerID)), nil
	}

	subs, err := s.repo.ListSubmissionsForPairing(ctx, db, p.ID)
	if err != nil {
		return resolutionResult{}, fmt.Errorf("failed to load submissions: %w", err)
	}
	a, b := splitSubmissions(subs, p.CompetitorA, p.CompetitorB)
	if a == nil || b == nil {
		return failure[*DisputeResolution](fmt.Errorf("%w: both competitors must have submitted", ErrInvalidTransition)), nil
	}

	method := matchmakingdomain.FinishMethod(strings.TrimSpace(req.Method))
	if method == "" {
		method = a.Method
		if req.WinnerID == b.CompetitorID {
			method = b.Method
		}
	}

	winnerID := ""
	for _, sub := range []*matchmakingdb.ResultSubmission{a, b} {
		sub.Method = method
		switch {
		case req.Draw:
			sub.Outcome = matchmakingdomain.OutcomeDraw
		case sub.CompetitorID == req.WinnerID:
			sub.Outcome = matchmakingdomain.OutcomeWin
			winnerID = sub.CompetitorID
		default:
			sub.Outcome = matchmakingdomain.OutcomeLoss
		}
	}

	completion, err := s.completePairing(ctx, db, p, []matchmakingdb.ResultSubmission{*a, *b}, winnerID, matchmakingdomain.StatusDisputed)
	if err != nil {
		return resolutionResult{}, err
	}

	resolution := "result declared"
	if note != "" {
		resolution = "result declared: " + note
	}
	if err := s.closeDispute(ctx, db, d, req.ResolvedBy, resolution); err != nil {
		return resolutionResult{}, err
	}
	return success(&DisputeResolution{Pairing: p, Dispute: d, Completion: completion}), nil
}

func (s *MatchmakingService) closeDispute(ctx context.Context, db bun.IDB, d *matchmakingdb.Dispute, resolvedBy, resolution string) error {
	now := s.now()
	if err := s.repo.ResolveDispute(ctx, db, d.ID, resolvedBy, resolution, now); err != nil {
		return fmt.Errorf("failed to resolve dispute: %w", err)
	}
	d.Status = matchmakingdomain.DisputeResolved
	d.ResolvedBy = &resolvedBy
	d.Resolution = &resolution
	d.ResolvedAt = &now
	return nil
}

// ListOpenDisputes returns every unresolved dispute.
func (s *MatchmakingService) ListOpenDisputes(ctx context.Context) (results.OperationResult[[]matchmakingdb.Dispute, error], error) {
	return withTelemetry(s, ctx, "ListOpenDisputes", "all", func(ctx context.Context) (results.OperationResult[[]matchmakingdb.Dispute, error], error) {
		rows, err := s.repo.ListOpenDisputes(ctx, nil)
		if err != nil {
			return results.OperationResult[[]matchmakingdb.Dispute, error]{}, fmt.Errorf("failed to list open disputes: %w", err)
		}
		return success(rows), nil
	})
}
