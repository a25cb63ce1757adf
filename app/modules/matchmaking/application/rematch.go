package matchmakingservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	matchmakingdomain "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/domain"
	matchmakingdb "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/infrastructure/repositories"
	"github.com/Black-And-White-Club/bout-league/pkg/observability/attr"
	"github.com/Black-And-White-Club/bout-league/pkg/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type rematchResult = results.OperationResult[*matchmakingdb.RematchRequest, error]
type rematchDecisionResult = results.OperationResult[*RematchDecision, error]

// RequestRematch records a callout between two competitors who have fought before.
func (s *MatchmakingService) RequestRematch(ctx context.Context, callerID, targetID string) (rematchResult, error) {
	result, err := withTelemetry(s, ctx, "RequestRematch", callerID, func(ctx context.Context) (rematchResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (rematchResult, error) {
			return s.requestRematchLogic(ctx, db, callerID, targetID)
		})
	})
	if err != nil || !result.IsSuccess() {
		return result, err
	}

	req := *result.Success
	if err := s.jobs.ScheduleRematchExpiry(ctx, req.ID, req.ExpiresAt); err != nil {
		s.logger.WarnContext(ctx, "Failed to schedule rematch expiry",
			attr.ExtractCorrelationID(ctx),
			attr.String("rematch_id", req.ID.String()),
			attr.Error(err),
		)
	}
	s.notify(ctx, Notification{
		Recipient: targetID,
		Category:  CategoryRematchRequested,
		Title:     "Rematch callout",
		Message:   fmt.Sprintf("%s is calling you out for a rematch.", callerID),
		DeepLink:  "/rematches/" + req.ID.String(),
	})
	return result, nil
}

func (s *MatchmakingService) requestRematchLogic(ctx context.Context, db bun.IDB, callerID, targetID string) (rematchResult, error) {
	if callerID == targetID {
		return failure[*matchmakingdb.RematchRequest](ErrSelfPairing), nil
	}
	caller, target, err := s.loadPair(ctx, db, callerID, targetID)
	if err != nil {
		if errors.Is(err, ErrCompetitorNotFound) {
			return failure[*matchmakingdb.RematchRequest](err), nil
		}
		return rematchResult{}, err
	}
	if !caller.Active || !target.Active {
		return failure[*matchmakingdb.RematchRequest](ErrCompetitorInactive), nil
	}

	// Prior encounter comes first so an unmet pair is refused whatever its score.
	encountered, err := s.repo.HasEncounter(ctx, db, callerID, targetID)
	if err != nil {
		return rematchResult{}, fmt.Errorf("failed to check prior encounters: %w", err)
	}
	if !encountered {
		return failure[*matchmakingdb.RematchRequest](rejectionFromVerdict(matchmakingdomain.EvaluateRematch(
			matchmakingdomain.Snapshot{ID: callerID}, matchmakingdomain.Snapshot{ID: targetID}, false))), nil
	}

	snaps, err := s.snapshots(ctx, db, caller, target)
	if err != nil {
		return rematchResult{}, err
	}
	verdict := matchmakingdomain.EvaluateRematch(snaps[0], snaps[1], true)
	if !verdict.Fair {
		return failure[*matchmakingdb.RematchRequest](rejectionFromVerdict(verdict)), nil
	}

	if _, err := s.repo.FindPendingRematch(ctx, db, callerID, targetID); err == nil {
		return failure[*matchmakingdb.RematchRequest](ErrRequestAlreadyPending), nil
	} else if !errors.Is(err, matchmakingdb.ErrNotFound) {
		return rematchResult{}, fmt.Errorf("failed to check pending rematches: %w", err)
	}
	if _, err := s.repo.FindActivePairingBetween(ctx, db, callerID, targetID); err == nil {
		return failure[*matchmakingdb.RematchRequest](ErrAlreadyPaired), nil
	} else if !errors.Is(err, matchmakingdb.ErrNotFound) {
		return rematchResult{}, fmt.Errorf("failed to check existing pairing: %w", err)
	}

	now := s.now()
	req := &matchmakingdb.RematchRequest{
		ID:            uuid.New(),
		CallerID:      callerID,
		TargetID:      targetID,
		FairnessScore: verdict.Score,
		Status:        matchmakingdomain.RequestPending,
		ExpiresAt:     now.Add(s.cfg.RematchExpiry),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.CreateRematchRequest(ctx, db, req); err != nil {
		return rematchResult{}, fmt.Errorf("failed to create rematch request: %w", err)
	}
	return success(req), nil
}

// RespondToRematch lets the target accept or decline a callout. Acceptance
// schedules a rematch pairing.
func (s *MatchmakingService) RespondToRematch(ctx context.Context, requestID uuid.UUID, responderID string, accept bool) (rematchDecisionResult, error) {
	result, err := withTelemetry(s, ctx, "RespondToRematch", requestID.String(), func(ctx context.Context) (rematchDecisionResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (rematchDecisionResult, error) {
			return s.respondToRematchLogic(ctx, db, requestID, responderID, accept)
		})
	})
	if err != nil || !result.IsSuccess() {
		return result, err
	}

	out := *result.Success
	if out.Pairing != nil {
		s.notify(ctx, pairingNotes(out.Pairing, CategoryPairingScheduled, "Rematch scheduled",
			fmt.Sprintf("Your rematch is scheduled for %s.", out.Pairing.ScheduledAt.Format(time.RFC1123)))...)
	} else {
		s.notify(ctx, Notification{
			Recipient: out.Request.CallerID,
			Category:  CategoryRematchResponse,
			Title:     "Rematch declined",
			Message:   fmt.Sprintf("%s declined your rematch callout.", out.Request.TargetID),
			DeepLink:  "/rematches/" + out.Request.ID.String(),
		})
	}
	return result, nil
}

func (s *MatchmakingService) respondToRematchLogic(ctx context.Context, db bun.IDB, requestID uuid.UUID, responderID string, accept bool) (rematchDecisionResult, error) {
	req, err := s.repo.GetRematchRequest(ctx, db, requestID)
	if err != nil {
		if errors.Is(err, matchmakingdb.ErrNotFound) {
			return failure[*RematchDecision](ErrRematchNotFound), nil
		}
		return rematchDecisionResult{}, fmt.Errorf("failed to get rematch request: %w", err)
	}
	if req.TargetID != responderID {
		return failure[*RematchDecision](ErrNotRecipient), nil
	}
	if req.Status != matchmakingdomain.RequestPending {
		return failure[*RematchDecision](fmt.Errorf("%w: request is %s", ErrInvalidTransition, req.Status)), nil
	}

	now := s.now()
	if !now.Before(req.ExpiresAt) {
		if err := s.setRematchStatus(ctx, db, req, matchmakingdomain.RequestExpired, nil); err != nil {
			return rematchDecisionResult{}, err
		}
		return failure[*RematchDecision](ErrRequestExpired), nil
	}

	if !accept {
		if err := s.setRematchStatus(ctx, db, req, matchmakingdomain.RequestDeclined, nil); err != nil {
			return rematchDecisionResult{}, err
		}
		return success(&RematchDecision{Request: req}), nil
	}

	// Standings may have moved since the callout.
	caller, target, err := s.loadPair(ctx, db, req.CallerID, req.TargetID)
	if err != nil {
		if errors.Is(err, ErrCompetitorNotFound) {
			return failure[*RematchDecision](err), nil
		}
		return rematchDecisionResult{}, err
	}
	snaps, err := s.snapshots(ctx, db, caller, target)
	if err != nil {
		return rematchDecisionResult{}, err
	}
	verdict := matchmakingdomain.EvaluateRematch(snaps[0], snaps[1], true)
	if !verdict.Fair {
		return failure[*RematchDecision](rejectionFromVerdict(verdict)), nil
	}

	callerID := req.CallerID
	p := &matchmakingdb.Pairing{
		ID:                 uuid.New(),
		CompetitorA:        caller.ID,
		CompetitorB:        target.ID,
		WeightClass:        caller.WeightClass,
		Status:             matchmakingdomain.StatusScheduled,
		MatchType:          matchmakingdomain.MatchTypeRematch,
		CompatibilityScore: verdict.Score,
		ScheduledAt:        s.systemScheduleTime(),
		RequestedBy:        &callerID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.createSystemPairing(ctx, db, p); err != nil {
		if errors.Is(err, ErrAlreadyPaired) || errors.Is(err, ErrPermissionDenied) {
			return failure[*RematchDecision](err), nil
		}
		return rematchDecisionResult{}, fmt.Errorf("failed to create rematch pairing: %w", err)
	}
	if err := s.setRematchStatus(ctx, db, req, matchmakingdomain.RequestScheduled, &p.ID); err != nil {
		return rematchDecisionResult{}, err
	}

	s.metrics.RecordPairingsCreated(ctx, string(p.MatchType), 1)
	return success(&RematchDecision{Request: req, Pairing: p}), nil
}

// ExpireRematchRequest marks a pending callout expired once it is past due.
func (s *MatchmakingService) ExpireRematchRequest(ctx context.Context, requestID uuid.UUID) (results.OperationResult[ExpiryResult, error], error) {
	return withTelemetry(s, ctx, "ExpireRematchRequest", requestID.String(), func(ctx context.Context) (results.OperationResult[ExpiryResult, error], error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[ExpiryResult, error], error) {
			req, err := s.repo.GetRematchRequest(ctx, db, requestID)
			if err != nil {
				if errors.Is(err, matchmakingdb.ErrNotFound) {
					return failure[ExpiryResult](ErrRematchNotFound), nil
				}
				return results.OperationResult[ExpiryResult, error]{}, fmt.Errorf("failed to get rematch request: %w", err)
			}
			if req.Status != matchmakingdomain.RequestPending || s.now().Before(req.ExpiresAt) {
				return success(ExpiryResult{}), nil
			}
			if err := s.setRematchStatus(ctx, db, req, matchmakingdomain.RequestExpired, nil); err != nil {
				if errors.Is(err, ErrInvalidTransition) {
					return success(ExpiryResult{}), nil
				}
				return results.OperationResult[ExpiryResult, error]{}, err
			}
			return success(ExpiryResult{Expired: true}), nil
		})
	})
}

func (s *MatchmakingService) setRematchStatus(ctx context.Context, db bun.IDB, req *matchmakingdb.RematchRequest, to matchmakingdomain.RequestStatus, pairingID *uuid.UUID) error {
	if err := s.repo.UpdateRematchStatus(ctx, db, req.ID, req.Status, to, pairingID); err != nil {
		if errors.Is(err, matchmakingdb.ErrNoRowsAffected) {
			return fmt.Errorf("%w: rematch request %s changed concurrently", ErrInvalidTransition, req.ID)
		}
		return fmt.Errorf("failed to update rematch request: %w", err)
	}
	req.Status = to
	req.UpdatedAt = s.now()
	if pairingID != nil {
		id := *pairingID
		req.PairingID = &id
	}
	return nil
}
