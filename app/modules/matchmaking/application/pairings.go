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

type pairingResult = results.OperationResult[*matchmakingdb.Pairing, error]
type createdResult = results.OperationResult[*PairingCreated, error]

// RequestPairing creates a manual pairing awaiting the opponent's acceptance.
func (s *MatchmakingService) RequestPairing(ctx context.Context, req PairingRequest) (createdResult, error) {
	result, err := withTelemetry(s, ctx, "RequestPairing", req.RequesterID, func(ctx context.Context) (createdResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (createdResult, error) {
			return s.requestPairingLogic(ctx, db, req)
		})
	})
	if err != nil || !result.IsSuccess() {
		return result, err
	}

	p := (*result.Success).Pairing
	s.schedulePairingExpiry(ctx, p)
	s.notify(ctx, Notification{
		Recipient: p.Opponent(req.RequesterID),
		Category:  CategoryPairingCreated,
		Title:     "New bout request",
		Message:   fmt.Sprintf("%s wants to fight you on %s.", req.RequesterID, p.ScheduledAt.Format(time.RFC1123)),
		DeepLink:  pairingLink(p.ID),
	})
	return result, nil
}

func (s *MatchmakingService) requestPairingLogic(ctx context.Context, db bun.IDB, req PairingRequest) (createdResult, error) {
	if req.RequesterID == req.OpponentID {
		return failure[*PairingCreated](ErrSelfPairing), nil
	}

	requester, opponent, err := s.loadPair(ctx, db, req.RequesterID, req.OpponentID)
	if err != nil {
		if errors.Is(err, ErrCompetitorNotFound) {
			return failure[*PairingCreated](err), nil
		}
		return createdResult{}, err
	}
	if !requester.Active || !opponent.Active {
		return failure[*PairingCreated](ErrCompetitorInactive), nil
	}

	snaps, err := s.snapshots(ctx, db, requester, opponent)
	if err != nil {
		return createdResult{}, err
	}
	verdict := matchmakingdomain.Evaluate(snaps[0], snaps[1], s.cfg.Policy)
	if !verdict.Fair {
		return failure[*PairingCreated](rejectionFromVerdict(verdict)), nil
	}

	now := s.now()
	scheduledAt := now.Add(s.cfg.ScheduleLead)
	if req.ScheduledFor != "" {
		scheduledAt, err = s.parser.Parse(req.ScheduledFor, now, locationFor(requester.Timezone))
		if err != nil {
			return failure[*PairingCreated](err), nil
		}
	}

	if _, err := s.repo.FindActivePairingBetween(ctx, db, requester.ID, opponent.ID); err == nil {
		return failure[*PairingCreated](ErrAlreadyPaired), nil
	} else if !errors.Is(err, matchmakingdb.ErrNotFound) {
		return createdResult{}, fmt.Errorf("failed to check existing pairing: %w", err)
	}

	requestedBy := requester.ID
	p := &matchmakingdb.Pairing{
		ID:                 uuid.New(),
		CompetitorA:        requester.ID,
		CompetitorB:        opponent.ID,
		WeightClass:        requester.WeightClass,
		Status:             matchmakingdomain.StatusPending,
		MatchType:          matchmakingdomain.MatchTypeManual,
		CompatibilityScore: verdict.Score,
		ScheduledAt:        scheduledAt,
		RequestedBy:        &requestedBy,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.CreatePairing(ctx, db, p); err != nil {
		switch {
		case errors.Is(err, matchmakingdb.ErrActivePairingExists):
			return failure[*PairingCreated](ErrAlreadyPaired), nil
		case errors.Is(err, matchmakingdb.ErrPermissionDenied):
			return failure[*PairingCreated](ErrPermissionDenied), nil
		}
		return createdResult{}, fmt.Errorf("failed to create pairing: %w", err)
	}

	s.metrics.RecordPairingsCreated(ctx, string(p.MatchType), 1)
	return success(&PairingCreated{Pairing: p, Verdict: verdict}), nil
}

// CreateForcedPairing creates a scheduled administrative pairing without fairness checks.
func (s *MatchmakingService) CreateForcedPairing(ctx context.Context, req ForcedPairingRequest) (createdResult, error) {
	result, err := withTelemetry(s, ctx, "CreateForcedPairing", req.AdminID, func(ctx context.Context) (createdResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (createdResult, error) {
			return s.createForcedPairingLogic(ctx, db, req)
		})
	})
	if err != nil || !result.IsSuccess() {
		return result, err
	}

	p := (*result.Success).Pairing
	s.notify(ctx, pairingNotes(p, CategoryPairingScheduled, "Bout scheduled",
		fmt.Sprintf("A league official scheduled your bout for %s.", p.ScheduledAt.Format(time.RFC1123)))...)
	return result, nil
}

func (s *MatchmakingService) createForcedPairingLogic(ctx context.Context, db bun.IDB, req ForcedPairingRequest) (createdResult, error) {
	if req.CompetitorA == req.CompetitorB {
		return failure[*PairingCreated](ErrSelfPairing), nil
	}
	a, b, err := s.loadPair(ctx, db, req.CompetitorA, req.CompetitorB)
	if err != nil {
		if errors.Is(err, ErrCompetitorNotFound) {
			return failure[*PairingCreated](err), nil
		}
		return createdResult{}, err
	}

	now := s.now()
	scheduledAt := req.ScheduledAt
	if scheduledAt.IsZero() {
		scheduledAt = s.systemScheduleTime()
	}
	if !scheduledAt.After(now) {
		return failure[*PairingCreated](ErrInvalidSchedule), nil
	}

	// Informational only; forced pairings bypass the policy.
	var verdict matchmakingdomain.Verdict
	if snaps, err := s.snapshots(ctx, db, a, b); err == nil {
		verdict = matchmakingdomain.Evaluate(snaps[0], snaps[1], s.cfg.Policy)
	} else {
		s.logger.WarnContext(ctx, "Could not score forced pairing",
			attr.ExtractCorrelationID(ctx),
			attr.Error(err),
		)
	}

	adminID := req.AdminID
	p := &matchmakingdb.Pairing{
		ID:                 uuid.New(),
		CompetitorA:        a.ID,
		CompetitorB:        b.ID,
		WeightClass:        a.WeightClass,
		Status:             matchmakingdomain.StatusScheduled,
		MatchType:          matchmakingdomain.MatchTypeForced,
		CompatibilityScore: verdict.Score,
		ScheduledAt:        scheduledAt,
		RequestedBy:        &adminID,
		BracketNodeID:      req.BracketNodeID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.createSystemPairing(ctx, db, p); err != nil {
		if errors.Is(err, ErrAlreadyPaired) || errors.Is(err, ErrPermissionDenied) {
			return failure[*PairingCreated](err), nil
		}
		return createdResult{}, fmt.Errorf("failed to create forced pairing: %w", err)
	}

	s.metrics.RecordPairingsCreated(ctx, string(p.MatchType), 1)
	return success(&PairingCreated{Pairing: p, Verdict: verdict}), nil
}

// AcceptPairing moves a pending pairing to scheduled. Only the invited side may accept.
func (s *MatchmakingService) AcceptPairing(ctx context.Context, pairingID uuid.UUID, competitorID string) (pairingResult, error) {
	result, err := withTelemetry(s, ctx, "AcceptPairing", pairingID.String(), func(ctx context.Context) (pairingResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (pairingResult, error) {
			return s.respondToPairingLogic(ctx, db, pairingID, competitorID, true)
		})
	})
	if err != nil || !result.IsSuccess() {
		return result, err
	}

	p := *result.Success
	s.notify(ctx, pairingNotes(p, CategoryPairingScheduled, "Bout confirmed",
		fmt.Sprintf("Your bout is confirmed for %s.", p.ScheduledAt.Format(time.RFC1123)))...)
	return result, nil
}

// DeclinePairing cancels a pending pairing on behalf of the invited side.
func (s *MatchmakingService) DeclinePairing(ctx context.Context, pairingID uuid.UUID, competitorID string) (pairingResult, error) {
	result, err := withTelemetry(s, ctx, "DeclinePairing", pairingID.String(), func(ctx context.Context) (pairingResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (pairingResult, error) {
			return s.respondToPairingLogic(ctx, db, pairingID, competitorID, false)
		})
	})
	if err != nil || !result.IsSuccess() {
		return result, err
	}

	p := *result.Success
	if p.RequestedBy != nil {
		s.notify(ctx, Notification{
			Recipient: *p.RequestedBy,
			Category:  CategoryPairingCancelled,
			Title:     "Bout request declined",
			Message:   fmt.Sprintf("%s declined your bout request.", competitorID),
			DeepLink:  pairingLink(p.ID),
		})
	}
	return result, nil
}

func (s *MatchmakingService) respondToPairingLogic(ctx context.Context, db bun.IDB, pairingID uuid.UUID, competitorID string, accept bool) (pairingResult, error) {
	p, err := s.repo.GetPairing(ctx, db, pairingID)
	if err != nil {
		if errors.Is(err, matchmakingdb.ErrNotFound) {
			return failure[*matchmakingdb.Pairing](ErrPairingNotFound), nil
		}
		return pairingResult{}, fmt.Errorf("failed to get pairing: %w", err)
	}
	if !p.Involves(competitorID) {
		return failure[*matchmakingdb.Pairing](ErrNotParticipant), nil
	}
	if p.RequestedBy != nil && *p.RequestedBy == competitorID {
		return failure[*matchmakingdb.Pairing](ErrNotRecipient), nil
	}

	update := matchmakingdb.PairingStatusUpdate{
		Status:    matchmakingdomain.StatusScheduled,
		UpdatedAt: s.now(),
	}
	if !accept {
		reason := "declined"
		update.Status = matchmakingdomain.StatusCancelled
		update.CancelReason = &reason
	}
	if err := s.transition(ctx, db, p, []matchmakingdomain.PairingStatus{matchmakingdomain.StatusPending}, update); err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return failure[*matchmakingdb.Pairing](err), nil
		}
		return pairingResult{}, err
	}
	return success(p), nil
}

// CancelPairing cancels a pairing. Participants may withdraw pending pairings;
// administrative cancellation also ends scheduled and disputed ones.
func (s *MatchmakingService) CancelPairing(ctx context.Context, req CancelPairingRequest) (pairingResult, error) {
	result, err := withTelemetry(s, ctx, "CancelPairing", req.PairingID.String(), func(ctx context.Context) (pairingResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (pairingResult, error) {
			return s.cancelPairingLogic(ctx, db, req)
		})
	})
	if err != nil || !result.IsSuccess() {
		return result, err
	}

	p := *result.Success
	s.notify(ctx, pairingNotes(p, CategoryPairingCancelled, "Bout cancelled", cancelMessage(p))...)
	return result, nil
}

func (s *MatchmakingService) cancelPairingLogic(ctx context.Context, db bun.IDB, req CancelPairingRequest) (pairingResult, error) {
	p, err := s.repo.GetPairingForUpdate(ctx, db, req.PairingID)
	if err != nil {
		if errors.Is(err, matchmakingdb.ErrNotFound) {
			return failure[*matchmakingdb.Pairing](ErrPairingNotFound), nil
		}
		return pairingResult{}, fmt.Errorf("failed to get pairing: %w", err)
	}

	from := []matchmakingdomain.PairingStatus{matchmakingdomain.StatusPending}
	if req.Administrative {
		from = []matchmakingdomain.PairingStatus{
			matchmakingdomain.StatusPending,
			matchmakingdomain.StatusScheduled,
			matchmakingdomain.StatusDisputed,
		}
	} else if !p.Involves(req.ActorID) {
		return failure[*matchmakingdb.Pairing](ErrNotParticipant), nil
	}

	reason := req.Reason
	if reason == "" {
		reason = "cancelled"
	}
	now := s.now()
	wasDisputed := p.Status == matchmakingdomain.StatusDisputed
	err = s.transition(ctx, db, p, from, matchmakingdb.PairingStatusUpdate{
		Status:       matchmakingdomain.StatusCancelled,
		CancelReason: &reason,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return failure[*matchmakingdb.Pairing](err), nil
		}
		return pairingResult{}, err
	}

	if wasDisputed {
		d, err := s.repo.GetOpenDispute(ctx, db, p.ID)
		switch {
		case err == nil:
			if err := s.repo.ResolveDispute(ctx, db, d.ID, req.ActorID, "pairing cancelled: "+reason, now); err != nil {
				return pairingResult{}, fmt.Errorf("failed to close dispute: %w", err)
			}
		case !errors.Is(err, matchmakingdb.ErrNotFound):
			return pairingResult{}, fmt.Errorf("failed to load dispute: %w", err)
		}
	}
	return success(p), nil
}

// ExpirePendingPairing cancels a pending pairing nobody accepted in time.
// It is a no-op when the pairing has moved on or is not yet due.
func (s *MatchmakingService) ExpirePendingPairing(ctx context.Context, pairingID uuid.UUID) (results.OperationResult[ExpiryResult, error], error) {
	var expired *matchmakingdb.Pairing
	result, err := withTelemetry(s, ctx, "ExpirePendingPairing", pairingID.String(), func(ctx context.Context) (results.OperationResult[ExpiryResult, error], error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[ExpiryResult, error], error) {
			p, err := s.repo.GetPairing(ctx, db, pairingID)
			if err != nil {
				if errors.Is(err, matchmakingdb.ErrNotFound) {
					return failure[ExpiryResult](ErrPairingNotFound), nil
				}
				return results.OperationResult[ExpiryResult, error]{}, fmt.Errorf("failed to get pairing: %w", err)
			}
			now := s.now()
			if p.Status != matchmakingdomain.StatusPending || now.Before(p.CreatedAt.Add(s.cfg.PendingExpiry)) {
				return success(ExpiryResult{}), nil
			}
			reason := "expired"
			err = s.transition(ctx, db, p, []matchmakingdomain.PairingStatus{matchmakingdomain.StatusPending}, matchmakingdb.PairingStatusUpdate{
				Status:       matchmakingdomain.StatusCancelled,
				CancelReason: &reason,
				UpdatedAt:    now,
			})
			if errors.Is(err, ErrInvalidTransition) {
				return success(ExpiryResult{}), nil
			}
			if err != nil {
				return results.OperationResult[ExpiryResult, error]{}, err
			}
			expired = p
			return success(ExpiryResult{Expired: true}), nil
		})
	})
	if err == nil && expired != nil {
		s.notify(ctx, pairingNotes(expired, CategoryPairingCancelled, "Bout request expired", cancelMessage(expired))...)
	}
	return result, err
}

// GetPairing returns one pairing.
func (s *MatchmakingService) GetPairing(ctx context.Context, pairingID uuid.UUID) (pairingResult, error) {
	return withTelemetry(s, ctx, "GetPairing", pairingID.String(), func(ctx context.Context) (pairingResult, error) {
		p, err := s.repo.GetPairing(ctx, nil, pairingID)
		if err != nil {
			if errors.Is(err, matchmakingdb.ErrNotFound) {
				return failure[*matchmakingdb.Pairing](ErrPairingNotFound), nil
			}
			return pairingResult{}, fmt.Errorf("failed to get pairing: %w", err)
		}
		return success(p), nil
	})
}

// ListActivePairings returns every pending or scheduled pairing.
func (s *MatchmakingService) ListActivePairings(ctx context.Context) (results.OperationResult[[]matchmakingdb.Pairing, error], error) {
	return withTelemetry(s, ctx, "ListActivePairings", "all", func(ctx context.Context) (results.OperationResult[[]matchmakingdb.Pairing, error], error) {
		rows, err := s.repo.ListActivePairings(ctx, nil)
		if err != nil {
			return results.OperationResult[[]matchmakingdb.Pairing, error]{}, fmt.Errorf("failed to list active pairings: %w", err)
		}
		return success(rows), nil
	})
}

// transition applies a guarded status change and mirrors it onto p.
// A lost race or a disallowed move reports ErrInvalidTransition.
func (s *MatchmakingService) transition(ctx context.Context, db bun.IDB, p *matchmakingdb.Pairing, from []matchmakingdomain.PairingStatus, update matchmakingdb.PairingStatusUpdate) error {
	allowed := false
	for _, f := range from {
		if f == p.Status && matchmakingdomain.CanTransition(f, update.Status) {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, update.Status)
	}

	if err := s.repo.UpdatePairingStatus(ctx, db, p.ID, from, update); err != nil {
		if errors.Is(err, matchmakingdb.ErrNoRowsAffected) {
			return fmt.Errorf("%w: %s changed concurrently", ErrInvalidTransition, p.ID)
		}
		return fmt.Errorf("failed to update pairing status: %w", err)
	}

	p.Status = update.Status
	p.UpdatedAt = update.UpdatedAt
	if update.WinnerID != nil {
		p.WinnerID = update.WinnerID
	}
	if update.CancelReason != nil {
		p.CancelReason = update.CancelReason
	}
	if update.CompletedAt != nil {
		p.CompletedAt = update.CompletedAt
	}
	return nil
}

func (s *MatchmakingService) schedulePairingExpiry(ctx context.Context, p *matchmakingdb.Pairing) {
	at := p.CreatedAt.Add(s.cfg.PendingExpiry)
	if err := s.jobs.SchedulePairingExpiry(ctx, p.ID, at); err != nil {
		s.logger.WarnContext(ctx, "Failed to schedule pairing expiry",
			attr.ExtractCorrelationID(ctx),
			attr.PairingID(p.ID),
			attr.Error(err),
		)
	}
}

func pairingLink(id uuid.UUID) string {
	return "/pairings/" + id.String()
}

// pairingNotes builds the same notification for both sides of a pairing.
func pairingNotes(p *matchmakingdb.Pairing, category NotificationCategory, title, message string) []Notification {
	return []Notification{
		{Recipient: p.CompetitorA, Category: category, Title: title, Message: message, DeepLink: pairingLink(p.ID)},
		{Recipient: p.CompetitorB, Category: category, Title: title, Message: message, DeepLink: pairingLink(p.ID)},
	}
}

func cancelMessage(p *matchmakingdb.Pairing) string {
	if p.CancelReason != nil && *p.CancelReason != "" {
		return "Your bout was cancelled: " + *p.CancelReason + "."
	}
	return "Your bout was cancelled."
}
