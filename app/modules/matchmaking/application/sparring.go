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

type invitationResult = results.OperationResult[*matchmakingdb.SparringInvitation, error]

// CheckSparringEligibility reports whether a competitor may take on a sparring
// session: no scheduled bout inside the upcoming window and room under the cap.
func (s *MatchmakingService) CheckSparringEligibility(ctx context.Context, competitorID string) (results.OperationResult[*Eligibility, error], error) {
	return withTelemetry(s, ctx, "CheckSparringEligibility", competitorID, func(ctx context.Context) (results.OperationResult[*Eligibility, error], error) {
		if _, err := s.repo.GetCompetitor(ctx, nil, competitorID); err != nil {
			if errors.Is(err, matchmakingdb.ErrNotFound) {
				return failure[*Eligibility](ErrCompetitorNotFound), nil
			}
			return results.OperationResult[*Eligibility, error]{}, fmt.Errorf("failed to get competitor: %w", err)
		}
		e, err := s.eligibility(ctx, nil, competitorID)
		if err != nil {
			return results.OperationResult[*Eligibility, error]{}, err
		}
		return success(e), nil
	})
}

func (s *MatchmakingService) eligibility(ctx context.Context, db bun.IDB, competitorID string) (*Eligibility, error) {
	now := s.now()
	upcoming, err := s.repo.ListScheduledPairingsFor(ctx, db, competitorID, now, now.Add(s.cfg.UpcomingBoutWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming bouts: %w", err)
	}
	active, err := s.repo.CountActiveSparring(ctx, db, competitorID, now)
	if err != nil {
		return nil, err
	}

	e := &Eligibility{Eligible: true, Upcoming: upcoming, Active: active}
	if len(upcoming) > 0 {
		e.Eligible = false
		e.Reasons = append(e.Reasons, fmt.Sprintf("scheduled bout on %s", upcoming[0].ScheduledAt.Format(time.RFC1123)))
	}
	if active >= s.cfg.SparringCap {
		e.Eligible = false
		e.Reasons = append(e.Reasons, fmt.Sprintf("already in %d active sparring sessions (limit %d)", active, s.cfg.SparringCap))
	}
	return e, nil
}

// gate converts an ineligible answer into a PolicyRejection naming the first failing check.
func (s *MatchmakingService) gate(ctx context.Context, db bun.IDB, competitorID string) (*PolicyRejection, error) {
	e, err := s.eligibility(ctx, db, competitorID)
	if err != nil {
		return nil, err
	}
	if e.Eligible {
		return nil, nil
	}
	check := CheckSparringCap
	if len(e.Upcoming) > 0 {
		check = CheckUpcomingBout
	}
	reasons := make([]string, 0, len(e.Reasons))
	for _, r := range e.Reasons {
		reasons = append(reasons, competitorID+": "+r)
	}
	return &PolicyRejection{Check: check, Reasons: reasons}, nil
}

// InviteSparring sends a sparring invitation. Only the inviter is gated here;
// the invitee is checked on acceptance.
func (s *MatchmakingService) InviteSparring(ctx context.Context, inviterID, inviteeID string) (invitationResult, error) {
	result, err := withTelemetry(s, ctx, "InviteSparring", inviterID, func(ctx context.Context) (invitationResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (invitationResult, error) {
			return s.inviteSparringLogic(ctx, db, inviterID, inviteeID)
		})
	})
	if err != nil || !result.IsSuccess() {
		return result, err
	}

	inv := *result.Success
	s.scheduleSparringExpiry(ctx, inv.ID, inv.CreatedAt.Add(s.cfg.SparringWindow))
	s.notify(ctx, Notification{
		Recipient: inviteeID,
		Category:  CategorySparringInvite,
		Title:     "Sparring invitation",
		Message:   fmt.Sprintf("%s invited you to spar.", inviterID),
		DeepLink:  sparringLink(inv.ID),
	})
	return result, nil
}

func (s *MatchmakingService) inviteSparringLogic(ctx context.Context, db bun.IDB, inviterID, inviteeID string) (invitationResult, error) {
	if inviterID == inviteeID {
		return failure[*matchmakingdb.SparringInvitation](ErrSelfPairing), nil
	}
	inviter, invitee, err := s.loadPair(ctx, db, inviterID, inviteeID)
	if err != nil {
		if errors.Is(err, ErrCompetitorNotFound) {
			return failure[*matchmakingdb.SparringInvitation](err), nil
		}
		return invitationResult{}, err
	}
	if !inviter.Active || !invitee.Active {
		return failure[*matchmakingdb.SparringInvitation](ErrCompetitorInactive), nil
	}

	rejection, err := s.gate(ctx, db, inviterID)
	if err != nil {
		return invitationResult{}, err
	}
	if rejection != nil {
		return failure[*matchmakingdb.SparringInvitation](rejection), nil
	}

	if _, err := s.repo.FindPendingInvitation(ctx, db, inviterID, inviteeID); err == nil {
		return failure[*matchmakingdb.SparringInvitation](ErrRequestAlreadyPending), nil
	} else if !errors.Is(err, matchmakingdb.ErrNotFound) {
		return invitationResult{}, fmt.Errorf("failed to check pending invitations: %w", err)
	}

	now := s.now()
	inv := &matchmakingdb.SparringInvitation{
		ID:        uuid.New(),
		InviterID: inviterID,
		InviteeID: inviteeID,
		Status:    matchmakingdomain.RequestPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateSparringInvitation(ctx, db, inv); err != nil {
		return invitationResult{}, fmt.Errorf("failed to create sparring invitation: %w", err)
	}
	return success(inv), nil
}

// RespondToSparring lets the invitee accept or decline. Acceptance re-checks
// both competitors against the gate and the cap, then opens the session window.
func (s *MatchmakingService) RespondToSparring(ctx context.Context, invitationID uuid.UUID, responderID string, accept bool) (invitationResult, error) {
	result, err := withTelemetry(s, ctx, "RespondToSparring", invitationID.String(), func(ctx context.Context) (invitationResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (invitationResult, error) {
			return s.respondToSparringLogic(ctx, db, invitationID, responderID, accept)
		})
	})
	if err != nil || !result.IsSuccess() {
		return result, err
	}

	inv := *result.Success
	title, message := "Sparring declined", fmt.Sprintf("%s declined your sparring invitation.", inv.InviteeID)
	if inv.Status == matchmakingdomain.RequestAccepted {
		s.scheduleSparringExpiry(ctx, inv.ID, *inv.ExpiresAt)
		title, message = "Sparring accepted", fmt.Sprintf("%s accepted your sparring invitation.", inv.InviteeID)
	}
	s.notify(ctx, Notification{
		Recipient: inv.InviterID,
		Category:  CategorySparringResponse,
		Title:     title,
		Message:   message,
		DeepLink:  sparringLink(inv.ID),
	})
	return result, nil
}

func (s *MatchmakingService) respondToSparringLogic(ctx context.Context, db bun.IDB, invitationID uuid.UUID, responderID string, accept bool) (invitationResult, error) {
	inv, err := s.loadInvitation(ctx, db, invitationID)
	if err != nil {
		if errors.Is(err, ErrInvitationNotFound) {
			return failure[*matchmakingdb.SparringInvitation](err), nil
		}
		return invitationResult{}, err
	}
	if inv.InviteeID != responderID {
		return failure[*matchmakingdb.SparringInvitation](ErrNotRecipient), nil
	}
	if inv.Status != matchmakingdomain.RequestPending {
		return failure[*matchmakingdb.SparringInvitation](fmt.Errorf("%w: invitation is %s", ErrInvalidTransition, inv.Status)), nil
	}

	now := s.now()
	if !now.Before(inv.CreatedAt.Add(s.cfg.SparringWindow)) {
		if err := s.setInvitation(ctx, db, inv, matchmakingdomain.RequestExpired, nil, nil); err != nil {
			return invitationResult{}, err
		}
		return failure[*matchmakingdb.SparringInvitation](ErrRequestExpired), nil
	}

	if !accept {
		if err := s.setInvitation(ctx, db, inv, matchmakingdomain.RequestDeclined, nil, nil); err != nil {
			return invitationResult{}, err
		}
		return success(inv), nil
	}

	// Both profiles stay locked until commit so concurrent acceptances count each other.
	if _, err := s.repo.GetCompetitorsForUpdate(ctx, db, []string{inv.InviteeID, inv.InviterID}); err != nil {
		return invitationResult{}, fmt.Errorf("failed to lock competitors: %w", err)
	}
	for _, id := range []string{inv.InviteeID, inv.InviterID} {
		rejection, err := s.gate(ctx, db, id)
		if err != nil {
			return invitationResult{}, err
		}
		if rejection != nil {
			return failure[*matchmakingdb.SparringInvitation](rejection), nil
		}
	}

	expires := now.Add(s.cfg.SparringWindow)
	if err := s.setInvitation(ctx, db, inv, matchmakingdomain.RequestAccepted, &now, &expires); err != nil {
		return invitationResult{}, err
	}
	return success(inv), nil
}

// CompleteSparring closes an accepted session. Either participant may complete it.
func (s *MatchmakingService) CompleteSparring(ctx context.Context, invitationID uuid.UUID, competitorID string) (invitationResult, error) {
	return withTelemetry(s, ctx, "CompleteSparring", invitationID.String(), func(ctx context.Context) (invitationResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (invitationResult, error) {
			inv, err := s.loadInvitation(ctx, db, invitationID)
			if err != nil {
				if errors.Is(err, ErrInvitationNotFound) {
					return failure[*matchmakingdb.SparringInvitation](err), nil
				}
				return invitationResult{}, err
			}
			if inv.InviterID != competitorID && inv.InviteeID != competitorID {
				return failure[*matchmakingdb.SparringInvitation](ErrNotParticipant), nil
			}
			if inv.Status != matchmakingdomain.RequestAccepted {
				return failure[*matchmakingdb.SparringInvitation](fmt.Errorf("%w: invitation is %s", ErrInvalidTransition, inv.Status)), nil
			}
			if err := s.setInvitation(ctx, db, inv, matchmakingdomain.RequestCompleted, inv.StartedAt, inv.ExpiresAt); err != nil {
				return invitationResult{}, err
			}
			return success(inv), nil
		})
	})
}

// ExpireSparringInvitation expires a pending invitation past its response
// window or an accepted session past its end. Anything else is left alone.
func (s *MatchmakingService) ExpireSparringInvitation(ctx context.Context, invitationID uuid.UUID) (results.OperationResult[ExpiryResult, error], error) {
	return withTelemetry(s, ctx, "ExpireSparringInvitation", invitationID.String(), func(ctx context.Context) (results.OperationResult[ExpiryResult, error], error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[ExpiryResult, error], error) {
			inv, err := s.loadInvitation(ctx, db, invitationID)
			if err != nil {
				if errors.Is(err, ErrInvitationNotFound) {
					return failure[ExpiryResult](err), nil
				}
				return results.OperationResult[ExpiryResult, error]{}, err
			}

			now := s.now()
			due := false
			switch inv.Status {
			case matchmakingdomain.RequestPending:
				due = !now.Before(inv.CreatedAt.Add(s.cfg.SparringWindow))
			case matchmakingdomain.RequestAccepted:
				due = inv.ExpiresAt != nil && !now.Before(*inv.ExpiresAt)
			}
			if !due {
				return success(ExpiryResult{}), nil
			}

			if err := s.setInvitation(ctx, db, inv, matchmakingdomain.RequestExpired, inv.StartedAt, inv.ExpiresAt); err != nil {
				if errors.Is(err, ErrInvalidTransition) {
					return success(ExpiryResult{}), nil
				}
				return results.OperationResult[ExpiryResult, error]{}, err
			}
			return success(ExpiryResult{Expired: true}), nil
		})
	})
}

func (s *MatchmakingService) loadInvitation(ctx context.Context, db bun.IDB, id uuid.UUID) (*matchmakingdb.SparringInvitation, error) {
	inv, err := s.repo.GetSparringInvitation(ctx, db, id)
	if err != nil {
		if errors.Is(err, matchmakingdb.ErrNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to get sparring invitation: %w", err)
	}
	return inv, nil
}

// setInvitation writes a guarded status change from the invitation's current status.
func (s *MatchmakingService) setInvitation(ctx context.Context, db bun.IDB, inv *matchmakingdb.SparringInvitation, to matchmakingdomain.RequestStatus, startedAt, expiresAt *time.Time) error {
	from, prevStarted, prevExpires := inv.Status, inv.StartedAt, inv.ExpiresAt
	inv.Status = to
	inv.StartedAt = startedAt
	inv.ExpiresAt = expiresAt
	if err := s.repo.UpdateSparringInvitation(ctx, db, inv, from); err != nil {
		inv.Status, inv.StartedAt, inv.ExpiresAt = from, prevStarted, prevExpires
		if errors.Is(err, matchmakingdb.ErrNoRowsAffected) {
			return fmt.Errorf("%w: invitation %s changed concurrently", ErrInvalidTransition, inv.ID)
		}
		return fmt.Errorf("failed to update sparring invitation: %w", err)
	}
	return nil
}

func (s *MatchmakingService) scheduleSparringExpiry(ctx context.Context, id uuid.UUID, at time.Time) {
	if err := s.jobs.ScheduleSparringExpiry(ctx, id, at); err != nil {
		s.logger.WarnContext(ctx, "Failed to schedule sparring expiry",
			attr.ExtractCorrelationID(ctx),
			attr.String("invitation_id", id.String()),
			attr.Error(err),
		)
	}
}

func sparringLink(id uuid.UUID) string {
	return "/sparring/" + id.String()
}
