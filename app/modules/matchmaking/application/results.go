package matchmakingservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	matchmakingdomain "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/domain"
	matchmakingdb "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/infrastructure/repositories"
	"github.com/Black-And-White-Club/bout-league/pkg/observability/attr"
	"github.com/Black-And-White-Club/bout-league/pkg/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type submissionResult = results.OperationResult[*SubmissionResult, error]

// SubmitResult records one competitor's declared result and reconciles it with
// the opponent's. Agreement completes the pairing and applies the ledger;
// disagreement opens a dispute.
func (s *MatchmakingService) SubmitResult(ctx context.Context, req SubmitResultRequest) (submissionResult, error) {
	result, err := withTelemetry(s, ctx, "SubmitResult", req.PairingID.String(), func(ctx context.Context) (submissionResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (submissionResult, error) {
			return s.submitResultLogic(ctx, db, req)
		})
	})
	if err != nil || !result.IsSuccess() {
		return result, err
	}

	out := *result.Success
	switch out.State {
	case SubmissionCompleted:
		s.afterCompletion(ctx, out.Pairing, out.Completion)
	case SubmissionDisputed:
		s.notify(ctx, pairingNotes(out.Pairing, CategoryPairingDisputed, "Result disputed",
			"The submitted results do not match. A league official will review the bout.")...)
	case SubmissionAwaitingOpponent:
		s.notify(ctx, Notification{
			Recipient: out.Pairing.Opponent(req.CompetitorID),
			Category:  CategoryPairingScheduled,
			Title:     "Result submitted",
			Message:   fmt.Sprintf("%s submitted a result for your bout. Submit yours to confirm it.", req.CompetitorID),
			DeepLink:  pairingLink(out.Pairing.ID),
		})
	}
	return result, nil
}

func (s *MatchmakingService) submitResultLogic(ctx context.Context, db bun.IDB, req SubmitResultRequest) (submissionResult, error) {
	outcome, ok := matchmakingdomain.ParseOutcome(req.Outcome)
	if !ok {
		return failure[*SubmissionResult](fmt.Errorf("%w: %q", ErrInvalidOutcome, req.Outcome)), nil
	}
	method := matchmakingdomain.FinishMethod(strings.TrimSpace(req.Method))
	if method == "" {
		return failure[*SubmissionResult](ErrInvalidMethod), nil
	}

	p, err := s.repo.GetPairingForUpdate(ctx, db, req.PairingID)
	if err != nil {
		if errors.Is(err, matchmakingdb.ErrNotFound) {
			return failure[*SubmissionResult](ErrPairingNotFound), nil
		}
		return submissionResult{}, fmt.Errorf("failed to get pairing: %w", err)
	}
	if !p.Involves(req.CompetitorID) {
		return failure[*SubmissionResult](ErrNotParticipant), nil
	}
	if p.Status != matchmakingdomain.StatusScheduled {
		return failure[*SubmissionResult](fmt.Errorf("%w: results are only accepted for scheduled pairings (status %s)", ErrInvalidTransition, p.Status)), nil
	}

	opponentID := p.Opponent(req.CompetitorID)
	opponentName := opponentID
	if opp, err := s.repo.GetCompetitor(ctx, db, opponentID); err == nil {
		opponentName = opp.DisplayName
	}

	now := s.now()
	fightDate := req.FightDate
	if fightDate.IsZero() {
		fightDate = now
	}
	sub := &matchmakingdb.ResultSubmission{
		PairingID:    p.ID,
		CompetitorID: req.CompetitorID,
		OpponentID:   opponentID,
		OpponentName: opponentName,
		Outcome:      outcome,
		Method:       method,
		Round:        req.Round,
		EvidenceRef:  req.EvidenceRef,
		FightDate:    fightDate.UTC().Truncate(24 * time.Hour),
		SubmittedAt:  now,
	}
	if err := s.repo.UpsertSubmission(ctx, db, sub); err != nil {
		return submissionResult{}, fmt.Errorf("failed to store submission: %w", err)
	}

	subs, err := s.repo.ListSubmissionsForPairing(ctx, db, p.ID)
	if err != nil {
		return submissionResult{}, fmt.Errorf("failed to load submissions: %w", err)
	}
	mine, theirs := splitSubmissions(subs, req.CompetitorID, opponentID)
	if mine == nil || theirs == nil {
		return success(&SubmissionResult{State: SubmissionAwaitingOpponent, Pairing: p}), nil
	}

	rec := matchmakingdomain.Reconcile(mine.Declaration(), theirs.Declaration())
	if !rec.Agreed {
		d := &matchmakingdb.Dispute{
			ID:        uuid.New(),
			PairingID: p.ID,
			RaisedBy:  req.CompetitorID,
			Reason:    rec.Reason,
			Status:    matchmakingdomain.DisputeOpen,
			CreatedAt: now,
		}
		if err := s.repo.CreateDispute(ctx, db, d); err != nil {
			return submissionResult{}, fmt.Errorf("failed to open dispute: %w", err)
		}
		err := s.transition(ctx, db, p, []matchmakingdomain.PairingStatus{matchmakingdomain.StatusScheduled}, matchmakingdb.PairingStatusUpdate{
			Status:    matchmakingdomain.StatusDisputed,
			UpdatedAt: now,
		})
		if err != nil {
			return submissionResult{}, err
		}
		s.logger.InfoContext(ctx, "Pairing disputed",
			attr.ExtractCorrelationID(ctx),
			attr.PairingID(p.ID),
			attr.String("reason", rec.Reason),
		)
		return success(&SubmissionResult{State: SubmissionDisputed, Pairing: p, Dispute: d}), nil
	}

	completion, err := s.completePairing(ctx, db, p, []matchmakingdb.ResultSubmission{*mine, *theirs}, rec.WinnerID, matchmakingdomain.StatusScheduled)
	if err != nil {
		return submissionResult{}, err
	}
	return success(&SubmissionResult{State: SubmissionCompleted, Pairing: p, Completion: completion}), nil
}

// splitSubmissions picks the latest submission for each side.
func splitSubmissions(subs []matchmakingdb.ResultSubmission, mineID, theirsID string) (mine, theirs *matchmakingdb.ResultSubmission) {
	for i := range subs {
		switch subs[i].CompetitorID {
		case mineID:
			mine = &subs[i]
		case theirsID:
			theirs = &subs[i]
		}
	}
	return mine, theirs
}

// completePairing applies the points ledger to both sides and marks the pairing completed.
// Each side's delta comes from the same rule applied to its own outcome.
func (s *MatchmakingService) completePairing(
	ctx context.Context,
	db bun.IDB,
	p *matchmakingdb.Pairing,
	subs []matchmakingdb.ResultSubmission,
	winnerID string,
	from matchmakingdomain.PairingStatus,
) (*Completion, error) {
	ids := make([]string, 0, len(subs))
	for _, sub := range subs {
		ids = append(ids, sub.CompetitorID)
	}
	// Standing writes are absolute, so the rows stay locked until commit.
	profiles, err := s.repo.GetCompetitorsForUpdate(ctx, db, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to lock competitors: %w", err)
	}

	now := s.now()
	completion := &Completion{WinnerID: winnerID, Deltas: make(map[string]int, len(subs))}
	for i := range subs {
		sub := &subs[i]
		profile, ok := profiles[sub.CompetitorID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrCompetitorNotFound, sub.CompetitorID)
		}

		delta := matchmakingdomain.Delta(sub.Outcome, sub.Method)
		standing, change := matchmakingdomain.ApplyResult(profile.Standing(), sub.Outcome, delta)
		profile.ApplyStanding(standing)
		if change != nil {
			changedAt := now
			profile.LastTierChangeAt = &changedAt
			profile.LastTierChangeDirection = change.Direction
			pairingID := p.ID
			if err := s.repo.InsertTierHistory(ctx, db, &matchmakingdb.TierHistoryEntry{
				CompetitorID: profile.ID,
				FromTier:     change.From,
				ToTier:       change.To,
				Direction:    change.Direction,
				Reason:       change.Reason,
				PairingID:    &pairingID,
				CreatedAt:    now,
			}); err != nil {
				return nil, fmt.Errorf("failed to record tier change: %w", err)
			}
			completion.TierChanges = append(completion.TierChanges, TierChangeRecord{CompetitorID: profile.ID, Change: *change})
		}
		if err := s.repo.UpdateCompetitorStanding(ctx, db, profile); err != nil {
			return nil, fmt.Errorf("failed to update standing for %s: %w", profile.ID, err)
		}

		sub.PointsDelta = &delta
		if err := s.repo.UpdateSubmissionResult(ctx, db, sub); err != nil {
			return nil, fmt.Errorf("failed to record points delta: %w", err)
		}
		completion.Deltas[sub.CompetitorID] = delta
	}

	update := matchmakingdb.PairingStatusUpdate{
		Status:      matchmakingdomain.StatusCompleted,
		CompletedAt: &now,
		UpdatedAt:   now,
	}
	if winnerID != "" {
		w := winnerID
		update.WinnerID = &w
	}
	if err := s.transition(ctx, db, p, []matchmakingdomain.PairingStatus{from}, update); err != nil {
		return nil, err
	}
	return completion, nil
}

// afterCompletion runs the post-commit effects of a completed pairing.
// The bracket call is best-effort and never undoes the completion.
func (s *MatchmakingService) afterCompletion(ctx context.Context, p *matchmakingdb.Pairing, c *Completion) {
	message := "Your bout ended in a draw."
	if c != nil && c.WinnerID != "" {
		message = fmt.Sprintf("Result confirmed. Winner: %s.", c.WinnerID)
	}
	notes := pairingNotes(p, CategoryPairingCompleted, "Bout completed", message)
	if c != nil {
		for _, tc := range c.TierChanges {
			notes = append(notes, Notification{
				Recipient: tc.CompetitorID,
				Category:  CategoryTierChanged,
				Title:     "Tier " + string(tc.Change.Direction),
				Message:   fmt.Sprintf("You moved from %s to %s.", tc.Change.From, tc.Change.To),
				DeepLink:  "/competitors/" + tc.CompetitorID,
			})
		}
	}
	s.notify(ctx, notes...)

	if p.BracketNodeID == nil || *p.BracketNodeID == "" || c == nil || c.WinnerID == "" {
		return
	}
	if err := s.bracket.AdvanceWinner(ctx, *p.BracketNodeID, p.ID, c.WinnerID); err != nil {
		s.logger.WarnContext(ctx, "Failed to advance bracket winner",
			attr.ExtractCorrelationID(ctx),
			attr.PairingID(p.ID),
			attr.String("bracket_node_id", *p.BracketNodeID),
			attr.Error(err),
		)
	}
}
