package matchmakingdb

import (
	"context"
	"fmt"
	"time"

	matchmakingdomain "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UpsertSubmission stores a declaration; a resubmission for the same pairing overwrites the earlier one.
func (r *Impl) UpsertSubmission(ctx context.Context, db bun.IDB, s *ResultSubmission) error {
	db = r.resolveDB(db)
	if s.SubmittedAt.IsZero() {
		s.SubmittedAt = time.Now().UTC()
	}
	_, err := db.NewInsert().
		Model(s).
		On("CONFLICT (pairing_id, competitor_id) DO UPDATE").
		Set("outcome = EXCLUDED.outcome").
		Set("method = EXCLUDED.method").
		Set("round = EXCLUDED.round").
		Set("evidence_ref = EXCLUDED.evidence_ref").
		Set("fight_date = EXCLUDED.fight_date").
		Set("opponent_name = EXCLUDED.opponent_name").
		Set("submitted_at = EXCLUDED.submitted_at").
		Returning("id").
		Exec(ctx)
	if err != nil {
		return mapError("upsert submission", err)
	}
	return nil
}

// ListSubmissionsForPairing returns a pairing's submissions, earliest first.
func (r *Impl) ListSubmissionsForPairing(ctx context.Context, db bun.IDB, pairingID uuid.UUID) ([]ResultSubmission, error) {
	db = r.resolveDB(db)
	var rows []ResultSubmission
	err := db.NewSelect().
		Model(&rows).
		Where("pairing_id = ?", pairingID).
		Order("submitted_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, mapError("list submissions", err)
	}
	return rows, nil
}

// UpdateSubmissionResult rewrites the outcome fields after reconciliation or dispute resolution.
func (r *Impl) UpdateSubmissionResult(ctx context.Context, db bun.IDB, s *ResultSubmission) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model(s).
		Column("outcome", "method", "points_delta").
		WherePK().
		Exec(ctx)
	if err != nil {
		return mapError("update submission result", err)
	}
	return checkAffected(res)
}

// ListRecentOpponents returns opponents from the competitor's latest completed bouts, newest first.
func (r *Impl) ListRecentOpponents(ctx context.Context, db bun.IDB, competitorID string, limit int) ([]string, error) {
	db = r.resolveDB(db)
	var ids []string
	err := db.NewSelect().
		Model((*ResultSubmission)(nil)).
		Column("rs.opponent_id").
		Join("JOIN pairings AS p ON p.id = rs.pairing_id").
		Where("rs.competitor_id = ?", competitorID).
		Where("p.status = ?", matchmakingdomain.StatusCompleted).
		Order("p.completed_at DESC", "rs.submitted_at DESC").
		Limit(limit).
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent opponents: %w", err)
	}
	return ids, nil
}

// HasEncounter reports whether the two competitors have a completed bout in either direction.
func (r *Impl) HasEncounter(ctx context.Context, db bun.IDB, a, b string) (bool, error) {
	db = r.resolveDB(db)
	exists, err := db.NewSelect().
		Model((*ResultSubmission)(nil)).
		Join("JOIN pairings AS p ON p.id = rs.pairing_id").
		Where("p.status = ?", matchmakingdomain.StatusCompleted).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("rs.competitor_id = ? AND rs.opponent_id = ?", a, b).
				WhereOr("rs.competitor_id = ? AND rs.opponent_id = ?", b, a)
		}).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check encounter: %w", err)
	}
	return exists, nil
}
