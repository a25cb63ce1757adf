package matchmakingdb

import (
	"context"
	"time"

	matchmakingdomain "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CreatePairing inserts a pairing. The active-pair unique index surfaces as ErrActivePairingExists.
func (r *Impl) CreatePairing(ctx context.Context, db bun.IDB, p *Pairing) error {
	db = r.resolveDB(db)
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	// The savepoint keeps an enclosing transaction usable after a constraint violation.
	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(p).Exec(ctx)
		return err
	})
	if err != nil {
		return mapError("create pairing", err)
	}
	return nil
}

// CreatePairingIfAbsent inserts through the create_pairing_if_absent procedure,
// which serializes on the pair key and runs with the owner's privileges.
func (r *Impl) CreatePairingIfAbsent(ctx context.Context, db bun.IDB, p *Pairing) (bool, error) {
	db = r.resolveDB(db)
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}

	var created bool
	err := db.NewRaw(
		"SELECT create_pairing_if_absent(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		p.ID, p.CompetitorA, p.CompetitorB, p.WeightClass, string(p.Status), string(p.MatchType),
		p.CompatibilityScore, p.ScheduledAt, p.RequestedBy, p.BracketNodeID, p.CreatedAt,
	).Scan(ctx, &created)
	if err != nil {
		return false, mapError("create pairing if absent", err)
	}
	return created, nil
}

// GetPairing retrieves a pairing by id.
func (r *Impl) GetPairing(ctx context.Context, db bun.IDB, id uuid.UUID) (*Pairing, error) {
	db = r.resolveDB(db)
	p := new(Pairing)
	err := db.NewSelect().
		Model(p).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, mapError("get pairing", err)
	}
	return p, nil
}

// GetPairingForUpdate retrieves a pairing and holds its row lock until the transaction ends.
func (r *Impl) GetPairingForUpdate(ctx context.Context, db bun.IDB, id uuid.UUID) (*Pairing, error) {
	db = r.resolveDB(db)
	p := new(Pairing)
	err := db.NewSelect().
		Model(p).
		Where("id = ?", id).
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		return nil, mapError("get pairing for update", err)
	}
	return p, nil
}

// UpdatePairingStatus applies a guarded status transition.
func (r *Impl) UpdatePairingStatus(ctx context.Context, db bun.IDB, id uuid.UUID, from []matchmakingdomain.PairingStatus, update PairingStatusUpdate) error {
	db = r.resolveDB(db)
	if update.UpdatedAt.IsZero() {
		update.UpdatedAt = time.Now().UTC()
	}
	q := db.NewUpdate().
		Model((*Pairing)(nil)).
		Set("status = ?", update.Status).
		Set("updated_at = ?", update.UpdatedAt).
		Where("id = ?", id).
		Where("status IN (?)", bun.In(from))
	if update.WinnerID != nil {
		q = q.Set("winner_id = ?", *update.WinnerID)
	}
	if update.CancelReason != nil {
		q = q.Set("cancel_reason = ?", *update.CancelReason)
	}
	if update.CompletedAt != nil {
		q = q.Set("completed_at = ?", *update.CompletedAt)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return mapError("update pairing status", err)
	}
	return checkAffected(res)
}

// FindActivePairingBetween returns the active pairing for the unordered pair.
func (r *Impl) FindActivePairingBetween(ctx context.Context, db bun.IDB, a, b string) (*Pairing, error) {
	db = r.resolveDB(db)
	p := new(Pairing)
	err := db.NewSelect().
		Model(p).
		Where("((competitor_a = ? AND competitor_b = ?) OR (competitor_a = ? AND competitor_b = ?))", a, b, b, a).
		Where("status IN (?)", bun.In(matchmakingdomain.ActiveStatuses)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, mapError("find active pairing", err)
	}
	return p, nil
}

// ListActivePairings returns pending and scheduled pairings ordered by creation.
func (r *Impl) ListActivePairings(ctx context.Context, db bun.IDB) ([]Pairing, error) {
	db = r.resolveDB(db)
	var rows []Pairing
	err := db.NewSelect().
		Model(&rows).
		Where("status IN (?)", bun.In(matchmakingdomain.ActiveStatuses)).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, mapError("list active pairings", err)
	}
	return rows, nil
}

// ListScheduledPairingsFor returns the competitor's scheduled bouts inside [from, to].
func (r *Impl) ListScheduledPairingsFor(ctx context.Context, db bun.IDB, competitorID string, from, to time.Time) ([]Pairing, error) {
	db = r.resolveDB(db)
	var rows []Pairing
	err := db.NewSelect().
		Model(&rows).
		Where("(competitor_a = ? OR competitor_b = ?)", competitorID, competitorID).
		Where("status = ?", matchmakingdomain.StatusScheduled).
		Where("scheduled_at BETWEEN ? AND ?", from, to).
		Order("scheduled_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, mapError("list scheduled pairings", err)
	}
	return rows, nil
}

// ListStaleActivePairings returns active pairings of one match type created before the cutoff.
func (r *Impl) ListStaleActivePairings(ctx context.Context, db bun.IDB, matchType matchmakingdomain.MatchType, createdBefore time.Time) ([]Pairing, error) {
	db = r.resolveDB(db)
	var rows []Pairing
	err := db.NewSelect().
		Model(&rows).
		Where("match_type = ?", matchType).
		Where("status IN (?)", bun.In(matchmakingdomain.ActiveStatuses)).
		Where("created_at < ?", createdBefore).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, mapError("list stale pairings", err)
	}
	return rows, nil
}
