package matchmakingdb

import (
	"context"
	"time"

	matchmakingdomain "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CreateDispute opens a dispute.
func (r *Impl) CreateDispute(ctx context.Context, db bun.IDB, d *Dispute) error {
	db = r.resolveDB(db)
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if _, err := db.NewInsert().Model(d).Exec(ctx); err != nil {
		return mapError("create dispute", err)
	}
	return nil
}

// GetOpenDispute retrieves the open dispute on a pairing.
func (r *Impl) GetOpenDispute(ctx context.Context, db bun.IDB, pairingID uuid.UUID) (*Dispute, error) {
	db = r.resolveDB(db)
	d := new(Dispute)
	err := db.NewSelect().
		Model(d).
		Where("pairing_id = ?", pairingID).
		Where("status = ?", matchmakingdomain.DisputeOpen).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, mapError("get open dispute", err)
	}
	return d, nil
}

// ListOpenDisputes returns open disputes, oldest first.
func (r *Impl) ListOpenDisputes(ctx context.Context, db bun.IDB) ([]Dispute, error) {
	db = r.resolveDB(db)
	var rows []Dispute
	err := db.NewSelect().
		Model(&rows).
		Where("status = ?", matchmakingdomain.DisputeOpen).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, mapError("list open disputes", err)
	}
	return rows, nil
}

// ResolveDispute closes an open dispute.
func (r *Impl) ResolveDispute(ctx context.Context, db bun.IDB, id uuid.UUID, resolvedBy, resolution string, at time.Time) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*Dispute)(nil)).
		Set("status = ?", matchmakingdomain.DisputeResolved).
		Set("resolved_by = ?", resolvedBy).
		Set("resolution = ?", resolution).
		Set("resolved_at = ?", at).
		Where("id = ?", id).
		Where("status = ?", matchmakingdomain.DisputeOpen).
		Exec(ctx)
	if err != nil {
		return mapError("resolve dispute", err)
	}
	return checkAffected(res)
}
