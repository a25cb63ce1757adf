package matchmakingdb

import (
	"context"
	"fmt"
	"time"

	matchmakingdomain "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CreateSparringInvitation stores an invitation.
func (r *Impl) CreateSparringInvitation(ctx context.Context, db bun.IDB, inv *SparringInvitation) error {
	db = r.resolveDB(db)
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	if _, err := db.NewInsert().Model(inv).Exec(ctx); err != nil {
		return mapError("create sparring invitation", err)
	}
	return nil
}

// GetSparringInvitation retrieves an invitation by id.
func (r *Impl) GetSparringInvitation(ctx context.Context, db bun.IDB, id uuid.UUID) (*SparringInvitation, error) {
	db = r.resolveDB(db)
	inv := new(SparringInvitation)
	if err := db.NewSelect().Model(inv).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, mapError("get sparring invitation", err)
	}
	return inv, nil
}

// FindPendingInvitation returns a pending invitation between the two competitors.
func (r *Impl) FindPendingInvitation(ctx context.Context, db bun.IDB, a, b string) (*SparringInvitation, error) {
	db = r.resolveDB(db)
	inv := new(SparringInvitation)
	err := db.NewSelect().
		Model(inv).
		Where("((inviter_id = ? AND invitee_id = ?) OR (inviter_id = ? AND invitee_id = ?))", a, b, b, a).
		Where("status = ?", matchmakingdomain.RequestPending).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, mapError("find pending invitation", err)
	}
	return inv, nil
}

// CountActiveSparring counts accepted sessions involving the competitor that have not yet expired.
func (r *Impl) CountActiveSparring(ctx context.Context, db bun.IDB, competitorID string, now time.Time) (int, error) {
	db = r.resolveDB(db)
	n, err := db.NewSelect().
		Model((*SparringInvitation)(nil)).
		Where("(inviter_id = ? OR invitee_id = ?)", competitorID, competitorID).
		Where("status = ?", matchmakingdomain.RequestAccepted).
		Where("expires_at > ?", now).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count active sparring: %w", err)
	}
	return n, nil
}

// UpdateSparringInvitation writes status and window columns when the current status equals from.
func (r *Impl) UpdateSparringInvitation(ctx context.Context, db bun.IDB, inv *SparringInvitation, from matchmakingdomain.RequestStatus) error {
	db = r.resolveDB(db)
	inv.UpdatedAt = time.Now().UTC()
	res, err := db.NewUpdate().
		Model(inv).
		Column("status", "started_at", "expires_at", "updated_at").
		WherePK().
		Where("status = ?", from).
		Exec(ctx)
	if err != nil {
		return mapError("update sparring invitation", err)
	}
	return checkAffected(res)
}
