package matchmakingdb

import (
	"context"
	"time"

	matchmakingdomain "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CreateRematchRequest stores a rematch callout.
func (r *Impl) CreateRematchRequest(ctx context.Context, db bun.IDB, req *RematchRequest) error {
	db = r.resolveDB(db)
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if _, err := db.NewInsert().Model(req).Exec(ctx); err != nil {
		return mapError("create rematch request", err)
	}
	return nil
}

// GetRematchRequest retrieves a rematch request by id.
func (r *Impl) GetRematchRequest(ctx context.Context, db bun.IDB, id uuid.UUID) (*RematchRequest, error) {
	db = r.resolveDB(db)
	req := new(RematchRequest)
	if err := db.NewSelect().Model(req).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, mapError("get rematch request", err)
	}
	return req, nil
}

// FindPendingRematch returns a pending request between the two competitors.
func (r *Impl) FindPendingRematch(ctx context.Context, db bun.IDB, a, b string) (*RematchRequest, error) {
	db = r.resolveDB(db)
	req := new(RematchRequest)
	err := db.NewSelect().
		Model(req).
		Where("((caller_id = ? AND target_id = ?) OR (caller_id = ? AND target_id = ?))", a, b, b, a).
		Where("status = ?", matchmakingdomain.RequestPending).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, mapError("find pending rematch", err)
	}
	return req, nil
}

// UpdateRematchStatus moves a request from one status to another.
func (r *Impl) UpdateRematchStatus(ctx context.Context, db bun.IDB, id uuid.UUID, from, to matchmakingdomain.RequestStatus, pairingID *uuid.UUID) error {
	db = r.resolveDB(db)
	q := db.NewUpdate().
		Model((*RematchRequest)(nil)).
		Set("status = ?", to).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Where("status = ?", from)
	if pairingID != nil {
		q = q.Set("pairing_id = ?", *pairingID)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return mapError("update rematch status", err)
	}
	return checkAffected(res)
}
