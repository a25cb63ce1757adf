package matchmakingdb

import (
	"context"
	"fmt"
	"time"

	matchmakingdomain "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/domain"
	"github.com/uptrace/bun"
)

// GetCompetitor retrieves a competitor profile by id.
func (r *Impl) GetCompetitor(ctx context.Context, db bun.IDB, id string) (*CompetitorProfile, error) {
	db = r.resolveDB(db)
	c := new(CompetitorProfile)
	err := db.NewSelect().
		Model(c).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, mapError("get competitor", err)
	}
	return c, nil
}

// GetCompetitors retrieves the profiles that exist among ids.
func (r *Impl) GetCompetitors(ctx context.Context, db bun.IDB, ids []string) (map[string]*CompetitorProfile, error) {
	out := make(map[string]*CompetitorProfile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	db = r.resolveDB(db)
	var rows []CompetitorProfile
	err := db.NewSelect().
		Model(&rows).
		Where("id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, mapError("get competitors", err)
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

// GetCompetitorsForUpdate retrieves the profiles among ids and locks their rows
// for the rest of the transaction. Rows are locked in id order.
func (r *Impl) GetCompetitorsForUpdate(ctx context.Context, db bun.IDB, ids []string) (map[string]*CompetitorProfile, error) {
	out := make(map[string]*CompetitorProfile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	db = r.resolveDB(db)
	var rows []CompetitorProfile
	err := db.NewSelect().
		Model(&rows).
		Where("id IN (?)", bun.In(ids)).
		Order("id ASC").
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		return nil, mapError("get competitors for update", err)
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

// ListActiveCompetitors returns every active competitor ordered by id.
func (r *Impl) ListActiveCompetitors(ctx context.Context, db bun.IDB) ([]CompetitorProfile, error) {
	db = r.resolveDB(db)
	var rows []CompetitorProfile
	err := db.NewSelect().
		Model(&rows).
		Where("active = ?", true).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, mapError("list active competitors", err)
	}
	return rows, nil
}

// UpdateCompetitorStanding writes the ledger columns of a profile.
func (r *Impl) UpdateCompetitorStanding(ctx context.Context, db bun.IDB, c *CompetitorProfile) error {
	db = r.resolveDB(db)
	c.UpdatedAt = time.Now().UTC()
	res, err := db.NewUpdate().
		Model(c).
		Column("tier", "points", "wins", "losses", "draws", "loss_streak",
			"last_tier_change_at", "last_tier_change_direction", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return mapError("update competitor standing", err)
	}
	return checkAffected(res)
}

// GetRanks returns competitor id -> rank for one weight class.
func (r *Impl) GetRanks(ctx context.Context, db bun.IDB, weightClass string) (map[string]int, error) {
	db = r.resolveDB(db)
	var rows []CompetitorRanking
	err := db.NewSelect().
		Model(&rows).
		Where("weight_class = ?", weightClass).
		Scan(ctx)
	if err != nil {
		return nil, mapError("get ranks", err)
	}
	ranks := make(map[string]int, len(rows))
	for _, row := range rows {
		ranks[row.CompetitorID] = row.Rank
	}
	return ranks, nil
}

// InsertTierHistory records a tier change.
func (r *Impl) InsertTierHistory(ctx context.Context, db bun.IDB, entry *TierHistoryEntry) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(entry).Exec(ctx); err != nil {
		return mapError("insert tier history", err)
	}
	return nil
}

// ListDemotedSince returns distinct competitors demoted at or after since.
func (r *Impl) ListDemotedSince(ctx context.Context, db bun.IDB, since time.Time) ([]string, error) {
	db = r.resolveDB(db)
	var ids []string
	err := db.NewSelect().
		Model((*TierHistoryEntry)(nil)).
		ColumnExpr("DISTINCT competitor_id").
		Where("direction = ?", matchmakingdomain.TierDemoted).
		Where("created_at >= ?", since).
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list demotions: %w", err)
	}
	return ids, nil
}
