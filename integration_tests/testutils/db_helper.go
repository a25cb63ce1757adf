package testutils

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	matchmakingqueue "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/infrastructure/queue"
	matchmakingmigrations "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/infrastructure/repositories/migrations"
)

// matchmakingTables are truncated between tests, children first.
var matchmakingTables = []string{
	"result_submissions",
	"disputes",
	"tier_history",
	"rematch_requests",
	"sparring_invitations",
	"pairings",
	"competitor_rankings",
	"competitor_profiles",
}

// RunMigrations applies the River schema and the matchmaking migrations.
func RunMigrations(ctx context.Context, db *bun.DB, pgConnStr string) error {
	pool, err := pgxpool.New(ctx, pgConnStr)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool for River migrations: %w", err)
	}
	defer pool.Close()

	if err := matchmakingqueue.Migrate(ctx, pool); err != nil {
		return err
	}

	migrator := migrate.NewMigrator(db, matchmakingmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize migration tables: %w", err)
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("failed to run matchmaking migrations: %w", err)
	}
	if group.ID == 0 {
		log.Println("No matchmaking migrations to run")
	} else {
		log.Printf("Ran matchmaking migrations group #%d", group.ID)
	}
	return nil
}

// CleanupDatabase truncates the matchmaking tables and deletes River jobs.
func CleanupDatabase(ctx context.Context, db *bun.DB) error {
	query := fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(matchmakingTables, ", "))
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM river_job"); err != nil {
		return fmt.Errorf("failed to cleanup river jobs: %w", err)
	}
	return nil
}
