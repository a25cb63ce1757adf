package matchmakingmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating matchmaking tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS competitor_profiles (
					id TEXT PRIMARY KEY,
					display_name TEXT NOT NULL,
					weight_class TEXT NOT NULL,
					tier TEXT NOT NULL DEFAULT 'amateur'
						CHECK (tier IN ('amateur', 'semi_pro', 'pro', 'contender', 'elite')),
					points INTEGER NOT NULL DEFAULT 0 CHECK (points >= 0),
					wins INTEGER NOT NULL DEFAULT 0,
					losses INTEGER NOT NULL DEFAULT 0,
					draws INTEGER NOT NULL DEFAULT 0,
					loss_streak INTEGER NOT NULL DEFAULT 0,
					timezone TEXT NOT NULL DEFAULT 'UTC',
					is_admin BOOLEAN NOT NULL DEFAULT FALSE,
					active BOOLEAN NOT NULL DEFAULT TRUE,
					last_tier_change_at TIMESTAMPTZ,
					last_tier_change_direction TEXT
						CHECK (last_tier_change_direction IN ('promoted', 'demoted')),
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);

				CREATE TABLE IF NOT EXISTS competitor_rankings (
					weight_class TEXT NOT NULL,
					competitor_id TEXT NOT NULL REFERENCES competitor_profiles(id) ON DELETE CASCADE,
					rank INTEGER NOT NULL CHECK (rank > 0),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					PRIMARY KEY (weight_class, competitor_id)
				);

				CREATE TABLE IF NOT EXISTS pairings (
					id UUID PRIMARY KEY,
					competitor_a TEXT NOT NULL REFERENCES competitor_profiles(id),
					competitor_b TEXT NOT NULL REFERENCES competitor_profiles(id),
					weight_class TEXT NOT NULL,
					status TEXT NOT NULL
						CHECK (status IN ('pending', 'scheduled', 'completed', 'disputed', 'cancelled')),
					match_type TEXT NOT NULL
						CHECK (match_type IN ('auto_mandatory', 'manual', 'rematch', 'forced')),
					compatibility_score DOUBLE PRECISION NOT NULL DEFAULT 0,
					scheduled_at TIMESTAMPTZ NOT NULL,
					requested_by TEXT,
					bracket_node_id TEXT,
					winner_id TEXT,
					cancel_reason TEXT,
					completed_at TIMESTAMPTZ,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					CONSTRAINT chk_pairings_distinct_sides CHECK (competitor_a <> competitor_b)
				);

				CREATE TABLE IF NOT EXISTS result_submissions (
					id BIGSERIAL PRIMARY KEY,
					pairing_id UUID NOT NULL REFERENCES pairings(id) ON DELETE CASCADE,
					competitor_id TEXT NOT NULL REFERENCES competitor_profiles(id),
					opponent_id TEXT NOT NULL REFERENCES competitor_profiles(id),
					opponent_name TEXT,
					outcome TEXT NOT NULL CHECK (outcome IN ('win', 'loss', 'draw')),
					method TEXT NOT NULL,
					round INTEGER NOT NULL DEFAULT 0,
					evidence_ref TEXT,
					fight_date DATE NOT NULL,
					points_delta INTEGER,
					submitted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					CONSTRAINT uq_result_submissions_pairing_competitor UNIQUE (pairing_id, competitor_id)
				);

				CREATE TABLE IF NOT EXISTS disputes (
					id UUID PRIMARY KEY,
					pairing_id UUID NOT NULL REFERENCES pairings(id) ON DELETE CASCADE,
					raised_by TEXT NOT NULL,
					reason TEXT NOT NULL,
					status TEXT NOT NULL CHECK (status IN ('open', 'resolved')),
					resolution TEXT,
					resolved_by TEXT,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					resolved_at TIMESTAMPTZ
				);

				CREATE TABLE IF NOT EXISTS tier_history (
					id BIGSERIAL PRIMARY KEY,
					competitor_id TEXT NOT NULL REFERENCES competitor_profiles(id) ON DELETE CASCADE,
					from_tier TEXT NOT NULL,
					to_tier TEXT NOT NULL,
					direction TEXT NOT NULL CHECK (direction IN ('promoted', 'demoted')),
					reason TEXT,
					pairing_id UUID REFERENCES pairings(id) ON DELETE SET NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);

				CREATE TABLE IF NOT EXISTS rematch_requests (
					id UUID PRIMARY KEY,
					caller_id TEXT NOT NULL REFERENCES competitor_profiles(id),
					target_id TEXT NOT NULL REFERENCES competitor_profiles(id),
					fairness_score DOUBLE PRECISION NOT NULL,
					status TEXT NOT NULL
						CHECK (status IN ('pending', 'accepted', 'declined', 'expired', 'scheduled', 'completed')),
					pairing_id UUID REFERENCES pairings(id) ON DELETE SET NULL,
					expires_at TIMESTAMPTZ NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);

				CREATE TABLE IF NOT EXISTS sparring_invitations (
					id UUID PRIMARY KEY,
					inviter_id TEXT NOT NULL REFERENCES competitor_profiles(id),
					invitee_id TEXT NOT NULL REFERENCES competitor_profiles(id),
					status TEXT NOT NULL
						CHECK (status IN ('pending', 'accepted', 'declined', 'expired', 'completed')),
					started_at TIMESTAMPTZ,
					expires_at TIMESTAMPTZ,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
			`); err != nil {
				return fmt.Errorf("failed to create matchmaking tables: %w", err)
			}

			// At most one active pairing per unordered pair of competitors.
			if _, err := tx.ExecContext(ctx, `
				CREATE UNIQUE INDEX IF NOT EXISTS uq_pairings_active_pair
				ON pairings (LEAST(competitor_a, competitor_b), GREATEST(competitor_a, competitor_b))
				WHERE status IN ('pending', 'scheduled');
			`); err != nil {
				return fmt.Errorf("failed to create active pair index: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE INDEX IF NOT EXISTS idx_pairings_competitor_a_status ON pairings(competitor_a, status);
				CREATE INDEX IF NOT EXISTS idx_pairings_competitor_b_status ON pairings(competitor_b, status);
				CREATE INDEX IF NOT EXISTS idx_pairings_type_created ON pairings(match_type, created_at)
					WHERE status IN ('pending', 'scheduled');
				CREATE INDEX IF NOT EXISTS idx_result_submissions_competitor_time ON result_submissions(competitor_id, submitted_at DESC);
				CREATE INDEX IF NOT EXISTS idx_disputes_open ON disputes(pairing_id) WHERE status = 'open';
				CREATE INDEX IF NOT EXISTS idx_tier_history_direction_time ON tier_history(direction, created_at);
				CREATE INDEX IF NOT EXISTS idx_rematch_requests_pending ON rematch_requests(caller_id, target_id) WHERE status = 'pending';
				CREATE INDEX IF NOT EXISTS idx_sparring_invitations_status ON sparring_invitations(status, expires_at);
			`); err != nil {
				return fmt.Errorf("failed to create matchmaking indexes: %w", err)
			}

			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping matchmaking tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				DROP TABLE IF EXISTS sparring_invitations;
				DROP TABLE IF EXISTS rematch_requests;
				DROP TABLE IF EXISTS tier_history;
				DROP TABLE IF EXISTS disputes;
				DROP TABLE IF EXISTS result_submissions;
				DROP TABLE IF EXISTS pairings;
				DROP TABLE IF EXISTS competitor_rankings;
				DROP TABLE IF EXISTS competitor_profiles;
			`); err != nil {
				return fmt.Errorf("failed to drop matchmaking tables: %w", err)
			}
			return nil
		})
	})
}
