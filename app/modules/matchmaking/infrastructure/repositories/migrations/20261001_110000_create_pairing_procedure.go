package matchmakingmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating create_pairing_if_absent procedure...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE OR REPLACE FUNCTION create_pairing_if_absent(
					p_id UUID,
					p_competitor_a TEXT,
					p_competitor_b TEXT,
					p_weight_class TEXT,
					p_status TEXT,
					p_match_type TEXT,
					p_score DOUBLE PRECISION,
					p_scheduled_at TIMESTAMPTZ,
					p_requested_by TEXT,
					p_bracket_node_id TEXT,
					p_created_at TIMESTAMPTZ
				) RETURNS BOOLEAN
				LANGUAGE plpgsql
				SECURITY DEFINER
				SET search_path = public
				AS $$
				BEGIN
					PERFORM pg_advisory_xact_lock(
						hashtext(LEAST(p_competitor_a, p_competitor_b) || ':' || GREATEST(p_competitor_a, p_competitor_b))
					);

					IF EXISTS (
						SELECT 1 FROM pairings
						WHERE LEAST(competitor_a, competitor_b) = LEAST(p_competitor_a, p_competitor_b)
						  AND GREATEST(competitor_a, competitor_b) = GREATEST(p_competitor_a, p_competitor_b)
						  AND status IN ('pending', 'scheduled')
					) THEN
						RETURN FALSE;
					END IF;

					INSERT INTO pairings (
						id, competitor_a, competitor_b, weight_class, status, match_type,
						compatibility_score, scheduled_at, requested_by, bracket_node_id,
						created_at, updated_at
					) VALUES (
						p_id, p_competitor_a, p_competitor_b, p_weight_class, p_status, p_match_type,
						p_score, p_scheduled_at, p_requested_by, p_bracket_node_id,
						p_created_at, p_created_at
					);
					RETURN TRUE;
				EXCEPTION
					WHEN unique_violation THEN
						RETURN FALSE;
				END;
				$$;
			`); err != nil {
				return fmt.Errorf("failed to create create_pairing_if_absent: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping create_pairing_if_absent procedure...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				DROP FUNCTION IF EXISTS create_pairing_if_absent(
					UUID, TEXT, TEXT, TEXT, TEXT, TEXT, DOUBLE PRECISION, TIMESTAMPTZ, TEXT, TEXT, TIMESTAMPTZ
				);
			`); err != nil {
				return fmt.Errorf("failed to drop create_pairing_if_absent: %w", err)
			}
			return nil
		})
	})
}
