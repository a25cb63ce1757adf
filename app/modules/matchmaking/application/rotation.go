package matchmakingservice

import (
	"context"
	"errors"
	"fmt"

	matchmakingdomain "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/domain"
	matchmakingdb "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/infrastructure/repositories"
	"github.com/Black-And-White-Club/bout-league/pkg/observability/attr"
	"github.com/Black-And-White-Club/bout-league/pkg/results"
	"github.com/uptrace/bun"
)

const rotationCancelReason = "weekly rotation"

// RunWeeklyRotation cancels mandatory pairings that outlived the rotation age
// and refills the pool with a fresh sweep. Running it again with no new data
// cancels nothing.
func (s *MatchmakingService) RunWeeklyRotation(ctx context.Context) (results.OperationResult[*RotationResult, error], error) {
	return withTelemetry(s, ctx, "RunWeeklyRotation", "league", func(ctx context.Context) (results.OperationResult[*RotationResult, error], error) {
		cutoff := s.now().Add(-s.cfg.RotationAge)
		stale, err := s.repo.ListStaleActivePairings(ctx, nil, matchmakingdomain.MatchTypeAutoMandatory, cutoff)
		if err != nil {
			return results.OperationResult[*RotationResult, error]{}, fmt.Errorf("failed to list stale pairings: %w", err)
		}

		out := &RotationResult{}
		for i := range stale {
			if ctx.Err() != nil {
				break
			}
			p := &stale[i]
			cancelled, err := s.rotateOut(ctx, p)
			if err != nil {
				s.logger.WarnContext(ctx, "Failed to rotate out pairing",
					attr.ExtractCorrelationID(ctx),
					attr.PairingID(p.ID),
					attr.Error(err),
				)
				continue
			}
			if !cancelled {
				continue
			}
			out.Cancelled = append(out.Cancelled, p.ID)
			s.notify(ctx, pairingNotes(p, CategoryPairingCancelled, "Mandatory bout rotated out", cancelMessage(p))...)
		}

		s.logger.InfoContext(ctx, "Rotation cancelled stale pairings",
			attr.ExtractCorrelationID(ctx),
			attr.Int("found", len(stale)),
			attr.Int("cancelled", len(out.Cancelled)),
		)

		sweep, err := s.sweep(ctx)
		if err != nil {
			return results.OperationResult[*RotationResult, error]{}, err
		}
		out.Sweep = sweep
		return success(out), nil
	})
}

func (s *MatchmakingService) rotateOut(ctx context.Context, p *matchmakingdb.Pairing) (bool, error) {
	result, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[bool, error], error) {
		reason := rotationCancelReason
		err := s.transition(ctx, db, p, matchmakingdomain.ActiveStatuses, matchmakingdb.PairingStatusUpdate{
			Status:       matchmakingdomain.StatusCancelled,
			CancelReason: &reason,
			UpdatedAt:    s.now(),
		})
		if errors.Is(err, ErrInvalidTransition) {
			return success(false), nil
		}
		if err != nil {
			return results.OperationResult[bool, error]{}, err
		}
		return success(true), nil
	})
	if err != nil {
		return false, err
	}
	return *result.Success, nil
}

