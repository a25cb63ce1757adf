package matchmakingqueue

import (
	"context"
	"fmt"
	"log/slog"

	matchmakingservice "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/application"
	"github.com/Black-And-White-Club/bout-league/pkg/observability/attr"
	"github.com/Black-And-White-Club/bout-league/pkg/results"
	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

// JobRunner is the part of the matchmaking service the workers drive.
type JobRunner interface {
	ExpirePendingPairing(ctx context.Context, pairingID uuid.UUID) (results.OperationResult[matchmakingservice.ExpiryResult, error], error)
	ExpireRematchRequest(ctx context.Context, requestID uuid.UUID) (results.OperationResult[matchmakingservice.ExpiryResult, error], error)
	ExpireSparringInvitation(ctx context.Context, invitationID uuid.UUID) (results.OperationResult[matchmakingservice.ExpiryResult, error], error)
	RunWeeklyRotation(ctx context.Context) (results.OperationResult[*matchmakingservice.RotationResult, error], error)
}

// runnerSource resolves the runner when a job is worked. The service and the
// queue reference each other, so the runner is bound after construction.
type runnerSource func() JobRunner

// expiryFunc is the shape shared by the three expiry operations.
type expiryFunc func(ctx context.Context, id uuid.UUID) (results.OperationResult[matchmakingservice.ExpiryResult, error], error)

// runExpiry parses the id and runs the expiry. Infrastructure errors are
// returned so River retries; domain failures are logged and the job completes.
func runExpiry(ctx context.Context, logger *slog.Logger, kind, rawID string, expire expiryFunc) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		logger.ErrorContext(ctx, "Expiry job has an invalid id, discarding",
			attr.String("kind", kind),
			attr.String("id", rawID),
			attr.Error(err),
		)
		return river.JobCancel(fmt.Errorf("invalid id %q: %w", rawID, err))
	}

	result, err := expire(ctx, id)
	if err != nil {
		return fmt.Errorf("%s %s: %w", kind, id, err)
	}
	if result.IsFailure() {
		logger.InfoContext(ctx, "Expiry job found nothing to expire",
			attr.String("kind", kind),
			attr.String("id", id.String()),
			attr.Error(*result.Failure),
		)
		return nil
	}
	if result.Success != nil && result.Success.Expired {
		logger.InfoContext(ctx, "Expired by job", attr.String("kind", kind), attr.String("id", id.String()))
	}
	return nil
}

// PairingExpiryWorker works PairingExpiryJob.
type PairingExpiryWorker struct {
	river.WorkerDefaults[PairingExpiryJob]
	logger *slog.Logger
	runner runnerSource
}

func (w *PairingExpiryWorker) Work(ctx context.Context, job *river.Job[PairingExpiryJob]) error {
	return runExpiry(ctx, w.logger, KindPairingExpiry, job.Args.PairingID, w.runner().ExpirePendingPairing)
}

// RematchExpiryWorker works RematchExpiryJob.
type RematchExpiryWorker struct {
	river.WorkerDefaults[RematchExpiryJob]
	logger *slog.Logger
	runner runnerSource
}

func (w *RematchExpiryWorker) Work(ctx context.Context, job *river.Job[RematchExpiryJob]) error {
	return runExpiry(ctx, w.logger, KindRematchExpiry, job.Args.RequestID, w.runner().ExpireRematchRequest)
}

// SparringExpiryWorker works SparringExpiryJob.
type SparringExpiryWorker struct {
	river.WorkerDefaults[SparringExpiryJob]
	logger *slog.Logger
	runner runnerSource
}

func (w *SparringExpiryWorker) Work(ctx context.Context, job *river.Job[SparringExpiryJob]) error {
	return runExpiry(ctx, w.logger, KindSparringExpiry, job.Args.InvitationID, w.runner().ExpireSparringInvitation)
}

// WeeklyRotationWorker works WeeklyRotationJob.
type WeeklyRotationWorker struct {
	river.WorkerDefaults[WeeklyRotationJob]
	logger *slog.Logger
	runner runnerSource
}

func (w *WeeklyRotationWorker) Work(ctx context.Context, job *river.Job[WeeklyRotationJob]) error {
	result, err := w.runner().RunWeeklyRotation(ctx)
	if err != nil {
		return fmt.Errorf("weekly rotation: %w", err)
	}
	if result.IsFailure() {
		w.logger.WarnContext(ctx, "Weekly rotation refused", attr.Error(*result.Failure))
		return nil
	}
	if result.Success == nil || *result.Success == nil {
		return nil
	}

	rotation := *result.Success
	logAttrs := []any{attr.Int("cancelled", len(rotation.Cancelled))}
	if rotation.Sweep != nil {
		logAttrs = append(logAttrs,
			attr.Int("created", len(rotation.Sweep.Created)),
			attr.Int("unmatched", len(rotation.Sweep.Unmatched)),
			attr.Bool("interrupted", rotation.Sweep.Interrupted),
		)
	}
	w.logger.InfoContext(ctx, "Weekly rotation completed", logAttrs...)
	return nil
}
