package matchmakingqueue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	matchmakingservice "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/application"
	"github.com/Black-And-White-Club/bout-league/pkg/observability/attr"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/uptrace/bun"
)

// QueueName is the dedicated River queue for matchmaking jobs.
const QueueName = "matchmaking"

// Metrics is the subset of the matchmaking metrics the queue records.
type Metrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)
}

// QueueService defines the job scheduling contract for the matchmaking module.
type QueueService interface {
	matchmakingservice.JobScheduler
	// CancelJobs cancels pending expiry jobs for a pairing, rematch request or invitation.
	CancelJobs(ctx context.Context, subjectID uuid.UUID) error
	// GetScheduledJobs returns jobs referencing the subject (for debugging)
	GetScheduledJobs(ctx context.Context, subjectID uuid.UUID) ([]JobInfo, error)
	HealthCheck(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

var _ QueueService = (*Service)(nil)

// Config tunes the River client.
type Config struct {
	MaxWorkers int
	// RotationInterval is how often the weekly rotation runs. Zero disables it.
	RotationInterval time.Duration
	// RunRotationOnStart fires the rotation once when the client starts.
	RunRotationOnStart bool
	// Migrate applies River's schema before the client is built.
	Migrate bool
}

// Service schedules matchmaking jobs on River.
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	logger  *slog.Logger
	db      *bun.DB
	metrics Metrics

	mu     sync.RWMutex
	runner JobRunner
}

// subjectArgKeys maps job kinds to the args field that carries the subject id.
var subjectArgKeys = map[string]string{
	KindPairingExpiry:  "pairing_id",
	KindRematchExpiry:  "request_id",
	KindSparringExpiry: "invitation_id",
}

// NewService creates the River-backed queue. The job runner is bound later
// with SetRunner, before Start.
func NewService(ctx context.Context, bunDB *bun.DB, logger *slog.Logger, dsn string, metrics Metrics, cfg Config) (*Service, error) {
	ctxLogger := logger.With(
		attr.String("operation", "new_matchmaking_queue_service"),
		attr.String("component", "river_queue"),
	)

	start := time.Now()
	metrics.RecordOperationAttempt(ctx, "initialize_service", "river")

	ctxLogger.Info("Initializing matchmaking queue service")

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.Migrate {
		if err := Migrate(ctx, pool); err != nil {
			pool.Close()
			metrics.RecordOperationFailure(ctx, "initialize_service", "river")
			return nil, err
		}
	}

	service := &Service{
		pool:    pool,
		logger:  logger.With(attr.String("component", "river_queue")),
		db:      bunDB,
		metrics: metrics,
	}

	riverClient, err := river.NewClient(riverpgxv5.New(pool), service.clientConfig(cfg))
	if err != nil {
		pool.Close()
		ctxLogger.Error("Failed to create River client", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}
	service.client = riverClient

	metrics.RecordOperationSuccess(ctx, "initialize_service", "river")
	metrics.RecordOperationDuration(ctx, "initialize_service", "river", time.Since(start))

	ctxLogger.Info("Matchmaking queue service initialized")
	return service, nil
}

// Migrate applies River's own tables to the database behind pool.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{}); err != nil {
		return fmt.Errorf("failed to run river migrations: %w", err)
	}
	return nil
}

// clientConfig registers the workers and the periodic rotation.
func (s *Service) clientConfig(cfg Config) *river.Config {
	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 10
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &PairingExpiryWorker{logger: s.logger, runner: s.currentRunner})
	river.AddWorker(workers, &RematchExpiryWorker{logger: s.logger, runner: s.currentRunner})
	river.AddWorker(workers, &SparringExpiryWorker{logger: s.logger, runner: s.currentRunner})
	river.AddWorker(workers, &WeeklyRotationWorker{logger: s.logger, runner: s.currentRunner})

	config := &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 1},
			QueueName:          {MaxWorkers: maxWorkers},
		},
		Workers: workers,
	}

	if cfg.RotationInterval > 0 {
		config.PeriodicJobs = []*river.PeriodicJob{
			river.NewPeriodicJob(
				river.PeriodicInterval(cfg.RotationInterval),
				func() (river.JobArgs, *river.InsertOpts) {
					return WeeklyRotationJob{}, &river.InsertOpts{Queue: QueueName}
				},
				&river.PeriodicJobOpts{RunOnStart: cfg.RunRotationOnStart},
			),
		}
	}
	return config
}

// SetRunner binds the service the workers drive.
func (s *Service) SetRunner(r JobRunner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runner = r
}

func (s *Service) currentRunner() JobRunner {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runner
}

// Start starts the River client. SetRunner must have been called.
func (s *Service) Start(ctx context.Context) error {
	done := s.track(ctx, "start_service")

	if s.currentRunner() == nil {
		return done(fmt.Errorf("queue started without a job runner"))
	}
	if err := s.client.Start(ctx); err != nil {
		s.logger.Error("Failed to start River client", attr.Error(err))
		return done(fmt.Errorf("failed to start River client: %w", err))
	}

	s.logger.Info("Matchmaking queue service started")
	return done(nil)
}

// Stop stops the River client and releases its pool.
func (s *Service) Stop(ctx context.Context) error {
	done := s.track(ctx, "stop_service")

	err := s.client.Stop(ctx)
	s.pool.Close()
	if err != nil {
		s.logger.Error("Failed to stop River client", attr.Error(err))
		return done(fmt.Errorf("failed to stop River client: %w", err))
	}

	s.logger.Info("Matchmaking queue service stopped")
	return done(nil)
}

// SchedulePairingExpiry schedules expiry of a pending pairing.
func (s *Service) SchedulePairingExpiry(ctx context.Context, pairingID uuid.UUID, at time.Time) error {
	return s.schedule(ctx, "schedule_pairing_expiry", PairingExpiryJob{PairingID: pairingID.String()}, at)
}

// ScheduleRematchExpiry schedules expiry of a rematch request.
func (s *Service) ScheduleRematchExpiry(ctx context.Context, requestID uuid.UUID, at time.Time) error {
	return s.schedule(ctx, "schedule_rematch_expiry", RematchExpiryJob{RequestID: requestID.String()}, at)
}

// ScheduleSparringExpiry schedules expiry of a sparring invitation or session.
// Accepting an invitation schedules a second job at the session deadline; the
// args are identical, so the schedule time is part of uniqueness.
func (s *Service) ScheduleSparringExpiry(ctx context.Context, invitationID uuid.UUID, at time.Time) error {
	return s.schedule(ctx, "schedule_sparring_expiry", SparringExpiryJob{InvitationID: invitationID.String()}, at)
}

func (s *Service) schedule(ctx context.Context, operation string, job river.JobArgs, at time.Time) error {
	done := s.track(ctx, operation)

	ctxLogger := s.logger.With(
		attr.String("operation", operation),
		attr.String("job_kind", job.Kind()),
		attr.Time("scheduled_at", at),
	)

	// A deadline already behind us runs right away; the worker re-checks it.
	jobResult, err := s.client.Insert(ctx, job, &river.InsertOpts{
		Queue:       QueueName,
		ScheduledAt: at,
		UniqueOpts: river.UniqueOpts{
			ByArgs:   true,
			ByPeriod: time.Minute,
		},
	})
	if err != nil {
		ctxLogger.Error("Failed to schedule job", attr.Error(err))
		return done(fmt.Errorf("failed to schedule %s job: %w", job.Kind(), err))
	}

	ctxLogger.Info("Job scheduled",
		attr.Int64("job_id", jobResult.Job.ID),
		attr.Bool("duplicate", jobResult.UniqueSkippedAsDuplicate),
	)
	return done(nil)
}

type riverJobRow struct {
	ID          int64          `bun:"id"`
	Kind        string         `bun:"kind"`
	State       string         `bun:"state"`
	Args        map[string]any `bun:"args,type:jsonb"`
	ScheduledAt *time.Time     `bun:"scheduled_at"`
	CreatedAt   time.Time      `bun:"created_at"`
	Attempt     int16          `bun:"attempt"`
	MaxAttempts int16          `bun:"max_attempts"`
}

// subjectJobs selects expiry jobs whose args reference the subject.
func (s *Service) subjectJobs(subjectID uuid.UUID) *bun.SelectQuery {
	id := subjectID.String()
	return s.db.NewSelect().
		Table("river_job").
		Column("id", "kind", "state", "args", "scheduled_at", "created_at", "attempt", "max_attempts").
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			for kind, key := range subjectArgKeys {
				q = q.WhereOr("kind = ? AND args->>? = ?", kind, key, id)
			}
			return q
		})
}

// CancelJobs cancels pending expiry jobs that reference the subject.
func (s *Service) CancelJobs(ctx context.Context, subjectID uuid.UUID) error {
	done := s.track(ctx, "cancel_jobs")

	ctxLogger := s.logger.With(
		attr.String("subject_id", subjectID.String()),
		attr.String("operation", "cancel_jobs"),
	)

	var jobs []riverJobRow
	err := s.subjectJobs(subjectID).
		Where("state IN (?, ?)", "available", "scheduled").
		Scan(ctx, &jobs)
	if err != nil {
		ctxLogger.Error("Failed to query jobs for cancellation", attr.Error(err))
		return done(fmt.Errorf("failed to query jobs for cancellation: %w", err))
	}

	cancelled := 0
	for _, job := range jobs {
		if _, err := s.client.JobCancel(ctx, job.ID); err != nil {
			ctxLogger.Warn("Failed to cancel job",
				attr.Int64("job_id", job.ID),
				attr.String("job_kind", job.Kind),
				attr.Error(err))
			continue
		}
		cancelled++
	}

	ctxLogger.Info("Jobs cancellation completed",
		attr.Int("total_found", len(jobs)),
		attr.Int("cancelled_count", cancelled))

	if cancelled != len(jobs) {
		return done(fmt.Errorf("cancelled %d of %d jobs for %s", cancelled, len(jobs), subjectID))
	}
	return done(nil)
}

// GetScheduledJobs returns every job referencing the subject, oldest schedule first.
func (s *Service) GetScheduledJobs(ctx context.Context, subjectID uuid.UUID) ([]JobInfo, error) {
	done := s.track(ctx, "get_scheduled_jobs")

	var jobs []riverJobRow
	err := s.subjectJobs(subjectID).
		Order("scheduled_at ASC NULLS LAST", "created_at ASC").
		Scan(ctx, &jobs)
	if err != nil {
		return nil, done(fmt.Errorf("failed to query scheduled jobs: %w", err))
	}

	out := make([]JobInfo, len(jobs))
	for i, job := range jobs {
		scheduledAt := ""
		if job.ScheduledAt != nil {
			scheduledAt = job.ScheduledAt.Format(time.RFC3339)
		}
		out[i] = JobInfo{
			ID:          job.ID,
			Kind:        job.Kind,
			SubjectID:   subjectID.String(),
			State:       job.State,
			ScheduledAt: scheduledAt,
			CreatedAt:   job.CreatedAt.Format(time.RFC3339),
			Attempt:     int(job.Attempt),
			MaxAttempts: int(job.MaxAttempts),
		}
	}
	return out, done(nil)
}

// HealthCheck verifies the queue service is healthy
func (s *Service) HealthCheck(ctx context.Context) error {
	done := s.track(ctx, "health_check")

	if s.client == nil {
		return done(fmt.Errorf("river client is nil"))
	}

	var count int
	err := s.db.NewSelect().
		Table("river_job").
		ColumnExpr("COUNT(*)").
		Where("queue = ?", QueueName).
		Scan(ctx, &count)
	if err != nil {
		s.logger.Error("Queue service health check failed", attr.Error(err))
		return done(fmt.Errorf("queue service health check failed: %w", err))
	}

	s.logger.Debug("Queue service health check passed", attr.Int("total_jobs", count))
	return done(nil)
}

// Client returns the underlying River client.
func (s *Service) Client() *river.Client[pgx.Tx] {
	return s.client
}

// track records an attempt and returns a func that records the outcome and
// duration, passing err through.
func (s *Service) track(ctx context.Context, operation string) func(error) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, operation, "river")
	return func(err error) error {
		if err != nil {
			s.metrics.RecordOperationFailure(ctx, operation, "river")
		} else {
			s.metrics.RecordOperationSuccess(ctx, operation, "river")
		}
		s.metrics.RecordOperationDuration(ctx, operation, "river", time.Since(start))
		return err
	}
}
