package matchmakingservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	matchmakingdomain "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/domain"
	matchmakingdb "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/infrastructure/repositories"
	"github.com/Black-And-White-Club/bout-league/pkg/observability/attr"
	"github.com/Black-And-White-Club/bout-league/pkg/results"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "MatchmakingService"

// txRunner is the part of *bun.DB the service needs to open transactions.
type txRunner interface {
	RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error
}

// MatchmakingService implements the Service interface.
type MatchmakingService struct {
	repo     matchmakingdb.Repository
	logger   *slog.Logger
	metrics  Metrics
	tracer   trace.Tracer
	db       txRunner
	notifier Notifier
	bracket  BracketAdvancer
	jobs     JobScheduler
	filter   CompetitorFilter
	parser   *ScheduleParser
	cfg      Config
	clock    Clock
	// jitter returns a random offset in [0, max].
	jitter func(max time.Duration) time.Duration
}

// NewMatchmakingService creates a new MatchmakingService. Nil collaborators
// are replaced with no-op implementations.
func NewMatchmakingService(
	repo matchmakingdb.Repository,
	logger *slog.Logger,
	metrics Metrics,
	tracer trace.Tracer,
	db *bun.DB,
	notifier Notifier,
	bracket BracketAdvancer,
	jobs JobScheduler,
	cfg Config,
) *MatchmakingService {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if bracket == nil {
		bracket = noopBracketAdvancer{}
	}
	if jobs == nil {
		jobs = noopJobScheduler{}
	}
	svc := &MatchmakingService{
		repo:     repo,
		logger:   logger,
		metrics:  metrics,
		tracer:   tracer,
		notifier: notifier,
		bracket:  bracket,
		jobs:     jobs,
		filter:   AllOf(ExcludeInactive, ExcludeAdmins),
		parser:   NewScheduleParser(),
		cfg:      cfg,
		clock:    realClock{},
		jitter:   randomJitter,
	}
	if db != nil {
		svc.db = db
	}
	return svc
}

// SetCompetitorFilter replaces the sweep ingestion filter.
func (s *MatchmakingService) SetCompetitorFilter(f CompetitorFilter) {
	if f == nil {
		f = AllOf()
	}
	s.filter = f
}

// SetClock replaces the time source. A nil clock restores the wall clock.
func (s *MatchmakingService) SetClock(c Clock) {
	if c == nil {
		c = realClock{}
	}
	s.clock = c
}

func randomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(max) + 1))
}

func (s *MatchmakingService) now() time.Time {
	return s.clock.Now().UTC()
}

// systemScheduleTime is the start time for system-generated pairings.
func (s *MatchmakingService) systemScheduleTime() time.Time {
	return s.now().Add(s.cfg.ScheduleLead + s.jitter(s.cfg.MaxScheduleOffset))
}

// notify delivers notifications after a commit. Failures are logged and counted only.
func (s *MatchmakingService) notify(ctx context.Context, notes ...Notification) {
	for _, n := range notes {
		if n.Recipient == "" {
			continue
		}
		if err := s.notifier.Notify(ctx, n); err != nil {
			s.logger.WarnContext(ctx, "Failed to deliver notification",
				attr.ExtractCorrelationID(ctx),
				attr.String("recipient", n.Recipient),
				attr.String("category", string(n.Category)),
				attr.Error(err),
			)
			s.metrics.RecordNotificationFailure(ctx, string(n.Category))
		}
	}
}

// loadPair fetches both competitors, failing with ErrCompetitorNotFound when either is missing.
func (s *MatchmakingService) loadPair(ctx context.Context, db bun.IDB, a, b string) (*matchmakingdb.CompetitorProfile, *matchmakingdb.CompetitorProfile, error) {
	profiles, err := s.repo.GetCompetitors(ctx, db, []string{a, b})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load competitors: %w", err)
	}
	pa, okA := profiles[a]
	pb, okB := profiles[b]
	if !okA || !okB {
		return nil, nil, ErrCompetitorNotFound
	}
	return pa, pb, nil
}

// snapshots builds fairness snapshots for the given profiles, reading ranks once
// per weight class. Unranked competitors sit one place below the last ranked one.
func (s *MatchmakingService) snapshots(ctx context.Context, db bun.IDB, profiles ...*matchmakingdb.CompetitorProfile) ([]matchmakingdomain.Snapshot, error) {
	ranksByClass := make(map[string]map[string]int)
	out := make([]matchmakingdomain.Snapshot, 0, len(profiles))
	for _, p := range profiles {
		ranks, ok := ranksByClass[p.WeightClass]
		if !ok {
			var err error
			ranks, err = s.repo.GetRanks(ctx, db, p.WeightClass)
			if err != nil {
				return nil, fmt.Errorf("failed to load ranks for %s: %w", p.WeightClass, err)
			}
			ranksByClass[p.WeightClass] = ranks
		}
		rank, ranked := ranks[p.ID]
		if !ranked {
			rank = len(ranks) + 1
		}
		out = append(out, snapshotOf(p, rank))
	}
	return out, nil
}

func snapshotOf(p *matchmakingdb.CompetitorProfile, rank int) matchmakingdomain.Snapshot {
	return matchmakingdomain.Snapshot{
		ID:          p.ID,
		WeightClass: p.WeightClass,
		Tier:        p.Tier,
		Points:      p.Points,
		Rank:        rank,
		Timezone:    p.Timezone,
	}
}

// createSystemPairing inserts a pairing on behalf of the system. A permission
// rejection is retried once through the privileged create-if-absent procedure.
func (s *MatchmakingService) createSystemPairing(ctx context.Context, db bun.IDB, p *matchmakingdb.Pairing) error {
	err := s.repo.CreatePairing(ctx, db, p)
	if err == nil {
		return nil
	}
	if errors.Is(err, matchmakingdb.ErrActivePairingExists) {
		return ErrAlreadyPaired
	}
	if !errors.Is(err, matchmakingdb.ErrPermissionDenied) {
		return err
	}

	s.logger.InfoContext(ctx, "Direct pairing insert denied, retrying through privileged procedure",
		attr.ExtractCorrelationID(ctx),
		attr.PairingID(p.ID),
	)
	created, err := s.repo.CreatePairingIfAbsent(ctx, db, p)
	if err != nil {
		if errors.Is(err, matchmakingdb.ErrPermissionDenied) {
			return ErrPermissionDenied
		}
		return err
	}
	if !created {
		return ErrAlreadyPaired
	}
	return nil
}

// -----------------------------------------------------------------------------
// Generic Helpers (Defined as functions because methods cannot have type params)
// -----------------------------------------------------------------------------

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *MatchmakingService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {

	// Start span
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("identifier", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(startTime))
	}()

	s.logger.InfoContext(ctx, "Operation triggered", attr.ExtractCorrelationID(ctx), attr.String("operation", operationName))

	// Panic recovery
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.String("identifier", identifier),
				attr.Error(err),
			)
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	// Handle Infrastructure Error
	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Error(wrappedErr),
		)
		s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	// Handle Domain Failure. Policy rejections are expected and logged at info.
	if result.IsFailure() {
		level := slog.LevelWarn
		if failureErr, ok := any(*result.Failure).(error); ok {
			var rejection *PolicyRejection
			if errors.As(failureErr, &rejection) {
				level = slog.LevelInfo
				s.metrics.RecordPolicyRejection(ctx, string(rejection.Check))
			}
		}
		s.logger.Log(ctx, level, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Any("failure_payload", *result.Failure),
		)
	}

	if result.IsSuccess() {
		s.logger.InfoContext(ctx, "Operation completed successfully",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
		)
		s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	}

	return result, nil
}

// runInTx ensures the operation runs within a transaction.
func runInTx[S any, F any](
	s *MatchmakingService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {

	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		return txErr
	})

	return result, err
}

// failure builds a domain failure result.
func failure[S any](err error) results.OperationResult[S, error] {
	return results.FailureResult[S, error](err)
}

// success builds a success result.
func success[S any](v S) results.OperationResult[S, error] {
	return results.SuccessResult[S, error](v)
}
