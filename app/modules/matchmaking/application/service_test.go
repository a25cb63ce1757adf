package matchmakingservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	matchmakingdomain "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/domain"
	matchmakingdb "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/infrastructure/repositories"
	"github.com/Black-And-White-Club/bout-league/pkg/results"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

var testNow = time.Date(2026, 10, 5, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	svc      *MatchmakingService
	repo     *FakeRepo
	notifier *FakeNotifier
	bracket  *FakeBracket
	jobs     *FakeJobs
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		repo:     NewFakeRepo(),
		notifier: &FakeNotifier{},
		bracket:  &FakeBracket{},
		jobs:     &FakeJobs{},
	}
	env.svc = NewMatchmakingService(
		env.repo,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		NoopMetrics{},
		noop.NewTracerProvider().Tracer("test"),
		nil,
		env.notifier,
		env.bracket,
		env.jobs,
		DefaultConfig(),
	)
	env.svc.SetClock(NewAnchorClock(testNow))
	env.svc.jitter = func(time.Duration) time.Duration { return 0 }
	return env
}

func competitor(id, weightClass string, tier matchmakingdomain.Tier, points int) matchmakingdb.CompetitorProfile {
	return matchmakingdb.CompetitorProfile{
		ID:          id,
		DisplayName: strings.ToUpper(id),
		WeightClass: weightClass,
		Tier:        tier,
		Points:      points,
		Timezone:    "UTC",
		Active:      true,
	}
}

func failureOf[S any](t *testing.T, res results.OperationResult[S, error], err error) error {
	t.Helper()
	require.NoError(t, err)
	require.True(t, res.IsFailure(), "expected failure result")
	return *res.Failure
}

func successOf[S any](t *testing.T, res results.OperationResult[S, error], err error) S {
	t.Helper()
	require.NoError(t, err)
	if res.IsFailure() {
		t.Fatalf("expected success, got failure: %v", *res.Failure)
	}
	require.True(t, res.IsSuccess())
	return *res.Success
}

func TestNewMatchmakingService(t *testing.T) {
	t.Run("nil collaborators fall back to no-ops", func(t *testing.T) {
		svc := NewMatchmakingService(NewFakeRepo(), nil, nil, nil, nil, nil, nil, nil, DefaultConfig())
		require.NotNil(t, svc)
		assert.NotNil(t, svc.logger)
		assert.IsType(t, NoopMetrics{}, svc.metrics)
		assert.IsType(t, noopNotifier{}, svc.notifier)
		assert.IsType(t, noopBracketAdvancer{}, svc.bracket)
		assert.IsType(t, noopJobScheduler{}, svc.jobs)
	})

	t.Run("default filter drops admins and inactive competitors", func(t *testing.T) {
		svc := NewMatchmakingService(NewFakeRepo(), nil, nil, nil, nil, nil, nil, nil, DefaultConfig())
		active := competitor("a", "lightweight", matchmakingdomain.TierPro, 130)
		admin := active
		admin.IsAdmin = true
		inactive := active
		inactive.Active = false

		assert.True(t, svc.filter(&active))
		assert.False(t, svc.filter(&admin))
		assert.False(t, svc.filter(&inactive))
	})
}

func TestWithTelemetry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("infrastructure error is wrapped with the operation name", func(t *testing.T) {
		_, err := withTelemetry(env.svc, ctx, "Op", "id", func(ctx context.Context) (results.OperationResult[int, error], error) {
			return results.OperationResult[int, error]{}, errBoom
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errBoom))
		assert.True(t, strings.HasPrefix(err.Error(), "Op: "))
	})

	t.Run("panic is recovered as an error", func(t *testing.T) {
		_, err := withTelemetry(env.svc, ctx, "Op", "id", func(ctx context.Context) (results.OperationResult[int, error], error) {
			panic("kaboom")
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "kaboom")
	})

	t.Run("success is only recorded for successful results", func(t *testing.T) {
		env := newTestEnv(t)
		metrics := &FakeMetrics{}
		env.svc.metrics = metrics

		_, err := withTelemetry(env.svc, ctx, "Rejected", "id", func(ctx context.Context) (results.OperationResult[int, error], error) {
			return failure[int](ErrSelfPairing), nil
		})
		require.NoError(t, err)
		_, err = withTelemetry(env.svc, ctx, "Accepted", "id", func(ctx context.Context) (results.OperationResult[int, error], error) {
			return success(1), nil
		})
		require.NoError(t, err)

		assert.Equal(t, map[string]int{"Accepted": 1}, metrics.Successes)
		assert.Empty(t, metrics.Failures)
	})

	t.Run("domain failure passes through without error", func(t *testing.T) {
		res, err := withTelemetry(env.svc, ctx, "Op", "id", func(ctx context.Context) (results.OperationResult[int, error], error) {
			return failure[int](&PolicyRejection{Check: matchmakingdomain.CheckTier}), nil
		})
		got := failureOf(t, res, err)
		assert.Equal(t, KindPolicyRejection, KindOf(got))
	})
}

func TestNotifyFailuresAreSwallowed(t *testing.T) {
	env := newTestEnv(t)
	env.notifier.Err = errBoom

	env.svc.notify(context.Background(),
		Notification{Recipient: "a", Category: CategoryPairingCreated},
		Notification{Recipient: "", Category: CategoryPairingCreated},
	)
	assert.Empty(t, env.notifier.Sent)
}
