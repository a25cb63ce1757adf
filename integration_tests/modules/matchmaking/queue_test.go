//go:build integration

package matchmakingintegrationtests

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	matchmakingservice "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/application"
	matchmakingdomain "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/domain"
	matchmakingqueue "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/infrastructure/queue"
	"github.com/Black-And-White-Club/bout-league/integration_tests/testutils"
)

type noopQueueMetrics struct{}

func (noopQueueMetrics) RecordOperationAttempt(context.Context, string, string)                {}
func (noopQueueMetrics) RecordOperationSuccess(context.Context, string, string)                {}
func (noopQueueMetrics) RecordOperationFailure(context.Context, string, string)                {}
func (noopQueueMetrics) RecordOperationDuration(context.Context, string, string, time.Duration) {}

func newQueue(t *testing.T) *matchmakingqueue.Service {
	t.Helper()
	queue, err := matchmakingqueue.NewService(testEnv.Ctx, testEnv.DB, testEnv.Logger, testEnv.Config.Postgres.DSN, noopQueueMetrics{}, matchmakingqueue.Config{
		MaxWorkers:       2,
		RotationInterval: 24 * time.Hour,
	})
	require.NoError(t, err)
	return queue
}

func TestQueue_ScheduleInspectCancel(t *testing.T) {
	require.NoError(t, testEnv.Reset())
	queue := newQueue(t)
	t.Cleanup(func() { _ = queue.Stop(context.Background()) })

	ctx := testEnv.Ctx
	require.NoError(t, queue.HealthCheck(ctx))

	pairingID := uuid.New()
	at := time.Now().Add(time.Hour)
	require.NoError(t, queue.SchedulePairingExpiry(ctx, pairingID, at))
	require.NoError(t, queue.SchedulePairingExpiry(ctx, pairingID, at), "duplicate schedules are absorbed")
	require.NoError(t, queue.ScheduleRematchExpiry(ctx, uuid.New(), at))

	jobs, err := queue.GetScheduledJobs(ctx, pairingID)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, matchmakingqueue.KindPairingExpiry, jobs[0].Kind)
	assert.Equal(t, pairingID.String(), jobs[0].SubjectID)
	scheduledAt, err := time.Parse(time.RFC3339, jobs[0].ScheduledAt)
	require.NoError(t, err)
	assert.WithinDuration(t, at, scheduledAt, time.Second)

	require.NoError(t, queue.CancelJobs(ctx, pairingID))

	jobs, err = queue.GetScheduledJobs(ctx, pairingID)
	require.NoError(t, err)
	for _, j := range jobs {
		assert.Equal(t, "cancelled", j.State)
	}
}

func TestQueue_StartRequiresRunner(t *testing.T) {
	require.NoError(t, testEnv.Reset())
	queue := newQueue(t)
	t.Cleanup(func() { _ = queue.Stop(context.Background()) })

	assert.Error(t, queue.Start(testEnv.Ctx))
}

func TestQueue_ExpiresPendingPairing(t *testing.T) {
	queue := newQueue(t)

	cfg := testConfig()
	cfg.PendingExpiry = 0
	deps := SetupTestService(t, queue, cfg)
	queue.SetRunner(deps.Service)

	ctx, cancel := context.WithCancel(testEnv.Ctx)
	require.NoError(t, queue.Start(ctx))
	t.Cleanup(func() {
		cancel()
		_ = queue.Stop(context.Background())
	})

	a := deps.Data.GenerateCompetitor(testutils.WithPoints(5))
	b := deps.Data.GenerateCompetitor(testutils.WithPoints(5))
	require.NoError(t, testutils.InsertCompetitors(deps.Ctx, testEnv.DB, a, b))

	created, err := deps.Service.RequestPairing(deps.Ctx, matchmakingservice.PairingRequest{RequesterID: a.ID, OpponentID: b.ID})
	require.NoError(t, err)
	require.True(t, created.IsSuccess(), "request failed: %v", created.Failure)
	pairingID := (*created.Success).Pairing.ID

	require.Eventually(t, func() bool {
		p, err := deps.Repo.GetPairing(deps.Ctx, nil, pairingID)
		return err == nil && p.Status == matchmakingdomain.StatusCancelled
	}, 20*time.Second, 250*time.Millisecond)

	p, err := deps.Repo.GetPairing(deps.Ctx, nil, pairingID)
	require.NoError(t, err)
	require.NotNil(t, p.CancelReason)
	assert.Equal(t, "expired", *p.CancelReason)
}
