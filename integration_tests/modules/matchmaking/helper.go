package matchmakingintegrationtests

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	matchmakingservice "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/application"
	matchmakingdb "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/infrastructure/repositories"
	"github.com/Black-And-White-Club/bout-league/integration_tests/testutils"
)

// testEnv is the shared environment managed by TestMain.
var testEnv *testutils.TestEnvironment

// TestDeps holds what a single test needs.
type TestDeps struct {
	Ctx      context.Context
	Repo     matchmakingdb.Repository
	Service  *matchmakingservice.MatchmakingService
	Notifier *recordingNotifier
	Data     *testutils.TestDataGenerator
}

// recordingNotifier keeps every notification the service sends.
type recordingNotifier struct {
	mu    sync.Mutex
	notes []matchmakingservice.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, note matchmakingservice.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note)
	return nil
}

func (n *recordingNotifier) Recipients() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.notes))
	for _, note := range n.notes {
		out = append(out, note.Recipient)
	}
	return out
}

// SetupTestService resets the database and builds a service on the shared
// environment. jobs may be nil.
func SetupTestService(t *testing.T, jobs matchmakingservice.JobScheduler, cfg matchmakingservice.Config) TestDeps {
	t.Helper()
	require.NoError(t, testEnv.Reset())

	repo := matchmakingdb.NewRepository(testEnv.DB)
	notifier := &recordingNotifier{}
	service := matchmakingservice.NewMatchmakingService(
		repo,
		testEnv.Logger,
		matchmakingservice.NoopMetrics{},
		noop.NewTracerProvider().Tracer("test"),
		testEnv.DB,
		notifier,
		nil,
		jobs,
		cfg,
	)
	return TestDeps{
		Ctx:      testEnv.Ctx,
		Repo:     repo,
		Service:  service,
		Notifier: notifier,
		Data:     testutils.NewTestDataGenerator(42),
	}
}

// testConfig is the default league config with scheduling offsets removed.
func testConfig() matchmakingservice.Config {
	cfg := matchmakingservice.DefaultConfig()
	cfg.MaxScheduleOffset = 0
	return cfg
}
