package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"log/slog"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/Black-And-White-Club/bout-league/config"
	"github.com/Black-And-White-Club/bout-league/integration_tests/containers"
	"github.com/Black-And-White-Club/bout-league/pkg/eventbus"
	matchmakingevents "github.com/Black-And-White-Club/bout-league/pkg/events/matchmaking"
)

// TestEnvironment holds the containers and connections shared by an integration test package.
type TestEnvironment struct {
	Ctx           context.Context
	CancelContext context.CancelFunc
	PgContainer   *postgres.PostgresContainer
	NatsContainer testcontainers.Container
	DB            *bun.DB
	EventBus      *eventbus.JetStreamEventBus
	Config        *config.Config
	Logger        *slog.Logger
}

// NewTestEnvironment starts Postgres and NATS, runs every migration and
// connects the JetStream event bus.
func NewTestEnvironment() (*TestEnvironment, error) {
	ctx, cancel := context.WithCancel(context.Background())
	env := &TestEnvironment{
		Ctx:           ctx,
		CancelContext: cancel,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if err := env.setup(ctx); err != nil {
		env.Cleanup()
		return nil, err
	}
	return env, nil
}

func (env *TestEnvironment) setup(ctx context.Context) error {
	pgContainer, pgConnStr, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		return fmt.Errorf("failed to setup postgres container: %w", err)
	}
	env.PgContainer = pgContainer

	natsContainer, natsURL, err := containers.SetupNatsContainer(ctx)
	if err != nil {
		return fmt.Errorf("failed to setup nats container: %w", err)
	}
	env.NatsContainer = natsContainer

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(pgConnStr)))
	env.DB = bun.NewDB(sqldb, pgdialect.New())

	if err := RunMigrations(ctx, env.DB, pgConnStr); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	cfg := config.Default()
	cfg.Postgres.DSN = pgConnStr
	cfg.NATS.URL = natsURL
	env.Config = &cfg

	bus, err := eventbus.NewJetStreamEventBus(eventbus.JetStreamConfig{
		URL:           natsURL,
		DurablePrefix: "integration",
		Streams: []eventbus.StreamConfig{
			{Name: matchmakingevents.StreamMatchmaking, MaxAge: time.Hour},
			{Name: matchmakingevents.StreamNotification, MaxAge: time.Hour},
			{Name: matchmakingevents.StreamBracket, MaxAge: time.Hour},
		},
		AckWait: 5 * time.Second,
	}, env.Logger)
	if err != nil {
		return fmt.Errorf("failed to create event bus: %w", err)
	}
	env.EventBus = bus
	return nil
}

// Reset truncates every matchmaking table and clears queued jobs.
func (env *TestEnvironment) Reset() error {
	return CleanupDatabase(env.Ctx, env.DB)
}

// Cleanup closes connections and terminates the containers.
func (env *TestEnvironment) Cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if env.EventBus != nil {
		if err := env.EventBus.Close(); err != nil {
			log.Printf("Error closing event bus: %v", err)
		}
	}
	if env.DB != nil {
		if err := env.DB.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}
	if env.NatsContainer != nil {
		if err := env.NatsContainer.Terminate(ctx); err != nil {
			log.Printf("Failed to terminate NATS container: %v", err)
		}
	}
	if env.PgContainer != nil {
		if err := env.PgContainer.Terminate(ctx); err != nil {
			log.Printf("Failed to terminate Postgres container: %v", err)
		}
	}
	if env.CancelContext != nil {
		env.CancelContext()
	}
}
