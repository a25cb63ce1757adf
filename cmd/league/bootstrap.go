package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Black-And-White-Club/bout-league/app/modules/matchmaking"
	"github.com/Black-And-White-Club/bout-league/config"
	"github.com/Black-And-White-Club/bout-league/pkg/eventbus"
	matchmakingevents "github.com/Black-And-White-Club/bout-league/pkg/events/matchmaking"
	"github.com/Black-And-White-Club/bout-league/pkg/observability"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"
)

const serviceName = "bout-league"

// runtime holds the handles a command works with.
type runtime struct {
	cfg *config.Config
	obs observability.Observability
	db  *bun.DB
	bus eventbus.EventBus
}

func (rt *runtime) Close() {
	if rt.bus != nil {
		if closer, ok := rt.bus.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}
	if rt.db != nil {
		_ = rt.db.Close()
	}
}

func loadConfig(c *cli.Context) (*config.Config, observability.Observability, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, observability.Observability{}, fmt.Errorf("failed to load config: %w", err)
	}
	obs := observability.New(observability.Config{
		ServiceName:    serviceName,
		Environment:    cfg.Observability.Environment,
		LogLevel:       cfg.Observability.LogLevel,
		TracingEnabled: cfg.Observability.TracingEnabled,
	})
	return cfg, obs, nil
}

func openDB(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return db, nil
}

// leagueStreams are the JetStream streams the engine publishes to.
func leagueStreams() []eventbus.StreamConfig {
	return []eventbus.StreamConfig{
		{Name: matchmakingevents.StreamMatchmaking, MaxAge: 7 * 24 * time.Hour},
		{Name: matchmakingevents.StreamNotification, MaxAge: 24 * time.Hour},
		{Name: matchmakingevents.StreamBracket, MaxAge: 7 * 24 * time.Hour},
	}
}

// newEventBus connects to JetStream when a NATS URL is configured and falls
// back to the in-process bus otherwise.
func newEventBus(cfg *config.Config, obs observability.Observability, durablePrefix string) (eventbus.EventBus, error) {
	if cfg.NATS.URL == "" {
		obs.Logger.Warn("NATS URL not set; using in-memory event bus")
		return eventbus.NewMemoryEventBus(obs.Logger), nil
	}
	bus, err := eventbus.NewJetStreamEventBus(eventbus.JetStreamConfig{
		URL:           cfg.NATS.URL,
		DurablePrefix: durablePrefix,
		Streams:       leagueStreams(),
	}, obs.Logger)
	if err != nil {
		return nil, err
	}
	return bus, nil
}

// newRuntime loads config and opens the database. withBus also connects the event bus.
func newRuntime(c *cli.Context, withBus bool) (*runtime, error) {
	cfg, obs, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	db, err := openDB(c.Context, cfg.Postgres.DSN)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, obs: obs, db: db}
	if withBus {
		bus, err := newEventBus(cfg, obs, "league")
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.bus = bus
	}
	return rt, nil
}

// newModule builds the matchmaking module for one-shot commands: no router,
// no HTTP, no queue workers.
func (rt *runtime) newModule(ctx context.Context) (*matchmaking.Module, error) {
	bus := rt.bus
	if bus == nil {
		bus = eventbus.NewMemoryEventBus(rt.obs.Logger)
		rt.bus = bus
	}
	return matchmaking.NewMatchmakingModule(ctx, matchmaking.Dependencies{
		Config:        rt.cfg,
		Observability: rt.obs,
		DB:            rt.db,
		EventBus:      bus,
	})
}
