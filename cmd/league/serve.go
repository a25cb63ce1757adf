package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Black-And-White-Club/bout-league/app/modules/matchmaking"
	"github.com/Black-And-White-Club/bout-league/pkg/observability/attr"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the event router, job queue and admin API",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-queue",
				Usage: "do not start River workers or the periodic rotation",
			},
		},
		Action: serve,
	}
}

func serve(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(c, true)
	if err != nil {
		return err
	}
	defer rt.Close()
	logger := rt.obs.Logger

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 15 * time.Second}, watermill.NewSlogLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create watermill router: %w", err)
	}

	httpRouter := chi.NewRouter()
	httpRouter.Use(middleware.RealIP)
	httpRouter.Use(middleware.Recoverer)

	module, err := matchmaking.NewMatchmakingModule(ctx, matchmaking.Dependencies{
		Config:        rt.cfg,
		Observability: rt.obs,
		DB:            rt.db,
		EventBus:      rt.bus,
		Router:        router,
		HTTPRouter:    httpRouter,
		RunQueue:      !c.Bool("no-queue"),
	})
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go module.Run(ctx, &wg)

	routerErr := make(chan error, 1)
	go func() {
		routerErr <- router.Run(ctx)
	}()

	servers := []*http.Server{{
		Addr:              rt.cfg.HTTP.Address,
		Handler:           httpRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if addr := rt.cfg.Observability.MetricsAddress; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(rt.obs.Registry, promhttp.HandlerOpts{}))
		servers = append(servers, &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second})
	}
	for _, srv := range servers {
		go func(srv *http.Server) {
			logger.Info("HTTP listener started", attr.String("address", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP listener failed", attr.String("address", srv.Addr), attr.Error(err))
				stop()
			}
		}(srv)
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-routerErr:
		if err != nil {
			logger.Error("Watermill router stopped", attr.Error(err))
		}
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	for _, srv := range servers {
		_ = srv.Shutdown(shutdownCtx)
	}

	if err := module.Close(); err != nil {
		logger.Error("Matchmaking module shutdown failed", attr.Error(err))
	}
	wg.Wait()

	logger.Info("Shut down gracefully")
	return nil
}
