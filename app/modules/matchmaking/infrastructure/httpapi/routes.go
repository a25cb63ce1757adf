package matchmakinghttp

import (
	"log/slog"

	leaguejwt "github.com/Black-And-White-Club/bout-league/pkg/jwt"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

// RouteConfig tunes the admin routes.
type RouteConfig struct {
	// RequestsPerSecond and Burst bound each client address and, once
	// authenticated, each token subject.
	RequestsPerSecond float64
	Burst             int
}

// Mount registers /healthz and the /api/admin routes on r.
func Mount(r chi.Router, h *AdminHandlers, provider leaguejwt.Provider, logger *slog.Logger, cfg RouteConfig) {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	clients := NewKeyedRateLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
	subjects := NewKeyedRateLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)

	r.Get("/healthz", h.HandleHealth)

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.RequestID)
		r.Use(CorrelationMiddleware)
		// Unauthenticated attempts are limited per address before the token is checked.
		r.Use(RateLimitMiddleware(clients))
		r.Use(AdminAuthMiddleware(provider, logger))
		r.Use(RateLimitMiddleware(subjects))

		r.Post("/matchmaking/sweep", h.HandleSweep)
		r.Post("/matchmaking/rotate", h.HandleRotate)

		r.Post("/pairings", h.HandleCreatePairing)
		r.Get("/pairings/active", h.HandleActivePairings)
		r.Get("/pairings/{id}", h.HandleGetPairing)
		r.Post("/pairings/{id}/cancel", h.HandleCancelPairing)

		r.Get("/disputes", h.HandleOpenDisputes)
		r.Post("/disputes/{pairingID}/resolve", h.HandleResolveDispute)

		r.Get("/jobs/{subjectID}", h.HandleScheduledJobs)
	})
}
