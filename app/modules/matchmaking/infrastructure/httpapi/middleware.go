package matchmakinghttp

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	leaguejwt "github.com/Black-And-White-Club/bout-league/pkg/jwt"
	"github.com/Black-And-White-Club/bout-league/pkg/observability/attr"
	"golang.org/x/time/rate"
)

const (
	// cleanupThreshold is the minimum map size before a cleanup pass runs.
	cleanupThreshold = 500
	// maxIdleAge is the duration after which an idle entry is eligible for cleanup.
	maxIdleAge = 10 * time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedRateLimiter hands out one token bucket per key and prunes idle keys inline.
type KeyedRateLimiter struct {
	keys map[string]*limiterEntry
	mu   sync.Mutex
	r    rate.Limit
	b    int
	now  func() time.Time
}

// NewKeyedRateLimiter creates a limiter allowing r events per second with burst b per key.
func NewKeyedRateLimiter(r rate.Limit, b int) *KeyedRateLimiter {
	return &KeyedRateLimiter{
		keys: make(map[string]*limiterEntry),
		r:    r,
		b:    b,
		now:  time.Now,
	}
}

// GetLimiter returns the limiter for key.
func (l *KeyedRateLimiter) GetLimiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.keys) > cleanupThreshold {
		cutoff := now.Add(-maxIdleAge)
		for k, e := range l.keys {
			if e.lastSeen.Before(cutoff) {
				delete(l.keys, k)
			}
		}
	}

	e, ok := l.keys[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.r, l.b)}
		l.keys[key] = e
	}
	e.lastSeen = now

	return e.limiter
}

// RateLimitMiddleware limits requests per token subject, falling back to the
// client address for unauthenticated requests.
func RateLimitMiddleware(limiter *KeyedRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ip:" + clientIP(r)
			if claims, ok := ClaimsFromContext(r.Context()); ok {
				key = "sub:" + claims.Subject
			}

			if !limiter.GetLimiter(key).Allow() {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

type claimsKey struct{}

// ClaimsFromContext returns the verified token claims stored by AdminAuthMiddleware.
func ClaimsFromContext(ctx context.Context) (*leaguejwt.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*leaguejwt.Claims)
	return claims, ok && claims != nil
}

// AdminAuthMiddleware requires a valid bearer token with the admin role.
func AdminAuthMiddleware(provider leaguejwt.Provider, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			header := r.Header.Get("Authorization")
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || strings.TrimSpace(token) == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := provider.ValidateToken(strings.TrimSpace(token))
			if err != nil {
				logger.WarnContext(ctx, "Rejected admin token", attr.Error(err), attr.String("remote", clientIP(r)))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if !claims.IsAdmin() {
				logger.WarnContext(ctx, "Non-admin token on admin route", attr.String("subject", claims.Subject))
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, claimsKey{}, claims)))
		})
	}
}

// CorrelationMiddleware carries X-Correlation-ID into the request context.
func CorrelationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get("X-Correlation-ID"); id != "" {
			r = r.WithContext(attr.WithCorrelationID(r.Context(), id))
			w.Header().Set("X-Correlation-ID", id)
		}
		next.ServeHTTP(w, r)
	})
}
