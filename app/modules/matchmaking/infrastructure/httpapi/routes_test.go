package matchmakinghttp

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	leaguejwt "github.com/Black-And-White-Club/bout-league/pkg/jwt"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestMount_LimitsUnauthenticatedAttempts(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := chi.NewRouter()
	handlers := NewAdminHandlers(&FakeService{}, &fakeJobs{}, nil, logger, noop.NewTracerProvider().Tracer("test"))
	Mount(router, handlers, leaguejwt.NewProvider("test-secret", "bout-league"), logger, RouteConfig{RequestsPerSecond: 0.001, Burst: 2})

	var codes []int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/pairings/active", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)
}
