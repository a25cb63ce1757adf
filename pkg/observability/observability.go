// Package observability builds the logger, tracer and metrics registry handed to
// every module at construction time.
package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Config controls how the observability components are built.
type Config struct {
	ServiceName string
	Environment string
	LogLevel    string
	// TracingEnabled selects the global otel tracer provider; otherwise a noop tracer is used.
	TracingEnabled bool
}

// Observability bundles the shared telemetry handles.
type Observability struct {
	Logger   *slog.Logger
	Tracer   trace.Tracer
	Registry *prometheus.Registry
}

// New builds an Observability writing JSON logs to stdout.
func New(cfg Config) Observability {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter builds an Observability writing logs to w.
func NewWithWriter(cfg Config, w io.Writer) Observability {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(cfg.LogLevel),
	})).With(
		slog.String("service", cfg.ServiceName),
		slog.String("env", cfg.Environment),
	)

	var tracer trace.Tracer
	if cfg.TracingEnabled {
		tracer = otel.GetTracerProvider().Tracer(cfg.ServiceName)
	} else {
		tracer = noop.NewTracerProvider().Tracer(cfg.ServiceName)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return Observability{
		Logger:   logger,
		Tracer:   tracer,
		Registry: registry,
	}
}

// NewNoop returns an Observability suitable for tests.
func NewNoop() Observability {
	return Observability{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Tracer:   noop.NewTracerProvider().Tracer("test"),
		Registry: prometheus.NewRegistry(),
	}
}

// ParseLevel maps a LOG_LEVEL string to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
