// Package matchmakingmetrics records matchmaking measurements in Prometheus.
package matchmakingmetrics

import (
	"context"
	"time"

	matchmakingservice "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/application"
	"github.com/Black-And-White-Club/bout-league/pkg/handlerwrapper"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bout_league"

// PrometheusMetrics implements the service and handler metrics interfaces.
type PrometheusMetrics struct {
	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	pairingsCreated   *prometheus.CounterVec
	policyRejections  *prometheus.CounterVec
	sweepCandidates   prometheus.Gauge
	sweepCreated      prometheus.Gauge
	sweepUnmatched    prometheus.Gauge
	notifyFailures    *prometheus.CounterVec
	handlerCalls      *prometheus.CounterVec
	handlerDuration   *prometheus.HistogramVec
}

var (
	_ matchmakingservice.Metrics = (*PrometheusMetrics)(nil)
	_ handlerwrapper.Metrics     = (*PrometheusMetrics)(nil)
)

// NewPrometheusMetrics creates the collectors and registers them with reg.
func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	m := &PrometheusMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matchmaking",
			Name:      "operations_total",
			Help:      "Service operations by outcome.",
		}, []string{"service", "operation", "outcome"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "matchmaking",
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service", "operation"}),
		pairingsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matchmaking",
			Name:      "pairings_created_total",
			Help:      "Pairings created by match type.",
		}, []string{"match_type"}),
		policyRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matchmaking",
			Name:      "policy_rejections_total",
			Help:      "Pairing attempts refused by policy, by failing check.",
		}, []string{"check"}),
		sweepCandidates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "matchmaking",
			Name:      "last_sweep_candidates",
			Help:      "Competitors considered by the most recent sweep.",
		}),
		sweepCreated: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "matchmaking",
			Name:      "last_sweep_created",
			Help:      "Pairings created by the most recent sweep.",
		}),
		sweepUnmatched: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "matchmaking",
			Name:      "last_sweep_unmatched",
			Help:      "Competitors left unmatched by the most recent sweep.",
		}),
		notifyFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matchmaking",
			Name:      "notification_failures_total",
			Help:      "Notifications that could not be handed to the delivery channel.",
		}, []string{"category"}),
		handlerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "handlers",
			Name:      "calls_total",
			Help:      "Event handler invocations by outcome.",
		}, []string{"handler", "outcome"}),
		handlerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "handlers",
			Name:      "duration_seconds",
			Help:      "Event handler latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"handler"}),
	}

	for _, c := range []prometheus.Collector{
		m.operations, m.operationDuration, m.pairingsCreated, m.policyRejections,
		m.sweepCandidates, m.sweepCreated, m.sweepUnmatched, m.notifyFailures,
		m.handlerCalls, m.handlerDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *PrometheusMetrics) RecordOperationAttempt(_ context.Context, operation, service string) {
	m.operations.WithLabelValues(service, operation, "attempt").Inc()
}

func (m *PrometheusMetrics) RecordOperationSuccess(_ context.Context, operation, service string) {
	m.operations.WithLabelValues(service, operation, "success").Inc()
}

func (m *PrometheusMetrics) RecordOperationFailure(_ context.Context, operation, service string) {
	m.operations.WithLabelValues(service, operation, "failure").Inc()
}

func (m *PrometheusMetrics) RecordOperationDuration(_ context.Context, operation, service string, d time.Duration) {
	m.operationDuration.WithLabelValues(service, operation).Observe(d.Seconds())
}

func (m *PrometheusMetrics) RecordPairingsCreated(_ context.Context, matchType string, count int) {
	m.pairingsCreated.WithLabelValues(matchType).Add(float64(count))
}

func (m *PrometheusMetrics) RecordPolicyRejection(_ context.Context, check string) {
	m.policyRejections.WithLabelValues(check).Inc()
}

func (m *PrometheusMetrics) RecordSweep(_ context.Context, candidates, created, unmatched int) {
	m.sweepCandidates.Set(float64(candidates))
	m.sweepCreated.Set(float64(created))
	m.sweepUnmatched.Set(float64(unmatched))
}

func (m *PrometheusMetrics) RecordNotificationFailure(_ context.Context, category string) {
	m.notifyFailures.WithLabelValues(category).Inc()
}

func (m *PrometheusMetrics) RecordHandlerAttempt(_ context.Context, handlerName string) {
	m.handlerCalls.WithLabelValues(handlerName, "attempt").Inc()
}

func (m *PrometheusMetrics) RecordHandlerSuccess(_ context.Context, handlerName string) {
	m.handlerCalls.WithLabelValues(handlerName, "success").Inc()
}

func (m *PrometheusMetrics) RecordHandlerFailure(_ context.Context, handlerName string) {
	m.handlerCalls.WithLabelValues(handlerName, "failure").Inc()
}

func (m *PrometheusMetrics) RecordHandlerDuration(_ context.Context, handlerName string, d time.Duration) {
	m.handlerDuration.WithLabelValues(handlerName).Observe(d.Seconds())
}
