package matchmakingservice

import (
	"context"
	"time"
)

// Metrics records service-level measurements.
type Metrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)

	RecordPairingsCreated(ctx context.Context, matchType string, count int)
	RecordPolicyRejection(ctx context.Context, check string)
	RecordSweep(ctx context.Context, candidates, created, unmatched int)
	RecordNotificationFailure(ctx context.Context, category string)
}

// NoopMetrics discards every measurement.
type NoopMetrics struct{}

func (NoopMetrics) RecordOperationAttempt(context.Context, string, string)                 {}
func (NoopMetrics) RecordOperationSuccess(context.Context, string, string)                 {}
func (NoopMetrics) RecordOperationFailure(context.Context, string, string)                 {}
func (NoopMetrics) RecordOperationDuration(context.Context, string, string, time.Duration) {}
func (NoopMetrics) RecordPairingsCreated(context.Context, string, int)                     {}
func (NoopMetrics) RecordPolicyRejection(context.Context, string)                          {}
func (NoopMetrics) RecordSweep(context.Context, int, int, int)                             {}
func (NoopMetrics) RecordNotificationFailure(context.Context, string)                      {}
