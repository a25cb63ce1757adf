// Package handlerwrapper adapts typed event handlers to watermill handler functions.
//
// A typed handler receives the decoded payload and returns the events it wants
// published. The wrapper owns decoding, tracing, correlation propagation and
// encoding of the produced messages.
package handlerwrapper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/bout-league/pkg/eventbus"
	"github.com/Black-And-White-Club/bout-league/pkg/observability/attr"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type ctxKey string

// CtxKeyReplyTo carries the inbound message's reply_to metadata, when present.
const CtxKeyReplyTo ctxKey = "reply_to"

// Result is one event produced by a handler.
type Result struct {
	Topic    string
	Payload  any
	Metadata map[string]string
}

// Metrics records handler outcomes. A nil Metrics disables recording.
type Metrics interface {
	RecordHandlerAttempt(ctx context.Context, handlerName string)
	RecordHandlerSuccess(ctx context.Context, handlerName string)
	RecordHandlerFailure(ctx context.Context, handlerName string)
	RecordHandlerDuration(ctx context.Context, handlerName string, duration time.Duration)
}

// TypedHandler is the signature of a typed event handler.
type TypedHandler[T any] func(ctx context.Context, payload *T) ([]Result, error)

// WrapTransformingTyped builds a watermill handler around a typed handler.
// Payloads that fail to decode are logged and acknowledged so they are not redelivered.
func WrapTransformingTyped[T any](
	handlerName string,
	logger *slog.Logger,
	tracer trace.Tracer,
	metrics Metrics,
	handler TypedHandler[T],
) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		correlationID := middleware.MessageCorrelationID(msg)
		if correlationID == "" {
			correlationID = watermill.NewUUID()
		}

		ctx := attr.WithCorrelationID(msg.Context(), correlationID)
		if replyTo := msg.Metadata.Get("reply_to"); replyTo != "" {
			ctx = context.WithValue(ctx, CtxKeyReplyTo, replyTo)
		}

		ctx, span := tracer.Start(ctx, handlerName, trace.WithAttributes(
			attribute.String("message.uuid", msg.UUID),
			attribute.String("correlation_id", correlationID),
		))
		defer span.End()

		start := time.Now()
		if metrics != nil {
			metrics.RecordHandlerAttempt(ctx, handlerName)
			defer func() {
				metrics.RecordHandlerDuration(ctx, handlerName, time.Since(start))
			}()
		}

		payload := new(T)
		if err := json.Unmarshal(msg.Payload, payload); err != nil {
			logger.ErrorContext(ctx, "Failed to decode payload, dropping message",
				attr.String("handler", handlerName),
				attr.String("message_uuid", msg.UUID),
				attr.ExtractCorrelationID(ctx),
				attr.Error(err),
			)
			span.SetStatus(codes.Error, "decode failed")
			if metrics != nil {
				metrics.RecordHandlerFailure(ctx, handlerName)
			}
			return nil, nil
		}

		results, err := handler(ctx, payload)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if metrics != nil {
				metrics.RecordHandlerFailure(ctx, handlerName)
			}
			return nil, err
		}

		out := make([]*message.Message, 0, len(results))
		for _, r := range results {
			m, err := newMessage(correlationID, r)
			if err != nil {
				span.RecordError(err)
				if metrics != nil {
					metrics.RecordHandlerFailure(ctx, handlerName)
				}
				return nil, err
			}
			out = append(out, m)
		}

		if metrics != nil {
			metrics.RecordHandlerSuccess(ctx, handlerName)
		}
		return out, nil
	}
}

// NewMessage encodes a Result as a watermill message addressed through its topic metadata.
func NewMessage(ctx context.Context, r Result) (*message.Message, error) {
	correlationID := attr.CorrelationIDFromContext(ctx)
	if correlationID == "" {
		correlationID = watermill.NewUUID()
	}
	return newMessage(correlationID, r)
}

func newMessage(correlationID string, r Result) (*message.Message, error) {
	if r.Topic == "" {
		return nil, fmt.Errorf("handler result has no topic")
	}
	body, err := json.Marshal(r.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload for %s: %w", r.Topic, err)
	}

	m := message.NewMessage(watermill.NewUUID(), body)
	for k, v := range r.Metadata {
		m.Metadata.Set(k, v)
	}
	m.Metadata.Set(eventbus.TopicMetadataKey, r.Topic)
	middleware.SetCorrelationID(correlationID, m)
	return m, nil
}
