// Package eventbus wraps watermill publishers and subscribers behind one interface
// used by routers, publishers of notifications and dashboard-style subscribers.
package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
)

// TopicMetadataKey names the metadata entry that carries a message's destination
// topic when it is published with an empty topic (router-produced messages).
const TopicMetadataKey = "topic"

// ErrNoTopic is returned when neither the publish call nor the message names a topic.
var ErrNoTopic = errors.New("eventbus: message has no topic")

// HandlerFunc processes one message delivered to a SubscribeFunc subscription.
// Returning an error nacks the message.
type HandlerFunc func(ctx context.Context, msg *message.Message) error

// CancelFunc ends a subscription and waits for its delivery goroutine to exit.
type CancelFunc func()

// EventBus is a watermill publisher and subscriber with a callback-style subscribe.
type EventBus interface {
	message.Publisher
	message.Subscriber

	// SubscribeFunc delivers every message on topic to handler until the returned
	// CancelFunc is called.
	SubscribeFunc(topic string, handler HandlerFunc) (CancelFunc, error)
}

// publishByTopic publishes each message to topic, or to its metadata topic when topic is empty.
func publishByTopic(pub message.Publisher, topic string, messages ...*message.Message) error {
	if topic != "" {
		return pub.Publish(topic, messages...)
	}
	for _, msg := range messages {
		t := msg.Metadata.Get(TopicMetadataKey)
		if t == "" {
			return fmt.Errorf("%w: message %s", ErrNoTopic, msg.UUID)
		}
		if err := pub.Publish(t, msg); err != nil {
			return err
		}
	}
	return nil
}

func subscribeFunc(sub message.Subscriber, logger *slog.Logger, topic string, handler HandlerFunc) (CancelFunc, error) {
	ctx, cancel := context.WithCancel(context.Background())

	messages, err := sub.Subscribe(ctx, topic)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range messages {
			if err := handler(msg.Context(), msg); err != nil {
				logger.Warn("Subscription handler failed",
					slog.String("topic", topic),
					slog.String("message_uuid", msg.UUID),
					slog.String("error", err.Error()),
				)
				msg.Nack()
				continue
			}
			msg.Ack()
		}
	}()

	return func() {
		cancel()
		<-done
	}, nil
}
