package eventbus

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// MemoryEventBus is an in-process EventBus backed by watermill's gochannel pubsub.
// It is used by tests and by the single-process development mode.
type MemoryEventBus struct {
	pubsub *gochannel.GoChannel
	logger *slog.Logger
}

var _ EventBus = (*MemoryEventBus)(nil)

// NewMemoryEventBus creates a MemoryEventBus.
func NewMemoryEventBus(logger *slog.Logger) *MemoryEventBus {
	return &MemoryEventBus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 256,
		}, watermill.NewSlogLogger(logger)),
		logger: logger,
	}
}

// Publish implements message.Publisher.
func (b *MemoryEventBus) Publish(topic string, messages ...*message.Message) error {
	return publishByTopic(b.pubsub, topic, messages...)
}

// Subscribe implements message.Subscriber.
func (b *MemoryEventBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, topic)
}

// SubscribeFunc implements EventBus.
func (b *MemoryEventBus) SubscribeFunc(topic string, handler HandlerFunc) (CancelFunc, error) {
	return subscribeFunc(b.pubsub, b.logger, topic, handler)
}

// Close closes the underlying pubsub.
func (b *MemoryEventBus) Close() error {
	return b.pubsub.Close()
}
