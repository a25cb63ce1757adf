package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/nats-io/nats.go"
)

// StreamConfig describes one JetStream stream provisioned at startup.
type StreamConfig struct {
	Name     string
	Subjects []string
	MaxAge   time.Duration
}

// JetStreamConfig configures a JetStreamEventBus.
type JetStreamConfig struct {
	URL           string
	DurablePrefix string
	Streams       []StreamConfig
	AckWait       time.Duration
}

// JetStreamEventBus implements EventBus on NATS JetStream through watermill-nats.
type JetStreamEventBus struct {
	logger     *slog.Logger
	conn       *nats.Conn
	publisher  *wmnats.Publisher
	subscriber *wmnats.Subscriber
}

var _ EventBus = (*JetStreamEventBus)(nil)

// NewJetStreamEventBus connects to NATS, provisions the configured streams and
// builds the watermill publisher and subscriber.
func NewJetStreamEventBus(cfg JetStreamConfig, logger *slog.Logger) (*JetStreamEventBus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	options := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.Timeout(30 * time.Second),
		nats.ReconnectWait(1 * time.Second),
		nats.ErrorHandler(func(_ *nats.Conn, s *nats.Subscription, err error) {
			if s != nil {
				logger.Error("Error in subscription",
					slog.String("subject", s.Subject),
					slog.String("queue", s.Queue),
					slog.String("error", err.Error()),
				)
				return
			}
			logger.Error("Error in connection", slog.String("error", err.Error()))
		}),
	}

	conn, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	for _, stream := range cfg.Streams {
		if err := ensureStream(js, stream, logger); err != nil {
			conn.Close()
			return nil, err
		}
	}

	jsConfig := wmnats.JetStreamConfig{
		Disabled:      false,
		AutoProvision: false,
		DurablePrefix: cfg.DurablePrefix,
		DurableCalculator: func(prefix, topic string) string {
			return durableName(prefix, topic)
		},
	}

	publisher, err := wmnats.NewPublisher(wmnats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: options,
		Marshaler:   &wmnats.NATSMarshaler{},
		JetStream:   jsConfig,
	}, wmLogger)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create watermill NATS publisher: %w", err)
	}

	ackWait := cfg.AckWait
	if ackWait == 0 {
		ackWait = 30 * time.Second
	}

	subscriber, err := wmnats.NewSubscriber(wmnats.SubscriberConfig{
		URL:            cfg.URL,
		NatsOptions:    options,
		Unmarshaler:    &wmnats.NATSMarshaler{},
		AckWaitTimeout: ackWait,
		CloseTimeout:   10 * time.Second,
		JetStream:      jsConfig,
	}, wmLogger)
	if err != nil {
		_ = publisher.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to create watermill NATS subscriber: %w", err)
	}

	return &JetStreamEventBus{
		logger:     logger,
		conn:       conn,
		publisher:  publisher,
		subscriber: subscriber,
	}, nil
}

// Publish implements message.Publisher.
func (b *JetStreamEventBus) Publish(topic string, messages ...*message.Message) error {
	return publishByTopic(b.publisher, topic, messages...)
}

// Subscribe implements message.Subscriber.
func (b *JetStreamEventBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.subscriber.Subscribe(ctx, topic)
}

// SubscribeFunc implements EventBus.
func (b *JetStreamEventBus) SubscribeFunc(topic string, handler HandlerFunc) (CancelFunc, error) {
	return subscribeFunc(b.subscriber, b.logger, topic, handler)
}

// Close closes the publisher, the subscriber and the provisioning connection.
func (b *JetStreamEventBus) Close() error {
	var errs []error
	if err := b.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close publisher: %w", err))
	}
	if err := b.subscriber.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close subscriber: %w", err))
	}
	b.conn.Close()
	return errors.Join(errs...)
}

func ensureStream(js nats.JetStreamContext, cfg StreamConfig, logger *slog.Logger) error {
	if !isValidStreamName(cfg.Name) {
		return fmt.Errorf("invalid stream name: %s", cfg.Name)
	}

	info, err := js.StreamInfo(cfg.Name)
	if err != nil && !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("failed to get stream info for %s: %w", cfg.Name, err)
	}
	if info != nil {
		logger.Info("Stream already exists", slog.String("stream", cfg.Name))
		return nil
	}

	subjects := cfg.Subjects
	if len(subjects) == 0 {
		subjects = []string{cfg.Name + ".>"}
	}

	if _, err := js.AddStream(&nats.StreamConfig{
		Name:     cfg.Name,
		Subjects: subjects,
		MaxAge:   cfg.MaxAge,
	}); err != nil {
		return fmt.Errorf("failed to add stream %s: %w", cfg.Name, err)
	}

	logger.Info("Stream created", slog.String("stream", cfg.Name), slog.Any("subjects", subjects))
	return nil
}

var durableReplacer = strings.NewReplacer(".", "_", "*", "star", ">", "all")

// durableName derives a JetStream consumer name from a topic. Consumer names may
// not contain dots or wildcards.
func durableName(prefix, topic string) string {
	name := durableReplacer.Replace(topic)
	if prefix == "" {
		return name
	}
	return prefix + "_" + name
}

// isValidStreamName checks a stream name against the NATS naming rules.
func isValidStreamName(name string) bool {
	if name == "" || name[0] == '-' || name[len(name)-1] == '-' {
		return false
	}
	for _, r := range name {
		if !isValidRune(r) {
			return false
		}
	}
	return true
}

func isValidRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_'
}
