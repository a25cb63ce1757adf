package eventbus

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	err    error
}

func (p *recordingPublisher) Publish(topic string, messages ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	for range messages {
		p.topics = append(p.topics, topic)
	}
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestPublishByTopic(t *testing.T) {
	withMeta := func(topic string) *message.Message {
		msg := message.NewMessage(watermill.NewUUID(), []byte("{}"))
		if topic != "" {
			msg.Metadata.Set(TopicMetadataKey, topic)
		}
		return msg
	}

	tests := []struct {
		name       string
		topic      string
		messages   []*message.Message
		wantTopics []string
		wantErr    error
	}{
		{
			name:       "explicit topic wins",
			topic:      "matchmaking.sweep.requested.v1",
			messages:   []*message.Message{withMeta("ignored")},
			wantTopics: []string{"matchmaking.sweep.requested.v1"},
		},
		{
			name:       "metadata topic per message",
			messages:   []*message.Message{withMeta("a.v1"), withMeta("b.v1")},
			wantTopics: []string{"a.v1", "b.v1"},
		},
		{
			name:     "missing topic",
			messages: []*message.Message{withMeta("")},
			wantErr:  ErrNoTopic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &recordingPublisher{}
			err := publishByTopic(pub, tt.topic, tt.messages...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTopics, pub.topics)
		})
	}
}

func TestMemoryEventBusSubscribeFunc(t *testing.T) {
	bus := NewMemoryEventBus(testLogger())
	defer bus.Close()

	received := make(chan string, 4)
	cancel, err := bus.SubscribeFunc("matchmaking.pairing.created.v1", func(_ context.Context, msg *message.Message) error {
		received <- string(msg.Payload)
		return nil
	})
	require.NoError(t, err)

	msg := message.NewMessage(watermill.NewUUID(), []byte(`{"pairing_id":"p1"}`))
	msg.Metadata.Set(TopicMetadataKey, "matchmaking.pairing.created.v1")
	require.NoError(t, bus.Publish("", msg))

	select {
	case got := <-received:
		assert.Equal(t, `{"pairing_id":"p1"}`, got)
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}

	cancel()

	require.NoError(t, bus.Publish("matchmaking.pairing.created.v1", message.NewMessage(watermill.NewUUID(), []byte("late"))))
	select {
	case got := <-received:
		t.Fatalf("delivered after cancel: %s", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestMemoryEventBusHandlerErrorNacks(t *testing.T) {
	bus := NewMemoryEventBus(testLogger())
	defer bus.Close()

	var mu sync.Mutex
	attempts := 0
	done := make(chan struct{})
	cancel, err := bus.SubscribeFunc("retry.v1", func(_ context.Context, _ *message.Message) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts == 1 {
			return errors.New("first delivery fails")
		}
		close(done)
		return nil
	})
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, bus.Publish("retry.v1", message.NewMessage(watermill.NewUUID(), []byte("x"))))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("nacked message was not redelivered")
	}
	mu.Lock()
	assert.Equal(t, 2, attempts)
	mu.Unlock()
}

func TestDurableName(t *testing.T) {
	assert.Equal(t, "league_matchmaking_pairing_requested_v1", durableName("league", "matchmaking.pairing.requested.v1"))
	assert.Equal(t, "matchmaking_all", durableName("", "matchmaking.>"))
}

func TestIsValidStreamName(t *testing.T) {
	assert.True(t, isValidStreamName("matchmaking"))
	assert.True(t, isValidStreamName("bracket_events"))
	assert.False(t, isValidStreamName(""))
	assert.False(t, isValidStreamName("match.making"))
	assert.False(t, isValidStreamName("-bad"))
}

func TestScopedTopic(t *testing.T) {
	assert.Equal(t, "notification.requested.v1.alice", ScopedTopic("notification.requested.v1", "alice"))
	assert.Equal(t, "notification.requested.v1.a_b_c", ScopedTopic("notification.requested.v1", "a.b>c"))
}

func TestPublishScoped(t *testing.T) {
	pub := &recordingPublisher{}
	msg := message.NewMessage(watermill.NewUUID(), []byte("{}"))

	require.NoError(t, PublishScoped(pub, "notification.requested.v1", "bruno", msg))
	assert.Equal(t, []string{"notification.requested.v1.bruno"}, pub.topics)

	assert.Error(t, PublishScoped(pub, "notification.requested.v1", " ", msg))
	assert.Len(t, pub.topics, 1)
}
