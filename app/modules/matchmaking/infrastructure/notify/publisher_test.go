package matchmakingnotify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	matchmakingservice "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/application"
	matchmakingevents "github.com/Black-And-White-Club/bout-league/pkg/events/matchmaking"
	"github.com/Black-And-White-Club/bout-league/pkg/observability/attr"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	topic string
	msg   *message.Message
}

type fakePublisher struct {
	sent []published
	err  error
}

func (f *fakePublisher) Publish(topic string, messages ...*message.Message) error {
	if f.err != nil {
		return f.err
	}
	for _, m := range messages {
		f.sent = append(f.sent, published{topic: topic, msg: m})
	}
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func TestEventNotifier_Notify(t *testing.T) {
	pub := &fakePublisher{}
	n := NewEventNotifier(pub)
	ctx := attr.WithCorrelationID(context.Background(), "corr-1")

	err := n.Notify(ctx, matchmakingservice.Notification{
		Recipient: "bruno",
		Category:  matchmakingservice.CategoryPairingCreated,
		Title:     "New pairing",
		Message:   "alice vs bruno",
		DeepLink:  "/pairings/1",
	})
	require.NoError(t, err)
	require.Len(t, pub.sent, 1)

	got := pub.sent[0]
	assert.Equal(t, "notification.requested.v1.bruno", got.topic)
	assert.Equal(t, "corr-1", middleware.MessageCorrelationID(got.msg))
	assert.Equal(t, "pairing_created", got.msg.Metadata.Get("category"))

	var payload matchmakingevents.NotificationRequestedPayloadV1
	require.NoError(t, json.Unmarshal(got.msg.Payload, &payload))
	assert.Equal(t, "bruno", payload.Recipient)
	assert.Equal(t, "/pairings/1", payload.DeepLink)
}

func TestEventNotifier_EmptyRecipient(t *testing.T) {
	pub := &fakePublisher{}
	err := NewEventNotifier(pub).Notify(context.Background(), matchmakingservice.Notification{Title: "x"})
	assert.Error(t, err)
	assert.Empty(t, pub.sent)
}

func TestEventBracketAdvancer_AdvanceWinner(t *testing.T) {
	pairingID := uuid.New()

	t.Run("publishes advance request", func(t *testing.T) {
		pub := &fakePublisher{}
		require.NoError(t, NewEventBracketAdvancer(pub).AdvanceWinner(context.Background(), "qf-2", pairingID, "alice"))
		require.Len(t, pub.sent, 1)
		assert.Equal(t, matchmakingevents.BracketWinnerAdvanceRequestedV1, pub.sent[0].topic)

		var payload matchmakingevents.BracketWinnerAdvanceRequestedPayloadV1
		require.NoError(t, json.Unmarshal(pub.sent[0].msg.Payload, &payload))
		assert.Equal(t, matchmakingevents.BracketWinnerAdvanceRequestedPayloadV1{
			BracketNodeID: "qf-2",
			PairingID:     pairingID,
			WinnerID:      "alice",
		}, payload)
	})

	t.Run("publish failure is returned", func(t *testing.T) {
		pub := &fakePublisher{err: errors.New("nats down")}
		err := NewEventBracketAdvancer(pub).AdvanceWinner(context.Background(), "qf-2", pairingID, "alice")
		assert.ErrorContains(t, err, "qf-2")
	})
}
