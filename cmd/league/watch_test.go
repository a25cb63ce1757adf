package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/Black-And-White-Club/bout-league/pkg/eventbus"
	matchmakingevents "github.com/Black-And-White-Club/bout-league/pkg/events/matchmaking"
	"github.com/Black-And-White-Club/bout-league/pkg/handlerwrapper"
	"github.com/Black-And-White-Club/bout-league/pkg/observability/attr"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	ch chan string
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.ch <- string(p)
	return len(p), nil
}

func TestEventPrinter_Print(t *testing.T) {
	var buf bytes.Buffer
	p := &eventPrinter{w: &buf}

	msg := message.NewMessage("m-1", []byte(`{"created":[]}`))
	msg.Metadata.Set(eventbus.TopicMetadataKey, matchmakingevents.SweepCompletedV1)
	msg.Metadata.Set("correlation_id", "corr-7")

	require.NoError(t, p.Print(context.Background(), msg))

	var got printedEvent
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, matchmakingevents.SweepCompletedV1, got.Topic)
	assert.Equal(t, "corr-7", got.CorrelationID)
	assert.JSONEq(t, `{"created":[]}`, string(got.Payload))
}

func TestEventPrinter_NonJSONPayload(t *testing.T) {
	var buf bytes.Buffer
	p := &eventPrinter{w: &buf}

	require.NoError(t, p.Print(context.Background(), message.NewMessage("m-2", []byte("plain text"))))
	assert.Contains(t, buf.String(), `"payload":"plain text"`)
}

func TestSubscribeAll_DeliversFromMemoryBus(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := eventbus.NewMemoryEventBus(logger)
	defer bus.Close()

	out := &syncBuffer{ch: make(chan string, 4)}
	printer := &eventPrinter{w: out}

	cancels, err := subscribeAll(bus, []string{matchmakingevents.PairingCreatedV1, matchmakingevents.RotationCompletedV1}, printer.Print)
	require.NoError(t, err)
	defer func() {
		for _, c := range cancels {
			c()
		}
	}()

	ctx := attr.WithCorrelationID(context.Background(), "corr-8")
	msg, err := handlerwrapper.NewMessage(ctx, handlerwrapper.Result{
		Topic:   matchmakingevents.RotationCompletedV1,
		Payload: &matchmakingevents.RotationCompletedPayloadV1{},
	})
	require.NoError(t, err)
	require.NoError(t, bus.Publish("", msg))

	select {
	case line := <-out.ch:
		assert.True(t, strings.Contains(line, matchmakingevents.RotationCompletedV1), line)
		assert.Contains(t, line, "corr-8")
	case <-time.After(2 * time.Second):
		t.Fatal("event was not printed")
	}
}

func TestLeagueStreamsCoverTopics(t *testing.T) {
	names := map[string]bool{}
	for _, s := range leagueStreams() {
		names[s.Name] = true
	}
	for _, topic := range append(matchmakingevents.WatchTopics, matchmakingevents.NotificationRequestedV1) {
		stream := strings.SplitN(topic, ".", 2)[0]
		assert.True(t, names[stream], "no stream for %s", topic)
	}
}
