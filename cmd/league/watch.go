package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Black-And-White-Club/bout-league/pkg/eventbus"
	matchmakingevents "github.com/Black-And-White-Club/bout-league/pkg/events/matchmaking"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/urfave/cli/v2"
)

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "follow matchmaking events and print them as they arrive",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "topic",
				Usage: "topic to follow (repeatable); defaults to every outbound matchmaking topic",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, obs, err := loadConfig(c)
			if err != nil {
				return err
			}
			if cfg.NATS.URL == "" {
				return fmt.Errorf("watch needs a NATS URL; the in-memory bus is local to one process")
			}
			bus, err := newEventBus(cfg, obs, "league-watch")
			if err != nil {
				return err
			}
			defer func() {
				if closer, ok := bus.(interface{ Close() error }); ok {
					_ = closer.Close()
				}
			}()

			topics := c.StringSlice("topic")
			if len(topics) == 0 {
				topics = matchmakingevents.WatchTopics
			}

			printer := &eventPrinter{w: c.App.Writer}
			cancels, err := subscribeAll(bus, topics, printer.Print)
			if err != nil {
				return err
			}
			defer func() {
				for _, cancel := range cancels {
					cancel()
				}
			}()

			fmt.Fprintf(c.App.Writer, "Watching %d topics, Ctrl-C to stop\n", len(topics))
			<-c.Context.Done()
			return nil
		},
	}
}

func subscribeAll(bus eventbus.EventBus, topics []string, handler eventbus.HandlerFunc) ([]eventbus.CancelFunc, error) {
	cancels := make([]eventbus.CancelFunc, 0, len(topics))
	for _, topic := range topics {
		cancel, err := bus.SubscribeFunc(topic, handler)
		if err != nil {
			for _, c := range cancels {
				c()
			}
			return nil, err
		}
		cancels = append(cancels, cancel)
	}
	return cancels, nil
}

// eventPrinter writes one line per event. Deliveries arrive on one goroutine
// per topic, so writes are serialized.
type eventPrinter struct {
	mu sync.Mutex
	w  io.Writer
}

type printedEvent struct {
	At            string          `json:"at"`
	Topic         string          `json:"topic"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

func (p *eventPrinter) Print(_ context.Context, msg *message.Message) error {
	event := printedEvent{
		At:            time.Now().UTC().Format(time.RFC3339),
		Topic:         msg.Metadata.Get(eventbus.TopicMetadataKey),
		CorrelationID: middleware.MessageCorrelationID(msg),
		Payload:       json.RawMessage(msg.Payload),
	}
	if !json.Valid(msg.Payload) {
		raw, _ := json.Marshal(string(msg.Payload))
		event.Payload = raw
	}

	line, err := json.Marshal(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	_, err = fmt.Fprintln(p.w, string(line))
	return err
}
