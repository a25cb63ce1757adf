// Package matchmakingnotify delivers matchmaking side effects over the event bus:
// notification-creation requests and bracket winner advancement.
package matchmakingnotify

import (
	"context"
	"fmt"

	matchmakingservice "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/application"
	"github.com/Black-And-White-Club/bout-league/pkg/eventbus"
	matchmakingevents "github.com/Black-And-White-Club/bout-league/pkg/events/matchmaking"
	"github.com/Black-And-White-Club/bout-league/pkg/handlerwrapper"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// EventNotifier publishes notification requests to the recipient-scoped notification topic.
type EventNotifier struct {
	publisher message.Publisher
}

var _ matchmakingservice.Notifier = (*EventNotifier)(nil)

// NewEventNotifier creates an EventNotifier.
func NewEventNotifier(publisher message.Publisher) *EventNotifier {
	return &EventNotifier{publisher: publisher}
}

// Notify implements matchmakingservice.Notifier.
func (n *EventNotifier) Notify(ctx context.Context, note matchmakingservice.Notification) error {
	msg, err := handlerwrapper.NewMessage(ctx, handlerwrapper.Result{
		Topic: matchmakingevents.NotificationRequestedV1,
		Payload: &matchmakingevents.NotificationRequestedPayloadV1{
			Recipient: note.Recipient,
			Category:  string(note.Category),
			Title:     note.Title,
			Message:   note.Message,
			DeepLink:  note.DeepLink,
		},
		Metadata: map[string]string{"category": string(note.Category)},
	})
	if err != nil {
		return err
	}
	if err := eventbus.PublishScoped(n.publisher, matchmakingevents.NotificationRequestedV1, note.Recipient, msg); err != nil {
		return fmt.Errorf("failed to publish notification for %s: %w", note.Recipient, err)
	}
	return nil
}

// EventBracketAdvancer asks the bracket service to advance a winner.
type EventBracketAdvancer struct {
	publisher message.Publisher
}

var _ matchmakingservice.BracketAdvancer = (*EventBracketAdvancer)(nil)

// NewEventBracketAdvancer creates an EventBracketAdvancer.
func NewEventBracketAdvancer(publisher message.Publisher) *EventBracketAdvancer {
	return &EventBracketAdvancer{publisher: publisher}
}

// AdvanceWinner implements matchmakingservice.BracketAdvancer.
func (a *EventBracketAdvancer) AdvanceWinner(ctx context.Context, bracketNodeID string, pairingID uuid.UUID, winnerID string) error {
	msg, err := handlerwrapper.NewMessage(ctx, handlerwrapper.Result{
		Topic: matchmakingevents.BracketWinnerAdvanceRequestedV1,
		Payload: &matchmakingevents.BracketWinnerAdvanceRequestedPayloadV1{
			BracketNodeID: bracketNodeID,
			PairingID:     pairingID,
			WinnerID:      winnerID,
		},
	})
	if err != nil {
		return err
	}
	if err := a.publisher.Publish(matchmakingevents.BracketWinnerAdvanceRequestedV1, msg); err != nil {
		return fmt.Errorf("failed to publish bracket advance for node %s: %w", bracketNodeID, err)
	}
	return nil
}
