package matchmakingservice

import (
	"context"
	"time"

	matchmakingdb "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/infrastructure/repositories"
	"github.com/google/uuid"
)

// NotificationCategory groups notifications for the delivery channel.
type NotificationCategory string

const (
	CategoryPairingCreated   NotificationCategory = "pairing_created"
	CategoryPairingScheduled NotificationCategory = "pairing_scheduled"
	CategoryPairingCompleted NotificationCategory = "pairing_completed"
	CategoryPairingDisputed  NotificationCategory = "pairing_disputed"
	CategoryPairingCancelled NotificationCategory = "pairing_cancelled"
	CategoryRematchRequested NotificationCategory = "rematch_requested"
	CategoryRematchResponse  NotificationCategory = "rematch_response"
	CategorySparringInvite   NotificationCategory = "sparring_invite"
	CategorySparringResponse NotificationCategory = "sparring_response"
	CategoryDisputeResolved  NotificationCategory = "dispute_resolved"
	CategoryTierChanged      NotificationCategory = "tier_changed"
)

// Notification is a notification-creation request for one competitor.
type Notification struct {
	Recipient string               `json:"recipient"`
	Category  NotificationCategory `json:"category"`
	Title     string               `json:"title"`
	Message   string               `json:"message"`
	DeepLink  string               `json:"deep_link"`
}

// Notifier delivers notifications. Delivery is best-effort; the service logs
// failures and never fails a transition because of them.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// BracketAdvancer forwards the winner of a bracket-linked pairing.
type BracketAdvancer interface {
	AdvanceWinner(ctx context.Context, bracketNodeID string, pairingID uuid.UUID, winnerID string) error
}

// JobScheduler schedules delayed expiry work.
type JobScheduler interface {
	SchedulePairingExpiry(ctx context.Context, pairingID uuid.UUID, at time.Time) error
	ScheduleRematchExpiry(ctx context.Context, requestID uuid.UUID, at time.Time) error
	ScheduleSparringExpiry(ctx context.Context, invitationID uuid.UUID, at time.Time) error
}

// CompetitorFilter decides whether a competitor enters the matchmaking pool.
type CompetitorFilter func(c *matchmakingdb.CompetitorProfile) bool

// ExcludeAdmins drops league administrators from the pool.
func ExcludeAdmins(c *matchmakingdb.CompetitorProfile) bool {
	return !c.IsAdmin
}

// ExcludeInactive drops deactivated competitors.
func ExcludeInactive(c *matchmakingdb.CompetitorProfile) bool {
	return c.Active
}

// AllOf composes filters; a competitor must pass every one.
func AllOf(filters ...CompetitorFilter) CompetitorFilter {
	return func(c *matchmakingdb.CompetitorProfile) bool {
		for _, f := range filters {
			if f != nil && !f(c) {
				return false
			}
		}
		return true
	}
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, Notification) error { return nil }

type noopBracketAdvancer struct{}

func (noopBracketAdvancer) AdvanceWinner(context.Context, string, uuid.UUID, string) error {
	return nil
}

type noopJobScheduler struct{}

func (noopJobScheduler) SchedulePairingExpiry(context.Context, uuid.UUID, time.Time) error {
	return nil
}

func (noopJobScheduler) ScheduleRematchExpiry(context.Context, uuid.UUID, time.Time) error {
	return nil
}

func (noopJobScheduler) ScheduleSparringExpiry(context.Context, uuid.UUID, time.Time) error {
	return nil
}
