// Package matchmakingevents defines the topics and payloads exchanged over the
// event bus by the matchmaking module.
//
// Topics are versioned; a breaking payload change gets a new topic suffix.
// Inbound topics are commands from the bot and the PWA. Outbound topics are
// facts published after a command succeeds or fails.
package matchmakingevents

// Stream names provisioned on JetStream. Every topic below falls under one of them.
const (
	StreamMatchmaking  = "matchmaking"
	StreamNotification = "notification"
	StreamBracket      = "bracket"
)

// Inbound commands.
const (
	PairingRequestedV1          = "matchmaking.pairing.requested.v1"
	PairingAcceptRequestedV1    = "matchmaking.pairing.accept.requested.v1"
	PairingDeclineRequestedV1   = "matchmaking.pairing.decline.requested.v1"
	PairingCancelRequestedV1    = "matchmaking.pairing.cancel.requested.v1"
	ResultSubmittedV1           = "matchmaking.result.submitted.v1"
	RematchRequestedV1          = "matchmaking.rematch.requested.v1"
	RematchResponseSubmittedV1  = "matchmaking.rematch.response.submitted.v1"
	SparringInviteRequestedV1   = "matchmaking.sparring.invite.requested.v1"
	SparringResponseSubmittedV1 = "matchmaking.sparring.response.submitted.v1"
	SparringCompleteRequestedV1 = "matchmaking.sparring.complete.requested.v1"
	SweepRequestedV1            = "matchmaking.sweep.requested.v1"
	RotationRequestedV1         = "matchmaking.rotation.requested.v1"
)

// Outbound facts.
const (
	PairingCreatedV1   = "matchmaking.pairing.created.v1"
	PairingScheduledV1 = "matchmaking.pairing.scheduled.v1"
	PairingCancelledV1 = "matchmaking.pairing.cancelled.v1"
	PairingFailedV1    = "matchmaking.pairing.failed.v1"

	ResultRecordedV1     = "matchmaking.result.recorded.v1"
	PairingCompletedV1   = "matchmaking.pairing.completed.v1"
	PairingDisputedV1    = "matchmaking.pairing.disputed.v1"
	ResultSubmitFailedV1 = "matchmaking.result.failed.v1"

	RematchCreatedV1  = "matchmaking.rematch.created.v1"
	RematchDecidedV1  = "matchmaking.rematch.decided.v1"
	RematchFailedV1   = "matchmaking.rematch.failed.v1"
	SparringUpdatedV1 = "matchmaking.sparring.updated.v1"
	SparringFailedV1  = "matchmaking.sparring.failed.v1"

	SweepCompletedV1    = "matchmaking.sweep.completed.v1"
	RotationCompletedV1 = "matchmaking.rotation.completed.v1"
	JobFailedV1         = "matchmaking.job.failed.v1"
)

// NotificationRequestedV1 is the base topic for notification-creation requests.
// Messages are published to the recipient-scoped form {topic}.{recipient}.
const NotificationRequestedV1 = "notification.requested.v1"

// BracketWinnerAdvanceRequestedV1 asks the bracket service to move a winner forward.
const BracketWinnerAdvanceRequestedV1 = "bracket.winner.advance.requested.v1"

// WatchTopics are the outbound topics a dashboard subscriber follows.
var WatchTopics = []string{
	PairingCreatedV1,
	PairingScheduledV1,
	PairingCancelledV1,
	PairingCompletedV1,
	PairingDisputedV1,
	ResultRecordedV1,
	RematchCreatedV1,
	RematchDecidedV1,
	SparringUpdatedV1,
	SweepCompletedV1,
	RotationCompletedV1,
	JobFailedV1,
	BracketWinnerAdvanceRequestedV1,
}
