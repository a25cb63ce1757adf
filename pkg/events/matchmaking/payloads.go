package matchmakingevents

import (
	"time"

	"github.com/google/uuid"
)

// --- Inbound ---

// PairingRequestedPayloadV1 asks for a manual pairing.
type PairingRequestedPayloadV1 struct {
	RequesterID  string `json:"requester_id"`
	OpponentID   string `json:"opponent_id"`
	ScheduledFor string `json:"scheduled_for,omitempty"`
}

// PairingResponsePayloadV1 accepts or declines a pending pairing, depending on the topic.
type PairingResponsePayloadV1 struct {
	PairingID    uuid.UUID `json:"pairing_id"`
	CompetitorID string    `json:"competitor_id"`
}

// PairingCancelRequestedPayloadV1 cancels a pairing.
type PairingCancelRequestedPayloadV1 struct {
	PairingID      uuid.UUID `json:"pairing_id"`
	ActorID        string    `json:"actor_id"`
	Reason         string    `json:"reason,omitempty"`
	Administrative bool      `json:"administrative,omitempty"`
}

// ResultSubmittedPayloadV1 is one competitor's declared result.
type ResultSubmittedPayloadV1 struct {
	PairingID    uuid.UUID `json:"pairing_id"`
	CompetitorID string    `json:"competitor_id"`
	Outcome      string    `json:"outcome"`
	Method       string    `json:"method"`
	Round        int       `json:"round"`
	EvidenceRef  *string   `json:"evidence_ref,omitempty"`
	FightDate    time.Time `json:"fight_date,omitempty"`
}

// RematchRequestedPayloadV1 is a callout from one competitor to a past opponent.
type RematchRequestedPayloadV1 struct {
	CallerID string `json:"caller_id"`
	TargetID string `json:"target_id"`
}

// RematchResponsePayloadV1 is the target's answer to a callout.
type RematchResponsePayloadV1 struct {
	RequestID   uuid.UUID `json:"request_id"`
	ResponderID string    `json:"responder_id"`
	Accept      bool      `json:"accept"`
}

// SparringInviteRequestedPayloadV1 invites another competitor to spar.
type SparringInviteRequestedPayloadV1 struct {
	InviterID string `json:"inviter_id"`
	InviteeID string `json:"invitee_id"`
}

// SparringResponsePayloadV1 is the invitee's answer.
type SparringResponsePayloadV1 struct {
	InvitationID uuid.UUID `json:"invitation_id"`
	ResponderID  string    `json:"responder_id"`
	Accept       bool      `json:"accept"`
}

// SparringCompletePayloadV1 closes an accepted session.
type SparringCompletePayloadV1 struct {
	InvitationID uuid.UUID `json:"invitation_id"`
	CompetitorID string    `json:"competitor_id"`
}

// JobRequestedPayloadV1 triggers a sweep or a rotation on demand.
type JobRequestedPayloadV1 struct {
	RequestedBy string `json:"requested_by,omitempty"`
}

// --- Outbound ---

// PairingV1 is the wire form of a pairing.
type PairingV1 struct {
	ID                 uuid.UUID  `json:"id"`
	CompetitorA        string     `json:"competitor_a"`
	CompetitorB        string     `json:"competitor_b"`
	WeightClass        string     `json:"weight_class"`
	Status             string     `json:"status"`
	MatchType          string     `json:"match_type"`
	CompatibilityScore float64    `json:"compatibility_score"`
	ScheduledAt        time.Time  `json:"scheduled_at"`
	RequestedBy        *string    `json:"requested_by,omitempty"`
	BracketNodeID      *string    `json:"bracket_node_id,omitempty"`
	WinnerID           *string    `json:"winner_id,omitempty"`
	CancelReason       string     `json:"cancel_reason,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

// PairingEventPayloadV1 carries a pairing after a lifecycle change.
type PairingEventPayloadV1 struct {
	Pairing PairingV1 `json:"pairing"`
	// ConsentRequired is set when the points gap calls for both competitors' consent.
	ConsentRequired bool `json:"consent_required,omitempty"`
}

// ResultRecordedPayloadV1 reports a submission still waiting for the opponent.
type ResultRecordedPayloadV1 struct {
	PairingID    uuid.UUID `json:"pairing_id"`
	CompetitorID string    `json:"competitor_id"`
}

// TierChangeV1 is a promotion or demotion applied on completion.
type TierChangeV1 struct {
	CompetitorID string `json:"competitor_id"`
	From         string `json:"from"`
	To           string `json:"to"`
	Direction    string `json:"direction"`
}

// PairingCompletedPayloadV1 reports a completed pairing and its ledger effects.
type PairingCompletedPayloadV1 struct {
	Pairing     PairingV1      `json:"pairing"`
	WinnerID    string         `json:"winner_id,omitempty"`
	Deltas      map[string]int `json:"deltas"`
	TierChanges []TierChangeV1 `json:"tier_changes,omitempty"`
}

// PairingDisputedPayloadV1 reports conflicting submissions.
type PairingDisputedPayloadV1 struct {
	Pairing   PairingV1 `json:"pairing"`
	DisputeID uuid.UUID `json:"dispute_id"`
	Reason    string    `json:"reason"`
}

// RematchV1 is the wire form of a rematch request.
type RematchV1 struct {
	ID            uuid.UUID  `json:"id"`
	CallerID      string     `json:"caller_id"`
	TargetID      string     `json:"target_id"`
	FairnessScore float64    `json:"fairness_score"`
	Status        string     `json:"status"`
	ExpiresAt     time.Time  `json:"expires_at"`
	PairingID     *uuid.UUID `json:"pairing_id,omitempty"`
}

// RematchEventPayloadV1 carries a rematch request after a change.
type RematchEventPayloadV1 struct {
	Request RematchV1  `json:"request"`
	Pairing *PairingV1 `json:"pairing,omitempty"`
}

// SparringV1 is the wire form of a sparring invitation.
type SparringV1 struct {
	ID        uuid.UUID  `json:"id"`
	InviterID string     `json:"inviter_id"`
	InviteeID string     `json:"invitee_id"`
	Status    string     `json:"status"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// SparringEventPayloadV1 carries a sparring invitation after a change.
type SparringEventPayloadV1 struct {
	Invitation SparringV1 `json:"invitation"`
}

// SweepCompletedPayloadV1 summarizes a matchmaking sweep.
type SweepCompletedPayloadV1 struct {
	Created     []PairingV1 `json:"created"`
	Unmatched   []string    `json:"unmatched,omitempty"`
	Excluded    []string    `json:"excluded,omitempty"`
	Skipped     int         `json:"skipped"`
	Interrupted bool        `json:"interrupted,omitempty"`
}

// RotationCompletedPayloadV1 summarizes a weekly rotation.
type RotationCompletedPayloadV1 struct {
	Cancelled []uuid.UUID              `json:"cancelled"`
	Sweep     *SweepCompletedPayloadV1 `json:"sweep,omitempty"`
}

// OperationFailedPayloadV1 is published when a command is refused.
type OperationFailedPayloadV1 struct {
	Operation string   `json:"operation"`
	Kind      string   `json:"kind"`
	Reason    string   `json:"reason"`
	Check     string   `json:"check,omitempty"`
	Reasons   []string `json:"reasons,omitempty"`
	// Subject is the id of the pairing, request or competitor the command named.
	Subject string `json:"subject,omitempty"`
}

// NotificationRequestedPayloadV1 asks the delivery channel to create a notification.
type NotificationRequestedPayloadV1 struct {
	Recipient string `json:"recipient"`
	Category  string `json:"category"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	DeepLink  string `json:"deep_link"`
}

// BracketWinnerAdvanceRequestedPayloadV1 moves a pairing's winner to the next bracket node.
type BracketWinnerAdvanceRequestedPayloadV1 struct {
	BracketNodeID string    `json:"bracket_node_id"`
	PairingID     uuid.UUID `json:"pairing_id"`
	WinnerID      string    `json:"winner_id"`
}
