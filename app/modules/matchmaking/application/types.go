package matchmakingservice

import (
	"time"

	matchmakingdomain "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/domain"
	matchmakingdb "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/infrastructure/repositories"
	"github.com/google/uuid"
)

// Config holds the league knobs the service applies.
type Config struct {
	Policy matchmakingdomain.Policy

	// RecentOpponentWindow is how many of a competitor's latest results block a repeat pairing.
	RecentOpponentWindow int
	// DemotionWindow separates recently demoted competitors from everyone else.
	DemotionWindow time.Duration
	// ScheduleLead is how far ahead system pairings are scheduled.
	ScheduleLead time.Duration
	// MaxScheduleOffset bounds the random offset added to ScheduleLead.
	MaxScheduleOffset time.Duration
	// RotationAge is the age past which auto pairings are rotated out.
	RotationAge time.Duration

	PendingExpiry  time.Duration
	RematchExpiry  time.Duration
	SparringWindow time.Duration
	SparringCap    int
	// UpcomingBoutWindow is the look-ahead the sparring gate checks for scheduled bouts.
	UpcomingBoutWindow time.Duration
}

// DefaultConfig returns the standard league settings.
func DefaultConfig() Config {
	return Config{
		Policy:               matchmakingdomain.DefaultPolicy(),
		RecentOpponentWindow: 5,
		DemotionWindow:       30 * 24 * time.Hour,
		ScheduleLead:         7 * 24 * time.Hour,
		MaxScheduleOffset:    12 * time.Hour,
		RotationAge:          7 * 24 * time.Hour,
		PendingExpiry:        72 * time.Hour,
		RematchExpiry:        72 * time.Hour,
		SparringWindow:       72 * time.Hour,
		SparringCap:          3,
		UpcomingBoutWindow:   3 * 24 * time.Hour,
	}
}

// PairingRequest asks for a manual pairing.
type PairingRequest struct {
	RequesterID string
	OpponentID  string
	// ScheduledFor is free text ("next friday 7pm") or RFC3339. Empty uses the default lead.
	ScheduledFor string
}

// ForcedPairingRequest creates an administrative pairing without fairness checks.
type ForcedPairingRequest struct {
	AdminID       string
	CompetitorA   string
	CompetitorB   string
	ScheduledAt   time.Time
	BracketNodeID *string
}

// CancelPairingRequest cancels a pairing.
type CancelPairingRequest struct {
	PairingID uuid.UUID
	ActorID   string
	Reason    string
	// Administrative cancellations may end scheduled and disputed pairings.
	Administrative bool
}

// SubmitResultRequest is one competitor's declared result.
type SubmitResultRequest struct {
	PairingID    uuid.UUID
	CompetitorID string
	Outcome      string
	Method       string
	Round        int
	EvidenceRef  *string
	FightDate    time.Time
}

// ResolveDisputeRequest settles a disputed pairing.
type ResolveDisputeRequest struct {
	PairingID  uuid.UUID
	ResolvedBy string
	// WinnerID names the winner; empty with Draw set records a draw.
	WinnerID string
	Draw     bool
	Method   string
	// Void cancels the pairing instead of completing it.
	Void bool
	Note string
}

// PairingCreated is the success payload of pairing creation.
type PairingCreated struct {
	Pairing *matchmakingdb.Pairing
	Verdict matchmakingdomain.Verdict
}

// SubmissionState reports where reconciliation left a pairing.
type SubmissionState string

const (
	SubmissionAwaitingOpponent SubmissionState = "awaiting_opponent"
	SubmissionCompleted        SubmissionState = "completed"
	SubmissionDisputed         SubmissionState = "disputed"
)

// TierChangeRecord is a tier change applied while completing a pairing.
type TierChangeRecord struct {
	CompetitorID string
	Change       matchmakingdomain.TierChange
}

// Completion describes the ledger effects of a completed pairing.
type Completion struct {
	WinnerID    string
	Deltas      map[string]int
	TierChanges []TierChangeRecord
}

// SubmissionResult is the success payload of SubmitResult.
type SubmissionResult struct {
	State      SubmissionState
	Pairing    *matchmakingdb.Pairing
	Completion *Completion
	Dispute    *matchmakingdb.Dispute
}

// DisputeResolution is the success payload of ResolveDispute.
type DisputeResolution struct {
	Pairing    *matchmakingdb.Pairing
	Dispute    *matchmakingdb.Dispute
	Completion *Completion
}

// ExpiryResult reports whether an expiry job changed anything.
type ExpiryResult struct {
	Expired bool
}

// SweepResult is the output of a matchmaking sweep.
type SweepResult struct {
	Created   []matchmakingdb.Pairing
	Unmatched []string
	// Excluded lists competitors left out of the pool, such as unranked ones.
	Excluded []string
	// Skipped counts proposals dropped at write time.
	Skipped int
	// Interrupted is set when the caller's context ended mid-sweep.
	Interrupted bool
}

// RotationResult is the output of the weekly rotation.
type RotationResult struct {
	Cancelled []uuid.UUID
	Sweep     *SweepResult
}

// RematchDecision is the success payload of RespondToRematch.
type RematchDecision struct {
	Request *matchmakingdb.RematchRequest
	Pairing *matchmakingdb.Pairing
}

// Eligibility is the sparring gate's answer for one competitor.
type Eligibility struct {
	Eligible bool
	Reasons  []string
	Upcoming []matchmakingdb.Pairing
	Active   int
}
