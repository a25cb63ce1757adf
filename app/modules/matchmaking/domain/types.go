package matchmakingdomain

import "strings"

// Outcome is a competitor's declared result for a bout.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomeDraw Outcome = "draw"
)

// ParseOutcome normalizes user input into an Outcome.
func ParseOutcome(s string) (Outcome, bool) {
	switch Outcome(strings.ToLower(strings.TrimSpace(s))) {
	case OutcomeWin:
		return OutcomeWin, true
	case OutcomeLoss:
		return OutcomeLoss, true
	case OutcomeDraw:
		return OutcomeDraw, true
	}
	return "", false
}

// Mirror returns the outcome the opponent must have declared.
func (o Outcome) Mirror() Outcome {
	switch o {
	case OutcomeWin:
		return OutcomeLoss
	case OutcomeLoss:
		return OutcomeWin
	default:
		return o
	}
}

// FinishMethod is how a bout ended, e.g. "KO", "TKO", "Submission", "Decision".
type FinishMethod string

const (
	MethodKO         FinishMethod = "KO"
	MethodTKO        FinishMethod = "TKO"
	MethodSubmission FinishMethod = "Submission"
	MethodDecision   FinishMethod = "Decision"
)

// IsStoppage reports whether the method earns the knockout bonus.
func (m FinishMethod) IsStoppage() bool {
	switch strings.ToUpper(strings.TrimSpace(string(m))) {
	case string(MethodKO), string(MethodTKO):
		return true
	}
	return false
}

// SameAs compares two methods ignoring case and surrounding space.
func (m FinishMethod) SameAs(other FinishMethod) bool {
	return strings.EqualFold(strings.TrimSpace(string(m)), strings.TrimSpace(string(other)))
}

// PairingStatus is the lifecycle state of a pairing.
type PairingStatus string

const (
	StatusPending   PairingStatus = "pending"
	StatusScheduled PairingStatus = "scheduled"
	StatusCompleted PairingStatus = "completed"
	StatusDisputed  PairingStatus = "disputed"
	StatusCancelled PairingStatus = "cancelled"
)

// ActiveStatuses are the statuses covered by the one-active-pairing-per-pair rule.
var ActiveStatuses = []PairingStatus{StatusPending, StatusScheduled}

// MatchType records how a pairing came to exist.
type MatchType string

const (
	MatchTypeAutoMandatory MatchType = "auto_mandatory"
	MatchTypeManual        MatchType = "manual"
	MatchTypeRematch       MatchType = "rematch"
	MatchTypeForced        MatchType = "forced"
)

// DisputeStatus is the state of a dispute.
type DisputeStatus string

const (
	DisputeOpen     DisputeStatus = "open"
	DisputeResolved DisputeStatus = "resolved"
)

// RequestStatus is shared by rematch requests and sparring invitations.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestAccepted  RequestStatus = "accepted"
	RequestDeclined  RequestStatus = "declined"
	RequestExpired   RequestStatus = "expired"
	RequestScheduled RequestStatus = "scheduled"
	RequestCompleted RequestStatus = "completed"
)

// PairKey identifies an unordered pair of competitors.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}
