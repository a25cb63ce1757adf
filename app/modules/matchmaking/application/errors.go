package matchmakingservice

import (
	"errors"
	"strings"

	matchmakingdomain "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/domain"
	matchmakingdb "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/infrastructure/repositories"
)

// Domain errors for the matchmaking service.
// These travel in the Failure side of an OperationResult; handlers publish a
// failure event and acknowledge rather than retry.
var (
	// ErrCompetitorNotFound indicates a referenced competitor does not exist.
	ErrCompetitorNotFound = errors.New("competitor not found")

	// ErrPairingNotFound indicates the pairing does not exist.
	ErrPairingNotFound = errors.New("pairing not found")

	// ErrRematchNotFound indicates the rematch request does not exist.
	ErrRematchNotFound = errors.New("rematch request not found")

	// ErrInvitationNotFound indicates the sparring invitation does not exist.
	ErrInvitationNotFound = errors.New("sparring invitation not found")

	// ErrDisputeNotFound indicates there is no open dispute for the pairing.
	ErrDisputeNotFound = errors.New("no open dispute for pairing")

	// ErrSelfPairing indicates both sides of a request are the same competitor.
	ErrSelfPairing = errors.New("competitor cannot be paired with themselves")

	// ErrCompetitorInactive indicates a competitor is deactivated.
	ErrCompetitorInactive = errors.New("competitor is not active")

	// ErrAlreadyPaired indicates an active pairing already exists between the two competitors.
	ErrAlreadyPaired = errors.New("competitors already have an active pairing")

	// ErrRequestAlreadyPending indicates an open request already exists between the two competitors.
	ErrRequestAlreadyPending = errors.New("a request between these competitors is already pending")

	// ErrInvalidTransition indicates the pairing or request is not in a state that allows the action.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNotParticipant indicates the actor is not a side of the pairing.
	ErrNotParticipant = errors.New("competitor is not a participant")

	// ErrNotRecipient indicates only the receiving competitor may respond.
	ErrNotRecipient = errors.New("only the recipient may respond")

	// ErrRequestExpired indicates the request passed its expiry.
	ErrRequestExpired = errors.New("request has expired")

	// ErrInvalidOutcome indicates an unknown outcome value.
	ErrInvalidOutcome = errors.New("invalid outcome")

	// ErrInvalidMethod indicates an empty finish method.
	ErrInvalidMethod = errors.New("finish method is required")

	// ErrInvalidSchedule indicates the requested time could not be parsed or is in the past.
	ErrInvalidSchedule = errors.New("invalid scheduled time")

	// ErrPermissionDenied indicates storage rejected the write for this caller.
	ErrPermissionDenied = errors.New("permission denied")
)

// Checks raised by the sparring gate; fairness checks come from the domain package.
const (
	CheckUpcomingBout matchmakingdomain.Check = "upcoming_bout"
	CheckSparringCap  matchmakingdomain.Check = "sparring_cap"
)

// PolicyRejection is an expected refusal carrying structured reasons.
type PolicyRejection struct {
	Check   matchmakingdomain.Check `json:"check"`
	Score   float64                 `json:"score"`
	Reasons []string                `json:"reasons"`
}

func (e *PolicyRejection) Error() string {
	if len(e.Reasons) == 0 {
		return "rejected by policy: " + string(e.Check)
	}
	return "rejected by policy: " + strings.Join(e.Reasons, "; ")
}

// rejectionFromVerdict converts an unfair verdict into a PolicyRejection.
func rejectionFromVerdict(v matchmakingdomain.Verdict) *PolicyRejection {
	return &PolicyRejection{Check: v.RejectedBy, Score: v.Score, Reasons: v.Reasons}
}

// ErrorKind classifies errors for callers that map them to transport responses.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindPolicyRejection
	KindNotFound
	KindConflict
	KindPermissionDenied
	KindInvalidInput
	KindTransient
)

func (k ErrorKind) String() string {
	switch k {
	case KindPolicyRejection:
		return "policy_rejection"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindPermissionDenied:
		return "permission_denied"
	case KindInvalidInput:
		return "invalid_input"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// KindOf classifies err. Unrecognized errors are treated as transient.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	var rejection *PolicyRejection
	switch {
	case errors.As(err, &rejection):
		return KindPolicyRejection
	case errors.Is(err, ErrCompetitorNotFound),
		errors.Is(err, ErrPairingNotFound),
		errors.Is(err, ErrRematchNotFound),
		errors.Is(err, ErrInvitationNotFound),
		errors.Is(err, ErrDisputeNotFound),
		errors.Is(err, matchmakingdb.ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyPaired),
		errors.Is(err, ErrRequestAlreadyPending),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrRequestExpired),
		errors.Is(err, matchmakingdb.ErrActivePairingExists),
		errors.Is(err, matchmakingdb.ErrNoRowsAffected):
		return KindConflict
	case errors.Is(err, ErrPermissionDenied),
		errors.Is(err, ErrNotParticipant),
		errors.Is(err, ErrNotRecipient),
		errors.Is(err, matchmakingdb.ErrPermissionDenied):
		return KindPermissionDenied
	case errors.Is(err, ErrSelfPairing),
		errors.Is(err, ErrCompetitorInactive),
		errors.Is(err, ErrInvalidOutcome),
		errors.Is(err, ErrInvalidMethod),
		errors.Is(err, ErrInvalidSchedule):
		return KindInvalidInput
	default:
		return KindTransient
	}
}
