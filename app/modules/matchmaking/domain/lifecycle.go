package matchmakingdomain

var pairingTransitions = map[PairingStatus][]PairingStatus{
	StatusPending:   {StatusScheduled, StatusCancelled},
	StatusScheduled: {StatusCompleted, StatusDisputed, StatusCancelled},
	StatusDisputed:  {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether a pairing may move from one status to another.
func CanTransition(from, to PairingStatus) bool {
	for _, s := range pairingTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsActive reports whether the status counts toward the one-active-pairing rule.
func (s PairingStatus) IsActive() bool {
	return s == StatusPending || s == StatusScheduled
}

// IsTerminal reports whether no further transitions are possible.
func (s PairingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Declaration is one side's submitted result.
type Declaration struct {
	CompetitorID string
	Outcome      Outcome
	Method       FinishMethod
	Round        int
}

// Reconciliation is the result of comparing both sides' declarations.
type Reconciliation struct {
	Agreed bool
	// WinnerID is empty on a draw or when the declarations disagree.
	WinnerID string
	Reason   string
}

// Reconcile compares two declarations for the same pairing. They agree when the
// outcomes are logical opposites and the finish methods match, so both point
// deltas come from the same rule.
func Reconcile(a, b Declaration) Reconciliation {
	if b.Outcome != a.Outcome.Mirror() {
		return Reconciliation{
			Reason: "conflicting outcomes: " + string(a.Outcome) + " vs " + string(b.Outcome),
		}
	}
	if !a.Method.SameAs(b.Method) {
		return Reconciliation{
			Reason: "conflicting finish methods: " + string(a.Method) + " vs " + string(b.Method),
		}
	}

	r := Reconciliation{Agreed: true}
	switch a.Outcome {
	case OutcomeWin:
		r.WinnerID = a.CompetitorID
	case OutcomeLoss:
		r.WinnerID = b.CompetitorID
	}
	return r
}
