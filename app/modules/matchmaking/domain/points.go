package matchmakingdomain

// Point values for a single bout.
const (
	PointsWin         = 5
	PointsStoppageWin = 8
	PointsLoss        = -3
	PointsDraw        = 0
)

// Delta returns the signed points for one side of a bout. The stoppage bonus
// applies to the winner only.
func Delta(outcome Outcome, method FinishMethod) int {
	switch outcome {
	case OutcomeWin:
		if method.IsStoppage() {
			return PointsStoppageWin
		}
		return PointsWin
	case OutcomeLoss:
		return PointsLoss
	default:
		return PointsDraw
	}
}

// MirroredDeltas returns the deltas for the declaring side and the opponent,
// applying the same rule to the mirrored outcome.
func MirroredDeltas(outcome Outcome, method FinishMethod) (own, opponent int) {
	return Delta(outcome, method), Delta(outcome.Mirror(), method)
}
