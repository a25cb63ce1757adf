package matchmakingdomain

import (
	"fmt"
	"math"
)

// FairScoreThreshold is the minimum compatibility score for a fair pairing.
const FairScoreThreshold = 60.0

// Snapshot is the competitor state the fairness evaluation reads.
type Snapshot struct {
	ID          string
	WeightClass string
	Tier        Tier
	Points      int
	// Rank is the position within the weight class, 1 being best.
	Rank     int
	Timezone string
}

// Policy holds the fairness thresholds.
type Policy struct {
	MaxRankDiff               int
	MaxPointsDiff             int
	RequireSameTier           bool
	RequireSameWeightClass    bool
	RequireTimezoneOverlap    bool
	TimezoneOverlapHours      float64
	PointsGapConsentThreshold int
}

// DefaultPolicy is the league policy for mandatory and manual pairings.
func DefaultPolicy() Policy {
	return Policy{
		MaxRankDiff:               3,
		MaxPointsDiff:             30,
		RequireSameTier:           true,
		RequireSameWeightClass:    true,
		RequireTimezoneOverlap:    true,
		TimezoneOverlapHours:      6,
		PointsGapConsentThreshold: 20,
	}
}

// RematchPolicy is the stricter policy for callouts.
func RematchPolicy() Policy {
	return Policy{
		MaxRankDiff:               5,
		MaxPointsDiff:             30,
		RequireSameTier:           true,
		RequireSameWeightClass:    true,
		RequireTimezoneOverlap:    false,
		TimezoneOverlapHours:      6,
		PointsGapConsentThreshold: 20,
	}
}

// Check names the fairness check that rejected a pairing.
type Check string

const (
	CheckNone           Check = ""
	CheckWeightClass    Check = "weight_class"
	CheckTier           Check = "tier"
	CheckRankDiff       Check = "rank_difference"
	CheckPointsDiff     Check = "points_difference"
	CheckTimezone       Check = "timezone"
	CheckScore          Check = "score_threshold"
	CheckPriorEncounter Check = "prior_encounter"
)

// Verdict is the outcome of a fairness evaluation.
type Verdict struct {
	Fair            bool
	Score           float64
	RejectedBy      Check
	Reasons         []string
	RequiresConsent bool
	RankDiff        int
	PointsDiff      int
}

func reject(check Check, rankDiff, pointsDiff int, reason string) Verdict {
	return Verdict{
		Fair:       false,
		Score:      0,
		RejectedBy: check,
		Reasons:    []string{reason},
		RankDiff:   rankDiff,
		PointsDiff: pointsDiff,
	}
}

// Evaluate runs the ordered fairness checks and scores the pairing.
// The first failing check decides the rejection reason.
func Evaluate(a, b Snapshot, p Policy) Verdict {
	rankDiff := absInt(a.Rank - b.Rank)
	pointsDiff := absInt(a.Points - b.Points)

	if p.RequireSameWeightClass && a.WeightClass != b.WeightClass {
		return reject(CheckWeightClass, rankDiff, pointsDiff,
			fmt.Sprintf("weight class mismatch: %s vs %s", a.WeightClass, b.WeightClass))
	}
	if p.RequireSameTier && a.Tier != b.Tier {
		return reject(CheckTier, rankDiff, pointsDiff,
			fmt.Sprintf("tier mismatch: %s vs %s", a.Tier, b.Tier))
	}
	if rankDiff > p.MaxRankDiff {
		return reject(CheckRankDiff, rankDiff, pointsDiff,
			fmt.Sprintf("rank difference %d exceeds maximum %d", rankDiff, p.MaxRankDiff))
	}
	if pointsDiff > p.MaxPointsDiff {
		return reject(CheckPointsDiff, rankDiff, pointsDiff,
			fmt.Sprintf("points difference %d exceeds maximum %d", pointsDiff, p.MaxPointsDiff))
	}

	tzGap := TimezoneGap(a.Timezone, b.Timezone)
	tzCompatible := tzGap <= p.TimezoneOverlapHours
	if p.RequireTimezoneOverlap && !tzCompatible {
		return reject(CheckTimezone, rankDiff, pointsDiff,
			fmt.Sprintf("timezone gap %.1fh exceeds %.1fh", tzGap, p.TimezoneOverlapHours))
	}

	score := 100.0 - 5*float64(rankDiff) - 0.5*float64(pointsDiff)
	if a.Tier == b.Tier {
		score += 10
	}
	if tzCompatible {
		score += 10
	}
	score = math.Max(0, math.Min(100, score))

	v := Verdict{
		Fair:       score >= FairScoreThreshold,
		Score:      score,
		RankDiff:   rankDiff,
		PointsDiff: pointsDiff,
	}
	if !v.Fair {
		v.RejectedBy = CheckScore
		v.Reasons = append(v.Reasons, fmt.Sprintf("compatibility score %.1f below %.0f", score, FairScoreThreshold))
	}
	if pointsDiff > p.PointsGapConsentThreshold {
		v.RequiresConsent = true
		v.Reasons = append(v.Reasons,
			fmt.Sprintf("points gap %d exceeds %d: both competitors must consent", pointsDiff, p.PointsGapConsentThreshold))
	}
	return v
}

// EvaluateRematch applies the prior-encounter precondition before the rematch policy.
func EvaluateRematch(caller, target Snapshot, priorEncounter bool) Verdict {
	if !priorEncounter {
		return reject(CheckPriorEncounter, absInt(caller.Rank-target.Rank), absInt(caller.Points-target.Points),
			"rematch only: no prior encounter on record between these competitors")
	}
	return Evaluate(caller, target, RematchPolicy())
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
