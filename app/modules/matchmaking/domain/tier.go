package matchmakingdomain

import "strings"

// Tier is an ordered competitive bracket.
type Tier string

const (
	TierAmateur   Tier = "amateur"
	TierSemiPro   Tier = "semi_pro"
	TierPro       Tier = "pro"
	TierContender Tier = "contender"
	TierElite     Tier = "elite"
)

// Tiers lists every tier from lowest to highest.
var Tiers = []Tier{TierAmateur, TierSemiPro, TierPro, TierContender, TierElite}

var tierFloors = map[Tier]int{
	TierAmateur:   0,
	TierSemiPro:   50,
	TierPro:       120,
	TierContender: 200,
	TierElite:     300,
}

// DemotionLossStreak is the number of consecutive losses that drops a competitor one tier.
const DemotionLossStreak = 4

// ParseTier accepts the stored value or a display name such as "Semi-Pro".
func ParseTier(s string) (Tier, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	for _, t := range Tiers {
		if string(t) == norm {
			return t, true
		}
	}
	return "", false
}

// Level returns the tier's position, -1 for unknown tiers.
func (t Tier) Level() int {
	for i, tt := range Tiers {
		if tt == t {
			return i
		}
	}
	return -1
}

// Floor is the points needed to hold the tier.
func (t Tier) Floor() int {
	return tierFloors[t]
}

// Next returns the tier above t.
func (t Tier) Next() (Tier, bool) {
	l := t.Level()
	if l < 0 || l+1 >= len(Tiers) {
		return t, false
	}
	return Tiers[l+1], true
}

// Previous returns the tier below t.
func (t Tier) Previous() (Tier, bool) {
	l := t.Level()
	if l <= 0 {
		return t, false
	}
	return Tiers[l-1], true
}

// TierDirection labels a tier history entry.
type TierDirection string

const (
	TierPromoted TierDirection = "promoted"
	TierDemoted  TierDirection = "demoted"
)

// Standing is the mutable record a completed bout updates.
type Standing struct {
	Tier       Tier
	Points     int
	Wins       int
	Losses     int
	Draws      int
	LossStreak int
}

// TierChange describes a promotion or demotion caused by a result.
type TierChange struct {
	From      Tier
	To        Tier
	Direction TierDirection
	Reason    string
}

// ApplyResult updates a standing with one bout result.
//
// Rules:
//   - Counters and the loss streak follow the outcome.
//   - DemotionLossStreak consecutive losses drop one tier and cap points just
//     below the threshold that would promote straight back.
//   - Otherwise reaching a higher tier's floor promotes.
//   - Points never fall below the current tier's floor.
func ApplyResult(s Standing, outcome Outcome, delta int) (Standing, *TierChange) {
	s.Points += delta
	switch outcome {
	case OutcomeWin:
		s.Wins++
		s.LossStreak = 0
	case OutcomeLoss:
		s.Losses++
		s.LossStreak++
	case OutcomeDraw:
		s.Draws++
		s.LossStreak = 0
	}

	var change *TierChange

	if s.LossStreak >= DemotionLossStreak {
		if lower, ok := s.Tier.Previous(); ok {
			change = &TierChange{From: s.Tier, To: lower, Direction: TierDemoted, Reason: "consecutive losses"}
			s.Tier = lower
			if ceiling := s.Tier.promotionThreshold() - 1; s.Points > ceiling {
				s.Points = ceiling
			}
		}
		s.LossStreak = 0
	} else {
		from := s.Tier
		for {
			next, ok := s.Tier.Next()
			if !ok || s.Points < next.Floor() {
				break
			}
			s.Tier = next
		}
		if s.Tier != from {
			change = &TierChange{From: from, To: s.Tier, Direction: TierPromoted, Reason: "points threshold reached"}
		}
	}

	if floor := s.Tier.Floor(); s.Points < floor {
		s.Points = floor
	}
	return s, change
}

func (t Tier) promotionThreshold() int {
	next, ok := t.Next()
	if !ok {
		return int(^uint(0) >> 1)
	}
	return next.Floor()
}
