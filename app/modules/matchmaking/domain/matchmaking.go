package matchmakingdomain

import (
	"sort"
)

// Candidate is a competitor entering a matchmaking sweep.
type Candidate struct {
	Snapshot
	// RecentOpponents holds opponent ids from the competitor's most recent results.
	RecentOpponents []string
	DemotedRecently bool
}

func (c Candidate) foughtRecently(id string) bool {
	for _, o := range c.RecentOpponents {
		if o == id {
			return true
		}
	}
	return false
}

// ProposedMatch is a pairing selected by SelectMatches.
type ProposedMatch struct {
	A       Snapshot
	B       Snapshot
	Verdict Verdict
}

// GroupCandidates partitions candidates by weight class, then tier. Groups and
// members come back in a stable order: weight class name, tier level, then
// points descending and id.
func GroupCandidates(candidates []Candidate) [][]Candidate {
	type groupKey struct {
		weightClass string
		tier        Tier
	}
	groups := make(map[groupKey][]Candidate)
	for _, c := range candidates {
		k := groupKey{c.WeightClass, c.Tier}
		groups[k] = append(groups[k], c)
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].weightClass != keys[j].weightClass {
			return keys[i].weightClass < keys[j].weightClass
		}
		return keys[i].tier.Level() < keys[j].tier.Level()
	})

	out := make([][]Candidate, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		sort.SliceStable(g, func(i, j int) bool {
			if g[i].Points != g[j].Points {
				return g[i].Points > g[j].Points
			}
			return g[i].ID < g[j].ID
		})
		out = append(out, g)
	}
	return out
}

// SelectMatches greedily pairs a group. Each unmatched competitor, in order,
// takes the remaining partner with the highest fair score that is not blocked,
// has not met it recently and shares its recent-demotion status. Ties keep the
// earlier partner.
func SelectMatches(group []Candidate, policy Policy, blocked func(a, b string) bool) ([]ProposedMatch, []string) {
	matched := make([]bool, len(group))
	var matches []ProposedMatch

	for i := range group {
		if matched[i] {
			continue
		}
		best := -1
		var bestVerdict Verdict
		for j := i + 1; j < len(group); j++ {
			if matched[j] {
				continue
			}
			a, b := group[i], group[j]
			if blocked != nil && blocked(a.ID, b.ID) {
				continue
			}
			if a.foughtRecently(b.ID) || b.foughtRecently(a.ID) {
				continue
			}
			if a.DemotedRecently != b.DemotedRecently {
				continue
			}
			v := Evaluate(a.Snapshot, b.Snapshot, policy)
			if !v.Fair {
				continue
			}
			if best < 0 || v.Score > bestVerdict.Score {
				best = j
				bestVerdict = v
			}
		}
		if best < 0 {
			continue
		}
		matched[i], matched[best] = true, true
		matches = append(matches, ProposedMatch{A: group[i].Snapshot, B: group[best].Snapshot, Verdict: bestVerdict})
	}

	var unmatched []string
	for i, c := range group {
		if !matched[i] {
			unmatched = append(unmatched, c.ID)
		}
	}
	return matches, unmatched
}
