package matchmakinghandlers

import (
	matchmakingservice "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/application"
	matchmakingdb "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/infrastructure/repositories"
	matchmakingevents "github.com/Black-And-White-Club/bout-league/pkg/events/matchmaking"
)

// PairingToV1 converts a stored pairing to its wire form.
func PairingToV1(p *matchmakingdb.Pairing) matchmakingevents.PairingV1 {
	out := matchmakingevents.PairingV1{
		ID:                 p.ID,
		CompetitorA:        p.CompetitorA,
		CompetitorB:        p.CompetitorB,
		WeightClass:        p.WeightClass,
		Status:             string(p.Status),
		MatchType:          string(p.MatchType),
		CompatibilityScore: p.CompatibilityScore,
		ScheduledAt:        p.ScheduledAt,
		RequestedBy:        p.RequestedBy,
		BracketNodeID:      p.BracketNodeID,
		WinnerID:           p.WinnerID,
		CompletedAt:        p.CompletedAt,
	}
	if p.CancelReason != nil {
		out.CancelReason = *p.CancelReason
	}
	return out
}

// PairingsToV1 converts a slice of pairings.
func PairingsToV1(ps []matchmakingdb.Pairing) []matchmakingevents.PairingV1 {
	out := make([]matchmakingevents.PairingV1, 0, len(ps))
	for i := range ps {
		out = append(out, PairingToV1(&ps[i]))
	}
	return out
}

// CompletionToV1 builds the completed-pairing payload.
func CompletionToV1(p *matchmakingdb.Pairing, c *matchmakingservice.Completion) *matchmakingevents.PairingCompletedPayloadV1 {
	out := &matchmakingevents.PairingCompletedPayloadV1{Pairing: PairingToV1(p)}
	if c == nil {
		return out
	}
	out.WinnerID = c.WinnerID
	out.Deltas = c.Deltas
	for _, tc := range c.TierChanges {
		out.TierChanges = append(out.TierChanges, matchmakingevents.TierChangeV1{
			CompetitorID: tc.CompetitorID,
			From:         string(tc.Change.From),
			To:           string(tc.Change.To),
			Direction:    string(tc.Change.Direction),
		})
	}
	return out
}

// RematchToV1 converts a stored rematch request.
func RematchToV1(r *matchmakingdb.RematchRequest) matchmakingevents.RematchV1 {
	return matchmakingevents.RematchV1{
		ID:            r.ID,
		CallerID:      r.CallerID,
		TargetID:      r.TargetID,
		FairnessScore: r.FairnessScore,
		Status:        string(r.Status),
		ExpiresAt:     r.ExpiresAt,
		PairingID:     r.PairingID,
	}
}

// SparringToV1 converts a stored sparring invitation.
func SparringToV1(inv *matchmakingdb.SparringInvitation) matchmakingevents.SparringV1 {
	return matchmakingevents.SparringV1{
		ID:        inv.ID,
		InviterID: inv.InviterID,
		InviteeID: inv.InviteeID,
		Status:    string(inv.Status),
		StartedAt: inv.StartedAt,
		ExpiresAt: inv.ExpiresAt,
	}
}

// SweepToV1 converts a sweep result.
func SweepToV1(r *matchmakingservice.SweepResult) *matchmakingevents.SweepCompletedPayloadV1 {
	if r == nil {
		return nil
	}
	return &matchmakingevents.SweepCompletedPayloadV1{
		Created:     PairingsToV1(r.Created),
		Unmatched:   r.Unmatched,
		Excluded:    r.Excluded,
		Skipped:     r.Skipped,
		Interrupted: r.Interrupted,
	}
}

// RotationToV1 converts a rotation result.
func RotationToV1(r *matchmakingservice.RotationResult) *matchmakingevents.RotationCompletedPayloadV1 {
	if r == nil {
		return nil
	}
	return &matchmakingevents.RotationCompletedPayloadV1{
		Cancelled: r.Cancelled,
		Sweep:     SweepToV1(r.Sweep),
	}
}
