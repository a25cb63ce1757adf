package matchmakingdb

import (
	"time"

	matchmakingdomain "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CompetitorProfile is a league competitor.
type CompetitorProfile struct {
	bun.BaseModel `bun:"table:competitor_profiles,alias:cp"`

	ID                      string                          `bun:"id,pk"`
	DisplayName             string                          `bun:"display_name,notnull"`
	WeightClass             string                          `bun:"weight_class,notnull"`
	Tier                    matchmakingdomain.Tier          `bun:"tier,notnull"`
	Points                  int                             `bun:"points,notnull,default:0"`
	Wins                    int                             `bun:"wins,notnull,default:0"`
	Losses                  int                             `bun:"losses,notnull,default:0"`
	Draws                   int                             `bun:"draws,notnull,default:0"`
	LossStreak              int                             `bun:"loss_streak,notnull,default:0"`
	Timezone                string                          `bun:"timezone,notnull,default:'UTC'"`
	IsAdmin                 bool                            `bun:"is_admin,notnull,default:false"`
	Active                  bool                            `bun:"active,notnull,default:true"`
	LastTierChangeAt        *time.Time                      `bun:"last_tier_change_at"`
	LastTierChangeDirection matchmakingdomain.TierDirection `bun:"last_tier_change_direction,nullzero"`
	CreatedAt               time.Time                       `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt               time.Time                       `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// Standing returns the points-ledger view of the profile.
func (c *CompetitorProfile) Standing() matchmakingdomain.Standing {
	return matchmakingdomain.Standing{
		Tier:       c.Tier,
		Points:     c.Points,
		Wins:       c.Wins,
		Losses:     c.Losses,
		Draws:      c.Draws,
		LossStreak: c.LossStreak,
	}
}

// ApplyStanding copies a standing back onto the profile.
func (c *CompetitorProfile) ApplyStanding(s matchmakingdomain.Standing) {
	c.Tier = s.Tier
	c.Points = s.Points
	c.Wins = s.Wins
	c.Losses = s.Losses
	c.Draws = s.Draws
	c.LossStreak = s.LossStreak
}

// CompetitorRanking is a row of the externally maintained ranking list.
type CompetitorRanking struct {
	bun.BaseModel `bun:"table:competitor_rankings,alias:cr"`

	WeightClass  string    `bun:"weight_class,pk"`
	CompetitorID string    `bun:"competitor_id,pk"`
	Rank         int       `bun:"rank,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// TierHistoryEntry records one promotion or demotion.
type TierHistoryEntry struct {
	bun.BaseModel `bun:"table:tier_history,alias:th"`

	ID           int64                           `bun:"id,pk,autoincrement"`
	CompetitorID string                          `bun:"competitor_id,notnull"`
	FromTier     matchmakingdomain.Tier          `bun:"from_tier,notnull"`
	ToTier       matchmakingdomain.Tier          `bun:"to_tier,notnull"`
	Direction    matchmakingdomain.TierDirection `bun:"direction,notnull"`
	Reason       string                          `bun:"reason"`
	PairingID    *uuid.UUID                      `bun:"pairing_id,type:uuid"`
	CreatedAt    time.Time                       `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// Pairing is a proposed or confirmed bout.
type Pairing struct {
	bun.BaseModel `bun:"table:pairings,alias:p"`

	ID                 uuid.UUID                       `bun:"id,pk,type:uuid"`
	CompetitorA        string                          `bun:"competitor_a,notnull"`
	CompetitorB        string                          `bun:"competitor_b,notnull"`
	WeightClass        string                          `bun:"weight_class,notnull"`
	Status             matchmakingdomain.PairingStatus `bun:"status,notnull"`
	MatchType          matchmakingdomain.MatchType     `bun:"match_type,notnull"`
	CompatibilityScore float64                         `bun:"compatibility_score,notnull,default:0"`
	ScheduledAt        time.Time                       `bun:"scheduled_at,notnull"`
	RequestedBy        *string                         `bun:"requested_by"`
	BracketNodeID      *string                         `bun:"bracket_node_id"`
	WinnerID           *string                         `bun:"winner_id"`
	CancelReason       *string                         `bun:"cancel_reason"`
	CompletedAt        *time.Time                      `bun:"completed_at"`
	CreatedAt          time.Time                       `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt          time.Time                       `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// Involves reports whether the competitor is one of the two sides.
func (p *Pairing) Involves(competitorID string) bool {
	return p.CompetitorA == competitorID || p.CompetitorB == competitorID
}

// Opponent returns the other side of the pairing.
func (p *Pairing) Opponent(competitorID string) string {
	if p.CompetitorA == competitorID {
		return p.CompetitorB
	}
	return p.CompetitorA
}

// ResultSubmission is one competitor's declared result for a pairing.
type ResultSubmission struct {
	bun.BaseModel `bun:"table:result_submissions,alias:rs"`

	ID           int64                          `bun:"id,pk,autoincrement"`
	PairingID    uuid.UUID                      `bun:"pairing_id,type:uuid,notnull"`
	CompetitorID string                         `bun:"competitor_id,notnull"`
	OpponentID   string                         `bun:"opponent_id,notnull"`
	OpponentName string                         `bun:"opponent_name"`
	Outcome      matchmakingdomain.Outcome      `bun:"outcome,notnull"`
	Method       matchmakingdomain.FinishMethod `bun:"method,notnull"`
	Round        int                            `bun:"round,notnull,default:0"`
	EvidenceRef  *string                        `bun:"evidence_ref"`
	FightDate    time.Time                      `bun:"fight_date,type:date,notnull"`
	PointsDelta  *int                           `bun:"points_delta"`
	SubmittedAt  time.Time                      `bun:"submitted_at,nullzero,notnull,default:current_timestamp"`
}

// Declaration returns the reconciliation view of the submission.
func (s *ResultSubmission) Declaration() matchmakingdomain.Declaration {
	return matchmakingdomain.Declaration{
		CompetitorID: s.CompetitorID,
		Outcome:      s.Outcome,
		Method:       s.Method,
		Round:        s.Round,
	}
}

// Dispute records disagreeing submissions for a pairing.
type Dispute struct {
	bun.BaseModel `bun:"table:disputes,alias:d"`

	ID         uuid.UUID                       `bun:"id,pk,type:uuid"`
	PairingID  uuid.UUID                       `bun:"pairing_id,type:uuid,notnull"`
	RaisedBy   string                          `bun:"raised_by,notnull"`
	Reason     string                          `bun:"reason,notnull"`
	Status     matchmakingdomain.DisputeStatus `bun:"status,notnull"`
	Resolution *string                         `bun:"resolution"`
	ResolvedBy *string                         `bun:"resolved_by"`
	CreatedAt  time.Time                       `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	ResolvedAt *time.Time                      `bun:"resolved_at"`
}

// RematchRequest is a callout between two competitors who have met before.
type RematchRequest struct {
	bun.BaseModel `bun:"table:rematch_requests,alias:rr"`

	ID            uuid.UUID                       `bun:"id,pk,type:uuid"`
	CallerID      string                          `bun:"caller_id,notnull"`
	TargetID      string                          `bun:"target_id,notnull"`
	FairnessScore float64                         `bun:"fairness_score,notnull"`
	Status        matchmakingdomain.RequestStatus `bun:"status,notnull"`
	PairingID     *uuid.UUID                      `bun:"pairing_id,type:uuid"`
	ExpiresAt     time.Time                       `bun:"expires_at,notnull"`
	CreatedAt     time.Time                       `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time                       `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// SparringInvitation is a non-competitive training arrangement.
type SparringInvitation struct {
	bun.BaseModel `bun:"table:sparring_invitations,alias:si"`

	ID        uuid.UUID                       `bun:"id,pk,type:uuid"`
	InviterID string                          `bun:"inviter_id,notnull"`
	InviteeID string                          `bun:"invitee_id,notnull"`
	Status    matchmakingdomain.RequestStatus `bun:"status,notnull"`
	StartedAt *time.Time                      `bun:"started_at"`
	ExpiresAt *time.Time                      `bun:"expires_at"`
	CreatedAt time.Time                       `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time                       `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
