package matchmakingdb

import (
	"context"
	"time"

	matchmakingdomain "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for matchmaking persistence.
// All methods take the bun handle to run on so callers can compose them inside
// one transaction; a nil handle falls back to the repository's connection.
//
// Error semantics:
//   - ErrNotFound: record does not exist
//   - ErrNoRowsAffected: a guarded UPDATE matched no rows
//   - ErrActivePairingExists: the active-pair unique index rejected an insert
//   - ErrPermissionDenied: the database refused the write for this role
//   - Other errors: infrastructure failures
type Repository interface {
	CompetitorRepository
	PairingRepository
	SubmissionRepository
	DisputeRepository
	RematchRepository
	SparringRepository
}

// CompetitorRepository covers competitor_profiles, competitor_rankings and tier_history.
type CompetitorRepository interface {
	// GetCompetitor returns one profile.
	GetCompetitor(ctx context.Context, db bun.IDB, id string) (*CompetitorProfile, error)

	// GetCompetitors returns the profiles found for ids, keyed by id.
	GetCompetitors(ctx context.Context, db bun.IDB, ids []string) (map[string]*CompetitorProfile, error)

	// GetCompetitorsForUpdate is GetCompetitors with the rows locked until the
	// transaction ends. Standing and sparring-cap changes read through it.
	GetCompetitorsForUpdate(ctx context.Context, db bun.IDB, ids []string) (map[string]*CompetitorProfile, error)

	// ListActiveCompetitors returns every active profile ordered by id.
	ListActiveCompetitors(ctx context.Context, db bun.IDB) ([]CompetitorProfile, error)

	// UpdateCompetitorStanding persists points, counters, streak and tier fields.
	UpdateCompetitorStanding(ctx context.Context, db bun.IDB, c *CompetitorProfile) error

	// GetRanks returns competitor id -> rank for one weight class.
	GetRanks(ctx context.Context, db bun.IDB, weightClass string) (map[string]int, error)

	// InsertTierHistory records a promotion or demotion.
	InsertTierHistory(ctx context.Context, db bun.IDB, entry *TierHistoryEntry) error

	// ListDemotedSince returns the ids of competitors demoted at or after since.
	ListDemotedSince(ctx context.Context, db bun.IDB, since time.Time) ([]string, error)
}

// PairingRepository covers the pairings table.
type PairingRepository interface {
	// CreatePairing inserts a pairing with the caller's privileges.
	CreatePairing(ctx context.Context, db bun.IDB, p *Pairing) error

	// CreatePairingIfAbsent calls the privileged create_pairing_if_absent procedure.
	// It returns false when an active pairing already exists for the two competitors.
	CreatePairingIfAbsent(ctx context.Context, db bun.IDB, p *Pairing) (bool, error)

	// GetPairing returns one pairing.
	GetPairing(ctx context.Context, db bun.IDB, id uuid.UUID) (*Pairing, error)

	// GetPairingForUpdate returns one pairing and locks its row for the transaction.
	GetPairingForUpdate(ctx context.Context, db bun.IDB, id uuid.UUID) (*Pairing, error)

	// UpdatePairingStatus moves a pairing to update.Status only if its current
	// status is one of from. Returns ErrNoRowsAffected otherwise.
	UpdatePairingStatus(ctx context.Context, db bun.IDB, id uuid.UUID, from []matchmakingdomain.PairingStatus, update PairingStatusUpdate) error

	// FindActivePairingBetween returns the active pairing between two competitors in either order.
	FindActivePairingBetween(ctx context.Context, db bun.IDB, a, b string) (*Pairing, error)

	// ListActivePairings returns every pending or scheduled pairing.
	ListActivePairings(ctx context.Context, db bun.IDB) ([]Pairing, error)

	// ListScheduledPairingsFor returns scheduled pairings involving the competitor
	// whose scheduled_at falls within [from, to].
	ListScheduledPairingsFor(ctx context.Context, db bun.IDB, competitorID string, from, to time.Time) ([]Pairing, error)

	// ListStaleActivePairings returns active pairings of matchType created before createdBefore.
	ListStaleActivePairings(ctx context.Context, db bun.IDB, matchType matchmakingdomain.MatchType, createdBefore time.Time) ([]Pairing, error)
}

// PairingStatusUpdate carries the columns written by a status transition.
type PairingStatusUpdate struct {
	Status       matchmakingdomain.PairingStatus
	WinnerID     *string
	CancelReason *string
	CompletedAt  *time.Time
	UpdatedAt    time.Time
}

// SubmissionRepository covers result_submissions.
type SubmissionRepository interface {
	// UpsertSubmission stores a competitor's declaration, replacing an earlier one for the same pairing.
	UpsertSubmission(ctx context.Context, db bun.IDB, s *ResultSubmission) error

	// ListSubmissionsForPairing returns submissions ordered by submitted_at.
	ListSubmissionsForPairing(ctx context.Context, db bun.IDB, pairingID uuid.UUID) ([]ResultSubmission, error)

	// UpdateSubmissionResult rewrites outcome, method and points_delta.
	UpdateSubmissionResult(ctx context.Context, db bun.IDB, s *ResultSubmission) error

	// ListRecentOpponents returns opponent ids from the competitor's latest limit completed bouts.
	ListRecentOpponents(ctx context.Context, db bun.IDB, competitorID string, limit int) ([]string, error)

	// HasEncounter reports whether the two competitors have a completed bout together.
	HasEncounter(ctx context.Context, db bun.IDB, a, b string) (bool, error)
}

// DisputeRepository covers disputes.
type DisputeRepository interface {
	CreateDispute(ctx context.Context, db bun.IDB, d *Dispute) error

	// GetOpenDispute returns the open dispute for a pairing.
	GetOpenDispute(ctx context.Context, db bun.IDB, pairingID uuid.UUID) (*Dispute, error)

	// ListOpenDisputes returns every open dispute, oldest first.
	ListOpenDisputes(ctx context.Context, db bun.IDB) ([]Dispute, error)

	ResolveDispute(ctx context.Context, db bun.IDB, id uuid.UUID, resolvedBy, resolution string, at time.Time) error
}

// RematchRepository covers rematch_requests.
type RematchRepository interface {
	CreateRematchRequest(ctx context.Context, db bun.IDB, r *RematchRequest) error
	GetRematchRequest(ctx context.Context, db bun.IDB, id uuid.UUID) (*RematchRequest, error)

	// FindPendingRematch returns a pending request between two competitors in either direction.
	FindPendingRematch(ctx context.Context, db bun.IDB, a, b string) (*RematchRequest, error)

	// UpdateRematchStatus moves a request from one status to another, optionally linking a pairing.
	UpdateRematchStatus(ctx context.Context, db bun.IDB, id uuid.UUID, from, to matchmakingdomain.RequestStatus, pairingID *uuid.UUID) error
}

// SparringRepository covers sparring_invitations.
type SparringRepository interface {
	CreateSparringInvitation(ctx context.Context, db bun.IDB, inv *SparringInvitation) error
	GetSparringInvitation(ctx context.Context, db bun.IDB, id uuid.UUID) (*SparringInvitation, error)

	// FindPendingInvitation returns a pending invitation between two competitors in either direction.
	FindPendingInvitation(ctx context.Context, db bun.IDB, a, b string) (*SparringInvitation, error)

	// CountActiveSparring counts accepted invitations involving the competitor that expire after now.
	CountActiveSparring(ctx context.Context, db bun.IDB, competitorID string, now time.Time) (int, error)

	// UpdateSparringInvitation writes status and window columns if the current status equals from.
	UpdateSparringInvitation(ctx context.Context, db bun.IDB, inv *SparringInvitation, from matchmakingdomain.RequestStatus) error
}
