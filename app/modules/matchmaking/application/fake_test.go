package matchmakingservice

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	matchmakingdomain "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/domain"
	matchmakingdb "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Matchmaking Repo
// ------------------------

// FakeRepo keeps rows in memory. Any XxxFunc that is set replaces the
// in-memory behavior for that method.
type FakeRepo struct {
	mu    sync.Mutex
	trace []string

	Competitors map[string]*matchmakingdb.CompetitorProfile
	Ranks       map[string]map[string]int
	Pairings    map[uuid.UUID]*matchmakingdb.Pairing
	Submissions []matchmakingdb.ResultSubmission
	Disputes    map[uuid.UUID]*matchmakingdb.Dispute
	Rematches   map[uuid.UUID]*matchmakingdb.RematchRequest
	Invitations map[uuid.UUID]*matchmakingdb.SparringInvitation
	TierHistory []matchmakingdb.TierHistoryEntry

	rowLocks map[string]*sync.Mutex

	// BeforeLock and AfterLock run around row-lock acquisition in GetCompetitorsForUpdate.
	BeforeLock func(ids []string)
	AfterLock  func(ids []string)

	GetCompetitorsFunc           func(ctx context.Context, db bun.IDB, ids []string) (map[string]*matchmakingdb.CompetitorProfile, error)
	ListActiveCompetitorsFunc    func(ctx context.Context, db bun.IDB) ([]matchmakingdb.CompetitorProfile, error)
	UpdateCompetitorStandingFunc func(ctx context.Context, db bun.IDB, c *matchmakingdb.CompetitorProfile) error
	GetRanksFunc                 func(ctx context.Context, db bun.IDB, weightClass string) (map[string]int, error)
	ListDemotedSinceFunc         func(ctx context.Context, db bun.IDB, since time.Time) ([]string, error)
	CreatePairingFunc            func(ctx context.Context, db bun.IDB, p *matchmakingdb.Pairing) error
	CreatePairingIfAbsentFunc    func(ctx context.Context, db bun.IDB, p *matchmakingdb.Pairing) (bool, error)
	UpdatePairingStatusFunc      func(ctx context.Context, db bun.IDB, id uuid.UUID, from []matchmakingdomain.PairingStatus, update matchmakingdb.PairingStatusUpdate) error
	ListActivePairingsFunc       func(ctx context.Context, db bun.IDB) ([]matchmakingdb.Pairing, error)
	ListRecentOpponentsFunc      func(ctx context.Context, db bun.IDB, competitorID string, limit int) ([]string, error)
	HasEncounterFunc             func(ctx context.Context, db bun.IDB, a, b string) (bool, error)
	CountActiveSparringFunc      func(ctx context.Context, db bun.IDB, competitorID string, now time.Time) (int, error)
}

func NewFakeRepo() *FakeRepo {
	return &FakeRepo{
		trace:       []string{},
		Competitors: map[string]*matchmakingdb.CompetitorProfile{},
		Ranks:       map[string]map[string]int{},
		Pairings:    map[uuid.UUID]*matchmakingdb.Pairing{},
		Disputes:    map[uuid.UUID]*matchmakingdb.Dispute{},
		Rematches:   map[uuid.UUID]*matchmakingdb.RematchRequest{},
		Invitations: map[uuid.UUID]*matchmakingdb.SparringInvitation{},
		rowLocks:    map[string]*sync.Mutex{},
	}
}

func (f *FakeRepo) record(step string) {
	f.mu.Lock()
	f.trace = append(f.trace, step)
	f.mu.Unlock()
}

// AddCompetitor stores a profile and, when rank > 0, its rank in the weight class.
func (f *FakeRepo) AddCompetitor(c matchmakingdb.CompetitorProfile, rank int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	cp := c
	f.Competitors[c.ID] = &cp
	if rank > 0 {
		if f.Ranks[c.WeightClass] == nil {
			f.Ranks[c.WeightClass] = map[string]int{}
		}
		f.Ranks[c.WeightClass][c.ID] = rank
	}
}

// AddPairing stores a pairing as-is.
func (f *FakeRepo) AddPairing(p matchmakingdb.Pairing) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := p
	f.Pairings[p.ID] = &cp
}

// AddSubmission stores a historical submission. A pairing it names that the
// fake does not hold yet is recorded as completed.
func (f *FakeRepo) AddSubmission(s matchmakingdb.ResultSubmission) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.Pairings[s.PairingID]; !ok {
		completedAt := s.SubmittedAt
		f.Pairings[s.PairingID] = &matchmakingdb.Pairing{
			ID:          s.PairingID,
			CompetitorA: s.CompetitorID,
			CompetitorB: s.OpponentID,
			Status:      matchmakingdomain.StatusCompleted,
			CompletedAt: &completedAt,
		}
	}
	f.Submissions = append(f.Submissions, s)
}

// completedLocked reports whether the submission belongs to a completed pairing.
func (f *FakeRepo) completedLocked(s matchmakingdb.ResultSubmission) bool {
	p, ok := f.Pairings[s.PairingID]
	return ok && p.Status == matchmakingdomain.StatusCompleted
}

// --- Competitors ---

func (f *FakeRepo) GetCompetitor(ctx context.Context, db bun.IDB, id string) (*matchmakingdb.CompetitorProfile, error) {
	f.record("GetCompetitor")
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.Competitors[id]
	if !ok {
		return nil, matchmakingdb.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *FakeRepo) GetCompetitors(ctx context.Context, db bun.IDB, ids []string) (map[string]*matchmakingdb.CompetitorProfile, error) {
	f.record("GetCompetitors")
	if f.GetCompetitorsFunc != nil {
		return f.GetCompetitorsFunc(ctx, db, ids)
	}
	return f.copyCompetitors(ids), nil
}

// GetCompetitorsForUpdate takes a row lock per id, in id order, held until the
// surrounding FakeTx transaction returns. Outside a transaction nothing is held.
func (f *FakeRepo) GetCompetitorsForUpdate(ctx context.Context, db bun.IDB, ids []string) (map[string]*matchmakingdb.CompetitorProfile, error) {
	f.record("GetCompetitorsForUpdate")
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	if f.BeforeLock != nil {
		f.BeforeLock(sorted)
	}
	if held, ok := ctx.Value(heldLocksKey{}).(*heldLocks); ok {
		for _, id := range sorted {
			if held.ids[id] {
				continue
			}
			mu := f.rowLock(id)
			mu.Lock()
			held.ids[id] = true
			held.mus = append(held.mus, mu)
		}
	}
	if f.AfterLock != nil {
		f.AfterLock(sorted)
	}
	return f.copyCompetitors(ids), nil
}

func (f *FakeRepo) copyCompetitors(ids []string) map[string]*matchmakingdb.CompetitorProfile {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]*matchmakingdb.CompetitorProfile, len(ids))
	for _, id := range ids {
		if c, ok := f.Competitors[id]; ok {
			cp := *c
			out[id] = &cp
		}
	}
	return out
}

func (f *FakeRepo) rowLock(id string) *sync.Mutex {
	f.mu.Lock()
	defer f.mu.Unlock()
	mu, ok := f.rowLocks[id]
	if !ok {
		mu = &sync.Mutex{}
		f.rowLocks[id] = mu
	}
	return mu
}

func (f *FakeRepo) ListActiveCompetitors(ctx context.Context, db bun.IDB) ([]matchmakingdb.CompetitorProfile, error) {
	f.record("ListActiveCompetitors")
	if f.ListActiveCompetitorsFunc != nil {
		return f.ListActiveCompetitorsFunc(ctx, db)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []matchmakingdb.CompetitorProfile
	for _, c := range f.Competitors {
		if c.Active {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *FakeRepo) UpdateCompetitorStanding(ctx context.Context, db bun.IDB, c *matchmakingdb.CompetitorProfile) error {
	f.record("UpdateCompetitorStanding")
	if f.UpdateCompetitorStandingFunc != nil {
		return f.UpdateCompetitorStandingFunc(ctx, db, c)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.Competitors[c.ID]; !ok {
		return matchmakingdb.ErrNoRowsAffected
	}
	cp := *c
	f.Competitors[c.ID] = &cp
	return nil
}

func (f *FakeRepo) GetRanks(ctx context.Context, db bun.IDB, weightClass string) (map[string]int, error) {
	f.record("GetRanks")
	if f.GetRanksFunc != nil {
		return f.GetRanksFunc(ctx, db, weightClass)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]int{}
	for id, r := range f.Ranks[weightClass] {
		out[id] = r
	}
	return out, nil
}

func (f *FakeRepo) InsertTierHistory(ctx context.Context, db bun.IDB, entry *matchmakingdb.TierHistoryEntry) error {
	f.record("InsertTierHistory")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.TierHistory = append(f.TierHistory, *entry)
	return nil
}

func (f *FakeRepo) ListDemotedSince(ctx context.Context, db bun.IDB, since time.Time) ([]string, error) {
	f.record("ListDemotedSince")
	if f.ListDemotedSinceFunc != nil {
		return f.ListDemotedSinceFunc(ctx, db, since)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, h := range f.TierHistory {
		if h.Direction == matchmakingdomain.TierDemoted && !h.CreatedAt.Before(since) {
			out = append(out, h.CompetitorID)
		}
	}
	return out, nil
}

// --- Pairings ---

func (f *FakeRepo) activeBetweenLocked(a, b string) *matchmakingdb.Pairing {
	key := matchmakingdomain.PairKey(a, b)
	for _, p := range f.Pairings {
		if p.Status.IsActive() && matchmakingdomain.PairKey(p.CompetitorA, p.CompetitorB) == key {
			return p
		}
	}
	return nil
}

func (f *FakeRepo) CreatePairing(ctx context.Context, db bun.IDB, p *matchmakingdb.Pairing) error {
	f.record("CreatePairing")
	if f.CreatePairingFunc != nil {
		return f.CreatePairingFunc(ctx, db, p)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.Status.IsActive() && f.activeBetweenLocked(p.CompetitorA, p.CompetitorB) != nil {
		return matchmakingdb.ErrActivePairingExists
	}
	cp := *p
	f.Pairings[p.ID] = &cp
	return nil
}

func (f *FakeRepo) CreatePairingIfAbsent(ctx context.Context, db bun.IDB, p *matchmakingdb.Pairing) (bool, error) {
	f.record("CreatePairingIfAbsent")
	if f.CreatePairingIfAbsentFunc != nil {
		return f.CreatePairingIfAbsentFunc(ctx, db, p)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.activeBetweenLocked(p.CompetitorA, p.CompetitorB) != nil {
		return false, nil
	}
	cp := *p
	f.Pairings[p.ID] = &cp
	return true, nil
}

func (f *FakeRepo) GetPairing(ctx context.Context, db bun.IDB, id uuid.UUID) (*matchmakingdb.Pairing, error) {
	f.record("GetPairing")
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.Pairings[id]
	if !ok {
		return nil, matchmakingdb.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *FakeRepo) GetPairingForUpdate(ctx context.Context, db bun.IDB, id uuid.UUID) (*matchmakingdb.Pairing, error) {
	p, err := f.GetPairing(ctx, db, id)
	f.record("GetPairingForUpdate")
	return p, err
}

func (f *FakeRepo) UpdatePairingStatus(ctx context.Context, db bun.IDB, id uuid.UUID, from []matchmakingdomain.PairingStatus, update matchmakingdb.PairingStatusUpdate) error {
	f.record("UpdatePairingStatus")
	if f.UpdatePairingStatusFunc != nil {
		return f.UpdatePairingStatusFunc(ctx, db, id, from, update)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.Pairings[id]
	if !ok {
		return matchmakingdb.ErrNoRowsAffected
	}
	allowed := false
	for _, s := range from {
		if p.Status == s {
			allowed = true
		}
	}
	if !allowed {
		return matchmakingdb.ErrNoRowsAffected
	}
	p.Status = update.Status
	p.UpdatedAt = update.UpdatedAt
	if update.WinnerID != nil {
		p.WinnerID = update.WinnerID
	}
	if update.CancelReason != nil {
		p.CancelReason = update.CancelReason
	}
	if update.CompletedAt != nil {
		p.CompletedAt = update.CompletedAt
	}
	return nil
}

func (f *FakeRepo) FindActivePairingBetween(ctx context.Context, db bun.IDB, a, b string) (*matchmakingdb.Pairing, error) {
	f.record("FindActivePairingBetween")
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.activeBetweenLocked(a, b)
	if p == nil {
		return nil, matchmakingdb.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *FakeRepo) ListActivePairings(ctx context.Context, db bun.IDB) ([]matchmakingdb.Pairing, error) {
	f.record("ListActivePairings")
	if f.ListActivePairingsFunc != nil {
		return f.ListActivePairingsFunc(ctx, db)
	}
	return f.filterPairings(func(p *matchmakingdb.Pairing) bool { return p.Status.IsActive() }), nil
}

func (f *FakeRepo) ListScheduledPairingsFor(ctx context.Context, db bun.IDB, competitorID string, from, to time.Time) ([]matchmakingdb.Pairing, error) {
	f.record("ListScheduledPairingsFor")
	return f.filterPairings(func(p *matchmakingdb.Pairing) bool {
		return p.Status == matchmakingdomain.StatusScheduled && p.Involves(competitorID) &&
			!p.ScheduledAt.Before(from) && !p.ScheduledAt.After(to)
	}), nil
}

func (f *FakeRepo) ListStaleActivePairings(ctx context.Context, db bun.IDB, matchType matchmakingdomain.MatchType, createdBefore time.Time) ([]matchmakingdb.Pairing, error) {
	f.record("ListStaleActivePairings")
	return f.filterPairings(func(p *matchmakingdb.Pairing) bool {
		return p.Status.IsActive() && p.MatchType == matchType && p.CreatedAt.Before(createdBefore)
	}), nil
}

func (f *FakeRepo) filterPairings(keep func(p *matchmakingdb.Pairing) bool) []matchmakingdb.Pairing {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []matchmakingdb.Pairing
	for _, p := range f.Pairings {
		if keep(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// ActiveCount counts active pairings between a and b.
func (f *FakeRepo) ActiveCount(a, b string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	key := matchmakingdomain.PairKey(a, b)
	for _, p := range f.Pairings {
		if p.Status.IsActive() && matchmakingdomain.PairKey(p.CompetitorA, p.CompetitorB) == key {
			n++
		}
	}
	return n
}

// --- Submissions ---

func (f *FakeRepo) UpsertSubmission(ctx context.Context, db bun.IDB, s *matchmakingdb.ResultSubmission) error {
	f.record("UpsertSubmission")
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.Pairings[s.PairingID]; !ok {
		return matchmakingdb.ErrForeignKey
	}
	for i := range f.Submissions {
		if f.Submissions[i].PairingID == s.PairingID && f.Submissions[i].CompetitorID == s.CompetitorID {
			s.ID = f.Submissions[i].ID
			f.Submissions[i] = *s
			return nil
		}
	}
	s.ID = int64(len(f.Submissions) + 1)
	f.Submissions = append(f.Submissions, *s)
	return nil
}

func (f *FakeRepo) ListSubmissionsForPairing(ctx context.Context, db bun.IDB, pairingID uuid.UUID) ([]matchmakingdb.ResultSubmission, error) {
	f.record("ListSubmissionsForPairing")
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []matchmakingdb.ResultSubmission
	for _, s := range f.Submissions {
		if s.PairingID == pairingID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *FakeRepo) UpdateSubmissionResult(ctx context.Context, db bun.IDB, s *matchmakingdb.ResultSubmission) error {
	f.record("UpdateSubmissionResult")
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Submissions {
		if f.Submissions[i].PairingID == s.PairingID && f.Submissions[i].CompetitorID == s.CompetitorID {
			f.Submissions[i].Outcome = s.Outcome
			f.Submissions[i].Method = s.Method
			f.Submissions[i].PointsDelta = s.PointsDelta
			return nil
		}
	}
	return matchmakingdb.ErrNoRowsAffected
}

func (f *FakeRepo) ListRecentOpponents(ctx context.Context, db bun.IDB, competitorID string, limit int) ([]string, error) {
	f.record("ListRecentOpponents")
	if f.ListRecentOpponentsFunc != nil {
		return f.ListRecentOpponentsFunc(ctx, db, competitorID, limit)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var mine []matchmakingdb.ResultSubmission
	for _, s := range f.Submissions {
		if s.CompetitorID == competitorID && f.completedLocked(s) {
			mine = append(mine, s)
		}
	}
	sort.SliceStable(mine, func(i, j int) bool { return mine[i].SubmittedAt.After(mine[j].SubmittedAt) })
	var out []string
	for i, s := range mine {
		if i >= limit {
			break
		}
		out = append(out, s.OpponentID)
	}
	return out, nil
}

func (f *FakeRepo) HasEncounter(ctx context.Context, db bun.IDB, a, b string) (bool, error) {
	f.record("HasEncounter")
	if f.HasEncounterFunc != nil {
		return f.HasEncounterFunc(ctx, db, a, b)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.Submissions {
		if !f.completedLocked(s) {
			continue
		}
		if (s.CompetitorID == a && s.OpponentID == b) || (s.CompetitorID == b && s.OpponentID == a) {
			return true, nil
		}
	}
	return false, nil
}

// --- Disputes ---

func (f *FakeRepo) CreateDispute(ctx context.Context, db bun.IDB, d *matchmakingdb.Dispute) error {
	f.record("CreateDispute")
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *d
	f.Disputes[d.ID] = &cp
	return nil
}

func (f *FakeRepo) GetOpenDispute(ctx context.Context, db bun.IDB, pairingID uuid.UUID) (*matchmakingdb.Dispute, error) {
	f.record("GetOpenDispute")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.Disputes {
		if d.PairingID == pairingID && d.Status == matchmakingdomain.DisputeOpen {
			cp := *d
			return &cp, nil
		}
	}
	return nil, matchmakingdb.ErrNotFound
}

func (f *FakeRepo) ListOpenDisputes(ctx context.Context, db bun.IDB) ([]matchmakingdb.Dispute, error) {
	f.record("ListOpenDisputes")
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []matchmakingdb.Dispute
	for _, d := range f.Disputes {
		if d.Status == matchmakingdomain.DisputeOpen {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *FakeRepo) ResolveDispute(ctx context.Context, db bun.IDB, id uuid.UUID, resolvedBy, resolution string, at time.Time) error {
	f.record("ResolveDispute")
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.Disputes[id]
	if !ok || d.Status != matchmakingdomain.DisputeOpen {
		return matchmakingdb.ErrNoRowsAffected
	}
	d.Status = matchmakingdomain.DisputeResolved
	d.ResolvedBy = &resolvedBy
	d.Resolution = &resolution
	d.ResolvedAt = &at
	return nil
}

// --- Rematch ---

func (f *FakeRepo) CreateRematchRequest(ctx context.Context, db bun.IDB, r *matchmakingdb.RematchRequest) error {
	f.record("CreateRematchRequest")
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *r
	f.Rematches[r.ID] = &cp
	return nil
}

func (f *FakeRepo) GetRematchRequest(ctx context.Context, db bun.IDB, id uuid.UUID) (*matchmakingdb.RematchRequest, error) {
	f.record("GetRematchRequest")
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.Rematches[id]
	if !ok {
		return nil, matchmakingdb.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *FakeRepo) FindPendingRematch(ctx context.Context, db bun.IDB, a, b string) (*matchmakingdb.RematchRequest, error) {
	f.record("FindPendingRematch")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.Rematches {
		if r.Status == matchmakingdomain.RequestPending && matchmakingdomain.PairKey(r.CallerID, r.TargetID) == matchmakingdomain.PairKey(a, b) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, matchmakingdb.ErrNotFound
}

func (f *FakeRepo) UpdateRematchStatus(ctx context.Context, db bun.IDB, id uuid.UUID, from, to matchmakingdomain.RequestStatus, pairingID *uuid.UUID) error {
	f.record("UpdateRematchStatus")
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.Rematches[id]
	if !ok || r.Status != from {
		return matchmakingdb.ErrNoRowsAffected
	}
	r.Status = to
	if pairingID != nil {
		pid := *pairingID
		r.PairingID = &pid
	}
	return nil
}

// --- Sparring ---

func (f *FakeRepo) CreateSparringInvitation(ctx context.Context, db bun.IDB, inv *matchmakingdb.SparringInvitation) error {
	f.record("CreateSparringInvitation")
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *inv
	f.Invitations[inv.ID] = &cp
	return nil
}

func (f *FakeRepo) GetSparringInvitation(ctx context.Context, db bun.IDB, id uuid.UUID) (*matchmakingdb.SparringInvitation, error) {
	f.record("GetSparringInvitation")
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.Invitations[id]
	if !ok {
		return nil, matchmakingdb.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (f *FakeRepo) FindPendingInvitation(ctx context.Context, db bun.IDB, a, b string) (*matchmakingdb.SparringInvitation, error) {
	f.record("FindPendingInvitation")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.Invitations {
		if inv.Status == matchmakingdomain.RequestPending && matchmakingdomain.PairKey(inv.InviterID, inv.InviteeID) == matchmakingdomain.PairKey(a, b) {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, matchmakingdb.ErrNotFound
}

func (f *FakeRepo) CountActiveSparring(ctx context.Context, db bun.IDB, competitorID string, now time.Time) (int, error) {
	f.record("CountActiveSparring")
	if f.CountActiveSparringFunc != nil {
		return f.CountActiveSparringFunc(ctx, db, competitorID, now)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, inv := range f.Invitations {
		if inv.Status == matchmakingdomain.RequestAccepted && (inv.InviterID == competitorID || inv.InviteeID == competitorID) &&
			inv.ExpiresAt != nil && inv.ExpiresAt.After(now) {
			n++
		}
	}
	return n, nil
}

func (f *FakeRepo) UpdateSparringInvitation(ctx context.Context, db bun.IDB, inv *matchmakingdb.SparringInvitation, from matchmakingdomain.RequestStatus) error {
	f.record("UpdateSparringInvitation")
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.Invitations[inv.ID]
	if !ok || cur.Status != from {
		return matchmakingdb.ErrNoRowsAffected
	}
	cp := *inv
	f.Invitations[inv.ID] = &cp
	return nil
}

// --- Accessors for assertions ---

func (f *FakeRepo) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

var _ matchmakingdb.Repository = (*FakeRepo)(nil)

// ------------------------
// Fake transactions
// ------------------------

type heldLocksKey struct{}

type heldLocks struct {
	ids map[string]bool
	mus []*sync.Mutex
}

// FakeTx stands in for *bun.DB. Row locks taken during fn are released when it
// returns, the way a commit or rollback releases them.
type FakeTx struct{}

func (FakeTx) RunInTx(ctx context.Context, _ *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error {
	held := &heldLocks{ids: map[string]bool{}}
	defer func() {
		for i := len(held.mus) - 1; i >= 0; i-- {
			held.mus[i].Unlock()
		}
	}()
	return fn(context.WithValue(ctx, heldLocksKey{}, held), bun.Tx{})
}

// ------------------------
// Fake collaborators
// ------------------------

type FakeNotifier struct {
	mu   sync.Mutex
	Sent []Notification
	Err  error
}

func (f *FakeNotifier) Notify(ctx context.Context, n Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.Sent = append(f.Sent, n)
	return nil
}

// For returns the notifications sent to recipient.
func (f *FakeNotifier) For(recipient string) []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Notification
	for _, n := range f.Sent {
		if n.Recipient == recipient {
			out = append(out, n)
		}
	}
	return out
}

type advanceCall struct {
	BracketNodeID string
	PairingID     uuid.UUID
	WinnerID      string
}

type FakeBracket struct {
	Calls []advanceCall
	Err   error
}

func (f *FakeBracket) AdvanceWinner(ctx context.Context, bracketNodeID string, pairingID uuid.UUID, winnerID string) error {
	f.Calls = append(f.Calls, advanceCall{bracketNodeID, pairingID, winnerID})
	return f.Err
}

type scheduledJob struct {
	Kind string
	ID   uuid.UUID
	At   time.Time
}

type FakeJobs struct {
	mu   sync.Mutex
	Jobs []scheduledJob
	Err  error
}

func (f *FakeJobs) add(kind string, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Jobs = append(f.Jobs, scheduledJob{kind, id, at})
	return f.Err
}

func (f *FakeJobs) SchedulePairingExpiry(ctx context.Context, id uuid.UUID, at time.Time) error {
	return f.add("pairing", id, at)
}

func (f *FakeJobs) ScheduleRematchExpiry(ctx context.Context, id uuid.UUID, at time.Time) error {
	return f.add("rematch", id, at)
}

func (f *FakeJobs) ScheduleSparringExpiry(ctx context.Context, id uuid.UUID, at time.Time) error {
	return f.add("sparring", id, at)
}

// FakeMetrics counts operation outcomes by operation name.
type FakeMetrics struct {
	NoopMetrics
	mu        sync.Mutex
	Successes map[string]int
	Failures  map[string]int
}

func (f *FakeMetrics) RecordOperationSuccess(ctx context.Context, operation, service string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Successes == nil {
		f.Successes = map[string]int{}
	}
	f.Successes[operation]++
}

func (f *FakeMetrics) RecordOperationFailure(ctx context.Context, operation, service string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Failures == nil {
		f.Failures = map[string]int{}
	}
	f.Failures[operation]++
}

var errBoom = errors.New("boom")
