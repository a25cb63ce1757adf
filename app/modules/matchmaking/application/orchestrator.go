package matchmakingservice

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	matchmakingdomain "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/domain"
	matchmakingdb "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/infrastructure/repositories"
	"github.com/Black-And-White-Club/bout-league/pkg/observability/attr"
	"github.com/Black-And-White-Club/bout-league/pkg/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type sweepResult = results.OperationResult[*SweepResult, error]

// RunMatchmakingSweep pairs every eligible competitor with the fairest
// available opponent in their weight class and tier. Each pairing commits on
// its own, so a cancelled or partially failed sweep leaves consistent state.
func (s *MatchmakingService) RunMatchmakingSweep(ctx context.Context) (sweepResult, error) {
	return withTelemetry(s, ctx, "RunMatchmakingSweep", "league", func(ctx context.Context) (sweepResult, error) {
		out, err := s.sweep(ctx)
		if err != nil {
			return sweepResult{}, err
		}
		return success(out), nil
	})
}

func (s *MatchmakingService) sweep(ctx context.Context) (*SweepResult, error) {
	start := time.Now()
	out := &SweepResult{}

	candidates, err := s.gatherCandidates(ctx, out)
	if err != nil {
		return nil, err
	}

	var proposals []matchmakingdomain.ProposedMatch
	for _, group := range matchmakingdomain.GroupCandidates(candidates.pool) {
		matches, unmatched := matchmakingdomain.SelectMatches(group, s.cfg.Policy, candidates.blocked)
		proposals = append(proposals, matches...)
		out.Unmatched = append(out.Unmatched, unmatched...)
	}

	for i, m := range proposals {
		if ctx.Err() != nil {
			out.Interrupted = true
			for _, rest := range proposals[i:] {
				out.Unmatched = append(out.Unmatched, rest.A.ID, rest.B.ID)
			}
			s.logger.WarnContext(ctx, "Matchmaking sweep interrupted",
				attr.ExtractCorrelationID(ctx),
				attr.Int("remaining", len(proposals)-i),
				attr.Error(ctx.Err()),
			)
			break
		}

		p, err := s.materialize(ctx, m)
		if err != nil || p == nil {
			out.Skipped++
			out.Unmatched = append(out.Unmatched, m.A.ID, m.B.ID)
			if err != nil {
				s.logger.WarnContext(ctx, "Skipping proposed pairing",
					attr.ExtractCorrelationID(ctx),
					attr.CompetitorID("competitor_a", m.A.ID),
					attr.CompetitorID("competitor_b", m.B.ID),
					attr.Error(err),
				)
			}
			continue
		}
		out.Created = append(out.Created, *p)
		s.notify(ctx, pairingNotes(p, CategoryPairingCreated, "Mandatory bout assigned",
			fmt.Sprintf("You have a league bout scheduled for %s.", p.ScheduledAt.Format(time.RFC1123)))...)
	}

	sort.Strings(out.Unmatched)
	s.metrics.RecordPairingsCreated(ctx, string(matchmakingdomain.MatchTypeAutoMandatory), len(out.Created))
	s.metrics.RecordSweep(ctx, len(candidates.pool), len(out.Created), len(out.Unmatched))
	s.logger.InfoContext(ctx, "Matchmaking sweep finished",
		attr.ExtractCorrelationID(ctx),
		attr.Int("candidates", len(candidates.pool)),
		attr.Int("created", len(out.Created)),
		attr.Int("unmatched", len(out.Unmatched)),
		attr.Int("excluded", len(out.Excluded)),
		attr.Int("skipped", out.Skipped),
		attr.Duration("duration", time.Since(start)),
	)
	return out, nil
}

type sweepPool struct {
	pool    []matchmakingdomain.Candidate
	blocked func(a, b string) bool
}

// gatherCandidates reads the pool and everything the selection needs. Reads that
// only refine the selection degrade to empty on failure; the active-pairing
// read is required for correctness and fails the sweep.
func (s *MatchmakingService) gatherCandidates(ctx context.Context, out *SweepResult) (*sweepPool, error) {
	profiles, err := s.repo.ListActiveCompetitors(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitors: %w", err)
	}

	active, err := s.repo.ListActivePairings(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list active pairings: %w", err)
	}
	activePairs := make(map[string]struct{}, len(active))
	alreadyMatched := make(map[string]struct{})
	for _, p := range active {
		activePairs[matchmakingdomain.PairKey(p.CompetitorA, p.CompetitorB)] = struct{}{}
		if p.MatchType == matchmakingdomain.MatchTypeAutoMandatory {
			alreadyMatched[p.CompetitorA] = struct{}{}
			alreadyMatched[p.CompetitorB] = struct{}{}
		}
	}

	demoted := make(map[string]struct{})
	if ids, err := s.repo.ListDemotedSince(ctx, nil, s.now().Add(-s.cfg.DemotionWindow)); err != nil {
		s.logger.WarnContext(ctx, "Could not load recent demotions, treating none as demoted",
			attr.ExtractCorrelationID(ctx),
			attr.Error(err),
		)
	} else {
		for _, id := range ids {
			demoted[id] = struct{}{}
		}
	}

	ranksByClass := make(map[string]map[string]int)
	failedClasses := make(map[string]struct{})
	pool := make([]matchmakingdomain.Candidate, 0, len(profiles))
	for i := range profiles {
		p := &profiles[i]
		if !s.filter(p) {
			continue
		}
		if _, ok := alreadyMatched[p.ID]; ok {
			continue
		}
		if _, failed := failedClasses[p.WeightClass]; failed {
			out.Excluded = append(out.Excluded, p.ID)
			continue
		}

		ranks, ok := ranksByClass[p.WeightClass]
		if !ok {
			ranks, err = s.repo.GetRanks(ctx, nil, p.WeightClass)
			if err != nil {
				s.logger.WarnContext(ctx, "Could not load ranks, skipping weight class",
					attr.ExtractCorrelationID(ctx),
					attr.String("weight_class", p.WeightClass),
					attr.Error(err),
				)
				failedClasses[p.WeightClass] = struct{}{}
				out.Excluded = append(out.Excluded, p.ID)
				continue
			}
			ranksByClass[p.WeightClass] = ranks
		}
		rank, ranked := ranks[p.ID]
		if !ranked {
			out.Excluded = append(out.Excluded, p.ID)
			continue
		}

		recent, err := s.repo.ListRecentOpponents(ctx, nil, p.ID, s.cfg.RecentOpponentWindow)
		if err != nil {
			s.logger.WarnContext(ctx, "Could not load recent opponents",
				attr.ExtractCorrelationID(ctx),
				attr.CompetitorID("competitor_id", p.ID),
				attr.Error(err),
			)
			recent = nil
		}

		_, wasDemoted := demoted[p.ID]
		pool = append(pool, matchmakingdomain.Candidate{
			Snapshot:        snapshotOf(p, rank),
			RecentOpponents: recent,
			DemotedRecently: wasDemoted,
		})
	}

	return &sweepPool{
		pool: pool,
		blocked: func(a, b string) bool {
			_, ok := activePairs[matchmakingdomain.PairKey(a, b)]
			return ok
		},
	}, nil
}

// materialize re-reads both competitors and writes the pairing through the
// privileged create-if-absent path. A nil pairing with a nil error means the
// proposal went stale or the pair is already active.
func (s *MatchmakingService) materialize(ctx context.Context, m matchmakingdomain.ProposedMatch) (*matchmakingdb.Pairing, error) {
	result, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (pairingResult, error) {
		a, b, err := s.loadPair(ctx, db, m.A.ID, m.B.ID)
		if err != nil {
			return pairingResult{}, err
		}
		if a.WeightClass != m.A.WeightClass || b.WeightClass != m.B.WeightClass ||
			a.Tier != m.A.Tier || b.Tier != m.B.Tier || !s.filter(a) || !s.filter(b) {
			s.logger.InfoContext(ctx, "Proposed pairing went stale before write",
				attr.ExtractCorrelationID(ctx),
				attr.CompetitorID("competitor_a", a.ID),
				attr.CompetitorID("competitor_b", b.ID),
			)
			return success[*matchmakingdb.Pairing](nil), nil
		}

		now := s.now()
		p := &matchmakingdb.Pairing{
			ID:                 uuid.New(),
			CompetitorA:        a.ID,
			CompetitorB:        b.ID,
			WeightClass:        a.WeightClass,
			Status:             matchmakingdomain.StatusScheduled,
			MatchType:          matchmakingdomain.MatchTypeAutoMandatory,
			CompatibilityScore: m.Verdict.Score,
			ScheduledAt:        s.systemScheduleTime(),
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		created, err := s.repo.CreatePairingIfAbsent(ctx, db, p)
		if err != nil {
			if errors.Is(err, matchmakingdb.ErrActivePairingExists) {
				return success[*matchmakingdb.Pairing](nil), nil
			}
			return pairingResult{}, err
		}
		if !created {
			return success[*matchmakingdb.Pairing](nil), nil
		}
		return success(p), nil
	})
	if err != nil {
		return nil, err
	}
	return *result.Success, nil
}
