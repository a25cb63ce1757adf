package testutils

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/uptrace/bun"

	matchmakingdomain "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/domain"
	matchmakingdb "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/infrastructure/repositories"
)

// TestDataGenerator builds competitor fixtures.
type TestDataGenerator struct {
	faker *gofakeit.Faker
	seed  uint64
}

// NewTestDataGenerator creates a generator. An explicit seed makes fixtures repeatable.
func NewTestDataGenerator(seed ...uint64) *TestDataGenerator {
	s := uint64(time.Now().UnixNano())
	if len(seed) > 0 {
		s = seed[0]
	}
	return &TestDataGenerator{faker: gofakeit.New(s), seed: s}
}

// Seed returns the seed the generator was built with.
func (g *TestDataGenerator) Seed() uint64 { return g.seed }

// CompetitorOption customizes a generated competitor.
type CompetitorOption func(*matchmakingdb.CompetitorProfile)

// WithTier sets the tier and moves points to the tier floor when they fall below it.
func WithTier(t matchmakingdomain.Tier) CompetitorOption {
	return func(c *matchmakingdb.CompetitorProfile) {
		c.Tier = t
		if floor := t.Floor(); c.Points < floor {
			c.Points = floor
		}
	}
}

// WithPoints sets points.
func WithPoints(p int) CompetitorOption {
	return func(c *matchmakingdb.CompetitorProfile) { c.Points = p }
}

// WithWeightClass sets the weight class.
func WithWeightClass(w string) CompetitorOption {
	return func(c *matchmakingdb.CompetitorProfile) { c.WeightClass = w }
}

// WithTimezone sets the timezone.
func WithTimezone(tz string) CompetitorOption {
	return func(c *matchmakingdb.CompetitorProfile) { c.Timezone = tz }
}

// AsAdmin marks the competitor as a league administrator.
func AsAdmin() CompetitorOption {
	return func(c *matchmakingdb.CompetitorProfile) { c.IsAdmin = true }
}

// GenerateCompetitor returns an active amateur lightweight in UTC with a fake name.
func (g *TestDataGenerator) GenerateCompetitor(opts ...CompetitorOption) *matchmakingdb.CompetitorProfile {
	name := g.faker.Name()
	c := &matchmakingdb.CompetitorProfile{
		ID:          strings.ToLower(g.faker.Username()) + "-" + g.faker.DigitN(6),
		DisplayName: name,
		WeightClass: "lightweight",
		Tier:        matchmakingdomain.TierAmateur,
		Points:      g.faker.IntRange(0, 10),
		Timezone:    "UTC",
		Active:      true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// InsertCompetitors stores the profiles and ranks them within their weight
// class in the order given, starting at rank 1.
func InsertCompetitors(ctx context.Context, db bun.IDB, competitors ...*matchmakingdb.CompetitorProfile) error {
	ranks := map[string]int{}
	for _, c := range competitors {
		if _, err := db.NewInsert().Model(c).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert competitor %s: %w", c.ID, err)
		}
		ranks[c.WeightClass]++
		ranking := &matchmakingdb.CompetitorRanking{
			WeightClass:  c.WeightClass,
			CompetitorID: c.ID,
			Rank:         ranks[c.WeightClass],
		}
		if _, err := db.NewInsert().Model(ranking).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert ranking for %s: %w", c.ID, err)
		}
	}
	return nil
}
