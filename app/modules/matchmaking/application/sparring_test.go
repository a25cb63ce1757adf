package matchmakingservice

import (
	"context"
	"errors"
	"testing"
	"time"

	matchmakingdomain "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/domain"
	matchmakingdb "github.com/Black-And-White-Club/bout-league/app/modules/matchmaking/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func TestCheckSparringEligibility(t *testing.T) {
	ctx := context.Background()

	t.Run("free competitor is eligible", func(t *testing.T) {
		env := newTestEnv(t)
		seedPair(env)

		res, err := env.svc.CheckSparringEligibility(ctx, "alice")
		e := successOf(t, res, err)
		assert.True(t, e.Eligible)
		assert.Empty(t, e.Reasons)
	})

	t.Run("scheduled bout within three days blocks", func(t *testing.T) {
		env := newTestEnv(t)
		p := scheduledPairing(env)

		res, err := env.svc.CheckSparringEligibility(ctx, "bruno")
		e := successOf(t, res, err)
		assert.False(t, e.Eligible)
		require.Len(t, e.Upcoming, 1)
		assert.Equal(t, p.ID, e.Upcoming[0].ID)
	})

	t.Run("scheduled bout beyond the window does not block", func(t *testing.T) {
		env := newTestEnv(t)
		p := scheduledPairing(env)
		env.repo.Pairings[p.ID].ScheduledAt = testNow.Add(4 * 24 * time.Hour)

		res, err := env.svc.CheckSparringEligibility(ctx, "bruno")
		assert.True(t, successOf(t, res, err).Eligible)
	})

	t.Run("cap of three active sessions", func(t *testing.T) {
		env := newTestEnv(t)
		seedPair(env)
		env.repo.CountActiveSparringFunc = func(ctx context.Context, db bun.IDB, competitorID string, now time.Time) (int, error) {
			return 3, nil
		}

		res, err := env.svc.CheckSparringEligibility(ctx, "alice")
		e := successOf(t, res, err)
		assert.False(t, e.Eligible)
		assert.Equal(t, 3, e.Active)
	})

	t.Run("unknown competitor", func(t *testing.T) {
		env := newTestEnv(t)
		res, err := env.svc.CheckSparringEligibility(ctx, "ghost")
		assert.ErrorIs(t, failureOf(t, res, err), ErrCompetitorNotFound)
	})
}

func TestInviteSparring(t *testing.T) {
	ctx := context.Background()

	t.Run("creates pending invitation", func(t *testing.T) {
		env := newTestEnv(t)
		seedPair(env)

		res, err := env.svc.InviteSparring(ctx, "alice", "bruno")
		inv := successOf(t, res, err)
		assert.Equal(t, matchmakingdomain.RequestPending, inv.Status)
		assert.Nil(t, inv.ExpiresAt)

		require.Len(t, env.jobs.Jobs, 1)
		assert.Equal(t, scheduledJob{Kind: "sparring", ID: inv.ID, At: testNow.Add(72 * time.Hour)}, env.jobs.Jobs[0])
		notes := env.notifier.For("bruno")
		require.Len(t, notes, 1)
		assert.Equal(t, CategorySparringInvite, notes[0].Category)
	})

	t.Run("inviter with an upcoming bout is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		scheduledPairing(env)
		env.repo.AddCompetitor(competitor("carla", "lightweight", matchmakingdomain.TierPro, 150), 3)

		res, err := env.svc.InviteSparring(ctx, "alice", "carla")
		var rejection *PolicyRejection
		require.True(t, errors.As(failureOf(t, res, err), &rejection))
		assert.Equal(t, CheckUpcomingBout, rejection.Check)
	})

	t.Run("pending invitation between the pair", func(t *testing.T) {
		env := newTestEnv(t)
		seedPair(env)

		_, err := env.svc.InviteSparring(ctx, "alice", "bruno")
		require.NoError(t, err)
		res, err := env.svc.InviteSparring(ctx, "bruno", "alice")
		assert.ErrorIs(t, failureOf(t, res, err), ErrRequestAlreadyPending)
	})
}

func pendingInvitation(t *testing.T, env *testEnv) *matchmakingdb.SparringInvitation {
	t.Helper()
	seedPair(env)
	res, err := env.svc.InviteSparring(context.Background(), "alice", "bruno")
	return successOf(t, res, err)
}

func TestRespondToSparring(t *testing.T) {
	ctx := context.Background()

	t.Run("accept opens the session window", func(t *testing.T) {
		env := newTestEnv(t)
		inv := pendingInvitation(t, env)

		res, err := env.svc.RespondToSparring(ctx, inv.ID, "bruno", true)
		got := successOf(t, res, err)
		assert.Equal(t, matchmakingdomain.RequestAccepted, got.Status)
		require.NotNil(t, got.StartedAt)
		require.NotNil(t, got.ExpiresAt)
		assert.Equal(t, testNow, *got.StartedAt)
		assert.Equal(t, testNow.Add(72*time.Hour), *got.ExpiresAt)
		assert.Len(t, env.jobs.Jobs, 2)

		notes := env.notifier.For("alice")
		require.Len(t, notes, 1)
		assert.Equal(t, "Sparring accepted", notes[0].Title)
	})

	t.Run("invitee at the cap cannot accept", func(t *testing.T) {
		env := newTestEnv(t)
		inv := pendingInvitation(t, env)
		env.repo.CountActiveSparringFunc = func(ctx context.Context, db bun.IDB, competitorID string, now time.Time) (int, error) {
			if competitorID == "bruno" {
				return 3, nil
			}
			return 0, nil
		}

		res, err := env.svc.RespondToSparring(ctx, inv.ID, "bruno", true)
		var rejection *PolicyRejection
		require.True(t, errors.As(failureOf(t, res, err), &rejection))
		assert.Equal(t, CheckSparringCap, rejection.Check)
		assert.Equal(t, matchmakingdomain.RequestPending, env.repo.Invitations[inv.ID].Status)
	})

	t.Run("decline", func(t *testing.T) {
		env := newTestEnv(t)
		inv := pendingInvitation(t, env)

		res, err := env.svc.RespondToSparring(ctx, inv.ID, "bruno", false)
		assert.Equal(t, matchmakingdomain.RequestDeclined, successOf(t, res, err).Status)
	})

	t.Run("inviter cannot respond", func(t *testing.T) {
		env := newTestEnv(t)
		inv := pendingInvitation(t, env)

		res, err := env.svc.RespondToSparring(ctx, inv.ID, "alice", true)
		assert.ErrorIs(t, failureOf(t, res, err), ErrNotRecipient)
	})

	t.Run("late response expires the invitation", func(t *testing.T) {
		env := newTestEnv(t)
		inv := pendingInvitation(t, env)
		env.svc.SetClock(NewAnchorClock(testNow.Add(80 * time.Hour)))

		res, err := env.svc.RespondToSparring(ctx, inv.ID, "bruno", true)
		assert.ErrorIs(t, failureOf(t, res, err), ErrRequestExpired)
		assert.Equal(t, matchmakingdomain.RequestExpired, env.repo.Invitations[inv.ID].Status)
	})

	t.Run("unknown invitation", func(t *testing.T) {
		env := newTestEnv(t)
		res, err := env.svc.RespondToSparring(ctx, uuid.New(), "bruno", true)
		assert.ErrorIs(t, failureOf(t, res, err), ErrInvitationNotFound)
	})
}

func TestCompleteAndExpireSparring(t *testing.T) {
	ctx := context.Background()

	accepted := func(t *testing.T, env *testEnv) *matchmakingdb.SparringInvitation {
		inv := pendingInvitation(t, env)
		res, err := env.svc.RespondToSparring(ctx, inv.ID, "bruno", true)
		return successOf(t, res, err)
	}

	t.Run("either participant completes", func(t *testing.T) {
		env := newTestEnv(t)
		inv := accepted(t, env)

		res, err := env.svc.CompleteSparring(ctx, inv.ID, "alice")
		got := successOf(t, res, err)
		assert.Equal(t, matchmakingdomain.RequestCompleted, got.Status)
		assert.NotNil(t, got.StartedAt)
	})

	t.Run("pending invitation cannot complete", func(t *testing.T) {
		env := newTestEnv(t)
		inv := pendingInvitation(t, env)

		res, err := env.svc.CompleteSparring(ctx, inv.ID, "alice")
		assert.ErrorIs(t, failureOf(t, res, err), ErrInvalidTransition)
	})

	t.Run("outsider cannot complete", func(t *testing.T) {
		env := newTestEnv(t)
		inv := accepted(t, env)

		res, err := env.svc.CompleteSparring(ctx, inv.ID, "carla")
		assert.ErrorIs(t, failureOf(t, res, err), ErrNotParticipant)
	})

	t.Run("accepted session expires after its window", func(t *testing.T) {
		env := newTestEnv(t)
		inv := accepted(t, env)

		res, err := env.svc.ExpireSparringInvitation(ctx, inv.ID)
		assert.False(t, successOf(t, res, err).Expired)

		env.svc.SetClock(NewAnchorClock(testNow.Add(72 * time.Hour)))
		res, err = env.svc.ExpireSparringInvitation(ctx, inv.ID)
		assert.True(t, successOf(t, res, err).Expired)
		assert.Equal(t, matchmakingdomain.RequestExpired, env.repo.Invitations[inv.ID].Status)
	})

	t.Run("completed session is left alone", func(t *testing.T) {
		env := newTestEnv(t)
		inv := accepted(t, env)
		_, err := env.svc.CompleteSparring(ctx, inv.ID, "bruno")
		require.NoError(t, err)

		env.svc.SetClock(NewAnchorClock(testNow.Add(100 * time.Hour)))
		res, err := env.svc.ExpireSparringInvitation(ctx, inv.ID)
		assert.False(t, successOf(t, res, err).Expired)
	})
}
