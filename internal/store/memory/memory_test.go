package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kindred/internal/domain"
	"kindred/internal/store"
)

func TestUsersRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.Users.Get(ctx, "u1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Users.Put(ctx, domain.User{ID: "u1", DisplayName: "Ana"}))
	u, err := s.Users.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.DisplayName)
}

func TestProfilesListExcept(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, id := range []string{"u1", "u2", "u3", "u4"} {
		require.NoError(t, s.Profiles.Put(ctx, domain.Profile{UserID: id}))
	}

	got, err := s.Profiles.ListExcept(ctx, map[string]struct{}{"u2": {}}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "u1", got[0].UserID)
	assert.Equal(t, "u3", got[1].UserID, "excluded id skipped before the limit applies")
}

func TestBlocksEitherDirection(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Blocks.Put(ctx, domain.Block{BlockerID: "a", BlockedID: "b"}))

	for _, pair := range [][2]string{{"a", "b"}, {"b", "a"}} {
		ok, err := s.Blocks.ExistsBetween(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.True(t, ok, "direction %v", pair)
	}

	require.NoError(t, s.Blocks.Delete(ctx, "a", "b"))
	ok, err := s.Blocks.ExistsBetween(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatchUpsertIsIdempotent(t *testing.T) {
	s := New()
	ctx := context.Background()
	key := domain.MatchKey("b", "a")

	first := domain.Match{Key: key, UserA: "a", UserB: "b", Status: domain.MatchActive,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	later := first
	later.CreatedAt = later.CreatedAt.Add(time.Minute)

	created, err := s.Matches.Upsert(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)
	created, err = s.Matches.Upsert(ctx, later)
	require.NoError(t, err)
	assert.False(t, created, "second upsert reports no insert")

	got, err := s.Matches.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, first.CreatedAt, got.CreatedAt, "second upsert must not overwrite")

	forA, err := s.Matches.ListForUser(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, forA, 1)
}

func TestMatchUpsertConcurrentRacersConverge(t *testing.T) {
	s := New()
	ctx := context.Background()
	key := domain.MatchKey("a", "b")

	var (
		wg       sync.WaitGroup
		inserted atomic.Int32
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.Matches.Upsert(ctx, domain.Match{Key: key, UserA: "a", UserB: "b", Status: domain.MatchActive})
			if err == nil && ok {
				inserted.Add(1)
			}
		}()
	}
	wg.Wait()

	matches, err := s.Matches.ListForUser(ctx, "b")
	require.NoError(t, err)
	assert.Len(t, matches, 1, "exactly one document per unordered pair")
	assert.Equal(t, int32(1), inserted.Load(), "exactly one racer reports the insert")
}

func TestReportsPendingQueries(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.Reports.Put(ctx, domain.Report{ReporterID: "r1", TargetID: "x", Status: domain.ReportPending, CreatedAt: now}))
	require.NoError(t, s.Reports.Put(ctx, domain.Report{ReporterID: "r2", TargetID: "x", Status: domain.ReportPending, CreatedAt: now.Add(-25 * time.Hour)}))
	require.NoError(t, s.Reports.Put(ctx, domain.Report{ReporterID: "r3", TargetID: "x", Status: domain.ReportResolved, CreatedAt: now}))

	ok, err := s.Reports.HasPending(ctx, "r1", "x")
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := s.Reports.CountPendingSince(ctx, "x", now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n, "old and resolved reports excluded from the window")
}

func TestMessagesOrderingAndMarkRead(t *testing.T) {
	s := New()
	ctx := context.Background()
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Messages.Put(ctx, domain.Message{ID: "m2", FromID: "a", ToID: "b", SentAt: t0.Add(time.Minute)}))
	require.NoError(t, s.Messages.Put(ctx, domain.Message{ID: "m1", FromID: "b", ToID: "a", SentAt: t0}))
	require.NoError(t, s.Messages.Put(ctx, domain.Message{ID: "m3", FromID: "a", ToID: "c", SentAt: t0}))

	msgs, err := s.Messages.ListBetween(ctx, "a", "b", 50)
	require.NoError(t, err)
	require.Len(t, msgs, 2, "other conversations excluded")
	assert.Equal(t, "m1", msgs[0].ID, "ordered by SentAt ascending")

	n, err := s.Messages.MarkRead(ctx, "b", "a", t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.Messages.MarkRead(ctx, "b", "a", t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, n, "already-read messages are not re-stamped")
}

func TestLikesIgnoreDuplicateEdge(t *testing.T) {
	s := New()
	ctx := context.Background()
	t0 := time.Now()

	created, err := s.Likes.Put(ctx, domain.Like{FromID: "a", ToID: "b", CreatedAt: t0})
	require.NoError(t, err)
	assert.True(t, created)
	created, err = s.Likes.Put(ctx, domain.Like{FromID: "a", ToID: "b", CreatedAt: t0.Add(time.Hour)})
	require.NoError(t, err)
	assert.False(t, created, "duplicate edge reports no insert")

	likes, err := s.Likes.ListFrom(ctx, "a")
	require.NoError(t, err)
	require.Len(t, likes, 1)
	assert.Equal(t, t0, likes[0].CreatedAt, "first like wins")
}
