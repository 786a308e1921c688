package chat

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kindred/internal/audit"
	"kindred/internal/domain"
	"kindred/internal/guard"
	"kindred/internal/match"
	"kindred/internal/platform/metrics"
	"kindred/internal/platform/redis"
	"kindred/internal/store"
	"kindred/internal/store/memory"
	dErrors "kindred/pkg/domainerrors"
)

var testNow = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *store.Store, *miniredis.Miniredis) {
	t.Helper()
	st := memory.New()
	m := metrics.New(prometheus.NewRegistry())
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditLog := audit.NewLogger(audit.NewMemoryStore(), nil, m, log)
	chain := guard.NewChain(st.Privacy, st.Blocks, st.Matches, guard.Config{}, m)

	mr := miniredis.RunT(t)
	rdb := redis.FromAddr(mr.Addr())
	svc := NewService(chain, st.Messages, rdb, match.NewStats(rdb, log), auditLog)
	svc.now = func() time.Time { return testNow }
	return svc, st, mr
}

func TestSendAndHistory(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Send(ctx, "u1", "u2", "hey!")
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	svc.now = func() time.Time { return testNow.Add(time.Minute) }
	_, err = svc.Send(ctx, "u2", "u1", "hi back")
	require.NoError(t, err)

	h, err := svc.History(ctx, "u1", "u2", 0)
	require.NoError(t, err)
	require.Len(t, h.Messages, 2)
	assert.Equal(t, "hey!", h.Messages[0].Body, "oldest first")
	assert.Equal(t, "hi back", h.Messages[1].Body)
}

func TestSendValidatesBody(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for _, body := range []string{"", "   ", string(make([]byte, maxBodyLen+1))} {
		_, err := svc.Send(ctx, "u1", "u2", body)
		assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
	}
}

func TestSendIsGuarded(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, st.Blocks.Put(ctx, domain.Block{BlockerID: "u2", BlockedID: "u1", CreatedAt: testNow}))
	_, err := svc.Send(ctx, "u1", "u2", "hello")
	assert.True(t, dErrors.Is(err, dErrors.CodeBlocked))

	require.NoError(t, st.Privacy.Put(ctx, domain.PrivacySettings{UserID: "u1", Incognito: true, ProfileVisible: true}))
	_, err = svc.Send(ctx, "u1", "u3", "hello")
	assert.True(t, dErrors.Is(err, dErrors.CodeIncognito))
}

func TestHistoryIsGuardedButNotByIncognito(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	// Reading an existing conversation is not an outbound discovery action.
	require.NoError(t, st.Privacy.Put(ctx, domain.PrivacySettings{UserID: "u1", Incognito: true, ProfileVisible: true}))
	_, err := svc.History(ctx, "u1", "u2", 10)
	assert.NoError(t, err)

	require.NoError(t, st.Privacy.Put(ctx, domain.PrivacySettings{UserID: "u3", ProfileVisible: false}))
	_, err = svc.History(ctx, "u1", "u3", 10)
	assert.True(t, dErrors.Is(err, dErrors.CodePeerHidden))
}

func TestTypingIndicatorExpires(t *testing.T) {
	svc, _, mr := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Typing(ctx, "u2", "u1"))

	h, err := svc.History(ctx, "u1", "u2", 10)
	require.NoError(t, err)
	assert.True(t, h.PeerTyping)

	// Direction matters: u2 typing toward u1 says nothing about the reverse.
	h, err = svc.History(ctx, "u2", "u1", 10)
	require.NoError(t, err)
	assert.False(t, h.PeerTyping)

	mr.FastForward(6 * time.Second)
	h, err = svc.History(ctx, "u1", "u2", 10)
	require.NoError(t, err)
	assert.False(t, h.PeerTyping)
}

func TestMarkRead(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Send(ctx, "u2", "u1", "one")
	require.NoError(t, err)
	svc.now = func() time.Time { return testNow.Add(time.Minute) }
	_, err = svc.Send(ctx, "u2", "u1", "two")
	require.NoError(t, err)

	n, err := svc.MarkRead(ctx, "u1", "u2", testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "only messages sent at or before the cutoff")

	h, err := svc.History(ctx, "u1", "u2", 10)
	require.NoError(t, err)
	assert.NotNil(t, h.Messages[0].ReadAt)
	assert.Nil(t, h.Messages[1].ReadAt)

	n, err = svc.MarkRead(ctx, "u1", "u2", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMessageCounterIncrements(t *testing.T) {
	svc, _, mr := newTestService(t)
	ctx := context.Background()

	_, err := svc.Send(ctx, "u1", "u2", "hello")
	require.NoError(t, err)

	count, err := mr.Get("stats:" + domain.StatsDay(time.Now()) + ":messages")
	require.NoError(t, err)
	assert.Equal(t, "1", count)
}
