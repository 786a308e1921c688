package account

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kindred/internal/audit"
	"kindred/internal/domain"
	"kindred/internal/platform/metrics"
	"kindred/internal/store"
	"kindred/internal/store/memory"
	dErrors "kindred/pkg/domainerrors"
)

var testNow = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st := memory.New()
	m := metrics.New(prometheus.NewRegistry())
	auditLog := audit.NewLogger(audit.NewMemoryStore(), nil, m, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewService(st, auditLog), st
}

func seedAccount(t *testing.T, st *store.Store, id string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.Users.Put(ctx, domain.User{ID: id, DisplayName: "Ana", Role: domain.RoleUser, CreatedAt: testNow}))
	require.NoError(t, st.Profiles.Put(ctx, domain.Profile{UserID: id, City: "Lisbon", BirthYear: 1996}))
	require.NoError(t, st.Privacy.Put(ctx, domain.DefaultPrivacySettings(id)))
	require.NoError(t, st.Discovery.Put(ctx, domain.DefaultDiscoverySettings(id)))
	_, err := st.Likes.Put(ctx, domain.Like{FromID: id, ToID: "u9", CreatedAt: testNow})
	require.NoError(t, err)
	a, b := domain.OrderPair(id, "u9")
	_, err = st.Matches.Upsert(ctx, domain.Match{
		Key: domain.MatchKey(id, "u9"), UserA: a, UserB: b,
		Status: domain.MatchActive, CreatedAt: testNow,
	})
	require.NoError(t, err)
}

func TestExportCollectsEverything(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	seedAccount(t, st, "u1")

	e, err := svc.ExportData(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, e.User)
	assert.Equal(t, "Ana", e.User.DisplayName)
	require.NotNil(t, e.Profile)
	assert.Equal(t, "Lisbon", e.Profile.City)
	assert.NotNil(t, e.Privacy)
	assert.NotNil(t, e.Discovery)
	assert.Len(t, e.Likes, 1)
	assert.Len(t, e.Matches, 1)
}

func TestExportUnknownUserIsEmpty(t *testing.T) {
	svc, _ := newTestService(t)
	e, err := svc.ExportData(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, e.User)
	assert.Empty(t, e.Likes)
	assert.NotNil(t, e.Likes, "arrays serialize as [], not null")
}

func TestDeleteRequiresConfirm(t *testing.T) {
	svc, st := newTestService(t)
	seedAccount(t, st, "u1")

	err := svc.Delete(context.Background(), "u1", false)
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))

	u, getErr := st.Users.Get(context.Background(), "u1")
	require.NoError(t, getErr)
	assert.False(t, u.Deleted)
}

func TestDeleteAnonymizesAndExportGoesEmpty(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	seedAccount(t, st, "u1")

	before, err := svc.ExportData(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, before.User)

	require.NoError(t, svc.Delete(ctx, "u1", true))

	u, err := st.Users.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, u.Deleted)
	assert.Equal(t, "Deleted user", u.DisplayName)

	_, err = st.Profiles.Get(ctx, "u1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	likes, err := st.Likes.ListFrom(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, likes)

	// Matches survive so the peer keeps their history.
	matches, err := st.Matches.ListForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	after, err := svc.ExportData(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, after.User)
	assert.Empty(t, after.Matches)

	// Deleting again is a no-op, not an error.
	assert.NoError(t, svc.Delete(ctx, "u1", true))
}

func TestWriteCSV(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	seedAccount(t, st, "u1")

	e, err := svc.ExportData(ctx, "u1")
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, WriteCSV(&sb, e))
	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")

	assert.True(t, strings.HasPrefix(lines[0], "type,"), "header row leads with the discriminator column")
	assert.True(t, strings.HasPrefix(lines[1], "user,u1,"))
	joined := sb.String()
	for _, want := range []string{"profile,u1", "privacy,u1", "discovery,u1", "like,u1,u9", "match,"} {
		assert.Contains(t, joined, want)
	}
}

func TestWriteCSVEmptyExportKeepsHeader(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, WriteCSV(&sb, Export{}))
	assert.Equal(t, "type,userId,peer,detail,createdAt", strings.TrimSpace(sb.String()))
}
