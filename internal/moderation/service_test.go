package moderation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kindred/internal/audit"
	"kindred/internal/domain"
	"kindred/internal/guard"
	"kindred/internal/platform/metrics"
	"kindred/internal/store"
	"kindred/internal/store/memory"
	dErrors "kindred/pkg/domainerrors"
)

var testNow = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *store.Store, *metrics.Metrics) {
	t.Helper()
	st := memory.New()
	m := metrics.New(prometheus.NewRegistry())
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditLog := audit.NewLogger(audit.NewMemoryStore(), nil, m, log)
	chain := guard.NewChain(st.Privacy, st.Blocks, st.Matches, guard.Config{}, m)
	svc := NewService(chain, st.Users, st.Reports, st.Flags, auditLog, m, log)
	svc.now = func() time.Time { return testNow }
	return svc, st, m
}

func seedTarget(t *testing.T, st *store.Store, id string) {
	t.Helper()
	require.NoError(t, st.Users.Put(context.Background(), domain.User{ID: id, Role: domain.RoleUser, CreatedAt: testNow}))
}

func fileReports(t *testing.T, svc *Service, target string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, svc.Report(context.Background(), fmt.Sprintf("reporter-%d", i), target, "spam", ""))
	}
}

func TestReportRejectsDuplicatePending(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Report(ctx, "u1", "u2", "spam", "unsolicited links"))
	err := svc.Report(ctx, "u1", "u2", "spam", "again")
	assert.True(t, dErrors.Is(err, dErrors.CodeDuplicateReport))

	// A different reporter against the same target is fine.
	assert.NoError(t, svc.Report(ctx, "u3", "u2", "spam", ""))
}

func TestReportSelfAndBlockedDenied(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	err := svc.Report(ctx, "u1", "u1", "spam", "")
	assert.True(t, dErrors.Is(err, dErrors.CodeSelfTarget))

	require.NoError(t, st.Blocks.Put(ctx, domain.Block{BlockerID: "u2", BlockedID: "u1", CreatedAt: testNow}))
	err = svc.Report(ctx, "u1", "u2", "spam", "")
	assert.True(t, dErrors.Is(err, dErrors.CodeBlocked))
}

func TestFiveReportsFlagWithoutShadowBan(t *testing.T) {
	svc, st, m := newTestService(t)
	ctx := context.Background()
	seedTarget(t, st, "target")

	fileReports(t, svc, "target", 5)

	flag, err := st.Flags.Get(ctx, "target")
	require.NoError(t, err)
	assert.Equal(t, 5, flag.ReportCount)
	assert.Equal(t, "report velocity", flag.Reason)

	u, err := st.Users.Get(ctx, "target")
	require.NoError(t, err)
	assert.False(t, u.ShadowBanned, "5 reports flag for review only")
	assert.False(t, u.Blocked, "flagging never touches login standing")
	assert.Equal(t, 0.0, promtest.ToFloat64(m.ShadowBansApplied))
}

func TestTenReportsShadowBan(t *testing.T) {
	svc, st, m := newTestService(t)
	ctx := context.Background()
	seedTarget(t, st, "target")

	fileReports(t, svc, "target", 10)

	u, err := st.Users.Get(ctx, "target")
	require.NoError(t, err)
	assert.True(t, u.ShadowBanned)
	assert.Equal(t, "report velocity: 10 pending reports in 24h", u.ShadowReason)
	require.NotNil(t, u.ShadowAt)
	assert.Equal(t, testNow, *u.ShadowAt)
	assert.Equal(t, 1.0, promtest.ToFloat64(m.ShadowBansApplied))

	// An eleventh report does not re-ban.
	require.NoError(t, svc.Report(ctx, "reporter-10", "target", "spam", ""))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.ShadowBansApplied))
}

func TestFlagUpsertPreservesUnrelatedFields(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	seedTarget(t, st, "target")

	require.NoError(t, st.Flags.Put(ctx, domain.ModerationFlag{
		UserID: "target",
		Extra:  map[string]string{"reviewer": "ops-ana"},
	}))

	fileReports(t, svc, "target", 5)

	flag, err := st.Flags.Get(ctx, "target")
	require.NoError(t, err)
	assert.Equal(t, 5, flag.ReportCount)
	assert.Equal(t, "ops-ana", flag.Extra["reviewer"], "merge must not clobber unrelated fields")
}

func TestReportsOutsideWindowDoNotCount(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	seedTarget(t, st, "target")

	// Four stale reports just past the window plus one fresh: below threshold.
	stale := testNow.Add(-25 * time.Hour)
	for i := 0; i < 4; i++ {
		require.NoError(t, st.Reports.Put(ctx, domain.Report{
			ID: fmt.Sprintf("old-%d", i), ReporterID: fmt.Sprintf("old-reporter-%d", i),
			TargetID: "target", Status: domain.ReportPending, CreatedAt: stale,
		}))
	}
	require.NoError(t, svc.Report(ctx, "fresh", "target", "spam", ""))

	_, err := st.Flags.Get(ctx, "target")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAutoFlagFailureNeverFailsReport(t *testing.T) {
	svc, _, _ := newTestService(t)
	// Target user record does not exist, so the shadow-ban step fails
	// internally; the report itself must still succeed.
	fileReports(t, svc, "ghost", 10)
}

func TestModVerifyAndBlock(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	seedTarget(t, st, "u1")
	mod := NewModService(st.Users, svc.audit)

	require.NoError(t, mod.Verify(ctx, "mod-1", "u1"))
	u, err := st.Users.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, u.Verified)

	require.NoError(t, mod.BlockUser(ctx, "mod-1", "u1", "ToS violation"))
	u, err = st.Users.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, u.Blocked)
	assert.Equal(t, "ToS violation", u.BlockReason)

	err = mod.Verify(ctx, "mod-1", "missing")
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}
