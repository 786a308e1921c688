package guard

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kindred/internal/domain"
	"kindred/internal/platform/metrics"
	"kindred/internal/store"
	"kindred/internal/store/memory"
	dErrors "kindred/pkg/domainerrors"
	"kindred/pkg/requestcontext"
)

type countingBlocks struct {
	store.Blocks
	calls int
}

func (c *countingBlocks) ExistsBetween(ctx context.Context, a, b string) (bool, error) {
	c.calls++
	return c.Blocks.ExistsBetween(ctx, a, b)
}

type countingPrivacy struct {
	store.Privacy
	calls int
}

func (c *countingPrivacy) Get(ctx context.Context, userID string) (domain.PrivacySettings, error) {
	c.calls++
	return c.Privacy.Get(ctx, userID)
}

func newChain(t *testing.T, cfg Config) (*Chain, *store.Store) {
	t.Helper()
	st := memory.New()
	m := metrics.New(prometheus.NewRegistry())
	return NewChain(st.Privacy, st.Blocks, st.Matches, cfg, m), st
}

func TestSelfTargetDenied(t *testing.T) {
	chain, _ := newChain(t, Config{})
	for _, kind := range []Kind{KindLike, KindReport, KindBlock, KindChatSend} {
		err := chain.Evaluate(context.Background(), "u1", "u1", kind)
		assert.True(t, dErrors.Is(err, dErrors.CodeSelfTarget), "kind %s", kind)
	}
}

func TestIncognitoActorDeniedOutbound(t *testing.T) {
	chain, st := newChain(t, Config{})
	ctx := context.Background()
	require.NoError(t, st.Privacy.Put(ctx, domain.PrivacySettings{
		UserID: "u1", Incognito: true, ProfileVisible: true,
	}))

	err := chain.Evaluate(ctx, "u1", "u2", KindLike)
	assert.True(t, dErrors.Is(err, dErrors.CodeIncognito))

	err = chain.Evaluate(ctx, "u1", "u2", KindChatSend)
	assert.True(t, dErrors.Is(err, dErrors.CodeIncognito))

	// Reporting is not discovery-visible; incognito does not gate it.
	assert.NoError(t, chain.Evaluate(ctx, "u1", "u2", KindReport))
}

func TestIncognitoMatchedPeerExemption(t *testing.T) {
	ctx := context.Background()

	t.Run("strict policy keeps the denial", func(t *testing.T) {
		chain, st := newChain(t, Config{AllowMatchedPeers: false})
		require.NoError(t, st.Privacy.Put(ctx, domain.PrivacySettings{UserID: "u1", Incognito: true, ProfileVisible: true}))
		_, err := st.Matches.Upsert(ctx, domain.Match{
			Key: domain.MatchKey("u1", "u2"), UserA: "u1", UserB: "u2", Status: domain.MatchActive,
		})
		require.NoError(t, err)
		err = chain.Evaluate(ctx, "u1", "u2", KindChatSend)
		assert.True(t, dErrors.Is(err, dErrors.CodeIncognito))
	})

	t.Run("configured exemption lifts it for active matches only", func(t *testing.T) {
		chain, st := newChain(t, Config{AllowMatchedPeers: true})
		require.NoError(t, st.Privacy.Put(ctx, domain.PrivacySettings{UserID: "u1", Incognito: true, ProfileVisible: true}))
		require.NoError(t, st.Privacy.Put(ctx, domain.PrivacySettings{UserID: "u2", ProfileVisible: true}))
		_, err := st.Matches.Upsert(ctx, domain.Match{
			Key: domain.MatchKey("u1", "u2"), UserA: "u1", UserB: "u2", Status: domain.MatchActive,
		})
		require.NoError(t, err)
		assert.NoError(t, chain.Evaluate(ctx, "u1", "u2", KindChatSend))

		// No match with u3: still denied.
		err = chain.Evaluate(ctx, "u1", "u3", KindChatSend)
		assert.True(t, dErrors.Is(err, dErrors.CodeIncognito))
	})
}

func TestBlockEitherDirectionDeniesEverything(t *testing.T) {
	ctx := context.Background()
	for _, dir := range [][2]string{{"u1", "u2"}, {"u2", "u1"}} {
		chain, st := newChain(t, Config{})
		require.NoError(t, st.Blocks.Put(ctx, domain.Block{BlockerID: dir[0], BlockedID: dir[1], CreatedAt: time.Now()}))
		for _, kind := range []Kind{KindLike, KindChatSend, KindChatRead, KindReport, KindProfileView} {
			err := chain.Evaluate(ctx, "u1", "u2", kind)
			assert.True(t, dErrors.Is(err, dErrors.CodeBlocked), "dir %v kind %s", dir, kind)
		}
	}
}

func TestHiddenTargetDenied(t *testing.T) {
	chain, st := newChain(t, Config{})
	ctx := context.Background()
	require.NoError(t, st.Privacy.Put(ctx, domain.PrivacySettings{UserID: "u2", ProfileVisible: false}))

	for _, kind := range []Kind{KindLike, KindChatSend, KindChatRead, KindProfileView} {
		err := chain.Evaluate(ctx, "u1", "u2", kind)
		assert.True(t, dErrors.Is(err, dErrors.CodePeerHidden), "kind %s", kind)
	}

	// Reports against hidden users still go through.
	assert.NoError(t, chain.Evaluate(ctx, "u1", "u2", KindReport))
}

func TestMapConsentAndEntitlement(t *testing.T) {
	ctx := context.Background()

	t.Run("no consent is 409 regardless of entitlement", func(t *testing.T) {
		chain, _ := newChain(t, Config{})
		err := chain.Evaluate(requestcontext.WithPremium(ctx, true), "u1", "", KindMapNearby)
		assert.True(t, dErrors.Is(err, dErrors.CodeConsentRequired))
	})

	t.Run("consent without entitlement is 402", func(t *testing.T) {
		chain, st := newChain(t, Config{})
		require.NoError(t, st.Privacy.Put(ctx, domain.PrivacySettings{UserID: "u1", ProfileVisible: true, MapConsent: true}))
		err := chain.Evaluate(ctx, "u1", "", KindMapNearby)
		assert.True(t, dErrors.Is(err, dErrors.CodePaymentRequired))
	})

	t.Run("consent plus premium passes", func(t *testing.T) {
		chain, st := newChain(t, Config{})
		require.NoError(t, st.Privacy.Put(ctx, domain.PrivacySettings{UserID: "u1", ProfileVisible: true, MapConsent: true}))
		assert.NoError(t, chain.Evaluate(requestcontext.WithPremium(ctx, true), "u1", "", KindMapNearby))
	})

	t.Run("premium bypass skips the entitlement guard", func(t *testing.T) {
		chain, st := newChain(t, Config{PremiumBypass: true})
		require.NoError(t, st.Privacy.Put(ctx, domain.PrivacySettings{UserID: "u1", ProfileVisible: true, MapConsent: true}))
		assert.NoError(t, chain.Evaluate(ctx, "u1", "", KindMapNearby))
	})
}

func TestMissingPrivacyDefaultsToVisible(t *testing.T) {
	chain, _ := newChain(t, Config{})
	assert.NoError(t, chain.Evaluate(context.Background(), "u1", "u2", KindLike))
}

func TestShortCircuitStopsLookups(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	m := metrics.New(prometheus.NewRegistry())

	t.Run("incognito denial skips the block lookup", func(t *testing.T) {
		require.NoError(t, st.Privacy.Put(ctx, domain.PrivacySettings{UserID: "u1", Incognito: true, ProfileVisible: true}))
		blocks := &countingBlocks{Blocks: st.Blocks}
		chain := NewChain(st.Privacy, blocks, st.Matches, Config{}, m)

		err := chain.Evaluate(ctx, "u1", "u2", KindLike)
		require.True(t, dErrors.Is(err, dErrors.CodeIncognito))
		assert.Zero(t, blocks.calls, "no lookup after a guard already failed")
	})

	t.Run("block denial skips the target privacy lookup", func(t *testing.T) {
		require.NoError(t, st.Blocks.Put(ctx, domain.Block{BlockerID: "u3", BlockedID: "u4", CreatedAt: time.Now()}))
		privacy := &countingPrivacy{Privacy: st.Privacy}
		chain := NewChain(privacy, st.Blocks, st.Matches, Config{}, m)

		err := chain.Evaluate(ctx, "u3", "u4", KindChatRead)
		require.True(t, dErrors.Is(err, dErrors.CodeBlocked))
		assert.Zero(t, privacy.calls, "chat_read consults no actor privacy; target lookup short-circuited")
	})
}

func TestShadowBanIsNotAGuard(t *testing.T) {
	// Shadow-banned users keep interacting normally; suppression happens in
	// the recommendation engine's candidate filter, not here.
	chain, st := newChain(t, Config{})
	ctx := context.Background()
	require.NoError(t, st.Privacy.Put(ctx, domain.PrivacySettings{UserID: "u2", ProfileVisible: true}))
	assert.NoError(t, chain.Evaluate(ctx, "u1", "u2", KindLike))
}
