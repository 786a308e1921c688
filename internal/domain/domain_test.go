package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMatchKeyCanonicalOrder(t *testing.T) {
	assert.Equal(t, "a:b", MatchKey("a", "b"))
	assert.Equal(t, "a:b", MatchKey("b", "a"), "key is order-independent")
	assert.Equal(t, "1001:999", MatchKey("999", "1001"), "lexicographic, not numeric")
}

func TestDiscoverySettingsMerge(t *testing.T) {
	stored := DefaultDiscoverySettings("u1")

	t.Run("no overrides means no change", func(t *testing.T) {
		merged, changed := stored.Merge(DiscoveryOverrides{})
		assert.False(t, changed)
		assert.Equal(t, stored, merged)
	})

	t.Run("defined keys replace stored values", func(t *testing.T) {
		minAge := 25
		merged, changed := stored.Merge(DiscoveryOverrides{MinAge: &minAge})
		assert.True(t, changed)
		assert.Equal(t, 25, merged.MinAge)
		assert.Equal(t, stored.MaxAge, merged.MaxAge, "shallow merge leaves other keys")
	})

	t.Run("override equal to stored is not a change", func(t *testing.T) {
		minAge := stored.MinAge
		_, changed := stored.Merge(DiscoveryOverrides{MinAge: &minAge})
		assert.False(t, changed)
	})
}

func TestDiscoverySettingsValid(t *testing.T) {
	s := DiscoverySettings{MinAge: 30, MaxAge: 20}
	assert.False(t, s.Valid())
	assert.True(t, DefaultDiscoverySettings("u1").Valid())
}

func TestHasPremium(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.False(t, User{}.HasPremium(now))
	assert.True(t, User{Premium: true}.HasPremium(now), "no expiry means active")
	assert.True(t, User{Premium: true, PremiumUntil: &future}.HasPremium(now))
	assert.False(t, User{Premium: true, PremiumUntil: &past}.HasPremium(now))
}

func TestStatsDayIsUTC(t *testing.T) {
	// 23:30 in UTC-5 is already the next day in UTC.
	loc := time.FixedZone("UTC-5", -5*3600)
	local := time.Date(2026, 8, 27, 23, 30, 0, 0, loc)
	assert.Equal(t, "2026-08-28", StatsDay(local))
}
