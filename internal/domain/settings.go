package domain

// DiscoverySettings are the requester-side filter preferences. The minAge <=
// maxAge invariant is enforced at every write boundary; out-of-range values
// are rejected, never clamped silently.
type DiscoverySettings struct {
	UserID        string
	MinAge        int
	MaxAge        int
	MaxDistanceKm int
	GenderInterest []string
	Intents       []string
}

// DefaultDiscoverySettings created alongside the profile.
func DefaultDiscoverySettings(userID string) DiscoverySettings {
	return DiscoverySettings{
		UserID:        userID,
		MinAge:        18,
		MaxAge:        99,
		MaxDistanceKm: 50,
	}
}

// DiscoveryOverrides are request-time overrides; nil fields leave the stored
// value untouched (shallow merge).
type DiscoveryOverrides struct {
	MinAge         *int
	MaxAge         *int
	MaxDistanceKm  *int
	GenderInterest []string
	Intents        []string
}

// Merge applies defined override keys over s and reports whether anything
// changed. Only changed results are persisted back.
func (s DiscoverySettings) Merge(o DiscoveryOverrides) (DiscoverySettings, bool) {
	merged := s
	if o.MinAge != nil {
		merged.MinAge = *o.MinAge
	}
	if o.MaxAge != nil {
		merged.MaxAge = *o.MaxAge
	}
	if o.MaxDistanceKm != nil {
		merged.MaxDistanceKm = *o.MaxDistanceKm
	}
	if o.GenderInterest != nil {
		merged.GenderInterest = o.GenderInterest
	}
	if o.Intents != nil {
		merged.Intents = o.Intents
	}
	return merged, !merged.equal(s)
}

func (s DiscoverySettings) equal(other DiscoverySettings) bool {
	if s.MinAge != other.MinAge || s.MaxAge != other.MaxAge || s.MaxDistanceKm != other.MaxDistanceKm {
		return false
	}
	return equalStrings(s.GenderInterest, other.GenderInterest) && equalStrings(s.Intents, other.Intents)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Valid reports whether the age window holds.
func (s DiscoverySettings) Valid() bool {
	return s.MinAge <= s.MaxAge
}
