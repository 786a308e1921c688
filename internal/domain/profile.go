package domain

import (
	"time"

	"kindred/pkg/geo"
)

// Profile holds per-user dating attributes. One-to-one with User; its
// lifetime is tied to the user and it is cleared on account deletion.
type Profile struct {
	UserID      string
	Pronouns    string
	Gender      string
	Orientation []string
	Intents     []string
	Bio         string
	BirthYear   int
	City        string
	HasCoords   bool
	Coords      geo.Point
	Geohash     string
	UpdatedAt   time.Time
}

// Age derives the (approximate) age from the birth year.
func (p Profile) Age(now time.Time) int {
	if p.BirthYear == 0 {
		return 0
	}
	return now.UTC().Year() - p.BirthYear
}

// PrivacySettings are the per-user visibility flags. Mutated only by the
// owning user.
type PrivacySettings struct {
	UserID         string
	Incognito      bool
	HideDistance   bool
	ProfileVisible bool
	MapConsent     bool
	MapConsentAt   *time.Time
}

// DefaultPrivacySettings is what a fresh profile gets: visible, nothing
// hidden, no map consent.
func DefaultPrivacySettings(userID string) PrivacySettings {
	return PrivacySettings{UserID: userID, ProfileVisible: true}
}
