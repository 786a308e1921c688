package domain

import "time"

// Role separates ordinary users from moderators.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is the identity record. Users are never hard-deleted: account deletion
// anonymizes the record and flips Deleted so exports stay idempotent.
type User struct {
	ID          string
	DisplayName string
	Role        Role
	Verified    bool

	// Moderation state. ShadowBanned suppresses discovery visibility without
	// telling the user; Blocked denies every authenticated call.
	ShadowBanned bool
	ShadowReason string
	ShadowAt     *time.Time
	Blocked      bool
	BlockReason  string

	// Entitlement state read by the payment guard.
	Premium      bool
	PremiumUntil *time.Time

	Deleted   bool
	CreatedAt time.Time
}

// HasPremium reports whether the paid entitlement is active at now.
func (u User) HasPremium(now time.Time) bool {
	if !u.Premium {
		return false
	}
	if u.PremiumUntil == nil {
		return true
	}
	return now.Before(*u.PremiumUntil)
}
