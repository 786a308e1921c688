// Package store defines the persistence contracts for every collection. The
// engine treats persistence as an async mapping with per-collection query
// primitives: equality filters, ranges, exclusion sets and limits. Memory and
// postgres implementations live in subpackages; tests run against memory.
package store

import (
	"context"
	"errors"
	"time"

	"kindred/internal/domain"
)

// ErrNotFound is returned for missing documents in any collection.
var ErrNotFound = errors.New("store: not found")

// Users persists identity records.
type Users interface {
	Get(ctx context.Context, id string) (domain.User, error)
	Put(ctx context.Context, u domain.User) error
}

// Profiles persists dating profiles.
type Profiles interface {
	Get(ctx context.Context, userID string) (domain.Profile, error)
	Put(ctx context.Context, p domain.Profile) error
	Delete(ctx context.Context, userID string) error
	// ListExcept returns up to limit profiles whose user id is not in
	// exclude. The exclusion is pushed into the query so cost stays bounded
	// by the fetch ceiling, not by a per-candidate scan.
	ListExcept(ctx context.Context, exclude map[string]struct{}, limit int) ([]domain.Profile, error)
}

// Privacy persists per-user privacy settings.
type Privacy interface {
	Get(ctx context.Context, userID string) (domain.PrivacySettings, error)
	Put(ctx context.Context, s domain.PrivacySettings) error
	Delete(ctx context.Context, userID string) error
}

// Discovery persists per-user discovery filter preferences.
type Discovery interface {
	Get(ctx context.Context, userID string) (domain.DiscoverySettings, error)
	Put(ctx context.Context, s domain.DiscoverySettings) error
	Delete(ctx context.Context, userID string) error
}

// Blocks persists directed block edges.
type Blocks interface {
	Put(ctx context.Context, b domain.Block) error
	Delete(ctx context.Context, blockerID, blockedID string) error
	// ExistsBetween reports a block in either direction.
	ExistsBetween(ctx context.Context, a, b string) (bool, error)
	// BlockedBy returns ids the given user blocked.
	BlockedBy(ctx context.Context, blockerID string) ([]string, error)
	// Blocking returns ids of users who blocked the given user.
	Blocking(ctx context.Context, blockedID string) ([]string, error)
}

// Likes persists directed like edges.
type Likes interface {
	// Put creates the edge if absent and reports whether it did. A repeated
	// like is a no-op returning false; the store, not the caller, decides,
	// so concurrent duplicates cannot both count as first.
	Put(ctx context.Context, l domain.Like) (bool, error)
	Exists(ctx context.Context, fromID, toID string) (bool, error)
	ListFrom(ctx context.Context, fromID string) ([]domain.Like, error)
	DeleteFrom(ctx context.Context, fromID string) error
}

// Matches persists the undirected match documents keyed canonically.
type Matches interface {
	// Upsert creates the match if absent, leaves an existing document
	// untouched and reports whether it created one. The deterministic key
	// makes concurrent reciprocal likes converge on exactly one document,
	// and the returned flag is true for exactly one of the racers.
	Upsert(ctx context.Context, m domain.Match) (bool, error)
	Get(ctx context.Context, key string) (domain.Match, error)
	ListForUser(ctx context.Context, userID string) ([]domain.Match, error)
	SetStatus(ctx context.Context, key string, status domain.MatchStatus) error
}

// Reports persists abuse reports.
type Reports interface {
	Put(ctx context.Context, r domain.Report) error
	HasPending(ctx context.Context, reporterID, targetID string) (bool, error)
	CountPendingSince(ctx context.Context, targetID string, since time.Time) (int, error)
	ListByReporter(ctx context.Context, reporterID string) ([]domain.Report, error)
}

// Flags persists moderation flags keyed by user.
type Flags interface {
	Get(ctx context.Context, userID string) (domain.ModerationFlag, error)
	Put(ctx context.Context, f domain.ModerationFlag) error
}

// Messages persists chat messages.
type Messages interface {
	Put(ctx context.Context, m domain.Message) error
	// ListBetween returns messages between the pair ordered by SentAt
	// ascending, capped at limit (most recent window).
	ListBetween(ctx context.Context, a, b string, limit int) ([]domain.Message, error)
	// MarkRead stamps ReadAt on unread messages from fromID to toID sent at
	// or before until, returning how many were updated.
	MarkRead(ctx context.Context, fromID, toID string, until time.Time) (int, error)
}

// Locations persists last-known map positions.
type Locations interface {
	Get(ctx context.Context, userID string) (domain.Location, error)
	Put(ctx context.Context, l domain.Location) error
	Delete(ctx context.Context, userID string) error
	ListExcept(ctx context.Context, exclude map[string]struct{}, limit int) ([]domain.Location, error)
}

// Store bundles every collection for wiring. Components take only the
// interfaces they use; the bundle exists so main can pass one value around.
type Store struct {
	Users     Users
	Profiles  Profiles
	Privacy   Privacy
	Discovery Discovery
	Blocks    Blocks
	Likes     Likes
	Matches   Matches
	Reports   Reports
	Flags     Flags
	Messages  Messages
	Locations Locations
}
