package domain

import "time"

// Block is a directed blocker->blocked edge. Either direction suppresses all
// interaction between the pair. Append-only: created and deleted, never
// updated.
type Block struct {
	BlockerID string
	BlockedID string
	CreatedAt time.Time
}

// Like is a directed from->to edge whose creation triggers the reciprocal
// check in match formation.
type Like struct {
	FromID    string
	ToID      string
	CreatedAt time.Time
}

// MatchStatus transitions ACTIVE -> ENDED; matches are never deleted.
type MatchStatus string

const (
	MatchActive MatchStatus = "ACTIVE"
	MatchEnded  MatchStatus = "ENDED"
)

// Match is the undirected relation between two users, stored under the
// canonical key so concurrent reciprocal likes converge on one document.
type Match struct {
	Key       string
	UserA     string
	UserB     string
	Status    MatchStatus
	CreatedAt time.Time
}

// MatchKey computes the canonical key for an unordered pair: the
// lexicographically smaller id first. This key, not a generated id, is the
// load-bearing idempotency mechanism for concurrent reciprocal likes.
func MatchKey(a, b string) string {
	if a < b {
		return a + ":" + b
	}
	return b + ":" + a
}

// OrderPair returns the pair in canonical order.
func OrderPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

// Other returns the member of the match that is not userID.
func (m Match) Other(userID string) string {
	if m.UserA == userID {
		return m.UserB
	}
	return m.UserA
}
