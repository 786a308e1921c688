package domain

import (
	"time"

	"kindred/pkg/geo"
)

// Message is one chat message between two users. Ordering within a
// conversation is by SentAt, ties broken by ID.
type Message struct {
	ID     string
	FromID string
	ToID   string
	Body   string
	SentAt time.Time
	ReadAt *time.Time
}

// Location is the user's last shared map position.
type Location struct {
	UserID    string
	Coords    geo.Point
	Geohash   string
	UpdatedAt time.Time
}

// DailyStats aggregates per-UTC-day counters, incremented atomically.
type DailyStats struct {
	Day      string // "2006-01-02" in UTC
	Likes    int64
	Matches  int64
	Messages int64
}

// StatsDay formats t as the UTC calendar-day key.
func StatsDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
