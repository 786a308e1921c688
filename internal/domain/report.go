package domain

import "time"

// ReportStatus is the moderation lifecycle of a report.
type ReportStatus string

const (
	ReportPending  ReportStatus = "PENDING"
	ReportResolved ReportStatus = "RESOLVED"
)

// Report is an accusation from reporter against target. Duplicate PENDING
// reports from the same reporter against the same target are rejected.
type Report struct {
	ID         string
	ReporterID string
	TargetID   string
	Reason     string
	Details    string
	Status     ReportStatus
	CreatedAt  time.Time
}

// ModerationFlag is the derived per-user record set by auto-moderation when
// report velocity crosses the review threshold. Advisory only: it is not an
// access guard by itself.
type ModerationFlag struct {
	UserID      string
	Reason      string
	ReportCount int
	FlaggedAt   time.Time
	// Extra carries unrelated moderation annotations; the auto-flag upsert
	// merges and must not clobber them.
	Extra map[string]string
}
