// Package moderation covers abuse reports, the reactive auto-flagging policy
// and the moderator operations. Auto-flagging failures never surface to the
// report request that triggered them.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"kindred/internal/audit"
	"kindred/internal/domain"
	"kindred/internal/guard"
	"kindred/internal/platform/metrics"
	"kindred/internal/store"
	dErrors "kindred/pkg/domainerrors"
)

// Escalation thresholds, counted over PENDING reports against the target in
// the trailing 24 hours.
const (
	flagThreshold      = 5
	shadowBanThreshold = 10
	reportWindow       = 24 * time.Hour
)

type Service struct {
	guard   *guard.Chain
	users   store.Users
	reports store.Reports
	flags   store.Flags
	audit   *audit.Logger
	metrics *metrics.Metrics
	log     *slog.Logger
	now     func() time.Time
}

func NewService(g *guard.Chain, users store.Users, reports store.Reports, flags store.Flags, auditLog *audit.Logger, m *metrics.Metrics, log *slog.Logger) *Service {
	return &Service{
		guard:   g,
		users:   users,
		reports: reports,
		flags:   flags,
		audit:   auditLog,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

// Report files an abuse report. A PENDING report from the same reporter
// against the same target rejects the duplicate; the auto-flagging policy
// runs afterwards and cannot fail the request.
func (s *Service) Report(ctx context.Context, reporterID, targetID, reason, details string) error {
	if err := s.guard.Evaluate(ctx, reporterID, targetID, guard.KindReport); err != nil {
		return err
	}

	dup, err := s.reports.HasPending(ctx, reporterID, targetID)
	if err != nil {
		return internal(err)
	}
	if dup {
		return dErrors.New(dErrors.CodeDuplicateReport, "a pending report against this user already exists")
	}

	if err := s.reports.Put(ctx, domain.Report{
		ID:         uuid.NewString(),
		ReporterID: reporterID,
		TargetID:   targetID,
		Reason:     reason,
		Details:    details,
		Status:     domain.ReportPending,
		CreatedAt:  s.now(),
	}); err != nil {
		return internal(err)
	}
	s.metrics.ReportsFiled.Inc()

	if err := s.audit.Action(ctx, audit.Entry{
		ActorID: reporterID, TargetID: targetID, Action: "report",
		Details: map[string]string{"reason": reason},
	}); err != nil {
		return internal(err)
	}

	s.autoFlag(ctx, targetID)
	return nil
}

// autoFlag re-evaluates the target's standing after a new report. Errors are
// logged and swallowed.
func (s *Service) autoFlag(ctx context.Context, targetID string) {
	count, err := s.reports.CountPendingSince(ctx, targetID, s.now().Add(-reportWindow))
	if err != nil {
		s.log.WarnContext(ctx, "auto-flag count failed", "target", targetID, "error", err)
		return
	}
	if count < flagThreshold {
		return
	}

	if err := s.upsertFlag(ctx, targetID, count); err != nil {
		s.log.WarnContext(ctx, "auto-flag upsert failed", "target", targetID, "error", err)
	}

	if count >= shadowBanThreshold {
		if err := s.shadowBan(ctx, targetID, count); err != nil {
			s.log.WarnContext(ctx, "auto shadow-ban failed", "target", targetID, "error", err)
		}
	}
}

// upsertFlag merges into an existing flag: count and timestamp move forward,
// unrelated annotations stay untouched.
func (s *Service) upsertFlag(ctx context.Context, targetID string, count int) error {
	flag, err := s.flags.Get(ctx, targetID)
	if errors.Is(err, store.ErrNotFound) {
		flag = domain.ModerationFlag{UserID: targetID}
	} else if err != nil {
		return err
	}
	flag.Reason = "report velocity"
	flag.ReportCount = count
	flag.FlaggedAt = s.now()
	return s.flags.Put(ctx, flag)
}

func (s *Service) shadowBan(ctx context.Context, targetID string, count int) error {
	u, err := s.users.Get(ctx, targetID)
	if err != nil {
		return err
	}
	if u.ShadowBanned {
		return nil
	}
	now := s.now()
	u.ShadowBanned = true
	u.ShadowReason = fmt.Sprintf("report velocity: %d pending reports in 24h", count)
	u.ShadowAt = &now
	if err := s.users.Put(ctx, u); err != nil {
		return err
	}
	s.metrics.ShadowBansApplied.Inc()
	return nil
}

func internal(err error) error {
	return dErrors.New(dErrors.CodeInternal, err.Error())
}
