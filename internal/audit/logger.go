package audit

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"kindred/internal/platform/metrics"
	"kindred/pkg/requestcontext"
)

// Logger is the audit entry point used by every endpoint. Action is the
// generic primitive for state-changing operations; DiscoveryAction is the
// best-effort variant that must never fail the caller's success path.
type Logger struct {
	store   Store
	sink    chan<- Entry
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewLogger wires the audit logger. sink may be nil when no external
// publisher is configured.
func NewLogger(store Store, sink chan<- Entry, m *metrics.Metrics, log *slog.Logger) *Logger {
	return &Logger{store: store, sink: sink, metrics: m, log: log}
}

// Action appends one audit entry. Fills ID, timestamp and client details from
// context when absent. Returns the store error: callers that must not fail on
// audit trouble go through DiscoveryAction instead.
func (l *Logger) Action(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = requestcontext.Now(ctx)
	}
	if meta := requestcontext.Client(ctx); meta.Platform != "" {
		if e.Details == nil {
			e.Details = map[string]string{}
		}
		if _, ok := e.Details["platform"]; !ok {
			e.Details["platform"] = meta.Platform
		}
	}
	if err := l.store.Append(ctx, e); err != nil {
		return err
	}
	l.publish(e)
	return nil
}

// DiscoveryAction records a discovery event (view/like/pass/block)
// best-effort: failures are counted and logged, never surfaced.
func (l *Logger) DiscoveryAction(ctx context.Context, userID, action, targetID string, score *float64) {
	details := map[string]string{}
	if score != nil {
		details["score"] = strconv.FormatFloat(*score, 'f', 4, 64)
	}
	l.TryAction(ctx, Entry{
		ActorID:  userID,
		TargetID: targetID,
		Action:   action,
		Details:  details,
	})
}

// TryAction is the best-effort variant of Action: a failed write is counted
// and logged so audit losses stay observable, but never reaches the caller.
func (l *Logger) TryAction(ctx context.Context, e Entry) {
	if err := l.Action(ctx, e); err != nil {
		l.metrics.AuditWriteFailures.Inc()
		l.log.WarnContext(ctx, "best-effort audit write failed",
			"error", err,
			"action", e.Action,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

// publish hands the entry to the external sink without ever blocking the
// request path. A full buffer counts as a write failure.
func (l *Logger) publish(e Entry) {
	if l.sink == nil {
		return
	}
	select {
	case l.sink <- e:
	default:
		l.metrics.AuditWriteFailures.Inc()
	}
}

// Trail returns the ordered audit trail for one actor.
func (l *Logger) Trail(ctx context.Context, actorID string) ([]Entry, error) {
	return l.store.ListByActor(ctx, actorID)
}
