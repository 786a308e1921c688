package audit

import (
	"context"
	"log/slog"
)

// Sink is an external destination for audit events (Kafka in production).
type Sink interface {
	Publish(ctx context.Context, e Entry) error
}

// Worker drains the audit channel into a sink. It keeps background
// publishing off the request path; sink errors are logged and the event is
// dropped (the store copy is the durable one).
type Worker struct {
	sink  Sink
	inbox <-chan Entry
	log   *slog.Logger
}

func NewWorker(sink Sink, inbox <-chan Entry, log *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, log: log}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e := <-w.inbox:
			if err := w.sink.Publish(ctx, e); err != nil {
				w.log.Warn("audit sink publish failed", "error", err, "action", e.Action)
			}
		}
	}
}
