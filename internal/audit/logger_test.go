package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kindred/internal/platform/metrics"
)

func newTestLogger(store Store, sink chan<- Entry) (*Logger, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry())
	return NewLogger(store, sink, m, slog.New(slog.NewTextHandler(io.Discard, nil))), m
}

type failingStore struct{}

func (failingStore) Append(context.Context, Entry) error { return errors.New("store down") }
func (failingStore) ListByActor(context.Context, string) ([]Entry, error) {
	return nil, errors.New("store down")
}

func TestActionFillsDefaultsAndPreservesOrder(t *testing.T) {
	store := NewMemoryStore()
	logger, _ := newTestLogger(store, nil)
	ctx := context.Background()

	require.NoError(t, logger.Action(ctx, Entry{ActorID: "u1", Action: "profile_submit"}))
	require.NoError(t, logger.Action(ctx, Entry{ActorID: "u1", TargetID: "u2", Action: ActionLike}))
	require.NoError(t, logger.Action(ctx, Entry{ActorID: "u2", Action: "settings_update"}))

	trail, err := logger.Trail(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, "profile_submit", trail[0].Action, "per-actor insertion order")
	assert.Equal(t, ActionLike, trail[1].Action)
	assert.NotEmpty(t, trail[0].ID)
	assert.False(t, trail[0].CreatedAt.IsZero())
}

func TestDiscoveryActionSwallowsFailures(t *testing.T) {
	logger, m := newTestLogger(failingStore{}, nil)

	score := 0.87
	// Must not panic or propagate; just count the failure.
	logger.DiscoveryAction(context.Background(), "u1", ActionView, "", &score)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditWriteFailures))
}

func TestTryActionCountsFailuresWithoutSurfacing(t *testing.T) {
	logger, m := newTestLogger(failingStore{}, nil)

	logger.TryAction(context.Background(), Entry{ActorID: "u1", Action: "recs_batch"})
	logger.TryAction(context.Background(), Entry{ActorID: "u1", Action: "recs_batch"})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AuditWriteFailures), "every lost write is counted")
}

func TestDiscoveryActionRecordsScore(t *testing.T) {
	store := NewMemoryStore()
	logger, _ := newTestLogger(store, nil)

	score := 0.5
	logger.DiscoveryAction(context.Background(), "u1", ActionLike, "u2", &score)
	logger.DiscoveryAction(context.Background(), "u1", ActionPass, "u3", nil)

	entries := store.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "0.5000", entries[0].Details["score"])
	_, hasScore := entries[1].Details["score"]
	assert.False(t, hasScore)
}

func TestPublishNeverBlocks(t *testing.T) {
	store := NewMemoryStore()
	sink := make(chan Entry, 1)
	logger, m := newTestLogger(store, sink)
	ctx := context.Background()

	require.NoError(t, logger.Action(ctx, Entry{ActorID: "u1", Action: "a"}))
	// Buffer is now full; the next publish drops instead of blocking.
	require.NoError(t, logger.Action(ctx, Entry{ActorID: "u1", Action: "b"}))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditWriteFailures))
	assert.Len(t, store.All(), 2, "store copy is still written")
}

func TestWorkerForwardsToSink(t *testing.T) {
	inbox := make(chan Entry, 4)
	received := make(chan Entry, 4)
	sink := sinkFunc(func(_ context.Context, e Entry) error {
		received <- e
		return nil
	})
	worker := NewWorker(sink, inbox, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	inbox <- Entry{ActorID: "u1", Action: ActionView}
	select {
	case e := <-received:
		assert.Equal(t, ActionView, e.Action)
	case <-time.After(time.Second):
		t.Fatal("worker did not forward the entry")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

type sinkFunc func(ctx context.Context, e Entry) error

func (f sinkFunc) Publish(ctx context.Context, e Entry) error { return f(ctx, e) }
