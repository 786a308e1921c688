// Package match implements like handling and reactive match formation. The
// canonical match key, not a lock, is what keeps concurrent reciprocal likes
// converging on exactly one match document.
package match

import (
	"context"
	"errors"
	"time"

	"kindred/internal/audit"
	"kindred/internal/domain"
	"kindred/internal/guard"
	"kindred/internal/platform/metrics"
	"kindred/internal/store"
	dErrors "kindred/pkg/domainerrors"
)

// Result reports what a like produced.
type Result struct {
	Matched  bool   `json:"matched"`
	MatchKey string `json:"matchKey,omitempty"`
}

type Service struct {
	guard   *guard.Chain
	likes   store.Likes
	matches store.Matches
	stats   *Stats
	audit   *audit.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(g *guard.Chain, likes store.Likes, matches store.Matches, stats *Stats, auditLog *audit.Logger, m *metrics.Metrics) *Service {
	return &Service{
		guard:   g,
		likes:   likes,
		matches: matches,
		stats:   stats,
		audit:   auditLog,
		metrics: m,
		now:     time.Now,
	}
}

// Like records actor->target and runs the reciprocal check. If the target
// already liked the actor, the pair converges on one Match via the canonical
// key upsert. Repeating a like is a no-op, not an error.
func (s *Service) Like(ctx context.Context, actorID, targetID string) (Result, error) {
	if err := s.guard.Evaluate(ctx, actorID, targetID, guard.KindLike); err != nil {
		return Result{}, err
	}

	// The store reports whether the edge is new; a read-then-write check here
	// would let two concurrent duplicates both count as first.
	firstLike, err := s.likes.Put(ctx, domain.Like{FromID: actorID, ToID: targetID, CreatedAt: s.now()})
	if err != nil {
		return Result{}, internal(err)
	}
	if firstLike {
		s.stats.IncrLikes(ctx)
	}

	reciprocal, err := s.likes.Exists(ctx, targetID, actorID)
	if err != nil {
		return Result{}, internal(err)
	}

	res := Result{}
	if reciprocal {
		key := domain.MatchKey(actorID, targetID)
		a, b := domain.OrderPair(actorID, targetID)
		formed, err := s.matches.Upsert(ctx, domain.Match{
			Key: key, UserA: a, UserB: b,
			Status: domain.MatchActive, CreatedAt: s.now(),
		})
		if err != nil {
			return Result{}, internal(err)
		}
		// The upsert itself says which racer created the document, so exactly
		// one of two concurrent reciprocal likes counts the formation.
		if formed {
			s.metrics.MatchesFormed.Inc()
			s.stats.IncrMatches(ctx)
		}
		res = Result{Matched: true, MatchKey: key}
	}

	s.audit.DiscoveryAction(ctx, actorID, audit.ActionLike, targetID, nil)
	return res, nil
}

// Pass records a pass discovery action. Passes carry no standing: they do not
// create edges and do not exclude the candidate from future batches.
func (s *Service) Pass(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return dErrors.New(dErrors.CodeSelfTarget, "cannot target yourself")
	}
	s.audit.DiscoveryAction(ctx, actorID, audit.ActionPass, targetID, nil)
	return nil
}

// Unmatch flips an active match to ENDED. Matches are never deleted.
func (s *Service) Unmatch(ctx context.Context, actorID, targetID string) error {
	key := domain.MatchKey(actorID, targetID)
	m, err := s.matches.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "no match with this user")
	}
	if err != nil {
		return internal(err)
	}
	if m.UserA != actorID && m.UserB != actorID {
		return dErrors.New(dErrors.CodeNotFound, "no match with this user")
	}
	if err := s.matches.SetStatus(ctx, key, domain.MatchEnded); err != nil {
		return internal(err)
	}
	return s.audit.Action(ctx, audit.Entry{ActorID: actorID, TargetID: targetID, Action: "unmatch"})
}

// List returns the actor's matches.
func (s *Service) List(ctx context.Context, actorID string) ([]domain.Match, error) {
	out, err := s.matches.ListForUser(ctx, actorID)
	if err != nil {
		return nil, internal(err)
	}
	return out, nil
}

func internal(err error) error {
	return dErrors.New(dErrors.CodeInternal, err.Error())
}
