// Package recs implements the ranked candidate engine: exclusion-set
// computation, pool fetch with a ceiling, per-candidate privacy filtering,
// deterministic scoring and truncation.
package recs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"kindred/internal/audit"
	"kindred/internal/domain"
	"kindred/internal/platform/metrics"
	"kindred/internal/store"
	dErrors "kindred/pkg/domainerrors"
	"kindred/pkg/geo"
)

const (
	// poolHeadroom is fetched on top of the requested limit so candidates
	// dropped by privacy and settings filters do not starve the result, even
	// at the maximum limit.
	poolHeadroom = 50

	MaxLimit = 50
)

var tracer = otel.Tracer("kindred/recs")

// Candidate is one ranked result. DistanceKm is nil when either side lacks
// coordinates or the candidate hides distance; the candidate itself is never
// suppressed for that reason.
type Candidate struct {
	UserID     string   `json:"userId"`
	City       string   `json:"city,omitempty"`
	Age        int      `json:"age,omitempty"`
	Intents    []string `json:"intents,omitempty"`
	DistanceKm *int     `json:"distanceKm,omitempty"`
	Score      float64  `json:"score"`
}

// Engine produces ranked candidate lists.
type Engine struct {
	users     store.Users
	profiles  store.Profiles
	privacy   store.Privacy
	discovery store.Discovery
	blocks    store.Blocks
	likes     store.Likes
	matches   store.Matches
	audit     *audit.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewEngine(st *store.Store, auditLog *audit.Logger, m *metrics.Metrics) *Engine {
	return &Engine{
		users:     st.Users,
		profiles:  st.Profiles,
		privacy:   st.Privacy,
		discovery: st.Discovery,
		blocks:    st.Blocks,
		likes:     st.Likes,
		matches:   st.Matches,
		audit:     auditLog,
		metrics:   m,
		now:       time.Now,
	}
}

// Recommend returns up to limit ranked candidates for userID. Request-time
// overrides are shallow-merged over the stored settings; a merged result that
// differs from the stored one is persisted back.
func (e *Engine) Recommend(ctx context.Context, userID string, overrides domain.DiscoveryOverrides, limit int) ([]Candidate, error) {
	ctx, span := tracer.Start(ctx, "recs.recommend")
	defer span.End()

	if limit < 1 || limit > MaxLimit {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("limit must be between 1 and %d", MaxLimit))
	}

	settings, err := e.effectiveSettings(ctx, userID, overrides)
	if err != nil {
		return nil, err
	}

	exclude, err := e.exclusionSet(ctx, userID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("recs.excluded", len(exclude)))

	pool, err := e.profiles.ListExcept(ctx, exclude, limit+poolHeadroom)
	if err != nil {
		return nil, internal(err)
	}

	actorProfile, err := e.profiles.Get(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, internal(err)
	}

	candidates, err := e.filterAndScore(ctx, actorProfile, settings, pool)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].UserID < candidates[j].UserID
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	// Audit only after the batch computed successfully; a failed computation
	// leaves no audit noise.
	e.audit.DiscoveryAction(ctx, userID, audit.ActionView, "", nil)
	e.audit.TryAction(ctx, audit.Entry{
		ActorID: userID,
		Action:  "recs_batch",
		Details: map[string]string{
			"count":       strconv.Itoa(len(candidates)),
			"limit":       strconv.Itoa(limit),
			"minAge":      strconv.Itoa(settings.MinAge),
			"maxAge":      strconv.Itoa(settings.MaxAge),
			"maxDistance": strconv.Itoa(settings.MaxDistanceKm),
		},
	})
	e.metrics.RecommendationsServed.Add(float64(len(candidates)))
	span.SetAttributes(attribute.Int("recs.returned", len(candidates)))
	return candidates, nil
}

// effectiveSettings loads the stored settings (defaults when absent), merges
// the overrides and persists the merge only when it changed something.
func (e *Engine) effectiveSettings(ctx context.Context, userID string, overrides domain.DiscoveryOverrides) (domain.DiscoverySettings, error) {
	stored, err := e.discovery.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		stored = domain.DefaultDiscoverySettings(userID)
	} else if err != nil {
		return domain.DiscoverySettings{}, internal(err)
	}

	merged, changed := stored.Merge(overrides)
	if !merged.Valid() {
		return domain.DiscoverySettings{}, dErrors.New(dErrors.CodeValidation, "minAge must not exceed maxAge")
	}
	if changed {
		if err := e.discovery.Put(ctx, merged); err != nil {
			return domain.DiscoverySettings{}, internal(err)
		}
	}
	return merged, nil
}

// exclusionSet is the union of self, blocks in both directions, prior likes
// and existing matches, computed as a set before the pool query so exclusion
// cost does not scale with the candidate pool.
func (e *Engine) exclusionSet(ctx context.Context, userID string) (map[string]struct{}, error) {
	var (
		blockedBy, blocking []string
		likes               []domain.Like
		matches             []domain.Match
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		blockedBy, err = e.blocks.BlockedBy(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		blocking, err = e.blocks.Blocking(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		likes, err = e.likes.ListFrom(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		matches, err = e.matches.ListForUser(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, internal(err)
	}

	exclude := map[string]struct{}{userID: {}}
	for _, id := range blockedBy {
		exclude[id] = struct{}{}
	}
	for _, id := range blocking {
		exclude[id] = struct{}{}
	}
	for _, l := range likes {
		exclude[l.ToID] = struct{}{}
	}
	for _, m := range matches {
		exclude[m.Other(userID)] = struct{}{}
	}
	return exclude, nil
}

func (e *Engine) filterAndScore(ctx context.Context, actor domain.Profile, settings domain.DiscoverySettings, pool []domain.Profile) ([]Candidate, error) {
	now := e.now()
	results := make([]*Candidate, len(pool))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, cand := range pool {
		i, cand := i, cand
		g.Go(func() error {
			c, err := e.evaluateCandidate(gctx, actor, settings, cand, now)
			if err != nil {
				return err
			}
			results[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(pool))
	for _, c := range results {
		if c != nil {
			out = append(out, *c)
		}
	}
	return out, nil
}

// evaluateCandidate applies the per-candidate filters and computes the score.
// A nil, nil return means the candidate was filtered out.
func (e *Engine) evaluateCandidate(ctx context.Context, actor domain.Profile, settings domain.DiscoverySettings, cand domain.Profile, now time.Time) (*Candidate, error) {
	u, err := e.users.Get(ctx, cand.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, internal(err)
	}
	// Candidate-pool suppression of shadow-banned users happens here, not in
	// the guard chain: direct interactions with an already-known user stay
	// possible, only discovery stops surfacing them.
	if u.ShadowBanned || u.Blocked || u.Deleted {
		return nil, nil
	}

	p, err := e.privacy.Get(ctx, cand.UserID)
	if errors.Is(err, store.ErrNotFound) {
		p = domain.DefaultPrivacySettings(cand.UserID)
	} else if err != nil {
		return nil, internal(err)
	}
	if p.Incognito || !p.ProfileVisible {
		return nil, nil
	}

	age := cand.Age(now)
	if age != 0 && (age < settings.MinAge || age > settings.MaxAge) {
		return nil, nil
	}
	if len(settings.GenderInterest) > 0 && cand.Gender != "" && !contains(settings.GenderInterest, cand.Gender) {
		return nil, nil
	}

	var (
		distKm  float64
		hasDist bool
	)
	if actor.HasCoords && cand.HasCoords {
		distKm = geo.DistanceKm(actor.Coords, cand.Coords)
		hasDist = true
		if settings.MaxDistanceKm > 0 && distKm > float64(settings.MaxDistanceKm) {
			return nil, nil
		}
	}

	c := &Candidate{
		UserID:  cand.UserID,
		City:    cand.City,
		Age:     age,
		Intents: cand.Intents,
		Score:   score(actor, settings, cand, distKm, hasDist, now),
	}
	// hideDistance suppresses the value, never the candidate; ranking still
	// used the unrounded distance.
	if hasDist && !p.HideDistance {
		rounded := geo.RoundKm(distKm)
		c.DistanceKm = &rounded
	}
	return c, nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func internal(err error) error {
	return dErrors.New(dErrors.CodeInternal, err.Error())
}
