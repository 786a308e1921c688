// Package memory implements every store collection with mutex-guarded maps.
// It backs unit tests and local development; behavior matches the postgres
// implementation including upsert idempotency and ordering guarantees.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"kindred/internal/domain"
	"kindred/internal/store"
)

// New builds a fully wired in-memory store bundle.
func New() *store.Store {
	return &store.Store{
		Users:     &users{m: map[string]domain.User{}},
		Profiles:  &profiles{m: map[string]domain.Profile{}},
		Privacy:   &privacy{m: map[string]domain.PrivacySettings{}},
		Discovery: &discovery{m: map[string]domain.DiscoverySettings{}},
		Blocks:    &blocks{m: map[[2]string]domain.Block{}},
		Likes:     &likes{m: map[[2]string]domain.Like{}},
		Matches:   &matches{m: map[string]domain.Match{}},
		Reports:   &reports{},
		Flags:     &flags{m: map[string]domain.ModerationFlag{}},
		Messages:  &messages{},
		Locations: &locations{m: map[string]domain.Location{}},
	}
}

type users struct {
	mu sync.RWMutex
	m  map[string]domain.User
}

func (s *users) Get(_ context.Context, id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.m[id]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return u, nil
}

func (s *users) Put(_ context.Context, u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[u.ID] = u
	return nil
}

type profiles struct {
	mu    sync.RWMutex
	m     map[string]domain.Profile
	order []string // insertion order keeps candidate queries deterministic
}

func (s *profiles) Get(_ context.Context, userID string) (domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.m[userID]
	if !ok {
		return domain.Profile{}, store.ErrNotFound
	}
	return p, nil
}

func (s *profiles) Put(_ context.Context, p domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.m[p.UserID]; !exists {
		s.order = append(s.order, p.UserID)
	}
	s.m[p.UserID] = p
	return nil
}

func (s *profiles) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, userID)
	return nil
}

func (s *profiles) ListExcept(_ context.Context, exclude map[string]struct{}, limit int) ([]domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Profile, 0, limit)
	for _, id := range s.order {
		if len(out) >= limit {
			break
		}
		p, ok := s.m[id]
		if !ok {
			continue
		}
		if _, skip := exclude[id]; skip {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

type privacy struct {
	mu sync.RWMutex
	m  map[string]domain.PrivacySettings
}

func (s *privacy) Get(_ context.Context, userID string) (domain.PrivacySettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.m[userID]
	if !ok {
		return domain.PrivacySettings{}, store.ErrNotFound
	}
	return p, nil
}

func (s *privacy) Put(_ context.Context, p domain.PrivacySettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[p.UserID] = p
	return nil
}

func (s *privacy) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, userID)
	return nil
}

type discovery struct {
	mu sync.RWMutex
	m  map[string]domain.DiscoverySettings
}

func (s *discovery) Get(_ context.Context, userID string) (domain.DiscoverySettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.m[userID]
	if !ok {
		return domain.DiscoverySettings{}, store.ErrNotFound
	}
	return d, nil
}

func (s *discovery) Put(_ context.Context, d domain.DiscoverySettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[d.UserID] = d
	return nil
}

func (s *discovery) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, userID)
	return nil
}

type blocks struct {
	mu sync.RWMutex
	m  map[[2]string]domain.Block
}

func (s *blocks) Put(_ context.Context, b domain.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[[2]string{b.BlockerID, b.BlockedID}] = b
	return nil
}

func (s *blocks) Delete(_ context.Context, blockerID, blockedID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, [2]string{blockerID, blockedID})
	return nil
}

func (s *blocks) ExistsBetween(_ context.Context, a, b string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.m[[2]string{a, b}]; ok {
		return true, nil
	}
	_, ok := s.m[[2]string{b, a}]
	return ok, nil
}

func (s *blocks) BlockedBy(_ context.Context, blockerID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for k := range s.m {
		if k[0] == blockerID {
			out = append(out, k[1])
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *blocks) Blocking(_ context.Context, blockedID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for k := range s.m {
		if k[1] == blockedID {
			out = append(out, k[0])
		}
	}
	sort.Strings(out)
	return out, nil
}

type likes struct {
	mu sync.RWMutex
	m  map[[2]string]domain.Like
}

func (s *likes) Put(_ context.Context, l domain.Like) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]string{l.FromID, l.ToID}
	if _, exists := s.m[key]; exists {
		return false, nil
	}
	s.m[key] = l
	return true, nil
}

func (s *likes) Exists(_ context.Context, fromID, toID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.m[[2]string{fromID, toID}]
	return ok, nil
}

func (s *likes) ListFrom(_ context.Context, fromID string) ([]domain.Like, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Like
	for k, l := range s.m {
		if k[0] == fromID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ToID < out[j].ToID })
	return out, nil
}

func (s *likes) DeleteFrom(_ context.Context, fromID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.m {
		if k[0] == fromID {
			delete(s.m, k)
		}
	}
	return nil
}

type matches struct {
	mu sync.RWMutex
	m  map[string]domain.Match
}

func (s *matches) Upsert(_ context.Context, m domain.Match) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.m[m.Key]; exists {
		return false, nil
	}
	s.m[m.Key] = m
	return true, nil
}

func (s *matches) Get(_ context.Context, key string) (domain.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.m[key]
	if !ok {
		return domain.Match{}, store.ErrNotFound
	}
	return m, nil
}

func (s *matches) ListForUser(_ context.Context, userID string) ([]domain.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Match
	for _, m := range s.m {
		if m.UserA == userID || m.UserB == userID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *matches) SetStatus(_ context.Context, key string, status domain.MatchStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.m[key]
	if !ok {
		return store.ErrNotFound
	}
	m.Status = status
	s.m[key] = m
	return nil
}

type reports struct {
	mu   sync.RWMutex
	list []domain.Report
}

func (s *reports) Put(_ context.Context, r domain.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = append(s.list, r)
	return nil
}

func (s *reports) HasPending(_ context.Context, reporterID, targetID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.list {
		if r.ReporterID == reporterID && r.TargetID == targetID && r.Status == domain.ReportPending {
			return true, nil
		}
	}
	return false, nil
}

func (s *reports) CountPendingSince(_ context.Context, targetID string, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.list {
		if r.TargetID == targetID && r.Status == domain.ReportPending && !r.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *reports) ListByReporter(_ context.Context, reporterID string) ([]domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Report
	for _, r := range s.list {
		if r.ReporterID == reporterID {
			out = append(out, r)
		}
	}
	return out, nil
}

type flags struct {
	mu sync.RWMutex
	m  map[string]domain.ModerationFlag
}

func (s *flags) Get(_ context.Context, userID string) (domain.ModerationFlag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.m[userID]
	if !ok {
		return domain.ModerationFlag{}, store.ErrNotFound
	}
	return f, nil
}

func (s *flags) Put(_ context.Context, f domain.ModerationFlag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[f.UserID] = f
	return nil
}

type messages struct {
	mu   sync.RWMutex
	list []domain.Message
}

func (s *messages) Put(_ context.Context, m domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = append(s.list, m)
	return nil
}

func (s *messages) ListBetween(_ context.Context, a, b string, limit int) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Message
	for _, m := range s.list {
		if (m.FromID == a && m.ToID == b) || (m.FromID == b && m.ToID == a) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SentAt.Equal(out[j].SentAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].SentAt.Before(out[j].SentAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *messages) MarkRead(_ context.Context, fromID, toID string, until time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for i := range s.list {
		m := &s.list[i]
		if m.FromID == fromID && m.ToID == toID && m.ReadAt == nil && !m.SentAt.After(until) {
			readAt := until
			m.ReadAt = &readAt
			n++
		}
	}
	return n, nil
}

type locations struct {
	mu sync.RWMutex
	m  map[string]domain.Location
}

func (s *locations) Get(_ context.Context, userID string) (domain.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.m[userID]
	if !ok {
		return domain.Location{}, store.ErrNotFound
	}
	return l, nil
}

func (s *locations) Put(_ context.Context, l domain.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[l.UserID] = l
	return nil
}

func (s *locations) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, userID)
	return nil
}

func (s *locations) ListExcept(_ context.Context, exclude map[string]struct{}, limit int) ([]domain.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.m))
	for id := range s.m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]domain.Location, 0, limit)
	for _, id := range ids {
		if len(out) >= limit {
			break
		}
		if _, skip := exclude[id]; skip {
			continue
		}
		out = append(out, s.m[id])
	}
	return out, nil
}
