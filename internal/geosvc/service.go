// Package geosvc implements the map features: consent bookkeeping, location
// sharing and the nearby lookup. Nearby sits behind the consent and
// entitlement guards and applies the same candidate privacy rules as
// discovery.
package geosvc

import (
	"context"
	"errors"
	"sort"
	"time"

	"kindred/internal/audit"
	"kindred/internal/domain"
	"kindred/internal/guard"
	"kindred/internal/store"
	dErrors "kindred/pkg/domainerrors"
	"kindred/pkg/geo"
)

const (
	defaultRadiusKm = 10
	maxRadiusKm     = 100
	nearbyLimit     = 50
	geohashLen      = 7
)

type Service struct {
	guard     *guard.Chain
	users     store.Users
	privacy   store.Privacy
	locations store.Locations
	audit     *audit.Logger
	now       func() time.Time
}

func NewService(g *guard.Chain, users store.Users, privacy store.Privacy, locations store.Locations, auditLog *audit.Logger) *Service {
	return &Service{
		guard:     g,
		users:     users,
		privacy:   privacy,
		locations: locations,
		audit:     auditLog,
		now:       time.Now,
	}
}

// Consent records the actor's map opt-in or opt-out. Revoking consent also
// removes the shared location.
func (s *Service) Consent(ctx context.Context, userID string, grant bool) error {
	p, err := s.privacy.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		p = domain.DefaultPrivacySettings(userID)
	} else if err != nil {
		return internal(err)
	}

	p.MapConsent = grant
	if grant {
		now := s.now()
		p.MapConsentAt = &now
	} else {
		p.MapConsentAt = nil
	}
	if err := s.privacy.Put(ctx, p); err != nil {
		return internal(err)
	}
	if !grant {
		if err := s.locations.Delete(ctx, userID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return internal(err)
		}
	}
	return s.audit.Action(ctx, audit.Entry{
		ActorID: userID, Action: "map_consent",
		Details: map[string]string{"granted": boolStr(grant)},
	})
}

// ShareLocation stores the actor's position. Requires prior consent.
func (s *Service) ShareLocation(ctx context.Context, userID string, p geo.Point) error {
	if !p.Valid() {
		return dErrors.New(dErrors.CodeValidation, "coordinates out of range")
	}
	priv, err := s.privacy.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !priv.MapConsent) {
		return dErrors.New(dErrors.CodeConsentRequired, "location consent required")
	}
	if err != nil {
		return internal(err)
	}

	if err := s.locations.Put(ctx, domain.Location{
		UserID:    userID,
		Coords:    p,
		Geohash:   geo.EncodeGeohash(p, geohashLen),
		UpdatedAt: s.now(),
	}); err != nil {
		return internal(err)
	}
	return s.audit.Action(ctx, audit.Entry{ActorID: userID, Action: "map_location"})
}

// NearbyUser is one map result. DistanceKm is suppressed when the peer hides
// distance; the peer still appears.
type NearbyUser struct {
	UserID     string  `json:"userId"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	DistanceKm *int    `json:"distanceKm,omitempty"`
}

// Nearby returns users within radiusKm of the actor's shared location,
// closest first. The guard chain enforces consent and entitlement before any
// data is read.
func (s *Service) Nearby(ctx context.Context, userID string, radiusKm int) ([]NearbyUser, error) {
	if err := s.guard.Evaluate(ctx, userID, "", guard.KindMapNearby); err != nil {
		return nil, err
	}
	if radiusKm <= 0 {
		radiusKm = defaultRadiusKm
	}
	if radiusKm > maxRadiusKm {
		radiusKm = maxRadiusKm
	}

	origin, err := s.locations.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeValidation, "share a location before querying nearby")
	}
	if err != nil {
		return nil, internal(err)
	}

	peers, err := s.locations.ListExcept(ctx, map[string]struct{}{userID: {}}, nearbyLimit)
	if err != nil {
		return nil, internal(err)
	}

	type scored struct {
		user NearbyUser
		dist float64
	}
	var results []scored
	for _, loc := range peers {
		visible, hideDist, err := s.peerVisible(ctx, loc.UserID)
		if err != nil {
			return nil, err
		}
		if !visible {
			continue
		}
		dist := geo.DistanceKm(origin.Coords, loc.Coords)
		if dist > float64(radiusKm) {
			continue
		}
		u := NearbyUser{UserID: loc.UserID, Lat: loc.Coords.Lat, Lon: loc.Coords.Lon}
		if !hideDist {
			rounded := geo.RoundKm(dist)
			u.DistanceKm = &rounded
		}
		results = append(results, scored{user: u, dist: dist})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].dist != results[j].dist {
			return results[i].dist < results[j].dist
		}
		return results[i].user.UserID < results[j].user.UserID
	})

	out := make([]NearbyUser, len(results))
	for i, r := range results {
		out[i] = r.user
	}
	return out, nil
}

// peerVisible applies the discovery privacy rules to a map peer: visible
// profile, no incognito, own map consent, clean moderation standing.
func (s *Service) peerVisible(ctx context.Context, userID string) (visible, hideDistance bool, err error) {
	u, err := s.users.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return false, false, nil
	}
	if err != nil {
		return false, false, internal(err)
	}
	if u.ShadowBanned || u.Blocked || u.Deleted {
		return false, false, nil
	}

	p, err := s.privacy.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return false, false, nil
	}
	if err != nil {
		return false, false, internal(err)
	}
	if p.Incognito || !p.ProfileVisible || !p.MapConsent {
		return false, false, nil
	}
	return true, p.HideDistance, nil
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func internal(err error) error {
	return dErrors.New(dErrors.CodeInternal, err.Error())
}
