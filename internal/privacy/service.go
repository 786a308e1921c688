// Package privacy owns the user-mutable privacy and discovery settings.
// Settings are only ever changed by their owner; invalid values are rejected
// at this boundary, never clamped.
package privacy

import (
	"context"
	"errors"

	"kindred/internal/audit"
	"kindred/internal/domain"
	"kindred/internal/store"
	dErrors "kindred/pkg/domainerrors"
)

// Overrides are the request-time privacy changes; nil fields keep the stored
// value.
type Overrides struct {
	Incognito      *bool
	HideDistance   *bool
	ProfileVisible *bool
}

type Service struct {
	privacy   store.Privacy
	discovery store.Discovery
	audit     *audit.Logger
}

func NewService(privacy store.Privacy, discovery store.Discovery, auditLog *audit.Logger) *Service {
	return &Service{privacy: privacy, discovery: discovery, audit: auditLog}
}

// SetIncognito toggles discovery invisibility.
func (s *Service) SetIncognito(ctx context.Context, userID string, on bool) (domain.PrivacySettings, error) {
	return s.Update(ctx, userID, Overrides{Incognito: &on})
}

// Update shallow-merges the overrides over the stored settings.
func (s *Service) Update(ctx context.Context, userID string, o Overrides) (domain.PrivacySettings, error) {
	p, err := s.get(ctx, userID)
	if err != nil {
		return domain.PrivacySettings{}, err
	}

	changed := false
	if o.Incognito != nil && p.Incognito != *o.Incognito {
		p.Incognito = *o.Incognito
		changed = true
	}
	if o.HideDistance != nil && p.HideDistance != *o.HideDistance {
		p.HideDistance = *o.HideDistance
		changed = true
	}
	if o.ProfileVisible != nil && p.ProfileVisible != *o.ProfileVisible {
		p.ProfileVisible = *o.ProfileVisible
		changed = true
	}
	if !changed {
		return p, nil
	}

	if err := s.privacy.Put(ctx, p); err != nil {
		return domain.PrivacySettings{}, internal(err)
	}
	if err := s.audit.Action(ctx, audit.Entry{ActorID: userID, Action: "privacy_update"}); err != nil {
		return domain.PrivacySettings{}, internal(err)
	}
	return p, nil
}

// Get returns the stored privacy settings, defaults when none exist.
func (s *Service) Get(ctx context.Context, userID string) (domain.PrivacySettings, error) {
	return s.get(ctx, userID)
}

// UpdateDiscovery merges the overrides over the stored discovery settings and
// persists the result. An inverted age window is rejected here, before
// anything is written.
func (s *Service) UpdateDiscovery(ctx context.Context, userID string, o domain.DiscoveryOverrides) (domain.DiscoverySettings, error) {
	stored, err := s.discovery.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		stored = domain.DefaultDiscoverySettings(userID)
	} else if err != nil {
		return domain.DiscoverySettings{}, internal(err)
	}

	merged, changed := stored.Merge(o)
	if !merged.Valid() {
		return domain.DiscoverySettings{}, dErrors.New(dErrors.CodeValidation, "minAge must not exceed maxAge")
	}
	if merged.MinAge < 18 {
		return domain.DiscoverySettings{}, dErrors.New(dErrors.CodeValidation, "minAge must be at least 18")
	}
	if !changed {
		return merged, nil
	}

	if err := s.discovery.Put(ctx, merged); err != nil {
		return domain.DiscoverySettings{}, internal(err)
	}
	if err := s.audit.Action(ctx, audit.Entry{ActorID: userID, Action: "discovery_settings_update"}); err != nil {
		return domain.DiscoverySettings{}, internal(err)
	}
	return merged, nil
}

func (s *Service) get(ctx context.Context, userID string) (domain.PrivacySettings, error) {
	p, err := s.privacy.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.DefaultPrivacySettings(userID), nil
	}
	if err != nil {
		return domain.PrivacySettings{}, internal(err)
	}
	return p, nil
}

func internal(err error) error {
	return dErrors.New(dErrors.CodeInternal, err.Error())
}
