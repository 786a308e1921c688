// Package profile handles profile submission. The first submission is what
// creates the User record plus the default privacy and discovery settings;
// later submissions update the profile in place.
package profile

import (
	"context"
	"errors"
	"time"

	"kindred/internal/audit"
	"kindred/internal/domain"
	"kindred/internal/store"
	dErrors "kindred/pkg/domainerrors"
	"kindred/pkg/geo"
)

const geohashLen = 7

// Submission is the validated profile payload.
type Submission struct {
	DisplayName string
	Pronouns    string
	Gender      string
	Orientation []string
	Intents     []string
	Bio         string
	BirthYear   int
	City        string
	HasCoords   bool
	Coords      geo.Point
}

type Service struct {
	users     store.Users
	profiles  store.Profiles
	privacy   store.Privacy
	discovery store.Discovery
	audit     *audit.Logger
	now       func() time.Time
}

func NewService(users store.Users, profiles store.Profiles, privacy store.Privacy, discovery store.Discovery, auditLog *audit.Logger) *Service {
	return &Service{
		users:     users,
		profiles:  profiles,
		privacy:   privacy,
		discovery: discovery,
		audit:     auditLog,
		now:       time.Now,
	}
}

// Submit upserts the profile. On first contact it also creates the user and
// the default settings; resubmitting after account deletion reactivates.
func (s *Service) Submit(ctx context.Context, userID string, in Submission) error {
	now := s.now()
	if in.BirthYear != 0 && now.UTC().Year()-in.BirthYear < 18 {
		return dErrors.New(dErrors.CodeValidation, "must be at least 18")
	}
	if in.HasCoords && !in.Coords.Valid() {
		return dErrors.New(dErrors.CodeValidation, "coordinates out of range")
	}

	u, err := s.users.Get(ctx, userID)
	first := errors.Is(err, store.ErrNotFound)
	if err != nil && !first {
		return internal(err)
	}
	if first {
		u = domain.User{ID: userID, Role: domain.RoleUser, CreatedAt: now}
	}
	u.DisplayName = in.DisplayName
	u.Deleted = false
	if err := s.users.Put(ctx, u); err != nil {
		return internal(err)
	}

	p := domain.Profile{
		UserID:      userID,
		Pronouns:    in.Pronouns,
		Gender:      in.Gender,
		Orientation: in.Orientation,
		Intents:     in.Intents,
		Bio:         in.Bio,
		BirthYear:   in.BirthYear,
		City:        in.City,
		UpdatedAt:   now,
	}
	if in.HasCoords {
		p.HasCoords = true
		p.Coords = in.Coords
		p.Geohash = geo.EncodeGeohash(in.Coords, geohashLen)
	}
	if err := s.profiles.Put(ctx, p); err != nil {
		return internal(err)
	}

	if err := s.ensureDefaults(ctx, userID); err != nil {
		return err
	}

	action := "profile_update"
	if first {
		action = "profile_submit"
	}
	return s.audit.Action(ctx, audit.Entry{ActorID: userID, Action: action})
}

// Get returns the stored profile.
func (s *Service) Get(ctx context.Context, userID string) (domain.Profile, error) {
	p, err := s.profiles.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Profile{}, dErrors.New(dErrors.CodeNotFound, "no profile")
	}
	if err != nil {
		return domain.Profile{}, internal(err)
	}
	return p, nil
}

// ensureDefaults creates privacy and discovery settings when absent, never
// overwriting values the user already changed.
func (s *Service) ensureDefaults(ctx context.Context, userID string) error {
	if _, err := s.privacy.Get(ctx, userID); errors.Is(err, store.ErrNotFound) {
		if err := s.privacy.Put(ctx, domain.DefaultPrivacySettings(userID)); err != nil {
			return internal(err)
		}
	} else if err != nil {
		return internal(err)
	}

	if _, err := s.discovery.Get(ctx, userID); errors.Is(err, store.ErrNotFound) {
		if err := s.discovery.Put(ctx, domain.DefaultDiscoverySettings(userID)); err != nil {
			return internal(err)
		}
	} else if err != nil {
		return internal(err)
	}
	return nil
}

func internal(err error) error {
	return dErrors.New(dErrors.CodeInternal, err.Error())
}
