// Package account implements data export and account deletion. Deletion
// anonymizes rather than destroys: the user row survives with Deleted set, so
// a repeated export succeeds and returns empty data.
package account

import (
	"context"
	"errors"
	"time"

	"kindred/internal/audit"
	"kindred/internal/domain"
	"kindred/internal/store"
	dErrors "kindred/pkg/domainerrors"
)

// Export is the complete user-owned data set.
type Export struct {
	User      *UserExport               `json:"user,omitempty"`
	Profile   *ProfileExport            `json:"profile,omitempty"`
	Privacy   *domain.PrivacySettings   `json:"privacy,omitempty"`
	Discovery *domain.DiscoverySettings `json:"discovery,omitempty"`
	Likes     []domain.Like             `json:"likes"`
	Matches   []domain.Match            `json:"matches"`
	Reports   []domain.Report           `json:"reports"`
}

type UserExport struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	Verified    bool      `json:"verified"`
	Premium     bool      `json:"premium"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ProfileExport struct {
	Pronouns    string   `json:"pronouns,omitempty"`
	Gender      string   `json:"gender,omitempty"`
	Orientation []string `json:"orientation,omitempty"`
	Intents     []string `json:"intents,omitempty"`
	Bio         string   `json:"bio,omitempty"`
	BirthYear   int      `json:"birthYear,omitempty"`
	City        string   `json:"city,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
}

type Service struct {
	store *store.Store
	audit *audit.Logger
}

func NewService(st *store.Store, auditLog *audit.Logger) *Service {
	return &Service{store: st, audit: auditLog}
}

// ExportData collects everything the user owns. A deleted or unknown account
// exports successfully as empty data.
func (s *Service) ExportData(ctx context.Context, userID string) (Export, error) {
	out := Export{
		Likes:   []domain.Like{},
		Matches: []domain.Match{},
		Reports: []domain.Report{},
	}

	u, err := s.store.Users.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return out, nil
	}
	if err != nil {
		return Export{}, internal(err)
	}
	if u.Deleted {
		return out, nil
	}
	out.User = &UserExport{
		ID: u.ID, DisplayName: u.DisplayName, Verified: u.Verified,
		Premium: u.Premium, CreatedAt: u.CreatedAt,
	}

	if p, err := s.store.Profiles.Get(ctx, userID); err == nil {
		pe := &ProfileExport{
			Pronouns: p.Pronouns, Gender: p.Gender, Orientation: p.Orientation,
			Intents: p.Intents, Bio: p.Bio, BirthYear: p.BirthYear, City: p.City,
		}
		if p.HasCoords {
			pe.Lat, pe.Lon = &p.Coords.Lat, &p.Coords.Lon
		}
		out.Profile = pe
	} else if !errors.Is(err, store.ErrNotFound) {
		return Export{}, internal(err)
	}

	if priv, err := s.store.Privacy.Get(ctx, userID); err == nil {
		out.Privacy = &priv
	} else if !errors.Is(err, store.ErrNotFound) {
		return Export{}, internal(err)
	}

	if disc, err := s.store.Discovery.Get(ctx, userID); err == nil {
		out.Discovery = &disc
	} else if !errors.Is(err, store.ErrNotFound) {
		return Export{}, internal(err)
	}

	likes, err := s.store.Likes.ListFrom(ctx, userID)
	if err != nil {
		return Export{}, internal(err)
	}
	if likes != nil {
		out.Likes = likes
	}

	matches, err := s.store.Matches.ListForUser(ctx, userID)
	if err != nil {
		return Export{}, internal(err)
	}
	if matches != nil {
		out.Matches = matches
	}

	reports, err := s.store.Reports.ListByReporter(ctx, userID)
	if err != nil {
		return Export{}, internal(err)
	}
	if reports != nil {
		out.Reports = reports
	}

	return out, nil
}

// Delete anonymizes the account: display name replaced, profile and settings
// removed, outbound likes dropped. Matches and messages survive so peers keep
// their history. Safe to repeat.
func (s *Service) Delete(ctx context.Context, userID string, confirm bool) error {
	if !confirm {
		return dErrors.New(dErrors.CodeValidation, "confirm must be true")
	}

	u, err := s.store.Users.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return internal(err)
	}
	if u.Deleted {
		return nil
	}

	u.DisplayName = "Deleted user"
	u.Deleted = true
	u.Premium = false
	u.PremiumUntil = nil
	if err := s.store.Users.Put(ctx, u); err != nil {
		return internal(err)
	}

	for _, del := range []func(context.Context, string) error{
		s.store.Profiles.Delete,
		s.store.Privacy.Delete,
		s.store.Discovery.Delete,
		s.store.Likes.DeleteFrom,
		s.store.Locations.Delete,
	} {
		if err := del(ctx, userID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return internal(err)
		}
	}

	return s.audit.Action(ctx, audit.Entry{ActorID: userID, Action: "account_delete"})
}

func internal(err error) error {
	return dErrors.New(dErrors.CodeInternal, err.Error())
}
