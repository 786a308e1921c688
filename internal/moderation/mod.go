package moderation

import (
	"context"
	"errors"

	"kindred/internal/audit"
	"kindred/internal/domain"
	"kindred/internal/store"
	dErrors "kindred/pkg/domainerrors"
)

// ModService holds the operations behind the moderator endpoints. Callers are
// authenticated with a moderator JWT at the transport layer.
type ModService struct {
	users store.Users
	audit *audit.Logger
}

func NewModService(users store.Users, auditLog *audit.Logger) *ModService {
	return &ModService{users: users, audit: auditLog}
}

// Verify marks the user as verified.
func (s *ModService) Verify(ctx context.Context, modID, userID string) error {
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if u.Verified {
		return nil
	}
	u.Verified = true
	if err := s.users.Put(ctx, u); err != nil {
		return internal(err)
	}
	return s.audit.Action(ctx, audit.Entry{ActorID: modID, TargetID: userID, Action: "mod_verify"})
}

// BlockUser hard-blocks the account: every authenticated call afterwards is
// rejected at the identity boundary with the stored reason.
func (s *ModService) BlockUser(ctx context.Context, modID, userID, reason string) error {
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	u.Blocked = true
	u.BlockReason = reason
	if err := s.users.Put(ctx, u); err != nil {
		return internal(err)
	}
	return s.audit.Action(ctx, audit.Entry{
		ActorID: modID, TargetID: userID, Action: "mod_block",
		Details: map[string]string{"reason": reason},
	})
}

func (s *ModService) getUser(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.users.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return domain.User{}, internal(err)
	}
	return u, nil
}
