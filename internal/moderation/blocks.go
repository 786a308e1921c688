package moderation

import (
	"context"
	"errors"
	"time"

	"kindred/internal/audit"
	"kindred/internal/domain"
	"kindred/internal/guard"
	"kindred/internal/store"
)

// BlockService manages the directed block edges users place themselves.
type BlockService struct {
	guard  *guard.Chain
	blocks store.Blocks
	audit  *audit.Logger
	now    func() time.Time
}

func NewBlockService(g *guard.Chain, blocks store.Blocks, auditLog *audit.Logger) *BlockService {
	return &BlockService{guard: g, blocks: blocks, audit: auditLog, now: time.Now}
}

// Block creates the actor->target edge. The guard chain runs first, so a pair
// already blocked in either direction is denied like any other interaction
// between them.
func (s *BlockService) Block(ctx context.Context, actorID, targetID string) error {
	if err := s.guard.Evaluate(ctx, actorID, targetID, guard.KindBlock); err != nil {
		return err
	}
	if err := s.blocks.Put(ctx, domain.Block{BlockerID: actorID, BlockedID: targetID, CreatedAt: s.now()}); err != nil {
		return internal(err)
	}
	s.audit.DiscoveryAction(ctx, actorID, audit.ActionBlock, targetID, nil)
	return nil
}

// Unblock removes the actor's own edge toward the target. Removing an edge
// that does not exist is a no-op.
func (s *BlockService) Unblock(ctx context.Context, actorID, targetID string) error {
	if err := s.blocks.Delete(ctx, actorID, targetID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return internal(err)
	}
	return s.audit.Action(ctx, audit.Entry{ActorID: actorID, TargetID: targetID, Action: "unblock"})
}
