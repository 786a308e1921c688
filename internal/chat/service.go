// Package chat implements messaging between users. Every entry point runs
// the guard chain first; the typing indicator lives in redis with a short TTL
// so it expires on its own.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"kindred/internal/audit"
	"kindred/internal/domain"
	"kindred/internal/guard"
	"kindred/internal/match"
	"kindred/internal/platform/redis"
	"kindred/internal/store"
	dErrors "kindred/pkg/domainerrors"
)

const (
	typingTTL      = 5 * time.Second
	maxBodyLen     = 4000
	historyDefault = 50
	historyMax     = 200
)

type Service struct {
	guard    *guard.Chain
	messages store.Messages
	rdb      *redis.Client
	stats    *match.Stats
	audit    *audit.Logger
	now      func() time.Time
}

func NewService(g *guard.Chain, messages store.Messages, rdb *redis.Client, stats *match.Stats, auditLog *audit.Logger) *Service {
	return &Service{
		guard:    g,
		messages: messages,
		rdb:      rdb,
		stats:    stats,
		audit:    auditLog,
		now:      time.Now,
	}
}

// Send stores one message from actor to target after the chain allows it.
func (s *Service) Send(ctx context.Context, actorID, targetID, body string) (domain.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" || len(body) > maxBodyLen {
		return domain.Message{}, dErrors.New(dErrors.CodeValidation, "message body must be 1-4000 characters")
	}
	if err := s.guard.Evaluate(ctx, actorID, targetID, guard.KindChatSend); err != nil {
		return domain.Message{}, err
	}

	msg := domain.Message{
		ID:     uuid.NewString(),
		FromID: actorID,
		ToID:   targetID,
		Body:   body,
		SentAt: s.now(),
	}
	if err := s.messages.Put(ctx, msg); err != nil {
		return domain.Message{}, internal(err)
	}
	s.stats.IncrMessages(ctx)
	s.audit.DiscoveryAction(ctx, actorID, "chat_send", targetID, nil)
	return msg, nil
}

// History holds one conversation page plus the peer's live typing state.
type History struct {
	Messages   []domain.Message `json:"messages"`
	PeerTyping bool             `json:"peerTyping"`
}

// History returns the recent message window with the pair, oldest first.
func (s *Service) History(ctx context.Context, actorID, peerID string, limit int) (History, error) {
	if err := s.guard.Evaluate(ctx, actorID, peerID, guard.KindChatRead); err != nil {
		return History{}, err
	}
	if limit <= 0 {
		limit = historyDefault
	}
	if limit > historyMax {
		limit = historyMax
	}

	msgs, err := s.messages.ListBetween(ctx, actorID, peerID, limit)
	if err != nil {
		return History{}, internal(err)
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return History{Messages: msgs, PeerTyping: s.isTyping(ctx, peerID, actorID)}, nil
}

// Typing marks the actor as typing toward the target for a few seconds. The
// TTL is the whole protocol: there is no explicit clear.
func (s *Service) Typing(ctx context.Context, actorID, targetID string) error {
	if err := s.guard.Evaluate(ctx, actorID, targetID, guard.KindChatSend); err != nil {
		return err
	}
	if s.rdb == nil {
		return nil
	}
	if err := s.rdb.SetEx(ctx, typingKey(actorID, targetID), "1", typingTTL).Err(); err != nil {
		return internal(err)
	}
	return nil
}

// MarkRead stamps ReadAt on the peer's messages to the actor sent at or
// before until, returning how many were updated.
func (s *Service) MarkRead(ctx context.Context, actorID, peerID string, until time.Time) (int, error) {
	if err := s.guard.Evaluate(ctx, actorID, peerID, guard.KindChatRead); err != nil {
		return 0, err
	}
	if until.IsZero() {
		until = s.now()
	}
	n, err := s.messages.MarkRead(ctx, peerID, actorID, until)
	if err != nil {
		return 0, internal(err)
	}
	return n, nil
}

func (s *Service) isTyping(ctx context.Context, fromID, toID string) bool {
	if s.rdb == nil {
		return false
	}
	n, err := s.rdb.Exists(ctx, typingKey(fromID, toID)).Result()
	return err == nil && n > 0
}

func typingKey(fromID, toID string) string {
	return fmt.Sprintf("typing:%s:%s", fromID, toID)
}

func internal(err error) error {
	return dErrors.New(dErrors.CodeInternal, err.Error())
}
