package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"kindred/internal/domain"
	"kindred/internal/platform/redis"
)

// Stats maintains the daily aggregate counters in redis via atomic INCR,
// keyed by UTC calendar day. With no redis configured the counters are
// no-ops; they are telemetry, not state the request depends on.
type Stats struct {
	rdb *redis.Client
	log *slog.Logger
	now func() time.Time
}

func NewStats(rdb *redis.Client, log *slog.Logger) *Stats {
	return &Stats{rdb: rdb, log: log, now: time.Now}
}

func (s *Stats) IncrLikes(ctx context.Context)    { s.incr(ctx, "likes") }
func (s *Stats) IncrMatches(ctx context.Context)  { s.incr(ctx, "matches") }
func (s *Stats) IncrMessages(ctx context.Context) { s.incr(ctx, "messages") }

func (s *Stats) incr(ctx context.Context, field string) {
	if s.rdb == nil {
		return
	}
	key := statsKey(domain.StatsDay(s.now()), field)
	if err := s.rdb.Incr(ctx, key).Err(); err != nil {
		s.log.WarnContext(ctx, "daily stats increment failed", "key", key, "error", err)
	}
}

// Day reads back one day's counters.
func (s *Stats) Day(ctx context.Context, day string) (domain.DailyStats, error) {
	out := domain.DailyStats{Day: day}
	if s.rdb == nil {
		return out, nil
	}
	for field, dst := range map[string]*int64{
		"likes":    &out.Likes,
		"matches":  &out.Matches,
		"messages": &out.Messages,
	} {
		n, err := s.rdb.Get(ctx, statsKey(day, field)).Int64()
		if err != nil && !errors.Is(err, goredis.Nil) {
			return domain.DailyStats{}, err
		}
		*dst = n
	}
	return out, nil
}

func statsKey(day, field string) string {
	return fmt.Sprintf("stats:%s:%s", day, field)
}
