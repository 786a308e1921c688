// Package postgres implements the store contracts on pgx. Collections map to
// tables one-to-one; exclusion filters use = ANY($1) so candidate queries stay
// a single round trip bounded by the fetch ceiling.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"kindred/internal/domain"
	"kindred/internal/store"
)

// New connects a pool and returns the wired store bundle.
func New(ctx context.Context, databaseURL string) (*store.Store, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}
	return FromPool(pool), pool, nil
}

// FromPool wires the bundle onto an existing pool (tests, shared pools).
func FromPool(pool *pgxpool.Pool) *store.Store {
	return &store.Store{
		Users:     &users{pool},
		Profiles:  &profiles{pool},
		Privacy:   &privacy{pool},
		Discovery: &discovery{pool},
		Blocks:    &blocks{pool},
		Likes:     &likes{pool},
		Matches:   &matches{pool},
		Reports:   &reports{pool},
		Flags:     &flags{pool},
		Messages:  &messages{pool},
		Locations: &locations{pool},
	}
}

func excludeList(exclude map[string]struct{}) []string {
	out := make([]string, 0, len(exclude))
	for id := range exclude {
		out = append(out, id)
	}
	return out
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

type users struct{ pool *pgxpool.Pool }

func (s *users) Get(ctx context.Context, id string) (domain.User, error) {
	var u domain.User
	err := s.pool.QueryRow(ctx, `
		SELECT id, display_name, role, verified, shadow_banned, shadow_reason,
		       shadow_at, blocked, block_reason, premium, premium_until, deleted, created_at
		FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.DisplayName, &u.Role, &u.Verified, &u.ShadowBanned, &u.ShadowReason,
			&u.ShadowAt, &u.Blocked, &u.BlockReason, &u.Premium, &u.PremiumUntil, &u.Deleted, &u.CreatedAt)
	return u, notFound(err)
}

func (s *users) Put(ctx context.Context, u domain.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, display_name, role, verified, shadow_banned, shadow_reason,
		                   shadow_at, blocked, block_reason, premium, premium_until, deleted, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (id) DO UPDATE SET
		    display_name = EXCLUDED.display_name, role = EXCLUDED.role,
		    verified = EXCLUDED.verified, shadow_banned = EXCLUDED.shadow_banned,
		    shadow_reason = EXCLUDED.shadow_reason, shadow_at = EXCLUDED.shadow_at,
		    blocked = EXCLUDED.blocked, block_reason = EXCLUDED.block_reason,
		    premium = EXCLUDED.premium, premium_until = EXCLUDED.premium_until,
		    deleted = EXCLUDED.deleted`,
		u.ID, u.DisplayName, u.Role, u.Verified, u.ShadowBanned, u.ShadowReason,
		u.ShadowAt, u.Blocked, u.BlockReason, u.Premium, u.PremiumUntil, u.Deleted, u.CreatedAt)
	return err
}

type profiles struct{ pool *pgxpool.Pool }

func (s *profiles) Get(ctx context.Context, userID string) (domain.Profile, error) {
	var p domain.Profile
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, pronouns, gender, orientation, intents, bio, birth_year,
		       city, has_coords, lat, lon, geohash, updated_at
		FROM profiles WHERE user_id = $1`, userID).
		Scan(&p.UserID, &p.Pronouns, &p.Gender, &p.Orientation, &p.Intents, &p.Bio, &p.BirthYear,
			&p.City, &p.HasCoords, &p.Coords.Lat, &p.Coords.Lon, &p.Geohash, &p.UpdatedAt)
	return p, notFound(err)
}

func (s *profiles) Put(ctx context.Context, p domain.Profile) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO profiles (user_id, pronouns, gender, orientation, intents, bio, birth_year,
		                      city, has_coords, lat, lon, geohash, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (user_id) DO UPDATE SET
		    pronouns = EXCLUDED.pronouns, gender = EXCLUDED.gender,
		    orientation = EXCLUDED.orientation, intents = EXCLUDED.intents,
		    bio = EXCLUDED.bio, birth_year = EXCLUDED.birth_year, city = EXCLUDED.city,
		    has_coords = EXCLUDED.has_coords, lat = EXCLUDED.lat, lon = EXCLUDED.lon,
		    geohash = EXCLUDED.geohash, updated_at = EXCLUDED.updated_at`,
		p.UserID, p.Pronouns, p.Gender, p.Orientation, p.Intents, p.Bio, p.BirthYear,
		p.City, p.HasCoords, p.Coords.Lat, p.Coords.Lon, p.Geohash, p.UpdatedAt)
	return err
}

func (s *profiles) Delete(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM profiles WHERE user_id = $1`, userID)
	return err
}

func (s *profiles) ListExcept(ctx context.Context, exclude map[string]struct{}, limit int) ([]domain.Profile, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT user_id, pronouns, gender, orientation, intents, bio, birth_year,
		       city, has_coords, lat, lon, geohash, updated_at
		FROM profiles
		WHERE NOT (user_id = ANY($1))
		ORDER BY updated_at DESC
		LIMIT $2`, excludeList(exclude), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Profile
	for rows.Next() {
		var p domain.Profile
		if err := rows.Scan(&p.UserID, &p.Pronouns, &p.Gender, &p.Orientation, &p.Intents,
			&p.Bio, &p.BirthYear, &p.City, &p.HasCoords, &p.Coords.Lat, &p.Coords.Lon,
			&p.Geohash, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type privacy struct{ pool *pgxpool.Pool }

func (s *privacy) Get(ctx context.Context, userID string) (domain.PrivacySettings, error) {
	var p domain.PrivacySettings
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, incognito, hide_distance, profile_visible, map_consent, map_consent_at
		FROM privacy_settings WHERE user_id = $1`, userID).
		Scan(&p.UserID, &p.Incognito, &p.HideDistance, &p.ProfileVisible, &p.MapConsent, &p.MapConsentAt)
	return p, notFound(err)
}

func (s *privacy) Put(ctx context.Context, p domain.PrivacySettings) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO privacy_settings (user_id, incognito, hide_distance, profile_visible, map_consent, map_consent_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (user_id) DO UPDATE SET
		    incognito = EXCLUDED.incognito, hide_distance = EXCLUDED.hide_distance,
		    profile_visible = EXCLUDED.profile_visible, map_consent = EXCLUDED.map_consent,
		    map_consent_at = EXCLUDED.map_consent_at`,
		p.UserID, p.Incognito, p.HideDistance, p.ProfileVisible, p.MapConsent, p.MapConsentAt)
	return err
}

func (s *privacy) Delete(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM privacy_settings WHERE user_id = $1`, userID)
	return err
}

type discovery struct{ pool *pgxpool.Pool }

func (s *discovery) Get(ctx context.Context, userID string) (domain.DiscoverySettings, error) {
	var d domain.DiscoverySettings
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, min_age, max_age, max_distance_km, gender_interest, intents
		FROM discovery_settings WHERE user_id = $1`, userID).
		Scan(&d.UserID, &d.MinAge, &d.MaxAge, &d.MaxDistanceKm, &d.GenderInterest, &d.Intents)
	return d, notFound(err)
}

func (s *discovery) Put(ctx context.Context, d domain.DiscoverySettings) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO discovery_settings (user_id, min_age, max_age, max_distance_km, gender_interest, intents)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (user_id) DO UPDATE SET
		    min_age = EXCLUDED.min_age, max_age = EXCLUDED.max_age,
		    max_distance_km = EXCLUDED.max_distance_km,
		    gender_interest = EXCLUDED.gender_interest, intents = EXCLUDED.intents`,
		d.UserID, d.MinAge, d.MaxAge, d.MaxDistanceKm, d.GenderInterest, d.Intents)
	return err
}

func (s *discovery) Delete(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM discovery_settings WHERE user_id = $1`, userID)
	return err
}

type blocks struct{ pool *pgxpool.Pool }

func (s *blocks) Put(ctx context.Context, b domain.Block) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO blocks (blocker_id, blocked_id, created_at)
		VALUES ($1,$2,$3) ON CONFLICT DO NOTHING`,
		b.BlockerID, b.BlockedID, b.CreatedAt)
	return err
}

func (s *blocks) Delete(ctx context.Context, blockerID, blockedID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM blocks WHERE blocker_id = $1 AND blocked_id = $2`,
		blockerID, blockedID)
	return err
}

func (s *blocks) ExistsBetween(ctx context.Context, a, b string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
		    SELECT 1 FROM blocks
		    WHERE (blocker_id = $1 AND blocked_id = $2)
		       OR (blocker_id = $2 AND blocked_id = $1)
		)`, a, b).Scan(&exists)
	return exists, err
}

func (s *blocks) BlockedBy(ctx context.Context, blockerID string) ([]string, error) {
	return s.idColumn(ctx, `SELECT blocked_id FROM blocks WHERE blocker_id = $1 ORDER BY blocked_id`, blockerID)
}

func (s *blocks) Blocking(ctx context.Context, blockedID string) ([]string, error) {
	return s.idColumn(ctx, `SELECT blocker_id FROM blocks WHERE blocked_id = $1 ORDER BY blocker_id`, blockedID)
}

func (s *blocks) idColumn(ctx context.Context, query, arg string) ([]string, error) {
	rows, err := s.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

type likes struct{ pool *pgxpool.Pool }

func (s *likes) Put(ctx context.Context, l domain.Like) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO likes (from_id, to_id, created_at)
		VALUES ($1,$2,$3) ON CONFLICT DO NOTHING`,
		l.FromID, l.ToID, l.CreatedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *likes) Exists(ctx context.Context, fromID, toID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM likes WHERE from_id = $1 AND to_id = $2)`,
		fromID, toID).Scan(&exists)
	return exists, err
}

func (s *likes) ListFrom(ctx context.Context, fromID string) ([]domain.Like, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT from_id, to_id, created_at FROM likes WHERE from_id = $1 ORDER BY to_id`, fromID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Like
	for rows.Next() {
		var l domain.Like
		if err := rows.Scan(&l.FromID, &l.ToID, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *likes) DeleteFrom(ctx context.Context, fromID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM likes WHERE from_id = $1`, fromID)
	return err
}

type matches struct{ pool *pgxpool.Pool }

func (s *matches) Upsert(ctx context.Context, m domain.Match) (bool, error) {
	// ON CONFLICT DO NOTHING on the canonical key is the single-match-per-pair
	// guarantee under concurrent reciprocal likes; the affected-row count
	// tells the caller which racer actually created the document.
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO matches (key, user_a, user_b, status, created_at)
		VALUES ($1,$2,$3,$4,$5) ON CONFLICT (key) DO NOTHING`,
		m.Key, m.UserA, m.UserB, m.Status, m.CreatedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *matches) Get(ctx context.Context, key string) (domain.Match, error) {
	var m domain.Match
	err := s.pool.QueryRow(ctx,
		`SELECT key, user_a, user_b, status, created_at FROM matches WHERE key = $1`, key).
		Scan(&m.Key, &m.UserA, &m.UserB, &m.Status, &m.CreatedAt)
	return m, notFound(err)
}

func (s *matches) ListForUser(ctx context.Context, userID string) ([]domain.Match, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT key, user_a, user_b, status, created_at
		FROM matches WHERE user_a = $1 OR user_b = $1 ORDER BY key`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Match
	for rows.Next() {
		var m domain.Match
		if err := rows.Scan(&m.Key, &m.UserA, &m.UserB, &m.Status, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *matches) SetStatus(ctx context.Context, key string, status domain.MatchStatus) error {
	tag, err := s.pool.Exec(ctx, `UPDATE matches SET status = $2 WHERE key = $1`, key, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

type reports struct{ pool *pgxpool.Pool }

func (s *reports) Put(ctx context.Context, r domain.Report) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO reports (id, reporter_id, target_id, reason, details, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		r.ID, r.ReporterID, r.TargetID, r.Reason, r.Details, r.Status, r.CreatedAt)
	return err
}

func (s *reports) HasPending(ctx context.Context, reporterID, targetID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
		    SELECT 1 FROM reports
		    WHERE reporter_id = $1 AND target_id = $2 AND status = 'PENDING'
		)`, reporterID, targetID).Scan(&exists)
	return exists, err
}

func (s *reports) CountPendingSince(ctx context.Context, targetID string, since time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM reports
		WHERE target_id = $1 AND status = 'PENDING' AND created_at >= $2`,
		targetID, since).Scan(&n)
	return n, err
}

func (s *reports) ListByReporter(ctx context.Context, reporterID string) ([]domain.Report, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, reporter_id, target_id, reason, details, status, created_at
		FROM reports WHERE reporter_id = $1 ORDER BY created_at`, reporterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Report
	for rows.Next() {
		var r domain.Report
		if err := rows.Scan(&r.ID, &r.ReporterID, &r.TargetID, &r.Reason, &r.Details, &r.Status, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type flags struct{ pool *pgxpool.Pool }

func (s *flags) Get(ctx context.Context, userID string) (domain.ModerationFlag, error) {
	var f domain.ModerationFlag
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, reason, report_count, flagged_at, extra
		FROM moderation_flags WHERE user_id = $1`, userID).
		Scan(&f.UserID, &f.Reason, &f.ReportCount, &f.FlaggedAt, &f.Extra)
	return f, notFound(err)
}

func (s *flags) Put(ctx context.Context, f domain.ModerationFlag) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO moderation_flags (user_id, reason, report_count, flagged_at, extra)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (user_id) DO UPDATE SET
		    reason = EXCLUDED.reason, report_count = EXCLUDED.report_count,
		    flagged_at = EXCLUDED.flagged_at, extra = EXCLUDED.extra`,
		f.UserID, f.Reason, f.ReportCount, f.FlaggedAt, f.Extra)
	return err
}

type messages struct{ pool *pgxpool.Pool }

func (s *messages) Put(ctx context.Context, m domain.Message) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO messages (id, from_id, to_id, body, sent_at, read_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		m.ID, m.FromID, m.ToID, m.Body, m.SentAt, m.ReadAt)
	return err
}

func (s *messages) ListBetween(ctx context.Context, a, b string, limit int) ([]domain.Message, error) {
	// Most recent window, returned oldest-first.
	rows, err := s.pool.Query(ctx, `
		SELECT id, from_id, to_id, body, sent_at, read_at FROM (
		    SELECT id, from_id, to_id, body, sent_at, read_at
		    FROM messages
		    WHERE (from_id = $1 AND to_id = $2) OR (from_id = $2 AND to_id = $1)
		    ORDER BY sent_at DESC, id DESC
		    LIMIT $3
		) window ORDER BY sent_at ASC, id ASC`, a, b, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.FromID, &m.ToID, &m.Body, &m.SentAt, &m.ReadAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *messages) MarkRead(ctx context.Context, fromID, toID string, until time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE messages SET read_at = $3
		WHERE from_id = $1 AND to_id = $2 AND read_at IS NULL AND sent_at <= $3`,
		fromID, toID, until)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

type locations struct{ pool *pgxpool.Pool }

func (s *locations) Get(ctx context.Context, userID string) (domain.Location, error) {
	var l domain.Location
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, lat, lon, geohash, updated_at FROM locations WHERE user_id = $1`, userID).
		Scan(&l.UserID, &l.Coords.Lat, &l.Coords.Lon, &l.Geohash, &l.UpdatedAt)
	return l, notFound(err)
}

func (s *locations) Put(ctx context.Context, l domain.Location) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO locations (user_id, lat, lon, geohash, updated_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (user_id) DO UPDATE SET
		    lat = EXCLUDED.lat, lon = EXCLUDED.lon,
		    geohash = EXCLUDED.geohash, updated_at = EXCLUDED.updated_at`,
		l.UserID, l.Coords.Lat, l.Coords.Lon, l.Geohash, l.UpdatedAt)
	return err
}

func (s *locations) Delete(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM locations WHERE user_id = $1`, userID)
	return err
}

func (s *locations) ListExcept(ctx context.Context, exclude map[string]struct{}, limit int) ([]domain.Location, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT user_id, lat, lon, geohash, updated_at
		FROM locations
		WHERE NOT (user_id = ANY($1))
		ORDER BY updated_at DESC
		LIMIT $2`, excludeList(exclude), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Location
	for rows.Next() {
		var l domain.Location
		if err := rows.Scan(&l.UserID, &l.Coords.Lat, &l.Coords.Lon, &l.Geohash, &l.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
