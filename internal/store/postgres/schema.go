package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the DDL for every collection. Migrate applies it idempotently at
// startup; a real migration tool can take over once the schema stops moving.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    display_name  TEXT NOT NULL DEFAULT '',
    role          TEXT NOT NULL DEFAULT 'user',
    verified      BOOLEAN NOT NULL DEFAULT FALSE,
    shadow_banned BOOLEAN NOT NULL DEFAULT FALSE,
    shadow_reason TEXT NOT NULL DEFAULT '',
    shadow_at     TIMESTAMPTZ,
    blocked       BOOLEAN NOT NULL DEFAULT FALSE,
    block_reason  TEXT NOT NULL DEFAULT '',
    premium       BOOLEAN NOT NULL DEFAULT FALSE,
    premium_until TIMESTAMPTZ,
    deleted       BOOLEAN NOT NULL DEFAULT FALSE,
    created_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS profiles (
    user_id     TEXT PRIMARY KEY REFERENCES users(id),
    pronouns    TEXT NOT NULL DEFAULT '',
    gender      TEXT NOT NULL DEFAULT '',
    orientation TEXT[] NOT NULL DEFAULT '{}',
    intents     TEXT[] NOT NULL DEFAULT '{}',
    bio         TEXT NOT NULL DEFAULT '',
    birth_year  INT NOT NULL DEFAULT 0,
    city        TEXT NOT NULL DEFAULT '',
    has_coords  BOOLEAN NOT NULL DEFAULT FALSE,
    lat         DOUBLE PRECISION NOT NULL DEFAULT 0,
    lon         DOUBLE PRECISION NOT NULL DEFAULT 0,
    geohash     TEXT NOT NULL DEFAULT '',
    updated_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS privacy_settings (
    user_id         TEXT PRIMARY KEY REFERENCES users(id),
    incognito       BOOLEAN NOT NULL DEFAULT FALSE,
    hide_distance   BOOLEAN NOT NULL DEFAULT FALSE,
    profile_visible BOOLEAN NOT NULL DEFAULT TRUE,
    map_consent     BOOLEAN NOT NULL DEFAULT FALSE,
    map_consent_at  TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS discovery_settings (
    user_id         TEXT PRIMARY KEY REFERENCES users(id),
    min_age         INT NOT NULL,
    max_age         INT NOT NULL,
    max_distance_km INT NOT NULL,
    gender_interest TEXT[] NOT NULL DEFAULT '{}',
    intents         TEXT[] NOT NULL DEFAULT '{}',
    CONSTRAINT age_window CHECK (min_age <= max_age)
);

CREATE TABLE IF NOT EXISTS blocks (
    blocker_id TEXT NOT NULL,
    blocked_id TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (blocker_id, blocked_id)
);
CREATE INDEX IF NOT EXISTS blocks_blocked_idx ON blocks (blocked_id);

CREATE TABLE IF NOT EXISTS likes (
    from_id    TEXT NOT NULL,
    to_id      TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (from_id, to_id)
);
CREATE INDEX IF NOT EXISTS likes_to_idx ON likes (to_id);

CREATE TABLE IF NOT EXISTS matches (
    key        TEXT PRIMARY KEY,
    user_a     TEXT NOT NULL,
    user_b     TEXT NOT NULL,
    status     TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS matches_user_a_idx ON matches (user_a);
CREATE INDEX IF NOT EXISTS matches_user_b_idx ON matches (user_b);

CREATE TABLE IF NOT EXISTS reports (
    id          TEXT PRIMARY KEY,
    reporter_id TEXT NOT NULL,
    target_id   TEXT NOT NULL,
    reason      TEXT NOT NULL,
    details     TEXT NOT NULL DEFAULT '',
    status      TEXT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS reports_target_idx ON reports (target_id, status, created_at);

CREATE TABLE IF NOT EXISTS moderation_flags (
    user_id      TEXT PRIMARY KEY,
    reason       TEXT NOT NULL,
    report_count INT NOT NULL,
    flagged_at   TIMESTAMPTZ NOT NULL,
    extra        JSONB NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS messages (
    id      TEXT PRIMARY KEY,
    from_id TEXT NOT NULL,
    to_id   TEXT NOT NULL,
    body    TEXT NOT NULL,
    sent_at TIMESTAMPTZ NOT NULL,
    read_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS messages_pair_idx ON messages (from_id, to_id, sent_at);

CREATE TABLE IF NOT EXISTS locations (
    user_id    TEXT PRIMARY KEY,
    lat        DOUBLE PRECISION NOT NULL,
    lon        DOUBLE PRECISION NOT NULL,
    geohash    TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_log (
    seq        BIGSERIAL PRIMARY KEY,
    id         TEXT NOT NULL,
    actor_id   TEXT NOT NULL,
    target_id  TEXT NOT NULL DEFAULT '',
    action     TEXT NOT NULL,
    details    JSONB NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS audit_log_actor_idx ON audit_log (actor_id, seq);
`

// Migrate applies the schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, Schema)
	return err
}
