package audit

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists audit entries to the audit_log table. A bigserial
// sequence column preserves insertion order per actor.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Append(ctx context.Context, e Entry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_log (id, actor_id, target_id, action, details, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		e.ID, e.ActorID, e.TargetID, e.Action, e.Details, e.CreatedAt)
	return err
}

func (s *PostgresStore) ListByActor(ctx context.Context, actorID string) ([]Entry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, actor_id, target_id, action, details, created_at
		FROM audit_log WHERE actor_id = $1 ORDER BY seq`, actorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.TargetID, &e.Action, &e.Details, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
