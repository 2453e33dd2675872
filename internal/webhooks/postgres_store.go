package webhooks

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore keeps processed event ids in processed_webhook_events.
type PostgresStore struct {
	db execer
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("webhooks: pgx pool required")
	}
	return &PostgresStore{db: pool}
}

func newPostgresStoreWithExec(db execer) *PostgresStore {
	if db == nil {
		panic("webhooks: exec required")
	}
	return &PostgresStore{db: db}
}

func (s *PostgresStore) MarkProcessed(ctx context.Context, processor, eventID string) (bool, error) {
	query := `
		INSERT INTO processed_webhook_events (processor, event_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	ct, err := s.db.Exec(ctx, query, processor, eventID)
	if err != nil {
		return false, fmt.Errorf("webhooks: mark processed: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func (s *PostgresStore) Forget(ctx context.Context, processor, eventID string) error {
	query := `DELETE FROM processed_webhook_events WHERE processor = $1 AND event_id = $2`
	if _, err := s.db.Exec(ctx, query, processor, eventID); err != nil {
		return fmt.Errorf("webhooks: forget processed: %w", err)
	}
	return nil
}
