package notify

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines queue persistence used by the dispatcher.
type Repository interface {
	ListPending(ctx context.Context, limit int) ([]Message, error)
	MarkSent(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, cause string) error
	PendingCount(ctx context.Context) (int, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the postgres-backed queue repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) ListPending(ctx context.Context, limit int) ([]Message, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, recipient, subject, body, status, attempts, COALESCE(last_error, ''), metadata, created_at, sent_at
FROM notification_queue
WHERE status = 'pending'
ORDER BY created_at ASC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Recipient, &m.Subject, &m.Body, &m.Status, &m.Attempts, &m.LastError, &m.Metadata, &m.CreatedAt, &m.SentAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (r *pgRepository) MarkSent(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE notification_queue
SET status = 'sent', sent_at = $2, attempts = attempts + 1, last_error = NULL
WHERE id = $1`, id, time.Now())
	return err
}

func (r *pgRepository) MarkFailed(ctx context.Context, id int64, cause string) error {
	// Stays pending until MaxAttempts so the next run retries it.
	_, err := r.pool.Exec(ctx, `UPDATE notification_queue
SET attempts = attempts + 1,
    last_error = $2,
    status = CASE WHEN attempts + 1 >= $3 THEN 'failed' ELSE 'pending' END
WHERE id = $1`, id, cause, MaxAttempts)
	return err
}

func (r *pgRepository) PendingCount(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notification_queue WHERE status = 'pending'`).Scan(&n)
	return n, err
}
