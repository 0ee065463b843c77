package notify

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Execer abstracts pgxpool.Pool and pgx.Tx so an enqueue can join the
// caller's transaction. If the workflow rolls back, no message is left behind.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Enqueue inserts a pending message into notification_queue.
func Enqueue(ctx context.Context, db Execer, m Message) error {
	if db == nil {
		return errors.New("notify: execer not initialised")
	}
	if m.Recipient == "" {
		return errors.New("notify: recipient required")
	}
	if m.Subject == "" {
		return errors.New("notify: subject required")
	}
	metaJSON, err := json.Marshal(m.Metadata)
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, `INSERT INTO notification_queue (recipient, subject, body, status, attempts, metadata, created_at)
VALUES ($1, $2, $3, 'pending', 0, $4, NOW())`,
		m.Recipient, m.Subject, m.Body, metaJSON)
	return err
}
