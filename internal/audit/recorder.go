// Package audit provides the append-only audit trail for every mutating action.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Entry represents a record stored in audit_logs.
type Entry struct {
	ActorID    int64
	ActorName  string
	Action     string
	EntityType string
	EntityID   string
	Details    string
	Metadata   map[string]any
	At         time.Time
}

// Execer abstracts pgxpool.Pool and pgx.Tx so audit writes can join the
// caller's transaction. A workflow mutation and its audit row commit together
// or not at all.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Recorder writes records into audit_logs.
type Recorder struct {
	db Execer
}

// NewRecorder returns a Recorder bound to a pool or transaction.
func NewRecorder(db Execer) *Recorder {
	return &Recorder{db: db}
}

// Record persists the log entry.
func (r *Recorder) Record(ctx context.Context, e Entry) error {
	if r == nil || r.db == nil {
		return errors.New("audit recorder not initialised")
	}
	if e.Action == "" || e.EntityType == "" || e.EntityID == "" {
		return errors.New("audit entry requires action/entity_type/entity_id")
	}
	metaJSON, err := json.Marshal(e.Metadata)
	if err != nil {
		return err
	}
	var at any
	if !e.At.IsZero() {
		at = e.At
	}
	_, err = r.db.Exec(ctx, `INSERT INTO audit_logs (actor_id, actor_name, action, entity_type, entity_id, details, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, NOW()))`,
		e.ActorID, e.ActorName, e.Action, e.EntityType, e.EntityID, e.Details, metaJSON, at)
	return err
}
