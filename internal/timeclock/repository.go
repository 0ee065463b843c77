package timeclock

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists time entries.
type Repository interface {
	OpenEntry(ctx context.Context, userID int64) (*Entry, error)
	Insert(ctx context.Context, e *Entry) error
	// CloseOpenEntry stamps the user's single open entry. ErrNotClockedIn when
	// none exists; the conditional update makes concurrent clock-outs safe.
	CloseOpenEntry(ctx context.Context, userID int64, at time.Time) (*Entry, error)
	ListRange(ctx context.Context, userID int64, from, to time.Time) ([]Entry, error)
	LivePresence(ctx context.Context, departmentID *int64) ([]PresenceRow, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the postgres-backed timeclock repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const entryColumns = `id, user_id, start_time, end_time, source, COALESCE(note, ''), created_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.UserID, &e.StartTime, &e.EndTime, &e.Source, &e.Note, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *pgRepository) OpenEntry(ctx context.Context, userID int64) (*Entry, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+entryColumns+`
FROM time_entries WHERE user_id = $1 AND end_time IS NULL
ORDER BY start_time DESC LIMIT 1`, userID)
	return scanEntry(row)
}

func (r *pgRepository) Insert(ctx context.Context, e *Entry) error {
	return r.pool.QueryRow(ctx, `INSERT INTO time_entries (user_id, start_time, end_time, source, note, created_at)
VALUES ($1, $2, $3, $4, $5, NOW())
RETURNING id, created_at`,
		e.UserID, e.StartTime, e.EndTime, e.Source, e.Note).
		Scan(&e.ID, &e.CreatedAt)
}

func (r *pgRepository) CloseOpenEntry(ctx context.Context, userID int64, at time.Time) (*Entry, error) {
	row := r.pool.QueryRow(ctx, `UPDATE time_entries
SET end_time = $2
WHERE user_id = $1 AND end_time IS NULL
RETURNING `+entryColumns, userID, at)
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotClockedIn
		}
		return nil, err
	}
	return e, nil
}

func (r *pgRepository) ListRange(ctx context.Context, userID int64, from, to time.Time) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+entryColumns+`
FROM time_entries
WHERE user_id = $1 AND start_time >= $2 AND start_time < $3
ORDER BY start_time ASC`, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *pgRepository) LivePresence(ctx context.Context, departmentID *int64) ([]PresenceRow, error) {
	query := `SELECT t.user_id, p.full_name, p.department_id, t.start_time
FROM time_entries t
JOIN profiles p ON p.id = t.user_id
WHERE t.end_time IS NULL`
	args := []any{}
	if departmentID != nil {
		query += ` AND p.department_id = $1`
		args = append(args, *departmentID)
	}
	query += ` ORDER BY t.start_time ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PresenceRow
	for rows.Next() {
		var p PresenceRow
		if err := rows.Scan(&p.UserID, &p.UserName, &p.DepartmentID, &p.ClockedInAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
