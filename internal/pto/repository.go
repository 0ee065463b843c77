package pto

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/timewise-hq/timewise/internal/audit"
	"github.com/timewise-hq/timewise/internal/notify"
	"github.com/timewise-hq/timewise/internal/platform/db"
)

// Repository defines PTO persistence.
type Repository interface {
	GetRequest(ctx context.Context, id uuid.UUID) (*Request, error)
	ListByUser(ctx context.Context, userID int64) ([]Request, error)
	ListPending(ctx context.Context, departmentID *int64) ([]PendingRequest, error)
	GetBalance(ctx context.Context, userID int64) (*Balance, error)
	// EnsureBalance lazily creates the user's ledger row with the starting
	// allotment. ON CONFLICT DO NOTHING makes concurrent first reads converge
	// on a single row.
	EnsureBalance(ctx context.Context, userID int64, initialHours float64) (*Balance, error)
	UserContact(ctx context.Context, userID int64) (*Contact, error)
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
}

// TxRepository exposes the writes that must share one transaction: the state
// transition, the balance mutation, the audit row and the queued notification
// commit together or not at all.
type TxRepository interface {
	InsertRequest(ctx context.Context, req *Request) error
	// TransitionStatus moves a request out of pending. It reports false when
	// the request was no longer pending, which is how a lost race surfaces.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to Status, approverID *int64, note string, at *time.Time) (bool, error)
	LockBalance(ctx context.Context, userID int64) (*Balance, error)
	UpdateBalance(ctx context.Context, b *Balance) error
	RecordAudit(ctx context.Context, e audit.Entry) error
	EnqueueNotification(ctx context.Context, m notify.Message) error
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the postgres-backed PTO repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const requestColumns = `id, user_id, type, start_date, end_date, partial_day_hours, total_hours,
COALESCE(note, ''), status, approver_id, COALESCE(approver_note, ''), approved_at, created_at`

func scanRequest(row pgx.Row) (*Request, error) {
	var req Request
	err := row.Scan(&req.ID, &req.UserID, &req.Type, &req.StartDate, &req.EndDate,
		&req.PartialDayHours, &req.TotalHours, &req.Note, &req.Status,
		&req.ApproverID, &req.ApproverNote, &req.ApprovedAt, &req.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *pgRepository) GetRequest(ctx context.Context, id uuid.UUID) (*Request, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM pto_requests WHERE id = $1`, id)
	return scanRequest(row)
}

func (r *pgRepository) ListByUser(ctx context.Context, userID int64) ([]Request, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+requestColumns+`
FROM pto_requests WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *req)
	}
	return out, rows.Err()
}

func (r *pgRepository) ListPending(ctx context.Context, departmentID *int64) ([]PendingRequest, error) {
	query := `SELECT r.id, r.user_id, r.type, r.start_date, r.end_date, r.partial_day_hours, r.total_hours,
COALESCE(r.note, ''), r.status, r.approver_id, COALESCE(r.approver_note, ''), r.approved_at, r.created_at,
p.full_name, p.email, p.department_id
FROM pto_requests r
JOIN profiles p ON p.id = r.user_id
WHERE r.status = 'pending'`
	args := []any{}
	if departmentID != nil {
		query += ` AND p.department_id = $1`
		args = append(args, *departmentID)
	}
	query += ` ORDER BY r.created_at ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PendingRequest
	for rows.Next() {
		var pr PendingRequest
		err := rows.Scan(&pr.ID, &pr.UserID, &pr.Type, &pr.StartDate, &pr.EndDate,
			&pr.PartialDayHours, &pr.TotalHours, &pr.Note, &pr.Status,
			&pr.ApproverID, &pr.ApproverNote, &pr.ApprovedAt, &pr.CreatedAt,
			&pr.UserName, &pr.UserEmail, &pr.DepartmentID)
		if err != nil {
			return nil, err
		}
		out = append(out, pr)
	}
	return out, rows.Err()
}

const balanceColumns = `id, user_id, balance_hours, accrued_hours, used_hours, version, updated_at`

func (r *pgRepository) GetBalance(ctx context.Context, userID int64) (*Balance, error) {
	var b Balance
	err := r.pool.QueryRow(ctx, `SELECT `+balanceColumns+` FROM pto_balances WHERE user_id = $1`, userID).
		Scan(&b.ID, &b.UserID, &b.BalanceHours, &b.AccruedHours, &b.UsedHours, &b.Version, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *pgRepository) EnsureBalance(ctx context.Context, userID int64, initialHours float64) (*Balance, error) {
	_, err := r.pool.Exec(ctx, `INSERT INTO pto_balances (user_id, balance_hours, accrued_hours, used_hours, version, updated_at)
VALUES ($1, $2, $2, 0, 1, NOW())
ON CONFLICT (user_id) DO NOTHING`, userID, initialHours)
	if err != nil {
		return nil, err
	}
	return r.GetBalance(ctx, userID)
}

func (r *pgRepository) UserContact(ctx context.Context, userID int64) (*Contact, error) {
	var c Contact
	err := r.pool.QueryRow(ctx, `SELECT full_name, email, department_id FROM profiles WHERE id = $1`, userID).
		Scan(&c.Name, &c.Email, &c.DepartmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *pgRepository) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgTxRepository{tx: tx})
	})
}

type pgTxRepository struct {
	tx pgx.Tx
}

func (r *pgTxRepository) InsertRequest(ctx context.Context, req *Request) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO pto_requests
(id, user_id, type, start_date, end_date, partial_day_hours, total_hours, note, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		req.ID, req.UserID, req.Type, req.StartDate, req.EndDate,
		req.PartialDayHours, req.TotalHours, req.Note, req.Status, req.CreatedAt)
	return err
}

func (r *pgTxRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to Status, approverID *int64, note string, at *time.Time) (bool, error) {
	tag, err := r.tx.Exec(ctx, `UPDATE pto_requests
SET status = $3, approver_id = $4, approver_note = $5, approved_at = $6
WHERE id = $1 AND status = $2`,
		id, from, to, approverID, note, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *pgTxRepository) LockBalance(ctx context.Context, userID int64) (*Balance, error) {
	var b Balance
	err := r.tx.QueryRow(ctx, `SELECT `+balanceColumns+` FROM pto_balances WHERE user_id = $1 FOR UPDATE`, userID).
		Scan(&b.ID, &b.UserID, &b.BalanceHours, &b.AccruedHours, &b.UsedHours, &b.Version, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *pgTxRepository) UpdateBalance(ctx context.Context, b *Balance) error {
	tag, err := r.tx.Exec(ctx, `UPDATE pto_balances
SET balance_hours = $2, accrued_hours = $3, used_hours = $4, version = version + 1, updated_at = NOW()
WHERE id = $1 AND version = $5`,
		b.ID, b.BalanceHours, b.AccruedHours, b.UsedHours, b.Version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update balance %d: %w", b.ID, ErrStaleBalance)
	}
	b.Version++
	return nil
}

func (r *pgTxRepository) RecordAudit(ctx context.Context, e audit.Entry) error {
	return audit.NewRecorder(r.tx).Record(ctx, e)
}

func (r *pgTxRepository) EnqueueNotification(ctx context.Context, m notify.Message) error {
	return notify.Enqueue(ctx, r.tx, m)
}
