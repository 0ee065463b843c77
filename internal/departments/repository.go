package departments

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists departments.
type Repository interface {
	List(ctx context.Context) ([]Department, error)
	Get(ctx context.Context, id int64) (*Department, error)
	Create(ctx context.Context, d *Department) error
	Update(ctx context.Context, d *Department) error
	Delete(ctx context.Context, id int64) error
	MemberCount(ctx context.Context, id int64) (int, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the postgres-backed department repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) List(ctx context.Context) ([]Department, error) {
	rows, err := r.pool.Query(ctx, `SELECT d.id, d.name, COALESCE(d.description, ''), d.manager_id, d.created_at,
(SELECT COUNT(*) FROM profiles p WHERE p.department_id = d.id AND p.is_active) AS member_count
FROM departments d
ORDER BY d.name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Department
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.ManagerID, &d.CreatedAt, &d.MemberCount); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *pgRepository) Get(ctx context.Context, id int64) (*Department, error) {
	var d Department
	err := r.pool.QueryRow(ctx, `SELECT d.id, d.name, COALESCE(d.description, ''), d.manager_id, d.created_at,
(SELECT COUNT(*) FROM profiles p WHERE p.department_id = d.id AND p.is_active) AS member_count
FROM departments d WHERE d.id = $1`, id).
		Scan(&d.ID, &d.Name, &d.Description, &d.ManagerID, &d.CreatedAt, &d.MemberCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *pgRepository) Create(ctx context.Context, d *Department) error {
	err := r.pool.QueryRow(ctx, `INSERT INTO departments (name, description, manager_id, created_at)
VALUES ($1, $2, $3, NOW())
RETURNING id, created_at`, d.Name, d.Description, d.ManagerID).
		Scan(&d.ID, &d.CreatedAt)
	return translateUnique(err)
}

func (r *pgRepository) Update(ctx context.Context, d *Department) error {
	tag, err := r.pool.Exec(ctx, `UPDATE departments SET name = $2, description = $3, manager_id = $4 WHERE id = $1`,
		d.ID, d.Name, d.Description, d.ManagerID)
	if err != nil {
		return translateUnique(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgRepository) MemberCount(ctx context.Context, id int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM profiles WHERE department_id = $1 AND is_active`, id).Scan(&n)
	return n, err
}

func translateUnique(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateName
	}
	return err
}
