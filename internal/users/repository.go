package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists profiles.
type Repository interface {
	List(ctx context.Context) ([]Profile, error)
	Get(ctx context.Context, id int64) (*Profile, error)
	Create(ctx context.Context, p *Profile, passwordHash string) error
	Update(ctx context.Context, p *Profile) error
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the postgres-backed profile repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const profileColumns = `id, email, full_name, role, department_id, is_active, created_at, updated_at`

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.Email, &p.FullName, &p.Role, &p.DepartmentID, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *pgRepository) List(ctx context.Context) ([]Profile, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY full_name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *pgRepository) Get(ctx context.Context, id int64) (*Profile, error) {
	return scanProfile(r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
}

func (r *pgRepository) Create(ctx context.Context, p *Profile, passwordHash string) error {
	err := r.pool.QueryRow(ctx, `INSERT INTO profiles (email, full_name, password_hash, role, department_id, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, TRUE, NOW(), NOW())
RETURNING id, created_at, updated_at`,
		p.Email, p.FullName, passwordHash, p.Role, p.DepartmentID).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return err
	}
	p.IsActive = true
	return nil
}

func (r *pgRepository) Update(ctx context.Context, p *Profile) error {
	tag, err := r.pool.Exec(ctx, `UPDATE profiles
SET full_name = $2, role = $3, department_id = $4, is_active = $5, updated_at = NOW()
WHERE id = $1`,
		p.ID, p.FullName, p.Role, p.DepartmentID, p.IsActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
