package company

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/timewise-hq/timewise/internal/shared"
)

// Repository persists the settings singleton.
type Repository interface {
	Get(ctx context.Context) (*Settings, error)
	Upsert(ctx context.Context, s *Settings) error
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the postgres-backed settings repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) Get(ctx context.Context) (*Settings, error) {
	var s Settings
	err := r.pool.QueryRow(ctx, `SELECT id, company_name, workday_hours, overtime_threshold_hours, default_pto_allotment_hours, updated_at
FROM company_settings WHERE id = 1`).
		Scan(&s.ID, &s.CompanyName, &s.WorkdayHours, &s.OvertimeThresholdHours, &s.DefaultPTOAllotmentHours, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *pgRepository) Upsert(ctx context.Context, s *Settings) error {
	// The fixed id pins the table to one row.
	return r.pool.QueryRow(ctx, `INSERT INTO company_settings (id, company_name, workday_hours, overtime_threshold_hours, default_pto_allotment_hours, updated_at)
VALUES (1, $1, $2, $3, $4, NOW())
ON CONFLICT (id) DO UPDATE SET
  company_name = EXCLUDED.company_name,
  workday_hours = EXCLUDED.workday_hours,
  overtime_threshold_hours = EXCLUDED.overtime_threshold_hours,
  default_pto_allotment_hours = EXCLUDED.default_pto_allotment_hours,
  updated_at = NOW()
RETURNING id, updated_at`,
		s.CompanyName, s.WorkdayHours, s.OvertimeThresholdHours, s.DefaultPTOAllotmentHours).
		Scan(&s.ID, &s.UpdatedAt)
}
