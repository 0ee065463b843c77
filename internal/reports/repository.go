package reports

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads report source data.
type Repository interface {
	Users(ctx context.Context, departmentID *int64) ([]UserRef, error)
	WorkedHoursByWeek(ctx context.Context, f Filters) ([]WeeklyHours, error)
	ApprovedPTOHours(ctx context.Context, f Filters) ([]PTOHours, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the postgres-backed reports repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) Users(ctx context.Context, departmentID *int64) ([]UserRef, error) {
	query := `SELECT p.id, p.full_name, COALESCE(d.name, '')
FROM profiles p
LEFT JOIN departments d ON d.id = p.department_id
WHERE p.is_active`
	args := []any{}
	if departmentID != nil {
		query += ` AND p.department_id = $1`
		args = append(args, *departmentID)
	}
	query += ` ORDER BY p.full_name ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UserRef
	for rows.Next() {
		var u UserRef
		if err := rows.Scan(&u.ID, &u.Name, &u.Department); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *pgRepository) WorkedHoursByWeek(ctx context.Context, f Filters) ([]WeeklyHours, error) {
	query := `SELECT t.user_id, date_trunc('week', t.start_time) AS week_start,
SUM(EXTRACT(EPOCH FROM (t.end_time - t.start_time)) / 3600.0)
FROM time_entries t
JOIN profiles p ON p.id = t.user_id
WHERE t.end_time IS NOT NULL AND t.start_time >= $1 AND t.start_time < $2`
	args := []any{f.From, f.To}
	if f.DepartmentID != nil {
		query += ` AND p.department_id = $3`
		args = append(args, *f.DepartmentID)
	}
	query += ` GROUP BY t.user_id, week_start`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WeeklyHours
	for rows.Next() {
		var w WeeklyHours
		if err := rows.Scan(&w.UserID, &w.WeekStart, &w.Hours); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *pgRepository) ApprovedPTOHours(ctx context.Context, f Filters) ([]PTOHours, error) {
	query := `SELECT r.user_id, SUM(r.total_hours)
FROM pto_requests r
JOIN profiles p ON p.id = r.user_id
WHERE r.status = 'approved' AND r.start_date >= $1 AND r.start_date < $2`
	args := []any{f.From, f.To}
	if f.DepartmentID != nil {
		query += ` AND p.department_id = $3`
		args = append(args, *f.DepartmentID)
	}
	query += ` GROUP BY r.user_id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PTOHours
	for rows.Next() {
		var p PTOHours
		if err := rows.Scan(&p.UserID, &p.Hours); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
