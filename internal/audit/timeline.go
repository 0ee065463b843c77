package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/timewise-hq/timewise/internal/shared"
)

// TimelineFilters narrow the audit timeline query.
type TimelineFilters struct {
	ActorID      int64
	ActionPrefix string
	EntityType   string
	EntityID     string
	From         time.Time
	To           time.Time
	Page         int
	PerPage      int
}

// TimelineRow is one line of the audit timeline.
type TimelineRow struct {
	ID         int64          `json:"id"`
	ActorID    int64          `json:"actor_id"`
	ActorName  string         `json:"actor_name"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Details    string         `json:"details"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	At         time.Time      `json:"created_at"`
}

// Result bundles timeline rows with pagination metadata.
type Result struct {
	Rows   []TimelineRow     `json:"rows"`
	Paging shared.Pagination `json:"paging"`
}

// TimelineService reads the audit trail back out for inspection.
type TimelineService struct {
	pool *pgxpool.Pool
}

// NewTimelineService constructs a TimelineService.
func NewTimelineService(pool *pgxpool.Pool) *TimelineService {
	return &TimelineService{pool: pool}
}

// Timeline returns a filtered, paginated slice of the audit trail, newest first.
func (s *TimelineService) Timeline(ctx context.Context, f TimelineFilters) (Result, error) {
	where, args := buildTimelineWhere(f)

	countQuery := "SELECT COUNT(*) FROM audit_logs" + where
	var total int
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return Result{}, fmt.Errorf("audit: count timeline: %w", err)
	}

	paging := shared.NewPagination(f.Page, f.PerPage, total)
	offset := (paging.Page - 1) * paging.PerPage

	query := `SELECT id, actor_id, actor_name, action, entity_type, entity_id, details, metadata, created_at
FROM audit_logs` + where + fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d OFFSET %d", paging.PerPage, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return Result{}, fmt.Errorf("audit: query timeline: %w", err)
	}
	defer rows.Close()

	var out []TimelineRow
	for rows.Next() {
		var row TimelineRow
		if err := rows.Scan(&row.ID, &row.ActorID, &row.ActorName, &row.Action, &row.EntityType, &row.EntityID, &row.Details, &row.Metadata, &row.At); err != nil {
			return Result{}, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return Result{}, err
	}
	return Result{Rows: out, Paging: paging}, nil
}

// Export returns all rows matching the filters without pagination.
func (s *TimelineService) Export(ctx context.Context, f TimelineFilters) ([]TimelineRow, error) {
	where, args := buildTimelineWhere(f)
	query := `SELECT id, actor_id, actor_name, action, entity_type, entity_id, details, metadata, created_at
FROM audit_logs` + where + " ORDER BY created_at DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: export timeline: %w", err)
	}
	defer rows.Close()

	var out []TimelineRow
	for rows.Next() {
		var row TimelineRow
		if err := rows.Scan(&row.ID, &row.ActorID, &row.ActorName, &row.Action, &row.EntityType, &row.EntityID, &row.Details, &row.Metadata, &row.At); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func buildTimelineWhere(f TimelineFilters) (string, []any) {
	var clauses []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.ActorID != 0 {
		clauses = append(clauses, "actor_id = "+arg(f.ActorID))
	}
	if f.ActionPrefix != "" {
		clauses = append(clauses, "action LIKE "+arg(f.ActionPrefix+"%"))
	}
	if f.EntityType != "" {
		clauses = append(clauses, "entity_type = "+arg(f.EntityType))
	}
	if f.EntityID != "" {
		clauses = append(clauses, "entity_id = "+arg(f.EntityID))
	}
	if !f.From.IsZero() {
		clauses = append(clauses, "created_at >= "+arg(f.From))
	}
	if !f.To.IsZero() {
		clauses = append(clauses, "created_at < "+arg(f.To.AddDate(0, 0, 1)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
