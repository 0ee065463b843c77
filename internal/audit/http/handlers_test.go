package audithttp

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/timewise-hq/timewise/internal/audit"
	"github.com/timewise-hq/timewise/internal/shared"
)

type stubTimelineService struct {
	result      audit.Result
	exportRows  []audit.TimelineRow
	lastFilters audit.TimelineFilters
}

func (s *stubTimelineService) Timeline(ctx context.Context, filters audit.TimelineFilters) (audit.Result, error) {
	s.lastFilters = filters
	return s.result, nil
}

func (s *stubTimelineService) Export(ctx context.Context, filters audit.TimelineFilters) ([]audit.TimelineRow, error) {
	s.lastFilters = filters
	return s.exportRows, nil
}

func TestTimelineAppliesFilters(t *testing.T) {
	rows := []audit.TimelineRow{{
		ActorID:   7,
		ActorName: "Dana Reyes",
		Action:    "pto.approve",
		At:        time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC),
	}}
	service := &stubTimelineService{result: audit.Result{Rows: rows, Paging: shared.NewPagination(1, 20, 1)}}
	handler := NewHandler(slog.Default(), service)

	req := httptest.NewRequest(http.MethodGet, "/admin/audit?action=pto.&actor_id=7&from=2024-03-01&to=2024-03-15", nil)
	rr := httptest.NewRecorder()
	handler.handleTimeline(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "Dana Reyes")
	require.Equal(t, int64(7), service.lastFilters.ActorID)
	require.Equal(t, "pto.", service.lastFilters.ActionPrefix)
	require.Equal(t, "2024-03-01", service.lastFilters.From.Format("2006-01-02"))
}

func TestExportWritesCSV(t *testing.T) {
	service := &stubTimelineService{exportRows: []audit.TimelineRow{{
		ActorID:    3,
		ActorName:  "Admin",
		Action:     "pto_balance.adjust",
		EntityType: "PTOBalance",
		EntityID:   "11",
		Details:    "Adjusted PTO balance by 8h",
		At:         time.Date(2024, 3, 12, 9, 30, 0, 0, time.UTC),
	}}}
	handler := NewHandler(slog.Default(), service)

	req := httptest.NewRequest(http.MethodGet, "/admin/audit/export.csv", nil)
	rr := httptest.NewRecorder()
	handler.handleExport(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[1], "pto_balance.adjust")
}
