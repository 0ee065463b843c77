package reports

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/timewise-hq/timewise/internal/platform/httpx"
)

// Handler wires HTTP endpoints for reports.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes on provided router. The caller guards
// them with the reports permission.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/summary", h.handleSummary)
	r.Get("/summary.csv", h.handleSummaryCSV)
}

func (h *Handler) parseFilters(r *http.Request) (Filters, error) {
	q := r.URL.Query()
	var f Filters

	from, err := time.Parse("2006-01-02", q.Get("from"))
	if err != nil {
		return f, fmt.Errorf("%w: from must be YYYY-MM-DD", ErrInvalidRange)
	}
	to, err := time.Parse("2006-01-02", q.Get("to"))
	if err != nil {
		return f, fmt.Errorf("%w: to must be YYYY-MM-DD", ErrInvalidRange)
	}
	f.From = from
	f.To = to

	if raw := q.Get("department_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return f, fmt.Errorf("%w: department_id must be numeric", ErrInvalidRange)
		}
		f.DepartmentID = &id
	}
	return f, nil
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	f, err := h.parseFilters(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	summary, err := h.service.Summary(r.Context(), f)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) handleSummaryCSV(w http.ResponseWriter, r *http.Request) {
	f, err := h.parseFilters(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	summary, err := h.service.Summary(r.Context(), f)
	if err != nil {
		h.respondError(w, err)
		return
	}

	filename := fmt.Sprintf("time-report-%s-%s.csv", f.From.Format("20060102"), f.To.Format("20060102"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := WriteCSV(w, summary); err != nil {
		h.logger.Error("stream report csv", slog.Any("error", err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrInvalidRange) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	h.logger.Error("reports handler", slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
