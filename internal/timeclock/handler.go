package timeclock

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/timewise-hq/timewise/internal/platform/httpx"
	"github.com/timewise-hq/timewise/internal/rbac"
	"github.com/timewise-hq/timewise/internal/shared"
)

// Handler wires HTTP endpoints for the timeclock.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers timeclock routes on provided router.
func (h *Handler) MountRoutes(r chi.Router, authz rbac.Middleware) {
	r.Post("/clock-in", h.handleClockIn)
	r.Post("/clock-out", h.handleClockOut)
	r.Post("/entries", h.handleManualEntry)
	r.Get("/week", h.handleWeek)

	r.Group(func(r chi.Router) {
		r.Use(authz.RequireAny(shared.PermTeamView))
		r.Get("/presence", h.handlePresence)
	})
}

func (h *Handler) handleClockIn(w http.ResponseWriter, r *http.Request) {
	principal, ok := rbac.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	entry, created, err := h.service.ClockIn(r.Context(), principal.ID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httpx.JSON(w, status, entry)
}

func (h *Handler) handleClockOut(w http.ResponseWriter, r *http.Request) {
	principal, ok := rbac.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	entry, err := h.service.ClockOut(r.Context(), principal.ID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

type manualEntryRequest struct {
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required"`
	Note      string    `json:"note" validate:"max=1000"`
}

func (h *Handler) handleManualEntry(w http.ResponseWriter, r *http.Request) {
	principal, ok := rbac.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req manualEntryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	entry, err := h.service.AddManualEntry(r.Context(), ManualInput{
		UserID:    principal.ID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Note:      req.Note,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) handleWeek(w http.ResponseWriter, r *http.Request) {
	principal, ok := rbac.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	ref := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be YYYY-MM-DD")
			return
		}
		ref = parsed
	}

	summary, err := h.service.Week(r.Context(), principal.ID, ref)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) handlePresence(w http.ResponseWriter, r *http.Request) {
	var deptFilter *int64
	if raw := r.URL.Query().Get("department_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "department_id must be numeric")
			return
		}
		deptFilter = &id
	}

	rows, err := h.service.Presence(r.Context(), deptFilter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if rows == nil {
		rows = []PresenceRow{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"present": rows, "count": len(rows)})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotClockedIn):
		httpx.Problem(w, http.StatusConflict, "Conflict", "no open time entry to close")
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "time entry not found")
	case errors.Is(err, ErrInvalidInterval):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("timeclock handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
