package company

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/timewise-hq/timewise/internal/platform/httpx"
	"github.com/timewise-hq/timewise/internal/rbac"
)

// Handler wires HTTP endpoints for company settings administration.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers settings routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/settings", h.handleGet)
	r.Put("/settings", h.handleUpdate)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.Get(r.Context())
	if err != nil {
		h.logger.Error("load company settings", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, settings)
}

type updateRequest struct {
	CompanyName              string  `json:"company_name" validate:"required,max=200"`
	WorkdayHours             float64 `json:"workday_hours" validate:"required,gt=0,lte=24"`
	OvertimeThresholdHours   float64 `json:"overtime_threshold_hours" validate:"required,gt=0,lte=168"`
	DefaultPTOAllotmentHours float64 `json:"default_pto_allotment_hours" validate:"gte=0"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	principal, ok := rbac.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	settings, err := h.service.Update(r.Context(), UpdateInput{
		CompanyName:              req.CompanyName,
		WorkdayHours:             req.WorkdayHours,
		OvertimeThresholdHours:   req.OvertimeThresholdHours,
		DefaultPTOAllotmentHours: req.DefaultPTOAllotmentHours,
		ActorID:                  principal.ID,
		ActorName:                principal.Name,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidSettings) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.logger.Error("update company settings", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, settings)
}
