package pto

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/timewise-hq/timewise/internal/platform/httpx"
	"github.com/timewise-hq/timewise/internal/rbac"
	"github.com/timewise-hq/timewise/internal/shared"
)

// Handler wires HTTP endpoints for the PTO workflow.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers the employee and approver routes on provided router.
func (h *Handler) MountRoutes(r chi.Router, authz rbac.Middleware) {
	r.Post("/requests", h.handleSubmit)
	r.Get("/requests", h.handleListMine)
	r.Post("/requests/{id}/cancel", h.handleCancel)
	r.Get("/balance", h.handleBalance)

	r.Group(func(r chi.Router) {
		r.Use(authz.RequireAny(shared.PermPTOApprove))
		r.Get("/inbox", h.handleInbox)
		r.Post("/requests/{id}/approve", h.handleApprove)
		r.Post("/requests/{id}/deny", h.handleDeny)
	})
}

// MountAdminRoutes registers balance administration under the admin prefix.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Post("/balances/{userID}/adjust", h.handleAdjust)
}

type submitRequest struct {
	Type            string   `json:"type" validate:"required,oneof=vacation personal sick unpaid"`
	StartDate       string   `json:"start_date" validate:"required"`
	EndDate         string   `json:"end_date" validate:"required"`
	PartialDayHours *float64 `json:"partial_day_hours" validate:"omitempty,gt=0,lte=8"`
	Note            string   `json:"note" validate:"max=2000"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	principal, ok := rbac.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	var req submitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "start_date must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "end_date must be YYYY-MM-DD")
		return
	}

	created, err := h.service.Submit(r.Context(), SubmitInput{
		UserID:          principal.ID,
		UserName:        principal.Name,
		Type:            Type(req.Type),
		StartDate:       start,
		EndDate:         end,
		PartialDayHours: req.PartialDayHours,
		Note:            req.Note,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	principal, ok := rbac.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	reqs, err := h.service.ListByUser(r.Context(), principal.ID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if reqs == nil {
		reqs = []Request{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"requests": reqs})
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	principal, ok := rbac.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request id")
		return
	}

	req, err := h.service.Cancel(r.Context(), id, actorFrom(principal))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, req)
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	principal, ok := rbac.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	bal, err := h.service.GetOrCreateBalance(r.Context(), principal.ID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bal)
}

func (h *Handler) handleInbox(w http.ResponseWriter, r *http.Request) {
	principal, ok := rbac.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	scoped := principal.Role != shared.RoleAdmin
	pending, err := h.service.PendingInbox(r.Context(), actorFrom(principal), scoped)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if pending == nil {
		pending = []PendingRequest{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"requests": pending, "count": len(pending)})
}

type approveRequest struct {
	Note          string `json:"note" validate:"max=2000"`
	AllowNegative bool   `json:"allow_negative"`
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	principal, ok := rbac.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request id")
		return
	}

	var req approveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	approved, err := h.service.Approve(r.Context(), ApproveInput{
		RequestID:      id,
		Actor:          actorFrom(principal),
		Note:           req.Note,
		AllowNegative:  req.AllowNegative,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, approved)
}

type denyRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

func (h *Handler) handleDeny(w http.ResponseWriter, r *http.Request) {
	principal, ok := rbac.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request id")
		return
	}

	var req denyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	denied, err := h.service.Deny(r.Context(), DenyInput{
		RequestID:      id,
		Actor:          actorFrom(principal),
		Reason:         req.Reason,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, denied)
}

type adjustRequest struct {
	DeltaHours float64 `json:"delta_hours" validate:"required"`
	Reason     string  `json:"reason" validate:"required,max=2000"`
}

func (h *Handler) handleAdjust(w http.ResponseWriter, r *http.Request) {
	principal, ok := rbac.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}

	var req adjustRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	bal, err := h.service.AdjustBalance(r.Context(), AdjustInput{
		UserID:         userID,
		DeltaHours:     req.DeltaHours,
		Reason:         req.Reason,
		Actor:          actorFrom(principal),
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bal)
}

func actorFrom(p rbac.Principal) Actor {
	return Actor{
		ID:         p.ID,
		Name:       p.Name,
		CanApprove: p.Has(shared.PermPTOApprove),
		CanAdjust:  p.Has(shared.PermPTOAdjust),
	}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "pto request not found")
	case errors.Is(err, ErrNotPending):
		httpx.Problem(w, http.StatusConflict, "Conflict", "request has already been finalised")
	case errors.Is(err, ErrStaleBalance), errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrInsufficientBalance):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Insufficient Balance", "approval would overdraw the balance; retry with allow_negative")
	case errors.Is(err, ErrNotOwner), errors.Is(err, ErrNotAuthorized):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrInvalidRange), errors.Is(err, ErrMissingNote),
		errors.Is(err, ErrInvalidType), errors.Is(err, ErrInvalidHours),
		errors.Is(err, ErrEmptyReason):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("pto handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
