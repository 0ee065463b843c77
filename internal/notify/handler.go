package notify

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/timewise-hq/timewise/internal/audit"
	"github.com/timewise-hq/timewise/internal/platform/httpx"
	"github.com/timewise-hq/timewise/internal/rbac"
)

// Handler exposes the admin endpoints for the notification queue.
type Handler struct {
	logger     *slog.Logger
	dispatcher *Dispatcher
	repo       Repository
	auditor    *audit.Recorder
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, dispatcher *Dispatcher, repo Repository, auditor *audit.Recorder) *Handler {
	return &Handler{logger: logger, dispatcher: dispatcher, repo: repo, auditor: auditor}
}

// MountRoutes registers notification admin routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/dispatch", h.handleDispatch)
	r.Get("/pending", h.handlePending)
}

// handleDispatch runs one dispatcher batch on demand instead of waiting for
// the cron schedule.
func (h *Handler) handleDispatch(w http.ResponseWriter, r *http.Request) {
	principal, hasPrincipal := rbac.PrincipalFromContext(r.Context())

	stats, err := h.dispatcher.Run(r.Context())
	if err != nil {
		if err == ErrDispatchLocked {
			httpx.Problem(w, http.StatusConflict, "Conflict", "a dispatch run is already in progress")
			return
		}
		h.logger.Error("manual notification dispatch", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	entry := audit.Entry{
		Action:     "notification.process",
		EntityType: "notification_queue",
		EntityID:   "batch",
		Details:    "manual dispatch run",
		Metadata: map[string]any{
			"manual_trigger": true,
			"processed":      stats.Processed,
			"sent":           stats.Sent,
			"failed":         stats.Failed,
		},
	}
	if hasPrincipal {
		entry.ActorID = principal.ID
		entry.ActorName = principal.Name
	}
	if err := h.auditor.Record(r.Context(), entry); err != nil {
		h.logger.Error("audit manual dispatch", slog.Any("error", err))
	}

	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) handlePending(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	msgs, err := h.repo.ListPending(r.Context(), limit)
	if err != nil {
		h.logger.Error("list pending notifications", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if msgs == nil {
		msgs = []Message{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"messages": msgs, "count": len(msgs)})
}
