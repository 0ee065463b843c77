package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	audithttp "github.com/timewise-hq/timewise/internal/audit/http"
	"github.com/timewise-hq/timewise/internal/auth"
	"github.com/timewise-hq/timewise/internal/company"
	"github.com/timewise-hq/timewise/internal/departments"
	"github.com/timewise-hq/timewise/internal/notify"
	"github.com/timewise-hq/timewise/internal/observability"
	"github.com/timewise-hq/timewise/internal/platform/httpx"
	"github.com/timewise-hq/timewise/internal/pto"
	"github.com/timewise-hq/timewise/internal/rbac"
	"github.com/timewise-hq/timewise/internal/reports"
	"github.com/timewise-hq/timewise/internal/shared"
	"github.com/timewise-hq/timewise/internal/timeclock"
	"github.com/timewise-hq/timewise/internal/users"
	"github.com/timewise-hq/timewise/jobs"
)

// RouterParams collects everything NewRouter mounts.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Metrics        *observability.Metrics
	Authz          rbac.Middleware

	AuthHandler       *auth.Handler
	UserHandler       *users.Handler
	PTOHandler        *pto.Handler
	TimeclockHandler  *timeclock.Handler
	DepartmentHandler *departments.Handler
	CompanyHandler    *company.Handler
	ReportsHandler    *reports.Handler
	AuditHandler      *audithttp.Handler
	NotifyHandler     *notify.Handler
	JobsHandler       *jobs.Handler
}

// NewRouter assembles the HTTP surface: public auth routes, the
// authenticated API, and permission-guarded manager/admin sections.
func NewRouter(p RouterParams) chi.Router {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         p.Logger,
		Config:         p.Config,
		SessionManager: p.SessionManager,
		CSRFManager:    p.CSRFManager,
		Metrics:        p.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if p.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", p.Metrics.Handler())
	}

	r.Route("/auth", p.AuthHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(p.Authz.RequireUser)

		p.UserHandler.MountRoutes(r)
		r.Route("/pto", func(r chi.Router) {
			p.PTOHandler.MountRoutes(r, p.Authz)
		})
		r.Route("/timeclock", func(r chi.Router) {
			p.TimeclockHandler.MountRoutes(r, p.Authz)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(p.Authz.RequireAny(shared.PermReportsView))
			p.ReportsHandler.MountRoutes(r)
		})
		r.Route("/audit", func(r chi.Router) {
			r.Use(p.Authz.RequireAny(shared.PermAuditView))
			p.AuditHandler.MountRoutes(r)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(p.Authz.RequireAny(shared.PermAdminManage))
			p.UserHandler.MountAdminRoutes(r)
			p.CompanyHandler.MountRoutes(r)
			r.Route("/departments", p.DepartmentHandler.MountRoutes)
			r.Route("/pto", p.PTOHandler.MountAdminRoutes)
			r.Route("/notifications", p.NotifyHandler.MountRoutes)
			if p.JobsHandler != nil {
				r.Route("/jobs", p.JobsHandler.MountRoutes)
			}
		})
	})

	return r
}
