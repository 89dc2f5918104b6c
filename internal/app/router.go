package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/wongivan852/integrated-business-platform-sub001/internal/importer"
	"github.com/wongivan852/integrated-business-platform-sub001/internal/ledger"
	"github.com/wongivan852/integrated-business-platform-sub001/internal/rbac"
	"github.com/wongivan852/integrated-business-platform-sub001/internal/reconcile"
	"github.com/wongivan852/integrated-business-platform-sub001/internal/registry"
	statementhttp "github.com/wongivan852/integrated-business-platform-sub001/internal/statement/http"
	"github.com/wongivan852/integrated-business-platform-sub001/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	RegistryHandler  *registry.Handler
	GrantsHandler    *rbac.Handler
	LedgerHandler    *ledger.Handler
	ImporterHandler  *importer.Handler
	StatementHandler *statementhttp.Handler
	ReconcileHandler *reconcile.Handler
	JobHandler       *jobs.Handler

	RBAC *rbac.Middleware
}

// NewRouter constructs the chi.Router with platform defaults. Finance
// routes require at least an employee grant on the finance app; anything
// that writes requires manager.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/apps", params.RegistryHandler.MountRoutes)

	r.Route("/grants", func(r chi.Router) {
		params.GrantsHandler.MountRoutes(r, params.RBAC.Require("platform", rbac.RoleAdmin))
	})

	readFinance := params.RBAC.Require("finance", rbac.RoleEmployee)
	manageFinance := params.RBAC.Require("finance", rbac.RoleManager)

	r.Route("/ledger", func(r chi.Router) {
		r.Use(readFinance)
		params.LedgerHandler.MountRoutes(r, manageFinance)
	})

	r.Route("/finance", func(r chi.Router) {
		r.Use(readFinance)
		params.StatementHandler.MountRoutes(r, manageFinance)
		r.Group(func(r chi.Router) {
			r.Use(manageFinance)
			params.ImporterHandler.MountRoutes(r)
			params.ReconcileHandler.MountRoutes(r)
		})
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	return r
}
