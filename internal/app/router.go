package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-erp/commerce-console/internal/audit"
	"github.com/odyssey-erp/commerce-console/internal/carts"
	"github.com/odyssey-erp/commerce-console/internal/discounts"
	"github.com/odyssey-erp/commerce-console/internal/observability"
	"github.com/odyssey-erp/commerce-console/internal/orders"
	"github.com/odyssey-erp/commerce-console/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Metrics          *observability.Metrics
	APIKeyAuth       *APIKeyAuth
	OrdersHandler    *orders.Handler
	DiscountsHandler *discounts.Handler
	CartsHandler     *carts.Handler
	AuditHandler     *audit.Handler
	JobHandler       *jobs.Handler
}

// NewRouter constructs the chi.Router with console defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	if params.Config == nil || !params.Config.IsProduction() {
		r.Use(chimw.Logger)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		if params.APIKeyAuth != nil {
			r.Use(params.APIKeyAuth.Middleware)
		}
		if params.OrdersHandler != nil {
			r.Route("/pricing", params.OrdersHandler.MountPricingRoutes)
			r.Route("/drafts", params.OrdersHandler.MountDraftRoutes)
			r.Route("/orders", params.OrdersHandler.MountRoutes)
		}
		if params.DiscountsHandler != nil {
			r.Route("/discounts", params.DiscountsHandler.MountRoutes)
		}
		if params.CartsHandler != nil {
			r.Route("/carts", params.CartsHandler.MountRoutes)
		}
		if params.AuditHandler != nil {
			r.Route("/audit", params.AuditHandler.MountRoutes)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", func(r chi.Router) {
			if params.APIKeyAuth != nil {
				r.Use(params.APIKeyAuth.Middleware)
			}
			params.JobHandler.MountRoutes(r)
		})
	}

	return r
}
