package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stockline-erp/stockline/internal/auth"
	"github.com/stockline-erp/stockline/internal/catalog/categories"
	"github.com/stockline-erp/stockline/internal/catalog/ean"
	"github.com/stockline-erp/stockline/internal/catalog/products"
	"github.com/stockline-erp/stockline/internal/companylookup"
	"github.com/stockline-erp/stockline/internal/integrations"
	"github.com/stockline-erp/stockline/internal/masterdata/locations"
	"github.com/stockline-erp/stockline/internal/rbac"
	"github.com/stockline-erp/stockline/internal/sales/customers"
	"github.com/stockline-erp/stockline/internal/sales/offers"
	"github.com/stockline-erp/stockline/internal/shared"
	"github.com/stockline-erp/stockline/internal/users"
	"github.com/stockline-erp/stockline/internal/view"
	"github.com/stockline-erp/stockline/jobs"
	"github.com/stockline-erp/stockline/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Templates      *view.Engine
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	RBACMiddleware rbac.Middleware

	AuthHandler          *auth.Handler
	UsersHandler         *users.Handler
	LocationsHandler     *locations.Handler
	CustomersHandler     *customers.Handler
	OffersHandler        *offers.Handler
	ProductsHandler      *products.Handler
	CategoriesHandler    *categories.Handler
	EANHandler           *ean.Handler
	CompanyLookupHandler *companylookup.Handler
	IntegrationsHandler  *integrations.Handler
	WebhookHandler       *integrations.WebhookHandler
	JobHandler           *jobs.Handler
}

// NewRouter constructs the chi.Router with Stockline defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Landing page for unauthenticated users
	r.Get("/welcome", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		csrfToken, _ := params.CSRFManager.EnsureToken(r.Context(), sess)
		var flash *shared.FlashMessage
		if sess != nil {
			flash = sess.PopFlash()
		}
		data := view.TemplateData{
			Title:     "Stockline",
			CSRFToken: csrfToken,
			Flash:     flash,
		}
		if err := params.Templates.Render(w, "pages/landing.html", data); err != nil {
			params.Logger.Error("render landing", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" {
			http.Redirect(w, r, "/welcome", http.StatusSeeOther)
			return
		}

		csrfToken, _ := params.CSRFManager.EnsureToken(r.Context(), sess)
		var flash *shared.FlashMessage
		if sess != nil {
			flash = sess.PopFlash()
		}
		data := view.TemplateData{
			Title:     "Stockline",
			CSRFToken: csrfToken,
			Flash:     flash,
			Data: map[string]any{
				"AppEnv": params.Config.AppEnv,
			},
		}
		if err := params.Templates.Render(w, "pages/home.html", data); err != nil {
			params.Logger.Error("render home", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/users", params.UsersHandler.MountRoutes)
	r.Route("/masterdata/locations", params.LocationsHandler.MountRoutes)
	r.Route("/sales/customers", params.CustomersHandler.MountRoutes)
	r.Route("/sales/offers", params.OffersHandler.MountRoutes)
	r.Route("/catalog/products", params.ProductsHandler.MountRoutes)
	r.Route("/catalog/categories", params.CategoriesHandler.MountRoutes)
	r.Route("/catalog/ean-requests", params.EANHandler.MountRoutes)
	r.Route("/company-lookup", params.CompanyLookupHandler.MountRoutes)
	r.Route("/integrations", params.IntegrationsHandler.MountRoutes)
	r.Route("/webhooks", params.WebhookHandler.MountRoutes)
	r.Route("/jobs", params.JobHandler.MountRoutes)

	// Short links used by barcode scanners and the storefront.
	r.Group(params.ProductsHandler.MountSKURoutes)
	r.Group(params.EANHandler.MountSubmitRoute)

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
