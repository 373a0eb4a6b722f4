package categories

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stockline-erp/stockline/internal/rbac"
	"github.com/stockline-erp/stockline/internal/shared"
	"github.com/stockline-erp/stockline/internal/view"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	rbac      rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, rbac: rbac}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.RequireLogin())
	r.Get("/", h.List)
	r.With(h.rbac.RequireAdmin()).Post("/reorder", h.Reorder)
}

// List shows the mirrored category tree in its persisted order. An
// optional connection filter narrows the view to one shop.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var (
		list []Category
		err  error
	)
	connectionID := int64(0)
	if v := r.URL.Query().Get("connection_id"); v != "" {
		connectionID, _ = strconv.ParseInt(v, 10, 64)
	}
	if connectionID > 0 {
		list, err = h.service.ListForConnection(r.Context(), connectionID)
	} else {
		list, err = h.service.List(r.Context())
	}
	if err != nil {
		h.logger.Error("list categories failed", "error", err)
		http.Error(w, "Failed to load categories", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/catalog/categories_list.html", map[string]any{
		"Categories":   list,
		"ConnectionID": connectionID,
	}, http.StatusOK)
}

// Reorder recomputes the display ordering on demand. The sync jobs do
// this automatically; the button exists for manual repair.
func (h *Handler) Reorder(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.Reorder(r.Context())
	if err != nil {
		h.logger.Error("reorder categories failed", "error", err)
		h.redirectWithFlash(w, r, "/catalog/categories", "error", "Reordering failed")
		return
	}
	h.redirectWithFlash(w, r, "/catalog/categories", "success", "Reordered "+strconv.Itoa(count)+" categories")
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Categories",
		CSRFToken:   csrfToken,
		Flash:       flash,
		Actor:       shared.ActorFromContext(r.Context()),
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	w.WriteHeader(status)
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", "error", err, "template", template)
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
