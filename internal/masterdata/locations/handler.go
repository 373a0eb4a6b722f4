package locations

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
	r.Get("/{id}", h.Show)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAdmin())
		r.Get("/new", h.Form)
		r.Post("/", h.Create)
		r.Get("/{id}/edit", h.EditForm)
		r.Post("/{id}/edit", h.Update)
		r.Post("/{id}/delete", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	filters := ListFilters{
		Page:    page,
		Limit:   25,
		Search:  r.URL.Query().Get("search"),
		Kind:    r.URL.Query().Get("kind"),
		SortBy:  r.URL.Query().Get("sort"),
		SortDir: r.URL.Query().Get("dir"),
	}

	list, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list locations failed", "error", err)
		http.Error(w, "Failed to load locations", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/masterdata/locations_list.html", map[string]any{
		"Locations":  list,
		"Filters":    filters,
		"Pagination": shared.NewPagination(page, filters.Limit, total),
	}, http.StatusOK)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid location ID", http.StatusBadRequest)
		return
	}

	location, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("get location failed", "error", err, "id", id)
		http.Error(w, "Location not found", http.StatusNotFound)
		return
	}

	var parent *Location
	if location.ParentStoreID != nil {
		if p, err := h.service.Get(r.Context(), *location.ParentStoreID); err == nil {
			parent = &p
		}
	}

	h.render(w, r, "pages/masterdata/location_detail.html", map[string]any{
		"Location": location,
		"Parent":   parent,
	}, http.StatusOK)
}

func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, nil, map[string]string{}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	location := h.locationFromForm(r)
	created, err := h.service.Create(r.Context(), location)
	if err != nil {
		h.logger.Error("create location failed", "error", err)
		h.renderForm(w, r, &location, map[string]string{"general": shared.UserSafeMessage(err)}, http.StatusBadRequest)
		return
	}

	h.redirectWithFlash(w, r, "/masterdata/locations/"+strconv.FormatInt(created.ID, 10), "success", "Location created successfully")
}

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid location ID", http.StatusBadRequest)
		return
	}

	location, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("get location failed", "error", err, "id", id)
		http.Error(w, "Location not found", http.StatusNotFound)
		return
	}

	h.renderForm(w, r, &location, map[string]string{}, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid location ID", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	location := h.locationFromForm(r)
	if err := h.service.Update(r.Context(), id, location); err != nil {
		h.logger.Error("update location failed", "error", err, "id", id)
		h.renderForm(w, r, &location, map[string]string{"general": shared.UserSafeMessage(err)}, http.StatusBadRequest)
		return
	}

	h.redirectWithFlash(w, r, "/masterdata/locations/"+strconv.FormatInt(id, 10), "success", "Location updated successfully")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid location ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete location failed", "error", err, "id", id)
		h.redirectWithFlash(w, r, "/masterdata/locations", "error", shared.UserSafeMessage(err))
		return
	}

	h.redirectWithFlash(w, r, "/masterdata/locations", "success", "Location deleted successfully")
}

func (h *Handler) locationFromForm(r *http.Request) Location {
	location := Location{
		Name:     r.PostFormValue("name"),
		Kind:     r.PostFormValue("kind"),
		Address:  r.PostFormValue("address"),
		IsActive: r.PostFormValue("is_active") != "",
	}
	if v := r.PostFormValue("parent_store_id"); v != "" {
		if parentID, err := strconv.ParseInt(v, 10, 64); err == nil && parentID > 0 {
			location.ParentStoreID = &parentID
		}
	}
	return location
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, location *Location, errs map[string]string, status int) {
	stores, _, err := h.service.List(r.Context(), ListFilters{Kind: KindStore, Limit: 500})
	if err != nil {
		h.logger.Error("list stores failed", "error", err)
		stores = []Location{}
	}

	h.render(w, r, "pages/masterdata/location_form.html", map[string]any{
		"Errors":   errs,
		"Location": location,
		"Stores":   stores,
	}, status)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Locations",
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
