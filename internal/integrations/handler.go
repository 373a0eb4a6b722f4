package integrations

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
	r.Use(h.rbac.RequireAdmin())
	r.Get("/", h.List)
	r.Get("/new", h.Form)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Show)
	r.Get("/{id}/edit", h.EditForm)
	r.Post("/{id}/edit", h.Update)
	r.Post("/{id}/import", h.QueueImport)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireSuperAdmin())
		r.Post("/{id}/delete", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	connections, err := h.service.ListConnections(r.Context(), false)
	if err != nil {
		h.logger.Error("list connections failed", "error", err)
		http.Error(w, "Failed to load connections", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/integrations/connections_list.html", map[string]any{
		"Connections": connections,
	}, http.StatusOK)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid connection ID", http.StatusBadRequest)
		return
	}

	connection, err := h.service.GetConnection(r.Context(), id)
	if err != nil {
		http.Error(w, "Connection not found", http.StatusNotFound)
		return
	}

	runs, err := h.service.ListRuns(r.Context(), &id, 50)
	if err != nil {
		h.logger.Error("list sync runs failed", "error", err, "connection_id", id)
	}

	h.render(w, r, "pages/integrations/connection_detail.html", map[string]any{
		"Connection": connection,
		"Runs":       runs,
	}, http.StatusOK)
}

func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, nil, "", http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	connection := connectionFromForm(r)
	created, err := h.service.CreateConnection(r.Context(), connection)
	if err != nil {
		h.logger.Error("create connection failed", "error", err)
		h.renderForm(w, r, &connection, shared.UserSafeMessage(err), http.StatusBadRequest)
		return
	}

	h.redirectWithFlash(w, r, "/integrations/"+strconv.FormatInt(created.ID, 10), "success", "Connection created successfully")
}

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid connection ID", http.StatusBadRequest)
		return
	}

	connection, err := h.service.GetConnection(r.Context(), id)
	if err != nil {
		http.Error(w, "Connection not found", http.StatusNotFound)
		return
	}

	h.renderForm(w, r, &connection, "", http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid connection ID", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	connection := connectionFromForm(r)
	if err := h.service.UpdateConnection(r.Context(), id, connection); err != nil {
		h.logger.Error("update connection failed", "error", err, "id", id)
		h.renderForm(w, r, &connection, shared.UserSafeMessage(err), http.StatusBadRequest)
		return
	}

	h.redirectWithFlash(w, r, "/integrations/"+strconv.FormatInt(id, 10), "success", "Connection updated successfully")
}

func (h *Handler) QueueImport(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid connection ID", http.StatusBadRequest)
		return
	}

	run, err := h.service.QueueImport(r.Context(), id)
	if err != nil {
		h.logger.Error("queue import failed", "error", err, "connection_id", id)
		h.redirectWithFlash(w, r, "/integrations/"+strconv.FormatInt(id, 10), "error", shared.UserSafeMessage(err))
		return
	}

	h.redirectWithFlash(w, r, "/integrations/"+strconv.FormatInt(id, 10), "success",
		"Import queued as run #"+strconv.FormatInt(run.ID, 10))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid connection ID", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteConnection(r.Context(), id); err != nil {
		h.logger.Error("delete connection failed", "error", err, "id", id)
		h.redirectWithFlash(w, r, "/integrations", "error", shared.UserSafeMessage(err))
		return
	}

	h.redirectWithFlash(w, r, "/integrations", "success", "Connection deleted successfully")
}

func connectionFromForm(r *http.Request) Connection {
	return Connection{
		Name:           r.PostFormValue("name"),
		Provider:       ProviderWooCommerce,
		BaseURL:        r.PostFormValue("base_url"),
		ConsumerKey:    r.PostFormValue("consumer_key"),
		ConsumerSecret: r.PostFormValue("consumer_secret"),
		IsActive:       r.PostFormValue("is_active") != "",
	}
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, connection *Connection, formError string, status int) {
	h.render(w, r, "pages/integrations/connection_form.html", map[string]any{
		"Connection": connection,
		"FormError":  formError,
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
		Title:       "Integrations",
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
