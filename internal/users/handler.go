package users

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stockline-erp/stockline/internal/masterdata/locations"
	"github.com/stockline-erp/stockline/internal/rbac"
	"github.com/stockline-erp/stockline/internal/shared"
	"github.com/stockline-erp/stockline/internal/view"
)

type Handler struct {
	logger          *slog.Logger
	service         *Service
	locationService *locations.Service
	templates       *view.Engine
	csrf            *shared.CSRFManager
	rbac            rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, locationService *locations.Service, templates *view.Engine, csrf *shared.CSRFManager, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, locationService: locationService, templates: templates, csrf: csrf, rbac: rbac}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.RequireLogin())
	r.Use(h.rbac.RequireAdmin())
	r.Get("/", h.List)
	r.Get("/new", h.Form)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Show)
	r.Get("/{id}/edit", h.EditForm)
	r.Post("/{id}/edit", h.Update)
	r.Post("/{id}/deactivate", h.Deactivate)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	filters := ListFilters{
		Search: r.URL.Query().Get("search"),
		Page:   page,
		Limit:  25,
	}

	list, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list users failed", "error", err)
		http.Error(w, "Failed to load users", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/users/users_list.html", map[string]any{
		"Users":      list,
		"Filters":    filters,
		"Pagination": shared.NewPagination(page, filters.Limit, total),
	}, http.StatusOK)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("get user failed", "error", err, "id", id)
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	h.render(w, r, "pages/users/user_detail.html", map[string]any{
		"User": user,
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

	user, ok := h.userFromForm(w, r)
	if !ok {
		return
	}

	created, err := h.service.Create(r.Context(), user, r.PostFormValue("password"))
	if err != nil {
		h.logger.Error("create user failed", "error", err)
		h.renderForm(w, r, &user, map[string]string{"general": shared.UserSafeMessage(err)}, http.StatusBadRequest)
		return
	}

	h.redirectWithFlash(w, r, "/users/"+strconv.FormatInt(created.ID, 10), "success", "User created successfully")
}

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("get user failed", "error", err, "id", id)
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	h.renderForm(w, r, &user, map[string]string{}, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	user, ok := h.userFromForm(w, r)
	if !ok {
		return
	}

	if err := h.service.Update(r.Context(), id, user, r.PostFormValue("password")); err != nil {
		h.logger.Error("update user failed", "error", err, "id", id)
		h.renderForm(w, r, &user, map[string]string{"general": shared.UserSafeMessage(err)}, http.StatusBadRequest)
		return
	}

	h.redirectWithFlash(w, r, "/users/"+strconv.FormatInt(id, 10), "success", "User updated successfully")
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Deactivate(r.Context(), id); err != nil {
		h.logger.Error("deactivate user failed", "error", err, "id", id)
		h.redirectWithFlash(w, r, "/users", "error", shared.UserSafeMessage(err))
		return
	}

	h.redirectWithFlash(w, r, "/users", "success", "User deactivated")
}

// userFromForm parses the submitted account fields. Only a super-admin may
// grant or keep the super-admin flag.
func (h *Handler) userFromForm(w http.ResponseWriter, r *http.Request) (User, bool) {
	actor := shared.ActorFromContext(r.Context())

	user := User{
		Email:         r.PostFormValue("email"),
		Name:          r.PostFormValue("name"),
		IsActive:      r.PostFormValue("is_active") != "",
		IsAdmin:       r.PostFormValue("is_admin") != "",
		IsOperational: r.PostFormValue("is_operational") != "",
	}
	if r.PostFormValue("is_super_admin") != "" {
		if !actor.IsSuperAdmin() {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return User{}, false
		}
		user.IsSuperAdmin = true
	}
	if v := r.PostFormValue("location_id"); v != "" {
		if locID, err := strconv.ParseInt(v, 10, 64); err == nil && locID > 0 {
			user.HomeLocationID = &locID
		}
	}
	for _, v := range r.PostForm["location_ids"] {
		if locID, err := strconv.ParseInt(v, 10, 64); err == nil && locID > 0 {
			user.LocationIDs = append(user.LocationIDs, locID)
		}
	}
	return user, true
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, user *User, errs map[string]string, status int) {
	locationList, _, err := h.locationService.List(r.Context(), locations.ListFilters{Limit: 500})
	if err != nil {
		h.logger.Error("list locations failed", "error", err)
		locationList = []locations.Location{}
	}

	h.render(w, r, "pages/users/user_form.html", map[string]any{
		"Errors":    errs,
		"User":      user,
		"Locations": locationList,
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
		Title:       "Users",
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
