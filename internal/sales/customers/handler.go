package customers

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
	logger    *slog.Logger
	service   *Service
	locations *locations.Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	rbac      rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, locSvc *locations.Service, templates *view.Engine, csrf *shared.CSRFManager, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, locations: locSvc, templates: templates, csrf: csrf, rbac: rbac}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.RequireLogin())
	r.Get("/", h.List)
	r.Get("/new", h.Form)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Show)
	r.Get("/{id}/edit", h.EditForm)
	r.Post("/{id}/edit", h.Update)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAdmin())
		r.Post("/{id}/delete", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	filters := ListFilters{
		Page:   page,
		Limit:  25,
		Search: r.URL.Query().Get("search"),
	}
	if v := r.URL.Query().Get("location_id"); v != "" {
		if locID, err := strconv.ParseInt(v, 10, 64); err == nil {
			filters.LocationID = &locID
		}
	}

	list, total, err := h.service.List(r.Context(), actor, filters)
	if err != nil {
		h.logger.Error("list customers failed", "error", err)
		http.Error(w, "Failed to load customers", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/sales/customers_list.html", map[string]any{
		"Customers":  list,
		"Filters":    filters,
		"Pagination": shared.NewPagination(page, filters.Limit, total),
	}, http.StatusOK)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid customer ID", http.StatusBadRequest)
		return
	}

	customer, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		http.Error(w, "Customer not found", http.StatusNotFound)
		return
	}

	h.render(w, r, "pages/sales/customer_detail.html", map[string]any{
		"Customer": customer,
	}, http.StatusOK)
}

func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, nil, map[string]string{}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	customer := customerFromForm(r)
	created, err := h.service.Create(r.Context(), actor, customer)
	if err != nil {
		h.logger.Error("create customer failed", "error", err)
		h.renderForm(w, r, &customer, map[string]string{"general": shared.UserSafeMessage(err)}, http.StatusBadRequest)
		return
	}

	h.redirectWithFlash(w, r, "/sales/customers/"+strconv.FormatInt(created.ID, 10), "success", "Customer created successfully")
}

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid customer ID", http.StatusBadRequest)
		return
	}

	customer, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		http.Error(w, "Customer not found", http.StatusNotFound)
		return
	}

	h.renderForm(w, r, &customer, map[string]string{}, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid customer ID", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	customer := customerFromForm(r)
	if err := h.service.Update(r.Context(), actor, id, customer); err != nil {
		h.logger.Error("update customer failed", "error", err, "id", id)
		h.renderForm(w, r, &customer, map[string]string{"general": shared.UserSafeMessage(err)}, http.StatusBadRequest)
		return
	}

	h.redirectWithFlash(w, r, "/sales/customers/"+strconv.FormatInt(id, 10), "success", "Customer updated successfully")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid customer ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		h.logger.Error("delete customer failed", "error", err, "id", id)
		h.redirectWithFlash(w, r, "/sales/customers", "error", shared.UserSafeMessage(err))
		return
	}

	h.redirectWithFlash(w, r, "/sales/customers", "success", "Customer deleted successfully")
}

func customerFromForm(r *http.Request) Customer {
	customer := Customer{
		Name:    r.PostFormValue("name"),
		CUI:     r.PostFormValue("cui"),
		RegCom:  r.PostFormValue("reg_com"),
		Email:   r.PostFormValue("email"),
		Phone:   r.PostFormValue("phone"),
		Address: r.PostFormValue("address"),
		City:    r.PostFormValue("city"),
		County:  r.PostFormValue("county"),
	}
	if v := r.PostFormValue("location_id"); v != "" {
		if locID, err := strconv.ParseInt(v, 10, 64); err == nil {
			customer.LocationID = locID
		}
	}
	return customer
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, customer *Customer, errs map[string]string, status int) {
	locs, _, err := h.locations.List(r.Context(), locations.ListFilters{Limit: 500})
	if err != nil {
		h.logger.Error("list locations failed", "error", err)
		locs = []locations.Location{}
	}

	h.render(w, r, "pages/sales/customer_form.html", map[string]any{
		"Errors":    errs,
		"Customer":  customer,
		"Locations": locs,
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
		Title:       "Customers",
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
