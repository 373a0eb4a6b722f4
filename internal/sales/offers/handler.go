package offers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stockline-erp/stockline/internal/rbac"
	"github.com/stockline-erp/stockline/internal/sales/customers"
	"github.com/stockline-erp/stockline/internal/shared"
	"github.com/stockline-erp/stockline/internal/view"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	customers *customers.Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	rbac      rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, customerSvc *customers.Service, templates *view.Engine, csrf *shared.CSRFManager, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, customers: customerSvc, templates: templates, csrf: csrf, rbac: rbac}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.RequireLogin())
	r.Get("/", h.List)
	r.Get("/new", h.Form)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Show)
	r.Get("/{id}/edit", h.EditForm)
	r.Post("/{id}/edit", h.Update)
	r.Post("/{id}/status", h.ChangeStatus)
	r.Post("/{id}/delete", h.Delete)
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
	if v := r.URL.Query().Get("status"); v != "" {
		status := Status(v)
		filters.Status = &status
	}
	if v := r.URL.Query().Get("customer_id"); v != "" {
		if customerID, err := strconv.ParseInt(v, 10, 64); err == nil {
			filters.CustomerID = &customerID
		}
	}

	list, total, err := h.service.List(r.Context(), actor, filters)
	if err != nil {
		h.logger.Error("list offers failed", "error", err)
		http.Error(w, "Failed to load offers", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/sales/offers_list.html", map[string]any{
		"Offers":     list,
		"Filters":    filters,
		"Pagination": shared.NewPagination(page, filters.Limit, total),
	}, http.StatusOK)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid offer ID", http.StatusBadRequest)
		return
	}

	offer, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		http.Error(w, "Offer not found", http.StatusNotFound)
		return
	}

	h.render(w, r, "pages/sales/offer_detail.html", map[string]any{
		"Offer": offer,
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

	req := createRequestFromForm(r)
	offer, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		h.logger.Error("create offer failed", "error", err)
		h.renderForm(w, r, nil, map[string]string{"general": shared.UserSafeMessage(err)}, http.StatusBadRequest)
		return
	}

	h.redirectWithFlash(w, r, "/sales/offers/"+strconv.FormatInt(offer.ID, 10), "success", "Offer "+offer.Number+" created")
}

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid offer ID", http.StatusBadRequest)
		return
	}

	offer, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		http.Error(w, "Offer not found", http.StatusNotFound)
		return
	}

	h.renderForm(w, r, offer, map[string]string{}, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid offer ID", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	create := createRequestFromForm(r)
	req := UpdateOfferRequest{
		CustomerID: create.CustomerID,
		Currency:   create.Currency,
		Notes:      create.Notes,
		Lines:      create.Lines,
	}
	offer, err := h.service.Update(r.Context(), actor, id, req)
	if err != nil {
		h.logger.Error("update offer failed", "error", err, "id", id)
		h.renderForm(w, r, nil, map[string]string{"general": shared.UserSafeMessage(err)}, http.StatusBadRequest)
		return
	}

	h.redirectWithFlash(w, r, "/sales/offers/"+strconv.FormatInt(offer.ID, 10), "success", "Offer updated successfully")
}

func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid offer ID", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	status := Status(r.PostFormValue("status"))
	if err := h.service.ChangeStatus(r.Context(), actor, id, status); err != nil {
		h.logger.Error("change offer status failed", "error", err, "id", id)
		h.redirectWithFlash(w, r, "/sales/offers/"+strconv.FormatInt(id, 10), "error", shared.UserSafeMessage(err))
		return
	}

	h.redirectWithFlash(w, r, "/sales/offers/"+strconv.FormatInt(id, 10), "success", "Offer status updated")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid offer ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		h.logger.Error("delete offer failed", "error", err, "id", id)
		h.redirectWithFlash(w, r, "/sales/offers", "error", shared.UserSafeMessage(err))
		return
	}

	h.redirectWithFlash(w, r, "/sales/offers", "success", "Offer deleted successfully")
}

// createRequestFromForm reads the repeated line fields submitted as
// parallel arrays (line_product_id[], line_quantity[], ...).
func createRequestFromForm(r *http.Request) CreateOfferRequest {
	req := CreateOfferRequest{
		Currency: r.PostFormValue("currency"),
	}
	if v := r.PostFormValue("customer_id"); v != "" {
		if customerID, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.CustomerID = customerID
		}
	}
	if v := r.PostFormValue("location_id"); v != "" {
		if locationID, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.LocationID = locationID
		}
	}
	if v := r.PostFormValue("notes"); v != "" {
		req.Notes = &v
	}

	productIDs := r.PostForm["line_product_id[]"]
	quantities := r.PostForm["line_quantity[]"]
	unitPrices := r.PostForm["line_unit_price[]"]
	discounts := r.PostForm["line_discount_percent[]"]
	taxes := r.PostForm["line_tax_percent[]"]
	descriptions := r.PostForm["line_description[]"]

	for i := range productIDs {
		// blank trailing rows from the form editor carry no product
		if productIDs[i] == "" {
			continue
		}
		line := OfferLineRequest{LineOrder: len(req.Lines) + 1}
		line.ProductID, _ = strconv.ParseInt(productIDs[i], 10, 64)
		if i < len(quantities) {
			line.Quantity, _ = strconv.ParseFloat(quantities[i], 64)
		}
		if i < len(unitPrices) {
			line.UnitPrice, _ = strconv.ParseFloat(unitPrices[i], 64)
		}
		if i < len(discounts) {
			line.DiscountPercent, _ = strconv.ParseFloat(discounts[i], 64)
		}
		if i < len(taxes) {
			line.TaxPercent, _ = strconv.ParseFloat(taxes[i], 64)
		}
		if i < len(descriptions) && descriptions[i] != "" {
			desc := descriptions[i]
			line.Description = &desc
		}
		req.Lines = append(req.Lines, line)
	}
	return req
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, offer *Offer, errs map[string]string, status int) {
	actor := shared.ActorFromContext(r.Context())
	customerList, _, err := h.customers.List(r.Context(), actor, customers.ListFilters{Limit: 500})
	if err != nil {
		h.logger.Error("list customers failed", "error", err)
	}

	h.render(w, r, "pages/sales/offer_form.html", map[string]any{
		"Errors":    errs,
		"Offer":     offer,
		"Customers": customerList,
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
		Title:       "Offers",
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
