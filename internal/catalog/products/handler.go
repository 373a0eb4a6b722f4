package products

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stockline-erp/stockline/internal/platform/httpx"
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
	r.Get("/search", h.Search)
	r.Get("/{id}", h.Show)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAdmin())
		r.Post("/{id}/suppliers", h.SaveSupplier)
		r.Post("/{id}/suppliers/{supplierID}/delete", h.RemoveSupplier)
	})
}

// MountSKURoutes wires the short SKU helpers and the product search
// endpoint at the router root.
func (h *Handler) MountSKURoutes(r chi.Router) {
	r.Use(h.rbac.RequireLogin())
	r.Get("/sku/{sku}", h.RedirectBySKU)
	r.Get("/sku-check/{sku}", h.CheckSKU)
	r.Get("/products/search", h.Search)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	filters := ListFilters{
		Page:        page,
		Limit:       25,
		Search:      r.URL.Query().Get("search"),
		StockStatus: r.URL.Query().Get("stock_status"),
		Status:      r.URL.Query().Get("status"),
	}
	if v := r.URL.Query().Get("connection_id"); v != "" {
		if connectionID, err := strconv.ParseInt(v, 10, 64); err == nil {
			filters.ConnectionID = &connectionID
		}
	}

	list, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list products failed", "error", err)
		http.Error(w, "Failed to load products", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/catalog/products_list.html", map[string]any{
		"Products":   list,
		"Filters":    filters,
		"Pagination": shared.NewPagination(page, filters.Limit, total),
	}, http.StatusOK)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}

	suppliers, err := h.service.Suppliers(r.Context(), id)
	if err != nil {
		h.logger.Error("load product suppliers failed", "error", err, "id", id)
	}
	allSuppliers, err := h.service.ListSuppliers(r.Context())
	if err != nil {
		h.logger.Error("list suppliers failed", "error", err)
	}

	h.render(w, r, "pages/catalog/product_detail.html", map[string]any{
		"Product":      product,
		"Suppliers":    suppliers,
		"AllSuppliers": allSuppliers,
	}, http.StatusOK)
}

// RedirectBySKU jumps straight to the product page for a scanned SKU.
func (h *Handler) RedirectBySKU(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetBySKU(r.Context(), chi.URLParam(r, "sku"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "Lookup failed", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/catalog/products/"+strconv.FormatInt(product.ID, 10), http.StatusSeeOther)
}

func (h *Handler) CheckSKU(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetBySKU(r.Context(), chi.URLParam(r, "sku"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.JSON(w, http.StatusOK, map[string]any{"found": false})
			return
		}
		httpx.Problem(w, http.StatusInternalServerError, "Lookup Failed", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"found": true,
		"url":   "/catalog/products/" + strconv.FormatInt(product.ID, 10),
	})
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.logger.Error("product search failed", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Search Failed", "")
		return
	}
	httpx.JSON(w, http.StatusOK, results)
}

func (h *Handler) SaveSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	link := supplierLinkFromForm(r, id)
	if err := h.service.SaveSupplier(r.Context(), link); err != nil {
		h.logger.Error("save product supplier failed", "error", err, "product_id", id)
		h.redirectWithFlash(w, r, "/catalog/products/"+strconv.FormatInt(id, 10), "error", shared.UserSafeMessage(err))
		return
	}

	h.redirectWithFlash(w, r, "/catalog/products/"+strconv.FormatInt(id, 10), "success", "Supplier saved")
}

func (h *Handler) RemoveSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}
	supplierID, err := strconv.ParseInt(chi.URLParam(r, "supplierID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid supplier ID", http.StatusBadRequest)
		return
	}

	if err := h.service.RemoveSupplier(r.Context(), id, supplierID); err != nil {
		h.logger.Error("remove product supplier failed", "error", err, "product_id", id)
		h.redirectWithFlash(w, r, "/catalog/products/"+strconv.FormatInt(id, 10), "error", shared.UserSafeMessage(err))
		return
	}

	h.redirectWithFlash(w, r, "/catalog/products/"+strconv.FormatInt(id, 10), "success", "Supplier removed")
}

func supplierLinkFromForm(r *http.Request, productID int64) ProductSupplier {
	link := ProductSupplier{
		ProductID:   productID,
		SupplierSKU: r.PostFormValue("supplier_sku"),
		Currency:    r.PostFormValue("currency"),
		IsPreferred: r.PostFormValue("is_preferred") != "",
	}
	if v := r.PostFormValue("supplier_id"); v != "" {
		link.SupplierID, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := r.PostFormValue("purchase_price"); v != "" {
		link.PurchasePrice, _ = strconv.ParseFloat(v, 64)
	}
	if v := r.PostFormValue("lead_time_days"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			link.LeadTimeDays = &days
		}
	}
	if v := r.PostFormValue("min_order_qty"); v != "" {
		if qty, err := strconv.ParseFloat(v, 64); err == nil {
			link.MinOrderQty = &qty
		}
	}
	if v := r.PostFormValue("notes"); v != "" {
		link.Notes = &v
	}
	return link
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Products",
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
