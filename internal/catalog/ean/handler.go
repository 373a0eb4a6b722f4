package ean

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

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

// MountSubmitRoute wires the JSON submission endpoint used by the
// scanner page.
func (h *Handler) MountSubmitRoute(r chi.Router) {
	r.With(h.rbac.RequireLogin()).Post("/ean-association", h.Submit)
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.RequireAdmin())
	r.Get("/", h.List)
	r.Post("/{id}/approve", h.Approve)
	r.Post("/{id}/reject", h.Reject)
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())

	// The scanner page posts JSON; older pages may still post a form.
	var req CreateRequest
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid payload")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid payload")
			return
		}
		req.EAN = r.PostFormValue("ean")
		if v := r.PostFormValue("woo_product_id"); v != "" {
			req.WooProductID, _ = strconv.ParseInt(v, 10, 64)
		}
	}

	if _, err := h.service.Submit(r.Context(), actor, req); err != nil {
		var vErrs validator.ValidationErrors
		switch {
		case errors.As(err, &vErrs):
			httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", "ean and woo_product_id are required")
		case errors.Is(err, shared.ErrNotFound):
			httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", "product does not exist")
		default:
			h.logger.Error("submit ean association failed", "error", err)
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		}
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	var status *Status
	if v := r.URL.Query().Get("status"); v != "" {
		s := Status(v)
		status = &s
	}

	list, total, err := h.service.List(r.Context(), status, page, 25)
	if err != nil {
		h.logger.Error("list ean requests failed", "error", err)
		http.Error(w, "Failed to load requests", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/catalog/ean_requests_list.html", map[string]any{
		"Requests":   list,
		"Status":     r.URL.Query().Get("status"),
		"Pagination": shared.NewPagination(page, 25, total),
	}, http.StatusOK)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.service.Approve, "Association approved")
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.service.Reject, "Association rejected")
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request, action func(context.Context, int64) error, message string) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid request ID", http.StatusBadRequest)
		return
	}

	if err := action(r.Context(), id); err != nil {
		h.logger.Error("review ean request failed", "error", err, "id", id)
		h.redirectWithFlash(w, r, "/catalog/ean-requests", "error", shared.UserSafeMessage(err))
		return
	}

	h.redirectWithFlash(w, r, "/catalog/ean-requests", "success", message)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "EAN Requests",
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
