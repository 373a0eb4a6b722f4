package integrations

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stockline-erp/stockline/internal/integrations/woo"
	"github.com/stockline-erp/stockline/internal/platform/httpx"
	"github.com/stockline-erp/stockline/internal/shared"
)

// WebhookHandler receives server-to-server pushes from the platform. It
// sits outside the session/CSRF middleware; the connection id in the path
// is the only addressing, unknown ids answer 404.
type WebhookHandler struct {
	logger  *slog.Logger
	service *Service
}

func NewWebhookHandler(logger *slog.Logger, service *Service) *WebhookHandler {
	return &WebhookHandler{logger: logger, service: service}
}

func (h *WebhookHandler) MountRoutes(r chi.Router) {
	r.Post("/woo/{connection}", h.Receive)
}

func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	connectionID, err := strconv.ParseInt(chi.URLParam(r, "connection"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	var payload woo.Product
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid webhook payload")
		return
	}
	if payload.ID == 0 {
		// Woo sends a bare ping when a webhook is first registered.
		httpx.JSON(w, http.StatusOK, map[string]any{"received": true})
		return
	}

	if err := h.service.HandleProductWebhook(r.Context(), connectionID, payload); err != nil {
		if errors.Is(err, shared.ErrNotFound) || errors.Is(err, errInactive) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("webhook processing failed", "connection_id", connectionID, "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	h.logger.Info("webhook product mirrored", "connection_id", connectionID, "woo_id", payload.ID)
	httpx.JSON(w, http.StatusOK, map[string]any{"received": true})
}
