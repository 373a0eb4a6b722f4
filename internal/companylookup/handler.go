package companylookup

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
	settings  SettingsRepository
	client    *Client
	templates *view.Engine
	csrf      *shared.CSRFManager
	rbac      rbac.Middleware
}

func NewHandler(logger *slog.Logger, settings SettingsRepository, client *Client, templates *view.Engine, csrf *shared.CSRFManager, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, settings: settings, client: client, templates: templates, csrf: csrf, rbac: rbac}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.RequireLogin())
	r.Get("/{cui}", h.Lookup)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireSuperAdmin())
		r.Get("/settings", h.SettingsForm)
		r.Post("/settings", h.SaveSettings)
		r.Post("/settings/test", h.TestConnection)
	})
}

// Lookup is the JSON endpoint behind the customer form's autofill button.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	profile, err := h.client.Lookup(r.Context(), chi.URLParam(r, "cui"), nil)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCUI):
			httpx.Problem(w, http.StatusBadRequest, "Invalid Identifier", err.Error())
		case errors.Is(err, ErrNotConfigured):
			httpx.Problem(w, http.StatusConflict, "Not Configured", err.Error())
		case errors.Is(err, ErrUnavailable):
			httpx.Problem(w, http.StatusServiceUnavailable, "Temporarily Unavailable", err.Error())
		default:
			httpx.Problem(w, http.StatusBadGateway, "Lookup Failed", shared.UserSafeMessage(err))
		}
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}

func (h *Handler) SettingsForm(w http.ResponseWriter, r *http.Request) {
	h.renderSettings(w, r, nil, "", http.StatusOK)
}

func (h *Handler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	setting := settingFromForm(r)
	if _, err := h.settings.Save(r.Context(), setting); err != nil {
		h.logger.Error("save company api setting failed", "error", err)
		h.renderSettings(w, r, &setting, shared.UserSafeMessage(err), http.StatusBadRequest)
		return
	}

	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Settings saved successfully"})
	}
	http.Redirect(w, r, "/company-lookup/settings", http.StatusSeeOther)
}

func (h *Handler) TestConnection(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	setting := settingFromForm(r)
	setting.IsActive = true
	kind, message := "success", "Connection test succeeded"
	if err := h.client.TestConnection(r.Context(), &setting); err != nil {
		h.logger.Warn("company lookup connection test failed", "error", err)
		kind, message = "error", "Connection test failed: "+shared.UserSafeMessage(err)
	}

	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, "/company-lookup/settings", http.StatusSeeOther)
}

func settingFromForm(r *http.Request) APISetting {
	setting := APISetting{
		Name:      r.PostFormValue("name"),
		BaseURL:   r.PostFormValue("base_url"),
		APIKey:    r.PostFormValue("api_key"),
		VerifyTLS: r.PostFormValue("verify_tls") != "",
		IsActive:  r.PostFormValue("is_active") != "",
	}
	if v := r.PostFormValue("id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			setting.ID = id
		}
	}
	if v := r.PostFormValue("timeout_seconds"); v != "" {
		if timeout, err := strconv.Atoi(v); err == nil {
			setting.TimeoutSeconds = timeout
		}
	}
	return setting
}

func (h *Handler) renderSettings(w http.ResponseWriter, r *http.Request, setting *APISetting, formError string, status int) {
	if setting == nil {
		if active, err := h.settings.Active(r.Context()); err == nil {
			setting = &active
		}
	}

	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Company Lookup Settings",
		CSRFToken:   csrfToken,
		Flash:       flash,
		Actor:       shared.ActorFromContext(r.Context()),
		CurrentPath: r.URL.Path,
		Data: map[string]any{
			"Setting":   setting,
			"FormError": formError,
		},
	}
	w.WriteHeader(status)
	if err := h.templates.Render(w, "pages/companylookup/settings_form.html", viewData); err != nil {
		h.logger.Error("render template", "error", err, "template", "pages/companylookup/settings_form.html")
	}
}
