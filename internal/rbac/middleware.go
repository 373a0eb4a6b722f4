package rbac

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/stockline-erp/stockline/internal/shared"
)

// Middleware wires authorization helpers for HTTP handlers.
type Middleware struct {
	Loader ActorLoader
	Logger *slog.Logger
}

// RequireLogin resolves the session user into an Actor and stores it in the
// request context. Unauthenticated page requests are sent to the login
// screen; non-GET requests get a plain 401.
func (m Middleware) RequireLogin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := m.resolveActor(r)
			if !ok {
				if r.Method == http.MethodGet {
					http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
					return
				}
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithActor(r.Context(), actor)))
		})
	}
}

// RequireAdmin allows admins and super-admins through.
func (m Middleware) RequireAdmin() func(http.Handler) http.Handler {
	return m.require(func(a *shared.Actor) bool { return a.IsAdmin() })
}

// RequireSuperAdmin allows only super-admins through.
func (m Middleware) RequireSuperAdmin() func(http.Handler) http.Handler {
	return m.require(func(a *shared.Actor) bool { return a.IsSuperAdmin() })
}

func (m Middleware) require(allowed func(*shared.Actor) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := shared.ActorFromContext(r.Context())
			if actor == nil {
				var ok bool
				actor, ok = m.resolveActor(r)
				if !ok {
					http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
					return
				}
				r = r.WithContext(shared.ContextWithActor(r.Context(), actor))
			}
			if !allowed(actor) {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) resolveActor(r *http.Request) (*shared.Actor, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return nil, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return nil, false
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("rbac parse user id", slog.String("value", raw))
		}
		return nil, false
	}
	actor, err := m.Loader.LoadActor(r.Context(), userID)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("rbac load actor", slog.Any("error", err), slog.Int64("user_id", userID))
		}
		return nil, false
	}
	return actor, true
}
