package rbac

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bizos/bizos/internal/platform/httpx"
	"github.com/bizos/bizos/internal/shared"
)

// Middleware wires role resolution and permission checks into HTTP handlers.
type Middleware struct {
	Resolver *Resolver
	Matrix   *Matrix
	Logger   *slog.Logger
	// Timeout bounds how long a request waits for a pending resolution.
	Timeout time.Duration
}

// Attach resolves the acting user's role once and stores it in the request
// context for downstream guards and handlers.
func (m Middleware) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ResolutionFromContext(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}
		res := m.Resolve(r)
		next.ServeHTTP(w, r.WithContext(ContextWithResolution(r.Context(), res)))
	})
}

// Resolve returns the resolution attached to r, resolving it when absent.
func (m Middleware) Resolve(r *http.Request) Resolution {
	if res, ok := ResolutionFromContext(r.Context()); ok {
		return res
	}
	userID, ok := m.currentUserID(r)
	if !ok {
		return Resolution{Err: ErrNoSession}
	}
	ctx := r.Context()
	if m.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}
	return m.Resolver.Resolve(ctx, userID)
}

// RequireAny ensures the acting role holds at least one of perms.
func (m Middleware) RequireAny(perms ...Permission) func(http.Handler) http.Handler {
	return m.require("require any", perms, m.Matrix.HasAnyPermission)
}

// RequireAll ensures the acting role holds every entry of perms.
func (m Middleware) RequireAll(perms ...Permission) func(http.Handler) http.Handler {
	return m.require("require all", perms, m.Matrix.HasAllPermissions)
}

// RequireRole admits wildcard holders and the listed roles. It is the API
// counterpart of a page guard and fails closed when roles is empty.
func (m Middleware) RequireRole(roles ...Role) func(http.Handler) http.Handler {
	return m.require("require role", nil, func(role Role, _ ...Permission) bool {
		return m.Matrix.HoldsWildcard(role) || ContainsRole(roles, role)
	})
}

func (m Middleware) require(op string, perms []Permission, check func(Role, ...Permission) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := m.Resolve(r)
			switch {
			case res.Loading:
				w.Header().Set("Retry-After", "1")
				httpx.Problem(w, http.StatusServiceUnavailable, "Access Pending", "role resolution has not completed")
				return
			case !res.Known():
				if m.Logger != nil && res.Err != nil && !errors.Is(res.Err, ErrNoSession) {
					m.Logger.Warn("rbac "+op, slog.Any("error", res.Err))
				}
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			case !check(res.Role, perms...):
				httpx.RespondError(w, httpx.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithResolution(r.Context(), res)))
		})
	}
}

func (m Middleware) currentUserID(r *http.Request) (int64, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("rbac parse user id", slog.String("value", raw))
		}
		return 0, false
	}
	return id, true
}
