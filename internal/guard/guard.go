package guard

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/bizos/bizos/internal/rbac"
	"github.com/bizos/bizos/internal/shared"
	"github.com/bizos/bizos/internal/view"
)

// Renderer renders full pages.
type Renderer interface {
	Render(w http.ResponseWriter, name string, data view.TemplateData) error
}

// Guard protects pages using the resolved role of the acting user.
type Guard struct {
	Access     rbac.Middleware
	Views      Renderer
	Metrics    *Metrics
	Logger     *slog.Logger
	LoginPath  string
	DeniedPath string
}

// Evaluate resolves the acting user and evaluates it against route.
func (g *Guard) Evaluate(r *http.Request, route Route) (rbac.Resolution, Decision) {
	res := g.Access.Resolve(r)
	d := Evaluate(res, route.AllowedRoles, g.Access.Matrix)
	g.Metrics.observe(route.Path, d.State)
	return res, d
}

// Protect applies the guard variant declared on route.
func (g *Guard) Protect(route Route) func(http.Handler) http.Handler {
	if route.Variant == VariantInline {
		return g.Inline(route, route.ShowError)
	}
	return g.Redirect(route)
}

// Redirect is the hard guard: denied users are redirected to the route
// fallback, or to the login page when no one is signed in.
func (g *Guard) Redirect(route Route) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, d := g.Evaluate(r, route)
			switch d.State {
			case Loading:
				g.renderLoading(w, r)
			case Denied:
				target := g.denyTarget(route, res, r)
				if samePath(target, r.URL.Path) {
					g.renderDenied(w, r, route, "")
					return
				}
				g.logDenied(r, route, res, d)
				http.Redirect(w, r, target, http.StatusSeeOther)
			default:
				next.ServeHTTP(w, r.WithContext(ContextWithDecision(rbac.ContextWithResolution(r.Context(), res), d)))
			}
		})
	}
}

// Inline is the soft guard: denied users stay on the URL and see either the
// denied notice or nothing.
func (g *Guard) Inline(route Route, showError bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, d := g.Evaluate(r, route)
			switch d.State {
			case Loading:
				w.Header().Set("Retry-After", "1")
				writeFragment(w, http.StatusServiceUnavailable, LoadingFragment)
			case Denied:
				g.logDenied(r, route, res, d)
				if errors.Is(res.Err, rbac.ErrNoSession) && g.Views != nil {
					g.renderDenied(w, r, route, g.loginURL(r))
					return
				}
				if showError {
					writeFragment(w, http.StatusForbidden, DeniedNotice)
					return
				}
				w.WriteHeader(http.StatusForbidden)
			default:
				next.ServeHTTP(w, r.WithContext(ContextWithDecision(rbac.ContextWithResolution(r.Context(), res), d)))
			}
		})
	}
}

func (g *Guard) denyTarget(route Route, res rbac.Resolution, r *http.Request) string {
	if errors.Is(res.Err, rbac.ErrNoSession) && g.LoginPath != "" {
		return g.loginURL(r)
	}
	if route.Fallback != "" {
		return route.Fallback
	}
	if g.DeniedPath != "" {
		return g.DeniedPath
	}
	return "/"
}

func (g *Guard) loginURL(r *http.Request) string {
	if g.LoginPath == "" {
		return ""
	}
	q := url.Values{"next": []string{r.URL.RequestURI()}}
	return g.LoginPath + "?" + q.Encode()
}

func (g *Guard) renderLoading(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "1")
	w.Header().Set("Cache-Control", "no-store")
	if g.Views == nil {
		writeFragment(w, http.StatusServiceUnavailable, LoadingFragment)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	if err := g.Views.Render(w, "pages/loading.html", view.TemplateData{Title: "Loading", CurrentPath: r.URL.Path}); err != nil {
		g.log().Error("render loading", slog.Any("error", err))
	}
}

// DeniedPage is the template data of the full denied page. LoginURL is set
// when nobody is signed in.
type DeniedPage struct {
	LoginURL string
}

func (g *Guard) renderDenied(w http.ResponseWriter, r *http.Request, route Route, loginURL string) {
	if g.Views == nil {
		writeFragment(w, http.StatusForbidden, DeniedNotice)
		return
	}
	data := view.TemplateData{Title: route.Title, CurrentPath: r.URL.Path, Data: DeniedPage{LoginURL: loginURL}}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		data.Flash = sess.PopFlash()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	if err := g.Views.Render(w, "pages/denied.html", data); err != nil {
		g.log().Error("render denied", slog.Any("error", err))
	}
}

func (g *Guard) logDenied(r *http.Request, route Route, res rbac.Resolution, d Decision) {
	attrs := []any{
		slog.String("route", route.Path),
		slog.String("path", r.URL.Path),
		slog.String("role", string(d.Role)),
		slog.String("reason", d.Reason),
	}
	if res.Err != nil && !errors.Is(res.Err, rbac.ErrNoSession) {
		attrs = append(attrs, slog.Any("error", res.Err))
		g.log().Warn("guard denied", attrs...)
		return
	}
	g.log().Debug("guard denied", attrs...)
}

func (g *Guard) log() *slog.Logger {
	if g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

func samePath(target, current string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	clean := func(p string) string {
		if p == "" {
			return "/"
		}
		return strings.TrimSuffix(path.Clean(p), "/")
	}
	return clean(u.Path) == clean(current)
}
