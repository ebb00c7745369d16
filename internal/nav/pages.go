package nav

import (
	"log/slog"
	"net/http"

	"github.com/bizos/bizos/internal/rbac"
	"github.com/bizos/bizos/internal/shared"
	"github.com/bizos/bizos/internal/view"
)

// Pages renders full pages with the menus of the acting role.
type Pages struct {
	Views  *view.Engine
	Access rbac.Middleware
	CSRF   *shared.CSRFManager
	Logger *slog.Logger
}

// Render writes the named page template with status.
func (p *Pages) Render(w http.ResponseWriter, r *http.Request, name, title string, data any, status int) {
	sess := shared.SessionFromContext(r.Context())
	td := view.TemplateData{
		Title:       title,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if p.CSRF != nil {
		td.CSRFToken = p.CSRF.EnsureToken(sess)
	}
	if sess != nil {
		td.Flash = sess.PopFlash()
	}
	if res := p.Access.Resolve(r); res.Known() {
		td.Role = res.Role.String()
		td.Sidebar = Links(Build(Sidebar(), res.Role), r.URL.Path)
		td.Account = Links(Build(Account(), res.Role), r.URL.Path)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := p.Views.Render(w, name, td); err != nil {
		p.log().Error("render template", slog.String("template", name), slog.Any("error", err))
	}
}

// RedirectWithFlash queues a flash message and redirects with 303.
func (p *Pages) RedirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func (p *Pages) log() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}
