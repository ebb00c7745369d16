package app

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bizos/bizos/internal/audit"
	"github.com/bizos/bizos/internal/auth"
	"github.com/bizos/bizos/internal/guard"
	"github.com/bizos/bizos/internal/nav"
	"github.com/bizos/bizos/internal/observability"
	"github.com/bizos/bizos/internal/platform/httpx"
	"github.com/bizos/bizos/internal/profiles"
	"github.com/bizos/bizos/internal/rbac"
	"github.com/bizos/bizos/internal/shared"
	"github.com/bizos/bizos/internal/workspace"
	"github.com/bizos/bizos/jobs"
	"github.com/bizos/bizos/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Pages            *nav.Pages
	SessionManager   *shared.SessionManager
	CSRFManager      *shared.CSRFManager
	Access           rbac.Middleware
	Guard            *guard.Guard
	Routes           []guard.Route
	AuthHandler      *auth.Handler
	ProfilesHandler  *profiles.Handler
	WorkspaceHandler *workspace.Handler
	NavHandler       *nav.Handler
	AccessHandler    *rbac.AccessHandler
	AuditHandler     *audit.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with BizOS defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Access:         params.Access,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/welcome", func(w http.ResponseWriter, r *http.Request) {
		params.Pages.Render(w, r, "pages/welcome.html", "BizOS", nil, http.StatusOK)
	})
	r.Get("/", landingHandler(params))
	r.Get("/home", homeHandler(params))
	r.Get("/denied", func(w http.ResponseWriter, r *http.Request) {
		params.Pages.Render(w, r, "pages/denied.html", "Access denied", nil, http.StatusForbidden)
	})

	if params.AuthHandler != nil {
		r.Route("/auth", params.AuthHandler.MountRoutes)
	}

	// Account pages have their own handlers; every other guarded route is a
	// portal page.
	mounts := make(map[string]func(chi.Router), 2)
	if params.ProfilesHandler != nil {
		mounts["/profile"] = params.ProfilesHandler.MountRoutes
	}
	if params.WorkspaceHandler != nil {
		mounts["/workspace"] = params.WorkspaceHandler.MountPage
	}
	for _, route := range params.Routes {
		route := route
		protect := params.Guard.Protect(route)
		if mount, ok := mounts[route.Path]; ok {
			r.Group(func(gr chi.Router) {
				gr.Use(protect)
				gr.Route(route.Path, mount)
			})
			continue
		}
		if isAccountRoute(route.Path) {
			continue
		}
		r.With(protect).Get(route.Path, portalHandler(params.Pages, route))
	}

	r.Route("/api", func(api chi.Router) {
		if params.AccessHandler != nil {
			api.Route("/access", params.AccessHandler.MountRoutes)
		}
		if params.NavHandler != nil {
			api.Route("/nav", params.NavHandler.MountRoutes)
		}
		if params.WorkspaceHandler != nil {
			api.Route("/workspace", func(wr chi.Router) {
				wr.Use(params.Access.RequireRole(RouteRoles(params.Routes, "/workspace")...))
				params.WorkspaceHandler.MountAPI(wr)
			})
		}
		if params.AuditHandler != nil {
			api.Route("/audit", func(ar chi.Router) {
				ar.Use(params.Access.RequireAny(rbac.PermAdminUsers))
				params.AuditHandler.MountRoutes(ar)
			})
		}
		if params.JobHandler != nil {
			api.Route("/jobs", func(jr chi.Router) {
				jr.Use(params.Access.RequireAny(rbac.PermAdminSettings))
				params.JobHandler.MountRoutes(jr)
			})
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// landingHandler forwards each settled role to its own portal.
func landingHandler(params RouterParams) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := params.Access.Resolve(r)
		switch {
		case res.Loading:
			w.Header().Set("Retry-After", "1")
			params.Pages.Render(w, r, "pages/loading.html", "Loading", nil, http.StatusServiceUnavailable)
		case errors.Is(res.Err, rbac.ErrNoSession):
			http.Redirect(w, r, "/welcome", http.StatusSeeOther)
		case !res.Known():
			http.Redirect(w, r, params.Guard.DeniedPath, http.StatusSeeOther)
		default:
			http.Redirect(w, r, nav.DefaultPath(res.Role), http.StatusSeeOther)
		}
	}
}

func homeHandler(params RouterParams) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := params.Access.Resolve(r)
		switch {
		case res.Loading:
			w.Header().Set("Retry-After", "1")
			params.Pages.Render(w, r, "pages/loading.html", "Loading", nil, http.StatusServiceUnavailable)
		case errors.Is(res.Err, rbac.ErrNoSession):
			http.Redirect(w, r, "/welcome", http.StatusSeeOther)
		default:
			params.Pages.Render(w, r, "pages/home.html", "BizOS", nil, http.StatusOK)
		}
	}
}

func portalHandler(pages *nav.Pages, route guard.Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pages.Render(w, r, "pages/portal.html", route.Title, nil, http.StatusOK)
	}
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
