package rbac

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bizos/bizos/internal/platform/httpx"
	"github.com/bizos/bizos/internal/shared"
)

// AccessHandler exposes the acting user's access over JSON.
type AccessHandler struct {
	access Middleware
	csrf   *shared.CSRFManager
}

// NewAccessHandler builds AccessHandler instance. csrf may be nil.
func NewAccessHandler(access Middleware, csrf *shared.CSRFManager) *AccessHandler {
	return &AccessHandler{access: access, csrf: csrf}
}

// MountRoutes registers access routes.
func (h *AccessHandler) MountRoutes(r chi.Router) {
	r.Get("/me", h.me)
	r.Get("/check", h.check)
	r.Get("/tables", h.tables)
	r.Group(func(r chi.Router) {
		r.Use(h.access.RequireAny(PermAdminSettings))
		r.Get("/matrix", h.matrix)
	})
}

type meResponse struct {
	UserID      int64        `json:"user_id"`
	Role        Role         `json:"role"`
	Roles       []Role       `json:"roles"`
	Known       bool         `json:"known_role"`
	Wildcard    bool         `json:"wildcard"`
	Permissions []Permission `json:"permissions"`
	CSRFToken   string       `json:"csrf_token,omitempty"`
}

type checkResponse struct {
	Permission Permission `json:"permission"`
	Granted    bool       `json:"granted"`
}

type tablesResponse struct {
	Role   Role     `json:"role"`
	Tables []string `json:"tables"`
}

type matrixResponse struct {
	Roles  map[Role][]Permission `json:"roles"`
	Tables TableTiers            `json:"tables"`
}

// settled resolves the request and writes an error unless a role is known.
func (h *AccessHandler) settled(w http.ResponseWriter, r *http.Request) (Resolution, bool) {
	res := h.access.Resolve(r)
	switch {
	case res.Loading:
		httpx.RespondError(w, httpx.ErrUnavailable)
		return res, false
	case !res.Known():
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return res, false
	}
	return res, true
}

func (h *AccessHandler) me(w http.ResponseWriter, r *http.Request) {
	res, ok := h.settled(w, r)
	if !ok {
		return
	}
	m := h.access.Matrix
	body := meResponse{
		UserID:      res.UserID,
		Role:        res.Role,
		Roles:       res.Roles,
		Known:       res.Role.Known() && m.Has(res.Role),
		Wildcard:    m.HoldsWildcard(res.Role),
		Permissions: m.Permissions(res.Role),
	}
	if body.Roles == nil {
		body.Roles = []Role{}
	}
	if body.Permissions == nil {
		body.Permissions = []Permission{}
	}
	if h.csrf != nil {
		body.CSRFToken = h.csrf.EnsureToken(shared.SessionFromContext(r.Context()))
	}
	httpx.JSON(w, http.StatusOK, body)
}

func (h *AccessHandler) check(w http.ResponseWriter, r *http.Request) {
	res, ok := h.settled(w, r)
	if !ok {
		return
	}
	raw := strings.TrimSpace(r.URL.Query().Get("permission"))
	p := Permission(raw)
	if raw == "" || !p.Known() {
		httpx.RespondError(w, fmt.Errorf("%w: unknown permission %q", httpx.ErrValidation, raw))
		return
	}
	httpx.JSON(w, http.StatusOK, checkResponse{Permission: p, Granted: h.access.Matrix.HasPermission(res.Role, p)})
}

func (h *AccessHandler) tables(w http.ResponseWriter, r *http.Request) {
	res, ok := h.settled(w, r)
	if !ok {
		return
	}
	tables := h.access.Matrix.AccessibleTables(res.Role)
	if tables == nil {
		tables = []string{}
	}
	httpx.JSON(w, http.StatusOK, tablesResponse{Role: res.Role, Tables: tables})
}

func (h *AccessHandler) matrix(w http.ResponseWriter, r *http.Request) {
	m := h.access.Matrix
	body := matrixResponse{Roles: make(map[Role][]Permission), Tables: m.Tables()}
	for _, role := range m.Roles() {
		body.Roles[role] = m.Permissions(role)
	}
	httpx.JSON(w, http.StatusOK, body)
}
