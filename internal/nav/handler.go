package nav

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bizos/bizos/internal/platform/httpx"
	"github.com/bizos/bizos/internal/rbac"
)

// Handler serves the navigation menus for the acting role.
type Handler struct {
	access rbac.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(access rbac.Middleware) *Handler {
	return &Handler{access: access}
}

// MountRoutes registers navigation endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.getNav)
}

type navResponse struct {
	Role        string       `json:"role"`
	DefaultPath string       `json:"default_path"`
	Sidebar     []Descriptor `json:"sidebar"`
	Account     []Descriptor `json:"account"`
}

func (h *Handler) getNav(w http.ResponseWriter, r *http.Request) {
	res := h.access.Resolve(r)
	switch {
	case res.Loading:
		httpx.RespondError(w, httpx.ErrUnavailable)
		return
	case !res.Known():
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	httpx.JSON(w, http.StatusOK, navResponse{
		Role:        res.Role.String(),
		DefaultPath: DefaultPath(res.Role),
		Sidebar:     Build(Sidebar(), res.Role),
		Account:     Build(Account(), res.Role),
	})
}
