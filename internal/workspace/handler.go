package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/bizos/bizos/internal/nav"
	"github.com/bizos/bizos/internal/platform/httpx"
	"github.com/bizos/bizos/internal/shared"
)

// Handler exposes workspace selection over JSON and as a page.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	pages     *nav.Pages
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, pages *nav.Pages) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, pages: pages, validator: validator.New()}
}

// MountAPI registers the JSON selection endpoints.
func (h *Handler) MountAPI(r chi.Router) {
	r.Get("/selection", h.getSelection)
	r.Put("/selection", h.putSelection)
	r.Delete("/selection", h.deleteSelection)
}

// MountPage registers the workspace page.
func (h *Handler) MountPage(r chi.Router) {
	r.Get("/", h.showWorkspace)
}

type selectRequest struct {
	BusinessID int64 `json:"business_id" validate:"required,gt=0"`
}

func (h *Handler) getSelection(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	sel, err := h.service.Current(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sel)
}

func (h *Handler) putSelection(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req selectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: business_id must be positive", httpx.ErrValidation))
		return
	}
	sel, err := h.service.Select(r.Context(), userID, req.BusinessID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sel)
}

func (h *Handler) deleteSelection(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	if err := h.service.Clear(r.Context(), userID); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type workspacePageData struct {
	Businesses []Business
	SelectedID int64
}

func (h *Handler) showWorkspace(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	businesses, err := h.service.Businesses(r.Context(), userID)
	if err != nil {
		h.logger.Error("list businesses", slog.Any("error", err))
		http.Error(w, shared.UserSafeMessage(err), http.StatusInternalServerError)
		return
	}
	data := workspacePageData{Businesses: businesses}
	if sel, err := h.service.Current(r.Context(), userID); err == nil {
		data.SelectedID = sel.BusinessID
	} else if !errors.Is(err, ErrNoSelection) {
		h.logger.Warn("load selection", slog.Any("error", err))
	}
	h.pages.Render(w, r, "pages/workspace.html", "Workspace", data, http.StatusOK)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoSelection):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrNotFound, err))
	case errors.Is(err, ErrNotMember):
		httpx.RespondError(w, httpx.ErrForbidden)
	default:
		h.logger.Error("workspace", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
