package profiles

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bizos/bizos/internal/nav"
	"github.com/bizos/bizos/internal/shared"
)

// Handler serves the self-service profile page.
type Handler struct {
	logger  *slog.Logger
	service *Service
	pages   *nav.Pages
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, pages *nav.Pages) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, pages: pages}
}

// MountRoutes registers profile routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.showProfile)
	r.Post("/", h.updateProfile)
}

type profileForm struct {
	DisplayName string
	Language    string
}

type profilePageData struct {
	Profile   Profile
	Form      profileForm
	Languages []string
	Errors    map[string]string
}

func (h *Handler) showProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	profile, err := h.service.Get(r.Context(), userID)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.pages.Render(w, r, "pages/profile.html", "Profile", profilePageData{
		Profile:   profile,
		Form:      profileForm{DisplayName: profile.DisplayName, Language: profile.Language},
		Languages: LanguageCodes(),
		Errors:    map[string]string{},
	}, http.StatusOK)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	input := UpdateInput{
		DisplayName: r.PostFormValue("display_name"),
		Language:    r.PostFormValue("language"),
	}
	_, err := h.service.UpdateSelf(r.Context(), userID, input)
	if err == nil {
		h.pages.RedirectWithFlash(w, r, "/profile", "success", "Profile updated")
		return
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		h.renderError(w, r, err)
		return
	}
	profile, err := h.service.Get(r.Context(), userID)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.pages.Render(w, r, "pages/profile.html", "Profile", profilePageData{
		Profile:   profile,
		Form:      profileForm(input),
		Languages: LanguageCodes(),
		Errors:    verr.Fields,
	}, http.StatusBadRequest)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, shared.ErrNotFound) {
		status = http.StatusNotFound
	} else {
		h.logger.Error("profile", slog.Any("error", err))
	}
	http.Error(w, shared.UserSafeMessage(err), status)
}
