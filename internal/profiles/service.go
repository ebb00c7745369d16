package profiles

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"

	"github.com/bizos/bizos/internal/shared"
)

// SupportedLanguages lists the interface languages a profile may choose.
var SupportedLanguages = []language.Tag{language.English, language.Spanish, language.Portuguese, language.French}

// RoleInvalidator drops cached role resolutions.
type RoleInvalidator interface {
	Invalidate(ctx context.Context, userID int64) error
}

// Service handles profile business logic.
type Service struct {
	repo      RepositoryPort
	roles     RoleInvalidator
	audit     shared.AuditRecorder
	logger    *slog.Logger
	validator *validator.Validate
}

// NewService builds Service instance. roles and audit may be nil.
func NewService(repo RepositoryPort, roles RoleInvalidator, audit shared.AuditRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	v := validator.New()
	_ = v.RegisterValidation("language", func(fl validator.FieldLevel) bool {
		_, ok := MatchLanguage(fl.Field().String())
		return ok
	})
	return &Service{repo: repo, roles: roles, audit: audit, logger: logger, validator: v}
}

// MatchLanguage parses raw as a BCP 47 tag and reports the supported
// language it belongs to.
func MatchLanguage(raw string) (language.Tag, bool) {
	tag, err := language.Parse(strings.TrimSpace(raw))
	if err != nil {
		return language.Und, false
	}
	base, _ := tag.Base()
	for _, supported := range SupportedLanguages {
		if sb, _ := supported.Base(); sb == base {
			return supported, true
		}
	}
	return language.Und, false
}

// LanguageCodes returns the supported languages as tag strings.
func LanguageCodes() []string {
	out := make([]string, len(SupportedLanguages))
	for i, tag := range SupportedLanguages {
		out[i] = tag.String()
	}
	return out
}

// Get returns the live profile of userID.
func (s *Service) Get(ctx context.Context, userID int64) (Profile, error) {
	return s.repo.GetProfile(ctx, userID)
}

// Validate checks input and returns per-field messages.
func (s *Service) Validate(input UpdateInput) map[string]string {
	errs := make(map[string]string)
	if err := s.validator.Struct(input); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fieldErr := range verrs {
				errs[fieldErr.Field()] = fieldMessage(fieldErr)
			}
		} else {
			errs["general"] = err.Error()
		}
	}
	return errs
}

// UpdateSelf applies a self-service edit. Role fields are never touched here.
func (s *Service) UpdateSelf(ctx context.Context, userID int64, input UpdateInput) (Profile, error) {
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	if errs := s.Validate(input); len(errs) > 0 {
		return Profile{}, &ValidationError{Fields: errs}
	}
	tag, _ := MatchLanguage(input.Language)
	input.Language = tag.String()

	before, after, err := s.repo.UpdateProfile(ctx, userID, input)
	if err != nil {
		return Profile{}, err
	}

	if s.roles != nil {
		if err := s.roles.Invalidate(ctx, userID); err != nil {
			s.logger.Warn("invalidate role cache", slog.Int64("user_id", userID), slog.Any("error", err))
		}
	}
	if s.audit != nil {
		err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  userID,
			Action:   "profile.update",
			Entity:   "profile",
			EntityID: strconv.FormatInt(userID, 10),
			Meta: map[string]any{
				"display_name": map[string]string{"from": before.DisplayName, "to": after.DisplayName},
				"language":     map[string]string{"from": before.Language, "to": after.Language},
			},
		})
		if err != nil {
			s.logger.Warn("audit profile update", slog.Int64("user_id", userID), slog.Any("error", err))
		}
	}
	return after, nil
}

// ValidationError carries per-field messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "profiles: invalid input"
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "min", "max":
		return "Must be between 2 and 80 characters."
	case "language":
		return "Choose one of the supported languages."
	default:
		return fe.Error()
	}
}
