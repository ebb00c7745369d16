package auth

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/bizos/bizos/internal/shared"
)

// RoleInvalidator drops cached role resolutions.
type RoleInvalidator interface {
	Invalidate(ctx context.Context, userID int64) error
}

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	roles  RoleInvalidator
	logger *slog.Logger
}

// NewService constructs a new Service. roles may be nil.
func NewService(repo Repository, roles RoleInvalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, roles: roles, logger: logger}
}

// Authenticate validates email/password credentials. A successful sign-in
// drops any cached role so the session starts from the stored profile.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if s.roles != nil {
		if err := s.roles.Invalidate(ctx, user.ID); err != nil {
			s.logger.Warn("invalidate role cache", slog.Int64("user_id", user.ID), slog.Any("error", err))
		}
	}
	return user, nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}
