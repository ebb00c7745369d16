package profiles

import (
	"time"

	"github.com/bizos/bizos/internal/rbac"
)

// Profile carries the role assignment and preferences of a user. Profiles are
// never deleted; rows with DeletedAt set are invisible to lookups.
type Profile struct {
	UserID      int64
	PrimaryRole rbac.Role
	Roles       []rbac.Role
	DisplayName string
	Language    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// UpdateInput is the self-service subset of a profile.
type UpdateInput struct {
	DisplayName string `validate:"required,min=2,max=80"`
	Language    string `validate:"required,language"`
}

// RoleCount is the number of live profiles holding a role.
type RoleCount struct {
	Role     rbac.Role
	Profiles int
}
