package rbac

import "errors"

var (
	// ErrNoSession indicates the request carries no authenticated user.
	ErrNoSession = errors.New("rbac: no session")
	// ErrNoProfile indicates the user has no live profile to resolve a role from.
	ErrNoProfile = errors.New("rbac: profile not found")
	// ErrConfigurationGap indicates a role referenced by routing or navigation
	// has no entry in the permission matrix.
	ErrConfigurationGap = errors.New("rbac: role missing from permission matrix")
	// ErrUnknownPermission indicates a permission outside the declared catalogue.
	ErrUnknownPermission = errors.New("rbac: unknown permission")
	// ErrUnknownRole indicates a role outside the declared set.
	ErrUnknownRole = errors.New("rbac: unknown role")
	// ErrDuplicateRole indicates two matrix keys that name the same role.
	ErrDuplicateRole = errors.New("rbac: duplicate role")
)
