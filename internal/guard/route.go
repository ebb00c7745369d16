package guard

import "github.com/bizos/bizos/internal/rbac"

// Variant selects how a route reacts to a denied decision.
type Variant string

const (
	// VariantRedirect sends denied users to the route fallback.
	VariantRedirect Variant = "redirect"
	// VariantInline keeps the URL and renders a notice in place.
	VariantInline Variant = "inline"
)

// Route is a guarded page registered in the route table.
type Route struct {
	Path         string
	Title        string
	AllowedRoles []rbac.Role
	// Fallback is where denied users are sent; empty uses the guard default.
	Fallback  string
	Variant   Variant
	ShowError bool
}
