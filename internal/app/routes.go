package app

import (
	"errors"
	"fmt"

	"github.com/bizos/bizos/internal/guard"
	"github.com/bizos/bizos/internal/nav"
	"github.com/bizos/bizos/internal/rbac"
)

// ErrInvalidRoute reports a route table that cannot be served safely.
var ErrInvalidRoute = errors.New("app: invalid route table")

// inlineRoutes keep the URL on denial and show the access notice in place.
var inlineRoutes = map[string]bool{
	"/admin":     true,
	"/developer": true,
}

// Routes is the guarded page table derived from the sidebar and account
// menus, so a page admits exactly the roles that see its menu entry.
// Redirect routes fall back to "/", which forwards each role to its own
// landing portal.
func Routes() []guard.Route {
	sidebar, account := nav.Sidebar(), nav.Account()
	routes := make([]guard.Route, 0, len(sidebar)+len(account))
	for _, d := range append(sidebar, account...) {
		rt := guard.Route{Path: d.To, Title: d.Label, AllowedRoles: d.Roles}
		if inlineRoutes[d.To] {
			rt.Variant = guard.VariantInline
			rt.ShowError = true
		} else {
			rt.Variant = guard.VariantRedirect
			rt.Fallback = "/"
		}
		routes = append(routes, rt)
	}
	return routes
}

// isAccountRoute reports whether path belongs to the account menu. Account
// pages are served by dedicated handlers rather than portal pages.
func isAccountRoute(path string) bool {
	for _, d := range nav.Account() {
		if d.To == path {
			return true
		}
	}
	return false
}

// RouteRoles returns the roles admitted to path. A path missing from routes
// yields nil, which admits only wildcard holders.
func RouteRoles(routes []guard.Route, path string) []rbac.Role {
	for _, rt := range routes {
		if rt.Path == path {
			return rt.AllowedRoles
		}
	}
	return nil
}

// ValidateRoutes rejects route tables with blank or duplicate paths, unknown
// variants, fallbacks that are themselves guarded, and roles the matrix does
// not carry.
func ValidateRoutes(routes []guard.Route, matrix *rbac.Matrix) error {
	guarded := make(map[string]struct{}, len(routes))
	var used []rbac.Role
	for _, rt := range routes {
		if rt.Path == "" || rt.Path[0] != '/' {
			return fmt.Errorf("%w: route %q must be an absolute path", ErrInvalidRoute, rt.Path)
		}
		if _, dup := guarded[rt.Path]; dup {
			return fmt.Errorf("%w: duplicate route %q", ErrInvalidRoute, rt.Path)
		}
		guarded[rt.Path] = struct{}{}
		switch rt.Variant {
		case "", guard.VariantRedirect, guard.VariantInline:
		default:
			return fmt.Errorf("%w: route %q has unknown variant %q", ErrInvalidRoute, rt.Path, rt.Variant)
		}
		for _, role := range rt.AllowedRoles {
			if !rbac.ContainsRole(used, role) {
				used = append(used, role)
			}
		}
	}
	for _, rt := range routes {
		if _, loop := guarded[rt.Fallback]; loop {
			return fmt.Errorf("%w: route %q falls back to guarded route %q", ErrInvalidRoute, rt.Path, rt.Fallback)
		}
	}
	if err := matrix.Validate(used...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRoute, err)
	}
	return nil
}

// ValidateNavigation ensures every role named by the menus has a matrix entry
// and every menu entry is served by a guarded route admitting the same roles.
func ValidateNavigation(routes []guard.Route, matrix *rbac.Matrix) error {
	if err := matrix.Validate(nav.Roles(nav.Sidebar(), nav.Account())...); err != nil {
		return fmt.Errorf("app: navigation: %w", err)
	}
	byPath := make(map[string]guard.Route, len(routes))
	for _, rt := range routes {
		byPath[rt.Path] = rt
	}
	for _, d := range append(nav.Sidebar(), nav.Account()...) {
		rt, ok := byPath[d.To]
		if !ok {
			return fmt.Errorf("%w: menu entry %q has no guarded route", ErrInvalidRoute, d.To)
		}
		if !sameRoles(rt.AllowedRoles, d.Roles) {
			return fmt.Errorf("%w: route %q admits %v but its menu entry lists %v", ErrInvalidRoute, d.To, rt.AllowedRoles, d.Roles)
		}
	}
	return nil
}

func sameRoles(a, b []rbac.Role) bool {
	for _, role := range a {
		if !rbac.ContainsRole(b, role) {
			return false
		}
	}
	for _, role := range b {
		if !rbac.ContainsRole(a, role) {
			return false
		}
	}
	return true
}
