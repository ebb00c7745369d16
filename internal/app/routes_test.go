package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizos/bizos/internal/guard"
	"github.com/bizos/bizos/internal/nav"
	"github.com/bizos/bizos/internal/rbac"
)

func TestRoutesValidateAgainstDefaultMatrix(t *testing.T) {
	require.NoError(t, ValidateRoutes(Routes(), rbac.DefaultMatrix()))
	require.NoError(t, ValidateNavigation(Routes(), rbac.DefaultMatrix()))
}

func TestRoutesFollowMenus(t *testing.T) {
	routes := Routes()
	require.Len(t, routes, len(nav.Sidebar())+len(nav.Account()))

	paths := make(map[string]guard.Route)
	for _, rt := range routes {
		paths[rt.Path] = rt
	}
	assert.Equal(t, guard.VariantRedirect, paths["/crm"].Variant)
	assert.Equal(t, "/", paths["/crm"].Fallback)
	assert.Equal(t, guard.VariantInline, paths["/admin"].Variant)
	assert.True(t, paths["/admin"].ShowError)
	assert.Equal(t, "Driver Portal", paths["/driver"].Title)

	for _, d := range nav.Account() {
		rt, ok := paths[d.To]
		require.Truef(t, ok, "account entry %s is not guarded", d.To)
		assert.Equal(t, d.Roles, rt.AllowedRoles)
		assert.Equal(t, guard.VariantRedirect, rt.Variant)
		assert.Equal(t, "/", rt.Fallback)
	}
	assert.NotContains(t, RouteRoles(routes, "/workspace"), rbac.RoleDriver)
	assert.Contains(t, RouteRoles(routes, "/workspace"), rbac.RoleAccountant)
	assert.Nil(t, RouteRoles(routes, "/nowhere"))
}

func TestValidateNavigationRejectsUnguardedMenuEntries(t *testing.T) {
	m := rbac.DefaultMatrix()
	full := Routes()

	var withoutWorkspace []guard.Route
	for _, rt := range full {
		if rt.Path != "/workspace" {
			withoutWorkspace = append(withoutWorkspace, rt)
		}
	}
	err := ValidateNavigation(withoutWorkspace, m)
	require.ErrorIs(t, err, ErrInvalidRoute)
	assert.Contains(t, err.Error(), "/workspace")

	widened := Routes()
	for i := range widened {
		if widened[i].Path == "/workspace" {
			widened[i].AllowedRoles = rbac.Roles()
		}
	}
	err = ValidateNavigation(widened, m)
	require.ErrorIs(t, err, ErrInvalidRoute)
	assert.Contains(t, err.Error(), "/workspace")
}

func TestDefaultPathsAreReachable(t *testing.T) {
	m := rbac.DefaultMatrix()
	for _, rt := range Routes() {
		for _, role := range rt.AllowedRoles {
			d := guard.Evaluate(rbac.Resolution{UserID: 1, Role: role}, rt.AllowedRoles, m)
			assert.Equal(t, guard.Allowed, d.State)
		}
	}
	for _, role := range rbac.Roles() {
		target := nav.DefaultPath(role)
		for _, rt := range Routes() {
			if rt.Path == target {
				d := guard.Evaluate(rbac.Resolution{UserID: 1, Role: role}, rt.AllowedRoles, m)
				assert.Equalf(t, guard.Allowed, d.State, "%s cannot open its landing page %s", role, target)
			}
		}
	}
}

func TestValidateRoutesRejectsBrokenTables(t *testing.T) {
	m := rbac.DefaultMatrix()
	cases := map[string][]guard.Route{
		"relative path": {{Path: "crm", AllowedRoles: []rbac.Role{rbac.RoleAdmin}}},
		"duplicate": {
			{Path: "/crm", AllowedRoles: []rbac.Role{rbac.RoleAdmin}},
			{Path: "/crm", AllowedRoles: []rbac.Role{rbac.RoleOwner}},
		},
		"guarded fallback": {
			{Path: "/crm", AllowedRoles: []rbac.Role{rbac.RoleAdmin}, Fallback: "/finance"},
			{Path: "/finance", AllowedRoles: []rbac.Role{rbac.RoleAccountant}, Fallback: "/crm"},
		},
		"unknown variant": {{Path: "/crm", Variant: "modal"}},
	}
	for name, routes := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, ValidateRoutes(routes, m), ErrInvalidRoute)
		})
	}
}

func TestValidateRoutesReportsMissingRoles(t *testing.T) {
	m, err := rbac.NewMatrix(map[rbac.Role][]rbac.Permission{rbac.RoleAdmin: {rbac.Wildcard}}, rbac.TableTiers{})
	require.NoError(t, err)

	err = ValidateRoutes(Routes(), m)
	require.ErrorIs(t, err, ErrInvalidRoute)
	assert.ErrorIs(t, err, rbac.ErrConfigurationGap)
	assert.Contains(t, err.Error(), "driver")
	assert.ErrorIs(t, ValidateNavigation(Routes(), m), rbac.ErrConfigurationGap)
}
