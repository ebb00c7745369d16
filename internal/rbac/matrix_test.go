package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnknownRoleIsDeniedEverything(t *testing.T) {
	m := DefaultMatrix()
	for _, role := range []Role{"", "ghost", "Admin ", "super_admin"} {
		for _, p := range append(Permissions(), Wildcard, "crm.delete") {
			assert.Falsef(t, m.HasPermission(role, p), "role %q permission %q", role, p)
		}
		assert.Empty(t, m.AccessibleTables(role))
	}
}

func TestWildcardGrantsUndeclaredPermissions(t *testing.T) {
	m := DefaultMatrix()
	for _, p := range append(Permissions(), "never.listed", "") {
		assert.Truef(t, m.HasPermission(RoleOwner, p), "owner should hold %q", p)
		assert.Truef(t, m.HasPermission(RoleAdmin, p), "admin should hold %q", p)
	}
}

func TestEmptyRequirementListsFailClosed(t *testing.T) {
	m := DefaultMatrix()
	assert.False(t, m.HasAnyPermission(RoleOwner))
	assert.False(t, m.HasAllPermissions(RoleOwner))
	assert.False(t, m.HasAnyPermission(RoleDriver, []Permission{}...))
}

func TestPermissionCombinators(t *testing.T) {
	m := DefaultMatrix()
	assert.True(t, m.HasAnyPermission(RoleDriver, PermFinanceAdmin, PermDriverPortal))
	assert.False(t, m.HasAnyPermission(RoleDriver, PermFinanceAdmin, PermCRMRead))
	assert.True(t, m.HasAllPermissions(RoleCSR, PermCRMRead, PermCallCenterWrite))
	assert.False(t, m.HasAllPermissions(RoleVA, PermCRMRead, PermCallCenterWrite))
}

func TestEmptyGrantSetDeniesAll(t *testing.T) {
	m, err := NewMatrix(map[Role][]Permission{RoleStore: {}}, TableTiers{})
	require.NoError(t, err)
	assert.True(t, m.Has(RoleStore))
	assert.False(t, m.HasPermission(RoleStore, PermStorePortal))
}

func TestNewMatrixRejectsUndeclaredEntries(t *testing.T) {
	_, err := NewMatrix(map[Role][]Permission{RoleStore: {"store.refund"}}, TableTiers{})
	require.ErrorIs(t, err, ErrUnknownPermission)

	_, err = NewMatrix(map[Role][]Permission{"intern": {PermCRMRead}}, TableTiers{})
	require.ErrorIs(t, err, ErrUnknownRole)
}

func TestAccessibleTablesTiers(t *testing.T) {
	m, err := NewMatrix(map[Role][]Permission{
		RoleAdmin:      {},
		RoleOwner:      {Wildcard},
		RoleDeveloper:  {PermTablesAdmin},
		RoleAccountant: {PermTablesElevated},
		RoleDriver:     {PermDriverPortal},
	}, TableTiers{
		AdminOnly: []string{"audit_logs", "payroll"},
		Elevated:  []string{"invoices", "payroll", "crm_deals"},
	})
	require.NoError(t, err)

	all := []string{"audit_logs", "payroll", "invoices", "crm_deals"}
	assert.Equal(t, all, m.AccessibleTables(RoleAdmin), "admin override applies even without grants")
	assert.Equal(t, all, m.AccessibleTables(RoleOwner))
	assert.Equal(t, all, m.AccessibleTables(RoleDeveloper))
	assert.Equal(t, []string{"invoices", "payroll", "crm_deals"}, m.AccessibleTables(RoleAccountant))
	assert.Empty(t, m.AccessibleTables(RoleDriver))

	assert.True(t, m.CanAccessTable(RoleAccountant, " invoices "))
	assert.False(t, m.CanAccessTable(RoleAccountant, "audit_logs"))
}

func TestValidateReportsConfigurationGaps(t *testing.T) {
	m, err := NewMatrix(map[Role][]Permission{RoleAdmin: {Wildcard}}, TableTiers{})
	require.NoError(t, err)

	require.NoError(t, m.Validate(RoleAdmin, RoleAdmin))
	err = m.Validate(RoleAdmin, RoleDriver, RoleCSR)
	require.ErrorIs(t, err, ErrConfigurationGap)
	assert.Contains(t, err.Error(), "csr, driver")
}

func TestDefaultMatrixCoversDeclaredRoles(t *testing.T) {
	require.NoError(t, DefaultMatrix().Validate(Roles()...))
	assert.Equal(t, Roles(), DefaultMatrix().Roles())
}

func TestParseRoleNormalizes(t *testing.T) {
	cases := map[string]Role{
		"Admin ":             RoleAdmin,
		"  OWNER":            RoleOwner,
		"POD worker":         RolePODWorker,
		"realestate-worker":  RoleRealEstateWorker,
		"Real Estate Worker": "real_estate_worker",
	}
	for raw, want := range cases {
		got, _ := ParseRole(raw)
		assert.Equalf(t, want, got, "ParseRole(%q)", raw)
	}
	_, ok := ParseRole("Real Estate Worker")
	assert.False(t, ok)
	_, ok = ParseRole("")
	assert.False(t, ok)
}

func TestNormalizeRolesDedupes(t *testing.T) {
	got := NormalizeRoles([]string{"Driver", " driver ", "", "CSR"})
	assert.Equal(t, []Role{RoleDriver, RoleCSR}, got)
}
