package rbac

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probeRoles() []Role {
	return append(Roles(), "ghost", "", "Admin")
}

func probePermissions() []Permission {
	return append(Permissions(), Wildcard, "crm.delete", "")
}

func TestMatrixRoundTripPreservesDecisions(t *testing.T) {
	original := DefaultMatrix()

	var buf bytes.Buffer
	require.NoError(t, original.Encode(&buf))

	reloaded, err := LoadMatrix(&buf)
	require.NoError(t, err)

	for _, role := range probeRoles() {
		for _, p := range probePermissions() {
			assert.Equalf(t, original.HasPermission(role, p), reloaded.HasPermission(role, p),
				"decision drift for role %q permission %q", role, p)
		}
		assert.Equal(t, original.AccessibleTables(role), reloaded.AccessibleTables(role))
	}
	assert.Equal(t, original.Roles(), reloaded.Roles())
}

func TestMatrixRoundTripGeneratedMatrices(t *testing.T) {
	perms := Permissions()
	roles := Roles()
	for seed := 0; seed < 8; seed++ {
		grants := make(map[Role][]Permission)
		for i, role := range roles {
			if (i+seed)%5 == 0 {
				continue
			}
			var granted []Permission
			for j, p := range perms {
				if (i*7+j*3+seed)%4 == 0 {
					granted = append(granted, p)
				}
			}
			if (i+seed)%11 == 0 {
				granted = append(granted, Wildcard)
			}
			grants[role] = granted
		}
		m, err := NewMatrix(grants, TableTiers{AdminOnly: []string{"a"}, Elevated: []string{"b", "c"}})
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, m.Encode(&buf))
		reloaded, err := LoadMatrix(&buf)
		require.NoErrorf(t, err, "seed %d", seed)

		for _, role := range probeRoles() {
			for _, p := range probePermissions() {
				require.Equalf(t, m.HasPermission(role, p), reloaded.HasPermission(role, p),
					"seed %d role %q permission %q", seed, role, p)
			}
		}
	}
}

func TestLoadMatrixNormalizesRoleKeys(t *testing.T) {
	doc := `
roles:
  "Admin ": ["*"]
  POD Worker: [pod.read]
tables:
  admin_only: [audit_logs]
  elevated: [pod_orders]
`
	m, err := LoadMatrix(strings.NewReader(doc))
	require.NoError(t, err)
	assert.True(t, m.HasPermission(RoleAdmin, PermFinanceAdmin))
	assert.True(t, m.HasPermission(RolePODWorker, PermPODRead))
	assert.False(t, m.HasPermission(RolePODWorker, PermPODWrite))
}

func TestLoadMatrixRejectsUnknownEntries(t *testing.T) {
	_, err := LoadMatrix(strings.NewReader("roles:\n  intern: [crm.read]\n"))
	require.ErrorIs(t, err, ErrUnknownRole)

	_, err = LoadMatrix(strings.NewReader("roles:\n  driver: [driver.refuel]\n"))
	require.ErrorIs(t, err, ErrUnknownPermission)

	_, err = LoadMatrix(strings.NewReader("roles: {}\nextra: true\n"))
	require.Error(t, err)

	_, err = LoadMatrix(strings.NewReader(""))
	require.Error(t, err)
}

func TestLoadMatrixRejectsKeysNamingTheSameRole(t *testing.T) {
	doc := `
roles:
  admin: [crm.read]
  "Admin ": ["*"]
`
	_, err := LoadMatrix(strings.NewReader(doc))
	require.ErrorIs(t, err, ErrDuplicateRole)
	assert.Contains(t, err.Error(), `"admin"`)

	_, err = LoadMatrix(strings.NewReader("roles:\n  POD Worker: [pod.read]\n  pod_worker: [pod.write]\n"))
	require.ErrorIs(t, err, ErrDuplicateRole)
}

func TestLoadMatrixAcceptsJSON(t *testing.T) {
	m, err := LoadMatrix(strings.NewReader(`{"roles":{"store":["store.portal"]},"tables":{"admin_only":[],"elevated":[]}}`))
	require.NoError(t, err)
	assert.True(t, m.HasPermission(RoleStore, PermStorePortal))
}
