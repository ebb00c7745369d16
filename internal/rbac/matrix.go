package rbac

import (
	"fmt"
	"sort"
	"strings"
)

// TableTiers lists the backend tables gated behind the two access tiers.
type TableTiers struct {
	AdminOnly []string `json:"admin_only"`
	Elevated  []string `json:"elevated"`
}

// Matrix maps roles to granted permissions. It is immutable once built and
// safe for concurrent reads.
type Matrix struct {
	grants map[Role]map[Permission]struct{}
	order  []Role
	tables TableTiers
}

// NewMatrix builds a Matrix, rejecting undeclared roles and permissions.
func NewMatrix(grants map[Role][]Permission, tables TableTiers) (*Matrix, error) {
	m := &Matrix{
		grants: make(map[Role]map[Permission]struct{}, len(grants)),
		tables: TableTiers{
			AdminOnly: dedupeTables(tables.AdminOnly),
			Elevated:  dedupeTables(tables.Elevated),
		},
	}
	for role, perms := range grants {
		if !role.Known() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
		}
		set := make(map[Permission]struct{}, len(perms))
		for _, p := range perms {
			if !p.Known() {
				return nil, fmt.Errorf("%w: %q granted to %s", ErrUnknownPermission, p, role)
			}
			set[p] = struct{}{}
		}
		m.grants[role] = set
	}
	for _, role := range declaredRoles {
		if _, ok := m.grants[role]; ok {
			m.order = append(m.order, role)
		}
	}
	return m, nil
}

// HasPermission reports whether role is granted p. Unknown roles are denied;
// the wildcard grant short-circuits before set membership.
func (m *Matrix) HasPermission(role Role, p Permission) bool {
	if m == nil {
		return false
	}
	set, ok := m.grants[role]
	if !ok || len(set) == 0 {
		return false
	}
	if _, ok := set[Wildcard]; ok {
		return true
	}
	_, ok = set[p]
	return ok
}

// HasAnyPermission reports whether role holds at least one of perms. An empty
// requirement list is denied.
func (m *Matrix) HasAnyPermission(role Role, perms ...Permission) bool {
	for _, p := range perms {
		if m.HasPermission(role, p) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether role holds every entry of perms. An empty
// requirement list is denied.
func (m *Matrix) HasAllPermissions(role Role, perms ...Permission) bool {
	if len(perms) == 0 {
		return false
	}
	for _, p := range perms {
		if !m.HasPermission(role, p) {
			return false
		}
	}
	return true
}

// HoldsWildcard reports whether role is granted the wildcard.
func (m *Matrix) HoldsWildcard(role Role) bool {
	if m == nil {
		return false
	}
	_, ok := m.grants[role][Wildcard]
	return ok
}

// Has reports whether the matrix carries an entry for role, even an empty one.
func (m *Matrix) Has(role Role) bool {
	if m == nil {
		return false
	}
	_, ok := m.grants[role]
	return ok
}

// Roles returns the roles with an entry, in declaration order.
func (m *Matrix) Roles() []Role {
	if m == nil {
		return nil
	}
	out := make([]Role, len(m.order))
	copy(out, m.order)
	return out
}

// Permissions returns the sorted grants of role.
func (m *Matrix) Permissions(role Role) []Permission {
	if m == nil {
		return nil
	}
	set := m.grants[role]
	out := make([]Permission, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Tables returns a copy of the table tiers.
func (m *Matrix) Tables() TableTiers {
	if m == nil {
		return TableTiers{}
	}
	return TableTiers{
		AdminOnly: append([]string(nil), m.tables.AdminOnly...),
		Elevated:  append([]string(nil), m.tables.Elevated...),
	}
}

// AccessibleTables lists the backend tables role may touch. The admin role and
// wildcard holders always see both tiers.
func (m *Matrix) AccessibleTables(role Role) []string {
	if m == nil {
		return nil
	}
	var tiers [][]string
	switch {
	case role == RoleAdmin, m.HoldsWildcard(role), m.HasPermission(role, PermTablesAdmin):
		tiers = [][]string{m.tables.AdminOnly, m.tables.Elevated}
	case m.HasPermission(role, PermTablesElevated):
		tiers = [][]string{m.tables.Elevated}
	default:
		return nil
	}
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, tier := range tiers {
		for _, t := range tier {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

// CanAccessTable reports whether table is among role's accessible tables.
func (m *Matrix) CanAccessTable(role Role, table string) bool {
	table = strings.TrimSpace(table)
	for _, t := range m.AccessibleTables(role) {
		if t == table {
			return true
		}
	}
	return false
}

// Validate ensures every supplied role has an entry.
func (m *Matrix) Validate(roles ...Role) error {
	missing := make([]string, 0)
	seen := make(map[Role]struct{})
	for _, r := range roles {
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		if !m.Has(r) {
			missing = append(missing, string(r))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("%w: %s", ErrConfigurationGap, strings.Join(missing, ", "))
}

func dedupeTables(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
