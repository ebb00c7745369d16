package rbac

import "strings"

// Role classifies the function of a profile. Exactly one primary role is held
// per profile; values outside the declared set carry no permissions.
type Role string

// Declared roles.
const (
	RoleOwner            Role = "owner"
	RoleAdmin            Role = "admin"
	RoleEmployee         Role = "employee"
	RoleDriver           Role = "driver"
	RoleStore            Role = "store"
	RoleWholesaler       Role = "wholesaler"
	RoleAmbassador       Role = "ambassador"
	RoleCustomer         Role = "customer"
	RoleDeveloper        Role = "developer"
	RoleVA               Role = "va"
	RoleCSR              Role = "csr"
	RoleAccountant       Role = "accountant"
	RoleCreator          Role = "creator"
	RolePODWorker        Role = "pod_worker"
	RoleRealEstateWorker Role = "realestate_worker"
)

var declaredRoles = []Role{
	RoleOwner,
	RoleAdmin,
	RoleEmployee,
	RoleDriver,
	RoleStore,
	RoleWholesaler,
	RoleAmbassador,
	RoleCustomer,
	RoleDeveloper,
	RoleVA,
	RoleCSR,
	RoleAccountant,
	RoleCreator,
	RolePODWorker,
	RoleRealEstateWorker,
}

var roleIndex = func() map[Role]struct{} {
	idx := make(map[Role]struct{}, len(declaredRoles))
	for _, r := range declaredRoles {
		idx[r] = struct{}{}
	}
	return idx
}()

// Roles lists every declared role in declaration order.
func Roles() []Role {
	out := make([]Role, len(declaredRoles))
	copy(out, declaredRoles)
	return out
}

// NormalizeRole folds case and whitespace so "Admin ", "POD worker" and
// "pod-worker" compare equal to the declared constants.
func NormalizeRole(raw string) Role {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	s = strings.Join(strings.Fields(s), "_")
	s = strings.ReplaceAll(s, "-", "_")
	return Role(s)
}

// ParseRole normalizes raw and reports whether it names a declared role.
func ParseRole(raw string) (Role, bool) {
	r := NormalizeRole(raw)
	_, ok := roleIndex[r]
	return r, ok
}

// Known reports whether r is one of the declared roles.
func (r Role) Known() bool {
	_, ok := roleIndex[r]
	return ok
}

func (r Role) String() string {
	return string(r)
}

// NormalizeRoles normalizes each entry, dropping blanks and duplicates while
// keeping first-seen order.
func NormalizeRoles(raw []string) []Role {
	seen := make(map[Role]struct{}, len(raw))
	out := make([]Role, 0, len(raw))
	for _, s := range raw {
		r := NormalizeRole(s)
		if r == "" {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// ContainsRole reports whether role is present in set.
func ContainsRole(set []Role, role Role) bool {
	if role == "" {
		return false
	}
	for _, r := range set {
		if r == role {
			return true
		}
	}
	return false
}
