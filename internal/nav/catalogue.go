package nav

import "github.com/bizos/bizos/internal/rbac"

var (
	staff       = []rbac.Role{rbac.RoleOwner, rbac.RoleAdmin, rbac.RoleEmployee}
	management  = []rbac.Role{rbac.RoleOwner, rbac.RoleAdmin}
	contactDesk = []rbac.Role{rbac.RoleOwner, rbac.RoleAdmin, rbac.RoleEmployee, rbac.RoleVA, rbac.RoleCSR}
)

func with(base []rbac.Role, extra ...rbac.Role) []rbac.Role {
	out := make([]rbac.Role, 0, len(base)+len(extra))
	out = append(out, base...)
	return append(out, extra...)
}

// Sidebar is the department menu.
func Sidebar() []Descriptor {
	return []Descriptor{
		{To: "/crm", Label: "CRM", Icon: "users", Roles: with(contactDesk)},
		{To: "/communications", Label: "Communications", Icon: "chat", Roles: with(contactDesk)},
		{To: "/logistics", Label: "Logistics", Icon: "truck", Roles: with(staff, rbac.RoleDriver)},
		{To: "/callcenter", Label: "Call Center", Icon: "phone", Roles: with(management, rbac.RoleVA, rbac.RoleCSR)},
		{To: "/betting", Label: "Betting Analytics", Icon: "chart", Roles: with(management, rbac.RoleDeveloper)},
		{To: "/realestate", Label: "Real Estate", Icon: "home", Roles: with(management, rbac.RoleRealEstateWorker)},
		{To: "/pod", Label: "Print on Demand", Icon: "shirt", Roles: with(management, rbac.RolePODWorker, rbac.RoleCreator)},
		{To: "/finance", Label: "Finance", Icon: "wallet", Roles: with(management, rbac.RoleAccountant)},
		{To: "/driver", Label: "Driver Portal", Icon: "truck", Roles: []rbac.Role{rbac.RoleDriver}},
		{To: "/store", Label: "Store Portal", Icon: "store", Roles: []rbac.Role{rbac.RoleStore}},
		{To: "/wholesale", Label: "Wholesale Portal", Icon: "boxes", Roles: []rbac.Role{rbac.RoleWholesaler}},
		{To: "/ambassador", Label: "Ambassador Portal", Icon: "star", Roles: []rbac.Role{rbac.RoleAmbassador}},
		{To: "/customer", Label: "Customer Portal", Icon: "user", Roles: []rbac.Role{rbac.RoleCustomer}},
		{To: "/creator", Label: "Creator Portal", Icon: "brush", Roles: []rbac.Role{rbac.RoleCreator}},
		{To: "/va", Label: "VA Portal", Icon: "headset", Roles: []rbac.Role{rbac.RoleVA}},
		{To: "/csr", Label: "CSR Portal", Icon: "headset", Roles: []rbac.Role{rbac.RoleCSR}},
		{To: "/developer", Label: "Developer", Icon: "code", Roles: with(management, rbac.RoleDeveloper)},
		{To: "/admin", Label: "Admin", Icon: "shield", Roles: with(management)},
	}
}

// Account is the per-user menu.
func Account() []Descriptor {
	everyone := rbac.Roles()
	return []Descriptor{
		{To: "/profile", Label: "Profile", Icon: "user", Roles: everyone},
		{To: "/workspace", Label: "Workspace", Icon: "building", Roles: with(staff, rbac.RoleAccountant, rbac.RoleDeveloper)},
	}
}

var defaultPaths = map[rbac.Role]string{
	rbac.RoleOwner:            "/admin",
	rbac.RoleAdmin:            "/admin",
	rbac.RoleEmployee:         "/crm",
	rbac.RoleDriver:           "/driver",
	rbac.RoleStore:            "/store",
	rbac.RoleWholesaler:       "/wholesale",
	rbac.RoleAmbassador:       "/ambassador",
	rbac.RoleCustomer:         "/customer",
	rbac.RoleDeveloper:        "/developer",
	rbac.RoleVA:               "/va",
	rbac.RoleCSR:              "/csr",
	rbac.RoleAccountant:       "/finance",
	rbac.RoleCreator:          "/creator",
	rbac.RolePODWorker:        "/pod",
	rbac.RoleRealEstateWorker: "/realestate",
}

// DefaultPath is the landing page for role; unknown roles land on /denied.
func DefaultPath(role rbac.Role) string {
	if p, ok := defaultPaths[role]; ok {
		return p
	}
	return "/denied"
}
