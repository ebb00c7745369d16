package rbac

// Permission is an opaque capability tag granted to roles.
type Permission string

// Wildcard satisfies every permission check.
const Wildcard Permission = "*"

// CRM & communications.
const (
	PermCRMRead            Permission = "crm.read"
	PermCRMWrite           Permission = "crm.write"
	PermCommunicationsRead Permission = "communications.read"
	PermCommunicationsSend Permission = "communications.send"
)

// Logistics and the partner portals.
const (
	PermLogisticsRead     Permission = "logistics.read"
	PermLogisticsDispatch Permission = "logistics.dispatch"
	PermDriverPortal      Permission = "driver.portal"
	PermStorePortal       Permission = "store.portal"
	PermWholesalePortal   Permission = "wholesale.portal"
	PermAmbassadorPortal  Permission = "ambassador.portal"
	PermCustomerPortal    Permission = "customer.portal"
)

// Department modules.
const (
	PermBettingRead     Permission = "betting.read"
	PermBettingManage   Permission = "betting.manage"
	PermFinanceRead     Permission = "finance.read"
	PermFinanceAdmin    Permission = "finance.admin"
	PermRealEstateRead  Permission = "realestate.read"
	PermRealEstateWrite Permission = "realestate.write"
	PermPODRead         Permission = "pod.read"
	PermPODWrite        Permission = "pod.write"
	PermCallCenterRead  Permission = "callcenter.read"
	PermCallCenterWrite Permission = "callcenter.write"
	PermVAPortal        Permission = "va.portal"
	PermCSRPortal       Permission = "csr.portal"
	PermCreatorPortal   Permission = "creator.portal"
	PermDeveloperPortal Permission = "developer.portal"
	PermReportsRead     Permission = "reports.read"
	PermAdminUsers      Permission = "admin.users"
	PermAdminSettings   Permission = "admin.settings"
	PermTablesElevated  Permission = "tables.elevated"
	PermTablesAdmin     Permission = "tables.admin"
)

var declaredPermissions = []Permission{
	PermCRMRead,
	PermCRMWrite,
	PermCommunicationsRead,
	PermCommunicationsSend,
	PermLogisticsRead,
	PermLogisticsDispatch,
	PermDriverPortal,
	PermStorePortal,
	PermWholesalePortal,
	PermAmbassadorPortal,
	PermCustomerPortal,
	PermBettingRead,
	PermBettingManage,
	PermFinanceRead,
	PermFinanceAdmin,
	PermRealEstateRead,
	PermRealEstateWrite,
	PermPODRead,
	PermPODWrite,
	PermCallCenterRead,
	PermCallCenterWrite,
	PermVAPortal,
	PermCSRPortal,
	PermCreatorPortal,
	PermDeveloperPortal,
	PermReportsRead,
	PermAdminUsers,
	PermAdminSettings,
	PermTablesElevated,
	PermTablesAdmin,
}

var permissionIndex = func() map[Permission]struct{} {
	idx := make(map[Permission]struct{}, len(declaredPermissions)+1)
	for _, p := range declaredPermissions {
		idx[p] = struct{}{}
	}
	idx[Wildcard] = struct{}{}
	return idx
}()

// Permissions lists the declared catalogue, wildcard excluded.
func Permissions() []Permission {
	out := make([]Permission, len(declaredPermissions))
	copy(out, declaredPermissions)
	return out
}

// Known reports whether p is declared (the wildcard counts).
func (p Permission) Known() bool {
	_, ok := permissionIndex[p]
	return ok
}

func (p Permission) String() string {
	return string(p)
}
