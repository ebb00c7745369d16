package rbac

import "sync"

var (
	defaultOnce   sync.Once
	defaultMatrix *Matrix
)

// DefaultMatrix returns the built-in permission matrix. It is the single
// source of truth unless a matrix file is configured.
func DefaultMatrix() *Matrix {
	defaultOnce.Do(func() {
		m, err := NewMatrix(defaultGrants(), defaultTables())
		if err != nil {
			panic("rbac: default matrix: " + err.Error())
		}
		defaultMatrix = m
	})
	return defaultMatrix
}

func defaultGrants() map[Role][]Permission {
	return map[Role][]Permission{
		RoleOwner: {Wildcard},
		RoleAdmin: {Wildcard},
		RoleEmployee: {
			PermCRMRead, PermCRMWrite,
			PermCommunicationsRead, PermCommunicationsSend,
			PermLogisticsRead,
			PermReportsRead,
			PermTablesElevated,
		},
		RoleDriver:     {PermDriverPortal, PermLogisticsRead},
		RoleStore:      {PermStorePortal},
		RoleWholesaler: {PermWholesalePortal},
		RoleAmbassador: {PermAmbassadorPortal},
		RoleCustomer:   {PermCustomerPortal},
		RoleDeveloper: {
			PermDeveloperPortal,
			PermBettingRead, PermBettingManage,
			PermReportsRead,
			PermAdminSettings,
			PermTablesElevated, PermTablesAdmin,
		},
		RoleVA: {
			PermVAPortal,
			PermCRMRead,
			PermCommunicationsRead, PermCommunicationsSend,
			PermCallCenterRead,
		},
		RoleCSR: {
			PermCSRPortal,
			PermCRMRead,
			PermCommunicationsRead, PermCommunicationsSend,
			PermCallCenterRead, PermCallCenterWrite,
		},
		RoleAccountant: {
			PermFinanceRead, PermFinanceAdmin,
			PermReportsRead,
			PermTablesElevated,
		},
		RoleCreator:          {PermCreatorPortal, PermPODRead},
		RolePODWorker:        {PermPODRead, PermPODWrite},
		RoleRealEstateWorker: {PermRealEstateRead, PermRealEstateWrite},
	}
}

func defaultTables() TableTiers {
	return TableTiers{
		AdminOnly: []string{
			"profiles",
			"user_roles",
			"audit_logs",
			"api_keys",
			"system_settings",
			"payroll",
			"bank_accounts",
		},
		Elevated: []string{
			"crm_contacts",
			"crm_companies",
			"crm_deals",
			"follow_ups",
			"communications_log",
			"deliveries",
			"routes",
			"drivers",
			"invoices",
			"expenses",
			"fraud_flags",
			"betting_picks",
			"properties",
			"investors",
			"pod_orders",
			"pod_designs",
			"call_logs",
		},
	}
}
