package authz

import (
	"github.com/atlas-portal/atlas-portal/internal/shared"
)

// SeedGrantedBy marks grants created by the bootstrap seed.
const SeedGrantedBy = "system.bootstrap"

// SeedRoles returns the system roles shipped with the portal. These are
// created at bootstrap and cannot be deleted.
func SeedRoles() []Role {
	return []Role{
		{
			ID:                     "system_administrator",
			DisplayName:            "System Administrator",
			Description:            "Full platform administration including role management.",
			SecurityClearanceLevel: 4,
			Priority:               1,
			IsSystemRole:           true,
			CanAssignRoles:         true,
			CanManageUsers:         true,
			MaxSecurityLevel:       4,
		},
		{
			ID:                     "administrator",
			DisplayName:            "Administrator",
			Description:            "Day-to-day administration across portal modules.",
			SecurityClearanceLevel: 3,
			Priority:               2,
			IsSystemRole:           true,
			CanAssignRoles:         true,
			CanManageUsers:         true,
			MaxSecurityLevel:       2,
		},
		{
			ID:                     "advance_user_2",
			DisplayName:            "Advanced User II",
			Description:            "Program and operations staff with editing rights.",
			SecurityClearanceLevel: 2,
			Priority:               3,
			IsSystemRole:           true,
			CanAssignRoles:         false,
			CanManageUsers:         false,
			MaxSecurityLevel:       0,
		},
		{
			ID:                     "advance_user_1",
			DisplayName:            "Advanced User I",
			Description:            "Staff with read access beyond public material.",
			SecurityClearanceLevel: 2,
			Priority:               4,
			IsSystemRole:           true,
			CanAssignRoles:         false,
			CanManageUsers:         false,
			MaxSecurityLevel:       0,
		},
		{
			ID:                     "basic_user_1",
			DisplayName:            "Basic User",
			Description:            "Default role for new accounts.",
			SecurityClearanceLevel: 1,
			Priority:               5,
			IsSystemRole:           true,
			CanAssignRoles:         false,
			CanManageUsers:         false,
			MaxSecurityLevel:       0,
		},
	}
}

// SeedPermissions returns the permission catalog shipped with the portal.
// SecurityLevel is descriptive; scope is the enforcement axis.
func SeedPermissions() []Permission {
	return []Permission{
		// Core platform
		{ID: shared.PermDashboardView, DisplayName: "View dashboard", Module: "dashboard", Category: CategoryAccess, Action: ActionView, Scope: ScopeOwn, SecurityLevel: 1, IsActive: true},
		{ID: shared.PermProfileView, DisplayName: "View own profile", Module: "profile", Category: CategoryAccess, Action: ActionView, Scope: ScopeOwn, SecurityLevel: 1, IsActive: true},
		{ID: shared.PermProfileEdit, DisplayName: "Edit own profile", Module: "profile", Category: CategoryCRUD, Action: ActionEdit, Scope: ScopeOwn, SecurityLevel: 1, IsActive: true},
		{ID: shared.PermUsersView, DisplayName: "View user directory", Module: "users", Category: CategoryAdmin, Action: ActionView, Scope: ScopeOrganization, SecurityLevel: 3, IsActive: true},
		{ID: shared.PermUsersEdit, DisplayName: "Manage user accounts", Module: "users", Category: CategoryAdmin, Action: ActionEdit, Scope: ScopeOrganization, SecurityLevel: 3, IsActive: true},
		{ID: shared.PermSystemRoles, DisplayName: "Manage roles and permissions", Module: "system", Category: CategoryAdmin, Action: ActionManage, Scope: ScopeOrganization, SecurityLevel: 4, IsActive: true},
		{ID: shared.PermAuditView, DisplayName: "View audit trail", Module: "system", Category: CategoryAdmin, Action: ActionView, Scope: ScopeOrganization, SecurityLevel: 3, IsActive: true},

		// Documents: sensitivity tiers are separate permissions. Top secret
		// is deliberately own-scoped; that access is granted per person,
		// never role-wide.
		{ID: shared.PermDocumentsViewPublic, DisplayName: "View public documents", Module: "documents", Category: CategoryAccess, Action: ActionView, Scope: ScopeOrganization, SecurityLevel: 1, IsActive: true},
		{ID: shared.PermDocumentsViewInternal, DisplayName: "View internal documents", Module: "documents", Category: CategoryAccess, Action: ActionView, Scope: ScopeDepartment, SecurityLevel: 2, IsActive: true},
		{ID: shared.PermDocumentsViewConfidential, DisplayName: "View confidential documents", Module: "documents", Category: CategoryAccess, Action: ActionView, Scope: ScopeDepartment, SecurityLevel: 3, IsActive: true},
		{ID: shared.PermDocumentsViewTopSecret, DisplayName: "View top secret documents", Module: "documents", Category: CategoryAccess, Action: ActionView, Scope: ScopeOwn, SecurityLevel: 4, IsActive: true},
		{ID: shared.PermDocumentsManage, DisplayName: "Manage document library", Module: "documents", Category: CategoryCRUD, Action: ActionManage, Scope: ScopeDepartment, SecurityLevel: 3, IsActive: true},

		// HR
		{ID: shared.PermHRStaffView, DisplayName: "View staff records", Module: "hr", Category: CategoryAccess, Action: ActionView, Scope: ScopeDepartment, SecurityLevel: 2, IsActive: true},
		{ID: shared.PermHRStaffManage, DisplayName: "Manage staff records", Module: "hr", Category: CategoryCRUD, Action: ActionManage, Scope: ScopeDepartment, SecurityLevel: 3, IsActive: true},
		{ID: shared.PermHRLeaveView, DisplayName: "View leave requests", Module: "hr", Category: CategoryAccess, Action: ActionView, Scope: ScopeTeam, SecurityLevel: 1, IsActive: true},
		{ID: shared.PermHRLeaveManage, DisplayName: "Manage leave requests", Module: "hr", Category: CategoryCRUD, Action: ActionManage, Scope: ScopeDepartment, SecurityLevel: 2, IsActive: true},
		{ID: shared.PermHRPayrollView, DisplayName: "View payroll", Module: "hr", Category: CategoryFinance, Action: ActionView, Scope: ScopeDepartment, SecurityLevel: 3, IsActive: true},
		{ID: shared.PermHRPayrollManage, DisplayName: "Run payroll", Module: "hr", Category: CategoryFinance, Action: ActionManage, Scope: ScopeDepartment, SecurityLevel: 4, RequiresApproval: true, IsActive: true},

		// Programs, risk, inventory
		{ID: shared.PermProgramsView, DisplayName: "View programs", Module: "programs", Category: CategoryAccess, Action: ActionView, Scope: ScopeDepartment, SecurityLevel: 1, IsActive: true},
		{ID: shared.PermProgramsEdit, DisplayName: "Edit programs", Module: "programs", Category: CategoryCRUD, Action: ActionEdit, Scope: ScopeDepartment, SecurityLevel: 2, IsActive: true},
		{ID: shared.PermProgramsManage, DisplayName: "Manage program portfolio", Module: "programs", Category: CategoryCRUD, Action: ActionManage, Scope: ScopeOrganization, SecurityLevel: 3, IsActive: true},
		{ID: shared.PermRiskRegisterView, DisplayName: "View risk register", Module: "risk", Category: CategoryAccess, Action: ActionView, Scope: ScopeDepartment, SecurityLevel: 2, IsActive: true},
		{ID: shared.PermRiskRegisterEdit, DisplayName: "Edit risk register", Module: "risk", Category: CategoryCRUD, Action: ActionEdit, Scope: ScopeDepartment, SecurityLevel: 3, IsActive: true},
		{ID: shared.PermInventoryView, DisplayName: "View inventory", Module: "inventory", Category: CategoryAccess, Action: ActionView, Scope: ScopeDepartment, SecurityLevel: 1, IsActive: true},
		{ID: shared.PermInventoryEdit, DisplayName: "Edit inventory", Module: "inventory", Category: CategoryCRUD, Action: ActionEdit, Scope: ScopeDepartment, SecurityLevel: 2, IsActive: true},

		// Call center and reporting
		{ID: shared.PermCallCenterView, DisplayName: "View call center cases", Module: "callcenter", Category: CategoryAccess, Action: ActionView, Scope: ScopeTeam, SecurityLevel: 1, IsActive: true},
		{ID: shared.PermCallCenterEditTeam, DisplayName: "Edit team cases", Module: "callcenter", Category: CategoryCRUD, Action: ActionEdit, Scope: ScopeTeam, SecurityLevel: 2, IsActive: true},
		{ID: shared.PermCallCenterEditAll, DisplayName: "Edit all cases", Module: "callcenter", Category: CategoryCRUD, Action: ActionEdit, Scope: ScopeOrganization, SecurityLevel: 3, IsActive: true},
		{ID: shared.PermReportsView, DisplayName: "View reports", Module: "reports", Category: CategoryAnalytics, Action: ActionView, Scope: ScopeDepartment, SecurityLevel: 2, IsActive: true},
		{ID: shared.PermAnalyticsView, DisplayName: "View analytics", Module: "reports", Category: CategoryAnalytics, Action: ActionView, Scope: ScopeOrganization, SecurityLevel: 3, IsActive: true},
	}
}

var seedRoleGrants = map[string][]string{
	"basic_user_1": {
		shared.PermDashboardView,
		shared.PermProfileView,
		shared.PermProfileEdit,
		shared.PermDocumentsViewPublic,
		shared.PermCallCenterView,
	},
	"advance_user_1": {
		shared.PermDashboardView,
		shared.PermProfileView,
		shared.PermProfileEdit,
		shared.PermDocumentsViewPublic,
		shared.PermCallCenterView,
		shared.PermDocumentsViewInternal,
		shared.PermHRLeaveView,
		shared.PermProgramsView,
		shared.PermReportsView,
	},
	"advance_user_2": {
		shared.PermDashboardView,
		shared.PermProfileView,
		shared.PermProfileEdit,
		shared.PermDocumentsViewPublic,
		shared.PermCallCenterView,
		shared.PermDocumentsViewInternal,
		shared.PermProgramsView,
		shared.PermProgramsEdit,
		shared.PermInventoryView,
		shared.PermInventoryEdit,
		shared.PermCallCenterEditTeam,
	},
	"administrator": {
		shared.PermDashboardView,
		shared.PermProfileView,
		shared.PermProfileEdit,
		shared.PermDocumentsViewPublic,
		shared.PermDocumentsViewInternal,
		shared.PermDocumentsViewConfidential,
		shared.PermDocumentsManage,
		shared.PermHRStaffView,
		shared.PermHRStaffManage,
		shared.PermHRLeaveView,
		shared.PermHRLeaveManage,
		shared.PermHRPayrollView,
		shared.PermProgramsView,
		shared.PermProgramsEdit,
		shared.PermProgramsManage,
		shared.PermRiskRegisterView,
		shared.PermRiskRegisterEdit,
		shared.PermInventoryView,
		shared.PermInventoryEdit,
		shared.PermCallCenterView,
		shared.PermCallCenterEditTeam,
		shared.PermCallCenterEditAll,
		shared.PermReportsView,
		shared.PermAnalyticsView,
		shared.PermUsersView,
		shared.PermUsersEdit,
		shared.PermAuditView,
	},
	"system_administrator": {
		shared.PermDashboardView,
		shared.PermProfileView,
		shared.PermProfileEdit,
		shared.PermDocumentsViewPublic,
		shared.PermDocumentsViewInternal,
		shared.PermDocumentsViewConfidential,
		shared.PermDocumentsViewTopSecret,
		shared.PermDocumentsManage,
		shared.PermHRStaffView,
		shared.PermHRStaffManage,
		shared.PermHRLeaveView,
		shared.PermHRLeaveManage,
		shared.PermHRPayrollView,
		shared.PermHRPayrollManage,
		shared.PermProgramsView,
		shared.PermProgramsEdit,
		shared.PermProgramsManage,
		shared.PermRiskRegisterView,
		shared.PermRiskRegisterEdit,
		shared.PermInventoryView,
		shared.PermInventoryEdit,
		shared.PermCallCenterView,
		shared.PermCallCenterEditTeam,
		shared.PermCallCenterEditAll,
		shared.PermReportsView,
		shared.PermAnalyticsView,
		shared.PermUsersView,
		shared.PermUsersEdit,
		shared.PermSystemRoles,
		shared.PermAuditView,
	},
}

// SeedRoleGrants returns the bootstrap role-permission grants.
func SeedRoleGrants() []RoleGrant {
	var grants []RoleGrant
	for _, role := range SeedRoles() {
		for _, permID := range seedRoleGrants[role.ID] {
			grants = append(grants, RoleGrant{
				RoleID:       role.ID,
				PermissionID: permID,
				GrantedBy:    SeedGrantedBy,
			})
		}
	}
	return grants
}

// SeedDepartmentGrants returns the bootstrap department capability tags.
// Tags are additive only; they never remove a role-derived permission.
func SeedDepartmentGrants() []DepartmentGrant {
	tags := map[string][]string{
		"PROGRAMS_AND_OPERATIONS": {"program_management", "field_operations", "beneficiary_management"},
		"HUMAN_RESOURCES":         {"staff_records", "leave_management"},
		"FINANCE_AND_GRANTS":      {"budget_tracking", "grant_reporting"},
		"CALL_CENTER":             {"case_intake", "caller_followup"},
	}
	var grants []DepartmentGrant
	for _, key := range []string{"CALL_CENTER", "FINANCE_AND_GRANTS", "HUMAN_RESOURCES", "PROGRAMS_AND_OPERATIONS"} {
		for _, tag := range tags[key] {
			grants = append(grants, DepartmentGrant{DepartmentKey: key, Tag: tag})
		}
	}
	return grants
}

// SeedSnapshot assembles a snapshot from the bootstrap seed. Used by tests
// and by deployments that have not yet provisioned the database.
func SeedSnapshot() (*Snapshot, error) {
	roles, err := NewRoleCatalog(SeedRoles())
	if err != nil {
		return nil, err
	}
	perms, err := NewPermissionCatalog(SeedPermissions())
	if err != nil {
		return nil, err
	}
	return NewSnapshot(roles, perms, SeedRoleGrants(), SeedDepartmentGrants())
}
