package shared

// Core platform permissions.
const (
	PermDashboardView = "dashboard.view"
	PermProfileView   = "profile.view"
	PermProfileEdit   = "profile.edit"

	PermUsersView = "users.view"
	PermUsersEdit = "users.edit"

	PermSystemRoles = "system.roles"
	PermAuditView   = "audit.view"
)

// CoreScopes lists all permissions related to the core platform.
func CoreScopes() []string {
	return []string{
		PermDashboardView,
		PermProfileView,
		PermProfileEdit,
		PermUsersView,
		PermUsersEdit,
		PermSystemRoles,
		PermAuditView,
	}
}
