package authz

import "context"

// Store is the persistence boundary for the authorization tables. Loads
// return full current snapshots; writes are administrative and always
// followed by a snapshot reload.
type Store interface {
	LoadRoles(ctx context.Context) ([]Role, error)
	LoadPermissions(ctx context.Context) ([]Permission, error)
	LoadRoleGrants(ctx context.Context) ([]RoleGrant, error)
	LoadDepartmentPermissions(ctx context.Context) ([]DepartmentGrant, error)

	UpsertRole(ctx context.Context, role Role) error
	UpsertPermission(ctx context.Context, perm Permission) error
	SetPermissionActive(ctx context.Context, permissionID string, active bool) error
	UpsertRoleGrant(ctx context.Context, grant RoleGrant) error
	DeleteRoleGrant(ctx context.Context, roleID, permissionID string) error
	UpsertDepartmentPermission(ctx context.Context, grant DepartmentGrant) error
	DeleteDepartmentPermission(ctx context.Context, grant DepartmentGrant) error
}
