package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore provides PostgreSQL backed persistence for the authorization
// tables.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a store over the given pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

var _ Store = (*PGStore)(nil)

// LoadRoles returns all roles.
func (s *PGStore) LoadRoles(ctx context.Context) ([]Role, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, display_name, description, security_clearance_level, priority, is_system_role, can_assign_roles, can_manage_users, max_security_level FROM authz_roles ORDER BY priority, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.DisplayName, &role.Description, &role.SecurityClearanceLevel, &role.Priority, &role.IsSystemRole, &role.CanAssignRoles, &role.CanManageUsers, &role.MaxSecurityLevel); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// LoadPermissions returns all permission definitions.
func (s *PGStore) LoadPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, display_name, description, module, category, action, scope, security_level, requires_approval, is_active FROM authz_permissions ORDER BY module, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var perm Permission
		if err := rows.Scan(&perm.ID, &perm.DisplayName, &perm.Description, &perm.Module, &perm.Category, &perm.Action, &perm.Scope, &perm.SecurityLevel, &perm.RequiresApproval, &perm.IsActive); err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}

// LoadRoleGrants returns all role-permission grants.
func (s *PGStore) LoadRoleGrants(ctx context.Context) ([]RoleGrant, error) {
	rows, err := s.pool.Query(ctx, `SELECT role_id, permission_id, granted_by, granted_at FROM authz_role_grants ORDER BY role_id, permission_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var grants []RoleGrant
	for rows.Next() {
		var grant RoleGrant
		var grantedAt pgtype.Timestamptz
		if err := rows.Scan(&grant.RoleID, &grant.PermissionID, &grant.GrantedBy, &grantedAt); err != nil {
			return nil, err
		}
		grant.GrantedAt = grantedAt.Time
		grants = append(grants, grant)
	}
	return grants, rows.Err()
}

// LoadDepartmentPermissions returns all department capability tags.
func (s *PGStore) LoadDepartmentPermissions(ctx context.Context) ([]DepartmentGrant, error) {
	rows, err := s.pool.Query(ctx, `SELECT department_key, tag FROM authz_department_grants ORDER BY department_key, tag`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var grants []DepartmentGrant
	for rows.Next() {
		var grant DepartmentGrant
		if err := rows.Scan(&grant.DepartmentKey, &grant.Tag); err != nil {
			return nil, err
		}
		grants = append(grants, grant)
	}
	return grants, rows.Err()
}

// UpsertRole inserts or updates a role definition.
func (s *PGStore) UpsertRole(ctx context.Context, role Role) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO authz_roles (id, display_name, description, security_clearance_level, priority, is_system_role, can_assign_roles, can_manage_users, max_security_level)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			description = EXCLUDED.description,
			security_clearance_level = EXCLUDED.security_clearance_level,
			priority = EXCLUDED.priority,
			can_assign_roles = EXCLUDED.can_assign_roles,
			can_manage_users = EXCLUDED.can_manage_users,
			max_security_level = EXCLUDED.max_security_level`,
		role.ID, role.DisplayName, role.Description, role.SecurityClearanceLevel, role.Priority, role.IsSystemRole, role.CanAssignRoles, role.CanManageUsers, role.MaxSecurityLevel)
	return wrapWriteErr(err)
}

// UpsertPermission inserts or updates a permission definition.
func (s *PGStore) UpsertPermission(ctx context.Context, perm Permission) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO authz_permissions (id, display_name, description, module, category, action, scope, security_level, requires_approval, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			description = EXCLUDED.description,
			module = EXCLUDED.module,
			category = EXCLUDED.category,
			action = EXCLUDED.action,
			scope = EXCLUDED.scope,
			security_level = EXCLUDED.security_level,
			requires_approval = EXCLUDED.requires_approval,
			is_active = EXCLUDED.is_active`,
		perm.ID, perm.DisplayName, perm.Description, perm.Module, perm.Category, perm.Action, perm.Scope, perm.SecurityLevel, perm.RequiresApproval, perm.IsActive)
	return wrapWriteErr(err)
}

// SetPermissionActive toggles the active flag without touching grants.
func (s *PGStore) SetPermissionActive(ctx context.Context, permissionID string, active bool) error {
	tag, err := s.pool.Exec(ctx, `UPDATE authz_permissions SET is_active = $2 WHERE id = $1`, permissionID, active)
	if err != nil {
		return wrapWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %q", ErrUnknownPermission, permissionID)
	}
	return nil
}

// UpsertRoleGrant records a grant; re-granting refreshes granted_by/granted_at.
func (s *PGStore) UpsertRoleGrant(ctx context.Context, grant RoleGrant) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO authz_role_grants (role_id, permission_id, granted_by, granted_at)
		VALUES ($1, $2, $3, COALESCE($4, NOW()))
		ON CONFLICT (role_id, permission_id) DO UPDATE SET
			granted_by = EXCLUDED.granted_by,
			granted_at = EXCLUDED.granted_at`,
		grant.RoleID, grant.PermissionID, grant.GrantedBy,
		pgtype.Timestamptz{Time: grant.GrantedAt, Valid: !grant.GrantedAt.IsZero()})
	return wrapWriteErr(err)
}

// DeleteRoleGrant removes a grant if present.
func (s *PGStore) DeleteRoleGrant(ctx context.Context, roleID, permissionID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM authz_role_grants WHERE role_id = $1 AND permission_id = $2`, roleID, permissionID)
	return err
}

// UpsertDepartmentPermission records a department tag.
func (s *PGStore) UpsertDepartmentPermission(ctx context.Context, grant DepartmentGrant) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO authz_department_grants (department_key, tag)
		VALUES ($1, $2)
		ON CONFLICT (department_key, tag) DO NOTHING`,
		grant.DepartmentKey, grant.Tag)
	return wrapWriteErr(err)
}

// DeleteDepartmentPermission removes a department tag if present.
func (s *PGStore) DeleteDepartmentPermission(ctx context.Context, grant DepartmentGrant) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM authz_department_grants WHERE department_key = $1 AND tag = $2`, grant.DepartmentKey, grant.Tag)
	return err
}

// wrapWriteErr maps constraint violations onto the catalog invariant error
// so administrative callers see one failure mode for rejected writes.
func wrapWriteErr(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503", "23505", "23514": // fk, unique, check
			return fmt.Errorf("%w: %s", ErrCatalogInvariant, pgErr.Message)
		}
	}
	return err
}
