package authz

import (
	"fmt"
	"sort"
	"strings"
)

// RoleCatalog is an immutable registry of system roles.
type RoleCatalog struct {
	byID    map[string]Role
	ordered []Role
}

// NewRoleCatalog validates and indexes the given roles. Duplicate ids and
// roles whose MaxSecurityLevel exceeds their clearance are rejected.
func NewRoleCatalog(roles []Role) (*RoleCatalog, error) {
	c := &RoleCatalog{byID: make(map[string]Role, len(roles))}
	for _, role := range roles {
		id := strings.TrimSpace(role.ID)
		if id == "" {
			return nil, fmt.Errorf("%w: role with empty id", ErrCatalogInvariant)
		}
		if _, exists := c.byID[id]; exists {
			return nil, fmt.Errorf("%w: duplicate role %q", ErrCatalogInvariant, id)
		}
		if role.MaxSecurityLevel > role.SecurityClearanceLevel {
			return nil, fmt.Errorf("%w: role %q grants above its clearance (%d > %d)",
				ErrCatalogInvariant, id, role.MaxSecurityLevel, role.SecurityClearanceLevel)
		}
		role.ID = id
		c.byID[id] = role
		c.ordered = append(c.ordered, role)
	}
	sort.SliceStable(c.ordered, func(i, j int) bool {
		return c.ordered[i].Priority < c.ordered[j].Priority
	})
	return c, nil
}

// Get fetches a role by id.
func (c *RoleCatalog) Get(id string) (Role, error) {
	role, ok := c.byID[id]
	if !ok {
		return Role{}, fmt.Errorf("%w: %q", ErrUnknownRole, id)
	}
	return role, nil
}

// List returns all roles ordered by priority ascending.
func (c *RoleCatalog) List() []Role {
	out := make([]Role, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Len returns the number of roles.
func (c *RoleCatalog) Len() int {
	return len(c.byID)
}

// PermissionCatalog is an immutable registry of permission definitions.
type PermissionCatalog struct {
	byID    map[string]Permission
	ordered []Permission
}

// NewPermissionCatalog validates and indexes the given permissions.
func NewPermissionCatalog(perms []Permission) (*PermissionCatalog, error) {
	c := &PermissionCatalog{byID: make(map[string]Permission, len(perms))}
	for _, perm := range perms {
		id := strings.TrimSpace(perm.ID)
		if id == "" {
			return nil, fmt.Errorf("%w: permission with empty id", ErrCatalogInvariant)
		}
		if _, exists := c.byID[id]; exists {
			return nil, fmt.Errorf("%w: duplicate permission %q", ErrCatalogInvariant, id)
		}
		if !perm.Scope.Valid() {
			return nil, fmt.Errorf("%w: permission %q has unknown scope %q",
				ErrCatalogInvariant, id, perm.Scope)
		}
		perm.ID = id
		c.byID[id] = perm
		c.ordered = append(c.ordered, perm)
	}
	sort.SliceStable(c.ordered, func(i, j int) bool {
		if c.ordered[i].Module != c.ordered[j].Module {
			return c.ordered[i].Module < c.ordered[j].Module
		}
		return c.ordered[i].ID < c.ordered[j].ID
	})
	return c, nil
}

// Get fetches a permission by id.
func (c *PermissionCatalog) Get(id string) (Permission, error) {
	perm, ok := c.byID[id]
	if !ok {
		return Permission{}, fmt.Errorf("%w: %q", ErrUnknownPermission, id)
	}
	return perm, nil
}

// List returns all permissions ordered by module, then id.
func (c *PermissionCatalog) List() []Permission {
	out := make([]Permission, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Len returns the number of permissions.
func (c *PermissionCatalog) Len() int {
	return len(c.byID)
}
