package authz

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
)

// Snapshot is an immutable, fully validated view of the roles, permissions,
// role grants and department tags in force. Concurrent readers share a
// snapshot without locking; writers build a complete replacement and swap it.
type Snapshot struct {
	roles       *RoleCatalog
	permissions *PermissionCatalog
	grants      map[string]map[string]RoleGrant // roleID -> permissionID -> grant
	departments map[string][]string             // departmentKey -> sorted tags
	generation  uint64
}

// NewSnapshot assembles and validates a snapshot. Role grants must reference
// catalogued roles and permissions; department tags are opaque and only need
// non-empty keys. A duplicate (role, permission) grant keeps the later entry,
// matching upsert semantics.
func NewSnapshot(roles *RoleCatalog, permissions *PermissionCatalog, grants []RoleGrant, departments []DepartmentGrant) (*Snapshot, error) {
	if roles == nil || permissions == nil {
		return nil, fmt.Errorf("%w: snapshot requires both catalogs", ErrCatalogInvariant)
	}
	snap := &Snapshot{
		roles:       roles,
		permissions: permissions,
		grants:      make(map[string]map[string]RoleGrant),
		departments: make(map[string][]string),
	}
	for _, grant := range grants {
		if _, err := roles.Get(grant.RoleID); err != nil {
			return nil, fmt.Errorf("%w: grant references unknown role %q", ErrCatalogInvariant, grant.RoleID)
		}
		if _, err := permissions.Get(grant.PermissionID); err != nil {
			return nil, fmt.Errorf("%w: grant references unknown permission %q", ErrCatalogInvariant, grant.PermissionID)
		}
		byPerm := snap.grants[grant.RoleID]
		if byPerm == nil {
			byPerm = make(map[string]RoleGrant)
			snap.grants[grant.RoleID] = byPerm
		}
		byPerm[grant.PermissionID] = grant
	}
	seen := make(map[string]map[string]struct{})
	for _, dept := range departments {
		key := strings.TrimSpace(dept.DepartmentKey)
		tag := strings.TrimSpace(dept.Tag)
		if key == "" || tag == "" {
			return nil, fmt.Errorf("%w: department grant requires key and tag", ErrCatalogInvariant)
		}
		tags := seen[key]
		if tags == nil {
			tags = make(map[string]struct{})
			seen[key] = tags
		}
		if _, dup := tags[tag]; dup {
			continue
		}
		tags[tag] = struct{}{}
		snap.departments[key] = append(snap.departments[key], tag)
	}
	for key := range snap.departments {
		sort.Strings(snap.departments[key])
	}
	return snap, nil
}

// Roles exposes the role catalog.
func (s *Snapshot) Roles() *RoleCatalog {
	return s.roles
}

// Permissions exposes the permission catalog.
func (s *Snapshot) Permissions() *PermissionCatalog {
	return s.permissions
}

// RoleGrants returns the grants recorded for a role, sorted by permission id.
func (s *Snapshot) RoleGrants(roleID string) []RoleGrant {
	byPerm := s.grants[roleID]
	out := make([]RoleGrant, 0, len(byPerm))
	for _, grant := range byPerm {
		out = append(out, grant)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PermissionID < out[j].PermissionID })
	return out
}

// DepartmentTags returns the tags for a department key. A missing key yields
// an empty slice, not an error.
func (s *Snapshot) DepartmentTags(key string) []string {
	tags := s.departments[key]
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}

// Generation identifies this snapshot within its holder. Zero until published.
func (s *Snapshot) Generation() uint64 {
	return s.generation
}

// Holder publishes snapshots to concurrent readers with an atomic pointer
// swap. Readers never observe a partially updated catalog.
type Holder struct {
	current atomic.Pointer[Snapshot]
	gen     atomic.Uint64
}

// NewHolder publishes the initial snapshot.
func NewHolder(initial *Snapshot) *Holder {
	h := &Holder{}
	h.Swap(initial)
	return h
}

// Current returns the published snapshot.
func (h *Holder) Current() *Snapshot {
	return h.current.Load()
}

// Swap publishes a replacement snapshot and returns its generation.
func (h *Holder) Swap(next *Snapshot) uint64 {
	gen := h.gen.Add(1)
	next.generation = gen
	h.current.Store(next)
	return gen
}
