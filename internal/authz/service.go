package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Service orchestrates the authorization core: it owns the published
// snapshot, routes evaluation through the resolver and decision engine, and
// funnels every administrative write through invariant validation followed
// by a snapshot reload. Writes and reloads serialize on writeMu so a slow
// rebuild can never publish over a newer write; readers go through the
// holder and never block.
type Service struct {
	store   Store
	holder  *Holder
	cache   *ResolveCache
	logger  *slog.Logger
	writeMu sync.Mutex
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithResolveCache attaches a resolve cache.
func WithResolveCache(cache *ResolveCache) ServiceOption {
	return func(s *Service) { s.cache = cache }
}

// WithLogger attaches a logger for reload diagnostics.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// NewService constructs a Service and publishes the initial snapshot from
// the store. The bootstrap seed is pre-authorized, so the initial load is
// not itself gated.
func NewService(ctx context.Context, store Store, opts ...ServiceOption) (*Service, error) {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	snap, err := s.buildSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	s.holder = NewHolder(snap)
	return s, nil
}

// NewServiceFromSnapshot constructs a Service over an already built
// snapshot. Administrative writes require a store; without one they fail.
func NewServiceFromSnapshot(snap *Snapshot, opts ...ServiceOption) *Service {
	s := &Service{holder: NewHolder(snap)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the currently published snapshot.
func (s *Service) Snapshot() *Snapshot {
	return s.holder.Current()
}

// Reload rebuilds the snapshot from the store and atomically swaps it in.
// Readers keep the old snapshot until the new one is fully validated.
func (s *Service) Reload(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.reload(ctx)
}

// reload is Reload without the lock; callers must hold writeMu.
func (s *Service) reload(ctx context.Context) error {
	if s.store == nil {
		return errors.New("authz: service has no store to reload from")
	}
	snap, err := s.buildSnapshot(ctx)
	if err != nil {
		return err
	}
	gen := s.holder.Swap(snap)
	if s.logger != nil {
		s.logger.Info("authz snapshot published",
			slog.Uint64("generation", gen),
			slog.Int("roles", snap.Roles().Len()),
			slog.Int("permissions", snap.Permissions().Len()))
	}
	return nil
}

func (s *Service) buildSnapshot(ctx context.Context) (*Snapshot, error) {
	roles, err := s.store.LoadRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("authz: load roles: %w", err)
	}
	perms, err := s.store.LoadPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("authz: load permissions: %w", err)
	}
	grants, err := s.store.LoadRoleGrants(ctx)
	if err != nil {
		return nil, fmt.Errorf("authz: load role grants: %w", err)
	}
	departments, err := s.store.LoadDepartmentPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("authz: load department permissions: %w", err)
	}
	roleCatalog, err := NewRoleCatalog(roles)
	if err != nil {
		return nil, err
	}
	permCatalog, err := NewPermissionCatalog(perms)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(roleCatalog, permCatalog, grants, departments)
}

// ResolvePermissions computes the effective permission set for a principal,
// consulting the resolve cache when one is attached. The returned error is
// ErrUnknownRole when the role is absent; the set then carries only
// department tags.
func (s *Service) ResolvePermissions(ctx context.Context, principal Principal) (EffectivePermissionSet, error) {
	snap := s.holder.Current()
	if set, unknownRole, ok := s.cache.Get(ctx, snap.Generation(), principal); ok {
		if unknownRole {
			return set, fmt.Errorf("%w: %q", ErrUnknownRole, principal.RoleID)
		}
		return set, nil
	}
	set, err := snap.Resolve(principal)
	if err != nil && !errors.Is(err, ErrUnknownRole) {
		return set, err
	}
	s.cache.Put(ctx, snap.Generation(), principal, set, errors.Is(err, ErrUnknownRole))
	return set, err
}

// Authorize resolves the principal and evaluates the request in one step.
// Every failure mode resolves to a typed Deny; an unknown role still gets
// its department tags considered before the engine runs.
func (s *Service) Authorize(ctx context.Context, principal Principal, req Request) Decision {
	snap := s.holder.Current()
	set, err := s.ResolvePermissions(ctx, principal)
	return s.authorizeResolved(snap, set, err, req)
}

// authorizeResolved applies the engine to a resolve outcome. A resolve
// failure other than an unknown role never reaches the engine; it denies
// with its own reason so the audit trail records what actually happened.
func (s *Service) authorizeResolved(snap *Snapshot, set EffectivePermissionSet, err error, req Request) Decision {
	if err != nil && !errors.Is(err, ErrUnknownRole) {
		if s.logger != nil {
			s.logger.Warn("authz resolve", slog.Any("error", err))
		}
		return Deny(DenyResolveFailed)
	}
	return snap.Authorize(set, req)
}

// CanAssignRole decides whether the actor role may grant the target role.
// Unknown roles on either side fail closed.
func (s *Service) CanAssignRole(actorRoleID, targetRoleID string) Decision {
	snap := s.holder.Current()
	actor, err := snap.Roles().Get(actorRoleID)
	if err != nil {
		return Deny(DenyUnknownRole)
	}
	target, err := snap.Roles().Get(targetRoleID)
	if err != nil {
		return Deny(DenyUnknownRole)
	}
	return CanAssign(actor, target)
}

// UpsertRole validates and persists a role definition, then republishes.
func (s *Service) UpsertRole(ctx context.Context, role Role) error {
	role.ID = strings.TrimSpace(role.ID)
	if role.ID == "" {
		return fmt.Errorf("%w: role id required", ErrCatalogInvariant)
	}
	if role.MaxSecurityLevel > role.SecurityClearanceLevel {
		return fmt.Errorf("%w: role %q grants above its clearance (%d > %d)",
			ErrCatalogInvariant, role.ID, role.MaxSecurityLevel, role.SecurityClearanceLevel)
	}
	if existing, err := s.Snapshot().Roles().Get(role.ID); err == nil && existing.IsSystemRole && !role.IsSystemRole {
		return fmt.Errorf("%w: system role %q cannot lose its system flag", ErrCatalogInvariant, role.ID)
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.store.UpsertRole(ctx, role); err != nil {
		return err
	}
	return s.reload(ctx)
}

// UpsertPermission validates and persists a permission definition, then
// republishes.
func (s *Service) UpsertPermission(ctx context.Context, perm Permission) error {
	perm.ID = strings.TrimSpace(perm.ID)
	if perm.ID == "" {
		return fmt.Errorf("%w: permission id required", ErrCatalogInvariant)
	}
	if !perm.Scope.Valid() {
		return fmt.Errorf("%w: permission %q has unknown scope %q", ErrCatalogInvariant, perm.ID, perm.Scope)
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.store.UpsertPermission(ctx, perm); err != nil {
		return err
	}
	return s.reload(ctx)
}

// SetPermissionActive flips a permission's active flag. Grants stay in
// place; deactivation only removes the permission from resolution.
func (s *Service) SetPermissionActive(ctx context.Context, permissionID string, active bool) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.store.SetPermissionActive(ctx, permissionID, active); err != nil {
		return err
	}
	return s.reload(ctx)
}

// GrantPermission attaches a permission to a role. Re-granting is
// idempotent.
func (s *Service) GrantPermission(ctx context.Context, roleID, permissionID, grantedBy string) error {
	snap := s.Snapshot()
	if _, err := snap.Roles().Get(roleID); err != nil {
		return err
	}
	if _, err := snap.Permissions().Get(permissionID); err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.store.UpsertRoleGrant(ctx, RoleGrant{RoleID: roleID, PermissionID: permissionID, GrantedBy: grantedBy}); err != nil {
		return err
	}
	return s.reload(ctx)
}

// RevokePermission detaches a permission from a role.
func (s *Service) RevokePermission(ctx context.Context, roleID, permissionID string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.store.DeleteRoleGrant(ctx, roleID, permissionID); err != nil {
		return err
	}
	return s.reload(ctx)
}

// GrantDepartmentTag adds a capability tag to a department.
func (s *Service) GrantDepartmentTag(ctx context.Context, departmentKey, tag string) error {
	departmentKey = strings.TrimSpace(departmentKey)
	tag = strings.TrimSpace(tag)
	if departmentKey == "" || tag == "" {
		return fmt.Errorf("%w: department key and tag required", ErrCatalogInvariant)
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.store.UpsertDepartmentPermission(ctx, DepartmentGrant{DepartmentKey: departmentKey, Tag: tag}); err != nil {
		return err
	}
	return s.reload(ctx)
}

// RevokeDepartmentTag removes a capability tag from a department.
func (s *Service) RevokeDepartmentTag(ctx context.Context, departmentKey, tag string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.store.DeleteDepartmentPermission(ctx, DepartmentGrant{DepartmentKey: departmentKey, Tag: tag}); err != nil {
		return err
	}
	return s.reload(ctx)
}
