package authz

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store for service tests.
type memStore struct {
	roles       map[string]Role
	permissions map[string]Permission
	grants      map[string]map[string]RoleGrant
	departments map[string]map[string]struct{}
}

func newMemStore() *memStore {
	return &memStore{
		roles:       make(map[string]Role),
		permissions: make(map[string]Permission),
		grants:      make(map[string]map[string]RoleGrant),
		departments: make(map[string]map[string]struct{}),
	}
}

func seededMemStore() *memStore {
	s := newMemStore()
	for _, r := range SeedRoles() {
		s.roles[r.ID] = r
	}
	for _, p := range SeedPermissions() {
		s.permissions[p.ID] = p
	}
	for _, g := range SeedRoleGrants() {
		byPerm := s.grants[g.RoleID]
		if byPerm == nil {
			byPerm = make(map[string]RoleGrant)
			s.grants[g.RoleID] = byPerm
		}
		byPerm[g.PermissionID] = g
	}
	for _, d := range SeedDepartmentGrants() {
		tags := s.departments[d.DepartmentKey]
		if tags == nil {
			tags = make(map[string]struct{})
			s.departments[d.DepartmentKey] = tags
		}
		tags[d.Tag] = struct{}{}
	}
	return s
}

func (s *memStore) LoadRoles(ctx context.Context) ([]Role, error) {
	out := make([]Role, 0, len(s.roles))
	for _, r := range s.roles {
		out = append(out, r)
	}
	return out, nil
}

func (s *memStore) LoadPermissions(ctx context.Context) ([]Permission, error) {
	out := make([]Permission, 0, len(s.permissions))
	for _, p := range s.permissions {
		out = append(out, p)
	}
	return out, nil
}

func (s *memStore) LoadRoleGrants(ctx context.Context) ([]RoleGrant, error) {
	var out []RoleGrant
	for _, byPerm := range s.grants {
		for _, g := range byPerm {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *memStore) LoadDepartmentPermissions(ctx context.Context) ([]DepartmentGrant, error) {
	var out []DepartmentGrant
	for key, tags := range s.departments {
		for tag := range tags {
			out = append(out, DepartmentGrant{DepartmentKey: key, Tag: tag})
		}
	}
	return out, nil
}

func (s *memStore) UpsertRole(ctx context.Context, role Role) error {
	s.roles[role.ID] = role
	return nil
}

func (s *memStore) UpsertPermission(ctx context.Context, perm Permission) error {
	s.permissions[perm.ID] = perm
	return nil
}

func (s *memStore) SetPermissionActive(ctx context.Context, permissionID string, active bool) error {
	perm, ok := s.permissions[permissionID]
	if !ok {
		return ErrUnknownPermission
	}
	perm.IsActive = active
	s.permissions[permissionID] = perm
	return nil
}

func (s *memStore) UpsertRoleGrant(ctx context.Context, grant RoleGrant) error {
	byPerm := s.grants[grant.RoleID]
	if byPerm == nil {
		byPerm = make(map[string]RoleGrant)
		s.grants[grant.RoleID] = byPerm
	}
	byPerm[grant.PermissionID] = grant
	return nil
}

func (s *memStore) DeleteRoleGrant(ctx context.Context, roleID, permissionID string) error {
	delete(s.grants[roleID], permissionID)
	return nil
}

func (s *memStore) UpsertDepartmentPermission(ctx context.Context, grant DepartmentGrant) error {
	tags := s.departments[grant.DepartmentKey]
	if tags == nil {
		tags = make(map[string]struct{})
		s.departments[grant.DepartmentKey] = tags
	}
	tags[grant.Tag] = struct{}{}
	return nil
}

func (s *memStore) DeleteDepartmentPermission(ctx context.Context, grant DepartmentGrant) error {
	delete(s.departments[grant.DepartmentKey], grant.Tag)
	return nil
}

var _ Store = (*memStore)(nil)

func newTestService(t *testing.T) (*Service, *memStore) {
	t.Helper()
	store := seededMemStore()
	svc, err := NewService(context.Background(), store)
	require.NoError(t, err)
	return svc, store
}

func TestServiceAuthorizeEndToEnd(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	agent := Principal{RoleID: "basic_user_1", DepartmentKey: "CALL_CENTER"}

	decision := svc.Authorize(ctx, agent, Request{PermissionID: "callcenter.view", Relationship: RelSameTeam})
	assert.True(t, decision.Allowed)

	decision = svc.Authorize(ctx, agent, Request{PermissionID: "callcenter.edit_all", Relationship: RelAny})
	assert.False(t, decision.Allowed)
	assert.Equal(t, DenyPermissionNotGranted, decision.Reason)
}

func TestServiceAuthorizeUnknownRoleFailsClosedToTags(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	ghost := Principal{RoleID: "ghost", DepartmentKey: "CALL_CENTER"}

	// Department tags still authorize department-level work.
	decision := svc.Authorize(ctx, ghost, Request{PermissionID: "case_intake", Relationship: RelSameDepartment})
	assert.True(t, decision.Allowed)

	// Everything role-derived is gone.
	decision = svc.Authorize(ctx, ghost, Request{PermissionID: "dashboard.view", Relationship: RelSelf})
	assert.False(t, decision.Allowed)
	assert.Equal(t, DenyPermissionNotGranted, decision.Reason)
}

func TestServiceReloadPublishesNewGeneration(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	before := svc.Snapshot().Generation()

	perm := store.permissions["reports.view"]
	perm.IsActive = false
	store.permissions["reports.view"] = perm

	require.NoError(t, svc.Reload(ctx))
	assert.Equal(t, before+1, svc.Snapshot().Generation())

	admin := Principal{RoleID: "administrator", DepartmentKey: "HUMAN_RESOURCES"}
	decision := svc.Authorize(ctx, admin, Request{PermissionID: "reports.view", Relationship: RelSameDepartment})
	assert.False(t, decision.Allowed)
	assert.Equal(t, DenyPermissionInactive, decision.Reason)
}

func TestServiceResolveUsesGenerationKeyedCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := seededMemStore()
	svc, err := NewService(context.Background(), store,
		WithResolveCache(NewResolveCache(client, time.Minute)))
	require.NoError(t, err)

	ctx := context.Background()
	agent := Principal{RoleID: "basic_user_1", DepartmentKey: "CALL_CENTER"}

	first, err := svc.ResolvePermissions(ctx, agent)
	require.NoError(t, err)
	cached, err := svc.ResolvePermissions(ctx, agent)
	require.NoError(t, err)
	assert.Equal(t, first.List(), cached.List())

	// Revoking and reloading must not serve the stale cached set.
	require.NoError(t, svc.RevokePermission(ctx, "basic_user_1", "callcenter.view"))
	after, err := svc.ResolvePermissions(ctx, agent)
	require.NoError(t, err)
	assert.False(t, after.Has("callcenter.view"))
}

func TestServiceAdminWritesSerialize(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	before := svc.Snapshot().Generation()

	tags := []string{"site_visits", "asset_checks", "fleet_booking", "visitor_badges"}
	errs := make(chan error, len(tags))
	var wg sync.WaitGroup
	for _, tag := range tags {
		wg.Add(1)
		go func(tag string) {
			defer wg.Done()
			errs <- svc.GrantDepartmentTag(ctx, "FIELD_OFFICE", tag)
		}(tag)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// Every write's reload ran after its store write, so no write can be
	// lost to a slower concurrent rebuild.
	set, err := svc.ResolvePermissions(ctx, Principal{RoleID: "basic_user_1", DepartmentKey: "FIELD_OFFICE"})
	require.NoError(t, err)
	for _, tag := range tags {
		assert.True(t, set.Has(tag), tag)
	}
	assert.Equal(t, before+uint64(len(tags)), svc.Snapshot().Generation())
}

func TestServiceAuthorizeResolveFailureFailsClosed(t *testing.T) {
	svc, _ := newTestService(t)
	snap := svc.Snapshot()
	set, err := snap.Resolve(Principal{RoleID: "basic_user_1"})
	require.NoError(t, err)
	req := Request{PermissionID: "dashboard.view", Relationship: RelSelf}

	decision := svc.authorizeResolved(snap, set, errors.New("cache backend unavailable"), req)
	assert.False(t, decision.Allowed)
	assert.Equal(t, DenyResolveFailed, decision.Reason)

	// An unknown role is not a failure; the tags-only set still reaches
	// the engine.
	ghost, ghostErr := snap.Resolve(Principal{RoleID: "ghost", DepartmentKey: "CALL_CENTER"})
	require.Error(t, ghostErr)
	decision = svc.authorizeResolved(snap, ghost, ghostErr, Request{PermissionID: "case_intake", Relationship: RelSameDepartment})
	assert.True(t, decision.Allowed)
}

func TestServiceCanAssignRole(t *testing.T) {
	svc, _ := newTestService(t)

	assert.True(t, svc.CanAssignRole("system_administrator", "administrator").Allowed)

	denied := svc.CanAssignRole("administrator", "system_administrator")
	assert.False(t, denied.Allowed)
	assert.Equal(t, DenyExceedsGrantableLevel, denied.Reason)

	denied = svc.CanAssignRole("basic_user_1", "basic_user_1")
	assert.False(t, denied.Allowed)
	assert.Equal(t, DenyActorCannotAssignRoles, denied.Reason)

	denied = svc.CanAssignRole("ghost", "basic_user_1")
	assert.False(t, denied.Allowed)
	assert.Equal(t, DenyUnknownRole, denied.Reason)

	denied = svc.CanAssignRole("system_administrator", "ghost")
	assert.False(t, denied.Allowed)
	assert.Equal(t, DenyUnknownRole, denied.Reason)
}

func TestServiceUpsertRoleEnforcesInvariants(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	err := svc.UpsertRole(ctx, Role{ID: "team_lead", SecurityClearanceLevel: 2, MaxSecurityLevel: 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCatalogInvariant))
	_, exists := store.roles["team_lead"]
	assert.False(t, exists, "rejected role must not reach the store")

	err = svc.UpsertRole(ctx, Role{ID: "administrator", SecurityClearanceLevel: 3, MaxSecurityLevel: 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCatalogInvariant), "system flag cannot be stripped")

	require.NoError(t, svc.UpsertRole(ctx, Role{ID: "team_lead", SecurityClearanceLevel: 2, MaxSecurityLevel: 1, Priority: 9}))
	_, err = svc.Snapshot().Roles().Get("team_lead")
	assert.NoError(t, err)
}

func TestServiceGrantPermissionValidatesCatalog(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	err := svc.GrantPermission(ctx, "basic_user_1", "no.such.permission", "tester")
	assert.True(t, errors.Is(err, ErrUnknownPermission))

	err = svc.GrantPermission(ctx, "ghost", "dashboard.view", "tester")
	assert.True(t, errors.Is(err, ErrUnknownRole))

	require.NoError(t, svc.GrantPermission(ctx, "basic_user_1", "hr.leave.view", "tester"))
	set, err := svc.ResolvePermissions(ctx, Principal{RoleID: "basic_user_1"})
	require.NoError(t, err)
	assert.True(t, set.Has("hr.leave.view"))
}

func TestServiceDepartmentTagLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	principal := Principal{RoleID: "basic_user_1", DepartmentKey: "FIELD_OFFICE"}

	require.NoError(t, svc.GrantDepartmentTag(ctx, "FIELD_OFFICE", "site_visits"))
	set, err := svc.ResolvePermissions(ctx, principal)
	require.NoError(t, err)
	assert.True(t, set.Has("site_visits"))

	require.NoError(t, svc.RevokeDepartmentTag(ctx, "FIELD_OFFICE", "site_visits"))
	set, err = svc.ResolvePermissions(ctx, principal)
	require.NoError(t, err)
	assert.False(t, set.Has("site_visits"))

	err = svc.GrantDepartmentTag(ctx, "", "site_visits")
	assert.True(t, errors.Is(err, ErrCatalogInvariant))
}
