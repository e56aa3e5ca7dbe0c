package authz

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolverSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	roles, err := NewRoleCatalog([]Role{
		{ID: "agent", SecurityClearanceLevel: 1},
	})
	require.NoError(t, err)
	perms, err := NewPermissionCatalog([]Permission{
		{ID: "cases.view", Module: "callcenter", Scope: ScopeTeam, IsActive: true},
		{ID: "cases.edit", Module: "callcenter", Scope: ScopeTeam, IsActive: false},
	})
	require.NoError(t, err)
	snap, err := NewSnapshot(roles, perms,
		[]RoleGrant{
			{RoleID: "agent", PermissionID: "cases.view"},
			{RoleID: "agent", PermissionID: "cases.edit"},
		},
		[]DepartmentGrant{
			{DepartmentKey: "CALL_CENTER", Tag: "case_intake"},
		})
	require.NoError(t, err)
	return snap
}

func TestResolveUnionsRoleAndDepartment(t *testing.T) {
	snap := resolverSnapshot(t)
	set, err := snap.Resolve(Principal{RoleID: "agent", DepartmentKey: "CALL_CENTER"})
	require.NoError(t, err)
	assert.True(t, set.Has("cases.view"))
	assert.True(t, set.Has("case_intake"))
}

func TestResolveFiltersInactivePermissions(t *testing.T) {
	snap := resolverSnapshot(t)
	set, err := snap.Resolve(Principal{RoleID: "agent", DepartmentKey: "CALL_CENTER"})
	require.NoError(t, err)
	assert.False(t, set.Has("cases.edit"), "inactive permission must not resolve")
}

func TestResolveUnknownRoleKeepsDepartmentTags(t *testing.T) {
	snap := resolverSnapshot(t)
	set, err := snap.Resolve(Principal{RoleID: "ghost", DepartmentKey: "CALL_CENTER"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownRole))
	assert.Equal(t, []string{"case_intake"}, set.List())
}

func TestResolveMissingDepartmentIsNotAnError(t *testing.T) {
	snap := resolverSnapshot(t)
	set, err := snap.Resolve(Principal{RoleID: "agent", DepartmentKey: DepartmentUnassigned})
	require.NoError(t, err)
	assert.Equal(t, []string{"cases.view"}, set.List())
}

func TestResolveIsDeterministic(t *testing.T) {
	snap := resolverSnapshot(t)
	principal := Principal{RoleID: "agent", DepartmentKey: "CALL_CENTER"}
	first, err := snap.Resolve(principal)
	require.NoError(t, err)
	second, err := snap.Resolve(principal)
	require.NoError(t, err)
	assert.Equal(t, first.List(), second.List())
}
