package authz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-portal/atlas-portal/internal/authz"
	"github.com/atlas-portal/atlas-portal/internal/shared"
)

func seedSnapshot(t *testing.T) *authz.Snapshot {
	t.Helper()
	snap, err := authz.SeedSnapshot()
	require.NoError(t, err)
	return snap
}

func TestSeedSnapshotBuilds(t *testing.T) {
	snap := seedSnapshot(t)
	assert.Equal(t, 5, snap.Roles().Len())
	assert.Equal(t, len(authz.SeedPermissions()), snap.Permissions().Len())
}

func TestSeedBasicUserExactPermissions(t *testing.T) {
	snap := seedSnapshot(t)
	set, err := snap.Resolve(authz.Principal{RoleID: "basic_user_1", DepartmentKey: authz.DepartmentUnassigned})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		shared.PermDashboardView,
		shared.PermProfileView,
		shared.PermProfileEdit,
		shared.PermDocumentsViewPublic,
		shared.PermCallCenterView,
	}, set.List())
}

func TestSeedCallCenterAgentScenario(t *testing.T) {
	snap := seedSnapshot(t)
	agent := authz.Principal{RoleID: "basic_user_1", DepartmentKey: "CALL_CENTER"}
	set, err := snap.Resolve(agent)
	require.NoError(t, err)

	// Role grants plus the department's tags.
	assert.True(t, set.Has(shared.PermCallCenterView))
	assert.True(t, set.Has("case_intake"))
	assert.True(t, set.Has("caller_followup"))
	assert.Equal(t, 7, set.Len())

	// Viewing a teammate's case is in scope for the team-scoped grant.
	decision := snap.Authorize(set, authz.Request{PermissionID: shared.PermCallCenterView, Relationship: authz.RelSameTeam})
	assert.True(t, decision.Allowed)

	// Reaching across the organization is not.
	decision = snap.Authorize(set, authz.Request{PermissionID: shared.PermCallCenterView, Relationship: authz.RelAny})
	assert.False(t, decision.Allowed)
	assert.Equal(t, authz.DenyScopeInsufficient, decision.Reason)

	// Internal documents were never granted to this role.
	decision = snap.Authorize(set, authz.Request{PermissionID: shared.PermDocumentsViewInternal, Relationship: authz.RelSelf})
	assert.False(t, decision.Allowed)
	assert.Equal(t, authz.DenyPermissionNotGranted, decision.Reason)
}

func TestSeedTopSecretDocumentsScenario(t *testing.T) {
	snap := seedSnapshot(t)

	sysadmin, err := snap.Resolve(authz.Principal{RoleID: "system_administrator", DepartmentKey: authz.DepartmentUnassigned})
	require.NoError(t, err)

	// Own-scoped: the holder sees their own top secret material only.
	decision := snap.Authorize(sysadmin, authz.Request{PermissionID: shared.PermDocumentsViewTopSecret, Relationship: authz.RelSelf})
	assert.True(t, decision.Allowed)

	decision = snap.Authorize(sysadmin, authz.Request{PermissionID: shared.PermDocumentsViewTopSecret, Relationship: authz.RelSameTeam})
	assert.False(t, decision.Allowed)
	assert.Equal(t, authz.DenyScopeInsufficient, decision.Reason)

	// Administrators hold confidential access but not the top secret tier.
	admin, err := snap.Resolve(authz.Principal{RoleID: "administrator", DepartmentKey: authz.DepartmentUnassigned})
	require.NoError(t, err)
	decision = snap.Authorize(admin, authz.Request{PermissionID: shared.PermDocumentsViewTopSecret, Relationship: authz.RelSelf})
	assert.False(t, decision.Allowed)
	assert.Equal(t, authz.DenyPermissionNotGranted, decision.Reason)
	decision = snap.Authorize(admin, authz.Request{PermissionID: shared.PermDocumentsViewConfidential, Relationship: authz.RelSameDepartment})
	assert.True(t, decision.Allowed)
}

func TestSeedProgramsOfficerScenario(t *testing.T) {
	snap := seedSnapshot(t)
	officer := authz.Principal{RoleID: "advance_user_2", DepartmentKey: "PROGRAMS_AND_OPERATIONS"}
	set, err := snap.Resolve(officer)
	require.NoError(t, err)

	// Union of the role's eleven grants and the department's three tags.
	assert.Equal(t, 14, set.Len())
	assert.True(t, set.Has(shared.PermProgramsEdit))
	assert.True(t, set.Has("program_management"))
	assert.True(t, set.Has("field_operations"))
	assert.True(t, set.Has("beneficiary_management"))

	// Resolving again yields the identical set.
	again, err := snap.Resolve(officer)
	require.NoError(t, err)
	assert.Equal(t, set.List(), again.List())
}

func TestSeedAssignmentCeilingScenario(t *testing.T) {
	snap := seedSnapshot(t)
	get := func(id string) authz.Role {
		role, err := snap.Roles().Get(id)
		require.NoError(t, err)
		return role
	}

	admin := get("administrator")
	assert.True(t, authz.CanAssign(admin, get("basic_user_1")).Allowed)
	assert.True(t, authz.CanAssign(admin, get("advance_user_1")).Allowed)
	assert.True(t, authz.CanAssign(admin, get("advance_user_2")).Allowed)

	denied := authz.CanAssign(admin, get("system_administrator"))
	assert.False(t, denied.Allowed)
	assert.Equal(t, authz.DenyExceedsGrantableLevel, denied.Reason)

	denied = authz.CanAssign(admin, admin)
	assert.False(t, denied.Allowed, "administrator ceiling is below its own clearance")

	sysadmin := get("system_administrator")
	assert.True(t, authz.CanAssign(sysadmin, sysadmin).Allowed)
	assert.True(t, authz.CanAssign(sysadmin, admin).Allowed)
}

func TestSeedRolesKeepGuardInvariant(t *testing.T) {
	for _, role := range authz.SeedRoles() {
		assert.LessOrEqual(t, role.MaxSecurityLevel, role.SecurityClearanceLevel, role.ID)
	}
}
