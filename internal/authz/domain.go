package authz

import (
	"sort"
	"time"
)

// Scope describes how broad a slice of data a permission covers.
// Scopes are totally ordered: own < team < department < organization.
type Scope string

const (
	ScopeOwn          Scope = "own"
	ScopeTeam         Scope = "team"
	ScopeDepartment   Scope = "department"
	ScopeOrganization Scope = "organization"
)

var scopeRank = map[Scope]int{
	ScopeOwn:          1,
	ScopeTeam:         2,
	ScopeDepartment:   3,
	ScopeOrganization: 4,
}

// Valid reports whether the scope is one of the known values.
func (s Scope) Valid() bool {
	_, ok := scopeRank[s]
	return ok
}

// Covers reports whether a grant at scope s is at least as broad as other.
func (s Scope) Covers(other Scope) bool {
	return scopeRank[s] >= scopeRank[other]
}

// Relationship describes how the requesting principal relates to the
// owner of the resource being accessed.
type Relationship string

const (
	RelSelf           Relationship = "self"
	RelSameTeam       Relationship = "same-team"
	RelSameDepartment Relationship = "same-department"
	RelAny            Relationship = "any"
)

var relationshipScope = map[Relationship]Scope{
	RelSelf:           ScopeOwn,
	RelSameTeam:       ScopeTeam,
	RelSameDepartment: ScopeDepartment,
	RelAny:            ScopeOrganization,
}

// RequiredScope returns the minimum grant scope that satisfies the relationship.
func (r Relationship) RequiredScope() (Scope, bool) {
	s, ok := relationshipScope[r]
	return s, ok
}

// Category groups permissions by the kind of capability they confer.
// The set is open ended; these are the values seeded today.
type Category string

const (
	CategoryAccess    Category = "access"
	CategoryCRUD      Category = "crud"
	CategoryAdmin     Category = "admin"
	CategoryFinance   Category = "finance"
	CategoryAnalytics Category = "analytics"
)

// Action is the verb a permission allows. Open ended, like Category.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionManage Action = "manage"
)

// Role is a system role. Roles are compared only by clearance level;
// Priority is display ordering and carries no security meaning.
type Role struct {
	ID                     string
	DisplayName            string
	Description            string
	SecurityClearanceLevel int
	Priority               int
	IsSystemRole           bool
	CanAssignRoles         bool
	CanManageUsers         bool
	// MaxSecurityLevel is the highest clearance this role's holders may
	// grant to someone else. Never exceeds SecurityClearanceLevel.
	MaxSecurityLevel int
}

// Permission is an atomic capability definition.
type Permission struct {
	ID               string // dotted path, e.g. "documents.view_secret"
	DisplayName      string
	Description      string
	Module           string
	Category         Category
	Action           Action
	Scope            Scope
	SecurityLevel    int // descriptive/audit attribute, not an enforcement axis
	RequiresApproval bool
	IsActive         bool
}

// RoleGrant associates a permission with a role.
type RoleGrant struct {
	RoleID       string
	PermissionID string
	GrantedBy    string
	GrantedAt    time.Time
}

// DepartmentGrant associates a capability tag with a department. Tags are
// additive only and need not correspond to a catalogued permission.
type DepartmentGrant struct {
	DepartmentKey string
	Tag           string
}

// DepartmentUnassigned is the department key used for principals without
// an organizational placement.
const DepartmentUnassigned = "Unassigned"

// Principal is the subject of an authorization check. It is supplied by
// the caller per request and never persisted here.
type Principal struct {
	RoleID        string
	DepartmentKey string
}

// EffectivePermissionSet is the deduplicated union of a principal's
// role-derived permissions and department-derived tags. It is a derived,
// request-scoped value with no independent lifecycle.
type EffectivePermissionSet struct {
	members map[string]struct{}
}

func newEffectiveSet(capacity int) EffectivePermissionSet {
	return EffectivePermissionSet{members: make(map[string]struct{}, capacity)}
}

func (s EffectivePermissionSet) add(id string) {
	s.members[id] = struct{}{}
}

// Has reports whether the set contains the permission id or tag.
func (s EffectivePermissionSet) Has(id string) bool {
	_, ok := s.members[id]
	return ok
}

// Len returns the number of distinct entries.
func (s EffectivePermissionSet) Len() int {
	return len(s.members)
}

// List returns the entries sorted for stable output.
func (s EffectivePermissionSet) List() []string {
	out := make([]string, 0, len(s.members))
	for id := range s.members {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
