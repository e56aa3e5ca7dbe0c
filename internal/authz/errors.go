package authz

import "errors"

var (
	// ErrUnknownRole indicates the principal references a role absent from
	// the role catalog. Callers must treat this as zero role-derived
	// permissions, never as a default role.
	ErrUnknownRole = errors.New("authz: unknown role")
	// ErrUnknownPermission indicates a permission id absent from the catalog.
	ErrUnknownPermission = errors.New("authz: unknown permission")
	// ErrCatalogInvariant indicates an administrative write would violate a
	// catalog invariant. The write is rejected atomically.
	ErrCatalogInvariant = errors.New("authz: catalog invariant violation")
)

// DenyReason identifies why a decision came back negative.
type DenyReason string

const (
	DenyPermissionNotGranted   DenyReason = "PermissionNotGranted"
	DenyScopeInsufficient      DenyReason = "ScopeInsufficient"
	DenyPermissionInactive     DenyReason = "PermissionInactive"
	DenyUnknownPermission      DenyReason = "UnknownPermission"
	DenyUnknownRelationship    DenyReason = "UnknownRelationship"
	DenyActorCannotAssignRoles DenyReason = "ActorCannotAssignRoles"
	DenyExceedsGrantableLevel  DenyReason = "ExceedsGrantableLevel"
	DenyUnknownRole            DenyReason = "UnknownRole"
	// DenyResolveFailed marks a deny caused by a resolution failure other
	// than an unknown role, so audit entries do not report a missing grant
	// that was never evaluated.
	DenyResolveFailed DenyReason = "ResolveFailed"
)

// Decision is the outcome of an authorization or role-assignment check.
// A check that cannot establish Allow always resolves to a Deny with a
// reason; evaluation never panics or errors out of gating.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

// Allow returns a positive decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a negative decision carrying the reason.
func Deny(reason DenyReason) Decision {
	return Decision{Allowed: false, Reason: reason}
}
