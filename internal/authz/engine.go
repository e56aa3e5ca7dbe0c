package authz

// Request describes a single access check: which permission the operation
// needs and how the principal relates to the owner of the resource.
type Request struct {
	PermissionID string
	Relationship Relationship
}

// Authorize evaluates a request against an effective permission set.
//
// Allow requires both that the permission is present in the set and that the
// granted scope covers the scope demanded by the resource-owner
// relationship. Role clearance levels are never consulted here; sensitivity
// is modelled as ordinary scoped permissions, and SecurityLevel stays a
// descriptive attribute.
func (s *Snapshot) Authorize(set EffectivePermissionSet, req Request) Decision {
	required, ok := req.Relationship.RequiredScope()
	if !ok {
		return Deny(DenyUnknownRelationship)
	}

	perm, err := s.permissions.Get(req.PermissionID)
	if err != nil {
		// Department tags are not catalogued permissions. A tag present in
		// the effective set authorizes department-level work; anything else
		// is a stale or misspelled permission id and fails closed.
		if set.Has(req.PermissionID) {
			if ScopeDepartment.Covers(required) {
				return Allow()
			}
			return Deny(DenyScopeInsufficient)
		}
		return Deny(DenyUnknownPermission)
	}

	if !perm.IsActive {
		return Deny(DenyPermissionInactive)
	}
	if !set.Has(req.PermissionID) {
		return Deny(DenyPermissionNotGranted)
	}
	if !perm.Scope.Covers(required) {
		return Deny(DenyScopeInsufficient)
	}
	return Allow()
}
