package authz

import "fmt"

// Resolve computes the effective permission set for a principal: the union
// of the role's active grants and the department's tags, deduplicated.
//
// An unknown role yields the department tags only, together with
// ErrUnknownRole; there is no default role fallback. A missing
// department key contributes nothing and is not an error. Resolution is a
// pure function of the snapshot and the principal, so identical inputs
// always produce identical sets.
func (s *Snapshot) Resolve(principal Principal) (EffectivePermissionSet, error) {
	tags := s.departments[principal.DepartmentKey]
	set := newEffectiveSet(len(s.grants[principal.RoleID]) + len(tags))
	for _, tag := range tags {
		set.add(tag)
	}

	if _, err := s.roles.Get(principal.RoleID); err != nil {
		return set, fmt.Errorf("%w: %q", ErrUnknownRole, principal.RoleID)
	}

	for permID := range s.grants[principal.RoleID] {
		perm, err := s.permissions.Get(permID)
		if err != nil {
			// Grants are validated against the catalog at snapshot build
			// time, so this only happens on a corrupted snapshot. Skip
			// rather than grant.
			continue
		}
		if !perm.IsActive {
			continue
		}
		set.add(permID)
	}
	return set, nil
}
