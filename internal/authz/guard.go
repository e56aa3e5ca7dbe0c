package authz

// CanAssign decides whether an actor holding actorRole may grant targetRole
// to someone, themselves included. Self-assignment gets no exemption.
//
// The rules run in order: an actor without the assignment capability is
// refused outright; otherwise the target's clearance must not exceed the
// actor's grantable ceiling. Because MaxSecurityLevel never exceeds the
// actor's own clearance, no chain of delegations can ever mint a peer or a
// superior.
func CanAssign(actorRole, targetRole Role) Decision {
	if !actorRole.CanAssignRoles {
		return Deny(DenyActorCannotAssignRoles)
	}
	if targetRole.SecurityClearanceLevel > actorRole.MaxSecurityLevel {
		return Deny(DenyExceedsGrantableLevel)
	}
	return Allow()
}
