package anticair

// Role is a realm group a profile can belong to.
type Role string

const (
	// RoleAdmin grants access to the admin surfaces and every owner check.
	RoleAdmin Role = "Admin"
	// RoleAntiquarian marks the listing moderators.
	RoleAntiquarian Role = "Antiquarian"
	// RoleUnknown is the fallback for group claims outside the closed set.
	RoleUnknown Role = "Unknown"
)

// IsValid checks if the role is one of the predefined known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleAntiquarian:
		return true
	default:
		return false
	}
}

// KnownRoles returns the closed set of roles the decision engine understands.
func KnownRoles() []Role {
	return []Role{
		RoleAdmin,
		RoleAntiquarian,
	}
}

// ParseRole safely parses a string into a Role. Claims outside the known set
// map to RoleUnknown with ok=false so callers can keep the raw value around
// without the engine ever matching on it.
func ParseRole(claim string) (Role, bool) {
	role := Role(claim)
	if role.IsValid() {
		return role, true
	}
	return RoleUnknown, false
}
