package anticair

// Capability is the abstract permission class a route or action requires.
type Capability string

const (
	// CapabilityAuthenticatedOnly requires a logged-in actor.
	CapabilityAuthenticatedOnly Capability = "authenticated_only"
	// CapabilityAdminOnly requires a logged-in actor in the Admin group.
	CapabilityAdminOnly Capability = "admin_only"
	// CapabilityRoleMember requires membership in the request's role. The
	// rule checks membership alone; it does not re-check the login flag.
	CapabilityRoleMember Capability = "role_member"
	// CapabilityOwnerOrAdmin passes for admins or the resource owner.
	CapabilityOwnerOrAdmin Capability = "owner_or_admin"
)

// ResourceRef describes the target listing for ownership decisions.
type ResourceRef struct {
	OwnerEmail string
	Lifecycle  LifecycleState
}

// AccessRequest is built per access attempt. Actor is a snapshot taken at
// decision time, never a live reference.
type AccessRequest struct {
	Actor      Snapshot
	Resource   *ResourceRef
	Capability Capability
	// Role names the required group for CapabilityRoleMember.
	Role Role
}

// Decision is the outcome of an authorization check. A denial carries the
// redirect target for the routing layer; it is never an error.
type Decision struct {
	Allowed    bool
	RedirectTo string
}

// Allow is the positive decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// DenyTo denies access and points the router at a safe target.
func DenyTo(route string) Decision {
	return Decision{RedirectTo: route}
}

// DecisionEngine evaluates access requests. It is stateless and
// deterministic: the same (actor, resource, capability) triple always yields
// the same decision, with no clock or global lookups involved.
type DecisionEngine struct {
	homeRoute     string
	fallbackRoute string
}

// NewDecisionEngine reads the redirect targets from the config: denials go
// home, failed resource checks go to the rejected-route default.
func NewDecisionEngine(cfg Config) *DecisionEngine {
	home := "/home"
	fallback := "/"
	if cfg != nil {
		if r := cfg.GetHomeRoute(); r != "" {
			home = r
		}
		if r := cfg.GetRejectedRouteDefault(); r != "" {
			fallback = r
		}
	}
	return &DecisionEngine{homeRoute: home, fallbackRoute: fallback}
}

// HomeRoute returns the denial redirect target.
func (e *DecisionEngine) HomeRoute() string { return e.homeRoute }

// FallbackRoute returns the safe default used when a resource check fails.
func (e *DecisionEngine) FallbackRoute() string { return e.fallbackRoute }

// Decide returns Allow or Deny(redirect) for the request. Unknown
// capabilities and unknown roles deny: the engine only matches on the
// closed sets it understands.
func (e *DecisionEngine) Decide(req AccessRequest) Decision {
	switch req.Capability {
	case CapabilityAuthenticatedOnly:
		if req.Actor.LoggedIn {
			return Allow()
		}
		return DenyTo(e.homeRoute)

	case CapabilityAdminOnly:
		// Unauthenticated and authenticated-non-admin are indistinguishable
		// in the denial outcome.
		if req.Actor.IsAdmin() {
			return Allow()
		}
		return DenyTo(e.homeRoute)

	case CapabilityRoleMember:
		if req.Role.IsValid() && req.Actor.HasGroup(req.Role) {
			return Allow()
		}
		return DenyTo(e.homeRoute)

	case CapabilityOwnerOrAdmin:
		if req.Actor.IsAdmin() {
			return Allow()
		}
		if req.Resource != nil && req.Resource.OwnerEmail != "" && req.Resource.OwnerEmail == req.Actor.Email() {
			return Allow()
		}
		return DenyTo(e.fallbackRoute)
	}

	return DenyTo(e.homeRoute)
}
