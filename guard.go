package anticair

import (
	"net/http"

	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// RouteGuard turns decision engine rules into router middleware. Denials
// never surface as errors to the client; the guard redirects to the route
// the decision carries.
type RouteGuard struct {
	engine     *DecisionEngine
	sessions   SnapshotSource
	moderation *Moderation
	logger     Logger
}

func NewRouteGuard(engine *DecisionEngine, sessions SnapshotSource) *RouteGuard {
	return &RouteGuard{
		engine:   engine,
		sessions: sessions,
		logger:   defLogger{},
	}
}

func (g *RouteGuard) WithLogger(logger Logger) *RouteGuard {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// WithModeration wires the lifecycle service needed by RequireListingOwner.
func (g *RouteGuard) WithModeration(moderation *Moderation) *RouteGuard {
	g.moderation = moderation
	return g
}

// RequireAuthenticated admits logged-in sessions only.
func (g *RouteGuard) RequireAuthenticated() router.MiddlewareFunc {
	return g.middleware(func(ctx router.Context, actor Snapshot) Decision {
		return g.engine.Decide(AccessRequest{
			Actor:      actor,
			Capability: CapabilityAuthenticatedOnly,
		})
	})
}

// RequireAdmin admits logged-in sessions holding the Admin role.
func (g *RouteGuard) RequireAdmin() router.MiddlewareFunc {
	return g.middleware(func(ctx router.Context, actor Snapshot) Decision {
		return g.engine.Decide(AccessRequest{
			Actor:      actor,
			Capability: CapabilityAdminOnly,
		})
	})
}

// RequireRole admits sessions holding the named role. Membership alone is
// checked; the role rule does not re-test the login flag.
func (g *RouteGuard) RequireRole(role Role) router.MiddlewareFunc {
	return g.middleware(func(ctx router.Context, actor Snapshot) Decision {
		return g.engine.Decide(AccessRequest{
			Actor:      actor,
			Capability: CapabilityRoleMember,
			Role:       role,
		})
	})
}

// RequireListingOwner admits the owner of the listing named by the route
// param, or an admin. Unparseable ids and failed lookups deny with the safe
// default route.
func (g *RouteGuard) RequireListingOwner(param string) router.MiddlewareFunc {
	return g.middleware(func(ctx router.Context, actor Snapshot) Decision {
		if g.moderation == nil {
			g.logger.Warn("listing owner guard has no moderation service, denying")
			return DenyTo(g.engine.FallbackRoute())
		}

		id, err := uuid.Parse(ctx.Param(param))
		if err != nil {
			g.logger.Info("listing owner guard got bad id %q, denying", ctx.Param(param))
			return DenyTo(g.engine.FallbackRoute())
		}

		return g.moderation.AuthorizeEdit(ctx.Context(), id)
	})
}

func (g *RouteGuard) middleware(decide func(router.Context, Snapshot) Decision) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			actor := g.sessions.Snapshot()

			decision := decide(ctx, actor)
			if !decision.Allowed {
				g.logger.Info(
					"Route access denied, redirecting",
					"path", ctx.OriginalURL(),
					"redirect", decision.RedirectTo,
				)
				return ctx.Redirect(decision.RedirectTo, redirectStatus(ctx))
			}

			ctx.Locals(SessionLocalsKey, actor)
			return hf(ctx)
		}
	}
}

func redirectStatus(ctx router.Context) int {
	if ctx.Method() == string(router.GET) {
		return http.StatusFound
	}
	return http.StatusSeeOther
}
