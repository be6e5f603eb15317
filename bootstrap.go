package anticair

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// AdminClaimer decides whether a freshly materialized profile should be
// promoted to the privileged role. The default implementation performs the
// historical count-then-grant sequence; it is deliberately an interface so
// an atomic claim-first-admin operation can replace it without touching the
// decision engine.
type AdminClaimer interface {
	Claim(ctx context.Context, profile *Profile, token string) error
}

type noopAdminClaimer struct{}

func (noopAdminClaimer) Claim(context.Context, *Profile, string) error { return nil }

// FirstUserClaimer grants the Admin role to the sole registered identity.
//
// The count check and the grant are two separate realm calls with no
// transactional guarantee: two first-time registrations racing through this
// path can both observe a count of one. Kept as-is to preserve the source
// behavior; see AdminClaimer for the replacement seam.
type FirstUserClaimer struct {
	counter   UserCounter
	directory RoleDirectory
	logger    Logger
	sink      ActivitySink
}

var _ AdminClaimer = (*FirstUserClaimer)(nil)

// NewFirstUserClaimer wires the user-count and role-membership collaborators
// into the default bootstrap.
func NewFirstUserClaimer(counter UserCounter, directory RoleDirectory) *FirstUserClaimer {
	return &FirstUserClaimer{
		counter:   counter,
		directory: directory,
		logger:    defLogger{},
		sink:      noopActivitySink{},
	}
}

func (c *FirstUserClaimer) WithLogger(logger Logger) *FirstUserClaimer {
	if logger != nil {
		c.logger = logger
	}
	return c
}

func (c *FirstUserClaimer) WithActivitySink(sink ActivitySink) *FirstUserClaimer {
	c.sink = normalizeActivitySink(sink)
	return c
}

func (c *FirstUserClaimer) Claim(ctx context.Context, profile *Profile, token string) error {
	if profile == nil || profile.Email == "" {
		return ErrProfileUnavailable
	}

	count, err := c.counter.CountUsers(ctx, token)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "user count lookup failed")
	}

	if count != 1 {
		return nil
	}

	if err := c.directory.GrantRole(ctx, profile.Email, RoleAdmin); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to grant admin role")
	}

	c.logger.Info("first registered identity promoted to admin: %s", profile.Email)
	event := ActivityEvent{
		EventType:  ActivityEventAdminBootstrap,
		Actor:      ActorRef{ID: profile.Email, Type: "user"},
		Email:      profile.Email,
		OccurredAt: time.Now(),
	}
	if err := normalizeActivitySink(c.sink).Record(ctx, event); err != nil {
		c.logger.Warn("activity sink record error: %v", err)
	}
	return nil
}
