package anticair

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventInitFailure      ActivityEventType = "session.init.failure"
	ActivityEventLoginSuccess     ActivityEventType = "session.login.success"
	ActivityEventLoginFailure     ActivityEventType = "session.login.failure"
	ActivityEventLogout           ActivityEventType = "session.logout"
	ActivityEventAdminBootstrap   ActivityEventType = "bootstrap.admin.granted"
	ActivityEventListingAccepted  ActivityEventType = "listing.accepted"
	ActivityEventListingRejected  ActivityEventType = "listing.rejected"
	ActivityEventListingPurchase  ActivityEventType = "listing.purchase.requested"
	ActivityEventDisplayToggled   ActivityEventType = "listing.display.toggled"
	ActivityEventListingSubmitted ActivityEventType = "listing.submitted"
)

// ActorRef identifies who/what triggered an event.
type ActorRef struct {
	ID   string
	Type string
}

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	Actor      ActorRef
	Email      string
	ListingID  string
	FromState  LifecycleState
	ToState    LifecycleState
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
