package anticair

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// LifecycleState is the moderation status of a listing.
type LifecycleState string

const (
	// StatePendingReview is the initial state, set at creation and re-entered
	// when an approved listing is edited.
	StatePendingReview LifecycleState = "pending_review"
	// StateListed marks an approved listing; purchase requires this state.
	StateListed LifecycleState = "listed"
	// StateNeedsRevision carries the moderator's review note back to the
	// seller.
	StateNeedsRevision LifecycleState = "needs_revision"
)

// IsValid checks if the state is one of the lifecycle states.
func (s LifecycleState) IsValid() bool {
	switch s {
	case StatePendingReview, StateListed, StateNeedsRevision:
		return true
	default:
		return false
	}
}

// listingTransitions is the closed transition table. Listed -> NeedsRevision
// covers the edited-after-approval path.
var listingTransitions = map[LifecycleState]map[LifecycleState]struct{}{
	StatePendingReview: {
		StateListed:        {},
		StateNeedsRevision: {},
	},
	StateListed: {
		StateNeedsRevision: {},
	},
	StateNeedsRevision: {
		StateListed: {},
	},
}

// CanTransition reports whether the lifecycle change is allowed.
func CanTransition(from, to LifecycleState) bool {
	if allowed, ok := listingTransitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

// noCommentPlaceholder fills review fields the moderator left blank, so the
// seller always sees four populated notes.
const noCommentPlaceholder = "no comment."

// ReviewNote is the moderator's feedback attached to a rejection. At least
// one field must be populated.
type ReviewNote struct {
	Title       string `json:"note_title"`
	Description string `json:"note_description"`
	Price       string `json:"note_price"`
	Photo       string `json:"note_photo"`
}

// Validate enforces the at-least-one-field rule. It runs locally, before any
// store call.
func (n ReviewNote) Validate() error {
	return requireOneReviewField(&n)
}

func requireOneReviewField(value any) error {
	note, ok := value.(*ReviewNote)
	if !ok || note == nil {
		return ErrEmptyReviewNote
	}
	if note.Title == "" && note.Description == "" && note.Price == "" && note.Photo == "" {
		return ErrEmptyReviewNote
	}
	return nil
}

// withPlaceholders returns a copy with blank fields filled.
func (n ReviewNote) withPlaceholders() ReviewNote {
	fill := func(s string) string {
		if s == "" {
			return noCommentPlaceholder
		}
		return s
	}
	return ReviewNote{
		Title:       fill(n.Title),
		Description: fill(n.Description),
		Price:       fill(n.Price),
		Photo:       fill(n.Photo),
	}
}

// Moderation drives the listing lifecycle. Every operation snapshots the
// session, runs the decision engine, and only then talks to the store under
// a bounded wait. The store owns idempotency; this layer submits each
// transition exactly once per confirmed action.
type Moderation struct {
	store         ListingStore
	engine        *DecisionEngine
	sessions      SnapshotSource
	logger        Logger
	sink          ActivitySink
	lookupTimeout time.Duration
	now           func() time.Time
}

// DefaultLookupTimeout bounds store lookups the same way the init race
// bounds the provider handshake.
const DefaultLookupTimeout = 5 * time.Second

func NewModeration(store ListingStore, engine *DecisionEngine, sessions SnapshotSource) *Moderation {
	return &Moderation{
		store:         store,
		engine:        engine,
		sessions:      sessions,
		logger:        defLogger{},
		sink:          noopActivitySink{},
		lookupTimeout: DefaultLookupTimeout,
		now:           time.Now,
	}
}

func (m *Moderation) WithLogger(logger Logger) *Moderation {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// WithActivitySink configures the audit sink for lifecycle events.
func (m *Moderation) WithActivitySink(sink ActivitySink) *Moderation {
	m.sink = normalizeActivitySink(sink)
	return m
}

// WithLookupTimeout overrides the deadline applied to store lookups.
func (m *Moderation) WithLookupTimeout(d time.Duration) *Moderation {
	if d > 0 {
		m.lookupTimeout = d
	}
	return m
}

// WithClock injects a custom clock (useful for tests).
func (m *Moderation) WithClock(clock func() time.Time) *Moderation {
	if clock != nil {
		m.now = clock
	}
	return m
}

// Accept moves a listing to Listed. Requires the Antiquarian role.
func (m *Moderation) Accept(ctx context.Context, id uuid.UUID) (*ListingRecord, error) {
	if id == uuid.Nil {
		return nil, ErrMissingListingID
	}

	actor := m.sessions.Snapshot()
	if decision := m.engine.Decide(AccessRequest{
		Actor:      actor,
		Capability: CapabilityRoleMember,
		Role:       RoleAntiquarian,
	}); !decision.Allowed {
		return nil, deniedError(decision)
	}

	rec, err := m.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	from := rec.State
	if !CanTransition(from, StateListed) {
		return nil, sentinelWithMetadata(ErrInvalidListingTransition, map[string]any{
			"from": from,
			"to":   StateListed,
		})
	}

	if err := m.store.SetLifecycle(ctx, id, StateListed, nil, actor.Email()); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to accept listing")
	}

	rec.State = StateListed
	rec.ModeratorEmail = actor.Email()

	m.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventListingAccepted,
		Actor:     ActorRef{ID: actor.Email(), Type: "moderator"},
		Email:     rec.SellerEmail,
		ListingID: id.String(),
		FromState: from,
		ToState:   StateListed,
	})
	return rec, nil
}

// Reject moves a listing to NeedsRevision, persisting the review note.
// Requires the Antiquarian role. An entirely empty note is a local
// validation failure raised before any store call.
func (m *Moderation) Reject(ctx context.Context, id uuid.UUID, note ReviewNote) (*ListingRecord, error) {
	if id == uuid.Nil {
		return nil, ErrMissingListingID
	}
	if err := note.Validate(); err != nil {
		return nil, err
	}

	actor := m.sessions.Snapshot()
	if decision := m.engine.Decide(AccessRequest{
		Actor:      actor,
		Capability: CapabilityRoleMember,
		Role:       RoleAntiquarian,
	}); !decision.Allowed {
		return nil, deniedError(decision)
	}

	rec, err := m.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	from := rec.State
	if !CanTransition(from, StateNeedsRevision) {
		return nil, sentinelWithMetadata(ErrInvalidListingTransition, map[string]any{
			"from": from,
			"to":   StateNeedsRevision,
		})
	}

	filled := note.withPlaceholders()
	if err := m.store.SetLifecycle(ctx, id, StateNeedsRevision, &filled, actor.Email()); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to reject listing")
	}

	rec.State = StateNeedsRevision
	rec.ModeratorEmail = actor.Email()
	rec.ApplyNote(filled)

	m.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventListingRejected,
		Actor:     ActorRef{ID: actor.Email(), Type: "moderator"},
		Email:     rec.SellerEmail,
		ListingID: id.String(),
		FromState: from,
		ToState:   StateNeedsRevision,
	})
	return rec, nil
}

// Purchase validates that the listing is purchasable at decision time.
// Requires a logged-in actor. The lifecycle check runs before anything is
// submitted to the backend; payment itself is outside this core.
func (m *Moderation) Purchase(ctx context.Context, id uuid.UUID) (*ListingRecord, error) {
	if id == uuid.Nil {
		return nil, ErrMissingListingID
	}

	actor := m.sessions.Snapshot()
	if decision := m.engine.Decide(AccessRequest{
		Actor:      actor,
		Capability: CapabilityAuthenticatedOnly,
	}); !decision.Allowed {
		return nil, deniedError(decision)
	}

	rec, err := m.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	if rec.State != StateListed {
		return nil, sentinelWithMetadata(ErrListingNotPurchasable, map[string]any{
			"state": rec.State,
		})
	}

	m.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventListingPurchase,
		Actor:     ActorRef{ID: actor.Email(), Type: "user"},
		Email:     actor.Email(),
		ListingID: id.String(),
		FromState: rec.State,
		ToState:   rec.State,
	})
	return rec, nil
}

// ToggleDisplay flips the display flag, independent of lifecycle state.
// Requires ownership or the Admin role.
func (m *Moderation) ToggleDisplay(ctx context.Context, id uuid.UUID) (*ListingRecord, error) {
	if id == uuid.Nil {
		return nil, ErrMissingListingID
	}

	actor := m.sessions.Snapshot()
	rec, err := m.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	if decision := m.engine.Decide(AccessRequest{
		Actor:      actor,
		Capability: CapabilityOwnerOrAdmin,
		Resource:   &ResourceRef{OwnerEmail: rec.SellerEmail, Lifecycle: rec.State},
	}); !decision.Allowed {
		return nil, deniedError(decision)
	}

	next := !rec.Displayable
	if err := m.store.SetDisplayable(ctx, id, next); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to toggle listing display")
	}
	rec.Displayable = next

	m.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventDisplayToggled,
		Actor:     ActorRef{ID: actor.Email(), Type: "user"},
		Email:     rec.SellerEmail,
		ListingID: id.String(),
		Metadata:  map[string]any{"displayable": next},
	})
	return rec, nil
}

// AuthorizeEdit evaluates owner-or-admin access to a listing's content. A
// failed lookup denies with the safe default route; it never errors past
// this boundary. A nil id denies immediately without a lookup.
func (m *Moderation) AuthorizeEdit(ctx context.Context, id uuid.UUID) Decision {
	if id == uuid.Nil {
		return DenyTo(m.engine.FallbackRoute())
	}

	actor := m.sessions.Snapshot()

	// Admins skip the lookup entirely; the decision cannot change.
	if admin := m.engine.Decide(AccessRequest{
		Actor:      actor,
		Capability: CapabilityAdminOnly,
	}); admin.Allowed {
		return Allow()
	}

	rec, err := m.lookup(ctx, id)
	if err != nil {
		m.logger.Info("edit authorization lookup failed, denying: %v", err)
		return DenyTo(m.engine.FallbackRoute())
	}

	return m.engine.Decide(AccessRequest{
		Actor:      actor,
		Capability: CapabilityOwnerOrAdmin,
		Resource:   &ResourceRef{OwnerEmail: rec.SellerEmail, Lifecycle: rec.State},
	})
}

// lookup fetches a listing under the configured deadline.
func (m *Moderation) lookup(ctx context.Context, id uuid.UUID) (*ListingRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, m.lookupTimeout)
	defer cancel()

	rec, err := m.store.GetListing(ctx, id)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && richErr.TextCode == textCodeListingNotFound {
			return nil, err
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "listing lookup failed")
	}
	if rec == nil {
		return nil, ErrListingNotFound
	}
	rec.EnsureState()
	return rec, nil
}

func (m *Moderation) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.Actor == (ActorRef{}) {
		event.Actor = ActorRef{Type: "system"}
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = m.now()
	}
	if err := normalizeActivitySink(m.sink).Record(ctx, event); err != nil {
		m.logger.Warn("activity sink record error: %v", err)
	}
}
