package activitymap_test

import (
	"testing"
	"time"

	anticair "github.com/ZarzyckiAlexis/AnticairApp"
	"github.com/ZarzyckiAlexis/AnticairApp/activitymap"
)

func TestNormalizeDefaults(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 2, 3, 9, 30, 0, 0, time.UTC)
	event := anticair.ActivityEvent{
		EventType: anticair.ActivityEventListingRejected,
		Actor:     anticair.ActorRef{ID: "mod@example.com", Type: "moderator"},
		Email:     "seller@example.com",
		ListingID: "listing-100",
		FromState: anticair.StatePendingReview,
		ToState:   anticair.StateNeedsRevision,
		Metadata: map[string]any{
			"ticket": "MOD-204",
		},
		OccurredAt: ts,
	}

	out := activitymap.Normalize(event)

	if out.ActorID != "mod@example.com" {
		t.Fatalf("expected actor_id mod@example.com, got %q", out.ActorID)
	}
	if out.Verb != string(anticair.ActivityEventListingRejected) {
		t.Fatalf("expected verb %q, got %q", anticair.ActivityEventListingRejected, out.Verb)
	}
	if out.ObjectType != "listing" {
		t.Fatalf("expected object_type listing, got %q", out.ObjectType)
	}
	if out.ObjectID != "listing-100" {
		t.Fatalf("expected object_id listing-100, got %q", out.ObjectID)
	}
	if out.Channel != "anticair" {
		t.Fatalf("expected channel anticair, got %q", out.Channel)
	}
	if !out.OccurredAt.Equal(ts) {
		t.Fatalf("expected occurred_at %v, got %v", ts, out.OccurredAt)
	}

	if out.Metadata["ticket"] != "MOD-204" {
		t.Fatalf("expected metadata ticket MOD-204, got %#v", out.Metadata["ticket"])
	}
	if out.Metadata[activitymap.MetadataKeyActorType] != "moderator" {
		t.Fatalf("expected metadata actor_type moderator, got %#v", out.Metadata[activitymap.MetadataKeyActorType])
	}
	if out.Metadata[activitymap.MetadataKeyFromState] != string(anticair.StatePendingReview) {
		t.Fatalf("expected metadata from_state pending_review, got %#v", out.Metadata[activitymap.MetadataKeyFromState])
	}
	if out.Metadata[activitymap.MetadataKeyToState] != string(anticair.StateNeedsRevision) {
		t.Fatalf("expected metadata to_state needs_revision, got %#v", out.Metadata[activitymap.MetadataKeyToState])
	}

	if len(event.Metadata) != 1 {
		t.Fatalf("expected source metadata to remain unchanged, got %+v", event.Metadata)
	}
}

func TestNormalizeOptionOverrides(t *testing.T) {
	t.Parallel()

	event := anticair.ActivityEvent{
		EventType: anticair.ActivityEventAdminBootstrap,
		Actor:     anticair.ActorRef{Type: "user"},
		Email:     "first@example.com",
		Metadata: map[string]any{
			"realm":                          "anticair",
			activitymap.MetadataKeyActorType: "existing",
		},
	}

	out := activitymap.Normalize(
		event,
		activitymap.WithDefaultChannel("security"),
		activitymap.WithDefaultObjectType("account"),
		activitymap.WithObjectIDResolver(func(e anticair.ActivityEvent) string {
			return e.Email
		}),
	)

	if out.Channel != "security" {
		t.Fatalf("expected channel security, got %q", out.Channel)
	}
	if out.ObjectType != "account" {
		t.Fatalf("expected object_type account, got %q", out.ObjectType)
	}
	if out.ObjectID != "first@example.com" {
		t.Fatalf("expected object_id first@example.com, got %q", out.ObjectID)
	}
	if out.Metadata[activitymap.MetadataKeyActorType] != "existing" {
		t.Fatalf("expected existing actor_type preserved, got %#v", out.Metadata[activitymap.MetadataKeyActorType])
	}
	if out.OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be set when input is zero")
	}
}

func TestNormalizeActorFallbackChain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		event  anticair.ActivityEvent
		opts   []activitymap.Option
		expect string
	}{
		{
			name:   "uses actor id when present",
			event:  anticair.ActivityEvent{Actor: anticair.ActorRef{ID: "actor-1"}, Email: "a@example.com"},
			expect: "actor-1",
		},
		{
			name:   "uses email when actor id missing",
			event:  anticair.ActivityEvent{Actor: anticair.ActorRef{ID: ""}, Email: "a@example.com"},
			expect: "a@example.com",
		},
		{
			name:   "uses default fallback when actor and email missing",
			event:  anticair.ActivityEvent{},
			expect: "system",
		},
		{
			name:   "uses configured fallback when actor and email missing",
			event:  anticair.ActivityEvent{},
			opts:   []activitymap.Option{activitymap.WithActorFallback("job")},
			expect: "job",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			out := activitymap.Normalize(tc.event, tc.opts...)
			if out.ActorID != tc.expect {
				t.Fatalf("expected actor_id %q, got %q", tc.expect, out.ActorID)
			}
		})
	}
}
