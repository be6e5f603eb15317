package anticair

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// ProviderProfile is the raw attribute payload returned by the identity
// provider after a confirmed session. Multi-valued attributes keep the
// provider's ordering; callers take the first element.
type ProviderProfile struct {
	Email      string
	FirstName  string
	LastName   string
	Attributes map[string][]string
	GroupClaim []string
}

// IdentityProvider is the contract the session core requires from the
// external identity service. Tokens are opaque bearer strings owned by the
// provider, refresh included.
type IdentityProvider interface {
	InitSession(ctx context.Context, cfg Config) error
	IsActive(ctx context.Context) (bool, error)
	LoadProfile(ctx context.Context) (*ProviderProfile, error)
	BearerToken(ctx context.Context) (string, error)
	InteractiveLogin(ctx context.Context) error
	InteractiveLogout(ctx context.Context) error
}

// UserCounter reports how many identities the provider realm knows about.
type UserCounter interface {
	CountUsers(ctx context.Context, token string) (int, error)
}

// RoleDirectory manages role membership in the provider realm.
type RoleDirectory interface {
	GrantRole(ctx context.Context, email string, role Role) error
	ListRoles(ctx context.Context) ([]Role, error)
	RolesOf(ctx context.Context, email string) ([]Role, error)
}

// ListingStore is the backend resource store holding listing records.
type ListingStore interface {
	GetListing(ctx context.Context, id uuid.UUID) (*ListingRecord, error)
	SetLifecycle(ctx context.Context, id uuid.UUID, state LifecycleState, note *ReviewNote, moderatorEmail string) error
	SetDisplayable(ctx context.Context, id uuid.UUID, displayable bool) error
}

// SnapshotSource yields a consistent copy of the identity session for
// authorization decisions.
type SnapshotSource interface {
	Snapshot() Snapshot
}

// Config holds session core options
type Config interface {
	GetProviderURL() string
	GetRealm() string
	GetClientID() string
	GetInitTimeout() time.Duration
	GetHomeRoute() string
	GetRejectedRouteDefault() string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] ANTICAIR "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] ANTICAIR "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] ANTICAIR "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] ANTICAIR "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
