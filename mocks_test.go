package anticair_test

import (
	"context"
	"sync"

	anticair "github.com/ZarzyckiAlexis/AnticairApp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockIdentityProvider implements anticair.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) InitSession(ctx context.Context, cfg anticair.Config) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

func (m *MockIdentityProvider) IsActive(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdentityProvider) LoadProfile(ctx context.Context) (*anticair.ProviderProfile, error) {
	args := m.Called(ctx)
	profile, _ := args.Get(0).(*anticair.ProviderProfile)
	return profile, args.Error(1)
}

func (m *MockIdentityProvider) BearerToken(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockIdentityProvider) InteractiveLogin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockIdentityProvider) InteractiveLogout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockUserCounter implements anticair.UserCounter
type MockUserCounter struct {
	mock.Mock
}

func (m *MockUserCounter) CountUsers(ctx context.Context, token string) (int, error) {
	args := m.Called(ctx, token)
	return args.Int(0), args.Error(1)
}

// MockRoleDirectory implements anticair.RoleDirectory
type MockRoleDirectory struct {
	mock.Mock
}

func (m *MockRoleDirectory) GrantRole(ctx context.Context, email string, role anticair.Role) error {
	args := m.Called(ctx, email, role)
	return args.Error(0)
}

func (m *MockRoleDirectory) ListRoles(ctx context.Context) ([]anticair.Role, error) {
	args := m.Called(ctx)
	roles, _ := args.Get(0).([]anticair.Role)
	return roles, args.Error(1)
}

func (m *MockRoleDirectory) RolesOf(ctx context.Context, email string) ([]anticair.Role, error) {
	args := m.Called(ctx, email)
	roles, _ := args.Get(0).([]anticair.Role)
	return roles, args.Error(1)
}

// MockListingStore implements anticair.ListingStore
type MockListingStore struct {
	mock.Mock
}

func (m *MockListingStore) GetListing(ctx context.Context, id uuid.UUID) (*anticair.ListingRecord, error) {
	args := m.Called(ctx, id)
	record, _ := args.Get(0).(*anticair.ListingRecord)
	return record, args.Error(1)
}

func (m *MockListingStore) SetLifecycle(ctx context.Context, id uuid.UUID, state anticair.LifecycleState, note *anticair.ReviewNote, moderatorEmail string) error {
	args := m.Called(ctx, id, state, note, moderatorEmail)
	return args.Error(0)
}

func (m *MockListingStore) SetDisplayable(ctx context.Context, id uuid.UUID, displayable bool) error {
	args := m.Called(ctx, id, displayable)
	return args.Error(0)
}

// MockAdminClaimer implements anticair.AdminClaimer
type MockAdminClaimer struct {
	mock.Mock
}

func (m *MockAdminClaimer) Claim(ctx context.Context, profile *anticair.Profile, token string) error {
	args := m.Called(ctx, profile, token)
	return args.Error(0)
}

// recordingSink captures activity events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []anticair.ActivityEvent
}

func (s *recordingSink) Record(ctx context.Context, event anticair.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) Events() []anticair.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]anticair.ActivityEvent, len(s.events))
	copy(out, s.events)
	return out
}

// staticSnapshots serves a fixed snapshot to the decision layer.
type staticSnapshots struct {
	snap anticair.Snapshot
}

func (s staticSnapshots) Snapshot() anticair.Snapshot {
	return s.snap
}

func loggedInSnapshot(email string, roles ...anticair.Role) anticair.Snapshot {
	return anticair.Snapshot{
		Phase:    anticair.PhaseReady,
		LoggedIn: true,
		Profile: &anticair.Profile{
			Email:  email,
			Groups: roles,
		},
	}
}

func loggedOutSnapshot() anticair.Snapshot {
	return anticair.Snapshot{Phase: anticair.PhaseReady, LoggedIn: false}
}
