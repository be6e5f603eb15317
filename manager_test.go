package anticair_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	anticair "github.com/ZarzyckiAlexis/AnticairApp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testConfig(timeout time.Duration) *anticair.SessionConfig {
	cfg := anticair.DefaultSessionConfig()
	cfg.ProviderURL = "https://id.example.com"
	cfg.Realm = "anticair"
	cfg.ClientID = "web-client"
	cfg.InitTimeout = timeout
	return cfg
}

func readyProfile(email string, groups ...string) *anticair.ProviderProfile {
	return &anticair.ProviderProfile{
		Email:     email,
		FirstName: "Alexis",
		LastName:  "Zarzycki",
		Attributes: map[string][]string{
			"phoneNumber": {"+32470123456", "ignored"},
			"balance":     {"125.50"},
		},
		GroupClaim: groups,
	}
}

func TestInitializeHappyPath(t *testing.T) {
	provider := &MockIdentityProvider{}
	cfg := testConfig(time.Second)

	provider.On("InitSession", mock.Anything, cfg).Return(nil)
	provider.On("IsActive", mock.Anything).Return(true, nil)
	provider.On("LoadProfile", mock.Anything).Return(readyProfile("alexis@example.com", "Antiquarian"), nil)
	provider.On("BearerToken", mock.Anything).Return("token-1", nil)

	manager := anticair.NewSessionManager(provider, cfg)

	err := manager.Initialize(context.Background())
	require.NoError(t, err)

	snap := manager.Snapshot()
	assert.Equal(t, anticair.PhaseReady, snap.Phase)
	assert.True(t, snap.LoggedIn)
	require.NotNil(t, snap.Profile)
	assert.Equal(t, "alexis@example.com", snap.Profile.Email)
	assert.Equal(t, "+32470123456", snap.Profile.PhoneNumber)
	assert.Equal(t, "125.50", snap.Profile.Balance)
	assert.True(t, snap.HasGroup(anticair.RoleAntiquarian))
}

func TestInitializeTimeoutMarksFailedAndRetries(t *testing.T) {
	provider := &MockIdentityProvider{}
	cfg := testConfig(20 * time.Millisecond)

	release := make(chan struct{})
	var calls int
	var mu sync.Mutex

	provider.On("InitSession", mock.Anything, cfg).Return(nil).Run(func(args mock.Arguments) {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			<-release
		}
	})
	provider.On("IsActive", mock.Anything).Return(false, nil)

	manager := anticair.NewSessionManager(provider, cfg)

	err := manager.Initialize(context.Background())
	require.Error(t, err)
	assert.True(t, anticair.IsInitTimeout(err))

	snap := manager.Snapshot()
	assert.Equal(t, anticair.PhaseFailed, snap.Phase)
	assert.False(t, snap.LoggedIn)

	// the abandoned handshake settles after the race; it must stay inert
	close(release)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, anticair.PhaseFailed, manager.Snapshot().Phase)

	// a failed attempt may be retried
	err = manager.Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, anticair.PhaseReady, manager.Snapshot().Phase)
}

func TestInitializeConcurrentCallersShareOneHandshake(t *testing.T) {
	provider := &MockIdentityProvider{}
	cfg := testConfig(time.Second)

	var handshakes int
	var mu sync.Mutex
	provider.On("InitSession", mock.Anything, cfg).Return(nil).Run(func(mock.Arguments) {
		mu.Lock()
		handshakes++
		mu.Unlock()
		time.Sleep(30 * time.Millisecond)
	})
	provider.On("IsActive", mock.Anything).Return(false, nil)

	manager := anticair.NewSessionManager(provider, cfg)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = manager.Initialize(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	mu.Lock()
	assert.Equal(t, 1, handshakes)
	mu.Unlock()
}

func TestInitializeReadyIsIdempotent(t *testing.T) {
	provider := &MockIdentityProvider{}
	cfg := testConfig(time.Second)

	provider.On("InitSession", mock.Anything, cfg).Return(nil).Once()
	provider.On("IsActive", mock.Anything).Return(false, nil)

	manager := anticair.NewSessionManager(provider, cfg)

	require.NoError(t, manager.Initialize(context.Background()))
	require.NoError(t, manager.Initialize(context.Background()))
	provider.AssertNumberOfCalls(t, "InitSession", 1)
}

func TestLoginAfterInitFailureForcesLoggedOut(t *testing.T) {
	provider := &MockIdentityProvider{}
	cfg := testConfig(time.Second)
	sink := &recordingSink{}

	provider.On("InitSession", mock.Anything, cfg).Return(errors.New("realm unreachable"))

	manager := anticair.NewSessionManager(provider, cfg).WithActivitySink(sink)

	err := manager.Login(context.Background())
	require.Error(t, err)

	snap := manager.Snapshot()
	assert.False(t, snap.LoggedIn)
	assert.Nil(t, snap.Profile)
	provider.AssertNotCalled(t, "InteractiveLogin", mock.Anything)

	var sawFailure bool
	for _, event := range sink.Events() {
		if event.EventType == anticair.ActivityEventLoginFailure {
			sawFailure = true
		}
	}
	assert.True(t, sawFailure)
}

func TestLoginRunsBootstrap(t *testing.T) {
	provider := &MockIdentityProvider{}
	claimer := &MockAdminClaimer{}
	cfg := testConfig(time.Second)

	provider.On("InitSession", mock.Anything, cfg).Return(nil)
	provider.On("InteractiveLogin", mock.Anything).Return(nil)
	provider.On("IsActive", mock.Anything).Return(true, nil)
	provider.On("LoadProfile", mock.Anything).Return(readyProfile("first@example.com"), nil)
	provider.On("BearerToken", mock.Anything).Return("token-1", nil)
	claimer.On("Claim", mock.Anything, mock.Anything, "token-1").Return(nil)

	manager := anticair.NewSessionManager(provider, cfg).WithAdminClaimer(claimer)

	require.NoError(t, manager.Login(context.Background()))
	claimer.AssertNumberOfCalls(t, "Claim", 1)
}

func TestLoginBootstrapFailureDoesNotBlockLogin(t *testing.T) {
	provider := &MockIdentityProvider{}
	claimer := &MockAdminClaimer{}
	cfg := testConfig(time.Second)

	provider.On("InitSession", mock.Anything, cfg).Return(nil)
	provider.On("InteractiveLogin", mock.Anything).Return(nil)
	provider.On("IsActive", mock.Anything).Return(true, nil)
	provider.On("LoadProfile", mock.Anything).Return(readyProfile("first@example.com"), nil)
	provider.On("BearerToken", mock.Anything).Return("token-1", nil)
	claimer.On("Claim", mock.Anything, mock.Anything, "token-1").Return(errors.New("realm admin api down"))

	manager := anticair.NewSessionManager(provider, cfg).WithAdminClaimer(claimer)

	require.NoError(t, manager.Login(context.Background()))
	assert.True(t, manager.Snapshot().LoggedIn)
}

func TestLogoutWithoutSession(t *testing.T) {
	provider := &MockIdentityProvider{}
	manager := anticair.NewSessionManager(provider, testConfig(time.Second))

	err := manager.Logout(context.Background())
	assert.ErrorIs(t, err, anticair.ErrNoActiveSession)
	provider.AssertNotCalled(t, "InteractiveLogout", mock.Anything)
}

func TestLogoutClearsProfileEvenWhenProviderFails(t *testing.T) {
	provider := &MockIdentityProvider{}
	cfg := testConfig(time.Second)

	provider.On("InitSession", mock.Anything, cfg).Return(nil)
	provider.On("IsActive", mock.Anything).Return(true, nil)
	provider.On("LoadProfile", mock.Anything).Return(readyProfile("alexis@example.com"), nil)
	provider.On("BearerToken", mock.Anything).Return("token-1", nil)
	provider.On("InteractiveLogout", mock.Anything).Return(errors.New("realm unreachable"))

	manager := anticair.NewSessionManager(provider, cfg)
	require.NoError(t, manager.Initialize(context.Background()))
	require.True(t, manager.Snapshot().LoggedIn)

	err := manager.Logout(context.Background())
	assert.Error(t, err)
	assert.False(t, manager.Snapshot().LoggedIn)
}

func TestFeedObservesLoginTransitions(t *testing.T) {
	provider := &MockIdentityProvider{}
	cfg := testConfig(time.Second)

	provider.On("InitSession", mock.Anything, cfg).Return(nil)
	provider.On("IsActive", mock.Anything).Return(true, nil)
	provider.On("LoadProfile", mock.Anything).Return(readyProfile("alexis@example.com"), nil)
	provider.On("BearerToken", mock.Anything).Return("token-1", nil)
	provider.On("InteractiveLogout", mock.Anything).Return(nil)

	manager := anticair.NewSessionManager(provider, cfg)

	feed, cancel := manager.Feed().Subscribe()
	defer cancel()

	assert.False(t, <-feed) // replayed current value

	require.NoError(t, manager.Initialize(context.Background()))
	assert.True(t, <-feed)

	require.NoError(t, manager.Logout(context.Background()))
	assert.False(t, <-feed)
}
