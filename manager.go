package anticair

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// SessionManager owns the process identity session. It is the single writer;
// readers observe it through Snapshot and the LoginFeed. No lock is held
// across a provider call.
type SessionManager struct {
	mu      sync.Mutex
	phase   Phase
	profile *Profile

	initDone chan struct{}
	initErr  error

	provider IdentityProvider
	cfg      Config
	claimer  AdminClaimer
	feed     *LoginFeed
	logger   Logger
	sink     ActivitySink
}

var _ SnapshotSource = (*SessionManager)(nil)

// NewSessionManager returns a manager in the Uninitialized phase.
func NewSessionManager(provider IdentityProvider, cfg Config) *SessionManager {
	return &SessionManager{
		phase:    PhaseUninitialized,
		provider: provider,
		cfg:      cfg,
		claimer:  noopAdminClaimer{},
		feed:     NewLoginFeed(),
		logger:   defLogger{},
		sink:     noopActivitySink{},
	}
}

func (m *SessionManager) WithLogger(logger Logger) *SessionManager {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// WithActivitySink configures an ActivitySink for session events.
func (m *SessionManager) WithActivitySink(sink ActivitySink) *SessionManager {
	m.sink = normalizeActivitySink(sink)
	return m
}

// WithAdminClaimer configures the first-user bootstrap run after each
// successful profile materialization.
func (m *SessionManager) WithAdminClaimer(claimer AdminClaimer) *SessionManager {
	if claimer != nil {
		m.claimer = claimer
	}
	return m
}

// Feed exposes the logged-in observable.
func (m *SessionManager) Feed() *LoginFeed {
	return m.feed
}

// Snapshot returns a consistent copy of the session for decision making.
func (m *SessionManager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Phase:    m.phase,
		LoggedIn: m.profile != nil,
		Profile:  m.profile.clone(),
	}
}

// Initialize performs the provider handshake under the configured time
// budget. It is idempotent: a Ready session returns immediately, a
// concurrent attempt is joined rather than re-run, and a Failed attempt may
// be retried. Exactly one handshake/timer race runs per attempt.
func (m *SessionManager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	switch m.phase {
	case PhaseReady:
		m.mu.Unlock()
		return nil
	case PhaseInitializing:
		done := m.initDone
		m.mu.Unlock()
		return m.joinAttempt(ctx, done)
	}

	m.phase = PhaseInitializing
	done := make(chan struct{})
	m.initDone = done
	m.mu.Unlock()

	err := m.runHandshake(ctx)

	m.mu.Lock()
	if err != nil {
		m.phase = PhaseFailed
		m.profile = nil
	} else {
		m.phase = PhaseReady
	}
	m.initErr = err
	close(done)
	m.mu.Unlock()

	if err != nil {
		m.logger.Error("session initialization failed: %v", err)
		m.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventInitFailure,
			Metadata:  map[string]any{"error": err.Error(), "timeout": IsInitTimeout(err)},
		})
		m.feed.Publish(false)
		return err
	}

	if err := m.materializeProfile(ctx); err != nil {
		m.logger.Error("profile materialization failed: %v", err)
		m.feed.Publish(false)
		return err
	}
	return nil
}

// joinAttempt waits for an in-flight initialization and returns its outcome.
// A caller that goes away simply stops waiting; the attempt itself keeps
// running and its result is stored for the next caller.
func (m *SessionManager) joinAttempt(ctx context.Context, done chan struct{}) error {
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initErr
}

// runHandshake races the provider handshake against the init timer. The
// decided flag keeps the losing branch inert: once the race settles, the
// other branch's eventual resolution is discarded without touching state.
func (m *SessionManager) runHandshake(ctx context.Context) error {
	timeout := DefaultInitTimeout
	if m.cfg != nil && m.cfg.GetInitTimeout() > 0 {
		timeout = m.cfg.GetInitTimeout()
	}

	var decided atomic.Bool
	result := make(chan error, 1)
	go func() {
		err := m.provider.InitSession(ctx, m.cfg)
		if decided.CompareAndSwap(false, true) {
			result <- err
		} else if err != nil {
			m.logger.Debug("abandoned provider handshake settled late: %v", err)
		}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-result:
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryOperation, "identity provider handshake failed").
				WithTextCode(textCodeProviderUnavailable)
		}
		return nil
	case <-timer.C:
		decided.CompareAndSwap(false, true)
		return ErrInitTimeout
	case <-ctx.Done():
		decided.CompareAndSwap(false, true)
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "session initialization cancelled")
	}
}

// Login initializes the provider if needed, runs the interactive login, and
// re-materializes the profile. On initialization failure the session is
// forced logged-out and no interactive login is attempted.
func (m *SessionManager) Login(ctx context.Context) error {
	if err := m.Initialize(ctx); err != nil {
		m.setLoggedOut()
		m.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventLoginFailure,
			Actor:     ActorRef{Type: "unknown"},
			Metadata:  map[string]any{"error": err.Error()},
		})
		return goerrors.Wrap(err, goerrors.CategoryOperation, "cannot login: provider failed to initialize")
	}

	if err := m.provider.InteractiveLogin(ctx); err != nil {
		m.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventLoginFailure,
			Actor:     ActorRef{Type: "unknown"},
			Metadata:  map[string]any{"error": err.Error()},
		})
		return goerrors.Wrap(err, goerrors.CategoryAuth, "interactive login failed")
	}

	if err := m.materializeProfile(ctx); err != nil {
		m.feed.Publish(false)
		return err
	}

	snapshot := m.Snapshot()
	m.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		Actor:     ActorRef{ID: snapshot.Email(), Type: "user"},
		Email:     snapshot.Email(),
	})
	return nil
}

// Logout clears the profile and notifies the provider. Logging out with no
// active profile is a no-op surfaced as a recoverable error; session state
// is left untouched.
func (m *SessionManager) Logout(ctx context.Context) error {
	m.mu.Lock()
	if m.profile == nil {
		m.mu.Unlock()
		m.logger.Warn("logout requested with no active session")
		return ErrNoActiveSession
	}
	email := m.profile.Email
	m.profile = nil
	m.mu.Unlock()

	var logoutErr error
	if err := m.provider.InteractiveLogout(ctx); err != nil {
		// The local session is already cleared; report the provider failure
		// without resurrecting the profile.
		m.logger.Error("provider logout failed: %v", err)
		logoutErr = goerrors.Wrap(err, goerrors.CategoryOperation, "provider logout failed")
	}

	m.feed.Publish(false)
	m.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventLogout,
		Actor:     ActorRef{ID: email, Type: "user"},
		Email:     email,
	})
	return logoutErr
}

// Token forwards to the provider's current bearer token. Callable at any
// phase; refresh is the provider's concern.
func (m *SessionManager) Token(ctx context.Context) (string, error) {
	return m.provider.BearerToken(ctx)
}

// materializeProfile loads attributes and the group claim from an active
// provider session, installs profile and logged-in flag together, and then
// runs the admin bootstrap. Observers never see loggedIn=true with a stale
// or partial profile.
func (m *SessionManager) materializeProfile(ctx context.Context) error {
	active, err := m.provider.IsActive(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "provider session check failed").
			WithTextCode(textCodeProviderUnavailable)
	}
	if !active {
		m.feed.Publish(false)
		return nil
	}

	raw, err := m.provider.LoadProfile(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to load provider profile").
			WithTextCode(textCodeProviderUnavailable)
	}

	profile, err := buildProfile(raw)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "provider profile is unusable")
	}

	m.mu.Lock()
	m.profile = profile
	m.mu.Unlock()
	m.feed.Publish(true)

	m.runBootstrap(ctx, profile)
	return nil
}

// runBootstrap is best-effort: failures are logged and never block login.
func (m *SessionManager) runBootstrap(ctx context.Context, profile *Profile) {
	token, err := m.provider.BearerToken(ctx)
	if err != nil {
		m.logger.Warn("admin bootstrap skipped, no bearer token: %v", err)
		return
	}
	if err := m.claimer.Claim(ctx, profile, token); err != nil {
		m.logger.Warn("admin bootstrap failed: %v", err)
	}
}

func (m *SessionManager) setLoggedOut() {
	m.mu.Lock()
	m.profile = nil
	m.mu.Unlock()
	m.feed.Publish(false)
}

func (m *SessionManager) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.Actor == (ActorRef{}) {
		event.Actor = ActorRef{Type: "system"}
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if err := normalizeActivitySink(m.sink).Record(ctx, event); err != nil {
		m.logger.Warn("activity sink record error: %v", err)
	}
}
