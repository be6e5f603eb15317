// Package local implements an in-memory identity provider for development
// and tests. It speaks the same contracts the session core expects from the
// real identity service: session handshake, profile loading, bearer tokens,
// user counting, and role membership.
package local

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"golang.org/x/crypto/bcrypt"

	anticair "github.com/ZarzyckiAlexis/AnticairApp"
)

var (
	// ErrUnknownAccount is returned when no account matches the email.
	ErrUnknownAccount = goerrors.New("unknown account", goerrors.CategoryNotFound).
				WithTextCode("UNKNOWN_ACCOUNT").
				WithCode(goerrors.CodeNotFound)
	// ErrBadCredentials is returned when the password does not match.
	ErrBadCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
				WithTextCode("BAD_CREDENTIALS").
				WithCode(goerrors.CodeUnauthorized)
	// ErrNoStagedLogin is returned when InteractiveLogin runs without a
	// preceding Authenticate.
	ErrNoStagedLogin = goerrors.New("no staged login", goerrors.CategoryAuth).
				WithTextCode("NO_STAGED_LOGIN").
				WithCode(goerrors.CodeUnauthorized)
)

// Account is a realm identity with hashed credentials.
type Account struct {
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Attributes   map[string][]string
	Groups       []anticair.Role
}

// Provider is an in-memory realm. The zero value is not usable; construct
// with New.
type Provider struct {
	mu       sync.Mutex
	accounts map[string]*Account
	staged   string
	active   string

	signingKey []byte
	issuer     string
	tokenTTL   time.Duration

	// HandshakeDelay and HandshakeErr simulate slow or failing realms.
	HandshakeDelay time.Duration
	HandshakeErr   error
}

var (
	_ anticair.IdentityProvider = (*Provider)(nil)
	_ anticair.UserCounter      = (*Provider)(nil)
	_ anticair.RoleDirectory    = (*Provider)(nil)
)

type Option func(*Provider)

func New(opts ...Option) *Provider {
	p := &Provider{
		accounts:   map[string]*Account{},
		signingKey: []byte("local-dev-signing-key"),
		issuer:     "anticair-local",
		tokenTTL:   time.Hour,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

func WithSigningKey(key []byte) Option {
	return func(p *Provider) {
		if len(key) > 0 {
			p.signingKey = key
		}
	}
}

func WithIssuer(issuer string) Option {
	return func(p *Provider) {
		if issuer != "" {
			p.issuer = issuer
		}
	}
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(p *Provider) {
		if ttl > 0 {
			p.tokenTTL = ttl
		}
	}
}

// WithHandshake configures the simulated realm handshake.
func WithHandshake(delay time.Duration, err error) Option {
	return func(p *Provider) {
		p.HandshakeDelay = delay
		p.HandshakeErr = err
	}
}

// Register adds an account to the realm, hashing the password.
func (p *Provider) Register(email, password string, account Account) error {
	email = normalizeEmail(email)
	if email == "" {
		return goerrors.New("email is required", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	account.Email = email
	account.PasswordHash = string(hash)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.accounts[email] = &account
	return nil
}

// Authenticate validates credentials and stages the account for the next
// InteractiveLogin.
func (p *Provider) Authenticate(email, password string) error {
	email = normalizeEmail(email)

	p.mu.Lock()
	account, ok := p.accounts[email]
	p.mu.Unlock()
	if !ok {
		return ErrUnknownAccount
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return ErrBadCredentials
	}

	p.mu.Lock()
	p.staged = email
	p.mu.Unlock()
	return nil
}

// InitSession simulates the realm handshake, honoring the configured delay
// and failure.
func (p *Provider) InitSession(ctx context.Context, cfg anticair.Config) error {
	if p.HandshakeDelay > 0 {
		timer := time.NewTimer(p.HandshakeDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return p.HandshakeErr
}

func (p *Provider) IsActive(ctx context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active != "", nil
}

func (p *Provider) LoadProfile(ctx context.Context) (*anticair.ProviderProfile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	account, ok := p.accounts[p.active]
	if !ok {
		return nil, ErrUnknownAccount
	}

	groups := make([]string, len(account.Groups))
	for i, role := range account.Groups {
		groups[i] = string(role)
	}

	return &anticair.ProviderProfile{
		Email:      account.Email,
		FirstName:  account.FirstName,
		LastName:   account.LastName,
		Attributes: cloneAttributes(account.Attributes),
		GroupClaim: groups,
	}, nil
}

// BearerToken mints a short-lived HS256 token for the active account.
func (p *Provider) BearerToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	account, ok := p.accounts[p.active]
	p.mu.Unlock()
	if !ok {
		return "", ErrUnknownAccount
	}

	subject := account.Email
	if id, err := hashid.NewUUID(account.Email); err == nil {
		subject = id.String()
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    p.issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(p.tokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign token")
	}
	return signed, nil
}

// InteractiveLogin promotes the staged account to the active session.
func (p *Provider) InteractiveLogin(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.staged == "" {
		return ErrNoStagedLogin
	}
	p.active = p.staged
	p.staged = ""
	return nil
}

func (p *Provider) InteractiveLogout(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = ""
	return nil
}

// CountUsers reports the size of the realm. The token is accepted untouched;
// the local realm does not verify it.
func (p *Provider) CountUsers(ctx context.Context, token string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.accounts), nil
}

func (p *Provider) GrantRole(ctx context.Context, email string, role anticair.Role) error {
	email = normalizeEmail(email)

	p.mu.Lock()
	defer p.mu.Unlock()

	account, ok := p.accounts[email]
	if !ok {
		return ErrUnknownAccount
	}

	for _, existing := range account.Groups {
		if existing == role {
			return nil
		}
	}
	account.Groups = append(account.Groups, role)
	return nil
}

func (p *Provider) ListRoles(ctx context.Context) ([]anticair.Role, error) {
	return anticair.KnownRoles(), nil
}

func (p *Provider) RolesOf(ctx context.Context, email string) ([]anticair.Role, error) {
	email = normalizeEmail(email)

	p.mu.Lock()
	defer p.mu.Unlock()

	account, ok := p.accounts[email]
	if !ok {
		return nil, ErrUnknownAccount
	}

	roles := make([]anticair.Role, len(account.Groups))
	copy(roles, account.Groups)
	return roles, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func cloneAttributes(in map[string][]string) map[string][]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string][]string, len(in))
	for key, values := range in {
		copied := make([]string, len(values))
		copy(copied, values)
		out[key] = copied
	}
	return out
}
