package anticair

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// DefaultInitTimeout bounds the provider handshake race.
const DefaultInitTimeout = 5 * time.Second

// SessionConfig is the concrete Config implementation.
type SessionConfig struct {
	ProviderURL          string        `json:"provider_url"`
	Realm                string        `json:"realm"`
	ClientID             string        `json:"client_id"`
	InitTimeout          time.Duration `json:"init_timeout"`
	HomeRoute            string        `json:"home_route"`
	RejectedRouteDefault string        `json:"rejected_route_default"`
}

var _ Config = (*SessionConfig)(nil)

// DefaultSessionConfig mirrors the route layout of the web client: denials
// land on /home, failed resource checks on the root.
func DefaultSessionConfig() *SessionConfig {
	return &SessionConfig{
		InitTimeout:          DefaultInitTimeout,
		HomeRoute:            "/home",
		RejectedRouteDefault: "/",
	}
}

// Validate checks the provider coordinates.
func (c SessionConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ProviderURL, validation.Required, is.URL),
		validation.Field(&c.Realm, validation.Required),
		validation.Field(&c.ClientID, validation.Required),
	)
}

func (c *SessionConfig) GetProviderURL() string { return c.ProviderURL }

func (c *SessionConfig) GetRealm() string { return c.Realm }

func (c *SessionConfig) GetClientID() string { return c.ClientID }

func (c *SessionConfig) GetInitTimeout() time.Duration {
	if c.InitTimeout <= 0 {
		return DefaultInitTimeout
	}
	return c.InitTimeout
}

func (c *SessionConfig) GetHomeRoute() string {
	if c.HomeRoute == "" {
		return "/home"
	}
	return c.HomeRoute
}

func (c *SessionConfig) GetRejectedRouteDefault() string {
	if c.RejectedRouteDefault == "" {
		return "/"
	}
	return c.RejectedRouteDefault
}
