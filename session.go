package anticair

import (
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Phase tracks provider initialization. It only moves forward:
// Uninitialized -> Initializing -> {Ready, Failed}. A Failed attempt may be
// retried; Ready may later re-enter logged-out without changing phase.
type Phase string

const (
	PhaseUninitialized Phase = "uninitialized"
	PhaseInitializing  Phase = "initializing"
	PhaseReady         Phase = "ready"
	PhaseFailed        Phase = "failed"
)

// defaultPhoneRegion is the region used to parse national phone numbers from
// the provider's free-form attribute.
const defaultPhoneRegion = "BE"

// Profile holds the materialized identity attributes of the logged-in user.
type Profile struct {
	Email       string
	FirstName   string
	LastName    string
	PhoneNumber string
	Balance     string
	Groups      []Role
}

// HasGroup reports membership in a realm group.
func (p *Profile) HasGroup(role Role) bool {
	if p == nil {
		return false
	}
	for _, g := range p.Groups {
		if g == role {
			return true
		}
	}
	return false
}

func (p *Profile) clone() *Profile {
	if p == nil {
		return nil
	}
	cp := *p
	if len(p.Groups) > 0 {
		cp.Groups = make([]Role, len(p.Groups))
		copy(cp.Groups, p.Groups)
	}
	return &cp
}

// Snapshot is a consistent copy of the identity session taken at decision
// time. Profile is present if and only if LoggedIn is true.
type Snapshot struct {
	Phase    Phase
	LoggedIn bool
	Profile  *Profile
}

// Email returns the profile email, or empty when logged out.
func (s Snapshot) Email() string {
	if s.Profile == nil {
		return ""
	}
	return s.Profile.Email
}

// HasGroup reports membership in a realm group.
func (s Snapshot) HasGroup(role Role) bool {
	return s.Profile.HasGroup(role)
}

// IsAdmin reports whether the actor is logged in and in the Admin group.
func (s Snapshot) IsAdmin() bool {
	return s.LoggedIn && s.HasGroup(RoleAdmin)
}

func (s Snapshot) String() string {
	return fmt.Sprintf("phase=%s loggedIn=%t email=%s", s.Phase, s.LoggedIn, s.Email())
}

// buildProfile materializes a Profile from the raw provider payload. It takes
// the first element of multi-valued attributes, normalizes the phone number
// when parseable, and joins the group claim preserving order.
func buildProfile(raw *ProviderProfile) (*Profile, error) {
	if raw == nil || raw.Email == "" {
		return nil, ErrProfileUnavailable
	}

	return &Profile{
		Email:       raw.Email,
		FirstName:   raw.FirstName,
		LastName:    raw.LastName,
		PhoneNumber: normalizePhone(firstAttribute(raw.Attributes, "phoneNumber")),
		Balance:     firstAttribute(raw.Attributes, "balance"),
		Groups:      joinGroups(raw.GroupClaim),
	}, nil
}

// firstAttribute returns the first element of a multi-valued attribute, or
// empty when absent.
func firstAttribute(attrs map[string][]string, key string) string {
	if attrs == nil {
		return ""
	}
	values := attrs[key]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// normalizePhone formats the phone attribute as E.164 when it parses; the raw
// value is kept otherwise so a sloppy provider attribute never blocks login.
func normalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	parsed, err := phonenumbers.Parse(raw, defaultPhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return raw
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}

// joinGroups maps the group claim to roles, preserving order and dropping
// duplicates. Unknown claims are kept verbatim; the decision engine only
// matches on the closed role set.
func joinGroups(claim []string) []Role {
	if len(claim) == 0 {
		return nil
	}
	seen := make(map[Role]struct{}, len(claim))
	groups := make([]Role, 0, len(claim))
	for _, g := range claim {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		role := Role(g)
		if _, dup := seen[role]; dup {
			continue
		}
		seen[role] = struct{}{}
		groups = append(groups, role)
	}
	return groups
}
