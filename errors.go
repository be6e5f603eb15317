package anticair

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

// ErrNoActiveSession is returned by Logout when there is no profile to clear.
// It is recoverable; session state is left untouched.
var ErrNoActiveSession = errors.New("no active session")

// ErrProfileUnavailable signals a materialization attempt without a usable
// provider profile.
var ErrProfileUnavailable = errors.New("profile unavailable")

const (
	textCodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
	textCodeInitTimeout         = "SESSION_INIT_TIMEOUT"
	textCodeAccessDenied        = "ACCESS_DENIED"
	textCodeMissingListingID    = "MISSING_LISTING_ID"
	textCodeEmptyReviewNote     = "EMPTY_REVIEW_NOTE"
	textCodeListingNotFound     = "LISTING_NOT_FOUND"
	textCodeInvalidTransition   = "INVALID_LISTING_TRANSITION"
	textCodeNotPurchasable      = "LISTING_NOT_PURCHASABLE"
)

// ErrProviderUnavailable wraps transport failures talking to the identity
// provider. The session falls back to logged-out, never half-initialized.
var ErrProviderUnavailable = goerrors.New("identity provider unavailable", goerrors.CategoryOperation).
	WithTextCode(textCodeProviderUnavailable)

// ErrInitTimeout is returned when the provider handshake loses the race
// against the init timer. Distinguished from ErrProviderUnavailable for
// diagnostics only; callers treat both as a failed attempt.
var ErrInitTimeout = goerrors.New("identity provider initialization timed out", goerrors.CategoryOperation).
	WithTextCode(textCodeInitTimeout)

// ErrAccessDenied is the error form of a Deny decision for non-routing
// callers. The redirect target travels in the metadata; it is an expected
// outcome and is never logged as an error-level event.
var ErrAccessDenied = goerrors.New("access denied", goerrors.CategoryAuth).
	WithTextCode(textCodeAccessDenied).
	WithCode(goerrors.CodeUnauthorized)

// ErrMissingListingID is a local validation failure raised before any store
// call when a lifecycle operation has no target listing.
var ErrMissingListingID = goerrors.New("missing listing id", goerrors.CategoryValidation).
	WithTextCode(textCodeMissingListingID).
	WithCode(goerrors.CodeBadRequest)

// ErrEmptyReviewNote is raised when a rejection carries no feedback in any of
// the four review fields. Local validation; no collaborator is contacted.
var ErrEmptyReviewNote = goerrors.New("review note requires at least one populated field", goerrors.CategoryValidation).
	WithTextCode(textCodeEmptyReviewNote).
	WithCode(goerrors.CodeBadRequest)

// ErrListingNotFound is returned when the resource store has no record for
// the requested id.
var ErrListingNotFound = goerrors.New("listing not found", goerrors.CategoryNotFound).
	WithTextCode(textCodeListingNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrInvalidListingTransition is returned when a requested lifecycle change
// is not in the transition table.
var ErrInvalidListingTransition = goerrors.New("invalid listing lifecycle transition", goerrors.CategoryConflict).
	WithTextCode(textCodeInvalidTransition).
	WithCode(goerrors.CodeConflict)

// ErrListingNotPurchasable is signaled before any store call when a purchase
// targets a listing whose lifecycle state is not Listed.
var ErrListingNotPurchasable = goerrors.New("listing is not purchasable in its current state", goerrors.CategoryConflict).
	WithTextCode(textCodeNotPurchasable).
	WithCode(goerrors.CodeConflict)

// IsInitTimeout reports whether err carries the init-timeout text code.
func IsInitTimeout(err error) bool {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == textCodeInitTimeout
	}
	return false
}

// IsAccessDenied reports whether err represents an authorization denial.
func IsAccessDenied(err error) bool {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == textCodeAccessDenied
	}
	return false
}

// deniedError converts a Deny decision into ErrAccessDenied carrying the
// redirect target.
func deniedError(d Decision) error {
	return sentinelWithMetadata(ErrAccessDenied, map[string]any{"redirect": d.RedirectTo})
}

// sentinelWithMetadata attaches metadata to a copy of the sentinel. The
// shared value is never written through, so concurrent callers cannot race
// on its metadata map; Source keeps errors.Is matching the sentinel.
func sentinelWithMetadata(sentinel *goerrors.Error, metadata map[string]any) error {
	clone := sentinel.Clone()
	if clone == nil {
		return sentinel
	}
	clone.Source = sentinel
	return clone.WithMetadata(metadata)
}
