// Package anticair implements the session and authorization core of the
// Anticair marketplace: identity-session management against an external
// identity provider, first-user admin bootstrap, route authorization
// decisions, and the listing moderation lifecycle.
//
// Session management:
//   - SessionManager owns the process identity session. Initialize races the
//     provider handshake against a configurable timer; the losing branch is
//     guarded so it can never mutate session state after the race is decided.
//     Login and logout keep the profile and the logged-in flag consistent: a
//     subscriber never observes loggedIn=true with a partial profile.
//   - LoginFeed is a replay-latest broadcast of the logged-in flag. New
//     subscribers immediately receive the current value and then every
//     transition, in order.
//
// Authorization:
//   - DecisionEngine is a pure function of (actor snapshot, resource,
//     capability) to an Allow/Deny decision carrying a redirect target.
//     Denials are ordinary values, never errors. RouteGuard adapts decisions
//     to go-router middleware.
//
// Listing lifecycle:
//   - Listings move through pending review, listed, and needs-revision states.
//     Moderation centralizes the transition table, the review-note
//     validation, and the role gates, and records audit events through
//     ActivitySink. Sinks run best-effort so auditing never blocks a
//     moderation decision.
package anticair
