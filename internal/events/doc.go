// Package events announces changes in a user's authentication state to other services:
// when a user completes the login flow, when a stored token is refreshed, and when a
// token is revoked on logout. Events are published as JSON to a fanout exchange; when no
// message broker is configured, a NopPublisher discards them.
package events
