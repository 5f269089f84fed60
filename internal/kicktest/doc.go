// Package kicktest runs an in-process fake of the Kick endpoints we depend on, for use in
// tests: the OAuth authorize, token and revoke endpoints on id.kick.com, plus the handful
// of read-only REST API endpoints we proxy.
//
// The fake keeps just enough state to behave like the real thing in the ways we care
// about: authorization codes are bound to their PKCE challenge and can be redeemed once,
// refresh tokens are rotated on use, revoked tokens stop working, and API requests are
// rejected without a live bearer token. Every request is recorded so that tests can
// assert on exactly which calls were (or were not) made.
package kicktest
