// Package oauth is our single client for Kick's OAuth 2.0 server (id.kick.com). Every
// entry point that needs to talk to the token or revocation endpoints goes through the
// Client interface declared here, so that the details of each grant live in one place:
//
// - authorization_code (with PKCE), used when a user logs in via /auth/login
// - client_credentials, used to obtain an app access token with no user context
// - refresh_token, used by the refresh gate before a stored token expires
//
// Token requests are form-encoded, with our client ID and secret carried in the request
// body rather than in an Authorization header. Nothing is retried: a failed request is
// reported to the caller, wrapped in one of the sentinel errors in errors.go so that the
// caller can tell which step failed.
package oauth
