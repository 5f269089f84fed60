// Package pkce generates the per-login secrets used in an OAuth 2.0 authorization code
// grant with Proof Key for Code Exchange, as described in RFC 7636:
//
// - https://datatracker.ietf.org/doc/html/rfc7636
//
// The code verifier is kept server-side for the duration of the login attempt; only its
// S256 challenge is sent to Kick in the authorization URL. When the user is redirected
// back to us, we present the verifier alongside the authorization code, proving that the
// party redeeming the code is the same party that initiated the login.
//
// The state value is an unrelated random token that Kick echoes back to our callback:
// it lets us reject callbacks that we did not initiate (CSRF).
package pkce
