// Package userauth implements the HTTP endpoints through which a user logs in to Kick
// with the OAuth authorization code flow, secured with PKCE and a state parameter, along
// with endpoints for obtaining an app access token, refreshing a user access token, and
// logging out.
//
// A login begins at GET /auth/login, which records a pending authorization and
// redirects the user to Kick. Kick then redirects the user back to GET /auth/callback,
// where the authorization code is exchanged for tokens that are kept in the user's
// token store.
package userauth
