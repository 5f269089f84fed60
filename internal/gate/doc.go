// Package gate decides whether a stored access token can be used as-is, must be
// refreshed first, or can no longer be used at all, in which case the user must log in
// again.
//
// A token is refreshed once it comes within a fixed buffer of its expiry time, or
// whenever its expiry time is unknown. Refreshes happen synchronously, in-line with the
// request that needs the token.
package gate
