// Package proxy exposes a few read-only Kick API endpoints under /api, relaying the
// upstream JSON as-is. Callers may present their own token as a bearer token; otherwise
// the token stored for their session is used, refreshing it first if needed.
package proxy
