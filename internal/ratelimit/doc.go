// Package ratelimit throttles requests per client IP address, to keep a single client
// from hammering the endpoints that start a login or mint tokens on our behalf.
package ratelimit
