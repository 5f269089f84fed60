package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-limiter"
	"github.com/sethvargo/go-limiter/httplimit"
	"github.com/sethvargo/go-limiter/memorystore"
)

// DefaultRequestsPerMinute is the default number of requests each client may make to a
// rate-limited endpoint in any one-minute interval
const DefaultRequestsPerMinute = 20

// NewStore returns an in-memory store allowing each key the given number of requests
// per minute
func NewStore(requestsPerMinute uint64) (limiter.Store, error) {
	return memorystore.New(&memorystore.Config{
		Tokens:   requestsPerMinute,
		Interval: time.Minute,
	})
}

// NewMiddleware returns a middleware that rejects requests with 429 once the client
// identified by ClientIP has exhausted its tokens in store. Responses carry the
// X-RateLimit-* headers, along with Retry-After when rejected.
func NewMiddleware(store limiter.Store) (func(http.Handler) http.Handler, error) {
	m, err := httplimit.NewMiddleware(store, keyByClientIP)
	if err != nil {
		return nil, err
	}
	return m.Handle, nil
}

// ClientIP identifies the client that originated a request: the first address listed
// in X-Forwarded-For if present, otherwise the remote address of the connection
func ClientIP(req *http.Request) string {
	if forwarded := req.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}

func keyByClientIP(req *http.Request) (string, error) {
	return ClientIP(req), nil
}
