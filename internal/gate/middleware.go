package gate

import (
	"context"
	"errors"
	"net/http"

	"github.com/golden-vcr/server-common/entry"

	"github.com/golden-vcr/kickauth/internal/tokens"
)

// LoginPath is where RedirectToLogin sends users who need to authenticate
const LoginPath = "/auth/login"

type contextKey struct{}

// RecordFromContext returns the token record stored in the context by Require
func RecordFromContext(ctx context.Context) (tokens.Record, bool) {
	record, ok := ctx.Value(contextKey{}).(tokens.Record)
	return record, ok
}

// RedirectToLogin is the default response to a request that requires authentication
func RedirectToLogin(res http.ResponseWriter, req *http.Request) {
	http.Redirect(res, req, LoginPath, http.StatusFound)
}

// Require wraps next so that it's only called with a usable access token, which it can
// read via RecordFromContext. If no usable token can be obtained, deny is called
// instead; if deny is nil, RedirectToLogin is used. Stored tokens are only cleared when
// the user must log in again, not when a refresh fails transiently.
func (g *Gate) Require(opener tokens.Opener, deny http.HandlerFunc, next http.Handler) http.Handler {
	if deny == nil {
		deny = RedirectToLogin
	}
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		logger := entry.Log(req)

		store, err := opener.Open(res, req)
		if err != nil {
			logger.Error("Failed to open token store", "error", err)
			http.Error(res, "Failed to load session", http.StatusInternalServerError)
			return
		}

		record, err := g.Ensure(req.Context(), store)
		if errors.Is(err, ErrReauthRequired) {
			logger.Info("Re-authentication required", "reason", err)
			if err := store.Clear(); err != nil {
				logger.Error("Failed to clear token store", "error", err)
			}
			deny(res, req)
			return
		}
		if errors.Is(err, ErrRefreshUnavailable) {
			logger.Warn("Failed to refresh access token", "error", err)
			deny(res, req)
			return
		}
		if err != nil {
			logger.Error("Failed to ensure usable access token", "error", err)
			http.Error(res, "Failed to load session", http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(req.Context(), contextKey{}, record)
		next.ServeHTTP(res, req.WithContext(ctx))
	})
}
