package gate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/exp/slog"

	"github.com/golden-vcr/kickauth"
	"github.com/golden-vcr/kickauth/internal/events"
	"github.com/golden-vcr/kickauth/internal/oauth"
	"github.com/golden-vcr/kickauth/internal/tokens"
)

// DefaultBuffer is how long before its expiry an access token is considered stale
const DefaultBuffer = 300 * time.Second

// ErrReauthRequired indicates that the stored tokens can't be used and can't be
// refreshed: the user must go through the login flow again
var ErrReauthRequired = errors.New("re-authentication required")

// ErrRefreshUnavailable indicates that a stale access token could not be refreshed
// because the provider could not be reached or failed; the stored tokens may still be
// refreshed later
var ErrRefreshUnavailable = errors.New("token refresh unavailable")

// Refresher is the subset of oauth.Client used to refresh stale tokens
type Refresher interface {
	RefreshAccessToken(ctx context.Context, refreshToken string) (*oauth.Token, error)
}

type Gate struct {
	// mu serializes refreshes so that a rotated refresh token is never presented twice
	mu sync.Mutex

	refresher Refresher
	clock     clockwork.Clock
	buffer    time.Duration
	publisher events.Publisher
	logger    *slog.Logger
}

func New(refresher Refresher, clock clockwork.Clock, buffer time.Duration, publisher events.Publisher, logger *slog.Logger) *Gate {
	return &Gate{
		refresher: refresher,
		clock:     clock,
		buffer:    buffer,
		publisher: publisher,
		logger:    logger,
	}
}

// NeedsRefresh reports whether the access token in record should be refreshed before
// use, as of now
func NeedsRefresh(record tokens.Record, now time.Time, buffer time.Duration) bool {
	if record.ExpiresAt == 0 {
		return true
	}
	return now.UnixMilli() > record.ExpiresAt-buffer.Milliseconds()
}

// Ensure returns a usable token record from the store, refreshing it first if needed.
// Any error that means the user must log in again wraps ErrReauthRequired; a refresh
// that failed for any other reason wraps ErrRefreshUnavailable.
func (g *Gate) Ensure(ctx context.Context, store tokens.Store) (tokens.Record, error) {
	record := store.Record()
	if record.AccessToken == "" {
		return tokens.Record{}, fmt.Errorf("%w: no access token is stored", ErrReauthRequired)
	}
	if !NeedsRefresh(record, g.clock.Now(), g.buffer) {
		return record, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	// Another request may have refreshed the same tokens while we waited
	record = store.Record()
	if record.AccessToken == "" {
		return tokens.Record{}, fmt.Errorf("%w: no access token is stored", ErrReauthRequired)
	}
	now := g.clock.Now()
	if !NeedsRefresh(record, now, g.buffer) {
		return record, nil
	}
	if record.RefreshToken == "" {
		return tokens.Record{}, fmt.Errorf("%w: access token is stale and no refresh token is stored", ErrReauthRequired)
	}

	token, err := g.refresher.RefreshAccessToken(ctx, record.RefreshToken)
	if err != nil {
		if isRejected(err) {
			return tokens.Record{}, fmt.Errorf("%w: %w", ErrReauthRequired, err)
		}
		return tokens.Record{}, fmt.Errorf("%w: %w", ErrRefreshUnavailable, err)
	}

	// If the provider doesn't rotate refresh tokens, keep using the one we have
	refreshed := tokens.NewRecord(token, now)
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = record.RefreshToken
	}
	if err := store.Put(refreshed); err != nil {
		return tokens.Record{}, fmt.Errorf("failed to store refreshed tokens: %w", err)
	}

	events.Announce(ctx, g.logger, g.publisher, events.Event{
		Type:      events.TypeTokenRefreshed,
		Scope:     token.Scope,
		ExpiresIn: token.ExpiresIn,
		Timestamp: now,
	})
	return refreshed, nil
}

// isRejected reports whether the provider answered a refresh request with a 4xx
// status, e.g. invalid_grant for an expired or revoked refresh token
func isRejected(err error) bool {
	var upstreamErr *kickauth.UpstreamError
	if !errors.As(err, &upstreamErr) {
		return false
	}
	return upstreamErr.StatusCode >= 400 && upstreamErr.StatusCode < 500
}
