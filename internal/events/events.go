package events

import (
	"context"
	"time"

	"golang.org/x/exp/slog"
)

type Type string

const (
	TypeUserAuthenticated Type = "user.authenticated"
	TypeTokenRefreshed    Type = "token.refreshed"
	TypeTokenRevoked      Type = "token.revoked"
)

// Event describes a change to the tokens held on behalf of a user. Token values are
// never included.
type Event struct {
	Type      Type      `json:"type"`
	Scope     string    `json:"scope,omitempty"`
	ExpiresIn int       `json:"expiresIn,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// NopPublisher discards all events
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, ev Event) error {
	return nil
}

// Announce publishes an event, logging (rather than returning) any failure: the state
// change it describes has already happened
func Announce(ctx context.Context, logger *slog.Logger, p Publisher, ev Event) {
	if err := p.Publish(ctx, ev); err != nil {
		logger.Error("Failed to publish event", "eventType", ev.Type, "error", err)
	}
}

var _ Publisher = NopPublisher{}
