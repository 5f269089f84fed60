package events

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/slog"
)

type failingPublisher struct{}

func (failingPublisher) Publish(ctx context.Context, ev Event) error {
	return errors.New("broker unavailable")
}

func Test_Announce(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buf, nil))

	Announce(context.Background(), logger, NopPublisher{}, Event{Type: TypeTokenRefreshed})
	assert.Empty(t, buf.String())

	Announce(context.Background(), logger, failingPublisher{}, Event{Type: TypeTokenRefreshed})
	assert.Contains(t, buf.String(), "Failed to publish event")
	assert.Contains(t, buf.String(), "eventType=token.refreshed")
	assert.Contains(t, buf.String(), "broker unavailable")
}
