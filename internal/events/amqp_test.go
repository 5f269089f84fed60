package events

import (
	"context"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishedMessage struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	published []publishedMessage
	err       error
	closed    bool
}

func (c *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if c.err != nil {
		return c.err
	}
	c.published = append(c.published, publishedMessage{exchange, key, msg})
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func Test_AMQPPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p := &AMQPPublisher{ch: ch, exchange: DefaultExchange}

	timestamp := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	err := p.Publish(context.Background(), Event{
		Type:      TypeUserAuthenticated,
		Scope:     "user:read channel:read",
		ExpiresIn: 3600,
		Timestamp: timestamp,
	})
	require.NoError(t, err)
	require.Len(t, ch.published, 1)

	published := ch.published[0]
	assert.Equal(t, "kick-auth-events", published.exchange)
	assert.Equal(t, "", published.key)
	assert.Equal(t, "application/json", published.msg.ContentType)
	assert.Equal(t, amqp.Persistent, published.msg.DeliveryMode)
	assert.Equal(t, "user.authenticated", published.msg.Type)
	assert.Equal(t, timestamp, published.msg.Timestamp)
	assert.JSONEq(t, `{"type":"user.authenticated","scope":"user:read channel:read","expiresIn":3600,"timestamp":"2024-01-02T03:04:05Z"}`, string(published.msg.Body))

	assert.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func Test_AMQPPublisher_Publish_error(t *testing.T) {
	ch := &fakeChannel{err: amqp.ErrClosed}
	p := &AMQPPublisher{ch: ch, exchange: DefaultExchange}

	err := p.Publish(context.Background(), Event{Type: TypeTokenRevoked})
	assert.True(t, errors.Is(err, amqp.ErrClosed))
}
