package rabbitmq

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	failures  int
	calls     int
	published []amqp.Publishing
	keys      []string
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return errors.New("channel/connection is not open")
	}
	f.published = append(f.published, msg)
	f.keys = append(f.keys, key)
	return nil
}

func newTestClient(ch *fakeChannel, cfg *Config) *Client {
	return &Client{
		config:      cfg,
		channel:     ch,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		isConnected: true,
	}
}

func TestClient_Publish(t *testing.T) {
	ch := &fakeChannel{}
	c := newTestClient(ch, &Config{ExchangeName: "jobs", RoutingKey: "job.finished"})

	require.NoError(t, c.Publish(context.Background(), []byte(`{"a":1}`), "application/json"))

	require.Len(t, ch.published, 1)
	assert.Equal(t, "job.finished", ch.keys[0])
	assert.Equal(t, "application/json", ch.published[0].ContentType)
	assert.Equal(t, amqp.Persistent, ch.published[0].DeliveryMode)
}

func TestClient_PublishWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		retries   int
		wantErr   bool
		wantCalls int
	}{
		{name: "first attempt", failures: 0, retries: 3, wantCalls: 1},
		{name: "succeeds after retries", failures: 2, retries: 3, wantCalls: 3},
		{name: "gives up", failures: 10, retries: 2, wantErr: true, wantCalls: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := &fakeChannel{failures: tt.failures}
			c := newTestClient(ch, &Config{
				PublishRetries:    tt.retries,
				PublishRetryDelay: time.Millisecond,
			})

			err := c.PublishWithRetry(context.Background(), []byte("x"), "text/plain")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, ch.calls)
		})
	}
}

func TestClient_PublishWithRetryCanceled(t *testing.T) {
	ch := &fakeChannel{failures: 10}
	c := newTestClient(ch, &Config{PublishRetries: 5, PublishRetryDelay: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.PublishWithRetry(ctx, []byte("x"), "text/plain")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, ch.calls)
}

func TestClient_ClosedClientDoesNotPublish(t *testing.T) {
	ch := &fakeChannel{}
	c := newTestClient(ch, &Config{})
	c.redial = func() error {
		t.Fatal("closed client must not dial")
		return nil
	}
	require.NoError(t, c.Close())

	err := c.PublishWithRetry(context.Background(), []byte("x"), "text/plain")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Zero(t, ch.calls)
}

func TestClient_ReconnectsAfterChannelClose(t *testing.T) {
	ch := &fakeChannel{}
	c := newTestClient(ch, &Config{})
	c.isConnected = false

	dials := 0
	c.redial = func() error {
		dials++
		c.isConnected = true
		return nil
	}

	require.NoError(t, c.Publish(context.Background(), []byte("x"), "text/plain"))
	require.NoError(t, c.Publish(context.Background(), []byte("y"), "text/plain"))

	assert.Equal(t, 1, dials)
	assert.Len(t, ch.published, 2)
}

func TestClient_ReconnectRetriedWithBackoff(t *testing.T) {
	ch := &fakeChannel{}
	c := newTestClient(ch, &Config{PublishRetries: 3, PublishRetryDelay: time.Millisecond})
	c.isConnected = false

	dials := 0
	c.redial = func() error {
		dials++
		if dials < 3 {
			return errors.New("dial tcp: connection refused")
		}
		c.isConnected = true
		return nil
	}

	require.NoError(t, c.PublishWithRetry(context.Background(), []byte("x"), "text/plain"))
	assert.Equal(t, 3, dials)
	assert.Equal(t, 1, ch.calls)
}

func TestClient_ReconnectGivesUp(t *testing.T) {
	ch := &fakeChannel{}
	c := newTestClient(ch, &Config{PublishRetries: 2, PublishRetryDelay: time.Millisecond})
	c.isConnected = false

	dials := 0
	c.redial = func() error {
		dials++
		return errors.New("dial tcp: connection refused")
	}

	err := c.PublishWithRetry(context.Background(), []byte("x"), "text/plain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to reconnect")
	assert.Equal(t, 3, dials)
	assert.Zero(t, ch.calls)
}
