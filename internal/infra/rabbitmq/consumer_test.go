package rabbitmq

import (
	"context"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAcknowledger struct {
	acked       bool
	nacked      bool
	nackRequeue bool
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.acked = true
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	f.nacked = true
	f.nackRequeue = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	f.nacked = true
	f.nackRequeue = requeue
	return nil
}

func TestProcessDeliveryAcksOnSuccess(t *testing.T) {
	c := &Consumer{
		baseDelay: time.Millisecond,
		handler:   func(ctx context.Context, body []byte) error { return nil },
		logger:    zap.NewNop(),
	}

	ack := &fakeAcknowledger{}
	c.processDelivery(context.Background(), amqp.Delivery{Acknowledger: ack}, c.logger)

	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)
}

func TestProcessDeliveryRequeuesOnShutdown(t *testing.T) {
	c := &Consumer{
		baseDelay: time.Minute,
		handler:   func(ctx context.Context, body []byte) error { return errors.New("boom") },
		logger:    zap.NewNop(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ack := &fakeAcknowledger{}
	c.processDelivery(ctx, amqp.Delivery{Acknowledger: ack, Body: []byte("msg")}, c.logger)

	// the message must go back onto the queue, never be discarded
	require.True(t, ack.nacked)
	assert.True(t, ack.nackRequeue)
	assert.False(t, ack.acked)
}

func TestAttemptFromHeaders(t *testing.T) {
	tests := []struct {
		name    string
		headers amqp.Table
		want    int
	}{
		{name: "no headers", headers: nil, want: 1},
		{name: "no attempt header", headers: amqp.Table{"other": "x"}, want: 1},
		{name: "int32 attempt", headers: amqp.Table{"x-attempt": int32(3)}, want: 3},
		{name: "int64 attempt", headers: amqp.Table{"x-attempt": int64(4)}, want: 4},
		{name: "int attempt", headers: amqp.Table{"x-attempt": 5}, want: 5},
		{name: "wrong type", headers: amqp.Table{"x-attempt": "7"}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, attemptFromHeaders(amqp.Delivery{Headers: tt.headers}))
		})
	}
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	c := &Consumer{baseDelay: time.Second}

	assert.Equal(t, time.Second, c.backoff(1))
	assert.Equal(t, 2*time.Second, c.backoff(2))
	assert.Equal(t, 4*time.Second, c.backoff(3))
	assert.Equal(t, 60*time.Second, c.backoff(20))
}
