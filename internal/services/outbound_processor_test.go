package services

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	amqpInfra "github.com/stylebook/backend/internal/infrastructure/amqp"
	"github.com/stylebook/backend/internal/infrastructure/outbox"
)

type stubBroker struct {
	mu        sync.Mutex
	published map[string][][]byte
	err       error
}

func newStubBroker() *stubBroker {
	return &stubBroker{published: make(map[string][][]byte)}
}

func (b *stubBroker) Publish(_ context.Context, queue string, body []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.published[queue] = append(b.published[queue], append([]byte(nil), body...))
	return nil
}

func (b *stubBroker) setErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = err
}

func (b *stubBroker) count(queue string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.published[queue])
}

func openTestStore(t *testing.T) *outbox.Store {
	t.Helper()
	store, err := outbox.Open(filepath.Join(t.TempDir(), "outbox.db"), "outbox")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func notificationMessage(t *testing.T) outbox.Message {
	t.Helper()
	payload, err := json.Marshal(outbox.NotificationData{
		UserID:      "stylist-1",
		TemplateKey: "BOOKING_CREATED",
		Params:      map[string]string{"booking_id": "b-1"},
	})
	require.NoError(t, err)
	return outbox.Message{BookingID: "b-1", Kind: outbox.KindNotification, Data: payload}
}

func TestDispatchOrBufferPublishesImmediately(t *testing.T) {
	broker := newStubBroker()
	op := NewOutboundProcessor(openTestStore(t), broker, nil, OutboundConfig{})

	err := op.DispatchOrBuffer(context.Background(), notificationMessage(t))
	require.NoError(t, err)

	assert.Equal(t, 1, broker.count(amqpInfra.QueueNotifications))
	assert.Equal(t, 0, op.Size())
}

func TestDispatchOrBufferFallsBackToOutbox(t *testing.T) {
	broker := newStubBroker()
	broker.setErr(errors.New("broker down"))
	op := NewOutboundProcessor(openTestStore(t), broker, nil, OutboundConfig{})

	err := op.DispatchOrBuffer(context.Background(), notificationMessage(t))
	require.NoError(t, err)
	assert.Equal(t, 1, op.Size())

	broker.setErr(nil)
	require.NoError(t, op.Drain(context.Background()))

	assert.Equal(t, 1, broker.count(amqpInfra.QueueNotifications))
	assert.Equal(t, 0, op.Size())
}

func TestDrainDropsMessageAfterMaxRetries(t *testing.T) {
	broker := newStubBroker()
	broker.setErr(errors.New("broker down"))
	store := openTestStore(t)
	op := NewOutboundProcessor(store, broker, nil, OutboundConfig{MaxRetries: 2})

	require.NoError(t, store.Enqueue(notificationMessage(t)))

	require.NoError(t, op.Drain(context.Background()))
	assert.Equal(t, 1, op.Size())

	require.NoError(t, op.Drain(context.Background()))
	assert.Equal(t, 0, op.Size())
	assert.Equal(t, 0, broker.count(amqpInfra.QueueNotifications))
}

func TestBridgeRoutesNotificationsAndPayouts(t *testing.T) {
	broker := newStubBroker()
	op := NewOutboundProcessor(openTestStore(t), broker, nil, OutboundConfig{})
	bridge := NewOutboundBridge(op)
	ctx := context.Background()

	require.NoError(t, bridge.Notify(ctx, "client-1", "BOOKING_ACCEPTED", map[string]string{"booking_id": "b-1"}))
	require.NoError(t, bridge.RecordPayout(ctx, "b-1", 48.50))

	assert.Equal(t, 1, broker.count(amqpInfra.QueueNotifications))
	require.Equal(t, 1, broker.count(amqpInfra.QueuePayouts))

	var payout outbox.PayoutData
	require.NoError(t, json.Unmarshal(broker.published[amqpInfra.QueuePayouts][0], &payout))
	assert.Equal(t, "b-1", payout.BookingID)
	assert.Equal(t, 48.50, payout.Amount)
}
