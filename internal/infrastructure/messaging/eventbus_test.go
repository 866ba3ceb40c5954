package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guild-hub/guild-rank-hub/internal/domain/shared"
)

type stubEvent struct {
	eventType shared.EventType
	aggregate string
}

func (e stubEvent) EventType() shared.EventType     { return e.eventType }
func (e stubEvent) OccurredAt() time.Time           { return time.Now().UTC() }
func (e stubEvent) AggregateID() string             { return e.aggregate }
func (e stubEvent) Payload() map[string]interface{} { return nil }

func newSyncBus() *InMemoryEventBus {
	return NewInMemoryEventBus(Config{AsyncMode: false})
}

func TestPublish_DeliversToSubscriber(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	var received []shared.Event
	err := bus.Subscribe(shared.EventMemberPromoted, func(e shared.Event) error {
		received = append(received, e)
		return nil
	})
	require.NoError(t, err)

	event := stubEvent{eventType: shared.EventMemberPromoted, aggregate: "community-1:member-1"}
	require.NoError(t, bus.Publish(context.Background(), event))

	require.Len(t, received, 1)
	assert.Equal(t, "community-1:member-1", received[0].AggregateID())
}

func TestPublish_TypeFiltering(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	promoted := 0
	require.NoError(t, bus.Subscribe(shared.EventMemberPromoted, func(shared.Event) error {
		promoted++
		return nil
	}))

	all := 0
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		all++
		return nil
	}))

	require.NoError(t, bus.Publish(context.Background(), stubEvent{eventType: shared.EventMemberPromoted}))
	require.NoError(t, bus.Publish(context.Background(), stubEvent{eventType: shared.EventMemberDemoted}))

	assert.Equal(t, 1, promoted)
	assert.Equal(t, 2, all)
}

func TestPublish_HandlerErrorDoesNotFailPublish(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		return errors.New("boom")
	}))

	err := bus.Publish(context.Background(), stubEvent{eventType: shared.EventMemberReset})
	assert.NoError(t, err)

	published, failures := bus.Stats()
	assert.Equal(t, int64(1), published)
	assert.Equal(t, int64(1), failures)
}

func TestPublish_NilEvent(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	err := bus.Publish(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilEvent)
}

func TestSubscribe_NilHandler(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	assert.ErrorIs(t, bus.Subscribe(shared.EventMemberPromoted, nil), ErrNilHandler)
	assert.ErrorIs(t, bus.SubscribeAll(nil), ErrNilHandler)
}

func TestAsyncMode_DeliversOnWorkerPool(t *testing.T) {
	bus := NewInMemoryEventBus(Config{AsyncMode: true, WorkerPoolSize: 4})

	var mu sync.Mutex
	received := 0
	done := make(chan struct{})

	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		mu.Lock()
		received++
		if received == 5 {
			close(done)
		}
		mu.Unlock()
		return nil
	}))

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(context.Background(), stubEvent{eventType: shared.EventMemberPromoted}))
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("async handlers did not run")
	}

	require.NoError(t, bus.Close())
}

func TestClose_RejectsFurtherUse(t *testing.T) {
	bus := newSyncBus()
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(context.Background(), stubEvent{eventType: shared.EventMemberPromoted}), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventMemberPromoted, func(shared.Event) error { return nil }), ErrEventBusClosed)

	// Double close is a no-op
	assert.NoError(t, bus.Close())
}
