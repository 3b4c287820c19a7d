package session

import (
	"testing"

	"github.com/rcarmo/go-opcua/internal/ua"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationBroadcastDeliversToEverySubscriber(t *testing.T) {
	b := newNotificationBroadcast()
	_, a := b.subscribe()
	_, c := b.subscribe()

	ev := notificationEvent{SubscriptionId: 1, Message: ua.NotificationMessage{SequenceNumber: 5}}
	b.publish(ev)

	got := <-a
	assert.Equal(t, ev, got)
	got = <-c
	assert.Equal(t, ev, got)
}

func TestNotificationBroadcastDropsOldestForSlowConsumer(t *testing.T) {
	b := newNotificationBroadcast()
	_, ch := b.subscribe()

	for i := 0; i < defaultBroadcastCapacity+5; i++ {
		b.publish(notificationEvent{SubscriptionId: 1, Message: ua.NotificationMessage{SequenceNumber: uint32(i)}})
	}

	require.Len(t, ch, defaultBroadcastCapacity)
	first := <-ch
	assert.Equal(t, uint32(5), first.Message.SequenceNumber, "oldest entries should have been dropped to make room")
}

func TestNotificationBroadcastUnsubscribeClosesChannel(t *testing.T) {
	b := newNotificationBroadcast()
	id, ch := b.subscribe()
	b.unsubscribe(id)

	_, ok := <-ch
	assert.False(t, ok)

	b.unsubscribe(id) // idempotent
}

func TestNotificationBroadcastCloseAllClosesEverySubscriber(t *testing.T) {
	b := newNotificationBroadcast()
	_, a := b.subscribe()
	_, c := b.subscribe()

	b.closeAll()

	_, ok := <-a
	assert.False(t, ok)
	_, ok = <-c
	assert.False(t, ok)
}
