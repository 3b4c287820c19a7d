package session

import (
	"sync"

	"github.com/rcarmo/go-opcua/internal/ua"
)

// notificationEvent is one PublishResponse's notification, tagged with the
// subscription it belongs to.
type notificationEvent struct {
	SubscriptionId uint32
	Message        ua.NotificationMessage
}

// defaultBroadcastCapacity bounds each subscriber's channel. spec.md §9's
// design note calls for "a multi-producer, multi-consumer broadcast channel
// with bounded capacity and drop-oldest semantics for slow consumers" in
// place of the source language's subscriber-list abstraction; sixteen
// buffered notifications is generous slack for one slow consumer without
// letting an unread subscriber grow without bound.
const defaultBroadcastCapacity = 16

// notificationBroadcast fans out notificationEvents to every live
// subscriber. A subscriber that can't keep up loses its oldest buffered
// event rather than stalling the publish pump that feeds every other
// subscriber.
type notificationBroadcast struct {
	mu   sync.Mutex
	subs map[int]chan notificationEvent
	next int
}

func newNotificationBroadcast() *notificationBroadcast {
	return &notificationBroadcast{subs: make(map[int]chan notificationEvent)}
}

// subscribe registers a new consumer and returns its id (for unsubscribe)
// and its receive channel.
func (b *notificationBroadcast) subscribe() (int, <-chan notificationEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan notificationEvent, defaultBroadcastCapacity)
	b.subs[id] = ch
	return id, ch
}

// unsubscribe removes and closes the subscriber's channel. Safe to call
// more than once.
func (b *notificationBroadcast) unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// publish delivers ev to every current subscriber, dropping each
// subscriber's oldest buffered event in turn if its channel is full.
func (b *notificationBroadcast) publish(ev notificationEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

// closeAll unsubscribes every consumer, used on channel fault/close so no
// subscriber blocks forever waiting on an event that will never arrive.
func (b *notificationBroadcast) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}
