package session

import (
	"testing"

	"github.com/rcarmo/go-opcua/internal/ua"
	"github.com/stretchr/testify/assert"
)

// TestPublishAckCollapsesToLatestSequenceNumber exercises spec.md §8
// scenario 6: three Publish responses for the same subscription arriving
// out of order (42, 41, 43) must collapse to a single acknowledgement
// carrying the highest sequence number seen, not three stale entries.
func TestPublishAckCollapsesToLatestSequenceNumber(t *testing.T) {
	var c Client

	for _, seq := range []uint32{42, 41, 43} {
		c.queuePublishAck(ua.SubscriptionAcknowledgement{SubscriptionId: 7, SequenceNumber: seq})
	}

	acks := c.drainPublishAcks()
	assert.Len(t, acks, 1)
	assert.Equal(t, uint32(7), acks[0].SubscriptionId)
	assert.Equal(t, uint32(43), acks[0].SequenceNumber)

	assert.Empty(t, c.drainPublishAcks())
}

func TestPublishAckTracksMultipleSubscriptionsIndependently(t *testing.T) {
	var c Client

	c.queuePublishAck(ua.SubscriptionAcknowledgement{SubscriptionId: 1, SequenceNumber: 5})
	c.queuePublishAck(ua.SubscriptionAcknowledgement{SubscriptionId: 2, SequenceNumber: 9})

	acks := c.drainPublishAcks()
	assert.Len(t, acks, 2)

	byId := map[uint32]uint32{}
	for _, a := range acks {
		byId[a.SubscriptionId] = a.SequenceNumber
	}
	assert.Equal(t, uint32(5), byId[1])
	assert.Equal(t, uint32(9), byId[2])
}

func TestRequeuePublishAcksPreservesHighestSequenceNumber(t *testing.T) {
	var c Client

	c.queuePublishAck(ua.SubscriptionAcknowledgement{SubscriptionId: 3, SequenceNumber: 10})
	stale := c.drainPublishAcks()

	c.queuePublishAck(ua.SubscriptionAcknowledgement{SubscriptionId: 3, SequenceNumber: 11})
	c.requeuePublishAcks(stale)

	acks := c.drainPublishAcks()
	assert.Len(t, acks, 1)
	assert.Equal(t, uint32(11), acks[0].SequenceNumber)
}
