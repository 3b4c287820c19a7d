package session

import (
	"context"

	"github.com/rcarmo/go-opcua/internal/logging"
	"github.com/rcarmo/go-opcua/internal/ua"
)

// receivePump is the channel's single reader: it decodes every incoming
// message and hands it to whichever pendingTable slot registered that
// request's handle (spec.md §5's dispatch loop). It never special-cases
// PublishResponse — publishPump's own call()s are the ones waiting on it.
func (c *Client) receivePump() {
	defer c.wg.Done()

	for {
		select {
		case <-c.doneCh:
			return
		default:
		}

		requestId, body, err := c.conv.Receive(context.Background())
		if err != nil {
			logging.Warn("session: receive pump stopped: %v", err)
			c.pending.failAll(err)
			return
		}

		_, decoded, err := c.decodeMessage(body)
		if !c.pending.complete(requestId, decoded, err) {
			logging.Debug("session: no pending request for handle %d", requestId)
		}
	}
}

// publishPump keeps cfg.Session.PublishInFlight PublishRequests outstanding
// at all times (spec.md §5.1): each worker blocks on one in-flight Publish,
// fans its NotificationMessage out to the registered handler, accumulates
// the acknowledgement for next cycle, and immediately issues the next one.
func (c *Client) publishPump() {
	defer c.wg.Done()

	inFlight := c.cfg.Session.PublishInFlight
	if inFlight <= 0 {
		inFlight = 3
	}

	var workers []chan struct{}
	for i := 0; i < inFlight; i++ {
		done := make(chan struct{})
		workers = append(workers, done)
		c.wg.Add(1)
		go c.publishWorker(done)
	}

	<-c.doneCh
	for _, done := range workers {
		close(done)
	}
}

func (c *Client) publishWorker(workerDone <-chan struct{}) {
	defer c.wg.Done()

	for {
		select {
		case <-c.doneCh:
			return
		case <-workerDone:
			return
		default:
		}

		acks := c.drainPublishAcks()
		req := &ua.PublishRequest{
			RequestHeader:                c.newRequestHeader(c.pending.nextHandle(), c.cfg.Session.SessionTimeout),
			SubscriptionAcknowledgements: acks,
		}

		respBody, err := c.call(context.Background(), req.RequestHeader.RequestHandle, req, c.cfg.Session.SessionTimeout)
		if err != nil {
			c.requeuePublishAcks(acks)
			if err == ErrServerNotConnected {
				return
			}
			logging.Warn("session: publish request failed: %v", err)
			continue
		}

		resp, ok := respBody.(*ua.PublishResponse)
		if !ok {
			logging.Warn("session: unexpected response type on publish")
			continue
		}
		if err := serviceError(resp.ResponseHeader.ServiceResult); err != nil {
			logging.Warn("session: publish service result: %v", err)
			continue
		}

		c.queuePublishAck(ua.SubscriptionAcknowledgement{
			SubscriptionId: resp.SubscriptionId,
			SequenceNumber: resp.NotificationMessage.SequenceNumber,
		})

		if len(resp.NotificationMessage.NotificationData) > 0 {
			c.notify.publish(notificationEvent{
				SubscriptionId: resp.SubscriptionId,
				Message:        resp.NotificationMessage,
			})
		}
	}
}

// queuePublishAck records subId's sequence number as the latest one owed an
// acknowledgement, replacing any earlier pending one for the same
// subscription: only the highest sequence number per subscription is ever
// meaningful to acknowledge, so out-of-order responses (spec.md §8 scenario
// 6) collapse to one ack entry rather than piling up stale duplicates.
func (c *Client) queuePublishAck(ack ua.SubscriptionAcknowledgement) {
	c.publishAcksMu.Lock()
	if c.publishAcks == nil {
		c.publishAcks = make(map[uint32]uint32)
	}
	if cur, ok := c.publishAcks[ack.SubscriptionId]; !ok || ack.SequenceNumber > cur {
		c.publishAcks[ack.SubscriptionId] = ack.SequenceNumber
	}
	c.publishAcksMu.Unlock()
}

func (c *Client) drainPublishAcks() []ua.SubscriptionAcknowledgement {
	c.publishAcksMu.Lock()
	defer c.publishAcksMu.Unlock()
	if len(c.publishAcks) == 0 {
		return nil
	}
	acks := make([]ua.SubscriptionAcknowledgement, 0, len(c.publishAcks))
	for subId, seq := range c.publishAcks {
		acks = append(acks, ua.SubscriptionAcknowledgement{SubscriptionId: subId, SequenceNumber: seq})
	}
	c.publishAcks = nil
	return acks
}

// requeuePublishAcks puts acks back for the next attempt after a failed
// Publish call, so a transient timeout doesn't silently drop an
// acknowledgement the server is still waiting to receive.
func (c *Client) requeuePublishAcks(acks []ua.SubscriptionAcknowledgement) {
	for _, ack := range acks {
		c.queuePublishAck(ack)
	}
}
