package session

import (
	"context"
	"fmt"

	"github.com/rcarmo/go-opcua/internal/codec"
	"github.com/rcarmo/go-opcua/internal/ua"
)

// Read fetches the Value attribute of each nodeId in one ReadRequest, in
// request order. It is the public surface cmd/uaclient's "read" subcommand
// drives; internally it is the same call bootstrapNamespaces uses.
func (c *Client) Read(ctx context.Context, nodeIds []codec.NodeId) ([]codec.DataValue, error) {
	if len(nodeIds) == 0 {
		return nil, nil
	}

	nodesToRead := make([]ua.ReadValueId, len(nodeIds))
	for i, id := range nodeIds {
		nodesToRead[i] = ua.ReadValueId{NodeId: id, AttributeId: 13}
	}

	req := &ua.ReadRequest{
		RequestHeader:      c.newRequestHeader(c.pending.nextHandle(), c.requestTimeout()),
		TimestampsToReturn: ua.TimestampsToReturnBoth,
		NodesToRead:        nodesToRead,
	}

	respBody, err := c.call(ctx, req.RequestHeader.RequestHandle, req, c.requestTimeout())
	if err != nil {
		return nil, err
	}
	resp, ok := respBody.(*ua.ReadResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected response type reading nodes")
	}
	if err := serviceError(resp.ResponseHeader.ServiceResult); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// SubscriptionId returns the keep-alive subscription's id, established by
// Connect's createKeepAliveSubscription step. Zero before Connect succeeds.
func (c *Client) SubscriptionId() uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.subscriptionId
}
