package session

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/rcarmo/go-opcua/internal/codec"
	"github.com/rcarmo/go-opcua/internal/ua"
)

// newRequestHeader builds the RequestHeader every call attaches, with a
// fresh request handle and the session's authentication token (null until
// CreateSessionResponse assigns one).
func (c *Client) newRequestHeader(handle uint32, timeout time.Duration) ua.RequestHeader {
	return ua.RequestHeader{
		AuthenticationToken: c.authenticationToken,
		Timestamp:           time.Now().UTC(),
		RequestHandle:       handle,
		TimeoutHint:         uint32(timeout.Milliseconds()),
	}
}

func (c *Client) encodeMessage(body codec.Encodable) ([]byte, error) {
	var buf bytes.Buffer
	if err := codec.NewEncoderWithRegistry(&buf, c.registry).WriteMessage(body); err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *Client) decodeMessage(data []byte) (codec.NodeId, codec.Encodable, error) {
	d := codec.NewDecoderWithRegistry(bytes.NewReader(data), c.registry)
	d.SetFastDispatch(
		struct {
			ID      codec.NodeId
			Factory func() codec.Encodable
		}{ID: ua.PublishResponseNodeId, Factory: func() codec.Encodable { return &ua.PublishResponse{} }},
		struct {
			ID      codec.NodeId
			Factory func() codec.Encodable
		}{ID: ua.ReadResponseNodeId, Factory: func() codec.Encodable { return &ua.ReadResponse{} }},
	)
	return d.ReadMessage()
}

// call sends body as a new request and blocks for its matching response,
// correlating on RequestHandle (spec.md §5's pending-request table) and
// enforcing a per-request timer that fails with ErrRequestTimeout.
func (c *Client) call(ctx context.Context, handle uint32, body codec.Encodable, timeout time.Duration) (codec.Encodable, error) {
	c.mu.RLock()
	conv := c.conv
	c.mu.RUnlock()
	if conv == nil {
		return nil, ErrServerNotConnected
	}

	payload, err := c.encodeMessage(body)
	if err != nil {
		return nil, err
	}

	slot := c.pending.register(handle)
	c.metrics.SetPendingRequests(c.pending.count())

	if err := conv.Send(ctx, handle, payload); err != nil {
		c.pending.cancel(handle)
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-slot.resultCh:
		return res.body, res.err
	case <-timer.C:
		c.pending.cancel(handle)
		return nil, ErrRequestTimeout
	case <-ctx.Done():
		c.pending.cancel(handle)
		return nil, ctx.Err()
	case <-c.doneCh:
		c.pending.cancel(handle)
		return nil, ErrServerNotConnected
	}
}

// serviceError extracts a non-Good ServiceResult as a Go error, so callers
// can treat "response decoded fine but the server said Bad..." the same way
// as a transport failure.
func serviceError(result ua.StatusCode) error {
	if result.IsGood() {
		return nil
	}
	return result
}
