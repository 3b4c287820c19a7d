package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcarmo/go-opcua/internal/codec"
)

func TestReadWithNoNodesIsNoop(t *testing.T) {
	c := newTestClient(t, "anonymous")

	results, err := c.Read(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestReadWithoutConnectionFails(t *testing.T) {
	c := newTestClient(t, "anonymous")
	c.doneCh = make(chan struct{})

	_, err := c.Read(context.Background(), []codec.NodeId{codec.NewNumericNodeId(2, 1001)})
	assert.ErrorIs(t, err, ErrServerNotConnected)
}

func TestSubscriptionIdZeroBeforeConnect(t *testing.T) {
	c := newTestClient(t, "anonymous")
	assert.Equal(t, uint32(0), c.SubscriptionId())
}
