package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFrameReadFrameRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	cc := NewChannel(client, defaultSizes())
	sc := NewChannel(server, defaultSizes())

	done := make(chan error, 1)
	go func() { done <- cc.WriteFrame(MsgTypeMsg, ChunkFinal, []byte{1, 2, 3, 4}) }()

	msgType, flag, body, err := sc.ReadFrame()
	require.NoError(t, err)
	require.NoError(t, <-done)

	assert.Equal(t, MsgTypeMsg, msgType)
	assert.Equal(t, ChunkFinal, flag)
	assert.Equal(t, []byte{1, 2, 3, 4}, body)
}

func TestHelloAckHandshake(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	cc := NewChannel(client, defaultSizes())

	serverDone := make(chan error, 1)
	go func() {
		sc := NewChannel(server, defaultSizes())
		msgType, _, body, err := sc.readFrame()
		if err != nil {
			serverDone <- err
			return
		}
		if msgType != MsgTypeHello {
			serverDone <- errUnexpected(msgType)
			return
		}
		_ = body

		ack := make([]byte, 0, 20)
		ack = appendUint32(ack, 0) // protocol version
		ack = appendUint32(ack, uint32(DefaultBufferSize))
		ack = appendUint32(ack, uint32(DefaultBufferSize))
		ack = appendUint32(ack, uint32(DefaultMaxMessageSize))
		ack = appendUint32(ack, uint32(DefaultMaxChunkCount))
		serverDone <- sc.writeFrame(MsgTypeAck, ChunkFinal, ack)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, cc.Hello(ctx, "opc.tcp://localhost:4840/server"))
	require.NoError(t, <-serverDone)

	assert.Equal(t, DefaultBufferSize, cc.RemoteSizes().ReceiveBufferSize)
	assert.Equal(t, DefaultMaxMessageSize, cc.RemoteSizes().MaxMessageSize)
}

func TestHelloErrResponse(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	cc := NewChannel(client, defaultSizes())

	serverDone := make(chan error, 1)
	go func() {
		sc := NewChannel(server, defaultSizes())
		if _, _, _, err := sc.readFrame(); err != nil {
			serverDone <- err
			return
		}
		errBody := make([]byte, 0, 8)
		errBody = appendUint32(errBody, 0x80010000) // BadTcpInternalError-shaped code
		errBody = appendString(errBody, "bad request")
		serverDone <- sc.writeFrame(MsgTypeErr, ChunkFinal, errBody)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := cc.Hello(ctx, "opc.tcp://localhost:4840/server")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad request")
	require.NoError(t, <-serverDone)
}

func TestParseAckRejectsTruncatedBody(t *testing.T) {
	c := &Channel{local: defaultSizes()}
	err := c.parseAck([]byte{1, 2, 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProtocolVersionUnsupported)
}

func TestReadFrameRejectsOversizedFrame(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	small := Sizes{ReceiveBufferSize: FrameHeaderSize + 4, SendBufferSize: DefaultBufferSize, MaxMessageSize: DefaultMaxMessageSize, MaxChunkCount: DefaultMaxChunkCount}
	cc := NewChannel(client, small)

	done := make(chan error, 1)
	go func() {
		sc := NewChannel(server, defaultSizes())
		done <- sc.writeFrame(MsgTypeMsg, ChunkFinal, make([]byte, 64))
	}()

	_, _, _, err := cc.ReadFrame()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResponseTooLarge)
	require.NoError(t, <-done)
}

func TestParseErrorBody(t *testing.T) {
	body := make([]byte, 0, 16)
	body = appendUint32(body, 0x80020000)
	body = appendString(body, "session closed")

	status := parseErrorBody(body)
	assert.Equal(t, uint32(0x80020000), status.Code)
	assert.Equal(t, "session closed", status.Reason)
	assert.Contains(t, status.Error(), "session closed")
}

func errUnexpected(mt MessageType) error {
	return &ErrorStatus{Code: 0, Reason: "unexpected message type " + mt.String()}
}
