// Package transport implements the UA-TCP layer: the HELLO/ACK/ERR preamble
// that negotiates buffer sizes, and length-prefixed frame send/receive on
// top of a raw byte stream. It plays the role the teacher's tpkt/x224 pair
// plays for RDP, folded into one package because UA-TCP's preamble is a
// single request/response exchange rather than a multi-PDU negotiation.
package transport

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/rcarmo/go-opcua/internal/logging"
)

// Defaults and minimums from spec.md §4.3.
const (
	DefaultBufferSize     = 64 * 1024
	DefaultMaxMessageSize = 16 * 1024 * 1024
	DefaultMaxChunkCount  = 4096
	MinHelloBufferSize    = 8 * 1024
	DefaultDialTimeout    = 5 * time.Second

	// FrameHeaderSize is the fixed 8-byte message-type/flag/length header
	// leading every frame. Exported because the secure conversation layer's
	// signatures cover the entire frame, header included.
	FrameHeaderSize = 8
)

// MessageType is the 3-byte ASCII tag leading every frame header.
type MessageType [3]byte

func (t MessageType) String() string { return string(t[:]) }

// Message type tags, packed into the first 3 bytes of every frame header
// (the 4th byte is the chunk flag).
var (
	MsgTypeHello = MessageType{'H', 'E', 'L'}
	MsgTypeAck   = MessageType{'A', 'C', 'K'}
	MsgTypeErr   = MessageType{'E', 'R', 'R'}
	MsgTypeOpen  = MessageType{'O', 'P', 'N'}
	MsgTypeClose = MessageType{'C', 'L', 'O'}
	MsgTypeMsg   = MessageType{'M', 'S', 'G'}
)

// Chunk flags (spec.md §6).
const (
	ChunkFinal        byte = 'F'
	ChunkContinuation byte = 'C'
	ChunkAbort        byte = 'A'
)

// Sizes is the set of four sizes negotiated in the HELLO/ACK exchange.
type Sizes struct {
	ReceiveBufferSize int
	SendBufferSize    int
	MaxMessageSize    int
	MaxChunkCount     int
}

func defaultSizes() Sizes {
	return Sizes{
		ReceiveBufferSize: DefaultBufferSize,
		SendBufferSize:    DefaultBufferSize,
		MaxMessageSize:    DefaultMaxMessageSize,
		MaxChunkCount:     DefaultMaxChunkCount,
	}
}

// Channel owns the raw byte-oriented connection and the sizes negotiated
// with the peer during Hello.
type Channel struct {
	conn   net.Conn
	r      *bufio.Reader
	local  Sizes
	remote Sizes
}

// Dial opens a TCP connection to addr (host:port, without the opc.tcp://
// scheme) with the given timeout.
func Dial(ctx context.Context, addr string, timeout time.Duration) (*Channel, error) {
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	return &Channel{
		conn:  conn,
		r:     bufio.NewReaderSize(conn, DefaultBufferSize),
		local: defaultSizes(),
	}, nil
}

// NewChannel wraps an already-open connection, for tests and for callers
// that manage dialing themselves.
func NewChannel(conn net.Conn, local Sizes) *Channel {
	if local.ReceiveBufferSize == 0 {
		local = defaultSizes()
	}
	return &Channel{conn: conn, r: bufio.NewReaderSize(conn, local.ReceiveBufferSize), local: local}
}

// RemoteSizes returns the sizes the peer reported in its ACK.
func (c *Channel) RemoteSizes() Sizes { return c.remote }

// LocalSizes returns the sizes this side offered in its HELLO.
func (c *Channel) LocalSizes() Sizes { return c.local }

// Close closes the underlying connection.
func (c *Channel) Close() error { return c.conn.Close() }

// ErrorStatus is the decoded body of an ERR frame.
type ErrorStatus struct {
	Code   uint32
	Reason string
}

func (e *ErrorStatus) Error() string {
	return fmt.Sprintf("transport: peer returned status 0x%08x: %s", e.Code, e.Reason)
}

// Hello performs the HELLO/ACK/ERR preamble against endpointURL (the
// opc.tcp:// URL the server was dialed at) and records the peer's sizes.
func (c *Channel) Hello(ctx context.Context, endpointURL string) error {
	logging.Debug("transport: sending HELLO to %s", endpointURL)

	body := make([]byte, 0, 4*5+len(endpointURL)+4)
	body = appendUint32(body, 0) // protocol version
	body = appendUint32(body, uint32(c.local.ReceiveBufferSize))
	body = appendUint32(body, uint32(c.local.SendBufferSize))
	body = appendUint32(body, uint32(c.local.MaxMessageSize))
	body = appendUint32(body, uint32(c.local.MaxChunkCount))
	body = appendString(body, endpointURL)

	if err := c.writeFrame(MsgTypeHello, ChunkFinal, body); err != nil {
		return fmt.Errorf("write HELLO: %w", err)
	}

	msgType, _, resp, err := c.readFrame()
	if err != nil {
		return fmt.Errorf("read HELLO response: %w", err)
	}

	switch msgType {
	case MsgTypeAck:
		return c.parseAck(resp)
	case MsgTypeErr:
		status := parseErrorBody(resp)
		return fmt.Errorf("HELLO rejected: %w", status)
	default:
		return fmt.Errorf("%w: unexpected response to HELLO: %s", ErrUnknownResponse, msgType)
	}
}

// localProtocolVersion is the UA-TCP protocol version this client implements.
// Servers reply with their own version in the ACK; a server reporting a
// version lower than ours cannot be assumed to understand this exchange.
const localProtocolVersion = 0

func (c *Channel) parseAck(body []byte) error {
	if len(body) < 20 {
		return fmt.Errorf("transport: %w: truncated ACK body", ErrProtocolVersionUnsupported)
	}
	if peerVersion := binary.LittleEndian.Uint32(body[0:4]); peerVersion < localProtocolVersion {
		return fmt.Errorf("transport: %w: peer version %d < local %d", ErrProtocolVersionUnsupported, peerVersion, localProtocolVersion)
	}
	remote := Sizes{
		ReceiveBufferSize: int(binary.LittleEndian.Uint32(body[4:8])),
		SendBufferSize:    int(binary.LittleEndian.Uint32(body[8:12])),
		MaxMessageSize:    int(binary.LittleEndian.Uint32(body[12:16])),
		MaxChunkCount:     int(binary.LittleEndian.Uint32(body[16:20])),
	}
	c.remote = remote
	logging.Debug("transport: ACK received, remote sizes %+v", remote)
	return nil
}

// WriteFrame writes one complete frame: 3-byte message type, 1-byte chunk
// flag, 4-byte total length (including this 8-byte header), then body.
func (c *Channel) WriteFrame(msgType MessageType, flag byte, body []byte) error {
	return c.writeFrame(msgType, flag, body)
}

// HeaderBytes builds the 8-byte frame header for a frame of frameLen total
// bytes (header included). The secure conversation layer uses it to fold
// the exact header writeFrame will emit into its signed range.
func HeaderBytes(msgType MessageType, flag byte, frameLen int) []byte {
	header := make([]byte, FrameHeaderSize)
	copy(header[0:3], msgType[:])
	header[3] = flag
	binary.LittleEndian.PutUint32(header[4:8], uint32(frameLen))
	return header
}

func (c *Channel) writeFrame(msgType MessageType, flag byte, body []byte) error {
	header := HeaderBytes(msgType, flag, FrameHeaderSize+len(body))

	if _, err := c.conn.Write(header); err != nil {
		return err
	}
	if len(body) > 0 {
		if _, err := c.conn.Write(body); err != nil {
			return err
		}
	}
	return nil
}

// ReadFrame reads exactly one frame and returns its message type, chunk
// flag, and body. Frames whose declared length exceeds the negotiated
// local receive buffer size fail with ErrResponseTooLarge.
func (c *Channel) ReadFrame() (msgType MessageType, flag byte, body []byte, err error) {
	return c.readFrame()
}

func (c *Channel) readFrame() (MessageType, byte, []byte, error) {
	header := make([]byte, FrameHeaderSize)
	if _, err := io.ReadFull(c.r, header); err != nil {
		return MessageType{}, 0, nil, err
	}

	var msgType MessageType
	copy(msgType[:], header[0:3])
	flag := header[3]
	length := binary.LittleEndian.Uint32(header[4:8])

	if length < FrameHeaderSize {
		return msgType, flag, nil, fmt.Errorf("transport: frame length %d shorter than header", length)
	}

	bufSize := c.local.ReceiveBufferSize
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}
	if int(length) > bufSize {
		return msgType, flag, nil, ErrResponseTooLarge
	}

	bodyLen := int(length) - FrameHeaderSize
	body := make([]byte, bodyLen)
	if bodyLen > 0 {
		if _, err := io.ReadFull(c.r, body); err != nil {
			return msgType, flag, nil, err
		}
	}
	return msgType, flag, body, nil
}

func parseErrorBody(body []byte) *ErrorStatus {
	status := &ErrorStatus{}
	if len(body) < 4 {
		return status
	}
	status.Code = binary.LittleEndian.Uint32(body[0:4])
	if len(body) >= 8 {
		n := binary.LittleEndian.Uint32(body[4:8])
		if n != 0xFFFFFFFF && int(8+n) <= len(body) {
			status.Reason = string(body[8 : 8+n])
		}
	}
	return status
}

func appendUint32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

func appendString(b []byte, s string) []byte {
	b = appendUint32(b, uint32(len(s)))
	return append(b, s...)
}

