package transport

import "errors"

// Protocol-level errors from the UA-TCP preamble and frame layer (spec.md §7).
var (
	// ErrProtocolVersionUnsupported is returned when the peer's HELLO/ACK
	// response carries a protocol version this channel cannot interoperate
	// with, or when an ACK body is too short to contain one.
	ErrProtocolVersionUnsupported = errors.New("transport: peer protocol version unsupported")

	// ErrResponseTooLarge is returned when a frame's declared length exceeds
	// the local receive buffer size negotiated (or defaulted) for this channel.
	ErrResponseTooLarge = errors.New("transport: response frame exceeds local receive buffer size")

	// ErrTcpSecureChannelUnknown mirrors BadTcpSecureChannelUnknown: a MSG/CLO
	// frame referenced a secure channel id the transport has no record of.
	ErrTcpSecureChannelUnknown = errors.New("transport: unknown secure channel id")

	// ErrUnknownResponse mirrors BadUnknownResponse: a frame carried a message
	// type tag this channel does not recognize at the transport layer.
	ErrUnknownResponse = errors.New("transport: unknown response message type")
)
