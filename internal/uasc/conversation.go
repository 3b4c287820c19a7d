// Package uasc implements the Secure Conversation layer: it frames
// application bodies into OPN/MSG/CLO chunks, signs and encrypts them per
// the negotiated security policy, reassembles incoming chunks, and rotates
// the symmetric token on a schedule. It plays the role the teacher's mcs
// package plays for RDP (chunk-level send/receive over a lower transport),
// fused with the certificate/signature shape of rdp/nla.go.
package uasc

import (
	"bytes"
	"context"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rcarmo/go-opcua/internal/codec"
	"github.com/rcarmo/go-opcua/internal/logging"
	"github.com/rcarmo/go-opcua/internal/metrics"
	"github.com/rcarmo/go-opcua/internal/transport"
)

// chunkOverheadEstimate bounds the non-payload bytes a symmetric chunk
// carries (transport frame header, channel id, token id, sequence header,
// one block of padding, and the signature), used to size how much
// application body fits per chunk without encoding it first.
func chunkOverheadEstimate(profile PolicyProfile) int {
	return 8 /*frame header*/ + 4 /*channelId*/ + 4 /*tokenId*/ + 8 /*sequence header*/ + profile.BlockSize + profile.SignatureSize
}

// SecureConversation owns the key material, cipher state, and send/receive
// scratch buffers for one open secure channel. It is created per channel
// open and discarded on close, per spec.md §4.4.
type SecureConversation struct {
	ch      *transport.Channel
	profile PolicyProfile
	mode    SecurityMode
	metrics *metrics.Metrics

	localCertDER []byte
	localKey     *rsa.PrivateKey

	remoteCert *x509.Certificate
	remotePub  *rsa.PublicKey

	stateMu  sync.RWMutex
	state    State
	faultErr error

	channelId uint32

	sendMu        sync.Mutex
	localToken    ChannelToken
	localMaterial SecurityMaterial
	seqNumber     uint32

	recvMu                sync.Mutex
	remoteToken           ChannelToken
	remoteMaterial        SecurityMaterial
	pendingRemoteToken    *ChannelToken
	pendingRemoteMaterial SecurityMaterial

	requestIdCounter uint32

	renewMu      sync.Mutex
	renewTimer   *time.Timer
	onRenewalDue func()

	// opnRespCh hands OPN response chunks read by the Receive loop over to
	// a Renew call in flight. Buffered so the receive side never blocks on
	// a renewal that already gave up.
	opnRespCh chan opnResponse
}

type opnResponse struct {
	body []byte
	err  error
}

// New creates a SecureConversation in the Created state over an
// already-negotiated transport channel.
func New(ch *transport.Channel, profile PolicyProfile, mode SecurityMode, localCertDER []byte, localKey *rsa.PrivateKey, m *metrics.Metrics) (*SecureConversation, error) {
	if mode != ModeNone && profile.URI == PolicyNone.URI {
		return nil, fmt.Errorf("%w: mode %s requires a non-None policy", ErrSecurityModeRejected, mode)
	}
	return &SecureConversation{
		ch:           ch,
		profile:      profile,
		mode:         mode,
		metrics:      m,
		localCertDER: localCertDER,
		localKey:     localKey,
		state:        Created,
		opnRespCh:    make(chan opnResponse, 1),
	}, nil
}

// State returns the current lifecycle state.
func (c *SecureConversation) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

func (c *SecureConversation) setState(s State) {
	c.stateMu.Lock()
	c.state = s
	c.stateMu.Unlock()
}

// fault transitions the conversation to Faulted and records the cause. All
// subsequent Send/Receive calls fail with this error.
func (c *SecureConversation) fault(err error) error {
	c.stateMu.Lock()
	c.state = Faulted
	c.faultErr = err
	c.stateMu.Unlock()
	logging.Error("uasc: channel %d faulted: %v", c.channelId, err)
	return err
}

func (c *SecureConversation) checkNotFaulted() error {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	if c.state == Faulted {
		return fmt.Errorf("%w: %v", ErrChannelFaulted, c.faultErr)
	}
	if c.state == Closed {
		return ErrChannelClosed
	}
	return nil
}

// NextRequestId returns the next monotonic request id for this channel.
func (c *SecureConversation) NextRequestId() uint32 {
	return atomic.AddUint32(&c.requestIdCounter, 1)
}

// ChannelId returns the secure channel id assigned by the server on Open.
func (c *SecureConversation) ChannelId() uint32 { return c.channelId }

// OpenResult carries the fields an OpenSecureChannelResponse contributes to
// the conversation's state; the session layer decodes the response body
// and passes the extracted fields back in so uasc never needs to know the
// ua.OpenSecureChannelResponse type.
type OpenResult struct {
	ChannelId       uint32
	TokenId         uint32
	RevisedLifetime time.Duration
	ServerNonce     []byte
}

// Open performs the asymmetric OPN exchange: it signs (and, for
// SignAndEncrypt mode, encrypts) requestBody under the remote certificate,
// sends it as a single final chunk, and returns the raw response service
// body together with the OpenResult the caller extracts from it. localNonce
// is the client nonce carried inside requestBody; Open pairs it with the
// response's server nonce to derive the symmetric key material every
// subsequent MSG/CLO chunk is signed and encrypted with.
//
// A request or response spanning more than one chunk is rejected with
// ErrNonFinalOpenChunk — the source this client is modeled on silently
// ignores non-final OPN chunks, so multi-chunk OPN is treated as an error
// here instead of guessing at reassembly semantics (spec.md Open Question a).
func (c *SecureConversation) Open(ctx context.Context, requestId uint32, requestBody []byte, remoteCertDER []byte, localNonce []byte, parseResponse func([]byte) (OpenResult, error)) ([]byte, OpenResult, error) {
	c.setState(Opening)

	if remoteCertDER != nil {
		cert, err := x509.ParseCertificate(remoteCertDER)
		if err != nil {
			return nil, OpenResult{}, c.fault(fmt.Errorf("%w: parse remote certificate: %v", ErrCertificateInvalid, err))
		}
		pub, ok := cert.PublicKey.(*rsa.PublicKey)
		if !ok {
			return nil, OpenResult{}, c.fault(fmt.Errorf("%w: remote certificate is not RSA", ErrCertificateInvalid))
		}
		c.remoteCert = cert
		c.remotePub = pub
	}

	if err := c.sendOpen(requestId, requestBody); err != nil {
		return nil, OpenResult{}, c.fault(err)
	}

	respBody, err := c.receiveOpen(ctx)
	if err != nil {
		return nil, OpenResult{}, c.fault(err)
	}

	result, err := parseResponse(respBody)
	if err != nil {
		return nil, OpenResult{}, c.fault(fmt.Errorf("parse OpenSecureChannelResponse: %w", err))
	}

	c.channelId = result.ChannelId
	c.localToken = ChannelToken{ChannelId: result.ChannelId, TokenId: result.TokenId, CreatedAt: timeNow(), RevisedLifetime: result.RevisedLifetime}
	c.remoteToken = c.localToken
	if c.mode != ModeNone {
		c.localMaterial, c.remoteMaterial = deriveDirectionalMaterial(c.profile, localNonce, result.ServerNonce)
	}

	c.setState(Opened)
	c.scheduleRenewal()
	return respBody, result, nil
}

func (c *SecureConversation) sendOpen(requestId uint32, body []byte) error {
	sec := AsymmetricSecurityHeader{SecurityPolicyURI: c.profile.URI}
	if c.mode != ModeNone {
		sec.SenderCertificate = c.localCertDER
		if c.remoteCert != nil {
			thumb := sha1.Sum(c.remoteCert.Raw)
			sec.ReceiverCertThumbprint = thumb[:]
		}
	}

	var secBuf bytes.Buffer
	if err := sec.Encode(codec.NewEncoder(&secBuf)); err != nil {
		return fmt.Errorf("encode asymmetric security header: %w", err)
	}

	seq := SequenceHeader{SequenceNumber: c.nextSequenceNumber(), RequestId: requestId}
	var seqBuf bytes.Buffer
	if err := seq.Encode(codec.NewEncoder(&seqBuf)); err != nil {
		return fmt.Errorf("encode sequence header: %w", err)
	}

	plain := append(append([]byte{}, seqBuf.Bytes()...), body...)

	var chunkBody []byte
	if c.mode == ModeNone || c.remotePub == nil {
		chunkBody = append(append([]byte{}, channelIdBytes(c.channelId)...), append(secBuf.Bytes(), plain...)...)
	} else {
		// The signature covers the entire frame so far, transport header
		// included. That header carries the final encrypted frame length,
		// which is computable before encrypting because RSA ciphertext
		// length is deterministic per key and padding scheme.
		sigLen := c.localKey.Size()
		cipherLen := asymmetricCipherLen(c.remotePub, c.profile.AsymmetricEncryptionPadding, len(plain)+sigLen)
		frameLen := transport.FrameHeaderSize + 4 + secBuf.Len() + cipherLen
		signInput := append(transport.HeaderBytes(transport.MsgTypeOpen, transport.ChunkFinal, frameLen), channelIdBytes(c.channelId)...)
		signInput = append(signInput, secBuf.Bytes()...)
		signInput = append(signInput, plain...)
		signature, err := signAsymmetric(c.localKey, c.profile, signInput)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrApplicationSignatureInvalid, err)
		}
		toEncrypt := append(append([]byte{}, plain...), signature...)
		cipherBytes, err := encryptAsymmetric(c.remotePub, c.profile.AsymmetricEncryptionPadding, toEncrypt)
		if err != nil {
			return fmt.Errorf("encrypt OPN body: %w", err)
		}
		chunkBody = append(append([]byte{}, channelIdBytes(c.channelId)...), append(secBuf.Bytes(), cipherBytes...)...)
	}

	c.metrics.RecordChunkSent("OPN")
	return c.ch.WriteFrame(transport.MsgTypeOpen, transport.ChunkFinal, chunkBody)
}

func (c *SecureConversation) receiveOpen(ctx context.Context) ([]byte, error) {
	msgType, flag, raw, err := c.ch.ReadFrame()
	if err != nil {
		return nil, err
	}
	if msgType == transport.MsgTypeErr {
		status := errorStatusFromBody(raw)
		return nil, status
	}
	if msgType != transport.MsgTypeOpen {
		return nil, fmt.Errorf("%w: expected OPN, got %s", ErrSecureChannelUnknown, msgType)
	}
	if flag != transport.ChunkFinal {
		return nil, ErrNonFinalOpenChunk
	}
	return c.decodeOpenChunk(raw)
}

// decodeOpenChunk decrypts and verifies a final OPN chunk's body, returning
// the service-layer payload past the sequence header.
func (c *SecureConversation) decodeOpenChunk(raw []byte) ([]byte, error) {
	if len(raw) < 4 {
		return nil, fmt.Errorf("%w: truncated OPN chunk", ErrEncodingLimitsExceeded)
	}
	rest := raw[4:] // skip channel id; caller already knows/assigns it from the response body

	d := codec.NewBoundedDecoder(bytes.NewReader(rest), int64(len(rest)))
	var sec AsymmetricSecurityHeader
	if err := sec.Decode(d); err != nil {
		return nil, fmt.Errorf("decode asymmetric security header: %w", err)
	}

	remaining, err := readAllRemaining(d, rest)
	if err != nil {
		return nil, err
	}

	var plain []byte
	if c.mode == ModeNone || c.localKey == nil {
		plain = remaining
	} else {
		decrypted, err := decryptAsymmetric(c.localKey, c.profile.AsymmetricEncryptionPadding, remaining)
		if err != nil {
			return nil, fmt.Errorf("%w: decrypt OPN body: %v", ErrSecurityChecksFailed, err)
		}
		sigSize := c.localKey.Size()
		if len(decrypted) < sigSize {
			return nil, fmt.Errorf("%w: OPN body shorter than signature", ErrSecurityChecksFailed)
		}
		body, signature := decrypted[:len(decrypted)-sigSize], decrypted[len(decrypted)-sigSize:]
		if c.remotePub != nil {
			frameHdr := transport.HeaderBytes(transport.MsgTypeOpen, transport.ChunkFinal, transport.FrameHeaderSize+len(raw))
			signInput := append(frameHdr, raw[:4]...)
			signInput = append(signInput, rest[:len(rest)-len(remaining)]...)
			signInput = append(signInput, body...)
			if err := verifyAsymmetric(c.remotePub, c.profile, signInput, signature); err != nil {
				return nil, err
			}
		}
		plain = body
	}

	seqD := codec.NewBoundedDecoder(bytes.NewReader(plain), int64(len(plain)))
	var seq SequenceHeader
	if err := seq.Decode(seqD); err != nil {
		return nil, fmt.Errorf("decode sequence header: %w", err)
	}
	bodyOffset := len(plain) - decoderRemainingLen(seqD)
	c.metrics.RecordChunkReceived("OPN")
	return plain[bodyOffset:], nil
}

// Close sends a CLO chunk with the given body (typically a
// CloseSecureChannelRequest) and marks the conversation Closed. It does not
// wait for a response: per UA-TCP, the server closes the connection after
// receiving CLO.
func (c *SecureConversation) Close(requestId uint32, body []byte) error {
	c.renewMu.Lock()
	if c.renewTimer != nil {
		c.renewTimer.Stop()
	}
	c.renewMu.Unlock()

	c.setState(Closing)
	err := c.sendSymmetric(transport.MsgTypeClose, requestId, body)
	c.setState(Closed)
	return err
}

func channelIdBytes(id uint32) []byte {
	return []byte{byte(id), byte(id >> 8), byte(id >> 16), byte(id >> 24)}
}

func (c *SecureConversation) nextSequenceNumber() uint32 {
	return atomic.AddUint32(&c.seqNumber, 1)
}

// readAllRemaining drains whatever is left in d's underlying reader,
// re-deriving the offset from the total input length since codec.Decoder
// doesn't expose raw positional access.
func readAllRemaining(d *codec.Decoder, original []byte) ([]byte, error) {
	consumed := len(original) - decoderRemainingLen(d)
	if consumed < 0 || consumed > len(original) {
		return nil, fmt.Errorf("%w: malformed security header", ErrEncodingLimitsExceeded)
	}
	return original[consumed:], nil
}

// decoderRemainingLen reports how many bytes are left unread in a bounded
// decoder's source.
func decoderRemainingLen(d *codec.Decoder) int {
	return int(d.Remaining())
}

func errorStatusFromBody(body []byte) error {
	status := &transport.ErrorStatus{}
	if len(body) >= 4 {
		status.Code = uint32(body[0]) | uint32(body[1])<<8 | uint32(body[2])<<16 | uint32(body[3])<<24
	}
	if len(body) >= 8 {
		n := uint32(body[4]) | uint32(body[5])<<8 | uint32(body[6])<<16 | uint32(body[7])<<24
		if n != 0xFFFFFFFF && int(8+n) <= len(body) {
			status.Reason = string(body[8 : 8+n])
		}
	}
	return status
}

var timeNow = func() time.Time { return time.Now() }
