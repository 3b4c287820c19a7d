package uasc

import (
	"bytes"
	"context"
	"fmt"

	"github.com/rcarmo/go-opcua/internal/codec"
	"github.com/rcarmo/go-opcua/internal/transport"
)

// Send frames body as one or more MSG chunks sized to fit the peer's
// receive buffer, signing/encrypting each under the current local token.
// Chunk count is capped by the peer's negotiated max chunk count
// (spec.md §4.4).
func (c *SecureConversation) Send(ctx context.Context, requestId uint32, body []byte) error {
	return c.sendMessage(transport.MsgTypeMsg, requestId, body)
}

// sendSymmetric sends body as chunks of the given type through the same
// splitting path as Send; used for CLO, whose bodies fit in one chunk.
func (c *SecureConversation) sendSymmetric(msgType transport.MessageType, requestId uint32, body []byte) error {
	return c.sendMessage(msgType, requestId, body)
}

func (c *SecureConversation) sendMessage(msgType transport.MessageType, requestId uint32, body []byte) error {
	if err := c.checkNotFaulted(); err != nil {
		return err
	}

	remote := c.ch.RemoteSizes()
	overhead := chunkOverheadEstimate(c.profile)
	maxBody := remote.ReceiveBufferSize - overhead
	if maxBody <= 0 {
		maxBody = 1
	}

	chunkCount := 1
	if len(body) > 0 {
		chunkCount = (len(body) + maxBody - 1) / maxBody
	}
	if remote.MaxChunkCount > 0 && chunkCount > remote.MaxChunkCount {
		return fmt.Errorf("%w: message needs %d chunks, peer allows %d", ErrEncodingLimitsExceeded, chunkCount, remote.MaxChunkCount)
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	for i := 0; i < chunkCount; i++ {
		start := i * maxBody
		end := start + maxBody
		if end > len(body) {
			end = len(body)
		}
		flag := transport.ChunkContinuation
		if i == chunkCount-1 {
			flag = transport.ChunkFinal
		}
		if err := c.sendOneChunkLocked(msgType, flag, requestId, body[start:end]); err != nil {
			return c.fault(err)
		}
	}
	return nil
}

// sendOneChunkLocked builds and writes one symmetric chunk. Caller holds
// sendMu.
func (c *SecureConversation) sendOneChunkLocked(msgType transport.MessageType, flag byte, requestId uint32, bodyChunk []byte) error {
	sec := SymmetricSecurityHeader{TokenId: c.localToken.TokenId}
	var secBuf bytes.Buffer
	if err := sec.Encode(codec.NewEncoder(&secBuf)); err != nil {
		return fmt.Errorf("encode symmetric security header: %w", err)
	}

	seq := SequenceHeader{SequenceNumber: c.nextSequenceNumber(), RequestId: requestId}
	var seqBuf bytes.Buffer
	if err := seq.Encode(codec.NewEncoder(&seqBuf)); err != nil {
		return fmt.Errorf("encode sequence header: %w", err)
	}

	plain := append(append([]byte{}, seqBuf.Bytes()...), bodyChunk...)

	header := append(append([]byte{}, channelIdBytes(c.channelId)...), secBuf.Bytes()...)

	var payload []byte
	switch c.mode {
	case ModeNone:
		payload = plain
	case ModeSign, ModeSignAndEncrypt:
		padded := padSymmetric(c.profile.BlockSize, c.profile.SignatureSize, plain)
		// The signature covers the entire frame so far, transport header
		// included; that header is reproducible here because the frame's
		// total length is fixed once the padding is chosen (CBC with no
		// cipher-level padding preserves length).
		frameLen := transport.FrameHeaderSize + len(header) + len(padded) + c.profile.SignatureSize
		signInput := append(transport.HeaderBytes(msgType, flag, frameLen), header...)
		signInput = append(signInput, padded...)
		signature := signSymmetric(c.profile, c.localMaterial.SigningKey, signInput)
		toSend := append(padded, signature...)
		if c.mode == ModeSignAndEncrypt {
			encrypted, err := encryptSymmetric(c.localMaterial.EncryptingKey, c.localMaterial.IV, toSend)
			if err != nil {
				return err
			}
			toSend = encrypted
		}
		payload = toSend
	}

	chunkBody := append(header, payload...)
	c.metrics.RecordChunkSent(msgType.String())
	return c.ch.WriteFrame(msgType, flag, chunkBody)
}

// Receive reads one complete message (one or more chunks, terminated by a
// Final flag) and returns its request id and reassembled body.
func (c *SecureConversation) Receive(ctx context.Context) (uint32, []byte, error) {
	if err := c.checkNotFaulted(); err != nil {
		return 0, nil, err
	}

	c.recvMu.Lock()
	defer c.recvMu.Unlock()

	var body bytes.Buffer
	var requestId uint32
	for {
		msgType, flag, raw, err := c.ch.ReadFrame()
		if err != nil {
			return 0, nil, c.fault(err)
		}
		if msgType == transport.MsgTypeErr {
			return 0, nil, errorStatusFromBody(raw)
		}
		if flag == transport.ChunkAbort {
			return 0, nil, c.fault(fmt.Errorf("%w: %s", ErrAbortedByPeer, msgType))
		}
		if msgType == transport.MsgTypeOpen {
			// An OPN arriving mid-stream is the response to a Renew in
			// flight; hand it to the waiting Renew call and keep reading.
			if flag != transport.ChunkFinal {
				return 0, nil, c.fault(ErrNonFinalOpenChunk)
			}
			respBody, err := c.decodeOpenChunk(raw)
			select {
			case c.opnRespCh <- opnResponse{body: respBody, err: err}:
			default:
			}
			c.metrics.RecordChunkReceived(msgType.String())
			continue
		}

		reqId, payload, err := c.decodeChunkLocked(msgType, flag, raw)
		if err != nil {
			return 0, nil, c.fault(err)
		}
		requestId = reqId
		body.Write(payload)
		c.metrics.RecordChunkReceived(msgType.String())

		if flag == transport.ChunkFinal {
			break
		}
	}
	return requestId, body.Bytes(), nil
}

// decodeChunkLocked verifies/decrypts one symmetric chunk and returns its
// request id and service-layer body. The frame's message type and chunk
// flag are needed to rebuild the transport header the sender folded into
// its signature. Caller holds recvMu.
func (c *SecureConversation) decodeChunkLocked(msgType transport.MessageType, flag byte, raw []byte) (uint32, []byte, error) {
	if len(raw) < 8 {
		return 0, nil, fmt.Errorf("%w: truncated symmetric chunk", ErrEncodingLimitsExceeded)
	}
	header := raw[:8] // channel id + token id
	rest := raw[8:]

	d := codec.NewBoundedDecoder(bytes.NewReader(raw[4:8]), 4)
	var sec SymmetricSecurityHeader
	if err := sec.Decode(d); err != nil {
		return 0, nil, fmt.Errorf("decode symmetric security header: %w", err)
	}

	c.installRemoteTokenIfRotatedLocked(sec.TokenId)

	var plain []byte
	switch c.mode {
	case ModeNone:
		plain = rest
	case ModeSign, ModeSignAndEncrypt:
		toVerify := rest
		if c.mode == ModeSignAndEncrypt {
			decrypted, err := decryptSymmetric(c.remoteMaterial.EncryptingKey, c.remoteMaterial.IV, rest)
			if err != nil {
				return 0, nil, fmt.Errorf("%w: %v", ErrSecurityChecksFailed, err)
			}
			toVerify = decrypted
		}
		if len(toVerify) < c.profile.SignatureSize {
			return 0, nil, fmt.Errorf("%w: chunk shorter than signature", ErrSecurityChecksFailed)
		}
		padded, signature := toVerify[:len(toVerify)-c.profile.SignatureSize], toVerify[len(toVerify)-c.profile.SignatureSize:]
		frameLen := transport.FrameHeaderSize + len(raw)
		signInput := append(transport.HeaderBytes(msgType, flag, frameLen), header...)
		signInput = append(signInput, padded...)
		if !verifySymmetric(c.profile, c.remoteMaterial.SigningKey, signInput, signature) {
			return 0, nil, fmt.Errorf("%w: symmetric signature mismatch", ErrSecurityChecksFailed)
		}
		unpadded, err := stripPadding(c.profile.BlockSize, padded)
		if err != nil {
			return 0, nil, err
		}
		plain = unpadded
	}

	sd := codec.NewBoundedDecoder(bytes.NewReader(plain), int64(len(plain)))
	var seq SequenceHeader
	if err := seq.Decode(sd); err != nil {
		return 0, nil, fmt.Errorf("decode sequence header: %w", err)
	}
	offset := len(plain) - decoderRemainingLen(sd)
	return seq.RequestId, plain[offset:], nil
}

// installRemoteTokenIfRotatedLocked swaps in the pending remote key
// material when an incoming chunk first carries the new token id
// (spec.md §4.4, "Token rotation"). Caller holds recvMu.
func (c *SecureConversation) installRemoteTokenIfRotatedLocked(tokenId uint32) {
	if tokenId == c.remoteToken.TokenId {
		return
	}
	if c.pendingRemoteToken != nil && c.pendingRemoteToken.TokenId == tokenId {
		c.remoteToken = *c.pendingRemoteToken
		c.remoteMaterial = c.pendingRemoteMaterial
		c.pendingRemoteToken = nil
	}
}
