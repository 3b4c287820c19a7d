package uasc

import (
	"context"
	"fmt"
	"time"
)

// OnRenewalDue registers the callback invoked when the local token reaches
// 75% of its revised lifetime. The caller (normally the session layer)
// builds a RenewSecureChannelRequest and calls Renew with it; uasc itself
// only tracks the schedule, since constructing the request body requires
// the ua package's request header plumbing.
func (c *SecureConversation) OnRenewalDue(fn func()) {
	c.renewMu.Lock()
	c.onRenewalDue = fn
	c.renewMu.Unlock()
}

func (c *SecureConversation) scheduleRenewal() {
	c.renewMu.Lock()
	defer c.renewMu.Unlock()
	if c.renewTimer != nil {
		c.renewTimer.Stop()
	}
	if c.localToken.RevisedLifetime <= 0 {
		return
	}
	due := c.localToken.RevisedLifetime * 3 / 4
	c.renewTimer = time.AfterFunc(due, func() {
		c.renewMu.Lock()
		fn := c.onRenewalDue
		c.renewMu.Unlock()
		if fn != nil {
			fn()
		}
	})
}

// Renew performs an OPN-Renew: it sends requestBody (a
// RenewSecureChannelRequest) as a new OPN chunk under the existing channel
// id, replaces the channel's token and key material atomically under the
// send lock on success, and arms the new renewal timer.
//
// The receive side's new verifier/decryptor keys are not installed
// immediately; per spec.md §4.4 they are staged as "pending" and swapped in
// only when an incoming MSG first carries the new token id.
func (c *SecureConversation) Renew(ctx context.Context, requestId uint32, requestBody []byte, localNonce []byte, parseResponse func([]byte) (OpenResult, error)) (OpenResult, error) {
	if err := c.checkNotFaulted(); err != nil {
		return OpenResult{}, err
	}

	c.sendMu.Lock()
	err := c.sendOpen(requestId, requestBody)
	c.sendMu.Unlock()
	if err != nil {
		return OpenResult{}, c.fault(err)
	}

	// The channel's single reader (the owning session's receive pump, in a
	// Receive call) picks the OPN response out of the MSG stream and hands
	// it over on opnRespCh; reading the transport directly here would race
	// that reader for the frame.
	var respBody []byte
	select {
	case resp := <-c.opnRespCh:
		if resp.err != nil {
			return OpenResult{}, c.fault(resp.err)
		}
		respBody = resp.body
	case <-ctx.Done():
		return OpenResult{}, ctx.Err()
	}

	result, err := parseResponse(respBody)
	if err != nil {
		return OpenResult{}, c.fault(fmt.Errorf("parse RenewSecureChannelResponse: %w", err))
	}

	newToken := ChannelToken{ChannelId: c.channelId, TokenId: result.TokenId, CreatedAt: timeNow(), RevisedLifetime: result.RevisedLifetime}

	var localMat, remoteMat SecurityMaterial
	if c.mode != ModeNone {
		localMat, remoteMat = deriveDirectionalMaterial(c.profile, localNonce, result.ServerNonce)
	}

	c.sendMu.Lock()
	c.localToken = newToken
	c.localMaterial = localMat
	c.sendMu.Unlock()

	c.recvMu.Lock()
	pending := newToken
	c.pendingRemoteToken = &pending
	c.pendingRemoteMaterial = remoteMat
	c.recvMu.Unlock()

	c.metrics.RecordRenewal()
	c.scheduleRenewal()
	return result, nil
}
