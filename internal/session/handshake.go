package session

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rcarmo/go-opcua/internal/codec"
	"github.com/rcarmo/go-opcua/internal/config"
	"github.com/rcarmo/go-opcua/internal/logging"
	"github.com/rcarmo/go-opcua/internal/transport"
	"github.com/rcarmo/go-opcua/internal/ua"
	"github.com/rcarmo/go-opcua/internal/uasc"
)

// dialTransport is Connect's step 1-2: open the TCP connection and run the
// UA-TCP HELLO/ACK preamble (spec.md §4.3).
func (c *Client) dialTransport(ctx context.Context) error {
	addr, endpointURL, err := splitEndpointURL(c.cfg.Endpoint.URL)
	if err != nil {
		return err
	}

	ch, err := transport.Dial(ctx, addr, c.cfg.Endpoint.DialTimeout)
	if err != nil {
		return err
	}
	if err := ch.Hello(ctx, endpointURL); err != nil {
		ch.Close()
		return err
	}

	c.mu.Lock()
	c.ch = ch
	c.mu.Unlock()
	return nil
}

// splitEndpointURL turns an opc.tcp://host:port/path URL into the bare
// host:port transport.Dial wants, while keeping the full URL to hand HELLO.
func splitEndpointURL(endpointURL string) (addr, full string, err error) {
	const scheme = "opc.tcp://"
	if !strings.HasPrefix(endpointURL, scheme) {
		return "", "", fmt.Errorf("endpoint url must use the opc.tcp scheme: %s", endpointURL)
	}
	rest := endpointURL[len(scheme):]
	hostPort := rest
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		hostPort = rest[:i]
	}
	if !strings.Contains(hostPort, ":") {
		hostPort += ":4840"
	}
	return hostPort, endpointURL, nil
}

// resolveSecurityMode maps config.EndpointConfig.SecurityMode's string form
// to both layers' typed enumerations. internal/ua deliberately never
// imports uasc.SecurityMode (see ua.MessageSecurityMode's doc comment), so
// this is the one seam that maps between them.
func resolveSecurityMode(mode string) (uasc.SecurityMode, ua.MessageSecurityMode, error) {
	switch strings.ToLower(mode) {
	case "", "none":
		return uasc.ModeNone, ua.MessageSecurityModeNone, nil
	case "sign":
		return uasc.ModeSign, ua.MessageSecurityModeSign, nil
	case "signandencrypt":
		return uasc.ModeSignAndEncrypt, ua.MessageSecurityModeSignAndEncrypt, nil
	default:
		return uasc.ModeInvalid, ua.MessageSecurityModeInvalid, fmt.Errorf("%w: %s", uasc.ErrSecurityModeRejected, mode)
	}
}

func uaSecurityModeFor(mode uasc.SecurityMode) ua.MessageSecurityMode {
	switch mode {
	case uasc.ModeSign:
		return ua.MessageSecurityModeSign
	case uasc.ModeSignAndEncrypt:
		return ua.MessageSecurityModeSignAndEncrypt
	default:
		return ua.MessageSecurityModeNone
	}
}

// loadServerCertificate returns the DER bytes of the server certificate
// pinned in config, validated against the trust store. Policy None never
// calls this: there is no asymmetric exchange to validate a certificate
// for.
func (c *Client) loadServerCertificate() ([]byte, error) {
	if c.cfg.Endpoint.ServerCertFile == "" {
		return nil, fmt.Errorf("endpoint.serverCertFile is required for a non-None security policy")
	}
	raw, err := os.ReadFile(c.cfg.Endpoint.ServerCertFile)
	if err != nil {
		return nil, fmt.Errorf("read server certificate: %w", err)
	}
	der := raw
	if block, _ := pem.Decode(raw); block != nil {
		der = block.Bytes
	}
	if _, err := x509.ParseCertificate(der); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCertificateMismatch, err)
	}
	if err := c.trustStore.ValidateRemoteCertificate(der); err != nil {
		return nil, err
	}
	return der, nil
}

// openSecureChannel is Connect's step 3: negotiate the security policy and
// mode, generate a client nonce, and perform the OPN exchange over
// internal/uasc.
func (c *Client) openSecureChannel(ctx context.Context) error {
	profile, err := uasc.ProfileForURI(c.cfg.Endpoint.SecurityPolicy)
	if err != nil {
		return err
	}
	mode, uaMode, err := resolveSecurityMode(c.cfg.Endpoint.SecurityMode)
	if err != nil {
		return err
	}

	var remoteCertDER []byte
	if mode != uasc.ModeNone {
		remoteCertDER, err = c.loadServerCertificate()
		if err != nil {
			return err
		}
	}

	certDER, key, err := c.trustStore.LocalCertificateAndKey(applicationURI)
	if err != nil {
		return err
	}
	if mode == uasc.ModeNone {
		certDER, key = nil, nil
	}

	conv, err := uasc.New(c.ch, profile, mode, certDER, key, c.metrics)
	if err != nil {
		return err
	}

	clientNonce, err := uasc.NewNonce(profile)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conv = conv
	c.profile = profile
	c.mode = mode
	c.localCertDER = certDER
	c.localKey = key
	c.mu.Unlock()

	req := &ua.OpenSecureChannelRequest{
		RequestHeader:         c.newRequestHeader(c.pending.nextHandle(), c.requestTimeout()),
		ClientProtocolVersion: 0,
		RequestType:           ua.SecurityTokenRequestTypeIssue,
		SecurityMode:          uaMode,
		ClientNonce:           clientNonce,
		RequestedLifetime:     3_600_000,
	}
	payload, err := c.encodeMessage(req)
	if err != nil {
		return err
	}

	_, _, err = conv.Open(ctx, req.RequestHeader.RequestHandle, payload, remoteCertDER, clientNonce, c.parseOpenResponse)
	return err
}

// handleRenewalDue is registered with uasc.OnRenewalDue; it builds and sends
// a RenewSecureChannelRequest on the 75%-of-lifetime schedule uasc tracks
// (spec.md §4.4's renewal step).
func (c *Client) handleRenewalDue() {
	ctx, cancel := context.WithTimeout(context.Background(), c.requestTimeout())
	defer cancel()

	c.mu.RLock()
	conv, profile, mode := c.conv, c.profile, c.mode
	c.mu.RUnlock()
	if conv == nil {
		return
	}

	clientNonce, err := uasc.NewNonce(profile)
	if err != nil {
		logging.Warn("session: generate renewal nonce: %v", err)
		return
	}

	req := &ua.OpenSecureChannelRequest{
		RequestHeader:         c.newRequestHeader(c.pending.nextHandle(), c.requestTimeout()),
		ClientProtocolVersion: 0,
		RequestType:           ua.SecurityTokenRequestTypeRenew,
		SecurityMode:          uaSecurityModeFor(mode),
		ClientNonce:           clientNonce,
		RequestedLifetime:     3_600_000,
	}
	payload, err := c.encodeMessage(req)
	if err != nil {
		logging.Warn("session: encode renewal request: %v", err)
		return
	}

	if _, err := conv.Renew(ctx, req.RequestHeader.RequestHandle, payload, clientNonce, c.parseOpenResponse); err != nil {
		logging.Warn("session: renew secure channel: %v", err)
	}
}

// parseOpenResponse decodes an OpenSecureChannelResponse body into the
// uasc.OpenResult both Open and Renew need; shared so the renewal path
// stays byte-for-byte consistent with the initial handshake.
func (c *Client) parseOpenResponse(body []byte) (uasc.OpenResult, error) {
	_, decoded, err := c.decodeMessage(body)
	if err != nil {
		return uasc.OpenResult{}, err
	}
	resp, ok := decoded.(*ua.OpenSecureChannelResponse)
	if !ok {
		return uasc.OpenResult{}, fmt.Errorf("unexpected response type opening secure channel")
	}
	if err := serviceError(resp.ResponseHeader.ServiceResult); err != nil {
		return uasc.OpenResult{}, err
	}
	return uasc.OpenResult{
		ChannelId:       resp.SecurityToken.ChannelId,
		TokenId:         resp.SecurityToken.TokenId,
		RevisedLifetime: time.Duration(resp.SecurityToken.RevisedLifetime) * time.Millisecond,
		ServerNonce:     resp.ServerNonce,
	}, nil
}

// createSession is Connect's step 4: introduce the client and exchange
// nonces with the server.
func (c *Client) createSession(ctx context.Context) error {
	c.mu.RLock()
	profile, mode := c.profile, c.mode
	c.mu.RUnlock()

	clientNonce, err := uasc.NewNonce(profile)
	if err != nil {
		return err
	}

	clientName := "go-opcua client"
	req := &ua.CreateSessionRequest{
		RequestHeader: c.newRequestHeader(c.pending.nextHandle(), c.requestTimeout()),
		ClientDescription: ua.ApplicationDescription{
			ApplicationUri:  applicationURI,
			ProductUri:      "urn:go-opcua:client:product",
			ApplicationName: codec.LocalizedText{Text: &clientName},
			ApplicationType: ua.ApplicationTypeClient,
		},
		EndpointUrl:             c.cfg.Endpoint.URL,
		SessionName:             fmt.Sprintf("go-opcua-%d", time.Now().UnixNano()),
		ClientNonce:             clientNonce,
		ClientCertificate:       c.localCertDER,
		RequestedSessionTimeout: float64(c.cfg.Session.SessionTimeout.Milliseconds()),
		MaxResponseMessageSize:  uint32(c.cfg.Endpoint.MaxMessageSize),
	}

	respBody, err := c.call(ctx, req.RequestHeader.RequestHandle, req, c.requestTimeout())
	if err != nil {
		return err
	}
	resp, ok := respBody.(*ua.CreateSessionResponse)
	if !ok {
		return fmt.Errorf("unexpected response type creating session")
	}
	if err := serviceError(resp.ResponseHeader.ServiceResult); err != nil {
		return err
	}

	if mode != uasc.ModeNone {
		pinned, err := c.loadServerCertificate()
		if err != nil {
			return err
		}
		if !certBytesEqual(resp.ServerCertificate, pinned) {
			return ErrCertificateMismatch
		}
		cert, err := x509.ParseCertificate(resp.ServerCertificate)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCertificateMismatch, err)
		}
		rsaPub, ok := cert.PublicKey.(*rsa.PublicKey)
		if !ok {
			return fmt.Errorf("%w: server certificate is not RSA", ErrCertificateMismatch)
		}
		signInput := append(append([]byte{}, c.localCertDER...), clientNonce...)
		if err := verifySessionSignature(rsaPub, profile, signInput, resp.ServerSignature.Signature); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.sessionId = resp.SessionId
	c.authenticationToken = resp.AuthenticationToken
	c.lastServerNonce = resp.ServerNonce
	c.endpoint = pickEndpoint(resp.ServerEndpoints, c.cfg)
	c.mu.Unlock()

	return nil
}

// activateSession is Connect's step 5: prove possession of the channel
// certificate's private key and hand over the identity token.
func (c *Client) activateSession(ctx context.Context) error {
	c.mu.RLock()
	profile, mode, serverNonce := c.profile, c.mode, c.lastServerNonce
	localKey := c.localKey
	c.mu.RUnlock()

	var clientSig ua.SignatureData
	if mode != uasc.ModeNone {
		pinned, err := c.loadServerCertificate()
		if err != nil {
			return err
		}
		signInput := append(append([]byte{}, pinned...), serverNonce...)
		sig, err := signSessionData(localKey, profile, signInput)
		if err != nil {
			return err
		}
		alg := signatureAlgorithmURI(profile)
		clientSig = ua.SignatureData{Algorithm: &alg, Signature: sig}
	}

	identityToken, tokenSig, err := c.buildIdentityToken(serverNonce)
	if err != nil {
		return err
	}
	var userTokenSig ua.SignatureData
	if tokenSig != nil {
		userTokenSig = *tokenSig
	}

	req := &ua.ActivateSessionRequest{
		RequestHeader:      c.newRequestHeader(c.pending.nextHandle(), c.requestTimeout()),
		ClientSignature:    clientSig,
		LocaleIds:          []string{"en"},
		UserIdentityToken:  identityToken,
		UserTokenSignature: userTokenSig,
	}

	respBody, err := c.call(ctx, req.RequestHeader.RequestHandle, req, c.requestTimeout())
	if err != nil {
		return err
	}
	resp, ok := respBody.(*ua.ActivateSessionResponse)
	if !ok {
		return fmt.Errorf("unexpected response type activating session")
	}
	if err := serviceError(resp.ResponseHeader.ServiceResult); err != nil {
		return err
	}

	c.mu.Lock()
	c.lastServerNonce = resp.ServerNonce
	c.mu.Unlock()
	return nil
}

// serverNamespaceArrayNodeId and serverServerArrayNodeId are the well-known
// ns=0 nodes bootstrapNamespaces reads (spec.md §4.5 step 7); there is no
// namespace/server-array discovery service, these ids are fixed by the
// standard information model.
var (
	serverNamespaceArrayNodeId = codec.NewNumericNodeId(0, 2255)
	serverServerArrayNodeId    = codec.NewNumericNodeId(0, 2254)
)

// bootstrapNamespaces is Connect's step 6: read the server's namespace and
// server arrays so NodeId namespace indices in later requests can be
// resolved against human-readable URIs.
func (c *Client) bootstrapNamespaces(ctx context.Context) error {
	req := &ua.ReadRequest{
		RequestHeader:      c.newRequestHeader(c.pending.nextHandle(), c.requestTimeout()),
		TimestampsToReturn: ua.TimestampsToReturnNeither,
		NodesToRead: []ua.ReadValueId{
			{NodeId: serverNamespaceArrayNodeId, AttributeId: 13},
			{NodeId: serverServerArrayNodeId, AttributeId: 13},
		},
	}

	respBody, err := c.call(ctx, req.RequestHeader.RequestHandle, req, c.requestTimeout())
	if err != nil {
		return err
	}
	resp, ok := respBody.(*ua.ReadResponse)
	if !ok {
		return fmt.Errorf("unexpected response type reading namespace arrays")
	}
	if err := serviceError(resp.ResponseHeader.ServiceResult); err != nil {
		return err
	}
	for _, v := range resp.Results {
		if v.Status != nil && !ua.StatusCode(*v.Status).IsGood() {
			logging.Warn("session: bootstrap read returned %s", ua.StatusCode(*v.Status))
		}
	}
	return nil
}

// createKeepAliveSubscription is Connect's step 7: open the subscription
// the publish pump keeps alive for the lifetime of the session.
func (c *Client) createKeepAliveSubscription(ctx context.Context) error {
	interval := c.cfg.Session.PublishInterval
	if interval <= 0 {
		interval = time.Second
	}

	req := &ua.CreateSubscriptionRequest{
		RequestHeader:               c.newRequestHeader(c.pending.nextHandle(), c.requestTimeout()),
		RequestedPublishingInterval: float64(interval.Milliseconds()),
		RequestedLifetimeCount:      600,
		RequestedMaxKeepAliveCount:  20,
		MaxNotificationsPerPublish:  0,
		PublishingEnabled:           true,
	}

	respBody, err := c.call(ctx, req.RequestHeader.RequestHandle, req, c.requestTimeout())
	if err != nil {
		return err
	}
	resp, ok := respBody.(*ua.CreateSubscriptionResponse)
	if !ok {
		return fmt.Errorf("unexpected response type creating subscription")
	}
	if err := serviceError(resp.ResponseHeader.ServiceResult); err != nil {
		return err
	}

	c.mu.Lock()
	c.subscriptionId = resp.SubscriptionId
	c.mu.Unlock()
	return nil
}

// closeSessionAndChannel is Close's single step: ask the server to delete
// the session's subscriptions, then tear down the secure channel and the
// transport connection underneath it.
func (c *Client) closeSessionAndChannel(ctx context.Context) error {
	c.mu.RLock()
	conv, ch := c.conv, c.ch
	c.mu.RUnlock()

	if conv == nil {
		return nil
	}

	req := &ua.CloseSessionRequest{
		RequestHeader:       c.newRequestHeader(c.pending.nextHandle(), c.requestTimeout()),
		DeleteSubscriptions: true,
	}
	if _, err := c.call(ctx, req.RequestHeader.RequestHandle, req, c.requestTimeout()); err != nil {
		logging.Warn("session: close session request: %v", err)
	}

	closeReq := &ua.CloseSecureChannelRequest{
		RequestHeader: c.newRequestHeader(c.pending.nextHandle(), c.requestTimeout()),
	}
	payload, err := c.encodeMessage(closeReq)
	if err != nil {
		logging.Warn("session: encode close secure channel request: %v", err)
	} else if err := conv.Close(closeReq.RequestHeader.RequestHandle, payload); err != nil {
		logging.Warn("session: close secure channel: %v", err)
	}

	if ch != nil {
		return ch.Close()
	}
	return nil
}

// pickEndpoint selects the EndpointDescription matching the configured
// security policy out of CreateSessionResponse.ServerEndpoints, falling
// back to the first advertised endpoint. Endpoint choice in this client is
// driven by config, not a GetEndpoints discovery call: spec.md's service
// set does not include discovery, so the server's own endpoint list is
// used only to find the matching UserIdentityTokens policy ids.
func pickEndpoint(endpoints []ua.EndpointDescription, cfg *config.Config) ua.EndpointDescription {
	for _, ep := range endpoints {
		if ep.SecurityPolicyUri == cfg.Endpoint.SecurityPolicy {
			return ep
		}
	}
	if len(endpoints) > 0 {
		return endpoints[0]
	}
	return ua.EndpointDescription{}
}
