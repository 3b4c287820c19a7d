// Package session implements spec.md §4.5's SessionClient: it drives one
// OPC UA session end to end — dialing the transport, opening a secure
// channel, creating and activating a session, bootstrapping the namespace
// and server arrays, and running the keep-alive subscription's publish
// loop. It plays the role the teacher's rdp.Client plays for RDP: a single
// mutex-guarded struct composing the layered protocol objects, built by a
// named step-chain Connect (internal/rdp/connect.go's idiom).
package session

import (
	"context"
	"crypto/rsa"
	"fmt"
	"sync"
	"time"

	"github.com/rcarmo/go-opcua/internal/codec"
	"github.com/rcarmo/go-opcua/internal/config"
	"github.com/rcarmo/go-opcua/internal/logging"
	"github.com/rcarmo/go-opcua/internal/metrics"
	"github.com/rcarmo/go-opcua/internal/registry"
	"github.com/rcarmo/go-opcua/internal/transport"
	"github.com/rcarmo/go-opcua/internal/ua"
	"github.com/rcarmo/go-opcua/internal/uasc"
)

// applicationURI identifies this client instance in CreateSessionRequest and
// in the certificate TrustStore issues it.
const applicationURI = "urn:go-opcua:client"

// NotificationHandler receives each PublishResponse's NotificationMessage as
// it arrives, fanned out from the publish pump (spec.md §5.1).
type NotificationHandler func(subscriptionId uint32, msg ua.NotificationMessage)

// Client owns one OPC UA session: its secure channel, its pending-request
// table, and its keep-alive subscription's publish loop.
type Client struct {
	cfg        *config.Config
	trustStore TrustStore
	metrics    *metrics.Metrics
	registry   *registry.Registry

	mu sync.RWMutex

	ch   *transport.Channel
	conv *uasc.SecureConversation

	profile uasc.PolicyProfile
	mode    uasc.SecurityMode

	localCertDER []byte
	localKey     *rsa.PrivateKey

	endpoint ua.EndpointDescription

	sessionId           codec.NodeId
	authenticationToken codec.NodeId
	lastServerNonce     []byte

	pending pendingTable

	subscriptionId uint32
	publishAcksMu  sync.Mutex
	publishAcks    map[uint32]uint32 // subscriptionId -> highest unacknowledged sequence number

	notify *notificationBroadcast

	doneCh chan struct{}
	wg     sync.WaitGroup

	closeOnce sync.Once
}

// NewClient builds a Client from cfg. It performs no I/O; call Connect to
// dial and run the handshake.
func NewClient(cfg *config.Config) (*Client, error) {
	if cfg == nil {
		if global := config.GetGlobalConfig(); global != nil {
			cfg = global
		} else {
			loaded, err := config.Load()
			if err != nil {
				return nil, fmt.Errorf("load config: %w", err)
			}
			cfg = loaded
		}
	}

	reg := registry.New()
	ua.RegisterAll(reg)

	return &Client{
		cfg:        cfg,
		trustStore: NewTrustStore(cfg.Security),
		metrics:    metrics.New(nil),
		registry:   reg,
		doneCh:     make(chan struct{}),
		notify:     newNotificationBroadcast(),
	}, nil
}

// Subscribe registers a new notification consumer on the publish pump's
// broadcast (spec.md §9: "a multi-producer, multi-consumer broadcast
// channel with bounded capacity and drop-oldest semantics for slow
// consumers"). The returned channel is closed when Unsubscribe is called or
// the client closes; a slow reader loses its oldest buffered notification
// rather than stalling delivery to every other subscriber.
func (c *Client) Subscribe() (id int, notifications <-chan ua.NotificationMessage) {
	subId, raw := c.notify.subscribe()
	out := make(chan ua.NotificationMessage, defaultBroadcastCapacity)
	go func() {
		defer close(out)
		for ev := range raw {
			out <- ev.Message
		}
	}()
	return subId, out
}

// Unsubscribe removes a consumer registered with Subscribe.
func (c *Client) Unsubscribe(id int) { c.notify.unsubscribe(id) }

// OnNotification registers a callback invoked for every notification the
// publish pump fans out, as a Subscribe subscriber consumed internally.
// Must be called before Connect to avoid missing the first publish.
func (c *Client) OnNotification(fn NotificationHandler) {
	_, ch := c.notify.subscribe()
	go func() {
		for ev := range ch {
			fn(ev.SubscriptionId, ev.Message)
		}
	}()
}

// Connect performs spec.md §4.5's nine-step handshake: dial, HEL/ACK, open
// secure channel, create session, activate session, read the namespace and
// server arrays, create the keep-alive subscription, then start the publish
// pump. The receive pump starts as soon as the channel is open; there is no
// separate send pump. Each step is wrapped with its name, per the teacher's
// Connect idiom.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.dialTransport(ctx); err != nil {
		return fmt.Errorf("dial transport: %w", err)
	}

	if err := c.openSecureChannel(ctx); err != nil {
		return fmt.Errorf("open secure channel: %w", err)
	}

	// The receive pump starts as soon as the channel is open: every
	// remaining handshake step is an ordinary request/response over the
	// pending-request table, so something must be draining the conversation
	// before the first call() blocks on its slot.
	c.wg.Add(1)
	go c.receivePump()

	if err := c.createSession(ctx); err != nil {
		return c.abortConnect(fmt.Errorf("create session: %w", err))
	}

	if err := c.activateSession(ctx); err != nil {
		return c.abortConnect(fmt.Errorf("activate session: %w", err))
	}

	if err := c.bootstrapNamespaces(ctx); err != nil {
		return c.abortConnect(fmt.Errorf("bootstrap namespace arrays: %w", err))
	}

	if err := c.createKeepAliveSubscription(ctx); err != nil {
		return c.abortConnect(fmt.Errorf("create keep-alive subscription: %w", err))
	}

	c.conv.OnRenewalDue(c.handleRenewalDue)

	c.wg.Add(1)
	go c.publishPump()

	logging.Info("session: connected to %s, session %s", c.cfg.Endpoint.URL, c.sessionId.String())
	return nil
}

// abortConnect tears down a half-built channel after a handshake step
// fails: closing the transport unblocks the already-running receive pump,
// which fails any pending slots and exits. The session-establishment
// sequence is all-or-nothing, so nothing is left for the caller to reuse.
func (c *Client) abortConnect(cause error) error {
	c.mu.RLock()
	ch := c.ch
	c.mu.RUnlock()
	if ch != nil {
		ch.Close()
	}
	c.wg.Wait()
	return cause
}

// Close ends the session (deleting its subscriptions), sends
// CLO, and tears down the pumps. Safe to call once; subsequent calls are a
// no-op, matching uasc.SecureConversation.Close's one-shot contract.
func (c *Client) Close(ctx context.Context) error {
	var closeErr error
	c.closeOnce.Do(func() {
		closeErr = c.closeSessionAndChannel(ctx)
		close(c.doneCh)
		c.wg.Wait()
		c.notify.closeAll()
	})
	return closeErr
}

func (c *Client) requestTimeout() time.Duration {
	if c.cfg.Session.RequestTimeout > 0 {
		return c.cfg.Session.RequestTimeout
	}
	return 10 * time.Second
}
