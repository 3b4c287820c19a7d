package ua

import (
	"github.com/rcarmo/go-opcua/internal/codec"
	"github.com/rcarmo/go-opcua/internal/registry"
)

// Binary-encoding NodeIds, namespace 0. These follow the standard OPC UA
// Part 6 Appendix A numbering scheme (request N, response N+3, each type's
// own Encoding_DefaultBinary alias N+2/N+5) rather than inventing a private
// scheme, so a capture of this client's wire traffic reads the same way a
// capture of any other OPC UA stack's would.
const (
	nidOpenSecureChannelRequest  = 446
	nidOpenSecureChannelResponse = 449
	nidCloseSecureChannelRequest = 452

	nidCreateSessionRequest    = 461
	nidCreateSessionResponse   = 464
	nidActivateSessionRequest  = 467
	nidActivateSessionResponse = 470
	nidCloseSessionRequest     = 473
	nidCloseSessionResponse    = 476

	nidAnonymousIdentityToken = 321
	nidUserNameIdentityToken  = 324
	nidX509IdentityToken      = 327
	nidIssuedIdentityToken    = 940

	nidReadRequest  = 631
	nidReadResponse = 634

	nidCreateSubscriptionRequest  = 789
	nidCreateSubscriptionResponse = 792
	nidPublishRequest             = 828
	nidPublishResponse            = 831
)

// RegisterAll binds every internal/ua message type to its binary-encoding
// NodeId on reg. Called once at startup (main or test setup), matching
// TypeRegistry's "scan once, read-only thereafter" contract — there is no
// package-level registry singleton to self-register into at init() time,
// since internal/registry.Registry is an explicit value its owner
// constructs, not a process-wide global.
func RegisterAll(reg *registry.Registry) {
	reg.Register(codec.NewNumericNodeId(0, nidOpenSecureChannelRequest), func() codec.Encodable { return &OpenSecureChannelRequest{} })
	reg.Register(codec.NewNumericNodeId(0, nidOpenSecureChannelResponse), func() codec.Encodable { return &OpenSecureChannelResponse{} })
	reg.Register(codec.NewNumericNodeId(0, nidCloseSecureChannelRequest), func() codec.Encodable { return &CloseSecureChannelRequest{} })

	reg.Register(codec.NewNumericNodeId(0, nidCreateSessionRequest), func() codec.Encodable { return &CreateSessionRequest{} })
	reg.Register(codec.NewNumericNodeId(0, nidCreateSessionResponse), func() codec.Encodable { return &CreateSessionResponse{} })
	reg.Register(codec.NewNumericNodeId(0, nidActivateSessionRequest), func() codec.Encodable { return &ActivateSessionRequest{} })
	reg.Register(codec.NewNumericNodeId(0, nidActivateSessionResponse), func() codec.Encodable { return &ActivateSessionResponse{} })
	reg.Register(codec.NewNumericNodeId(0, nidCloseSessionRequest), func() codec.Encodable { return &CloseSessionRequest{} })
	reg.Register(codec.NewNumericNodeId(0, nidCloseSessionResponse), func() codec.Encodable { return &CloseSessionResponse{} })

	reg.Register(codec.NewNumericNodeId(0, nidAnonymousIdentityToken), func() codec.Encodable { return &AnonymousIdentityToken{} })
	reg.Register(codec.NewNumericNodeId(0, nidUserNameIdentityToken), func() codec.Encodable { return &UserNameIdentityToken{} })
	reg.Register(codec.NewNumericNodeId(0, nidX509IdentityToken), func() codec.Encodable { return &X509IdentityToken{} })
	reg.Register(codec.NewNumericNodeId(0, nidIssuedIdentityToken), func() codec.Encodable { return &IssuedIdentityToken{} })

	reg.Register(codec.NewNumericNodeId(0, nidReadRequest), func() codec.Encodable { return &ReadRequest{} })
	reg.Register(codec.NewNumericNodeId(0, nidReadResponse), func() codec.Encodable { return &ReadResponse{} })

	reg.Register(codec.NewNumericNodeId(0, nidCreateSubscriptionRequest), func() codec.Encodable { return &CreateSubscriptionRequest{} })
	reg.Register(codec.NewNumericNodeId(0, nidCreateSubscriptionResponse), func() codec.Encodable { return &CreateSubscriptionResponse{} })
	reg.Register(codec.NewNumericNodeId(0, nidPublishRequest), func() codec.Encodable { return &PublishRequest{} })
	reg.Register(codec.NewNumericNodeId(0, nidPublishResponse), func() codec.Encodable { return &PublishResponse{} })
}

// NodeId helpers for the fast-dispatch cache internal/session arms on its
// receive decoder (spec.md §4.1, codec.Decoder.SetFastDispatch): Publish and
// Read are by far the hottest messages on a running channel.
var (
	ReadResponseNodeId    = codec.NewNumericNodeId(0, nidReadResponse)
	PublishResponseNodeId = codec.NewNumericNodeId(0, nidPublishResponse)
)
