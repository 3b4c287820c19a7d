package ua

import (
	"time"

	"github.com/rcarmo/go-opcua/internal/codec"
)

// RequestHeader is stamped onto every service request: spec.md §4.5's
// {timestamp, authenticationToken, timeoutHint, diagnosticsHint}, plus the
// fields the wire format requires around them.
type RequestHeader struct {
	AuthenticationToken codec.NodeId
	Timestamp           time.Time
	RequestHandle       uint32
	ReturnDiagnostics   uint32
	AuditEntryId        *string
	TimeoutHint         uint32
	AdditionalHeader    codec.ExtensionObject
}

func (h RequestHeader) Encode(e *codec.Encoder) error {
	if err := e.WriteNodeId(h.AuthenticationToken); err != nil {
		return err
	}
	if err := e.WriteDateTime(h.Timestamp); err != nil {
		return err
	}
	if err := e.WriteUint32(h.RequestHandle); err != nil {
		return err
	}
	if err := e.WriteUint32(h.ReturnDiagnostics); err != nil {
		return err
	}
	if err := e.WriteStringPtr(h.AuditEntryId); err != nil {
		return err
	}
	if err := e.WriteUint32(h.TimeoutHint); err != nil {
		return err
	}
	return h.AdditionalHeader.Encode(e)
}

func (h *RequestHeader) Decode(d *codec.Decoder) error {
	var err error
	if h.AuthenticationToken, err = d.ReadNodeId(); err != nil {
		return err
	}
	if h.Timestamp, err = d.ReadDateTime(); err != nil {
		return err
	}
	if h.RequestHandle, err = d.ReadUint32(); err != nil {
		return err
	}
	if h.ReturnDiagnostics, err = d.ReadUint32(); err != nil {
		return err
	}
	if h.AuditEntryId, err = d.ReadStringPtr(); err != nil {
		return err
	}
	if h.TimeoutHint, err = d.ReadUint32(); err != nil {
		return err
	}
	return h.AdditionalHeader.Decode(d)
}

// ResponseHeader mirrors RequestHeader on the way back, carrying the
// service result and any string-table-indexed diagnostics.
type ResponseHeader struct {
	Timestamp          time.Time
	RequestHandle      uint32
	ServiceResult      StatusCode
	ServiceDiagnostics codec.DiagnosticInfo
	StringTable        []string
	AdditionalHeader   codec.ExtensionObject
}

func (h ResponseHeader) Encode(e *codec.Encoder) error {
	if err := e.WriteDateTime(h.Timestamp); err != nil {
		return err
	}
	if err := e.WriteUint32(h.RequestHandle); err != nil {
		return err
	}
	if err := WriteStatusCode(e, h.ServiceResult); err != nil {
		return err
	}
	if err := h.ServiceDiagnostics.Encode(e); err != nil {
		return err
	}
	if err := e.WriteStringArray(h.StringTable); err != nil {
		return err
	}
	return h.AdditionalHeader.Encode(e)
}

func (h *ResponseHeader) Decode(d *codec.Decoder) error {
	var err error
	if h.Timestamp, err = d.ReadDateTime(); err != nil {
		return err
	}
	if h.RequestHandle, err = d.ReadUint32(); err != nil {
		return err
	}
	if h.ServiceResult, err = ReadStatusCode(d); err != nil {
		return err
	}
	if err := h.ServiceDiagnostics.Decode(d); err != nil {
		return err
	}
	if h.StringTable, err = d.ReadStringArray(); err != nil {
		return err
	}
	return h.AdditionalHeader.Decode(d)
}

// ApplicationType names what role an ApplicationDescription describes.
type ApplicationType int32

const (
	ApplicationTypeServer ApplicationType = iota
	ApplicationTypeClient
	ApplicationTypeClientAndServer
	ApplicationTypeDiscoveryServer
)

// ApplicationDescription identifies one OPC UA application instance
// (spec.md §3.1's endpoint-model supplement).
type ApplicationDescription struct {
	ApplicationUri      string
	ProductUri          string
	ApplicationName     codec.LocalizedText
	ApplicationType     ApplicationType
	GatewayServerUri    *string
	DiscoveryProfileUri *string
	DiscoveryUrls       []string
}

func (a ApplicationDescription) Encode(e *codec.Encoder) error {
	if err := e.WriteString(a.ApplicationUri); err != nil {
		return err
	}
	if err := e.WriteString(a.ProductUri); err != nil {
		return err
	}
	if err := e.WriteLocalizedText(a.ApplicationName); err != nil {
		return err
	}
	if err := e.WriteInt32(int32(a.ApplicationType)); err != nil {
		return err
	}
	if err := e.WriteStringPtr(a.GatewayServerUri); err != nil {
		return err
	}
	if err := e.WriteStringPtr(a.DiscoveryProfileUri); err != nil {
		return err
	}
	return e.WriteStringArray(a.DiscoveryUrls)
}

func (a *ApplicationDescription) Decode(d *codec.Decoder) error {
	var err error
	if a.ApplicationUri, err = d.ReadString(); err != nil {
		return err
	}
	if a.ProductUri, err = d.ReadString(); err != nil {
		return err
	}
	if a.ApplicationName, err = d.ReadLocalizedText(); err != nil {
		return err
	}
	t, err := d.ReadInt32()
	if err != nil {
		return err
	}
	a.ApplicationType = ApplicationType(t)
	if a.GatewayServerUri, err = d.ReadStringPtr(); err != nil {
		return err
	}
	if a.DiscoveryProfileUri, err = d.ReadStringPtr(); err != nil {
		return err
	}
	if a.DiscoveryUrls, err = d.ReadStringArray(); err != nil {
		return err
	}
	return nil
}

// UserTokenType names the identity kind a UserTokenPolicy accepts.
type UserTokenType int32

const (
	UserTokenTypeAnonymous UserTokenType = iota
	UserTokenTypeUserName
	UserTokenTypeCertificate
	UserTokenTypeIssuedToken
)

// UserTokenPolicy is one identity option an EndpointDescription advertises.
type UserTokenPolicy struct {
	PolicyId          string
	TokenType         UserTokenType
	IssuedTokenType   *string
	IssuerEndpointUrl *string
	SecurityPolicyUri *string
}

func (p UserTokenPolicy) Encode(e *codec.Encoder) error {
	if err := e.WriteString(p.PolicyId); err != nil {
		return err
	}
	if err := e.WriteInt32(int32(p.TokenType)); err != nil {
		return err
	}
	if err := e.WriteStringPtr(p.IssuedTokenType); err != nil {
		return err
	}
	if err := e.WriteStringPtr(p.IssuerEndpointUrl); err != nil {
		return err
	}
	return e.WriteStringPtr(p.SecurityPolicyUri)
}

func (p *UserTokenPolicy) Decode(d *codec.Decoder) error {
	var err error
	if p.PolicyId, err = d.ReadString(); err != nil {
		return err
	}
	t, err := d.ReadInt32()
	if err != nil {
		return err
	}
	p.TokenType = UserTokenType(t)
	if p.IssuedTokenType, err = d.ReadStringPtr(); err != nil {
		return err
	}
	if p.IssuerEndpointUrl, err = d.ReadStringPtr(); err != nil {
		return err
	}
	if p.SecurityPolicyUri, err = d.ReadStringPtr(); err != nil {
		return err
	}
	return nil
}

// MessageSecurityMode is the session-layer's own copy of the mode
// enumeration the wire format transmits as a plain Int32; uasc.SecurityMode
// is the secure-conversation layer's typed equivalent. Kept as two distinct
// types so internal/ua never imports internal/uasc — internal/session maps
// between them at the one seam that needs both.
type MessageSecurityMode int32

const (
	MessageSecurityModeInvalid MessageSecurityMode = iota
	MessageSecurityModeNone
	MessageSecurityModeSign
	MessageSecurityModeSignAndEncrypt
)

// EndpointDescription is one server endpoint offering, carrying the
// policy/mode/certificate/identity-options tuple SessionClient's handshake
// reads from (spec.md §3.1/§4.5, SPEC_FULL.md §3.2).
type EndpointDescription struct {
	EndpointUrl         string
	Server              ApplicationDescription
	ServerCertificate   []byte
	SecurityMode        MessageSecurityMode
	SecurityPolicyUri   string
	UserIdentityTokens  []UserTokenPolicy
	TransportProfileUri string
	SecurityLevel       byte
}

func (ep EndpointDescription) Encode(e *codec.Encoder) error {
	if err := e.WriteString(ep.EndpointUrl); err != nil {
		return err
	}
	if err := ep.Server.Encode(e); err != nil {
		return err
	}
	if err := e.WriteByteString(ep.ServerCertificate); err != nil {
		return err
	}
	if err := e.WriteInt32(int32(ep.SecurityMode)); err != nil {
		return err
	}
	if err := e.WriteString(ep.SecurityPolicyUri); err != nil {
		return err
	}
	if err := e.WriteArrayLength(len(ep.UserIdentityTokens), ep.UserIdentityTokens == nil); err != nil {
		return err
	}
	for _, p := range ep.UserIdentityTokens {
		if err := p.Encode(e); err != nil {
			return err
		}
	}
	if err := e.WriteString(ep.TransportProfileUri); err != nil {
		return err
	}
	return e.WriteByte(ep.SecurityLevel)
}

func (ep *EndpointDescription) Decode(d *codec.Decoder) error {
	var err error
	if ep.EndpointUrl, err = d.ReadString(); err != nil {
		return err
	}
	if err := ep.Server.Decode(d); err != nil {
		return err
	}
	if ep.ServerCertificate, err = d.ReadByteString(); err != nil {
		return err
	}
	mode, err := d.ReadInt32()
	if err != nil {
		return err
	}
	ep.SecurityMode = MessageSecurityMode(mode)
	if ep.SecurityPolicyUri, err = d.ReadString(); err != nil {
		return err
	}
	n, err := d.ReadArrayLength()
	if err != nil {
		return err
	}
	if n >= 0 {
		ep.UserIdentityTokens = make([]UserTokenPolicy, n)
		for i := range ep.UserIdentityTokens {
			if err := ep.UserIdentityTokens[i].Decode(d); err != nil {
				return err
			}
		}
	}
	if ep.TransportProfileUri, err = d.ReadString(); err != nil {
		return err
	}
	ep.SecurityLevel, err = d.ReadByte()
	return err
}

// SignatureData carries an algorithm URI plus the signature bytes it
// produced; used by the client/server signature exchange in
// CreateSession/ActivateSession.
type SignatureData struct {
	Algorithm *string
	Signature []byte
}

func (s SignatureData) Encode(e *codec.Encoder) error {
	if err := e.WriteStringPtr(s.Algorithm); err != nil {
		return err
	}
	return e.WriteByteString(s.Signature)
}

func (s *SignatureData) Decode(d *codec.Decoder) error {
	var err error
	if s.Algorithm, err = d.ReadStringPtr(); err != nil {
		return err
	}
	s.Signature, err = d.ReadByteString()
	return err
}

// SignedSoftwareCertificate is decoded opaquely: spec.md's XML-ExtensionObject
// non-goal means its body is never parsed, only carried.
type SignedSoftwareCertificate struct {
	CertificateData []byte
	Signature       []byte
}

func (c SignedSoftwareCertificate) Encode(e *codec.Encoder) error {
	if err := e.WriteByteString(c.CertificateData); err != nil {
		return err
	}
	return e.WriteByteString(c.Signature)
}

func (c *SignedSoftwareCertificate) Decode(d *codec.Decoder) error {
	var err error
	if c.CertificateData, err = d.ReadByteString(); err != nil {
		return err
	}
	c.Signature, err = d.ReadByteString()
	return err
}
