package ua

import (
	"time"

	"github.com/rcarmo/go-opcua/internal/codec"
)

// SecurityTokenRequestType distinguishes an initial channel open from a
// renewal (spec.md §4.4's "Token").
type SecurityTokenRequestType int32

const (
	SecurityTokenRequestTypeIssue SecurityTokenRequestType = iota
	SecurityTokenRequestTypeRenew
)

// ChannelSecurityToken is the token tuple an OpenSecureChannelResponse
// returns; uasc.OpenResult is built from these four fields by the caller
// that decodes this response (see internal/uasc.SecureConversation.Open).
type ChannelSecurityToken struct {
	ChannelId       uint32
	TokenId         uint32
	CreatedAt       time.Time
	RevisedLifetime uint32 // milliseconds, per the wire format
}

func (t ChannelSecurityToken) Encode(e *codec.Encoder) error {
	if err := e.WriteUint32(t.ChannelId); err != nil {
		return err
	}
	if err := e.WriteUint32(t.TokenId); err != nil {
		return err
	}
	if err := e.WriteDateTime(t.CreatedAt); err != nil {
		return err
	}
	return e.WriteUint32(t.RevisedLifetime)
}

func (t *ChannelSecurityToken) Decode(d *codec.Decoder) error {
	var err error
	if t.ChannelId, err = d.ReadUint32(); err != nil {
		return err
	}
	if t.TokenId, err = d.ReadUint32(); err != nil {
		return err
	}
	if t.CreatedAt, err = d.ReadDateTime(); err != nil {
		return err
	}
	t.RevisedLifetime, err = d.ReadUint32()
	return err
}

// OpenSecureChannelRequest is the OPN body carried inside the asymmetric
// chunk spec.md §4.4 describes; RequestHeader.AuthenticationToken is null on
// this request (no session exists yet).
type OpenSecureChannelRequest struct {
	RequestHeader         RequestHeader
	ClientProtocolVersion uint32
	RequestType           SecurityTokenRequestType
	SecurityMode          MessageSecurityMode
	ClientNonce           []byte
	RequestedLifetime     uint32 // milliseconds
}

func (r OpenSecureChannelRequest) Encode(e *codec.Encoder) error {
	if err := r.RequestHeader.Encode(e); err != nil {
		return err
	}
	if err := e.WriteUint32(r.ClientProtocolVersion); err != nil {
		return err
	}
	if err := e.WriteInt32(int32(r.RequestType)); err != nil {
		return err
	}
	if err := e.WriteInt32(int32(r.SecurityMode)); err != nil {
		return err
	}
	if err := e.WriteByteString(r.ClientNonce); err != nil {
		return err
	}
	return e.WriteUint32(r.RequestedLifetime)
}

func (r *OpenSecureChannelRequest) Decode(d *codec.Decoder) error {
	if err := r.RequestHeader.Decode(d); err != nil {
		return err
	}
	var err error
	if r.ClientProtocolVersion, err = d.ReadUint32(); err != nil {
		return err
	}
	rt, err := d.ReadInt32()
	if err != nil {
		return err
	}
	r.RequestType = SecurityTokenRequestType(rt)
	sm, err := d.ReadInt32()
	if err != nil {
		return err
	}
	r.SecurityMode = MessageSecurityMode(sm)
	if r.ClientNonce, err = d.ReadByteString(); err != nil {
		return err
	}
	r.RequestedLifetime, err = d.ReadUint32()
	return err
}

// OpenSecureChannelResponse is the OPN response; internal/session's
// parseResponse callback for uasc.Open/Renew decodes exactly this type and
// extracts the fields uasc.OpenResult needs.
type OpenSecureChannelResponse struct {
	ResponseHeader        ResponseHeader
	ServerProtocolVersion uint32
	SecurityToken         ChannelSecurityToken
	ServerNonce           []byte
}

func (r OpenSecureChannelResponse) Encode(e *codec.Encoder) error {
	if err := r.ResponseHeader.Encode(e); err != nil {
		return err
	}
	if err := e.WriteUint32(r.ServerProtocolVersion); err != nil {
		return err
	}
	if err := r.SecurityToken.Encode(e); err != nil {
		return err
	}
	return e.WriteByteString(r.ServerNonce)
}

func (r *OpenSecureChannelResponse) Decode(d *codec.Decoder) error {
	if err := r.ResponseHeader.Decode(d); err != nil {
		return err
	}
	var err error
	if r.ServerProtocolVersion, err = d.ReadUint32(); err != nil {
		return err
	}
	if err := r.SecurityToken.Decode(d); err != nil {
		return err
	}
	r.ServerNonce, err = d.ReadByteString()
	return err
}

// CloseSecureChannelRequest is the CLO body; the server does not reply,
// per internal/uasc.SecureConversation.Close's doc comment.
type CloseSecureChannelRequest struct {
	RequestHeader RequestHeader
}

func (r CloseSecureChannelRequest) Encode(e *codec.Encoder) error { return r.RequestHeader.Encode(e) }

func (r *CloseSecureChannelRequest) Decode(d *codec.Decoder) error { return r.RequestHeader.Decode(d) }
