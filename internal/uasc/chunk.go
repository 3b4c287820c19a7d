package uasc

import (
	"github.com/rcarmo/go-opcua/internal/codec"
)

// Every OPN/MSG/CLO chunk body (as transport.Channel hands it to us, i.e.
// already past the 8-byte common message-type/flag/length header) begins
// with a 4-byte secure channel id, then a security header whose shape
// depends on the message type, then a sequence header, then the payload.

// AsymmetricSecurityHeader carries the policy URI and certificate material
// exchanged on OPN (spec.md §4.4's "security header" for asymmetric chunks).
type AsymmetricSecurityHeader struct {
	SecurityPolicyURI      string
	SenderCertificate      []byte // nil (-1 length) when policy is None
	ReceiverCertThumbprint []byte // nil (-1 length) when policy is None
}

func (h AsymmetricSecurityHeader) Encode(e *codec.Encoder) error {
	if err := e.WriteString(h.SecurityPolicyURI); err != nil {
		return err
	}
	if err := e.WriteByteString(h.SenderCertificate); err != nil {
		return err
	}
	return e.WriteByteString(h.ReceiverCertThumbprint)
}

func (h *AsymmetricSecurityHeader) Decode(d *codec.Decoder) error {
	uri, err := d.ReadString()
	if err != nil {
		return err
	}
	sender, err := d.ReadByteString()
	if err != nil {
		return err
	}
	thumb, err := d.ReadByteString()
	if err != nil {
		return err
	}
	h.SecurityPolicyURI = uri
	h.SenderCertificate = sender
	h.ReceiverCertThumbprint = thumb
	return nil
}

// SymmetricSecurityHeader carries only the current token id once a channel
// is in steady-state MSG/CLO exchange.
type SymmetricSecurityHeader struct {
	TokenId uint32
}

func (h SymmetricSecurityHeader) Encode(e *codec.Encoder) error { return e.WriteUint32(h.TokenId) }
func (h *SymmetricSecurityHeader) Decode(d *codec.Decoder) error {
	v, err := d.ReadUint32()
	h.TokenId = v
	return err
}

// SequenceHeader carries the per-chunk sequence number and the request
// handle the chunk belongs to.
type SequenceHeader struct {
	SequenceNumber uint32
	RequestId      uint32
}

func (h SequenceHeader) Encode(e *codec.Encoder) error {
	if err := e.WriteUint32(h.SequenceNumber); err != nil {
		return err
	}
	return e.WriteUint32(h.RequestId)
}

func (h *SequenceHeader) Decode(d *codec.Decoder) error {
	seq, err := d.ReadUint32()
	if err != nil {
		return err
	}
	req, err := d.ReadUint32()
	h.SequenceNumber = seq
	h.RequestId = req
	return err
}
