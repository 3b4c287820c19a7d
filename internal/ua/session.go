package ua

import (
	"github.com/rcarmo/go-opcua/internal/codec"
)

// CreateSessionRequest is the first half of spec.md §4.5's handshake: the
// client introduces itself, proposes an endpoint, and hands over a fresh
// nonce the server signs back to prove possession of its private key.
type CreateSessionRequest struct {
	RequestHeader           RequestHeader
	ClientDescription       ApplicationDescription
	ServerUri               string
	EndpointUrl             string
	SessionName             string
	ClientNonce             []byte
	ClientCertificate       []byte
	RequestedSessionTimeout float64 // milliseconds
	MaxResponseMessageSize  uint32
}

func (r CreateSessionRequest) Encode(e *codec.Encoder) error {
	if err := r.RequestHeader.Encode(e); err != nil {
		return err
	}
	if err := r.ClientDescription.Encode(e); err != nil {
		return err
	}
	if err := e.WriteString(r.ServerUri); err != nil {
		return err
	}
	if err := e.WriteString(r.EndpointUrl); err != nil {
		return err
	}
	if err := e.WriteString(r.SessionName); err != nil {
		return err
	}
	if err := e.WriteByteString(r.ClientNonce); err != nil {
		return err
	}
	if err := e.WriteByteString(r.ClientCertificate); err != nil {
		return err
	}
	if err := e.WriteFloat64(r.RequestedSessionTimeout); err != nil {
		return err
	}
	return e.WriteUint32(r.MaxResponseMessageSize)
}

func (r *CreateSessionRequest) Decode(d *codec.Decoder) error {
	if err := r.RequestHeader.Decode(d); err != nil {
		return err
	}
	if err := r.ClientDescription.Decode(d); err != nil {
		return err
	}
	var err error
	if r.ServerUri, err = d.ReadString(); err != nil {
		return err
	}
	if r.EndpointUrl, err = d.ReadString(); err != nil {
		return err
	}
	if r.SessionName, err = d.ReadString(); err != nil {
		return err
	}
	if r.ClientNonce, err = d.ReadByteString(); err != nil {
		return err
	}
	if r.ClientCertificate, err = d.ReadByteString(); err != nil {
		return err
	}
	if r.RequestedSessionTimeout, err = d.ReadFloat64(); err != nil {
		return err
	}
	r.MaxResponseMessageSize, err = d.ReadUint32()
	return err
}

// CreateSessionResponse returns the session id/authentication token pair
// that every subsequent RequestHeader.AuthenticationToken carries, the
// server's own nonce/certificate/signature for the client to verify, and
// the endpoint list the client cross-checks against what it dialed
// (spec.md §4.5 step 5's certificate-mismatch check).
type CreateSessionResponse struct {
	ResponseHeader           ResponseHeader
	SessionId                codec.NodeId
	AuthenticationToken      codec.NodeId
	RevisedSessionTimeout    float64
	ServerNonce              []byte
	ServerCertificate        []byte
	ServerEndpoints          []EndpointDescription
	ServerSoftwareCertificates []SignedSoftwareCertificate
	ServerSignature          SignatureData
	MaxRequestMessageSize    uint32
}

func (r CreateSessionResponse) Encode(e *codec.Encoder) error {
	if err := r.ResponseHeader.Encode(e); err != nil {
		return err
	}
	if err := e.WriteNodeId(r.SessionId); err != nil {
		return err
	}
	if err := e.WriteNodeId(r.AuthenticationToken); err != nil {
		return err
	}
	if err := e.WriteFloat64(r.RevisedSessionTimeout); err != nil {
		return err
	}
	if err := e.WriteByteString(r.ServerNonce); err != nil {
		return err
	}
	if err := e.WriteByteString(r.ServerCertificate); err != nil {
		return err
	}
	if err := e.WriteArrayLength(len(r.ServerEndpoints), r.ServerEndpoints == nil); err != nil {
		return err
	}
	for _, ep := range r.ServerEndpoints {
		if err := ep.Encode(e); err != nil {
			return err
		}
	}
	if err := e.WriteArrayLength(len(r.ServerSoftwareCertificates), r.ServerSoftwareCertificates == nil); err != nil {
		return err
	}
	for _, c := range r.ServerSoftwareCertificates {
		if err := c.Encode(e); err != nil {
			return err
		}
	}
	if err := r.ServerSignature.Encode(e); err != nil {
		return err
	}
	return e.WriteUint32(r.MaxRequestMessageSize)
}

func (r *CreateSessionResponse) Decode(d *codec.Decoder) error {
	if err := r.ResponseHeader.Decode(d); err != nil {
		return err
	}
	var err error
	if r.SessionId, err = d.ReadNodeId(); err != nil {
		return err
	}
	if r.AuthenticationToken, err = d.ReadNodeId(); err != nil {
		return err
	}
	if r.RevisedSessionTimeout, err = d.ReadFloat64(); err != nil {
		return err
	}
	if r.ServerNonce, err = d.ReadByteString(); err != nil {
		return err
	}
	if r.ServerCertificate, err = d.ReadByteString(); err != nil {
		return err
	}
	n, err := d.ReadArrayLength()
	if err != nil {
		return err
	}
	if n >= 0 {
		r.ServerEndpoints = make([]EndpointDescription, n)
		for i := range r.ServerEndpoints {
			if err := r.ServerEndpoints[i].Decode(d); err != nil {
				return err
			}
		}
	}
	n, err = d.ReadArrayLength()
	if err != nil {
		return err
	}
	if n >= 0 {
		r.ServerSoftwareCertificates = make([]SignedSoftwareCertificate, n)
		for i := range r.ServerSoftwareCertificates {
			if err := r.ServerSoftwareCertificates[i].Decode(d); err != nil {
				return err
			}
		}
	}
	if err := r.ServerSignature.Decode(d); err != nil {
		return err
	}
	r.MaxRequestMessageSize, err = d.ReadUint32()
	return err
}

// ActivateSessionRequest proves the client holds the private key matching
// its certificate (ClientSignature, over the server's certificate+nonce),
// and carries the packaged identity token (spec.md §4.5 step 6).
type ActivateSessionRequest struct {
	RequestHeader              RequestHeader
	ClientSignature            SignatureData
	ClientSoftwareCertificates []SignedSoftwareCertificate
	LocaleIds                  []string
	UserIdentityToken          codec.ExtensionObject
	UserTokenSignature         SignatureData
}

func (r ActivateSessionRequest) Encode(e *codec.Encoder) error {
	if err := r.RequestHeader.Encode(e); err != nil {
		return err
	}
	if err := r.ClientSignature.Encode(e); err != nil {
		return err
	}
	if err := e.WriteArrayLength(len(r.ClientSoftwareCertificates), r.ClientSoftwareCertificates == nil); err != nil {
		return err
	}
	for _, c := range r.ClientSoftwareCertificates {
		if err := c.Encode(e); err != nil {
			return err
		}
	}
	if err := e.WriteStringArray(r.LocaleIds); err != nil {
		return err
	}
	if err := r.UserIdentityToken.Encode(e); err != nil {
		return err
	}
	return r.UserTokenSignature.Encode(e)
}

func (r *ActivateSessionRequest) Decode(d *codec.Decoder) error {
	if err := r.RequestHeader.Decode(d); err != nil {
		return err
	}
	if err := r.ClientSignature.Decode(d); err != nil {
		return err
	}
	n, err := d.ReadArrayLength()
	if err != nil {
		return err
	}
	if n >= 0 {
		r.ClientSoftwareCertificates = make([]SignedSoftwareCertificate, n)
		for i := range r.ClientSoftwareCertificates {
			if err := r.ClientSoftwareCertificates[i].Decode(d); err != nil {
				return err
			}
		}
	}
	if r.LocaleIds, err = d.ReadStringArray(); err != nil {
		return err
	}
	if err := r.UserIdentityToken.Decode(d); err != nil {
		return err
	}
	return r.UserTokenSignature.Decode(d)
}

// ActivateSessionResponse returns the nonce the next Renew/re-activate
// derives fresh session keys from, plus one status per software certificate
// the client offered.
type ActivateSessionResponse struct {
	ResponseHeader ResponseHeader
	ServerNonce    []byte
	Results        []StatusCode
}

func (r ActivateSessionResponse) Encode(e *codec.Encoder) error {
	if err := r.ResponseHeader.Encode(e); err != nil {
		return err
	}
	if err := e.WriteByteString(r.ServerNonce); err != nil {
		return err
	}
	raw := make([]uint32, len(r.Results))
	for i, s := range r.Results {
		raw[i] = uint32(s)
	}
	return e.WriteUint32Array(raw)
}

func (r *ActivateSessionResponse) Decode(d *codec.Decoder) error {
	if err := r.ResponseHeader.Decode(d); err != nil {
		return err
	}
	var err error
	if r.ServerNonce, err = d.ReadByteString(); err != nil {
		return err
	}
	raw, err := d.ReadUint32Array()
	if err != nil {
		return err
	}
	r.Results = make([]StatusCode, len(raw))
	for i, v := range raw {
		r.Results[i] = StatusCode(v)
	}
	return nil
}

// CloseSessionRequest ends a session; DeleteSubscriptions tears down every
// subscription the publish pump is still tracking.
type CloseSessionRequest struct {
	RequestHeader       RequestHeader
	DeleteSubscriptions bool
}

func (r CloseSessionRequest) Encode(e *codec.Encoder) error {
	if err := r.RequestHeader.Encode(e); err != nil {
		return err
	}
	return e.WriteBool(r.DeleteSubscriptions)
}

func (r *CloseSessionRequest) Decode(d *codec.Decoder) error {
	if err := r.RequestHeader.Decode(d); err != nil {
		return err
	}
	var err error
	r.DeleteSubscriptions, err = d.ReadBool()
	return err
}

// CloseSessionResponse carries only the shared header; Good means the
// session and every subscription it owned are gone server-side.
type CloseSessionResponse struct {
	ResponseHeader ResponseHeader
}

func (r CloseSessionResponse) Encode(e *codec.Encoder) error  { return r.ResponseHeader.Encode(e) }
func (r *CloseSessionResponse) Decode(d *codec.Decoder) error { return r.ResponseHeader.Decode(d) }
