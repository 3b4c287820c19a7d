package ua

import "github.com/rcarmo/go-opcua/internal/codec"

// AnonymousIdentityToken is the zero-disclosure identity option: just the
// PolicyId the server's UserTokenPolicy advertised.
type AnonymousIdentityToken struct {
	PolicyId string
}

func (t AnonymousIdentityToken) Encode(e *codec.Encoder) error { return e.WriteString(t.PolicyId) }

func (t *AnonymousIdentityToken) Decode(d *codec.Decoder) error {
	var err error
	t.PolicyId, err = d.ReadString()
	return err
}

// UserNameIdentityToken carries a username and a (possibly encrypted)
// password, encrypted with the policy's asymmetric encryption padding together
// with the session's server nonce per spec.md §4.5's identity-token packaging
// step.
type UserNameIdentityToken struct {
	PolicyId            string
	UserName            string
	Password            []byte
	EncryptionAlgorithm *string
}

func (t UserNameIdentityToken) Encode(e *codec.Encoder) error {
	if err := e.WriteString(t.PolicyId); err != nil {
		return err
	}
	if err := e.WriteString(t.UserName); err != nil {
		return err
	}
	if err := e.WriteByteString(t.Password); err != nil {
		return err
	}
	return e.WriteStringPtr(t.EncryptionAlgorithm)
}

func (t *UserNameIdentityToken) Decode(d *codec.Decoder) error {
	var err error
	if t.PolicyId, err = d.ReadString(); err != nil {
		return err
	}
	if t.UserName, err = d.ReadString(); err != nil {
		return err
	}
	if t.Password, err = d.ReadByteString(); err != nil {
		return err
	}
	t.EncryptionAlgorithm, err = d.ReadStringPtr()
	return err
}

// IssuedIdentityToken carries an opaque token issued by a separate identity
// provider (e.g. a SAML or JWT assertion), encrypted the same way a
// UserNameIdentityToken's password is.
type IssuedIdentityToken struct {
	PolicyId            string
	TokenData           []byte
	EncryptionAlgorithm *string
}

func (t IssuedIdentityToken) Encode(e *codec.Encoder) error {
	if err := e.WriteString(t.PolicyId); err != nil {
		return err
	}
	if err := e.WriteByteString(t.TokenData); err != nil {
		return err
	}
	return e.WriteStringPtr(t.EncryptionAlgorithm)
}

func (t *IssuedIdentityToken) Decode(d *codec.Decoder) error {
	var err error
	if t.PolicyId, err = d.ReadString(); err != nil {
		return err
	}
	if t.TokenData, err = d.ReadByteString(); err != nil {
		return err
	}
	t.EncryptionAlgorithm, err = d.ReadStringPtr()
	return err
}

// X509IdentityToken carries a DER-encoded certificate; the corresponding
// private key signs the server nonce the same way ActivateSessionRequest's
// top-level ClientSignature does.
type X509IdentityToken struct {
	PolicyId        string
	CertificateData []byte
}

func (t X509IdentityToken) Encode(e *codec.Encoder) error {
	if err := e.WriteString(t.PolicyId); err != nil {
		return err
	}
	return e.WriteByteString(t.CertificateData)
}

func (t *X509IdentityToken) Decode(d *codec.Decoder) error {
	var err error
	if t.PolicyId, err = d.ReadString(); err != nil {
		return err
	}
	t.CertificateData, err = d.ReadByteString()
	return err
}
