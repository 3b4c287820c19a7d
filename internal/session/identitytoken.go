package session

import (
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"fmt"

	"github.com/rcarmo/go-opcua/internal/codec"
	"github.com/rcarmo/go-opcua/internal/ua"
	"github.com/rcarmo/go-opcua/internal/uasc"
)

// loadRSAKeyPairFiles loads an RSA certificate/key pair from disk, shared by
// the x509 identity path and (via fileTrustStore) the channel-level
// certificate path.
func loadRSAKeyPairFiles(certFile, keyFile string) ([]byte, *rsa.PrivateKey, error) {
	pair, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load certificate: %w", err)
	}
	key, ok := pair.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, nil, fmt.Errorf("private key is not RSA")
	}
	return pair.Certificate[0], key, nil
}

// findUserTokenPolicy locates the UserTokenPolicy matching kind among the
// endpoint's advertised policies (spec.md §4.5's identity negotiation).
func findUserTokenPolicy(endpoint ua.EndpointDescription, kind ua.UserTokenType) (ua.UserTokenPolicy, error) {
	for _, p := range endpoint.UserIdentityTokens {
		if p.TokenType == kind {
			return p, nil
		}
	}
	return ua.UserTokenPolicy{}, ErrNoMatchingUserPolicy
}

// buildIdentityToken builds ActivateSessionRequest.UserIdentityToken for the
// configured identity kind, encrypting the secret under the secure channel's
// security policy when the channel mode is SignAndEncrypt, per spec.md §4.5's
// identity-token packaging step. The token policy's own SecurityPolicyUri is
// not consulted.
func (c *Client) buildIdentityToken(serverNonce []byte) (codec.ExtensionObject, *ua.SignatureData, error) {
	c.mu.RLock()
	endpoint := c.endpoint
	profile := c.profile
	mode := c.mode
	identity := c.cfg.Session.Identity
	c.mu.RUnlock()

	switch identity {
	case "", "anonymous":
		policy, err := findUserTokenPolicy(endpoint, ua.UserTokenTypeAnonymous)
		if err != nil {
			policy = ua.UserTokenPolicy{PolicyId: "anonymous"}
		}
		eo, err := codec.NewExtensionObject(c.registry, &ua.AnonymousIdentityToken{PolicyId: policy.PolicyId})
		return eo, nil, err

	case "username":
		policy, err := findUserTokenPolicy(endpoint, ua.UserTokenTypeUserName)
		if err != nil {
			return codec.ExtensionObject{}, nil, err
		}
		token := &ua.UserNameIdentityToken{
			PolicyId: policy.PolicyId,
			UserName: c.cfg.Session.Username,
		}
		if mode == uasc.ModeSignAndEncrypt {
			secret, alg, err := c.encryptSecret([]byte(c.cfg.Session.Password), serverNonce)
			if err != nil {
				return codec.ExtensionObject{}, nil, err
			}
			token.Password = secret
			token.EncryptionAlgorithm = &alg
		} else {
			token.Password = []byte(c.cfg.Session.Password)
		}
		eo, err := codec.NewExtensionObject(c.registry, token)
		return eo, nil, err

	case "issued":
		policy, err := findUserTokenPolicy(endpoint, ua.UserTokenTypeIssuedToken)
		if err != nil {
			return codec.ExtensionObject{}, nil, err
		}
		token := &ua.IssuedIdentityToken{PolicyId: policy.PolicyId}
		if mode == uasc.ModeSignAndEncrypt {
			secret, alg, err := c.encryptSecret([]byte(c.cfg.Session.Password), serverNonce)
			if err != nil {
				return codec.ExtensionObject{}, nil, err
			}
			token.TokenData = secret
			token.EncryptionAlgorithm = &alg
		} else {
			token.TokenData = []byte(c.cfg.Session.Password)
		}
		eo, err := codec.NewExtensionObject(c.registry, token)
		return eo, nil, err

	case "x509":
		policy, err := findUserTokenPolicy(endpoint, ua.UserTokenTypeCertificate)
		if err != nil {
			return codec.ExtensionObject{}, nil, err
		}
		certDER, key, err := c.loadIdentityCertificate()
		if err != nil {
			return codec.ExtensionObject{}, nil, err
		}
		token := &ua.X509IdentityToken{PolicyId: policy.PolicyId, CertificateData: certDER}
		eo, err := codec.NewExtensionObject(c.registry, token)
		if err != nil {
			return codec.ExtensionObject{}, nil, err
		}

		signInput := append(append([]byte{}, c.serverCertificateForActivation()...), serverNonce...)
		sig, err := signSessionData(key, profile, signInput)
		if err != nil {
			return codec.ExtensionObject{}, nil, err
		}
		alg := signatureAlgorithmURI(profile)
		return eo, &ua.SignatureData{Algorithm: &alg, Signature: sig}, nil

	default:
		return codec.ExtensionObject{}, nil, ErrUnknownIdentityKind
	}
}

// encryptSecret frames and RSA-encrypts a username/password or issued token
// secret under the server's certificate public key, per spec.md §4.5.
func (c *Client) encryptSecret(secret, serverNonce []byte) ([]byte, string, error) {
	cert, err := x509.ParseCertificate(c.serverCertificateForActivation())
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrCertificateMismatch, err)
	}
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, "", fmt.Errorf("%w: server certificate is not RSA", ErrCertificateMismatch)
	}
	encrypted, err := encryptIdentitySecret(pub, c.profile.AsymmetricEncryptionPadding, framedSecret(secret, serverNonce))
	if err != nil {
		return nil, "", err
	}
	return encrypted, encryptionAlgorithmURI(c.profile.AsymmetricEncryptionPadding), nil
}

func (c *Client) serverCertificateForActivation() []byte {
	der, err := c.loadServerCertificate()
	if err != nil {
		return nil
	}
	return der
}

// loadIdentityCertificate loads the X.509 identity certificate/key
// configured in SessionConfig.CertFile/KeyFile, distinct from the
// channel-level application instance certificate the TrustStore manages.
func (c *Client) loadIdentityCertificate() ([]byte, *rsa.PrivateKey, error) {
	if c.cfg.Session.CertFile == "" || c.cfg.Session.KeyFile == "" {
		return nil, nil, fmt.Errorf("session.certFile and session.keyFile are required for identity=x509")
	}
	return loadRSAKeyPairFiles(c.cfg.Session.CertFile, c.cfg.Session.KeyFile)
}
