package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcarmo/go-opcua/internal/config"
	"github.com/rcarmo/go-opcua/internal/registry"
	"github.com/rcarmo/go-opcua/internal/ua"
	"github.com/rcarmo/go-opcua/internal/uasc"
)

func newTestClient(t *testing.T, identity string) *Client {
	t.Helper()
	reg := registry.New()
	ua.RegisterAll(reg)

	return &Client{
		cfg: &config.Config{
			Session: config.SessionConfig{Identity: identity, Username: "alice", Password: "s3cret"},
		},
		registry: reg,
		mode:     uasc.ModeNone,
		profile:  uasc.PolicyNone,
	}
}

func TestBuildIdentityTokenAnonymousDefaultsPolicyId(t *testing.T) {
	c := newTestClient(t, "anonymous")

	eo, sig, err := c.buildIdentityToken(nil)
	require.NoError(t, err)
	assert.Nil(t, sig)

	token, ok := eo.Body.(*ua.AnonymousIdentityToken)
	require.True(t, ok)
	assert.Equal(t, "anonymous", token.PolicyId)
}

func TestBuildIdentityTokenUsernameSendsPlainPasswordWhenModeNone(t *testing.T) {
	c := newTestClient(t, "username")
	c.endpoint = ua.EndpointDescription{
		UserIdentityTokens: []ua.UserTokenPolicy{{PolicyId: "user-pwd", TokenType: ua.UserTokenTypeUserName}},
	}

	eo, _, err := c.buildIdentityToken(nil)
	require.NoError(t, err)

	token, ok := eo.Body.(*ua.UserNameIdentityToken)
	require.True(t, ok)
	assert.Equal(t, "user-pwd", token.PolicyId)
	assert.Equal(t, "alice", token.UserName)
	assert.Equal(t, []byte("s3cret"), token.Password)
	assert.Nil(t, token.EncryptionAlgorithm)
}

func TestBuildIdentityTokenUsernameEncryptsUnderSignAndEncrypt(t *testing.T) {
	certDER, _, err := generateSelfSignedCertificate("urn:go-opcua:test-server")
	require.NoError(t, err)
	certFile := filepath.Join(t.TempDir(), "server.der")
	require.NoError(t, os.WriteFile(certFile, certDER, 0o600))

	c := newTestClient(t, "username")
	c.cfg.Session.Password = "s3cr3t"
	c.cfg.Endpoint.ServerCertFile = certFile
	c.trustStore = NewTrustStore(config.SecurityConfig{SkipCertValidation: true})
	c.mode = uasc.ModeSignAndEncrypt
	c.profile = uasc.PolicyBasic256Sha256
	c.endpoint = ua.EndpointDescription{
		UserIdentityTokens: []ua.UserTokenPolicy{{PolicyId: "user-pwd", TokenType: ua.UserTokenTypeUserName}},
	}

	serverNonce := make([]byte, 32)
	eo, _, err := c.buildIdentityToken(serverNonce)
	require.NoError(t, err)

	token, ok := eo.Body.(*ua.UserNameIdentityToken)
	require.True(t, ok)
	// One RSA-2048 block: the framed secret fits a single 256-byte cipher.
	assert.Len(t, token.Password, 256)
	require.NotNil(t, token.EncryptionAlgorithm)
	assert.Equal(t, "http://www.w3.org/2001/04/xmlenc#rsa-oaep", *token.EncryptionAlgorithm)
}

func TestBuildIdentityTokenUsernameMissingPolicyFails(t *testing.T) {
	c := newTestClient(t, "username")
	_, _, err := c.buildIdentityToken(nil)
	assert.ErrorIs(t, err, ErrNoMatchingUserPolicy)
}

func TestBuildIdentityTokenUnknownKindFails(t *testing.T) {
	c := newTestClient(t, "unsupported")
	_, _, err := c.buildIdentityToken(nil)
	assert.ErrorIs(t, err, ErrUnknownIdentityKind)
}

func TestFindUserTokenPolicyMatchesTokenType(t *testing.T) {
	endpoint := ua.EndpointDescription{
		UserIdentityTokens: []ua.UserTokenPolicy{
			{PolicyId: "anon", TokenType: ua.UserTokenTypeAnonymous},
			{PolicyId: "issued", TokenType: ua.UserTokenTypeIssuedToken},
		},
	}

	policy, err := findUserTokenPolicy(endpoint, ua.UserTokenTypeIssuedToken)
	require.NoError(t, err)
	assert.Equal(t, "issued", policy.PolicyId)

	_, err = findUserTokenPolicy(endpoint, ua.UserTokenTypeCertificate)
	assert.ErrorIs(t, err, ErrNoMatchingUserPolicy)
}
