package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcarmo/go-opcua/internal/config"
	"github.com/rcarmo/go-opcua/internal/ua"
	"github.com/rcarmo/go-opcua/internal/uasc"
)

func testConfigWithPolicy(policy string) *config.Config {
	return &config.Config{Endpoint: config.EndpointConfig{SecurityPolicy: policy}}
}

func TestSplitEndpointURL(t *testing.T) {
	addr, full, err := splitEndpointURL("opc.tcp://plant.example.com:4841/server")
	require.NoError(t, err)
	assert.Equal(t, "plant.example.com:4841", addr)
	assert.Equal(t, "opc.tcp://plant.example.com:4841/server", full)
}

func TestSplitEndpointURLDefaultsPort(t *testing.T) {
	addr, _, err := splitEndpointURL("opc.tcp://plant.example.com")
	require.NoError(t, err)
	assert.Equal(t, "plant.example.com:4840", addr)
}

func TestSplitEndpointURLRejectsWrongScheme(t *testing.T) {
	_, _, err := splitEndpointURL("https://plant.example.com")
	assert.Error(t, err)
}

func TestResolveSecurityMode(t *testing.T) {
	cases := []struct {
		in       string
		wantUasc uasc.SecurityMode
		wantUA   ua.MessageSecurityMode
	}{
		{"", uasc.ModeNone, ua.MessageSecurityModeNone},
		{"None", uasc.ModeNone, ua.MessageSecurityModeNone},
		{"Sign", uasc.ModeSign, ua.MessageSecurityModeSign},
		{"SignAndEncrypt", uasc.ModeSignAndEncrypt, ua.MessageSecurityModeSignAndEncrypt},
	}
	for _, tc := range cases {
		gotUasc, gotUA, err := resolveSecurityMode(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.wantUasc, gotUasc)
		assert.Equal(t, tc.wantUA, gotUA)
	}
}

func TestResolveSecurityModeRejectsUnknown(t *testing.T) {
	_, _, err := resolveSecurityMode("Bogus")
	assert.ErrorIs(t, err, uasc.ErrSecurityModeRejected)
}

func TestPickEndpointPrefersMatchingSecurityPolicy(t *testing.T) {
	endpoints := []ua.EndpointDescription{
		{SecurityPolicyUri: "http://opcfoundation.org/UA/SecurityPolicy#None"},
		{SecurityPolicyUri: "http://opcfoundation.org/UA/SecurityPolicy#Basic256Sha256"},
	}
	cfg := testConfigWithPolicy("http://opcfoundation.org/UA/SecurityPolicy#Basic256Sha256")

	got := pickEndpoint(endpoints, cfg)
	assert.Equal(t, "http://opcfoundation.org/UA/SecurityPolicy#Basic256Sha256", got.SecurityPolicyUri)
}

func TestPickEndpointFallsBackToFirst(t *testing.T) {
	endpoints := []ua.EndpointDescription{{SecurityPolicyUri: "urn:only-one"}}
	cfg := testConfigWithPolicy("urn:does-not-exist")

	got := pickEndpoint(endpoints, cfg)
	assert.Equal(t, "urn:only-one", got.SecurityPolicyUri)
}
