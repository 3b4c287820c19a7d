package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithOverridesDefaults(t *testing.T) {
	cfg, err := LoadWithOverrides(LoadOptions{EndpointURL: "opc.tcp://localhost:4840"})
	require.NoError(t, err)

	assert.Equal(t, "opc.tcp://localhost:4840", cfg.Endpoint.URL)
	assert.Equal(t, "http://opcfoundation.org/UA/SecurityPolicy#None", cfg.Endpoint.SecurityPolicy)
	assert.Equal(t, "None", cfg.Endpoint.SecurityMode)
	assert.Equal(t, 5*time.Second, cfg.Endpoint.DialTimeout)
	assert.Equal(t, 65536, cfg.Endpoint.ReceiveBufSize)
	assert.Equal(t, "anonymous", cfg.Session.Identity)
	assert.Equal(t, 3, cfg.Session.PublishInFlight)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadWithOverridesEnvAndFlags(t *testing.T) {
	t.Setenv("OPCUA_LOGGING_LEVEL", "debug")
	t.Setenv("OPCUA_SESSION_PUBLISHINFLIGHT", "5")
	t.Setenv("OPCUA_ENDPOINT_SERVERCERTFILE", "/etc/opcua/server.der")

	cfg, err := LoadWithOverrides(LoadOptions{
		EndpointURL:    "opc.tcp://10.0.0.1:4840",
		SecurityPolicy: "http://opcfoundation.org/UA/SecurityPolicy#Basic256Sha256",
		SecurityMode:   "SignAndEncrypt",
		Identity:       "username",
		Username:       "operator",
		Password:       "s3cr3t",
	})
	require.NoError(t, err)

	assert.Equal(t, "opc.tcp://10.0.0.1:4840", cfg.Endpoint.URL)
	assert.Equal(t, "http://opcfoundation.org/UA/SecurityPolicy#Basic256Sha256", cfg.Endpoint.SecurityPolicy)
	assert.Equal(t, "SignAndEncrypt", cfg.Endpoint.SecurityMode)
	assert.Equal(t, "username", cfg.Session.Identity)
	assert.Equal(t, "operator", cfg.Session.Username)
	assert.Equal(t, "s3cr3t", cfg.Session.Password)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 5, cfg.Session.PublishInFlight)
}

func TestLoadWithOverridesMissingEndpoint(t *testing.T) {
	_, err := LoadWithOverrides(LoadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint url cannot be empty")
}

func TestConfigValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Endpoint: EndpointConfig{
				URL:            "opc.tcp://localhost:4840",
				ReceiveBufSize: 65536,
				SendBufSize:    65536,
				MaxChunkCount:  4096,
			},
			Session: SessionConfig{Identity: "anonymous", PublishInFlight: 3},
			Logging: LoggingConfig{Level: "info"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid configuration", mutate: func(c *Config) {}},
		{
			name:    "missing endpoint url",
			mutate:  func(c *Config) { c.Endpoint.URL = "" },
			wantErr: "endpoint url cannot be empty",
		},
		{
			name:    "wrong scheme",
			mutate:  func(c *Config) { c.Endpoint.URL = "https://localhost:4840" },
			wantErr: "opc.tcp scheme",
		},
		{
			name:    "receive buffer too small",
			mutate:  func(c *Config) { c.Endpoint.ReceiveBufSize = 1024 },
			wantErr: "receive buffer size",
		},
		{
			name:    "invalid chunk count",
			mutate:  func(c *Config) { c.Endpoint.MaxChunkCount = 0 },
			wantErr: "max chunk count",
		},
		{
			name:    "invalid identity",
			mutate:  func(c *Config) { c.Session.Identity = "kerberos" },
			wantErr: "invalid session identity",
		},
		{
			name: "username identity without username",
			mutate: func(c *Config) {
				c.Session.Identity = "username"
				c.Session.Username = ""
			},
			wantErr: "session.username is required",
		},
		{
			name:    "non-positive publish in-flight",
			mutate:  func(c *Config) { c.Session.PublishInFlight = 0 },
			wantErr: "publish in-flight",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "invalid log level",
		},
		{
			name:    "sign mode without a pinned server certificate",
			mutate:  func(c *Config) { c.Endpoint.SecurityMode = "Sign" },
			wantErr: "serverCertFile",
		},
		{
			name: "sign mode with a pinned server certificate",
			mutate: func(c *Config) {
				c.Endpoint.SecurityMode = "SignAndEncrypt"
				c.Endpoint.ServerCertFile = "/etc/opcua/server.der"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetGlobalConfig(t *testing.T) {
	_, err := LoadWithOverrides(LoadOptions{EndpointURL: "opc.tcp://localhost:4840"})
	require.NoError(t, err)

	cfg := GetGlobalConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, "opc.tcp://localhost:4840", cfg.Endpoint.URL)
}

func TestMain(m *testing.M) {
	os.Exit(m.Run())
}
