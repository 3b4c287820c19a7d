// Package config loads OPC UA client configuration from flags, environment
// variables, and an optional YAML connection profile.
package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// globalConfig stores the configuration loaded with command-line overrides.
// This allows other packages to access the same configuration the CLI loaded.
var (
	globalConfig *Config
	configMutex  sync.Mutex
)

// Config holds the application configuration.
type Config struct {
	Endpoint EndpointConfig `mapstructure:"endpoint"`
	Session  SessionConfig  `mapstructure:"session"`
	Security SecurityConfig `mapstructure:"security"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// LoadOptions holds command-line override options.
type LoadOptions struct {
	ConfigFile         string
	EndpointURL        string
	SecurityPolicy     string
	SecurityMode       string
	Identity           string
	Username           string
	Password           string
	LogLevel           string
	SkipCertValidation bool
}

// EndpointConfig describes the server endpoint to dial and the secure
// channel parameters to request of it.
type EndpointConfig struct {
	URL            string        `mapstructure:"url"`
	SecurityPolicy string        `mapstructure:"securityPolicy"`
	SecurityMode   string        `mapstructure:"securityMode"`
	DialTimeout    time.Duration `mapstructure:"dialTimeout"`
	ReceiveBufSize int           `mapstructure:"receiveBufferSize"`
	SendBufSize    int           `mapstructure:"sendBufferSize"`
	MaxMessageSize int           `mapstructure:"maxMessageSize"`
	MaxChunkCount  int           `mapstructure:"maxChunkCount"`
	// ServerCertFile pins the server's application instance certificate for
	// a non-None security policy. There is no GetEndpoints discovery call in
	// this client's service set, so the certificate used to open the secure
	// channel is provisioned out of band rather than discovered.
	ServerCertFile string `mapstructure:"serverCertFile"`
}

// SessionConfig describes the identity to activate the session with and the
// session-layer timeouts.
type SessionConfig struct {
	Identity        string        `mapstructure:"identity"` // anonymous|username|x509|issued
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	CertFile        string        `mapstructure:"certFile"`
	KeyFile         string        `mapstructure:"keyFile"`
	RequestTimeout  time.Duration `mapstructure:"requestTimeout"`
	SessionTimeout  time.Duration `mapstructure:"sessionTimeout"`
	PublishInterval time.Duration `mapstructure:"publishInterval"`
	PublishInFlight int           `mapstructure:"publishInFlight"`
}

// SecurityConfig holds local certificate/trust material for the secure
// channel (independent of the identity-token certificate in SessionConfig).
type SecurityConfig struct {
	ClientCertFile     string `mapstructure:"clientCertFile"`
	ClientKeyFile      string `mapstructure:"clientKeyFile"`
	TrustedCertsDir    string `mapstructure:"trustedCertsDir"`
	SkipCertValidation bool   `mapstructure:"skipCertValidation"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads configuration from defaults, the optional ~/.opcua/client.yaml
// profile, and environment variables, with no command-line overrides.
func Load() (*Config, error) {
	return LoadWithOverrides(LoadOptions{})
}

// LoadWithOverrides loads configuration from (in increasing priority) the
// YAML profile, environment variables prefixed OPCUA_, and explicit
// command-line overrides.
func LoadWithOverrides(opts LoadOptions) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("OPCUA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else if home, err := os.UserHomeDir(); err == nil {
		v.SetConfigName("client")
		v.SetConfigType("yaml")
		v.AddConfigPath(home + "/.opcua")
		_ = v.ReadInConfig() // optional profile; absence is not an error
	}

	applyOverrides(v, opts)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	configMutex.Lock()
	globalConfig = cfg
	configMutex.Unlock()

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Empty-string defaults register the key with viper so AutomaticEnv
	// picks the corresponding OPCUA_* variable up during Unmarshal.
	v.SetDefault("endpoint.url", "")
	v.SetDefault("endpoint.serverCertFile", "")
	v.SetDefault("session.username", "")
	v.SetDefault("session.password", "")
	v.SetDefault("session.certFile", "")
	v.SetDefault("session.keyFile", "")
	v.SetDefault("security.clientCertFile", "")
	v.SetDefault("security.clientKeyFile", "")
	v.SetDefault("security.trustedCertsDir", "")

	v.SetDefault("endpoint.securityPolicy", "http://opcfoundation.org/UA/SecurityPolicy#None")
	v.SetDefault("endpoint.securityMode", "None")
	v.SetDefault("endpoint.dialTimeout", 5*time.Second)
	v.SetDefault("endpoint.receiveBufferSize", 65536)
	v.SetDefault("endpoint.sendBufferSize", 65536)
	v.SetDefault("endpoint.maxMessageSize", 16*1024*1024)
	v.SetDefault("endpoint.maxChunkCount", 4096)

	v.SetDefault("session.identity", "anonymous")
	v.SetDefault("session.requestTimeout", 10*time.Second)
	v.SetDefault("session.sessionTimeout", 60*time.Second)
	v.SetDefault("session.publishInterval", 1*time.Second)
	v.SetDefault("session.publishInFlight", 3)

	v.SetDefault("security.skipCertValidation", false)

	v.SetDefault("logging.level", "info")
}

func applyOverrides(v *viper.Viper, opts LoadOptions) {
	if opts.EndpointURL != "" {
		v.Set("endpoint.url", opts.EndpointURL)
	}
	if opts.SecurityPolicy != "" {
		v.Set("endpoint.securityPolicy", opts.SecurityPolicy)
	}
	if opts.SecurityMode != "" {
		v.Set("endpoint.securityMode", opts.SecurityMode)
	}
	if opts.Identity != "" {
		v.Set("session.identity", opts.Identity)
	}
	if opts.Username != "" {
		v.Set("session.username", opts.Username)
	}
	if opts.Password != "" {
		v.Set("session.password", opts.Password)
	}
	if opts.LogLevel != "" {
		v.Set("logging.level", opts.LogLevel)
	}
	if opts.SkipCertValidation {
		v.Set("security.skipCertValidation", true)
	}
}

// GetGlobalConfig returns the globally stored configuration. Packages that
// need access to the configuration loaded by the CLI should use this rather
// than calling Load again.
func GetGlobalConfig() *Config {
	configMutex.Lock()
	defer configMutex.Unlock()
	return globalConfig
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Endpoint.URL == "" {
		return fmt.Errorf("endpoint url cannot be empty")
	}
	if !strings.HasPrefix(c.Endpoint.URL, "opc.tcp://") {
		return fmt.Errorf("endpoint url must use the opc.tcp scheme: %s", c.Endpoint.URL)
	}

	if c.Endpoint.ReceiveBufSize < 8192 {
		return fmt.Errorf("receive buffer size must be at least 8192 bytes")
	}
	if c.Endpoint.SendBufSize < 8192 {
		return fmt.Errorf("send buffer size must be at least 8192 bytes")
	}
	if c.Endpoint.MaxChunkCount <= 0 {
		return fmt.Errorf("max chunk count must be positive")
	}

	mode := strings.ToLower(c.Endpoint.SecurityMode)
	if mode != "" && mode != "none" && c.Endpoint.ServerCertFile == "" {
		return fmt.Errorf("endpoint.serverCertFile is required for security mode %s", c.Endpoint.SecurityMode)
	}

	switch c.Session.Identity {
	case "anonymous", "username", "x509", "issued":
	default:
		return fmt.Errorf("invalid session identity: %s", c.Session.Identity)
	}

	if c.Session.Identity == "username" && c.Session.Username == "" {
		return fmt.Errorf("session.username is required for identity=username")
	}

	if c.Session.PublishInFlight <= 0 {
		return fmt.Errorf("session publish in-flight count must be positive")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	return nil
}
