// Package commands implements uaclient's cobra command tree.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/rcarmo/go-opcua/internal/config"
	"github.com/rcarmo/go-opcua/internal/logging"
)

// Version and Commit are injected by main from build-time ldflags.
var (
	Version = "dev"
	Commit  = "none"
)

var opts config.LoadOptions

var rootCmd = &cobra.Command{
	Use:   "uaclient",
	Short: "OPC UA client protocol engine diagnostic harness",
	Long: `uaclient drives internal/session's SessionClient against a live
OPC UA server: dial, open a secure channel, create and activate a session,
and run its keep-alive subscription.

Use "uaclient [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.ConfigFile, "config", "", "path to a YAML connection profile")
	flags.StringVar(&opts.EndpointURL, "endpoint", "", "server endpoint URL (opc.tcp://host:port)")
	flags.StringVar(&opts.SecurityPolicy, "security-policy", "", "security policy URI")
	flags.StringVar(&opts.SecurityMode, "security-mode", "", "security mode (None|Sign|SignAndEncrypt)")
	flags.StringVar(&opts.Identity, "identity", "", "identity kind (anonymous|username|x509|issued)")
	flags.StringVar(&opts.Username, "username", "", "username, for identity=username")
	flags.StringVar(&opts.Password, "password", "", "password, for identity=username")
	flags.StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.BoolVar(&opts.SkipCertValidation, "insecure-skip-cert-validation", false, "trust any server certificate")

	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads configuration from the YAML profile, environment, and the
// flags set on rootCmd's persistent flag set, then applies its log level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithOverrides(opts)
	if err != nil {
		return nil, err
	}
	logging.SetLevelFromString(cfg.Logging.Level)
	return cfg, nil
}
