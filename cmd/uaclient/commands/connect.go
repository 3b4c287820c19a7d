package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcarmo/go-opcua/internal/logging"
	"github.com/rcarmo/go-opcua/internal/session"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect and hold the session open until interrupted",
	Long: `connect drives the full handshake (dial, open secure channel, create
and activate session, bootstrap namespaces, create the keep-alive
subscription) and then blocks, keeping the session's Publish requests in
flight, until interrupted with Ctrl+C.`,
	RunE: runConnect,
}

func runConnect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	client, err := session.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("build client: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	dialCtx, dialCancel := context.WithTimeout(ctx, 30*time.Second)
	defer dialCancel()
	if err := client.Connect(dialCtx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	logging.Info("uaclient: connected, subscription %d active", client.SubscriptionId())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	fmt.Println("Connected. Press Ctrl+C to disconnect.")

	<-sigCh
	signal.Stop(sigCh)
	logging.Info("uaclient: shutdown signal received, closing session")

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer closeCancel()
	return client.Close(closeCtx)
}
