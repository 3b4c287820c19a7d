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
	"github.com/rcarmo/go-opcua/internal/ua"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Connect and print notifications from the keep-alive subscription",
	Long: `publish connects, registers a notification handler on the keep-alive
subscription Connect creates, and prints each NotificationMessage as it
arrives until interrupted with Ctrl+C.`,
	RunE: runPublish,
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	client, err := session.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("build client: %w", err)
	}

	client.OnNotification(func(subscriptionId uint32, msg ua.NotificationMessage) {
		fmt.Printf("subscription %d: sequence %d, %d notification(s) at %s\n",
			subscriptionId, msg.SequenceNumber, len(msg.NotificationData), msg.PublishTime.Format(time.RFC3339Nano))
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	dialCtx, dialCancel := context.WithTimeout(ctx, 30*time.Second)
	defer dialCancel()
	if err := client.Connect(dialCtx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	logging.Info("uaclient: watching subscription %d", client.SubscriptionId())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	fmt.Println("Watching for notifications. Press Ctrl+C to stop.")

	<-sigCh
	signal.Stop(sigCh)

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer closeCancel()
	return client.Close(closeCtx)
}
