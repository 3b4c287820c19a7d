package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcarmo/go-opcua/internal/codec"
	"github.com/rcarmo/go-opcua/internal/session"
)

var readNodes []string

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Connect, read one or more node values, then disconnect",
	Long: `read connects, issues a single ReadRequest against the given node ids
(each in "ns=<namespace>;i=<id>" or "ns=<namespace>;s=<string>" form), prints
each result, and closes the session.

Example:
  uaclient read --endpoint opc.tcp://plant.example.com:4840 \
    --node "ns=2;s=Temperature" --node "ns=2;s=Pressure"`,
	RunE: runRead,
}

func init() {
	readCmd.Flags().StringArrayVar(&readNodes, "node", nil, "node id to read (repeatable)")
}

func runRead(cmd *cobra.Command, args []string) error {
	if len(readNodes) == 0 {
		return fmt.Errorf("at least one --node is required")
	}

	nodeIds := make([]codec.NodeId, len(readNodes))
	for i, s := range readNodes {
		id, err := codec.ParseNodeId(s)
		if err != nil {
			return err
		}
		nodeIds[i] = id
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	client, err := session.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("build client: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer closeCancel()
		_ = client.Close(closeCtx)
	}()

	results, err := client.Read(ctx, nodeIds)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	for i, v := range results {
		printDataValue(readNodes[i], v)
	}
	return nil
}

func printDataValue(node string, v codec.DataValue) {
	status := "Good"
	if v.Status != nil {
		status = fmt.Sprintf("0x%08X", *v.Status)
	}
	value := "<nil>"
	if v.Value != nil {
		if v.Value.IsArray {
			value = fmt.Sprintf("%v", v.Value.Array)
		} else {
			value = fmt.Sprintf("%v", v.Value.Scalar)
		}
	}
	fmt.Printf("%s = %s (status %s)\n", node, value, status)
}
