// Command uaclient is a diagnostic harness for internal/session's protocol
// engine: it connects to a server, proves the handshake through to an
// active keep-alive subscription, and exercises Read and Publish against
// it. It is not a user-facing client API.
package main

import (
	"fmt"
	"os"

	"github.com/rcarmo/go-opcua/cmd/uaclient/commands"
)

var (
	version = "dev" // injected at build time via -ldflags
	commit  = "none"
)

func main() {
	commands.Version = version
	commands.Commit = commit

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "uaclient: %v\n", err)
		os.Exit(1)
	}
}
