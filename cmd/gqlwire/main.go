// gqlwire CLI - command-line GraphQL client
package main

import (
	"fmt"
	"os"

	"github.com/gqlwire/gqlwire/pkg/cli"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	if Version != "" {
		cli.Version = Version
	}
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "gqlwire:", err)
		os.Exit(1)
	}
}
