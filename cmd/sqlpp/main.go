// Package main is the entry point for the sqlpp CLI.
package main

import (
	"fmt"
	"os"

	"github.com/sqlpp-io/sqlpp/cli/commands"
	"github.com/sqlpp-io/sqlpp/telemetry"
)

// Version is set by the build.
var Version = "dev"

func main() {
	telemetry.Init(Version, os.Getenv("SQLPP_TELEMETRY") == "1")
	defer telemetry.Shutdown()

	if err := commands.NewRootCommand(Version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
