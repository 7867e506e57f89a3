// ABOUTME: Entry point for the bizcrm CLI and MCP server
// ABOUTME: Builds the cobra command tree and exits non-zero on error
package main

import (
	"fmt"
	"os"

	"github.com/harperreed/bizcrm/cli"
)

var version = "0.2.0"

func main() {
	if err := cli.NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
