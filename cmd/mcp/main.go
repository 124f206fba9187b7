// Command mcp serves one jam session to Model Context Protocol clients over
// stdio.
package main

import (
	"fmt"
	"os"

	"jamflow/interfaces/cli"
)

func main() {
	if err := cli.Parse("jamflow-mcp", "Expose a jam session as MCP tools", &cli.MCPCmd{}, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
