// Command listen feeds spoken transcripts into a jam session and prints the
// resulting graph after every update.
package main

import (
	"fmt"
	"os"

	"jamflow/interfaces/cli"
)

func main() {
	if err := cli.Parse("jamflow-listen", "Turn what you say into a jam graph", &cli.ListenCmd{}, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
