/*
PURPOSE:
  Entry point for the rag-arena binary.
  Delegates to the Cobra command tree and maps errors to exit codes.

ERROR HANDLING:
  - Interrupted runs exit 130; every other failure exits 1.

RELATED FILES:
  - internal/cli/root.go
*/

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/arenalabs/rag-arena/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		if errors.Is(err, cli.ErrInterrupted) {
			fmt.Fprintln(os.Stderr, "Interrupted.")
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
