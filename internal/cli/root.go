/*
PURPOSE:
  Defines the root Cobra command for the rag-arena CLI.
  Handles global flags and command initialization.

REQUIREMENTS:
  User-specified:
  - Provide a CLI interface.
  - Support global flags like --config.

  Implementation-discovered:
  - Needs to expose an Execute() function for main.go.
  - Errors must surface once, in main.go, not via Cobra's own printer.

ARCHITECTURE INTEGRATION:
  - Called by: cmd/rag-arena/main.go
  - Calls: Child commands (run, list-books, health)

ERROR HANDLING:
  - Returns error to main.go for exit code handling.

IMPLEMENTATION RULES:
  - Use `PersistentFlags()` for flags available to all subcommands.
  - Keep Run logic in subcommands, Root is usually empty or helps.

USAGE:
  Called by main.go.

RELATED FILES:
  - cmd/rag-arena/main.go

MAINTENANCE:
  - Update when adding global configuration options.
*/

package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/arenalabs/rag-arena/internal/output"
)

// ErrInterrupted is returned when a run is cancelled by SIGINT/SIGTERM.
// main.go maps it to exit code 130.
var ErrInterrupted = errors.New("interrupted")

var (
	// cfgFile stores the path to the config file (if specified via flag)
	cfgFile string
	verbose bool

	rootCmd = &cobra.Command{
		Use:   "rag-arena",
		Short: "Comparative evaluation harness for RAG backends",
		Long: `rag-arena runs the same question set against two RAG backends
(a Dust conversational agent and a GraphRAG query API), scores every answer,
and reports which system wins. Use 'run --help' for experiment options.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				output.SetVerbose()
			}
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: rag_arena.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}
