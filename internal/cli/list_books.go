/*
PURPOSE:
  Defines the 'list-books' subcommand.
  Lists the document collections indexed by the GraphRAG backend.

ARCHITECTURE INTEGRATION:
  - Calls: internal/engine.GraphRAGClient.ListBooks

ERROR HANDLING:
  - Backend failures degrade to an empty listing with a notice; the command
    itself only fails on config problems.

USAGE:
  rag-arena list-books

RELATED FILES:
  - internal/engine/graphrag.go
*/

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arenalabs/rag-arena/internal/engine"
)

var listBooksCmd = &cobra.Command{
	Use:   "list-books",
	Short: "List document collections available on the GraphRAG backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		client := engine.NewGraphRAGClient(cfg.GraphRAG, cfg.Timeout)
		defer client.Close()

		books := client.ListBooks(cmd.Context())
		if len(books) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No books available (backend unreachable or empty).")
			return nil
		}

		for _, b := range books {
			marker := " "
			if b.HasData {
				marker = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %-24s %s\n", marker, b.ID, b.Name)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "\n* = indexed and queryable")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listBooksCmd)
}
