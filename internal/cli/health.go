/*
PURPOSE:
  Defines the 'health' subcommand.
  Probes both backends and reports reachability before a long run.

ARCHITECTURE INTEGRATION:
  - Calls: internal/engine clients' HealthCheck

ERROR HANDLING:
  - Exits non-zero when any backend is unreachable, so scripts can gate
    experiment runs on it.

USAGE:
  rag-arena health

RELATED FILES:
  - internal/engine/dust.go
  - internal/engine/graphrag.go
*/

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arenalabs/rag-arena/internal/engine"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that both RAG backends are reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		dust := engine.NewDustClient(cfg.Dust, cfg.Timeout, cfg.PollInterval)
		defer dust.Close()
		graphrag := engine.NewGraphRAGClient(cfg.GraphRAG, cfg.Timeout)
		defer graphrag.Close()

		failed := 0
		for _, client := range []engine.RAGClient{dust, graphrag} {
			if client.HealthCheck(cmd.Context()) {
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s ok\n", client.SystemName())
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s UNREACHABLE\n", client.SystemName())
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d backend(s) unreachable", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
