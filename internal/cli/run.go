/*
PURPOSE:
  Defines the 'run' subcommand.
  Executes a full comparison experiment over a question dataset.

REQUIREMENTS:
  User-specified:
  - Run both backends over the dataset and print the comparison report.
  - Flag overrides for name, sample size, metrics, format, output dir,
    timeout, and worker count.

  Implementation-discovered:
  - Need to load config first, then apply flag overrides.
  - SIGINT must cancel in-flight queries and exit with a distinct error.

ARCHITECTURE INTEGRATION:
  - Calls: internal/engine.Runner
  - Uses: internal/config, internal/dataset, internal/metrics, internal/output

ERROR HANDLING:
  - Returns error if config validation, dataset loading, or the run fails.
  - Cancellation surfaces as ErrInterrupted.

IMPLEMENTATION RULES:
  - Setup flags in init().
  - Logic: Load Config -> Override -> Validate -> Run -> Render.

USAGE:
  rag-arena run questions.json --sample-size 25 --format markdown

RELATED FILES:
  - internal/cli/root.go
  - internal/engine/runner.go

MAINTENANCE:
  - Update when adding new CLI overrides.
*/

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/arenalabs/rag-arena/internal/config"
	"github.com/arenalabs/rag-arena/internal/dataset"
	"github.com/arenalabs/rag-arena/internal/engine"
	"github.com/arenalabs/rag-arena/internal/metrics"
	"github.com/arenalabs/rag-arena/internal/output"
)

var (
	runName       string
	runSampleSize int
	runMetrics    []string
	runFormat     string
	runOutputDir  string
	runTimeout    time.Duration
	runWorkers    int

	runCmd = &cobra.Command{
		Use:   "run <dataset>",
		Short: "Run a comparison experiment over a question dataset",
		Args:  cobra.ExactArgs(1),
		RunE:  runExperiment,
	}
)

func init() {
	runCmd.Flags().StringVar(&runName, "name", "", "experiment name (default: timestamped)")
	runCmd.Flags().IntVar(&runSampleSize, "sample-size", 0, "evaluate only the first N questions (0 = all)")
	runCmd.Flags().StringSliceVar(&runMetrics, "metrics", nil, "metrics to score (overrides config)")
	runCmd.Flags().StringVar(&runFormat, "format", "text", "report format: json, markdown, or text")
	runCmd.Flags().StringVar(&runOutputDir, "output-dir", "", "directory for per-question CSV/JSONL results")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "per-query timeout (overrides config)")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "parallel workers per system (overrides config)")
	rootCmd.AddCommand(runCmd)
}

func runExperiment(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if runMetrics != nil {
		cfg.Metrics = runMetrics
	}
	if runTimeout > 0 {
		cfg.Timeout = runTimeout
	}
	if runWorkers > 0 {
		cfg.ParallelWorkers = runWorkers
	}
	if runOutputDir != "" {
		cfg.OutputDir = runOutputDir
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	for _, w := range cfg.Warnings() {
		output.Logger.Warn(w)
	}

	datasetPath := args[0]
	questions, err := dataset.Load(datasetPath)
	if err != nil {
		return err
	}
	questions = dataset.Sample(questions, runSampleSize)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dust := engine.NewDustClient(cfg.Dust, cfg.Timeout, cfg.PollInterval)
	defer dust.Close()
	graphrag := engine.NewGraphRAGClient(cfg.GraphRAG, cfg.Timeout)
	defer graphrag.Close()

	runner := engine.NewRunner(cfg, dust, graphrag, metrics.Build(cfg.Metrics, cfg.Judge))
	closeWriters, err := attachWriters(runner, cfg.OutputDir)
	if err != nil {
		return err
	}
	defer closeWriters()

	res, err := runner.Run(ctx, dataset.Name(datasetPath), questions, runName)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return ErrInterrupted
		}
		return err
	}

	report, err := res.Render(runFormat)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), report)
	return nil
}

// attachWriters wires the per-question CSV and JSONL sinks into the runner
// and returns a cleanup func. An empty dir disables row output.
func attachWriters(runner *engine.Runner, dir string) (func(), error) {
	if dir == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir %s: %w", dir, err)
	}

	stamp := time.Now().Format("20060102_150405")
	csvw, err := output.NewCSVWriter(filepath.Join(dir, fmt.Sprintf("results_%s.csv", stamp)))
	if err != nil {
		return nil, err
	}
	jsonw, err := output.NewJSONWriter(filepath.Join(dir, fmt.Sprintf("results_%s.jsonl", stamp)))
	if err != nil {
		csvw.Close()
		return nil, err
	}
	runner.AddWriter(csvw)
	runner.AddWriter(jsonw)
	return func() {
		csvw.Close()
		jsonw.Close()
	}, nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
