// Package cli is the leiden-runner command tree.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gilchrisn/leiden-runner/pkg/config"
	"github.com/gilchrisn/leiden-runner/pkg/gonumopt"
	"github.com/gilchrisn/leiden-runner/pkg/louvain"
	"github.com/gilchrisn/leiden-runner/pkg/monitoring"
	"github.com/gilchrisn/leiden-runner/pkg/optimiser"
	"github.com/gilchrisn/leiden-runner/pkg/pipeline"
)

// Exit codes
const (
	ExitOK        = 0
	ExitUsage     = 1 // usage, argument, input and I/O errors
	ExitAlgorithm = 2 // construction, optimisation and consistency errors
)

// App carries the state shared by every command of one invocation
type App struct {
	cfg    *config.Config
	logger zerolog.Logger
	stdout io.Writer
	stderr io.Writer

	configPath string
	logLevel   string
	flags      runFlags
}

// Execute runs the command line and returns the process exit code
func Execute(ctx context.Context, version string, args []string, stdout, stderr io.Writer) int {
	app := &App{
		cfg:    config.NewConfig(),
		logger: zerolog.Nop(),
		stdout: stdout,
		stderr: stderr,
	}
	root := app.newRootCommand(version)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return ExitCode(err)
}

// ExitCode maps an error to the process exit code
func ExitCode(err error) int {
	switch pipeline.Classify(err) {
	case pipeline.KindNone:
		return ExitOK
	case pipeline.KindInput:
		return ExitUsage
	default:
		return ExitAlgorithm
	}
}

func usageError(err error) error {
	return &pipeline.ArgumentError{Reason: "usage", Err: err}
}

func (a *App) newRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "leiden-runner <input> <output> [objective] [resolution]",
		Short: "Cluster an edge list into communities and map the result back onto the input ids",
		Long: `leiden-runner reads an edge list (text or Parquet), normalizes its vertex ids,
optimises a partition for the chosen objective and writes one "<id>\t<cluster>"
line per vertex, sorted by id.

The five argument form "<input> <output_dir> <dataset_name> <objective> <resolution>"
is also accepted and writes <output_dir>/<objective>/leiden_results.tsv.`,
		Args:              a.runArgs,
		RunE:              a.runCluster,
		PersistentPreRunE: a.setup,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "configuration file (yaml, json or toml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	a.addRunFlags(root)
	root.AddCommand(a.newValidateCommand(), a.newEvaluateCommand(), a.newServeCommand())
	return root
}

// setup loads the configuration file and builds the logger
func (a *App) setup(cmd *cobra.Command, _ []string) error {
	if a.configPath != "" {
		if err := a.cfg.LoadFromFile(a.configPath); err != nil {
			return usageError(fmt.Errorf("loading config %s: %w", a.configPath, err))
		}
	}
	if a.logLevel != "" {
		a.cfg.Set("logging.level", a.logLevel)
	}
	a.logger = a.cfg.CreateLogger(a.stderr)
	return nil
}

// newPipeline wires the engines configured for this invocation
func (a *App) newPipeline(metrics *monitoring.Registry) *pipeline.Pipeline {
	engines := optimiser.NewRegistry(
		louvain.NewEngine(louvain.Options{
			MaxLevels: a.cfg.MaxLevels(),
			MaxPasses: a.cfg.MaxPasses(),
			MinGain:   a.cfg.MinGain(),
			Logger:    a.logger,
		}),
		gonumopt.NewEngine(a.logger),
	)
	return pipeline.New(engines, metrics, a.logger)
}
