package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gilchrisn/leiden-runner/pkg/driver"
	"github.com/gilchrisn/leiden-runner/pkg/ingest"
	"github.com/gilchrisn/leiden-runner/pkg/monitoring"
	"github.com/gilchrisn/leiden-runner/pkg/objective"
	"github.com/gilchrisn/leiden-runner/pkg/output"
	"github.com/gilchrisn/leiden-runner/pkg/pipeline"
)

// runFlags are the flags of the default command that are not bound to the configuration
type runFlags struct {
	undirected  bool
	objective   string
	ids         string
	truth       string
	format      string
	zeroIndexed bool
	legacy      bool
	report      string
	metricsFile string
}

func (a *App) addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Bool("directed", false, "treat edges as directed")
	f.BoolVar(&a.flags.undirected, "undirected", false, "treat edges as undirected (default)")
	f.StringVarP(&a.flags.objective, "type", "t", "", "objective: "+strings.Join(objective.Names, ", "))
	f.Float64P("resolution", "r", a.cfg.Resolution(), "resolution parameter")
	f.Int64P("seed", "s", a.cfg.Seed(), "random seed")
	f.IntP("iterations", "i", a.cfg.Iterations(), "optimiser rounds, -1 runs until convergence")
	f.Int("max-rounds", a.cfg.MaxRounds(), "round cap when running until convergence")
	f.String("engine", a.cfg.Engine(), "optimisation engine (louvain, gonum)")
	f.String("layout", a.cfg.OutputLayout(), "output layout: auto, file or dir")
	f.StringVar(&a.flags.ids, "ids", "", "file listing the vertex ids; fixes the vertex set and row order")
	f.StringVar(&a.flags.truth, "truth", "", "ground-truth labels to score the result against")
	f.StringVar(&a.flags.format, "format", "auto", "input format: auto, text or parquet")
	f.BoolVar(&a.flags.zeroIndexed, "zero-indexed", false, "write cluster ids starting at 0")
	f.BoolVar(&a.flags.legacy, "legacy-output", false, "write index ordered rows for every id up to the largest")
	f.StringVar(&a.flags.report, "report", "", "write a run report (.json, .yaml or .yml)")
	f.StringVar(&a.flags.metricsFile, "metrics-file", "", "write Prometheus metrics in textfile format")

	bindings := map[string]string{
		"directed":   "graph.directed",
		"resolution": "algorithm.resolution",
		"seed":       "algorithm.seed",
		"iterations": "algorithm.iterations",
		"max-rounds": "algorithm.max_rounds",
		"engine":     "algorithm.engine",
		"layout":     "output.layout",
	}
	for name, key := range bindings {
		// the flags exist, binding cannot fail
		_ = a.cfg.BindFlag(key, f.Lookup(name))
	}
}

func (a *App) runArgs(cmd *cobra.Command, args []string) error {
	switch len(args) {
	case 2, 3, 4, 5:
		return nil
	}
	return usageError(fmt.Errorf("expected <input> <output> [objective] [resolution], got %d arguments", len(args)))
}

// positional splits the accepted argument forms
type positional struct {
	input, output, dataset, keyword, resolution string
}

func parsePositional(args []string) positional {
	p := positional{input: args[0], output: args[1]}
	switch len(args) {
	case 3:
		p.keyword = args[2]
	case 4:
		p.keyword, p.resolution = args[2], args[3]
	case 5:
		p.dataset, p.keyword, p.resolution = args[2], args[3], args[4]
	}
	return p
}

// job resolves flags, configuration and positional arguments into a job
func (a *App) job(cmd *cobra.Command, args []string) (pipeline.Job, error) {
	pos := parsePositional(args)

	resolution := a.cfg.Resolution()
	if pos.resolution != "" && !cmd.Flags().Changed("resolution") {
		v, err := strconv.ParseFloat(pos.resolution, 64)
		if err != nil {
			return pipeline.Job{}, usageError(fmt.Errorf("invalid resolution %q", pos.resolution))
		}
		resolution = v
	}

	var (
		obj objective.Objective
		err error
	)
	switch {
	case a.flags.objective != "":
		obj, err = objective.Parse(a.flags.objective, resolution)
	case pos.keyword != "":
		obj = objective.FromKeyword(pos.keyword, resolution)
	default:
		obj, err = objective.Parse(a.cfg.Objective(), resolution)
	}
	if err != nil {
		return pipeline.Job{}, err
	}

	format, err := ingest.ParseFormat(a.flags.format)
	if err != nil {
		return pipeline.Job{}, usageError(err)
	}
	layout, err := output.ParseLayout(a.cfg.OutputLayout())
	if err != nil {
		return pipeline.Job{}, usageError(err)
	}
	if pos.dataset != "" && layout == output.LayoutAuto {
		layout = output.LayoutDir
	}

	if cmd.Flags().Changed("directed") && a.flags.undirected {
		return pipeline.Job{}, usageError(fmt.Errorf("--directed and --undirected are mutually exclusive"))
	}
	directed := a.cfg.Directed() && !a.flags.undirected

	oneIndexed := a.cfg.OneIndexed()
	if a.flags.zeroIndexed {
		oneIndexed = false
	}

	return pipeline.Job{
		Input:       pos.input,
		Format:      format,
		IDsPath:     a.flags.ids,
		TruthPath:   a.flags.truth,
		Output:      pos.output,
		Layout:      layout,
		Legacy:      a.flags.legacy,
		ReportPath:  a.flags.report,
		MetricsPath: a.flags.metricsFile,
		Dataset:     pos.dataset,
		Options: pipeline.Options{
			Objective:  obj,
			Engine:     a.cfg.Engine(),
			Seed:       a.cfg.Seed(),
			Policy:     driver.Policy{Iterations: a.cfg.Iterations(), MaxRounds: a.cfg.MaxRounds()},
			Directed:   directed,
			OneIndexed: oneIndexed,
		},
	}, nil
}

func (a *App) runCluster(cmd *cobra.Command, args []string) error {
	job, err := a.job(cmd, args)
	if err != nil {
		return err
	}

	res, err := a.newPipeline(monitoring.NewRegistry()).Run(cmd.Context(), job)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Clustering complete. Results written to: %s\n", res.OutputPath)
	fmt.Fprintf(out, "Vertices: %d  Edges: %d  Clusters: %d  Rounds: %d  Converged: %t  Quality: %.6f\n",
		res.Vertices, res.Edges, res.Clusters, res.Rounds, res.Converged, res.Quality)
	if res.Evaluation != nil {
		fmt.Fprintf(out, "ARI: %.6f  NMI: %.6f  Agreement: %s\n", res.Evaluation.ARI, res.Evaluation.NMI, res.Evaluation.Grade)
	}
	return nil
}
