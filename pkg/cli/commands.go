package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gilchrisn/leiden-runner/pkg/api"
	"github.com/gilchrisn/leiden-runner/pkg/datasets"
	"github.com/gilchrisn/leiden-runner/pkg/driver"
	"github.com/gilchrisn/leiden-runner/pkg/evaluation"
	"github.com/gilchrisn/leiden-runner/pkg/ingest"
	"github.com/gilchrisn/leiden-runner/pkg/louvain"
	"github.com/gilchrisn/leiden-runner/pkg/monitoring"
	"github.com/gilchrisn/leiden-runner/pkg/objective"
	"github.com/gilchrisn/leiden-runner/pkg/output"
	"github.com/gilchrisn/leiden-runner/pkg/pipeline"
)

func (a *App) newValidateCommand() *cobra.Command {
	var (
		objectiveName string
		resolution    float64
		seed          int64
		iterations    int
		engine        string
		csvPath       string
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Cluster Zachary's karate club and score the result against its two factions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			obj, err := objective.Parse(objectiveName, resolution)
			if err != nil {
				return err
			}
			karate := datasets.Karate()
			res, err := a.newPipeline(monitoring.NewRegistry()).Cluster(cmd.Context(), pipeline.Request{
				Edges: karate.Edges,
				IDs:   karate.IDs,
				Truth: &ingest.Labels{IDs: karate.IDs, Values: karate.GroundTruth},
			}, pipeline.Options{
				Objective: obj,
				Engine:    engine,
				Seed:      seed,
				Policy:    driver.Policy{Iterations: iterations, MaxRounds: a.cfg.MaxRounds()},
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Dataset: %s\n", karate.Description)
			fmt.Fprintf(out, "Objective: %s  Engine: %s  Rounds: %d\n", res.Objective, res.Engine, res.Rounds)
			fmt.Fprintf(out, "Clusters detected: %d\n", res.Clusters)
			fmt.Fprintf(out, "ARI: %.6f\n", res.Evaluation.ARI)
			fmt.Fprintf(out, "NMI: %.6f\n", res.Evaluation.NMI)

			if csvPath == "" {
				return nil
			}
			rows := make([]output.ValidationRow, len(res.Rows))
			for i, row := range res.Rows {
				rows[i] = output.ValidationRow{ID: row.ID, Detected: row.Cluster, Truth: int(karate.GroundTruth[i])}
			}
			if err := output.NewFileWriter(a.logger).WriteValidationCSV(csvPath, rows); err != nil {
				return err
			}
			fmt.Fprintf(out, "Comparison written to: %s\n", csvPath)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&objectiveName, "type", "t", objective.CPM{}.Name(), "objective")
	f.Float64VarP(&resolution, "resolution", "r", 0.2, "resolution parameter")
	f.Int64VarP(&seed, "seed", "s", 42, "random seed")
	f.IntVarP(&iterations, "iterations", "i", 10, "optimiser rounds, -1 runs until convergence")
	f.StringVar(&engine, "engine", louvain.EngineName, "optimisation engine")
	f.StringVar(&csvPath, "csv", "", "write the per vertex comparison as CSV")
	return cmd
}

func (a *App) newEvaluateCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "evaluate <truth> <predicted>",
		Short: "Compare two labellings with ARI and NMI",
		Long: `evaluate reads two label files, either one label per line or "id label" pairs,
and reports the Adjusted Rand Index and Normalized Mutual Information.
When both files are keyed the predicted labels are aligned to the truth ids.`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 2 {
				return usageError(fmt.Errorf("expected <truth> <predicted>, got %d arguments", len(args)))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			truth, err := ingest.ReadLabelsFile(args[0])
			if err != nil {
				return err
			}
			pred, err := ingest.ReadLabelsFile(args[1])
			if err != nil {
				return err
			}
			predicted := pred.Values
			if truth.Keyed() && pred.Keyed() {
				if predicted, err = pred.Align(truth.IDs); err != nil {
					return err
				}
			}

			report, err := evaluation.Compare(truth.Values, predicted)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func printReport(w io.Writer, r *evaluation.Report) {
	fmt.Fprintf(w, "Items: %d\n", r.Items)
	fmt.Fprintf(w, "ARI: %.6f\n", r.ARI)
	fmt.Fprintf(w, "NMI: %.6f\n", r.NMI)
	fmt.Fprintf(w, "Truth clusters: %d (mean size %.2f, max %d, min %d)\n",
		r.Truth.Clusters, r.Truth.Mean, r.Truth.Max, r.Truth.Min)
	fmt.Fprintf(w, "Predicted clusters: %d (mean size %.2f, max %d, min %d)\n",
		r.Predicted.Clusters, r.Predicted.Mean, r.Predicted.Max, r.Predicted.Min)
	fmt.Fprintf(w, "Agreement: %s\n", r.Grade)
}

func (a *App) newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the clustering API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			metrics := monitoring.NewRegistry()
			server := api.NewServer(a.cfg, a.newPipeline(metrics), metrics, a.logger)
			return server.Run(cmd.Context())
		},
	}
	cmd.Flags().String("address", a.cfg.ServerAddress(), "listen address")
	_ = a.cfg.BindFlag("server.address", cmd.Flags().Lookup("address"))
	return cmd
}
