// Package pipeline wires ingestion, normalization, optimisation, collection
// and evaluation into a single clustering run.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gilchrisn/leiden-runner/pkg/driver"
	"github.com/gilchrisn/leiden-runner/pkg/evaluation"
	"github.com/gilchrisn/leiden-runner/pkg/graph"
	"github.com/gilchrisn/leiden-runner/pkg/idmap"
	"github.com/gilchrisn/leiden-runner/pkg/ingest"
	"github.com/gilchrisn/leiden-runner/pkg/membership"
	"github.com/gilchrisn/leiden-runner/pkg/models"
	"github.com/gilchrisn/leiden-runner/pkg/monitoring"
	"github.com/gilchrisn/leiden-runner/pkg/objective"
	"github.com/gilchrisn/leiden-runner/pkg/optimiser"
)

// Options select the algorithm and its parameters
type Options struct {
	Objective  objective.Objective
	Engine     string
	Seed       int64
	Policy     driver.Policy
	Directed   bool
	OneIndexed bool
}

// Request is an in-memory clustering job
type Request struct {
	Edges []models.RawEdge[int64]
	// IDs fixes the vertex set and the row order when non-nil
	IDs []int64
	// Weights, when non-nil, holds one weight per edge
	Weights []float64
	// Truth, when non-nil, is scored against the result rows
	Truth *ingest.Labels
}

// Result is the outcome of a clustering run
type Result struct {
	RunID      string
	Engine     string
	Objective  string
	Rows       []models.ResultRow[int64]
	Table      membership.Table // reindexed clusters by internal id
	Vertices   int
	Edges      int
	Clusters   int
	Rounds     int
	Converged  bool
	Quality    float64
	StartedAt  time.Time
	Duration   time.Duration
	Evaluation *evaluation.Report
}

// Pipeline runs clustering jobs against a set of engines
type Pipeline struct {
	engines *optimiser.Registry
	metrics *monitoring.Registry
	logger  zerolog.Logger
}

// New creates a pipeline. metrics may be nil.
func New(engines *optimiser.Registry, metrics *monitoring.Registry, logger zerolog.Logger) *Pipeline {
	return &Pipeline{engines: engines, metrics: metrics, logger: logger}
}

// Engines returns the engine registry
func (p *Pipeline) Engines() *optimiser.Registry { return p.engines }

// Cluster runs one in-memory job. Argument and compatibility checks happen
// before any graph is built.
func (p *Pipeline) Cluster(ctx context.Context, req Request, opts Options) (res *Result, err error) {
	start := time.Now()
	res = &Result{RunID: uuid.NewString(), StartedAt: start}
	logger := p.logger.With().Str("run_id", res.RunID).Logger()

	if err := objective.Validate(opts.Objective); err != nil {
		return nil, err
	}
	res.Objective = opts.Objective.Name()

	eng, err := p.engines.Get(opts.Engine)
	if err != nil {
		return nil, &ArgumentError{Reason: "engine", Err: err}
	}
	res.Engine = eng.Name()

	if p.metrics != nil {
		defer func() {
			outcome := monitoring.OutcomeSuccess
			switch Classify(err) {
			case KindInput:
				outcome = monitoring.OutcomeInput
			case KindAlgorithm:
				outcome = monitoring.OutcomeFailure
			}
			var vertices, edges, clusters int
			if err == nil {
				vertices, edges, clusters = res.Vertices, res.Edges, res.Clusters
			}
			p.metrics.RecordRun(eng.Name(), opts.Objective.Name(), outcome, time.Since(start), vertices, edges, clusters)
		}()
	}

	if err := eng.Supports(opts.Objective, opts.Directed); err != nil {
		return nil, err
	}

	ids, edges, err := idmap.Normalize(req.Edges, req.IDs)
	if err != nil {
		return nil, err
	}
	g, err := graph.Build(ids.Len(), edges, req.Weights, opts.Directed)
	if err != nil {
		return nil, err
	}
	res.Vertices, res.Edges = g.NumNodes, g.NumEdges()

	logger.Info().
		Int("vertices", res.Vertices).
		Int("edges", res.Edges).
		Int("isolated", len(g.Isolated())).
		Str("engine", eng.Name()).
		Str("objective", opts.Objective.Name()).
		Int64("seed", opts.Seed).
		Stringer("policy", opts.Policy).
		Msg("Graph built, starting optimisation")

	observers := []driver.Observer{driver.LogObserver(logger)}
	if p.metrics != nil {
		observers = append(observers, p.metrics)
	}
	driven, err := driver.Drive(ctx, eng, g, opts.Objective, opts.Seed, opts.Policy, observers...)
	if err != nil {
		return nil, err
	}
	res.Rounds, res.Converged, res.Quality = driven.Rounds, driven.Converged, driven.Quality

	table, err := membership.Collect(g, driven.Run)
	if err != nil {
		return nil, err
	}
	res.Table, res.Clusters = table.Reindex()

	if res.Rows, err = membership.Project(ids, res.Table, req.IDs, opts.OneIndexed); err != nil {
		return nil, err
	}

	if req.Truth != nil {
		if res.Evaluation, err = score(req.Truth, res.Rows); err != nil {
			return nil, err
		}
	}

	res.Duration = time.Since(start)
	event := logger.Info().
		Int("rounds", res.Rounds).
		Bool("converged", res.Converged).
		Float64("quality", res.Quality).
		Int("clusters", res.Clusters).
		Dur("duration", res.Duration)
	if res.Evaluation != nil {
		event = event.Float64("ari", res.Evaluation.ARI).Float64("nmi", res.Evaluation.NMI)
	}
	event.Msg("Clustering completed")
	return res, nil
}

// score compares the ground truth with the row clusters in row order
func score(truth *ingest.Labels, rows []models.ResultRow[int64]) (*evaluation.Report, error) {
	order := make([]int64, len(rows))
	predicted := make([]int, len(rows))
	for i, row := range rows {
		order[i] = row.ID
		predicted[i] = row.Cluster
	}
	aligned, err := truth.Align(order)
	if err != nil {
		return nil, fmt.Errorf("aligning ground truth: %w", err)
	}
	return evaluation.Compare(aligned, toInt64(predicted))
}

func toInt64(v []int) []int64 {
	out := make([]int64, len(v))
	for i, x := range v {
		out[i] = int64(x)
	}
	return out
}
