package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/gilchrisn/leiden-runner/pkg/ingest"
	"github.com/gilchrisn/leiden-runner/pkg/objective"
	"github.com/gilchrisn/leiden-runner/pkg/output"
)

// Job is a file based clustering run
type Job struct {
	Input     string
	Format    ingest.Format
	IDsPath   string // optional vertex id list
	TruthPath string // optional ground-truth labels
	Output    string
	Layout    output.Layout
	// Legacy writes "<index>\t<cluster>" rows for every id in 0..max id,
	// zero-indexed
	Legacy      bool
	ReportPath  string
	MetricsPath string
	Dataset     string
	Options
}

// FileResult adds the written paths to a Result
type FileResult struct {
	*Result
	OutputPath string
}

// maxLegacyVertices bounds the dense 0..max id vertex set of legacy output
const maxLegacyVertices = 1 << 26

// Run reads the job's inputs, clusters and writes the results. Nothing is
// written unless clustering succeeds, and the result file is removed again
// when the report or metrics file cannot be written.
func (p *Pipeline) Run(ctx context.Context, job Job) (*FileResult, error) {
	if job.Legacy && job.IDsPath != "" {
		return nil, &ArgumentError{Reason: "legacy output indexes vertices 0..max id and cannot follow a vertex id list"}
	}

	edges, err := ingest.ReadEdges(ctx, job.Input, job.Format)
	if err != nil {
		return nil, err
	}
	p.logger.Info().
		Str("input", job.Input).
		Int("edges", len(edges.Edges)).
		Int64("max_id", edges.MaxID).
		Bool("header_skipped", edges.HeaderSkipped).
		Msg("Edges loaded")

	req := Request{Edges: edges.Edges}
	switch {
	case job.IDsPath != "":
		if req.IDs, err = ingest.ReadIDsFile(job.IDsPath); err != nil {
			return nil, err
		}
	case job.Legacy:
		if edges.MaxID < 0 {
			return nil, &ArgumentError{Reason: "legacy output needs non-negative vertex ids"}
		}
		if edges.MaxID >= maxLegacyVertices {
			return nil, &ArgumentError{Reason: fmt.Sprintf("legacy output supports vertex ids below %d, largest id is %d", maxLegacyVertices, edges.MaxID)}
		}
		// the vertex set is every index up to the largest id
		req.IDs = make([]int64, edges.MaxID+1)
		for i := range req.IDs {
			req.IDs[i] = int64(i)
		}
	}
	if job.TruthPath != "" {
		if req.Truth, err = ingest.ReadLabelsFile(job.TruthPath); err != nil {
			return nil, err
		}
	}

	opts := job.Options
	if job.Legacy {
		opts.OneIndexed = false
	}
	res, err := p.Cluster(ctx, req, opts)
	if err != nil {
		return nil, err
	}

	fw := output.NewFileWriter(p.logger)
	out := &FileResult{Result: res, OutputPath: output.ResultPath(job.Output, res.Objective, job.Layout)}
	if job.Legacy {
		clusters := make([]int, len(res.Rows))
		for i, row := range res.Rows {
			clusters[i] = row.Cluster
		}
		err = fw.WriteLegacy(out.OutputPath, clusters)
	} else {
		err = fw.WriteAssignments(out.OutputPath, res.Rows)
	}
	if err != nil {
		return nil, err
	}

	if err := p.writeExtras(fw, job, out); err != nil {
		if rmErr := os.Remove(out.OutputPath); rmErr != nil {
			p.logger.Warn().Err(rmErr).Str("path", out.OutputPath).Msg("Failed to remove result file")
		}
		return nil, err
	}
	return out, nil
}

// writeExtras writes the optional run report and metrics textfile
func (p *Pipeline) writeExtras(fw *output.FileWriter, job Job, out *FileResult) error {
	if job.ReportPath != "" {
		if err := fw.WriteReport(job.ReportPath, p.Report(job, out)); err != nil {
			return err
		}
	}
	if job.MetricsPath != "" && p.metrics != nil {
		if err := p.metrics.WriteTextfile(job.MetricsPath); err != nil {
			return &output.WriteError{Path: job.MetricsPath, Op: "write metrics", Err: err}
		}
	}
	return nil
}

// Report summarises a finished job
func (p *Pipeline) Report(job Job, res *FileResult) *output.Report {
	resolution, _ := objective.Resolution(job.Objective)
	return &output.Report{
		RunID:      res.RunID,
		Dataset:    job.Dataset,
		Input:      job.Input,
		Output:     res.OutputPath,
		Engine:     res.Engine,
		Objective:  res.Objective,
		Resolution: resolution,
		Seed:       job.Seed,
		Policy:     job.Policy.String(),
		Directed:   job.Directed,
		Rounds:     res.Rounds,
		Converged:  res.Converged,
		Quality:    res.Quality,
		Vertices:   res.Vertices,
		Edges:      res.Edges,
		Clusters:   res.Clusters,
		StartedAt:  res.StartedAt,
		Duration:   res.Duration,
		Evaluation: res.Evaluation,
	}
}
