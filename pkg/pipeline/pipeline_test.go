package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/leiden-runner/pkg/datasets"
	"github.com/gilchrisn/leiden-runner/pkg/driver"
	"github.com/gilchrisn/leiden-runner/pkg/evaluation"
	"github.com/gilchrisn/leiden-runner/pkg/gonumopt"
	"github.com/gilchrisn/leiden-runner/pkg/graph"
	"github.com/gilchrisn/leiden-runner/pkg/idmap"
	"github.com/gilchrisn/leiden-runner/pkg/ingest"
	"github.com/gilchrisn/leiden-runner/pkg/louvain"
	"github.com/gilchrisn/leiden-runner/pkg/membership"
	"github.com/gilchrisn/leiden-runner/pkg/models"
	"github.com/gilchrisn/leiden-runner/pkg/monitoring"
	"github.com/gilchrisn/leiden-runner/pkg/objective"
	"github.com/gilchrisn/leiden-runner/pkg/optimiser"
	"github.com/gilchrisn/leiden-runner/pkg/output"
)

func newPipeline(metrics *monitoring.Registry) *Pipeline {
	engines := optimiser.NewRegistry(
		louvain.NewEngine(louvain.DefaultOptions()),
		gonumopt.NewEngine(zerolog.Nop()),
	)
	return New(engines, metrics, zerolog.Nop())
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func defaultOptions(o objective.Objective) Options {
	return Options{
		Objective:  o,
		Engine:     louvain.EngineName,
		Seed:       42,
		Policy:     driver.Policy{Iterations: driver.UntilConvergence},
		OneIndexed: true,
	}
}

func TestToyPathWritesEveryVertex(t *testing.T) {
	dir := t.TempDir()
	job := Job{
		Input:   writeFile(t, dir, "toy.tsv", "1 2\n2 3\n3 4\n4 5\n"),
		IDsPath: writeFile(t, dir, "ids.txt", "1\n2\n3\n4\n5\n"),
		Output:  filepath.Join(dir, "out.tsv"),
		Options: defaultOptions(objective.CPM{Resolution: 1}),
	}

	res, err := newPipeline(nil).Run(context.Background(), job)
	require.NoError(t, err)
	assert.Len(t, res.Table, 5)
	assert.Equal(t, 5, res.Vertices)
	assert.Equal(t, 1, res.Rounds)
	assert.True(t, res.Converged)

	data, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, "1\t1\n2\t2\n3\t3\n4\t4\n5\t5\n", string(data))
}

func TestIsolatedVertexIsReported(t *testing.T) {
	req := Request{
		Edges: []models.RawEdge[int64]{{Src: 1, Dst: 2}},
		IDs:   []int64{1, 2, 3},
	}
	res, err := newPipeline(nil).Cluster(context.Background(), req, defaultOptions(objective.Modularity{}))
	require.NoError(t, err)
	require.Len(t, res.Rows, 3)
	assert.Equal(t, int64(3), res.Rows[2].ID)
	assert.Equal(t, []models.ResultRow[int64]{{ID: 1, Cluster: 1}, {ID: 2, Cluster: 1}, {ID: 3, Cluster: 2}}, res.Rows)
}

func TestUnknownVertexWritesNothing(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "results")
	job := Job{
		Input:   writeFile(t, dir, "edges.tsv", "1 2\n2 99\n"),
		IDsPath: writeFile(t, dir, "ids.txt", "1\n2\n3\n"),
		Output:  outDir + "/",
		Options: defaultOptions(objective.CPM{Resolution: 1}),
	}

	_, err := newPipeline(nil).Run(context.Background(), job)
	var unknown *idmap.UnknownVertexError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, int64(99), unknown.ID)
	assert.Equal(t, KindInput, Classify(err))

	_, statErr := os.Stat(outDir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunsAreByteIdentical(t *testing.T) {
	dir := t.TempDir()
	ds := datasets.Karate()
	var b strings.Builder
	b.WriteString("source\ttarget\n")
	for _, e := range ds.Edges {
		fmt.Fprintf(&b, "%d\t%d\n", e.Src, e.Dst)
	}
	input := writeFile(t, dir, "karate.tsv", b.String())

	var outputs []string
	for i := 0; i < 2; i++ {
		job := Job{
			Input:   input,
			Output:  filepath.Join(dir, fmt.Sprintf("run%d", i)),
			Layout:  output.LayoutDir,
			Options: defaultOptions(objective.Modularity{}),
		}
		res, err := newPipeline(nil).Run(context.Background(), job)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, fmt.Sprintf("run%d", i), "modularity", output.ResultFileName), res.OutputPath)

		data, err := os.ReadFile(res.OutputPath)
		require.NoError(t, err)
		outputs = append(outputs, string(data))
	}
	assert.Equal(t, outputs[0], outputs[1])
	assert.Len(t, strings.Split(strings.TrimSpace(outputs[0]), "\n"), 34)
}

func TestKarateAgainstGroundTruth(t *testing.T) {
	ds := datasets.Karate()
	req := Request{
		Edges: ds.Edges,
		IDs:   ds.IDs,
		Truth: &ingest.Labels{IDs: ds.IDs, Values: ds.GroundTruth},
	}
	opts := defaultOptions(objective.Modularity{})
	opts.Policy = driver.Policy{Iterations: 10}

	res, err := newPipeline(nil).Cluster(context.Background(), req, opts)
	require.NoError(t, err)
	require.NotNil(t, res.Evaluation)
	assert.Equal(t, 34, res.Evaluation.Items)
	assert.Greater(t, res.Evaluation.ARI, 0.2)
	assert.Greater(t, res.Evaluation.NMI, 0.3)
	assert.Equal(t, 2, res.Evaluation.Truth.Clusters)
	assert.Equal(t, res.Clusters, res.Evaluation.Predicted.Clusters)
}

func TestTruthLengthMismatch(t *testing.T) {
	req := Request{
		Edges: []models.RawEdge[int64]{{Src: 1, Dst: 2}, {Src: 2, Dst: 3}},
		Truth: &ingest.Labels{Values: []int64{0, 1}},
	}
	_, err := newPipeline(nil).Cluster(context.Background(), req, defaultOptions(objective.CPM{Resolution: 0.1}))
	var mismatch *evaluation.LengthMismatchError
	assert.True(t, errors.As(err, &mismatch))
	assert.Equal(t, KindInput, Classify(err))
}

func TestReportAndMetricsFiles(t *testing.T) {
	dir := t.TempDir()
	metrics := monitoring.NewRegistry()
	job := Job{
		Input:       writeFile(t, dir, "edges.csv", "# two triangles\n10,11\n11,12\n10,12\n12,13\n13,14\n14,15\n13,15\n"),
		Output:      filepath.Join(dir, "out.tsv"),
		ReportPath:  filepath.Join(dir, "report.json"),
		MetricsPath: filepath.Join(dir, "leiden.prom"),
		Dataset:     "triangles",
		Options:     defaultOptions(objective.Modularity{}),
	}

	res, err := newPipeline(metrics).Run(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Clusters)

	report, err := os.ReadFile(job.ReportPath)
	require.NoError(t, err)
	assert.Contains(t, string(report), `"dataset": "triangles"`)
	assert.Contains(t, string(report), `"run_id": "`+res.RunID+`"`)

	prom, err := os.ReadFile(job.MetricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `leiden_runs_total{engine="louvain",objective="modularity",outcome="success"} 1`)
	assert.Contains(t, string(prom), "leiden_graph_vertices 6")
}

func TestLegacyOutput(t *testing.T) {
	dir := t.TempDir()
	job := Job{
		Input:   writeFile(t, dir, "edges.txt", "0 1\n1 2\n0 2\n4 5\n"),
		Output:  filepath.Join(dir, "legacy.txt"),
		Legacy:  true,
		Options: defaultOptions(objective.CPM{Resolution: 0.5}),
	}
	res, err := newPipeline(nil).Run(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, 6, res.Vertices)

	data, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, "0\t0\n1\t0\n2\t0\n3\t2\n4\t1\n5\t1\n", string(data))
}

func TestLegacyOutputRejectsHugeIDs(t *testing.T) {
	dir := t.TempDir()
	for _, input := range []string{"0 9223372036854775807\n", "0 1000000000000\n"} {
		job := Job{
			Input:   writeFile(t, dir, "edges.txt", input),
			Output:  filepath.Join(dir, "legacy.txt"),
			Legacy:  true,
			Options: defaultOptions(objective.CPM{Resolution: 0.5}),
		}
		_, err := newPipeline(nil).Run(context.Background(), job)
		var argument *ArgumentError
		require.True(t, errors.As(err, &argument), "got %v", err)
		assert.Equal(t, KindInput, Classify(err))
		assert.NoFileExists(t, job.Output)
	}
}

func TestLegacyOutputRejectsIDList(t *testing.T) {
	dir := t.TempDir()
	job := Job{
		Input:   writeFile(t, dir, "edges.txt", "0 1\n1 2\n"),
		IDsPath: writeFile(t, dir, "ids.txt", "2\n1\n0\n"),
		Output:  filepath.Join(dir, "legacy.txt"),
		Legacy:  true,
		Options: defaultOptions(objective.CPM{Resolution: 0.5}),
	}
	_, err := newPipeline(nil).Run(context.Background(), job)
	var argument *ArgumentError
	require.True(t, errors.As(err, &argument), "got %v", err)
	assert.NoFileExists(t, job.Output)
}

func TestOutputOntoDirectoryIsInputError(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "taken")
	writeFile(t, dir, "edges.txt", "1 2\n2 3\n")
	require.NoError(t, os.MkdirAll(target, 0755))
	writeFile(t, target, "keep.txt", "x\n")

	job := Job{
		Input:   filepath.Join(dir, "edges.txt"),
		Output:  target,
		Layout:  output.LayoutFile,
		Options: defaultOptions(objective.CPM{Resolution: 0.5}),
	}
	_, err := newPipeline(nil).Run(context.Background(), job)
	var we *output.WriteError
	require.True(t, errors.As(err, &we), "got %v", err)
	assert.Equal(t, KindInput, Classify(err))
}

func TestFailedReportRemovesResult(t *testing.T) {
	dir := t.TempDir()
	report := filepath.Join(dir, "report.json")
	require.NoError(t, os.MkdirAll(report, 0755))
	writeFile(t, report, "keep.txt", "x\n")

	job := Job{
		Input:      writeFile(t, dir, "edges.txt", "1 2\n2 3\n"),
		Output:     filepath.Join(dir, "out.tsv"),
		ReportPath: report,
		Options:    defaultOptions(objective.CPM{Resolution: 0.5}),
	}
	_, err := newPipeline(nil).Run(context.Background(), job)
	require.Error(t, err)
	assert.Equal(t, KindInput, Classify(err))
	assert.NoFileExists(t, job.Output)
}

func TestDirectedGraphs(t *testing.T) {
	req := Request{Edges: []models.RawEdge[int64]{{Src: 1, Dst: 2}, {Src: 2, Dst: 3}, {Src: 3, Dst: 1}}}
	opts := defaultOptions(objective.Modularity{})
	opts.Directed = true

	_, err := newPipeline(nil).Cluster(context.Background(), req, opts)
	var incompatible *optimiser.IncompatibleGraphError
	require.True(t, errors.As(err, &incompatible))
	assert.Equal(t, KindAlgorithm, Classify(err))

	opts.Engine = gonumopt.EngineName
	res, err := newPipeline(nil).Cluster(context.Background(), req, opts)
	require.NoError(t, err)
	assert.Len(t, res.Rows, 3)
}

func TestUnknownEngine(t *testing.T) {
	opts := defaultOptions(objective.CPM{Resolution: 1})
	opts.Engine = "igraph"
	_, err := newPipeline(nil).Cluster(context.Background(), Request{}, opts)
	var argument *ArgumentError
	require.True(t, errors.As(err, &argument))
	assert.Contains(t, err.Error(), "louvain")
	assert.Equal(t, KindInput, Classify(err))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{nil, KindNone},
		{&ingest.IngestionError{Reason: "empty"}, KindInput},
		{fmt.Errorf("wrapped: %w", &idmap.DuplicateVertexError{ID: 1}), KindInput},
		{&objective.InvalidObjectiveError{Name: "x"}, KindInput},
		{&os.PathError{Op: "open", Path: "x", Err: os.ErrPermission}, KindInput},
		{&output.WriteError{Path: "x", Op: "move into place", Err: &os.LinkError{Op: "rename", Old: "a", New: "x", Err: os.ErrExist}}, KindInput},
		{&graph.ConstructionError{Edge: 1, Reason: "bad"}, KindAlgorithm},
		{&driver.ConvergenceTimeoutError{Rounds: 3}, KindAlgorithm},
		{&membership.InternalConsistencyError{Vertex: 1}, KindAlgorithm},
		{errors.New("engine exploded"), KindAlgorithm},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.err), fmt.Sprint(tt.err))
	}
	assert.Equal(t, "input", KindInput.String())
}
