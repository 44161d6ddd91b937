package output

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/gilchrisn/leiden-runner/pkg/evaluation"
	"github.com/gilchrisn/leiden-runner/pkg/models"
)

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestWriteAssignmentsSortsByID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.tsv")
	rows := []models.ResultRow[int64]{{ID: 30, Cluster: 2}, {ID: -4, Cluster: 1}, {ID: 7, Cluster: 1}}

	require.NoError(t, NewFileWriter(zerolog.Nop()).WriteAssignments(path, rows))
	assert.Equal(t, "-4\t1\n7\t1\n30\t2\n", read(t, path))
	assert.Equal(t, int64(30), rows[0].ID, "input rows are not reordered")
}

func TestWriteAtomicLeavesNothingOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.tsv")
	boom := errors.New("boom")

	err := WriteAtomic(path, func(w *bufio.Writer) error {
		w.WriteString("partial\n")
		return boom
	})
	assert.ErrorIs(t, err, boom)
	var we *WriteError
	require.True(t, errors.As(err, &we))
	assert.Equal(t, "write", we.Op)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteAtomicOntoDirectory(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(filepath.Join(target, "keep"), 0755))

	err := WriteAtomic(target, func(w *bufio.Writer) error {
		_, err := w.WriteString("1\t1\n")
		return err
	})
	var we *WriteError
	require.True(t, errors.As(err, &we), "got %v", err)
	assert.Equal(t, "move into place", we.Op)
	assert.Equal(t, target, we.Path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file is removed")
}

func TestWriteAtomicReplacesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.tsv")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0644))

	require.NoError(t, WriteAtomic(path, func(w *bufio.Writer) error {
		_, err := w.WriteString("new\n")
		return err
	}))
	assert.Equal(t, "new\n", read(t, path))
}

func TestWriteLegacy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.txt")
	require.NoError(t, NewFileWriter(zerolog.Nop()).WriteLegacy(path, []int{0, 0, 1}))
	assert.Equal(t, "0\t0\n1\t0\n2\t1\n", read(t, path))
}

func TestWriteValidationCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "karate.csv")
	rows := []ValidationRow{{ID: 1, Detected: 0, Truth: 0}, {ID: 2, Detected: 1, Truth: 0}}
	require.NoError(t, NewFileWriter(zerolog.Nop()).WriteValidationCSV(path, rows))
	assert.Equal(t, "OriginalNodeID,DetectedCluster,GroundTruthCluster\n1,0,0\n2,1,0\n", read(t, path))
}

func TestResultPath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "out.tsv")

	assert.Equal(t, file, ResultPath(file, "cpm", LayoutAuto))
	assert.Equal(t, filepath.Join(dir, "cpm", ResultFileName), ResultPath(dir, "cpm", LayoutAuto))
	assert.Equal(t, filepath.Join("results", "modularity", ResultFileName), ResultPath("results/", "modularity", LayoutAuto))
	assert.Equal(t, filepath.Join(file, "cpm", ResultFileName), ResultPath(file, "cpm", LayoutDir))
	assert.Equal(t, dir, ResultPath(dir, "cpm", LayoutFile))
}

func TestParseLayout(t *testing.T) {
	for in, want := range map[string]Layout{"": LayoutAuto, "AUTO": LayoutAuto, "file": LayoutFile, "dir": LayoutDir, "directory": LayoutDir} {
		got, err := ParseLayout(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLayout("tree")
	assert.Error(t, err)
	assert.Equal(t, "dir", LayoutDir.String())
}

func sampleReport() *Report {
	return &Report{
		RunID:      "run-1",
		Engine:     "louvain",
		Objective:  "cpm",
		Resolution: 0.5,
		Seed:       42,
		Policy:     "10 iterations",
		Rounds:     3,
		Converged:  true,
		Quality:    1.25,
		Vertices:   5,
		Edges:      4,
		Clusters:   2,
		StartedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Duration:   1500 * time.Millisecond,
		Evaluation: &evaluation.Report{Items: 5, ARI: 1, NMI: 1, Grade: evaluation.GradeHigh},
	}
}

func TestWriteReportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, NewFileWriter(zerolog.Nop()).WriteReport(path, sampleReport()))

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(read(t, path)), &got))
	assert.Equal(t, "run-1", got["run_id"])
	assert.Equal(t, 3.0, got["rounds"])
	assert.Equal(t, float64(1500*time.Millisecond), got["duration_ns"])
	assert.Equal(t, "high", got["evaluation"].(map[string]any)["grade"])
	assert.NotContains(t, got, "dataset")
}

func TestWriteReportYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yml")
	require.NoError(t, NewFileWriter(zerolog.Nop()).WriteReport(path, sampleReport()))

	var got map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(read(t, path)), &got))
	assert.Equal(t, "cpm", got["objective"])
	assert.Equal(t, "1.5s", got["duration"])
	assert.Equal(t, true, got["converged"])
}
