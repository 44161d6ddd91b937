// Package output writes clustering results. Every file is written to a
// temporary sibling and renamed into place, so a failed run never leaves a
// partial result behind.
package output

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/leiden-runner/pkg/models"
)

// ResultFileName is the file written inside an output directory
const ResultFileName = "leiden_results.tsv"

// Layout decides how the output argument is interpreted
type Layout int

const (
	LayoutAuto Layout = iota // directory when the path is one or ends in a separator
	LayoutFile
	LayoutDir
)

func (l Layout) String() string {
	switch l {
	case LayoutFile:
		return "file"
	case LayoutDir:
		return "dir"
	default:
		return "auto"
	}
}

// ParseLayout parses auto, file or dir
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return LayoutAuto, nil
	case "file":
		return LayoutFile, nil
	case "dir", "directory":
		return LayoutDir, nil
	}
	return LayoutAuto, fmt.Errorf("unknown output layout %q (valid: auto, file, dir)", s)
}

// ResultPath resolves where the assignments go. Directory outputs are laid
// out as <output>/<objective>/leiden_results.tsv.
func ResultPath(output, objective string, layout Layout) string {
	dir := layout == LayoutDir
	if layout == LayoutAuto {
		if strings.HasSuffix(output, "/") || strings.HasSuffix(output, string(filepath.Separator)) {
			dir = true
		} else if info, err := os.Stat(output); err == nil && info.IsDir() {
			dir = true
		}
	}
	if dir {
		return filepath.Join(output, objective, ResultFileName)
	}
	return output
}

// FileWriter writes result files
type FileWriter struct {
	logger zerolog.Logger
}

// NewFileWriter creates a writer that logs every file it produces
func NewFileWriter(logger zerolog.Logger) *FileWriter {
	return &FileWriter{logger: logger}
}

// WriteError reports a result file that could not be written or moved
// into place
type WriteError struct {
	Path string
	Op   string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// WriteAtomic creates the parent directory, streams into a temporary file
// next to path and renames it over path once write succeeds. Failures are
// returned as *WriteError.
func WriteAtomic(path string, write func(w *bufio.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &WriteError{Path: dir, Op: "create output directory", Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return &WriteError{Path: path, Op: "create temporary file for", Err: err}
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriter(tmp)
	if err = write(w); err != nil {
		return &WriteError{Path: path, Op: "write", Err: err}
	}
	if err = w.Flush(); err != nil {
		return &WriteError{Path: path, Op: "flush", Err: err}
	}
	if err = tmp.Sync(); err != nil {
		return &WriteError{Path: path, Op: "sync", Err: err}
	}
	if err = tmp.Close(); err != nil {
		return &WriteError{Path: path, Op: "close", Err: err}
	}
	if err = os.Chmod(tmp.Name(), 0644); err != nil {
		return &WriteError{Path: path, Op: "set permissions on", Err: err}
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return &WriteError{Path: path, Op: "move into place", Err: err}
	}
	return nil
}

// WriteAssignments writes one "<id>\t<cluster>" line per row in ascending id order
func (fw *FileWriter) WriteAssignments(path string, rows []models.ResultRow[int64]) error {
	sorted := make([]models.ResultRow[int64], len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	err := WriteAtomic(path, func(w *bufio.Writer) error {
		for _, row := range sorted {
			if _, err := fmt.Fprintf(w, "%d\t%d\n", row.ID, row.Cluster); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	fw.logger.Info().Str("path", path).Int("rows", len(sorted)).Msg("Assignments written")
	return nil
}

// WriteLegacy writes "<index>\t<cluster>" for every internal vertex in index order
func (fw *FileWriter) WriteLegacy(path string, clusters []int) error {
	err := WriteAtomic(path, func(w *bufio.Writer) error {
		for i, c := range clusters {
			if _, err := fmt.Fprintf(w, "%d\t%d\n", i, c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	fw.logger.Info().Str("path", path).Int("rows", len(clusters)).Msg("Legacy assignments written")
	return nil
}

// ValidationRow is one vertex of a benchmark comparison
type ValidationRow struct {
	ID       int64
	Detected int
	Truth    int
}

// WriteValidationCSV exports a benchmark comparison with a header row
func (fw *FileWriter) WriteValidationCSV(path string, rows []ValidationRow) error {
	err := WriteAtomic(path, func(w *bufio.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"OriginalNodeID", "DetectedCluster", "GroundTruthCluster"}); err != nil {
			return err
		}
		for _, row := range rows {
			record := []string{
				strconv.FormatInt(row.ID, 10),
				strconv.Itoa(row.Detected),
				strconv.Itoa(row.Truth),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
	if err != nil {
		return err
	}
	fw.logger.Info().Str("path", path).Int("rows", len(rows)).Msg("Validation CSV written")
	return nil
}
