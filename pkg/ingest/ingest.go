// Package ingest reads edge lists, vertex id lists and label files.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gilchrisn/leiden-runner/pkg/models"
)

// Format identifies the on-disk layout of an edge list
type Format int

const (
	FormatAuto Format = iota
	FormatText
	FormatParquet
)

func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatParquet:
		return "parquet"
	default:
		return "auto"
	}
}

// ParseFormat converts a user supplied format name
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return FormatAuto, nil
	case "text", "tsv", "csv", "txt":
		return FormatText, nil
	case "parquet":
		return FormatParquet, nil
	}
	return FormatAuto, fmt.Errorf("unknown input format %q (want auto, text or parquet)", name)
}

// DetectFormat infers the format from the file extension
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".csv", ".txt", ".edges", ".el":
		return FormatText, nil
	case ".parquet", ".pq":
		return FormatParquet, nil
	}
	return FormatAuto, &IngestionError{Path: path, Reason: "unsupported file extension (expected .tsv, .csv, .txt or .parquet)"}
}

// EdgeList is the result of reading an edge source
type EdgeList struct {
	Edges []models.RawEdge[int64]
	// MaxID is the largest raw identifier seen on either endpoint
	MaxID int64
	// HeaderSkipped reports whether a text header line was dropped
	HeaderSkipped bool
}

func (el *EdgeList) add(src, dst int64) {
	if len(el.Edges) == 0 || src > el.MaxID {
		el.MaxID = src
	}
	if dst > el.MaxID {
		el.MaxID = dst
	}
	el.Edges = append(el.Edges, models.RawEdge[int64]{Src: src, Dst: dst})
}

// ReadEdges opens path and reads it as an edge list. The file handle is
// closed on every return path.
func ReadEdges(ctx context.Context, path string, format Format) (*EdgeList, error) {
	if format == FormatAuto {
		var err error
		if format, err = DetectFormat(path); err != nil {
			return nil, err
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &IngestionError{Path: path, Reason: "cannot open input", Err: err}
	}
	defer f.Close()

	var el *EdgeList
	switch format {
	case FormatParquet:
		el, err = ReadParquet(ctx, f)
	default:
		el, err = ReadText(f)
	}
	if err != nil {
		return nil, withPath(err, path)
	}
	return el, nil
}
