package ingest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Labels is a ground-truth or predicted labelling. Positional files carry
// one label per line; keyed files carry "id label" pairs and set IDs.
type Labels struct {
	IDs    []int64
	Values []int64
}

// Keyed reports whether labels are attached to vertex ids
func (l *Labels) Keyed() bool { return l.IDs != nil }

// Align returns the label sequence in the order of ids. Positional labels
// are returned unchanged so that length checks stay with the evaluator.
func (l *Labels) Align(ids []int64) ([]int64, error) {
	if !l.Keyed() {
		return l.Values, nil
	}
	byID := make(map[int64]int64, len(l.IDs))
	for i, id := range l.IDs {
		byID[id] = l.Values[i]
	}
	out := make([]int64, len(ids))
	for i, id := range ids {
		v, ok := byID[id]
		if !ok {
			return nil, &IngestionError{Reason: fmt.Sprintf("no label for vertex %d", id)}
		}
		out[i] = v
	}
	return out, nil
}

// ReadLabels reads a label file. The first data line decides between the
// positional and the keyed layout.
func ReadLabels(r io.Reader) (*Labels, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	labels := &Labels{}
	columns := 0
	header := false
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if skipLine(line) {
			continue
		}
		fields := splitFields(line)

		values := make([]int64, 0, 2)
		var parseErr error
		for _, f := range fields[:min(len(fields), 2)] {
			v, err := strconv.ParseInt(f, 10, 64)
			if err != nil {
				parseErr = err
				break
			}
			values = append(values, v)
		}
		if parseErr != nil {
			if columns == 0 && !header {
				header = true
				continue
			}
			return nil, &IngestionError{Line: lineNo, Reason: "invalid label line", Err: parseErr}
		}

		if columns == 0 {
			columns = len(values)
			if columns == 2 {
				labels.IDs = []int64{}
			}
		}
		if len(values) != columns {
			return nil, &IngestionError{Line: lineNo, Reason: fmt.Sprintf("expected %d columns, found %d", columns, len(values))}
		}
		if columns == 2 {
			labels.IDs = append(labels.IDs, values[0])
			labels.Values = append(labels.Values, values[1])
		} else {
			labels.Values = append(labels.Values, values[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &IngestionError{Line: lineNo, Reason: "read failed", Err: err}
	}
	if len(labels.Values) == 0 {
		return nil, &IngestionError{Reason: "no labels"}
	}
	return labels, nil
}

// ReadLabelsFile opens and reads a label file
func ReadLabelsFile(path string) (*Labels, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IngestionError{Path: path, Reason: "cannot open labels", Err: err}
	}
	defer f.Close()

	labels, err := ReadLabels(f)
	if err != nil {
		return nil, withPath(err, path)
	}
	return labels, nil
}

// ReadIDsFile opens and reads a vertex id list
func ReadIDsFile(path string) ([]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IngestionError{Path: path, Reason: "cannot open id list", Err: err}
	}
	defer f.Close()

	ids, err := ReadIDs(f)
	if err != nil {
		return nil, withPath(err, path)
	}
	return ids, nil
}
