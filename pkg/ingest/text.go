package ingest

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"unicode"
)

const maxLineBytes = 16 << 20

// splitFields tokenizes a line on whitespace and commas so that .csv input
// and whitespace-delimited input share one reader
func splitFields(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
}

// skipLine reports blank lines and '#' comments
func skipLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" || strings.HasPrefix(trimmed, "#")
}

// ReadText reads a delimited edge list: two leading integer columns per line,
// '#' comments, at most one header line, extra columns ignored.
func ReadText(r io.Reader) (*EdgeList, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	el := &EdgeList{}
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if skipLine(line) {
			continue
		}

		fields := splitFields(line)
		if len(fields) < 2 {
			return nil, &IngestionError{Line: lineNo, Reason: "expected at least two columns"}
		}

		src, srcErr := strconv.ParseInt(fields[0], 10, 64)
		dst, dstErr := strconv.ParseInt(fields[1], 10, 64)
		switch {
		case srcErr != nil && dstErr != nil && !el.HeaderSkipped && len(el.Edges) == 0:
			el.HeaderSkipped = true
			continue
		case srcErr != nil:
			return nil, &IngestionError{Line: lineNo, Reason: "invalid source id " + strconv.Quote(fields[0]), Err: srcErr}
		case dstErr != nil:
			return nil, &IngestionError{Line: lineNo, Reason: "invalid destination id " + strconv.Quote(fields[1]), Err: dstErr}
		}
		el.add(src, dst)
	}
	if err := scanner.Err(); err != nil {
		return nil, &IngestionError{Line: lineNo, Reason: "read failed", Err: err}
	}
	if len(el.Edges) == 0 {
		return nil, &IngestionError{Reason: "no valid edges"}
	}
	return el, nil
}

// ReadIDs reads a vertex id list, one identifier per line (first column)
func ReadIDs(r io.Reader) ([]int64, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var ids []int64
	header := false
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if skipLine(line) {
			continue
		}
		fields := splitFields(line)
		id, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			if len(ids) == 0 && !header {
				header = true
				continue
			}
			return nil, &IngestionError{Line: lineNo, Reason: "invalid vertex id " + strconv.Quote(fields[0]), Err: err}
		}
		ids = append(ids, id)
	}
	if err := scanner.Err(); err != nil {
		return nil, &IngestionError{Line: lineNo, Reason: "read failed", Err: err}
	}
	if len(ids) == 0 {
		return nil, &IngestionError{Reason: "no vertex ids"}
	}
	return ids, nil
}
