package ingest

import (
	"errors"
	"fmt"
	"strings"
)

// IngestionError reports an unreadable or unusable input source
type IngestionError struct {
	Path   string
	Line   int
	Reason string
	Err    error
}

func (e *IngestionError) Error() string {
	var b strings.Builder
	b.WriteString("ingest")
	if e.Path != "" {
		fmt.Fprintf(&b, " %s", e.Path)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " line %d", e.Line)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *IngestionError) Unwrap() error { return e.Err }

// withPath fills in the source path on errors produced by the stream readers
func withPath(err error, path string) error {
	var ie *IngestionError
	if errors.As(err, &ie) && ie.Path == "" {
		ie.Path = path
	}
	return err
}
