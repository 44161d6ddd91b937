package pipeline

import (
	"errors"
	"io/fs"

	"github.com/gilchrisn/leiden-runner/pkg/driver"
	"github.com/gilchrisn/leiden-runner/pkg/evaluation"
	"github.com/gilchrisn/leiden-runner/pkg/graph"
	"github.com/gilchrisn/leiden-runner/pkg/idmap"
	"github.com/gilchrisn/leiden-runner/pkg/ingest"
	"github.com/gilchrisn/leiden-runner/pkg/membership"
	"github.com/gilchrisn/leiden-runner/pkg/objective"
	"github.com/gilchrisn/leiden-runner/pkg/optimiser"
	"github.com/gilchrisn/leiden-runner/pkg/output"
)

// ArgumentError reports an unusable option, such as an unknown engine
type ArgumentError struct {
	Reason string
	Err    error
}

func (e *ArgumentError) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *ArgumentError) Unwrap() error { return e.Err }

// Kind groups errors by who has to act on them
type Kind int

const (
	KindNone      Kind = iota
	KindInput          // bad arguments, unreadable or inconsistent input, I/O
	KindAlgorithm      // construction, optimisation or consistency failure
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindAlgorithm:
		return "algorithm"
	default:
		return "none"
	}
}

// Classify maps an error onto a Kind. Unrecognised errors count as
// algorithm failures.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}

	var (
		argument   *ArgumentError
		ingestion  *ingest.IngestionError
		unknown    *idmap.UnknownVertexError
		duplicate  *idmap.DuplicateVertexError
		invalid    *objective.InvalidObjectiveError
		mismatch   *evaluation.LengthMismatchError
		pathErr    *fs.PathError
		writeErr   *output.WriteError
		construct  *graph.ConstructionError
		timeout    *driver.ConvergenceTimeoutError
		incompat   *optimiser.IncompatibleGraphError
		consistent *membership.InternalConsistencyError
	)
	switch {
	case errors.As(err, &construct), errors.As(err, &timeout), errors.As(err, &incompat), errors.As(err, &consistent):
		return KindAlgorithm
	case errors.As(err, &argument), errors.As(err, &ingestion), errors.As(err, &unknown),
		errors.As(err, &duplicate), errors.As(err, &invalid), errors.As(err, &mismatch), errors.As(err, &pathErr),
		errors.As(err, &writeErr):
		return KindInput
	}
	return KindAlgorithm
}
