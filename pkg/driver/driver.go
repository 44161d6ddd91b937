// Package driver runs an optimisation engine round by round under an
// iteration policy.
package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/leiden-runner/pkg/graph"
	"github.com/gilchrisn/leiden-runner/pkg/objective"
	"github.com/gilchrisn/leiden-runner/pkg/optimiser"
)

// UntilConvergence is the iteration budget that runs until a round reports
// no improvement
const UntilConvergence = -1

// DefaultMaxRounds caps unbounded runs when the policy does not set a cap
const DefaultMaxRounds = 1000

// Policy bounds the number of rounds
type Policy struct {
	Iterations int // positive budget, or any non-positive value for UntilConvergence
	MaxRounds  int // safety cap for unbounded runs
}

// Bounded reports whether the policy has a positive iteration budget
func (p Policy) Bounded() bool { return p.Iterations > 0 }

func (p Policy) limit() int {
	if p.Bounded() {
		return p.Iterations
	}
	if p.MaxRounds > 0 {
		return p.MaxRounds
	}
	return DefaultMaxRounds
}

func (p Policy) String() string {
	if p.Bounded() {
		return fmt.Sprintf("%d iterations", p.Iterations)
	}
	return fmt.Sprintf("until convergence (cap %d)", p.limit())
}

// ConvergenceTimeoutError is returned when an unbounded run hits its cap
type ConvergenceTimeoutError struct {
	Rounds int
}

func (e *ConvergenceTimeoutError) Error() string {
	return fmt.Sprintf("optimiser did not converge within %d rounds", e.Rounds)
}

// RoundInfo describes one completed round
type RoundInfo struct {
	Engine      string
	Objective   string
	Round       int
	Improvement float64
	Quality     float64
	Elapsed     time.Duration
}

// Observer is notified after every round
type Observer interface {
	ObserveRound(RoundInfo)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(RoundInfo)

func (f ObserverFunc) ObserveRound(info RoundInfo) { f(info) }

// LogObserver logs each round at debug level
func LogObserver(logger zerolog.Logger) Observer {
	return ObserverFunc(func(info RoundInfo) {
		logger.Debug().
			Str("engine", info.Engine).
			Str("objective", info.Objective).
			Int("round", info.Round).
			Float64("improvement", info.Improvement).
			Float64("quality", info.Quality).
			Dur("elapsed", info.Elapsed).
			Msg("Optimisation round completed")
	})
}

// Result is the outcome of a driven optimisation
type Result struct {
	Run       optimiser.Run
	Rounds    int
	Converged bool
	Quality   float64
	Elapsed   time.Duration
}

// Drive validates the objective and graph against the engine, seeds it once
// and runs rounds until a round improves by exactly 0 or the policy stops it.
// A bounded policy that runs out of budget is not an error; an unbounded run
// that reaches its cap returns ConvergenceTimeoutError.
func Drive(ctx context.Context, eng optimiser.Engine, g *graph.Graph, o objective.Objective, seed int64, policy Policy, observers ...Observer) (*Result, error) {
	if err := objective.Validate(o); err != nil {
		return nil, err
	}
	if err := eng.Supports(o, g.Directed); err != nil {
		return nil, err
	}

	start := time.Now()
	run, err := eng.Start(g, o, seed)
	if err != nil {
		return nil, fmt.Errorf("starting %s: %w", eng.Name(), err)
	}

	res := &Result{Run: run}
	limit := policy.limit()
	for round := 1; round <= limit; round++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("optimisation interrupted after %d rounds: %w", res.Rounds, err)
		}

		roundStart := time.Now()
		improvement, err := run.Optimise()
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", round, err)
		}
		res.Rounds = round

		info := RoundInfo{
			Engine:      eng.Name(),
			Objective:   o.Name(),
			Round:       round,
			Improvement: improvement,
			Quality:     run.Quality(),
			Elapsed:     time.Since(roundStart),
		}
		for _, obs := range observers {
			obs.ObserveRound(info)
		}

		if improvement == 0 {
			res.Converged = true
			break
		}
	}

	if !res.Converged && !policy.Bounded() {
		return nil, &ConvergenceTimeoutError{Rounds: res.Rounds}
	}
	res.Quality = run.Quality()
	res.Elapsed = time.Since(start)
	return res, nil
}
