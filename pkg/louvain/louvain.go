// Package louvain is a local-moving and aggregation optimiser that supports
// every objective in the objective package on undirected graphs.
package louvain

import (
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/leiden-runner/pkg/graph"
	"github.com/gilchrisn/leiden-runner/pkg/objective"
	"github.com/gilchrisn/leiden-runner/pkg/optimiser"
)

// EngineName is the registry name of this engine
const EngineName = "louvain"

// Options tune a single optimisation round
type Options struct {
	MaxLevels int     // aggregation levels per round
	MaxPasses int     // local moving passes per level
	MinGain   float64 // smallest gain that justifies a move
	Logger    zerolog.Logger
}

// DefaultOptions returns the options used when none are configured
func DefaultOptions() Options {
	return Options{
		MaxLevels: 32,
		MaxPasses: 100,
		MinGain:   1e-12,
		Logger:    zerolog.Nop(),
	}
}

// Engine is the native optimiser
type Engine struct {
	opts Options
}

// NewEngine creates an engine; zero option values fall back to the defaults
func NewEngine(opts Options) *Engine {
	def := DefaultOptions()
	if opts.MaxLevels <= 0 {
		opts.MaxLevels = def.MaxLevels
	}
	if opts.MaxPasses <= 0 {
		opts.MaxPasses = def.MaxPasses
	}
	if opts.MinGain <= 0 {
		opts.MinGain = def.MinGain
	}
	return &Engine{opts: opts}
}

func (e *Engine) Name() string { return EngineName }

// Supports accepts every objective on undirected graphs
func (e *Engine) Supports(o objective.Objective, directed bool) error {
	if err := objective.Validate(o); err != nil {
		return err
	}
	if directed {
		return &optimiser.IncompatibleGraphError{Engine: EngineName, Objective: o.Name(), Reason: "directed graphs are not supported"}
	}
	return nil
}

// Start prepares a run from the singleton partition
func (e *Engine) Start(g *graph.Graph, o objective.Objective, seed int64) (optimiser.Run, error) {
	if err := e.Supports(o, g.Directed); err != nil {
		return nil, err
	}
	base := fromGraph(g)
	q, err := newQuality(o, base)
	if err != nil {
		return nil, err
	}

	membership := make([]int, g.NumNodes)
	for v := range membership {
		membership[v] = v
	}
	r := &run{
		opts:       e.opts,
		logger:     e.opts.Logger.With().Str("engine", EngineName).Str("objective", o.Name()).Logger(),
		base:       base,
		q:          q,
		rng:        rand.New(rand.NewSource(seed)),
		membership: membership,
	}
	r.quality = q.value(newState(base, r.membership, q))
	return r, nil
}

type run struct {
	opts       Options
	logger     zerolog.Logger
	base       *levelGraph
	q          quality
	rng        *rand.Rand
	membership []int
	quality    float64
	round      int
}

func (r *run) Len() int             { return len(r.membership) }
func (r *run) Membership(v int) int { return r.membership[v] }
func (r *run) Quality() float64     { return r.quality }

// Optimise runs local moving and aggregation starting from the current
// partition until no level produces a move. The returned improvement is the
// sum of the accepted move gains, so it is positive whenever a vertex moved.
func (r *run) Optimise() (float64, error) {
	start := time.Now()
	r.round++

	lg := r.base
	membership := make([]int, len(r.membership))
	copy(membership, r.membership)
	nodeOf := make([]int, len(r.membership))
	for v := range nodeOf {
		nodeOf[v] = v
	}

	moved := false
	improvement := 0.0
	levels := 0
	for level := 0; level < r.opts.MaxLevels; level++ {
		levels++
		s := newState(lg, membership, r.q)
		gain, moves := s.moveNodes(r.rng, r.opts, r.logger)
		if moves > 0 {
			moved = true
			improvement += gain
		}

		next, label := s.aggregate()
		for v, node := range nodeOf {
			nodeOf[v] = label[s.membership[node]]
		}

		r.logger.Debug().
			Int("round", r.round).
			Int("level", level).
			Int("nodes", lg.n).
			Int("moves", moves).
			Float64("gain", gain).
			Int("clusters", next.n).
			Msg("Level completed")

		if (moves == 0 && level > 0) || next.n == lg.n {
			break
		}
		lg = next
		membership = make([]int, next.n)
		for v := range membership {
			membership[v] = v
		}
	}

	if !moved {
		return 0, nil
	}

	r.membership, _ = optimiser.Renumber(nodeOf)
	r.quality = r.q.value(newState(r.base, r.membership, r.q))

	r.logger.Debug().
		Int("round", r.round).
		Int("levels", levels).
		Float64("quality", r.quality).
		Dur("elapsed", time.Since(start)).
		Msg("Round completed")
	return improvement, nil
}
