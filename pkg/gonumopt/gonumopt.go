// Package gonumopt adapts gonum's Louvain modularisation to the optimiser
// contract. It handles the modularity family of objectives and, unlike the
// native engine, directed graphs.
package gonumopt

import (
	"math/rand/v2"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/community"
	"gonum.org/v1/gonum/graph/simple"

	lgraph "github.com/gilchrisn/leiden-runner/pkg/graph"
	"github.com/gilchrisn/leiden-runner/pkg/objective"
	"github.com/gilchrisn/leiden-runner/pkg/optimiser"
)

// EngineName is the registry name of this engine
const EngineName = "gonum"

// tolerance absorbs the rounding noise of community.Q, which sums over map ordered edges
const tolerance = 1e-12

// Engine runs gonum's community.Modularize
type Engine struct {
	logger zerolog.Logger
}

// NewEngine creates a gonum backed engine
func NewEngine(logger zerolog.Logger) *Engine {
	return &Engine{logger: logger.With().Str("engine", EngineName).Logger()}
}

func (e *Engine) Name() string { return EngineName }

// Supports accepts Modularity and RBConfiguration on any graph
func (e *Engine) Supports(o objective.Objective, directed bool) error {
	if err := objective.Validate(o); err != nil {
		return err
	}
	if _, ok := resolutionFor(o); !ok {
		return &optimiser.IncompatibleGraphError{Engine: EngineName, Objective: o.Name(), Reason: "only modularity and rbconfiguration are available"}
	}
	return nil
}

func resolutionFor(o objective.Objective) (float64, bool) {
	switch v := o.(type) {
	case objective.Modularity:
		return 1, true
	case objective.RBConfiguration:
		return v.Resolution, true
	}
	return 0, false
}

// Start copies g into a gonum simple graph. Parallel edges are merged by
// summing their weights and self loops are dropped.
func (e *Engine) Start(g *lgraph.Graph, o objective.Objective, seed int64) (optimiser.Run, error) {
	if err := e.Supports(o, g.Directed); err != nil {
		return nil, err
	}
	resolution, _ := resolutionFor(o)

	gg, edges, selfLoops := convert(g)
	if selfLoops > 0 {
		e.logger.Warn().Int("self_loops", selfLoops).Msg("Dropping self loops, gonum simple graphs cannot hold them")
	}

	r := &run{
		logger:     e.logger.With().Str("objective", o.Name()).Logger(),
		g:          gg,
		hasEdges:   edges > 0,
		resolution: resolution,
		src:        rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15),
		membership: make([]int, g.NumNodes),
		nodes:      make([]graph.Node, g.NumNodes),
	}
	for v := range r.membership {
		r.membership[v] = v
		r.nodes[v] = simple.Node(v)
	}
	r.quality = r.score(r.membership)
	return r, nil
}

// convert builds the gonum graph and reports the number of distinct edges
// and of dropped self loops
func convert(g *lgraph.Graph) (graph.Graph, int, int) {
	weights := make(map[[2]int]float64)
	selfLoops := 0
	for i, e := range g.Edges {
		if e.Src == e.Dst {
			selfLoops++
			continue
		}
		key := [2]int{e.Src, e.Dst}
		if !g.Directed && key[0] > key[1] {
			key[0], key[1] = key[1], key[0]
		}
		weights[key] += g.EdgeWeights[i]
	}

	keys := make([][2]int, 0, len(weights))
	for key := range weights {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})

	if g.Directed {
		dg := simple.NewWeightedDirectedGraph(0, 0)
		for v := 0; v < g.NumNodes; v++ {
			dg.AddNode(simple.Node(v))
		}
		for _, key := range keys {
			dg.SetWeightedEdge(dg.NewWeightedEdge(simple.Node(key[0]), simple.Node(key[1]), weights[key]))
		}
		return dg, len(keys), selfLoops
	}

	ug := simple.NewWeightedUndirectedGraph(0, 0)
	for v := 0; v < g.NumNodes; v++ {
		ug.AddNode(simple.Node(v))
	}
	for _, key := range keys {
		ug.SetWeightedEdge(ug.NewWeightedEdge(simple.Node(key[0]), simple.Node(key[1]), weights[key]))
	}
	return ug, len(keys), selfLoops
}

type run struct {
	logger     zerolog.Logger
	g          graph.Graph
	hasEdges   bool
	resolution float64
	src        rand.Source
	nodes      []graph.Node
	membership []int
	quality    float64
	round      int
}

func (r *run) Len() int             { return len(r.membership) }
func (r *run) Membership(v int) int { return r.membership[v] }
func (r *run) Quality() float64     { return r.quality }

// score evaluates a membership with community.Q
func (r *run) score(membership []int) float64 {
	if !r.hasEdges {
		return 0
	}
	return community.Q(r.g, r.communities(membership), r.resolution)
}

func (r *run) communities(membership []int) [][]graph.Node {
	var out [][]graph.Node
	for v, c := range membership {
		for len(out) <= c {
			out = append(out, nil)
		}
		out[c] = append(out[c], r.nodes[v])
	}
	return out
}

// Optimise runs one full modularisation and keeps it only when it beats
// the current partition
func (r *run) Optimise() (float64, error) {
	r.round++
	if !r.hasEdges {
		return 0, nil
	}

	reduced := community.Modularize(r.g, r.resolution, r.src)
	membership := make([]int, len(r.membership))
	for c, members := range reduced.Communities() {
		for _, n := range members {
			membership[n.ID()] = c
		}
	}
	membership, clusters := optimiser.Renumber(membership)
	q := r.score(membership)

	r.logger.Debug().
		Int("round", r.round).
		Int("clusters", clusters).
		Float64("candidate_quality", q).
		Float64("quality", r.quality).
		Msg("Modularization completed")

	if q <= r.quality+tolerance {
		return 0, nil
	}
	improvement := q - r.quality
	r.membership = membership
	r.quality = q
	return improvement, nil
}
