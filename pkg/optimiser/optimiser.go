// Package optimiser defines the contract between the optimisation driver and
// the community detection engines.
package optimiser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gilchrisn/leiden-runner/pkg/graph"
	"github.com/gilchrisn/leiden-runner/pkg/objective"
)

// Engine creates optimisation runs for a graph and objective
type Engine interface {
	Name() string
	// Supports reports whether the engine can optimise o on a graph with
	// the given directedness. It must not touch any graph.
	Supports(o objective.Objective, directed bool) error
	// Start prepares a run starting from the all-singletons partition. The
	// seed initialises the run's random source and is not consulted again.
	Start(g *graph.Graph, o objective.Objective, seed int64) (Run, error)
}

// Run is one optimisation in progress. Each Optimise call is one round.
type Run interface {
	// Optimise improves the partition in place and returns the gain in
	// quality. It returns exactly 0 when no vertex changed cluster.
	Optimise() (float64, error)
	// Membership returns the cluster of vertex v
	Membership(v int) int
	// Len returns the number of vertices
	Len() int
	// Quality returns the objective value of the current partition
	Quality() float64
}

// IncompatibleGraphError reports an engine/objective pair that cannot
// handle the graph it was given
type IncompatibleGraphError struct {
	Engine    string
	Objective string
	Reason    string
}

func (e *IncompatibleGraphError) Error() string {
	return fmt.Sprintf("engine %s cannot optimise %s: %s", e.Engine, e.Objective, e.Reason)
}

// Registry maps engine names to engines
type Registry struct {
	engines map[string]Engine
}

// NewRegistry creates a registry holding the given engines
func NewRegistry(engines ...Engine) *Registry {
	r := &Registry{engines: make(map[string]Engine)}
	for _, e := range engines {
		r.Register(e)
	}
	return r
}

// Register adds or replaces an engine
func (r *Registry) Register(e Engine) {
	r.engines[strings.ToLower(e.Name())] = e
}

// Get looks up an engine by name
func (r *Registry) Get(name string) (Engine, error) {
	if e, ok := r.engines[strings.ToLower(strings.TrimSpace(name))]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("unknown engine %q (available: %s)", name, strings.Join(r.Names(), ", "))
}

// Names returns the registered engine names in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Renumber relabels clusters to 0..C-1, largest cluster first, ties broken
// by the smallest vertex in each cluster. It returns the new labels and C.
func Renumber(membership []int) ([]int, int) {
	type cluster struct {
		label, size, first int
	}
	index := make(map[int]int)
	var clusters []cluster
	for v, c := range membership {
		i, ok := index[c]
		if !ok {
			i = len(clusters)
			index[c] = i
			clusters = append(clusters, cluster{label: c, first: v})
		}
		clusters[i].size++
	}

	sort.Slice(clusters, func(i, j int) bool {
		if clusters[i].size != clusters[j].size {
			return clusters[i].size > clusters[j].size
		}
		return clusters[i].first < clusters[j].first
	})

	relabel := make(map[int]int, len(clusters))
	for i, c := range clusters {
		relabel[c.label] = i
	}
	out := make([]int, len(membership))
	for v, c := range membership {
		out[v] = relabel[c]
	}
	return out, len(clusters)
}
