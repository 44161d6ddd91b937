// Package graph holds the normalized, weighted graph handed to the optimisers.
package graph

import (
	"fmt"
	"math"

	"github.com/gilchrisn/leiden-runner/pkg/models"
)

// ConstructionError reports a malformed vertex count, edge or weight
type ConstructionError struct {
	Edge   int // index of the offending edge, -1 when not edge specific
	Reason string
}

func (e *ConstructionError) Error() string {
	if e.Edge >= 0 {
		return fmt.Sprintf("graph construction: edge %d: %s", e.Edge, e.Reason)
	}
	return "graph construction: " + e.Reason
}

// Graph is a weighted graph over vertices 0..NumNodes-1 using adjacency
// arrays. Undirected edges appear in both endpoint lists; a self loop is
// listed once and counts twice towards its vertex degree.
type Graph struct {
	NumNodes    int           `json:"num_nodes"`
	Directed    bool          `json:"directed"`
	Edges       []models.Edge `json:"-"`       // insertion order, one entry per input edge
	EdgeWeights []float64     `json:"-"`       // EdgeWeights[i] belongs to Edges[i]
	Adjacency   [][]int       `json:"-"`       // adjacency[i] = neighbours of node i (out-neighbours when directed)
	Weights     [][]float64   `json:"-"`       // weights[i][j] = weight of edge i -> adjacency[i][j]
	Degrees     []float64     `json:"degrees"` // weighted degree (out-degree when directed)
	TotalWeight float64       `json:"total_weight"`
}

// New creates a graph with n vertices and no edges
func New(n int, directed bool) (*Graph, error) {
	if n < 0 {
		return nil, &ConstructionError{Edge: -1, Reason: fmt.Sprintf("negative vertex count %d", n)}
	}
	return &Graph{
		NumNodes:  n,
		Directed:  directed,
		Adjacency: make([][]int, n),
		Weights:   make([][]float64, n),
		Degrees:   make([]float64, n),
	}, nil
}

// Build creates a graph from an internal edge list. Every edge gets weight
// 1.0 unless weights is non-nil, in which case it must match edges in length.
func Build(n int, edges []models.Edge, weights []float64, directed bool) (*Graph, error) {
	if weights != nil && len(weights) != len(edges) {
		return nil, &ConstructionError{Edge: -1, Reason: fmt.Sprintf("%d weights supplied for %d edges", len(weights), len(edges))}
	}

	g, err := New(n, directed)
	if err != nil {
		return nil, err
	}
	g.Edges = make([]models.Edge, 0, len(edges))
	g.EdgeWeights = make([]float64, 0, len(edges))

	for i, e := range edges {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		if err := g.AddEdge(e.Src, e.Dst, w); err != nil {
			if ce, ok := err.(*ConstructionError); ok {
				ce.Edge = i
			}
			return nil, err
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// AddEdge adds a weighted edge between two vertices
func (g *Graph) AddEdge(u, v int, weight float64) error {
	if u < 0 || u >= g.NumNodes || v < 0 || v >= g.NumNodes {
		return &ConstructionError{Edge: -1, Reason: fmt.Sprintf("vertex out of range: u=%d, v=%d, vertices=%d", u, v, g.NumNodes)}
	}
	if !(weight > 0) || math.IsInf(weight, 0) {
		return &ConstructionError{Edge: -1, Reason: fmt.Sprintf("edge weight must be positive and finite: %v", weight)}
	}

	g.Edges = append(g.Edges, models.Edge{Src: u, Dst: v})
	g.EdgeWeights = append(g.EdgeWeights, weight)

	g.Adjacency[u] = append(g.Adjacency[u], v)
	g.Weights[u] = append(g.Weights[u], weight)
	g.Degrees[u] += weight

	if !g.Directed {
		if u != v {
			g.Adjacency[v] = append(g.Adjacency[v], u)
			g.Weights[v] = append(g.Weights[v], weight)
			g.Degrees[v] += weight
		} else {
			g.Degrees[u] += weight
		}
	}

	g.TotalWeight += weight
	return nil
}

// NumEdges returns the number of input edges, parallel edges included
func (g *Graph) NumEdges() int { return len(g.Edges) }

// GetNeighbors returns neighbors and their edge weights for a node
func (g *Graph) GetNeighbors(node int) ([]int, []float64) {
	if node < 0 || node >= g.NumNodes {
		return nil, nil
	}
	return g.Adjacency[node], g.Weights[node]
}

// Isolated returns the vertices without any incident edge
func (g *Graph) Isolated() []int {
	touched := make([]bool, g.NumNodes)
	for _, e := range g.Edges {
		touched[e.Src] = true
		touched[e.Dst] = true
	}
	var out []int
	for v, ok := range touched {
		if !ok {
			out = append(out, v)
		}
	}
	return out
}

// Validate checks graph consistency
func (g *Graph) Validate() error {
	if len(g.Adjacency) != g.NumNodes || len(g.Weights) != g.NumNodes || len(g.Degrees) != g.NumNodes {
		return &ConstructionError{Edge: -1, Reason: "adjacency arrays do not match vertex count"}
	}
	if len(g.Edges) != len(g.EdgeWeights) {
		return &ConstructionError{Edge: -1, Reason: "edge and weight lists differ in length"}
	}
	for i := 0; i < g.NumNodes; i++ {
		if len(g.Adjacency[i]) != len(g.Weights[i]) {
			return &ConstructionError{Edge: -1, Reason: fmt.Sprintf("adjacency and weights inconsistent for node %d", i)}
		}
		for _, neighbor := range g.Adjacency[i] {
			if neighbor < 0 || neighbor >= g.NumNodes {
				return &ConstructionError{Edge: -1, Reason: fmt.Sprintf("invalid neighbor %d for node %d", neighbor, i)}
			}
		}
	}
	return nil
}
