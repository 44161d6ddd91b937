// Package membership collects a complete vertex to cluster table from an
// optimiser run and projects it back onto the input identifiers.
package membership

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/gilchrisn/leiden-runner/pkg/graph"
	"github.com/gilchrisn/leiden-runner/pkg/idmap"
	"github.com/gilchrisn/leiden-runner/pkg/models"
	"github.com/gilchrisn/leiden-runner/pkg/optimiser"
)

// InternalConsistencyError means the membership table disagrees with the
// graph it was built from. It indicates a bug, not bad input.
type InternalConsistencyError struct {
	Vertex int
	Reason string
}

func (e *InternalConsistencyError) Error() string {
	return fmt.Sprintf("internal consistency: vertex %d: %s", e.Vertex, e.Reason)
}

// Assignment is the per-vertex view of a partition; optimiser.Run satisfies it
type Assignment interface {
	Membership(v int) int
	Len() int
}

// Table maps every internal vertex id to its cluster
type Table []int

// Collect builds a table covering [0, g.NumNodes). Endpoints are recorded
// while walking the edges, then a sweep fills in vertices no edge touched.
func Collect(g *graph.Graph, a Assignment) (Table, error) {
	if a.Len() != g.NumNodes {
		return nil, &InternalConsistencyError{Vertex: -1, Reason: fmt.Sprintf("partition covers %d vertices, graph has %d", a.Len(), g.NumNodes)}
	}

	table := make(Table, g.NumNodes)
	seen := make([]bool, g.NumNodes)
	record := func(v int) error {
		if seen[v] {
			return nil
		}
		c := a.Membership(v)
		if c < 0 {
			return &InternalConsistencyError{Vertex: v, Reason: fmt.Sprintf("negative cluster %d", c)}
		}
		table[v] = c
		seen[v] = true
		return nil
	}

	for _, e := range g.Edges {
		if err := record(e.Src); err != nil {
			return nil, err
		}
		if err := record(e.Dst); err != nil {
			return nil, err
		}
	}
	for v := range seen {
		if err := record(v); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// Reindex relabels clusters to 0..C-1, largest first, and returns C
func (t Table) Reindex() (Table, int) {
	out, n := optimiser.Renumber(t)
	return Table(out), n
}

// Project produces one row per raw identifier in order, or in ascending raw
// id order when order is nil. Clusters are shifted by one when oneIndexed.
func Project[K cmp.Ordered](m *idmap.Map[K], t Table, order []K, oneIndexed bool) ([]models.ResultRow[K], error) {
	if order == nil {
		order = m.Inverse()
		slices.Sort(order)
	}
	shift := 0
	if oneIndexed {
		shift = 1
	}

	rows := make([]models.ResultRow[K], 0, len(order))
	for _, raw := range order {
		v, ok := m.Lookup(raw)
		if !ok {
			return nil, &idmap.UnknownVertexError{ID: raw}
		}
		if v >= len(t) {
			return nil, &InternalConsistencyError{Vertex: v, Reason: fmt.Sprintf("missing from a membership table of %d entries", len(t))}
		}
		rows = append(rows, models.ResultRow[K]{ID: raw, Cluster: t[v] + shift})
	}
	return rows, nil
}
