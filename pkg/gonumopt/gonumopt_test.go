package gonumopt

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/leiden-runner/pkg/graph"
	"github.com/gilchrisn/leiden-runner/pkg/models"
	"github.com/gilchrisn/leiden-runner/pkg/objective"
	"github.com/gilchrisn/leiden-runner/pkg/optimiser"
)

func twoCliques(t *testing.T, directed bool, extra ...models.Edge) *graph.Graph {
	t.Helper()
	var edges []models.Edge
	for _, block := range [][]int{{0, 1, 2, 3}, {4, 5, 6, 7}} {
		for i, a := range block {
			for _, b := range block[i+1:] {
				edges = append(edges, models.Edge{Src: a, Dst: b})
			}
		}
	}
	edges = append(edges, models.Edge{Src: 3, Dst: 4})
	edges = append(edges, extra...)
	g, err := graph.Build(8, edges, nil, directed)
	require.NoError(t, err)
	return g
}

func memberships(r optimiser.Run) []int {
	out := make([]int, r.Len())
	for v := range out {
		out[v] = r.Membership(v)
	}
	return out
}

func TestModularityTwoCliques(t *testing.T) {
	r, err := NewEngine(zerolog.Nop()).Start(twoCliques(t, false), objective.Modularity{}, 42)
	require.NoError(t, err)
	initial := r.Quality()

	gain, err := r.Optimise()
	require.NoError(t, err)
	assert.Greater(t, gain, 0.0)
	assert.InDelta(t, 2*(6.0/13-0.25), r.Quality(), 1e-9)
	assert.InDelta(t, r.Quality()-initial, gain, 1e-9)
	assert.Equal(t, []int{0, 0, 0, 0, 1, 1, 1, 1}, memberships(r))

	gain, err = r.Optimise()
	require.NoError(t, err)
	assert.Equal(t, 0.0, gain)
}

func TestRBConfigurationTwoCliques(t *testing.T) {
	r, err := NewEngine(zerolog.Nop()).Start(twoCliques(t, false), objective.RBConfiguration{Resolution: 1}, 7)
	require.NoError(t, err)
	_, err = r.Optimise()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0, 0, 1, 1, 1, 1}, memberships(r))
}

func TestDirectedGraph(t *testing.T) {
	r, err := NewEngine(zerolog.Nop()).Start(twoCliques(t, true), objective.Modularity{}, 1)
	require.NoError(t, err)
	_, err = r.Optimise()
	require.NoError(t, err)
	assert.Greater(t, r.Quality(), 0.0)
	assert.NotEqual(t, r.Membership(0), r.Membership(7))
}

func TestSelfLoopsAreDropped(t *testing.T) {
	g := twoCliques(t, false, models.Edge{Src: 2, Dst: 2})
	r, err := NewEngine(zerolog.Nop()).Start(g, objective.Modularity{}, 3)
	require.NoError(t, err)
	_, err = r.Optimise()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0, 0, 1, 1, 1, 1}, memberships(r))
}

func TestEdgelessGraph(t *testing.T) {
	g, err := graph.New(3, false)
	require.NoError(t, err)
	r, err := NewEngine(zerolog.Nop()).Start(g, objective.Modularity{}, 42)
	require.NoError(t, err)

	gain, err := r.Optimise()
	require.NoError(t, err)
	assert.Equal(t, 0.0, gain)
	assert.Equal(t, []int{0, 1, 2}, memberships(r))
}

func TestUnsupportedObjectives(t *testing.T) {
	e := NewEngine(zerolog.Nop())
	for _, o := range []objective.Objective{objective.CPM{Resolution: 1}, objective.Surprise{}, objective.Significance{}, objective.RBER{Resolution: 1}} {
		err := e.Supports(o, false)
		var incompatible *optimiser.IncompatibleGraphError
		require.True(t, errors.As(err, &incompatible), o.Name())
		assert.Equal(t, EngineName, incompatible.Engine)

		_, err = e.Start(twoCliques(t, false), o, 1)
		assert.Error(t, err)
	}

	var invalid *objective.InvalidObjectiveError
	assert.True(t, errors.As(e.Supports(nil, false), &invalid))
}

func TestSameSeedSamePartition(t *testing.T) {
	e := NewEngine(zerolog.Nop())
	var runs [][]int
	for i := 0; i < 2; i++ {
		r, err := e.Start(twoCliques(t, false), objective.Modularity{}, 99)
		require.NoError(t, err)
		_, err = r.Optimise()
		require.NoError(t, err)
		runs = append(runs, memberships(r))
	}
	assert.Equal(t, runs[0], runs[1])
}
