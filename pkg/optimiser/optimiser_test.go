package optimiser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/leiden-runner/pkg/graph"
	"github.com/gilchrisn/leiden-runner/pkg/objective"
)

func TestRenumber(t *testing.T) {
	got, n := Renumber([]int{7, 3, 3, 9, 7, 3})
	assert.Equal(t, 3, n)
	assert.Equal(t, []int{1, 0, 0, 2, 1, 0}, got)

	got, n = Renumber([]int{5, 4})
	assert.Equal(t, 2, n)
	assert.Equal(t, []int{0, 1}, got, "equal sizes keep vertex order")

	got, n = Renumber(nil)
	assert.Equal(t, 0, n)
	assert.Empty(t, got)
}

type stubEngine struct{ name string }

func (s stubEngine) Name() string                                              { return s.name }
func (stubEngine) Supports(objective.Objective, bool) error                    { return nil }
func (stubEngine) Start(*graph.Graph, objective.Objective, int64) (Run, error) { return nil, nil }

func TestRegistry(t *testing.T) {
	r := NewRegistry(stubEngine{name: "Louvain"}, stubEngine{name: "gonum"})
	assert.Equal(t, []string{"gonum", "louvain"}, r.Names())

	e, err := r.Get("LOUVAIN")
	require.NoError(t, err)
	assert.Equal(t, "Louvain", e.Name())

	_, err = r.Get("leiden")
	assert.ErrorContains(t, err, "gonum, louvain")
}
