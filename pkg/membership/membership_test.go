package membership

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/leiden-runner/pkg/graph"
	"github.com/gilchrisn/leiden-runner/pkg/idmap"
	"github.com/gilchrisn/leiden-runner/pkg/models"
)

// fixed is an assignment backed by a slice
type fixed []int

func (f fixed) Membership(v int) int { return f[v] }
func (f fixed) Len() int             { return len(f) }

func build(t *testing.T, raw []models.RawEdge[int64], ids []int64) (*idmap.Map[int64], *graph.Graph) {
	t.Helper()
	m, edges, err := idmap.Normalize(raw, ids)
	require.NoError(t, err)
	g, err := graph.Build(m.Len(), edges, nil, false)
	require.NoError(t, err)
	return m, g
}

func TestCollectToyPath(t *testing.T) {
	raw := []models.RawEdge[int64]{{Src: 1, Dst: 2}, {Src: 2, Dst: 3}, {Src: 3, Dst: 4}, {Src: 4, Dst: 5}}
	m, g := build(t, raw, []int64{1, 2, 3, 4, 5})

	table, err := Collect(g, fixed{4, 3, 2, 1, 0})
	require.NoError(t, err)
	assert.Len(t, table, 5)

	rows, err := Project(m, table, nil, true)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, models.ResultRow[int64]{ID: 1, Cluster: 5}, rows[0])
	assert.Equal(t, models.ResultRow[int64]{ID: 5, Cluster: 1}, rows[4])
}

func TestIsolatedVertexIsCollected(t *testing.T) {
	m, g := build(t, []models.RawEdge[int64]{{Src: 1, Dst: 2}}, []int64{1, 2, 3})

	table, err := Collect(g, fixed{0, 0, 7})
	require.NoError(t, err)
	assert.Equal(t, Table{0, 0, 7}, table)

	rows, err := Project(m, table, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []models.ResultRow[int64]{{ID: 1, Cluster: 0}, {ID: 2, Cluster: 0}, {ID: 3, Cluster: 7}}, rows)
}

func TestProjectFollowsCallerOrder(t *testing.T) {
	m, g := build(t, []models.RawEdge[int64]{{Src: 30, Dst: 10}, {Src: 10, Dst: 20}}, nil)
	table, err := Collect(g, fixed{0, 1, 1})
	require.NoError(t, err)

	rows, err := Project(m, table, []int64{20, 30, 10}, false)
	require.NoError(t, err)
	assert.Equal(t, []models.ResultRow[int64]{{ID: 20, Cluster: 1}, {ID: 30, Cluster: 0}, {ID: 10, Cluster: 1}}, rows)

	_, err = Project(m, table, []int64{40}, false)
	var unknown *idmap.UnknownVertexError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, int64(40), unknown.ID)
}

func TestConsistencyErrors(t *testing.T) {
	m, g := build(t, []models.RawEdge[int64]{{Src: 1, Dst: 2}}, []int64{1, 2, 3})

	_, err := Collect(g, fixed{0, 0})
	var inconsistent *InternalConsistencyError
	assert.True(t, errors.As(err, &inconsistent))

	_, err = Collect(g, fixed{0, -1, 0})
	require.True(t, errors.As(err, &inconsistent))
	assert.Equal(t, 1, inconsistent.Vertex)

	_, err = Project(m, Table{0, 0}, nil, false)
	require.True(t, errors.As(err, &inconsistent))
	assert.Equal(t, 2, inconsistent.Vertex)
}

func TestReindex(t *testing.T) {
	table, n := Table{9, 4, 4, 9, 4, 2}.Reindex()
	assert.Equal(t, 3, n)
	assert.Equal(t, Table{1, 0, 0, 1, 0, 2}, table)
}

func TestCompletenessProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("every vertex gets exactly one row", prop.ForAll(
		func(n int, pairs []int) bool {
			ids := make([]int64, n)
			for i := range ids {
				ids[i] = int64(i*7 + 3)
			}
			var raw []models.RawEdge[int64]
			for i := 0; i+1 < len(pairs); i += 2 {
				raw = append(raw, models.RawEdge[int64]{Src: ids[pairs[i]%n], Dst: ids[pairs[i+1]%n]})
			}
			m, edges, err := idmap.Normalize(raw, ids)
			if err != nil {
				return false
			}
			g, err := graph.Build(m.Len(), edges, nil, false)
			if err != nil {
				return false
			}
			assignment := make(fixed, n)
			for v := range assignment {
				assignment[v] = v % 3
			}
			table, err := Collect(g, assignment)
			if err != nil || len(table) != n {
				return false
			}
			rows, err := Project(m, table, nil, true)
			if err != nil || len(rows) != n {
				return false
			}
			for i, row := range rows {
				if row.ID != ids[i] || row.Cluster != i%3+1 {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 40),
		gen.SliceOf(gen.IntRange(0, 1000)),
	))

	properties.TestingRun(t)
}
