package datasets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKarate(t *testing.T) {
	d := Karate()

	assert.Len(t, d.IDs, 34)
	assert.Len(t, d.Edges, 78)
	assert.Len(t, d.GroundTruth, 34)

	seen := make(map[[2]int64]bool)
	degree := make(map[int64]int)
	for _, e := range d.Edges {
		assert.Less(t, e.Src, e.Dst)
		key := [2]int64{e.Src, e.Dst}
		assert.False(t, seen[key], "duplicate edge %v", key)
		seen[key] = true
		degree[e.Src]++
		degree[e.Dst]++
	}
	assert.Equal(t, 16, degree[1])
	assert.Equal(t, 17, degree[34])
	assert.Equal(t, 34, len(degree), "no isolated members")

	factions := map[int64]int{}
	for _, l := range d.GroundTruth {
		factions[l]++
	}
	assert.Equal(t, map[int64]int{0: 17, 1: 17}, factions)
}

func TestKarateIsFresh(t *testing.T) {
	a := Karate()
	a.Edges[0].Src = 99
	assert.Equal(t, int64(1), Karate().Edges[0].Src)
}
