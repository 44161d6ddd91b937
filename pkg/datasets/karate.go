// Package datasets embeds small benchmark graphs with known ground truth.
package datasets

import "github.com/gilchrisn/leiden-runner/pkg/models"

// Dataset is an edge list over raw vertex ids with a reference labelling
type Dataset struct {
	Name        string
	Description string
	IDs         []int64
	Edges       []models.RawEdge[int64]
	// GroundTruth[i] is the reference cluster of IDs[i]
	GroundTruth []int64
}

// karateAdjacency lists each undirected edge once, keyed by its smaller endpoint
var karateAdjacency = map[int64][]int64{
	1:  {2, 3, 4, 5, 6, 7, 8, 9, 11, 12, 13, 14, 18, 20, 22, 32},
	2:  {3, 4, 8, 14, 18, 20, 22, 31},
	3:  {4, 8, 9, 10, 14, 28, 29, 33},
	4:  {8, 13, 14},
	5:  {7, 11},
	6:  {7, 11, 17},
	7:  {17},
	9:  {31, 33, 34},
	10: {34},
	14: {34},
	15: {33, 34},
	16: {33, 34},
	19: {33, 34},
	20: {34},
	21: {33, 34},
	23: {33, 34},
	24: {26, 28, 30, 33, 34},
	25: {26, 28, 32},
	26: {32},
	27: {30, 34},
	28: {34},
	29: {32, 34},
	30: {33, 34},
	31: {33, 34},
	32: {33, 34},
	33: {34},
}

// karateInstructorFaction holds the members who sided with the instructor after the split
var karateInstructorFaction = map[int64]bool{
	1: true, 2: true, 3: true, 4: true, 5: true, 6: true, 7: true, 8: true, 9: true,
	11: true, 12: true, 13: true, 14: true, 17: true, 18: true, 20: true, 22: true,
}

// Karate returns Zachary's karate club: 34 members, 78 friendships and the
// two factions the club split into (0 = instructor, 1 = administrator)
func Karate() *Dataset {
	d := &Dataset{
		Name:        "karate",
		Description: "Zachary's karate club (34 vertices, 78 edges, 2 factions)",
	}
	for id := int64(1); id <= 34; id++ {
		d.IDs = append(d.IDs, id)
		label := int64(1)
		if karateInstructorFaction[id] {
			label = 0
		}
		d.GroundTruth = append(d.GroundTruth, label)

		for _, dst := range karateAdjacency[id] {
			d.Edges = append(d.Edges, models.RawEdge[int64]{Src: id, Dst: dst})
		}
	}
	return d
}
