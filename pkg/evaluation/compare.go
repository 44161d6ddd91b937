package evaluation

import (
	"math"
	"sort"
)

// Agreement grades
const (
	GradeHigh   = "high"
	GradeMedium = "medium"
	GradeLow    = "low"
)

// ClusterStats summarises the cluster sizes of one labelling
type ClusterStats struct {
	Clusters int     `json:"clusters" yaml:"clusters"`
	Mean     float64 `json:"mean_size" yaml:"mean_size"`
	Max      int     `json:"max_size" yaml:"max_size"`
	Min      int     `json:"min_size" yaml:"min_size"`
	Std      float64 `json:"std_size" yaml:"std_size"`
}

// Report is the full comparison of a predicted labelling against ground truth
type Report struct {
	Items     int          `json:"items" yaml:"items"`
	ARI       float64      `json:"ari" yaml:"ari"`
	NMI       float64      `json:"nmi" yaml:"nmi"`
	Truth     ClusterStats `json:"truth" yaml:"truth"`
	Predicted ClusterStats `json:"predicted" yaml:"predicted"`
	Grade     string       `json:"grade" yaml:"grade"`
}

// Stats computes cluster size statistics for a labelling
func Stats[L comparable](labels []L) ClusterStats {
	gs, _ := groups(labels)
	sizes := make([]int, len(gs))
	for i, g := range gs {
		sizes[i] = len(g)
	}
	return statsOf(sizes)
}

func statsOf(sizes []int) ClusterStats {
	if len(sizes) == 0 {
		return ClusterStats{}
	}
	sort.Ints(sizes)
	total := 0
	for _, s := range sizes {
		total += s
	}
	mean := float64(total) / float64(len(sizes))
	variance := 0.0
	for _, s := range sizes {
		d := float64(s) - mean
		variance += d * d
	}
	return ClusterStats{
		Clusters: len(sizes),
		Mean:     mean,
		Max:      sizes[len(sizes)-1],
		Min:      sizes[0],
		Std:      math.Sqrt(variance / float64(len(sizes))),
	}
}

// Grade classifies the mean of ARI and NMI
func Grade(ari, nmi float64) string {
	avg := (ari + nmi) / 2
	switch {
	case avg >= 0.8:
		return GradeHigh
	case avg >= 0.5:
		return GradeMedium
	default:
		return GradeLow
	}
}

// Compare scores pred against truth
func Compare[L comparable](truth, pred []L) (*Report, error) {
	ari, err := ARI(truth, pred)
	if err != nil {
		return nil, err
	}
	c, err := NewContingency(truth, pred)
	if err != nil {
		return nil, err
	}
	nmi := c.NMI()
	return &Report{
		Items:     len(truth),
		ARI:       ari,
		NMI:       nmi,
		Truth:     statsOf(append([]int(nil), c.Truth...)),
		Predicted: statsOf(append([]int(nil), c.Predicted...)),
		Grade:     Grade(ari, nmi),
	}, nil
}
