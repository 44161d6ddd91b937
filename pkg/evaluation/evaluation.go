// Package evaluation scores a clustering against a reference labelling with
// the Adjusted Rand Index and Normalized Mutual Information.
package evaluation

import (
	"fmt"
	"math"
	"sort"

	"github.com/gilchrisn/leiden-runner/pkg/idmap"
)

// Epsilon is added inside every logarithm of the NMI computation. Only
// realised cells contribute, so the bias it introduces stays bounded.
const Epsilon = 1e-12

// LengthMismatchError is returned when two labellings cover different item counts
type LengthMismatchError struct {
	Truth     int
	Predicted int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("label sequences differ in length: %d ground truth vs %d predicted", e.Truth, e.Predicted)
}

func checkLengths(truth, pred int) error {
	if truth != pred {
		return &LengthMismatchError{Truth: truth, Predicted: pred}
	}
	return nil
}

func comb2(x int) float64 {
	return float64(x) * float64(x-1) / 2
}

// groups partitions the positions 0..n-1 by label. Labels are numbered in
// first-seen order and every index list is ascending.
func groups[L comparable](labels []L) ([][]int, []int) {
	ids := idmap.New[L]()
	var out [][]int
	of := make([]int, len(labels))
	for i, l := range labels {
		g, _ := ids.Intern(l)
		if g == len(out) {
			out = append(out, nil)
		}
		out[g] = append(out[g], i)
		of[i] = g
	}
	return out, of
}

// intersect counts the common elements of two ascending lists
func intersect(a, b []int) int {
	n, i, j := 0, 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			n++
			i++
			j++
		}
	}
	return n
}

// ARI computes the Adjusted Rand Index. When the index is undefined (both
// labellings are all singletons or both are one cluster, or there are fewer
// than two items) the labellings are identical and ARI is 1.
func ARI[L comparable](truth, pred []L) (float64, error) {
	if err := checkLengths(len(truth), len(pred)); err != nil {
		return 0, err
	}
	n := len(truth)
	if n < 2 {
		return 1, nil
	}

	trueGroups, _ := groups(truth)
	predGroups, predOf := groups(pred)

	sumC := 0.0
	for _, tg := range trueGroups {
		// only the predicted groups that hold a member of tg can intersect it
		visited := make(map[int]struct{})
		for _, i := range tg {
			pg := predOf[i]
			if _, ok := visited[pg]; ok {
				continue
			}
			visited[pg] = struct{}{}
			sumC += comb2(intersect(tg, predGroups[pg]))
		}
	}

	sumA := 0.0
	for _, g := range trueGroups {
		sumA += comb2(len(g))
	}
	sumB := 0.0
	for _, g := range predGroups {
		sumB += comb2(len(g))
	}

	expected := sumA * sumB / comb2(n)
	maxIndex := 0.5 * (sumA + sumB)
	if maxIndex == expected {
		return 1, nil
	}
	return (sumC - expected) / (maxIndex - expected), nil
}

// Contingency counts the co-occurrences of two labellings. Labels are
// numbered in first-seen order.
type Contingency struct {
	N         int
	Truth     []int          // items per ground-truth label
	Predicted []int          // items per predicted label
	Cells     map[[2]int]int // (truth, predicted) -> items, realised cells only
}

// NewContingency builds the table with a single parallel scan
func NewContingency[L comparable](truth, pred []L) (*Contingency, error) {
	if err := checkLengths(len(truth), len(pred)); err != nil {
		return nil, err
	}
	tIDs, pIDs := idmap.New[L](), idmap.New[L]()
	c := &Contingency{N: len(truth), Cells: make(map[[2]int]int)}
	for i := range truth {
		t, _ := tIDs.Intern(truth[i])
		p, _ := pIDs.Intern(pred[i])
		if t == len(c.Truth) {
			c.Truth = append(c.Truth, 0)
		}
		if p == len(c.Predicted) {
			c.Predicted = append(c.Predicted, 0)
		}
		c.Truth[t]++
		c.Predicted[p]++
		c.Cells[[2]int{t, p}]++
	}
	return c, nil
}

func entropy(counts []int, n float64) float64 {
	h := 0.0
	for _, c := range counts {
		p := float64(c) / n
		h -= p * math.Log(p+Epsilon)
	}
	return h
}

// MutualInformation returns the mutual information in nats
func (c *Contingency) MutualInformation() float64 {
	if c.N == 0 {
		return 0
	}
	cells := make([][2]int, 0, len(c.Cells))
	for cell := range c.Cells {
		cells = append(cells, cell)
	}
	// fixed summation order keeps the result reproducible to the last bit
	sort.Slice(cells, func(i, j int) bool {
		if cells[i][0] != cells[j][0] {
			return cells[i][0] < cells[j][0]
		}
		return cells[i][1] < cells[j][1]
	})

	n := float64(c.N)
	mi := 0.0
	for _, cell := range cells {
		count := c.Cells[cell]
		pij := float64(count) / n
		pi := float64(c.Truth[cell[0]]) / n
		pj := float64(c.Predicted[cell[1]]) / n
		mi += pij * math.Log(pij/(pi*pj)+Epsilon)
	}
	return mi
}

// NMI returns 2·MI / (H(truth) + H(predicted)), or 0 when both entropies are 0
func (c *Contingency) NMI() float64 {
	if c.N == 0 {
		return 0
	}
	n := float64(c.N)
	denom := entropy(c.Truth, n) + entropy(c.Predicted, n)
	if denom <= 0 {
		return 0
	}
	return 2 * c.MutualInformation() / denom
}

// NMI computes the Normalized Mutual Information of two labellings
func NMI[L comparable](truth, pred []L) (float64, error) {
	c, err := NewContingency(truth, pred)
	if err != nil {
		return 0, err
	}
	return c.NMI(), nil
}
