package louvain

import (
	"math"

	"github.com/gilchrisn/leiden-runner/pkg/objective"
)

// clusterStats are the aggregates every quality function is expressed in
type clusterStats struct {
	internal float64 // weight of edges with both ends inside the cluster
	degree   float64 // summed weighted degree of the members
	size     int     // number of input vertices in the cluster
}

// quality is an objective evaluated over cluster aggregates
type quality interface {
	value(s *state) float64
	// delta is the change in value when two clusters change from their
	// before to their after aggregates
	delta(s *state, fromBefore, fromAfter, toBefore, toAfter clusterStats) float64
}

func pairs(n int) float64 {
	return float64(n) * float64(n-1) / 2
}

// klDivergence is the binary Kullback-Leibler divergence KL(q || p)
func klDivergence(q, p float64) float64 {
	q = clamp01(q)
	p = clamp01(p)
	kl := 0.0
	if q > 0 && p > 0 {
		kl += q * math.Log(q/p)
	}
	if q < 1 && p < 1 {
		kl += (1 - q) * math.Log((1-q)/(1-p))
	}
	return kl
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}

// additive objectives are a sum of independent per-cluster terms
type additive struct {
	term func(c clusterStats) float64
}

func (a additive) value(s *state) float64 {
	total := 0.0
	for c, st := range s.stats {
		if s.count[c] > 0 {
			total += a.term(st)
		}
	}
	return total
}

func (a additive) delta(_ *state, fb, fa, tb, ta clusterStats) float64 {
	return (a.term(fa) - a.term(fb)) + (a.term(ta) - a.term(tb))
}

// surprise depends on the partition only through two global sums
type surprise struct {
	m          float64
	totalPairs float64
}

func (q surprise) score(sumInternal, sumPairs float64) float64 {
	if q.m <= 0 || q.totalPairs <= 0 {
		return 0
	}
	return q.m * klDivergence(sumInternal/q.m, sumPairs/q.totalPairs)
}

func (q surprise) value(s *state) float64 {
	return q.score(s.sumInternal, s.sumPairs)
}

func (q surprise) delta(s *state, fb, fa, tb, ta clusterStats) float64 {
	internal := s.sumInternal + (fa.internal - fb.internal) + (ta.internal - tb.internal)
	pairSum := s.sumPairs + (pairs(fa.size) - pairs(fb.size)) + (pairs(ta.size) - pairs(tb.size))
	return q.score(internal, pairSum) - q.score(s.sumInternal, s.sumPairs)
}

// newQuality binds an objective to the totals of the graph it is evaluated on
func newQuality(o objective.Objective, g *levelGraph) (quality, error) {
	m := g.total
	n := 0
	for _, sz := range g.size {
		n += sz
	}
	density := 0.0
	if pairs(n) > 0 {
		density = m / pairs(n)
	}

	switch obj := o.(type) {
	case objective.CPM:
		gamma := obj.Resolution
		return additive{term: func(c clusterStats) float64 {
			return c.internal - gamma*pairs(c.size)
		}}, nil
	case objective.RBER:
		gamma := obj.Resolution * density
		return additive{term: func(c clusterStats) float64 {
			return c.internal - gamma*pairs(c.size)
		}}, nil
	case objective.RBConfiguration:
		gamma := obj.Resolution
		return additive{term: func(c clusterStats) float64 {
			if m <= 0 {
				return c.internal
			}
			return c.internal - gamma*c.degree*c.degree/(4*m)
		}}, nil
	case objective.Modularity:
		return additive{term: func(c clusterStats) float64 {
			if m <= 0 {
				return 0
			}
			return (c.internal - c.degree*c.degree/(4*m)) / m
		}}, nil
	case objective.Significance:
		return additive{term: func(c clusterStats) float64 {
			np := pairs(c.size)
			if np <= 0 {
				return 0
			}
			return np * klDivergence(c.internal/np, density)
		}}, nil
	case objective.Surprise:
		return surprise{m: m, totalPairs: pairs(n)}, nil
	}
	if err := objective.Validate(o); err != nil {
		return nil, err
	}
	return nil, &objective.InvalidObjectiveError{Name: o.Name()}
}
