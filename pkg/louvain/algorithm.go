package louvain

import (
	"math/rand"
	"sort"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/leiden-runner/pkg/graph"
)

// levelGraph is the graph optimised at one level. Level 0 is the input
// graph; each higher level collapses the clusters of the level below into
// single nodes.
type levelGraph struct {
	n      int
	adj    [][]int     // neighbours, self loops excluded
	w      [][]float64 // w[i][j] = weight of edge i - adj[i][j]
	self   []float64   // self loop weight of each node
	degree []float64   // weighted degree, self loops counted twice
	size   []int       // input vertices represented by each node
	total  float64     // total edge weight m
}

func newLevelGraph(n int) *levelGraph {
	return &levelGraph{
		n:      n,
		adj:    make([][]int, n),
		w:      make([][]float64, n),
		self:   make([]float64, n),
		degree: make([]float64, n),
		size:   make([]int, n),
	}
}

// fromGraph converts an undirected input graph into the level 0 graph.
// Self loops move out of the adjacency lists into self.
func fromGraph(g *graph.Graph) *levelGraph {
	lg := newLevelGraph(g.NumNodes)
	lg.total = g.TotalWeight
	copy(lg.degree, g.Degrees)
	for v := 0; v < g.NumNodes; v++ {
		lg.size[v] = 1
		neighbors, weights := g.GetNeighbors(v)
		for j, u := range neighbors {
			if u == v {
				lg.self[v] += weights[j]
				continue
			}
			lg.adj[v] = append(lg.adj[v], u)
			lg.w[v] = append(lg.w[v], weights[j])
		}
	}
	return lg
}

// state is a partition of a level graph together with its cluster aggregates
type state struct {
	g          *levelGraph
	q          quality
	membership []int
	stats      []clusterStats
	count      []int // nodes of this level in each cluster
	empty      []int // stack of unused cluster ids

	sumInternal float64
	sumPairs    float64
}

// newState builds the aggregates for membership, whose labels must lie in [0, g.n)
func newState(g *levelGraph, membership []int, q quality) *state {
	s := &state{
		g:          g,
		q:          q,
		membership: membership,
		stats:      make([]clusterStats, g.n),
		count:      make([]int, g.n),
	}
	for v := 0; v < g.n; v++ {
		c := membership[v]
		s.count[c]++
		s.stats[c].degree += g.degree[v]
		s.stats[c].size += g.size[v]
		s.stats[c].internal += g.self[v]
		for i, u := range g.adj[v] {
			if membership[u] == c {
				s.stats[c].internal += g.w[v][i] / 2
			}
		}
	}
	for c := g.n - 1; c >= 0; c-- {
		if s.count[c] == 0 {
			s.empty = append(s.empty, c)
			continue
		}
		s.sumInternal += s.stats[c].internal
		s.sumPairs += pairs(s.stats[c].size)
	}
	return s
}

// nodeStats returns the aggregates of node v alone
func (s *state) nodeStats(v int) clusterStats {
	return clusterStats{internal: s.g.self[v], degree: s.g.degree[v], size: s.g.size[v]}
}

// afterMove returns the aggregates of v's cluster and of the target cluster
// once v has moved. wFrom and wTo are the edge weights between v and the
// other members of each cluster.
func (s *state) afterMove(v, to int, wFrom, wTo float64) (fromAfter, toAfter clusterStats) {
	node := s.nodeStats(v)
	fb, tb := s.stats[s.membership[v]], s.stats[to]
	fromAfter = clusterStats{
		internal: fb.internal - wFrom - node.internal,
		degree:   fb.degree - node.degree,
		size:     fb.size - node.size,
	}
	toAfter = clusterStats{
		internal: tb.internal + wTo + node.internal,
		degree:   tb.degree + node.degree,
		size:     tb.size + node.size,
	}
	return fromAfter, toAfter
}

// moveGain returns the change in quality if v moves to cluster to
func (s *state) moveGain(v, to int, wFrom, wTo float64) float64 {
	fa, ta := s.afterMove(v, to, wFrom, wTo)
	return s.q.delta(s, s.stats[s.membership[v]], fa, s.stats[to], ta)
}

// moveNode moves v to cluster to and updates all aggregates
func (s *state) moveNode(v, to int, wFrom, wTo float64) {
	from := s.membership[v]
	if from == to {
		return
	}
	fb, tb := s.stats[from], s.stats[to]
	fa, ta := s.afterMove(v, to, wFrom, wTo)

	if s.count[to] == 0 {
		s.empty = s.empty[:len(s.empty)-1]
	}
	s.stats[from], s.stats[to] = fa, ta
	s.count[from]--
	s.count[to]++
	s.membership[v] = to
	if s.count[from] == 0 {
		s.empty = append(s.empty, from)
	}

	s.sumInternal += (fa.internal - fb.internal) + (ta.internal - tb.internal)
	s.sumPairs += (pairs(fa.size) - pairs(fb.size)) + (pairs(ta.size) - pairs(tb.size))
}

// moveNodes performs local moving until a pass makes no move or the pass
// budget runs out. Candidate clusters are those of the node's neighbours
// plus one empty cluster. It returns the summed gain and the move count.
func (s *state) moveNodes(rng *rand.Rand, opts Options, logger zerolog.Logger) (float64, int) {
	n := s.g.n
	order := rng.Perm(n)
	weightTo := make([]float64, n)
	seen := make([]bool, n)
	touched := make([]int, 0, 16)

	totalGain := 0.0
	totalMoves := 0
	for pass := 0; pass < opts.MaxPasses; pass++ {
		passMoves := 0
		for _, v := range order {
			from := s.membership[v]
			touched = touched[:0]
			for i, u := range s.g.adj[v] {
				c := s.membership[u]
				if !seen[c] {
					seen[c] = true
					touched = append(touched, c)
				}
				weightTo[c] += s.g.w[v][i]
			}

			wFrom := weightTo[from]
			best, bestGain, bestWeight := from, 0.0, 0.0
			for _, c := range touched {
				if c == from {
					continue
				}
				if gain := s.moveGain(v, c, wFrom, weightTo[c]); gain > bestGain {
					best, bestGain, bestWeight = c, gain, weightTo[c]
				}
			}
			if s.count[from] > 1 && len(s.empty) > 0 {
				c := s.empty[len(s.empty)-1]
				if gain := s.moveGain(v, c, wFrom, 0); gain > bestGain {
					best, bestGain, bestWeight = c, gain, 0
				}
			}

			for _, c := range touched {
				weightTo[c] = 0
				seen[c] = false
			}

			if best != from && bestGain > opts.MinGain {
				s.moveNode(v, best, wFrom, bestWeight)
				passMoves++
				totalGain += bestGain
			}
		}

		totalMoves += passMoves
		if passMoves == 0 {
			logger.Debug().Int("pass", pass+1).Msg("Local moving converged")
			break
		}
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}
	return totalGain, totalMoves
}

// aggregate collapses every cluster into one node. Clusters are numbered in
// order of their first node; label maps an old cluster id to its new node.
func (s *state) aggregate() (*levelGraph, []int) {
	g := s.g
	label := make([]int, g.n)
	for i := range label {
		label[i] = -1
	}
	k := 0
	for v := 0; v < g.n; v++ {
		if c := s.membership[v]; label[c] < 0 {
			label[c] = k
			k++
		}
	}

	next := newLevelGraph(k)
	next.total = g.total
	superEdges := make(map[[2]int]float64)
	for v := 0; v < g.n; v++ {
		a := label[s.membership[v]]
		next.size[a] += g.size[v]
		next.degree[a] += g.degree[v]
		next.self[a] += g.self[v]
		for i, u := range g.adj[v] {
			b := label[s.membership[u]]
			switch {
			case a == b:
				next.self[a] += g.w[v][i] / 2
			case a < b:
				superEdges[[2]int{a, b}] += g.w[v][i]
			}
		}
	}

	keys := make([][2]int, 0, len(superEdges))
	for key := range superEdges {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})
	for _, key := range keys {
		w := superEdges[key]
		next.adj[key[0]] = append(next.adj[key[0]], key[1])
		next.w[key[0]] = append(next.w[key[0]], w)
		next.adj[key[1]] = append(next.adj[key[1]], key[0])
		next.w[key[1]] = append(next.w[key[1]], w)
	}
	return next, label
}
