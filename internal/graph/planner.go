package graph

import (
	"container/heap"
	"math"

	"github.com/alfredjeanlab/flightpath/internal/model"
)

// epsilon is the tolerance used when comparing accumulated path weights.
const epsilon = 1e-9

// OutcomeKind tags the result of a planning request.
type OutcomeKind int

const (
	Found OutcomeKind = iota
	NoPath
	EndpointMissing
)

func (k OutcomeKind) String() string {
	switch k {
	case Found:
		return "found"
	case NoPath:
		return "no_path"
	case EndpointMissing:
		return "endpoint_missing"
	}
	return "unknown"
}

// Query describes one shortest-path request.
type Query struct {
	Origin      int64
	Destination int64
	Criterion   model.Criterion

	// MaxStops bounds the number of intermediate airports.
	MaxStops *int
	// MaxConcurrency excludes intermediate airports whose concurrency class
	// is above the threshold. Origin and destination are always allowed.
	MaxConcurrency *int
}

// Outcome is the result of Plan. Path and totals are set only when Kind is
// Found.
type Outcome struct {
	Kind          OutcomeKind
	Path          []int64
	TotalDistance float64
	TotalCost     float64
	Algorithm     string
}

// Plan finds the least-weight path for q. Distance is searched with Dijkstra
// and cost with Bellman-Ford. Among equal-weight paths the one with fewer
// hops wins; remaining ties go to the path discovered first when neighbours
// are expanded in ascending ID order.
func Plan(g *Graph, q Query) Outcome {
	algo := model.AlgorithmFor(q.Criterion)
	out := Outcome{Kind: NoPath, Algorithm: algo}

	if _, ok := g.Node(q.Origin); !ok {
		out.Kind = EndpointMissing
		return out
	}
	if _, ok := g.Node(q.Destination); !ok {
		out.Kind = EndpointMissing
		return out
	}
	if q.Origin == q.Destination {
		out.Kind = Found
		out.Path = []int64{q.Origin}
		return out
	}

	s := &search{g: g, q: q, maxEdges: -1}
	if q.MaxStops != nil {
		s.maxEdges = max(*q.MaxStops, 0) + 1
	}

	var path []int64
	if algo == model.AlgorithmBellmanFord {
		path = s.bellmanFord()
	} else {
		path = s.dijkstra()
	}
	if path == nil {
		return out
	}

	out.Kind = Found
	out.Path = path
	for i := 0; i+1 < len(path); i++ {
		e, _ := g.Edge(path[i], path[i+1])
		out.TotalDistance += e.DistanceKM
		out.TotalCost += e.Cost
	}
	return out
}

type search struct {
	g        *Graph
	q        Query
	maxEdges int // -1 when unbounded
}

func (s *search) weight(e Edge) float64 {
	if s.q.Criterion == model.CriterionCost {
		return e.Cost
	}
	return e.DistanceKM
}

// allowed reports whether a path may pass through id.
func (s *search) allowed(id int64) bool {
	if id == s.q.Origin || id == s.q.Destination || s.q.MaxConcurrency == nil {
		return true
	}
	n, _ := s.g.Node(id)
	return int(n.Concurrency) <= *s.q.MaxConcurrency
}

// label is the best known way to reach a search state.
type label struct {
	weight float64
	hops   int
	prev   state
	root   bool
}

// better orders labels by weight, then by hop count.
func better(w float64, hops int, than label) bool {
	if w < than.weight-epsilon {
		return true
	}
	return math.Abs(w-than.weight) <= epsilon && hops < than.hops
}

// state identifies a search node. When hops are bounded the hop count is
// part of the state so that a heavier path with fewer hops is not discarded.
type state struct {
	node int64
	hops int
}

func (s *search) key(node int64, hops int) state {
	if s.maxEdges < 0 {
		return state{node: node}
	}
	return state{node: node, hops: hops}
}

func (s *search) dijkstra() []int64 {
	start := s.key(s.q.Origin, 0)
	labels := map[state]label{start: {root: true}}
	settled := make(map[state]bool)

	pq := &priorityQueue{}
	heap.Init(pq)
	seq := 0
	heap.Push(pq, &pqItem{state: start, priority: 0, seq: seq})

	for pq.Len() > 0 {
		item := heap.Pop(pq).(*pqItem)
		cur := item.state
		if settled[cur] {
			continue
		}
		settled[cur] = true
		l := labels[cur]

		if cur.node == s.q.Destination {
			return reconstruct(labels, cur)
		}
		if s.maxEdges >= 0 && l.hops >= s.maxEdges {
			continue
		}
		for _, e := range s.g.Neighbors(cur.node) {
			if !s.allowed(e.To) {
				continue
			}
			next := s.key(e.To, l.hops+1)
			if settled[next] {
				continue
			}
			w := l.weight + s.weight(e)
			if old, ok := labels[next]; ok && !better(w, l.hops+1, old) {
				continue
			}
			labels[next] = label{weight: w, hops: l.hops + 1, prev: cur}
			seq++
			heap.Push(pq, &pqItem{state: next, priority: w, hops: l.hops + 1, seq: seq})
		}
	}
	return nil
}

// bfLabel is a Bellman-Ford distance label. round is the pass in which the
// label was set; its predecessor's label comes from the pass before.
type bfLabel struct {
	weight float64
	hops   int
	prev   int64
	round  int
	root   bool
}

func (l bfLabel) asLabel() label {
	return label{weight: l.weight, hops: l.hops}
}

// bellmanFord relaxes every edge once per pass, visiting nodes and neighbours
// in ascending ID order. With a hop bound each pass reads the previous pass's
// labels, so after k passes every label describes a path of at most k edges.
func (s *search) bellmanFord() []int64 {
	ids := s.g.NodeIDs()
	passes := len(ids) - 1
	bounded := s.maxEdges >= 0
	if bounded {
		passes = min(passes, s.maxEdges)
	}

	cur := map[int64]bfLabel{s.q.Origin: {root: true}}
	snapshots := []map[int64]bfLabel{cur}

	for round := 1; round <= passes; round++ {
		next := cur
		if bounded {
			next = make(map[int64]bfLabel, len(cur))
			for id, l := range cur {
				next[id] = l
			}
		}
		changed := false
		for _, u := range ids {
			lu, ok := cur[u]
			if !ok || !s.allowed(u) {
				continue
			}
			for _, e := range s.g.Neighbors(u) {
				if !s.allowed(e.To) {
					continue
				}
				w := lu.weight + s.weight(e)
				if old, ok := next[e.To]; ok && !better(w, lu.hops+1, old.asLabel()) {
					continue
				}
				next[e.To] = bfLabel{weight: w, hops: lu.hops + 1, prev: u, round: round}
				changed = true
			}
		}
		cur = next
		if bounded {
			snapshots = append(snapshots, cur)
		}
		if !changed {
			break
		}
	}

	if _, ok := cur[s.q.Destination]; !ok {
		return nil
	}

	path := []int64{s.q.Destination}
	node := s.q.Destination
	l := cur[node]
	for !l.root {
		node = l.prev
		path = append(path, node)
		if bounded {
			l = snapshots[l.round-1][node]
		} else {
			l = cur[node]
		}
	}
	reverse(path)
	return path
}

func reconstruct(labels map[state]label, end state) []int64 {
	var path []int64
	cur := end
	for {
		path = append(path, cur.node)
		l := labels[cur]
		if l.root {
			break
		}
		cur = l.prev
	}
	reverse(path)
	return path
}

func reverse(s []int64) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

type pqItem struct {
	state    state
	priority float64
	hops     int
	seq      int
}

type priorityQueue []*pqItem

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	a, b := pq[i], pq[j]
	if math.Abs(a.priority-b.priority) > epsilon {
		return a.priority < b.priority
	}
	if a.hops != b.hops {
		return a.hops < b.hops
	}
	return a.seq < b.seq
}
func (pq priorityQueue) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *priorityQueue) Push(x interface{}) {
	item := x.(*pqItem)
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[0 : n-1]
	return item
}
