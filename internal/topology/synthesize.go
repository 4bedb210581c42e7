// Package topology fabricates a degree-bounded connection topology between
// airports and derives the concurrency and congestion attributes that follow
// from it.
package topology

import (
	"math/rand/v2"
	"sort"

	"github.com/alfredjeanlab/flightpath/internal/geo"
	"github.com/alfredjeanlab/flightpath/internal/model"
)

// MaxDegree is the upper bound on the number of connections synthesis will
// grow a node to.
const MaxDegree = 7

// DefaultChoices are the target degrees drawn for each node.
var DefaultChoices = []int{3, 5, 7}

// Node is a synthesis input: an airport and its location.
type Node struct {
	ID    int64
	Point geo.Point
}

// Edge is a newly synthesized connection.
type Edge struct {
	Pair       model.Pair
	DistanceKM float64
}

// Result is the outcome of one synthesis pass. Degree holds the final degree
// of every input node, counting existing and new edges.
type Result struct {
	Edges   []Edge
	Degree  map[int64]int
	Initial map[int64]int
}

// Changed reports the IDs of nodes whose degree grew, in ascending order.
func (r *Result) Changed() []int64 {
	var ids []int64
	for id, d := range r.Degree {
		if d != r.Initial[id] {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Synthesizer grows the topology toward randomly drawn target degrees by
// connecting each node to its nearest eligible neighbours.
type Synthesizer struct {
	Rand      *rand.Rand
	Choices   []int
	MaxDegree int
}

// NewSynthesizer returns a synthesizer with the default target choices.
func NewSynthesizer(r *rand.Rand) *Synthesizer {
	return &Synthesizer{Rand: r, Choices: DefaultChoices, MaxDegree: MaxDegree}
}

// Synthesize adds edges among nodes. Existing pairs count toward degree and
// are never duplicated; pairs referencing nodes outside the input are ignored.
// A node whose only remaining candidates share its location stays below its
// target.
// Nodes are processed in the order given.
func (s *Synthesizer) Synthesize(nodes []Node, existing []model.Pair) Result {
	degree := make(map[int64]int, len(nodes))
	for _, n := range nodes {
		degree[n.ID] = 0
	}
	edges := make(map[model.Pair]struct{}, len(existing))
	for _, p := range existing {
		p = model.NewPair(p.A, p.B)
		if p.A == p.B {
			continue
		}
		if _, ok := degree[p.A]; !ok {
			continue
		}
		if _, ok := degree[p.B]; !ok {
			continue
		}
		if _, dup := edges[p]; dup {
			continue
		}
		edges[p] = struct{}{}
		degree[p.A]++
		degree[p.B]++
	}

	initial := make(map[int64]int, len(degree))
	for id, d := range degree {
		initial[id] = d
	}
	res := Result{Degree: degree, Initial: initial}
	if len(nodes) < 2 {
		return res
	}

	target := make(map[int64]int, len(nodes))
	for _, n := range nodes {
		target[n.ID] = s.target(degree[n.ID])
	}

	// The first pass only pairs nodes that both still want edges. The second
	// lets a node left short of its target connect to any neighbour below
	// the hard cap, so odd degree sums cannot strand a node.
	limit := s.maxDegree()
	pass(nodes, edges, degree, target, &res, func(id int64) bool { return degree[id] < target[id] })
	pass(nodes, edges, degree, target, &res, func(id int64) bool { return degree[id] < limit })
	return res
}

type candidate struct {
	id   int64
	dist float64
}

// pass connects every node below its target to its nearest neighbours for
// which eligible reports true. Co-located nodes are never paired; an edge
// must have a positive length.
func pass(nodes []Node, edges map[model.Pair]struct{}, degree, target map[int64]int, res *Result, eligible func(int64) bool) {
	for _, n := range nodes {
		if degree[n.ID] >= target[n.ID] {
			continue
		}
		for _, c := range nearest(n, nodes) {
			if degree[n.ID] >= target[n.ID] {
				break
			}
			if c.dist <= 0 || !eligible(c.id) {
				continue
			}
			p := model.NewPair(n.ID, c.id)
			if _, ok := edges[p]; ok {
				continue
			}
			edges[p] = struct{}{}
			res.Edges = append(res.Edges, Edge{Pair: p, DistanceKM: c.dist})
			degree[n.ID]++
			degree[c.id]++
		}
	}
}

// nearest returns every other node ordered by distance from n, ties broken
// by ID.
func nearest(n Node, nodes []Node) []candidate {
	cands := make([]candidate, 0, len(nodes)-1)
	for _, o := range nodes {
		if o.ID == n.ID {
			continue
		}
		cands = append(cands, candidate{id: o.ID, dist: geo.Haversine(n.Point, o.Point)})
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].dist != cands[j].dist {
			return cands[i].dist < cands[j].dist
		}
		return cands[i].id < cands[j].id
	})
	return cands
}

func (s *Synthesizer) maxDegree() int {
	if s.MaxDegree <= 0 {
		return MaxDegree
	}
	return s.MaxDegree
}

// target draws a target degree that never shrinks the current degree and
// never exceeds the maximum.
func (s *Synthesizer) target(current int) int {
	choices := s.Choices
	if len(choices) == 0 {
		choices = DefaultChoices
	}
	var drawn int
	if s.Rand != nil {
		drawn = choices[s.Rand.IntN(len(choices))]
	} else {
		drawn = choices[rand.IntN(len(choices))]
	}
	return min(max(current, drawn), s.maxDegree())
}
