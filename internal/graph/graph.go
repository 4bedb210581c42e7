// Package graph holds the per-request weighted airport graph and the
// shortest-path planner that runs over it.
package graph

import (
	"fmt"
	"sort"

	"github.com/alfredjeanlab/flightpath/internal/model"
)

// Node is an airport in the graph.
type Node struct {
	ID          int64
	Name        string
	City        string
	Country     string
	Lat         float64
	Lon         float64
	Concurrency model.Concurrency
}

// Edge is one direction of an undirected connection.
type Edge struct {
	To               int64
	DistanceKM       float64
	Cost             float64
	CongestionFactor float64
}

// Graph is an undirected weighted graph. Adjacency lists are kept sorted by
// neighbour ID so traversal order is deterministic.
type Graph struct {
	nodes map[int64]*Node
	adj   map[int64][]Edge
	edges int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[int64]*Node),
		adj:   make(map[int64][]Edge),
	}
}

// FromModel builds a graph from stored airports and connections. Connections
// with an endpoint outside airports are skipped.
func FromModel(airports []*model.Airport, conns []*model.Connection) *Graph {
	g := New()
	for _, a := range airports {
		g.AddNode(Node{
			ID:          a.ID,
			Name:        a.Name,
			City:        a.City,
			Country:     a.Country,
			Lat:         a.Lat,
			Lon:         a.Lon,
			Concurrency: a.Concurrency,
		})
	}
	for _, c := range conns {
		_ = g.AddEdge(c.AirportA, c.AirportB, c.DistanceKM, c.Cost, c.CongestionFactor)
	}
	return g
}

// AddNode inserts or replaces a node.
func (g *Graph) AddNode(n Node) {
	nn := n
	g.nodes[n.ID] = &nn
}

// AddEdge connects a and b in both directions. Adding an edge that already
// exists replaces its attributes.
func (g *Graph) AddEdge(a, b int64, distanceKM, cost, congestion float64) error {
	if a == b {
		return fmt.Errorf("self loop on airport %d", a)
	}
	if _, ok := g.nodes[a]; !ok {
		return fmt.Errorf("unknown airport %d", a)
	}
	if _, ok := g.nodes[b]; !ok {
		return fmt.Errorf("unknown airport %d", b)
	}
	added := g.insert(a, Edge{To: b, DistanceKM: distanceKM, Cost: cost, CongestionFactor: congestion})
	g.insert(b, Edge{To: a, DistanceKM: distanceKM, Cost: cost, CongestionFactor: congestion})
	if added {
		g.edges++
	}
	return nil
}

func (g *Graph) insert(from int64, e Edge) bool {
	list := g.adj[from]
	i := sort.Search(len(list), func(i int) bool { return list[i].To >= e.To })
	if i < len(list) && list[i].To == e.To {
		list[i] = e
		return false
	}
	list = append(list, Edge{})
	copy(list[i+1:], list[i:])
	list[i] = e
	g.adj[from] = list
	return true
}

// Node returns the node with the given ID.
func (g *Graph) Node(id int64) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Neighbors returns the edges leaving id in ascending neighbour order. The
// returned slice must not be modified.
func (g *Graph) Neighbors(id int64) []Edge {
	return g.adj[id]
}

// Edge returns the edge between a and b.
func (g *Graph) Edge(a, b int64) (Edge, bool) {
	list := g.adj[a]
	i := sort.Search(len(list), func(i int) bool { return list[i].To >= b })
	if i < len(list) && list[i].To == b {
		return list[i], true
	}
	return Edge{}, false
}

// NodeIDs returns all node IDs in ascending order.
func (g *Graph) NodeIDs() []int64 {
	ids := make([]int64, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int { return g.edges }
