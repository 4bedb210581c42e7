package model

import "time"

// Connection is an undirected edge between two airports. AirportA is always
// the smaller ID so that an unordered pair has exactly one representation.
type Connection struct {
	ID               int64     `json:"id"`
	AirportA         int64     `json:"airport_a"`
	AirportB         int64     `json:"airport_b"`
	DistanceKM       float64   `json:"distance_km"`
	CongestionFactor float64   `json:"congestion_factor"`
	Cost             float64   `json:"cost"`
	CreatedAt        time.Time `json:"created_at"`
}

// Pair is the normalised unordered endpoint pair of a connection.
type Pair struct {
	A int64
	B int64
}

// NewPair returns the pair with the smaller ID first.
func NewPair(a, b int64) Pair {
	if b < a {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

// Pair returns the connection's normalised endpoint pair.
func (c *Connection) Pair() Pair {
	return NewPair(c.AirportA, c.AirportB)
}

// Other returns the endpoint opposite to id.
func (c *Connection) Other(id int64) int64 {
	if c.AirportA == id {
		return c.AirportB
	}
	return c.AirportA
}

// Normalize orders the endpoints so that AirportA < AirportB.
func (c *Connection) Normalize() {
	if c.AirportB < c.AirportA {
		c.AirportA, c.AirportB = c.AirportB, c.AirportA
	}
}

// TopologyStats summarises the connectivity of the stored graph.
type TopologyStats struct {
	Airports    int     `json:"airports"`
	Connections int     `json:"connections"`
	MinDegree   int     `json:"min_degree"`
	MaxDegree   int     `json:"max_degree"`
	AvgDegree   float64 `json:"avg_degree"`
}

// Topology is the full node/edge view returned by the topology endpoint.
type Topology struct {
	Airports    []*Airport     `json:"airports"`
	Connections []*Connection  `json:"connections"`
	Stats       *TopologyStats `json:"stats"`
}

// ComputeTopologyStats derives degree statistics from airports and connections.
func ComputeTopologyStats(airports []*Airport, conns []*Connection) *TopologyStats {
	stats := &TopologyStats{Airports: len(airports), Connections: len(conns)}
	if len(airports) == 0 {
		return stats
	}
	degree := make(map[int64]int, len(airports))
	for _, c := range conns {
		degree[c.AirportA]++
		degree[c.AirportB]++
	}
	stats.MinDegree = -1
	total := 0
	for _, a := range airports {
		d := degree[a.ID]
		total += d
		if stats.MinDegree < 0 || d < stats.MinDegree {
			stats.MinDegree = d
		}
		if d > stats.MaxDegree {
			stats.MaxDegree = d
		}
	}
	stats.AvgDegree = float64(total) / float64(len(airports))
	return stats
}
