package model

import "time"

// Criterion selects the edge attribute that defines "shortest".
type Criterion string

const (
	CriterionDistance Criterion = "distance"
	CriterionCost     Criterion = "cost"
)

// String returns the string representation of the criterion.
func (c Criterion) String() string {
	return string(c)
}

// IsValid checks whether the criterion is a known value.
func (c Criterion) IsValid() bool {
	switch c {
	case CriterionDistance, CriterionCost:
		return true
	}
	return false
}

// Algorithm labels recorded on computed routes.
const (
	AlgorithmDijkstra    = "dijkstra"
	AlgorithmBellmanFord = "bellman_ford"
)

// AlgorithmFor returns the shortest-path algorithm used for a criterion:
// distance is searched with Dijkstra, cost with Bellman-Ford.
func AlgorithmFor(c Criterion) string {
	if c == CriterionCost {
		return AlgorithmBellmanFord
	}
	return AlgorithmDijkstra
}

// Route is a computed route owned by a user. Stops lists airport IDs from
// origin to destination inclusive.
type Route struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	OriginID       int64     `json:"origin_id"`
	DestinationID  int64     `json:"destination_id"`
	Criterion      Criterion `json:"criterion"`
	Algorithm      string    `json:"algorithm"`
	TotalDistance  float64   `json:"total_distance"`
	TotalCost      float64   `json:"total_cost"`
	TotalStops     int       `json:"total_stops"`
	MaxStops       *int      `json:"max_stops,omitempty"`
	MaxConcurrency *int      `json:"max_concurrency,omitempty"`
	AvgConcurrency float64   `json:"avg_concurrency"`
	CreatedAt      time.Time `json:"created_at"`

	// Populated from route_stops, not stored in the routes table.
	Stops []int64 `json:"stops,omitempty"`
}

// StopCount returns the number of intermediate airports on a path.
func StopCount(path []int64) int {
	if len(path) < 2 {
		return 0
	}
	return len(path) - 2
}

// RouteFilter narrows a route listing. An empty UserID matches every user.
type RouteFilter struct {
	UserID string `json:"user_id,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}
