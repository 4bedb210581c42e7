package model

// Concurrency is the coarse traffic-handling class of an airport, derived from
// the number of connections it has.
type Concurrency int

const (
	ConcurrencyLow    Concurrency = 3
	ConcurrencyMedium Concurrency = 5
	ConcurrencyHigh   Concurrency = 7
)

// String returns the human label for the class.
func (c Concurrency) String() string {
	switch c {
	case ConcurrencyLow:
		return "low"
	case ConcurrencyMedium:
		return "medium"
	case ConcurrencyHigh:
		return "high"
	}
	return "unknown"
}

// IsValid checks whether the concurrency is one of the known classes.
func (c Concurrency) IsValid() bool {
	switch c {
	case ConcurrencyLow, ConcurrencyMedium, ConcurrencyHigh:
		return true
	}
	return false
}

// Airport is a node of the connectivity graph.
type Airport struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	City        string      `json:"city,omitempty"`
	Country     string      `json:"country"`
	Lat         float64     `json:"lat"`
	Lon         float64     `json:"lon"`
	Concurrency Concurrency `json:"concurrency"`
}

// AirportFilter holds paging options for listing airports.
type AirportFilter struct {
	Skip  int `json:"skip,omitempty"`
	Limit int `json:"limit,omitempty"`
}
