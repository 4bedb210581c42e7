package topology

import "github.com/alfredjeanlab/flightpath/internal/model"

// CostPerKM is the base price of one kilometre before congestion.
const CostPerKM = 5.0

// ClassifyConcurrency maps a node degree to its concurrency class.
func ClassifyConcurrency(degree int) model.Concurrency {
	switch {
	case degree <= 3:
		return model.ConcurrencyLow
	case degree <= 5:
		return model.ConcurrencyMedium
	default:
		return model.ConcurrencyHigh
	}
}

// CongestionFactor returns the multiplier for an edge whose endpoints have
// the given degrees.
func CongestionFactor(degA, degB int) float64 {
	switch sum := degA + degB; {
	case sum <= 6:
		return 1.0
	case sum <= 10:
		return 1.3
	default:
		return 1.6
	}
}

// EdgeCost prices an edge of the given length.
func EdgeCost(distanceKM, factor float64) float64 {
	return distanceKM * CostPerKM * factor
}

// Derive turns a synthesis result into connections ready to persist and the
// concurrency of every node whose degree changed. Congestion uses the final
// degrees of the pass.
func Derive(res Result) ([]*model.Connection, map[int64]model.Concurrency) {
	conns := make([]*model.Connection, 0, len(res.Edges))
	for _, e := range res.Edges {
		factor := CongestionFactor(res.Degree[e.Pair.A], res.Degree[e.Pair.B])
		conns = append(conns, &model.Connection{
			AirportA:         e.Pair.A,
			AirportB:         e.Pair.B,
			DistanceKM:       e.DistanceKM,
			CongestionFactor: factor,
			Cost:             EdgeCost(e.DistanceKM, factor),
		})
	}

	conc := make(map[int64]model.Concurrency)
	for _, id := range res.Changed() {
		conc[id] = ClassifyConcurrency(res.Degree[id])
	}
	return conns, conc
}
