// Package metrics exposes Prometheus collectors for route planning and
// topology synthesis.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the planner and synthesis metrics. A nil *Collector is
// valid and records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	PlanDuration           prometheus.Histogram
	RouteOutcomes          *prometheus.CounterVec
	ConnectionsSynthesized prometheus.Counter
	SynthesisRetries       prometheus.Counter
}

// NewCollector registers the metrics against reg, reusing collectors that
// are already registered under the same name.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "flightpath_route_plan_duration_seconds",
		Help:    "Time spent assembling the graph and searching for a route.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})
	duration, err := registerHistogram(reg, duration, "flightpath_route_plan_duration_seconds")
	if err != nil {
		return nil, err
	}

	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flightpath_route_outcomes_total",
		Help: "Route planning requests by outcome.",
	}, []string{"outcome"})
	outcomes, err = registerCounterVec(reg, outcomes, "flightpath_route_outcomes_total")
	if err != nil {
		return nil, err
	}

	synthesized := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flightpath_connections_synthesized_total",
		Help: "Connections created by topology synthesis.",
	})
	synthesized, err = registerCounter(reg, synthesized, "flightpath_connections_synthesized_total")
	if err != nil {
		return nil, err
	}

	retries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flightpath_synthesis_retries_total",
		Help: "Synthesis attempts repeated after a conflicting concurrent write.",
	})
	retries, err = registerCounter(reg, retries, "flightpath_synthesis_retries_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:               gatherer,
		PlanDuration:           duration,
		RouteOutcomes:          outcomes,
		ConnectionsSynthesized: synthesized,
		SynthesisRetries:       retries,
	}, nil
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObservePlan records how long a planning request took and how it ended.
func (c *Collector) ObservePlan(d time.Duration, outcome string) {
	if c == nil {
		return
	}
	c.PlanDuration.Observe(d.Seconds())
	c.RouteOutcomes.WithLabelValues(outcome).Inc()
}

// AddSynthesized counts newly created connections.
func (c *Collector) AddSynthesized(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.ConnectionsSynthesized.Add(float64(n))
}

// IncRetries counts one repeated synthesis attempt.
func (c *Collector) IncRetries() {
	if c == nil {
		return
	}
	c.SynthesisRetries.Inc()
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
