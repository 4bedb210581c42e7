// Package routing plans routes between airports and keeps each user's route
// history. It ties the graph assembler, the planner and the route store
// together and announces what it did on the event bus.
package routing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alfredjeanlab/flightpath/internal/events"
	"github.com/alfredjeanlab/flightpath/internal/graph"
	"github.com/alfredjeanlab/flightpath/internal/idgen"
	"github.com/alfredjeanlab/flightpath/internal/metrics"
	"github.com/alfredjeanlab/flightpath/internal/model"
	"github.com/alfredjeanlab/flightpath/internal/network"
	"github.com/alfredjeanlab/flightpath/internal/store"
)

var (
	// ErrEndpointMissing means the origin or destination is not a known airport.
	ErrEndpointMissing = network.ErrEndpointMissing

	// ErrNoPath means both endpoints exist but nothing connects them under
	// the request's constraints.
	ErrNoPath = errors.New("no route found between the given airports")

	// ErrNotFound is returned for routes that do not exist or belong to
	// another user.
	ErrNotFound = errors.New("route not found")
)

// InvalidRequestError reports a malformed planning request.
type InvalidRequestError string

func (e InvalidRequestError) Error() string { return string(e) }

// Request is one planning request.
type Request struct {
	UserID        string          `json:"user_id"`
	OriginID      int64           `json:"origin_id"`
	DestinationID int64           `json:"destination_id"`
	Criterion     model.Criterion `json:"criterion"`

	MaxStops       *int `json:"max_stops,omitempty"`
	MaxConcurrency *int `json:"max_concurrency,omitempty"`

	// MaxNodes bounds the neighbourhood searched. Nil uses the service
	// default and zero searches the whole graph.
	MaxNodes *int `json:"max_nodes,omitempty"`
}

// Validate checks the request and fills in the default criterion.
func (r *Request) Validate() error {
	if r.OriginID <= 0 || r.DestinationID <= 0 {
		return InvalidRequestError("origin_id and destination_id are required")
	}
	if r.Criterion == "" {
		r.Criterion = model.CriterionDistance
	}
	if !r.Criterion.IsValid() {
		return InvalidRequestError(fmt.Sprintf("criterion must be %q or %q, got %q",
			model.CriterionDistance, model.CriterionCost, r.Criterion))
	}
	if r.MaxStops != nil && *r.MaxStops < 0 {
		return InvalidRequestError("max_stops must not be negative")
	}
	if r.MaxConcurrency != nil && *r.MaxConcurrency < 0 {
		return InvalidRequestError("max_concurrency must not be negative")
	}
	if r.MaxNodes != nil && *r.MaxNodes < 0 {
		return InvalidRequestError("max_nodes must not be negative")
	}
	return nil
}

// Result is a recorded route plus whatever synthesis was needed to plan it.
type Result struct {
	Route     *model.Route             `json:"route"`
	Synthesis *network.SynthesisReport `json:"synthesis,omitempty"`
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets where route and topology events go.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithMetrics records planning latency and outcomes on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Service) { s.metrics = c }
}

// WithMaxNodes sets the default neighbourhood size.
func WithMaxNodes(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxNodes = n
		}
	}
}

// Service plans and records routes.
type Service struct {
	store     store.Store
	assembler *network.Assembler
	publisher events.Publisher
	metrics   *metrics.Collector
	maxNodes  int
	now       func() time.Time
}

// NewService returns a Service over s that assembles graphs with a.
func NewService(s store.Store, a *network.Assembler, opts ...Option) *Service {
	svc := &Service{
		store:     s,
		assembler: a,
		publisher: events.NoopPublisher{},
		maxNodes:  network.DefaultMaxNodes,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// publish sends an event. Delivery is best-effort.
func (s *Service) publish(ctx context.Context, topic string, event any) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		slog.Warn("failed to publish event", "topic", topic, "error", err)
	}
}

// Plan computes the shortest route for req and records it for req.UserID.
func (s *Service) Plan(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	maxNodes := s.maxNodes
	if req.MaxNodes != nil {
		maxNodes = *req.MaxNodes
	}

	var (
		g      *graph.Graph
		report *network.SynthesisReport
		err    error
	)
	if maxNodes == 0 {
		g, report, err = s.assembler.BuildFull(ctx, req.OriginID, req.DestinationID)
	} else {
		g, report, err = s.assembler.BuildNeighborhood(ctx, req.OriginID, req.DestinationID, maxNodes)
	}
	if err != nil {
		if errors.Is(err, ErrEndpointMissing) {
			s.metrics.ObservePlan(time.Since(start), graph.EndpointMissing.String())
		}
		return nil, err
	}
	if report.Wrote() {
		s.publishSynthesis(ctx, nil, report)
	}

	out := graph.Plan(g, graph.Query{
		Origin:         req.OriginID,
		Destination:    req.DestinationID,
		Criterion:      req.Criterion,
		MaxStops:       req.MaxStops,
		MaxConcurrency: req.MaxConcurrency,
	})
	s.metrics.ObservePlan(time.Since(start), out.Kind.String())
	switch out.Kind {
	case graph.EndpointMissing:
		return nil, ErrEndpointMissing
	case graph.NoPath:
		return nil, ErrNoPath
	}

	id, err := idgen.NewRouteID()
	if err != nil {
		return nil, err
	}
	route := &model.Route{
		ID:             id,
		UserID:         req.UserID,
		OriginID:       req.OriginID,
		DestinationID:  req.DestinationID,
		Criterion:      req.Criterion,
		Algorithm:      out.Algorithm,
		TotalDistance:  out.TotalDistance,
		TotalCost:      model.RoundMoney(out.TotalCost),
		TotalStops:     model.StopCount(out.Path),
		MaxStops:       req.MaxStops,
		MaxConcurrency: req.MaxConcurrency,
		AvgConcurrency: avgConcurrency(g, out.Path),
		CreatedAt:      s.now(),
		Stops:          out.Path,
	}
	if err := s.store.CreateRoute(ctx, route); err != nil {
		return nil, fmt.Errorf("record route: %w", err)
	}

	s.publish(ctx, events.TopicRoutePlanned, events.RoutePlanned{Route: route})
	return &Result{Route: route, Synthesis: report}, nil
}

// avgConcurrency is the mean concurrency class of the airports on path.
func avgConcurrency(g *graph.Graph, path []int64) float64 {
	if len(path) == 0 {
		return 0
	}
	total := 0
	for _, id := range path {
		n, _ := g.Node(id)
		total += int(n.Concurrency)
	}
	return float64(total) / float64(len(path))
}

// History lists userID's routes, newest first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]*model.Route, error) {
	routes, err := s.store.ListRoutes(ctx, model.RouteFilter{UserID: userID, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	return routes, nil
}

// Get returns one of userID's routes. Another user's route is reported as
// ErrNotFound.
func (s *Service) Get(ctx context.Context, userID, id string) (*model.Route, error) {
	route, err := s.store.GetRoute(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get route: %w", err)
	}
	if route.UserID != userID {
		return nil, ErrNotFound
	}
	return route, nil
}

// Delete removes one of userID's routes.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	err := s.store.DeleteRoute(ctx, userID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete route: %w", err)
	}
	s.publish(ctx, events.TopicRouteDeleted, events.RouteDeleted{RouteID: id, UserID: userID})
	return nil
}

// Topology returns every airport and connection with degree statistics.
func (s *Service) Topology(ctx context.Context) (*model.Topology, error) {
	airports, err := s.store.ListAirports(ctx, model.AirportFilter{})
	if err != nil {
		return nil, fmt.Errorf("list airports: %w", err)
	}
	conns, err := s.store.ListConnections(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	return &model.Topology{
		Airports:    airports,
		Connections: conns,
		Stats:       model.ComputeTopologyStats(airports, conns),
	}, nil
}

// Synthesize grows the topology among ids, or among every airport when ids
// is empty.
func (s *Service) Synthesize(ctx context.Context, ids []int64) (*network.SynthesisReport, error) {
	if len(ids) == 0 {
		ids = nil
	}
	report, err := s.assembler.Synthesize(ctx, ids)
	if err != nil {
		return nil, err
	}
	s.publishSynthesis(ctx, ids, report)
	return report, nil
}

func (s *Service) publishSynthesis(ctx context.Context, ids []int64, report *network.SynthesisReport) {
	s.publish(ctx, events.TopicTopologySynthesized, events.TopologySynthesized{
		AirportIDs:      ids,
		Connections:     len(report.Created),
		UpdatedAirports: len(report.Concurrency),
		Attempts:        report.Attempts,
		Stats:           report.Stats,
	})
}
