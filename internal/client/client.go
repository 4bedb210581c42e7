// Package client provides a transport-agnostic interface for the flightpath
// service and an HTTP/JSON implementation that talks to its REST API.
package client

import (
	"context"

	"github.com/alfredjeanlab/flightpath/internal/model"
)

// Client is the interface the fp CLI commands use to talk to the server.
type Client interface {
	// Airports
	ListAirports(ctx context.Context, skip, limit int) (*ListAirportsResponse, error)
	GetAirport(ctx context.Context, id int64) (*model.Airport, error)

	// Topology
	Topology(ctx context.Context) (*model.Topology, error)
	Synthesize(ctx context.Context, airportIDs []int64) (*SynthesisResponse, error)

	// Routes
	PlanRoute(ctx context.Context, req *PlanRouteRequest) (*PlanRouteResponse, error)
	ListRoutes(ctx context.Context, limit int) ([]*model.Route, error)
	GetRoute(ctx context.Context, id string) (*model.Route, error)
	DeleteRoute(ctx context.Context, id string) error

	// Health
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}

// ListAirportsResponse is one page of airports.
type ListAirportsResponse struct {
	Airports []*model.Airport `json:"airports"`
	Skip     int              `json:"skip"`
	Limit    int              `json:"limit"`
}

// PlanRouteRequest holds the parameters for planning a route.
type PlanRouteRequest struct {
	OriginID       int64  `json:"origin_id"`
	DestinationID  int64  `json:"destination_id"`
	Criterion      string `json:"criterion,omitempty"`
	MaxStops       *int   `json:"max_stops,omitempty"`
	MaxConcurrency *int   `json:"max_concurrency,omitempty"`
	MaxNodes       *int   `json:"max_nodes,omitempty"`
}

// SynthesisResponse summarises a topology synthesis run.
type SynthesisResponse struct {
	Created     []*model.Connection         `json:"created"`
	Concurrency map[int64]model.Concurrency `json:"concurrency,omitempty"`
	Attempts    int                         `json:"attempts"`
	Stats       *model.TopologyStats        `json:"stats,omitempty"`
}

// PlanRouteResponse is a recorded route and any synthesis that preceded it.
type PlanRouteResponse struct {
	Route     *model.Route       `json:"route"`
	Synthesis *SynthesisResponse `json:"synthesis,omitempty"`
}
