package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/alfredjeanlab/flightpath/internal/model"
)

// Source is the read side of the store that an export needs.
type Source interface {
	ListAirports(ctx context.Context, filter model.AirportFilter) ([]*model.Airport, error)
	ListConnections(ctx context.Context, ids []int64) ([]*model.Connection, error)
	ListRoutes(ctx context.Context, filter model.RouteFilter) ([]*model.Route, error)
}

// header is the first JSONL record written by WriteJSONL.
type header struct {
	Version         string    `json:"version"`
	Type            string    `json:"type"`
	Timestamp       time.Time `json:"timestamp"`
	AirportCount    int       `json:"airport_count"`
	ConnectionCount int       `json:"connection_count"`
	RouteCount      int       `json:"route_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// WriteJSONL writes every airport, connection and route in s as JSONL to w.
// Airports come ordered by ID, connections by endpoint pair and routes newest
// first, as the store returns them.
func WriteJSONL(ctx context.Context, s Source, w io.Writer) error {
	airports, err := s.ListAirports(ctx, model.AirportFilter{})
	if err != nil {
		return fmt.Errorf("list airports: %w", err)
	}
	conns, err := s.ListConnections(ctx, nil)
	if err != nil {
		return fmt.Errorf("list connections: %w", err)
	}
	routes, err := s.ListRoutes(ctx, model.RouteFilter{})
	if err != nil {
		return fmt.Errorf("list routes: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:         "1",
		Type:            "header",
		Timestamp:       time.Now().UTC(),
		AirportCount:    len(airports),
		ConnectionCount: len(conns),
		RouteCount:      len(routes),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, a := range airports {
		if err := enc.Encode(record{Type: "airport", Data: a}); err != nil {
			return fmt.Errorf("encode airport %d: %w", a.ID, err)
		}
	}
	for _, c := range conns {
		if err := enc.Encode(record{Type: "connection", Data: c}); err != nil {
			return fmt.Errorf("encode connection %d-%d: %w", c.AirportA, c.AirportB, err)
		}
	}
	for _, r := range routes {
		if err := enc.Encode(record{Type: "route", Data: r}); err != nil {
			return fmt.Errorf("encode route %s: %w", r.ID, err)
		}
	}
	return nil
}
