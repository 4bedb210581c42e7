package store

import (
	"context"
	"errors"

	"github.com/alfredjeanlab/flightpath/internal/model"
)

// ErrDuplicateConnection is returned by CreateConnection when the unordered
// airport pair is already connected.
var ErrDuplicateConnection = errors.New("connection already exists")

// Store defines the persistence interface for airports, connections and
// computed routes. Missing rows are reported as sql.ErrNoRows.
type Store interface {
	// Airports
	ListAirports(ctx context.Context, filter model.AirportFilter) ([]*model.Airport, error)
	GetAirport(ctx context.Context, id int64) (*model.Airport, error)
	GetAirports(ctx context.Context, ids []int64) ([]*model.Airport, error)
	UpsertAirport(ctx context.Context, airport *model.Airport) error
	UpdateAirportConcurrency(ctx context.Context, id int64, c model.Concurrency) error

	// Connections. A nil ids slice lists every connection; otherwise only
	// connections with both endpoints in ids are returned.
	ListConnections(ctx context.Context, ids []int64) ([]*model.Connection, error)
	CreateConnection(ctx context.Context, conn *model.Connection) error

	// Routes
	CreateRoute(ctx context.Context, route *model.Route) error
	GetRoute(ctx context.Context, id string) (*model.Route, error)
	ListRoutes(ctx context.Context, filter model.RouteFilter) ([]*model.Route, error)
	DeleteRoute(ctx context.Context, userID, id string) error

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
