// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/alfredjeanlab/flightpath/internal/model"
	"github.com/alfredjeanlab/flightpath/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) ListAirports(ctx context.Context, filter model.AirportFilter) ([]*model.Airport, error) {
	return queryListAirports(ctx, s.db, filter)
}

func (s *PostgresStore) GetAirport(ctx context.Context, id int64) (*model.Airport, error) {
	return queryGetAirport(ctx, s.db, id)
}

func (s *PostgresStore) GetAirports(ctx context.Context, ids []int64) ([]*model.Airport, error) {
	return queryGetAirports(ctx, s.db, ids)
}

func (s *PostgresStore) UpsertAirport(ctx context.Context, airport *model.Airport) error {
	return queryUpsertAirport(ctx, s.db, airport)
}

func (s *PostgresStore) UpdateAirportConcurrency(ctx context.Context, id int64, c model.Concurrency) error {
	return queryUpdateAirportConcurrency(ctx, s.db, id, c)
}

func (s *PostgresStore) ListConnections(ctx context.Context, ids []int64) ([]*model.Connection, error) {
	return queryListConnections(ctx, s.db, ids)
}

func (s *PostgresStore) CreateConnection(ctx context.Context, conn *model.Connection) error {
	return queryCreateConnection(ctx, s.db, conn)
}

// CreateRoute writes the route header and its stops in one transaction.
func (s *PostgresStore) CreateRoute(ctx context.Context, route *model.Route) error {
	return s.RunInTransaction(ctx, func(tx store.Store) error {
		return tx.CreateRoute(ctx, route)
	})
}

func (s *PostgresStore) GetRoute(ctx context.Context, id string) (*model.Route, error) {
	return queryGetRoute(ctx, s.db, id)
}

func (s *PostgresStore) ListRoutes(ctx context.Context, filter model.RouteFilter) ([]*model.Route, error) {
	return queryListRoutes(ctx, s.db, filter)
}

func (s *PostgresStore) DeleteRoute(ctx context.Context, userID, id string) error {
	return queryDeleteRoute(ctx, s.db, userID, id)
}

// RunInTransaction begins a database transaction, creates a txStore that
// delegates to it, calls fn, and commits on success or rolls back on error.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txS := &txStore{tx: tx}
	if err := fn(txS); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore implements store.Store using a *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

// Compile-time check that txStore implements store.Store.
var _ store.Store = (*txStore)(nil)

func (s *txStore) ListAirports(ctx context.Context, filter model.AirportFilter) ([]*model.Airport, error) {
	return queryListAirports(ctx, s.tx, filter)
}

func (s *txStore) GetAirport(ctx context.Context, id int64) (*model.Airport, error) {
	return queryGetAirport(ctx, s.tx, id)
}

func (s *txStore) GetAirports(ctx context.Context, ids []int64) ([]*model.Airport, error) {
	return queryGetAirports(ctx, s.tx, ids)
}

func (s *txStore) UpsertAirport(ctx context.Context, airport *model.Airport) error {
	return queryUpsertAirport(ctx, s.tx, airport)
}

func (s *txStore) UpdateAirportConcurrency(ctx context.Context, id int64, c model.Concurrency) error {
	return queryUpdateAirportConcurrency(ctx, s.tx, id, c)
}

func (s *txStore) ListConnections(ctx context.Context, ids []int64) ([]*model.Connection, error) {
	return queryListConnections(ctx, s.tx, ids)
}

func (s *txStore) CreateConnection(ctx context.Context, conn *model.Connection) error {
	return queryCreateConnection(ctx, s.tx, conn)
}

func (s *txStore) CreateRoute(ctx context.Context, route *model.Route) error {
	return queryCreateRoute(ctx, s.tx, route)
}

func (s *txStore) GetRoute(ctx context.Context, id string) (*model.Route, error) {
	return queryGetRoute(ctx, s.tx, id)
}

func (s *txStore) ListRoutes(ctx context.Context, filter model.RouteFilter) ([]*model.Route, error) {
	return queryListRoutes(ctx, s.tx, filter)
}

func (s *txStore) DeleteRoute(ctx context.Context, userID, id string) error {
	return queryDeleteRoute(ctx, s.tx, userID, id)
}

// RunInTransaction on a txStore reuses the existing transaction (no nesting).
func (s *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Close is a no-op for a transaction store; the parent store owns the connection.
func (s *txStore) Close() error {
	return nil
}
