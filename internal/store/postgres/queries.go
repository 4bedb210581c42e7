package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/alfredjeanlab/flightpath/internal/model"
	"github.com/alfredjeanlab/flightpath/internal/store"
)

// airportColumns is the column list used for SELECT statements on the airports table.
const airportColumns = `id, name, city, country, lat, lon, concurrency`

// connectionColumns is the column list used for SELECT statements on the connections table.
const connectionColumns = `id, airport_a, airport_b, distance_km, congestion_factor, cost, created_at`

// routeColumns is the column list used for SELECT statements on the routes table.
const routeColumns = `id, user_id, origin_id, destination_id, criterion, algorithm,
	total_distance, total_cost, total_stops, max_stops, max_concurrency,
	avg_concurrency, created_at`

// uniqueViolation is the PostgreSQL error code for a unique constraint failure.
const uniqueViolation = "23505"

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryListAirports(ctx context.Context, db executor, filter model.AirportFilter) ([]*model.Airport, error) {
	query := `SELECT ` + airportColumns + ` FROM airports ORDER BY id`
	var args []any
	if filter.Limit > 0 {
		query += ` LIMIT $1 OFFSET $2`
		args = append(args, filter.Limit, max(filter.Skip, 0))
	} else if filter.Skip > 0 {
		query += ` OFFSET $1`
		args = append(args, filter.Skip)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAirports(rows)
}

func queryGetAirport(ctx context.Context, db executor, id int64) (*model.Airport, error) {
	row := db.QueryRowContext(ctx, `SELECT `+airportColumns+` FROM airports WHERE id = $1`, id)
	return scanAirport(row)
}

func queryGetAirports(ctx context.Context, db executor, ids []int64) ([]*model.Airport, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := db.QueryContext(ctx,
		`SELECT `+airportColumns+` FROM airports WHERE id = ANY($1) ORDER BY id`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAirports(rows)
}

// queryUpsertAirport inserts an airport or refreshes its descriptive fields.
// The concurrency class of an existing airport is left alone.
func queryUpsertAirport(ctx context.Context, db executor, a *model.Airport) error {
	conc := a.Concurrency
	if !conc.IsValid() {
		conc = model.ConcurrencyLow
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO airports (id, name, city, country, lat, lon, concurrency)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			city = EXCLUDED.city,
			country = EXCLUDED.country,
			lat = EXCLUDED.lat,
			lon = EXCLUDED.lon`,
		a.ID,
		a.Name,
		nullString(a.City),
		a.Country,
		a.Lat,
		a.Lon,
		int(conc),
	)
	return err
}

func queryUpdateAirportConcurrency(ctx context.Context, db executor, id int64, c model.Concurrency) error {
	res, err := db.ExecContext(ctx, `UPDATE airports SET concurrency = $2 WHERE id = $1`, id, int(c))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func queryListConnections(ctx context.Context, db executor, ids []int64) ([]*model.Connection, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if ids == nil {
		rows, err = db.QueryContext(ctx,
			`SELECT `+connectionColumns+` FROM connections ORDER BY airport_a, airport_b`)
	} else {
		rows, err = db.QueryContext(ctx,
			`SELECT `+connectionColumns+` FROM connections
			WHERE airport_a = ANY($1) AND airport_b = ANY($1)
			ORDER BY airport_a, airport_b`,
			pq.Array(ids),
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanConnections(rows)
}

// queryCreateConnection inserts a connection with its endpoints normalised.
// A pair that already exists yields store.ErrDuplicateConnection.
func queryCreateConnection(ctx context.Context, db executor, c *model.Connection) error {
	c.Normalize()
	err := db.QueryRowContext(ctx, `
		INSERT INTO connections (airport_a, airport_b, distance_km, congestion_factor, cost)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		c.AirportA,
		c.AirportB,
		c.DistanceKM,
		c.CongestionFactor,
		c.Cost,
	).Scan(&c.ID, &c.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %d-%d", store.ErrDuplicateConnection, c.AirportA, c.AirportB)
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// queryCreateRoute writes the header row followed by one row per stop. It
// must run inside a transaction for the pair of writes to be atomic.
func queryCreateRoute(ctx context.Context, db executor, r *model.Route) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO routes (
			id, user_id, origin_id, destination_id, criterion, algorithm,
			total_distance, total_cost, total_stops, max_stops, max_concurrency,
			avg_concurrency, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13
		)`,
		r.ID,
		r.UserID,
		r.OriginID,
		r.DestinationID,
		string(r.Criterion),
		r.Algorithm,
		r.TotalDistance,
		r.TotalCost,
		r.TotalStops,
		nullIntPtr(r.MaxStops),
		nullIntPtr(r.MaxConcurrency),
		r.AvgConcurrency,
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert route: %w", err)
	}

	for i, airportID := range r.Stops {
		_, err := db.ExecContext(ctx, `
			INSERT INTO route_stops (route_id, stop_order, airport_id)
			VALUES ($1, $2, $3)`,
			r.ID, i, airportID,
		)
		if err != nil {
			return fmt.Errorf("insert route stop %d: %w", i, err)
		}
	}
	return nil
}

func queryGetRoute(ctx context.Context, db executor, id string) (*model.Route, error) {
	row := db.QueryRowContext(ctx, `SELECT `+routeColumns+` FROM routes WHERE id = $1`, id)
	r, err := scanRoute(row)
	if err != nil {
		return nil, err
	}

	stops, err := queryGetRouteStops(ctx, db, []string{id})
	if err != nil {
		return nil, err
	}
	r.Stops = stops[id]
	return r, nil
}

func queryListRoutes(ctx context.Context, db executor, filter model.RouteFilter) ([]*model.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM routes`
	var args []any
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		query += ` WHERE user_id = $1`
	}
	query += ` ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	routes, err := scanRoutes(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if len(routes) == 0 {
		return routes, nil
	}

	ids := make([]string, len(routes))
	for i, r := range routes {
		ids[i] = r.ID
	}
	stops, err := queryGetRouteStops(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	for _, r := range routes {
		r.Stops = stops[r.ID]
	}
	return routes, nil
}

// queryGetRouteStops returns the ordered airport IDs of each route.
func queryGetRouteStops(ctx context.Context, db executor, routeIDs []string) (map[string][]int64, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT route_id, airport_id FROM route_stops
		WHERE route_id = ANY($1)
		ORDER BY route_id, stop_order`,
		pq.Array(routeIDs),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stops := make(map[string][]int64, len(routeIDs))
	for rows.Next() {
		var (
			routeID   string
			airportID int64
		)
		if err := rows.Scan(&routeID, &airportID); err != nil {
			return nil, err
		}
		stops[routeID] = append(stops[routeID], airportID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stops, nil
}

// queryDeleteRoute removes a route owned by userID. Stops cascade.
func queryDeleteRoute(ctx context.Context, db executor, userID, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM routes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
