package postgres

import (
	"database/sql"

	"github.com/alfredjeanlab/flightpath/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanAirport scans a single row into a model.Airport.
// The row must contain columns in the order defined by airportColumns.
func scanAirport(row scannable) (*model.Airport, error) {
	var (
		a    model.Airport
		city sql.NullString
		conc int
	)
	if err := row.Scan(&a.ID, &a.Name, &city, &a.Country, &a.Lat, &a.Lon, &conc); err != nil {
		return nil, err
	}
	a.City = city.String
	a.Concurrency = model.Concurrency(conc)
	return &a, nil
}

// scanAirports scans multiple rows into a slice of model.Airport pointers.
func scanAirports(rows *sql.Rows) ([]*model.Airport, error) {
	var airports []*model.Airport
	for rows.Next() {
		a, err := scanAirport(rows)
		if err != nil {
			return nil, err
		}
		airports = append(airports, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return airports, nil
}

// scanConnection scans a single row into a model.Connection.
func scanConnection(row scannable) (*model.Connection, error) {
	var c model.Connection
	err := row.Scan(&c.ID, &c.AirportA, &c.AirportB, &c.DistanceKM, &c.CongestionFactor, &c.Cost, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// scanConnections scans multiple rows into a slice of model.Connection pointers.
func scanConnections(rows *sql.Rows) ([]*model.Connection, error) {
	var conns []*model.Connection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		conns = append(conns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return conns, nil
}

// scanRoute scans a route header. Stops are loaded separately.
func scanRoute(row scannable) (*model.Route, error) {
	var (
		r              model.Route
		criterion      string
		maxStops       sql.NullInt64
		maxConcurrency sql.NullInt64
	)
	err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.OriginID,
		&r.DestinationID,
		&criterion,
		&r.Algorithm,
		&r.TotalDistance,
		&r.TotalCost,
		&r.TotalStops,
		&maxStops,
		&maxConcurrency,
		&r.AvgConcurrency,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Criterion = model.Criterion(criterion)
	r.MaxStops = intPtr(maxStops)
	r.MaxConcurrency = intPtr(maxConcurrency)
	return &r, nil
}

// scanRoutes scans multiple rows into a slice of model.Route pointers.
func scanRoutes(rows *sql.Rows) ([]*model.Route, error) {
	routes := []*model.Route{}
	for rows.Next() {
		r, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		routes = append(routes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return routes, nil
}

// nullString converts a string to sql.NullString; empty string is null.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullIntPtr converts an optional int to sql.NullInt64.
func nullIntPtr(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

// intPtr converts a sql.NullInt64 back to an optional int.
func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
