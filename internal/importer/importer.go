// Package importer loads airports from CSV files into the store.
//
// Two layouts are accepted. Files whose first row names its columns (id,
// name, city, country, lat, lon, in any order) are read by header. Anything
// else is read positionally as OpenFlights airports.dat rows:
//
//	id,name,city,country,iata,icao,lat,lon,...
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alfredjeanlab/flightpath/internal/model"
	"github.com/alfredjeanlab/flightpath/internal/store"
)

// openFlightsNull marks a missing value in OpenFlights data.
const openFlightsNull = `\N`

// RowError describes a row that could not be imported.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

func (e *RowError) Unwrap() error { return e.Err }

// Result is the outcome of parsing a file.
type Result struct {
	Airports []*model.Airport
	Skipped  []*RowError
}

type columns struct {
	id, name, city, country, lat, lon int
}

var openFlightsColumns = columns{id: 0, name: 1, city: 2, country: 3, lat: 6, lon: 7}

var headerAliases = map[string]string{
	"id": "id", "airport_id": "id",
	"name":    "name",
	"city":    "city",
	"country": "country",
	"lat":     "lat", "latitude": "lat",
	"lon": "lon", "lng": "lon", "longitude": "lon",
}

// headerColumns maps a header row to column positions. ok is false when the
// row is data rather than a header.
func headerColumns(row []string) (columns, bool, error) {
	if len(row) == 0 {
		return columns{}, false, nil
	}
	if _, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64); err == nil {
		return columns{}, false, nil
	}
	pos := map[string]int{}
	for i, name := range row {
		if key, ok := headerAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
			pos[key] = i
		}
	}
	c := columns{city: -1, country: -1}
	for _, key := range []string{"id", "name", "lat", "lon"} {
		if _, ok := pos[key]; !ok {
			return columns{}, true, fmt.Errorf("header is missing a %q column", key)
		}
	}
	c.id, c.name, c.lat, c.lon = pos["id"], pos["name"], pos["lat"], pos["lon"]
	if i, ok := pos["city"]; ok {
		c.city = i
	}
	if i, ok := pos["country"]; ok {
		c.country = i
	}
	return c, true, nil
}

// Parse reads airports from r. Rows that fail validation are collected in
// Result.Skipped; only a malformed file or header is an error.
func Parse(r io.Reader) (*Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	res := &Result{}
	cols := openFlightsColumns
	for first := true; ; first = false {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if first {
			hc, isHeader, err := headerColumns(row)
			if err != nil {
				return nil, err
			}
			if isHeader {
				cols = hc
				continue
			}
		}

		a, err := parseRow(row, cols)
		if err == nil {
			err = model.ValidateAirport(a)
		}
		if err != nil {
			line, _ := cr.FieldPos(0)
			res.Skipped = append(res.Skipped, &RowError{Line: line, Err: err})
			continue
		}
		res.Airports = append(res.Airports, a)
	}
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	v := strings.TrimSpace(row[i])
	if v == openFlightsNull {
		return ""
	}
	return v
}

func parseRow(row []string, c columns) (*model.Airport, error) {
	id, err := strconv.ParseInt(field(row, c.id), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid id %q", field(row, c.id))
	}
	lat, err := strconv.ParseFloat(field(row, c.lat), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude %q", field(row, c.lat))
	}
	lon, err := strconv.ParseFloat(field(row, c.lon), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude %q", field(row, c.lon))
	}
	return &model.Airport{
		ID:          id,
		Name:        field(row, c.name),
		City:        field(row, c.city),
		Country:     field(row, c.country),
		Lat:         lat,
		Lon:         lon,
		Concurrency: model.ConcurrencyLow,
	}, nil
}

// Load upserts airports in one transaction. Existing airports keep their
// concurrency class.
func Load(ctx context.Context, s store.Store, airports []*model.Airport) error {
	return s.RunInTransaction(ctx, func(tx store.Store) error {
		for _, a := range airports {
			if err := tx.UpsertAirport(ctx, a); err != nil {
				return fmt.Errorf("upsert airport %d: %w", a.ID, err)
			}
		}
		return nil
	})
}
