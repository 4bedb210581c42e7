package model

import (
	"fmt"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ValidateAirport checks an Airport for constraint violations.
// It returns a *ValidationError if any rules fail, or nil if the airport is valid.
func ValidateAirport(a *Airport) error {
	var ve ValidationError

	if a.ID <= 0 {
		ve.Errors = append(ve.Errors, FieldError{Field: "id", Message: "must be positive"})
	}
	if strings.TrimSpace(a.Name) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "name", Message: "is required"})
	}
	if a.Lat < -90 || a.Lat > 90 {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "lat",
			Message: fmt.Sprintf("must be between -90 and 90, got %g", a.Lat),
		})
	}
	if a.Lon < -180 || a.Lon > 180 {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "lon",
			Message: fmt.Sprintf("must be between -180 and 180, got %g", a.Lon),
		})
	}
	if a.Concurrency != 0 && !a.Concurrency.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "concurrency",
			Message: fmt.Sprintf("invalid value %d", a.Concurrency),
		})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// ValidateConnection checks a Connection against the edge rules: no self
// loops, positive distance and cost, and a known congestion factor.
func ValidateConnection(c *Connection) error {
	var ve ValidationError

	if c.AirportA == c.AirportB {
		ve.Errors = append(ve.Errors, FieldError{Field: "airport_b", Message: "must differ from airport_a"})
	}
	if c.DistanceKM <= 0 {
		ve.Errors = append(ve.Errors, FieldError{Field: "distance_km", Message: "must be positive"})
	}
	if c.Cost <= 0 {
		ve.Errors = append(ve.Errors, FieldError{Field: "cost", Message: "must be positive"})
	}
	switch c.CongestionFactor {
	case 1.0, 1.3, 1.6:
	default:
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "congestion_factor",
			Message: fmt.Sprintf("invalid value %g", c.CongestionFactor),
		})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
