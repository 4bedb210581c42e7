// Package server exposes route planning, route history and the airport
// network over HTTP, plus a gRPC health endpoint.
package server

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/alfredjeanlab/flightpath/internal/metrics"
	"github.com/alfredjeanlab/flightpath/internal/routing"
	"github.com/alfredjeanlab/flightpath/internal/store"
)

// Server serves the flightpath HTTP API.
type Server struct {
	store    store.Store
	routes   *routing.Service
	hub      *SSEHub
	metrics  *metrics.Collector
	validate *validator.Validate
}

// New returns a Server. hub receives the events published by routes and
// streams them to SSE clients; a nil hub gets a fresh one with no producers.
func New(s store.Store, routes *routing.Service, hub *SSEHub, m *metrics.Collector) *Server {
	if hub == nil {
		hub = NewSSEHub()
	}
	return &Server{
		store:    s,
		routes:   routes,
		hub:      hub,
		metrics:  m,
		validate: newValidator(),
	}
}

// newValidator reports field errors under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// inputError indicates invalid user input.
// Transport layers map this to 400 / InvalidArgument.
type inputError string

func (e inputError) Error() string { return string(e) }
