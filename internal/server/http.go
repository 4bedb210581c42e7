package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/alfredjeanlab/flightpath/internal/network"
	"github.com/alfredjeanlab/flightpath/internal/routing"
)

// NewHTTPHandler returns an http.Handler with all routes registered. auth
// identifies the caller of every route except health and metrics; nil
// disables authentication.
func (s *Server) NewHTTPHandler(auth Authenticator) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.HandleFunc("GET /v1/airports", s.handleListAirports)
	mux.HandleFunc("GET /v1/airports/{id}", s.handleGetAirport)
	mux.HandleFunc("GET /v1/topology", s.handleGetTopology)
	mux.HandleFunc("POST /v1/topology/synthesize", s.handleSynthesize)
	mux.HandleFunc("POST /v1/routes", s.handlePlanRoute)
	mux.HandleFunc("GET /v1/routes", s.handleListRoutes)
	mux.HandleFunc("GET /v1/routes/{id}", s.handleGetRoute)
	mux.HandleFunc("DELETE /v1/routes/{id}", s.handleDeleteRoute)
	mux.HandleFunc("GET /v1/events/stream", s.handleEventStream)
	return RecoveryMiddleware(LoggingMiddleware(AuthMiddleware(auth, mux)))
}

// handleHealth handles GET /v1/health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps routing and network errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, err error, action string) {
	var (
		ire routing.InvalidRequestError
		ie  inputError
	)
	switch {
	case errors.As(err, &ire), errors.As(err, &ie):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, routing.ErrEndpointMissing):
		writeError(w, http.StatusNotFound, routing.ErrEndpointMissing.Error())
	case errors.Is(err, routing.ErrNoPath):
		writeError(w, http.StatusNotFound, routing.ErrNoPath.Error())
	case errors.Is(err, routing.ErrNotFound):
		writeError(w, http.StatusNotFound, routing.ErrNotFound.Error())
	case errors.Is(err, network.ErrInsufficientAirports):
		slog.Error(action, "error", err)
		writeError(w, http.StatusInternalServerError, network.ErrInsufficientAirports.Error())
	default:
		slog.Error(action, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to "+action)
	}
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, inputError(name + " must be a non-negative integer")
	}
	return n, nil
}

// pathInt64 parses a positive integer path value.
func pathInt64(r *http.Request, name string) (int64, error) {
	n, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || n <= 0 {
		return 0, inputError(name + " must be a positive integer")
	}
	return n, nil
}
