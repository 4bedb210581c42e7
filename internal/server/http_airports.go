package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/alfredjeanlab/flightpath/internal/model"
)

// defaultAirportLimit is the page size when a listing gives none.
const defaultAirportLimit = 100

// handleListAirports handles GET /v1/airports.
func (s *Server) handleListAirports(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := queryInt(r, "limit", defaultAirportLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	airports, err := s.store.ListAirports(r.Context(), model.AirportFilter{Skip: skip, Limit: limit})
	if err != nil {
		writeServiceError(w, err, "list airports")
		return
	}
	if airports == nil {
		airports = []*model.Airport{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"airports": airports,
		"skip":     skip,
		"limit":    limit,
	})
}

// handleGetAirport handles GET /v1/airports/{id}.
func (s *Server) handleGetAirport(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	airport, err := s.store.GetAirport(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "airport not found")
		return
	}
	if err != nil {
		writeServiceError(w, err, "get airport")
		return
	}
	writeJSON(w, http.StatusOK, airport)
}

// handleGetTopology handles GET /v1/topology.
func (s *Server) handleGetTopology(w http.ResponseWriter, r *http.Request) {
	topo, err := s.routes.Topology(r.Context())
	if err != nil {
		writeServiceError(w, err, "get topology")
		return
	}
	writeJSON(w, http.StatusOK, topo)
}

type synthesizeRequest struct {
	AirportIDs []int64 `json:"airport_ids" validate:"omitempty,dive,gt=0"`
}

// handleSynthesize handles POST /v1/topology/synthesize. An empty body
// synthesizes over every airport.
func (s *Server) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var req synthesizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validateRequest(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.routes.Synthesize(r.Context(), req.AirportIDs)
	if err != nil {
		writeServiceError(w, err, "synthesize topology")
		return
	}
	writeJSON(w, http.StatusOK, report)
}
