package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/alfredjeanlab/flightpath/internal/model"
	"github.com/alfredjeanlab/flightpath/internal/routing"
)

// planRequest is the body of POST /v1/routes.
type planRequest struct {
	OriginID       int64  `json:"origin_id" validate:"required,gt=0"`
	DestinationID  int64  `json:"destination_id" validate:"required,gt=0"`
	Criterion      string `json:"criterion" validate:"omitempty,oneof=distance cost"`
	MaxStops       *int   `json:"max_stops" validate:"omitempty,gte=0"`
	MaxConcurrency *int   `json:"max_concurrency" validate:"omitempty,gte=0"`
	MaxNodes       *int   `json:"max_nodes" validate:"omitempty,gte=0"`
}

// validateRequest runs struct-tag validation and flattens the failures into
// one inputError.
func (s *Server) validateRequest(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return inputError(err.Error())
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		if fe.Param() != "" {
			msgs[i] = fmt.Sprintf("%s: must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param())
		} else {
			msgs[i] = fmt.Sprintf("%s: %s", fe.Field(), fe.Tag())
		}
	}
	return inputError(strings.Join(msgs, "; "))
}

// handlePlanRoute handles POST /v1/routes.
func (s *Server) handlePlanRoute(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validateRequest(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.routes.Plan(r.Context(), routing.Request{
		UserID:         UserFromContext(r.Context()),
		OriginID:       req.OriginID,
		DestinationID:  req.DestinationID,
		Criterion:      model.Criterion(req.Criterion),
		MaxStops:       req.MaxStops,
		MaxConcurrency: req.MaxConcurrency,
		MaxNodes:       req.MaxNodes,
	})
	if err != nil {
		writeServiceError(w, err, "plan route")
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// handleListRoutes handles GET /v1/routes.
func (s *Server) handleListRoutes(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	routes, err := s.routes.History(r.Context(), UserFromContext(r.Context()), limit)
	if err != nil {
		writeServiceError(w, err, "list routes")
		return
	}
	if routes == nil {
		routes = []*model.Route{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"routes": routes})
}

// handleGetRoute handles GET /v1/routes/{id}.
func (s *Server) handleGetRoute(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	route, err := s.routes.Get(r.Context(), UserFromContext(r.Context()), id)
	if err != nil {
		writeServiceError(w, err, "get route")
		return
	}
	writeJSON(w, http.StatusOK, route)
}

// handleDeleteRoute handles DELETE /v1/routes/{id}.
func (s *Server) handleDeleteRoute(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	if err := s.routes.Delete(r.Context(), UserFromContext(r.Context()), id); err != nil {
		writeServiceError(w, err, "delete route")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
