// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gocarina/gocsv"

	repository "github.com/okian/heatcheck/internal/adapters/repository"
	service "github.com/okian/heatcheck/internal/app"
	"github.com/okian/heatcheck/internal/domain/archetype"
	"github.com/okian/heatcheck/internal/domain/heat"
	"github.com/okian/heatcheck/internal/domain/model"
)

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers.
type Dependencies interface {
	// Assess computes and queues one result set. It never fails; persistence
	// problems are reported in the outcome.
	Assess(ctx context.Context, in model.EnvironmentInput, submissionID string) service.Outcome
	Explain(ctx context.Context, in model.EnvironmentInput) []heat.Breakdown

	Archetypes() []archetype.PlayerArchetype
	Thresholds() map[string][]heat.Threshold

	// Read operations over stored batches.
	Batch(ctx context.Context, id string) (model.Batch, error)
	List(ctx context.Context, q repository.Query) ([]repository.Record, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	assessmentsHandler *AssessmentsHandler
	archetypesHandler  *ArchetypesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		assessmentsHandler: NewAssessmentsHandler(deps),
		archetypesHandler:  NewArchetypesHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/archetypes", MetricsMiddleware(s.archetypesHandler.HandleGetArchetypes, "archetypes"))
	mux.HandleFunc("/assessments/explain", MetricsMiddleware(s.assessmentsHandler.HandleExplain, "explain"))
	mux.HandleFunc("/assessments/", MetricsMiddleware(s.assessmentsHandler.HandleGetBatch, "batch"))
	mux.HandleFunc("/assessments", MetricsMiddleware(s.assessmentsHandler.HandleAssessments, "assessments"))
}

type errorResponse struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeCSV(w http.ResponseWriter, status int, rows any) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.WriteHeader(status)
	_ = gocsv.Marshal(rows, w)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	resp := errorResponse{Code: code, Message: http.StatusText(status)}
	if err != nil {
		resp.Message = err.Error()
		var fe FieldErrors
		if errors.As(err, &fe) {
			resp.Fields = fe
		}
	}
	writeJSON(w, status, resp)
}

// wantsCSV reports whether the client asked for CSV via ?format=csv or the
// Accept header.
func wantsCSV(r *http.Request) bool {
	if strings.EqualFold(r.URL.Query().Get("format"), "csv") {
		return true
	}
	return strings.Contains(strings.ToLower(r.Header.Get("Accept")), "text/csv")
}

// writeStoreError translates read-side service errors to HTTP statuses.
func writeStoreError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", wrap(op, ErrNotFound, err))
	case errors.Is(err, service.ErrPersistenceDisabled):
		writeError(w, http.StatusConflict, "persistence_disabled", wrap(op, ErrUnavailable, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", wrap(op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
