package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	repository "github.com/okian/heatcheck/internal/adapters/repository"
	"github.com/okian/heatcheck/internal/domain/heat"
	"github.com/okian/heatcheck/internal/domain/model"
	"github.com/okian/heatcheck/internal/domain/types"
)

// AssessmentsHandler serves the /assessments routes.
type AssessmentsHandler struct {
	deps Dependencies
}

// NewAssessmentsHandler creates a new assessments handler.
func NewAssessmentsHandler(deps Dependencies) *AssessmentsHandler {
	return &AssessmentsHandler{deps: deps}
}

type persistenceResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type assessmentResponse struct {
	BatchID     string              `json:"batch_id"`
	Results     []types.Row         `json:"results"`
	Persistence persistenceResponse `json:"persistence"`
	Warnings    []string            `json:"warnings"`
}

type stageResponse struct {
	Name  string   `json:"name"`
	Value *float64 `json:"value"`
}

type breakdownResponse struct {
	Player       string          `json:"player"`
	HSI          *float64        `json:"hsi"`
	SweatRateLHr *float64        `json:"sweat_rate_l_hr"`
	Degenerate   bool            `json:"degenerate"`
	Stages       []stageResponse `json:"stages"`
}

type explainResponse struct {
	Results []breakdownResponse `json:"results"`
}

type inputResponse struct {
	AirTemp    float64 `json:"air_temp"`
	GlobeTemp  float64 `json:"globe_temp"`
	Humidity   float64 `json:"humidity"`
	AirSpeed   float64 `json:"air_speed"`
	Gender     string  `json:"gender"`
	RecordType string  `json:"record_type"`
	Club       string  `json:"club"`
	Venue      string  `json:"venue"`
}

type batchResponse struct {
	BatchID      string        `json:"batch_id"`
	SubmissionID string        `json:"submission_id,omitempty"`
	ComputedAt   string        `json:"computed_at"`
	Input        inputResponse `json:"input"`
	Results      []types.Row   `json:"results"`
}

// recordRow is one stored row; the embedded Row keeps the CSV columns flat.
type recordRow struct {
	BatchID string `json:"batch_id" csv:"batch_id"`
	types.Row
}

type listResponse struct {
	Count   int         `json:"count"`
	Results []recordRow `json:"results"`
}

// HandleAssessments handles POST /assessments and GET /assessments.
func (h *AssessmentsHandler) HandleAssessments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handlePostAssessment(w, r)
	case http.MethodGet:
		h.handleList(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	}
}

func (h *AssessmentsHandler) handlePostAssessment(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_assessment"
	req, in, ok := decodeAssessment(w, r, op)
	if !ok {
		return
	}

	out := h.deps.Assess(r.Context(), in, strings.TrimSpace(req.SubmissionID))
	rows := types.FromResults(out.Results)
	if wantsCSV(r) {
		if out.BatchID != "" {
			w.Header().Set("X-Batch-Id", out.BatchID)
		}
		w.Header().Set("X-Persistence-Status", out.Persistence.Status)
		writeCSV(w, http.StatusOK, rows)
		return
	}

	warnings := out.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	writeJSON(w, http.StatusOK, assessmentResponse{
		BatchID: out.BatchID,
		Results: rows,
		Persistence: persistenceResponse{
			Status: out.Persistence.Status,
			Error:  out.Persistence.Error,
		},
		Warnings: warnings,
	})
}

// HandleExplain handles POST /assessments/explain.
func (h *AssessmentsHandler) HandleExplain(w http.ResponseWriter, r *http.Request) {
	const op = "api.explain"
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	_, in, ok := decodeAssessment(w, r, op)
	if !ok {
		return
	}

	breakdowns := h.deps.Explain(r.Context(), in)
	resp := explainResponse{Results: make([]breakdownResponse, len(breakdowns))}
	for i, b := range breakdowns {
		resp.Results[i] = toBreakdownResponse(b)
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleGetBatch handles GET /assessments/{batch_id}.
func (h *AssessmentsHandler) HandleGetBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_batch"
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/assessments/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", wrap(op, ErrBadRequest, nil))
		return
	}

	b, err := h.deps.Batch(r.Context(), id)
	if err != nil {
		writeStoreError(w, op, err)
		return
	}
	rows := types.FromResults(b.Results)
	if wantsCSV(r) {
		writeCSV(w, http.StatusOK, rows)
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{
		BatchID:      b.ID,
		SubmissionID: b.SubmissionID,
		ComputedAt:   b.ComputedAt.UTC().Format(time.RFC3339),
		Input:        toInputResponse(b.Input),
		Results:      rows,
	})
}

func (h *AssessmentsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_assessments"
	qs := r.URL.Query()
	q := repository.Query{
		Club:   strings.TrimSpace(qs.Get("club")),
		Venue:  strings.TrimSpace(qs.Get("venue")),
		Player: strings.TrimSpace(qs.Get("player")),
	}
	if s := qs.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request",
				wrap(op, ErrBadRequest, FieldError{Field: "limit", Message: "must be a positive integer"}))
			return
		}
		q.Limit = n
	}

	records, err := h.deps.List(r.Context(), q)
	if err != nil {
		writeStoreError(w, op, err)
		return
	}
	rows := make([]recordRow, len(records))
	for i, rec := range records {
		rows[i] = recordRow{BatchID: rec.BatchID, Row: types.FromResult(rec.AssessmentResult)}
	}
	if wantsCSV(r) {
		writeCSV(w, http.StatusOK, rows)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Count: len(rows), Results: rows})
}

// decodeAssessment reads and validates the request body. On failure the
// error response has already been written.
func decodeAssessment(w http.ResponseWriter, r *http.Request, op string) (assessmentRequest, model.EnvironmentInput, bool) {
	var req assessmentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", wrap(op, ErrBadRequest, err))
		} else {
			writeError(w, http.StatusBadRequest, "bad_request", wrap(op, ErrBadRequest, err))
		}
		return req, model.EnvironmentInput{}, false
	}
	in, err := req.toInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err)
		return req, model.EnvironmentInput{}, false
	}
	return req, in, true
}

func toBreakdownResponse(b heat.Breakdown) breakdownResponse {
	stages := b.Stages()
	out := breakdownResponse{
		Player:     b.Player,
		Degenerate: b.Degenerate,
		Stages:     make([]stageResponse, len(stages)),
	}
	if !b.Degenerate {
		out.HSI = finite(b.HSI)
		out.SweatRateLHr = finite(b.SweatRateLHr)
	}
	for i, st := range stages {
		out.Stages[i] = stageResponse{Name: st.Name, Value: finite(st.Value)}
	}
	return out
}

// finite returns nil for NaN and infinities, which JSON cannot carry.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func toInputResponse(in model.EnvironmentInput) inputResponse {
	return inputResponse{
		AirTemp:    in.AirTempC,
		GlobeTemp:  in.GlobeTempC,
		Humidity:   in.HumidityPct,
		AirSpeed:   in.AirSpeedMS,
		Gender:     in.Gender,
		RecordType: in.RecordType,
		Club:       in.Club,
		Venue:      in.Venue,
	}
}
