package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/heatcheck/internal/domain/model"
	"github.com/okian/heatcheck/internal/domain/types"
)

// Result is what a run prints, whether computed locally or remotely.
type Result struct {
	BatchID     string      `json:"batch_id,omitempty"`
	Results     []types.Row `json:"results"`
	Persistence *struct {
		Status string `json:"status"`
		Error  string `json:"error,omitempty"`
	} `json:"persistence,omitempty"`
	Warnings []string `json:"warnings"`
}

// assessmentRequest mirrors the POST /assessments body.
type assessmentRequest struct {
	AirTemp      float64 `json:"air_temp"`
	GlobeTemp    float64 `json:"globe_temp"`
	Humidity     float64 `json:"humidity"`
	AirSpeed     float64 `json:"air_speed"`
	Gender       string  `json:"gender"`
	RecordType   string  `json:"record_type"`
	Club         string  `json:"club"`
	Venue        string  `json:"venue"`
	SubmissionID string  `json:"submission_id,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HTTPClient wraps http.Client with a timeout.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Assess posts in to the server and decodes the JSON result.
func (c *HTTPClient) Assess(ctx context.Context, in model.EnvironmentInput, submissionID string) (Result, error) {
	body, err := json.Marshal(assessmentRequest{
		AirTemp:      in.AirTempC,
		GlobeTemp:    in.GlobeTempC,
		Humidity:     in.HumidityPct,
		AirSpeed:     in.AirSpeedMS,
		Gender:       in.Gender,
		RecordType:   in.RecordType,
		Club:         in.Club,
		Venue:        in.Venue,
		SubmissionID: submissionID,
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/assessments", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrRemote, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("%w: read body: %w", ErrRemote, err)
	}
	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		if json.Unmarshal(data, &e) == nil && e.Message != "" {
			return Result{}, fmt.Errorf("%w: %s: %s", ErrRemote, e.Code, e.Message)
		}
		return Result{}, fmt.Errorf("%w: status %d", ErrRemote, resp.StatusCode)
	}

	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return Result{}, fmt.Errorf("%w: decode body: %w", ErrRemote, err)
	}
	return res, nil
}
