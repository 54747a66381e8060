package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/heatcheck/pkg/logger"
	"github.com/okian/heatcheck/pkg/metrics"
)

// MetricsMiddleware records request count, latency and error breakdowns for
// endpoint, and logs server errors.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		durationMs := float64(elapsed.Microseconds()) / 1000
		status := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, durationMs)

		if rec.status < http.StatusBadRequest {
			return
		}
		errorType, severity := classifyStatus(rec.status)
		metrics.RecordErrorByEndpoint(endpoint, r.Method, errorType)
		metrics.RecordErrorByType(errorType, severity)
		if rec.status >= http.StatusInternalServerError {
			metrics.RecordErrorByComponent("http", errorType)
			logger.Get().Named("http").Error(r.Context(), "request failed",
				logger.String("endpoint", endpoint),
				logger.String("method", r.Method),
				logger.Int("status", rec.status),
				logger.Duration("elapsed", elapsed),
			)
		}
	}
}

// classifyStatus maps an error status to the error type and severity labels.
func classifyStatus(status int) (errorType, severity string) {
	switch {
	case status >= http.StatusInternalServerError:
		if status == http.StatusServiceUnavailable {
			return "unavailable", "high"
		}
		return "server_error", "high"
	case status == http.StatusNotFound:
		return "not_found", "low"
	case status == http.StatusConflict:
		return "conflict", "medium"
	case status == http.StatusMethodNotAllowed:
		return "method_not_allowed", "low"
	case status == http.StatusRequestEntityTooLarge:
		return "too_large", "medium"
	default:
		return "client_error", "medium"
	}
}

// statusRecorder captures the status code written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.wroteHeader {
		sr.status = code
		sr.wroteHeader = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	sr.wroteHeader = true
	return sr.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}
