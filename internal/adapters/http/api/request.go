package api

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/okian/heatcheck/internal/domain/model"
	"github.com/okian/heatcheck/pkg/metrics"
)

// Request field names, shared with the form and the CLI.
const (
	FieldAirTemp    = "air_temp"
	FieldGlobeTemp  = "globe_temp"
	FieldHumidity   = "humidity"
	FieldAirSpeed   = "air_speed"
	FieldGender     = "gender"
	FieldRecordType = "record_type"
	FieldClub       = "club"
	FieldVenue      = "venue"
)

// assessmentRequest mirrors the OpenAPI schema for POST /assessments.
// Numeric fields accept a JSON number or numeric text.
type assessmentRequest struct {
	AirTemp      json.RawMessage `json:"air_temp"`
	GlobeTemp    json.RawMessage `json:"globe_temp"`
	Humidity     json.RawMessage `json:"humidity"`
	AirSpeed     json.RawMessage `json:"air_speed"`
	Gender       string          `json:"gender"`
	RecordType   string          `json:"record_type"`
	Club         string          `json:"club"`
	Venue        string          `json:"venue"`
	SubmissionID string          `json:"submission_id"`
}

// toInput validates the numeric fields and builds the engine input. Every
// rejected field is reported, not just the first.
func (r assessmentRequest) toInput() (model.EnvironmentInput, error) {
	var errs FieldErrors
	num := func(field string, raw json.RawMessage) float64 {
		v, msg := parseNumber(raw)
		if msg != "" {
			errs = append(errs, FieldError{Field: field, Message: msg})
			metrics.RecordInvalidInput(field)
		}
		return v
	}

	in := model.EnvironmentInput{
		AirTempC:    num(FieldAirTemp, r.AirTemp),
		GlobeTempC:  num(FieldGlobeTemp, r.GlobeTemp),
		HumidityPct: num(FieldHumidity, r.Humidity),
		AirSpeedMS:  num(FieldAirSpeed, r.AirSpeed),
		Gender:      r.Gender, // matched exactly, ignoring case only
		RecordType:  strings.TrimSpace(r.RecordType),
		Club:        strings.TrimSpace(r.Club),
		Venue:       strings.TrimSpace(r.Venue),
	}

	if !hasField(errs, FieldHumidity) && (in.HumidityPct < 0 || in.HumidityPct > 100) {
		errs = append(errs, FieldError{Field: FieldHumidity, Message: "must be between 0 and 100"})
		metrics.RecordInvalidInput(FieldHumidity)
	}
	if !hasField(errs, FieldAirSpeed) && in.AirSpeedMS < 0 {
		errs = append(errs, FieldError{Field: FieldAirSpeed, Message: "must not be negative"})
		metrics.RecordInvalidInput(FieldAirSpeed)
	}

	if len(errs) > 0 {
		return model.EnvironmentInput{}, errs
	}
	return in, nil
}

// parseNumber returns the value or a message describing why raw is unusable.
func parseNumber(raw json.RawMessage) (float64, string) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, "is required"
	}

	text := string(raw)
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, "must be a number"
		}
		text = strings.TrimSpace(s)
		if text == "" {
			return 0, "is required"
		}
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, "must be a number"
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, "must be finite"
	}
	return v, ""
}

func hasField(errs FieldErrors, field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}
