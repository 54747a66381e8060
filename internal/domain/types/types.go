// Package types contains the row shapes shared by the HTTP API and the CLI.
package types

import (
	"fmt"
	"math"

	"github.com/okian/heatcheck/internal/domain/model"
)

// Row is one assessment rendered for clients. Degenerate rows have nil HSI
// and sweat rate plus a warning.
type Row struct {
	RecordType   string   `json:"record_type" csv:"record_type"`
	Club         string   `json:"club" csv:"club"`
	Venue        string   `json:"venue" csv:"venue"`
	Gender       string   `json:"gender" csv:"gender"`
	Player       string   `json:"player" csv:"player"`
	HSI          *int     `json:"hsi" csv:"hsi"`
	Assessment   string   `json:"assessment" csv:"assessment"`
	SweatRateLHr *float64 `json:"sweat_rate_l_hr" csv:"sweat_rate_l_hr"`
	CreatedAt    string   `json:"created_at" csv:"created_at"`
	Warning      string   `json:"warning,omitempty" csv:"warning"`
}

// DegenerateWarning is the message attached to rows without usable values.
func DegenerateWarning(player string) string {
	return fmt.Sprintf("%s: heat balance is undefined for these conditions (no evaporative capacity); no assessment given", player)
}

// FromResult converts an engine result.
func FromResult(r model.AssessmentResult) Row {
	row := Row{
		RecordType: r.RecordType,
		Club:       r.Club,
		Venue:      r.Venue,
		Gender:     r.Gender,
		Player:     r.Player,
		Assessment: string(r.Assessment),
		CreatedAt:  r.CreatedAt,
	}
	if r.Degenerate || !r.Finite() {
		row.Warning = DegenerateWarning(r.Player)
		return row
	}
	hsi := int(math.Round(r.HSI))
	sweat := r.SweatRateLHr
	row.HSI = &hsi
	row.SweatRateLHr = &sweat
	return row
}

// FromResults converts a result set preserving order.
func FromResults(rs []model.AssessmentResult) []Row {
	out := make([]Row, len(rs))
	for i, r := range rs {
		out[i] = FromResult(r)
	}
	return out
}

// Warnings collects the non-empty row warnings.
func Warnings(rows []Row) []string {
	var out []string
	for _, r := range rows {
		if r.Warning != "" {
			out = append(out, r.Warning)
		}
	}
	return out
}
