package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/gocarina/gocsv"

	"github.com/okian/heatcheck/internal/domain/types"
)

// Render writes res to w in format.
func Render(w io.Writer, format string, res Result) error {
	switch format {
	case FormatCSV:
		return gocsv.Marshal(res.Results, w)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	default:
		return renderTable(w, res)
	}
}

func renderTable(w io.Writer, res Result) error {
	if len(res.Results) > 0 {
		r := res.Results[0]
		fmt.Fprintf(w, "%s | %s | %s | %s | %s\n\n", r.RecordType, r.Club, r.Venue, r.Gender, r.CreatedAt)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PLAYER\tHSI\tSWEAT L/H\tASSESSMENT")
	for _, r := range res.Results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Player, hsiText(r), sweatText(r), r.Assessment)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("render table: %w", err)
	}

	if res.BatchID != "" {
		fmt.Fprintf(w, "\nbatch %s", res.BatchID)
		if res.Persistence != nil {
			fmt.Fprintf(w, " (%s)", res.Persistence.Status)
		}
		fmt.Fprintln(w)
	}
	for _, warning := range res.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	return nil
}

func hsiText(r types.Row) string {
	if r.HSI == nil {
		return "-"
	}
	return strconv.Itoa(*r.HSI)
}

func sweatText(r types.Row) string {
	if r.SweatRateLHr == nil {
		return "-"
	}
	return strconv.FormatFloat(*r.SweatRateLHr, 'f', 2, 64)
}
