package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/joescharf/adreview/internal/models"
)

const (
	// DefaultFilename is the name offered for the CSV download.
	DefaultFilename = "ad-review.csv"
	// ContentType is the MIME type of the CSV download.
	ContentType = "text/csv;charset=utf-8"
)

// ErrNoResults is returned when there is nothing to export.
var ErrNoResults = errors.New("no results yet")

// Header is the CSV header row.
var Header = []string{"№", "File name", "Decision", "Time spent (s)", "Criterion", "Rating", "Note"}

// Rows flattens results into one row per (record, criterion) pair. Records
// are numbered from 1.
func Rows(results []models.ResultRecord) [][]string {
	var rows [][]string
	for i, r := range results {
		for _, c := range r.Criteria {
			rows = append(rows, []string{
				strconv.Itoa(i + 1),
				r.ItemName,
				string(r.Decision),
				FormatSeconds(r.TimeSpentSeconds),
				c.Label,
				c.Rating,
				c.Note,
			})
		}
	}
	return rows
}

// FormatSeconds renders a duration with one decimal place.
func FormatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 1, 64)
}

// CSV writes results as a fully quoted CSV table. encoding/csv only quotes
// fields that need it, and spreadsheet imports of this file expect every
// field quoted, so rows are written by hand.
func CSV(w io.Writer, results []models.ResultRecord) error {
	if len(results) == 0 {
		return ErrNoResults
	}
	lines := make([]string, 0, 1+len(results))
	lines = append(lines, quoteRow(Header))
	for _, row := range Rows(results) {
		lines = append(lines, quoteRow(row))
	}
	if _, err := io.WriteString(w, strings.Join(lines, "\n")); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func quoteRow(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",")
}

// JSON writes results as indented JSON.
func JSON(w io.Writer, results []models.ResultRecord) error {
	if len(results) == 0 {
		return ErrNoResults
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// Markdown writes results as a Markdown table.
func Markdown(w io.Writer, results []models.ResultRecord) error {
	if len(results) == 0 {
		return ErrNoResults
	}
	var b strings.Builder
	b.WriteString("# Review results\n\n")
	b.WriteString("| " + strings.Join(Header, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat("---|", len(Header)) + "\n")
	for _, row := range Rows(results) {
		for i, f := range row {
			row[i] = strings.ReplaceAll(f, "|", `\|`)
		}
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

// Write dispatches on format: csv, json or markdown.
func Write(w io.Writer, format string, results []models.ResultRecord) error {
	switch format {
	case "csv", "":
		return CSV(w, results)
	case "json":
		return JSON(w, results)
	case "markdown", "md":
		return Markdown(w, results)
	default:
		return fmt.Errorf("unknown format: %s (use: csv, json, markdown)", format)
	}
}

// ReadJSON decodes results previously written by JSON.
func ReadJSON(r io.Reader) ([]models.ResultRecord, error) {
	var results []models.ResultRecord
	if err := json.NewDecoder(r).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	return results, nil
}
