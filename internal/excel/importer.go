package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hentity/fretty/internal/spaced_repetition"
	"github.com/hentity/fretty/pkg/models"
)

// ImportResult holds the result of an import operation
type ImportResult struct {
	Spots          []models.Spot
	Schedule       map[models.SpotKey]models.Date // next review per spot, when the sheet had one
	TotalProcessed int
	Skipped        int
	Errors         []string
}

// ImportSpots reads spots back from a sheet written by Export. Ease factors
// must lie within the bounds of params unless the spot is struggling.
func ImportSpots(r io.Reader, format Format, params spaced_repetition.Params) (*ImportResult, error) {
	var rows [][]string
	switch format {
	case FormatCSV:
		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1 // Allow variable number of fields
		var err error
		if rows, err = reader.ReadAll(); err != nil {
			return nil, fmt.Errorf("failed to read CSV file: %w", err)
		}
	case FormatXLSX:
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to open Excel file: %w", err)
		}
		defer f.Close()
		sheet := progressSheet
		if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
			sheet = f.GetSheetName(0)
		}
		if rows, err = f.GetRows(sheet); err != nil {
			return nil, fmt.Errorf("failed to get rows: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	result := &ImportResult{Schedule: make(map[models.SpotKey]models.Date)}
	seen := make(map[models.SpotKey]bool)
	for i, row := range rows {
		// Skip the header row
		if i == 0 && len(row) > 0 && strings.EqualFold(row[0], header[0]) {
			continue
		}
		if isBlank(row) {
			continue
		}
		result.TotalProcessed++

		spot, next, err := parseRow(row, params)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
			continue
		}
		if seen[spot.Key()] {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: duplicate spot %s", i+1, spot.Key().Text()))
			continue
		}
		seen[spot.Key()] = true
		result.Spots = append(result.Spots, spot)
		if !next.IsZero() {
			result.Schedule[spot.Key()] = next
		}
	}
	return result, nil
}

func parseRow(row []string, params spaced_repetition.Params) (models.Spot, models.Date, error) {
	var spot models.Spot
	var next models.Date
	// the mastery column is derived and may be missing
	if len(row) < len(header)-1 {
		return spot, next, fmt.Errorf("expected at least %d columns, got %d", len(header)-1, len(row))
	}
	cell := func(i int) string { return strings.TrimSpace(row[i]) }

	var err error
	if spot.String, err = parseIntInRange(cell(0), 0, 11); err != nil {
		return spot, next, fmt.Errorf("string: %w", err)
	}
	if spot.Fret, err = parseIntInRange(cell(1), 0, 24); err != nil {
		return spot, next, fmt.Errorf("fret: %w", err)
	}
	spot.Note = cell(2)
	if spot.Octave, err = parseIntInRange(cell(3), -1, 9); err != nil {
		return spot, next, fmt.Errorf("octave: %w", err)
	}
	if err = spot.Learnability.UnmarshalText([]byte(cell(4))); err != nil {
		return spot, next, err
	}
	if spot.Ease.Factor, err = strconv.ParseFloat(cell(5), 64); err != nil {
		return spot, next, fmt.Errorf("ease: %w", err)
	}
	if spot.Ease.Struggling, err = strconv.ParseBool(cell(6)); err != nil {
		return spot, next, fmt.Errorf("struggling: %w", err)
	}
	if !spot.Ease.Struggling && (spot.Ease.Factor < params.MinEase || spot.Ease.Factor > params.MaxEase) {
		return spot, next, fmt.Errorf("ease %g outside [%g, %g]", spot.Ease.Factor, params.MinEase, params.MaxEase)
	}
	if spot.Interval, err = strconv.ParseFloat(cell(7), 64); err != nil || spot.Interval < 1 {
		return spot, next, fmt.Errorf("interval %q must be a number of at least 1", cell(7))
	}
	spot.GoodStreak = parseIntOrDefault(cell(8), 0, 1000, 0)
	spot.TotalAttempts = parseIntOrDefault(cell(9), 0, 1<<30, 0)
	spot.TotalPractices = parseIntOrDefault(cell(10), 0, 1<<30, 0)
	spot.IsNew = spot.TotalAttempts == 0
	if s := cell(11); s != "" {
		if next, err = models.ParseDate(s); err != nil {
			return spot, next, err
		}
	}
	return spot, next, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseIntInRange parses a string to an int and checks if it's within range
func parseIntInRange(s string, min, max int) (int, error) {
	// excelize hands back whole numbers as "3", but be lenient about "3.0"
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	n := int(f)
	if float64(n) != f || n < min || n > max {
		return 0, fmt.Errorf("value %q must be a whole number between %d and %d", s, min, max)
	}
	return n, nil
}

// parseIntOrDefault parses a string to an int or returns default value if parsing fails
func parseIntOrDefault(s string, min, max, defaultVal int) int {
	n, err := parseIntInRange(s, min, max)
	if err != nil {
		return defaultVal
	}
	return n
}
