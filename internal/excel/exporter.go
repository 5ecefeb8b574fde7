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

// Format is a spreadsheet file format
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

const (
	progressSheet = "Progress"
	summarySheet  = "Summary"
)

// header is the column layout shared by export and import
var header = []string{
	"String", "Fret", "Note", "Octave", "Status", "Ease", "Struggling",
	"Interval", "Good Streak", "Attempts", "Practices", "Next Review", "Mastery %",
}

// ParseFormat parses a format name or file extension
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(s), ".") {
	case "xlsx", "excel", "":
		return FormatXLSX, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unsupported format %q", s)
}

// FileName returns the download name for a user's export
func (f Format) FileName(userID int64, today models.Date) string {
	return fmt.Sprintf("fretty-%d-%s.%s", userID, today, f)
}

// Export writes the learner's spots in the given format
func Export(w io.Writer, format Format, progress *spaced_repetition.Progress, today models.Date) error {
	rows := spotRows(progress)
	switch format {
	case FormatCSV:
		return exportCSV(w, rows)
	case FormatXLSX:
		return exportExcel(w, rows, progress, today)
	}
	return fmt.Errorf("unsupported format %q", format)
}

func spotRows(progress *spaced_repetition.Progress) [][]string {
	rows := make([][]string, 0, len(progress.Spots))
	for _, s := range progress.Spots {
		next := ""
		if progress.Calendar != nil {
			if day, ok := progress.Calendar.DateOf(s.Key()); ok {
				next = day.String()
			}
		}
		rows = append(rows, []string{
			strconv.Itoa(s.String),
			strconv.Itoa(s.Fret),
			s.Note,
			strconv.Itoa(s.Octave),
			s.Learnability.String(),
			strconv.FormatFloat(s.Ease.Factor, 'f', -1, 64),
			strconv.FormatBool(s.Ease.Struggling),
			strconv.FormatFloat(s.Interval, 'f', -1, 64),
			strconv.Itoa(s.GoodStreak),
			strconv.Itoa(s.TotalAttempts),
			strconv.Itoa(s.TotalPractices),
			next,
			strconv.Itoa(int(s.MasteryFraction() * 100)),
		})
	}
	return rows
}

func exportCSV(w io.Writer, rows [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}
	return nil
}

func exportExcel(w io.Writer, rows [][]string, progress *spaced_repetition.Progress, today models.Date) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), progressSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := setRow(f, progressSheet, 1, header); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(f, progressSheet, i+2, row); err != nil {
			return err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(header))
	if err := f.SetCellStyle(progressSheet, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	if err := f.SetColWidth(progressSheet, "A", lastCol, 12); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	sum := spaced_repetition.Summarize(progress)
	summary := [][]string{
		{"Date", today.String()},
		{"Tuning", strings.Join(progress.Tuning, " ")},
		{"Mastered", strconv.Itoa(sum.Mastered)},
		{"Practicing", strconv.Itoa(sum.Practicing)},
		{"Unpracticed", strconv.Itoa(sum.Unpracticed)},
		{"Scheduled", strconv.Itoa(sum.Scheduled)},
	}
	if progress.LastReviewDate != nil {
		summary = append(summary, []string{"Last Lesson", progress.LastReviewDate.String()})
	}
	for i, row := range summary {
		if err := setRow(f, summarySheet, i+1, row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		// numbers go in as numbers so the sheet can be sorted and charted
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			cells[i] = n
		} else {
			cells[i] = v
		}
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}
