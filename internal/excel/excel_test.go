package excel

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/hentity/fretty/internal/spaced_repetition"
	"github.com/hentity/fretty/pkg/models"
)

func testProgress() (*spaced_repetition.Progress, models.Date) {
	today := models.MustParseDate("2024-06-01")
	spots := []models.Spot{
		{String: 0, Fret: 1, Note: "F", Octave: 2, Learnability: models.Review, Ease: models.NormalEase(1.8), Interval: 3.5, TotalAttempts: 7, TotalPractices: 2},
		{String: 0, Fret: 2, Note: "F#", Octave: 2, Learnability: models.Learning, Ease: models.StrugglingEase(), Interval: 1, GoodStreak: 1, TotalAttempts: 4},
		{String: 1, Fret: 1, Note: "A#", Octave: 2, Learnability: models.Unseen, Ease: models.NormalEase(1.6), Interval: 1, IsNew: true},
	}
	p := spaced_repetition.NewProgress([]string{"E2", "A2", "D3", "G3", "B3", "E4"}, spots)
	p.Calendar.Schedule(spots[0].Key(), today, 4)
	p.LastReviewDate = &today
	return p, today
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatXLSX, false},
		{"xlsx", FormatXLSX, false},
		{".XLSX", FormatXLSX, false},
		{"csv", FormatCSV, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
	if name := FormatCSV.FileName(42, models.MustParseDate("2024-06-01")); name != "fretty-42-2024-06-01.csv" {
		t.Errorf("FileName = %q", name)
	}
}

func assertRoundTrip(t *testing.T, format Format) {
	t.Helper()
	progress, today := testProgress()

	var buf bytes.Buffer
	if err := Export(&buf, format, progress, today); err != nil {
		t.Fatalf("Export: %v", err)
	}
	result, err := ImportSpots(&buf, format, spaced_repetition.DefaultParams())
	if err != nil {
		t.Fatalf("ImportSpots: %v", err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("import errors: %v", result.Errors)
	}
	if result.TotalProcessed != 3 || len(result.Spots) != 3 {
		t.Fatalf("processed %d, got %d spots", result.TotalProcessed, len(result.Spots))
	}
	for i, want := range progress.Spots {
		if got := result.Spots[i]; got != want {
			t.Errorf("spot %d:\n got %+v\nwant %+v", i, got, want)
		}
	}
	next, ok := result.Schedule[progress.Spots[0].Key()]
	if !ok || next != today.AddDays(4) {
		t.Errorf("next review = %s, %v", next, ok)
	}
	if len(result.Schedule) != 1 {
		t.Errorf("schedule has %d entries, want 1", len(result.Schedule))
	}
}

func TestCSVRoundTrip(t *testing.T) {
	assertRoundTrip(t, FormatCSV)
}

func TestExcelRoundTrip(t *testing.T) {
	assertRoundTrip(t, FormatXLSX)
}

func TestExcelSummarySheet(t *testing.T) {
	progress, today := testProgress()
	var buf bytes.Buffer
	if err := Export(&buf, FormatXLSX, progress, today); err != nil {
		t.Fatalf("Export: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != progressSheet || sheets[1] != summarySheet {
		t.Fatalf("sheets = %v", sheets)
	}
	rows, err := f.GetRows(summarySheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	got := make(map[string]string)
	for _, row := range rows {
		if len(row) == 2 {
			got[row[0]] = row[1]
		}
	}
	if got["Practicing"] != "1" || got["Unpracticed"] != "2" || got["Scheduled"] != "1" {
		t.Errorf("summary = %v", got)
	}
	if got["Last Lesson"] != "2024-06-01" {
		t.Errorf("last lesson = %q", got["Last Lesson"])
	}
}

func TestImportReportsBadRows(t *testing.T) {
	csv := strings.Join([]string{
		strings.Join(header, ","),
		"0,1,F,2,review,1.6,false,2,0,3,1,,50",
		"0,1,F,2,review,1.6,false,2,0,3,1,,50",
		"x,1,F,2,review,1.6,false,2,0,3,1,,",
		"0,2,F#,2,mastered,1.6,false,2,0,3,1,,",
		"0,3,G,2,unseen,1.6,false,0.5,0,0,0,,",
		"0,5,A,2,review,0,false,2,0,3,1,,",
		"0,6,A#,2,review,3.5,false,2,0,3,1,,",
		"0,7,B,2,learning,0,true,1,1,4,0,,",
		"0,4",
		",,,",
	}, "\n")

	result, err := ImportSpots(strings.NewReader(csv), FormatCSV, spaced_repetition.DefaultParams())
	if err != nil {
		t.Fatalf("ImportSpots: %v", err)
	}
	if len(result.Spots) != 2 {
		t.Fatalf("imported %d spots, want 2", len(result.Spots))
	}
	if s := result.Spots[1]; s.Key() != (models.SpotKey{String: 0, Fret: 7}) || !s.Ease.Struggling {
		t.Errorf("struggling row = %+v", s)
	}
	if result.TotalProcessed != 9 || result.Skipped != 7 || len(result.Errors) != 7 {
		t.Errorf("processed %d skipped %d errors %v", result.TotalProcessed, result.Skipped, result.Errors)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	progress, today := testProgress()
	if err := Export(&bytes.Buffer{}, Format("pdf"), progress, today); err == nil {
		t.Error("expected error for unknown format")
	}
}
