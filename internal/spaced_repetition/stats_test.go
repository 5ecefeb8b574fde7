package spaced_repetition

import (
	"testing"

	"github.com/hentity/fretty/pkg/models"
)

func TestSummarize(t *testing.T) {
	spots := unseenSpots(6)
	spots[0].TotalPractices = models.MasteredThreshold
	spots[1].TotalPractices = 2
	spots[2].Learnability = models.Unlearnable
	spots[2].TotalPractices = 9
	p := NewProgress(nil, spots)
	p.Calendar.Schedule(key(0, 1), day0, 3)

	got := Summarize(p)
	want := Summary{Mastered: 1, Practicing: 1, Unpracticed: 3, Scheduled: 1}
	if got != want {
		t.Errorf("Summarize = %+v, want %+v", got, want)
	}
	if got.Total() != 5 {
		t.Errorf("Total = %d, want 5", got.Total())
	}
}

func TestRelativeDay(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{-2, "overdue"},
		{0, "today"},
		{1, "tomorrow"},
		{4, "in 4 days"},
		{7, "in 1 week"},
		{16, "in 2 weeks"},
		{30, "in 1 month"},
		{100, "in 3 months"},
		{365, "in 1 year"},
		{800, "in 2 years"},
	}
	for _, tt := range tests {
		if got := RelativeDay(day0, day0.AddDays(tt.days)); got != tt.want {
			t.Errorf("RelativeDay(+%d) = %q, want %q", tt.days, got, tt.want)
		}
	}
}
