package spaced_repetition

import (
	"fmt"
	"math"

	"github.com/hentity/fretty/pkg/models"
)

// Summary counts masterable spots by how far along they are
type Summary struct {
	Mastered    int
	Practicing  int
	Unpracticed int
	Scheduled   int
}

// Total returns the number of masterable spots
func (s Summary) Total() int {
	return s.Mastered + s.Practicing + s.Unpracticed
}

// Summarize counts the learner's spots for progress display
func Summarize(p *Progress) Summary {
	var sum Summary
	for _, s := range p.Spots {
		if !s.IsMasterable() {
			continue
		}
		switch {
		case s.IsMastered():
			sum.Mastered++
		case s.TotalPractices > 0:
			sum.Practicing++
		default:
			sum.Unpracticed++
		}
	}
	if p.Calendar != nil {
		sum.Scheduled = p.Calendar.Len()
	}
	return sum
}

// RelativeDay describes when day falls relative to today ("tomorrow", "in 3 weeks")
func RelativeDay(today, day models.Date) string {
	diff := day.DaysSince(today)
	switch {
	case diff < 0:
		return "overdue"
	case diff == 0:
		return "today"
	case diff == 1:
		return "tomorrow"
	case diff < 7:
		return fmt.Sprintf("in %d days", diff)
	case diff < 30:
		return plural("week", int(math.Round(float64(diff)/7)))
	case diff < 365:
		return plural("month", int(math.Round(float64(diff)/30)))
	default:
		return plural("year", int(math.Round(float64(diff)/365)))
	}
}

func plural(unit string, n int) string {
	if n == 1 {
		return "in 1 " + unit
	}
	return fmt.Sprintf("in %d %ss", n, unit)
}
