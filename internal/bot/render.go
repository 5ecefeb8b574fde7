package bot

import (
	"fmt"
	"strings"

	"github.com/hentity/fretty/internal/session"
	"github.com/hentity/fretty/internal/spaced_repetition"
	"github.com/hentity/fretty/pkg/models"
)

// stringLabel names string str the way guitarists do: numbered from the
// thinnest string, with its open note.
func stringLabel(str int, tuning []string) string {
	if str < 0 || str >= len(tuning) {
		return fmt.Sprintf("string %d", str+1)
	}
	return fmt.Sprintf("%s string (%s)", ordinal(len(tuning)-str), tuning[str])
}

func ordinal(n int) string {
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

func spotPrompt(spot models.Spot, tuning []string, remaining int) string {
	text := fmt.Sprintf("👉 Play %s on the %s", spot.Note, stringLabel(spot.String, tuning))
	if spot.IsNew {
		text += "\n🆕 New spot"
	}
	if remaining > 0 {
		text += fmt.Sprintf("\n\n%d more in the queue.", remaining)
	}
	return text
}

func outcomeFeedback(res session.Result) string {
	spot := res.Spot
	var text string
	switch res.Outcome {
	case spaced_repetition.Easy, spaced_repetition.Good:
		text = fmt.Sprintf("✅ %s is at fret %d.", spot.Note, spot.Fret)
	case spaced_repetition.Hard:
		text = fmt.Sprintf("😬 %s is at fret %d. It will come back.", spot.Note, spot.Fret)
	default:
		text = fmt.Sprintf("❌ %s is at fret %d. Try it again soon.", spot.Note, spot.Fret)
	}
	if res.Graduated {
		text += fmt.Sprintf("\n🎓 Learned! Next review in about %.0f days.", spot.Interval)
	}
	return text
}

func nextLessonLine(progress *spaced_repetition.Progress, today models.Date) string {
	next := today
	if progress.ReviewedOn(today) {
		next = today.AddDays(1)
	}
	for _, s := range progress.Spots {
		// unseen and learning spots fill a lesson on any day
		if s.Learnability == models.Unseen || s.Learnability == models.Learning {
			return "Next lesson: " + spaced_repetition.RelativeDay(today, next) + "."
		}
	}
	if progress.Calendar == nil {
		return ""
	}
	earliest, ok := progress.Calendar.Earliest()
	if !ok {
		return "No reviews scheduled."
	}
	if earliest.After(next) {
		next = earliest
	}
	return "Next lesson: " + spaced_repetition.RelativeDay(today, next) + "."
}

// board symbols from least to most learned
const (
	symbolUnlearnable = " "
	symbolUnseen      = "·"
	symbolLearning    = "○"
	symbolReviewing   = "◐"
	symbolMastered    = "●"
)

// renderBoard draws one row per string, thinnest first, one column per fret
func renderBoard(progress *spaced_repetition.Progress) string {
	strs := make(map[int][]models.Spot)
	maxFret, maxString := 0, len(progress.Tuning)-1
	for _, s := range progress.Spots {
		strs[s.String] = append(strs[s.String], s)
		if s.Fret > maxFret {
			maxFret = s.Fret
		}
		if s.String > maxString {
			maxString = s.String
		}
	}

	var sb strings.Builder
	sb.WriteString("    ")
	for f := 1; f <= maxFret; f++ {
		fmt.Fprintf(&sb, "%-2d", f%100)
	}
	sb.WriteString("\n")

	for str := maxString; str >= 0; str-- {
		label := "?"
		if str < len(progress.Tuning) {
			label = progress.Tuning[str]
		}
		fmt.Fprintf(&sb, "%-3s|", label)
		row := make([]string, maxFret+1)
		for i := range row {
			row[i] = symbolUnlearnable
		}
		for _, s := range strs[str] {
			if s.Fret >= 1 && s.Fret <= maxFret {
				row[s.Fret] = spotSymbol(s)
			}
		}
		for f := 1; f <= maxFret; f++ {
			sb.WriteString(row[f] + " ")
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func spotSymbol(s models.Spot) string {
	switch {
	case !s.IsMasterable():
		return symbolUnlearnable
	case s.IsMastered():
		return symbolMastered
	case s.TotalPractices > 0:
		return symbolReviewing
	case s.Learnability == models.Learning:
		return symbolLearning
	}
	return symbolUnseen
}
