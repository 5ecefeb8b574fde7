package scheduler

import (
	"fmt"

	"github.com/hentity/fretty/internal/session"
	"github.com/hentity/fretty/internal/spaced_repetition"
	"github.com/hentity/fretty/pkg/models"
)

// InactivityDays are the days after the last lesson on which a nudge is sent
var InactivityDays = []int{2, 7, 30}

// ReminderKind tells what a reminder is about
type ReminderKind int

const (
	NoReminder ReminderKind = iota
	LessonReady
	Inactive
)

// Reminder is the decision for one user on one day
type Reminder struct {
	Kind  ReminderKind
	Days  int // days since the last lesson, for Inactive
	Spots int // spots in today's lesson
}

// Message renders the reminder text
func (r Reminder) Message() string {
	switch r.Kind {
	case Inactive:
		unit := "days"
		if r.Days == 1 {
			unit = "day"
		}
		return fmt.Sprintf("It's been %d %s since your last practice! Send /lesson to keep your spots fresh.", r.Days, unit)
	case LessonReady:
		return fmt.Sprintf("Today's lesson is ready: %d spots to practice. Send /lesson to start.", r.Spots)
	}
	return ""
}

// Decide works out which reminder, if any, a user should get today.
// lastReminded is the day the previous reminder was sent (zero if never).
func Decide(engine *spaced_repetition.Engine, progress *spaced_repetition.Progress, today, lastReminded models.Date) Reminder {
	if progress == nil || lastReminded == today || progress.ReviewedOn(today) {
		return Reminder{}
	}

	spots := len(session.Preview(engine, progress, today))
	if progress.LastReviewDate != nil {
		days := today.DaysSince(*progress.LastReviewDate)
		for _, d := range InactivityDays {
			if days == d {
				return Reminder{Kind: Inactive, Days: days, Spots: spots}
			}
		}
	}
	if spots > 0 {
		return Reminder{Kind: LessonReady, Spots: spots}
	}
	return Reminder{}
}
