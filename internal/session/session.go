// Package session drives one learner's lesson through the scheduling engine:
// before a lesson, during it (one spot at a time) and after it.
package session

import (
	"errors"
	"math"

	"github.com/google/uuid"

	"github.com/hentity/fretty/internal/spaced_repetition"
	"github.com/hentity/fretty/pkg/models"
)

// ErrNoActiveLesson is returned when an outcome is submitted outside a lesson
var ErrNoActiveLesson = errors.New("session: no lesson in progress")

// State is the lesson lifecycle state
type State int

const (
	Before State = iota
	During
	After
)

func (s State) String() string {
	switch s {
	case Before:
		return "before"
	case During:
		return "during"
	case After:
		return "after"
	}
	return "unknown"
}

// Result describes what happened to one submitted attempt
type Result struct {
	Spot      models.Spot // the spot after the attempt
	Outcome   spaced_repetition.Outcome
	Graduated bool
	Next      *models.Spot // nil when the lesson ended
	Finished  bool
}

// Session holds the transient lesson queue for one learner.
// It mutates the Progress it was created with; callers persist that
// Progress after every call that changes it. Not safe for concurrent use.
type Session struct {
	id        uuid.UUID
	engine    *spaced_repetition.Engine
	progress  *spaced_repetition.Progress
	state     State
	today     models.Date
	tutorial  bool
	current   *models.Spot
	queue     []models.Spot
	completed []models.Spot
}

// New creates a session in the Before state, or After when a lesson was already
// completed today.
func New(engine *spaced_repetition.Engine, progress *spaced_repetition.Progress, today models.Date) *Session {
	if progress.Calendar == nil {
		progress.Calendar = spaced_repetition.NewCalendar(engine.Params().MaxDailySpots)
	}
	progress.Calendar.SetCapacity(engine.Params().MaxDailySpots)
	s := &Session{engine: engine, progress: progress, today: today}
	if progress.ReviewedOn(today) {
		s.state = After
	}
	return s
}

// ID identifies the current (or last) lesson
func (s *Session) ID() uuid.UUID { return s.id }

// State returns the lifecycle state
func (s *Session) State() State { return s.state }

// Today returns the date the session is operating on
func (s *Session) Today() models.Date { return s.today }

// Progress returns the learner state the session mutates
func (s *Session) Progress() *spaced_repetition.Progress { return s.progress }

// IsTutorial reports whether the current lesson is the onboarding lesson
func (s *Session) IsTutorial() bool { return s.tutorial }

// Current returns the spot being practiced
func (s *Session) Current() (models.Spot, bool) {
	if s.current == nil {
		return models.Spot{}, false
	}
	return *s.current, true
}

// Remaining returns the number of spots still queued after the current one
func (s *Session) Remaining() int { return len(s.queue) }

// Completed returns the spots that graduated in this lesson
func (s *Session) Completed() []models.Spot {
	return append([]models.Spot(nil), s.completed...)
}

// Refresh moves the session to today. A finished lesson returns to Before once
// the date has advanced; a lesson in progress keeps its original date.
func (s *Session) Refresh(today models.Date) {
	if s.state == During {
		return
	}
	s.today = today
	if s.state == After && !s.progress.ReviewedOn(today) {
		s.state = Before
		s.completed = nil
	}
}

// CanStart reports whether Start would begin a lesson today
func (s *Session) CanStart() bool {
	if s.state != Before || s.progress.ReviewedOn(s.today) {
		return false
	}
	return len(Preview(s.engine, s.progress, s.today)) > 0
}

// Preview returns the spots a lesson started today would contain, without
// touching progress. For a new learner that is the tutorial.
func Preview(engine *spaced_repetition.Engine, progress *spaced_repetition.Progress, today models.Date) []models.Spot {
	p := cloneProgress(progress)
	if p.Calendar == nil {
		p.Calendar = spaced_repetition.NewCalendar(engine.Params().MaxDailySpots)
	}
	if p.New {
		return engine.BuildTutorial(p)
	}
	p.Calendar.PushBack(today)
	return engine.PreviewLesson(p, today)
}

// Start begins today's lesson. It reports false, changing nothing, when a
// lesson was already completed today or there is nothing to practice.
func (s *Session) Start() bool {
	if !s.CanStart() {
		return false
	}
	s.progress.Calendar.PushBack(s.today)

	var lesson []models.Spot
	if s.progress.New {
		lesson = s.engine.BuildTutorial(s.progress)
		s.tutorial = true
	} else {
		lesson = s.engine.BuildLesson(s.progress, s.today)
		s.tutorial = false
	}

	s.id = uuid.New()
	s.completed = nil
	s.state = During
	s.next(lesson, "")
	return true
}

// Submit records the outcome for the current spot and advances the lesson
func (s *Session) Submit(outcome spaced_repetition.Outcome) (Result, error) {
	if s.state != During || s.current == nil {
		return Result{}, ErrNoActiveLesson
	}
	if !outcome.IsValid() {
		return Result{}, spaced_repetition.ErrInvalidOutcome
	}

	updated, graduated := s.engine.ProcessAttempt(*s.current, outcome)
	s.progress.UpdateSpot(updated)

	res := Result{Spot: updated, Outcome: outcome, Graduated: graduated}
	queue := s.queue
	if graduated {
		s.completed = append(s.completed, updated)
		s.schedule(updated)
	} else {
		queue = append(queue, updated)
	}

	if len(queue) == 0 {
		s.finish()
		res.Finished = true
		return res, nil
	}
	s.next(queue, updated.Letter())
	next := *s.current
	res.Next = &next
	return res, nil
}

func (s *Session) next(queue []models.Spot, avoid string) {
	if len(queue) == 0 {
		s.finish()
		return
	}
	spot, rest := s.engine.SelectNext(queue, avoid)
	s.current = &spot
	s.queue = rest
}

// schedule books a graduated spot's next review, so it survives an
// abandoned lesson
func (s *Session) schedule(spot models.Spot) {
	days := int(math.Max(1, math.Round(spot.Interval)))
	s.progress.Calendar.Schedule(spot.Key(), s.today, days)
}

// finish closes the lesson. Graduated spots are already scheduled.
func (s *Session) finish() {
	today := s.today
	s.progress.LastReviewDate = &today
	// anything still due today did not fit into the lesson
	for _, key := range s.progress.Calendar.DueOn(today) {
		s.progress.Calendar.Schedule(key, today, 1)
	}
	if s.tutorial {
		s.progress.New = false
	}
	s.current = nil
	s.queue = nil
	s.state = After
}

func cloneProgress(p *spaced_repetition.Progress) *spaced_repetition.Progress {
	out := *p
	out.Spots = append([]models.Spot(nil), p.Spots...)
	if p.Calendar != nil {
		out.Calendar = p.Calendar.Clone()
	}
	return &out
}
