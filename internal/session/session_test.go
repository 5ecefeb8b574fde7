package session

import (
	"encoding/json"
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/hentity/fretty/internal/fretboard"
	"github.com/hentity/fretty/internal/spaced_repetition"
	"github.com/hentity/fretty/pkg/models"
)

var today = models.MustParseDate("2024-03-15")

func newEngine(t *testing.T, params spaced_repetition.Params) *spaced_repetition.Engine {
	t.Helper()
	e, err := spaced_repetition.NewEngine(params, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

// reviewProgress returns n review spots on one string, none scheduled
func reviewProgress(n int) *spaced_repetition.Progress {
	letters := []string{"F", "G", "A", "B", "C", "D", "E"}
	spots := make([]models.Spot, n)
	for i := range spots {
		spots[i] = models.Spot{
			String:         0,
			Fret:           i + 1,
			Note:           letters[i%len(letters)],
			Octave:         2,
			Learnability:   models.Review,
			Ease:           models.NormalEase(1.6),
			Interval:       1,
			TotalPractices: 1,
		}
	}
	p := spaced_repetition.NewProgress([]string{"E2"}, spots)
	p.New = false
	return p
}

func spotKey(fret int) models.SpotKey {
	return models.SpotKey{String: 0, Fret: fret}
}

func TestTutorialLesson(t *testing.T) {
	params := spaced_repetition.DefaultParams()
	progress := fretboard.NewProgress(fretboard.StandardTuning, fretboard.DefaultFrets, params)
	s := New(newEngine(t, params), progress, today)

	if s.State() != Before || !s.CanStart() {
		t.Fatalf("state = %s, CanStart = %v", s.State(), s.CanStart())
	}
	if !s.Start() {
		t.Fatal("Start refused the tutorial")
	}
	if !s.IsTutorial() || s.State() != During || s.Remaining() != 6 {
		t.Fatalf("tutorial = %v, state = %s, remaining = %d", s.IsTutorial(), s.State(), s.Remaining())
	}
	first := s.ID()

	var res Result
	for i := 0; i < 7; i++ {
		var err error
		if res, err = s.Submit(spaced_repetition.Easy); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
		if !res.Graduated {
			t.Fatalf("Submit %d did not graduate", i)
		}
	}
	if !res.Finished || res.Next != nil {
		t.Fatalf("lesson not finished: %+v", res)
	}
	if s.State() != After || progress.New || !progress.ReviewedOn(today) {
		t.Errorf("state = %s, new = %v", s.State(), progress.New)
	}
	if len(s.Completed()) != 7 || s.ID() != first {
		t.Errorf("completed = %d", len(s.Completed()))
	}

	// seven 1.6 day intervals round to 2, the fifth fills the day
	if got := len(progress.Calendar.DueOn(today.AddDays(2))); got != 5 {
		t.Errorf("today+2 holds %d spots, want 5", got)
	}
	if got := len(progress.Calendar.DueOn(today.AddDays(3))); got != 2 {
		t.Errorf("today+3 holds %d spots, want 2", got)
	}
	if s.Start() {
		t.Error("second lesson started on the same day")
	}
}

func TestStartRefusedWithNothingToPractice(t *testing.T) {
	params := spaced_repetition.DefaultParams()

	// a review day in the future is not pulled forward
	progress := reviewProgress(3)
	progress.Calendar.Schedule(spotKey(1), today, 4)
	s := New(newEngine(t, params), progress, today)
	if got := Preview(s.engine, progress, today); len(got) != 0 {
		t.Errorf("Preview = %v, want nothing", got)
	}
	if s.CanStart() || s.Start() {
		t.Error("started a lesson with nothing due")
	}
	if s.State() != Before || progress.LastReviewDate != nil {
		t.Error("refused Start changed the session")
	}
	if d, _ := progress.Calendar.DateOf(spotKey(1)); d != today.AddDays(4) {
		t.Errorf("schedule moved to %s", d)
	}
}

func TestNewAfterLessonToday(t *testing.T) {
	progress := reviewProgress(2)
	reviewed := today
	progress.LastReviewDate = &reviewed
	s := New(newEngine(t, spaced_repetition.DefaultParams()), progress, today)

	if s.State() != After || s.Start() {
		t.Errorf("state = %s", s.State())
	}

	s.Refresh(today.AddDays(1))
	if s.State() != Before || s.Today() != today.AddDays(1) {
		t.Errorf("after Refresh: state = %s, today = %s", s.State(), s.Today())
	}
}

func TestSubmitOutsideLesson(t *testing.T) {
	s := New(newEngine(t, spaced_repetition.DefaultParams()), reviewProgress(1), today)
	if _, err := s.Submit(spaced_repetition.Good); !errors.Is(err, ErrNoActiveLesson) {
		t.Errorf("Submit = %v, want ErrNoActiveLesson", err)
	}
	if _, ok := s.Current(); ok {
		t.Error("Current reported a spot before the lesson")
	}
}

func TestFailedSpotIsRequeued(t *testing.T) {
	progress := reviewProgress(1)
	progress.Calendar.Schedule(spotKey(1), today, 0)
	s := New(newEngine(t, spaced_repetition.DefaultParams()), progress, today)
	if !s.Start() {
		t.Fatal("Start refused")
	}
	if _, err := s.Submit(spaced_repetition.Outcome(9)); !errors.Is(err, spaced_repetition.ErrInvalidOutcome) {
		t.Errorf("invalid outcome error = %v", err)
	}

	res, err := s.Submit(spaced_repetition.Fail)
	if err != nil {
		t.Fatal(err)
	}
	if res.Graduated || res.Finished || res.Next == nil || res.Next.Key() != spotKey(1) {
		t.Fatalf("Fail result = %+v", res)
	}
	if cur, _ := s.Current(); cur.TotalAttempts != 1 || cur.GoodStreak != 0 {
		t.Errorf("current = %+v", cur)
	}

	// during a lesson the date stays put
	s.Refresh(today.AddDays(1))
	if s.Today() != today {
		t.Errorf("Refresh moved an active lesson to %s", s.Today())
	}

	res, err = s.Submit(spaced_repetition.Easy)
	if err != nil || !res.Finished {
		t.Fatalf("Easy result = %+v, %v", res, err)
	}
	// graduated with the post-fail ease of 1.4, rounds to one day
	if d, _ := progress.Calendar.DateOf(spotKey(1)); d != today.AddDays(1) {
		t.Errorf("rescheduled for %s", d)
	}
}

func TestFinishMovesLeftoversToTomorrow(t *testing.T) {
	params := spaced_repetition.DefaultParams()
	params.MaxDailySpots = 2

	progress := reviewProgress(4)
	progress.Calendar = spaced_repetition.NewCalendar(5)
	for fret := 1; fret <= 4; fret++ {
		progress.Calendar.Schedule(spotKey(fret), today.AddDays(-3), 0)
	}

	s := New(newEngine(t, params), progress, today)
	if !s.Start() {
		t.Fatal("Start refused")
	}
	for s.State() == During {
		if _, err := s.Submit(spaced_repetition.Easy); err != nil {
			t.Fatal(err)
		}
	}

	if due := progress.Calendar.DueOn(today); len(due) != 0 {
		t.Errorf("today still holds %v", due)
	}
	tomorrow := progress.Calendar.DueOn(today.AddDays(1))
	if !reflect.DeepEqual(tomorrow, []models.SpotKey{spotKey(3), spotKey(4)}) {
		t.Errorf("tomorrow = %v, want the two leftovers", tomorrow)
	}
	practiced := progress.Calendar.DueOn(today.AddDays(2))
	if len(practiced) != 2 {
		t.Errorf("today+2 = %v, want the two practiced spots", practiced)
	}
	if err := progress.Validate(); err != nil {
		t.Error(err)
	}
}

func TestPreviewDoesNotMutate(t *testing.T) {
	params := spaced_repetition.DefaultParams()
	engine := newEngine(t, params)

	fresh := fretboard.NewProgress(fretboard.StandardTuning, fretboard.DefaultFrets, params)
	if got := Preview(engine, fresh, today); len(got) != len(spaced_repetition.Tutorial) {
		t.Errorf("tutorial preview has %d spots", len(got))
	}
	for _, s := range fresh.Spots {
		if s.Learnability != models.Unseen && s.Learnability != models.Unlearnable {
			t.Fatalf("Preview changed spot %s", s.Key().Text())
		}
	}

	progress := reviewProgress(3)
	progress.Calendar.Schedule(spotKey(2), today.AddDays(-10), 0)
	got := Preview(engine, progress, today)
	if len(got) != 1 || got[0].Key() != spotKey(2) {
		t.Errorf("Preview = %v", got)
	}
	if d, _ := progress.Calendar.DateOf(spotKey(2)); d != today.AddDays(-10) {
		t.Errorf("Preview moved the schedule to %s", d)
	}
}

// assertReviewsScheduled checks that every spot in review has a review date
func assertReviewsScheduled(t *testing.T, p *spaced_repetition.Progress) {
	t.Helper()
	for _, spot := range p.Spots {
		if spot.Learnability != models.Review {
			continue
		}
		if _, ok := p.Calendar.DateOf(spot.Key()); !ok {
			t.Errorf("spot %s is in review with no review date", spot.Key().Text())
		}
	}
}

func TestAbandonedLessonKeepsGraduatedSpots(t *testing.T) {
	params := spaced_repetition.DefaultParams()
	progress := reviewProgress(3)
	for fret := 1; fret <= 3; fret++ {
		progress.Calendar.Schedule(spotKey(fret), today, 0)
	}

	s := New(newEngine(t, params), progress, today)
	if !s.Start() {
		t.Fatal("Start refused")
	}
	res, err := s.Submit(spaced_repetition.Easy)
	if err != nil || !res.Graduated {
		t.Fatalf("Submit = %+v, %v", res, err)
	}
	graduated := res.Spot.Key()
	if d, ok := progress.Calendar.DateOf(graduated); !ok || d != today.AddDays(2) {
		t.Fatalf("graduated spot scheduled for %s, %v; want %s", d, ok, today.AddDays(2))
	}
	assertReviewsScheduled(t, progress)

	// the lesson is abandoned; only the saved snapshot survives
	data, err := json.Marshal(progress)
	if err != nil {
		t.Fatal(err)
	}
	var saved spaced_repetition.Progress
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatal(err)
	}
	if saved.LastReviewDate != nil {
		t.Fatal("abandoned lesson counted as reviewed")
	}

	next := today.AddDays(1)
	s = New(newEngine(t, params), &saved, next)
	if !s.Start() {
		t.Fatal("Start refused the day after")
	}
	if s.Remaining() != 1 {
		t.Errorf("resumed lesson has %d queued, want 1", s.Remaining())
	}
	for s.State() == During {
		if _, err := s.Submit(spaced_repetition.Easy); err != nil {
			t.Fatal(err)
		}
	}
	assertReviewsScheduled(t, &saved)

	// rollover moved it one day along with the rest of the schedule
	due := today.AddDays(3)
	if d, _ := saved.Calendar.DateOf(graduated); d != due {
		t.Fatalf("graduated spot due %s, want %s", d, due)
	}
	found := false
	for _, spot := range Preview(newEngine(t, params), &saved, due) {
		found = found || spot.Key() == graduated
	}
	if !found {
		t.Errorf("spot %s not offered on %s", graduated.Text(), due)
	}
}
