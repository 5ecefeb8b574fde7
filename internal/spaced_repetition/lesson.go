package spaced_repetition

import "github.com/hentity/fretty/pkg/models"

// TutorialStep is one entry of the onboarding curriculum
type TutorialStep struct {
	Note   string
	String int
}

// Tutorial is the onboarding curriculum, presented in this order
var Tutorial = []TutorialStep{
	{Note: "G", String: 0},
	{Note: "A", String: 2},
	{Note: "A", String: 4},
	{Note: "D", String: 2},
	{Note: "A", String: 3},
	{Note: "B", String: 5},
	{Note: "D", String: 0},
}

// PreviewLesson lists the spots today's lesson would draw from without
// changing anything: spots due today, then spots still in learning, then
// unseen spots in (string, fret) order, up to the lesson size.
func (e *Engine) PreviewLesson(p *Progress, today models.Date) []models.Spot {
	limit := e.params.MaxDailySpots
	lesson := make([]models.Spot, 0, limit)
	picked := make(map[models.SpotKey]bool, limit)

	add := func(s models.Spot) bool {
		if len(lesson) >= limit {
			return false
		}
		if picked[s.Key()] || !s.IsMasterable() {
			return true
		}
		picked[s.Key()] = true
		lesson = append(lesson, s)
		return true
	}

	if p.Calendar != nil {
		for _, key := range p.Calendar.DueOn(today) {
			if s, ok := p.Spot(key); ok && !add(s) {
				return lesson
			}
		}
	}
	for _, status := range []models.Learnability{models.Learning, models.Unseen} {
		for _, s := range p.Spots {
			if s.Learnability == status && !add(s) {
				return lesson
			}
		}
	}
	return lesson
}

// BuildLesson selects today's lesson, starts a fresh learning pass for every
// selected spot (written back into p) and returns them in random order.
func (e *Engine) BuildLesson(p *Progress, today models.Date) []models.Spot {
	lesson := e.PreviewLesson(p, today)
	for i := range lesson {
		lesson[i] = startPass(lesson[i])
		p.UpdateSpot(lesson[i])
	}
	e.shuffle(len(lesson), func(i, j int) {
		lesson[i], lesson[j] = lesson[j], lesson[i]
	})
	return lesson
}

// BuildTutorial returns the onboarding lesson: for each curriculum step the
// lowest fretted spot on that string sounding that note. Order is fixed
// and the calendar is not consulted.
func (e *Engine) BuildTutorial(p *Progress) []models.Spot {
	var lesson []models.Spot
	picked := make(map[models.SpotKey]bool)
	for _, step := range Tutorial {
		best := -1
		for i, s := range p.Spots {
			if s.String != step.String || s.Fret < 1 || s.Note != step.Note || !s.IsMasterable() || picked[s.Key()] {
				continue
			}
			if best < 0 || s.Fret < p.Spots[best].Fret {
				best = i
			}
		}
		if best < 0 {
			continue
		}
		s := startPass(p.Spots[best])
		p.Spots[best] = s
		picked[s.Key()] = true
		lesson = append(lesson, s)
	}
	return lesson
}

func startPass(s models.Spot) models.Spot {
	s.Learnability = models.Learning
	s.GoodStreak = 0
	s.TotalAttempts = 0
	return s
}
