package spaced_repetition

import (
	"encoding"
	"fmt"
	"math"

	"github.com/hentity/fretty/pkg/models"
)

// Outcome is the result of one practice attempt
type Outcome int

const (
	Fail Outcome = iota + 1
	Hard
	Good
	Easy
)

var (
	outcomeNames  = [...]string{Fail: "fail", Hard: "hard", Good: "good", Easy: "easy"}
	outcomeByName = map[string]Outcome{
		"fail": Fail,
		"hard": Hard,
		"good": Good,
		"easy": Easy,
	}
)

var (
	_ fmt.Stringer             = Outcome(0)
	_ encoding.TextMarshaler   = Outcome(0)
	_ encoding.TextUnmarshaler = (*Outcome)(nil)
)

// easeEpsilon absorbs float drift from repeated ease steps
const easeEpsilon = 1e-9

// Outcomes lists every valid outcome from worst to best
var Outcomes = []Outcome{Fail, Hard, Good, Easy}

// IsValid reports whether o is one of Fail, Hard, Good, Easy
func (o Outcome) IsValid() bool {
	return o >= Fail && o <= Easy
}

func (o Outcome) String() string {
	if o.IsValid() {
		return outcomeNames[o]
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// ParseOutcome parses the lowercase name of an outcome
func ParseOutcome(s string) (Outcome, error) {
	o, ok := outcomeByName[s]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOutcome, s)
	}
	return o, nil
}

// MarshalText implements encoding.TextMarshaler
func (o Outcome) MarshalText() ([]byte, error) {
	if !o.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOutcome, int(o))
	}
	return []byte(outcomeNames[o]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (o *Outcome) UnmarshalText(text []byte) error {
	v, err := ParseOutcome(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// ProcessAttempt records one outcome against spot and returns the updated copy,
// plus whether this attempt graduated the spot into review.
//
// Only Learning and Review spots are processed; anything else (including an
// invalid outcome) comes back unchanged.
func (e *Engine) ProcessAttempt(spot models.Spot, outcome Outcome) (models.Spot, bool) {
	if spot.Learnability != models.Learning && spot.Learnability != models.Review {
		return spot, false
	}
	if !outcome.IsValid() {
		return spot, false
	}

	p := e.params
	s := spot
	s.TotalAttempts++
	s.IsNew = false

	// ease the interval grows by if this attempt graduates
	graduationEase := s.Ease

	switch outcome {
	case Fail:
		s.GoodStreak = 0
		switch {
		case s.Ease.Struggling:
		case s.Ease.Factor <= p.MinEase+easeEpsilon:
			s.Ease = models.StrugglingEase()
		default:
			s.Ease.Factor = e.lowerEase(s.Ease.Factor, p.EaseDrop)
		}
		graduationEase = s.Ease
	case Hard:
		if !s.Ease.Struggling {
			s.Ease.Factor = e.lowerEase(s.Ease.Factor, p.EaseSlightDrop)
		}
		graduationEase = s.Ease
	case Good:
		s.GoodStreak++
	case Easy:
		s.GoodStreak = p.GoodStreakTarget
		if !s.Ease.Struggling {
			s.Ease.Factor = math.Min(p.MaxEase, s.Ease.Factor+p.EaseBump)
		}
	}

	if s.GoodStreak < p.GoodStreakTarget {
		return s, false
	}

	factor := graduationEase.Factor
	if graduationEase.Struggling {
		factor = p.StrugglingFactor
	}
	s.Interval = math.Max(1, s.Interval*factor)
	if s.Ease.Struggling {
		s.Ease = models.NormalEase(p.BaseEase)
	}
	s.Learnability = models.Review
	s.TotalPractices++
	return s, true
}

// lowerEase subtracts step from factor, snapping to MinEase when the result
// lands on or below it
func (e *Engine) lowerEase(factor, step float64) float64 {
	lowered := factor - step
	if lowered <= e.params.MinEase+easeEpsilon {
		return e.params.MinEase
	}
	return lowered
}
