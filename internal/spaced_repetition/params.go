package spaced_repetition

import (
	"fmt"
	"math/rand"
	"time"
)

// Params holds the tuning constants of the scheduler.
// Zero fields are not filled in; start from DefaultParams.
type Params struct {
	MaxDailySpots    int     `json:"max_daily_spots" yaml:"max_daily_spots"`       // lesson size and per-day review capacity
	Lookahead        int     `json:"lookahead" yaml:"lookahead"`                   // queue window for next-spot selection
	GoodStreakTarget int     `json:"good_streak_target" yaml:"good_streak_target"` // streak needed to graduate
	BaseEase         float64 `json:"base_ease" yaml:"base_ease"`
	MinEase          float64 `json:"min_ease" yaml:"min_ease"`
	MaxEase          float64 `json:"max_ease" yaml:"max_ease"`
	EaseDrop         float64 `json:"ease_drop" yaml:"ease_drop"`               // on Fail
	EaseSlightDrop   float64 `json:"ease_slight_drop" yaml:"ease_slight_drop"` // on Hard
	EaseBump         float64 `json:"ease_bump" yaml:"ease_bump"`               // on Easy
	StrugglingFactor float64 `json:"struggling_factor" yaml:"struggling_factor"`
}

// DefaultParams returns the current production tuning
func DefaultParams() Params {
	return Params{
		MaxDailySpots:    5,
		Lookahead:        2,
		GoodStreakTarget: 3,
		BaseEase:         1.6,
		MinEase:          1.2,
		MaxEase:          3.0,
		EaseDrop:         0.2,
		EaseSlightDrop:   0.1,
		EaseBump:         0.2,
		StrugglingFactor: 0.5,
	}
}

// Validate checks that the parameters describe a usable scheduler
func (p Params) Validate() error {
	switch {
	case p.MaxDailySpots < 1:
		return fmt.Errorf("%w: max daily spots %d must be positive", ErrInvalidParams, p.MaxDailySpots)
	case p.Lookahead < 1:
		return fmt.Errorf("%w: lookahead %d must be positive", ErrInvalidParams, p.Lookahead)
	case p.GoodStreakTarget < 1:
		return fmt.Errorf("%w: good streak target %d must be positive", ErrInvalidParams, p.GoodStreakTarget)
	case p.MinEase <= 0 || p.MinEase > p.MaxEase:
		return fmt.Errorf("%w: ease bounds [%g, %g]", ErrInvalidParams, p.MinEase, p.MaxEase)
	case p.BaseEase < p.MinEase || p.BaseEase > p.MaxEase:
		return fmt.Errorf("%w: base ease %g outside [%g, %g]", ErrInvalidParams, p.BaseEase, p.MinEase, p.MaxEase)
	case p.EaseDrop < 0 || p.EaseSlightDrop < 0 || p.EaseBump < 0:
		return fmt.Errorf("%w: ease steps must not be negative", ErrInvalidParams)
	case p.StrugglingFactor <= 0 || p.StrugglingFactor >= p.MinEase:
		return fmt.Errorf("%w: struggling factor %g must be in (0, %g)", ErrInvalidParams, p.StrugglingFactor, p.MinEase)
	}
	return nil
}

// Rand is the random source used for shuffling and selection.
// *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// Engine applies the scheduling rules with a fixed set of parameters.
// It never reads the clock; every date is passed in by the caller.
// An Engine is not safe for concurrent use.
type Engine struct {
	params Params
	rng    Rand
}

// NewEngine creates an engine. A nil rng is replaced by a time-seeded source.
func NewEngine(params Params, rng Rand) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{params: params, rng: rng}, nil
}

// Params returns the engine's parameters
func (e *Engine) Params() Params {
	return e.params
}

// shuffle is an in-place Fisher-Yates shuffle
func (e *Engine) shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := e.rng.Intn(i + 1)
		swap(i, j)
	}
}
