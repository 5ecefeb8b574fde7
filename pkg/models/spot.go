package models

import (
	"encoding"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MasteredThreshold is the interval (in days) at which a spot counts as fully mastered
// for progress bars, and the number of practices the summary counts as "mastered".
const MasteredThreshold = 5

// Learnability is the learning stage of a spot
type Learnability int

const (
	Unseen Learnability = iota
	Learning
	Review
	Unlearnable
)

var (
	learnabilityNames  = [...]string{Unseen: "unseen", Learning: "learning", Review: "review", Unlearnable: "unlearnable"}
	learnabilityByName = map[string]Learnability{
		"unseen":      Unseen,
		"learning":    Learning,
		"review":      Review,
		"unlearnable": Unlearnable,
	}
)

var (
	_ fmt.Stringer             = Learnability(0)
	_ encoding.TextMarshaler   = Learnability(0)
	_ encoding.TextUnmarshaler = (*Learnability)(nil)
	_ encoding.TextMarshaler   = SpotKey{}
	_ encoding.TextUnmarshaler = (*SpotKey)(nil)
)

func (l Learnability) isValid() bool {
	return l >= Unseen && l <= Unlearnable
}

func (l Learnability) String() string {
	if l.isValid() {
		return learnabilityNames[l]
	}
	return fmt.Sprintf("Learnability(%d)", int(l))
}

// MarshalText implements encoding.TextMarshaler
func (l Learnability) MarshalText() ([]byte, error) {
	if !l.isValid() {
		return nil, fmt.Errorf("invalid learnability: %d", int(l))
	}
	return []byte(learnabilityNames[l]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (l *Learnability) UnmarshalText(text []byte) error {
	v, ok := learnabilityByName[string(text)]
	if !ok {
		return fmt.Errorf("invalid learnability: %q", text)
	}
	*l = v
	return nil
}

// SpotKey identifies a fretboard position
type SpotKey struct {
	String int
	Fret   int
}

// Text returns the "<string>-<fret>" form used in persisted snapshots.
// (SpotKey cannot implement fmt.Stringer since it has a String field.)
func (k SpotKey) Text() string {
	return fmt.Sprintf("%d-%d", k.String, k.Fret)
}

// Less orders keys by string, then fret
func (k SpotKey) Less(other SpotKey) bool {
	if k.String != other.String {
		return k.String < other.String
	}
	return k.Fret < other.Fret
}

// ParseSpotKey parses the "<string>-<fret>" form
func ParseSpotKey(s string) (SpotKey, error) {
	str, fret, ok := strings.Cut(s, "-")
	if !ok {
		return SpotKey{}, fmt.Errorf("invalid spot key %q", s)
	}
	si, err := strconv.Atoi(str)
	if err != nil {
		return SpotKey{}, fmt.Errorf("invalid spot key %q: %w", s, err)
	}
	fi, err := strconv.Atoi(fret)
	if err != nil {
		return SpotKey{}, fmt.Errorf("invalid spot key %q: %w", s, err)
	}
	return SpotKey{String: si, Fret: fi}, nil
}

// MarshalText implements encoding.TextMarshaler
func (k SpotKey) MarshalText() ([]byte, error) {
	return []byte(k.Text()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *SpotKey) UnmarshalText(text []byte) error {
	parsed, err := ParseSpotKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Ease is a spot's ease state. A struggling spot has no usable factor:
// it is on the recovery path until its next graduation.
type Ease struct {
	Factor     float64 `json:"factor"`
	Struggling bool    `json:"struggling,omitempty"`
}

// NormalEase returns a non-struggling ease with the given factor
func NormalEase(factor float64) Ease {
	return Ease{Factor: factor}
}

// StrugglingEase returns the struggling marker state
func StrugglingEase() Ease {
	return Ease{Struggling: true}
}

// Spot is a single learnable fretboard position and its memory state
type Spot struct {
	String         int          `json:"string"`
	Fret           int          `json:"fret"`
	Note           string       `json:"note"`
	Octave         int          `json:"octave"`
	Learnability   Learnability `json:"status"`
	Ease           Ease         `json:"ease"`
	Interval       float64      `json:"interval"`      // days
	GoodStreak     int          `json:"good_attempts"` // consecutive qualifying attempts in this pass
	TotalAttempts  int          `json:"all_attempts"`  // every recorded outcome
	TotalPractices int          `json:"num_practices"` // completed graduations
	IsNew          bool         `json:"is_new"`
}

// Key returns the spot's identity
func (s Spot) Key() SpotKey {
	return SpotKey{String: s.String, Fret: s.Fret}
}

// IsMasterable reports whether the spot takes part in scheduling at all
func (s Spot) IsMasterable() bool {
	return s.Learnability != Unlearnable
}

// IsMastered reports whether the spot has graduated often enough to count as mastered
func (s Spot) IsMastered() bool {
	return s.IsMasterable() && s.TotalPractices >= MasteredThreshold
}

// MasteryFraction maps the interval onto [0, 1] on a log scale.
// Only used for progress reporting.
func (s Spot) MasteryFraction() float64 {
	f := math.Log(s.Interval+0.2) / math.Log(MasteredThreshold+0.2)
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	return math.Min(f, 1)
}

// Letter returns the note letter used for repetition avoidance ("C#" -> "C")
func (s Spot) Letter() string {
	if s.Note == "" {
		return ""
	}
	return s.Note[:1]
}
