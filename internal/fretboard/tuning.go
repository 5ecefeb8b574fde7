package fretboard

import (
	"fmt"
	"strings"
)

// Tuning lists the open-string notes from the thickest string to the thinnest
type Tuning []Note

// StandardTuning is E A D G B E
var StandardTuning = Tuning{
	{Name: "E", Octave: 2},
	{Name: "A", Octave: 2},
	{Name: "D", Octave: 3},
	{Name: "G", Octave: 3},
	{Name: "B", Octave: 3},
	{Name: "E", Octave: 4},
}

// ParseTuning parses open-string notes, e.g. []string{"E2", "A2", ...} or "E A D G B E".
// Notes without an octave are placed in octave 3.
func ParseTuning(notes []string) (Tuning, error) {
	if len(notes) == 1 && strings.ContainsAny(notes[0], " ,") {
		notes = strings.FieldsFunc(notes[0], func(r rune) bool { return r == ' ' || r == ',' })
	}
	if len(notes) == 0 {
		return nil, fmt.Errorf("empty tuning")
	}
	t := make(Tuning, 0, len(notes))
	for i, s := range notes {
		n, err := ParseNote(s)
		if err != nil {
			return nil, fmt.Errorf("string %d: %w", i+1, err)
		}
		t = append(t, n)
	}
	return t, nil
}

// Strings returns the tuning in its persisted form ("E2", "A2", ...)
func (t Tuning) Strings() []string {
	out := make([]string, len(t))
	for i, n := range t {
		out[i] = n.String()
	}
	return out
}

func (t Tuning) String() string {
	return strings.Join(t.Strings(), " ")
}

// Equal reports whether both tunings have the same notes
func (t Tuning) Equal(other Tuning) bool {
	if len(t) != len(other) {
		return false
	}
	for i := range t {
		if t[i] != other[i] {
			return false
		}
	}
	return true
}

// Retune returns a copy of t with string str moved by semitones (wrapping
// within its octave, like the tuning pegs in the options screen).
func (t Tuning) Retune(str, semitones int) Tuning {
	out := append(Tuning(nil), t...)
	if str < 0 || str >= len(out) {
		return out
	}
	n := out[str]
	idx := 0
	for i, pc := range pitchClasses {
		if pc == n.Name {
			idx = i
		}
	}
	idx = ((idx+semitones)%len(pitchClasses) + len(pitchClasses)) % len(pitchClasses)
	out[str] = Note{Name: pitchClasses[idx], Octave: n.Octave}
	return out
}
