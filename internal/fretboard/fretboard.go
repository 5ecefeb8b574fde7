// Package fretboard resolves fretboard positions to notes for a tuning and
// builds the initial spot collection for a learner.
package fretboard

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/hentity/fretty/internal/spaced_repetition"
	"github.com/hentity/fretty/pkg/models"
)

// DefaultFrets is the number of fretted positions per string that are taught
const DefaultFrets = 12

// ErrUnknownNote is returned for note names outside the chromatic table
var ErrUnknownNote = errors.New("fretboard: unknown note")

// pitchClasses in chromatic order starting at C
var pitchClasses = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// lowest and highest notes the resolver knows (D2 .. B5)
var (
	lowestNote  = Note{Name: "D", Octave: 2}
	highestNote = Note{Name: "B", Octave: 5}
)

var noteRe = regexp.MustCompile(`^([A-G]#?)(\d)?$`)

// Note is a pitch class plus octave, e.g. C#3
type Note struct {
	Name   string
	Octave int
}

func (n Note) String() string {
	return n.Name + strconv.Itoa(n.Octave)
}

// Letter returns the note letter without accidental
func (n Note) Letter() string {
	return n.Name[:1]
}

// semitone returns the note's MIDI-style index (C-1 = 0)
func (n Note) semitone() int {
	for i, pc := range pitchClasses {
		if pc == n.Name {
			return (n.Octave+1)*12 + i
		}
	}
	return -1
}

func noteFromSemitone(st int) Note {
	return Note{Name: pitchClasses[st%12], Octave: st/12 - 1}
}

// ParseNote parses names like "E", "c#" or "G3". A missing octave defaults to 3.
func ParseNote(s string) (Note, error) {
	s = strings.TrimSpace(s)
	if s != "" {
		s = strings.ToUpper(s[:1]) + s[1:]
	}
	m := noteRe.FindStringSubmatch(s)
	if m == nil {
		return Note{}, fmt.Errorf("%w: %q", ErrUnknownNote, s)
	}
	octave := 3
	if m[2] != "" {
		octave, _ = strconv.Atoi(m[2])
	}
	return Note{Name: m[1], Octave: octave}, nil
}

// Frequency returns the equal-tempered frequency of n in Hz (A4 = 440)
func Frequency(n Note) float64 {
	return 440 * math.Pow(2, float64(n.semitone()-69)/12)
}

// SpotToNote returns the note sounded at fret on the given string.
// ok is false when the string does not exist or the note is outside D2..B5.
func SpotToNote(str, fret int, tuning Tuning) (Note, bool) {
	if str < 0 || str >= len(tuning) || fret < 0 {
		return Note{}, false
	}
	st := tuning[str].semitone() + fret
	if st < lowestNote.semitone() || st > highestNote.semitone() {
		return Note{}, false
	}
	return noteFromSemitone(st), true
}

// NewSpots builds the spot collection for tuning with frets 1..frets on every string.
// Positions the resolver cannot label are marked Unlearnable.
func NewSpots(tuning Tuning, frets int, params spaced_repetition.Params) []models.Spot {
	if frets <= 0 {
		frets = DefaultFrets
	}
	spots := make([]models.Spot, 0, len(tuning)*frets)
	for str := range tuning {
		for fret := 1; fret <= frets; fret++ {
			spot := models.Spot{
				String:       str,
				Fret:         fret,
				Learnability: models.Unseen,
				Ease:         models.NormalEase(params.BaseEase),
				Interval:     1,
				IsNew:        true,
			}
			if note, ok := SpotToNote(str, fret, tuning); ok {
				spot.Note = note.Name
				spot.Octave = note.Octave
			} else {
				spot.Note = "Unknown"
				spot.Learnability = models.Unlearnable
			}
			spots = append(spots, spot)
		}
	}
	return spots
}

// NewProgress returns a fresh learner state for tuning
func NewProgress(tuning Tuning, frets int, params spaced_repetition.Params) *spaced_repetition.Progress {
	p := spaced_repetition.NewProgress(tuning.Strings(), NewSpots(tuning, frets, params))
	p.Calendar.SetCapacity(params.MaxDailySpots)
	return p
}
