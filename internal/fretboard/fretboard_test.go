package fretboard

import (
	"errors"
	"math"
	"testing"

	"github.com/hentity/fretty/internal/spaced_repetition"
	"github.com/hentity/fretty/pkg/models"
)

func TestParseNote(t *testing.T) {
	tests := []struct {
		in   string
		want Note
	}{
		{"E", Note{"E", 3}},
		{"c#", Note{"C#", 3}},
		{" G2 ", Note{"G", 2}},
		{"A#4", Note{"A#", 4}},
	}
	for _, tt := range tests {
		got, err := ParseNote(tt.in)
		if err != nil {
			t.Errorf("ParseNote(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseNote(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "H", "Bb", "E10", "#"} {
		if _, err := ParseNote(bad); !errors.Is(err, ErrUnknownNote) {
			t.Errorf("ParseNote(%q) error = %v, want ErrUnknownNote", bad, err)
		}
	}
}

func TestSpotToNote(t *testing.T) {
	tests := []struct {
		str, fret int
		want      string
		ok        bool
	}{
		{0, 0, "E2", true},
		{0, 3, "G2", true},
		{0, 12, "E3", true},
		{1, 5, "D3", true},
		{2, 1, "D#3", true},
		{5, 12, "E5", true},
		{5, 19, "B5", true},
		{5, 20, "", false},
		{6, 1, "", false},
		{-1, 1, "", false},
		{0, -1, "", false},
	}
	for _, tt := range tests {
		got, ok := SpotToNote(tt.str, tt.fret, StandardTuning)
		if ok != tt.ok || (ok && got.String() != tt.want) {
			t.Errorf("SpotToNote(%d, %d) = %v, %v; want %s, %v", tt.str, tt.fret, got, ok, tt.want, tt.ok)
		}
	}

	low := Tuning{{Name: "C", Octave: 2}}
	if _, ok := SpotToNote(0, 1, low); ok {
		t.Error("C#2 should be outside the known range")
	}
	if n, ok := SpotToNote(0, 2, low); !ok || n.String() != "D2" {
		t.Errorf("SpotToNote(low, 2) = %v, %v", n, ok)
	}
}

func TestFrequency(t *testing.T) {
	if f := Frequency(Note{"A", 4}); math.Abs(f-440) > 1e-9 {
		t.Errorf("A4 = %g", f)
	}
	if f := Frequency(Note{"E", 2}); math.Abs(f-82.4069) > 1e-3 {
		t.Errorf("E2 = %g", f)
	}
}

func TestNewSpots(t *testing.T) {
	params := spaced_repetition.DefaultParams()
	spots := NewSpots(StandardTuning, 0, params)
	if len(spots) != 6*DefaultFrets {
		t.Fatalf("got %d spots, want %d", len(spots), 6*DefaultFrets)
	}
	first := spots[0]
	if first.Key() != (models.SpotKey{String: 0, Fret: 1}) || first.Note != "F" || first.Octave != 2 {
		t.Errorf("first spot = %+v", first)
	}
	for _, s := range spots {
		if s.Learnability != models.Unseen || !s.IsNew || s.Interval != 1 || s.Ease.Factor != params.BaseEase {
			t.Fatalf("spot %s not fresh: %+v", s.Key().Text(), s)
		}
	}

	low := Tuning{{Name: "C", Octave: 2}}
	spots = NewSpots(low, 3, params)
	if spots[0].Learnability != models.Unlearnable || spots[0].Note != "Unknown" {
		t.Errorf("C#2 spot = %+v", spots[0])
	}
	if spots[1].Learnability != models.Unseen || spots[1].Note != "D" {
		t.Errorf("D2 spot = %+v", spots[1])
	}
}

func TestNewProgress(t *testing.T) {
	params := spaced_repetition.DefaultParams()
	params.MaxDailySpots = 3
	p := NewProgress(StandardTuning, 5, params)
	if !p.New || len(p.Spots) != 30 {
		t.Errorf("New = %v, %d spots", p.New, len(p.Spots))
	}
	if p.Calendar.Capacity() != 3 {
		t.Errorf("capacity = %d, want 3", p.Calendar.Capacity())
	}
	if p.Tuning[5] != "E4" {
		t.Errorf("tuning = %v", p.Tuning)
	}
}

func TestParseTuning(t *testing.T) {
	got, err := ParseTuning([]string{"E2", "A2", "D3", "G3", "B3", "E4"})
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(StandardTuning) {
		t.Errorf("ParseTuning = %v", got)
	}

	got, err = ParseTuning([]string{"D2 A2 D3,G3 B3 E4"})
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "D2 A2 D3 G3 B3 E4" {
		t.Errorf("drop D = %s", got)
	}

	if _, err := ParseTuning(nil); err == nil {
		t.Error("empty tuning accepted")
	}
	if _, err := ParseTuning([]string{"E2", "X"}); !errors.Is(err, ErrUnknownNote) {
		t.Errorf("error = %v", err)
	}
}

func TestRetune(t *testing.T) {
	up := StandardTuning.Retune(0, 1)
	if up[0] != (Note{"F", 2}) {
		t.Errorf("E2 +1 = %v", up[0])
	}
	if StandardTuning[0] != (Note{"E", 2}) {
		t.Error("Retune modified the receiver")
	}
	if down := StandardTuning.Retune(1, -2); down[1] != (Note{"G", 2}) {
		t.Errorf("A2 -2 = %v", down[1])
	}
	if wrap := StandardTuning.Retune(4, 1); wrap[4] != (Note{"C", 3}) {
		t.Errorf("B3 +1 = %v", wrap[4])
	}
	if same := StandardTuning.Retune(9, 1); !same.Equal(StandardTuning) {
		t.Error("out of range string changed the tuning")
	}
	if StandardTuning.Equal(up) || StandardTuning.Equal(StandardTuning[:5]) {
		t.Error("Equal reported different tunings as equal")
	}
}
