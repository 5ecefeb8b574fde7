package models

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestLearnabilityText(t *testing.T) {
	for _, l := range []Learnability{Unseen, Learning, Review, Unlearnable} {
		text, err := l.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d): %v", l, err)
		}
		var back Learnability
		if err := back.UnmarshalText(text); err != nil || back != l {
			t.Errorf("%s round trip = %v, %v", text, back, err)
		}
	}
	if _, err := Learnability(9).MarshalText(); err == nil {
		t.Error("expected error for invalid learnability")
	}
	var l Learnability
	if err := l.UnmarshalText([]byte("mastered")); err == nil {
		t.Error("expected error for unknown name")
	}
	if Learnability(9).String() != "Learnability(9)" {
		t.Errorf("String = %q", Learnability(9).String())
	}
}

func TestSpotKey(t *testing.T) {
	k := SpotKey{String: 3, Fret: 11}
	if k.Text() != "3-11" {
		t.Errorf("Text = %q", k.Text())
	}
	parsed, err := ParseSpotKey("3-11")
	if err != nil || parsed != k {
		t.Errorf("ParseSpotKey = %v, %v", parsed, err)
	}
	for _, bad := range []string{"", "3", "a-1", "1-b"} {
		if _, err := ParseSpotKey(bad); err == nil {
			t.Errorf("ParseSpotKey(%q) succeeded", bad)
		}
	}

	tests := []struct {
		a, b SpotKey
		want bool
	}{
		{SpotKey{0, 5}, SpotKey{1, 1}, true},
		{SpotKey{1, 1}, SpotKey{0, 5}, false},
		{SpotKey{1, 1}, SpotKey{1, 2}, true},
		{SpotKey{1, 2}, SpotKey{1, 2}, false},
	}
	for _, tt := range tests {
		if got := tt.a.Less(tt.b); got != tt.want {
			t.Errorf("%s.Less(%s) = %v", tt.a.Text(), tt.b.Text(), got)
		}
	}
}

func TestSpotJSON(t *testing.T) {
	s := Spot{
		String: 2, Fret: 5, Note: "G", Octave: 3,
		Learnability: Review, Ease: NormalEase(1.8), Interval: 2.88,
		GoodStreak: 3, TotalAttempts: 10, TotalPractices: 2,
	}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for _, key := range []string{`"status":"review"`, `"good_attempts":3`, `"all_attempts":10`, `"num_practices":2`, `"ease":{"factor":1.8}`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("JSON %s missing %s", data, key)
		}
	}

	var back Spot
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back != s {
		t.Errorf("round trip = %+v", back)
	}

	struggling := s
	struggling.Ease = StrugglingEase()
	data, _ = json.Marshal(struggling)
	if !strings.Contains(string(data), `"struggling":true`) {
		t.Errorf("struggling JSON = %s", data)
	}
}

func TestSpotMastery(t *testing.T) {
	s := Spot{Learnability: Review, Interval: 1}
	if s.IsMastered() {
		t.Error("fresh spot is mastered")
	}
	s.TotalPractices = MasteredThreshold
	if !s.IsMastered() {
		t.Error("spot with enough practices is not mastered")
	}
	s.Learnability = Unlearnable
	if s.IsMastered() || s.IsMasterable() {
		t.Error("unlearnable spot counts as masterable")
	}

	tests := []struct {
		interval float64
		want     float64
	}{
		{0, 0},
		{-5, 0},
		{MasteredThreshold, 1},
		{100, 1},
		{1, math.Log(1.2) / math.Log(5.2)},
	}
	for _, tt := range tests {
		got := Spot{Interval: tt.interval}.MasteryFraction()
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("MasteryFraction(%g) = %g, want %g", tt.interval, got, tt.want)
		}
	}
}

func TestSpotLetter(t *testing.T) {
	tests := map[string]string{"C#": "C", "A": "A", "": ""}
	for note, want := range tests {
		if got := (Spot{Note: note}).Letter(); got != want {
			t.Errorf("Letter(%q) = %q, want %q", note, got, want)
		}
	}
}
