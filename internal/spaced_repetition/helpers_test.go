package spaced_repetition

import (
	"math"
	"math/rand"
	"testing"

	"github.com/hentity/fretty/pkg/models"
)

const epsilon = 1e-9

func assertFloat(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %.6f, want %.6f", name, got, want)
	}
}

func newTestEngine(t *testing.T, seed int64) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultParams(), rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

// unseenSpots returns n fresh spots on string 0, frets 1..n, cycling note letters
func unseenSpots(n int) []models.Spot {
	letters := []string{"F", "G", "A", "B", "C", "D", "E"}
	spots := make([]models.Spot, n)
	for i := range spots {
		spots[i] = models.Spot{
			String:       0,
			Fret:         i + 1,
			Note:         letters[i%len(letters)],
			Octave:       2,
			Learnability: models.Unseen,
			Ease:         models.NormalEase(1.6),
			Interval:     1,
			IsNew:        true,
		}
	}
	return spots
}

func key(str, fret int) models.SpotKey {
	return models.SpotKey{String: str, Fret: fret}
}

var day0 = models.MustParseDate("2024-01-10")
