package spaced_repetition

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/hentity/fretty/pkg/models"
)

// Progress is one learner's full state: the spot collection, the review
// calendar and the date of the last completed lesson. It is the snapshot the
// host persists between calls.
type Progress struct {
	New            bool          `json:"new"` // the onboarding lesson has not been completed yet
	Tuning         []string      `json:"tuning"`
	LastReviewDate *models.Date  `json:"last_review_date"`
	Calendar       *Calendar     `json:"calendar"`
	Spots          []models.Spot `json:"spots"`
}

// NewProgress returns progress over spots with an empty calendar
func NewProgress(tuning []string, spots []models.Spot) *Progress {
	p := &Progress{
		New:      true,
		Tuning:   append([]string(nil), tuning...),
		Calendar: NewCalendar(DefaultCapacity),
		Spots:    append([]models.Spot(nil), spots...),
	}
	p.sortSpots()
	return p
}

func (p *Progress) sortSpots() {
	sort.SliceStable(p.Spots, func(i, j int) bool {
		return p.Spots[i].Key().Less(p.Spots[j].Key())
	})
}

// Spot returns the spot with the given key
func (p *Progress) Spot(key models.SpotKey) (models.Spot, bool) {
	if i := p.index(key); i >= 0 {
		return p.Spots[i], true
	}
	return models.Spot{}, false
}

// UpdateSpot replaces the stored spot with the same key. It reports whether one was found.
func (p *Progress) UpdateSpot(spot models.Spot) bool {
	i := p.index(spot.Key())
	if i < 0 {
		return false
	}
	p.Spots[i] = spot
	return true
}

func (p *Progress) index(key models.SpotKey) int {
	i := sort.Search(len(p.Spots), func(i int) bool {
		return !p.Spots[i].Key().Less(key)
	})
	if i < len(p.Spots) && p.Spots[i].Key() == key {
		return i
	}
	// fall back to a scan in case the collection was built out of order
	for j := range p.Spots {
		if p.Spots[j].Key() == key {
			return j
		}
	}
	return -1
}

// ReviewedOn reports whether a lesson was completed on day
func (p *Progress) ReviewedOn(day models.Date) bool {
	return p.LastReviewDate != nil && *p.LastReviewDate == day
}

// Validate checks the snapshot: unique spot keys, a consistent calendar and
// only known spots scheduled.
func (p *Progress) Validate() error {
	seen := make(map[models.SpotKey]bool, len(p.Spots))
	for _, s := range p.Spots {
		if seen[s.Key()] {
			return fmt.Errorf("duplicate spot %s", s.Key().Text())
		}
		seen[s.Key()] = true
	}
	if p.Calendar == nil {
		return nil
	}
	if err := p.Calendar.validateIndexes(); err != nil {
		return err
	}
	for k := range p.Calendar.spotToDate {
		if !seen[k] {
			return fmt.Errorf("%w: unknown spot %s scheduled", ErrInconsistentCalendar, k.Text())
		}
	}
	return nil
}

// UnmarshalJSON decodes a snapshot and sorts the spots into (string, fret) order
func (p *Progress) UnmarshalJSON(data []byte) error {
	type plain Progress
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*p = Progress(decoded)
	if p.Calendar == nil {
		p.Calendar = NewCalendar(DefaultCapacity)
	}
	p.sortSpots()
	return nil
}
