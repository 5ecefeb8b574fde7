package spaced_repetition

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/hentity/fretty/pkg/models"
)

// DefaultCapacity is the number of spots a single day can hold
const DefaultCapacity = 5

// Calendar maps review dates to the spots due on them and back.
// Both indexes are only changed through Schedule, Unschedule and PushBack,
// which keeps them consistent with each other.
// The zero value is an empty calendar with DefaultCapacity.
type Calendar struct {
	dateToSpots map[models.Date][]models.SpotKey
	spotToDate  map[models.SpotKey]models.Date
	capacity    int
}

// NewCalendar creates an empty calendar holding at most capacity spots per day
func NewCalendar(capacity int) *Calendar {
	c := &Calendar{}
	c.SetCapacity(capacity)
	return c
}

func (c *Calendar) init() {
	if c.dateToSpots == nil {
		c.dateToSpots = make(map[models.Date][]models.SpotKey)
	}
	if c.spotToDate == nil {
		c.spotToDate = make(map[models.SpotKey]models.Date)
	}
}

// Capacity returns the per-day limit
func (c *Calendar) Capacity() int {
	if c.capacity <= 0 {
		return DefaultCapacity
	}
	return c.capacity
}

// SetCapacity changes the per-day limit for future scheduling.
// Days that already hold more spots are left as they are.
func (c *Calendar) SetCapacity(n int) {
	if n <= 0 {
		n = DefaultCapacity
	}
	c.capacity = n
}

// Schedule places key on the first day at or after from+offset with room left
// and returns that day. Any previous schedule for key is dropped first.
// A negative offset is a programming error.
func (c *Calendar) Schedule(key models.SpotKey, from models.Date, offset int) models.Date {
	if offset < 0 {
		panic(fmt.Sprintf("spaced_repetition: negative schedule offset %d for spot %s", offset, key.Text()))
	}
	c.init()
	c.Unschedule(key)

	day := from.AddDays(offset)
	for len(c.dateToSpots[day]) >= c.Capacity() {
		day = day.AddDays(1)
	}
	c.dateToSpots[day] = append(c.dateToSpots[day], key)
	c.spotToDate[key] = day
	return day
}

// Unschedule removes key from the calendar. It reports whether key was scheduled.
func (c *Calendar) Unschedule(key models.SpotKey) bool {
	day, ok := c.spotToDate[key]
	if !ok {
		return false
	}
	bucket := c.dateToSpots[day]
	kept := bucket[:0:0]
	for _, k := range bucket {
		if k != key {
			kept = append(kept, k)
		}
	}
	if len(kept) == 0 {
		delete(c.dateToSpots, day)
	} else {
		c.dateToSpots[day] = kept
	}
	delete(c.spotToDate, key)
	return true
}

// DueOn returns the spots scheduled for day in insertion order
func (c *Calendar) DueOn(day models.Date) []models.SpotKey {
	bucket := c.dateToSpots[day]
	out := make([]models.SpotKey, len(bucket))
	copy(out, bucket)
	return out
}

// DateOf returns the day key is scheduled for
func (c *Calendar) DateOf(key models.SpotKey) (models.Date, bool) {
	day, ok := c.spotToDate[key]
	return day, ok
}

// Len returns the number of scheduled spots
func (c *Calendar) Len() int {
	return len(c.spotToDate)
}

// Dates returns every day with at least one spot, ascending
func (c *Calendar) Dates() []models.Date {
	days := make([]models.Date, 0, len(c.dateToSpots))
	for d := range c.dateToSpots {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// Earliest returns the first day with scheduled spots
func (c *Calendar) Earliest() (models.Date, bool) {
	var earliest models.Date
	found := false
	for d := range c.dateToSpots {
		if !found || d.Before(earliest) {
			earliest, found = d, true
		}
	}
	return earliest, found
}

// Validate checks that both indexes agree and that no day is over capacity
func (c *Calendar) Validate() error {
	count := 0
	for day, bucket := range c.dateToSpots {
		if len(bucket) == 0 {
			return fmt.Errorf("%w: empty bucket on %s", ErrInconsistentCalendar, day)
		}
		if len(bucket) > c.Capacity() {
			return fmt.Errorf("%w: %d spots on %s exceeds capacity %d", ErrInconsistentCalendar, len(bucket), day, c.Capacity())
		}
		for _, k := range bucket {
			if got, ok := c.spotToDate[k]; !ok || got != day {
				return fmt.Errorf("%w: spot %s listed on %s but indexed on %s", ErrInconsistentCalendar, k.Text(), day, got)
			}
			count++
		}
	}
	if count != len(c.spotToDate) {
		return fmt.Errorf("%w: %d bucket entries for %d indexed spots", ErrInconsistentCalendar, count, len(c.spotToDate))
	}
	return nil
}

// Clone returns an independent copy
func (c *Calendar) Clone() *Calendar {
	out := NewCalendar(c.capacity)
	out.init()
	for day, bucket := range c.dateToSpots {
		out.dateToSpots[day] = append([]models.SpotKey(nil), bucket...)
	}
	for k, d := range c.spotToDate {
		out.spotToDate[k] = d
	}
	return out
}

// calendarJSON is the persisted form, kept compatible with the snapshot field names
type calendarJSON struct {
	DateToSpots map[models.Date][]models.SpotKey `json:"review_date_to_spots"`
	SpotToDate  map[models.SpotKey]models.Date   `json:"spot_to_review_date"`
}

// MarshalJSON implements json.Marshaler
func (c *Calendar) MarshalJSON() ([]byte, error) {
	j := calendarJSON{
		DateToSpots: c.dateToSpots,
		SpotToDate:  c.spotToDate,
	}
	if j.DateToSpots == nil {
		j.DateToSpots = map[models.Date][]models.SpotKey{}
	}
	if j.SpotToDate == nil {
		j.SpotToDate = map[models.SpotKey]models.Date{}
	}
	return json.Marshal(j)
}

// UnmarshalJSON implements json.Unmarshaler. The decoded indexes must agree
// with each other; capacity is kept from the receiver.
func (c *Calendar) UnmarshalJSON(data []byte) error {
	var j calendarJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	decoded := Calendar{
		dateToSpots: j.DateToSpots,
		spotToDate:  j.SpotToDate,
		capacity:    c.capacity,
	}
	decoded.init()
	if err := decoded.validateIndexes(); err != nil {
		return err
	}
	*c = decoded
	return nil
}

// validateIndexes is Validate without the capacity check, since a stored
// calendar may have been written under a larger capacity.
func (c *Calendar) validateIndexes() error {
	saved := c.capacity
	c.capacity = int(^uint(0) >> 1)
	defer func() { c.capacity = saved }()
	return c.Validate()
}
