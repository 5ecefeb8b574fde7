package spaced_repetition

import "github.com/hentity/fretty/pkg/models"

// PushBack moves the whole schedule forward so that its earliest day is today,
// keeping the spacing between days. It returns the shift in days, zero when
// the schedule was already current.
func (c *Calendar) PushBack(today models.Date) int {
	earliest, ok := c.Earliest()
	if !ok || !earliest.Before(today) {
		return 0
	}
	shift := today.DaysSince(earliest)

	dateToSpots := make(map[models.Date][]models.SpotKey, len(c.dateToSpots))
	spotToDate := make(map[models.SpotKey]models.Date, len(c.spotToDate))
	for day, bucket := range c.dateToSpots {
		moved := day.AddDays(shift)
		dateToSpots[moved] = bucket
		for _, k := range bucket {
			spotToDate[k] = moved
		}
	}
	c.dateToSpots = dateToSpots
	c.spotToDate = spotToDate
	return shift
}
