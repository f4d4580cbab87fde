package tariff

import (
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

// Holidays are the observed US federal holidays during which utilities commonly suspend peak
// pricing.
var Holidays = []*cal.Holiday{
	us.NewYear,
	us.MemorialDay,
	us.IndependenceDay,
	us.LaborDay,
	us.ThanksgivingDay,
	us.ChristmasDay,
}

// IsHoliday reports whether the calendar date of t is the observed date of one of the Holidays
func IsHoliday(t time.Time) bool {
	_, ok := HolidayName(t)
	return ok
}

// HolidayName returns the name of the observed holiday falling on the calendar date of t
func HolidayName(t time.Time) (string, bool) {
	year, month, day := t.Date()
	for _, hol := range Holidays {
		// a holiday observed on Dec 31st belongs to the following year
		for _, y := range []int{year, year + 1} {
			_, observed := hol.Calc(y)
			oy, om, od := observed.Date()
			if oy == year && om == month && od == day {
				return hol.Name, true
			}
		}
	}
	return "", false
}
