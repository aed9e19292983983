// Package schedule models a tenant's weekly operating hours: one window per
// weekday, in minutes of the tenant-local day. All slot math downstream works
// in the tenant's wall clock; nothing here converts timezones.
package schedule

import (
	"fmt"
	"time"
)

const minutesPerDay = 24 * 60

// Day is one weekday's window. Minutes count from local midnight, so
/// 540 is 09:00 and 1020 is 17:00.
type Day struct {
	Open        bool
	OpenMinute  int
	CloseMinute int
}

// Weekly holds one Day per weekday, Sunday-first to match time.Weekday.
type Weekly [7]Day

// InvalidWindowError reports a self-contradictory day window. It is a
// configuration error surfaced to tenant staff, never to booking clients.
type InvalidWindowError struct {
	Weekday time.Weekday
	Day     Day
}

func (e *InvalidWindowError) Error() string {
	return fmt.Sprintf("schedule: %s window is invalid (open %d, close %d)",
		e.Weekday, e.Day.OpenMinute, e.Day.CloseMinute)
}

// Validate checks every open day has a well-formed window: minutes in range
// and open strictly before close. Closed days are not inspected.
func (w Weekly) Validate() error {
	for wd, d := range w {
		if !d.Open {
			continue
		}
		if d.OpenMinute < 0 || d.CloseMinute > minutesPerDay || d.OpenMinute >= d.CloseMinute {
			return &InvalidWindowError{Weekday: time.Weekday(wd), Day: d}
		}
	}
	return nil
}

// DayFor resolves the window for t's weekday.
func (w Weekly) DayFor(t time.Time) Day {
	return w[int(t.Weekday())]
}

// Default is the schedule seeded at tenant onboarding: Mon–Fri 09:00–17:00,
// weekend closed.
func Default() Weekly {
	var w Weekly
	for wd := time.Monday; wd <= time.Friday; wd++ {
		w[int(wd)] = Day{Open: true, OpenMinute: 540, CloseMinute: 1020}
	}
	return w
}

// At anchors a minute-of-day on the calendar date of day, in day's location.
func At(day time.Time, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), minute/60, minute%60, 0, 0, day.Location())
}
