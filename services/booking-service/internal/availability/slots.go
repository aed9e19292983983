package availability

import (
	"time"

	"github.com/chairtimehq/chairtime/services/booking-service/internal/schedule"
)

// GenerateSlots returns the candidate slot start times for one calendar date,
// derived from the tenant's weekly schedule. day carries the tenant-local
// date and location; the result is empty for closed days. A slot is emitted
// only if the full interval fits before close, so a trailing partial window
// is dropped. Same inputs always produce the same sequence.
func GenerateSlots(week schedule.Weekly, day time.Time, interval time.Duration) []time.Time {
	if interval <= 0 {
		return nil
	}
	d := week.DayFor(day)
	if !d.Open {
		return nil
	}

	opensAt := schedule.At(day, d.OpenMinute)
	closesAt := schedule.At(day, d.CloseMinute)

	var slots []time.Time
	for t := opensAt; !t.Add(interval).After(closesAt); t = t.Add(interval) {
		slots = append(slots, t)
	}
	return slots
}

// Occupied is a set of already-taken slot starts, keyed by Unix seconds so
// instants compare equal regardless of wall-clock representation.
type Occupied map[int64]struct{}

func NewOccupied(starts []time.Time) Occupied {
	o := make(Occupied, len(starts))
	for _, t := range starts {
		o[t.Unix()] = struct{}{}
	}
	return o
}

func (o Occupied) Contains(t time.Time) bool {
	_, ok := o[t.Unix()]
	return ok
}

// Filter returns slots minus any start present in occupied. The caller is
// responsible for scoping occupied to the (tenant, provider, date) at hand.
func Filter(slots []time.Time, occupied Occupied) []time.Time {
	out := make([]time.Time, 0, len(slots))
	for _, s := range slots {
		if occupied.Contains(s) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// DropPast removes slots that do not start strictly after now. Applied at the
// presentation boundary so already-elapsed slots are never offered today.
func DropPast(slots []time.Time, now time.Time) []time.Time {
	out := make([]time.Time, 0, len(slots))
	for _, s := range slots {
		if !s.After(now) {
			continue
		}
		out = append(out, s)
	}
	return out
}
