package availability

import (
	"testing"
	"time"

	"github.com/chairtimehq/chairtime/services/booking-service/internal/schedule"
)

func weekOpenOn(wd time.Weekday, openMin, closeMin int) schedule.Weekly {
	var w schedule.Weekly
	w[int(wd)] = schedule.Day{Open: true, OpenMinute: openMin, CloseMinute: closeMin}
	return w
}

func TestGenerateSlots_Basic(t *testing.T) {
	// Wednesday 08:00-10:00, 30 minute grid.
	day := time.Date(2026, 9, 9, 0, 0, 0, 0, time.UTC)
	week := weekOpenOn(time.Wednesday, 480, 600)

	slots := GenerateSlots(week, day, 30*time.Minute)
	if len(slots) != 4 {
		t.Fatalf("expected 4 slots, got %d", len(slots))
	}
	if !slots[0].Equal(day.Add(8 * time.Hour)) {
		t.Fatalf("expected first slot 08:00, got %s", slots[0].Format(time.RFC3339))
	}
	if !slots[3].Equal(day.Add(9*time.Hour + 30*time.Minute)) {
		t.Fatalf("expected last slot 09:30, got %s", slots[3].Format(time.RFC3339))
	}
}

func TestGenerateSlots_DropsTrailingPartialWindow(t *testing.T) {
	// 08:00-09:45: a 09:30 slot would run past close.
	day := time.Date(2026, 9, 9, 0, 0, 0, 0, time.UTC)
	week := weekOpenOn(time.Wednesday, 480, 585)

	slots := GenerateSlots(week, day, 30*time.Minute)
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(slots))
	}
	if !slots[2].Equal(day.Add(9 * time.Hour)) {
		t.Fatalf("expected last slot 09:00, got %s", slots[2].Format(time.RFC3339))
	}
}

func TestGenerateSlots_ClosedDayIsEmpty(t *testing.T) {
	day := time.Date(2026, 9, 6, 0, 0, 0, 0, time.UTC) // Sunday
	week := weekOpenOn(time.Wednesday, 480, 600)

	if slots := GenerateSlots(week, day, 30*time.Minute); len(slots) != 0 {
		t.Fatalf("expected no slots on a closed day, got %d", len(slots))
	}
}

func TestGenerateSlots_Deterministic(t *testing.T) {
	day := time.Date(2026, 9, 9, 0, 0, 0, 0, time.UTC)
	week := weekOpenOn(time.Wednesday, 540, 1020)

	a := GenerateSlots(week, day, 15*time.Minute)
	b := GenerateSlots(week, day, 15*time.Minute)
	if len(a) != len(b) {
		t.Fatalf("expected identical runs, got %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			t.Fatalf("slot %d differs: %s vs %s", i, a[i], b[i])
		}
	}
}

func TestFilter_RemovesOccupiedStarts(t *testing.T) {
	day := time.Date(2026, 9, 9, 0, 0, 0, 0, time.UTC)
	week := weekOpenOn(time.Wednesday, 480, 600)
	slots := GenerateSlots(week, day, 30*time.Minute)

	occupied := NewOccupied([]time.Time{day.Add(8*time.Hour + 30*time.Minute)})
	free := Filter(slots, occupied)
	if len(free) != 3 {
		t.Fatalf("expected 3 free slots, got %d", len(free))
	}
	for _, s := range free {
		if occupied.Contains(s) {
			t.Fatalf("occupied slot %s leaked through", s.Format(time.RFC3339))
		}
	}
}

func TestFilter_MatchesAcrossTimezoneRepresentations(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatal(err)
	}
	local := time.Date(2026, 9, 9, 9, 0, 0, 0, loc)
	occupied := NewOccupied([]time.Time{local.UTC()})

	free := Filter([]time.Time{local}, occupied)
	if len(free) != 0 {
		t.Fatal("same instant in a different zone should still be occupied")
	}
}

func TestDropPast_KeepsStrictlyFutureOnly(t *testing.T) {
	day := time.Date(2026, 9, 9, 0, 0, 0, 0, time.UTC)
	slots := []time.Time{
		day.Add(9 * time.Hour),
		day.Add(9*time.Hour + 30*time.Minute),
		day.Add(10 * time.Hour),
	}

	// A slot starting exactly at now is not offered.
	now := day.Add(9*time.Hour + 30*time.Minute)
	got := DropPast(slots, now)
	if len(got) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(got))
	}
	if !got[0].Equal(day.Add(10 * time.Hour)) {
		t.Fatalf("expected 10:00, got %s", got[0].Format(time.RFC3339))
	}
}
