package schedule

import (
	"errors"
	"testing"
	"time"
)

func TestValidate_AcceptsDefault(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default schedule should validate, got %v", err)
	}
}

func TestValidate_RejectsInvertedWindow(t *testing.T) {
	var w Weekly
	w[int(time.Monday)] = Day{Open: true, OpenMinute: 1020, CloseMinute: 540}

	err := w.Validate()
	if err == nil {
		t.Fatal("expected error for open >= close")
	}
	var invalid *InvalidWindowError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected *InvalidWindowError, got %T", err)
	}
	if invalid.Weekday != time.Monday {
		t.Fatalf("expected Monday, got %s", invalid.Weekday)
	}
}

func TestValidate_RejectsOutOfRangeMinutes(t *testing.T) {
	var w Weekly
	w[int(time.Tuesday)] = Day{Open: true, OpenMinute: 0, CloseMinute: 1441}

	if err := w.Validate(); err == nil {
		t.Fatal("expected error for close past midnight")
	}
}

func TestValidate_SkipsClosedDays(t *testing.T) {
	var w Weekly
	// Garbage window on a closed day must not matter.
	w[int(time.Sunday)] = Day{Open: false, OpenMinute: 900, CloseMinute: 100}

	if err := w.Validate(); err != nil {
		t.Fatalf("closed day should not be validated, got %v", err)
	}
}

func TestDayFor_UsesWeekday(t *testing.T) {
	w := Default()
	monday := time.Date(2026, 9, 7, 12, 0, 0, 0, time.UTC)
	sunday := time.Date(2026, 9, 6, 12, 0, 0, 0, time.UTC)

	if d := w.DayFor(monday); !d.Open || d.OpenMinute != 540 {
		t.Fatalf("expected Monday open at 540, got %+v", d)
	}
	if d := w.DayFor(sunday); d.Open {
		t.Fatalf("expected Sunday closed, got %+v", d)
	}
}

func TestAt_AnchorsMinuteOnDate(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatal(err)
	}
	day := time.Date(2026, 9, 7, 23, 59, 0, 0, loc)

	got := At(day, 540)
	want := time.Date(2026, 9, 7, 9, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if got.Location() != loc {
		t.Fatalf("expected location %s, got %s", loc, got.Location())
	}
}
