package model

import "testing"

func TestCanTransitionTo_FullMatrix(t *testing.T) {
	all := []Status{StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled}
	allowed := map[[2]Status]bool{
		{StatusScheduled, StatusConfirmed}: true,
		{StatusScheduled, StatusCancelled}: true,
		{StatusConfirmed, StatusCompleted}: true,
		{StatusConfirmed, StatusCancelled}: true,
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]Status{from, to}]
			if got := from.CanTransitionTo(to); got != want {
				t.Errorf("%s -> %s: got %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestParseStatus(t *testing.T) {
	if s, ok := ParseStatus("confirmed"); !ok || s != StatusConfirmed {
		t.Fatalf("expected confirmed, got %q ok=%v", s, ok)
	}
	if _, ok := ParseStatus("pending"); ok {
		t.Fatal("unknown status must not parse")
	}
	if _, ok := ParseStatus(""); ok {
		t.Fatal("empty status must not parse")
	}
}

func TestTerminalAndLive(t *testing.T) {
	if !StatusCompleted.Terminal() || !StatusCancelled.Terminal() {
		t.Fatal("completed and cancelled are terminal")
	}
	if StatusScheduled.Terminal() || StatusConfirmed.Terminal() {
		t.Fatal("scheduled and confirmed are not terminal")
	}
	if !StatusScheduled.Live() || !StatusConfirmed.Live() {
		t.Fatal("scheduled and confirmed hold their slot")
	}
	if StatusCompleted.Live() || StatusCancelled.Live() {
		t.Fatal("terminal states must not hold a slot")
	}
}
