package email

import (
	"strings"
	"testing"
)

func TestBuildMessage(t *testing.T) {
	msg := buildMessage("no-reply@chairtime.local", "jo@example.com", "Appointment confirmed", "See you at 10:00.")

	for _, want := range []string{
		"From: no-reply@chairtime.local\r\n",
		"To: jo@example.com\r\n",
		"Subject: Appointment confirmed\r\n",
		"\r\n\r\nSee you at 10:00.\r\n",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestNewSMTPSender_DefaultsFrom(t *testing.T) {
	s := NewSMTPSender("mailpit", "1025", "  ")
	if s.from != "no-reply@chairtime.local" {
		t.Fatalf("expected default from, got %q", s.from)
	}
	if s.addr != "mailpit:1025" {
		t.Fatalf("expected mailpit:1025, got %q", s.addr)
	}
}
