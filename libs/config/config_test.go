package config

import (
	"testing"
	"time"
)

func TestString(t *testing.T) {
	t.Setenv("CFG_TEST_STRING", "hello")
	if got := String("CFG_TEST_STRING", "fallback"); got != "hello" {
		t.Fatalf("expected hello, got %q", got)
	}
	if got := String("CFG_TEST_MISSING", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestRequiredString(t *testing.T) {
	if _, err := RequiredString("CFG_TEST_REQUIRED_MISSING"); err == nil {
		t.Fatal("expected error for missing required var")
	}
	t.Setenv("CFG_TEST_REQUIRED", "value")
	got, err := RequiredString("CFG_TEST_REQUIRED")
	if err != nil || got != "value" {
		t.Fatalf("expected value, got %q err=%v", got, err)
	}
}

func TestInt(t *testing.T) {
	t.Setenv("CFG_TEST_INT", "42")
	if got := Int("CFG_TEST_INT", 7); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	t.Setenv("CFG_TEST_INT_BAD", "not-a-number")
	if got := Int("CFG_TEST_INT_BAD", 7); got != 7 {
		t.Fatalf("expected fallback 7, got %d", got)
	}
}

func TestDuration(t *testing.T) {
	t.Setenv("CFG_TEST_DUR", "90s")
	if got := Duration("CFG_TEST_DUR", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %s", got)
	}
	if got := Duration("CFG_TEST_DUR_MISSING", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback 1m, got %s", got)
	}
}

func TestPort(t *testing.T) {
	t.Setenv("CFG_TEST_PORT", "8080")
	got, err := Port("CFG_TEST_PORT", "9090")
	if err != nil || got != "8080" {
		t.Fatalf("expected 8080, got %q err=%v", got, err)
	}
	t.Setenv("CFG_TEST_PORT_BAD", "http")
	if _, err := Port("CFG_TEST_PORT_BAD", "9090"); err == nil {
		t.Fatal("expected error for non-numeric port")
	}
}
