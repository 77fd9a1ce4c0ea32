package parser

import (
	"testing"
	"time"
)

func TestParseRelativeDuration(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"3 days", 3 * 24 * time.Hour},
		{"2 weeks", 2 * 7 * 24 * time.Hour},
		{"1 hour", time.Hour},
	}
	for _, c := range cases {
		got, err := ParseRelativeDuration(c.in)
		if err != nil {
			t.Fatalf("ParseRelativeDuration(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("ParseRelativeDuration(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseTimeSpecRFC3339(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	got, err := ParseTimeSpec("2026-01-01T00:00:00Z", now)
	if err != nil {
		t.Fatalf("ParseTimeSpec: %v", err)
	}
	if !got.Equal(now) {
		t.Errorf("got %v, want %v", got, now)
	}
}

func TestParseTimeSpecRelative(t *testing.T) {
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	got, err := ParseTimeSpec("3 days", now)
	if err != nil {
		t.Fatalf("ParseTimeSpec: %v", err)
	}
	want := now.Add(-3 * 24 * time.Hour)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
