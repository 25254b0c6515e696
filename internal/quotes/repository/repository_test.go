package repository

import (
	"strings"
	"testing"
	"time"
)

func TestFormatQuoteNumber(t *testing.T) {
	day := time.Date(2026, 10, 14, 23, 59, 0, 0, time.UTC)
	cases := map[int]string{
		1:    "COT-20261014-001",
		42:   "COT-20261014-042",
		1000: "COT-20261014-1000",
	}
	for seq, want := range cases {
		if got := FormatQuoteNumber(day, seq); got != want {
			t.Fatalf("FormatQuoteNumber(%d): expected %q, got %q", seq, want, got)
		}
	}
}

func TestBusinessDayUsesLocalCalendar(t *testing.T) {
	cst := time.FixedZone("CST", -6*3600)
	instant := time.Date(2026, 3, 10, 1, 30, 0, 0, time.UTC)

	if got := BusinessDay(instant.In(cst)); !got.Equal(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected 2026-03-09, got %v", got)
	}
	if got := BusinessDay(instant); !got.Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected 2026-03-10, got %v", got)
	}
}

func TestNextNumberQueryIsAtomicUpsert(t *testing.T) {
	query := strings.ToLower(nextNumberQuery)
	for _, fragment := range []string{
		"insert into quote_number_counters",
		"on conflict (day) do update",
		"last_value = quote_number_counters.last_value + 1",
		"returning last_value",
	} {
		if !strings.Contains(query, fragment) {
			t.Fatalf("expected fragment %q in counter query", fragment)
		}
	}
}
