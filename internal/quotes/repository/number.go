package repository

import (
	"fmt"
	"time"
)

// BusinessDay returns the calendar date of t in t's own location, as UTC
// midnight, so the counter row and the number agree with the local day.
func BusinessDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatQuoteNumber renders COT-YYYYMMDD-NNN for the seq-th quote of day.
func FormatQuoteNumber(day time.Time, seq int) string {
	return fmt.Sprintf("COT-%s-%03d", day.Format("20060102"), seq)
}
