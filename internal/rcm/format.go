package rcm

import (
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatCurrency renders an amount as a US dollar string with thousands
// separators and two decimal places. A nil or non-finite amount renders as
// "$0.00" so display code never has to guard against missing values.
func FormatCurrency(amount *float64) string {
	if amount == nil || math.IsNaN(*amount) || math.IsInf(*amount, 0) {
		return "$0.00"
	}
	return "$" + humanize.FormatFloat("#,###.##", *amount)
}

// FormatDate renders a timestamp as MM/DD/YYYY. Nil or zero times render as
// "N/A".
func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "N/A"
	}
	return t.Format("01/02/2006")
}

// dateLayouts are the formats accepted for textual dates, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
}

// FormatDateString parses a textual date and renders it as MM/DD/YYYY.
// Unparseable input renders as "Invalid Date".
func FormatDateString(s string) string {
	t, err := ParseDate(s)
	if err != nil {
		return "Invalid Date"
	}
	return FormatDate(&t)
}

// ParseDate parses a textual date in any of the accepted layouts.
func ParseDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// RoundCents rounds an amount to two decimal places.
func RoundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}
