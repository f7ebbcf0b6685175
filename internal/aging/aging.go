// Package aging classifies open balances by how long they have been outstanding.
// Classify is shared by the AR and AP reconcilers.
package aging

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Bucket is a coarse aging range. Upper edges are inclusive.
type Bucket string

const (
	Current    Bucket = "0-30"
	Days31To60 Bucket = "31-60"
	Days61To90 Bucket = "61-90"
	Over90     Bucket = "90+"
)

// Buckets lists every bucket in report order
var Buckets = []Bucket{Current, Days31To60, Days61To90, Over90}

// Classify maps days outstanding to its bucket
func Classify(days int) Bucket {
	switch {
	case days <= 30:
		return Current
	case days <= 60:
		return Days31To60
	case days <= 90:
		return Days61To90
	default:
		return Over90
	}
}

// serialEpoch is day zero of the spreadsheet serial date encoding
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Accepted textual layouts, most specific first
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"1/2/2006",
	"01/02/2006",
	"1-2-2006",
	"01-02-2006",
}

// ParseDate accepts an ISO date, an ISO datetime, M/D/YYYY, or a spreadsheet
// serial day count. The result is midnight UTC. ok is false for blank or
// unparseable input.
func ParseDate(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return DateOf(parsed), true
		}
	}

	serial, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(serial) || math.IsInf(serial, 0) || serial < 0 {
		return time.Time{}, false
	}
	return serialEpoch.AddDate(0, 0, int(serial)), true
}

// DateOf truncates t to its calendar date at midnight UTC
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole calendar days from start to end
func DaysBetween(start, end time.Time) int {
	return int(DateOf(end).Sub(DateOf(start)).Hours() / 24)
}

// DaysOutstanding returns max(0, asOf - date) in days. An unknown (zero)
// date counts as zero days.
func DaysOutstanding(date, asOf time.Time) int {
	if date.IsZero() {
		return 0
	}
	days := DaysBetween(date, asOf)
	if days < 0 {
		return 0
	}
	return days
}
