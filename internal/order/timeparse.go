package order

import (
	"strconv"
	"strings"
	"time"
)

// Layouts accepted from upstream order feeds. The mini-program clients were
// never consistent about date formatting, so the boundary has to be liberal.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
}

// ParseLooseTime parses one of the tolerated date formats, including epoch
// milliseconds. Returns the zero time when nothing matches.
func ParseLooseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}

	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}

	// Epoch milliseconds (13 digits) or seconds (10 digits).
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if len(s) >= 13 {
			return time.UnixMilli(n).UTC()
		}
		return time.Unix(n, 0).UTC()
	}

	return time.Time{}
}

// FirstTime returns the first parseable value from a fallback chain of raw
// date strings (e.g. create_time -> start_date -> order_date).
func FirstTime(values ...string) time.Time {
	for _, v := range values {
		if t := ParseLooseTime(v); !t.IsZero() {
			return t
		}
	}
	return time.Time{}
}

// DeadlineOrNow normalizes a deadline fallback chain. An unparseable deadline
// collapses to now, so the order surfaces as overdue instead of silently
// passing every deadline check.
func DeadlineOrNow(now time.Time, values ...string) time.Time {
	if t := FirstTime(values...); !t.IsZero() {
		return t
	}
	return now
}
