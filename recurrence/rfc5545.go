package recurrence

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// RFC 5545 date and date-time layouts. All-day values use the date-only
// form and are pinned to midnight UTC.
const (
	DateTimeFormatUTC   = "20060102T150405Z"
	DateTimeFormatLocal = "20060102T150405"
	DateFormat          = "20060102"
)

// ParseDateTime parses a single RFC 5545 date or date-time string. Date-only
// values are returned as midnight UTC with allDay set.
func ParseDateTime(v string) (t time.Time, allDay bool, err error) {
	v = strings.TrimSpace(v)
	if t, err = time.Parse(DateTimeFormatUTC, v); err == nil {
		return t, false, nil
	}
	if t, err = time.ParseInLocation(DateTimeFormatLocal, v, time.UTC); err == nil {
		return t, false, nil
	}
	if t, err = time.ParseInLocation(DateFormat, v, time.UTC); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, fmt.Errorf("invalid date-time %q", v)
}

// FormatDateTime renders t in the RFC 5545 form matching the all-day flag.
func FormatDateTime(t time.Time, allDay bool) string {
	if allDay {
		return t.UTC().Format(DateFormat)
	}
	return t.UTC().Format(DateTimeFormatUTC)
}

// ParseDateTimeList parses a comma-joined RFC 5545 date-time list as used
// for the persisted RDATE and EXDATE columns. Entries are returned sorted
// ascending and deduplicated.
func ParseDateTimeList(v string) ([]time.Time, error) {
	if strings.TrimSpace(v) == "" {
		return nil, nil
	}
	var out []time.Time
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		t, _, err := ParseDateTime(part)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return SortedUnique(out), nil
}

// FormatDateTimeList renders the list comma-joined in ascending order.
func FormatDateTimeList(ts []time.Time, allDay bool) string {
	ts = SortedUnique(ts)
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = FormatDateTime(t, allDay)
	}
	return strings.Join(parts, ",")
}

// SortedUnique returns a copy of ts sorted ascending with duplicate
// instants removed.
func SortedUnique(ts []time.Time) []time.Time {
	if len(ts) == 0 {
		return nil
	}
	out := make([]time.Time, len(ts))
	copy(out, ts)
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	dedup := out[:1]
	for _, t := range out[1:] {
		if !t.Equal(dedup[len(dedup)-1]) {
			dedup = append(dedup, t)
		}
	}
	return dedup
}

// ContainsTime reports whether ts contains the exact instant t.
func ContainsTime(ts []time.Time, t time.Time) bool {
	for _, v := range ts {
		if v.Equal(t) {
			return true
		}
	}
	return false
}

// WithDate returns ts extended by t, sorted and deduplicated.
func WithDate(ts []time.Time, t time.Time) []time.Time {
	return SortedUnique(append(append([]time.Time{}, ts...), t))
}

// WithoutDate returns ts with the exact instant t removed.
func WithoutDate(ts []time.Time, t time.Time) []time.Time {
	var out []time.Time
	for _, v := range ts {
		if !v.Equal(t) {
			out = append(out, v)
		}
	}
	return out
}
