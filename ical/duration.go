package ical

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatDuration renders d as an RFC 5545 DURATION value, e.g. "PT1H30M",
// "P2D" or "-PT15M".
func FormatDuration(d time.Duration) string {
	var b strings.Builder
	if d < 0 {
		b.WriteByte('-')
		d = -d
	}
	b.WriteByte('P')
	days := int64(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	if days > 0 {
		fmt.Fprintf(&b, "%dD", days)
	}
	if d > 0 || days == 0 {
		b.WriteByte('T')
		h := int64(d / time.Hour)
		d -= time.Duration(h) * time.Hour
		m := int64(d / time.Minute)
		d -= time.Duration(m) * time.Minute
		sec := int64(d / time.Second)
		if h > 0 {
			fmt.Fprintf(&b, "%dH", h)
		}
		if m > 0 {
			fmt.Fprintf(&b, "%dM", m)
		}
		if sec > 0 || (h == 0 && m == 0) {
			fmt.Fprintf(&b, "%dS", sec)
		}
	}
	return b.String()
}

// ParseDuration parses an RFC 5545 DURATION value. Sub-second precision
// does not exist in the format.
func ParseDuration(v string) (time.Duration, error) {
	s := strings.TrimSpace(v)
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	if !strings.HasPrefix(s, "P") {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	s = s[1:]

	var d time.Duration
	inTime := false
	num := ""
	for _, r := range s {
		if r >= '0' && r <= '9' {
			num += string(r)
			continue
		}
		if r == 'T' {
			if num != "" {
				return 0, fmt.Errorf("invalid duration %q", v)
			}
			inTime = true
			continue
		}
		n, err := strconv.Atoi(num)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", v)
		}
		num = ""
		switch {
		case r == 'W' && !inTime:
			d += time.Duration(n) * 7 * 24 * time.Hour
		case r == 'D' && !inTime:
			d += time.Duration(n) * 24 * time.Hour
		case r == 'H' && inTime:
			d += time.Duration(n) * time.Hour
		case r == 'M' && inTime:
			d += time.Duration(n) * time.Minute
		case r == 'S' && inTime:
			d += time.Duration(n) * time.Second
		default:
			return 0, fmt.Errorf("invalid duration %q", v)
		}
	}
	if num != "" {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	if neg {
		d = -d
	}
	return d, nil
}
