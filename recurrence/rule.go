package recurrence

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// Parse parses an RFC 5545 rule string (without the "RRULE:" prefix).
func Parse(rule string) (*rrule.RRule, error) {
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("invalid recurrence rule %q: %w", rule, err)
	}
	return r, nil
}

// Canonical parses and re-serializes a rule string so that equal rules
// compare equal as strings. The empty rule stays empty.
func Canonical(rule string) (string, error) {
	if rule == "" {
		return "", nil
	}
	r, err := Parse(rule)
	if err != nil {
		return "", err
	}
	return r.String(), nil
}

// Count returns the COUNT part of a rule, if bounded by one.
func Count(rule string) (int, bool) {
	r, err := Parse(rule)
	if err != nil || r.OrigOptions.Count == 0 {
		return 0, false
	}
	return r.OrigOptions.Count, true
}

// WithCount returns the rule rewritten with the given COUNT.
func WithCount(rule string, count int) (string, error) {
	r, err := Parse(rule)
	if err != nil {
		return "", err
	}
	opts := r.OrigOptions
	opts.Count = count
	nr, err := rrule.NewRRule(opts)
	if err != nil {
		return "", fmt.Errorf("rewriting COUNT of %q: %w", rule, err)
	}
	return nr.String(), nil
}

// RuleIterator returns a lazy iterator over the occurrences of rule anchored
// at start. The iterator yields ascending instants in start's location.
func RuleIterator(rule string, start time.Time) (func() (time.Time, bool), error) {
	r, err := Parse(rule)
	if err != nil {
		return nil, err
	}
	r.DTStart(start)
	return r.Iterator(), nil
}
