package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, s *Set, max int) []time.Time {
	t.Helper()
	next, err := s.Iterator()
	require.NoError(t, err)
	var out []time.Time
	for len(out) < max {
		v, ok := next()
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out
}

func TestSetRuleOnly(t *testing.T) {
	start := time.Date(2018, 1, 4, 12, 34, 56, 0, time.UTC)
	s := &Set{Start: start, Rule: "FREQ=DAILY;COUNT=3"}

	got := collect(t, s, 10)
	require.Len(t, got, 3)
	assert.True(t, got[0].Equal(start))
	assert.True(t, got[1].Equal(start.AddDate(0, 0, 1)))
	assert.True(t, got[2].Equal(start.AddDate(0, 0, 2)))
}

func TestSetUntilBound(t *testing.T) {
	start := time.Date(2018, 1, 4, 12, 0, 0, 0, time.UTC)
	s := &Set{Start: start, Rule: "FREQ=DAILY;UNTIL=20180106T120000Z"}

	// UNTIL is inclusive
	got := collect(t, s, 10)
	require.Len(t, got, 3)
	assert.True(t, got[0].Equal(start))
	assert.True(t, got[2].Equal(start.AddDate(0, 0, 2)))

	_, _, ok, err := s.NextAfter(start.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetDateOnlyUntilWithTimedStart(t *testing.T) {
	// a date-only UNTIL against a timed start reads as midnight UTC, so the
	// occurrence on the UNTIL day itself falls past the bound
	start := time.Date(2018, 1, 4, 12, 0, 0, 0, time.UTC)
	s := &Set{Start: start, Rule: "FREQ=DAILY;UNTIL=20180106"}

	got := collect(t, s, 10)
	require.Len(t, got, 2)
	assert.True(t, got[0].Equal(start))
	assert.True(t, got[1].Equal(start.AddDate(0, 0, 1)))
}

func TestSetMergesRDates(t *testing.T) {
	start := time.Date(2018, 1, 4, 12, 0, 0, 0, time.UTC)
	extra := start.Add(12 * time.Hour)
	s := &Set{
		Start:  start,
		Rule:   "FREQ=DAILY;COUNT=2",
		RDates: []time.Time{extra, start}, // start duplicates a rule occurrence
	}

	got := collect(t, s, 10)
	require.Len(t, got, 3)
	assert.True(t, got[0].Equal(start))
	assert.True(t, got[1].Equal(extra))
	assert.True(t, got[2].Equal(start.AddDate(0, 0, 1)))
}

func TestSetExcludes(t *testing.T) {
	start := time.Date(2018, 1, 4, 12, 0, 0, 0, time.UTC)
	d1 := start.AddDate(0, 0, 1)
	d2 := start.AddDate(0, 0, 2)
	s := &Set{
		Start:      start,
		Rule:       "FREQ=DAILY;COUNT=4",
		ExDates:    []time.Time{d1},
		Exclusions: []time.Time{d2},
	}

	got := collect(t, s, 10)
	require.Len(t, got, 2)
	assert.True(t, got[0].Equal(start))
	assert.True(t, got[1].Equal(start.AddDate(0, 0, 3)))
}

func TestSetRDatesOnly(t *testing.T) {
	d0 := time.Date(2018, 1, 4, 12, 0, 0, 0, time.UTC)
	dates := []time.Time{d0, d0.AddDate(0, 0, 1), d0.AddDate(0, 0, 2)}
	s := &Set{Start: d0, RDates: dates}

	got := collect(t, s, 10)
	require.Len(t, got, 3)

	first, ok, err := s.First()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, first.Equal(d0))
}

func TestSetFirstEmpty(t *testing.T) {
	d0 := time.Date(2018, 1, 4, 12, 0, 0, 0, time.UTC)
	s := &Set{Start: d0, RDates: []time.Time{d0}, ExDates: []time.Time{d0}}

	_, ok, err := s.First()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetNextAfter(t *testing.T) {
	start := time.Date(2018, 1, 4, 12, 0, 0, 0, time.UTC)
	s := &Set{Start: start, Rule: "FREQ=DAILY;COUNT=5"}

	next, skipped, ok, err := s.NextAfter(start)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, next.Equal(start.AddDate(0, 0, 1)))
	assert.Equal(t, 1, skipped)

	next, skipped, ok, err = s.NextAfter(start.AddDate(0, 0, 3))
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, next.Equal(start.AddDate(0, 0, 4)))
	assert.Equal(t, 4, skipped)

	_, skipped, ok, err = s.NextAfter(start.AddDate(0, 0, 10))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 5, skipped)
}

func TestSetContains(t *testing.T) {
	start := time.Date(2018, 1, 4, 12, 0, 0, 0, time.UTC)
	s := &Set{Start: start, Rule: "FREQ=DAILY;COUNT=3"}

	ok, err := s.Contains(start.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Contains(start.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Contains(start.AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetInvalidRule(t *testing.T) {
	s := &Set{Start: time.Now(), Rule: "FREQ=BOGUS"}
	_, err := s.Iterator()
	assert.Error(t, err)
}

func TestCanonical(t *testing.T) {
	c, err := Canonical("FREQ=DAILY;COUNT=5")
	require.NoError(t, err)
	again, err := Canonical(c)
	require.NoError(t, err)
	assert.Equal(t, c, again)

	c, err = Canonical("")
	require.NoError(t, err)
	assert.Empty(t, c)

	_, err = Canonical("FREQ=BOGUS")
	assert.Error(t, err)
}

func TestCount(t *testing.T) {
	n, ok := Count("FREQ=DAILY;COUNT=5")
	assert.True(t, ok)
	assert.Equal(t, 5, n)

	_, ok = Count("FREQ=DAILY")
	assert.False(t, ok)
}

func TestWithCount(t *testing.T) {
	rewritten, err := WithCount("FREQ=DAILY;COUNT=5", 4)
	require.NoError(t, err)

	n, ok := Count(rewritten)
	require.True(t, ok)
	assert.Equal(t, 4, n)

	// the rest of the rule survives
	start := time.Date(2018, 1, 4, 12, 0, 0, 0, time.UTC)
	s := &Set{Start: start, Rule: rewritten}
	got := collect(t, s, 10)
	assert.Len(t, got, 4)
}
