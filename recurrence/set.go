package recurrence

import "time"

// IterationLimit caps iteration of very long or infinite rules.
const IterationLimit = 10000

// Set describes the full occurrence set of one recurring task: the rule and
// extra dates minus excluded dates. Exclusions carries additional instants
// excluded for expansion purposes only (occurrences shadowed by overrides)
// without being part of the persisted EXDATE value.
type Set struct {
	Start      time.Time
	Rule       string
	RDates     []time.Time
	ExDates    []time.Time
	Exclusions []time.Time
}

// Iterator returns a lazy iterator over the merged occurrence set in
// ascending order: rule occurrences merged with RDates, deduplicated, with
// ExDates and Exclusions skipped. The iterator stops after IterationLimit
// candidates regardless of the rule.
func (s *Set) Iterator() (func() (time.Time, bool), error) {
	var ruleNext func() (time.Time, bool)
	if s.Rule != "" {
		var err error
		ruleNext, err = RuleIterator(s.Rule, s.Start)
		if err != nil {
			return nil, err
		}
	}

	rdates := SortedUnique(s.RDates)
	excluded := make(map[int64]struct{}, len(s.ExDates)+len(s.Exclusions))
	for _, t := range s.ExDates {
		excluded[t.UnixMilli()] = struct{}{}
	}
	for _, t := range s.Exclusions {
		excluded[t.UnixMilli()] = struct{}{}
	}

	var pending *time.Time
	idx := 0
	steps := 0

	return func() (time.Time, bool) {
		for steps < IterationLimit {
			steps++

			if pending == nil && ruleNext != nil {
				if v, ok := ruleNext(); ok {
					pending = &v
				} else {
					ruleNext = nil
				}
			}

			var cand time.Time
			switch {
			case pending != nil && idx < len(rdates):
				switch {
				case rdates[idx].Before(*pending):
					cand = rdates[idx]
					idx++
				case pending.Before(rdates[idx]):
					cand = *pending
					pending = nil
				default: // equal instant, consume both
					cand = *pending
					pending = nil
					idx++
				}
			case pending != nil:
				cand = *pending
				pending = nil
			case idx < len(rdates):
				cand = rdates[idx]
				idx++
			default:
				return time.Time{}, false
			}

			if _, skip := excluded[cand.UnixMilli()]; skip {
				continue
			}
			return cand, true
		}
		return time.Time{}, false
	}, nil
}

// First returns the earliest occurrence of the set, if any.
func (s *Set) First() (time.Time, bool, error) {
	next, err := s.Iterator()
	if err != nil {
		return time.Time{}, false, err
	}
	t, ok := next()
	return t, ok, nil
}

// Contains reports whether t is a member of the occurrence set.
func (s *Set) Contains(t time.Time) (bool, error) {
	next, err := s.Iterator()
	if err != nil {
		return false, err
	}
	for {
		v, ok := next()
		if !ok || v.After(t) {
			return false, nil
		}
		if v.Equal(t) {
			return true, nil
		}
	}
}

// NextAfter returns the earliest occurrence strictly after t together with
// the number of occurrences skipped to reach it (the count of set members
// at or before t).
func (s *Set) NextAfter(t time.Time) (time.Time, int, bool, error) {
	next, err := s.Iterator()
	if err != nil {
		return time.Time{}, 0, false, err
	}
	skipped := 0
	for {
		v, ok := next()
		if !ok {
			return time.Time{}, skipped, false, nil
		}
		if v.After(t) {
			return v, skipped, true, nil
		}
		skipped++
	}
}
