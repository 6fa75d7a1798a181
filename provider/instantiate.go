package provider

import (
	"fmt"
	"time"

	"github.com/samber/mo"

	"github.com/halfdot/taskstore/recurrence"
	"github.com/halfdot/taskstore/storage"
)

// timing is the optional start/due/duration triple of one occurrence.
type timing struct {
	start    mo.Option[time.Time]
	due      mo.Option[time.Time]
	duration mo.Option[time.Duration]
}

func taskTiming(t *storage.Task) timing {
	var tm timing
	if t.Start != nil {
		tm.start = mo.Some(*t.Start)
	}
	if t.Due != nil {
		tm.due = mo.Some(*t.Due)
	}
	if t.Duration != nil {
		tm.duration = mo.Some(*t.Duration)
	}
	if !tm.due.IsPresent() {
		if st, ok := tm.start.Get(); ok {
			if d, ok := tm.duration.Get(); ok {
				tm.due = mo.Some(st.Add(d))
			}
		}
	}
	return tm
}

// at shifts the timing to the occurrence instant occ, preserving the
// start-to-due gap.
func (tm timing) at(occ time.Time) timing {
	out := timing{duration: tm.duration}
	st, hasStart := tm.start.Get()
	du, hasDue := tm.due.Get()
	switch {
	case hasStart && hasDue:
		out.start = mo.Some(occ)
		out.due = mo.Some(occ.Add(du.Sub(st)))
	case hasDue:
		out.due = mo.Some(occ)
	default:
		out.start = mo.Some(occ)
	}
	return out
}

// materializeTask reconciles the instance rows a task should own against
// what is stored.
func (s *session) materializeTask(t *storage.Task) error {
	switch {
	case t.Deleted:
		return s.dropInstances(t.ID)
	case t.IsOverride():
		return s.materializeOverride(t)
	case t.Recurring():
		return s.materializeMaster(t)
	default:
		return s.materializeSingle(t)
	}
}

// materializeSingle keeps exactly one instance for a non-recurring task,
// with original time 0.
func (s *session) materializeSingle(t *storage.Task) error {
	want := s.buildInstance(t, taskTiming(t), 0)
	if t.Closed() {
		want.Distance = -1
	}
	return s.reconcileOne(t.ID, want)
}

// materializeOverride keeps exactly one instance for an override row. An
// override without timing of its own inherits the timing of the occurrence
// it replaces.
func (s *session) materializeOverride(o *storage.Task) error {
	if o.OriginalTime == nil {
		return invalidf("override %d carries no original instance time", o.ID)
	}
	tm := taskTiming(o)
	if !tm.start.IsPresent() && !tm.due.IsPresent() {
		if o.OriginalID != nil {
			m, err := s.master(o)
			if err != nil {
				return err
			}
			tm = taskTiming(m).at(*o.OriginalTime)
		} else {
			tm = timing{start: mo.Some(*o.OriginalTime)}
		}
	}
	want := s.buildInstance(o, tm, o.OriginalTime.UnixMilli())
	if o.Closed() {
		want.Distance = -1
	}
	if err := s.reconcileOne(o.ID, want); err != nil {
		return err
	}
	if o.OriginalID != nil {
		return s.rankFamily(*o.OriginalID)
	}
	return nil
}

// materializeMaster expands the earliest non-excluded, non-overridden
// occurrence of a recurring master into its single current instance. A
// master whose set is exhausted is marked deleted.
func (s *session) materializeMaster(m *storage.Task) error {
	overrides, err := s.tx.Overrides(m.ID)
	if err != nil {
		return err
	}
	var shadowed []time.Time
	for _, o := range overrides {
		if o.OriginalTime != nil {
			shadowed = append(shadowed, *o.OriginalTime)
		}
	}
	set := recurrence.Set{
		Start:      *m.AnchorTime(),
		Rule:       m.RRule,
		RDates:     m.RDates,
		ExDates:    m.ExDates,
		Exclusions: shadowed,
	}
	first, ok, err := set.First()
	if err != nil {
		return &storage.Error{Type: storage.ErrInvalidInput, Message: "malformed recurrence rule", Err: err}
	}
	if !ok {
		if err := s.dropInstances(m.ID); err != nil {
			return err
		}
		if !m.Deleted {
			m.Deleted = true
			m.Modified = s.now
			m.Dirty = true
			if err := s.tx.UpdateTask(m); err != nil {
				return err
			}
			s.log.Debug("marking exhausted master deleted", "id", m.ID)
			s.noteTask(m)
		}
		return s.rankFamily(m.ID)
	}
	s.log.Debug("expanding current occurrence", "id", m.ID, "occurrence", first)
	want := s.buildInstance(m, taskTiming(m).at(first), first.UnixMilli())
	if m.Closed() {
		want.Distance = -1
	}
	if err := s.reconcileOne(m.ID, want); err != nil {
		return err
	}
	return s.rankFamily(m.ID)
}

// rankFamily recomputes distance-from-current over the combined instance
// rows of a master and its overrides, ordered by original time: the
// earliest open occurrence gets 0, later open ones count up, closed rows
// get -1.
func (s *session) rankFamily(masterID int64) error {
	insts, err := s.tx.Instances(storage.InstanceQuery{MasterID: &masterID})
	if err != nil {
		return err
	}
	owners := make(map[int64]*storage.Task)
	next := 0
	for _, inst := range insts {
		owner := owners[inst.TaskID]
		if owner == nil {
			owner, err = s.tx.Task(inst.TaskID)
			if err != nil {
				if storage.IsError(err, storage.ErrNotFound) {
					return &storage.Error{
						Type:    storage.ErrInconsistent,
						Message: fmt.Sprintf("instance %d references no task", inst.ID),
					}
				}
				return err
			}
			owners[inst.TaskID] = owner
		}
		d := -1
		if !owner.Closed() && !owner.Deleted {
			d = next
			next++
		}
		if d != inst.Distance {
			inst.Distance = d
			if err := s.tx.UpdateInstance(inst); err != nil {
				return err
			}
		}
	}
	return nil
}

// reconcileOne converges the stored instance rows of one task onto exactly
// the given row, reusing an existing row id where possible. Equal rows are
// left untouched.
func (s *session) reconcileOne(taskID int64, want *storage.Instance) error {
	existing, err := s.tx.Instances(storage.InstanceQuery{TaskID: &taskID})
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		_, err := s.tx.InsertInstance(want)
		return err
	}
	for _, extra := range existing[1:] {
		if err := s.tx.DeleteInstance(extra.ID); err != nil {
			return err
		}
	}
	cur := existing[0]
	want.ID = cur.ID
	if instanceEqual(cur, want) {
		return nil
	}
	return s.tx.UpdateInstance(want)
}

func (s *session) dropInstances(taskID int64) error {
	insts, err := s.tx.Instances(storage.InstanceQuery{TaskID: &taskID})
	if err != nil {
		return err
	}
	for _, inst := range insts {
		if err := s.tx.DeleteInstance(inst.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) buildInstance(t *storage.Task, tm timing, originalTime int64) *storage.Instance {
	inst := &storage.Instance{TaskID: t.ID, OriginalTime: originalTime}
	if v, ok := tm.start.Get(); ok {
		c := v
		inst.Start = &c
	}
	if v, ok := tm.due.Get(); ok {
		c := v
		inst.Due = &c
	}
	if v, ok := tm.duration.Get(); ok {
		c := v
		inst.Duration = &c
	}
	inst.StartSorting = s.sortingKey(tm.start, t.AllDay)
	inst.DueSorting = s.sortingKey(tm.due, t.AllDay)
	return inst
}

// sortingKey renders the instant as the wall clock of the configured
// sorting timezone, expressed as UTC milliseconds, so timed and all-day
// rows interleave correctly in date order. All-day instants stay pinned to
// UTC.
func (s *session) sortingKey(v mo.Option[time.Time], allDay bool) *int64 {
	t, ok := v.Get()
	if !ok {
		return nil
	}
	loc := s.loc
	if allDay {
		loc = time.UTC
	}
	w := t.In(loc)
	k := time.Date(w.Year(), w.Month(), w.Day(), w.Hour(), w.Minute(), w.Second(), 0, time.UTC).UnixMilli()
	return &k
}

func instanceEqual(a, b *storage.Instance) bool {
	return a.TaskID == b.TaskID &&
		equalTimePtr(a.Start, b.Start) &&
		equalTimePtr(a.Due, b.Due) &&
		equalDurationPtr(a.Duration, b.Duration) &&
		equalInt64Ptr(a.StartSorting, b.StartSorting) &&
		equalInt64Ptr(a.DueSorting, b.DueSorting) &&
		a.OriginalTime == b.OriginalTime &&
		a.Distance == b.Distance
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func equalDurationPtr(a, b *time.Duration) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalInt64Ptr(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
