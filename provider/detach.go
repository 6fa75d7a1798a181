package provider

import (
	"time"

	"github.com/halfdot/taskstore/recurrence"
	"github.com/halfdot/taskstore/storage"
)

// updateInstances applies patch to each matched instance as an
// occurrence-level mutation: mutations of an override or a plain task go to
// the owning task row, mutations of a recurring master's expanded
// occurrence detach it into an override of record.
func (s *session) updateInstances(q storage.InstanceQuery, patch storage.TaskPatch) error {
	if err := s.normalizePatch(&patch); err != nil {
		return err
	}
	insts, err := s.tx.Instances(q)
	if err != nil {
		return err
	}
	for _, inst := range insts {
		owner, err := s.instanceOwner(inst)
		if err != nil {
			return err
		}
		if owner.Recurring() && !owner.Deleted {
			if err := s.detachOccurrence(owner, inst, patch); err != nil {
				return err
			}
			continue
		}
		if err := s.updateTask(owner.ID, patch); err != nil {
			return err
		}
	}
	return nil
}

// deleteInstances removes each matched instance as an occurrence-level
// deletion: an override is dropped and its instant excluded on the master,
// a master's occurrence is excluded and the master advanced without leaving
// a standalone task behind, and a plain task is marked deleted.
func (s *session) deleteInstances(q storage.InstanceQuery) error {
	insts, err := s.tx.Instances(q)
	if err != nil {
		return err
	}
	for _, inst := range insts {
		owner, err := s.instanceOwner(inst)
		if err != nil {
			return err
		}
		switch {
		case owner.IsOverride():
			var master *storage.Task
			if owner.OriginalID != nil {
				master, err = s.master(owner)
				if err != nil {
					return err
				}
			}
			if err := s.tx.DeleteTask(owner.ID); err != nil {
				return err
			}
			s.noteTask(owner)
			if master != nil && owner.OriginalTime != nil {
				master.ExDates = recurrence.WithDate(master.ExDates, *owner.OriginalTime)
				master.Modified = s.now
				master.Dirty = true
				if err := s.tx.UpdateTask(master); err != nil {
					return err
				}
				if err := s.materializeTask(master); err != nil {
					return err
				}
				s.noteTask(master)
			}
		case owner.Recurring() && !owner.Deleted:
			occ := time.UnixMilli(inst.OriginalTime).UTC()
			if err := s.advanceMaster(owner, occ, true); err != nil {
				return err
			}
		default:
			owner.Deleted = true
			owner.Modified = s.now
			owner.Dirty = true
			if err := s.tx.UpdateTask(owner); err != nil {
				return err
			}
			if err := s.materializeTask(owner); err != nil {
				return err
			}
			s.noteTask(owner)
		}
	}
	return nil
}

func (s *session) instanceOwner(inst *storage.Instance) (*storage.Task, error) {
	owner, err := s.tx.Task(inst.TaskID)
	if err != nil {
		if storage.IsError(err, storage.ErrNotFound) {
			return nil, &storage.Error{
				Type:    storage.ErrInconsistent,
				Message: "instance references a task that does not exist",
				Err:     err,
			}
		}
		return nil, err
	}
	return owner, nil
}

// detachOccurrence splits one expanded occurrence of a recurring master off
// into a standalone override of record carrying the occurrence timing and
// the triggering mutation. A closed detachment consumes the occurrence and
// advances the master.
func (s *session) detachOccurrence(master *storage.Task, inst *storage.Instance, patch storage.TaskPatch) error {
	if !patch.UpdatedAny(storage.AllFields, master) {
		s.log.Debug("skipping no-op occurrence update", "master", master.ID)
		return nil
	}
	occ := time.UnixMilli(inst.OriginalTime).UTC()

	// detaching the same occurrence twice updates the existing override
	// of record instead of duplicating it
	overrides, err := s.tx.Overrides(master.ID)
	if err != nil {
		return err
	}
	for _, o := range overrides {
		if o.OriginalTime != nil && o.OriginalTime.Equal(occ) {
			return s.updateTask(o.ID, patch)
		}
	}

	d := *master
	d.ID = 0
	d.SyncID = ""
	d.RRule = ""
	d.RDates = nil
	d.ExDates = nil
	d.OriginalID = &master.ID
	d.OriginalSyncID = master.SyncID
	d.OriginalTime = &occ
	d.OriginalAllDay = master.AllDay
	d.Start = inst.Start
	d.Due = inst.Due
	d.Duration = inst.Duration
	d.Created = s.now
	d.Modified = s.now
	d.Dirty = true
	d = patch.Apply(d)

	id, err := s.tx.InsertTask(&d)
	if err != nil {
		return err
	}
	s.log.Debug("detached occurrence", "master", master.ID, "detached", id, "occurrence", occ)
	if err := s.materializeTask(&d); err != nil {
		return err
	}
	s.noteTask(&d)

	if d.Closed() {
		return s.advanceMaster(master, occ, false)
	}
	// the open override shadows the occurrence, the master moves on to the
	// next instant without consuming this one
	if err := s.materializeTask(master); err != nil {
		return err
	}
	s.noteTask(master)
	return nil
}

// advanceMaster consumes the given occurrence: the master's anchor moves to
// the next non-excluded, non-overridden instant, a COUNT-bound rule is
// decremented by the occurrences used up, and the consumed instant is
// excluded whenever it would otherwise be regenerated (always when exclude
// is set). An exhausted master is marked deleted.
func (s *session) advanceMaster(m *storage.Task, consumed time.Time, exclude bool) error {
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
	anchor := *m.AnchorTime()
	set := recurrence.Set{
		Start:      anchor,
		Rule:       m.RRule,
		RDates:     m.RDates,
		ExDates:    m.ExDates,
		Exclusions: shadowed,
	}
	next, _, ok, err := set.NextAfter(consumed)
	if err != nil {
		return &storage.Error{Type: storage.ErrInvalidInput, Message: "malformed recurrence rule", Err: err}
	}

	if exclude || recurrence.ContainsTime(m.RDates, consumed) {
		m.ExDates = recurrence.WithDate(m.ExDates, consumed)
	}

	if !ok {
		s.log.Debug("master exhausted", "id", m.ID, "consumed", consumed)
		m.Deleted = true
		m.Modified = s.now
		m.Dirty = true
		if err := s.tx.UpdateTask(m); err != nil {
			return err
		}
		if err := s.dropInstances(m.ID); err != nil {
			return err
		}
		s.noteTask(m)
		return s.rankFamily(m.ID)
	}

	if m.RRule != "" {
		if count, bounded := recurrence.Count(m.RRule); bounded {
			used, err := s.ruleOccurrencesBefore(m.RRule, anchor, next)
			if err != nil {
				return err
			}
			switch {
			case used >= count:
				m.RRule = ""
			case used > 0:
				if m.RRule, err = recurrence.WithCount(m.RRule, count-used); err != nil {
					return err
				}
			}
		}
	}

	if m.Start != nil {
		if m.Due != nil {
			due := next.Add(m.Due.Sub(*m.Start))
			m.Due = &due
		}
		start := next
		m.Start = &start
	} else if m.Due != nil {
		due := next
		m.Due = &due
	}
	m.Modified = s.now
	m.Dirty = true
	if err := s.tx.UpdateTask(m); err != nil {
		return err
	}
	s.log.Debug("advanced master", "id", m.ID, "consumed", consumed, "next", next)
	s.noteTask(m)
	return s.materializeTask(m)
}

// ruleOccurrencesBefore counts the rule-generated instants strictly before
// the given bound.
func (s *session) ruleOccurrencesBefore(rule string, start, before time.Time) (int, error) {
	next, err := recurrence.RuleIterator(rule, start)
	if err != nil {
		return 0, &storage.Error{Type: storage.ErrInvalidInput, Message: "malformed recurrence rule", Err: err}
	}
	n := 0
	for n < recurrence.IterationLimit {
		v, ok := next()
		if !ok || !v.Before(before) {
			return n, nil
		}
		n++
	}
	return n, nil
}
