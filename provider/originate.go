package provider

import (
	"time"

	"github.com/halfdot/taskstore/recurrence"
	"github.com/halfdot/taskstore/storage"
)

// resolveOverride binds an override row to its master: a known original id
// back-fills the original sync id and vice versa. An override whose sync id
// matches no task yet stays unresolved; adoption is deferred until the
// master appears within the same transaction. Returns the resolved master,
// if any.
func (s *session) resolveOverride(o *storage.Task) (*storage.Task, error) {
	var master *storage.Task
	switch {
	case o.OriginalID != nil:
		m, err := s.tx.Task(*o.OriginalID)
		if err != nil {
			if storage.IsError(err, storage.ErrNotFound) {
				return nil, invalidf("original instance task %d does not exist", *o.OriginalID)
			}
			return nil, err
		}
		master = m
		if o.OriginalSyncID == "" {
			o.OriginalSyncID = m.SyncID
		}
	case o.OriginalSyncID != "":
		m, err := s.tx.TaskBySyncID(o.OriginalSyncID)
		if err != nil {
			if storage.IsError(err, storage.ErrNotFound) {
				s.log.Debug("deferring override resolution", "original_sync_id", o.OriginalSyncID)
				return nil, nil
			}
			return nil, err
		}
		master = m
		o.OriginalID = &m.ID
	}
	if master == nil {
		return nil, nil
	}
	if err := s.rejectDuplicateOverride(master.ID, *o.OriginalTime, o.ID); err != nil {
		return nil, err
	}
	if err := s.promoteOccurrence(master, *o.OriginalTime); err != nil {
		return nil, err
	}
	return master, nil
}

// adoptPendingOverrides resolves overrides that were inserted before their
// master and reference it by sync id.
func (s *session) adoptPendingOverrides(master *storage.Task) error {
	pending, err := s.tx.PendingOverrides(master.SyncID)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}
	for _, o := range pending {
		if o.OriginalTime == nil {
			return invalidf("override %d carries no original instance time", o.ID)
		}
		if err := s.rejectDuplicateOverride(master.ID, *o.OriginalTime, o.ID); err != nil {
			return err
		}
		if err := s.promoteOccurrence(master, *o.OriginalTime); err != nil {
			return err
		}
		o.OriginalID = &master.ID
		o.Modified = s.now
		if err := s.tx.UpdateTask(o); err != nil {
			return err
		}
		s.log.Debug("adopted pending override", "override", o.ID, "master", master.ID)
		if err := s.materializeTask(o); err != nil {
			return err
		}
		s.noteTask(o)
	}
	return s.rematerializeMaster(master.ID)
}

// rejectDuplicateOverride enforces at most one override per (master,
// instant) pair. Detached occurrences count: they are the override of
// record for their instant.
func (s *session) rejectDuplicateOverride(masterID int64, occ time.Time, selfID int64) error {
	overrides, err := s.tx.Overrides(masterID)
	if err != nil {
		return err
	}
	for _, o := range overrides {
		if o.ID == selfID || o.OriginalTime == nil {
			continue
		}
		if o.OriginalTime.Equal(occ) {
			s.log.Warn("rejecting duplicate override", "master", masterID, "original_time", occ)
			return &storage.Error{
				Type:    storage.ErrAlreadyExists,
				Message: "occurrence is already overridden",
			}
		}
	}
	return nil
}

// promoteOccurrence makes sure the overridden instant is part of the
// master's occurrence set: an instant the rule cannot generate is added as
// an RDATE, and overriding a so-far non-recurring master promotes the
// master's own anchor to an RDATE alongside it.
func (s *session) promoteOccurrence(m *storage.Task, occ time.Time) error {
	changed := false
	switch {
	case m.Recurring():
		set := recurrence.Set{Start: *m.AnchorTime(), Rule: m.RRule, RDates: m.RDates, ExDates: m.ExDates}
		ok, err := set.Contains(occ)
		if err != nil {
			return &storage.Error{Type: storage.ErrInvalidInput, Message: "malformed recurrence rule", Err: err}
		}
		if !ok {
			m.RDates = recurrence.WithDate(m.RDates, occ)
			changed = true
		}
	case m.AnchorTime() != nil && !m.AnchorTime().Equal(occ):
		m.RDates = recurrence.WithDate(recurrence.WithDate(m.RDates, *m.AnchorTime()), occ)
		changed = true
	}
	if !changed {
		return nil
	}
	m.Modified = s.now
	m.Dirty = true
	if err := s.tx.UpdateTask(m); err != nil {
		return err
	}
	s.log.Debug("promoted overridden instant to rdate", "master", m.ID, "original_time", occ)
	s.noteTask(m)
	return nil
}
