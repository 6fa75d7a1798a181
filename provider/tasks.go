package provider

import (
	"github.com/google/uuid"

	"github.com/halfdot/taskstore/storage"
)

func (s *session) insertTask(patch storage.TaskPatch) (int64, error) {
	if !patch.Set.Has(storage.FieldListID) {
		s.log.Warn("rejecting task insert without list id")
		return 0, invalidf("task insert requires a list id")
	}
	if err := s.requireList(patch.Values.ListID); err != nil {
		return 0, err
	}
	if err := s.normalizePatch(&patch); err != nil {
		return 0, err
	}

	t := patch.Apply(storage.Task{})
	if t.UID == "" {
		t.UID = uuid.NewString()
	}
	t.Created = s.now
	t.Modified = s.now
	if !patch.Set.Has(storage.FieldDirty) {
		t.Dirty = true
	}

	var master *storage.Task
	if t.IsOverride() {
		if t.OriginalTime == nil {
			return 0, invalidf("override requires an original instance time")
		}
		var err error
		master, err = s.resolveOverride(&t)
		if err != nil {
			return 0, err
		}
	}

	id, err := s.tx.InsertTask(&t)
	if err != nil {
		return 0, err
	}
	s.log.Debug("inserted task", "id", id, "recurring", t.Recurring(), "override", t.IsOverride())

	if err := s.adoptRelatedUID(&t); err != nil {
		return 0, err
	}
	if t.SyncID != "" {
		if err := s.adoptPendingOverrides(&t); err != nil {
			return 0, err
		}
	}
	if t.ParentID != nil {
		if err := s.syncParentRelation(&t); err != nil {
			return 0, err
		}
	}
	if err := s.materializeTask(&t); err != nil {
		return 0, err
	}
	if master != nil {
		// the new override shadows one of the master's occurrences
		if err := s.rematerializeMaster(master.ID); err != nil {
			return 0, err
		}
	}
	s.noteTask(&t)
	return id, nil
}

func (s *session) updateTask(id int64, patch storage.TaskPatch) error {
	base, err := s.tx.Task(id)
	if err != nil {
		return err
	}
	if err := s.normalizePatch(&patch); err != nil {
		return err
	}
	if !patch.UpdatedAny(storage.AllFields, base) {
		s.log.Debug("skipping no-op task update", "id", id)
		return nil
	}
	if patch.Updated(storage.FieldListID, base) {
		if err := s.requireList(patch.Values.ListID); err != nil {
			return err
		}
	}

	next := patch.Apply(*base)
	next.Modified = s.now
	if !patch.Set.Has(storage.FieldDirty) {
		next.Dirty = true
	}

	var master *storage.Task
	if next.IsOverride() {
		if next.OriginalTime == nil {
			return invalidf("override requires an original instance time")
		}
		if patch.UpdatedAny(linkageFields, base) {
			master, err = s.resolveOverride(&next)
			if err != nil {
				return err
			}
		} else if next.OriginalID != nil {
			master, err = s.master(&next)
			if err != nil {
				return err
			}
		}
	}

	if err := s.tx.UpdateTask(&next); err != nil {
		return err
	}
	if patch.Updated(storage.FieldSyncID, base) && next.SyncID != "" && !next.IsOverride() {
		if err := s.adoptPendingOverrides(&next); err != nil {
			return err
		}
	}
	if patch.Updated(storage.FieldParentID, base) {
		if err := s.syncParentRelation(&next); err != nil {
			return err
		}
	}
	if patch.UpdatedAny(materializeFields, base) {
		if err := s.materializeTask(&next); err != nil {
			return err
		}
		if master != nil {
			if err := s.rematerializeMaster(master.ID); err != nil {
				return err
			}
		}
		// a cleared or moved linkage frees the instant on the previous master
		if prev := base.OriginalID; prev != nil && patch.UpdatedAny(linkageFields, base) &&
			(next.OriginalID == nil || *next.OriginalID != *prev) {
			if err := s.rematerializeMaster(*prev); err != nil {
				return err
			}
		}
	}
	s.noteTask(&next)
	return nil
}

// deleteTask removes the task row together with its instances and
// properties. Deleting a master removes its overrides as well; deleting an
// override frees the occurrence back to its master.
func (s *session) deleteTask(id int64) error {
	t, err := s.tx.Task(id)
	if err != nil {
		return err
	}
	if !t.IsOverride() {
		overrides, err := s.tx.Overrides(id)
		if err != nil {
			return err
		}
		for _, o := range overrides {
			if err := s.tx.DeleteTask(o.ID); err != nil {
				return err
			}
			s.noteTask(o)
		}
	}
	if err := s.tx.DeleteTask(id); err != nil {
		return err
	}
	if t.IsOverride() && t.OriginalID != nil {
		if err := s.rematerializeMaster(*t.OriginalID); err != nil {
			return err
		}
	}
	s.noteTask(t)
	return nil
}

// master loads the resolved master of an override.
func (s *session) master(o *storage.Task) (*storage.Task, error) {
	m, err := s.tx.Task(*o.OriginalID)
	if err != nil {
		if storage.IsError(err, storage.ErrNotFound) {
			return nil, &storage.Error{
				Type:    storage.ErrInconsistent,
				Message: "override references a master that does not exist",
				Err:     err,
			}
		}
		return nil, err
	}
	return m, nil
}

// rematerializeMaster reloads the master row and re-runs materialization
// so earlier writes of the same transaction are observed.
func (s *session) rematerializeMaster(id int64) error {
	m, err := s.tx.Task(id)
	if err != nil {
		if storage.IsError(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}
	s.noteTask(m)
	return s.materializeTask(m)
}
