package provider

import "github.com/halfdot/taskstore/storage"

// syncParentRelation converges the relation properties of a task onto its
// parent id: exactly one parent relation while a parent is set, none
// otherwise. Sibling relations pointing at a reparented child are left
// alone, matching the upstream behavior.
func (s *session) syncParentRelation(t *storage.Task) error {
	props, err := s.tx.Properties(t.ID)
	if err != nil {
		return err
	}
	var parents []*storage.Property
	for _, p := range props {
		if p.Kind == storage.PropertyRelation && p.RelType == storage.RelTypeParent {
			parents = append(parents, p)
		}
	}

	if t.ParentID == nil {
		for _, p := range parents {
			if err := s.tx.DeleteProperty(p.ID); err != nil {
				return err
			}
		}
		return nil
	}

	parent, err := s.tx.Task(*t.ParentID)
	if err != nil {
		if storage.IsError(err, storage.ErrNotFound) {
			return invalidf("parent task %d does not exist", *t.ParentID)
		}
		return err
	}
	if parent.ListID != t.ListID {
		return invalidf("parent task %d belongs to another list", parent.ID)
	}

	var keep *storage.Property
	for _, p := range parents {
		if keep == nil {
			keep = p
			continue
		}
		if err := s.tx.DeleteProperty(p.ID); err != nil {
			return err
		}
	}
	if keep == nil {
		_, err := s.tx.InsertProperty(&storage.Property{
			TaskID:     t.ID,
			Kind:       storage.PropertyRelation,
			RelType:    storage.RelTypeParent,
			RelatedID:  &parent.ID,
			RelatedUID: parent.UID,
		})
		return err
	}
	if keep.RelatedID != nil && *keep.RelatedID == parent.ID && keep.RelatedUID == parent.UID {
		return nil
	}
	keep.RelatedID = &parent.ID
	keep.RelatedUID = parent.UID
	return s.tx.UpdateProperty(keep)
}

// adoptRelatedUID back-fills the row id into relation properties that so
// far reference the task by UID only, as happens when relations arrive from
// sync before the task itself.
func (s *session) adoptRelatedUID(t *storage.Task) error {
	if t.UID == "" {
		return nil
	}
	props, err := s.tx.RelationsToUID(t.UID)
	if err != nil {
		return err
	}
	for _, p := range props {
		if p.RelatedID != nil {
			continue
		}
		p.RelatedID = &t.ID
		if err := s.tx.UpdateProperty(p); err != nil {
			return err
		}
	}
	return nil
}
