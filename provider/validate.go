package provider

import (
	"fmt"

	"github.com/halfdot/taskstore/recurrence"
	"github.com/halfdot/taskstore/storage"
)

// fields whose change requires re-materializing the instance set
var materializeFields = storage.RecurrenceFields.With(
	storage.FieldTimeZone, storage.FieldAllDay, storage.FieldDeleted,
	storage.FieldOriginalID, storage.FieldOriginalSyncID,
	storage.FieldOriginalTime, storage.FieldOriginalAllDay,
)

// fields carrying the override linkage
var linkageFields = storage.NewFieldSet(
	storage.FieldOriginalID, storage.FieldOriginalSyncID, storage.FieldOriginalTime,
)

func invalidf(format string, args ...any) error {
	return &storage.Error{Type: storage.ErrInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// normalizePatch canonicalizes the value forms that lack structural
// equality so later field comparisons are meaningful: the rule string is
// re-serialized and the date lists are sorted and deduplicated. Invalid
// values are rejected here.
func (s *session) normalizePatch(patch *storage.TaskPatch) error {
	v := &patch.Values
	if patch.Set.Has(storage.FieldRRule) && v.RRule != "" {
		c, err := recurrence.Canonical(v.RRule)
		if err != nil {
			s.log.Warn("rejecting malformed recurrence rule", "rrule", v.RRule, "error", err)
			return &storage.Error{Type: storage.ErrInvalidInput, Message: "malformed recurrence rule", Err: err}
		}
		v.RRule = c
	}
	if patch.Set.Has(storage.FieldRDates) {
		v.RDates = recurrence.SortedUnique(v.RDates)
	}
	if patch.Set.Has(storage.FieldExDates) {
		v.ExDates = recurrence.SortedUnique(v.ExDates)
	}
	if patch.Set.Has(storage.FieldStatus) && !v.Status.Valid() {
		return invalidf("invalid status %d", v.Status)
	}
	if patch.Set.Has(storage.FieldPercentComplete) && (v.PercentComplete < 0 || v.PercentComplete > 100) {
		return invalidf("percent complete %d out of range", v.PercentComplete)
	}
	return nil
}

// requireList verifies that the list id references an existing list.
func (s *session) requireList(id int64) error {
	if _, err := s.tx.List(id); err != nil {
		if storage.IsError(err, storage.ErrNotFound) {
			s.log.Warn("rejecting task with unknown list", "list_id", id)
			return &storage.Error{Type: storage.ErrInvalidInput, Message: fmt.Sprintf("list %d does not exist", id), Err: err}
		}
		return err
	}
	return nil
}
