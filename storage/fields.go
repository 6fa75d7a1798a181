package storage

import "time"

// Field identifies one settable task column. A mutation carries a FieldSet
// naming the columns present in the write-set, so "set to null" and "not
// part of this update" stay distinguishable.
type Field uint

const (
	FieldListID Field = iota
	FieldUID
	FieldSyncID
	FieldTitle
	FieldDescription
	FieldStart
	FieldDue
	FieldDuration
	FieldTimeZone
	FieldAllDay
	FieldRRule
	FieldRDates
	FieldExDates
	FieldOriginalID
	FieldOriginalSyncID
	FieldOriginalTime
	FieldOriginalAllDay
	FieldParentID
	FieldStatus
	FieldPercentComplete
	FieldDeleted
	FieldDirty
	numFields
)

// FieldSet is a bitset of Fields.
type FieldSet uint32

// NewFieldSet returns a set containing the given fields.
func NewFieldSet(fields ...Field) FieldSet {
	var s FieldSet
	for _, f := range fields {
		s |= 1 << f
	}
	return s
}

// Has reports whether f is in the set.
func (s FieldSet) Has(f Field) bool {
	return s&(1<<f) != 0
}

// With returns the set extended by the given fields.
func (s FieldSet) With(fields ...Field) FieldSet {
	return s | NewFieldSet(fields...)
}

// Intersects reports whether the two sets share any field.
func (s FieldSet) Intersects(other FieldSet) bool {
	return s&other != 0
}

// AllFields contains every settable field.
var AllFields = FieldSet(1<<numFields - 1)

// RecurrenceFields are the fields whose change requires re-materializing the
// instance set of the task.
var RecurrenceFields = NewFieldSet(
	FieldStart, FieldDue, FieldDuration,
	FieldRRule, FieldRDates, FieldExDates,
	FieldStatus,
)

// TaskPatch is a sparse overlay over a task row: Values holds the new
// column values, Set names which of them are part of the write-set.
type TaskPatch struct {
	Values Task
	Set    FieldSet
}

// Apply copies the patched fields onto base and returns the result.
func (p TaskPatch) Apply(base Task) Task {
	t := base
	v := p.Values
	if p.Set.Has(FieldListID) {
		t.ListID = v.ListID
	}
	if p.Set.Has(FieldUID) {
		t.UID = v.UID
	}
	if p.Set.Has(FieldSyncID) {
		t.SyncID = v.SyncID
	}
	if p.Set.Has(FieldTitle) {
		t.Title = v.Title
	}
	if p.Set.Has(FieldDescription) {
		t.Description = v.Description
	}
	if p.Set.Has(FieldStart) {
		t.Start = copyTime(v.Start)
	}
	if p.Set.Has(FieldDue) {
		t.Due = copyTime(v.Due)
	}
	if p.Set.Has(FieldDuration) {
		t.Duration = copyDuration(v.Duration)
	}
	if p.Set.Has(FieldTimeZone) {
		t.TimeZone = v.TimeZone
	}
	if p.Set.Has(FieldAllDay) {
		t.AllDay = v.AllDay
	}
	if p.Set.Has(FieldRRule) {
		t.RRule = v.RRule
	}
	if p.Set.Has(FieldRDates) {
		t.RDates = copyTimes(v.RDates)
	}
	if p.Set.Has(FieldExDates) {
		t.ExDates = copyTimes(v.ExDates)
	}
	if p.Set.Has(FieldOriginalID) {
		t.OriginalID = copyID(v.OriginalID)
	}
	if p.Set.Has(FieldOriginalSyncID) {
		t.OriginalSyncID = v.OriginalSyncID
	}
	if p.Set.Has(FieldOriginalTime) {
		t.OriginalTime = copyTime(v.OriginalTime)
	}
	if p.Set.Has(FieldOriginalAllDay) {
		t.OriginalAllDay = v.OriginalAllDay
	}
	if p.Set.Has(FieldParentID) {
		t.ParentID = copyID(v.ParentID)
	}
	if p.Set.Has(FieldStatus) {
		t.Status = v.Status
	}
	if p.Set.Has(FieldPercentComplete) {
		t.PercentComplete = v.PercentComplete
	}
	if p.Set.Has(FieldDeleted) {
		t.Deleted = v.Deleted
	}
	if p.Set.Has(FieldDirty) {
		t.Dirty = v.Dirty
	}
	return t
}

// Updated reports whether f is part of the write-set and its value differs
// from base. Rule strings should be canonicalized before the comparison
// since they lack structural equality.
func (p TaskPatch) Updated(f Field, base *Task) bool {
	if !p.Set.Has(f) {
		return false
	}
	if base == nil {
		return true
	}
	v := &p.Values
	switch f {
	case FieldListID:
		return v.ListID != base.ListID
	case FieldUID:
		return v.UID != base.UID
	case FieldSyncID:
		return v.SyncID != base.SyncID
	case FieldTitle:
		return v.Title != base.Title
	case FieldDescription:
		return v.Description != base.Description
	case FieldStart:
		return !equalTime(v.Start, base.Start)
	case FieldDue:
		return !equalTime(v.Due, base.Due)
	case FieldDuration:
		return !equalDuration(v.Duration, base.Duration)
	case FieldTimeZone:
		return v.TimeZone != base.TimeZone
	case FieldAllDay:
		return v.AllDay != base.AllDay
	case FieldRRule:
		return v.RRule != base.RRule
	case FieldRDates:
		return !equalTimes(v.RDates, base.RDates)
	case FieldExDates:
		return !equalTimes(v.ExDates, base.ExDates)
	case FieldOriginalID:
		return !equalID(v.OriginalID, base.OriginalID)
	case FieldOriginalSyncID:
		return v.OriginalSyncID != base.OriginalSyncID
	case FieldOriginalTime:
		return !equalTime(v.OriginalTime, base.OriginalTime)
	case FieldOriginalAllDay:
		return v.OriginalAllDay != base.OriginalAllDay
	case FieldParentID:
		return !equalID(v.ParentID, base.ParentID)
	case FieldStatus:
		return v.Status != base.Status
	case FieldPercentComplete:
		return v.PercentComplete != base.PercentComplete
	case FieldDeleted:
		return v.Deleted != base.Deleted
	case FieldDirty:
		return v.Dirty != base.Dirty
	}
	return false
}

// UpdatedAny reports whether any field of fs is updated relative to base.
func (p TaskPatch) UpdatedAny(fs FieldSet, base *Task) bool {
	for f := Field(0); f < numFields; f++ {
		if fs.Has(f) && p.Updated(f, base) {
			return true
		}
	}
	return false
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func copyDuration(d *time.Duration) *time.Duration {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

func copyTimes(ts []time.Time) []time.Time {
	if ts == nil {
		return nil
	}
	c := make([]time.Time, len(ts))
	copy(c, ts)
	return c
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func equalDuration(a, b *time.Duration) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalTimes(a, b []time.Time) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
