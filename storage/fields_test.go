package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFieldSet(t *testing.T) {
	s := NewFieldSet(FieldTitle, FieldStatus)
	assert.True(t, s.Has(FieldTitle))
	assert.True(t, s.Has(FieldStatus))
	assert.False(t, s.Has(FieldStart))

	s = s.With(FieldStart)
	assert.True(t, s.Has(FieldStart))

	assert.True(t, s.Intersects(RecurrenceFields))
	assert.False(t, NewFieldSet(FieldTitle).Intersects(RecurrenceFields))
	assert.True(t, AllFields.Has(FieldDirty))
}

func TestPatchApply(t *testing.T) {
	start := time.Date(2018, 1, 4, 12, 0, 0, 0, time.UTC)
	base := Task{ID: 7, ListID: 1, Title: "old", Start: &start, Status: StatusNeedsAction}

	patch := TaskPatch{
		Values: Task{Title: "new", Start: nil, Status: StatusCompleted},
		Set:    NewFieldSet(FieldTitle, FieldStart, FieldStatus),
	}
	got := patch.Apply(base)

	assert.Equal(t, "new", got.Title)
	assert.Nil(t, got.Start, "start was explicitly set to null")
	assert.Equal(t, StatusCompleted, got.Status)
	// untouched fields survive
	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, int64(1), got.ListID)
	// base is not aliased
	assert.NotNil(t, base.Start)
}

func TestPatchUpdated(t *testing.T) {
	start := time.Date(2018, 1, 4, 12, 0, 0, 0, time.UTC)
	base := Task{Title: "same", Start: &start, Status: StatusNeedsAction}

	tests := []struct {
		name  string
		patch TaskPatch
		field Field
		want  bool
	}{
		{
			name:  "absent field",
			patch: TaskPatch{Set: NewFieldSet(FieldStatus)},
			field: FieldTitle,
			want:  false,
		},
		{
			name: "present but equal",
			patch: TaskPatch{
				Values: Task{Title: "same"},
				Set:    NewFieldSet(FieldTitle),
			},
			field: FieldTitle,
			want:  false,
		},
		{
			name: "present and different",
			patch: TaskPatch{
				Values: Task{Title: "other"},
				Set:    NewFieldSet(FieldTitle),
			},
			field: FieldTitle,
			want:  true,
		},
		{
			name: "time set to null",
			patch: TaskPatch{
				Values: Task{Start: nil},
				Set:    NewFieldSet(FieldStart),
			},
			field: FieldStart,
			want:  true,
		},
		{
			name: "equal instant different pointer",
			patch: TaskPatch{
				Values: Task{Start: func() *time.Time { c := start; return &c }()},
				Set:    NewFieldSet(FieldStart),
			},
			field: FieldStart,
			want:  false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.patch.Updated(tt.field, &base))
		})
	}
}

func TestPatchUpdatedAny(t *testing.T) {
	base := Task{Title: "same", Status: StatusNeedsAction}

	p := TaskPatch{
		Values: Task{Title: "same", Status: StatusCompleted},
		Set:    NewFieldSet(FieldTitle, FieldStatus),
	}
	assert.True(t, p.UpdatedAny(AllFields, &base))
	assert.True(t, p.UpdatedAny(RecurrenceFields, &base))
	assert.False(t, p.UpdatedAny(NewFieldSet(FieldTitle), &base))
}

func TestTaskKindPredicates(t *testing.T) {
	start := time.Date(2018, 1, 4, 12, 0, 0, 0, time.UTC)
	masterID := int64(3)

	single := Task{Start: &start}
	assert.False(t, single.Recurring())
	assert.False(t, single.IsOverride())

	master := Task{Start: &start, RRule: "FREQ=DAILY;COUNT=5"}
	assert.True(t, master.Recurring())

	rdateMaster := Task{Due: &start, RDates: []time.Time{start}}
	assert.True(t, rdateMaster.Recurring())

	// recurrence fields without any anchor do not make a master
	floating := Task{RRule: "FREQ=DAILY"}
	assert.False(t, floating.Recurring())

	override := Task{Start: &start, RRule: "FREQ=DAILY", OriginalID: &masterID, OriginalTime: &start}
	assert.True(t, override.IsOverride())
	assert.False(t, override.Recurring())

	bySync := Task{OriginalSyncID: "abc"}
	assert.True(t, bySync.IsOverride())
}
