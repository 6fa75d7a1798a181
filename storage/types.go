package storage

import (
	"errors"
	"fmt"
	"time"
)

// Error types
type ErrorType string

const (
	ErrNotFound      ErrorType = "not_found"
	ErrAlreadyExists ErrorType = "already_exists"
	ErrInvalidInput  ErrorType = "invalid_input"
	ErrInconsistent  ErrorType = "inconsistent_state"
)

// Error represents a storage-related error
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsError reports whether err is a storage Error of the given type.
func IsError(err error, t ErrorType) bool {
	var se *Error
	return errors.As(err, &se) && se.Type == t
}

// Status is the task status enum. The integer values are part of the
// persisted column contract and must not be reordered.
type Status int

const (
	StatusNeedsAction Status = iota
	StatusInProcess
	StatusCompleted
	StatusCancelled
)

// Closed reports whether the status counts as closed (completed or cancelled).
func (s Status) Closed() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Valid reports whether s is one of the defined status values.
func (s Status) Valid() bool {
	return s >= StatusNeedsAction && s <= StatusCancelled
}

// TaskList is a task collection. Every task belongs to exactly one list.
type TaskList struct {
	ID    int64
	Name  string
	Color int
	Owner string
}

// Task is one row of the tasks table: a single task, a recurring master or
// an override (exception) replacing one occurrence of a master.
type Task struct {
	ID     int64
	ListID int64
	UID    string
	SyncID string

	Title       string
	Description string

	// Timing. Start and Due are absolute instants; TimeZone carries the
	// original zone name ("" means floating). AllDay tasks are pinned to
	// UTC.
	Start    *time.Time
	Due      *time.Time
	Duration *time.Duration
	TimeZone string
	AllDay   bool

	// Recurrence. RRule is an RFC 5545 rule string without the "RRULE:"
	// prefix. RDates and ExDates are kept in ascending order.
	RRule   string
	RDates  []time.Time
	ExDates []time.Time

	// Override linkage. A task with OriginalID or OriginalSyncID set
	// replaces the master occurrence at OriginalTime.
	OriginalID     *int64
	OriginalSyncID string
	OriginalTime   *time.Time
	OriginalAllDay bool

	ParentID *int64

	Status          Status
	PercentComplete int
	Deleted         bool
	Dirty           bool

	Created  time.Time
	Modified time.Time
}

// Closed reports whether the task status is completed or cancelled.
func (t *Task) Closed() bool {
	return t.Status.Closed()
}

// IsOverride reports whether the task replaces a single occurrence of a
// recurring master.
func (t *Task) IsOverride() bool {
	return t.OriginalID != nil || t.OriginalSyncID != ""
}

// Recurring reports whether the task is a recurring master: it carries a
// rule or extra dates, at least one of start/due, and is not itself an
// override.
func (t *Task) Recurring() bool {
	if t.IsOverride() {
		return false
	}
	if t.RRule == "" && len(t.RDates) == 0 {
		return false
	}
	return t.Start != nil || t.Due != nil
}

// AnchorTime returns the first present of Start and Due. The recurrence set
// of a master iterates from this instant.
func (t *Task) AnchorTime() *time.Time {
	if t.Start != nil {
		return t.Start
	}
	return t.Due
}

// Instance is one materialized occurrence row, always owned by exactly one
// task: the master for the expanded current occurrence, or an
// override/standalone task.
type Instance struct {
	ID     int64
	TaskID int64

	Start    *time.Time
	Due      *time.Time
	Duration *time.Duration

	// Timezone-normalized sort keys (milliseconds of the local wall-clock
	// rendering of start/due).
	StartSorting *int64
	DueSorting   *int64

	// OriginalTime is the canonical recurrence-set instant in unix
	// milliseconds, 0 for non-recurring tasks.
	OriginalTime int64

	// Distance is the rank among open occurrences: 0 is the current
	// occurrence, positive values are upcoming ones, -1 is any closed or
	// otherwise non-current occurrence.
	Distance int
}

// Property kinds.
const (
	PropertyRelation = "relation"
)

// Relation types within a relation property.
type RelType int

const (
	RelTypeParent RelType = iota
	RelTypeChild
	RelTypeSibling
)

// Property is an auxiliary row attached to a task. Currently only relation
// properties (parent/child/sibling links) are maintained.
type Property struct {
	ID         int64
	TaskID     int64
	Kind       string
	RelType    RelType
	RelatedID  *int64
	RelatedUID string
}
