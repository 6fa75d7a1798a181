// Package recurrence evaluates task recurrence: lazy iteration of the
// occurrence set RRULE ∪ RDATE − EXDATE, RFC 5545 date list parsing and
// formatting, and rule string rewriting (COUNT adjustment) used when a
// recurring master advances past a consumed occurrence.
package recurrence
