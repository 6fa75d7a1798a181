// Package ical converts task rows to and from iCalendar VTODO components,
// the wire form the sync layer exchanges. Overrides map to VTODOs carrying
// RECURRENCE-ID, parent links map to RELATED-TO.
package ical
