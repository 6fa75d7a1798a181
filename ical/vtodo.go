package ical

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	ics "github.com/emersion/go-ical"

	"github.com/halfdot/taskstore/recurrence"
	"github.com/halfdot/taskstore/storage"
)

const prodID = "-//halfdot//taskstore//EN"

const (
	propRecurrenceID = "RECURRENCE-ID"
	propRelatedTo    = "RELATED-TO"
	propPercent      = "PERCENT-COMPLETE"
)

// TaskData couples a task row with linkage that is stored outside the row
// itself.
type TaskData struct {
	Task      storage.Task
	ParentUID string
}

// EncodeTask renders one task as a VTODO component.
func EncodeTask(d TaskData) *ics.Component {
	t := &d.Task
	c := ics.NewComponent(ics.CompToDo)
	c.Props.SetText(ics.PropUID, t.UID)
	if t.Title != "" {
		c.Props.SetText(ics.PropSummary, t.Title)
	}
	if t.Description != "" {
		c.Props.SetText(ics.PropDescription, t.Description)
	}
	c.Props.SetText(ics.PropStatus, statusText(t.Status))
	if t.PercentComplete > 0 {
		setRaw(c.Props, propPercent, strconv.Itoa(t.PercentComplete))
	}
	if t.Start != nil {
		setDateTime(c.Props, ics.PropDateTimeStart, *t.Start, t.AllDay)
	}
	switch {
	case t.Due != nil:
		setDateTime(c.Props, ics.PropDue, *t.Due, t.AllDay)
	case t.Duration != nil:
		setRaw(c.Props, ics.PropDuration, FormatDuration(*t.Duration))
	}
	if t.RRule != "" {
		setRaw(c.Props, ics.PropRecurrenceRule, t.RRule)
	}
	if len(t.RDates) > 0 {
		setDateList(c.Props, ics.PropRecurrenceDates, t.RDates, t.AllDay)
	}
	if len(t.ExDates) > 0 {
		setDateList(c.Props, ics.PropExceptionDates, t.ExDates, t.AllDay)
	}
	if t.OriginalTime != nil {
		setDateTime(c.Props, propRecurrenceID, *t.OriginalTime, t.OriginalAllDay)
	}
	if d.ParentUID != "" {
		c.Props[propRelatedTo] = []ics.Prop{{
			Name:   propRelatedTo,
			Value:  d.ParentUID,
			Params: ics.Params{"RELTYPE": []string{"PARENT"}},
		}}
	}
	c.Props.SetDateTime(ics.PropDateTimeStamp, t.Modified.UTC())
	return c
}

// DecodeTask reads one VTODO component back into a task row. The returned
// task carries no ids; binding it into a list is the caller's concern.
func DecodeTask(c *ics.Component) (TaskData, error) {
	if c.Name != ics.CompToDo {
		return TaskData{}, fmt.Errorf("expected %s component, got %s", ics.CompToDo, c.Name)
	}
	var d TaskData
	t := &d.Task

	t.UID = propText(c, ics.PropUID)
	t.Title = propText(c, ics.PropSummary)
	t.Description = propText(c, ics.PropDescription)
	t.Status = statusFromText(propText(c, ics.PropStatus))
	if p := c.Props.Get(propPercent); p != nil && p.Value != "" {
		n, err := strconv.Atoi(p.Value)
		if err != nil {
			return TaskData{}, fmt.Errorf("invalid percent-complete %q", p.Value)
		}
		t.PercentComplete = n
	}

	if p := c.Props.Get(ics.PropDateTimeStart); p != nil {
		v, allDay, err := recurrence.ParseDateTime(p.Value)
		if err != nil {
			return TaskData{}, err
		}
		t.Start = &v
		t.AllDay = allDay
	}
	if p := c.Props.Get(ics.PropDue); p != nil {
		v, allDay, err := recurrence.ParseDateTime(p.Value)
		if err != nil {
			return TaskData{}, err
		}
		t.Due = &v
		if t.Start == nil {
			t.AllDay = allDay
		}
	}
	if p := c.Props.Get(ics.PropDuration); p != nil {
		v, err := ParseDuration(p.Value)
		if err != nil {
			return TaskData{}, err
		}
		t.Duration = &v
	}

	if p := c.Props.Get(ics.PropRecurrenceRule); p != nil {
		t.RRule = p.Value
	}
	var err error
	if t.RDates, err = dateList(c, ics.PropRecurrenceDates); err != nil {
		return TaskData{}, err
	}
	if t.ExDates, err = dateList(c, ics.PropExceptionDates); err != nil {
		return TaskData{}, err
	}

	if p := c.Props.Get(propRecurrenceID); p != nil {
		v, allDay, err := recurrence.ParseDateTime(p.Value)
		if err != nil {
			return TaskData{}, err
		}
		t.OriginalTime = &v
		t.OriginalAllDay = allDay
	}

	for _, p := range c.Props[propRelatedTo] {
		relType := "PARENT"
		if vs := p.Params["RELTYPE"]; len(vs) > 0 {
			relType = strings.ToUpper(vs[0])
		}
		if relType == "PARENT" {
			d.ParentUID = p.Value
			break
		}
	}
	return d, nil
}

// EncodeCalendar wraps the tasks into one VCALENDAR.
func EncodeCalendar(tasks []TaskData) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.Props.SetText(ics.PropProductID, prodID)
	cal.Props.SetText(ics.PropVersion, "2.0")
	for _, d := range tasks {
		cal.Children = append(cal.Children, EncodeTask(d))
	}
	return cal
}

// DecodeCalendar extracts every VTODO of the calendar. Other component
// kinds are ignored.
func DecodeCalendar(cal *ics.Calendar) ([]TaskData, error) {
	var out []TaskData
	for _, child := range cal.Children {
		if child.Name != ics.CompToDo {
			continue
		}
		d, err := DecodeTask(child)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Write serializes the tasks as one iCalendar stream.
func Write(w io.Writer, tasks []TaskData) error {
	return ics.NewEncoder(w).Encode(EncodeCalendar(tasks))
}

// Read parses an iCalendar stream and returns its VTODOs.
func Read(r io.Reader) ([]TaskData, error) {
	cal, err := ics.NewDecoder(r).Decode()
	if err != nil {
		return nil, err
	}
	return DecodeCalendar(cal)
}

func setRaw(props ics.Props, name, value string) {
	p := ics.NewProp(name)
	p.Value = value
	props.Set(p)
}

func setDateTime(props ics.Props, name string, t time.Time, allDay bool) {
	p := ics.Prop{Name: name, Value: recurrence.FormatDateTime(t, allDay)}
	if allDay {
		p.Params = ics.Params{"VALUE": []string{"DATE"}}
	}
	props[name] = []ics.Prop{p}
}

func setDateList(props ics.Props, name string, ts []time.Time, allDay bool) {
	p := ics.Prop{Name: name, Value: recurrence.FormatDateTimeList(ts, allDay)}
	if allDay {
		p.Params = ics.Params{"VALUE": []string{"DATE"}}
	}
	props[name] = []ics.Prop{p}
}

func dateList(c *ics.Component, name string) ([]time.Time, error) {
	var out []time.Time
	for _, p := range c.Props[name] {
		ts, err := recurrence.ParseDateTimeList(p.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, ts...)
	}
	if out == nil {
		return nil, nil
	}
	return recurrence.SortedUnique(out), nil
}

func propText(c *ics.Component, name string) string {
	v, err := c.Props.Text(name)
	if err != nil {
		return ""
	}
	return v
}

func statusText(s storage.Status) string {
	switch s {
	case storage.StatusInProcess:
		return "IN-PROCESS"
	case storage.StatusCompleted:
		return "COMPLETED"
	case storage.StatusCancelled:
		return "CANCELLED"
	default:
		return "NEEDS-ACTION"
	}
}

func statusFromText(v string) storage.Status {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "IN-PROCESS":
		return storage.StatusInProcess
	case "COMPLETED":
		return storage.StatusCompleted
	case "CANCELLED":
		return storage.StatusCancelled
	default:
		return storage.StatusNeedsAction
	}
}
