package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/halfdot/taskstore/recurrence"
	"github.com/halfdot/taskstore/storage"
)

// Tx implements storage.Tx on one *sql.Tx.
type Tx struct {
	tx *sql.Tx
}

func (t *Tx) Commit() error {
	return t.tx.Commit()
}

func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// Task lists

func (t *Tx) List(id int64) (*storage.TaskList, error) {
	row := t.tx.QueryRow(`SELECT id, name, color, owner FROM tasklists WHERE id = ?;`, id)
	l := &storage.TaskList{}
	if err := row.Scan(&l.ID, &l.Name, &l.Color, &l.Owner); err != nil {
		if err == sql.ErrNoRows {
			return nil, &storage.Error{Type: storage.ErrNotFound, Message: fmt.Sprintf("task list %d not found", id)}
		}
		return nil, err
	}
	return l, nil
}

func (t *Tx) Lists() ([]*storage.TaskList, error) {
	rows, err := t.tx.Query(`SELECT id, name, color, owner FROM tasklists ORDER BY id;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lists []*storage.TaskList
	for rows.Next() {
		l := &storage.TaskList{}
		if err := rows.Scan(&l.ID, &l.Name, &l.Color, &l.Owner); err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	return lists, rows.Err()
}

func (t *Tx) InsertList(l *storage.TaskList) (int64, error) {
	res, err := t.tx.Exec(`INSERT INTO tasklists (name, color, owner) VALUES (?, ?, ?);`, l.Name, l.Color, l.Owner)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	l.ID = id
	return id, nil
}

func (t *Tx) UpdateList(l *storage.TaskList) error {
	_, err := t.tx.Exec(`UPDATE tasklists SET name = ?, color = ?, owner = ? WHERE id = ?;`, l.Name, l.Color, l.Owner, l.ID)
	return err
}

func (t *Tx) DeleteList(id int64) error {
	_, err := t.tx.Exec(`DELETE FROM tasklists WHERE id = ?;`, id)
	return err
}

// Tasks

const taskColumns = `id, list_id, uid, sync_id, title, description, dtstart, due, duration, tz, is_allday,
	rrule, rdate, exdate, original_instance_id, original_instance_sync_id, original_instance_time,
	original_instance_allday, parent_id, status, percent_complete, deleted, dirty, created, modified`

func (t *Tx) Task(id int64) (*storage.Task, error) {
	row := t.tx.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?;`, id)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, &storage.Error{Type: storage.ErrNotFound, Message: fmt.Sprintf("task %d not found", id)}
	}
	return task, err
}

func (t *Tx) TaskBySyncID(syncID string) (*storage.Task, error) {
	row := t.tx.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE sync_id = ? AND deleted = 0 LIMIT 1;`, syncID)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, &storage.Error{Type: storage.ErrNotFound, Message: fmt.Sprintf("no task with sync id %q", syncID)}
	}
	return task, err
}

func (t *Tx) Tasks(q storage.TaskQuery) ([]*storage.Task, error) {
	where := []string{"1 = 1"}
	var args []any
	if q.ListID != nil {
		where = append(where, "list_id = ?")
		args = append(args, *q.ListID)
	}
	if q.Deleted != nil {
		where = append(where, "deleted = ?")
		args = append(args, boolInt(*q.Deleted))
	}
	if q.Status != nil {
		where = append(where, "status = ?")
		args = append(args, int(*q.Status))
	}
	return t.queryTasks(`SELECT `+taskColumns+` FROM tasks WHERE `+strings.Join(where, " AND ")+` ORDER BY id;`, args...)
}

func (t *Tx) InsertTask(task *storage.Task) (int64, error) {
	res, err := t.tx.Exec(`INSERT INTO tasks (list_id, uid, sync_id, title, description, dtstart, due, duration, tz, is_allday,
		rrule, rdate, exdate, original_instance_id, original_instance_sync_id, original_instance_time,
		original_instance_allday, parent_id, status, percent_complete, deleted, dirty, created, modified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		taskArgs(task)...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	task.ID = id
	return id, nil
}

func (t *Tx) UpdateTask(task *storage.Task) error {
	args := append(taskArgs(task), task.ID)
	_, err := t.tx.Exec(`UPDATE tasks SET list_id = ?, uid = ?, sync_id = ?, title = ?, description = ?, dtstart = ?, due = ?,
		duration = ?, tz = ?, is_allday = ?, rrule = ?, rdate = ?, exdate = ?, original_instance_id = ?,
		original_instance_sync_id = ?, original_instance_time = ?, original_instance_allday = ?, parent_id = ?,
		status = ?, percent_complete = ?, deleted = ?, dirty = ?, created = ?, modified = ?
		WHERE id = ?;`, args...)
	return err
}

func (t *Tx) DeleteTask(id int64) error {
	if _, err := t.tx.Exec(`DELETE FROM instances WHERE task_id = ?;`, id); err != nil {
		return err
	}
	if _, err := t.tx.Exec(`DELETE FROM properties WHERE task_id = ?;`, id); err != nil {
		return err
	}
	_, err := t.tx.Exec(`DELETE FROM tasks WHERE id = ?;`, id)
	return err
}

func (t *Tx) Overrides(masterID int64) ([]*storage.Task, error) {
	return t.queryTasks(`SELECT `+taskColumns+` FROM tasks
		WHERE original_instance_id = ? AND deleted = 0
		ORDER BY original_instance_time, id;`, masterID)
}

func (t *Tx) PendingOverrides(originalSyncID string) ([]*storage.Task, error) {
	return t.queryTasks(`SELECT `+taskColumns+` FROM tasks
		WHERE original_instance_sync_id = ? AND original_instance_id IS NULL AND deleted = 0
		ORDER BY id;`, originalSyncID)
}

func (t *Tx) UnresolvedOverrides() ([]*storage.Task, error) {
	return t.queryTasks(`SELECT ` + taskColumns + ` FROM tasks
		WHERE original_instance_id IS NULL AND original_instance_sync_id != '' AND deleted = 0
		ORDER BY id;`)
}

func (t *Tx) queryTasks(query string, args ...any) ([]*storage.Task, error) {
	rows, err := t.tx.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tasks []*storage.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// Instances

const instanceColumns = `id, task_id, instance_start, instance_due, instance_duration,
	instance_start_sorting, instance_due_sorting, instance_original_time, distance_from_current`

func (t *Tx) Instance(id int64) (*storage.Instance, error) {
	row := t.tx.QueryRow(`SELECT `+instanceColumns+` FROM instances WHERE id = ?;`, id)
	inst, err := scanInstance(row)
	if err == sql.ErrNoRows {
		return nil, &storage.Error{Type: storage.ErrNotFound, Message: fmt.Sprintf("instance %d not found", id)}
	}
	return inst, err
}

func (t *Tx) Instances(q storage.InstanceQuery) ([]*storage.Instance, error) {
	where := []string{"1 = 1"}
	var args []any
	if q.TaskID != nil {
		where = append(where, "task_id = ?")
		args = append(args, *q.TaskID)
	}
	if q.MasterID != nil {
		where = append(where, "(task_id = ? OR task_id IN (SELECT id FROM tasks WHERE original_instance_id = ? AND deleted = 0))")
		args = append(args, *q.MasterID, *q.MasterID)
	}
	if q.Distance != nil {
		where = append(where, "distance_from_current = ?")
		args = append(args, *q.Distance)
	}
	rows, err := t.tx.Query(`SELECT `+instanceColumns+` FROM instances WHERE `+strings.Join(where, " AND ")+
		` ORDER BY instance_original_time, id;`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var instances []*storage.Instance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}
	return instances, rows.Err()
}

func (t *Tx) InsertInstance(i *storage.Instance) (int64, error) {
	res, err := t.tx.Exec(`INSERT INTO instances (task_id, instance_start, instance_due, instance_duration,
		instance_start_sorting, instance_due_sorting, instance_original_time, distance_from_current)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?);`,
		i.TaskID, millis(i.Start), millis(i.Due), durMillis(i.Duration),
		nullInt(i.StartSorting), nullInt(i.DueSorting), i.OriginalTime, i.Distance)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	i.ID = id
	return id, nil
}

func (t *Tx) UpdateInstance(i *storage.Instance) error {
	_, err := t.tx.Exec(`UPDATE instances SET task_id = ?, instance_start = ?, instance_due = ?, instance_duration = ?,
		instance_start_sorting = ?, instance_due_sorting = ?, instance_original_time = ?, distance_from_current = ?
		WHERE id = ?;`,
		i.TaskID, millis(i.Start), millis(i.Due), durMillis(i.Duration),
		nullInt(i.StartSorting), nullInt(i.DueSorting), i.OriginalTime, i.Distance, i.ID)
	return err
}

func (t *Tx) DeleteInstance(id int64) error {
	_, err := t.tx.Exec(`DELETE FROM instances WHERE id = ?;`, id)
	return err
}

// Properties

const propertyColumns = `id, task_id, kind, rel_type, related_id, related_uid`

func (t *Tx) Properties(taskID int64) ([]*storage.Property, error) {
	return t.queryProperties(`SELECT `+propertyColumns+` FROM properties WHERE task_id = ? ORDER BY id;`, taskID)
}

func (t *Tx) RelationsTo(relatedID int64) ([]*storage.Property, error) {
	return t.queryProperties(`SELECT `+propertyColumns+` FROM properties
		WHERE kind = ? AND related_id = ? ORDER BY id;`, storage.PropertyRelation, relatedID)
}

func (t *Tx) RelationsToUID(relatedUID string) ([]*storage.Property, error) {
	return t.queryProperties(`SELECT `+propertyColumns+` FROM properties
		WHERE kind = ? AND related_uid = ? ORDER BY id;`, storage.PropertyRelation, relatedUID)
}

func (t *Tx) InsertProperty(p *storage.Property) (int64, error) {
	res, err := t.tx.Exec(`INSERT INTO properties (task_id, kind, rel_type, related_id, related_uid) VALUES (?, ?, ?, ?, ?);`,
		p.TaskID, p.Kind, int(p.RelType), nullInt(p.RelatedID), p.RelatedUID)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	p.ID = id
	return id, nil
}

func (t *Tx) UpdateProperty(p *storage.Property) error {
	_, err := t.tx.Exec(`UPDATE properties SET task_id = ?, kind = ?, rel_type = ?, related_id = ?, related_uid = ? WHERE id = ?;`,
		p.TaskID, p.Kind, int(p.RelType), nullInt(p.RelatedID), p.RelatedUID, p.ID)
	return err
}

func (t *Tx) DeleteProperty(id int64) error {
	_, err := t.tx.Exec(`DELETE FROM properties WHERE id = ?;`, id)
	return err
}

func (t *Tx) queryProperties(query string, args ...any) ([]*storage.Property, error) {
	rows, err := t.tx.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var props []*storage.Property
	for rows.Next() {
		p := &storage.Property{}
		var relType int
		var relatedID sql.NullInt64
		if err := rows.Scan(&p.ID, &p.TaskID, &p.Kind, &relType, &relatedID, &p.RelatedUID); err != nil {
			return nil, err
		}
		p.RelType = storage.RelType(relType)
		p.RelatedID = fromNullInt(relatedID)
		props = append(props, p)
	}
	return props, rows.Err()
}

// Row conversion

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*storage.Task, error) {
	task := &storage.Task{}
	var (
		dtstart, due, duration, originalID, originalTime, parentID sql.NullInt64
		tz                                                         sql.NullString
		isAllDay, originalAllDay, status, deleted, dirty           int
		rdate, exdate                                              string
		created, modified                                          int64
	)
	err := row.Scan(&task.ID, &task.ListID, &task.UID, &task.SyncID, &task.Title, &task.Description,
		&dtstart, &due, &duration, &tz, &isAllDay, &task.RRule, &rdate, &exdate,
		&originalID, &task.OriginalSyncID, &originalTime, &originalAllDay, &parentID,
		&status, &task.PercentComplete, &deleted, &dirty, &created, &modified)
	if err != nil {
		return nil, err
	}
	task.Start = fromMillis(dtstart)
	task.Due = fromMillis(due)
	task.Duration = durFromMillis(duration)
	task.TimeZone = tz.String
	task.AllDay = isAllDay != 0
	task.OriginalID = fromNullInt(originalID)
	task.OriginalTime = fromMillis(originalTime)
	task.OriginalAllDay = originalAllDay != 0
	task.ParentID = fromNullInt(parentID)
	task.Status = storage.Status(status)
	task.Deleted = deleted != 0
	task.Dirty = dirty != 0
	task.Created = time.UnixMilli(created).UTC()
	task.Modified = time.UnixMilli(modified).UTC()
	if task.RDates, err = recurrence.ParseDateTimeList(rdate); err != nil {
		return nil, fmt.Errorf("task %d rdate: %w", task.ID, err)
	}
	if task.ExDates, err = recurrence.ParseDateTimeList(exdate); err != nil {
		return nil, fmt.Errorf("task %d exdate: %w", task.ID, err)
	}
	return task, nil
}

func taskArgs(task *storage.Task) []any {
	return []any{
		task.ListID, task.UID, task.SyncID, task.Title, task.Description,
		millis(task.Start), millis(task.Due), durMillis(task.Duration),
		nullString(task.TimeZone), boolInt(task.AllDay),
		task.RRule,
		recurrence.FormatDateTimeList(task.RDates, task.AllDay),
		recurrence.FormatDateTimeList(task.ExDates, task.AllDay),
		nullInt(task.OriginalID), task.OriginalSyncID, millis(task.OriginalTime), boolInt(task.OriginalAllDay),
		nullInt(task.ParentID), int(task.Status), task.PercentComplete,
		boolInt(task.Deleted), boolInt(task.Dirty),
		task.Created.UnixMilli(), task.Modified.UnixMilli(),
	}
}

func scanInstance(row scanner) (*storage.Instance, error) {
	inst := &storage.Instance{}
	var start, due, duration, startSorting, dueSorting sql.NullInt64
	err := row.Scan(&inst.ID, &inst.TaskID, &start, &due, &duration, &startSorting, &dueSorting,
		&inst.OriginalTime, &inst.Distance)
	if err != nil {
		return nil, err
	}
	inst.Start = fromMillis(start)
	inst.Due = fromMillis(due)
	inst.Duration = durFromMillis(duration)
	inst.StartSorting = fromNullInt(startSorting)
	inst.DueSorting = fromNullInt(dueSorting)
	return inst, nil
}

func millis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64).UTC()
	return &t
}

func durMillis(d *time.Duration) sql.NullInt64 {
	if d == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: d.Milliseconds(), Valid: true}
}

func durFromMillis(v sql.NullInt64) *time.Duration {
	if !v.Valid {
		return nil
	}
	d := time.Duration(v.Int64) * time.Millisecond
	return &d
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func fromNullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	i := v.Int64
	return &i
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
