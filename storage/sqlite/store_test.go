package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halfdot/taskstore/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func begin(t *testing.T, s *Store) storage.Tx {
	t.Helper()
	tx, err := s.Begin(context.Background())
	require.NoError(t, err)
	return tx
}

func insertList(t *testing.T, tx storage.Tx, name string) int64 {
	t.Helper()
	id, err := tx.InsertList(&storage.TaskList{Name: name})
	require.NoError(t, err)
	return id
}

func TestOpenBootstrapsSchema(t *testing.T) {
	s := openTestStore(t)

	tx := begin(t, s)
	defer tx.Rollback()

	lists, err := tx.Lists()
	require.NoError(t, err)
	assert.Empty(t, lists)
}

func TestListCRUD(t *testing.T) {
	s := openTestStore(t)
	tx := begin(t, s)
	defer tx.Rollback()

	id := insertList(t, tx, "inbox")
	l, err := tx.List(id)
	require.NoError(t, err)
	assert.Equal(t, "inbox", l.Name)

	l.Name = "work"
	l.Color = 0xff0000
	require.NoError(t, tx.UpdateList(l))

	l, err = tx.List(id)
	require.NoError(t, err)
	assert.Equal(t, "work", l.Name)
	assert.Equal(t, 0xff0000, l.Color)

	require.NoError(t, tx.DeleteList(id))
	_, err = tx.List(id)
	assert.True(t, storage.IsError(err, storage.ErrNotFound))
}

func TestTaskRoundTrip(t *testing.T) {
	s := openTestStore(t)
	tx := begin(t, s)

	listID := insertList(t, tx, "inbox")
	start := time.Date(2018, 1, 4, 12, 34, 56, 0, time.UTC)
	due := start.Add(time.Hour)
	dur := 90 * time.Minute
	parent := int64(42)
	now := time.Date(2018, 1, 1, 8, 0, 0, 0, time.UTC)

	in := &storage.Task{
		ListID:          listID,
		UID:             "uid-1",
		SyncID:          "sync-1",
		Title:           "water plants",
		Description:     "the ficus too",
		Start:           &start,
		Due:             &due,
		Duration:        &dur,
		TimeZone:        "Europe/Berlin",
		RRule:           "FREQ=DAILY;COUNT=5",
		RDates:          []time.Time{start.AddDate(0, 0, 7)},
		ExDates:         []time.Time{start.AddDate(0, 0, 2)},
		ParentID:        &parent,
		Status:          storage.StatusInProcess,
		PercentComplete: 40,
		Dirty:           true,
		Created:         now,
		Modified:        now,
	}
	id, err := tx.InsertTask(in)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	tx = begin(t, s)
	defer tx.Rollback()
	got, err := tx.Task(id)
	require.NoError(t, err)

	assert.Equal(t, listID, got.ListID)
	assert.Equal(t, "uid-1", got.UID)
	assert.Equal(t, "sync-1", got.SyncID)
	assert.Equal(t, "water plants", got.Title)
	assert.Equal(t, "the ficus too", got.Description)
	require.NotNil(t, got.Start)
	assert.True(t, got.Start.Equal(start))
	require.NotNil(t, got.Due)
	assert.True(t, got.Due.Equal(due))
	require.NotNil(t, got.Duration)
	assert.Equal(t, dur, *got.Duration)
	assert.Equal(t, "Europe/Berlin", got.TimeZone)
	assert.Equal(t, "FREQ=DAILY;COUNT=5", got.RRule)
	require.Len(t, got.RDates, 1)
	assert.True(t, got.RDates[0].Equal(start.AddDate(0, 0, 7)))
	require.Len(t, got.ExDates, 1)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, parent, *got.ParentID)
	assert.Equal(t, storage.StatusInProcess, got.Status)
	assert.Equal(t, 40, got.PercentComplete)
	assert.True(t, got.Dirty)
	assert.True(t, got.Created.Equal(now))
}

func TestTaskQueries(t *testing.T) {
	s := openTestStore(t)
	tx := begin(t, s)
	defer tx.Rollback()

	now := time.Now().UTC()
	l1 := insertList(t, tx, "a")
	l2 := insertList(t, tx, "b")
	mk := func(list int64, status storage.Status, deleted bool) int64 {
		id, err := tx.InsertTask(&storage.Task{
			ListID: list, Status: status, Deleted: deleted, Created: now, Modified: now,
		})
		require.NoError(t, err)
		return id
	}
	mk(l1, storage.StatusNeedsAction, false)
	mk(l1, storage.StatusCompleted, false)
	mk(l2, storage.StatusNeedsAction, true)

	got, err := tx.Tasks(storage.TaskQuery{ListID: &l1})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	completed := storage.StatusCompleted
	got, err = tx.Tasks(storage.TaskQuery{Status: &completed})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	deleted := true
	got, err = tx.Tasks(storage.TaskQuery{Deleted: &deleted})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = tx.Tasks(storage.TaskQuery{})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestTaskBySyncID(t *testing.T) {
	s := openTestStore(t)
	tx := begin(t, s)
	defer tx.Rollback()

	listID := insertList(t, tx, "inbox")
	now := time.Now().UTC()
	id, err := tx.InsertTask(&storage.Task{ListID: listID, SyncID: "remote-9", Created: now, Modified: now})
	require.NoError(t, err)

	got, err := tx.TaskBySyncID("remote-9")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)

	_, err = tx.TaskBySyncID("missing")
	assert.True(t, storage.IsError(err, storage.ErrNotFound))
}

func TestOverrideQueries(t *testing.T) {
	s := openTestStore(t)
	tx := begin(t, s)
	defer tx.Rollback()

	listID := insertList(t, tx, "inbox")
	now := time.Now().UTC()
	masterID, err := tx.InsertTask(&storage.Task{ListID: listID, SyncID: "m-1", Created: now, Modified: now})
	require.NoError(t, err)

	t1 := time.Date(2018, 1, 5, 12, 0, 0, 0, time.UTC)
	t0 := t1.AddDate(0, 0, -1)
	// inserted out of time order on purpose
	_, err = tx.InsertTask(&storage.Task{
		ListID: listID, OriginalID: &masterID, OriginalTime: &t1, Created: now, Modified: now,
	})
	require.NoError(t, err)
	_, err = tx.InsertTask(&storage.Task{
		ListID: listID, OriginalID: &masterID, OriginalTime: &t0, Created: now, Modified: now,
	})
	require.NoError(t, err)
	pendingID, err := tx.InsertTask(&storage.Task{
		ListID: listID, OriginalSyncID: "m-1", OriginalTime: &t0, Created: now, Modified: now,
	})
	require.NoError(t, err)

	overrides, err := tx.Overrides(masterID)
	require.NoError(t, err)
	require.Len(t, overrides, 2)
	assert.True(t, overrides[0].OriginalTime.Equal(t0), "ordered by original time")

	pending, err := tx.PendingOverrides("m-1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, pendingID, pending[0].ID)

	unresolved, err := tx.UnresolvedOverrides()
	require.NoError(t, err)
	require.Len(t, unresolved, 1)
	assert.Equal(t, pendingID, unresolved[0].ID)
}

func TestInstanceQueries(t *testing.T) {
	s := openTestStore(t)
	tx := begin(t, s)
	defer tx.Rollback()

	listID := insertList(t, tx, "inbox")
	now := time.Now().UTC()
	masterID, err := tx.InsertTask(&storage.Task{ListID: listID, Created: now, Modified: now})
	require.NoError(t, err)
	occ := time.Date(2018, 1, 4, 12, 0, 0, 0, time.UTC)
	overrideID, err := tx.InsertTask(&storage.Task{
		ListID: listID, OriginalID: &masterID, OriginalTime: &occ, Created: now, Modified: now,
	})
	require.NoError(t, err)
	otherID, err := tx.InsertTask(&storage.Task{ListID: listID, Created: now, Modified: now})
	require.NoError(t, err)

	mkInst := func(taskID int64, originalTime int64, distance int) int64 {
		id, err := tx.InsertInstance(&storage.Instance{
			TaskID: taskID, OriginalTime: originalTime, Distance: distance,
		})
		require.NoError(t, err)
		return id
	}
	mkInst(masterID, occ.AddDate(0, 0, 1).UnixMilli(), 0)
	instOverride := mkInst(overrideID, occ.UnixMilli(), -1)
	mkInst(otherID, 0, 0)

	got, err := tx.Instances(storage.InstanceQuery{TaskID: &masterID})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	// master query spans the master and its overrides, ordered by
	// original time
	got, err = tx.Instances(storage.InstanceQuery{MasterID: &masterID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, instOverride, got[0].ID)

	zero := 0
	got, err = tx.Instances(storage.InstanceQuery{Distance: &zero})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// update and single read
	inst, err := tx.Instance(instOverride)
	require.NoError(t, err)
	inst.Distance = 3
	require.NoError(t, tx.UpdateInstance(inst))
	inst, err = tx.Instance(instOverride)
	require.NoError(t, err)
	assert.Equal(t, 3, inst.Distance)

	require.NoError(t, tx.DeleteInstance(instOverride))
	_, err = tx.Instance(instOverride)
	assert.True(t, storage.IsError(err, storage.ErrNotFound))
}

func TestDeleteTaskCascades(t *testing.T) {
	s := openTestStore(t)
	tx := begin(t, s)
	defer tx.Rollback()

	listID := insertList(t, tx, "inbox")
	now := time.Now().UTC()
	id, err := tx.InsertTask(&storage.Task{ListID: listID, Created: now, Modified: now})
	require.NoError(t, err)
	_, err = tx.InsertInstance(&storage.Instance{TaskID: id})
	require.NoError(t, err)
	_, err = tx.InsertProperty(&storage.Property{
		TaskID: id, Kind: storage.PropertyRelation, RelType: storage.RelTypeParent, RelatedUID: "u",
	})
	require.NoError(t, err)

	require.NoError(t, tx.DeleteTask(id))

	_, err = tx.Task(id)
	assert.True(t, storage.IsError(err, storage.ErrNotFound))
	insts, err := tx.Instances(storage.InstanceQuery{TaskID: &id})
	require.NoError(t, err)
	assert.Empty(t, insts)
	props, err := tx.Properties(id)
	require.NoError(t, err)
	assert.Empty(t, props)
}

func TestPropertyQueries(t *testing.T) {
	s := openTestStore(t)
	tx := begin(t, s)
	defer tx.Rollback()

	listID := insertList(t, tx, "inbox")
	now := time.Now().UTC()
	childID, err := tx.InsertTask(&storage.Task{ListID: listID, Created: now, Modified: now})
	require.NoError(t, err)
	parentID, err := tx.InsertTask(&storage.Task{ListID: listID, UID: "parent-uid", Created: now, Modified: now})
	require.NoError(t, err)

	propID, err := tx.InsertProperty(&storage.Property{
		TaskID:     childID,
		Kind:       storage.PropertyRelation,
		RelType:    storage.RelTypeParent,
		RelatedID:  &parentID,
		RelatedUID: "parent-uid",
	})
	require.NoError(t, err)

	byID, err := tx.RelationsTo(parentID)
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, propID, byID[0].ID)

	byUID, err := tx.RelationsToUID("parent-uid")
	require.NoError(t, err)
	require.Len(t, byUID, 1)

	byUID[0].RelatedUID = "other"
	require.NoError(t, tx.UpdateProperty(byUID[0]))
	got, err := tx.Properties(childID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "other", got[0].RelatedUID)

	require.NoError(t, tx.DeleteProperty(propID))
	got, err = tx.Properties(childID)
	require.NoError(t, err)
	assert.Empty(t, got)
}
