package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/halfdot/taskstore/storage"
)

// Options configures a Provider. Zero values select sensible defaults.
type Options struct {
	// Logger receives materialization decisions at debug level and
	// rejected input at warn level. Defaults to slog.Default().
	Logger *slog.Logger

	// Now supplies the transaction time used for created/modified stamps
	// and current-occurrence ranking. Defaults to time.Now.
	Now func() time.Time

	// Location is the timezone the instance sorting columns are computed
	// in. Defaults to time.UTC.
	Location *time.Location

	// OnChange, if set, is invoked after every successfully committed
	// transaction with the deduplicated set of affected resource URIs.
	OnChange func([]storage.ResourceURI)
}

// Provider is the mutation core over one storage gateway.
type Provider struct {
	store    storage.Gateway
	log      *slog.Logger
	now      func() time.Time
	loc      *time.Location
	onChange func([]storage.ResourceURI)
}

// New returns a Provider over the given gateway.
func New(store storage.Gateway, opts Options) *Provider {
	p := &Provider{
		store:    store,
		log:      opts.Logger,
		now:      opts.Now,
		loc:      opts.Location,
		onChange: opts.OnChange,
	}
	if p.log == nil {
		p.log = slog.Default()
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.loc == nil {
		p.loc = time.UTC
	}
	return p
}

// InsertResult carries the row id assigned to an insert operation. The ID
// is valid once the batch has been applied.
type InsertResult struct {
	ID int64
}

// Batch is an ordered list of mutations applied inside one transaction.
// Later operations observe the effects of earlier ones.
type Batch struct {
	ops []func(*session) error
}

// NewBatch returns an empty batch.
func NewBatch() *Batch {
	return &Batch{}
}

func (b *Batch) InsertList(l storage.TaskList) *InsertResult {
	res := &InsertResult{}
	b.ops = append(b.ops, func(s *session) error {
		id, err := s.insertList(l)
		res.ID = id
		return err
	})
	return res
}

func (b *Batch) UpdateList(l storage.TaskList) {
	b.ops = append(b.ops, func(s *session) error {
		return s.updateList(l)
	})
}

func (b *Batch) DeleteList(id int64) {
	b.ops = append(b.ops, func(s *session) error {
		return s.deleteList(id)
	})
}

func (b *Batch) InsertTask(patch storage.TaskPatch) *InsertResult {
	res := &InsertResult{}
	b.ops = append(b.ops, func(s *session) error {
		id, err := s.insertTask(patch)
		res.ID = id
		return err
	})
	return res
}

func (b *Batch) UpdateTask(id int64, patch storage.TaskPatch) {
	b.ops = append(b.ops, func(s *session) error {
		return s.updateTask(id, patch)
	})
}

func (b *Batch) DeleteTask(id int64) {
	b.ops = append(b.ops, func(s *session) error {
		return s.deleteTask(id)
	})
}

// InsertInstance is always rejected: instance rows are derived from task
// rows, never created by callers.
func (b *Batch) InsertInstance(_ storage.Instance) {
	b.ops = append(b.ops, func(s *session) error {
		s.log.Warn("rejecting direct instance insert")
		return &storage.Error{
			Type:    storage.ErrInvalidInput,
			Message: "instances are derived rows, mutate tasks instead",
		}
	})
}

// UpdateInstances applies patch to every matched instance, interpreted as
// an occurrence-level mutation of the owning task. Closing the current
// occurrence of a recurring master detaches it.
func (b *Batch) UpdateInstances(q storage.InstanceQuery, patch storage.TaskPatch) {
	b.ops = append(b.ops, func(s *session) error {
		return s.updateInstances(q, patch)
	})
}

// DeleteInstances deletes every matched instance, interpreted as removal of
// the occurrence: overrides are deleted with an EXDATE recorded on their
// master, a master's current occurrence is excluded and the master
// advanced, and a plain task is marked deleted.
func (b *Batch) DeleteInstances(q storage.InstanceQuery) {
	b.ops = append(b.ops, func(s *session) error {
		return s.deleteInstances(q)
	})
}

// Apply runs the batch inside one transaction. On any error the whole
// transaction is rolled back and no notification is emitted.
func (p *Provider) Apply(ctx context.Context, b *Batch) error {
	tx, err := p.store.Begin(ctx)
	if err != nil {
		return err
	}
	s := &session{
		tx:    tx,
		log:   p.log,
		now:   p.now().UTC(),
		loc:   p.loc,
		notes: newNotifications(),
	}
	for _, op := range b.ops {
		if err := op(s); err != nil {
			tx.Rollback()
			return err
		}
	}
	unresolved, err := tx.UnresolvedOverrides()
	if err != nil {
		tx.Rollback()
		return err
	}
	if len(unresolved) > 0 {
		tx.Rollback()
		return &storage.Error{
			Type:    storage.ErrInconsistent,
			Message: fmt.Sprintf("%d override(s) reference a master that does not exist", len(unresolved)),
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	if p.onChange != nil && len(s.notes.uris) > 0 {
		p.onChange(s.notes.list())
	}
	return nil
}

// Convenience single-operation wrappers.

func (p *Provider) InsertList(ctx context.Context, l storage.TaskList) (int64, error) {
	b := NewBatch()
	res := b.InsertList(l)
	if err := p.Apply(ctx, b); err != nil {
		return 0, err
	}
	return res.ID, nil
}

func (p *Provider) InsertTask(ctx context.Context, patch storage.TaskPatch) (int64, error) {
	b := NewBatch()
	res := b.InsertTask(patch)
	if err := p.Apply(ctx, b); err != nil {
		return 0, err
	}
	return res.ID, nil
}

func (p *Provider) UpdateTask(ctx context.Context, id int64, patch storage.TaskPatch) error {
	b := NewBatch()
	b.UpdateTask(id, patch)
	return p.Apply(ctx, b)
}

func (p *Provider) DeleteTask(ctx context.Context, id int64) error {
	b := NewBatch()
	b.DeleteTask(id)
	return p.Apply(ctx, b)
}

func (p *Provider) UpdateInstances(ctx context.Context, q storage.InstanceQuery, patch storage.TaskPatch) error {
	b := NewBatch()
	b.UpdateInstances(q, patch)
	return p.Apply(ctx, b)
}

func (p *Provider) DeleteInstances(ctx context.Context, q storage.InstanceQuery) error {
	b := NewBatch()
	b.DeleteInstances(q)
	return p.Apply(ctx, b)
}

// session is the per-transaction state shared by all operations of one
// Apply call.
type session struct {
	tx    storage.Tx
	log   *slog.Logger
	now   time.Time
	loc   *time.Location
	notes *notifications
}

func (s *session) noteList(id int64) {
	s.notes.add(storage.URITaskLists, storage.URITaskList(id))
}

func (s *session) noteTask(t *storage.Task) {
	s.notes.add(storage.URITasks, storage.URITask(t.ID), storage.URIInstances, storage.URITaskList(t.ListID))
}

// List operations

func (s *session) insertList(l storage.TaskList) (int64, error) {
	if l.Name == "" {
		return 0, &storage.Error{Type: storage.ErrInvalidInput, Message: "task list requires a name"}
	}
	id, err := s.tx.InsertList(&l)
	if err != nil {
		return 0, err
	}
	s.noteList(id)
	return id, nil
}

func (s *session) updateList(l storage.TaskList) error {
	cur, err := s.tx.List(l.ID)
	if err != nil {
		return err
	}
	if *cur == l {
		return nil
	}
	if err := s.tx.UpdateList(&l); err != nil {
		return err
	}
	s.noteList(l.ID)
	return nil
}

// deleteList removes the list together with the tasks it owns.
func (s *session) deleteList(id int64) error {
	if _, err := s.tx.List(id); err != nil {
		return err
	}
	tasks, err := s.tx.Tasks(storage.TaskQuery{ListID: &id})
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if err := s.tx.DeleteTask(t.ID); err != nil {
			return err
		}
		s.noteTask(t)
	}
	if err := s.tx.DeleteList(id); err != nil {
		return err
	}
	s.noteList(id)
	return nil
}
