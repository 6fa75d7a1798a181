package storage

import "context"

// TaskQuery filters task rows. Nil members are ignored.
type TaskQuery struct {
	ListID  *int64
	Deleted *bool
	Status  *Status
}

// InstanceQuery filters instance rows. Nil members are ignored. MasterID
// matches instances owned by the task itself as well as instances owned by
// its non-deleted overrides. Results are ordered by original time, then row
// id.
type InstanceQuery struct {
	TaskID   *int64
	MasterID *int64
	Distance *int
}

// Gateway is the storage backend. All core operations run inside a single
// transaction obtained from Begin; the gateway serializes concurrent
// transactions.
type Gateway interface {
	Begin(ctx context.Context) (Tx, error)
	Close() error
}

// Tx is one storage transaction. Reads observe earlier writes of the same
// transaction.
type Tx interface {
	Commit() error
	Rollback() error

	// Task lists
	List(id int64) (*TaskList, error)
	Lists() ([]*TaskList, error)
	InsertList(l *TaskList) (int64, error)
	UpdateList(l *TaskList) error
	DeleteList(id int64) error

	// Tasks
	Task(id int64) (*Task, error)
	TaskBySyncID(syncID string) (*Task, error)
	Tasks(q TaskQuery) ([]*Task, error)
	InsertTask(t *Task) (int64, error)
	UpdateTask(t *Task) error
	DeleteTask(id int64) error
	// Overrides returns the non-deleted overrides of a master ordered by
	// original instance time.
	Overrides(masterID int64) ([]*Task, error)
	// PendingOverrides returns non-deleted overrides which carry the given
	// original sync id but no resolved original id yet.
	PendingOverrides(originalSyncID string) ([]*Task, error)
	// UnresolvedOverrides returns non-deleted overrides whose original id
	// is still unresolved.
	UnresolvedOverrides() ([]*Task, error)

	// Instances
	Instance(id int64) (*Instance, error)
	Instances(q InstanceQuery) ([]*Instance, error)
	InsertInstance(i *Instance) (int64, error)
	UpdateInstance(i *Instance) error
	DeleteInstance(id int64) error

	// Properties
	Properties(taskID int64) ([]*Property, error)
	RelationsTo(relatedID int64) ([]*Property, error)
	RelationsToUID(relatedUID string) ([]*Property, error)
	InsertProperty(p *Property) (int64, error)
	UpdateProperty(p *Property) error
	DeleteProperty(id int64) error
}
