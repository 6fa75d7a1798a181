package storage

import "fmt"

// ResourceURI identifies a collection or row for change notification
// purposes.
type ResourceURI string

const (
	URITaskLists ResourceURI = "taskstore:/tasklists"
	URITasks     ResourceURI = "taskstore:/tasks"
	URIInstances ResourceURI = "taskstore:/instances"
)

// URITaskList returns the URI of a single task list.
func URITaskList(id int64) ResourceURI {
	return ResourceURI(fmt.Sprintf("%s/%d", URITaskLists, id))
}

// URITask returns the URI of a single task.
func URITask(id int64) ResourceURI {
	return ResourceURI(fmt.Sprintf("%s/%d", URITasks, id))
}
