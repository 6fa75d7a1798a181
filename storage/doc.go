// Package storage defines the persistent data model of the task store: task
// lists, tasks (single, recurring master or override), materialized instance
// rows and auxiliary properties, together with the gateway interface that
// backends implement and the patch/write-set types mutations are expressed
// in.
package storage
