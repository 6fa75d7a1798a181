// Package provider implements the transactional mutation core of the task
// store: validation, recurrence materialization, override resolution,
// detachment of individually closed occurrences and parent-relation upkeep.
//
// All mutations of one Apply call run inside a single storage transaction
// and either commit together or roll back together. Change notifications
// for the affected resource URIs are delivered only after a successful
// commit.
package provider
