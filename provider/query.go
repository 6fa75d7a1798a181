package provider

import (
	"context"

	"github.com/halfdot/taskstore/storage"
)

// Read helpers. Each runs in its own transaction so a reader observes one
// consistent committed state.

func (p *Provider) Task(ctx context.Context, id int64) (*storage.Task, error) {
	var out *storage.Task
	err := p.read(ctx, func(tx storage.Tx) error {
		var err error
		out, err = tx.Task(id)
		return err
	})
	return out, err
}

func (p *Provider) Tasks(ctx context.Context, q storage.TaskQuery) ([]*storage.Task, error) {
	var out []*storage.Task
	err := p.read(ctx, func(tx storage.Tx) error {
		var err error
		out, err = tx.Tasks(q)
		return err
	})
	return out, err
}

func (p *Provider) Instances(ctx context.Context, q storage.InstanceQuery) ([]*storage.Instance, error) {
	var out []*storage.Instance
	err := p.read(ctx, func(tx storage.Tx) error {
		var err error
		out, err = tx.Instances(q)
		return err
	})
	return out, err
}

func (p *Provider) List(ctx context.Context, id int64) (*storage.TaskList, error) {
	var out *storage.TaskList
	err := p.read(ctx, func(tx storage.Tx) error {
		var err error
		out, err = tx.List(id)
		return err
	})
	return out, err
}

func (p *Provider) Lists(ctx context.Context) ([]*storage.TaskList, error) {
	var out []*storage.TaskList
	err := p.read(ctx, func(tx storage.Tx) error {
		var err error
		out, err = tx.Lists()
		return err
	})
	return out, err
}

func (p *Provider) Properties(ctx context.Context, taskID int64) ([]*storage.Property, error) {
	var out []*storage.Property
	err := p.read(ctx, func(tx storage.Tx) error {
		var err error
		out, err = tx.Properties(taskID)
		return err
	})
	return out, err
}

func (p *Provider) read(ctx context.Context, fn func(storage.Tx) error) error {
	tx, err := p.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	return fn(tx)
}
