package query

import (
	"context"
	"fmt"

	"tableflip.dev/taskmate/pkg/api"
	"tableflip.dev/taskmate/pkg/events"
	"tableflip.dev/taskmate/pkg/store"
	"tableflip.dev/taskmate/pkg/task"
)

// Direct serves requests straight from the store.
type Direct struct {
	store *store.Store
}

var _ Source = (*Direct)(nil)

// NewDirect wraps st.
func NewDirect(st *store.Store) *Direct {
	return &Direct{store: st}
}

func (d *Direct) List(ctx context.Context) ([]task.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.store.List(), nil
}

func (d *Direct) Get(ctx context.Context, id string) (task.Task, error) {
	if err := ctx.Err(); err != nil {
		return task.Task{}, err
	}
	return d.store.Get(id)
}

func (d *Direct) Create(ctx context.Context, p task.Patch) (task.Task, error) {
	if err := ctx.Err(); err != nil {
		return task.Task{}, err
	}
	return d.store.Create(p)
}

func (d *Direct) Update(ctx context.Context, id string, p task.Patch) (task.Task, error) {
	if err := ctx.Err(); err != nil {
		return task.Task{}, err
	}
	return d.store.Update(id, p)
}

func (d *Direct) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !d.store.Delete(id) {
		return fmt.Errorf("%w: task %q", store.ErrNotFound, id)
	}
	return nil
}

func (d *Direct) Page(ctx context.Context, page, pageSize int) (Page, error) {
	items, err := d.List(ctx)
	if err != nil {
		return Page{}, err
	}
	return api.Paginate(items, page, pageSize), nil
}

func (d *Direct) Activities(ctx context.Context, id string) ([]task.Activity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.store.Activities(id)
}

func (d *Direct) AddActivity(ctx context.Context, id string, a task.Activity) (task.Task, error) {
	if err := ctx.Err(); err != nil {
		return task.Task{}, err
	}
	return d.store.AddActivity(id, a)
}

func (d *Direct) Watch(ctx context.Context) (<-chan events.TaskChangeMsg, error) {
	return d.store.Watch(ctx)
}
