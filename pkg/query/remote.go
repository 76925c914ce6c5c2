package query

import (
	"context"

	"tableflip.dev/taskmate/pkg/api"
	"tableflip.dev/taskmate/pkg/events"
	"tableflip.dev/taskmate/pkg/store"
	"tableflip.dev/taskmate/pkg/task"
)

// remotePageSize is the page size List uses when walking the paging contract.
const remotePageSize = 50

// Remote serves requests through the request simulator. Errors are
// *api.Error values.
type Remote struct {
	sim *api.Simulator
	// confirmations come from the store the simulator writes to.
	changes *store.Store
}

var _ Source = (*Remote)(nil)

// NewRemote wraps sim. st provides the change stream.
func NewRemote(sim *api.Simulator, st *store.Store) *Remote {
	return &Remote{sim: sim, changes: st}
}

// List walks the pages while page*pageSize < total.
func (r *Remote) List(ctx context.Context) ([]task.Task, error) {
	var out []task.Task
	for page := 1; ; page++ {
		p, err := r.Page(ctx, page, remotePageSize)
		if err != nil {
			return nil, err
		}
		out = append(out, p.Items...)
		if !p.HasNext() {
			break
		}
	}
	if out == nil {
		out = []task.Task{}
	}
	return out, nil
}

func (r *Remote) Get(ctx context.Context, id string) (task.Task, error) {
	return r.sim.GetTask(ctx, id).Unwrap()
}

func (r *Remote) Create(ctx context.Context, p task.Patch) (task.Task, error) {
	return r.sim.CreateTask(ctx, p).Unwrap()
}

func (r *Remote) Update(ctx context.Context, id string, p task.Patch) (task.Task, error) {
	return r.sim.UpdateTask(ctx, id, p).Unwrap()
}

func (r *Remote) Delete(ctx context.Context, id string) error {
	return r.sim.DeleteTask(ctx, id).Err()
}

func (r *Remote) Page(ctx context.Context, page, pageSize int) (Page, error) {
	return r.sim.ListTasksPage(ctx, page, pageSize).Unwrap()
}

func (r *Remote) Activities(ctx context.Context, id string) ([]task.Activity, error) {
	return r.sim.ListActivities(ctx, id).Unwrap()
}

func (r *Remote) AddActivity(ctx context.Context, id string, a task.Activity) (task.Task, error) {
	return r.sim.AddActivity(ctx, id, a).Unwrap()
}

func (r *Remote) Watch(ctx context.Context) (<-chan events.TaskChangeMsg, error) {
	return r.changes.Watch(ctx)
}
