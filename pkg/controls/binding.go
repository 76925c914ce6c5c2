// Package controls binds interactive task widgets to the reconciliation
// protocol. Each control owns one reconcile.Controller for one task field,
// writes through a Writer and takes confirmations from the change stream.
package controls

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"tableflip.dev/taskmate/pkg/events"
	"tableflip.dev/taskmate/pkg/logging"
	"tableflip.dev/taskmate/pkg/reconcile"
	"tableflip.dev/taskmate/pkg/task"
)

// Writer persists a partial update. query.Source satisfies it.
type Writer interface {
	Update(ctx context.Context, id string, p task.Patch) (task.Task, error)
}

// Watcher streams confirmed task changes. query.Source satisfies it.
type Watcher interface {
	Watch(ctx context.Context) (<-chan events.TaskChangeMsg, error)
}

// Props is what a hosting screen hands to a control.
type Props struct {
	Task    task.Task
	Payload map[string]any
	// OnActionComplete runs once per user submission, before the write
	// completes. Drag steps never call it.
	OnActionComplete func(events.ActionResult)
}

// Deps are the collaborators shared by every control on a screen.
type Deps struct {
	Writer  Writer
	Changes Watcher
	Logger  *log.Logger
	Options []reconcile.Option
}

// field describes how one task field maps onto a controller value.
type field[V comparable] struct {
	action  string
	get     func(task.Task) V
	patch   func(V) task.Patch
	details func(V) map[string]any
}

// write is a submission waiting for the writer.
type write[V comparable] struct {
	ticket reconcile.Ticket
	value  V
}

type binding[V comparable] struct {
	taskID   string
	field    field[V]
	ctrl     *reconcile.Controller[V]
	writer   Writer
	onAction func(events.ActionResult)
	logger   *log.Logger

	// Writes go out one at a time. A submission made while a write is in
	// flight replaces any queued one, so the store sees submissions in order
	// and the last one lands last.
	mu      sync.Mutex
	queued  *write[V]
	writing bool

	// seen is the newest updatedAt fed to the controller. Confirmations
	// arrive both from write replies and from the change stream; an older
	// one must not overwrite a newer one.
	confirmMu sync.Mutex
	seen      time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func bind[V comparable](ctx context.Context, props Props, deps Deps, f field[V]) (*binding[V], error) {
	if props.Task.ID == "" {
		return nil, fmt.Errorf("controls: %s: task id is required", f.action)
	}
	if deps.Writer == nil {
		return nil, fmt.Errorf("controls: %s: a writer is required", f.action)
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	ctx, cancel := context.WithCancel(ctx)
	b := &binding[V]{
		taskID:   props.Task.ID,
		field:    f,
		ctrl:     reconcile.NewComparable(f.get(props.Task), deps.Options...),
		writer:   deps.Writer,
		onAction: props.OnActionComplete,
		logger:   logger.With("task", props.Task.ID, "control", f.action),
		ctx:      ctx,
		cancel:   cancel,
		seen:     props.Task.UpdatedAt.Time,
	}
	if deps.Changes != nil {
		ch, err := deps.Changes.Watch(ctx)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("controls: %s: watch: %w", f.action, err)
		}
		b.wg.Add(1)
		go b.follow(ch)
	}
	return b, nil
}

// follow feeds confirmations for this task into the controller.
func (b *binding[V]) follow(ch <-chan events.TaskChangeMsg) {
	defer b.wg.Done()
	for msg := range ch {
		if msg.Task.ID != b.taskID {
			continue
		}
		switch msg.Action {
		case events.ChangeCreate, events.ChangeUpdate:
			b.confirm(msg.Task)
		}
	}
}

// confirm feeds t to the controller unless a newer version of the task was
// already applied.
func (b *binding[V]) confirm(t task.Task) {
	b.confirmMu.Lock()
	defer b.confirmMu.Unlock()
	if t.UpdatedAt.Before(b.seen) {
		return
	}
	b.seen = t.UpdatedAt.Time
	b.ctrl.Confirm(b.field.get(t))
}

// submit runs the optimistic path: display, notify, then write.
func (b *binding[V]) submit(v V) reconcile.Ticket {
	ticket := b.ctrl.Submit(v)
	if ticket == 0 {
		return 0
	}
	if b.onAction != nil {
		b.onAction(events.ActionResult{ActionType: b.field.action, Details: b.field.details(v)})
	}

	b.mu.Lock()
	b.queued = &write[V]{ticket: ticket, value: v}
	start := !b.writing
	b.writing = true
	b.mu.Unlock()
	if start {
		b.wg.Add(1)
		go b.flush()
	}
	return ticket
}

// flush sends queued writes until none is left.
func (b *binding[V]) flush() {
	defer b.wg.Done()
	for {
		b.mu.Lock()
		w := b.queued
		b.queued = nil
		if w == nil {
			b.writing = false
			b.mu.Unlock()
			return
		}
		b.mu.Unlock()

		confirmed, err := b.writer.Update(b.ctx, b.taskID, b.field.patch(w.value))
		if err != nil {
			b.logger.Warn("write failed", "err", err)
			b.ctrl.Fail(w.ticket, err)
			continue
		}
		b.confirm(confirmed)
	}
}

// TaskID is the task this control edits.
func (b *binding[V]) TaskID() string { return b.taskID }

// Value is the value to render.
func (b *binding[V]) Value() V { return b.ctrl.Value() }

// State is the reconciliation phase.
func (b *binding[V]) State() reconcile.State { return b.ctrl.State() }

// Err is the last write failure.
func (b *binding[V]) Err() error { return b.ctrl.Err() }

// OnChange registers a redraw hook.
func (b *binding[V]) OnChange(fn func(V)) { b.ctrl.OnChange(fn) }

// Close unsubscribes and waits for in-flight writes.
func (b *binding[V]) Close() {
	b.ctrl.Close()
	b.cancel()
	b.wg.Wait()
}
