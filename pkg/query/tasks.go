package query

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"tableflip.dev/taskmate/pkg/api"
	"tableflip.dev/taskmate/pkg/logging"
	"tableflip.dev/taskmate/pkg/schedule"
	"tableflip.dev/taskmate/pkg/task"
)

// Tasks is the facade screens read from. It caches the last full load so the
// derived views are cheap, and remembers the last read failure so a screen
// can offer a retry.
type Tasks struct {
	src    Source
	now    func() time.Time
	logger *log.Logger

	mu     sync.RWMutex
	tasks  []task.Task
	err    error
	loaded bool
}

// TasksOption configures the facade.
type TasksOption func(*Tasks)

// WithNow sets the clock that decides "today".
func WithNow(now func() time.Time) TasksOption {
	return func(t *Tasks) {
		if now != nil {
			t.now = now
		}
	}
}

// WithLogger sets the facade logger.
func WithLogger(l *log.Logger) TasksOption {
	return func(t *Tasks) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewTasks returns a facade over src. Call Refresh before reading.
func NewTasks(src Source, opts ...TasksOption) *Tasks {
	t := &Tasks{src: src, now: time.Now, logger: logging.Discard()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Source returns the underlying data source.
func (q *Tasks) Source() Source {
	return q.src
}

// Today is the calendar date used for classification.
func (q *Tasks) Today() task.Date {
	return task.DateOf(q.now())
}

// Refresh reloads every task. On failure the previous snapshot is kept and
// the error is returned and remembered.
func (q *Tasks) Refresh(ctx context.Context) error {
	tasks, err := q.src.List(ctx)
	q.mu.Lock()
	defer q.mu.Unlock()
	q.err = err
	if err != nil {
		q.logger.Warn("refresh failed", "err", err)
		return fmt.Errorf("query: refresh: %w", err)
	}
	q.tasks = tasks
	q.loaded = true
	return nil
}

// Err is the last read failure, or nil.
func (q *Tasks) Err() error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.err
}

// Loaded reports whether a Refresh has succeeded.
func (q *Tasks) Loaded() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.loaded
}

func (q *Tasks) snapshot() []task.Task {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make([]task.Task, len(q.tasks))
	for i, t := range q.tasks {
		out[i] = t.Clone()
	}
	return out
}

// List returns the cached tasks matching filter, in store order.
func (q *Tasks) List(filter Filter) []task.Task {
	return filter.apply(q.snapshot(), q.Today())
}

// ListPaginated returns one page. An empty filter uses the source's own
// paging; otherwise the filtered snapshot is cut locally with the same
// rules.
func (q *Tasks) ListPaginated(ctx context.Context, page, pageSize int, filter Filter) (Page, error) {
	if filter.IsZero() {
		p, err := q.src.Page(ctx, page, pageSize)
		if err != nil {
			q.mu.Lock()
			q.err = err
			q.mu.Unlock()
			q.logger.Warn("page failed", "page", page, "err", err)
			return Page{}, fmt.Errorf("query: page %d: %w", page, err)
		}
		return p, nil
	}
	return api.Paginate(q.List(filter), page, pageSize), nil
}

// ByStatus is List with only a status filter.
func (q *Tasks) ByStatus(f StatusFilter) []task.Task {
	return q.List(Filter{Status: f})
}

// ByBucket returns the cached tasks classified into b.
func (q *Tasks) ByBucket(b schedule.Bucket) []task.Task {
	today := q.Today()
	var out []task.Task
	for _, t := range q.snapshot() {
		if got, ok := q.classify(t, today); ok && got == b {
			out = append(out, t)
		}
	}
	return out
}

// Sections groups the cached tasks matching filter into schedule sections.
func (q *Tasks) Sections(filter Filter) []schedule.Section {
	today := q.Today()
	var ok []task.Task
	for _, t := range filter.apply(q.snapshot(), today) {
		if _, good := q.classify(t, today); good {
			ok = append(ok, t)
		}
	}
	return schedule.Group(ok, today)
}

// classify never lets one bad task abort a render.
func (q *Tasks) classify(t task.Task, today task.Date) (b schedule.Bucket, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("classification failed, skipping task", "id", t.ID, "panic", r)
			b, ok = "", false
		}
	}()
	return schedule.Classify(t, today), true
}
