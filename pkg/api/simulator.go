// Package api simulates the task backend's HTTP surface on top of the
// in-memory store: every call waits a random latency, validates its input and
// answers with an HTTP-like status instead of a Go error.
package api

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"tableflip.dev/taskmate/pkg/logging"
	"tableflip.dev/taskmate/pkg/store"
	"tableflip.dev/taskmate/pkg/task"
)

// Latency is the closed interval a simulated request sleeps for.
type Latency struct {
	Min time.Duration
	Max time.Duration
}

// DefaultLatency matches a slow mobile connection.
var DefaultLatency = Latency{Min: 100 * time.Millisecond, Max: 300 * time.Millisecond}

// Simulator answers requests against a store with artificial latency.
type Simulator struct {
	store   *store.Store
	latency Latency
	rand    func(n int64) int64
	sleep   func(ctx context.Context, d time.Duration) error
	logger  *log.Logger
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithLatency sets the latency interval. Max below Min is raised to Min.
func WithLatency(l Latency) Option {
	return func(s *Simulator) {
		if l.Min < 0 {
			l.Min = 0
		}
		if l.Max < l.Min {
			l.Max = l.Min
		}
		s.latency = l
	}
}

// WithRand replaces the random source; fn returns a value in [0, n).
func WithRand(fn func(n int64) int64) Option {
	return func(s *Simulator) {
		if fn != nil {
			s.rand = fn
		}
	}
}

// WithSleep replaces the wait used for latency.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Simulator) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns a simulator backed by st.
func New(st *store.Store, opts ...Option) *Simulator {
	s := &Simulator{
		store:   st,
		latency: DefaultLatency,
		rand:    rand.Int64N,
		sleep:   sleepContext,
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Latency returns the configured interval.
func (s *Simulator) Latency() Latency {
	return s.latency
}

// ListTasks returns every task in store order.
func (s *Simulator) ListTasks(ctx context.Context) Result[[]task.Task] {
	return call(ctx, s, "list_tasks", func() Result[[]task.Task] {
		return success(StatusOK, s.store.List())
	})
}

// ListTasksPage is the paging contract used by the remote query mode.
func (s *Simulator) ListTasksPage(ctx context.Context, page, pageSize int) Result[Page] {
	return call(ctx, s, "list_tasks_page", func() Result[Page] {
		return success(StatusOK, Paginate(s.store.List(), page, pageSize))
	})
}

// GetTask fetches one task.
func (s *Simulator) GetTask(ctx context.Context, id string) Result[task.Task] {
	return call(ctx, s, "get_task", func() Result[task.Task] {
		t, err := s.store.Get(id)
		if err != nil {
			return fromStoreError[task.Task](id, err)
		}
		return success(StatusOK, t)
	})
}

// CreateTask inserts a task. A missing or blank title is a bad request.
func (s *Simulator) CreateTask(ctx context.Context, p task.Patch) Result[task.Task] {
	return call(ctx, s, "create_task", func() Result[task.Task] {
		if p.Title == nil || strings.TrimSpace(*p.Title) == "" {
			return failure[task.Task](StatusBadRequest, "Title is required")
		}
		if err := p.Validate(); err != nil {
			return failure[task.Task](StatusBadRequest, "%s", err)
		}
		t, err := s.store.Create(p)
		if err != nil {
			return fromStoreError[task.Task]("", err)
		}
		return success(StatusCreated, t)
	})
}

// UpdateTask merges p into the stored task.
func (s *Simulator) UpdateTask(ctx context.Context, id string, p task.Patch) Result[task.Task] {
	return call(ctx, s, "update_task", func() Result[task.Task] {
		if err := p.Validate(); err != nil {
			if errors.Is(err, task.ErrBlankTitle) {
				return failure[task.Task](StatusBadRequest, "Title cannot be empty")
			}
			return failure[task.Task](StatusBadRequest, "%s", err)
		}
		t, err := s.store.Update(id, p)
		if err != nil {
			return fromStoreError[task.Task](id, err)
		}
		return success(StatusOK, t)
	})
}

// DeleteTask removes a task.
func (s *Simulator) DeleteTask(ctx context.Context, id string) Result[struct{}] {
	return call(ctx, s, "delete_task", func() Result[struct{}] {
		if !s.store.Delete(id) {
			return notFound[struct{}](id)
		}
		return success(StatusNoContent, struct{}{})
	})
}

// ListActivities returns a task's activity feed, newest first.
func (s *Simulator) ListActivities(ctx context.Context, id string) Result[[]task.Activity] {
	return call(ctx, s, "list_activities", func() Result[[]task.Activity] {
		acts, err := s.store.Activities(id)
		if err != nil {
			return fromStoreError[[]task.Activity](id, err)
		}
		return success(StatusOK, acts)
	})
}

// AddActivity appends an activity and answers with the updated task.
// Reusing an activity id is a conflict.
func (s *Simulator) AddActivity(ctx context.Context, id string, a task.Activity) Result[task.Task] {
	return call(ctx, s, "add_activity", func() Result[task.Task] {
		if strings.TrimSpace(a.Message) == "" {
			return failure[task.Task](StatusBadRequest, "Activity message is required")
		}
		t, err := s.store.AddActivity(id, a)
		if err != nil {
			return fromStoreError[task.Task](id, err)
		}
		return success(StatusOK, t)
	})
}

// call runs fn after the simulated latency. Panics become 500s and a
// cancelled context during the wait fails the request without touching the
// store.
func call[T any](ctx context.Context, s *Simulator, op string, fn func() Result[T]) (res Result[T]) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = failure[T](StatusInternalError, "internal error: %v", r)
			s.logger.Error("request panicked", "op", op, "panic", r)
		}
		s.logger.Debug("request", "op", op, "status", int(res.Status), "latency", time.Since(start))
	}()

	if err := s.wait(ctx); err != nil {
		return failure[T](StatusInternalError, "%s", err)
	}
	return fn()
}

func (s *Simulator) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d := s.latency.Min
	if span := int64(s.latency.Max - s.latency.Min); span > 0 {
		d += time.Duration(s.rand(span + 1))
	}
	if d <= 0 {
		return nil
	}
	return s.sleep(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func notFound[T any](id string) Result[T] {
	return failure[T](StatusNotFound, "Task with id %q not found", id)
}

func fromStoreError[T any](id string, err error) Result[T] {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return notFound[T](id)
	case errors.Is(err, store.ErrConflict):
		return failure[T](StatusConflict, "%s", err)
	case errors.Is(err, task.ErrBlankTitle), errors.Is(err, task.ErrInvalidField):
		return failure[T](StatusBadRequest, "%s", err)
	default:
		return failure[T](StatusInternalError, "%s", err)
	}
}
