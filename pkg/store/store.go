// Package store owns the authoritative in-memory task table. It is the single
// source of truth behind the request simulator and the direct query mode.
package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"tableflip.dev/taskmate/pkg/events"
	"tableflip.dev/taskmate/pkg/logging"
	"tableflip.dev/taskmate/pkg/task"
)

// Store is an in-memory table of tasks keyed by id. Every method is atomic
// with respect to the record it touches; nothing spans multiple tasks.
type Store struct {
	mu    sync.RWMutex
	tasks map[string]task.Task

	now    func() time.Time
	newID  func() string
	logger *log.Logger

	subs    map[int]chan events.TaskChangeMsg
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the server clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDs overrides the id generator.
func WithIDs(next func() string) Option {
	return func(s *Store) {
		if next != nil {
			s.newID = next
		}
	}
}

// WithLogger sets the logger used for dropped notifications.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a store seeded with the given tasks.
func New(seed []task.Task, opts ...Option) (*Store, error) {
	s := &Store{
		tasks:  make(map[string]task.Task),
		now:    time.Now,
		newID:  uuid.NewString,
		logger: logging.Discard(),
		subs:   make(map[int]chan events.TaskChangeMsg),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Seed(seed...); err != nil {
		return nil, err
	}
	return s, nil
}

// Seed inserts tasks that already carry their identity (fixtures). Missing ids
// and timestamps are filled in; a duplicate id is a conflict and nothing from
// the batch is inserted.
func (s *Store) Seed(tasks ...task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prepared, err := s.prepareLocked(tasks, s.tasks)
	if err != nil {
		return err
	}
	for _, t := range prepared {
		s.tasks[t.ID] = t
		s.emitLocked(events.TaskChangeMsg{Action: events.ChangeCreate, Task: t.Clone()})
	}
	return nil
}

// Reseed replaces the whole table, e.g. after the fixture directory changed.
func (s *Store) Reseed(tasks []task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prepared, err := s.prepareLocked(tasks, nil)
	if err != nil {
		return err
	}
	s.tasks = make(map[string]task.Task, len(prepared))
	for _, t := range prepared {
		s.tasks[t.ID] = t
	}
	s.emitLocked(events.TaskChangeMsg{Action: events.ChangeReset})
	for _, t := range sortTasks(s.snapshotLocked()) {
		s.emitLocked(events.TaskChangeMsg{Action: events.ChangeUpdate, Task: t})
	}
	return nil
}

func (s *Store) prepareLocked(tasks []task.Task, existing map[string]task.Task) ([]task.Task, error) {
	now := s.now().UTC()
	seen := make(map[string]struct{}, len(tasks))
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		t = t.Clone()
		t.Title = strings.TrimSpace(t.Title)
		if t.Title == "" {
			return nil, fmt.Errorf("store: seed task %q: %w", t.ID, task.ErrBlankTitle)
		}
		if t.ID == "" {
			t.ID = s.newID()
		}
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate task id %q", ErrConflict, t.ID)
		}
		if _, dup := existing[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate task id %q", ErrConflict, t.ID)
		}
		seen[t.ID] = struct{}{}
		if t.Status == "" {
			t.Status = task.Todo
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = task.At(now)
		}
		if t.UpdatedAt.Before(t.CreatedAt.Time) {
			t.UpdatedAt = t.CreatedAt
		}
		out = append(out, t)
	}
	return out, nil
}

// Get returns a copy of the task with id.
func (s *Store) Get(id string) (task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return task.Task{}, fmt.Errorf("%w: task %q", ErrNotFound, id)
	}
	return t.Clone(), nil
}

// List returns copies of every task ordered by creation time, then id.
func (s *Store) List() []task.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortTasks(s.snapshotLocked())
}

// Len returns the number of stored tasks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Create inserts a new task built from p. The store assigns the id and both
// timestamps; status defaults to todo.
func (s *Store) Create(p task.Patch) (task.Task, error) {
	if p.Title == nil {
		return task.Task{}, fmt.Errorf("store: create: %w", task.ErrBlankTitle)
	}
	if err := p.Validate(); err != nil {
		return task.Task{}, fmt.Errorf("store: create: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID()
	if _, dup := s.tasks[id]; dup {
		return task.Task{}, fmt.Errorf("%w: generated id %q already exists", ErrConflict, id)
	}
	now := task.At(s.now())
	t := p.Apply(task.Task{ID: id, Status: task.Todo})
	t.CreatedAt = now
	t.UpdatedAt = now
	s.tasks[id] = t
	s.emitLocked(events.TaskChangeMsg{Action: events.ChangeCreate, Task: t.Clone()})
	return t.Clone(), nil
}

// Update merges p into the task with id. Fields p leaves unset are never
// touched. updatedAt is always refreshed here and never moves backwards.
func (s *Store) Update(id string, p task.Patch) (task.Task, error) {
	if err := p.Validate(); err != nil {
		return task.Task{}, fmt.Errorf("store: update %q: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.tasks[id]
	if !ok {
		return task.Task{}, fmt.Errorf("%w: task %q", ErrNotFound, id)
	}
	next := p.Apply(prev)
	next.UpdatedAt = s.touchLocked(prev)
	s.tasks[id] = next
	s.emitLocked(events.TaskChangeMsg{Action: events.ChangeUpdate, Task: next.Clone(), Previous: ptr(prev.Clone())})
	return next.Clone(), nil
}

// Delete removes the task with id and reports whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.tasks[id]
	if !ok {
		return false
	}
	delete(s.tasks, id)
	s.emitLocked(events.TaskChangeMsg{Action: events.ChangeDelete, Task: prev.Clone()})
	return true
}

// AddActivity appends an activity to a task. A duplicate activity id is a
// conflict. Missing ids and timestamps are assigned by the store.
func (s *Store) AddActivity(taskID string, a task.Activity) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.tasks[taskID]
	if !ok {
		return task.Task{}, fmt.Errorf("%w: task %q", ErrNotFound, taskID)
	}
	if a.ID == "" {
		a.ID = s.newID()
	}
	for _, existing := range prev.Activities {
		if existing.ID == a.ID {
			return task.Task{}, fmt.Errorf("%w: activity %q already exists on task %q", ErrConflict, a.ID, taskID)
		}
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = task.At(s.now())
	}
	if a.Type == "" {
		a.Type = task.ActivityComment
	}
	next := prev.Clone()
	next.Activities = append(next.Activities, a)
	next.UpdatedAt = s.touchLocked(prev)
	s.tasks[taskID] = next
	s.emitLocked(events.TaskChangeMsg{Action: events.ChangeUpdate, Task: next.Clone(), Previous: ptr(prev.Clone())})
	return next.Clone(), nil
}

// Activities returns the activities of a task, newest first.
func (s *Store) Activities(taskID string) ([]task.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: task %q", ErrNotFound, taskID)
	}
	out := append([]task.Activity{}, t.Activities...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt.Time) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt.Time)
	})
	return out, nil
}

func (s *Store) touchLocked(prev task.Task) task.Timestamp {
	now := task.At(s.now())
	if now.Before(prev.UpdatedAt.Time) {
		return prev.UpdatedAt
	}
	return now
}

func (s *Store) snapshotLocked() []task.Task {
	out := make([]task.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t.Clone())
	}
	return out
}

func sortTasks(tasks []task.Task) []task.Task {
	sort.SliceStable(tasks, func(i, j int) bool {
		lt := tasks[i].CreatedAt.Time
		rt := tasks[j].CreatedAt.Time
		if lt.Equal(rt) {
			return tasks[i].ID < tasks[j].ID
		}
		return lt.Before(rt)
	})
	return tasks
}

func ptr[T any](v T) *T {
	return &v
}
