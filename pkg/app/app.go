package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tableflip.dev/taskmate/pkg/events"
	"tableflip.dev/taskmate/pkg/query"
	"tableflip.dev/taskmate/pkg/schedule"
	"tableflip.dev/taskmate/pkg/task"
)

// Service provides high-level task operations shared by the CLI and the MCP
// server. It wraps a query.Source so both modes behave the same.
type Service struct {
	Source query.Source
	// Now decides "today" for schedules; defaults to time.Now.
	Now func() time.Time
}

var ErrNoSource = errors.New("app: no source configured")

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Today is the calendar date used for classification.
func (s *Service) Today() task.Date {
	return task.DateOf(s.now())
}

func (s *Service) tasks(ctx context.Context) (*query.Tasks, error) {
	if s.Source == nil {
		return nil, ErrNoSource
	}
	q := query.NewTasks(s.Source, query.WithNow(s.now))
	if err := q.Refresh(ctx); err != nil {
		return nil, err
	}
	return q, nil
}

// List returns tasks matching filter in store order.
func (s *Service) List(ctx context.Context, filter query.Filter) ([]task.Task, error) {
	q, err := s.tasks(ctx)
	if err != nil {
		return nil, err
	}
	return q.List(filter), nil
}

// Page returns one page of tasks matching filter.
func (s *Service) Page(ctx context.Context, page, pageSize int, filter query.Filter) (query.Page, error) {
	if s.Source == nil {
		return query.Page{}, ErrNoSource
	}
	q := query.NewTasks(s.Source, query.WithNow(s.now))
	if !filter.IsZero() {
		if err := q.Refresh(ctx); err != nil {
			return query.Page{}, err
		}
	}
	return q.ListPaginated(ctx, page, pageSize, filter)
}

// Schedule groups tasks matching filter into schedule sections.
func (s *Service) Schedule(ctx context.Context, filter query.Filter) ([]schedule.Section, error) {
	q, err := s.tasks(ctx)
	if err != nil {
		return nil, err
	}
	return q.Sections(filter), nil
}

// Get fetches one task.
func (s *Service) Get(ctx context.Context, id string) (task.Task, error) {
	if s.Source == nil {
		return task.Task{}, ErrNoSource
	}
	return s.Source.Get(ctx, id)
}

// Add creates a task and records a creation activity.
func (s *Service) Add(ctx context.Context, p task.Patch) (task.Task, error) {
	if s.Source == nil {
		return task.Task{}, ErrNoSource
	}
	t, err := s.Source.Create(ctx, p)
	if err != nil {
		return task.Task{}, err
	}
	withFeed, err := s.Source.AddActivity(ctx, t.ID, task.Activity{Type: task.ActivityCreated, Message: "created"})
	if err != nil {
		return t, fmt.Errorf("app: recording creation of %q: %w", t.ID, err)
	}
	return withFeed, nil
}

// Set applies a partial update. Status changes are recorded in the
// activity feed.
func (s *Service) Set(ctx context.Context, id string, p task.Patch) (task.Task, error) {
	if s.Source == nil {
		return task.Task{}, ErrNoSource
	}
	if p.IsEmpty() {
		return task.Task{}, errors.New("app: nothing to update")
	}
	prev, err := s.Source.Get(ctx, id)
	if err != nil {
		return task.Task{}, err
	}
	next, err := s.Source.Update(ctx, id, p)
	if err != nil {
		return task.Task{}, err
	}
	if next.Status == prev.Status {
		return next, nil
	}
	msg := fmt.Sprintf("%s → %s", prev.Status, next.Status)
	withFeed, err := s.Source.AddActivity(ctx, id, task.Activity{Type: task.ActivityStatusChange, Message: msg})
	if err != nil {
		return next, fmt.Errorf("app: recording status change of %q: %w", id, err)
	}
	return withFeed, nil
}

// SetStatus moves a task to status.
func (s *Service) SetStatus(ctx context.Context, id string, status task.Status) (task.Task, error) {
	return s.Set(ctx, id, task.Patch{Status: &status})
}

// Complete marks a task done. Completing a done task is a no-op.
func (s *Service) Complete(ctx context.Context, id string) (task.Task, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return task.Task{}, err
	}
	if t.IsCompleted() {
		return t, nil
	}
	return s.SetStatus(ctx, id, task.Done)
}

// Delete removes a task permanently.
func (s *Service) Delete(ctx context.Context, id string) error {
	if s.Source == nil {
		return ErrNoSource
	}
	return s.Source.Delete(ctx, id)
}

// Comment appends a comment to the activity feed and returns the updated
// task.
func (s *Service) Comment(ctx context.Context, id, author, message string) (task.Task, error) {
	if s.Source == nil {
		return task.Task{}, ErrNoSource
	}
	if strings.TrimSpace(message) == "" {
		return task.Task{}, errors.New("app: comment message required")
	}
	return s.Source.AddActivity(ctx, id, task.Activity{Type: task.ActivityComment, Author: author, Message: message})
}

// Activities lists a task's feed, newest first.
func (s *Service) Activities(ctx context.Context, id string) ([]task.Activity, error) {
	if s.Source == nil {
		return nil, ErrNoSource
	}
	return s.Source.Activities(ctx, id)
}

// Watch subscribes to confirmed changes.
func (s *Service) Watch(ctx context.Context) (<-chan events.TaskChangeMsg, error) {
	if s.Source == nil {
		return nil, ErrNoSource
	}
	return s.Source.Watch(ctx)
}
