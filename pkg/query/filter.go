package query

import (
	"fmt"
	"strings"

	"tableflip.dev/taskmate/pkg/task"
	"tableflip.dev/taskmate/pkg/timeutil"
)

// StatusFilter is "all", "active", "completed" or a concrete status.
type StatusFilter string

const (
	StatusAll       StatusFilter = "all"
	StatusActive    StatusFilter = "active"
	StatusCompleted StatusFilter = "completed"
)

// ParseStatusFilter accepts the three groups or any status alias.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch v := StatusFilter(strings.ToLower(strings.TrimSpace(s))); v {
	case "", StatusAll:
		return StatusAll, nil
	case StatusActive, StatusCompleted:
		return v, nil
	}
	status, err := task.ParseStatus(s)
	if err != nil {
		return "", fmt.Errorf("query: status filter: %w", err)
	}
	return StatusFilter(status), nil
}

// Matches reports whether t passes the status filter.
func (f StatusFilter) Matches(t task.Task) bool {
	switch f {
	case "", StatusAll:
		return true
	case StatusActive:
		return t.IsActive()
	case StatusCompleted:
		return t.IsCompleted()
	default:
		return t.Status == task.Status(f)
	}
}

// Filter narrows a task list. The zero value matches everything.
type Filter struct {
	Status   StatusFilter
	Search   string
	Project  string
	Assignee string
	Tag      string
	// DueWithin keeps tasks due between today and today+window inclusive.
	DueWithin *timeutil.Window
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return (f.Status == "" || f.Status == StatusAll) && f.Search == "" &&
		f.Project == "" && f.Assignee == "" && f.Tag == "" && f.DueWithin == nil
}

// Match applies every set criterion to t.
func (f Filter) Match(t task.Task, today task.Date) bool {
	if !f.Status.Matches(t) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Title), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) {
			return false
		}
	}
	if f.Project != "" && !strings.EqualFold(t.Project, f.Project) {
		return false
	}
	if f.Assignee != "" && !strings.EqualFold(t.Assignee, f.Assignee) {
		return false
	}
	if f.Tag != "" && !t.HasTag(f.Tag) {
		return false
	}
	if f.DueWithin != nil {
		if t.DueDate == nil || !f.DueWithin.Contains(today.DaysUntil(*t.DueDate)) {
			return false
		}
	}
	return true
}

func (f Filter) apply(tasks []task.Task, today task.Date) []task.Task {
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t, today) {
			out = append(out, t)
		}
	}
	return out
}
