// Package mcp provides the Model Context Protocol server integration for taskmate.
package mcp

import (
	"context"
	"errors"
	"strings"

	"tableflip.dev/taskmate/pkg/api"
	"tableflip.dev/taskmate/pkg/app"
	"tableflip.dev/taskmate/pkg/query"
	"tableflip.dev/taskmate/pkg/schedule"
	"tableflip.dev/taskmate/pkg/task"
	"tableflip.dev/taskmate/pkg/timeutil"
)

// Service adapts app.Service to the shapes the MCP tools and resources
// hand back to clients.
type Service struct {
	App *app.Service
}

var errNotConfigured = errors.New("task service is not configured")

// ListOptions narrows list_tasks. Page 0 returns everything.
type ListOptions struct {
	Status   string
	Bucket   string
	Search   string
	Project  string
	Assignee string
	Tag      string
	Within   string
	Page     int
	PageSize int
}

// CreateOptions captures the parameters used to create a task.
type CreateOptions struct {
	Title       string
	Description string
	Status      string
	Due         string
	Project     string
	Assignee    string
	Tags        []string
}

// UpdateOptions holds the optional fields of update_task. Nil pointers and
// empty strings leave the stored value alone.
type UpdateOptions struct {
	Title       *string
	Description *string
	Status      string
	Due         string
	Progress    *int
	Rating      *int
	Project     *string
	Assignee    *string
}

// TaskDTO is a transport-friendly projection of a task.
type TaskDTO struct {
	task.Task
	Bucket      schedule.Bucket `json:"bucket"`
	BucketTitle string          `json:"bucketTitle"`
	IsCompleted bool            `json:"isCompleted"`
	IsActive    bool            `json:"isActive"`
}

// TaskListDTO is the list_tasks payload.
type TaskListDTO struct {
	Tasks    []TaskDTO `json:"tasks"`
	Total    int       `json:"total"`
	Page     int       `json:"page,omitempty"`
	PageSize int       `json:"pageSize,omitempty"`
	LastPage int       `json:"lastPage,omitempty"`
	HasNext  bool      `json:"hasNext"`
}

// SectionDTO is one schedule bucket.
type SectionDTO struct {
	Bucket schedule.Bucket `json:"bucket"`
	Title  string          `json:"title"`
	Count  int             `json:"count"`
	Tasks  []TaskDTO       `json:"tasks"`
}

// NewService builds a service wrapper around the shared application service.
func NewService(a *app.Service) *Service {
	return &Service{App: a}
}

// ListTasks returns tasks matching opts, optionally one page at a time.
func (s *Service) ListTasks(ctx context.Context, opts ListOptions) (TaskListDTO, error) {
	if s.App == nil {
		return TaskListDTO{}, errNotConfigured
	}
	filter, err := buildFilter(opts)
	if err != nil {
		return TaskListDTO{}, err
	}
	var bucket schedule.Bucket
	if strings.TrimSpace(opts.Bucket) != "" {
		if bucket, err = schedule.ParseBucket(opts.Bucket); err != nil {
			return TaskListDTO{}, err
		}
	}

	tasks, err := s.App.List(ctx, filter)
	if err != nil {
		return TaskListDTO{}, err
	}
	today := s.App.Today()
	if bucket != "" {
		kept := tasks[:0]
		for _, t := range tasks {
			if schedule.Classify(t, today) == bucket {
				kept = append(kept, t)
			}
		}
		tasks = kept
	}

	if opts.Page <= 0 {
		return TaskListDTO{Tasks: s.toDTOs(tasks), Total: len(tasks)}, nil
	}
	page := api.Paginate(tasks, opts.Page, opts.PageSize)
	return TaskListDTO{
		Tasks:    s.toDTOs(page.Items),
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
		LastPage: page.LastPage(),
		HasNext:  page.HasNext(),
	}, nil
}

// TaskByID returns a single task.
func (s *Service) TaskByID(ctx context.Context, id string) (*TaskDTO, error) {
	if s.App == nil {
		return nil, errNotConfigured
	}
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("id is required")
	}
	t, err := s.App.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := s.toDTO(t)
	return &dto, nil
}

// CreateTask adds a task.
func (s *Service) CreateTask(ctx context.Context, opts CreateOptions) (*TaskDTO, error) {
	if s.App == nil {
		return nil, errNotConfigured
	}
	if strings.TrimSpace(opts.Title) == "" {
		return nil, errors.New("title is required")
	}
	p := task.Patch{Title: task.Ptr(opts.Title)}
	if opts.Description != "" {
		p.Description = task.Ptr(opts.Description)
	}
	if opts.Status != "" {
		status, err := task.ParseStatus(opts.Status)
		if err != nil {
			return nil, err
		}
		p.Status = &status
	}
	if opts.Due != "" {
		due, err := task.ParseDate(opts.Due)
		if err != nil {
			return nil, err
		}
		p.DueDate = &due
	}
	if opts.Project != "" {
		p.Project = task.Ptr(opts.Project)
	}
	if opts.Assignee != "" {
		p.Assignee = task.Ptr(opts.Assignee)
	}
	if len(opts.Tags) > 0 {
		p.Tags = opts.Tags
	}

	t, err := s.App.Add(ctx, p)
	if err != nil {
		return nil, err
	}
	dto := s.toDTO(t)
	return &dto, nil
}

// UpdateTask applies the fields set in opts.
func (s *Service) UpdateTask(ctx context.Context, id string, opts UpdateOptions) (*TaskDTO, error) {
	if s.App == nil {
		return nil, errNotConfigured
	}
	p := task.Patch{
		Title:       opts.Title,
		Description: opts.Description,
		Progress:    opts.Progress,
		Rating:      opts.Rating,
		Project:     opts.Project,
		Assignee:    opts.Assignee,
	}
	if opts.Status != "" {
		status, err := task.ParseStatus(opts.Status)
		if err != nil {
			return nil, err
		}
		p.Status = &status
	}
	if opts.Due != "" {
		due, err := task.ParseDate(opts.Due)
		if err != nil {
			return nil, err
		}
		p.DueDate = &due
	}

	t, err := s.App.Set(ctx, id, p)
	if err != nil {
		return nil, err
	}
	dto := s.toDTO(t)
	return &dto, nil
}

// CompleteTask marks a task done.
func (s *Service) CompleteTask(ctx context.Context, id string) (*TaskDTO, error) {
	if s.App == nil {
		return nil, errNotConfigured
	}
	t, err := s.App.Complete(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := s.toDTO(t)
	return &dto, nil
}

// DeleteTask removes a task.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	if s.App == nil {
		return errNotConfigured
	}
	return s.App.Delete(ctx, id)
}

// AddComment appends a comment to a task's feed and returns the task.
func (s *Service) AddComment(ctx context.Context, id, author, message string) (*TaskDTO, error) {
	if s.App == nil {
		return nil, errNotConfigured
	}
	t, err := s.App.Comment(ctx, id, author, message)
	if err != nil {
		return nil, err
	}
	dto := s.toDTO(t)
	return &dto, nil
}

// Activities lists a task's feed, newest first.
func (s *Service) Activities(ctx context.Context, id string) ([]task.Activity, error) {
	if s.App == nil {
		return nil, errNotConfigured
	}
	return s.App.Activities(ctx, id)
}

// Schedule groups matching tasks into the six buckets.
func (s *Service) Schedule(ctx context.Context, opts ListOptions) ([]SectionDTO, error) {
	if s.App == nil {
		return nil, errNotConfigured
	}
	filter, err := buildFilter(opts)
	if err != nil {
		return nil, err
	}
	sections, err := s.App.Schedule(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]SectionDTO, 0, len(sections))
	for _, sec := range sections {
		out = append(out, SectionDTO{
			Bucket: sec.Bucket,
			Title:  sec.Title,
			Count:  len(sec.Tasks),
			Tasks:  s.toDTOs(sec.Tasks),
		})
	}
	return out, nil
}

func buildFilter(opts ListOptions) (query.Filter, error) {
	status, err := query.ParseStatusFilter(opts.Status)
	if err != nil {
		return query.Filter{}, err
	}
	filter := query.Filter{
		Status:   status,
		Search:   opts.Search,
		Project:  opts.Project,
		Assignee: opts.Assignee,
		Tag:      opts.Tag,
	}
	if strings.TrimSpace(opts.Within) != "" {
		w, err := timeutil.ParseWindow(opts.Within)
		if err != nil {
			return query.Filter{}, err
		}
		filter.DueWithin = &w
	}
	return filter, nil
}

func (s *Service) toDTOs(tasks []task.Task) []TaskDTO {
	out := make([]TaskDTO, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, s.toDTO(t))
	}
	return out
}

func (s *Service) toDTO(t task.Task) TaskDTO {
	bucket := schedule.Classify(t, s.App.Today())
	return TaskDTO{
		Task:        t,
		Bucket:      bucket,
		BucketTitle: bucket.Title(),
		IsCompleted: t.IsCompleted(),
		IsActive:    t.IsActive(),
	}
}
