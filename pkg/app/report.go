package app

import (
	"context"
	"sort"
	"time"

	"tableflip.dev/taskmate/pkg/query"
	"tableflip.dev/taskmate/pkg/task"
)

// NoProject labels tasks without a project in reports.
const NoProject = "No project"

// ReportItem captures a completed task and when it was completed.
type ReportItem struct {
	Task        task.Task `json:"task"`
	CompletedAt time.Time `json:"completedAt"`
}

// ReportSection groups completed tasks by project.
type ReportSection struct {
	Project string       `json:"project"`
	Tasks   []ReportItem `json:"tasks"`
}

// ReportResult is a completed-tasks report for a time window.
type ReportResult struct {
	Since    time.Time       `json:"since"`
	Until    time.Time       `json:"until"`
	Sections []ReportSection `json:"sections"`
	Total    int             `json:"total"`
}

// Report returns tasks completed between the bounds, grouped by project.
func (s *Service) Report(ctx context.Context, since, until time.Time) (ReportResult, error) {
	if since.After(until) {
		since, until = until, since
	}
	all, err := s.List(ctx, query.Filter{Status: query.StatusCompleted})
	if err != nil {
		return ReportResult{}, err
	}

	grouped := make(map[string][]ReportItem)
	total := 0
	for _, t := range all {
		at := completedAt(t)
		if at.Before(since) || at.After(until) {
			continue
		}
		project := t.Project
		if project == "" {
			project = NoProject
		}
		grouped[project] = append(grouped[project], ReportItem{Task: t, CompletedAt: at})
		total++
	}

	projects := make([]string, 0, len(grouped))
	for p := range grouped {
		projects = append(projects, p)
	}
	sort.Strings(projects)

	sections := make([]ReportSection, 0, len(projects))
	for _, p := range projects {
		sections = append(sections, ReportSection{Project: p, Tasks: grouped[p]})
	}
	return ReportResult{Since: since, Until: until, Sections: sections, Total: total}, nil
}

// completedAt is the time of the latest status change, or updatedAt when
// the feed has none.
func completedAt(t task.Task) time.Time {
	var latest time.Time
	for _, a := range t.Activities {
		if a.Type == task.ActivityStatusChange && a.CreatedAt.After(latest) {
			latest = a.CreatedAt.Time
		}
	}
	if latest.IsZero() {
		return t.UpdatedAt.Time
	}
	return latest
}
