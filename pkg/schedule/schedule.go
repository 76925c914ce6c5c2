// Package schedule assigns tasks to the temporal sections of the schedule
// view. Classification is a pure function of the task and today's date.
package schedule

import (
	"fmt"
	"strings"

	"tableflip.dev/taskmate/pkg/task"
)

// Bucket is one of the six mutually exclusive schedule sections.
type Bucket string

const (
	Overdue  Bucket = "overdue"
	Today    Bucket = "today"
	ThisWeek Bucket = "thisWeek"
	NextWeek Bucket = "nextWeek"
	Later    Bucket = "later"
	NoDate   Bucket = "noDate"
)

// Buckets lists every bucket in display order.
func Buckets() []Bucket {
	return []Bucket{Overdue, Today, ThisWeek, NextWeek, Later, NoDate}
}

var bucketTitles = map[Bucket]string{
	Overdue:  "Overdue",
	Today:    "Today",
	ThisWeek: "This week",
	NextWeek: "Next week",
	Later:    "Later",
	NoDate:   "No date",
}

// Title returns the section heading for b.
func (b Bucket) Title() string {
	if t, ok := bucketTitles[b]; ok {
		return t
	}
	return string(b)
}

// ParseBucket resolves a bucket name, case-insensitively, accepting
// "this-week" / "this_week" style spellings.
func ParseBucket(s string) (Bucket, error) {
	key := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.TrimSpace(s)))
	for _, b := range Buckets() {
		if strings.ToLower(string(b)) == key {
			return b, nil
		}
	}
	return "", fmt.Errorf("schedule: unknown bucket %q", s)
}

// Classify maps t to exactly one bucket relative to today. Comparisons use
// calendar days only. A task already done is never overdue; a done task with
// a past due date falls through to Later.
func Classify(t task.Task, today task.Date) Bucket {
	if t.DueDate == nil || t.DueDate.IsZero() {
		return NoDate
	}
	due := *t.DueDate
	if due.Equal(today) {
		return Today
	}
	if due.Before(today) && t.Status != task.Done {
		return Overdue
	}
	switch diff := today.DaysUntil(due); {
	case diff >= 1 && diff <= 7:
		return ThisWeek
	case diff >= 8 && diff <= 14:
		return NextWeek
	default:
		return Later
	}
}

// Section is one bucket with its tasks, in input order.
type Section struct {
	Bucket Bucket      `json:"bucket"`
	Title  string      `json:"title"`
	Tasks  []task.Task `json:"tasks"`
}

// Group partitions tasks into sections in display order. Every bucket is
// present, possibly empty.
func Group(tasks []task.Task, today task.Date) []Section {
	index := make(map[Bucket]int, len(Buckets()))
	sections := make([]Section, 0, len(Buckets()))
	for i, b := range Buckets() {
		index[b] = i
		sections = append(sections, Section{Bucket: b, Title: b.Title(), Tasks: []task.Task{}})
	}
	for _, t := range tasks {
		i := index[Classify(t, today)]
		sections[i].Tasks = append(sections[i].Tasks, t)
	}
	return sections
}
