// Package task defines the Task record shared by the store, the request
// simulator, the query layer and the interactive controls.
package task

import (
	"strings"
)

// Task is the central entity. Optional fields are pointers so the zero value
// can be told apart from "unset".
type Task struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Description  string            `json:"description,omitempty"`
	Status       Status            `json:"status"`
	DueDate      *Date             `json:"dueDate,omitempty"`
	Progress     *int              `json:"progress,omitempty"`
	Rating       *int              `json:"rating,omitempty"`
	Selection    *string           `json:"selectValue,omitempty"`
	Checked      *bool             `json:"checkboxValue,omitempty"`
	Weather      *Weather          `json:"weather,omitempty"`
	Project      string            `json:"projectName,omitempty"`
	Assignee     string            `json:"assignee,omitempty"`
	Tags         []string          `json:"tags,omitempty"`
	CustomFields map[string]string `json:"customFields,omitempty"`
	Attachments  []Attachment      `json:"attachments,omitempty"`
	Activities   []Activity        `json:"activities,omitempty"`
	CreatedAt    Timestamp         `json:"createdAt"`
	UpdatedAt    Timestamp         `json:"updatedAt"`
}

// Attachment is a file reference hung off a task.
type Attachment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// Weather is the optional forecast shown next to outdoor tasks.
type Weather string

const (
	Sunny  Weather = "sunny"
	Cloudy Weather = "cloudy"
	Rainy  Weather = "rainy"
	Stormy Weather = "stormy"
	Snowy  Weather = "snowy"
)

// Valid reports whether w is one of the known forecasts.
func (w Weather) Valid() bool {
	switch w {
	case Sunny, Cloudy, Rainy, Stormy, Snowy:
		return true
	}
	return false
}

// IsCompleted reports whether the task reached the done status.
func (t Task) IsCompleted() bool {
	return t.Status == Done
}

// IsActive reports whether the task still needs attention.
func (t Task) IsActive() bool {
	return t.Status != Done && t.Status != Cancelled
}

// HasTag reports whether the task carries tag (case-insensitive).
func (t Task) HasTag(tag string) bool {
	for _, candidate := range t.Tags {
		if strings.EqualFold(candidate, tag) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can never alias store state.
func (t Task) Clone() Task {
	cp := t
	if t.DueDate != nil {
		d := *t.DueDate
		cp.DueDate = &d
	}
	cp.Progress = cloneInt(t.Progress)
	cp.Rating = cloneInt(t.Rating)
	if t.Selection != nil {
		s := *t.Selection
		cp.Selection = &s
	}
	if t.Checked != nil {
		b := *t.Checked
		cp.Checked = &b
	}
	if t.Weather != nil {
		w := *t.Weather
		cp.Weather = &w
	}
	if t.Tags != nil {
		cp.Tags = append([]string(nil), t.Tags...)
	}
	if t.CustomFields != nil {
		cp.CustomFields = make(map[string]string, len(t.CustomFields))
		for k, v := range t.CustomFields {
			cp.CustomFields[k] = v
		}
	}
	if t.Attachments != nil {
		cp.Attachments = append([]Attachment(nil), t.Attachments...)
	}
	if t.Activities != nil {
		cp.Activities = append([]Activity(nil), t.Activities...)
	}
	return cp
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T {
	return &v
}
