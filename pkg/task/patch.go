package task

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBlankTitle is returned when a title is present but empty.
	ErrBlankTitle = errors.New("title must not be blank")
	// ErrInvalidField wraps range and enum violations.
	ErrInvalidField = errors.New("invalid field")
)

// Patch is a partial task. A nil field is the "unset" sentinel: it never
// overwrites stored state. Identity and timestamps are not patchable.
type Patch struct {
	Title        *string           `json:"title,omitempty"`
	Description  *string           `json:"description,omitempty"`
	Status       *Status           `json:"status,omitempty"`
	DueDate      *Date             `json:"dueDate,omitempty"`
	Progress     *int              `json:"progress,omitempty"`
	Rating       *int              `json:"rating,omitempty"`
	Selection    *string           `json:"selectValue,omitempty"`
	Checked      *bool             `json:"checkboxValue,omitempty"`
	Weather      *Weather          `json:"weather,omitempty"`
	Project      *string           `json:"projectName,omitempty"`
	Assignee     *string           `json:"assignee,omitempty"`
	Tags         []string          `json:"tags,omitempty"`
	CustomFields map[string]string `json:"customFields,omitempty"`
	Attachments  []Attachment      `json:"attachments,omitempty"`
}

// Validate checks the fields that are present. A missing title is fine here;
// creation enforces presence separately.
func (p Patch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return ErrBlankTitle
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: status %q", ErrInvalidField, *p.Status)
	}
	if p.Progress != nil && (*p.Progress < 0 || *p.Progress > 100) {
		return fmt.Errorf("%w: progress %d outside 0-100", ErrInvalidField, *p.Progress)
	}
	if p.Rating != nil && (*p.Rating < 1 || *p.Rating > 5) {
		return fmt.Errorf("%w: rating %d outside 1-5", ErrInvalidField, *p.Rating)
	}
	if p.Weather != nil && !p.Weather.Valid() {
		return fmt.Errorf("%w: weather %q", ErrInvalidField, *p.Weather)
	}
	return nil
}

// IsEmpty reports whether the patch sets nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.DueDate == nil && p.Progress == nil && p.Rating == nil &&
		p.Selection == nil && p.Checked == nil && p.Weather == nil &&
		p.Project == nil && p.Assignee == nil && p.Tags == nil &&
		p.CustomFields == nil && p.Attachments == nil
}

// Apply merges p onto t and returns the result. Fields absent from p are
// left exactly as they were; t itself is not modified.
func (p Patch) Apply(t Task) Task {
	out := t.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.DueDate != nil {
		d := *p.DueDate
		out.DueDate = &d
	}
	if p.Progress != nil {
		out.Progress = cloneInt(p.Progress)
	}
	if p.Rating != nil {
		out.Rating = cloneInt(p.Rating)
	}
	if p.Selection != nil {
		s := *p.Selection
		out.Selection = &s
	}
	if p.Checked != nil {
		b := *p.Checked
		out.Checked = &b
	}
	if p.Weather != nil {
		w := *p.Weather
		out.Weather = &w
	}
	if p.Project != nil {
		out.Project = *p.Project
	}
	if p.Assignee != nil {
		out.Assignee = *p.Assignee
	}
	if p.Tags != nil {
		out.Tags = append([]string{}, p.Tags...)
	}
	if p.CustomFields != nil {
		out.CustomFields = make(map[string]string, len(p.CustomFields))
		for k, v := range p.CustomFields {
			out.CustomFields[k] = v
		}
	}
	if p.Attachments != nil {
		out.Attachments = append([]Attachment{}, p.Attachments...)
	}
	return out
}
