package controls

import (
	"context"
	"fmt"
	"slices"

	"tableflip.dev/taskmate/pkg/task"
)

// Action types reported through OnActionComplete.
const (
	ActionCheckboxToggled = "checkbox_toggled"
	ActionRatingChanged   = "rating_changed"
	ActionProgressUpdated = "progress_updated"
	ActionDueDateChanged  = "due_date_changed"
	ActionOptionSelected  = "option_selected"
	ActionApprovalDecided = "approval_decided"
)

func deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// Checkbox edits checkboxValue.
type Checkbox struct {
	*binding[bool]
}

func NewCheckbox(ctx context.Context, props Props, deps Deps) (*Checkbox, error) {
	b, err := bind(ctx, props, deps, field[bool]{
		action:  ActionCheckboxToggled,
		get:     func(t task.Task) bool { return deref(t.Checked) },
		patch:   func(v bool) task.Patch { return task.Patch{Checked: &v} },
		details: func(v bool) map[string]any { return map[string]any{"checked": v} },
	})
	if err != nil {
		return nil, err
	}
	return &Checkbox{b}, nil
}

// Toggle flips the displayed value and submits it.
func (c *Checkbox) Toggle() {
	c.submit(!c.Value())
}

// Rating edits the 1-5 star rating. Zero means unrated.
type Rating struct {
	*binding[int]
}

func NewRating(ctx context.Context, props Props, deps Deps) (*Rating, error) {
	b, err := bind(ctx, props, deps, field[int]{
		action:  ActionRatingChanged,
		get:     func(t task.Task) int { return deref(t.Rating) },
		patch:   func(v int) task.Patch { return task.Patch{Rating: &v} },
		details: func(v int) map[string]any { return map[string]any{"rating": v} },
	})
	if err != nil {
		return nil, err
	}
	return &Rating{b}, nil
}

// Rate submits n stars.
func (r *Rating) Rate(n int) error {
	if n < 1 || n > 5 {
		return fmt.Errorf("controls: rating %d outside 1-5", n)
	}
	r.submit(n)
	return nil
}

// Progress is a 0-100 slider.
type Progress struct {
	*binding[int]
}

func NewProgress(ctx context.Context, props Props, deps Deps) (*Progress, error) {
	b, err := bind(ctx, props, deps, field[int]{
		action:  ActionProgressUpdated,
		get:     func(t task.Task) int { return deref(t.Progress) },
		patch:   func(v int) task.Patch { return task.Patch{Progress: &v} },
		details: func(v int) map[string]any { return map[string]any{"progress": v} },
	})
	if err != nil {
		return nil, err
	}
	return &Progress{b}, nil
}

func clampPercent(v int) int {
	return max(0, min(100, v))
}

// BeginDrag starts a slider gesture.
func (p *Progress) BeginDrag() {
	p.ctrl.BeginDrag()
}

// Drag moves the thumb without submitting.
func (p *Progress) Drag(v int) {
	p.ctrl.Drag(clampPercent(v))
}

// Release ends the gesture on v and submits it.
func (p *Progress) Release(v int) {
	v = clampPercent(v)
	p.ctrl.EndDrag(v)
	p.submit(v)
}

// Cancel abandons a gesture.
func (p *Progress) Cancel() {
	p.ctrl.CancelDrag()
}

// Set submits v without a gesture, e.g. from a stepper.
func (p *Progress) Set(v int) {
	p.submit(clampPercent(v))
}

// Calendar edits the due date.
type Calendar struct {
	*binding[task.Date]
}

func NewCalendar(ctx context.Context, props Props, deps Deps) (*Calendar, error) {
	b, err := bind(ctx, props, deps, field[task.Date]{
		action: ActionDueDateChanged,
		get:    func(t task.Task) task.Date { return deref(t.DueDate) },
		patch:  func(v task.Date) task.Patch { return task.Patch{DueDate: &v} },
		details: func(v task.Date) map[string]any {
			return map[string]any{"dueDate": v.String()}
		},
	})
	if err != nil {
		return nil, err
	}
	return &Calendar{b}, nil
}

// Pick submits a new due date.
func (c *Calendar) Pick(d task.Date) error {
	if d.IsZero() {
		return fmt.Errorf("controls: a due date is required")
	}
	c.submit(d)
	return nil
}

// SingleSelect edits selectValue. Options come from the "options" payload
// entry; without options any value is accepted.
type SingleSelect struct {
	*binding[string]
	options []string
}

func NewSingleSelect(ctx context.Context, props Props, deps Deps) (*SingleSelect, error) {
	b, err := bind(ctx, props, deps, field[string]{
		action:  ActionOptionSelected,
		get:     func(t task.Task) string { return deref(t.Selection) },
		patch:   func(v string) task.Patch { return task.Patch{Selection: &v} },
		details: func(v string) map[string]any { return map[string]any{"value": v} },
	})
	if err != nil {
		return nil, err
	}
	return &SingleSelect{binding: b, options: optionsOf(props.Payload)}, nil
}

func optionsOf(payload map[string]any) []string {
	switch v := payload["options"].(type) {
	case []string:
		return append([]string{}, v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, o := range v {
			out = append(out, fmt.Sprint(o))
		}
		return out
	}
	return nil
}

// Options lists the selectable values.
func (s *SingleSelect) Options() []string {
	return append([]string{}, s.options...)
}

// Select submits option.
func (s *SingleSelect) Select(option string) error {
	if len(s.options) > 0 && !slices.Contains(s.options, option) {
		return fmt.Errorf("controls: %q is not one of %v", option, s.options)
	}
	s.submit(option)
	return nil
}

// Approval decides a task by moving it to done or cancelled.
type Approval struct {
	*binding[task.Status]
}

func NewApproval(ctx context.Context, props Props, deps Deps) (*Approval, error) {
	b, err := bind(ctx, props, deps, field[task.Status]{
		action: ActionApprovalDecided,
		get:    func(t task.Task) task.Status { return t.Status },
		patch:  func(v task.Status) task.Patch { return task.Patch{Status: &v} },
		details: func(v task.Status) map[string]any {
			decision := "rejected"
			if v == task.Done {
				decision = "approved"
			}
			return map[string]any{"status": string(v), "decision": decision}
		},
	})
	if err != nil {
		return nil, err
	}
	return &Approval{b}, nil
}

// Approve marks the task done.
func (a *Approval) Approve() {
	a.submit(task.Done)
}

// Reject cancels the task.
func (a *Approval) Reject() {
	a.submit(task.Cancelled)
}

// Decided reports whether the displayed status is a final decision.
func (a *Approval) Decided() bool {
	v := a.Value()
	return v == task.Done || v == task.Cancelled
}
