package task

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Normalize builds a Task from loosely shaped fixture input. Keys may use any
// of the spellings seen in hand-written fixtures; numbers may arrive as
// strings; dates may carry a time-of-day. Values out of range are clamped.
func Normalize(raw map[string]any) (Task, error) {
	t := Task{}

	t.ID = strings.TrimSpace(stringOf(pick(raw, "id", "_id", "taskId")))
	t.Title = strings.TrimSpace(stringOf(pick(raw, "title", "name", "summary")))
	if t.Title == "" {
		return Task{}, fmt.Errorf("task %q: %w", t.ID, ErrBlankTitle)
	}
	t.Description = stringOf(pick(raw, "description", "notes", "body"))

	t.Status = Todo
	if v := pick(raw, "status", "state"); v != nil {
		st, err := ParseStatus(stringOf(v))
		if err != nil {
			return Task{}, fmt.Errorf("task %q: %w", t.ID, err)
		}
		t.Status = st
	}

	if v := pick(raw, "dueDate", "due_date", "due"); v != nil {
		d, err := dateOf(v)
		if err != nil {
			return Task{}, fmt.Errorf("task %q: %w", t.ID, err)
		}
		if !d.IsZero() {
			t.DueDate = &d
		}
	}

	if v := pick(raw, "progress", "percent", "percentComplete"); v != nil {
		if s, ok := v.(string); ok {
			v = strings.TrimSuffix(strings.TrimSpace(s), "%")
		}
		n, err := intOf(v)
		if err != nil {
			return Task{}, fmt.Errorf("task %q: progress: %w", t.ID, err)
		}
		n = clamp(n, 0, 100)
		t.Progress = &n
	}

	if v := pick(raw, "rating", "stars"); v != nil {
		n, err := intOf(v)
		if err != nil {
			return Task{}, fmt.Errorf("task %q: rating: %w", t.ID, err)
		}
		n = clamp(n, 1, 5)
		t.Rating = &n
	}

	if v := pick(raw, "selectValue", "select_value", "selection"); v != nil {
		s := stringOf(v)
		t.Selection = &s
	}

	if v := pick(raw, "checkboxValue", "checkbox_value", "checked", "checkbox"); v != nil {
		b, err := boolOf(v)
		if err != nil {
			return Task{}, fmt.Errorf("task %q: checkbox: %w", t.ID, err)
		}
		t.Checked = &b
	}

	if v := pick(raw, "weather"); v != nil {
		w := Weather(strings.ToLower(strings.TrimSpace(stringOf(v))))
		if !w.Valid() {
			return Task{}, fmt.Errorf("task %q: %w: weather %q", t.ID, ErrInvalidField, w)
		}
		t.Weather = &w
	}

	t.Project = stringOf(pick(raw, "projectName", "project_name", "project"))
	t.Assignee = stringOf(pick(raw, "assignee", "owner", "assignedTo"))
	t.Tags = tagsOf(pick(raw, "tags", "labels"))
	t.CustomFields = fieldsOf(pick(raw, "customFields", "custom_fields"))

	if v := pick(raw, "attachments"); v != nil {
		if err := decodeInto(v, &t.Attachments); err != nil {
			return Task{}, fmt.Errorf("task %q: attachments: %w", t.ID, err)
		}
	}
	if v := pick(raw, "activities", "activity", "history"); v != nil {
		if err := decodeInto(v, &t.Activities); err != nil {
			return Task{}, fmt.Errorf("task %q: activities: %w", t.ID, err)
		}
	}

	if v := pick(raw, "createdAt", "created_at", "created"); v != nil {
		ts, err := timeOf(v)
		if err != nil {
			return Task{}, fmt.Errorf("task %q: createdAt: %w", t.ID, err)
		}
		t.CreatedAt = At(ts)
	}
	if v := pick(raw, "updatedAt", "updated_at", "updated"); v != nil {
		ts, err := timeOf(v)
		if err != nil {
			return Task{}, fmt.Errorf("task %q: updatedAt: %w", t.ID, err)
		}
		t.UpdatedAt = At(ts)
	}
	if t.UpdatedAt.Before(t.CreatedAt.Time) {
		t.UpdatedAt = t.CreatedAt
	}
	return t, nil
}

// NormalizeJSON decodes data as a loose object and normalizes it.
func NormalizeJSON(data []byte) (Task, error) {
	raw := map[string]any{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Task{}, err
	}
	return Normalize(raw)
}

func pick(raw map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func stringOf(v any) string {
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return fmt.Sprint(v)
}

// maxNumber bounds numeric fixture values before rounding. Anything larger
// is malformed input, not something to clamp.
const maxNumber = 1 << 31

func intOf(v any) (int, error) {
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %v is not a number", ErrInvalidField, v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > maxNumber {
		return 0, fmt.Errorf("%w: %v is out of range", ErrInvalidField, v)
	}
	return int(math.Round(f)), nil
}

func boolOf(v any) (bool, error) {
	if s, ok := v.(string); ok {
		s = strings.ToLower(strings.TrimSpace(s))
		switch s {
		case "yes", "y", "x", "checked":
			return true, nil
		case "no", "n", "", "unchecked":
			return false, nil
		}
		v = s
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, fmt.Errorf("%w: %v is not a boolean", ErrInvalidField, v)
	}
	return b, nil
}

func dateOf(v any) (Date, error) {
	switch x := v.(type) {
	case time.Time:
		return DateOf(x), nil
	case string:
		if strings.TrimSpace(x) == "" {
			return Date{}, nil
		}
		return ParseDate(x)
	}
	return ParseDate(stringOf(v))
}

func timeOf(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case float64:
		return time.UnixMilli(int64(x)).UTC(), nil
	}
	s := strings.TrimSpace(stringOf(v))
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := ParseTime(s); err == nil {
		return t, nil
	}
	d, err := ParseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	return d.Time(), nil
}

func tagsOf(v any) []string {
	var out []string
	switch x := v.(type) {
	case nil:
		return nil
	case []any:
		for _, item := range x {
			if s := strings.TrimSpace(stringOf(item)); s != "" {
				out = append(out, s)
			}
		}
	case []string:
		for _, s := range x {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	default:
		for _, s := range strings.Split(stringOf(v), ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func fieldsOf(v any) map[string]string {
	m, ok := v.(map[string]any)
	if !ok || len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		out[k] = stringOf(val)
	}
	return out
}

func decodeInto(v any, target any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, target)
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
