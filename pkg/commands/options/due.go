package options

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/taskmate/pkg/task"
	"tableflip.dev/taskmate/pkg/timeutil"
)

const layoutShort = "1/2"

// DueOptions
type DueOptions struct {
	DueString string
}

func AddDueArgs(cmd *cobra.Command, o *DueOptions) {
	cmd.Flags().StringVar(&o.DueString, "due", "",
		`Due date, example: --due="2025-2-28", --due="2/28", --due=tomorrow or --due=+3d.`)
}

// GetDue resolves the flag relative to now. An empty flag yields nil.
func (o *DueOptions) GetDue(now time.Time) (*task.Date, error) {
	d, err := ParseDue(o.DueString, now)
	if err != nil || d.IsZero() {
		return nil, err
	}
	return &d, nil
}

// ParseDue accepts an ISO date, a month/day pair, "today", "tomorrow" or a
// "+<window>" offset such as +3d or +1w.
func ParseDue(s string, now time.Time) (task.Date, error) {
	s = strings.TrimSpace(s)
	today := task.DateOf(now)
	switch strings.ToLower(s) {
	case "":
		return task.Date{}, nil
	case "today":
		return today, nil
	case "tomorrow":
		return today.AddDays(1), nil
	}
	if strings.HasPrefix(s, "+") {
		w, err := timeutil.ParseWindow(s[1:])
		if err != nil {
			return task.Date{}, err
		}
		return today.AddDays(w.Days), nil
	}
	if d, err := task.ParseDate(s); err == nil {
		return d, nil
	}
	t, err := time.Parse("2006-1-2", s)
	if err == nil {
		return task.DateOf(t), nil
	}
	t, err = time.Parse(layoutShort, s)
	if err != nil {
		return task.Date{}, fmt.Errorf("invalid due date %q", s)
	}
	// A month/day already behind us means next year.
	d := task.NewDate(now.Year(), t.Month(), t.Day())
	if d.Before(today) {
		d = task.NewDate(now.Year()+1, t.Month(), t.Day())
	}
	return d, nil
}
