package teaui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"tableflip.dev/taskmate/pkg/controls"
	"tableflip.dev/taskmate/pkg/events"
	"tableflip.dev/taskmate/pkg/reconcile"
	"tableflip.dev/taskmate/pkg/task"
)

// panel is the set of controls bound to the selected task.
type panel struct {
	task task.Task

	checkbox *controls.Checkbox
	rating   *controls.Rating
	progress *controls.Progress
	calendar *controls.Calendar
	choice   *controls.SingleSelect
	approval *controls.Approval

	mu      sync.Mutex
	results []events.ActionCompleteMsg
}

// selectOptions reads the single-select choices from the task's
// "options" custom field (comma separated).
func selectOptions(t task.Task) []string {
	raw := strings.TrimSpace(t.CustomFields["options"])
	if raw == "" {
		return nil
	}
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func bindPanel(ctx context.Context, t task.Task, deps controls.Deps) (*panel, error) {
	p := &panel{task: t}
	props := controls.Props{
		Task: t,
		OnActionComplete: func(r events.ActionResult) {
			p.mu.Lock()
			defer p.mu.Unlock()
			p.results = append(p.results, events.ActionCompleteMsg{TaskID: t.ID, Result: r})
		},
	}

	var err error
	if p.checkbox, err = controls.NewCheckbox(ctx, props, deps); err != nil {
		return nil, err
	}
	if p.rating, err = controls.NewRating(ctx, props, deps); err != nil {
		p.close()
		return nil, err
	}
	if p.progress, err = controls.NewProgress(ctx, props, deps); err != nil {
		p.close()
		return nil, err
	}
	if p.calendar, err = controls.NewCalendar(ctx, props, deps); err != nil {
		p.close()
		return nil, err
	}
	if opts := selectOptions(t); len(opts) > 0 {
		props.Payload = map[string]any{"options": opts}
	}
	if p.choice, err = controls.NewSingleSelect(ctx, props, deps); err != nil {
		p.close()
		return nil, err
	}
	if p.approval, err = controls.NewApproval(ctx, props, deps); err != nil {
		p.close()
		return nil, err
	}
	return p, nil
}

type stateful interface {
	State() reconcile.State
	Err() error
}

func (p *panel) all() []stateful {
	return []stateful{p.checkbox, p.rating, p.progress, p.calendar, p.choice, p.approval}
}

// close releases every bound control. Nil-safe so a half-built panel can
// be torn down.
func (p *panel) close() {
	if p == nil {
		return
	}
	if p.checkbox != nil {
		p.checkbox.Close()
	}
	if p.rating != nil {
		p.rating.Close()
	}
	if p.progress != nil {
		p.progress.Close()
	}
	if p.calendar != nil {
		p.calendar.Close()
	}
	if p.choice != nil {
		p.choice.Close()
	}
	if p.approval != nil {
		p.approval.Close()
	}
}

// busy reports whether any control still waits on a write or a gesture.
func (p *panel) busy() bool {
	if p == nil {
		return false
	}
	for _, c := range p.all() {
		switch c.State() {
		case reconcile.Idle, reconcile.Failed:
		default:
			return true
		}
	}
	return false
}

// drain turns the recorded action results into commands for the program.
func (p *panel) drain() []tea.Cmd {
	p.mu.Lock()
	defer p.mu.Unlock()
	cmds := make([]tea.Cmd, 0, len(p.results))
	for _, r := range p.results {
		cmds = append(cmds, events.ActionCompleteCmd(r.TaskID, r.Result))
	}
	p.results = nil
	return cmds
}

// nextOption returns the option after the current selection, wrapping.
func (p *panel) nextOption() (string, bool) {
	opts := p.choice.Options()
	if len(opts) == 0 {
		return "", false
	}
	cur := p.choice.Value()
	for i, o := range opts {
		if o == cur {
			return opts[(i+1)%len(opts)], true
		}
	}
	return opts[0], true
}

var (
	labelStyle   = lipgloss.NewStyle().Bold(true).Width(10)
	faintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)
)

func marker(c stateful) string {
	switch c.State() {
	case reconcile.Idle:
		return ""
	case reconcile.Failed:
		msg := "failed"
		if err := c.Err(); err != nil {
			msg = err.Error()
		}
		return " " + failedStyle.Render("✗ "+msg)
	default:
		return " " + pendingStyle.Render("… "+c.State().String())
	}
}

func (p *panel) view(width int) string {
	if p == nil {
		return panelStyle.Render(faintStyle.Render("no task selected"))
	}
	row := func(label, value string, c stateful) string {
		return labelStyle.Render(label) + value + marker(c)
	}

	check := "[ ]"
	if p.checkbox.Value() {
		check = "[x]"
	}
	rating := p.rating.Value()
	stars := strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
	pct := p.progress.Value()
	filled := pct / 10
	bar := strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
	due := p.calendar.Value().String()
	if due == "" {
		due = faintStyle.Render("none")
	}
	choice := p.choice.Value()
	if choice == "" {
		choice = faintStyle.Render("none")
	}
	if opts := p.choice.Options(); len(opts) > 0 {
		choice += faintStyle.Render(" (" + strings.Join(opts, " | ") + ")")
	}

	lines := []string{
		lipgloss.NewStyle().Bold(true).Render(p.task.Title),
		faintStyle.Render(p.task.ID),
		"",
		row("Done", check, p.checkbox),
		row("Rating", stars, p.rating),
		row("Progress", fmt.Sprintf("%s %3d%%", bar, pct), p.progress),
		row("Due", due, p.calendar),
		row("Choice", choice, p.choice),
		row("Status", string(p.approval.Value()), p.approval),
	}
	style := panelStyle
	if width > 4 {
		style = style.Width(width)
	}
	return style.Render(strings.Join(lines, "\n"))
}
