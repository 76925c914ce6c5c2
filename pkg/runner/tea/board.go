// Package teaui is the interactive task board: a schedule-ordered task list
// on the left and the interactive controls of the selected task on the
// right. Edits are optimistic and settle as confirmations arrive.
package teaui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/v2/list"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"tableflip.dev/taskmate/pkg/controls"
	"tableflip.dev/taskmate/pkg/events"
	"tableflip.dev/taskmate/pkg/query"
	"tableflip.dev/taskmate/pkg/task"
)

const (
	progressStep = 10
	pollEvery    = 100 * time.Millisecond
)

// Options configure the board.
type Options struct {
	Tasks  *query.Tasks
	Deps   controls.Deps
	Filter query.Filter
}

type taskItem struct {
	t      task.Task
	bucket string
}

func (it taskItem) Title() string       { return it.t.Title }
func (it taskItem) Description() string { return it.bucket + " · " + it.t.Status.String() }
func (it taskItem) FilterValue() string { return it.t.Title }

// messages
type errMsg struct{ err error }
type loadedMsg struct{ items []list.Item }
type watchMsg struct{ ch <-chan events.TaskChangeMsg }
type tickMsg struct{}

// Model contains UI state
type Model struct {
	opts Options
	ctx  context.Context

	taskList list.Model
	panel    *panel
	changes  <-chan events.TaskChangeMsg

	dragging  bool
	dragValue int

	status     string
	polling    bool
	termWidth  int
	termHeight int
}

// New creates a board model. ctx bounds the change subscription and every
// control write.
func New(ctx context.Context, opts Options) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	d := list.NewDefaultDelegate()
	d.SetSpacing(0)

	l := list.New([]list.Item{}, d, 40, 20)
	l.Title = "Tasks"
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)

	return Model{
		opts:     opts,
		ctx:      ctx,
		taskList: l,
		status:   "j/k move · x toggle · 1-5 rate · -/+ drag progress, enter release · [/] due · s choice · a/r approve/reject · q quit",
	}
}

// Init loads tasks and subscribes to changes.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.subscribe())
}

func (m Model) load() tea.Cmd {
	q, ctx, filter := m.opts.Tasks, m.ctx, m.opts.Filter
	return func() tea.Msg {
		if err := q.Refresh(ctx); err != nil {
			return errMsg{err}
		}
		var items []list.Item
		for _, sec := range q.Sections(filter) {
			for _, t := range sec.Tasks {
				items = append(items, taskItem{t: t, bucket: sec.Title})
			}
		}
		return loadedMsg{items}
	}
}

func (m Model) subscribe() tea.Cmd {
	src, ctx := m.opts.Tasks.Source(), m.ctx
	return func() tea.Msg {
		ch, err := src.Watch(ctx)
		if err != nil {
			return errMsg{err}
		}
		return watchMsg{ch}
	}
}

func (m Model) poll() tea.Cmd {
	return tea.Tick(pollEvery, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m *Model) selected() (task.Task, bool) {
	it, ok := m.taskList.SelectedItem().(taskItem)
	if !ok {
		return task.Task{}, false
	}
	return it.t, true
}

// rebind closes the panel and binds a new one when the selection moved to
// a different task; otherwise it only refreshes the panel's snapshot.
func (m *Model) rebind() tea.Cmd {
	t, ok := m.selected()
	if m.panel != nil && ok && m.panel.task.ID == t.ID {
		m.panel.task = t
		return nil
	}
	m.panel.close()
	m.panel = nil
	m.dragging = false
	if !ok {
		return nil
	}
	p, err := bindPanel(m.ctx, t, m.opts.Deps)
	if err != nil {
		return func() tea.Msg { return errMsg{err} }
	}
	m.panel = p
	return nil
}

// Close releases the bound controls.
func (m *Model) Close() {
	m.panel.close()
	m.panel = nil
}

// Update handles messages and keybindings
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	skipListRouting := false

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.termWidth = msg.Width
		m.termHeight = msg.Height
		m.applySizes()
	case errMsg:
		m.status = "ERR: " + msg.err.Error()
	case loadedMsg:
		m.taskList.SetItems(msg.items)
		cmds = append(cmds, m.rebind())
	case watchMsg:
		m.changes = msg.ch
		cmds = append(cmds, events.Listen(msg.ch))
	case events.TaskChangeMsg:
		cmds = append(cmds, m.load(), events.Listen(m.changes))
	case events.ActionCompleteMsg:
		m.status = fmt.Sprintf("%s %v", msg.Result.ActionType, msg.Result.Details)
	case tickMsg:
		m.polling = false
	case tea.KeyPressMsg:
		handled, cmd := m.handleKey(msg.String())
		skipListRouting = handled
		cmds = append(cmds, cmd)
	}

	if !skipListRouting {
		prev, _ := m.selected()
		var cmd tea.Cmd
		m.taskList, cmd = m.taskList.Update(msg)
		cmds = append(cmds, cmd)
		if next, _ := m.selected(); next.ID != prev.ID {
			cmds = append(cmds, m.rebind())
		}
	}

	if m.panel != nil {
		cmds = append(cmds, m.panel.drain()...)
		if !m.polling && m.panel.busy() {
			m.polling = true
			cmds = append(cmds, m.poll())
		}
	}
	return m, tea.Batch(cmds...)
}

// handleKey applies board keys. It reports whether the key was consumed.
func (m *Model) handleKey(key string) (bool, tea.Cmd) {
	switch key {
	case "q", "ctrl+c":
		m.Close()
		return true, tea.Quit
	case "R":
		return true, m.load()
	}
	p := m.panel
	if p == nil {
		return false, nil
	}

	fail := func(err error) tea.Cmd {
		if err == nil {
			return nil
		}
		return func() tea.Msg { return errMsg{err} }
	}

	switch key {
	case "x", "space":
		p.checkbox.Toggle()
	case "1", "2", "3", "4", "5":
		return true, fail(p.rating.Rate(int(key[0] - '0')))
	case "-", "+", "=":
		if !m.dragging {
			m.dragging = true
			m.dragValue = p.progress.Value()
			p.progress.BeginDrag()
		}
		if key == "-" {
			m.dragValue = max(0, m.dragValue-progressStep)
		} else {
			m.dragValue = min(100, m.dragValue+progressStep)
		}
		p.progress.Drag(m.dragValue)
	case "enter":
		if !m.dragging {
			return false, nil
		}
		m.dragging = false
		p.progress.Release(m.dragValue)
	case "esc":
		if !m.dragging {
			return false, nil
		}
		m.dragging = false
		p.progress.Cancel()
	case "[", "]":
		due := p.calendar.Value()
		if due.IsZero() {
			due = m.opts.Tasks.Today()
		} else if key == "[" {
			due = due.AddDays(-1)
		} else {
			due = due.AddDays(1)
		}
		return true, fail(p.calendar.Pick(due))
	case "s":
		next, ok := p.nextOption()
		if !ok {
			m.status = "no options: set the task's \"options\" custom field"
			return true, nil
		}
		return true, fail(p.choice.Select(next))
	case "a":
		p.approval.Approve()
	case "r":
		p.approval.Reject()
	default:
		return false, nil
	}
	return true, nil
}

var statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

// View renders the list and the control panel side by side.
func (m Model) View() string {
	left := m.taskList.View()
	right := m.panel.view(m.panelWidth())
	gap := lipgloss.NewStyle().Padding(0, 1).Render
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, gap(" "), right)
	return body + "\n\n" + statusStyle.Render(m.status)
}

func (m Model) panelWidth() int {
	if m.termWidth == 0 {
		return 0
	}
	return max(30, m.termWidth-m.taskList.Width()-6)
}

// applySizes recalculates the list size based on current terminal size.
func (m *Model) applySizes() {
	if m.termWidth == 0 || m.termHeight == 0 {
		return
	}
	left := min(48, max(28, m.termWidth/2))
	height := max(5, m.termHeight-4)
	m.taskList.SetSize(left, height)
}

// Run starts the board and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	m := New(ctx, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.Close()
	}
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
