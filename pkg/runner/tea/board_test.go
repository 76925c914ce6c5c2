package teaui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"

	"tableflip.dev/taskmate/pkg/controls"
	"tableflip.dev/taskmate/pkg/events"
	"tableflip.dev/taskmate/pkg/query"
	"tableflip.dev/taskmate/pkg/reconcile"
	"tableflip.dev/taskmate/pkg/store"
	"tableflip.dev/taskmate/pkg/task"
)

var now = time.Date(2025, 10, 30, 9, 0, 0, 0, time.UTC)

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

// newBoard returns a loaded board over a direct store.
func newBoard(t *testing.T) (Model, *store.Store) {
	t.Helper()
	today := task.DateOf(now)
	st, err := store.New([]task.Task{
		{ID: "t1", Title: "Pay rent", Status: task.Todo, DueDate: &today},
		{ID: "t2", Title: "Pick paint", Status: task.Todo, CustomFields: map[string]string{"options": "red, blue"}},
	}, store.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	src := query.NewDirect(st)
	m := New(context.Background(), Options{
		Tasks: query.NewTasks(src, query.WithNow(func() time.Time { return now })),
		Deps:  controls.Deps{Writer: src, Changes: src},
	})

	msg := m.load()()
	if _, ok := msg.(loadedMsg); !ok {
		t.Fatalf("expected loadedMsg, got %T", msg)
	}
	m = update(t, m, msg)
	t.Cleanup(m.Close)
	return m, st
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	mm, ok := next.(Model)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	return mm
}

func press(t *testing.T, m Model, text string) Model {
	t.Helper()
	return update(t, m, tea.KeyPressMsg{Text: text, Code: rune(text[0])})
}

func stored(t *testing.T, st *store.Store, id string) task.Task {
	t.Helper()
	tk, err := st.Get(id)
	if err != nil {
		t.Fatalf("Get(%s): %v", id, err)
	}
	return tk
}

func TestBoardLoadsScheduleOrder(t *testing.T) {
	m, _ := newBoard(t)

	if got := len(m.taskList.Items()); got != 2 {
		t.Fatalf("expected 2 items, got %d", got)
	}
	if m.panel == nil || m.panel.task.ID != "t1" {
		t.Fatalf("expected the today task to be bound first")
	}
	if first := m.taskList.Items()[0].(taskItem); first.bucket != "Today" {
		t.Fatalf("expected Today bucket first, got %q", first.bucket)
	}
	if !strings.Contains(m.View(), "Pay rent") {
		t.Fatalf("expected selected task in view:\n%s", m.View())
	}
}

func TestBoardToggleAndRate(t *testing.T) {
	m, st := newBoard(t)

	m = press(t, m, "x")
	if !m.panel.checkbox.Value() {
		t.Fatalf("expected optimistic checked value")
	}
	eventually(t, "checkbox write", func() bool {
		tk := stored(t, st, "t1")
		return tk.Checked != nil && *tk.Checked
	})
	m = press(t, m, "4")
	if m.panel.rating.Value() != 4 {
		t.Fatalf("expected optimistic rating 4, got %d", m.panel.rating.Value())
	}

	eventually(t, "writes to land", func() bool {
		tk := stored(t, st, "t1")
		return tk.Checked != nil && *tk.Checked && tk.Rating != nil && *tk.Rating == 4
	})
	eventually(t, "controls to settle", func() bool { return !m.panel.busy() })
}

func TestBoardProgressDragWritesOnRelease(t *testing.T) {
	m, st := newBoard(t)

	m = press(t, m, "+")
	m = press(t, m, "+")
	m = press(t, m, "+")
	if !m.dragging || m.panel.progress.State() != reconcile.Dragging {
		t.Fatalf("expected an active drag, got %s", m.panel.progress.State())
	}
	if m.panel.progress.Value() != 30 {
		t.Fatalf("expected displayed 30, got %d", m.panel.progress.Value())
	}
	if tk := stored(t, st, "t1"); tk.Progress != nil {
		t.Fatalf("drag steps must not write, got %d", *tk.Progress)
	}

	m = update(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.dragging {
		t.Fatalf("expected drag to end on enter")
	}
	eventually(t, "progress write", func() bool {
		tk := stored(t, st, "t1")
		return tk.Progress != nil && *tk.Progress == 30
	})
}

func TestBoardProgressDragCancel(t *testing.T) {
	m, st := newBoard(t)

	m = press(t, m, "+")
	m = update(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.dragging || m.panel.progress.Value() != 0 {
		t.Fatalf("expected cancelled drag to restore 0, got %d", m.panel.progress.Value())
	}
	if tk := stored(t, st, "t1"); tk.Progress != nil {
		t.Fatalf("cancelled drag must not write")
	}
}

func TestBoardDueShift(t *testing.T) {
	m, st := newBoard(t)

	m = press(t, m, "]")
	want := task.DateOf(now).AddDays(1)
	if !m.panel.calendar.Value().Equal(want) {
		t.Fatalf("expected %s, got %s", want, m.panel.calendar.Value())
	}
	eventually(t, "due write", func() bool {
		tk := stored(t, st, "t1")
		return tk.DueDate != nil && tk.DueDate.Equal(want)
	})
}

func TestBoardSelectionRebindsPanel(t *testing.T) {
	m, st := newBoard(t)

	m = update(t, m, tea.KeyPressMsg{Code: tea.KeyDown})
	if m.panel == nil || m.panel.task.ID != "t2" {
		t.Fatalf("expected panel bound to t2 after moving down")
	}

	m = press(t, m, "s")
	if got := m.panel.choice.Value(); got != "red" {
		t.Fatalf("expected first option red, got %q", got)
	}
	eventually(t, "first selection write", func() bool {
		tk := stored(t, st, "t2")
		return tk.Selection != nil && *tk.Selection == "red"
	})
	m = press(t, m, "s")
	if got := m.panel.choice.Value(); got != "blue" {
		t.Fatalf("expected next option blue, got %q", got)
	}
	eventually(t, "selection write", func() bool {
		tk := stored(t, st, "t2")
		return tk.Selection != nil && *tk.Selection == "blue"
	})

	m = press(t, m, "r")
	eventually(t, "rejection write", func() bool {
		return stored(t, st, "t2").Status == task.Cancelled
	})
}

func TestBoardSelectWithoutOptions(t *testing.T) {
	m, _ := newBoard(t)

	m = press(t, m, "s")
	if !strings.Contains(m.status, "no options") {
		t.Fatalf("expected hint in status, got %q", m.status)
	}
}

func TestBoardStatusShowsActions(t *testing.T) {
	m, _ := newBoard(t)

	m = update(t, m, events.ActionCompleteMsg{
		TaskID: "t1",
		Result: events.ActionResult{ActionType: controls.ActionRatingChanged, Details: map[string]any{"rating": 5}},
	})
	if !strings.Contains(m.status, "rating_changed") {
		t.Fatalf("expected action in status, got %q", m.status)
	}
}

func TestBoardQuit(t *testing.T) {
	m, _ := newBoard(t)

	next, cmd := m.Update(tea.KeyPressMsg{Text: "q", Code: 'q'})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if next.(Model).panel != nil {
		t.Fatalf("expected panel to be released on quit")
	}
}
