package events

import (
	"strings"
	"testing"

	"tableflip.dev/taskmate/pkg/task"
)

func TestListenReturnsNextChange(t *testing.T) {
	ch := make(chan TaskChangeMsg, 1)
	ch <- TaskChangeMsg{Action: ChangeUpdate, Task: task.Task{ID: "t1", Title: "Call mom"}}

	msg := Listen(ch)()
	change, ok := msg.(TaskChangeMsg)
	if !ok {
		t.Fatalf("expected TaskChangeMsg, got %T", msg)
	}
	if change.Task.ID != "t1" || change.Action != ChangeUpdate {
		t.Fatalf("unexpected change: %#v", change)
	}
	if !strings.Contains(change.Describe(), `id:"t1"`) {
		t.Fatalf("describe missing id: %s", change.Describe())
	}
}

func TestListenClosedChannel(t *testing.T) {
	ch := make(chan TaskChangeMsg)
	close(ch)
	if msg := Listen(ch)(); msg != nil {
		t.Fatalf("expected nil message from closed channel, got %#v", msg)
	}
}

func TestActionCompleteCmd(t *testing.T) {
	msg := ActionCompleteCmd("t9", ActionResult{ActionType: "rating_changed", Details: map[string]any{"rating": 4}})()
	done, ok := msg.(ActionCompleteMsg)
	if !ok {
		t.Fatalf("expected ActionCompleteMsg, got %T", msg)
	}
	if done.TaskID != "t9" || done.Result.Details["rating"] != 4 {
		t.Fatalf("unexpected message: %#v", done)
	}
}
