// Package events defines the typed messages emitted when tasks change or a
// control finishes a user action. Messages are plain values so they can flow
// through channels, and they satisfy tea.Msg so a Bubble Tea host can consume
// them directly.
package events

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea/v2"

	"tableflip.dev/taskmate/pkg/task"
)

// ChangeType enumerates supported change actions.
type ChangeType string

const (
	// ChangeCreate indicates a new task was created.
	ChangeCreate ChangeType = "create"
	// ChangeUpdate indicates an existing task changed.
	ChangeUpdate ChangeType = "update"
	// ChangeDelete indicates a task was removed.
	ChangeDelete ChangeType = "delete"
	// ChangeReset indicates the whole table was replaced (fixture reload).
	ChangeReset ChangeType = "reset"
)

// TaskChangeMsg announces a confirmed change in the backend store. Task holds
// the state after the change (the removed task for deletes).
type TaskChangeMsg struct {
	Action   ChangeType
	Task     task.Task
	Previous *task.Task
}

// Describe renders the change in a human-friendly format for logs.
func (m TaskChangeMsg) Describe() string {
	return fmt.Sprintf(`action:%q id:%q title:%q updated:%q`, m.Action, m.Task.ID, m.Task.Title, m.Task.UpdatedAt)
}

// ActionResult is what a control reports after a user-initiated submission.
type ActionResult struct {
	ActionType string         `json:"actionType"`
	Details    map[string]any `json:"details"`
}

// ActionCompleteMsg carries an ActionResult for a specific task.
type ActionCompleteMsg struct {
	TaskID string
	Result ActionResult
}

// Describe renders the action for logs.
func (m ActionCompleteMsg) Describe() string {
	return fmt.Sprintf(`id:%q action:%q`, m.TaskID, m.Result.ActionType)
}

// Listen returns a tea.Cmd that blocks for the next change on ch. Hosts
// re-issue the command after each message to keep listening. A closed
// channel yields nil.
func Listen(ch <-chan TaskChangeMsg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

// ActionCompleteCmd wraps an ActionResult into a tea.Cmd.
func ActionCompleteCmd(taskID string, result ActionResult) tea.Cmd {
	return func() tea.Msg {
		return ActionCompleteMsg{TaskID: taskID, Result: result}
	}
}
