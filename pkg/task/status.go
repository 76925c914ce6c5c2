package task

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the lifecycle state of a task.
type Status string

const (
	Todo       Status = "todo"
	InProgress Status = "in_progress"
	Done       Status = "done"
	Blocked    Status = "blocked"
	Cancelled  Status = "cancelled"
)

// Statuses lists every status in display order.
func Statuses() []Status {
	return []Status{Todo, InProgress, Done, Blocked, Cancelled}
}

var statusAliases = map[string]Status{
	"todo":        Todo,
	"to_do":       Todo,
	"open":        Todo,
	"pending":     Todo,
	"in_progress": InProgress,
	"inprogress":  InProgress,
	"doing":       InProgress,
	"started":     InProgress,
	"done":        Done,
	"complete":    Done,
	"completed":   Done,
	"closed":      Done,
	"blocked":     Blocked,
	"on_hold":     Blocked,
	"cancelled":   Cancelled,
	"canceled":    Cancelled,
	"dropped":     Cancelled,
}

// ParseStatus resolves a status from user or fixture input, accepting the
// common spellings ("In Progress", "in-progress", "completed", ...).
func ParseStatus(s string) (Status, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	if st, ok := statusAliases[key]; ok {
		return st, nil
	}
	return "", fmt.Errorf("task: unknown status %q", s)
}

// Valid reports whether s is one of the canonical statuses.
func (s Status) Valid() bool {
	switch s {
	case Todo, InProgress, Done, Blocked, Cancelled:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// UnmarshalJSON accepts any alias understood by ParseStatus.
func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == "" {
		*s = ""
		return nil
	}
	st, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}
