// Package query is the read/write facade screens use. A Source hides whether
// data comes straight from the store or through the simulated backend; the
// choice is made once when the Source is built.
package query

import (
	"context"
	"fmt"
	"strings"

	"tableflip.dev/taskmate/pkg/api"
	"tableflip.dev/taskmate/pkg/events"
	"tableflip.dev/taskmate/pkg/store"
	"tableflip.dev/taskmate/pkg/task"
)

// Mode selects a Source implementation.
type Mode string

const (
	// ModeDirect reads and writes the store with no latency.
	ModeDirect Mode = "direct"
	// ModeRemote goes through the request simulator and its paging contract.
	ModeRemote Mode = "remote"
)

// ParseMode resolves a configured mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeDirect, "mock", "":
		return ModeDirect, nil
	case ModeRemote, "simulated", "api":
		return ModeRemote, nil
	}
	return "", fmt.Errorf("query: unknown mode %q", s)
}

// Page is one page of tasks.
type Page = api.Page

// DefaultPageSize is used for non-positive page sizes.
const DefaultPageSize = api.DefaultPageSize

// Source is the data-access capability set. Both implementations return the
// same tasks in the same order for the same store.
type Source interface {
	List(ctx context.Context) ([]task.Task, error)
	Get(ctx context.Context, id string) (task.Task, error)
	Create(ctx context.Context, p task.Patch) (task.Task, error)
	Update(ctx context.Context, id string, p task.Patch) (task.Task, error)
	Delete(ctx context.Context, id string) error
	Page(ctx context.Context, page, pageSize int) (Page, error)
	Activities(ctx context.Context, id string) ([]task.Activity, error)
	AddActivity(ctx context.Context, id string, a task.Activity) (task.Task, error)
	// Watch streams confirmed changes until ctx is done.
	Watch(ctx context.Context) (<-chan events.TaskChangeMsg, error)
}

// NewSource builds the Source for mode. sim is only needed for ModeRemote.
func NewSource(mode Mode, st *store.Store, sim *api.Simulator) (Source, error) {
	if st == nil {
		return nil, fmt.Errorf("query: a store is required")
	}
	switch mode {
	case ModeDirect:
		return NewDirect(st), nil
	case ModeRemote:
		if sim == nil {
			sim = api.New(st)
		}
		return NewRemote(sim, st), nil
	}
	return nil, fmt.Errorf("query: unknown mode %q", mode)
}
