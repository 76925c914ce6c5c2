package query

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"tableflip.dev/taskmate/pkg/api"
	"tableflip.dev/taskmate/pkg/schedule"
	"tableflip.dev/taskmate/pkg/store"
	"tableflip.dev/taskmate/pkg/task"
	"tableflip.dev/taskmate/pkg/timeutil"
)

var now = time.Date(2025, 10, 30, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T, seed []task.Task) *store.Store {
	t.Helper()
	st, err := store.New(seed, store.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	return st
}

func bothModes(t *testing.T, st *store.Store) map[Mode]Source {
	t.Helper()
	sim := api.New(st, api.WithLatency(api.Latency{}))
	out := map[Mode]Source{}
	for _, mode := range []Mode{ModeDirect, ModeRemote} {
		src, err := NewSource(mode, st, sim)
		if err != nil {
			t.Fatalf("NewSource(%s): %v", mode, err)
		}
		out[mode] = src
	}
	return out
}

func numbered(n int) []task.Task {
	out := make([]task.Task, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, task.Task{
			ID:        fmt.Sprintf("t%02d", i),
			Title:     fmt.Sprintf("Task %d", i),
			CreatedAt: task.At(now.Add(time.Duration(i) * time.Second)),
		})
	}
	return out
}

func TestPaginationTerminationBothModes(t *testing.T) {
	st := newStore(t, numbered(45))
	for mode, src := range bothModes(t, st) {
		t.Run(string(mode), func(t *testing.T) {
			q := NewTasks(src, WithNow(func() time.Time { return now }))
			ctx := context.Background()
			var sizes []int
			page := 1
			for {
				p, err := q.ListPaginated(ctx, page, 20, Filter{})
				if err != nil {
					t.Fatalf("page %d: %v", page, err)
				}
				sizes = append(sizes, len(p.Items))
				if !p.HasNext() {
					break
				}
				page++
			}
			if !reflect.DeepEqual(sizes, []int{20, 20, 5}) {
				t.Fatalf("unexpected page sizes %v", sizes)
			}
			p, err := q.ListPaginated(ctx, 4, 20, Filter{})
			if err != nil {
				t.Fatalf("page 4: %v", err)
			}
			if len(p.Items) != 0 || p.HasNext() || p.Page > 3 {
				t.Fatalf("page 4 should be terminal: %+v", p)
			}
		})
	}
}

func fixtureSet() []task.Task {
	today := task.DateOf(now)
	mk := func(id string, status task.Status, due int, hasDue bool) task.Task {
		tk := task.Task{ID: id, Title: "Task " + id, Status: status, CreatedAt: task.At(now.Add(-time.Hour))}
		if hasDue {
			d := today.AddDays(due)
			tk.DueDate = &d
		}
		return tk
	}
	return []task.Task{
		mk("a", task.Todo, -3, true),
		mk("b", task.Done, -1, true),
		mk("c", task.InProgress, 0, true),
		mk("d", task.Blocked, 5, true),
		mk("e", task.Todo, 10, true),
		mk("f", task.Cancelled, 40, true),
		mk("g", task.Todo, 0, false),
	}
}

func TestDualModeParity(t *testing.T) {
	st := newStore(t, fixtureSet())
	results := map[Mode]*Tasks{}
	for mode, src := range bothModes(t, st) {
		q := NewTasks(src, WithNow(func() time.Time { return now }))
		if err := q.Refresh(context.Background()); err != nil {
			t.Fatalf("%s refresh: %v", mode, err)
		}
		results[mode] = q
	}
	direct, remote := results[ModeDirect], results[ModeRemote]

	if !reflect.DeepEqual(direct.List(Filter{}), remote.List(Filter{})) {
		t.Fatalf("modes disagree on ordering")
	}
	if !reflect.DeepEqual(direct.Sections(Filter{}), remote.Sections(Filter{})) {
		t.Fatalf("modes disagree on classification")
	}
}

func ids(tasks []task.Task) []string {
	out := []string{}
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestDerivedViews(t *testing.T) {
	st := newStore(t, fixtureSet())
	q := NewTasks(NewDirect(st), WithNow(func() time.Time { return now }))
	if err := q.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	cases := map[StatusFilter][]string{
		StatusAll:                    {"a", "b", "c", "d", "e", "f", "g"},
		StatusActive:                 {"a", "c", "d", "e", "g"},
		StatusCompleted:              {"b"},
		StatusFilter(task.Blocked):   {"d"},
		StatusFilter(task.Cancelled): {"f"},
	}
	for f, want := range cases {
		if got := ids(q.ByStatus(f)); !reflect.DeepEqual(got, want) {
			t.Fatalf("ByStatus(%s) = %v, want %v", f, got, want)
		}
	}

	buckets := map[schedule.Bucket][]string{
		schedule.Overdue:  {"a"},
		schedule.Today:    {"c"},
		schedule.ThisWeek: {"d"},
		schedule.NextWeek: {"e"},
		schedule.Later:    {"b", "f"},
		schedule.NoDate:   {"g"},
	}
	for b, want := range buckets {
		if got := ids(q.ByBucket(b)); !reflect.DeepEqual(got, want) {
			t.Fatalf("ByBucket(%s) = %v, want %v", b, got, want)
		}
	}
}

func TestFilterCriteria(t *testing.T) {
	tasks := fixtureSet()
	tasks[0].Project = "Home"
	tasks[0].Tags = []string{"Errand"}
	tasks[2].Assignee = "kim"
	tasks[3].Description = "call the plumber"
	st := newStore(t, tasks)
	q := NewTasks(NewDirect(st), WithNow(func() time.Time { return now }))
	if err := q.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if got := ids(q.List(Filter{Project: "home"})); !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("project filter: %v", got)
	}
	if got := ids(q.List(Filter{Tag: "errand"})); !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("tag filter: %v", got)
	}
	if got := ids(q.List(Filter{Assignee: "KIM"})); !reflect.DeepEqual(got, []string{"c"}) {
		t.Fatalf("assignee filter: %v", got)
	}
	if got := ids(q.List(Filter{Search: "PLUMBER"})); !reflect.DeepEqual(got, []string{"d"}) {
		t.Fatalf("search filter: %v", got)
	}
	w, err := timeutil.ParseWindow("1w")
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if got := ids(q.List(Filter{DueWithin: &w})); !reflect.DeepEqual(got, []string{"c", "d"}) {
		t.Fatalf("due window filter: %v", got)
	}

	p, err := q.ListPaginated(context.Background(), 1, 1, Filter{Status: StatusActive})
	if err != nil {
		t.Fatalf("filtered page: %v", err)
	}
	if p.Total != 5 || len(p.Items) != 1 || !p.HasNext() {
		t.Fatalf("unexpected filtered page %+v", p)
	}
}

type failingSource struct {
	Source
	err error
}

func (f failingSource) List(context.Context) ([]task.Task, error) {
	return nil, f.err
}

func TestRefreshFailureKeepsSnapshot(t *testing.T) {
	st := newStore(t, fixtureSet())
	q := NewTasks(NewDirect(st))
	if err := q.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	boom := errors.New("backend down")
	q.src = failingSource{Source: q.src, err: boom}
	err := q.Refresh(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if !errors.Is(q.Err(), boom) {
		t.Fatalf("Err() should remember the failure, got %v", q.Err())
	}
	if len(q.List(Filter{})) != len(fixtureSet()) {
		t.Fatalf("previous snapshot should survive a failed refresh")
	}
}

func TestErrorsAcrossModes(t *testing.T) {
	st := newStore(t, nil)
	for mode, src := range bothModes(t, st) {
		_, err := src.Update(context.Background(), "nonexistent-id", task.Patch{Title: task.Ptr("x")})
		switch mode {
		case ModeDirect:
			if !errors.Is(err, store.ErrNotFound) {
				t.Fatalf("direct: expected store.ErrNotFound, got %v", err)
			}
		case ModeRemote:
			if !errors.Is(err, api.ErrNotFound) {
				t.Fatalf("remote: expected api.ErrNotFound, got %v", err)
			}
		}
		if err := src.Delete(context.Background(), "nonexistent-id"); err == nil {
			t.Fatalf("%s: expected delete error", mode)
		}
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("Remote"); err != nil || m != ModeRemote {
		t.Fatalf("ParseMode(Remote) = %s, %v", m, err)
	}
	if m, err := ParseMode(""); err != nil || m != ModeDirect {
		t.Fatalf("ParseMode(\"\") = %s, %v", m, err)
	}
	if _, err := ParseMode("carrier-pigeon"); err == nil {
		t.Fatalf("expected error")
	}
}
