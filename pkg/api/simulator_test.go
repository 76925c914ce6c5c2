package api

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"tableflip.dev/taskmate/pkg/store"
	"tableflip.dev/taskmate/pkg/task"
)

func newTestSimulator(t *testing.T, seed []task.Task, opts ...Option) (*Simulator, *store.Store) {
	t.Helper()
	clock := time.Date(2025, 10, 30, 9, 0, 0, 0, time.UTC)
	n := 0
	st, err := store.New(seed,
		store.WithClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}),
		store.WithIDs(func() string {
			n++
			return fmt.Sprintf("gen-%d", n)
		}),
	)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	opts = append([]Option{WithLatency(Latency{})}, opts...)
	return New(st, opts...), st
}

func seedTasks(n int) []task.Task {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]task.Task, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, task.Task{
			ID:        fmt.Sprintf("task-%02d", i),
			Title:     fmt.Sprintf("Task %d", i),
			Status:    task.Todo,
			CreatedAt: task.At(base.Add(time.Duration(i) * time.Minute)),
		})
	}
	return out
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	sim, _ := newTestSimulator(t, nil)
	ctx := context.Background()

	created := sim.CreateTask(ctx, task.Patch{Title: task.Ptr("Buy milk")})
	if created.Status != StatusCreated {
		t.Fatalf("expected 201, got %s (%s)", created.Status, created.Message)
	}
	if created.Data.ID == "" {
		t.Fatalf("expected generated id")
	}

	got := sim.GetTask(ctx, created.Data.ID)
	if got.Status != StatusOK {
		t.Fatalf("expected 200, got %s", got.Status)
	}
	if got.Data.Status != task.Todo {
		t.Fatalf("expected todo, got %s", got.Data.Status)
	}
	if !got.Data.CreatedAt.Equal(got.Data.UpdatedAt.Time) {
		t.Fatalf("expected createdAt == updatedAt, got %s vs %s", got.Data.CreatedAt, got.Data.UpdatedAt)
	}
}

func TestErrorScenarios(t *testing.T) {
	sim, st := newTestSimulator(t, seedTasks(1))
	ctx := context.Background()

	res := sim.UpdateTask(ctx, "nonexistent-id", task.Patch{Title: task.Ptr("x")})
	if res.Status != StatusNotFound {
		t.Fatalf("expected 404, got %s", res.Status)
	}
	if res.Message != `Task with id "nonexistent-id" not found` {
		t.Fatalf("unexpected message %q", res.Message)
	}
	if !errors.Is(res.Err(), ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", res.Err())
	}

	if res := sim.CreateTask(ctx, task.Patch{Title: task.Ptr("   ")}); res.Status != StatusBadRequest {
		t.Fatalf("expected 400 for blank title, got %s", res.Status)
	}
	if res := sim.CreateTask(ctx, task.Patch{}); res.Status != StatusBadRequest {
		t.Fatalf("expected 400 for missing title, got %s", res.Status)
	}

	res = sim.UpdateTask(ctx, "task-00", task.Patch{Title: task.Ptr("")})
	if res.Status != StatusBadRequest || !errors.Is(res.Err(), ErrBadRequest) {
		t.Fatalf("expected 400, got %s", res.Status)
	}
	stored, err := st.Get("task-00")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Title != "Task 0" {
		t.Fatalf("title changed to %q", stored.Title)
	}

	if res := sim.UpdateTask(ctx, "task-00", task.Patch{Rating: task.Ptr(9)}); res.Status != StatusBadRequest {
		t.Fatalf("expected 400 for rating 9, got %s", res.Status)
	}
	if res := sim.DeleteTask(ctx, "missing"); res.Status != StatusNotFound {
		t.Fatalf("expected 404 deleting missing task, got %s", res.Status)
	}
	if res := sim.DeleteTask(ctx, "task-00"); res.Status != StatusNoContent {
		t.Fatalf("expected 204, got %s", res.Status)
	}
}

func TestActivityConflict(t *testing.T) {
	sim, _ := newTestSimulator(t, seedTasks(1))
	ctx := context.Background()

	first := sim.AddActivity(ctx, "task-00", task.Activity{ID: "a1", Message: "hello"})
	if first.Status != StatusOK || first.Data.ID != "task-00" {
		t.Fatalf("expected 200 with the updated task, got %+v", first)
	}
	if len(first.Data.Activities) != 1 || first.Data.Activities[0].ID != "a1" {
		t.Fatalf("expected the new activity on the task, got %+v", first.Data.Activities)
	}
	dup := sim.AddActivity(ctx, "task-00", task.Activity{ID: "a1", Message: "again"})
	if dup.Status != StatusConflict || !errors.Is(dup.Err(), ErrConflict) {
		t.Fatalf("expected 409, got %s", dup.Status)
	}
	if res := sim.AddActivity(ctx, "task-00", task.Activity{}); res.Status != StatusBadRequest {
		t.Fatalf("expected 400 for empty activity, got %s", res.Status)
	}
	list := sim.ListActivities(ctx, "task-00")
	if !list.OK() || len(list.Data) != 1 {
		t.Fatalf("expected one activity, got %+v", list)
	}
	if res := sim.ListActivities(ctx, "missing"); res.Status != StatusNotFound {
		t.Fatalf("expected 404, got %s", res.Status)
	}
}

func TestListTasksPageTermination(t *testing.T) {
	sim, _ := newTestSimulator(t, seedTasks(45))
	ctx := context.Background()

	want := []int{20, 20, 5}
	page := 1
	for {
		res := sim.ListTasksPage(ctx, page, 20)
		if !res.OK() {
			t.Fatalf("page %d: %s", page, res.Status)
		}
		if len(res.Data.Items) != want[page-1] {
			t.Fatalf("page %d: expected %d items, got %d", page, want[page-1], len(res.Data.Items))
		}
		if !res.Data.HasNext() {
			break
		}
		page++
	}
	if page != 3 {
		t.Fatalf("expected to stop after page 3, stopped at %d", page)
	}

	past := sim.ListTasksPage(ctx, 4, 20)
	if len(past.Data.Items) != 0 || past.Data.HasNext() {
		t.Fatalf("page 4 should be empty and terminal: %+v", past.Data)
	}
	if past.Data.Page != 3 {
		t.Fatalf("page number must not exceed ceil(total/pageSize), got %d", past.Data.Page)
	}
}

func TestLatencyWithinBounds(t *testing.T) {
	var waited []time.Duration
	sleep := func(_ context.Context, d time.Duration) error {
		waited = append(waited, d)
		return nil
	}
	for _, pick := range []func(int64) int64{
		func(int64) int64 { return 0 },
		func(n int64) int64 { return n - 1 },
	} {
		sim, _ := newTestSimulator(t, nil,
			WithLatency(Latency{Min: 100 * time.Millisecond, Max: 300 * time.Millisecond}),
			WithRand(pick),
			WithSleep(sleep),
		)
		sim.ListTasks(context.Background())
	}
	if len(waited) != 2 {
		t.Fatalf("expected two waits, got %d", len(waited))
	}
	if waited[0] != 100*time.Millisecond || waited[1] != 300*time.Millisecond {
		t.Fatalf("unexpected latencies %v", waited)
	}
}

func TestCancelledContextIsInternalError(t *testing.T) {
	sim, st := newTestSimulator(t, nil, WithLatency(Latency{Min: time.Hour, Max: time.Hour}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := sim.CreateTask(ctx, task.Patch{Title: task.Ptr("never")})
	if res.Status != StatusInternalError || !errors.Is(res.Err(), ErrInternal) {
		t.Fatalf("expected 500, got %s", res.Status)
	}
	if st.Len() != 0 {
		t.Fatalf("store must not change on a cancelled request")
	}
}

func TestPanicBecomesInternalError(t *testing.T) {
	sim := New(nil, WithLatency(Latency{}))
	res := sim.GetTask(context.Background(), "any")
	if res.Status != StatusInternalError {
		t.Fatalf("expected 500 from panic, got %s", res.Status)
	}
}

func TestPaginateClamps(t *testing.T) {
	items := seedTasks(5)
	p := Paginate(items, 0, 0)
	if p.Page != 1 || p.PageSize != DefaultPageSize || len(p.Items) != 5 {
		t.Fatalf("unexpected clamp result %+v", p)
	}
	empty := Paginate(nil, 3, 10)
	if empty.Page != 1 || len(empty.Items) != 0 || empty.HasNext() {
		t.Fatalf("unexpected empty page %+v", empty)
	}
}
