package controls

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tableflip.dev/taskmate/pkg/events"
	"tableflip.dev/taskmate/pkg/query"
	"tableflip.dev/taskmate/pkg/reconcile"
	"tableflip.dev/taskmate/pkg/store"
	"tableflip.dev/taskmate/pkg/task"
)

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

type actions struct {
	mu  sync.Mutex
	got []events.ActionResult
}

func (a *actions) record(r events.ActionResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.got = append(a.got, r)
}

func (a *actions) list() []events.ActionResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]events.ActionResult{}, a.got...)
}

func setup(t *testing.T, seed task.Task) (*store.Store, Deps) {
	t.Helper()
	st, err := store.New([]task.Task{seed})
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	src := query.NewDirect(st)
	return st, Deps{Writer: src, Changes: src}
}

func TestCheckboxToggleRoundTrip(t *testing.T) {
	st, deps := setup(t, task.Task{ID: "t1", Title: "Water plants"})
	var acts actions
	cb, err := NewCheckbox(context.Background(), Props{Task: mustGet(t, st, "t1"), OnActionComplete: acts.record}, deps)
	if err != nil {
		t.Fatalf("NewCheckbox: %v", err)
	}
	defer cb.Close()

	cb.Toggle()
	if !cb.Value() {
		t.Fatalf("toggle should display immediately")
	}
	got := acts.list()
	if len(got) != 1 || got[0].ActionType != ActionCheckboxToggled || got[0].Details["checked"] != true {
		t.Fatalf("unexpected actions %+v", got)
	}
	eventually(t, "confirmation", func() bool { return cb.State() == reconcile.Idle })

	stored := mustGet(t, st, "t1")
	if stored.Checked == nil || !*stored.Checked {
		t.Fatalf("store not updated: %+v", stored.Checked)
	}
}

type failingWriter struct {
	err error
}

func (f failingWriter) Update(context.Context, string, task.Patch) (task.Task, error) {
	return task.Task{}, f.err
}

func TestRatingRollsBackOnWriteFailure(t *testing.T) {
	boom := errors.New("backend down")
	seed := task.Task{ID: "t1", Title: "Review", Rating: task.Ptr(2)}
	var acts actions
	r, err := NewRating(context.Background(), Props{Task: seed, OnActionComplete: acts.record}, Deps{Writer: failingWriter{err: boom}})
	if err != nil {
		t.Fatalf("NewRating: %v", err)
	}
	defer r.Close()

	if err := r.Rate(4); err != nil {
		t.Fatalf("Rate: %v", err)
	}
	eventually(t, "failure", func() bool { return r.State() == reconcile.Failed })
	if r.Value() != 2 {
		t.Fatalf("expected rollback to 2, got %d", r.Value())
	}
	if !errors.Is(r.Err(), boom) {
		t.Fatalf("Err() = %v", r.Err())
	}
	if len(acts.list()) != 1 {
		t.Fatalf("callback must fire once per submission")
	}
	if err := r.Rate(6); err == nil {
		t.Fatalf("expected range error")
	}
	if len(acts.list()) != 1 {
		t.Fatalf("rejected input must not report an action")
	}
}

func TestProgressDragReportsOnlyOnRelease(t *testing.T) {
	st, deps := setup(t, task.Task{ID: "t1", Title: "Paint fence", Progress: task.Ptr(10)})
	var acts actions
	p, err := NewProgress(context.Background(), Props{Task: mustGet(t, st, "t1"), OnActionComplete: acts.record}, deps)
	if err != nil {
		t.Fatalf("NewProgress: %v", err)
	}
	defer p.Close()

	p.BeginDrag()
	for _, v := range []int{20, 35, 150} {
		p.Drag(v)
	}
	if p.Value() != 100 {
		t.Fatalf("drag values are clamped, got %d", p.Value())
	}
	if len(acts.list()) != 0 {
		t.Fatalf("drag steps must not report actions")
	}
	if stored := mustGet(t, st, "t1"); *stored.Progress != 10 {
		t.Fatalf("drag steps must not write, store has %d", *stored.Progress)
	}

	p.Release(60)
	if got := acts.list(); len(got) != 1 || got[0].Details["progress"] != 60 {
		t.Fatalf("unexpected actions %+v", got)
	}
	eventually(t, "confirmation", func() bool { return p.State() == reconcile.Idle })
	if p.Value() != 60 {
		t.Fatalf("expected 60, got %d", p.Value())
	}
}

func TestExternalUpdatesReachIdleControls(t *testing.T) {
	st, deps := setup(t, task.Task{ID: "t1", Title: "Plan trip"})
	sel, err := NewSingleSelect(context.Background(), Props{
		Task:    mustGet(t, st, "t1"),
		Payload: map[string]any{"options": []any{"low", "medium", "high"}},
	}, deps)
	if err != nil {
		t.Fatalf("NewSingleSelect: %v", err)
	}
	defer sel.Close()

	if _, err := st.Update("t1", task.Patch{Selection: task.Ptr("high")}); err != nil {
		t.Fatalf("update: %v", err)
	}
	eventually(t, "external change", func() bool { return sel.Value() == "high" })

	if err := sel.Select("urgent"); err == nil {
		t.Fatalf("expected unknown option error")
	}
	if err := sel.Select("low"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	eventually(t, "confirmation", func() bool { return sel.State() == reconcile.Idle && sel.Value() == "low" })
}

func TestApprovalAndCalendar(t *testing.T) {
	st, deps := setup(t, task.Task{ID: "t1", Title: "Expense report", Status: task.InProgress})
	var acts actions
	props := Props{Task: mustGet(t, st, "t1"), OnActionComplete: acts.record}

	ap, err := NewApproval(context.Background(), props, deps)
	if err != nil {
		t.Fatalf("NewApproval: %v", err)
	}
	defer ap.Close()
	cal, err := NewCalendar(context.Background(), props, deps)
	if err != nil {
		t.Fatalf("NewCalendar: %v", err)
	}
	defer cal.Close()

	ap.Reject()
	eventually(t, "approval", func() bool { return ap.State() == reconcile.Idle && ap.Decided() })
	if ap.Value() != task.Cancelled {
		t.Fatalf("expected cancelled, got %s", ap.Value())
	}

	due := task.NewDate(2025, time.December, 24)
	if err := cal.Pick(due); err != nil {
		t.Fatalf("Pick: %v", err)
	}
	eventually(t, "due date", func() bool { return cal.State() == reconcile.Idle })
	if !cal.Value().Equal(due) {
		t.Fatalf("expected %s, got %s", due, cal.Value())
	}
	if err := cal.Pick(task.Date{}); err == nil {
		t.Fatalf("expected error for empty date")
	}

	got := acts.list()
	if len(got) != 2 || got[0].ActionType != ActionApprovalDecided || got[1].ActionType != ActionDueDateChanged {
		t.Fatalf("unexpected actions %+v", got)
	}
	if got[0].Details["decision"] != "rejected" {
		t.Fatalf("unexpected approval details %+v", got[0].Details)
	}
	stored := mustGet(t, st, "t1")
	if stored.Status != task.Cancelled || stored.DueDate == nil || !stored.DueDate.Equal(due) {
		t.Fatalf("store not updated: %+v", stored)
	}
}

func TestBindRequiresTaskAndWriter(t *testing.T) {
	if _, err := NewCheckbox(context.Background(), Props{}, Deps{Writer: failingWriter{}}); err == nil {
		t.Fatalf("expected error without task id")
	}
	if _, err := NewCheckbox(context.Background(), Props{Task: task.Task{ID: "x"}}, Deps{}); err == nil {
		t.Fatalf("expected error without writer")
	}
}

func mustGet(t *testing.T, st *store.Store, id string) task.Task {
	t.Helper()
	tk, err := st.Get(id)
	if err != nil {
		t.Fatalf("get %s: %v", id, err)
	}
	return tk
}

// slowWriter delays each write by a per-value latency and records the order
// in which writes reach the backing writer.
type slowWriter struct {
	next  Writer
	delay func(task.Patch) time.Duration

	mu     sync.Mutex
	landed []int
}

func (w *slowWriter) Update(ctx context.Context, id string, p task.Patch) (task.Task, error) {
	time.Sleep(w.delay(p))
	w.mu.Lock()
	if p.Rating != nil {
		w.landed = append(w.landed, *p.Rating)
	}
	w.mu.Unlock()
	return w.next.Update(ctx, id, p)
}

type history struct {
	mu   sync.Mutex
	seen []int
}

func (h *history) record(v int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, v)
}

func (h *history) list() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]int{}, h.seen...)
}

func TestRatingLastSubmissionWinsWithOutOfOrderLatency(t *testing.T) {
	st, deps := setup(t, task.Task{ID: "t1", Title: "Review"})
	w := &slowWriter{
		next: deps.Writer,
		delay: func(p task.Patch) time.Duration {
			if p.Rating != nil && *p.Rating == 3 {
				return 150 * time.Millisecond
			}
			return 10 * time.Millisecond
		},
	}
	deps.Writer = w

	r, err := NewRating(context.Background(), Props{Task: mustGet(t, st, "t1")}, deps)
	if err != nil {
		t.Fatalf("NewRating: %v", err)
	}
	defer r.Close()
	var shown history
	r.OnChange(shown.record)

	if err := r.Rate(3); err != nil {
		t.Fatalf("Rate(3): %v", err)
	}
	if err := r.Rate(5); err != nil {
		t.Fatalf("Rate(5): %v", err)
	}

	eventually(t, "last rating stored", func() bool {
		stored := mustGet(t, st, "t1")
		return r.State() == reconcile.Idle && stored.Rating != nil && *stored.Rating == 5
	})
	// Leave room for a late write or change event to land.
	time.Sleep(200 * time.Millisecond)

	if stored := mustGet(t, st, "t1"); *stored.Rating != 5 {
		t.Fatalf("store ended on %d, want 5", *stored.Rating)
	}
	if r.Value() != 5 {
		t.Fatalf("display ended on %d, want 5", r.Value())
	}
	w.mu.Lock()
	landed := append([]int{}, w.landed...)
	w.mu.Unlock()
	if landed[len(landed)-1] != 5 {
		t.Fatalf("writes landed as %v, the last submission must land last", landed)
	}
	seen := shown.list()
	for i, v := range seen {
		if v == 5 {
			for _, later := range seen[i:] {
				if later != 5 {
					t.Fatalf("display went back to %d after showing 5: %v", later, seen)
				}
			}
			break
		}
	}
}

// manualWatcher hands out one channel the test feeds directly.
type manualWatcher struct {
	ch chan events.TaskChangeMsg
}

func (m manualWatcher) Watch(ctx context.Context) (<-chan events.TaskChangeMsg, error) {
	go func() {
		<-ctx.Done()
		close(m.ch)
	}()
	return m.ch, nil
}

// stampWriter answers every write with the patched task stamped at.
type stampWriter struct {
	at time.Time
}

func (w stampWriter) Update(_ context.Context, id string, p task.Patch) (task.Task, error) {
	return p.Apply(task.Task{ID: id, Title: "Review", UpdatedAt: task.At(w.at)}), nil
}

func TestStaleChangeEventsAreIgnored(t *testing.T) {
	base := time.Date(2025, 10, 30, 9, 0, 0, 0, time.UTC)
	seed := task.Task{ID: "t1", Title: "Review", Rating: task.Ptr(1), UpdatedAt: task.At(base)}
	watcher := manualWatcher{ch: make(chan events.TaskChangeMsg, 4)}

	r, err := NewRating(context.Background(), Props{Task: seed}, Deps{
		Writer:  stampWriter{at: base.Add(2 * time.Second)},
		Changes: watcher,
	})
	if err != nil {
		t.Fatalf("NewRating: %v", err)
	}
	defer r.Close()
	var shown history
	r.OnChange(shown.record)

	if err := r.Rate(4); err != nil {
		t.Fatalf("Rate: %v", err)
	}
	eventually(t, "write confirmation", func() bool { return r.State() == reconcile.Idle })

	stale := seed.Clone()
	stale.Rating = task.Ptr(2)
	stale.UpdatedAt = task.At(base.Add(time.Second))
	fresh := seed.Clone()
	fresh.Rating = task.Ptr(3)
	fresh.UpdatedAt = task.At(base.Add(3 * time.Second))
	watcher.ch <- events.TaskChangeMsg{Action: events.ChangeUpdate, Task: stale}
	watcher.ch <- events.TaskChangeMsg{Action: events.ChangeUpdate, Task: fresh}

	eventually(t, "fresh change", func() bool { return r.Value() == 3 })
	for _, v := range shown.list() {
		if v == 2 {
			t.Fatalf("stale change was displayed: %v", shown.list())
		}
	}
}
