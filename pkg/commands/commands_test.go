package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"strings"
	"testing"

	"github.com/fatih/color"

	"tableflip.dev/taskmate/pkg/schedule"
	"tableflip.dev/taskmate/pkg/store"
	"tableflip.dev/taskmate/pkg/task"
)

func seedFixtures(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	tasks := []task.Task{
		{ID: "t1", Title: "Write report", Status: task.Todo, Project: "Work"},
		{ID: "t2", Title: "Water plants", Status: task.InProgress},
		{ID: "t3", Title: "Old errand", Status: task.Done},
	}
	if err := store.SaveFixtures(context.Background(), dir, tasks); err != nil {
		t.Fatalf("SaveFixtures: %v", err)
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	cmd := New()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestListJSONFiltersByStatus(t *testing.T) {
	dir := seedFixtures(t)

	out, err := execute(t, "--fixtures", dir, "--json", "list", "--status", "active")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var tasks []task.Task
	if err := json.Unmarshal([]byte(out), &tasks); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 active tasks, got %d", len(tasks))
	}
	for _, tk := range tasks {
		if tk.Status == task.Done {
			t.Fatalf("done task %s leaked into active list", tk.ID)
		}
	}
}

func TestListPageJSON(t *testing.T) {
	dir := seedFixtures(t)

	out, err := execute(t, "--fixtures", dir, "--json", "list", "--page", "2", "--page-size", "2")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var page struct {
		Items    []task.Task `json:"items"`
		Page     int         `json:"page"`
		PageSize int         `json:"pageSize"`
		Total    int         `json:"total"`
	}
	if err := json.Unmarshal([]byte(out), &page); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if page.Page != 2 || page.Total != 3 || len(page.Items) != 1 {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestAddWithWritebackPersists(t *testing.T) {
	dir := seedFixtures(t)

	if _, err := execute(t, "--fixtures", dir, "--writeback", "--json", "add", "Buy", "milk", "--due", "2026-1-2", "--tag", "errand"); err != nil {
		t.Fatalf("add: %v", err)
	}

	out, err := execute(t, "--fixtures", dir, "--json", "list", "--search", "milk")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var tasks []task.Task
	if err := json.Unmarshal([]byte(out), &tasks); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected the new task to survive a restart, got %d", len(tasks))
	}
	got := tasks[0]
	if got.Title != "Buy milk" || got.DueDate == nil || got.DueDate.String() != "2026-01-02" || !got.HasTag("errand") {
		t.Fatalf("unexpected task: %+v", got)
	}
}

func TestSetRequiresChanges(t *testing.T) {
	dir := seedFixtures(t)

	if _, err := execute(t, "--fixtures", dir, "set", "t1"); err == nil {
		t.Fatal("expected error for empty update")
	}
	if _, err := execute(t, "--fixtures", dir, "set", "t1", "--rating", "7"); err == nil {
		t.Fatal("expected error for out of range rating")
	}
}

func TestScheduleBucketJSON(t *testing.T) {
	dir := seedFixtures(t)

	out, err := execute(t, "--fixtures", dir, "--json", "schedule", "--bucket", "no-date")
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	var sections []schedule.Section
	if err := json.Unmarshal([]byte(out), &sections); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(sections) != 1 || sections[0].Bucket != schedule.NoDate {
		t.Fatalf("expected only the no date section, got %+v", sections)
	}
	if len(sections[0].Tasks) != 2 {
		t.Fatalf("expected the 2 active undated tasks, got %d", len(sections[0].Tasks))
	}
}

func TestControlRateInRemoteMode(t *testing.T) {
	dir := seedFixtures(t)

	out, err := execute(t,
		"--fixtures", dir,
		"--mode", "remote",
		"--latency-min", "0s",
		"--latency-max", "0s",
		"--json",
		"control", "rate", "t1", "4",
	)
	if err != nil {
		t.Fatalf("control rate: %v", err)
	}
	var res controlResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if res.State != "idle" || res.Error != "" {
		t.Fatalf("expected settled control, got %+v", res)
	}
	if len(res.Actions) != 1 || res.Actions[0].ActionType != "rating_changed" {
		t.Fatalf("expected one rating_changed action, got %+v", res.Actions)
	}
	if res.Task == nil || res.Task.Rating == nil || *res.Task.Rating != 4 {
		t.Fatalf("expected rating 4 to be stored, got %+v", res.Task)
	}
}

func TestControlProgressOnlyReleaseIsReported(t *testing.T) {
	dir := seedFixtures(t)

	out, err := execute(t, "--fixtures", dir, "--json", "control", "progress", "t2", "80", "--steps", "4")
	if err != nil {
		t.Fatalf("control progress: %v", err)
	}
	var res controlResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(res.Actions) != 1 {
		t.Fatalf("expected only the release to be reported, got %+v", res.Actions)
	}
	if res.Task == nil || res.Task.Progress == nil || *res.Task.Progress != 80 {
		t.Fatalf("expected progress 80, got %+v", res.Task)
	}
}

func TestControlRejectsInvalidRating(t *testing.T) {
	dir := seedFixtures(t)

	if _, err := execute(t, "--fixtures", dir, "control", "rate", "t1", "9"); err == nil {
		t.Fatal("expected error for rating 9")
	}
	if _, err := execute(t, "--fixtures", dir, "control", "rate", "missing", "3"); err == nil {
		t.Fatal("expected error for unknown task")
	}
}

func TestBadModeFails(t *testing.T) {
	if _, err := execute(t, "--mode", "carrier-pigeon", "list"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestShowRendersDetail(t *testing.T) {
	dir := seedFixtures(t)

	out, err := execute(t, "--fixtures", dir, "show", "t1")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "Write report") || !strings.Contains(out, "Work") {
		t.Fatalf("expected title and project in output:\n%s", out)
	}
}

func TestListenURLUsesBoundAddress(t *testing.T) {
	cases := map[string]struct {
		addr   net.Addr
		secure bool
		want   string
	}{
		"v4":    {&net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 8082}, false, "http://127.0.0.1:8082/mcp"},
		"v6":    {&net.TCPAddr{IP: net.IPv6loopback, Port: 9000}, false, "http://[::1]:9000/mcp"},
		"https": {&net.TCPAddr{IP: net.IPv4(10, 0, 0, 2), Port: 443}, true, "https://10.0.0.2:443/mcp"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := listenURL(tc.addr, tc.secure, "/mcp"); got != tc.want {
				t.Fatalf("listenURL = %q, want %q", got, tc.want)
			}
		})
	}
}
