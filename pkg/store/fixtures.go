package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/peterbourgon/diskv/v3"

	"tableflip.dev/taskmate/pkg/task"
)

const fixtureExt = ".json"

func openFixtures(dir string) *diskv.Diskv {
	return diskv.New(diskv.Options{
		BasePath:     dir,
		CacheSizeMax: 1024 * 1024, // 1MB
	})
}

// LoadFixtures reads every task record from the fixture directory. Each key
// holds one loosely shaped JSON object that is normalized with task.Normalize.
// Records that fail to normalize are logged and skipped so one bad file does
// not take down the whole seed set.
func LoadFixtures(ctx context.Context, dir string, logger *log.Logger) ([]task.Task, error) {
	if dir == "" {
		return nil, errors.New("store: fixture directory unknown")
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("store: fixture directory: %w", err)
	}
	if logger == nil {
		logger = log.New(os.Stderr)
	}

	d := openFixtures(dir)
	keys := make([]string, 0)
	for key := range d.Keys(ctx.Done()) {
		if isFixtureFile(key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	out := make([]task.Task, 0, len(keys))
	seen := make(map[string]string, len(keys))
	for _, key := range keys {
		data, err := d.Read(key)
		if err != nil {
			logger.Warn("skipping unreadable fixture", "key", key, "err", err)
			continue
		}
		t, err := task.NormalizeJSON(data)
		if err != nil {
			logger.Warn("skipping malformed fixture", "key", key, "err", err)
			continue
		}
		if t.ID == "" {
			t.ID = strings.TrimSuffix(key, fixtureExt)
		}
		if other, dup := seen[t.ID]; dup {
			logger.Warn("skipping duplicate fixture id", "key", key, "id", t.ID, "first", other)
			continue
		}
		seen[t.ID] = key
		out = append(out, t)
	}
	return out, nil
}

// SaveFixtures writes one key per task and removes fixture keys for tasks
// that no longer exist.
func SaveFixtures(ctx context.Context, dir string, tasks []task.Task) error {
	if dir == "" {
		return errors.New("store: fixture directory unknown")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: ensure fixture directory: %w", err)
	}
	d := openFixtures(dir)

	keep := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		key := fixtureKey(t.ID)
		if key == "" {
			return fmt.Errorf("store: task id %q cannot be used as a fixture key", t.ID)
		}
		data, err := json.MarshalIndent(t, "", "  ")
		if err != nil {
			return err
		}
		if err := d.Write(key, data); err != nil {
			return fmt.Errorf("store: write fixture %s: %w", key, err)
		}
		keep[key] = struct{}{}
	}

	stale := make([]string, 0)
	for key := range d.Keys(ctx.Done()) {
		if _, ok := keep[key]; !ok && isFixtureFile(key) {
			stale = append(stale, key)
		}
	}
	for _, key := range stale {
		if err := d.Erase(key); err != nil {
			return fmt.Errorf("store: erase fixture %s: %w", key, err)
		}
	}
	return nil
}

func fixtureKey(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		return ""
	}
	return id + fixtureExt
}

func isFixtureFile(name string) bool {
	base := filepath.Base(name)
	return strings.HasSuffix(base, fixtureExt) && !strings.HasPrefix(base, ".")
}

// DefaultFixtures is the built-in seed set. Due dates are relative to today so
// every schedule bucket has something in it no matter when the process starts.
func DefaultFixtures(now time.Time) []task.Task {
	today := task.DateOf(now)
	created := func(hoursAgo int) task.Timestamp {
		return task.At(now.Add(-time.Duration(hoursAgo) * time.Hour))
	}
	due := func(days int) *task.Date {
		d := today.AddDays(days)
		return &d
	}
	weather := func(w task.Weather) *task.Weather { return &w }

	return []task.Task{
		{
			ID: "task-1", Title: "Submit expense report", Status: task.InProgress,
			DueDate: due(-2), Progress: task.Ptr(60), Project: "Finance", Assignee: "alex",
			Tags: []string{"work"}, CreatedAt: created(240),
		},
		{
			ID: "task-2", Title: "Renew passport", Status: task.Done,
			DueDate: due(-5), Checked: task.Ptr(true), Project: "Personal",
			CreatedAt: created(200),
		},
		{
			ID: "task-3", Title: "Team standup notes", Status: task.Todo,
			DueDate: due(0), Checked: task.Ptr(false), Project: "Work", Assignee: "sam",
			Tags: []string{"work", "meetings"}, CreatedAt: created(180),
		},
		{
			ID: "task-4", Title: "Review design mockups", Status: task.Todo,
			DueDate: due(3), Rating: task.Ptr(4), Project: "Work", Assignee: "kim",
			Selection: task.Ptr("medium"), CustomFields: map[string]string{"priority": "medium"},
			CreatedAt: created(150),
		},
		{
			ID: "task-5", Title: "Plan weekend hike", Status: task.Todo,
			DueDate: due(7), Weather: weather(task.Sunny), Project: "Personal",
			Tags: []string{"outdoors"}, CreatedAt: created(120),
		},
		{
			ID: "task-6", Title: "Quarterly budget approval", Status: task.Blocked,
			DueDate: due(10), Project: "Finance", Assignee: "alex",
			Activities: []task.Activity{{
				ID: "act-1", Type: task.ActivityComment, Message: "Waiting on numbers from sales",
				Author: "alex", CreatedAt: created(48),
			}},
			CreatedAt: created(100),
		},
		{
			ID: "task-7", Title: "Write conference talk", Status: task.InProgress,
			DueDate: due(30), Progress: task.Ptr(15), Project: "Work",
			Attachments: []task.Attachment{{ID: "att-1", Name: "outline.md"}},
			CreatedAt: created(80),
		},
		{
			ID: "task-8", Title: "Organize garage", Status: task.Todo,
			Project: "Home", Tags: []string{"chores"}, CreatedAt: created(60),
		},
	}
}
