package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"tableflip.dev/taskmate/pkg/task"
)

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerTaskLifecycle(t *testing.T) {
	sim, _ := newTestSimulator(t, nil)
	h := NewHandler(sim, nil)

	rec := do(t, h, http.MethodPost, "/tasks", `{"title":"Buy milk"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created task.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = do(t, h, http.MethodPatch, "/tasks/"+created.ID, `{"progress":40,"rating":null}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch: expected 200, got %d", rec.Code)
	}
	var updated task.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Progress == nil || *updated.Progress != 40 || updated.Title != "Buy milk" {
		t.Fatalf("unexpected update result %+v", updated)
	}

	rec = do(t, h, http.MethodGet, "/tasks?page=1&pageSize=10", "")
	var page Page
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 {
		t.Fatalf("unexpected page %+v", page)
	}

	if rec := do(t, h, http.MethodDelete, "/tasks/"+created.ID, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}
	rec = do(t, h, http.MethodGet, "/tasks/"+created.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body["error"] == "" {
		t.Fatalf("expected error message in body")
	}
}

func TestHandlerRejectsMalformedInput(t *testing.T) {
	sim, _ := newTestSimulator(t, seedTasks(1))
	h := NewHandler(sim, nil)

	if rec := do(t, h, http.MethodPost, "/tasks", `{"title":`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed JSON, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/tasks?page=x", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad page, got %d", rec.Code)
	}
	rec := do(t, h, http.MethodPost, "/tasks/task-00/activities", `{"id":"a","message":"hi"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var updated task.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	if updated.ID != "task-00" || len(updated.Activities) != 1 || updated.Activities[0].Message != "hi" {
		t.Fatalf("expected the updated task, got %+v", updated)
	}
	rec = do(t, h, http.MethodPost, "/tasks/task-00/activities", `{"id":"a","message":"hi"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}
