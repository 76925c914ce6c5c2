package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"tableflip.dev/taskmate/pkg/logging"
	"tableflip.dev/taskmate/pkg/task"
)

// NewHandler exposes the simulator on real HTTP routes. Bodies are JSON and
// failures answer {"error": "..."} with the simulated status code.
func NewHandler(sim *Simulator, logger *log.Logger) http.Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	h := &handler{sim: sim}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /tasks", h.listTasks)
	mux.HandleFunc("POST /tasks", h.createTask)
	mux.HandleFunc("GET /tasks/{id}", h.getTask)
	mux.HandleFunc("PATCH /tasks/{id}", h.updateTask)
	mux.HandleFunc("DELETE /tasks/{id}", h.deleteTask)
	mux.HandleFunc("GET /tasks/{id}/activities", h.listActivities)
	mux.HandleFunc("POST /tasks/{id}/activities", h.addActivity)
	return withRequestLog(logger, mux)
}

type handler struct {
	sim *Simulator
}

func (h *handler) listTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("page") && !q.Has("pageSize") {
		respond(w, h.sim.ListTasks(r.Context()))
		return
	}
	page, err := queryInt(q.Get("page"), 1)
	if err != nil {
		respondError(w, StatusBadRequest, "page must be an integer")
		return
	}
	size, err := queryInt(q.Get("pageSize"), DefaultPageSize)
	if err != nil {
		respondError(w, StatusBadRequest, "pageSize must be an integer")
		return
	}
	respond(w, h.sim.ListTasksPage(r.Context(), page, size))
}

func (h *handler) getTask(w http.ResponseWriter, r *http.Request) {
	respond(w, h.sim.GetTask(r.Context(), r.PathValue("id")))
}

func (h *handler) createTask(w http.ResponseWriter, r *http.Request) {
	var p task.Patch
	if !decodeBody(w, r, &p) {
		return
	}
	respond(w, h.sim.CreateTask(r.Context(), p))
}

func (h *handler) updateTask(w http.ResponseWriter, r *http.Request) {
	var p task.Patch
	if !decodeBody(w, r, &p) {
		return
	}
	respond(w, h.sim.UpdateTask(r.Context(), r.PathValue("id"), p))
}

func (h *handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	respond(w, h.sim.DeleteTask(r.Context(), r.PathValue("id")))
}

func (h *handler) listActivities(w http.ResponseWriter, r *http.Request) {
	respond(w, h.sim.ListActivities(r.Context(), r.PathValue("id")))
}

func (h *handler) addActivity(w http.ResponseWriter, r *http.Request) {
	var a task.Activity
	if !decodeBody(w, r, &a) {
		return
	}
	respond(w, h.sim.AddActivity(r.Context(), r.PathValue("id"), a))
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		respondError(w, StatusBadRequest, "malformed JSON body: "+err.Error())
		return false
	}
	return true
}

func queryInt(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func respond[T any](w http.ResponseWriter, res Result[T]) {
	if !res.OK() {
		respondError(w, res.Status, res.Message)
		return
	}
	if res.Status == StatusNoContent {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, res.Status, res.Data)
}

func respondError(w http.ResponseWriter, status Status, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status Status, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(int(status))
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func withRequestLog(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		logger.Info("http", "method", r.Method, "path", r.URL.Path, "status", rec.status, "took", time.Since(start))
	})
}
