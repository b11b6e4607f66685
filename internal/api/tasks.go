package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/classtask/classtask-core/internal/auth"
	"github.com/classtask/classtask-core/internal/task"
)

// maxIDLen limits URL id parameter length to prevent DoS via oversized params.
const maxIDLen = 100

// createTaskRequest is the request body for POST /tasks.
type createTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	Progress    string     `json:"progress"`
}

// updateTaskRequest is the request body for PUT /tasks/{id}. All fields are
// optional; absent fields are left untouched. DueDate distinguishes absent
// from an explicit null, which clears the date.
type updateTaskRequest struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	DueDate     task.NullableTime `json:"dueDate"`
	Progress    *task.Progress    `json:"progress"`
}

// handleListTasks returns every task the subject may see, newest first.
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	subject, ok := subjectFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}

	tasks, err := s.resolver.ListVisible(r.Context(), subject)
	if err != nil {
		s.logger.Error("listing visible tasks", "error", err, "subject", subject.ID)
		writeInternalError(w, "failed to list tasks")
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"tasks": tasks,
		"count": len(tasks),
	})
}

// handleCreateTask creates a task owned by the subject. The owner is taken
// from the bearer token, never from the body.
func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	subject, ok := subjectFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	tk, err := task.New(subject.ID, req.Title, req.Description, req.DueDate, task.Progress(req.Progress))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.tasks.Create(r.Context(), tk); err != nil {
		s.logger.Error("creating task", "error", err, "subject", subject.ID)
		writeInternalError(w, "failed to create task")
		return
	}

	identity := subject.Identity()
	tk.Owner = &identity

	writeSuccess(w, http.StatusCreated, tk)
}

// handleUpdateTask partially updates a task. Only the owner may update;
// a teacher who can read the task still gets a 403 here.
func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	subject, ok := subjectFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}

	tk, ok := s.fetchTask(w, r)
	if !ok {
		return
	}

	if !auth.CanMutateTask(subject, tk.OwnerID) {
		writeForbidden(w, "only the owner can modify a task")
		return
	}

	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Title == nil && req.Description == nil && !req.DueDate.Set && req.Progress == nil {
		writeBadRequest(w, "no fields to update")
		return
	}

	err := tk.Apply(task.Update{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Progress:    req.Progress,
	})
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.tasks.Update(r.Context(), tk); err != nil {
		if errors.Is(err, task.ErrTaskNotFound) {
			// Deleted between the fetch and the write.
			writeNotFound(w, "task not found")
			return
		}
		s.logger.Error("updating task", "error", err, "task", tk.ID)
		writeInternalError(w, "failed to update task")
		return
	}

	identity := subject.Identity()
	tk.Owner = &identity

	writeSuccess(w, http.StatusOK, tk)
}

// handleDeleteTask deletes a task. Only the owner may delete; a second
// delete of the same id reports 404.
func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	subject, ok := subjectFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}

	tk, ok := s.fetchTask(w, r)
	if !ok {
		return
	}

	if !auth.CanMutateTask(subject, tk.OwnerID) {
		writeForbidden(w, "only the owner can delete a task")
		return
	}

	if err := s.tasks.Delete(r.Context(), tk.ID, subject.ID); err != nil {
		if errors.Is(err, task.ErrTaskNotFound) {
			writeNotFound(w, "task not found")
			return
		}
		s.logger.Error("deleting task", "error", err, "task", tk.ID)
		writeInternalError(w, "failed to delete task")
		return
	}

	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "task deleted"})
}

// fetchTask loads the task addressed by the URL. A malformed or unknown id
// is a 404 either way; existence and shape of the id are not distinguished.
func (s *Server) fetchTask(w http.ResponseWriter, r *http.Request) (*task.Task, bool) {
	id := chi.URLParam(r, "id")
	if id == "" || len(id) > maxIDLen {
		writeNotFound(w, "task not found")
		return nil, false
	}

	tk, err := s.tasks.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, task.ErrTaskNotFound) {
			writeNotFound(w, "task not found")
			return nil, false
		}
		s.logger.Error("fetching task", "error", err, "task", id)
		writeInternalError(w, "failed to fetch task")
		return nil, false
	}

	return tk, true
}
