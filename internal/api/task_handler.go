package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/schedule-master-api/internal/domain"
	"github.com/phrazzld/schedule-master-api/internal/platform/logger"
	"github.com/phrazzld/schedule-master-api/internal/service"
	"github.com/phrazzld/schedule-master-api/internal/store"
)

const (
	msgMissingTaskFields = "Please include a name, due date, and due time for the task"
	msgTaskNotOwned      = "Task not found or not authorized"
	msgInvalidDueDate    = "Due date must be a valid date (YYYY-MM-DD)"
)

// TaskHandler handles the task CRUD endpoints. Every route requires an
// authenticated user and only ever touches that user's tasks.
type TaskHandler struct {
	taskService service.TaskService
	validator   *validator.Validate
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler with the given dependencies.
func NewTaskHandler(taskService service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		taskService: taskService,
		validator:   validator.New(),
		logger:      logger.With(slog.String("component", "task_handler")),
	}
}

// CreateTask handles POST /api/tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := handleUserID(w, r, log)
	if !ok {
		return
	}

	req, ok := h.decodeTaskRequest(w, r)
	if !ok {
		return
	}

	if strings.TrimSpace(req.Name) == "" || req.DueDate == "" || req.DueTime == "" {
		RespondWithError(w, r, http.StatusBadRequest, msgMissingTaskFields)
		return
	}

	dueDate, ok := parseDueDate(w, r, req.DueDate)
	if !ok {
		return
	}

	task, err := h.taskService.CreateTask(r.Context(), userID, service.CreateTaskInput{
		Name:    req.Name,
		DueDate: dueDate,
		DueTime: req.DueTime,
		TaskOptions: domain.TaskOptions{
			Description:     req.Description,
			Priority:        domain.Priority(req.Priority),
			Category:        req.Category,
			DurationMinutes: req.Duration,
		},
	})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, taskToResponse(task))
}

// ListTasks handles GET /api/tasks.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := handleUserID(w, r, log)
	if !ok {
		return
	}

	tasks, err := h.taskService.ListTasks(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, tasksToResponse(tasks))
}

// GetTask handles GET /api/tasks/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(r.Context(), userID, taskID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// UpdateTask handles PUT /api/tasks/{id}.
// Only non-empty fields of the body are applied.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	req, ok := h.decodeTaskRequest(w, r)
	if !ok {
		return
	}

	patch := domain.TaskPatch{
		Name:            req.Name,
		Description:     req.Description,
		DueTime:         req.DueTime,
		Priority:        domain.Priority(req.Priority),
		Category:        req.Category,
		Status:          domain.TaskStatus(req.Status),
		DurationMinutes: req.Duration,
	}
	if req.DueDate != "" {
		if patch.DueDate, ok = parseDueDate(w, r, req.DueDate); !ok {
			return
		}
	}

	task, err := h.taskService.UpdateTask(r.Context(), userID, taskID, patch)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			RespondWithError(w, r, http.StatusNotFound, msgTaskNotOwned)
			return
		}
		HandleAPIError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// DeleteTask handles DELETE /api/tasks/{id}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(r.Context(), userID, taskID); err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			RespondWithError(w, r, http.StatusNotFound, msgTaskNotOwned)
			return
		}
		HandleAPIError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: "Task removed"})
}

// decodeTaskRequest decodes and validates the body shared by create and
// update, writing a 400 on failure.
func (h *TaskHandler) decodeTaskRequest(w http.ResponseWriter, r *http.Request) (TaskRequest, bool) {
	var req TaskRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondWithErrorAndLog(w, r, http.StatusBadRequest, msgInvalidFormat, err)
		return req, false
	}
	if err := h.validator.Struct(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, validationMessage(err, msgMissingTaskFields))
		return req, false
	}
	return req, true
}

func parseDueDate(w http.ResponseWriter, r *http.Request, raw string) (time.Time, bool) {
	dueDate, err := domain.ParseDueDate(raw)
	if err != nil {
		RespondWithErrorAndLog(w, r, http.StatusBadRequest, msgInvalidDueDate, err)
		return time.Time{}, false
	}
	return dueDate, true
}
