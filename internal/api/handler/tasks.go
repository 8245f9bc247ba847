package handler

import (
	"errors"
	"net/http"

	"github.com/mcoot/s3arena/internal/api/apierr"
	"github.com/mcoot/s3arena/internal/api/middleware"
	"github.com/mcoot/s3arena/internal/api/request"
	"github.com/mcoot/s3arena/internal/api/response"
	"github.com/mcoot/s3arena/internal/model"
	"github.com/mcoot/s3arena/internal/services/tasks"
)

// TaskHandler handles task lifecycle endpoints
type TaskHandler struct {
	taskService *tasks.Service
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService *tasks.Service) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// List handles GET /api/tasks/ with an optional ?assigned_by=<username> filter
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.taskService.List(r.Context(), r.URL.Query().Get("assigned_by"))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.TasksFromModel(list))
}

// Create handles POST /api/tasks/
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	var req request.CreateTaskRequest
	if err := request.Decode(r, &req, false); err != nil {
		WriteError(w, err)
		return
	}

	due, err := request.ParseDate("due_date", req.DueDate)
	if err != nil {
		WriteError(w, err)
		return
	}

	players := make([]model.UserID, 0, len(req.Players))
	for _, id := range req.Players {
		players = append(players, model.UserID(id))
	}

	task, err := h.taskService.Create(r.Context(), identity.UserID, tasks.NewTask{
		Title:            req.Title,
		Description:      req.Description,
		Players:          players,
		DueDate:          due,
		TimeLimitMinutes: req.TimeLimitMinutes,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.TaskFromModel(task))
}

// Complete handles POST /api/coach/tasks/{taskId}/player/{playerId}/complete/
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	taskID, err := pathID(r, "taskId")
	if err != nil {
		WriteError(w, err)
		return
	}
	playerID, err := pathID(r, "playerId")
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.CompleteTaskRequest
	if err := request.Decode(r, &req, true); err != nil {
		WriteError(w, err)
		return
	}

	completion, err := h.taskService.MarkComplete(r.Context(), identity.UserID,
		model.TaskID(taskID), model.UserID(playerID), req.Notes)
	if err != nil {
		// Tasks owned by another coach are reported like missing ones
		if errors.Is(err, model.ErrTaskNotFound) {
			err = apierr.NewNotFoundError()
		}
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.CompletionFromModel(completion))
}

// MyTasks handles GET /api/player/my-tasks/
func (h *TaskHandler) MyTasks(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	list, err := h.taskService.ListForPlayer(r.Context(), identity.UserID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.TasksFromModel(list))
}

// Start handles POST /api/player/tasks/{taskId}/start/
func (h *TaskHandler) Start(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	taskID, err := pathID(r, "taskId")
	if err != nil {
		WriteError(w, err)
		return
	}

	completion, err := h.taskService.Start(r.Context(), identity.UserID, model.TaskID(taskID))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.CompletionFromModel(completion))
}

// ParentDashboard handles GET /api/parent/dashboard/
func (h *TaskHandler) ParentDashboard(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	view, err := h.taskService.ParentDashboard(r.Context(), identity.UserID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ParentDashboardFromModel(view))
}
