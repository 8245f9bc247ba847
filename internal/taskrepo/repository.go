// Package taskrepo fetches and mutates tasks for the signed-in role.
// Failures are returned unchanged and nothing is cached; callers re-fetch.
package taskrepo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// DateLayout is the wire format of due dates
const DateLayout = "2006-01-02"

// Caller performs API requests
type Caller interface {
	Call(ctx context.Context, method, path string, body, out any) error
}

// ValidationError is an input problem caught before any request is sent
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Repository is the task API for one session
type Repository struct {
	api Caller
}

// New creates a repository over api
func New(api Caller) *Repository {
	return &Repository{api: api}
}

// ListCreatedBy returns the tasks assigned by coachUsername, newest first.
// The filter is sent to the server and applied again locally.
func (r *Repository) ListCreatedBy(ctx context.Context, coachUsername string) ([]Task, error) {
	var all []Task
	path := "/tasks/?assigned_by=" + url.QueryEscape(coachUsername)
	if err := r.api.Call(ctx, http.MethodGet, path, nil, &all); err != nil {
		return nil, err
	}
	return filter(all, func(t *Task) bool {
		return t.AssignedBy != nil && t.AssignedBy.Username == coachUsername
	}), nil
}

// ListAll returns every task, newest first
func (r *Repository) ListAll(ctx context.Context) ([]Task, error) {
	var tasks []Task
	if err := r.api.Call(ctx, http.MethodGet, "/tasks/", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListAssignedTo returns the signed-in player's tasks
func (r *Repository) ListAssignedTo(ctx context.Context) ([]Task, error) {
	var tasks []Task
	if err := r.api.Call(ctx, http.MethodGet, "/player/my-tasks/", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListForChild returns the signed-in parent's child and their tasks
func (r *Repository) ListForChild(ctx context.Context) (*ChildTasks, error) {
	var view ChildTasks
	if err := r.api.Call(ctx, http.MethodGet, "/parent/dashboard/", nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// ListAssignedToUser returns every task that includes userID
func (r *Repository) ListAssignedToUser(ctx context.Context, userID int64) ([]Task, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return filter(all, func(t *Task) bool { return t.AssignedTo(userID) }), nil
}

// Create assigns a new task. An empty player list fails without a request.
func (r *Repository) Create(ctx context.Context, in NewTask) (*Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, &ValidationError{Field: "title", Message: "This field is required."}
	}
	if len(in.PlayerIDs) == 0 {
		return nil, &ValidationError{Field: "players", Message: "Select at least one player."}
	}
	if in.TimeLimitMinutes != nil && *in.TimeLimitMinutes <= 0 {
		return nil, &ValidationError{Field: "time_limit_minutes", Message: "Ensure this value is greater than 0."}
	}

	body := createBody{
		Title:            in.Title,
		Description:      in.Description,
		Players:          in.PlayerIDs,
		TimeLimitMinutes: in.TimeLimitMinutes,
	}
	if in.DueDate != nil {
		d := in.DueDate.Format(DateLayout)
		body.DueDate = &d
	}

	var task Task
	if err := r.api.Call(ctx, http.MethodPost, "/tasks/", body, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Start begins the signed-in player's countdown. The server keeps the first
// start time, so repeating the call returns the same record.
func (r *Repository) Start(ctx context.Context, taskID int64) (*Completion, error) {
	var c Completion
	path := fmt.Sprintf("/player/tasks/%d/start/", taskID)
	if err := r.api.Call(ctx, http.MethodPost, path, nil, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// MarkComplete records that playerID finished taskID. Completing twice is a no-op.
func (r *Repository) MarkComplete(ctx context.Context, taskID, playerID int64, notes *string) (*Completion, error) {
	var body any
	if notes != nil {
		body = map[string]string{"notes": *notes}
	}
	var c Completion
	path := fmt.Sprintf("/coach/tasks/%d/player/%d/complete/", taskID, playerID)
	if err := r.api.Call(ctx, http.MethodPost, path, body, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func filter(tasks []Task, keep func(*Task) bool) []Task {
	out := make([]Task, 0, len(tasks))
	for i := range tasks {
		if keep(&tasks[i]) {
			out = append(out, tasks[i])
		}
	}
	return out
}
