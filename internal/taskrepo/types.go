package taskrepo

import (
	"time"

	"github.com/mcoot/s3arena/internal/client"
)

// Completion is one player's progress on a task
type Completion struct {
	ID               int64      `json:"id"`
	Task             int64      `json:"task"`
	Player           int64      `json:"player"`
	PlayerUsername   string     `json:"player_username"`
	Started          bool       `json:"started"`
	StartedAt        *time.Time `json:"started_at"`
	Completed        bool       `json:"completed"`
	Notes            string     `json:"notes"`
	TimeTakenSeconds *int       `json:"time_taken_seconds"`
}

// Task is an assignment from a coach to one or more players
type Task struct {
	ID               int64         `json:"id"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	AssignedBy       *client.User  `json:"assigned_by"`
	CreatedAt        time.Time     `json:"created_at"`
	DueDate          *string       `json:"due_date"`
	TimeLimitMinutes *int          `json:"time_limit_minutes"`
	Sport            *string       `json:"sport"`
	Players          []client.User `json:"players"`
	Completions      []Completion  `json:"completions"`
}

// CompletionFor returns the completion belonging to playerID, or nil
func (t *Task) CompletionFor(playerID int64) *Completion {
	for i := range t.Completions {
		if t.Completions[i].Player == playerID {
			return &t.Completions[i]
		}
	}
	return nil
}

// AssignedTo reports whether userID is among the task's players
func (t *Task) AssignedTo(userID int64) bool {
	for _, p := range t.Players {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// ChildTasks is a parent's view of their linked child
type ChildTasks struct {
	Child client.User `json:"child"`
	Tasks []Task      `json:"tasks"`
}

// NewTask describes a task to create
type NewTask struct {
	Title            string
	Description      string
	PlayerIDs        []int64
	DueDate          *time.Time
	TimeLimitMinutes *int
}

// createBody always carries due_date and time_limit_minutes, null when absent
type createBody struct {
	Title            string  `json:"title"`
	Description      string  `json:"description"`
	Players          []int64 `json:"players"`
	DueDate          *string `json:"due_date"`
	TimeLimitMinutes *int    `json:"time_limit_minutes"`
}
