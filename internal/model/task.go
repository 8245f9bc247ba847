package model

import "time"

// TaskID uniquely identifies a task
type TaskID int64

// CompletionID uniquely identifies a completion record
type CompletionID int64

// Task is a piece of work a coach assigns to a fixed set of players
type Task struct {
	ID          TaskID
	Title       string
	Description string
	AssignedBy  UserID
	Sport       Sport

	// Players is fixed at creation
	Players []UserID

	DueDate          *time.Time // date only, UTC midnight
	TimeLimitMinutes *int

	CreatedAt time.Time
}

// HasPlayer reports whether the player is assigned to the task
func (t *Task) HasPlayer(id UserID) bool {
	for _, p := range t.Players {
		if p == id {
			return true
		}
	}
	return false
}

// Completion tracks one player's progress on one task.
// StartedAt is set at most once; Completed is terminal.
type Completion struct {
	ID               CompletionID
	TaskID           TaskID
	PlayerID         UserID
	StartedAt        *time.Time
	Completed        bool
	Notes            string
	TimeTakenSeconds *int
	UpdatedAt        time.Time
}

// Started reports whether the player has started the task
func (c *Completion) Started() bool {
	return c.StartedAt != nil
}

// Start records the start time. Returns false when nothing changed.
func (c *Completion) Start(now time.Time) bool {
	if c.Completed || c.StartedAt != nil {
		return false
	}
	t := now
	c.StartedAt = &t
	c.UpdatedAt = now
	return true
}

// Complete marks the record completed. Returns false when already completed.
func (c *Completion) Complete(now time.Time, notes string) bool {
	if c.Completed {
		return false
	}
	c.Completed = true
	c.Notes = notes
	if c.StartedAt != nil {
		taken := int(now.Sub(*c.StartedAt).Round(time.Second) / time.Second)
		if taken < 0 {
			taken = 0
		}
		c.TimeTakenSeconds = &taken
	}
	c.UpdatedAt = now
	return true
}

// Clone returns a deep copy of the task
func (t *Task) Clone() *Task {
	c := *t
	c.Players = append([]UserID(nil), t.Players...)
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.TimeLimitMinutes != nil {
		m := *t.TimeLimitMinutes
		c.TimeLimitMinutes = &m
	}
	return &c
}

// Clone returns a deep copy of the completion
func (c *Completion) Clone() *Completion {
	out := *c
	if c.StartedAt != nil {
		s := *c.StartedAt
		out.StartedAt = &s
	}
	if c.TimeTakenSeconds != nil {
		n := *c.TimeTakenSeconds
		out.TimeTakenSeconds = &n
	}
	return &out
}
