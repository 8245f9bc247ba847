package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	EventTaskCreated   EventType = "task-created"
	EventTaskStarted   EventType = "task-started"
	EventTaskCompleted EventType = "task-completed"
)

// TaskEvent records a change to a task or one of its completions
type TaskEvent struct {
	Type      EventType
	Timestamp time.Time
	TaskID    TaskID
	PlayerID  UserID // zero for task-created

	// Recipients are every user who should hear about the change
	Recipients []UserID
}
