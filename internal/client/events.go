package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Event is one server-sent event
type Event struct {
	Name string
	Data string
}

// TaskEvent is the payload of a task lifecycle event
type TaskEvent struct {
	Type      string    `json:"type"`
	TaskID    int64     `json:"task_id"`
	PlayerID  int64     `json:"player_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Task event names
const (
	EventConnected     = "connected"
	EventTaskCreated   = "task-created"
	EventTaskStarted   = "task-started"
	EventTaskCompleted = "task-completed"
)

// TaskEvent decodes the event payload
func (e Event) TaskEvent() (TaskEvent, error) {
	var te TaskEvent
	err := json.Unmarshal([]byte(e.Data), &te)
	return te, err
}

// Events streams the caller's task events to fn until ctx ends, the server
// closes the stream, or fn returns an error. A cancelled context is not an error.
func (c *Client) Events(ctx context.Context, fn func(Event) error) error {
	body, err := c.Stream(ctx, "/events/")
	if err != nil {
		return err
	}
	defer func() { _ = body.Close() }()

	scanner := bufio.NewScanner(body)
	var (
		name string
		data []string
	)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		case line == "":
			if name != "" {
				if err := fn(Event{Name: name, Data: strings.Join(data, "\n")}); err != nil {
					return err
				}
			}
			name, data = "", nil
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return &NetworkError{Method: "GET", Path: "/events/", Err: err}
	}
	return nil
}
