package dashboard

import (
	"fmt"
	"time"

	"github.com/mcoot/s3arena/internal/countdown"
	"github.com/mcoot/s3arena/internal/taskrepo"
)

// Badge values
const (
	BadgeCompleted = "Completed"
	BadgePending   = "Pending"
)

// TaskCard is a task as one viewer sees it
type TaskCard struct {
	Task       taskrepo.Task        `json:"task"`
	Completion *taskrepo.Completion `json:"completion"`
	Badge      string               `json:"badge"`
	LimitText  string               `json:"limit_text,omitempty"`
	State      countdown.State      `json:"state"`
	Countdown  string               `json:"countdown,omitempty"`
	CanStart   bool                 `json:"can_start"`
}

// CountdownInput extracts the countdown inputs for a task and a completion,
// which may be nil
func CountdownInput(task *taskrepo.Task, c *taskrepo.Completion) countdown.Input {
	in := countdown.Input{TimeLimitMinutes: task.TimeLimitMinutes}
	if c != nil {
		in.StartedAt = c.StartedAt
		in.Completed = c.Completed
	}
	return in
}

// NewTaskCard builds the card for viewerID. Parents never get the start action.
func NewTaskCard(task taskrepo.Task, viewerID int64, parentView bool, now time.Time) TaskCard {
	c := task.CompletionFor(viewerID)
	in := CountdownInput(&task, c)

	card := TaskCard{
		Task:       task,
		Completion: c,
		Badge:      BadgePending,
		State:      countdown.StateOf(in, now),
		Countdown:  countdown.Text(in, now),
	}
	if in.Completed {
		card.Badge = BadgeCompleted
	}
	if task.TimeLimitMinutes != nil && *task.TimeLimitMinutes > 0 {
		card.LimitText = fmt.Sprintf("%d min limit", *task.TimeLimitMinutes)
	}
	card.CanStart = !parentView && card.LimitText != "" && !in.Completed && in.StartedAt == nil
	return card
}

// Cards builds a card per task
func Cards(tasks []taskrepo.Task, viewerID int64, parentView bool, now time.Time) []TaskCard {
	cards := make([]TaskCard, 0, len(tasks))
	for _, t := range tasks {
		cards = append(cards, NewTaskCard(t, viewerID, parentView, now))
	}
	return cards
}

// AnyRunning reports whether any card still has a live countdown
func AnyRunning(cards []TaskCard) bool {
	for _, c := range cards {
		if c.State == countdown.Running {
			return true
		}
	}
	return false
}

// Progress counts completed and assigned players on a task
func Progress(task taskrepo.Task) (done, total int) {
	for _, c := range task.Completions {
		if c.Completed {
			done++
		}
	}
	return done, len(task.Completions)
}
