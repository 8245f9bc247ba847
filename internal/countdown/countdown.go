// Package countdown derives the time left on a started, time-limited task.
package countdown

import (
	"fmt"
	"math"
	"time"
)

// State classifies a task's countdown at an instant
type State int

const (
	NoLimit State = iota
	NotStarted
	Running
	Expired
	Completed
)

func (s State) String() string {
	switch s {
	case NoLimit:
		return "no_limit"
	case NotStarted:
		return "not_started"
	case Running:
		return "running"
	case Expired:
		return "expired"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText encodes the state by name
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Input is what the countdown depends on: the task's limit and the
// viewer's completion
type Input struct {
	TimeLimitMinutes *int
	StartedAt        *time.Time
	Completed        bool
}

func (in Input) hasLimit() bool {
	return in.TimeLimitMinutes != nil && *in.TimeLimitMinutes > 0
}

// Deadline returns when the countdown reaches zero
func Deadline(in Input) (time.Time, bool) {
	if !in.hasLimit() || in.StartedAt == nil {
		return time.Time{}, false
	}
	return in.StartedAt.Add(time.Duration(*in.TimeLimitMinutes) * time.Minute), true
}

// Remaining returns the whole seconds left at now, clamped to zero.
// ok is false when there is nothing to count down.
func Remaining(in Input, now time.Time) (seconds int, ok bool) {
	if in.Completed {
		return 0, false
	}
	deadline, ok := Deadline(in)
	if !ok {
		return 0, false
	}
	left := math.Round(deadline.Sub(now).Seconds())
	if left <= 0 {
		return 0, true
	}
	return int(left), true
}

// StateOf classifies in at now. Completion wins over everything else.
func StateOf(in Input, now time.Time) State {
	switch {
	case in.Completed:
		return Completed
	case !in.hasLimit():
		return NoLimit
	case in.StartedAt == nil:
		return NotStarted
	}
	if left, _ := Remaining(in, now); left > 0 {
		return Running
	}
	return Expired
}

// Format renders seconds as zero-padded MM:SS; minutes are not capped at 59
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// Text is the countdown display for in at now, or "" when none is shown
func Text(in Input, now time.Time) string {
	left, ok := Remaining(in, now)
	if !ok {
		return ""
	}
	return Format(left)
}
