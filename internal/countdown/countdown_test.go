package countdown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var started = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func limit(m int) *int { return &m }

func TestRemaining(t *testing.T) {
	in := Input{TimeLimitMinutes: limit(30), StartedAt: &started}

	tests := []struct {
		name    string
		elapsed time.Duration
		want    int
	}{
		{"just started", 0, 1800},
		{"half a minute left", 29*time.Minute + 30*time.Second, 30},
		{"rounds to nearest second", 29*time.Minute + 30*time.Second + 400*time.Millisecond, 30},
		{"rounds half up", 29*time.Minute + 29*time.Second + 500*time.Millisecond, 31},
		{"at the deadline", 30 * time.Minute, 0},
		{"long past", 45 * time.Minute, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Remaining(in, started.Add(tt.elapsed))
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRemaining_NothingToShow(t *testing.T) {
	now := started.Add(time.Minute)
	tests := []struct {
		name string
		in   Input
	}{
		{"no limit", Input{StartedAt: &started}},
		{"zero limit", Input{TimeLimitMinutes: limit(0), StartedAt: &started}},
		{"not started", Input{TimeLimitMinutes: limit(30)}},
		{"completed", Input{TimeLimitMinutes: limit(30), StartedAt: &started, Completed: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Remaining(tt.in, now)
			assert.False(t, ok)
			assert.Equal(t, "", Text(tt.in, now))
		})
	}
}

func TestStateOf(t *testing.T) {
	now := started.Add(10 * time.Minute)
	tests := []struct {
		name string
		in   Input
		want State
	}{
		{"completed beats everything", Input{Completed: true}, Completed},
		{"completed with running clock", Input{TimeLimitMinutes: limit(30), StartedAt: &started, Completed: true}, Completed},
		{"no limit before not started", Input{}, NoLimit},
		{"not started", Input{TimeLimitMinutes: limit(30)}, NotStarted},
		{"running", Input{TimeLimitMinutes: limit(30), StartedAt: &started}, Running},
		{"expired", Input{TimeLimitMinutes: limit(5), StartedAt: &started}, Expired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StateOf(tt.in, now))
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "00:00", Format(0))
	assert.Equal(t, "00:30", Format(30))
	assert.Equal(t, "01:05", Format(65))
	assert.Equal(t, "20:00", Format(1200))
	assert.Equal(t, "75:00", Format(4500))
	assert.Equal(t, "00:00", Format(-3))
}

func TestDeadline(t *testing.T) {
	d, ok := Deadline(Input{TimeLimitMinutes: limit(20), StartedAt: &started})
	assert.True(t, ok)
	assert.Equal(t, started.Add(20*time.Minute), d)

	_, ok = Deadline(Input{TimeLimitMinutes: limit(20)})
	assert.False(t, ok)
}
