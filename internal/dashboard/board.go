package dashboard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/mcoot/s3arena/internal/session"
)

// ErrSuperseded is returned for a load that finished after a newer one began
var ErrSuperseded = errors.New("superseded by a newer request")

// Latest hands out generations so only the newest request's result is kept
type Latest struct {
	gen atomic.Uint64
}

// Begin starts a new generation, invalidating all earlier ones
func (l *Latest) Begin() uint64 {
	return l.gen.Add(1)
}

// Current reports whether gen is still the newest generation
func (l *Latest) Current(gen uint64) bool {
	return l.gen.Load() == gen
}

// State is what a dashboard screen shows
type State struct {
	View View
	// Err is set when there is no view to show at all
	Err error
	// Notice is an inline message shown above a previous view after a
	// failed refresh
	Notice string
}

// Board keeps the last good view of one session's dashboard across refreshes
type Board struct {
	deps   Deps
	sess   *session.Session
	latest Latest

	mu    sync.Mutex
	state State
}

// NewBoard creates a board for sess
func NewBoard(deps Deps, sess *session.Session) *Board {
	return &Board{deps: deps, sess: sess}
}

// Refresh reloads the view. A failure before any success yields an error
// state; later failures keep the previous view with a notice. Refreshes
// overtaken by a newer one return ErrSuperseded and change nothing.
func (b *Board) Refresh(ctx context.Context, opts Options) (State, error) {
	gen := b.latest.Begin()
	view, err := Load(ctx, b.deps, b.sess, opts)

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.latest.Current(gen) {
		return b.state, ErrSuperseded
	}
	switch {
	case err == nil:
		b.state = State{View: view}
	case b.state.View == nil:
		b.state = State{Err: err}
	default:
		b.state = State{View: b.state.View, Notice: err.Error()}
	}
	return b.state, nil
}

// State returns the last state produced by Refresh
func (b *Board) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
