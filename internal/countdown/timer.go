package countdown

import (
	"context"
	"sync"
	"time"

	"github.com/mcoot/s3arena/internal/dependencies/clock"
)

// Display is one rendering of a countdown. Visible is false when nothing
// should be shown.
type Display struct {
	State   State
	Text    string
	Visible bool
}

// Timer ticks once a second while its input is running and emits each
// changed display. It holds a ticker only while running.
type Timer struct {
	clock   clock.Clock
	mu      sync.Mutex
	input   Input
	updates chan struct{}
}

// NewTimer creates a timer for in
func NewTimer(clk clock.Clock, in Input) *Timer {
	return &Timer{
		clock:   clk,
		input:   in,
		updates: make(chan struct{}, 1),
	}
}

// Update replaces the timer's input; Run re-evaluates it promptly
func (t *Timer) Update(in Input) {
	t.mu.Lock()
	t.input = in
	t.mu.Unlock()

	select {
	case t.updates <- struct{}{}:
	default:
	}
}

func (t *Timer) current() Input {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.input
}

// Run emits displays until ctx is done. The ticker is released at expiry,
// when the countdown stops applying, and when Run returns.
func (t *Timer) Run(ctx context.Context, emit func(Display)) {
	var (
		ticker clock.Ticker
		last   *Display
	)
	stop := func() {
		if ticker != nil {
			ticker.Stop()
			ticker = nil
		}
	}
	defer stop()

	show := func(d Display) {
		if last != nil && *last == d {
			return
		}
		last = &d
		emit(d)
	}

	evaluate := func() {
		in := t.current()
		now := t.clock.Now()
		state := StateOf(in, now)
		switch state {
		case Running:
			if ticker == nil {
				ticker = t.clock.NewTicker(time.Second)
			}
			show(Display{State: state, Text: Text(in, now), Visible: true})
		case Expired:
			stop()
			show(Display{State: state, Text: Format(0), Visible: true})
		default:
			stop()
			show(Display{State: state})
		}
	}

	evaluate()
	for {
		var tick <-chan time.Time
		if ticker != nil {
			tick = ticker.C()
		}
		select {
		case <-ctx.Done():
			return
		case <-t.updates:
			evaluate()
		case <-tick:
			evaluate()
		}
	}
}
