// Package debounce delays an action until its triggers go quiet.
package debounce

import (
	"sync"
	"time"

	"github.com/vmunix/marquee/internal/metrics"
)

// State is the debouncer's state.
type State int

const (
	Idle State = iota
	Pending
)

func (s State) String() string {
	if s == Pending {
		return "pending"
	}
	return "idle"
}

// Debouncer is a two-state machine:
//
//	idle    --Trigger--> pending(now+delay)
//	pending --Trigger--> pending(now+delay)   previous action dropped
//	pending --deadline-> idle                 action runs
//	pending --Cancel---> idle                 action dropped
//
// The action runs on its own goroutine.
type Debouncer struct {
	name  string
	delay time.Duration

	mu       sync.Mutex
	state    State
	deadline time.Time
	gen      uint64
	timer    *time.Timer
	action   func()
}

// New creates an idle debouncer. name labels its metrics.
func New(name string, delay time.Duration) *Debouncer {
	return &Debouncer{name: name, delay: delay}
}

// Delay returns the quiescence window.
func (d *Debouncer) Delay() time.Duration { return d.delay }

// Trigger schedules action to run once delay has passed without another
// Trigger or Cancel. Any previously scheduled action is dropped.
func (d *Debouncer) Trigger(action func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.state = Pending
	d.deadline = time.Now().Add(d.delay)
	d.action = action
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Cancel drops the scheduled action, if any. It reports whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != Pending {
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	d.reset()
	return true
}

// State returns the current state and, when pending, the deadline.
func (d *Debouncer) State() (State, time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state, d.deadline
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	// A timer that already started running may lose the race with Trigger or Cancel.
	if gen != d.gen || d.state != Pending {
		d.mu.Unlock()
		return
	}
	action := d.action
	d.reset()
	d.mu.Unlock()

	metrics.DebounceFiresTotal.WithLabelValues(d.name).Inc()
	action()
}

func (d *Debouncer) reset() {
	d.state = Idle
	d.deadline = time.Time{}
	d.action = nil
	d.timer = nil
}
