// Package session numbers debugger link sessions and times them.
package session

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/mdlink/mdlink/internal/domain"
)

// Tracker numbers sessions against one attach and stamps their duration.
// A session ends when the subprocess exits or the link is restarted; the
// next Start reuses the tracker with the next session number.
type Tracker struct {
	mu      sync.Mutex
	clock   clock.Clock
	command string

	current int
	started time.Time
	active  bool
}

// NewTracker creates a tracker for the given subprocess command line. A nil
// clock selects the real one; tests inject a mock.
func NewTracker(command string, clk clock.Clock) *Tracker {
	if clk == nil {
		clk = clock.New()
	}
	return &Tracker{clock: clk, command: command}
}

// Start opens the next session and returns its start event.
func (t *Tracker) Start(pid int) *domain.SessionStart {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current++
	t.started = t.clock.Now()
	t.active = true
	return domain.NewSessionStart(t.current, pid, t.command)
}

// End closes the current session, filling in its duration. Returns nil when
// no session is open.
func (t *Tracker) End(summary domain.SessionSummary) *domain.SessionEnd {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return nil
	}
	t.active = false
	summary.DurationSeconds = int(t.clock.Since(t.started).Seconds())
	return domain.NewSessionEnd(t.current, summary)
}

// Current returns the current session number, 0 before the first Start.
func (t *Tracker) Current() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}
