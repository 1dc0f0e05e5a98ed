// Package prompt classifies MATLAB prompt lines and tracks debugger
// activity across them.
package prompt

import (
	"regexp"
	"strings"
	"sync"

	"github.com/mdlink/mdlink/internal/domain"
)

// Default prompt patterns. MATLAB prints ">> " when idle and "K>> " when
// suspended inside the debugger, trailing space included. Both are anchored
// to a whole line; the trailing space is required so a prompt is only
// recognized once it has fully arrived.
const (
	DefaultPlainPattern = `^>> $`
	DefaultDebugPattern = `^K>> $`
)

// Hooks are invoked on debug-activity edges. Either may be nil.
type Hooks struct {
	OnActivate   func()
	OnDeactivate func()
}

// Classifier scans flushed output for prompt lines and drives the two-state
// debug-activity model. It only ever inspects the current (last, unterminated)
// line, so re-running it with no new matching input produces no further hook
// calls.
type Classifier struct {
	mu          sync.Mutex
	plain       *regexp.Regexp
	debug       *regexp.Regexp
	hooks       Hooks
	state       domain.DebugState
	curLine     string
	transitions int
}

// NewClassifier compiles the prompt patterns. Empty patterns select the
// defaults.
func NewClassifier(plainPat, debugPat string, hooks Hooks) (*Classifier, error) {
	if plainPat == "" {
		plainPat = DefaultPlainPattern
	}
	if debugPat == "" {
		debugPat = DefaultDebugPattern
	}
	plain, err := regexp.Compile(plainPat)
	if err != nil {
		return nil, err
	}
	debug, err := regexp.Compile(debugPat)
	if err != nil {
		return nil, err
	}
	return &Classifier{plain: plain, debug: debug, hooks: hooks}, nil
}

// Observe feeds newly flushed text to the classifier and returns the state
// after any transitions. Each line of the flushed text becomes the current
// line in turn; a prompt only counts as a whole line, and a line split across
// flushes is assembled before it is judged. Re-running with no new matching
// input re-checks the same current line, which the transition rules make a
// no-op.
func (c *Classifier) Observe(flushed string) domain.DebugState {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, seg := range strings.Split(flushed, "\n") {
		if i == 0 {
			c.curLine += seg
		} else {
			c.curLine = seg
		}
		c.step(c.curLine)
	}
	return c.state
}

func (c *Classifier) step(line string) {
	switch c.Classify(line) {
	case domain.PromptDebug:
		if c.state == domain.DebugInactive {
			c.state = domain.DebugActive
			c.transitions++
			if c.hooks.OnActivate != nil {
				c.hooks.OnActivate()
			}
		}
	case domain.PromptPlain:
		if c.state == domain.DebugActive {
			c.state = domain.DebugInactive
			c.transitions++
			if c.hooks.OnDeactivate != nil {
				c.hooks.OnDeactivate()
			}
		}
	}
}


// Classify reports the prompt kind of a single line. The debug pattern wins
// when both match.
func (c *Classifier) Classify(line string) domain.PromptKind {
	switch {
	case c.debug.MatchString(line):
		return domain.PromptDebug
	case c.plain.MatchString(line):
		return domain.PromptPlain
	default:
		return domain.PromptNone
	}
}

// State returns the current debug-activity state.
func (c *Classifier) State() domain.DebugState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Transitions returns how many activity edges have fired.
func (c *Classifier) Transitions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transitions
}

// Reset returns the classifier to the inactive state without firing hooks.
// Used on session teardown.
func (c *Classifier) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = domain.DebugInactive
	c.curLine = ""
}
