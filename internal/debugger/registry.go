package debugger

import (
	"fmt"
	"sync"

	"github.com/samber/lo"

	"github.com/mdlink/mdlink/internal/domain"
)

// StackRegistry holds the current call stack. Replaced wholesale whenever the
// subprocess reports a new stack; individual frames are immutable.
type StackRegistry struct {
	mu     sync.Mutex
	frames []domain.Frame
}

// Set replaces the stack, preserving nothing from the previous one.
func (r *StackRegistry) Set(frames []domain.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames[:0:0], frames...)
}

// Frames returns a copy of the current stack, index 0 = top of the reported
// stack.
func (r *StackRegistry) Frames() []domain.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Frame(nil), r.frames...)
}

// Frame returns the 1-based indexed frame. Out-of-range selection is an
// error, never a panic.
func (r *StackRegistry) Frame(index int) (domain.Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 1 || index > len(r.frames) {
		return domain.Frame{}, fmt.Errorf("no frame %d (stack has %d frames)", index, len(r.frames))
	}
	return r.frames[index-1], nil
}

// Len returns the stack depth.
func (r *StackRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

// Clear discards the stack.
func (r *StackRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = nil
}

// BreakpointRegistry is the session's set of known breakpoints, unique on
// (file, line).
type BreakpointRegistry struct {
	mu  sync.Mutex
	bps []domain.Breakpoint
}

// Add registers a breakpoint. Returns false when an entry with the same
// (file, line) already exists; the add is then ignored.
func (r *BreakpointRegistry) Add(bp domain.Breakpoint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if lo.ContainsBy(r.bps, func(b domain.Breakpoint) bool { return b.Key() == bp.Key() }) {
		return false
	}
	r.bps = append(r.bps, bp)
	return true
}

// Remove drops every entry at (file, line) regardless of name and returns
// how many were removed.
func (r *BreakpointRegistry) Remove(file string, line int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := domain.BreakpointKey{File: file, Line: line}
	kept := lo.Filter(r.bps, func(b domain.Breakpoint, _ int) bool { return b.Key() != key })
	removed := len(r.bps) - len(kept)
	r.bps = kept
	return removed
}

// All returns a copy of the registry.
func (r *BreakpointRegistry) All() []domain.Breakpoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Breakpoint(nil), r.bps...)
}

// ForFile returns the breakpoints registered in one file, used to re-apply
// rendering markers when the file is reopened.
func (r *BreakpointRegistry) ForFile(file string) []domain.Breakpoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo.Filter(r.bps, func(b domain.Breakpoint, _ int) bool { return b.File == file })
}

// Clear empties the registry and returns what was dropped so callers can
// release rendering markers.
func (r *BreakpointRegistry) Clear() []domain.Breakpoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	dropped := r.bps
	r.bps = nil
	return dropped
}
