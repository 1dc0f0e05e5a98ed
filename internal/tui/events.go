// Package tui is the interactive terminal view: live console text beside the
// current stack and breakpoint listings.
package tui

import (
	"github.com/mdlink/mdlink/internal/domain"
)

// EventKind tags what part of the view an Event updates.
type EventKind int

const (
	EventText EventKind = iota
	EventFrames
	EventBreakpoints
	EventDebugState
	EventError
)

// Event is one display update flowing from the filter to the view.
type Event struct {
	Kind        EventKind
	Text        string
	Frames      []domain.Frame
	Breakpoints []domain.Breakpoint
	State       domain.DebugState
	Err         error
}

// Sink adapts the event channel to the filter's display interface. The
// filter runs outside the bubbletea loop, so updates cross over as messages.
type Sink struct {
	events chan Event
}

// NewSink creates a sink with room for a burst of updates.
func NewSink() *Sink {
	return &Sink{events: make(chan Event, 256)}
}

// Events is consumed by the view model.
func (s *Sink) Events() <-chan Event {
	return s.events
}

// AppendText forwards released console text.
func (s *Sink) AppendText(text string) error {
	s.events <- Event{Kind: EventText, Text: text}
	return nil
}

// RenderFrameList replaces the stack listing.
func (s *Sink) RenderFrameList(frames []domain.Frame) error {
	s.events <- Event{Kind: EventFrames, Frames: frames}
	return nil
}

// RenderBreakpointList replaces the breakpoint listing.
func (s *Sink) RenderBreakpointList(bps []domain.Breakpoint) error {
	s.events <- Event{Kind: EventBreakpoints, Breakpoints: bps}
	return nil
}

// NotifyDebugState updates the state badge.
func (s *Sink) NotifyDebugState(state domain.DebugState) {
	s.events <- Event{Kind: EventDebugState, State: state}
}

// NotifyError surfaces a stream failure in the view.
func (s *Sink) NotifyError(err error) {
	s.events <- Event{Kind: EventError, Err: err}
}

// Close ends the event stream; the view quits once drained.
func (s *Sink) Close() {
	close(s.events)
}
