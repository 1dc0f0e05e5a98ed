// Package output renders filter results for humans (text, tables) and for
// agents (NDJSON events with a stable schema).
package output

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/mdlink/mdlink/internal/domain"
)

// NDJSONWriter emits one JSON object per line. It is both a general event
// writer and a debugger.DisplaySink.
type NDJSONWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewNDJSONWriter creates a writer emitting to w.
func NewNDJSONWriter(w io.Writer) *NDJSONWriter {
	return &NDJSONWriter{enc: json.NewEncoder(w)}
}

// WriteEvent emits any pre-built event object.
func (w *NDJSONWriter) WriteEvent(event interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(event)
}

// flushEvent carries released terminal text.
type flushEvent struct {
	Type          string `json:"type"` // "flush"
	SchemaVersion int    `json:"schemaVersion"`
	Text          string `json:"text"`
}

// errorEvent is the machine-readable failure shape.
type errorEvent struct {
	Type          string `json:"type"` // "error"
	SchemaVersion int    `json:"schemaVersion"`
	Code          string `json:"code"`
	Message       string `json:"message"`
	Hint          string `json:"hint,omitempty"`
}

// AppendText emits released terminal text as a flush event.
func (w *NDJSONWriter) AppendText(text string) error {
	return w.WriteEvent(flushEvent{Type: "flush", SchemaVersion: domain.SchemaVersion, Text: text})
}

// RenderFrameList emits the stack wholesale.
func (w *NDJSONWriter) RenderFrameList(frames []domain.Frame) error {
	if frames == nil {
		frames = []domain.Frame{}
	}
	return w.WriteEvent(domain.FrameList{Type: "frame_list", SchemaVersion: domain.SchemaVersion, Frames: frames})
}

// RenderBreakpointList emits the breakpoint registry wholesale.
func (w *NDJSONWriter) RenderBreakpointList(bps []domain.Breakpoint) error {
	if bps == nil {
		bps = []domain.Breakpoint{}
	}
	return w.WriteEvent(domain.BreakpointList{Type: "breakpoint_list", SchemaVersion: domain.SchemaVersion, Breakpoints: bps})
}

// WriteDebugState emits a debug-activity edge.
func (w *NDJSONWriter) WriteDebugState(state domain.DebugState, session int) error {
	return w.WriteEvent(domain.DebugStateChange{
		Type:          "debug_state",
		SchemaVersion: domain.SchemaVersion,
		State:         state.String(),
		Session:       session,
	})
}

// WriteBreakpointChange emits an add/remove event.
func (w *NDJSONWriter) WriteBreakpointChange(added bool, bp domain.Breakpoint) error {
	typ := "breakpoint_added"
	if !added {
		typ = "breakpoint_removed"
	}
	return w.WriteEvent(domain.BreakpointChange{
		Type:          typ,
		SchemaVersion: domain.SchemaVersion,
		File:          bp.File,
		Name:          bp.Name,
		Line:          bp.Line,
	})
}

// WriteError emits a machine-readable failure so agents never have to scrape
// stderr.
func (w *NDJSONWriter) WriteError(code, message string, hint ...string) error {
	ev := errorEvent{Type: "error", SchemaVersion: domain.SchemaVersion, Code: code, Message: message}
	if len(hint) > 0 {
		ev.Hint = hint[0]
	}
	return w.WriteEvent(ev)
}
