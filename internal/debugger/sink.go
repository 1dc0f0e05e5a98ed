package debugger

import "github.com/mdlink/mdlink/internal/domain"

// DisplaySink receives everything the filter decides is safe to show: flushed
// terminal text plus wholesale stack and breakpoint listings. The core filter
// depends only on this capability set, never on a concrete display.
type DisplaySink interface {
	AppendText(text string) error
	RenderFrameList(frames []domain.Frame) error
	RenderBreakpointList(bps []domain.Breakpoint) error
}

// BreakpointChangeSink is implemented by sinks that also want per-breakpoint
// add/remove notifications alongside the wholesale listing. The NDJSON writer
// implements it; plain text display does not need it.
type BreakpointChangeSink interface {
	WriteBreakpointChange(added bool, bp domain.Breakpoint) error
}

// EditorSurface renders per-breakpoint markers in an open file view.
type EditorSurface interface {
	MarkBreakpoint(file string, line int) error
	UnmarkBreakpoint(file string, line int) error
}

// NopSurface is an EditorSurface for headless runs.
type NopSurface struct{}

func (NopSurface) MarkBreakpoint(string, int) error   { return nil }
func (NopSurface) UnmarkBreakpoint(string, int) error { return nil }
