package domain

// Frame is one entry in the reported call stack. A negative Line marks the
// frame MATLAB is currently executing rather than a mere caller; Abs reports
// the displayable line number either way.
type Frame struct {
	File string `json:"file"`
	Name string `json:"name"`
	Line int    `json:"line"`
}

// Current reports whether this frame is the currently executing one.
func (f Frame) Current() bool {
	return f.Line < 0
}

// AbsLine returns the line number with the current-frame encoding stripped.
func (f Frame) AbsLine() int {
	if f.Line < 0 {
		return -f.Line
	}
	return f.Line
}

// Breakpoint is a known breakpoint in the debugger session. Uniqueness is on
// (File, Line); Name is informational only.
type Breakpoint struct {
	File string `json:"file"`
	Name string `json:"name"`
	Line int    `json:"line"`
}

// Key returns the identity a breakpoint is deduplicated on.
func (b Breakpoint) Key() BreakpointKey {
	return BreakpointKey{File: b.File, Line: b.Line}
}

// BreakpointKey identifies a breakpoint by position.
type BreakpointKey struct {
	File string
	Line int
}
