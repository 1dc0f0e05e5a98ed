package domain

import "time"

// SchemaVersion is bumped whenever an emitted event shape changes.
const SchemaVersion = 1

// SessionStart is emitted when a debugger link session begins.
type SessionStart struct {
	Type          string `json:"type"`          // "session_start"
	SchemaVersion int    `json:"schemaVersion"` // 1
	Session       int    `json:"session"`       // Session number (1, 2, 3...)
	Command       string `json:"command"`       // MATLAB command line, or "replay"
	PID           int    `json:"pid,omitempty"` // Subprocess PID when attached
	Timestamp     string `json:"timestamp"`     // ISO8601 timestamp
}

// SessionEnd is emitted when the subprocess exits or a replay completes.
type SessionEnd struct {
	Type          string         `json:"type"` // "session_end"
	SchemaVersion int            `json:"schemaVersion"`
	Session       int            `json:"session"`
	Summary       SessionSummary `json:"summary"`
}

// SessionSummary contains statistics about a completed session.
type SessionSummary struct {
	Flushes           int `json:"flushes"`
	HotlinkRoundTrips int `json:"hotlink_round_trips"`
	HotlinkAbandoned  int `json:"hotlink_abandoned"`
	PromptTransitions int `json:"prompt_transitions"`
	DurationSeconds   int `json:"duration_seconds"`
}

// DebugStateChange is emitted on every Inactive<->Active edge.
type DebugStateChange struct {
	Type          string `json:"type"` // "debug_state"
	SchemaVersion int    `json:"schemaVersion"`
	State         string `json:"state"` // "active" or "inactive"
	Session       int    `json:"session,omitempty"`
}

// FrameList is emitted when the call stack is replaced wholesale.
type FrameList struct {
	Type          string  `json:"type"` // "frame_list"
	SchemaVersion int     `json:"schemaVersion"`
	Frames        []Frame `json:"frames"`
}

// BreakpointList is emitted when the breakpoint registry is re-rendered
// wholesale.
type BreakpointList struct {
	Type          string       `json:"type"` // "breakpoint_list"
	SchemaVersion int          `json:"schemaVersion"`
	Breakpoints   []Breakpoint `json:"breakpoints"`
}

// BreakpointChange is emitted on breakpoint add/remove.
type BreakpointChange struct {
	Type          string `json:"type"` // "breakpoint_added" / "breakpoint_removed"
	SchemaVersion int    `json:"schemaVersion"`
	File          string `json:"file"`
	Name          string `json:"name,omitempty"`
	Line          int    `json:"line"`
}

// NewSessionStart creates a SessionStart event stamped with the current time.
func NewSessionStart(session, pid int, command string) *SessionStart {
	return &SessionStart{
		Type:          "session_start",
		SchemaVersion: SchemaVersion,
		Session:       session,
		Command:       command,
		PID:           pid,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
}

// NewSessionEnd creates a SessionEnd event.
func NewSessionEnd(session int, summary SessionSummary) *SessionEnd {
	return &SessionEnd{
		Type:          "session_end",
		SchemaVersion: SchemaVersion,
		Session:       session,
		Summary:       summary,
	}
}
