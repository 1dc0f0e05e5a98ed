package domain

// PromptKind classifies a line of MATLAB output that may be a prompt.
type PromptKind int

const (
	PromptNone PromptKind = iota
	PromptPlain
	PromptDebug
)

func (k PromptKind) String() string {
	switch k {
	case PromptPlain:
		return "plain"
	case PromptDebug:
		return "debug"
	default:
		return "none"
	}
}

// DebugState is the two-state debugger activity model. It transitions only on
// an observed prompt-kind change at the start of a line.
type DebugState int

const (
	DebugInactive DebugState = iota
	DebugActive
)

func (s DebugState) String() string {
	if s == DebugActive {
		return "active"
	}
	return "inactive"
}
