// Package tmux mirrors debugger output into a dedicated tmux session so the
// MATLAB console stays visible next to an editor.
package tmux

import (
	"errors"
	"fmt"
	"sync"

	"github.com/GianlucaP106/gotmux/gotmux"
)

// ErrNoPaneAvailable is returned when the target pane has gone away.
var ErrNoPaneAvailable = errors.New("tmux pane not available")

// Config controls which tmux session receives output.
type Config struct {
	SessionName string
}

// Manager owns the mdlink tmux session and its display pane.
type Manager struct {
	mu      sync.Mutex
	tmux    *gotmux.Tmux
	session *gotmux.Session
	config  Config
}

// NewManager connects to the local tmux server, reusing the named session or
// creating it when absent.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.SessionName == "" {
		cfg.SessionName = "mdlink"
	}

	t, err := gotmux.DefaultTmux()
	if err != nil {
		return nil, fmt.Errorf("connect tmux: %w", err)
	}

	session, err := t.GetSessionByName(cfg.SessionName)
	if err != nil {
		return nil, fmt.Errorf("look up session %q: %w", cfg.SessionName, err)
	}
	if session == nil {
		session, err = t.NewSession(&gotmux.SessionOptions{Name: cfg.SessionName})
		if err != nil {
			return nil, fmt.Errorf("create session %q: %w", cfg.SessionName, err)
		}
	}

	return &Manager{tmux: t, session: session, config: cfg}, nil
}

// SessionName reports the session receiving output.
func (m *Manager) SessionName() string {
	return m.config.SessionName
}

func (m *Manager) paneTarget() string {
	return fmt.Sprintf("%s:0.0", m.config.SessionName)
}
