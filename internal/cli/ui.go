package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mdlink/mdlink/internal/debugger"
	"github.com/mdlink/mdlink/internal/domain"
	"github.com/mdlink/mdlink/internal/process"
	"github.com/mdlink/mdlink/internal/prompt"
	"github.com/mdlink/mdlink/internal/session"
	"github.com/mdlink/mdlink/internal/tui"
)

// UICmd launches an interactive read-only view of a MATLAB session
type UICmd struct {
	Command     string   `short:"c" default:"${config_command}" help:"MATLAB executable to launch"`
	Args        []string `help:"Arguments passed to the executable (default from config)"`
	PlainPrompt string   `help:"Regex override for the ready prompt line"`
	DebugPrompt string   `help:"Regex override for the debugger prompt line"`
	BufferSize  int      `default:"4096" help:"Read buffer size in bytes"`
}

// Run executes the UI command
func (c *UICmd) Run(globals *Globals) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	defaults := globals.Config.Defaults
	args := c.Args
	if len(args) == 0 {
		args = defaults.Args
	}

	tracker := session.NewTracker(c.Command, nil)
	logger := newAgentLogger(globals, tracker.Current)

	globals.Debug("Launching %s for TUI...", c.Command)
	runner := process.NewRunner(c.Command, args, c.BufferSize, logger.Sugared())
	if err := runner.Start(ctx); err != nil {
		return fmt.Errorf("failed to launch %s: %w", c.Command, err)
	}
	defer runner.Stop()

	sink := tui.NewSink()
	sess, err := debugger.NewSession(debugger.Config{
		Requests:     runner.Stdin(),
		Sink:         sink,
		PlainPattern: firstNonEmpty(c.PlainPrompt, defaults.PlainPattern),
		DebugPattern: firstNonEmpty(c.DebugPrompt, defaults.DebugPattern),
		EchoesInput:  defaults.EchoesInput,
		Hooks: prompt.Hooks{
			OnActivate:   func() { sink.NotifyDebugState(domain.DebugActive) },
			OnDeactivate: func() { sink.NotifyDebugState(domain.DebugInactive) },
		},
		Logger: logger.Sugared(),
	})
	if err != nil {
		return fmt.Errorf("invalid prompt pattern: %w", err)
	}
	defer sess.Close()

	tracker.Start(runner.PID())

	// The filter runs off the bubbletea loop; the sink channel carries
	// display updates across.
	go func() {
		defer sink.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case chunk, ok := <-runner.Chunks():
				if !ok {
					return
				}
				if err := sess.Ingest(chunk); err != nil {
					sink.NotifyError(err)
					return
				}
			case err := <-runner.Errors():
				sink.NotifyError(err)
			}
		}
	}()

	model := tui.New(c.Command, sink.Events())
	p := tea.NewProgram(model, tea.WithAltScreen())

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
