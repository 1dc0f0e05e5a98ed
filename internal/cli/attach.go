package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mdlink/mdlink/internal/debugger"
	"github.com/mdlink/mdlink/internal/domain"
	"github.com/mdlink/mdlink/internal/output"
	"github.com/mdlink/mdlink/internal/process"
	"github.com/mdlink/mdlink/internal/prompt"
	"github.com/mdlink/mdlink/internal/session"
	"github.com/mdlink/mdlink/internal/tmux"
)

// AttachCmd launches MATLAB and filters its console through the debugger link
type AttachCmd struct {
	Command     string   `short:"c" default:"${config_command}" help:"MATLAB executable to launch"`
	Args        []string `help:"Arguments passed to the executable (default from config)"`
	PlainPrompt string   `help:"Regex override for the ready prompt line"`
	DebugPrompt string   `help:"Regex override for the debugger prompt line"`
	NoEcho      bool     `help:"Subprocess does not echo its input"`
	BufferSize  int      `default:"4096" help:"Read buffer size in bytes"`
	Tmux        bool     `help:"Mirror console output to a tmux session"`
	Session     string   `help:"Custom tmux session name (default: mdlink)"`
}

// Run executes the attach command
func (c *AttachCmd) Run(globals *Globals) error {
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
	plainPat := firstNonEmpty(c.PlainPrompt, defaults.PlainPattern)
	debugPat := firstNonEmpty(c.DebugPrompt, defaults.DebugPattern)
	echoes := defaults.EchoesInput && !c.NoEcho

	tracker := session.NewTracker(c.Command, nil)
	logger := newAgentLogger(globals, tracker.Current)

	// Determine output destination
	var sink debugger.DisplaySink
	var ndjson *output.NDJSONWriter
	if globals.Format == "ndjson" {
		ndjson = output.NewNDJSONWriter(globals.Stdout)
		sink = ndjson
	} else {
		sink = output.NewTextWriter(globals.Stdout)
	}

	var tmuxMgr *tmux.Manager
	if c.Tmux {
		sessionName := c.Session
		if sessionName == "" {
			sessionName = "mdlink"
		}
		mgr, err := tmux.NewManager(tmux.Config{SessionName: sessionName})
		if err != nil {
			globals.Debug("tmux unavailable: %v", err)
		} else {
			tmuxMgr = mgr
			mgr.ClearPaneWithBanner(fmt.Sprintf("Attached: %s", c.Command))
			sink = output.NewTextWriter(tmux.NewWriter(mgr))
			if globals.Format == "ndjson" {
				fmt.Fprintf(globals.Stdout, `{"type":"tmux","session":"%s","attach":"tmux attach -t %s"}`+"\n",
					sessionName, sessionName)
			} else if !globals.Quiet {
				fmt.Fprintf(globals.Stderr, "Tmux session: %s\n", sessionName)
				fmt.Fprintf(globals.Stderr, "Attach with: tmux attach -t %s\n", sessionName)
			}
		}
	}

	runner := process.NewRunner(c.Command, args, c.BufferSize, logger.Sugared())
	if err := runner.Start(ctx); err != nil {
		return outputErrorCommon(globals, "LAUNCH_FAILED", err.Error(),
			"check that the executable is on PATH or set --command")
	}
	defer runner.Stop()

	hooks := prompt.Hooks{
		OnActivate:   func() { c.emitDebugState(globals, ndjson, tmuxMgr, domain.DebugActive, tracker.Current()) },
		OnDeactivate: func() { c.emitDebugState(globals, ndjson, tmuxMgr, domain.DebugInactive, tracker.Current()) },
	}

	sess, err := debugger.NewSession(debugger.Config{
		Requests:     runner.Stdin(),
		Sink:         sink,
		PlainPattern: plainPat,
		DebugPattern: debugPat,
		EchoesInput:  echoes,
		Hooks:        hooks,
		Logger:       logger.Sugared(),
	})
	if err != nil {
		return outputErrorCommon(globals, "INVALID_PATTERN", err.Error())
	}
	defer sess.Close()

	start := tracker.Start(runner.PID())
	if ndjson != nil {
		ndjson.WriteEvent(start)
	} else if !globals.Quiet {
		fmt.Fprintf(globals.Stderr, "Attached to %s (pid %d)\n", c.Command, runner.PID())
		fmt.Fprintln(globals.Stderr, "Press Ctrl+C to detach")
	}

	// Forward the controlling terminal to the subprocess
	go func() {
		//nolint:errcheck
		io.Copy(runner.Stdin(), os.Stdin)
	}()

	for {
		select {
		case <-ctx.Done():
			c.finish(globals, ndjson, tracker, sess)
			return nil

		case chunk, ok := <-runner.Chunks():
			if !ok {
				c.finish(globals, ndjson, tracker, sess)
				return nil
			}
			if err := sess.Ingest(chunk); err != nil {
				return outputErrorCommon(globals, "SINK_FAILED", err.Error())
			}

		case err := <-runner.Errors():
			if ndjson != nil {
				ndjson.WriteError("STREAM_READ", err.Error())
			} else if !globals.Quiet {
				fmt.Fprintf(globals.Stderr, "Warning: %s\n", err.Error())
			}
		}
	}
}

func (c *AttachCmd) emitDebugState(globals *Globals, ndjson *output.NDJSONWriter, tmuxMgr *tmux.Manager, state domain.DebugState, sessionNum int) {
	if ndjson != nil {
		ndjson.WriteDebugState(state, sessionNum)
	} else if !globals.Quiet {
		fmt.Fprintf(globals.Stderr, "--- debugger %s ---\n", state)
	}
	if tmuxMgr != nil {
		if err := tmuxMgr.WriteDebugBanner(state == domain.DebugActive); err != nil {
			globals.Debug("tmux banner: %v", err)
		}
	}
}

func (c *AttachCmd) finish(globals *Globals, ndjson *output.NDJSONWriter, tracker *session.Tracker, sess *debugger.Session) {
	end := tracker.End(sess.Summary())
	if end == nil {
		return
	}
	if ndjson != nil {
		ndjson.WriteEvent(end)
	} else if !globals.Quiet {
		fmt.Fprintf(globals.Stderr, "Detached: %d flushes, %d stack round trips, %d abandoned, %ds\n",
			end.Summary.Flushes, end.Summary.HotlinkRoundTrips, end.Summary.HotlinkAbandoned,
			end.Summary.DurationSeconds)
	}
}
