package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/mdlink/mdlink/internal/debugger"
	"github.com/mdlink/mdlink/internal/domain"
	"github.com/mdlink/mdlink/internal/output"
	"github.com/mdlink/mdlink/internal/prompt"
	"github.com/mdlink/mdlink/internal/session"
)

// ReplayCmd feeds a recorded console transcript through the filter. Useful
// for inspecting a captured session and for verifying prompt patterns
// against real output without launching MATLAB.
type ReplayCmd struct {
	File        string `arg:"" help:"Transcript file to replay"`
	ChunkSize   int    `default:"1" help:"Bytes fed to the filter per step (1 reproduces live pacing)"`
	PlainPrompt string `help:"Regex override for the ready prompt line"`
	DebugPrompt string `help:"Regex override for the debugger prompt line"`
}

// Run executes the replay command
func (c *ReplayCmd) Run(globals *Globals) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return outputErrorCommon(globals, "FILE_NOT_FOUND", err.Error())
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = 1
	}

	defaults := globals.Config.Defaults
	tracker := session.NewTracker("replay", nil)
	logger := newAgentLogger(globals, tracker.Current)

	var sink debugger.DisplaySink
	var ndjson *output.NDJSONWriter
	if globals.Format == "ndjson" {
		ndjson = output.NewNDJSONWriter(globals.Stdout)
		sink = ndjson
	} else {
		sink = output.NewTextWriter(globals.Stdout)
	}

	hooks := prompt.Hooks{
		OnActivate: func() {
			if ndjson != nil {
				ndjson.WriteDebugState(domain.DebugActive, tracker.Current())
			}
		},
		OnDeactivate: func() {
			if ndjson != nil {
				ndjson.WriteDebugState(domain.DebugInactive, tracker.Current())
			}
		},
	}

	// Requests go nowhere: the transcript already contains the responses the
	// live session produced.
	sess, err := debugger.NewSession(debugger.Config{
		Requests:     io.Discard,
		Sink:         sink,
		PlainPattern: firstNonEmpty(c.PlainPrompt, defaults.PlainPattern),
		DebugPattern: firstNonEmpty(c.DebugPrompt, defaults.DebugPattern),
		EchoesInput:  defaults.EchoesInput,
		Hooks:        hooks,
		Logger:       logger.Sugared(),
	})
	if err != nil {
		return outputErrorCommon(globals, "INVALID_PATTERN", err.Error())
	}
	defer sess.Close()

	start := tracker.Start(0)
	if ndjson != nil {
		ndjson.WriteEvent(start)
	}

	for len(data) > 0 {
		n := c.ChunkSize
		if n > len(data) {
			n = len(data)
		}
		if err := sess.Ingest(data[:n]); err != nil {
			return outputErrorCommon(globals, "SINK_FAILED", err.Error())
		}
		data = data[n:]
	}

	end := tracker.End(sess.Summary())
	if ndjson != nil {
		ndjson.WriteEvent(end)
	} else if !globals.Quiet {
		fmt.Fprintf(globals.Stderr, "Replayed %s: %d flushes, %d stack round trips, %d abandoned\n",
			c.File, end.Summary.Flushes, end.Summary.HotlinkRoundTrips, end.Summary.HotlinkAbandoned)
	}
	return nil
}
