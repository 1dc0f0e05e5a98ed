// Package cli defines the mdlink command tree.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/mdlink/mdlink/internal/config"
)

// CLI is the top-level command structure parsed by kong.
type CLI struct {
	Format  string `help:"Output format: text, ndjson, or auto" enum:"text,ndjson,auto" default:"${config_format}"`
	Quiet   bool   `short:"q" help:"Suppress informational output"`
	Verbose bool   `short:"v" help:"Enable verbose debug logging"`

	Attach  AttachCmd  `cmd:"" help:"Launch MATLAB and filter its console output"`
	Replay  ReplayCmd  `cmd:"" help:"Run a recorded console transcript through the filter"`
	UI      UICmd      `cmd:"" help:"Interactive view with live stack and breakpoints"`
	Config  ConfigCmd  `cmd:"" help:"Show and generate configuration"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// Globals carries cross-command state into every Run method.
type Globals struct {
	Format  string
	Quiet   bool
	Verbose bool
	Stdout  io.Writer
	Stderr  io.Writer
	Config  *config.Config
}

// NewGlobalsWithConfig merges parsed flags with config fallbacks. Format
// "auto" resolves to text on a terminal and ndjson when piped.
func NewGlobalsWithConfig(c *CLI, cfg *config.Config) *Globals {
	g := &Globals{
		Format:  c.Format,
		Quiet:   c.Quiet || cfg.Quiet,
		Verbose: c.Verbose || cfg.Verbose,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Config:  cfg,
	}
	if g.Format == "" || g.Format == "auto" {
		if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			g.Format = "text"
		} else {
			g.Format = "ndjson"
		}
	}
	return g
}

// Debug prints verbose diagnostics to stderr.
func (g *Globals) Debug(format string, args ...interface{}) {
	if g.Verbose {
		fmt.Fprintf(g.Stderr, "[debug] "+format+"\n", args...)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
