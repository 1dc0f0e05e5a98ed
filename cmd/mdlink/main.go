package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/mdlink/mdlink/internal/cli"
	"github.com/mdlink/mdlink/internal/config"
)

const quickStart = `mdlink - MATLAB command window debugger link

Quick start:
  mdlink attach                         Launch MATLAB and filter its console
  mdlink attach --tmux                  Mirror output to a tmux session
  mdlink replay transcript.txt          Re-run a recorded session
  mdlink ui                             Interactive stack/breakpoint view

For help:
  mdlink --help                         All commands and flags
`

func main() {
	// Show quick start if no args provided
	if len(os.Args) == 1 {
		fmt.Print(quickStart)
		return
	}

	// Load configuration from files/environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.Default()
	}

	var c cli.CLI

	// Apply config defaults before parsing
	// These will be overridden by CLI flags if specified
	vars := kong.Vars{
		"config_format":  cfg.Format,
		"config_command": cfg.Defaults.Command,
	}

	ctx := kong.Parse(&c,
		kong.Name("mdlink"),
		kong.Description("mdlink: filter a MATLAB console, follow its debugger, and publish stack and breakpoint state"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		vars,
	)

	globals := cli.NewGlobalsWithConfig(&c, cfg)
	if err := ctx.Run(globals); err != nil {
		os.Exit(1)
	}
}
