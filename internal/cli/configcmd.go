package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mdlink/mdlink/internal/config"
	"github.com/mdlink/mdlink/internal/domain"
)

// ConfigCmd groups configuration helpers
type ConfigCmd struct {
	Show     ConfigShowCmd     `cmd:"" help:"Show current configuration"`
	Path     ConfigPathCmd     `cmd:"" help:"Show configuration file path"`
	Generate ConfigGenerateCmd `cmd:"" help:"Print a sample configuration file"`
}

// ConfigShowCmd shows the effective configuration
type ConfigShowCmd struct{}

// Run executes the config show command
func (c *ConfigShowCmd) Run(globals *Globals) error {
	cfg := globals.Config
	if cfg == nil {
		cfg = config.Default()
	}

	if globals.Format == "ndjson" {
		out := map[string]interface{}{
			"type":          "config",
			"schemaVersion": domain.SchemaVersion,
			"format":        cfg.Format,
			"quiet":         cfg.Quiet,
			"verbose":       cfg.Verbose,
			"defaults": map[string]interface{}{
				"command":       cfg.Defaults.Command,
				"args":          cfg.Defaults.Args,
				"plain_pattern": cfg.Defaults.PlainPattern,
				"debug_pattern": cfg.Defaults.DebugPattern,
				"echoes_input":  cfg.Defaults.EchoesInput,
				"buffer_size":   cfg.Defaults.BufferSize,
			},
		}
		return json.NewEncoder(globals.Stdout).Encode(out)
	}

	fmt.Fprintln(globals.Stdout, "Current Configuration:")
	fmt.Fprintf(globals.Stdout, "  format: %s\n", cfg.Format)
	fmt.Fprintf(globals.Stdout, "  quiet: %t\n", cfg.Quiet)
	fmt.Fprintf(globals.Stdout, "  verbose: %t\n", cfg.Verbose)
	fmt.Fprintln(globals.Stdout, "  Defaults:")
	fmt.Fprintf(globals.Stdout, "    command: %s\n", cfg.Defaults.Command)
	fmt.Fprintf(globals.Stdout, "    args: %s\n", strings.Join(cfg.Defaults.Args, " "))
	fmt.Fprintf(globals.Stdout, "    plain_pattern: %s\n", cfg.Defaults.PlainPattern)
	fmt.Fprintf(globals.Stdout, "    debug_pattern: %s\n", cfg.Defaults.DebugPattern)
	fmt.Fprintf(globals.Stdout, "    echoes_input: %t\n", cfg.Defaults.EchoesInput)
	fmt.Fprintf(globals.Stdout, "    buffer_size: %d\n", cfg.Defaults.BufferSize)
	return nil
}

// ConfigPathCmd shows where configuration is loaded from
type ConfigPathCmd struct{}

// Run executes the config path command
func (c *ConfigPathCmd) Run(globals *Globals) error {
	path := config.ConfigFile()

	if globals.Format == "ndjson" {
		out := map[string]interface{}{
			"type":          "config_path",
			"schemaVersion": domain.SchemaVersion,
			"path":          path,
		}
		return json.NewEncoder(globals.Stdout).Encode(out)
	}

	if path == "" {
		fmt.Fprintln(globals.Stdout, "No configuration file found")
	} else {
		fmt.Fprintf(globals.Stdout, "Config file: %s\n", path)
	}
	return nil
}

// ConfigGenerateCmd prints a commented sample configuration
type ConfigGenerateCmd struct{}

const sampleConfig = `# mdlink configuration file
# Place at ~/.config/mdlink/mdlink.yaml or ./mdlink.yaml

# Output format: text, ndjson, or auto (text on a terminal)
format: auto

# Suppress informational output
quiet: false

# Verbose debug logging
verbose: false

defaults:
  # MATLAB invocation
  command: matlab
  args:
    - -nodesktop
    - -nosplash

  # Prompt patterns (anchored regexes matched against single lines)
  # plain_pattern: '^>> $'
  # debug_pattern: '^K>> $'

  # The subprocess echoes its input back on stdout
  echoes_input: true

  # Read buffer size in bytes
  buffer_size: 4096
`

// Run executes the config generate command
func (c *ConfigGenerateCmd) Run(globals *Globals) error {
	fmt.Fprint(globals.Stdout, sampleConfig)
	return nil
}
