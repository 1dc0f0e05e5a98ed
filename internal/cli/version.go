package cli

import (
	"encoding/json"
	"fmt"

	"github.com/mdlink/mdlink/internal/domain"
)

// Version and Commit are set at build time via ldflags.
var (
	Version = "dev"
	Commit  = "none"
)

// VersionCmd shows version information
type VersionCmd struct{}

// VersionOutput represents the NDJSON output for version information
type VersionOutput struct {
	Type          string `json:"type"`
	SchemaVersion int    `json:"schemaVersion"`
	Version       string `json:"version"`
	Commit        string `json:"commit"`
}

// Run executes the version command
func (c *VersionCmd) Run(globals *Globals) error {
	if globals.Format == "ndjson" {
		out := VersionOutput{
			Type:          "version",
			SchemaVersion: domain.SchemaVersion,
			Version:       Version,
			Commit:        Commit,
		}
		return json.NewEncoder(globals.Stdout).Encode(out)
	}

	fmt.Fprintf(globals.Stdout, "mdlink version %s (%s)\n", Version, Commit)
	return nil
}
