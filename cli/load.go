package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

// Args contains the configuration for a new nvme-config CLI instance.
type Args struct {
	DefaultListFormat string
	SettingsPath      string

	// LogLevel is updated once the tool settings are loaded.
	LogLevel *slog.LevelVar

	Stdin  io.Reader
	Stdout io.Writer
}

// NewCommand returns a new cobra Command suitable for inclusion by downstreams.
func NewCommand(args *Args) *cobra.Command {
	cmd := cmdNVMe{
		args: args,
	}

	return cmd.command()
}
