// Package main is used for the nvme-config tool.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lxc/incus-os/nvme-config/cli"
	"github.com/lxc/incus-os/nvme-config/internal/config"
)

func main() {
	// Prepare a logger.
	level := &slog.LevelVar{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Run the main command and handle errors.
	app := cli.NewCommand(&cli.Args{
		DefaultListFormat: "table",
		SettingsPath:      config.DefaultPath,
		LogLevel:          level,
		Stdin:             os.Stdin,
		Stdout:            os.Stdout,
	})

	app.CompletionOptions = cobra.CompletionOptions{DisableDefaultCmd: true}

	err := app.ExecuteContext(context.Background())
	if err != nil {
		os.Exit(1)
	}
}
