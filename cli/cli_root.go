package cli

import (
	"context"
	"log/slog"

	cli "github.com/lxc/incus/v6/shared/cmd"
	"github.com/spf13/cobra"

	"github.com/lxc/incus-os/nvme-config/internal/config"
	"github.com/lxc/incus-os/nvme-config/internal/reconcile"
	"github.com/lxc/incus-os/nvme-config/internal/topology"
)

// NVMe configuration command.
type cmdNVMe struct {
	args *Args
	cfg  *config.Config

	flagSettings string
	flagDebug    bool
}

func (c *cmdNVMe) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("nvme-config")
	cmd.Short = "Manage NVMe over Fabrics configuration"
	cmd.Long = cli.FormatSection("Description", `Manage NVMe over Fabrics configuration

Configuration files describe hosts, the subsystems they connect to and the
fabric ports used to reach them. Files are merged in the order given, the
first value found for a setting wins.`)
	cmd.SilenceUsage = true

	cmd.PersistentFlags().StringVar(&c.flagSettings, "settings", c.args.SettingsPath, "Path to the tool settings``")
	cmd.PersistentFlags().BoolVar(&c.flagDebug, "debug", false, "Show debug messages")

	// Check.
	checkCmd := cmdCheck{nvme: c}
	cmd.AddCommand(checkCmd.command())

	// Dump.
	dumpCmd := cmdDump{nvme: c}
	cmd.AddCommand(dumpCmd.command())

	// Host.
	hostCmd := cmdHost{nvme: c}
	cmd.AddCommand(hostCmd.command())

	// Host NQN.
	hostNQNCmd := cmdGenHostNQN{nvme: c}
	cmd.AddCommand(hostNQNCmd.command())

	// Key.
	keyCmd := cmdKey{nvme: c}
	cmd.AddCommand(keyCmd.command())

	// Merge.
	mergeCmd := cmdMerge{nvme: c}
	cmd.AddCommand(mergeCmd.command())

	// Normalize.
	normalizeCmd := cmdNormalize{nvme: c}
	cmd.AddCommand(normalizeCmd.command())

	// Load the settings.
	cmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		cfg, err := config.Load(c.flagSettings)
		if err != nil {
			return err
		}

		c.cfg = cfg

		if c.args.LogLevel != nil {
			c.args.LogLevel.Set(cfg.Level())

			if c.flagDebug {
				c.args.LogLevel.Set(slog.LevelDebug)
			}
		}

		return nil
	}

	// Workaround for subcommand usage errors. See: https://github.com/spf13/cobra/issues/706.
	cmd.Args = cobra.NoArgs
	cmd.Run = func(cmd *cobra.Command, _ []string) { _ = cmd.Usage() }

	return cmd
}

// reconciler returns a Reconciler for an empty topology, backed by the configured keyring.
func (c *cmdNVMe) reconciler(ctx context.Context) *reconcile.Reconciler {
	keys, err := c.cfg.OpenKeyring()
	if err != nil {
		slog.WarnContext(ctx, "Keyring unavailable, TLS keys will be ignored", "backend", c.cfg.KeyringBackend, "err", err)
	}

	r := reconcile.New(topology.New(), keys)
	r.DefaultKeyring = c.cfg.Keyring

	return r
}

// load merges the listed files into r. An empty list means the configured file and "-"
// reads from stdin.
func (c *cmdNVMe) load(ctx context.Context, r *reconcile.Reconciler, paths []string) error {
	if len(paths) == 0 {
		paths = []string{c.cfg.ConfigFile}
	}

	for _, path := range paths {
		if path != "-" {
			err := r.ReadConfig(ctx, path)
			if err != nil {
				return err
			}

			continue
		}

		doc, err := reconcile.ReadDocument(c.args.Stdin)
		if err != nil {
			return err
		}

		err = r.Import(ctx, doc)
		if err != nil {
			return err
		}
	}

	return nil
}
