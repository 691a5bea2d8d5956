package cli

import (
	cli "github.com/lxc/incus/v6/shared/cmd"
	"github.com/spf13/cobra"
)

// Dump command.
type cmdDump struct {
	nvme *cmdNVMe
}

func (c *cmdDump) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("dump", "[<file>...]")
	cmd.Short = "Show the full topology"
	cmd.Long = cli.FormatSection("Description", `Show the full topology

Unlike normalize, every host, subsystem and controller is shown, including
discovery controllers and the identity of each host.`)

	cmd.RunE = c.run

	return cmd
}

func (c *cmdDump) run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 0, -1)
	if exit {
		return err
	}

	ctx := cmd.Context()
	r := c.nvme.reconciler(ctx)

	err = c.nvme.load(ctx, r, args)
	if err != nil {
		return err
	}

	return r.DumpStatus(ctx, c.nvme.args.Stdout)
}
