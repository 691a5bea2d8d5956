package cli

import (
	"fmt"

	cli "github.com/lxc/incus/v6/shared/cmd"
	"github.com/spf13/cobra"

	"github.com/lxc/incus-os/nvme-config/internal/topology"
)

// Host NQN generation command.
type cmdGenHostNQN struct {
	nvme *cmdNVMe
}

func (c *cmdGenHostNQN) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("gen-hostnqn")
	cmd.Short = "Generate a host NQN"
	cmd.Long = cli.FormatSection("Description", "Generate a random UUID based host NQN")

	cmd.RunE = c.run

	return cmd
}

func (c *cmdGenHostNQN) run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 0, 0)
	if exit {
		return err
	}

	_, err = fmt.Fprintln(c.nvme.args.Stdout, topology.GenerateHostNQN())

	return err
}
