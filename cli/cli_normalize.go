package cli

import (
	cli "github.com/lxc/incus/v6/shared/cmd"
	"github.com/spf13/cobra"
)

// Normalize command.
type cmdNormalize struct {
	nvme *cmdNVMe

	flagOutput string
}

func (c *cmdNormalize) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("normalize", "[<file>]")
	cmd.Short = "Rewrite a configuration file in canonical form"
	cmd.Long = cli.FormatSection("Description", `Rewrite a configuration file in canonical form

Settings left at their defaults, discovery controllers and empty entries
are dropped and TLS keys are embedded in interchange format.`)
	cmd.Example = cli.FormatSection("", `nvme-config normalize /etc/nvme/config.json --output /etc/nvme/config.json
    Rewrite the file in place.`)
	cmd.Flags().StringVarP(&c.flagOutput, "output", "o", "", "Write the result to a file instead of stdout``")

	cmd.RunE = c.run

	return cmd
}

func (c *cmdNormalize) run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 0, 1)
	if exit {
		return err
	}

	return c.nvme.export(cmd, args, c.flagOutput)
}

// Merge command.
type cmdMerge struct {
	nvme *cmdNVMe

	flagOutput string
}

func (c *cmdMerge) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("merge", "<file>...")
	cmd.Short = "Merge configuration files"
	cmd.Long = cli.FormatSection("Description", `Merge configuration files

Files are read in order. A setting already defined by an earlier file is
never replaced by a later one.`)
	cmd.Flags().StringVarP(&c.flagOutput, "output", "o", "", "Write the result to a file instead of stdout``")

	cmd.RunE = c.run

	return cmd
}

func (c *cmdMerge) run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 1, -1)
	if exit {
		return err
	}

	return c.nvme.export(cmd, args, c.flagOutput)
}

// export loads the files and writes the persisted configuration to output or stdout.
func (c *cmdNVMe) export(cmd *cobra.Command, files []string, output string) error {
	ctx := cmd.Context()
	r := c.reconciler(ctx)

	err := c.load(ctx, r, files)
	if err != nil {
		return err
	}

	if output != "" {
		return r.SaveConfig(ctx, output)
	}

	return r.WriteConfig(ctx, c.args.Stdout)
}
