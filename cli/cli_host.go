package cli

import (
	"bytes"
	"fmt"
	"os"

	cli "github.com/lxc/incus/v6/shared/cmd"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lxc/incus-os/nvme-config/internal/nvmehost"
)

// Host identity command.
type cmdHost struct {
	nvme *cmdNVMe

	flagDir string
}

func (c *cmdHost) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("host")
	cmd.Short = "Manage the NVMe host identity"
	cmd.Long = cli.FormatSection("Description", "Manage the NVMe host identity")
	cmd.PersistentFlags().StringVar(&c.flagDir, "dir", nvmehost.DefaultDir, "NVMe configuration directory``")

	// Discovery.
	discoveryCmd := cmdHostDiscovery{host: c}
	cmd.AddCommand(discoveryCmd.command())

	// Init.
	initCmd := cmdHostInit{host: c}
	cmd.AddCommand(initCmd.command())

	// Show.
	showCmd := cmdHostShow{host: c}
	cmd.AddCommand(showCmd.command())

	// Workaround for subcommand usage errors. See: https://github.com/spf13/cobra/issues/706.
	cmd.Args = cobra.NoArgs
	cmd.Run = func(cmd *cobra.Command, _ []string) { _ = cmd.Usage() }

	return cmd
}

// Init.
type cmdHostInit struct {
	host *cmdHost
}

func (c *cmdHostInit) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("init")
	cmd.Short = "Create the host identity"
	cmd.Long = cli.FormatSection("Description", `Create the host identity

A random host NQN and host ID are generated unless already present.`)

	cmd.RunE = c.run

	return cmd
}

func (c *cmdHostInit) run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 0, 0)
	if exit {
		return err
	}

	host, err := nvmehost.Ensure(c.host.flagDir)
	if err != nil {
		return err
	}

	return c.host.render(host)
}

// Show.
type cmdHostShow struct {
	host *cmdHost
}

func (c *cmdHostShow) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("show")
	cmd.Short = "Show the host identity"
	cmd.Long = cli.FormatSection("Description", "Show the host identity")

	cmd.RunE = c.run

	return cmd
}

func (c *cmdHostShow) run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 0, 0)
	if exit {
		return err
	}

	host, err := nvmehost.Load(c.host.flagDir)
	if err != nil {
		return err
	}

	return c.host.render(host)
}

func (c *cmdHost) render(data any) error {
	out, err := yaml.Marshal(data)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(c.nvme.args.Stdout, string(out))

	return err
}

// Discovery.
type cmdHostDiscovery struct {
	host *cmdHost

	flagOutput string
}

func (c *cmdHostDiscovery) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("discovery", "[<file>...]")
	cmd.Short = "Generate the discovery controller list"
	cmd.Long = cli.FormatSection("Description", `Generate the discovery controller list

Controllers of discovery subsystems and controllers flagged for discovery
are written in the format read by "nvme connect-all".`)
	cmd.Example = cli.FormatSection("", `nvme-config host discovery --output /etc/nvme/discovery.conf
    Refresh the discovery list from the configuration file.`)
	cmd.Flags().StringVarP(&c.flagOutput, "output", "o", "", "Write the result to a file instead of stdout``")

	cmd.RunE = c.run

	return cmd
}

func (c *cmdHostDiscovery) run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 0, -1)
	if exit {
		return err
	}

	ctx := cmd.Context()
	r := c.host.nvme.reconciler(ctx)

	err = c.host.nvme.load(ctx, r, args)
	if err != nil {
		return err
	}

	buf := &bytes.Buffer{}

	err = nvmehost.WriteDiscovery(buf, nvmehost.Targets(r.Root()))
	if err != nil {
		return err
	}

	if c.flagOutput != "" {
		return os.WriteFile(c.flagOutput, buf.Bytes(), 0o600)
	}

	_, err = c.host.nvme.args.Stdout.Write(buf.Bytes())

	return err
}
