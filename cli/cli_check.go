package cli

import (
	"sort"
	"strconv"

	cli "github.com/lxc/incus/v6/shared/cmd"
	"github.com/spf13/cobra"

	"github.com/lxc/incus-os/nvme-config/internal/topology"
)

// Check command.
type cmdCheck struct {
	nvme *cmdNVMe

	flagFormat string
}

func (c *cmdCheck) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("check", "[<file>...]")
	cmd.Short = "Validate configuration files"
	cmd.Long = cli.FormatSection("Description", `Validate configuration files

Each file is read on its own and a summary of the hosts, subsystems and
ports it defines is shown. Entries which can't be used are reported as
warnings.`)
	cmd.Flags().StringVarP(&c.flagFormat, "format", "f", c.nvme.args.DefaultListFormat, "Format (csv|json|table|yaml|compact|markdown), use suffix \",noheader\" to disable headers and \",header\" to enable it if missing, e.g. csv,header``")

	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		return cli.ValidateFlagFormatForListOutput(cmd.Flag("format").Value.String())
	}

	cmd.RunE = c.run

	return cmd
}

// fileSummary is the structured form of a check result.
type fileSummary struct {
	File       string `json:"file"       yaml:"file"`
	Hosts      int    `json:"hosts"      yaml:"hosts"`
	Subsystems int    `json:"subsystems" yaml:"subsystems"`
	Ports      int    `json:"ports"      yaml:"ports"`
}

func (c *cmdCheck) run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 0, -1)
	if exit {
		return err
	}

	files := args
	if len(files) == 0 {
		files = []string{c.nvme.cfg.ConfigFile}
	}

	summaries := make([]fileSummary, 0, len(files))
	data := [][]string{}

	for _, file := range files {
		r := c.nvme.reconciler(cmd.Context())

		err := c.nvme.load(cmd.Context(), r, []string{file})
		if err != nil {
			return err
		}

		summary := summarize(r.Root())
		summary.File = file

		summaries = append(summaries, summary)
		data = append(data, []string{file, strconv.Itoa(summary.Hosts), strconv.Itoa(summary.Subsystems), strconv.Itoa(summary.Ports)})
	}

	sort.Sort(cli.SortColumnsNaturally(data))

	header := []string{
		"FILE",
		"HOSTS",
		"SUBSYSTEMS",
		"PORTS",
	}

	return cli.RenderTable(c.nvme.args.Stdout, c.flagFormat, header, data, summaries)
}

func summarize(root *topology.Root) fileSummary {
	summary := fileSummary{}

	for _, h := range root.Hosts() {
		summary.Hosts++

		for _, s := range h.Subsystems() {
			summary.Subsystems++
			summary.Ports += len(s.Controllers())
		}
	}

	return summary
}
