package cli

import (
	"fmt"
	"sort"
	"strconv"

	cli "github.com/lxc/incus/v6/shared/cmd"
	"github.com/spf13/cobra"

	"github.com/lxc/incus-os/nvme-config/internal/keyring"
	"github.com/lxc/incus-os/nvme-config/internal/pskey"
)

// TLS key command.
type cmdKey struct {
	nvme *cmdNVMe
}

func (c *cmdKey) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("key")
	cmd.Short = "Manage NVMe TLS pre-shared keys"
	cmd.Long = cli.FormatSection("Description", "Manage NVMe TLS pre-shared keys")

	// Decode.
	decodeCmd := cmdKeyDecode{nvme: c.nvme}
	cmd.AddCommand(decodeCmd.command())

	// Generate.
	generateCmd := cmdKeyGenerate{nvme: c.nvme}
	cmd.AddCommand(generateCmd.command())

	// Insert.
	insertCmd := cmdKeyInsert{nvme: c.nvme}
	cmd.AddCommand(insertCmd.command())

	// List.
	listCmd := cmdKeyList{nvme: c.nvme}
	cmd.AddCommand(listCmd.command())

	// Workaround for subcommand usage errors. See: https://github.com/spf13/cobra/issues/706.
	cmd.Args = cobra.NoArgs
	cmd.Run = func(cmd *cobra.Command, _ []string) { _ = cmd.Usage() }

	return cmd
}

// Generate.
type cmdKeyGenerate struct {
	nvme *cmdNVMe

	flagHMAC int
}

func (c *cmdKeyGenerate) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("generate")
	cmd.Short = "Generate a TLS key"
	cmd.Long = cli.FormatSection("Description", `Generate a TLS key

The key is printed in PSK interchange format. Use --hmac 2 for a SHA-384
sized key.`)
	cmd.Flags().IntVar(&c.flagHMAC, "hmac", int(pskey.HashSHA256), "PSK hash (1 for SHA-256, 2 for SHA-384)``")

	cmd.RunE = c.run

	return cmd
}

func (c *cmdKeyGenerate) run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 0, 0)
	if exit {
		return err
	}

	key, err := pskey.Generate(pskey.HashID(c.flagHMAC))
	if err != nil {
		return err
	}

	interchange, err := pskey.Encode(key)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(c.nvme.args.Stdout, interchange)

	return err
}

// Decode.
type cmdKeyDecode struct {
	nvme *cmdNVMe
}

func (c *cmdKeyDecode) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("decode", "<interchange>")
	cmd.Short = "Validate a TLS key"
	cmd.Long = cli.FormatSection("Description", "Validate a TLS key in PSK interchange format and show its properties")

	cmd.RunE = c.run

	return cmd
}

func (c *cmdKeyDecode) run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 1, 1)
	if exit {
		return err
	}

	key, hash, err := pskey.Decode(args[0])
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(c.nvme.args.Stdout, "Hash: %02d\nLength: %d\n", int(hash), len(key))

	return err
}

// Insert.
type cmdKeyInsert struct {
	nvme *cmdNVMe

	flagKeyring string
}

func (c *cmdKeyInsert) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("insert", "<host NQN> <subsystem NQN> <interchange>")
	cmd.Short = "Insert a TLS key into the keyring"
	cmd.Long = cli.FormatSection("Description", `Insert a TLS key into the keyring

The key is stored with the retained PSK identity derived from both NQNs,
replacing any key already stored for that identity.`)
	cmd.Flags().StringVar(&c.flagKeyring, "keyring", "", "Keyring to insert the key into``")

	cmd.RunE = c.run

	return cmd
}

func (c *cmdKeyInsert) run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 3, 3)
	if exit {
		return err
	}

	keys, err := c.nvme.cfg.OpenKeyring()
	if err != nil {
		return err
	}

	description := c.flagKeyring
	if description == "" {
		description = c.nvme.cfg.Keyring
	}

	keyringID, err := keys.Lookup(description)
	if err != nil {
		return fmt.Errorf("failed to find keyring %q: %w", description, err)
	}

	serial, err := pskey.Import(keys, keyringID, args[0], args[1], args[2])
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(c.nvme.args.Stdout, "%08x\n", serial)

	return err
}

// List.
type cmdKeyList struct {
	nvme *cmdNVMe

	flagFormat string
}

func (c *cmdKeyList) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("list")
	cmd.Aliases = []string{"ls"}
	cmd.Short = "List TLS keys"
	cmd.Long = cli.FormatSection("Description", "List the TLS pre-shared keys visible in the kernel keyrings")
	cmd.Flags().StringVarP(&c.flagFormat, "format", "f", c.nvme.args.DefaultListFormat, "Format (csv|json|table|yaml|compact|markdown), use suffix \",noheader\" to disable headers and \",header\" to enable it if missing, e.g. csv,header``")

	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		return cli.ValidateFlagFormatForListOutput(cmd.Flag("format").Value.String())
	}

	cmd.RunE = c.run

	return cmd
}

func (c *cmdKeyList) run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 0, 0)
	if exit {
		return err
	}

	keys, err := keyring.GetKeys(cmd.Context(), keyring.KeyTypePSK)
	if err != nil {
		return err
	}

	data := [][]string{}
	for _, key := range keys {
		data = append(data, []string{strconv.FormatInt(int64(key.Serial), 16), key.Description, key.Summary})
	}

	sort.Sort(cli.SortColumnsNaturally(data))

	header := []string{
		"SERIAL",
		"DESCRIPTION",
		"SUMMARY",
	}

	return cli.RenderTable(c.nvme.args.Stdout, c.flagFormat, header, data, keys)
}
