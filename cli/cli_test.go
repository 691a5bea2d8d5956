package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/lxc/incus-os/nvme-config/cli"
	"github.com/lxc/incus-os/nvme-config/internal/pskey"
)

var firstDoc = `[{"hostnqn":"nqn.host1","subsystems":[{"nqn":"nqn.sub1","ports":[{"transport":"tcp","traddr":"10.0.0.1","trsvcid":"4420","nr_io_queues":4}]}]}]`

var secondDoc = `[{"hostnqn":"nqn.host1","subsystems":[{"nqn":"nqn.sub1","ports":[{"transport":"tcp","traddr":"10.0.0.1","trsvcid":"4420","nr_io_queues":8,"keep_alive_tmo":30}]},{"nqn":"nqn.sub2","ports":[{"transport":"rdma","traddr":"10.0.0.2"}]}]}]`

// writeFile creates a file in dir and returns its path.
func writeFile(t *testing.T, dir string, name string, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)

	err := os.WriteFile(path, []byte(content), 0o600)
	require.NoError(t, err)

	return path
}

// run executes the tool against a memory keyring, returning its output.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	dir := t.TempDir()
	settings := writeFile(t, dir, "settings.yaml", "config_file: "+filepath.Join(dir, "missing.json")+"\nkeyring_backend: memory\n")

	stdout := &bytes.Buffer{}

	cmd := cli.NewCommand(&cli.Args{
		DefaultListFormat: "table",
		SettingsPath:      settings,
		Stdin:             strings.NewReader(stdin),
		Stdout:            stdout,
	})

	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.ExecuteContext(t.Context())

	return stdout.String(), err
}

func TestGenHostNQN(t *testing.T) {
	t.Parallel()

	out, err := run(t, "", "gen-hostnqn")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "nqn.2014-08.org.nvmexpress:uuid:"))

	_, err = run(t, "", "gen-hostnqn", "extra")
	require.Error(t, err)
}

func TestKeyGenerateDecode(t *testing.T) {
	t.Parallel()

	out, err := run(t, "", "key", "generate", "--hmac", "2")
	require.NoError(t, err)

	key, hash, err := pskey.Decode(strings.TrimSpace(out))
	require.NoError(t, err)
	require.Equal(t, pskey.HashSHA384, hash)
	require.Len(t, key, 48)

	out, err = run(t, "", "key", "decode", "NVMeTLSkey-1:01:VRLbtnN9AQb2WXW3c9+wEf/DRLz0QuLdbYvEhwtdWwNf9LrZ:")
	require.NoError(t, err)
	require.Equal(t, "Hash: 01\nLength: 32\n", out)

	_, err = run(t, "", "key", "decode", "NVMeTLSkey-1:01:VRLbtnN9AQb2WXW3c9+wEf/DRLz0QuLdbYvEhwtdWwNf9LrA:")
	require.ErrorIs(t, err, pskey.ErrInvalidKey)

	_, err = run(t, "", "key", "generate", "--hmac", "3")
	require.Error(t, err)
}

func TestKeyInsert(t *testing.T) {
	t.Parallel()

	out, err := run(t, "", "key", "insert", "nqn.host1", "nqn.sub1", "NVMeTLSkey-1:01:VRLbtnN9AQb2WXW3c9+wEf/DRLz0QuLdbYvEhwtdWwNf9LrZ:")
	require.NoError(t, err)
	require.Len(t, strings.TrimSpace(out), 8)

	_, err = run(t, "", "key", "insert", "--keyring", ".missing", "nqn.host1", "nqn.sub1", "NVMeTLSkey-1:01:VRLbtnN9AQb2WXW3c9+wEf/DRLz0QuLdbYvEhwtdWwNf9LrZ:")
	require.Error(t, err)

	_, err = run(t, "", "key", "insert", "", "nqn.sub1", "NVMeTLSkey-1:01:VRLbtnN9AQb2WXW3c9+wEf/DRLz0QuLdbYvEhwtdWwNf9LrZ:")
	require.ErrorIs(t, err, pskey.ErrMissingNQN)
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "config.json", firstDoc)

	out, err := run(t, "", "normalize", path)
	require.NoError(t, err)
	require.JSONEq(t, firstDoc, out)

	// Stdin.
	out, err = run(t, firstDoc, "normalize", "-")
	require.NoError(t, err)
	require.JSONEq(t, firstDoc, out)

	// File output.
	target := filepath.Join(dir, "normalized.json")

	out, err = run(t, "", "normalize", path, "--output", target)
	require.NoError(t, err)
	require.Empty(t, out)

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	require.JSONEq(t, firstDoc, string(content))

	// Broken input.
	_, err = run(t, "", "normalize", writeFile(t, dir, "broken.json", `[{"hostnqn":`))
	require.Error(t, err)

	_, err = run(t, "", "normalize", filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}

func TestMerge(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := writeFile(t, dir, "first.json", firstDoc)
	second := writeFile(t, dir, "second.json", secondDoc)

	out, err := run(t, "", "merge", first, second)
	require.NoError(t, err)

	doc := gjson.Parse(out)
	require.Equal(t, int64(4), doc.Get("0.subsystems.0.ports.0.nr_io_queues").Int())
	require.Equal(t, int64(30), doc.Get("0.subsystems.0.ports.0.keep_alive_tmo").Int())
	require.Equal(t, "nqn.sub2", doc.Get("0.subsystems.1.nqn").String())

	// Order matters.
	out, err = run(t, "", "merge", second, first)
	require.NoError(t, err)
	require.Equal(t, int64(8), gjson.Get(out, "0.subsystems.0.ports.0.nr_io_queues").Int())
}

func TestCheck(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	second := writeFile(t, dir, "second.json", secondDoc)

	out, err := run(t, "", "check", "--format", "json", second)
	require.NoError(t, err)

	doc := gjson.Parse(out)
	require.Equal(t, second, doc.Get("0.file").String())
	require.Equal(t, int64(1), doc.Get("0.hosts").Int())
	require.Equal(t, int64(2), doc.Get("0.subsystems").Int())
	require.Equal(t, int64(2), doc.Get("0.ports").Int())

	_, err = run(t, "", "check", "--format", "invalid", second)
	require.Error(t, err)
}

func TestDump(t *testing.T) {
	t.Parallel()

	out, err := run(t, firstDoc, "dump", "-")
	require.NoError(t, err)

	doc := gjson.Parse(out)
	require.Equal(t, "nqn.host1", doc.Get("hosts.0.hostnqn").String())
	require.Equal(t, "nqn.sub1", doc.Get("hosts.0.subsystems.0.nqn").String())
	require.Equal(t, "10.0.0.1", doc.Get("hosts.0.subsystems.0.controllers.0.traddr").String())
}

func TestHost(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nvme")

	_, err := run(t, "", "host", "show", "--dir", dir)
	require.Error(t, err)

	out, err := run(t, "", "host", "init", "--dir", dir)
	require.NoError(t, err)
	require.Contains(t, out, "host_nqn: nqn.2014-08.org.nvmexpress:uuid:")

	shown, err := run(t, "", "host", "show", "--dir", dir)
	require.NoError(t, err)
	require.Equal(t, out, shown)

	doc := `[{"hostnqn":"nqn.host1","subsystems":[{"nqn":"nqn.2014-08.org.nvmexpress.discovery","ports":[{"transport":"tcp","traddr":"10.0.0.1","trsvcid":"8009"}]}]}]`

	out, err = run(t, doc, "host", "discovery", "-")
	require.NoError(t, err)
	require.Equal(t, "--transport=tcp --traddr=10.0.0.1 --trsvcid=8009\n", out)
}

func TestInvalidSettings(t *testing.T) {
	t.Parallel()

	settings := writeFile(t, t.TempDir(), "settings.yaml", "keyring_backend: tpm\n")

	cmd := cli.NewCommand(&cli.Args{SettingsPath: settings, Stdout: &bytes.Buffer{}})
	cmd.SetArgs([]string{"gen-hostnqn"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.ExecuteContext(t.Context())
	require.Error(t, err)
}
