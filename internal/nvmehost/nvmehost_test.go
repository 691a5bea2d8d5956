package nvmehost_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/lxc/incus-os/nvme-config/api"
	"github.com/lxc/incus-os/nvme-config/internal/nvmehost"
	"github.com/lxc/incus-os/nvme-config/internal/topology"
)

func TestEnsure(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nvme")

	_, err := nvmehost.Load(dir)
	require.ErrorIs(t, err, nvmehost.ErrNoHostNQN)

	host, err := nvmehost.Ensure(dir)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(host.HostNQN, "nqn.2014-08.org.nvmexpress:uuid:"))

	_, err = uuid.Parse(host.HostID)
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, "hostnqn"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// Existing files are kept.
	again, err := nvmehost.Ensure(dir)
	require.NoError(t, err)
	require.Equal(t, host, again)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	err := os.WriteFile(filepath.Join(dir, "hostnqn"), []byte("nqn.host1\n"), 0o600)
	require.NoError(t, err)

	host, err := nvmehost.Load(dir)
	require.NoError(t, err)
	require.Equal(t, api.NVMeHost{HostNQN: "nqn.host1"}, host)

	err = os.WriteFile(filepath.Join(dir, "hostid"), []byte("not-a-uuid\n"), 0o600)
	require.NoError(t, err)

	_, err = nvmehost.Load(dir)
	require.Error(t, err)
}

func TestTargets(t *testing.T) {
	t.Parallel()

	root := topology.New()

	h, err := root.LookupHost("nqn.host1", "")
	require.NoError(t, err)

	disc, err := h.LookupSubsystem("", topology.DiscoverySubsysNQN)
	require.NoError(t, err)

	_, err = disc.LookupController(topology.ControllerID{Transport: "tcp", Traddr: "10.0.0.1", Trsvcid: "8009", HostIface: "eth0"})
	require.NoError(t, err)

	_, err = disc.LookupController(topology.ControllerID{Transport: "loop"})
	require.NoError(t, err)

	// Regular subsystems only contribute flagged controllers.
	s, err := h.LookupSubsystem("", "nqn.sub1")
	require.NoError(t, err)

	_, err = s.LookupController(topology.ControllerID{Transport: "tcp", Traddr: "10.0.0.2", Trsvcid: "4420"})
	require.NoError(t, err)

	c, err := s.LookupController(topology.ControllerID{Transport: "rdma", Traddr: "10.0.0.3"})
	require.NoError(t, err)

	c.Discovery = true

	// Duplicates are listed once.
	h2, err := root.LookupHost("nqn.host2", "")
	require.NoError(t, err)

	disc2, err := h2.LookupSubsystem("", topology.DiscoverySubsysNQN)
	require.NoError(t, err)

	_, err = disc2.LookupController(topology.ControllerID{Transport: "tcp", Traddr: "10.0.0.1", Trsvcid: "8009", HostIface: "eth0"})
	require.NoError(t, err)

	targets := nvmehost.Targets(root)
	require.Equal(t, []api.NVMeTarget{
		{Transport: "tcp", Address: "10.0.0.1", Port: 8009, HostIface: "eth0"},
		{Transport: "rdma", Address: "10.0.0.3"},
	}, targets)

	buf := &bytes.Buffer{}

	err = nvmehost.WriteDiscovery(buf, targets)
	require.NoError(t, err)
	require.Equal(t, "--transport=tcp --traddr=10.0.0.1 --trsvcid=8009 --host-iface=eth0\n--transport=rdma --traddr=10.0.0.3\n", buf.String())
}
