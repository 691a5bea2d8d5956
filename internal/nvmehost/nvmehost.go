// Package nvmehost manages the host side NVMe files, the host identity and the
// discovery controller list used by "nvme connect-all".
package nvmehost

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/lxc/incus-os/nvme-config/api"
	"github.com/lxc/incus-os/nvme-config/internal/topology"
)

// DefaultDir is the NVMe configuration directory.
const DefaultDir = "/etc/nvme"

// ErrNoHostNQN is returned when the host NQN file is missing or empty.
var ErrNoHostNQN = errors.New("no host NQN configured")

// Load reads the host identity from dir. A missing host ID isn't an error.
func Load(dir string) (api.NVMeHost, error) {
	host := api.NVMeHost{}

	// Retrieve host NQN.
	hostnqn, err := os.ReadFile(filepath.Join(dir, "hostnqn")) //nolint:gosec
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return host, err
	}

	host.HostNQN = strings.TrimSpace(string(hostnqn))
	if host.HostNQN == "" {
		return host, ErrNoHostNQN
	}

	// Retrieve host ID.
	hostid, err := os.ReadFile(filepath.Join(dir, "hostid")) //nolint:gosec
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return host, err
	}

	host.HostID = strings.TrimSpace(string(hostid))
	if host.HostID != "" {
		_, err = uuid.Parse(host.HostID)
		if err != nil {
			return host, fmt.Errorf("invalid host ID %q: %w", host.HostID, err)
		}
	}

	return host, nil
}

// Ensure creates the host NQN and host ID files in dir when missing and returns the
// resulting identity.
func Ensure(dir string) (api.NVMeHost, error) {
	// Create the NVMe config directory if missing.
	err := os.Mkdir(dir, 0o700)
	if err != nil && !errors.Is(err, os.ErrExist) {
		return api.NVMeHost{}, err
	}

	// Create the host NQN if missing.
	err = createFile(filepath.Join(dir, "hostnqn"), topology.GenerateHostNQN())
	if err != nil {
		return api.NVMeHost{}, err
	}

	// Generate host ID if missing.
	err = createFile(filepath.Join(dir, "hostid"), uuid.New().String())
	if err != nil {
		return api.NVMeHost{}, err
	}

	return Load(dir)
}

func createFile(path string, value string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600) //nolint:gosec
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil
		}

		return err
	}

	defer f.Close()

	_, err = f.WriteString(value + "\n")
	if err != nil {
		return err
	}

	return f.Close()
}
