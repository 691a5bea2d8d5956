package nvmehost

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/lxc/incus-os/nvme-config/api"
	"github.com/lxc/incus-os/nvme-config/internal/topology"
)

// Targets returns the discovery controllers of the topology, in topology order and
// without duplicates.
//
// A controller is a discovery target when it belongs to a discovery subsystem or is
// flagged as a discovery controller. PCIe and loop controllers are skipped.
func Targets(root *topology.Root) []api.NVMeTarget {
	targets := []api.NVMeTarget{}

	for _, h := range root.Hosts() {
		for _, s := range h.Subsystems() {
			for _, c := range s.Controllers() {
				if !s.IsDiscovery() && !c.Discovery {
					continue
				}

				if !slices.Contains([]string{topology.TransportTCP, topology.TransportRDMA, topology.TransportFC}, c.Transport()) {
					continue
				}

				id := c.ID()
				target := api.NVMeTarget{
					Transport:  id.Transport,
					Address:    id.Traddr,
					HostTraddr: id.HostTraddr,
					HostIface:  id.HostIface,
				}

				if id.Trsvcid != "" {
					target.Port, _ = strconv.Atoi(id.Trsvcid)
				}

				if !slices.Contains(targets, target) {
					targets = append(targets, target)
				}
			}
		}
	}

	return targets
}

// WriteDiscovery writes the targets in the discovery.conf format, one target per line.
func WriteDiscovery(w io.Writer, targets []api.NVMeTarget) error {
	for _, target := range targets {
		args := []string{
			"--transport=" + target.Transport,
			"--traddr=" + target.Address,
		}

		if target.Port != 0 {
			args = append(args, "--trsvcid="+strconv.Itoa(target.Port))
		}

		if target.HostTraddr != "" {
			args = append(args, "--host-traddr="+target.HostTraddr)
		}

		if target.HostIface != "" {
			args = append(args, "--host-iface="+target.HostIface)
		}

		_, err := fmt.Fprintln(w, strings.Join(args, " "))
		if err != nil {
			return err
		}
	}

	return nil
}
