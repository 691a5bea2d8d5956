package reconcile

import (
	"context"

	"github.com/lxc/incus-os/nvme-config/internal/topology"
)

// ExportStatus serializes the whole topology for diagnostics, as {"hosts": [...]}.
func (r *Reconciler) ExportStatus(ctx context.Context) ([]byte, error) {
	hosts := newArray()

	for _, h := range r.root.Hosts() {
		obj := newObject()
		obj.set("hostnqn", h.HostNQN())
		obj.setString("hostid", h.HostID())
		obj.setString("dhchap_key", h.DHCHAPKey)
		obj.setString("hostsymname", h.HostSymname)

		pdc, ok := h.PDCEnabled()
		if ok {
			obj.set("persistent_discovery_ctrl", pdc)
		}

		subsystems := newArray()
		for _, s := range h.Subsystems() {
			subsystems.add(r.statusSubsystem(ctx, s))
		}

		obj.setArray("subsystems", subsystems)
		hosts.add(obj)
	}

	root := newObject()
	root.setArray("hosts", hosts)

	return root.bytes()
}

func (r *Reconciler) statusSubsystem(ctx context.Context, s *topology.Subsystem) *object {
	obj := newObject()
	obj.set("name", s.Name)
	obj.set("nqn", s.NQN())
	obj.setString("application", s.Application)

	controllers := newArray()
	for _, c := range s.Controllers() {
		controllers.add(r.statusController(ctx, c))
	}

	obj.setArray("controllers", controllers)

	return obj
}

func (r *Reconciler) statusController(ctx context.Context, c *topology.Controller) *object {
	obj := newObject()
	obj.setString("name", c.Name)
	addIdentity(obj, c)
	emitFields(c, obj, ViewStatus)

	// TLS only applies to TCP.
	if c.Transport() != topology.TransportTCP {
		return obj
	}

	r.exportKeyring(ctx, c, obj)
	r.exportTLSKey(c, obj)

	return obj
}
