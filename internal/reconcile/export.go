package reconcile

import (
	"context"
	"log/slog"

	"github.com/lxc/incus-os/nvme-config/internal/pskey"
	"github.com/lxc/incus-os/nvme-config/internal/topology"
)

// ExportConfig serializes the topology into the persisted configuration format.
//
// Discovery subsystems, PCIe controllers and anything left empty by those rules are
// omitted.
func (r *Reconciler) ExportConfig(ctx context.Context) ([]byte, error) {
	hosts := newArray()

	for _, h := range r.root.Hosts() {
		subsystems := newArray()

		for _, s := range h.Subsystems() {
			obj := r.exportSubsystem(ctx, s)
			if obj != nil {
				subsystems.add(obj)
			}
		}

		if subsystems.len() == 0 {
			continue
		}

		obj := newObject()
		obj.set("hostnqn", h.HostNQN())
		obj.setString("hostid", h.HostID())
		obj.setString("dhchap_key", h.DHCHAPKey)
		obj.setString("hostsymname", h.HostSymname)

		pdc, ok := h.PDCEnabled()
		if ok {
			obj.set("persistent_discovery_ctrl", pdc)
		}

		obj.setArray("subsystems", subsystems)
		hosts.add(obj)
	}

	return hosts.bytes()
}

func (r *Reconciler) exportSubsystem(ctx context.Context, s *topology.Subsystem) *object {
	// The discovery NQN isn't unique, there's nothing meaningful to persist.
	if s.IsDiscovery() {
		return nil
	}

	ports := newArray()

	for _, c := range s.Controllers() {
		// PCIe controllers have no remote port.
		if c.Transport() == topology.TransportPCIe {
			continue
		}

		ports.add(r.exportPort(ctx, c))
	}

	if ports.len() == 0 {
		return nil
	}

	obj := newObject()
	obj.set("nqn", s.NQN())
	obj.setString("application", s.Application)
	obj.setArray("ports", ports)

	return obj
}

func (r *Reconciler) exportPort(ctx context.Context, c *topology.Controller) *object {
	obj := newObject()
	addIdentity(obj, c)
	emitFields(c, obj, ViewConfig)

	r.exportKeyring(ctx, c, obj)
	r.exportTLSKey(c, obj)

	return obj
}

// exportKeyring stores the keyring description, serials don't survive a reboot.
func (r *Reconciler) exportKeyring(ctx context.Context, c *topology.Controller, obj *object) {
	if c.Config.Keyring == 0 || r.keys == nil {
		return
	}

	desc, err := r.keys.Describe(c.Config.Keyring)
	if err != nil {
		slog.DebugContext(ctx, "Failed to describe keyring", "keyring", c.Config.Keyring, "err", err)

		return
	}

	obj.setString("keyring", desc)
}

// exportTLSKey stores the TLS key in PSK interchange format.
func (r *Reconciler) exportTLSKey(c *topology.Controller, obj *object) {
	if c.Config.TLSKey == 0 || r.keys == nil {
		return
	}

	key, ok := pskey.Export(r.keys, c.Config.Keyring, c.Config.TLSKey)
	if ok {
		obj.set("tls_key", key)
	}
}

// addIdentity adds the identity and authentication fields shared by both views.
func addIdentity(obj *object, c *topology.Controller) {
	id := c.ID()

	obj.set("transport", id.Transport)
	obj.setString("traddr", id.Traddr)
	obj.setString("host_traddr", id.HostTraddr)
	obj.setString("host_iface", id.HostIface)
	obj.setString("trsvcid", id.Trsvcid)
	obj.setString("dhchap_key", c.DHCHAPHostKey)
	obj.setString("dhchap_ctrl_key", c.DHCHAPCtrlKey)
}
