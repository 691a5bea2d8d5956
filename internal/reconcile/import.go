package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tidwall/gjson"

	"github.com/lxc/incus-os/nvme-config/internal/pskey"
	"github.com/lxc/incus-os/nvme-config/internal/topology"
)

// Import merges a parsed document into the topology.
//
// Only the document shape can fail the import. Hosts, subsystems and ports that can't be
// resolved are logged and skipped.
func (r *Reconciler) Import(ctx context.Context, doc gjson.Result) error {
	if !doc.IsArray() {
		slog.DebugContext(ctx, "Wrong format, expected array")

		return fmt.Errorf("%w: expected an array of hosts", ErrFormat)
	}

	for _, hostNode := range doc.Array() {
		r.importHost(ctx, hostNode)
	}

	return nil
}

func (r *Reconciler) importHost(ctx context.Context, node gjson.Result) {
	hostNQN, ok := stringValue(node, "hostnqn")
	if !ok {
		slog.DebugContext(ctx, "Skipping host without hostnqn")

		return
	}

	hostID, _ := stringValue(node, "hostid")

	h, err := r.root.LookupHost(hostNQN, hostID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to lookup host", "hostnqn", hostNQN, "err", err)

		return
	}

	// Host level strings are always applied.
	value, ok := stringValue(node, "dhchap_key")
	if ok {
		h.DHCHAPKey = value
	}

	value, ok = stringValue(node, "hostsymname")
	if ok {
		h.HostSymname = value
	}

	pdc := node.Get("persistent_discovery_ctrl")
	if pdc.Exists() && pdc.Type != gjson.Null {
		h.SetPDCEnabled(pdc.Bool())
	}

	for _, subsysNode := range arrayValue(node, "subsystems") {
		r.importSubsystem(ctx, h, subsysNode)
	}
}

func (r *Reconciler) importSubsystem(ctx context.Context, h *topology.Host, node gjson.Result) {
	nqn, ok := stringValue(node, "nqn")
	if !ok {
		slog.DebugContext(ctx, "Skipping subsystem without nqn", "hostnqn", h.HostNQN())

		return
	}

	s, err := h.LookupSubsystem("", nqn)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to lookup subsystem", "hostnqn", h.HostNQN(), "nqn", nqn, "err", err)

		return
	}

	app, ok := stringValue(node, "application")
	if ok {
		s.Application = app
	}

	for _, portNode := range arrayValue(node, "ports") {
		r.importPort(ctx, s, portNode)
	}
}

// portNode holds the fields of a port collected before anything is applied.
type portNode struct {
	id           topology.ControllerID
	hasTransport bool

	dhchapKey     *string
	dhchapCtrlKey *string

	keyring    string
	hasKeyring bool
	tlsKey     string
	hasTLSKey  bool

	fields map[string]gjson.Result
}

// collectPort scans all fields of a port node once.
func collectPort(node gjson.Result) portNode {
	p := portNode{fields: map[string]gjson.Result{}}

	node.ForEach(func(key gjson.Result, value gjson.Result) bool {
		if value.Type == gjson.Null {
			return true
		}

		str := value.String()

		switch key.String() {
		case "transport":
			p.id.Transport = str
			p.hasTransport = true
		case "traddr":
			p.id.Traddr = str
		case "host_traddr":
			p.id.HostTraddr = str
		case "host_iface":
			p.id.HostIface = str
		case "trsvcid":
			p.id.Trsvcid = str
		case "dhchap_key":
			p.dhchapKey = &str
		case "dhchap_ctrl_key":
			p.dhchapCtrlKey = &str
		case "keyring":
			p.keyring = str
			p.hasKeyring = true
		case "tls_key":
			p.tlsKey = str
			p.hasTLSKey = true
		default:
			p.fields[key.String()] = value
		}

		return true
	})

	return p
}

func (r *Reconciler) importPort(ctx context.Context, s *topology.Subsystem, node gjson.Result) {
	// Collect first so the keyring is known before the TLS key, whatever the field order.
	p := collectPort(node)

	if !p.hasTransport {
		slog.DebugContext(ctx, "Skipping port without transport", "nqn", s.NQN())

		return
	}

	c, err := s.LookupController(p.id)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to lookup controller", "nqn", s.NQN(), "transport", p.id.Transport, "traddr", p.id.Traddr, "err", err)

		return
	}

	mergeFields(c, p.fields)

	if p.dhchapKey != nil {
		c.DHCHAPHostKey = *p.dhchapKey
	}

	if p.dhchapCtrlKey != nil {
		c.DHCHAPCtrlKey = *p.dhchapCtrlKey
	}

	// The document holds the keyring description, the controller needs its serial.
	if p.hasKeyring && c.Config.Keyring == 0 {
		serial, err := r.lookupKeyring(p.keyring)
		if err != nil {
			slog.WarnContext(ctx, "Failed to resolve keyring", "keyring", p.keyring, "err", err)
		} else {
			c.Config.Keyring = serial
		}
	}

	if p.hasTLSKey && c.Config.TLSKey == 0 {
		err := r.importTLSKey(c, p)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to import TLS key", "nqn", s.NQN(), "transport", p.id.Transport, "traddr", p.id.Traddr, "err", err)
		}
	}
}

func (r *Reconciler) lookupKeyring(description string) (int, error) {
	if r.keys == nil {
		return 0, errors.New("no keyring available")
	}

	if description == "" {
		description = r.DefaultKeyring
	}

	return r.keys.Lookup(description)
}

// importTLSKey inserts the port's TLS key into the controller's keyring.
func (r *Reconciler) importTLSKey(c *topology.Controller, p portNode) error {
	ring := c.Config.Keyring
	if ring == 0 {
		var err error

		ring, err = r.lookupKeyring(p.keyring)
		if err != nil {
			return err
		}
	}

	serial, err := pskey.Import(r.keys, ring, c.Subsystem().Host().HostNQN(), c.Subsystem().NQN(), p.tlsKey)
	if err != nil {
		return err
	}

	c.SetTLSKey(ring, serial)

	return nil
}

// stringValue returns a non-empty string field of node.
func stringValue(node gjson.Result, key string) (string, bool) {
	value := node.Get(key)
	if !value.Exists() || value.Type == gjson.Null || value.String() == "" {
		return "", false
	}

	return value.String(), true
}

// arrayValue returns the elements of an array field of node.
func arrayValue(node gjson.Result, key string) []gjson.Result {
	value := node.Get(key)
	if !value.IsArray() {
		return nil
	}

	return value.Array()
}
