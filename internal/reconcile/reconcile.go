// Package reconcile synchronizes NVMe over Fabrics JSON configuration documents with the
// live topology.
//
// Importing merges a document into the topology without overwriting anything that was
// already configured. Exporting produces either the persisted configuration (only the
// entities and fields worth keeping) or a full status dump.
package reconcile

import (
	"context"
	"log/slog"

	"github.com/lxc/incus-os/nvme-config/internal/keyring"
	"github.com/lxc/incus-os/nvme-config/internal/topology"
)

// Reconciler imports and exports documents for one live topology.
//
// It performs no locking, callers must serialize access to the topology.
type Reconciler struct {
	root *topology.Root
	keys keyring.Keyring

	// DefaultKeyring is the keyring description used for TLS keys of ports that don't name one.
	DefaultKeyring string
}

// New returns a Reconciler for the topology. The keyring may be nil, in which case TLS keys
// are neither imported nor exported.
func New(root *topology.Root, keys keyring.Keyring) *Reconciler {
	return &Reconciler{
		root: root,
		keys: keys,

		DefaultKeyring: keyring.DefaultKeyring,
	}
}

// Root returns the topology the Reconciler works on.
func (r *Reconciler) Root() *topology.Root {
	return r.root
}

// ReadConfig reads the configuration file at path and merges it into the topology.
func (r *Reconciler) ReadConfig(ctx context.Context, path string) error {
	doc, err := ReadFile(path)
	if err != nil {
		slog.DebugContext(ctx, "Failed to read configuration", "path", path, "err", err)

		return err
	}

	return r.Import(ctx, doc)
}
