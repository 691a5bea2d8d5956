// Package topology holds the live NVMe over Fabrics topology: hosts, the subsystems
// they are connected to and the controllers (ports) used to reach them.
package topology

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// DiscoverySubsysNQN is the well-known NQN of discovery subsystems.
const DiscoverySubsysNQN = "nqn.2014-08.org.nvmexpress.discovery"

// ErrInvalidIdentity is returned when an entity can't be created from the provided identity.
var ErrInvalidIdentity = errors.New("invalid identity")

// ErrUnknownTransport is returned when a controller uses an unsupported transport.
var ErrUnknownTransport = errors.New("unknown transport")

// Root is the top of the live topology.
type Root struct {
	hosts []*Host
}

// New returns an empty topology.
func New() *Root {
	return &Root{}
}

// Hosts returns the hosts in creation order.
func (r *Root) Hosts() []*Host {
	return r.hosts
}

// LookupHost returns the host matching the NQN, creating it if missing.
//
// An existing host without a host ID adopts the provided one.
func (r *Root) LookupHost(hostNQN string, hostID string) (*Host, error) {
	if hostNQN == "" {
		return nil, fmt.Errorf("%w: empty host NQN", ErrInvalidIdentity)
	}

	if hostID != "" {
		_, err := uuid.Parse(hostID)
		if err != nil {
			return nil, fmt.Errorf("%w: host ID %q: %w", ErrInvalidIdentity, hostID, err)
		}
	}

	for _, h := range r.hosts {
		if h.hostNQN != hostNQN {
			continue
		}

		if h.hostID == "" {
			h.hostID = hostID
		}

		return h, nil
	}

	h := &Host{
		root:    r,
		hostNQN: hostNQN,
		hostID:  hostID,
	}

	r.hosts = append(r.hosts, h)

	return h, nil
}

// GenerateHostNQN returns a new UUID based host NQN.
func GenerateHostNQN() string {
	return "nqn.2014-08.org.nvmexpress:uuid:" + uuid.New().String()
}
