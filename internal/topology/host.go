package topology

import (
	"fmt"
	"strconv"
)

// Host is a local initiator identity.
type Host struct {
	root *Root

	hostNQN string
	hostID  string

	DHCHAPKey   string
	HostSymname string

	pdcEnabled      bool
	pdcEnabledValid bool

	subsystems []*Subsystem
}

// HostNQN returns the host NQN.
func (h *Host) HostNQN() string {
	return h.hostNQN
}

// HostID returns the host ID, if any.
func (h *Host) HostID() string {
	return h.hostID
}

// PDCEnabled returns the persistent discovery controller setting and whether it was set at all.
func (h *Host) PDCEnabled() (bool, bool) {
	return h.pdcEnabled, h.pdcEnabledValid
}

// SetPDCEnabled sets the persistent discovery controller setting.
func (h *Host) SetPDCEnabled(enabled bool) {
	h.pdcEnabled = enabled
	h.pdcEnabledValid = true
}

// Subsystems returns the subsystems in creation order.
func (h *Host) Subsystems() []*Subsystem {
	return h.subsystems
}

// LookupSubsystem returns the subsystem matching the NQN, creating it if missing.
//
// Discovery subsystems share a single NQN, so they are additionally matched by name. For
// any other subsystem the name is only used when creating it.
func (h *Host) LookupSubsystem(name string, nqn string) (*Subsystem, error) {
	if nqn == "" {
		return nil, fmt.Errorf("%w: empty subsystem NQN", ErrInvalidIdentity)
	}

	discovery := nqn == DiscoverySubsysNQN

	for _, s := range h.subsystems {
		if s.nqn != nqn {
			continue
		}

		if discovery && name != "" && s.Name != name {
			continue
		}

		if s.Name == "" {
			s.Name = name
		}

		return s, nil
	}

	s := &Subsystem{
		host: h,
		nqn:  nqn,
		Name: name,
	}

	if s.Name == "" {
		s.Name = "nvme-subsys" + strconv.Itoa(h.root.nextSubsystemIndex())
	}

	h.subsystems = append(h.subsystems, s)

	return s, nil
}

// nextSubsystemIndex returns the lowest subsystem index not used by any host.
func (r *Root) nextSubsystemIndex() int {
	used := map[string]bool{}

	for _, h := range r.hosts {
		for _, s := range h.subsystems {
			used[s.Name] = true
		}
	}

	i := 0
	for used["nvme-subsys"+strconv.Itoa(i)] {
		i++
	}

	return i
}
