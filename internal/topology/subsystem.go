package topology

// Subsystem is a remote NVMe subsystem reachable from a host.
type Subsystem struct {
	host *Host

	nqn string

	Name        string
	Application string

	controllers []*Controller
}

// NQN returns the subsystem NQN.
func (s *Subsystem) NQN() string {
	return s.nqn
}

// Host returns the owning host.
func (s *Subsystem) Host() *Host {
	return s.host
}

// IsDiscovery returns true for discovery subsystems.
func (s *Subsystem) IsDiscovery() bool {
	return s.nqn == DiscoverySubsysNQN
}

// Controllers returns the controllers in creation order.
func (s *Subsystem) Controllers() []*Controller {
	return s.controllers
}

// LookupController returns the controller matching the full identity, creating it if missing.
func (s *Subsystem) LookupController(id ControllerID) (*Controller, error) {
	for _, c := range s.controllers {
		if c.id == id {
			return c, nil
		}
	}

	err := id.Validate()
	if err != nil {
		return nil, err
	}

	c := &Controller{
		subsystem: s,
		id:        id,
		Config:    DefaultFabricsConfig(),
	}

	s.controllers = append(s.controllers, c)

	return c, nil
}
