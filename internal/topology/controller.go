package topology

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
)

// Supported transports.
const (
	TransportTCP  = "tcp"
	TransportRDMA = "rdma"
	TransportFC   = "fc"
	TransportLoop = "loop"
	TransportPCIe = "pcie"
)

// DefaultCtrlLossTmo is the kernel default controller loss timeout (NVMF_DEF_CTRL_LOSS_TMO).
const DefaultCtrlLossTmo = 600

// DefaultTOS means no type of service was requested.
const DefaultTOS = -1

var (
	fcAddressRegexp = regexp.MustCompile(`^nn-0x[0-9a-fA-F]{16}:pn-0x[0-9a-fA-F]{16}$`)
	hostnameRegexp  = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?)*$`)
)

// ControllerID is the identity of a controller within a subsystem.
type ControllerID struct {
	Transport  string
	Traddr     string
	HostTraddr string
	HostIface  string
	Trsvcid    string
}

// Validate checks that a controller can be created for the identity.
func (id ControllerID) Validate() error {
	switch id.Transport {
	case TransportTCP, TransportRDMA:
		if id.Traddr == "" {
			return fmt.Errorf("%w: %s transport requires traddr", ErrInvalidIdentity, id.Transport)
		}

		if net.ParseIP(id.Traddr) == nil && !hostnameRegexp.MatchString(id.Traddr) {
			return fmt.Errorf("%w: invalid traddr %q", ErrInvalidIdentity, id.Traddr)
		}

		if id.Trsvcid != "" {
			port, err := strconv.Atoi(id.Trsvcid)
			if err != nil || port <= 0 || port > 65535 {
				return fmt.Errorf("%w: invalid trsvcid %q", ErrInvalidIdentity, id.Trsvcid)
			}
		}
	case TransportFC:
		if !fcAddressRegexp.MatchString(id.Traddr) {
			return fmt.Errorf("%w: invalid fc traddr %q", ErrInvalidIdentity, id.Traddr)
		}
	case TransportLoop, TransportPCIe:
	default:
		return fmt.Errorf("%w %q", ErrUnknownTransport, id.Transport)
	}

	return nil
}

// FabricsConfig holds the connection tunables of a controller.
type FabricsConfig struct {
	NrIOQueues     int
	NrWriteQueues  int
	NrPollQueues   int
	QueueSize      int
	KeepAliveTmo   int
	ReconnectDelay int
	CtrlLossTmo    int
	FastIOFailTmo  int
	TOS            int

	DuplicateConnect bool
	DisableSQFlow    bool
	HdrDigest        bool
	DataDigest       bool
	TLS              bool
	Concat           bool

	// Keyring and TLSKey are kernel key serials, zero when unset.
	Keyring int
	TLSKey  int
}

// DefaultFabricsConfig returns a config with every field unset.
func DefaultFabricsConfig() FabricsConfig {
	return FabricsConfig{
		CtrlLossTmo: DefaultCtrlLossTmo,
		TOS:         DefaultTOS,
	}
}

// Controller is a connection endpoint to a subsystem.
type Controller struct {
	subsystem *Subsystem

	id ControllerID

	Name string

	// DHCHAPHostKey is persisted as "dhchap_key" and DHCHAPCtrlKey as "dhchap_ctrl_key".
	DHCHAPHostKey string
	DHCHAPCtrlKey string

	Persistent bool
	Discovery  bool

	Config FabricsConfig
}

// ID returns the controller identity.
func (c *Controller) ID() ControllerID {
	return c.id
}

// Transport returns the controller transport.
func (c *Controller) Transport() string {
	return c.id.Transport
}

// Subsystem returns the owning subsystem.
func (c *Controller) Subsystem() *Subsystem {
	return c.subsystem
}

// SetTLSKey records a TLS key together with the keyring holding it.
func (c *Controller) SetTLSKey(keyring int, key int) {
	c.Config.Keyring = keyring
	c.Config.TLSKey = key
	c.Config.TLS = true
}
