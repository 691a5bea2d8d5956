package api

// NVMeTarget represents a single discovery controller.
type NVMeTarget struct {
	Transport  string `json:"transport"             yaml:"transport"`
	Address    string `json:"address"               yaml:"address"`
	Port       int    `json:"port,omitempty"        yaml:"port,omitempty"`
	HostTraddr string `json:"host_traddr,omitempty" yaml:"host_traddr,omitempty"`
	HostIface  string `json:"host_iface,omitempty"  yaml:"host_iface,omitempty"`
}

// NVMeHost represents the identity of the local NVMe host.
type NVMeHost struct {
	HostID  string `json:"host_id"  yaml:"host_id"`
	HostNQN string `json:"host_nqn" yaml:"host_nqn"`
}
