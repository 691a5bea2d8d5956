//go:build !linux

package keyring

import (
	"errors"
)

// Kernel is the Linux kernel keyring, unavailable on this platform.
type Kernel struct {
	Keyring
}

// NewKernel returns an error as the kernel keyring is Linux specific.
func NewKernel() (*Kernel, error) {
	return nil, errors.New("kernel keyring is only supported on Linux")
}
